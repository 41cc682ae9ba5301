package models

import "time"

// Availability describes the stock state reported by a source.
type Availability string

const (
	InStock    Availability = "in_stock"
	OutOfStock Availability = "out_of_stock"
	Unknown    Availability = "unknown"
)

// Product is a tracked item. The scalar price fields mirror the most recent
// observation; the full history lives in price_observations.
type Product struct {
	ID           string       `json:"id" db:"id"`
	Title        string       `json:"title" db:"title"`
	URL          string       `json:"url" db:"url"`
	Source       string       `json:"source" db:"source"`
	TargetPrice  float64      `json:"target_price" db:"target_price"`
	Selector     string       `json:"selector,omitempty" db:"selector"`
	Price        *float64     `json:"price" db:"price"`
	Currency     *string      `json:"currency,omitempty" db:"currency"`
	Availability Availability `json:"availability" db:"availability"`
	LastChecked  *time.Time   `json:"last_checked,omitempty" db:"last_checked"`
	CreatedAt    time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at" db:"updated_at"`
}

// PriceObservation is one recorded price check. A nil Price means the check
// ran but extraction failed; the row is kept for auditing and is never used
// as the previous price when deciding alerts.
type PriceObservation struct {
	Price        *float64     `json:"price" db:"price"`
	Currency     *string      `json:"currency,omitempty" db:"currency"`
	Availability Availability `json:"availability" db:"availability"`
	ObservedAt   time.Time    `json:"observed_at" db:"observed_at"`
}

// PriceCheckJob is the queue payload for a single price check. The queue
// treats it as opaque bytes.
type PriceCheckJob struct {
	JobID      string    `json:"job_id"`
	ProductID  string    `json:"product_id"`
	URL        string    `json:"url"`
	EnqueuedAt time.Time `json:"enqueued_at"`
}
