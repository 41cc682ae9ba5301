package adapters

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/colelamarris56-code/price-monitor/internal/models"
)

// APIOptions configures an APIAdapter.
type APIOptions struct {
	// BaseURL is the root of a JSON price endpoint:
	//   GET {base}/price?url=<product url>
	//   -> {"price": 123.45, "currency": "USD", "availability": "in_stock"}
	BaseURL string

	UserAgent string
	Timeout   time.Duration
}

// APIAdapter resolves prices through a JSON price API instead of scraping
// the product page. It exposes the same contract as ScrapeAdapter, so the
// worker cannot tell the two apart.
type APIAdapter struct {
	baseURL   string
	client    *http.Client
	userAgent string
	timeout   time.Duration
}

func NewAPIAdapter(opts APIOptions) (*APIAdapter, error) {
	base := strings.TrimSpace(opts.BaseURL)
	if base == "" {
		return nil, errors.New("BaseURL is required")
	}
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("invalid BaseURL: %w", err)
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	userAgent := strings.TrimSpace(opts.UserAgent)
	if userAgent == "" {
		userAgent = "price-monitor/1.0"
	}

	return &APIAdapter{
		baseURL:   strings.TrimRight(base, "/"),
		client:    &http.Client{Timeout: timeout},
		userAgent: userAgent,
		timeout:   timeout,
	}, nil
}

type priceAPIResponse struct {
	Price        *float64 `json:"price"`
	Currency     string   `json:"currency"`
	Availability string   `json:"availability"`
}

func (a *APIAdapter) FetchPrice(ctx context.Context, rawURL string) (models.PriceObservation, error) {
	const op = "adapters.api.FetchPrice"

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	endpoint := a.baseURL + "/price?url=" + url.QueryEscape(rawURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return models.PriceObservation{}, fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("User-Agent", a.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return models.PriceObservation{}, fmt.Errorf("%s: %w", op, ErrFetchTimeout)
		}
		return models.PriceObservation{}, fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return models.PriceObservation{}, fmt.Errorf("%s: unexpected status %d", op, resp.StatusCode)
	}

	var payload priceAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return models.PriceObservation{}, fmt.Errorf("%s: decode: %w", op, err)
	}

	if payload.Price == nil {
		return models.PriceObservation{}, fmt.Errorf("%s: %w", op, ErrExtractionFailed)
	}

	obs := models.PriceObservation{
		Price:        payload.Price,
		Availability: parseAvailability(payload.Availability),
		ObservedAt:   time.Now().UTC(),
	}
	if payload.Currency != "" {
		currency := payload.Currency
		obs.Currency = &currency
	}

	return obs, nil
}

func parseAvailability(s string) models.Availability {
	switch models.Availability(strings.ToLower(strings.TrimSpace(s))) {
	case models.InStock:
		return models.InStock
	case models.OutOfStock:
		return models.OutOfStock
	default:
		return models.Unknown
	}
}
