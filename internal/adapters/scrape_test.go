package adapters

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/colelamarris56-code/price-monitor/internal/models"
)

func TestScrapeAdapterFetchPrice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><body>
			<span class="price-current">$1,299.99</span>
		</body></html>`))
	}))
	defer srv.Close()

	adapter := NewScrapeAdapter(ScrapeOptions{
		PriceMarker: `class="price-current"`,
		Currency:    "USD",
		Timeout:     2 * time.Second,
	})

	obs, err := adapter.FetchPrice(context.Background(), srv.URL+"/product/1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if obs.Price == nil {
		t.Fatal("expected a price")
	}
	if *obs.Price != 1299.99 {
		t.Errorf("price = %v, want 1299.99", *obs.Price)
	}
	if obs.Currency == nil || *obs.Currency != "USD" {
		t.Errorf("currency = %v, want USD", obs.Currency)
	}
	if obs.Availability != models.InStock {
		t.Errorf("availability = %v, want in_stock", obs.Availability)
	}
	if obs.ObservedAt.IsZero() {
		t.Error("observed_at not set")
	}
}

func TestScrapeAdapterOutOfStockMarker(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><body>
			<span class="price-current">49.00</span>
			<div id="availability">Currently unavailable</div>
		</body></html>`))
	}))
	defer srv.Close()

	adapter := NewScrapeAdapter(ScrapeOptions{
		PriceMarker:      `class="price-current"`,
		OutOfStockMarker: "Currently unavailable",
	})

	obs, err := adapter.FetchPrice(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if obs.Availability != models.OutOfStock {
		t.Errorf("availability = %v, want out_of_stock", obs.Availability)
	}
}

func TestScrapeAdapterMissingMarkerFailsLoudly(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><body>no price here</body></html>`))
	}))
	defer srv.Close()

	adapter := NewScrapeAdapter(ScrapeOptions{PriceMarker: `class="price-current"`})

	_, err := adapter.FetchPrice(context.Background(), srv.URL)
	if !errors.Is(err, ErrExtractionFailed) {
		t.Errorf("expected ErrExtractionFailed, got %v", err)
	}
}

func TestScrapeAdapterTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(time.Second)
	}))
	defer srv.Close()

	adapter := NewScrapeAdapter(ScrapeOptions{
		PriceMarker: `class="price-current"`,
		Timeout:     20 * time.Millisecond,
	})

	_, err := adapter.FetchPrice(context.Background(), srv.URL)
	if !errors.Is(err, ErrFetchTimeout) {
		t.Errorf("expected ErrFetchTimeout, got %v", err)
	}
}

func TestScrapeAdapterNonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	adapter := NewScrapeAdapter(ScrapeOptions{PriceMarker: `class="price-current"`})

	if _, err := adapter.FetchPrice(context.Background(), srv.URL); err == nil {
		t.Error("expected error for non-200 response")
	}
}

func TestExtractPrice(t *testing.T) {
	tests := []struct {
		name   string
		page   string
		marker string
		want   float64
		ok     bool
	}{
		{name: "plain number", page: `<span class="p">19.99</span>`, marker: `class="p"`, want: 19.99, ok: true},
		{name: "thousands separator", page: `class="p">$2,499.00<`, marker: `class="p"`, want: 2499, ok: true},
		{name: "integer price", page: `class="p">300<`, marker: `class="p"`, want: 300, ok: true},
		{name: "marker absent", page: `nothing`, marker: `class="p"`, ok: false},
		{name: "marker without number nearby", page: `class="p"` + " out of stock", marker: `class="p"`, ok: false},
		{name: "empty marker", page: `19.99`, marker: "", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := extractPrice(tt.page, tt.marker)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if ok && got != tt.want {
				t.Errorf("price = %v, want %v", got, tt.want)
			}
		})
	}
}
