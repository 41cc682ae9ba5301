package adapters

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/colelamarris56-code/price-monitor/internal/models"
)

const (
	defaultTimeout   = 30 * time.Second
	defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

	// maxBodyBytes caps how much of a product page is read.
	maxBodyBytes = 4 << 20

	// markerWindow is how far past the price marker the extractor scans for
	// a numeric token.
	markerWindow = 256
)

var priceRe = regexp.MustCompile(`\d[\d,]*(?:\.\d+)?`)

// ScrapeOptions configures a ScrapeAdapter for one source.
type ScrapeOptions struct {
	// PriceMarker is the substring preceding the price on the product page,
	// e.g. a class or id attribute of the price element.
	PriceMarker string

	// OutOfStockMarker, when present on the page, flags the product as out
	// of stock. Optional.
	OutOfStockMarker string

	// Currency is the ISO code reported with each observation. Optional.
	Currency string

	UserAgent string
	Timeout   time.Duration
}

// ScrapeAdapter fetches a product page over HTTP and extracts the first
// numeric price token that follows a configured marker. Each invocation
// owns its request and response; nothing is shared beyond the client's
// connection pool.
type ScrapeAdapter struct {
	client           *http.Client
	timeout          time.Duration
	priceMarker      string
	outOfStockMarker string
	currency         string
	userAgent        string
}

func NewScrapeAdapter(opts ScrapeOptions) *ScrapeAdapter {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	return &ScrapeAdapter{
		client:           &http.Client{Timeout: timeout},
		timeout:          timeout,
		priceMarker:      opts.PriceMarker,
		outOfStockMarker: opts.OutOfStockMarker,
		currency:         opts.Currency,
		userAgent:        userAgent,
	}
}

func (a *ScrapeAdapter) FetchPrice(ctx context.Context, rawURL string) (models.PriceObservation, error) {
	const op = "adapters.scrape.FetchPrice"

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return models.PriceObservation{}, fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("User-Agent", a.userAgent)

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

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return models.PriceObservation{}, fmt.Errorf("%s: %w", op, ErrFetchTimeout)
		}
		return models.PriceObservation{}, fmt.Errorf("%s: read body: %w", op, err)
	}

	page := string(body)

	price, ok := extractPrice(page, a.priceMarker)
	if !ok {
		return models.PriceObservation{}, fmt.Errorf("%s: marker %q: %w", op, a.priceMarker, ErrExtractionFailed)
	}

	availability := models.InStock
	if a.outOfStockMarker != "" && strings.Contains(page, a.outOfStockMarker) {
		availability = models.OutOfStock
	}

	obs := models.PriceObservation{
		Price:        &price,
		Availability: availability,
		ObservedAt:   time.Now().UTC(),
	}
	if a.currency != "" {
		currency := a.currency
		obs.Currency = &currency
	}

	return obs, nil
}

// extractPrice finds the marker in the page and parses the first numeric
// token within the window that follows it.
func extractPrice(page, marker string) (float64, bool) {
	if marker == "" {
		return 0, false
	}

	idx := strings.Index(page, marker)
	if idx < 0 {
		return 0, false
	}

	window := page[idx+len(marker):]
	if len(window) > markerWindow {
		window = window[:markerWindow]
	}

	token := priceRe.FindString(window)
	if token == "" {
		return 0, false
	}

	price, err := strconv.ParseFloat(strings.ReplaceAll(token, ",", ""), 64)
	if err != nil {
		return 0, false
	}

	return price, true
}
