package products

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/colelamarris56-code/price-monitor/internal/models"
	"github.com/colelamarris56-code/price-monitor/internal/storage"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakePostgres struct {
	saved   []models.Product
	saveErr error
	byID    map[string]models.Product
	deleted []string
}

func (f *fakePostgres) SaveProduct(ctx context.Context, p models.Product) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved = append(f.saved, p)
	return nil
}

func (f *fakePostgres) ProductByID(ctx context.Context, productID string) (models.Product, error) {
	p, ok := f.byID[productID]
	if !ok {
		return models.Product{}, storage.ErrProductNotFound
	}
	return p, nil
}

func (f *fakePostgres) Observations(ctx context.Context, productID string, limit int64) ([]models.PriceObservation, error) {
	return nil, nil
}

func (f *fakePostgres) DeleteProduct(ctx context.Context, productID string) error {
	f.deleted = append(f.deleted, productID)
	return nil
}

type fakeRedis struct {
	cached  map[string]models.Product
	deleted []string
}

func (f *fakeRedis) SaveProduct(ctx context.Context, p models.Product) error {
	if f.cached == nil {
		f.cached = make(map[string]models.Product)
	}
	f.cached[p.ID] = p
	return nil
}

func (f *fakeRedis) Product(ctx context.Context, productID string) (models.Product, error) {
	p, ok := f.cached[productID]
	if !ok {
		return models.Product{}, storage.ErrProductNotFound
	}
	return p, nil
}

func (f *fakeRedis) DeleteProduct(ctx context.Context, productID string) error {
	f.deleted = append(f.deleted, productID)
	return nil
}

type fakeQueue struct {
	enqueued []string
	err      error
}

func (f *fakeQueue) Enqueue(ctx context.Context, productID, url string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.enqueued = append(f.enqueued, productID)
	return "job-1", nil
}

func TestProductIDDeterministic(t *testing.T) {
	a := ProductID("https://amazon.com/dp/B0TEST")
	b := ProductID("https://amazon.com/dp/B0TEST")
	c := ProductID("https://amazon.com/dp/B0OTHER")

	if a != b {
		t.Error("same URL produced different ids")
	}
	if a == c {
		t.Error("different URLs produced the same id")
	}
	if len(a) != 16 {
		t.Errorf("id length = %d, want 16", len(a))
	}
}

func TestTrackProductSavesAndEnqueuesFirstCheck(t *testing.T) {
	pg := &fakePostgres{}
	queue := &fakeQueue{}
	op := New(discardLogger(), pg, &fakeRedis{}, queue)

	id, err := op.TrackProduct(context.Background(), "https://www.Amazon.com/dp/B0TEST", "Widget", 99.99, ".price")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(pg.saved) != 1 {
		t.Fatalf("saved %d products, want 1", len(pg.saved))
	}
	saved := pg.saved[0]
	if saved.ID != id {
		t.Errorf("returned id %q does not match saved id %q", id, saved.ID)
	}
	if saved.Source != "amazon.com" {
		t.Errorf("source = %q, want amazon.com", saved.Source)
	}
	if saved.Availability != models.Unknown {
		t.Errorf("initial availability = %q, want unknown", saved.Availability)
	}
	if len(queue.enqueued) != 1 || queue.enqueued[0] != id {
		t.Errorf("first check not enqueued: %v", queue.enqueued)
	}
}

func TestTrackProductEnqueueFailureIsNotFatal(t *testing.T) {
	pg := &fakePostgres{}
	queue := &fakeQueue{err: errors.New("broker down")}
	op := New(discardLogger(), pg, &fakeRedis{}, queue)

	id, err := op.TrackProduct(context.Background(), "https://amazon.com/dp/B0TEST", "Widget", 50, "")
	if err != nil {
		t.Fatalf("enqueue failure must not fail tracking, got %v", err)
	}
	if id == "" {
		t.Error("expected a product id")
	}
	if len(pg.saved) != 1 {
		t.Errorf("saved %d products, want 1", len(pg.saved))
	}
}

func TestTrackProductRejectsURLWithoutHost(t *testing.T) {
	op := New(discardLogger(), &fakePostgres{}, &fakeRedis{}, &fakeQueue{})

	if _, err := op.TrackProduct(context.Background(), "/no/host", "Widget", 50, ""); err == nil {
		t.Error("expected error for URL without host")
	}
}

func TestProductByIDReadsThroughCache(t *testing.T) {
	product := models.Product{ID: "p1", Title: "Widget", URL: "https://amazon.com/dp/1"}
	pg := &fakePostgres{byID: map[string]models.Product{"p1": product}}
	cache := &fakeRedis{}
	op := New(discardLogger(), pg, cache, &fakeQueue{})

	got, err := op.ProductByID(context.Background(), "p1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Title != "Widget" {
		t.Errorf("title = %q, want Widget", got.Title)
	}

	// The miss populated the cache.
	if _, ok := cache.cached["p1"]; !ok {
		t.Error("cache not populated after postgres read")
	}

	// A second read is served from the cache even if postgres forgets it.
	delete(pg.byID, "p1")
	if _, err := op.ProductByID(context.Background(), "p1"); err != nil {
		t.Errorf("cached read failed: %v", err)
	}
}

func TestDeleteProductInvalidatesCache(t *testing.T) {
	pg := &fakePostgres{byID: map[string]models.Product{}}
	cache := &fakeRedis{cached: map[string]models.Product{"p1": {ID: "p1"}}}
	op := New(discardLogger(), pg, cache, &fakeQueue{})

	if err := op.DeleteProduct(context.Background(), "p1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cache.deleted) != 1 || cache.deleted[0] != "p1" {
		t.Errorf("cache not invalidated: %v", cache.deleted)
	}
}
