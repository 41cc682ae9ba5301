package scheduler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/colelamarris56-code/price-monitor/internal/models"
	"github.com/colelamarris56-code/price-monitor/internal/retry"
)

var testPolicy = retry.Policy{MaxAttempts: 3, BaseDelay: time.Microsecond, Multiplier: 2}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeLister struct {
	mu       sync.Mutex
	products []models.Product
	err      error
	failures int
	calls    int
}

func (f *fakeLister) TrackedProducts(ctx context.Context) ([]models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil && (f.failures == 0 || f.calls <= f.failures) {
		return nil, f.err
	}
	return f.products, nil
}

type fakeEnqueuer struct {
	mu      sync.Mutex
	jobs    []string
	failFor map[string]error
}

func (f *fakeEnqueuer) Enqueue(ctx context.Context, productID, url string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.failFor[productID]; ok {
		return "", err
	}
	f.jobs = append(f.jobs, productID)
	return fmt.Sprintf("job-%d", len(f.jobs)), nil
}

func product(id, url string) models.Product {
	return models.Product{ID: id, Title: id, URL: url, TargetPrice: 100}
}

func TestEnqueuePriceChecksSkipsInvalidProducts(t *testing.T) {
	lister := &fakeLister{products: []models.Product{
		product("p1", "https://amazon.com/dp/1"),
		product("p2", "https://amazon.com/dp/2"),
		product("p3", "https://amazon.com/dp/3"),
		product("p4", "https://amazon.com/dp/4"),
		product("p5", "https://amazon.com/dp/5"),
		product("p6", ""), // missing url, must be skipped
	}}
	enqueuer := &fakeEnqueuer{}

	s := New(discardLogger(), lister, enqueuer, time.Hour, testPolicy, testPolicy)

	count, err := s.EnqueuePriceChecks(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 5 {
		t.Errorf("count = %d, want 5", count)
	}
	if len(enqueuer.jobs) != 5 {
		t.Errorf("enqueued %d jobs, want 5", len(enqueuer.jobs))
	}
}

func TestEnqueuePriceChecksOneFailureDoesNotBlockOthers(t *testing.T) {
	lister := &fakeLister{products: []models.Product{
		product("p1", "https://amazon.com/dp/1"),
		product("p2", "https://amazon.com/dp/2"),
		product("p3", "https://amazon.com/dp/3"),
	}}
	enqueuer := &fakeEnqueuer{failFor: map[string]error{"p2": errors.New("broker unavailable")}}

	s := New(discardLogger(), lister, enqueuer, time.Hour, testPolicy, testPolicy)

	count, err := s.EnqueuePriceChecks(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 2 {
		t.Errorf("count = %d, want 2", count)
	}
}

func TestEnqueuePriceChecksRetriesListing(t *testing.T) {
	lister := &fakeLister{
		products: []models.Product{product("p1", "https://amazon.com/dp/1")},
		err:      errors.New("storage flake"),
		failures: 2, // succeed on the third attempt
	}
	enqueuer := &fakeEnqueuer{}

	s := New(discardLogger(), lister, enqueuer, time.Hour, testPolicy, testPolicy)

	count, err := s.EnqueuePriceChecks(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}
	if lister.calls != 3 {
		t.Errorf("listing called %d times, want 3", lister.calls)
	}
}

func TestEnqueuePriceChecksAbandonsCycleWhenListingExhausted(t *testing.T) {
	lister := &fakeLister{err: errors.New("storage down")}
	enqueuer := &fakeEnqueuer{}

	s := New(discardLogger(), lister, enqueuer, time.Hour, testPolicy, testPolicy)

	_, err := s.EnqueuePriceChecks(context.Background())
	if err == nil {
		t.Fatal("expected error after listing retries exhausted")
	}
	if lister.calls != testPolicy.MaxAttempts {
		t.Errorf("listing called %d times, want %d", lister.calls, testPolicy.MaxAttempts)
	}
	if len(enqueuer.jobs) != 0 {
		t.Errorf("enqueued %d jobs during abandoned cycle, want 0", len(enqueuer.jobs))
	}
}

type blockingLister struct {
	inFlight atomic.Int32
	maxSeen  atomic.Int32
	release  chan struct{}
}

func (b *blockingLister) TrackedProducts(ctx context.Context) ([]models.Product, error) {
	cur := b.inFlight.Add(1)
	defer b.inFlight.Add(-1)
	for {
		prev := b.maxSeen.Load()
		if cur <= prev || b.maxSeen.CompareAndSwap(prev, cur) {
			break
		}
	}
	select {
	case <-b.release:
	case <-ctx.Done():
	}
	return nil, nil
}

func TestRunNeverOverlapsCycles(t *testing.T) {
	lister := &blockingLister{release: make(chan struct{})}
	enqueuer := &fakeEnqueuer{}

	// Single-attempt policy so a blocked listing keeps the cycle in flight.
	policy := retry.Policy{MaxAttempts: 1, BaseDelay: time.Microsecond, Multiplier: 2}
	s := New(discardLogger(), lister, enqueuer, 5*time.Millisecond, policy, policy)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	// Let several ticks fire while the first cycle is blocked.
	time.Sleep(50 * time.Millisecond)
	close(lister.release)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after cancellation")
	}

	if max := lister.maxSeen.Load(); max > 1 {
		t.Errorf("observed %d concurrent cycles, want at most 1", max)
	}
}
