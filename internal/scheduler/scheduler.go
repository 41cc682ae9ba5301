// Package scheduler fires recurring price-check enqueue cycles.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	sl "github.com/colelamarris56-code/price-monitor/internal/lib/logger"
	"github.com/colelamarris56-code/price-monitor/internal/models"
	"github.com/colelamarris56-code/price-monitor/internal/retry"
)

type ProductLister interface {
	TrackedProducts(ctx context.Context) ([]models.Product, error)
}

type Enqueuer interface {
	Enqueue(ctx context.Context, productID, url string) (string, error)
}

type Scheduler struct {
	log           *slog.Logger
	products      ProductLister
	queue         Enqueuer
	interval      time.Duration
	listPolicy    retry.Policy
	enqueuePolicy retry.Policy

	running atomic.Bool
}

func New(
	log *slog.Logger,
	products ProductLister,
	queue Enqueuer,
	interval time.Duration,
	listPolicy, enqueuePolicy retry.Policy,
) *Scheduler {
	return &Scheduler{
		log:           log,
		products:      products,
		queue:         queue,
		interval:      interval,
		listPolicy:    listPolicy,
		enqueuePolicy: enqueuePolicy,
	}
}

// Run fires a price-check cycle every interval until ctx is cancelled. The
// cycle runs detached from the ticker, so a slow cycle never delays the next
// due time; a tick that arrives while the previous cycle is still in flight
// is skipped, never run in parallel against the same enqueue logic.
func (s *Scheduler) Run(ctx context.Context) {
	const op = "scheduler.Run"

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.log.Info("scheduler started", slog.Duration("interval", s.interval))

	for {
		select {
		case <-ctx.Done():
			s.log.Info("scheduler stopped")
			return
		case <-ticker.C:
			if !s.running.CompareAndSwap(false, true) {
				s.log.Warn(
					"previous price-check cycle still running, skipping tick",
					slog.String("op", op),
				)
				continue
			}

			go func() {
				defer s.running.Store(false)

				count, err := s.EnqueuePriceChecks(ctx)
				if err != nil {
					s.log.Error("price-check cycle failed", slog.String("op", op), sl.Err(err))
					return
				}

				s.log.Info("price-check cycle finished", slog.Int("enqueued", count))
			}()
		}
	}
}

// EnqueuePriceChecks enqueues one price-check job per tracked product and
// returns the number successfully enqueued. Listing is retried; if it still
// fails the whole cycle is abandoned. Products missing an id or url are
// skipped and logged, and each enqueue is retried independently so one
// failing product never blocks the rest of the batch.
func (s *Scheduler) EnqueuePriceChecks(ctx context.Context) (int, error) {
	const op = "scheduler.EnqueuePriceChecks"

	products, err := retry.Do(ctx, s.listPolicy, func(ctx context.Context) ([]models.Product, error) {
		return s.products.TrackedProducts(ctx)
	}, func(attempt int, err error) {
		s.log.Warn(
			"retrying product listing",
			slog.String("op", op),
			slog.Int("attempt", attempt),
			sl.Err(err),
		)
	})
	if err != nil {
		return 0, fmt.Errorf("%s: list products: %w", op, err)
	}

	enqueued := 0

	for _, product := range products {
		if product.ID == "" || product.URL == "" {
			s.log.Error(
				"invalid product data, skipping enqueue",
				slog.String("op", op),
				slog.String("product_id", product.ID),
				slog.String("url", product.URL),
			)
			continue
		}

		jobID, err := retry.Do(ctx, s.enqueuePolicy, func(ctx context.Context) (string, error) {
			return s.queue.Enqueue(ctx, product.ID, product.URL)
		}, func(attempt int, err error) {
			s.log.Warn(
				"retrying enqueue",
				slog.String("op", op),
				slog.String("product_id", product.ID),
				slog.Int("attempt", attempt),
				sl.Err(err),
			)
		})
		if err != nil {
			s.log.Error(
				"failed to enqueue price check",
				slog.String("op", op),
				slog.String("product_id", product.ID),
				sl.Err(err),
			)
			continue
		}

		enqueued++
		s.log.Debug(
			"price check enqueued",
			slog.String("job_id", jobID),
			slog.String("product_id", product.ID),
		)
	}

	return enqueued, nil
}
