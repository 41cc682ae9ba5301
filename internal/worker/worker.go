// Package worker executes price-check jobs delivered from the job queue.
package worker

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/colelamarris56-code/price-monitor/internal/adapters"
	"github.com/colelamarris56-code/price-monitor/internal/alert"
	sl "github.com/colelamarris56-code/price-monitor/internal/lib/logger"
	"github.com/colelamarris56-code/price-monitor/internal/models"
	"github.com/colelamarris56-code/price-monitor/internal/queue"
	"github.com/colelamarris56-code/price-monitor/internal/retry"
)

type AdapterResolver interface {
	Resolve(rawURL string) (adapters.Adapter, error)
}

type ObservationStore interface {
	ProductByID(ctx context.Context, productID string) (models.Product, error)
	// LatestObservation returns the most recent observation with a known
	// price, or nil when the product has none.
	LatestObservation(ctx context.Context, productID string) (*models.PriceObservation, error)
	RecordObservation(ctx context.Context, productID string, obs models.PriceObservation) error
}

type Notifier interface {
	// SendPriceAlert reports a price at or under target. A nil previousPrice
	// means this is the product's first recorded reading.
	SendPriceAlert(ctx context.Context, product models.Product, previousPrice *float64, newPrice float64) error
}

type Consumer interface {
	Consume(ctx context.Context, handler queue.HandlerFunc) error
}

type Worker struct {
	log           *slog.Logger
	registry      AdapterResolver
	store         ObservationStore
	notifier      Notifier
	fetchPolicy   retry.Policy
	persistPolicy retry.Policy
}

func New(
	log *slog.Logger,
	registry AdapterResolver,
	store ObservationStore,
	notifier Notifier,
	fetchPolicy, persistPolicy retry.Policy,
) *Worker {
	return &Worker{
		log:           log,
		registry:      registry,
		store:         store,
		notifier:      notifier,
		fetchPolicy:   fetchPolicy,
		persistPolicy: persistPolicy,
	}
}

// Run subscribes the worker to the price-check queue.
func (w *Worker) Run(ctx context.Context, consumer Consumer) error {
	return consumer.Consume(ctx, w.HandleJob)
}

// HandleJob processes one delivered price-check job. Domain failures are
// terminal for this delivery and contained, so a bad job is acknowledged
// rather than redelivered in a loop; the next scheduled cycle re-checks the
// product anyway. The one non-nil return is shutdown: a job interrupted by
// context cancellation is handed back unacked so it is redelivered later.
func (w *Worker) HandleJob(ctx context.Context, body []byte) error {
	const op = "worker.HandleJob"

	var job models.PriceCheckJob
	if err := json.Unmarshal(body, &job); err != nil {
		w.log.Error("invalid job payload, dropping", slog.String("op", op), sl.Err(err))
		return nil
	}

	log := w.log.With(
		slog.String("op", op),
		slog.String("job_id", job.JobID),
		slog.String("product_id", job.ProductID),
	)

	adapter, err := w.registry.Resolve(job.URL)
	if err != nil {
		// Retrying cannot conjure up an adapter for an unknown source.
		log.Error("no adapter for product source, dropping job", sl.Err(err), slog.String("url", job.URL))
		return nil
	}

	product, err := w.store.ProductByID(ctx, job.ProductID)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		// The product may have been deleted after the job was enqueued.
		log.Error("product lookup failed, dropping job", sl.Err(err))
		return nil
	}

	// Loaded before recording the new observation, so the alert decision
	// compares against the genuinely previous reading.
	prev, err := w.store.LatestObservation(ctx, job.ProductID)
	if err != nil {
		log.Warn("previous observation lookup failed", sl.Err(err))
		prev = nil
	}

	obs, err := retry.Do(ctx, w.fetchPolicy, func(ctx context.Context) (models.PriceObservation, error) {
		o, err := adapter.FetchPrice(ctx, job.URL)
		if err != nil {
			return models.PriceObservation{}, err
		}
		if o.Price == nil {
			// Fetched but priceless is as retryable as any extraction failure.
			return models.PriceObservation{}, adapters.ErrExtractionFailed
		}
		return o, nil
	}, func(attempt int, err error) {
		log.Warn("retrying price fetch", slog.Int("attempt", attempt), sl.Err(err))
	})
	if err != nil {
		if ctx.Err() != nil {
			// Shutdown, not a fetch failure: the delivery stays unacked so
			// the check is redelivered after restart.
			return ctx.Err()
		}
		log.Error("price fetch failed after retries", sl.Err(err))
		w.recordFailedCheck(ctx, log, job.ProductID)
		return nil
	}

	if err := retry.Run(ctx, w.persistPolicy, func(ctx context.Context) error {
		return w.store.RecordObservation(ctx, job.ProductID, obs)
	}, func(attempt int, err error) {
		log.Warn("retrying observation persist", slog.Int("attempt", attempt), sl.Err(err))
	}); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Error("failed to record observation, price check lost for this cycle", sl.Err(err))
		return nil
	}

	decision := alert.Evaluate(product, prev, obs)
	if !decision.Fire {
		log.Debug("no alert", slog.String("reason", decision.Reason), slog.Float64("price", *obs.Price))
		return nil
	}

	var previousPrice *float64
	if prev != nil {
		previousPrice = prev.Price
	}

	// Best effort: the observation is already recorded and stays recorded
	// whether or not the mail goes out.
	if err := w.notifier.SendPriceAlert(ctx, product, previousPrice, *obs.Price); err != nil {
		log.Error("failed to send price alert", sl.Err(err))
		return nil
	}

	log.Info(
		"price alert sent",
		slog.Float64("price", *obs.Price),
		slog.Float64("target", product.TargetPrice),
	)

	return nil
}

// recordFailedCheck appends a null-price observation so the failed attempt
// stays auditable. It never becomes the previous price for alert decisions.
func (w *Worker) recordFailedCheck(ctx context.Context, log *slog.Logger, productID string) {
	failed := models.PriceObservation{
		Availability: models.Unknown,
		ObservedAt:   time.Now().UTC(),
	}

	if err := retry.Run(ctx, w.persistPolicy, func(ctx context.Context) error {
		return w.store.RecordObservation(ctx, productID, failed)
	}, nil); err != nil {
		log.Error("failed to record failed-check observation", sl.Err(err))
	}
}
