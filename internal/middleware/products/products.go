package products

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/colelamarris56-code/price-monitor/internal/adapters"
	sl "github.com/colelamarris56-code/price-monitor/internal/lib/logger"
	"github.com/colelamarris56-code/price-monitor/internal/models"
	"github.com/colelamarris56-code/price-monitor/internal/storage"
)

type PostgresStorage interface {
	SaveProduct(ctx context.Context, p models.Product) error
	ProductByID(ctx context.Context, productID string) (models.Product, error)
	Observations(ctx context.Context, productID string, limit int64) ([]models.PriceObservation, error)
	DeleteProduct(ctx context.Context, productID string) error
}

type RedisStorage interface {
	SaveProduct(ctx context.Context, product models.Product) error
	Product(ctx context.Context, productID string) (models.Product, error)
	DeleteProduct(ctx context.Context, productID string) error
}

type Enqueuer interface {
	Enqueue(ctx context.Context, productID, url string) (string, error)
}

// ProductOperator coordinates product writes across postgres, the cache,
// and the job queue.
type ProductOperator struct {
	log      *slog.Logger
	Postgres PostgresStorage
	Redis    RedisStorage
	Queue    Enqueuer
}

func New(log *slog.Logger, pg PostgresStorage, r RedisStorage, queue Enqueuer) *ProductOperator {
	return &ProductOperator{
		log:      log,
		Postgres: pg,
		Redis:    r,
		Queue:    queue,
	}
}

// ProductID derives a stable identifier from the product URL, so tracking
// the same URL twice maps to the same product.
func ProductID(rawURL string) string {
	sum := sha256.Sum256([]byte(rawURL))
	return hex.EncodeToString(sum[:8])
}

// TrackProduct registers a product and enqueues its first price check. The
// first check is best effort: if the enqueue fails the product is still
// tracked and the next scheduled cycle picks it up.
func (p *ProductOperator) TrackProduct(ctx context.Context, url, title string, targetPrice float64, selector string) (string, error) {
	const op = "products.TrackProduct"

	source, err := adapters.Source(url)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	now := time.Now().UTC()
	product := models.Product{
		ID:           ProductID(url),
		Title:        title,
		URL:          url,
		Source:       source,
		TargetPrice:  targetPrice,
		Selector:     selector,
		Availability: models.Unknown,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := p.Postgres.SaveProduct(ctx, product); err != nil {
		return "", err
	}

	if _, err := p.Queue.Enqueue(ctx, product.ID, product.URL); err != nil {
		p.log.Warn(
			"failed to enqueue first price check",
			slog.String("op", op),
			slog.String("product_id", product.ID),
			sl.Err(err),
		)
	}

	return product.ID, nil
}

// ProductByID reads through the cache.
func (p *ProductOperator) ProductByID(ctx context.Context, productID string) (models.Product, error) {
	product, err := p.Redis.Product(ctx, productID)
	switch {
	case err == nil:
		return product, nil

	case !errors.Is(err, storage.ErrProductNotFound):
		return models.Product{}, err
	}

	product, err = p.Postgres.ProductByID(ctx, productID)
	if err != nil {
		return models.Product{}, err
	}

	_ = p.Redis.SaveProduct(ctx, product)

	return product, nil
}

// ProductWithHistory returns the product plus its most recent observations.
func (p *ProductOperator) ProductWithHistory(ctx context.Context, productID string, historyLimit int64) (models.Product, []models.PriceObservation, error) {
	product, err := p.ProductByID(ctx, productID)
	if err != nil {
		return models.Product{}, nil, err
	}

	observations, err := p.Postgres.Observations(ctx, productID, historyLimit)
	if err != nil {
		return models.Product{}, nil, err
	}

	return product, observations, nil
}

// DeleteProduct stops tracking and invalidates the cache.
func (p *ProductOperator) DeleteProduct(ctx context.Context, productID string) error {
	const op = "products.DeleteProduct"

	if err := p.Postgres.DeleteProduct(ctx, productID); err != nil {
		return err
	}

	if err := p.Redis.DeleteProduct(ctx, productID); err != nil {
		p.log.Warn(
			"failed to invalidate product cache",
			slog.String("op", op),
			slog.String("product_id", productID),
			sl.Err(err),
		)
	}

	return nil
}
