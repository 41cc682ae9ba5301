package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/colelamarris56-code/price-monitor/internal/config"
	"github.com/colelamarris56-code/price-monitor/internal/models"
	"github.com/colelamarris56-code/price-monitor/internal/storage"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresRepo struct {
	pool *pgxpool.Pool
}

func New(ctx context.Context, cfg *config.Config) (*PostgresRepo, error) {
	const op = "storage.postgres.New"

	poolConfig, err := pgxpool.ParseConfig(dsn(cfg))
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse config: %w", op, err)
	}

	poolConfig.MaxConns = 10
	poolConfig.MinConns = 2
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = time.Minute * 30

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to create pool: %w", op, err)
	}

	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("%s: ping failed: %w", op, err)
	}

	return &PostgresRepo{pool: pool}, nil
}

// SaveProduct inserts a new tracked product.
func (r *PostgresRepo) SaveProduct(ctx context.Context, p models.Product) error {
	const op = "storage.postgres.SaveProduct"

	const query = `
		INSERT INTO products (id, title, url, source, target_price, selector, availability, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.pool.Exec(ctx, query,
		p.ID,
		p.Title,
		p.URL,
		p.Source,
		p.TargetPrice,
		p.Selector,
		p.Availability,
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == storage.UniqueViolation {
			return storage.ErrProductExists
		}

		return fmt.Errorf("%s: failed to save product: %w", op, err)
	}

	return nil
}

// Products returns a page of tracked products plus the total count.
func (r *PostgresRepo) Products(ctx context.Context, limit, offset int64) ([]models.Product, int64, error) {
	const op = "storage.postgres.Products"

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.ReadCommitted,
		AccessMode: pgx.ReadOnly,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("%s: begin tx: %w", op, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	const query = `
		SELECT id, title, url, source, target_price, selector, price, currency, availability, last_checked, created_at, updated_at
		FROM products
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := tx.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: query: %w", op, err)
	}

	products, err := pgx.CollectRows(rows, pgx.RowToStructByName[models.Product])
	if err != nil {
		return nil, 0, fmt.Errorf("%s: collect: %w", op, err)
	}

	var total int64
	if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM products`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("%s: count: %w", op, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, 0, fmt.Errorf("%s: commit: %w", op, err)
	}

	return products, total, nil
}

// TrackedProducts returns every tracked product, for the scheduler's
// enqueue cycle.
func (r *PostgresRepo) TrackedProducts(ctx context.Context) ([]models.Product, error) {
	const op = "storage.postgres.TrackedProducts"

	const query = `
		SELECT id, title, url, source, target_price, selector, price, currency, availability, last_checked, created_at, updated_at
		FROM products
		ORDER BY created_at ASC
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: query: %w", op, err)
	}

	products, err := pgx.CollectRows(rows, pgx.RowToStructByName[models.Product])
	if err != nil {
		return nil, fmt.Errorf("%s: collect: %w", op, err)
	}

	return products, nil
}

// ProductByID returns one tracked product.
func (r *PostgresRepo) ProductByID(ctx context.Context, productID string) (models.Product, error) {
	const op = "storage.postgres.ProductByID"

	const query = `
		SELECT id, title, url, source, target_price, selector, price, currency, availability, last_checked, created_at, updated_at
		FROM products
		WHERE id = $1
	`

	rows, err := r.pool.Query(ctx, query, productID)
	if err != nil {
		return models.Product{}, fmt.Errorf("%s: query: %w", op, err)
	}

	product, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[models.Product])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Product{}, storage.ErrProductNotFound
		}

		return models.Product{}, fmt.Errorf("%s: collect: %w", op, err)
	}

	return product, nil
}

// RecordObservation appends one observation to the product's history and
// mirrors it onto the product row. History rows are plain inserts, so
// concurrent appends to the same product never lose an observation; the
// scalar mirror is last-writer-wins. A null price is recorded in history
// for auditing but does not overwrite the last known price.
func (r *PostgresRepo) RecordObservation(ctx context.Context, productID string, obs models.PriceObservation) error {
	const op = "storage.postgres.RecordObservation"

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%s: begin tx: %w", op, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	const insertQuery = `
		INSERT INTO price_observations (product_id, price, currency, availability, observed_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	if _, err := tx.Exec(ctx, insertQuery,
		productID,
		obs.Price,
		obs.Currency,
		obs.Availability,
		obs.ObservedAt,
	); err != nil {
		return fmt.Errorf("%s: insert observation: %w", op, err)
	}

	const updateQuery = `
		UPDATE products
		SET price        = COALESCE($1, price),
			currency     = COALESCE($2, currency),
			availability = $3,
			last_checked = $4,
			updated_at   = now()
		WHERE id = $5
	`

	cmd, err := tx.Exec(ctx, updateQuery,
		obs.Price,
		obs.Currency,
		obs.Availability,
		obs.ObservedAt,
		productID,
	)
	if err != nil {
		return fmt.Errorf("%s: update product: %w", op, err)
	}

	if cmd.RowsAffected() == 0 {
		return storage.ErrProductNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%s: commit: %w", op, err)
	}

	return nil
}

// Observations returns the most recent observations for a product, newest
// first.
func (r *PostgresRepo) Observations(ctx context.Context, productID string, limit int64) ([]models.PriceObservation, error) {
	const op = "storage.postgres.Observations"

	const query = `
		SELECT price, currency, availability, observed_at
		FROM price_observations
		WHERE product_id = $1
		ORDER BY observed_at DESC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, productID, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: query: %w", op, err)
	}

	observations, err := pgx.CollectRows(rows, pgx.RowToStructByName[models.PriceObservation])
	if err != nil {
		return nil, fmt.Errorf("%s: collect: %w", op, err)
	}

	return observations, nil
}

// LatestObservation returns the most recent observation that carries a
// known price, or nil when the product has none. Null-price audit rows are
// skipped so they are never used as the previous price in alert decisions.
func (r *PostgresRepo) LatestObservation(ctx context.Context, productID string) (*models.PriceObservation, error) {
	const op = "storage.postgres.LatestObservation"

	const query = `
		SELECT price, currency, availability, observed_at
		FROM price_observations
		WHERE product_id = $1 AND price IS NOT NULL
		ORDER BY observed_at DESC
		LIMIT 1
	`

	rows, err := r.pool.Query(ctx, query, productID)
	if err != nil {
		return nil, fmt.Errorf("%s: query: %w", op, err)
	}

	obs, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[models.PriceObservation])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}

		return nil, fmt.Errorf("%s: collect: %w", op, err)
	}

	return &obs, nil
}

// DeleteProduct removes a product; its observations cascade.
func (r *PostgresRepo) DeleteProduct(ctx context.Context, productID string) error {
	const op = "storage.postgres.DeleteProduct"

	const query = `
		DELETE FROM products
		WHERE id = $1
	`

	cmd, err := r.pool.Exec(ctx, query, productID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if cmd.RowsAffected() == 0 {
		return storage.ErrProductNotFound
	}

	return nil
}

func (r *PostgresRepo) Close() {
	r.pool.Close()
}

func dsn(cfg *config.Config) string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s database=%s sslmode=%s",
		cfg.Postgres.Host,
		cfg.Postgres.Port,
		cfg.Postgres.User,
		cfg.Postgres.Password,
		cfg.Postgres.DBName,
		cfg.Postgres.SSLMode,
	)
}
