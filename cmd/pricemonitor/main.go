package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/colelamarris56-code/price-monitor/internal/adapters"
	"github.com/colelamarris56-code/price-monitor/internal/config"
	triggerCheck "github.com/colelamarris56-code/price-monitor/internal/http-server/handlers/checks/trigger"
	addProduct "github.com/colelamarris56-code/price-monitor/internal/http-server/handlers/products/add"
	deleteProduct "github.com/colelamarris56-code/price-monitor/internal/http-server/handlers/products/delete"
	getProducts "github.com/colelamarris56-code/price-monitor/internal/http-server/handlers/products/get"
	getByID "github.com/colelamarris56-code/price-monitor/internal/http-server/handlers/products/get_by_id"
	"github.com/colelamarris56-code/price-monitor/internal/lib/jwt"
	sl "github.com/colelamarris56-code/price-monitor/internal/lib/logger"
	"github.com/colelamarris56-code/price-monitor/internal/middleware/auth"
	"github.com/colelamarris56-code/price-monitor/internal/middleware/products"
	"github.com/colelamarris56-code/price-monitor/internal/notifier"
	"github.com/colelamarris56-code/price-monitor/internal/queue"
	"github.com/colelamarris56-code/price-monitor/internal/retry"
	"github.com/colelamarris56-code/price-monitor/internal/scheduler"
	"github.com/colelamarris56-code/price-monitor/internal/storage/postgres"
	"github.com/colelamarris56-code/price-monitor/internal/storage/redis"
	"github.com/colelamarris56-code/price-monitor/internal/worker"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-playground/validator/v10"
)

func main() {
	cfg := config.MustLoad("./config/config.yaml")

	log := sl.Setup(cfg.Env)

	log.Info("starting price monitor", slog.String("env", cfg.Env))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigs
		log.Info("shutdown signal received")
		cancel()
	}()

	redisClient, err := redis.New(ctx, cfg.Redis.Addr, cfg.Redis.Db, cfg.Redis.DefaultTTL)
	if err != nil {
		log.Error("failed to connect redis", sl.Err(err))
		os.Exit(1)
	}
	defer redisClient.Close()

	postgresClient, err := postgres.New(ctx, cfg)
	if err != nil {
		log.Error("failed to connect postgres", sl.Err(err))
		os.Exit(1)
	}
	defer postgresClient.Close()

	queueClient, err := queue.New(cfg.RabbitMQ.URL, cfg.RabbitMQ.QueueName)
	if err != nil {
		log.Error("failed to connect rabbitmq", sl.Err(err))
		os.Exit(1)
	}
	defer queueClient.Close()

	producer := queue.NewProducer(queueClient.Channel, cfg.RabbitMQ.QueueName)
	consumer := queue.NewConsumer(
		queueClient.Channel,
		log,
		cfg.RabbitMQ.QueueName,
		cfg.RabbitMQ.WorkerPoolSize,
	)

	registry, err := setupAdapters(cfg)
	if err != nil {
		log.Error("failed to set up adapters", sl.Err(err))
		os.Exit(1)
	}

	fetchPolicy := retry.Policy{
		MaxAttempts: cfg.Monitoring.FetchRetry.Attempts,
		BaseDelay:   cfg.Monitoring.FetchRetry.BaseDelay,
		Multiplier:  2,
	}
	persistPolicy := retry.Policy{
		MaxAttempts: cfg.Monitoring.PersistRetry.Attempts,
		BaseDelay:   cfg.Monitoring.PersistRetry.BaseDelay,
		Multiplier:  2,
	}
	enqueuePolicy := retry.Policy{
		MaxAttempts: cfg.Monitoring.EnqueueRetry.Attempts,
		BaseDelay:   cfg.Monitoring.EnqueueRetry.BaseDelay,
		Multiplier:  2,
	}

	mailNotifier := notifier.New(cfg.SMTP)

	priceWorker := worker.New(
		log,
		registry,
		postgresClient,
		mailNotifier,
		fetchPolicy,
		persistPolicy,
	)
	if err := priceWorker.Run(ctx, consumer); err != nil {
		log.Error("failed to start worker", sl.Err(err))
		os.Exit(1)
	}

	checkScheduler := scheduler.New(
		log,
		postgresClient,
		producer,
		cfg.Monitoring.CheckInterval,
		persistPolicy,
		enqueuePolicy,
	)
	go checkScheduler.Run(ctx)

	prodOp := products.New(log, postgresClient, redisClient, producer)

	jwtParser := jwt.New(cfg.JWTSecret)
	requestValidator := validator.New()

	router := setupRouter(log, requestValidator, jwtParser, postgresClient, prodOp, checkScheduler)

	srv := &http.Server{
		Addr:         cfg.HTTPServer.Address,
		Handler:      router,
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	go func() {
		log.Info("http server started", slog.String("address", cfg.HTTPServer.Address))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", sl.Err(err))
			cancel()
		}
	}()

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http server shutdown failed", sl.Err(err))
	}

	log.Info("price monitor stopped")
}

// setupAdapters registers one adapter per supported source. Unregistered
// sources are dropped by the worker without retrying.
func setupAdapters(cfg *config.Config) (*adapters.Registry, error) {
	registry := adapters.NewRegistry()

	registry.Register("amazon.com", adapters.NewScrapeAdapter(adapters.ScrapeOptions{
		PriceMarker:      `class="a-price-whole"`,
		OutOfStockMarker: "Currently unavailable",
		Currency:         "USD",
		Timeout:          cfg.Monitoring.AdapterTimeout,
	}))

	neweggAdapter, err := adapters.NewAPIAdapter(adapters.APIOptions{
		BaseURL: cfg.Monitoring.PriceAPIBaseURL,
		Timeout: cfg.Monitoring.AdapterTimeout,
	})
	if err != nil {
		return nil, err
	}
	registry.Register("newegg.com", neweggAdapter)

	return registry, nil
}

func setupRouter(
	log *slog.Logger,
	validate *validator.Validate,
	jwtParser *jwt.JWTParser,
	postgresClient *postgres.PostgresRepo,
	prodOp *products.ProductOperator,
	checkScheduler *scheduler.Scheduler,
) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(auth.New(jwtParser))

	r.Post("/product", addProduct.New(log, prodOp, validate))
	r.Get("/products", getProducts.New(log, postgresClient))
	r.Get("/product", getByID.New(log, prodOp))
	r.Delete("/product", deleteProduct.New(log, prodOp))
	r.Post("/checks/trigger", triggerCheck.New(log, checkScheduler))

	return r
}
