package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/plateful/plateful/internal/config"
	"github.com/plateful/plateful/internal/database"
	"github.com/plateful/plateful/internal/directory"
	"github.com/plateful/plateful/internal/idempotency"
	"github.com/plateful/plateful/internal/logger"
	"github.com/plateful/plateful/internal/messaging"
	"github.com/plateful/plateful/internal/notify"
	"github.com/plateful/plateful/internal/ordernum"
	"github.com/plateful/plateful/internal/services/customer"
	"github.com/plateful/plateful/internal/services/restaurant"
	"github.com/plateful/plateful/internal/store"
)

func main() {
	var (
		mode           = flag.String("mode", "", "process mode (customer-api, restaurant-api)")
		configDir      = flag.String("config", "configs", "directory holding base.yaml")
		migrationsPath = flag.String("migrations", "migrations", "directory holding .sql migrations")
	)
	flag.Parse()

	if *mode != "customer-api" && *mode != "restaurant-api" {
		fmt.Fprintf(os.Stderr, "Error: --mode must be customer-api or restaurant-api\n")
		flag.Usage()
		os.Exit(1)
	}

	_ = godotenv.Load()

	cfg, err := config.Load(*configDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.App.Env)
	defer logger.Sync()
	log := logger.L().With(zap.String("mode", *mode))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Info("shutdown signal received")
		cancel()
	}()

	switch *mode {
	case "customer-api":
		err = runCustomerAPI(ctx, cfg, *migrationsPath)
	case "restaurant-api":
		err = runRestaurantAPI(ctx, cfg)
	}
	if err != nil {
		log.Error("service failed", zap.Error(err))
		os.Exit(1)
	}

	log.Info("service stopped")
}

// runCustomerAPI hosts order intake, cancellation and the customer status
// feed. It also owns schema migrations, being the process that creates
// orders.
func runCustomerAPI(ctx context.Context, cfg *config.Config, migrationsPath string) error {
	db, err := database.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("initialize database: %w", err)
	}
	defer db.Close()

	if err := db.RunMigrations(ctx, migrationsPath); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	broker, err := messaging.Connect(cfg)
	if err != nil {
		return fmt.Errorf("initialize messaging: %w", err)
	}
	defer broker.Close()

	rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password})
	defer rdb.Close()
	idem := idempotency.NewStore(rdb, cfg.Redis.IdemTTL)

	orders := store.NewOrders(db)
	dir := directory.NewPostgresDirectory(db)
	publisher := messaging.NewPublisher(broker)

	service := customer.NewService(orders, ordernum.New(orders), dir, dir, dir, publisher)

	hub := notify.NewHub("customer")
	defer hub.Close()

	statusConsumer := customer.NewStatusConsumer(hub)
	go runConsumer(ctx, broker, messaging.QueueStatusChanged, "customer-api", statusConsumer.Handle)

	handler := customer.NewHandler(service, hub, idem, db, broker)
	return serve(ctx, cfg.HTTP.CustomerAddr, cfg, handler.Routes())
}

// runRestaurantAPI hosts order ingestion, status transitions and the
// restaurant live feed.
func runRestaurantAPI(ctx context.Context, cfg *config.Config) error {
	db, err := database.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("initialize database: %w", err)
	}
	defer db.Close()

	broker, err := messaging.Connect(cfg)
	if err != nil {
		return fmt.Errorf("initialize messaging: %w", err)
	}
	defer broker.Close()

	orders := store.NewOrders(db)
	publisher := messaging.NewPublisher(broker)
	service := restaurant.NewService(orders, publisher)

	hub := notify.NewHub("restaurant")
	defer hub.Close()

	ingest := restaurant.NewIngestConsumer(service, hub)
	go runConsumer(ctx, broker, messaging.QueueOrderCreated, "restaurant-api", ingest.Handle)

	cancelConsumer := restaurant.NewCancelConsumer(hub)
	go runConsumer(ctx, broker, messaging.QueueOrderCancelled, "restaurant-api", cancelConsumer.Handle)

	handler := restaurant.NewHandler(service, hub, db, broker)
	return serve(ctx, cfg.HTTP.RestaurantAddr, cfg, handler.Routes())
}

func runConsumer(ctx context.Context, broker *messaging.Connection, queue, tag string, handle messaging.Handler) {
	consumer := messaging.NewConsumer(broker, queue, tag)
	if err := consumer.Start(ctx, handle); err != nil && !errors.Is(err, context.Canceled) {
		logger.L().Error("consumer failed", zap.String("queue", queue), zap.Error(err))
	}
}

func serve(ctx context.Context, addr string, cfg *config.Config, handler http.Handler) error {
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	errChan := make(chan error, 1)
	go func() {
		logger.L().Info("http server started", zap.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

