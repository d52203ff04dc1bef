package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/ecommerce-orders/internal/catalog"
	"github.com/vasiliy-maslov/ecommerce-orders/internal/config"
	"github.com/vasiliy-maslov/ecommerce-orders/internal/customer"
	"github.com/vasiliy-maslov/ecommerce-orders/internal/db"
	httphandler "github.com/vasiliy-maslov/ecommerce-orders/internal/handler/http"
	"github.com/vasiliy-maslov/ecommerce-orders/internal/idempotency"
	"github.com/vasiliy-maslov/ecommerce-orders/internal/logger"
	"github.com/vasiliy-maslov/ecommerce-orders/internal/metrics"
	"github.com/vasiliy-maslov/ecommerce-orders/internal/order"
	"github.com/vasiliy-maslov/ecommerce-orders/internal/payment"
	"github.com/vasiliy-maslov/ecommerce-orders/internal/storage/memory"
	"github.com/vasiliy-maslov/ecommerce-orders/internal/transport"
)

type repositories struct {
	products  catalog.Repository
	customers customer.Repository
	orders    order.Repository
	payments  payment.Repository
}

func main() {
	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	if err := logger.Setup(cfg.App, "order-service"); err != nil {
		log.Fatal().Err(err).Msg("Failed to configure logger")
	}

	log.Info().Str("storage", cfg.App.Storage).Msg("Order service starting...")

	ctx := context.Background()

	var (
		repos  repositories
		pinger httphandler.Pinger
	)
	switch cfg.App.Storage {
	case config.StorageMemory:
		store := memory.New()
		repos = repositories{
			products:  store.Products(),
			customers: store.Customers(),
			orders:    store.Orders(),
			payments:  store.Payments(),
		}
	default:
		if err := db.ApplyMigrations(cfg.Postgres); err != nil {
			log.Fatal().Err(err).Msg("Failed to apply migrations")
		}

		pg, err := db.New(ctx, cfg.Postgres)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to database")
		}
		defer pg.Close()

		tm := db.NewTxManager(pg.Pool)
		repos = repositories{
			products:  catalog.NewRepository(tm),
			customers: customer.NewRepository(tm),
			orders:    order.NewRepository(tm),
			payments:  payment.NewRepository(tm),
		}
		pinger = pg
	}

	var idem idempotency.Store
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Fatal().Err(err).Str("addr", cfg.Redis.Addr).Msg("Failed to connect to redis")
		}
		defer rdb.Close()
		idem = idempotency.NewRedisStore(rdb, cfg.Redis.IdempotencyTTL)
		log.Info().Str("addr", cfg.Redis.Addr).Msg("Using redis idempotency store")
	} else {
		idem = idempotency.NewMemoryStore(cfg.Redis.IdempotencyTTL)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	catalogSvc := catalog.NewService(repos.products)
	customerSvc := customer.NewService(repos.customers)
	orderSvc := order.NewService(repos.orders, catalogSvc, customerSvc, m)
	paymentSvc := payment.NewService(repos.payments, orderSvc, m)

	router := transport.NewRouter(transport.Services{
		Orders:    orderSvc,
		Payments:  paymentSvc,
		Catalog:   catalogSvc,
		Customers: customerSvc,
	}, idem, m, pinger)

	srv := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.App.Port).Msg("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan
	log.Info().Msg("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Shutdown failed")
		return
	}
	log.Info().Msg("Server stopped")
}
