package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tikprofil/checkout-service-go/internal/cart"
	"github.com/tikprofil/checkout-service-go/internal/checkout"
	"github.com/tikprofil/checkout-service-go/internal/clients"
	"github.com/tikprofil/checkout-service-go/internal/config"
	"github.com/tikprofil/checkout-service-go/internal/db"
	"github.com/tikprofil/checkout-service-go/internal/events"
	httpapi "github.com/tikprofil/checkout-service-go/internal/http"
	"github.com/tikprofil/checkout-service-go/internal/metrics"
	"github.com/tikprofil/checkout-service-go/internal/pricing"
	"github.com/tikprofil/checkout-service-go/internal/session"
)

func main() {
	cfg := config.Load()

	logger := log.New(os.Stdout, "[checkout-service] ", log.LstdFlags|log.Lshortfile)

	if cfg.RunMigrations {
		if err := db.RunMigrations(cfg.DatabaseDSN, logger); err != nil {
			logger.Fatalf("run migrations: %v", err)
		}
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseDSN)
	if err != nil {
		logger.Fatalf("connect to db: %v", err)
	}
	defer pool.Close()

	rabbitConn := events.MustDialRabbit(cfg.RabbitURL)
	defer rabbitConn.Close()

	sequenceRepo := events.NewSequenceRepository(pool)
	publisher, err := events.NewRabbitPublisher(rabbitConn, sequenceRepo)
	if err != nil {
		logger.Fatalf("create events publisher: %v", err)
	}

	httpClient := &http.Client{Timeout: cfg.UpstreamTimeout}
	ordersBase, err := clients.NewClient("order-service", cfg.OrdersURL, httpClient)
	if err != nil {
		logger.Fatalf("order-service client: %v", err)
	}
	settingsBase, err := clients.NewClient("settings-service", cfg.SettingsURL, httpClient)
	if err != nil {
		logger.Fatalf("settings-service client: %v", err)
	}
	orders := clients.NewOrdersClient(ordersBase)
	settings := clients.NewSettingsClient(settingsBase)

	var prefill checkout.PrefillStore = checkout.NewPostgresPrefillStore(pool)

	sessions := session.NewManager(session.Deps{
		Carts:           cart.NewPostgresRepository(pool),
		Engine:          pricing.NewEngine(settings, logger),
		Coupons:         orders,
		Orders:          orders,
		Prefill:         prefill,
		Events:          publisher,
		CouponDebounce:  cfg.CouponDebounce,
		ValidateTimeout: cfg.ValidateTimeout,
		SubmitTimeout:   cfg.SubmitTimeout,
		Logger:          logger,
	})

	serverMetrics := metrics.New("checkout-service", nil)

	mux := httpapi.NewRouter(
		httpapi.NewCartHandler(sessions),
		httpapi.NewCheckoutHandler(sessions, prefill),
		serverMetrics,
	)

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	runCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Printf("checkout-service listening on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-runCtx.Done():
		logger.Printf("shutdown signal received")
	case err := <-errCh:
		logger.Fatalf("server error: %v", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Printf("graceful shutdown error: %v", err)
	}
	if err := publisher.Close(); err != nil {
		logger.Printf("publisher close error: %v", err)
	}
}
