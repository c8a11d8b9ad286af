package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/orderdesk/api/middleware"
	"github.com/angelmondragon/orderdesk/api/routes"
	"github.com/angelmondragon/orderdesk/internal/catalog"
	"github.com/angelmondragon/orderdesk/internal/connectivity"
	"github.com/angelmondragon/orderdesk/internal/notices"
	"github.com/angelmondragon/orderdesk/internal/records"
	"github.com/angelmondragon/orderdesk/internal/sessions"
	"github.com/angelmondragon/orderdesk/internal/store"
	"github.com/angelmondragon/orderdesk/pkg/config"
	"github.com/angelmondragon/orderdesk/pkg/logger"
	"github.com/angelmondragon/orderdesk/pkg/metrics"
	"github.com/angelmondragon/orderdesk/pkg/models"
	"github.com/angelmondragon/orderdesk/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "orderdesk"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "orderdesk",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	storeMetrics := metrics.NewStoreMetrics(registry)
	draftMetrics := metrics.NewDraftMetrics(registry)

	client, err := store.NewClient(cfg.Store.BaseURL,
		store.WithHTTPClient(&http.Client{Timeout: cfg.Store.Timeout}),
		store.WithUserAgent(cfg.Store.UserAgent),
		store.WithMetrics(storeMetrics),
		store.WithLogger(logg),
	)
	if err != nil {
		logg.Error(runCtx, "failed to create record store client", err)
		os.Exit(1)
	}

	deps := routes.Dependencies{
		RecordStore: client,
		Metrics:     promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}),
	}

	var draftStore sessions.Store
	if cfg.Redis.Enabled() {
		redisClient, err := redis.New(runCtx, cfg.Redis, logg)
		if err != nil {
			logg.Error(runCtx, "failed to bootstrap redis", err)
			os.Exit(1)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing redis", err)
			}
		}()
		deps.RedisPinger = redisClient
		deps.Idempotency = redisClient
		draftStore = sessions.NewRedisStore(redisClient, cfg.Drafts.TTL, cfg.Drafts.SubmitLockTTL)
	} else {
		logg.Warn(runCtx, "redis not configured, drafts and idempotency records are kept in memory")
		deps.Idempotency = middleware.NewMemoryIdempotencyStore()
		draftStore = sessions.NewMemoryStore(cfg.Drafts.TTL, cfg.Drafts.SubmitLockTTL)
	}

	var signalSource connectivity.Signal = connectivity.Static(true)
	if cfg.Connectivity.Probe {
		signalSource = connectivity.NewProbe(client, cfg.Connectivity.CacheTTL, cfg.Connectivity.Timeout)
	}

	notifier := notices.NewNotifier(logg)
	catalogProvider := catalog.NewProvider(client, cfg.Catalog.SearchRPS, cfg.Catalog.SearchBurst, logg)
	orders := store.NewResourceClient(client, store.PurchaseOrders())

	deps.Notifier = notifier
	deps.Catalog = catalogProvider
	deps.Products = records.NewController[models.Product](store.NewResourceClient(client, store.Products()), signalSource, notifier, logg,
		records.Options[models.Product]{
			Labels:         records.Labels{Singular: "product", Plural: "products"},
			ValidateCreate: true,
			PrepareCreate:  func(p *models.Product) { p.ApplyDefaults() },
		})
	deps.Customers = records.NewController[models.Customer](store.NewResourceClient(client, store.Customers()), signalSource, notifier, logg,
		records.Options[models.Customer]{
			Labels:         records.Labels{Singular: "customer", Plural: "customers"},
			GateReads:      true,
			ValidateCreate: true,
		})
	deps.Users = records.NewController[models.User](store.NewResourceClient(client, store.Users()), signalSource, notifier, logg,
		records.Options[models.User]{
			Labels:         records.Labels{Singular: "user", Plural: "users"},
			ValidateCreate: true,
			ValidateUpdate: true,
		})
	deps.PurchaseOrders = records.NewController[models.PurchaseOrder](orders, signalSource, notifier, logg,
		records.Options[models.PurchaseOrder]{
			Labels: records.Labels{Singular: "purchase order", Plural: "purchase orders"},
		})
	draftService := sessions.NewService(sessions.Deps{
		Store:    draftStore,
		Writer:   orders,
		Catalog:  catalogProvider,
		Signal:   signalSource,
		Notifier: notifier,
		Metrics:  draftMetrics,
		Logger:   logg,
	})
	deps.Drafts = draftService
	go sweepDrafts(runCtx, draftService, cfg.Drafts.TTL)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(runCtx, map[string]any{
		"env":        cfg.App.Env,
		"addr":       addr,
		"store_base": client.BaseURL(),
	})
	logg.Info(ctx, "starting orderdesk server")

	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(cfg, logg, deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "orderdesk server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-runCtx.Done():
		logg.Info(ctx, "shutting down orderdesk server")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(shutdownCtx, "graceful shutdown failed", err)
		}
	}
}

// sweepDrafts drops edit refresh callbacks whose drafts expired without being reopened.
func sweepDrafts(ctx context.Context, svc *sessions.Service, ttl time.Duration) {
	interval := ttl / 2
	if interval < time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			svc.Sweep(ctx)
		}
	}
}
