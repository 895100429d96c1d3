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
	"go.uber.org/zap"

	"github.com/mamadbah2/restopos/internal/clock"
	"github.com/mamadbah2/restopos/internal/config"
	"github.com/mamadbah2/restopos/internal/domain/models"
	"github.com/mamadbah2/restopos/internal/events"
	"github.com/mamadbah2/restopos/internal/observability/metrics"
	"github.com/mamadbah2/restopos/internal/repository"
	"github.com/mamadbah2/restopos/internal/repository/memory"
	"github.com/mamadbah2/restopos/internal/repository/mongodb"
	"github.com/mamadbah2/restopos/internal/repository/sheets"
	"github.com/mamadbah2/restopos/internal/scheduler"
	"github.com/mamadbah2/restopos/internal/server/handlers"
	"github.com/mamadbah2/restopos/internal/server/router"
	billingsvc "github.com/mamadbah2/restopos/internal/service/billing"
	menusvc "github.com/mamadbah2/restopos/internal/service/menu"
	ordersvc "github.com/mamadbah2/restopos/internal/service/orders"
	reportingsvc "github.com/mamadbah2/restopos/internal/service/reporting"
	revenuesvc "github.com/mamadbah2/restopos/internal/service/revenue"
	settingssvc "github.com/mamadbah2/restopos/internal/service/settings"
	"github.com/mamadbah2/restopos/internal/service/tablestate"
	whatsappclient "github.com/mamadbah2/restopos/pkg/clients/whatsapp"
	"github.com/mamadbah2/restopos/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New(cfg.Log.Level))
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	clk, err := clock.NewSystem(cfg.Restaurant.Timezone)
	if err != nil {
		baseLogger.Fatal("invalid timezone", zap.Error(err))
	}

	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelStartup()

	store, err := openStore(startupCtx, cfg.Storage, baseLogger)
	if err != nil {
		baseLogger.Fatal("failed to init store", zap.String("driver", cfg.Storage.Driver), zap.Error(err))
	}
	defer func() {
		if err := store.Close(context.Background()); err != nil {
			baseLogger.Error("failed to close store", zap.Error(err))
		}
	}()

	created, err := store.EnsureTables(startupCtx, models.ProvisionTables(cfg.Restaurant.TableCount, cfg.Restaurant.ACTableSplit, clk.Now()))
	if err != nil {
		baseLogger.Fatal("failed to provision tables", zap.Error(err))
	}
	baseLogger.Info("table pool ready", zap.Int("tables", cfg.Restaurant.TableCount), zap.Int("created", created))

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	posMetrics := metrics.New(registry)

	publisher := newPublisher(cfg.RabbitMQ, baseLogger)
	defer func() {
		if err := publisher.Close(); err != nil {
			baseLogger.Error("failed to close event publisher", zap.Error(err))
		}
	}()

	guard := tablestate.NewGuard(store, cfg.Restaurant.OrderMaxRetries, posMetrics, baseLogger.Named("tablestate"))
	settingsSvc := settingssvc.NewService(store, clk, baseLogger.Named("svc.settings"))
	if _, err := settingsSvc.GetSettings(startupCtx); err != nil {
		baseLogger.Fatal("failed to load settings", zap.Error(err))
	}

	menuSvc := menusvc.NewService(store, clk, baseLogger.Named("svc.menu"))
	revenueSvc := revenuesvc.NewService(store, settingsSvc, clk, baseLogger.Named("svc.revenue"))
	orderSvc := ordersvc.NewService(ordersvc.Params{
		Tables:    store,
		Menu:      menuSvc,
		Guard:     guard,
		Clock:     clk,
		Publisher: publisher,
		Metrics:   posMetrics,
		Logger:    baseLogger.Named("svc.orders"),
	})
	billingSvc := billingsvc.NewService(billingsvc.Params{
		Store:     store,
		Guard:     guard,
		Taxes:     settingsSvc,
		Revenue:   revenueSvc,
		Clock:     clk,
		Publisher: publisher,
		Metrics:   posMetrics,
		Logger:    baseLogger.Named("svc.billing"),
	})

	reportParams := reportingsvc.Params{Revenue: revenueSvc, Bills: billingSvc, Logger: baseLogger.Named("svc.reporting")}
	if cfg.WhatsApp.Enabled() {
		reportParams.Notifier = whatsappclient.NewManagerNotifier(whatsappclient.NewClient(cfg.WhatsApp), cfg.WhatsApp.ManagerNumber)
		baseLogger.Info("whatsapp end-of-day summary enabled")
	} else {
		baseLogger.Warn("whatsapp not configured, end-of-day summary is logged only")
	}
	if cfg.Sheets.Enabled() {
		sheetsRepo, err := sheets.NewGoogleSheetRepository(startupCtx, cfg.Sheets, baseLogger.Named("repo.sheets"))
		if err != nil {
			baseLogger.Fatal("failed to init sheets repository", zap.Error(err))
		}
		reportParams.Exporter = sheets.NewBillExporter(sheetsRepo, cfg.Sheets.BillsRange, baseLogger.Named("repo.sheets"))
		baseLogger.Info("google sheets bill export enabled")
	}
	reportingSvc := reportingsvc.NewService(reportParams)

	engine := router.New(router.Handlers{
		Tables:   handlers.NewTableHandler(orderSvc, billingSvc, baseLogger.Named("handlers.tables")),
		Bills:    handlers.NewBillHandler(billingSvc, clk, baseLogger.Named("handlers.bills")),
		Revenue:  handlers.NewRevenueHandler(revenueSvc, clk, baseLogger.Named("handlers.revenue")),
		Menu:     handlers.NewMenuHandler(menuSvc, baseLogger.Named("handlers.menu")),
		Settings: handlers.NewSettingsHandler(settingsSvc, baseLogger.Named("handlers.settings")),
		Metrics:  metrics.Handler(registry),
	}, baseLogger.Named("router"))

	sched := scheduler.NewScheduler(cfg.Reporting, clk.Location(), billingSvc, reportingSvc, clk, baseLogger.Named("scheduler"))
	if err := sched.Start(); err != nil {
		baseLogger.Fatal("failed to start scheduler", zap.Error(err))
	}
	defer sched.Stop()

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Fatal("http server crashed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	baseLogger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
	}
}

func openStore(ctx context.Context, cfg config.StorageConfig, log *zap.Logger) (repository.Store, error) {
	if cfg.Driver == config.StorageMemory {
		log.Warn("using in-memory store, data is lost on restart")
		return memory.NewStore(), nil
	}
	repo, err := mongodb.NewMongoDBRepository(ctx, cfg.MongoDB.URI, cfg.MongoDB.DBName)
	if err != nil {
		return nil, err
	}
	return repo, nil
}

func newPublisher(cfg config.RabbitMQConfig, log *zap.Logger) events.Publisher {
	if !cfg.Enabled() {
		return events.Noop{}
	}
	publisher, err := events.NewRabbitPublisher(cfg.URL, cfg.Exchange, log.Named("events.rabbitmq"))
	if err != nil {
		// Checkout does not depend on the broker.
		log.Error("rabbitmq unavailable, bill events disabled", zap.Error(err))
		return events.Noop{}
	}
	return publisher
}
