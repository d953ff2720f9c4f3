package main

import (
	"context"
	"os"

	"golang.org/x/sync/errgroup"

	"expenses/internal/backend"
	"expenses/internal/cache"
	"expenses/internal/chart"
	"expenses/internal/cli"
	"expenses/internal/config"
	apphttp "expenses/internal/http"
	"expenses/internal/ledger"
	applog "expenses/internal/log"
	"expenses/internal/metrics"
	"expenses/internal/services"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg, applog.ComponentApp)

	ctx, stop := cli.SignalContext(context.Background())
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("Server exited with error", applog.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}

func run(ctx context.Context, cfg *config.Config, logger *applog.Logger) error {
	beCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return err
	}
	be, err := backend.NewFactory(logger).CreateBackend(ctx, beCfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := be.Cleanup(); err != nil {
			logger.Error("Backend cleanup failed", applog.FieldError, err, applog.FieldOperation, applog.OpShutdown)
		}
	}()

	l := ledger.New(be.Store, ledger.WithKey(cfg.StorageKey), ledger.WithLogger(logger))
	l.Load(ctx)
	metrics.LedgerLoaded(l.Len())

	opts := []services.Option{services.WithLogger(logger)}
	if be.Publisher != nil {
		opts = append(opts, services.WithPublisher(be.Publisher))
	}
	svc := services.NewExpenseService(l, opts...)

	chartCache := chart.NewCache(cfg.ChartCacheTTL)
	caches := cache.NewManager(logger)
	caches.Register("chart", chartCache)

	srv, err := apphttp.NewServer(svc, apphttp.Options{
		Addr:               cfg.Addr(),
		RecentLimit:        cfg.RecentLimit,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		Chart:              chart.NewRenderer(chart.WithCache(chartCache)),
		Ready:              be.Ping,
		Logger:             logger,
	})
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)

	caches.StartCleanup(gctx, cfg.CacheCleanupInterval)
	srv.Start(gctx)

	g.Go(func() error {
		logger.Info("Starting expenses server",
			"addr", cfg.Addr(),
			applog.FieldBackend, cfg.DataBackend,
			"events", be.Publisher != nil,
			applog.FieldLedgerSize, l.Len())
		return srv.ListenAndServe()
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down", applog.FieldOperation, applog.OpShutdown)
		caches.Stop()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	err = g.Wait()
	if l.Dirty() {
		logger.Warn("Ledger has unsaved records at exit",
			applog.FieldStorageKey, l.Key(), applog.FieldLedgerSize, l.Len())
	}
	return err
}
