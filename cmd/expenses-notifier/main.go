package main

import (
	"context"
	"errors"
	"os"

	"golang.org/x/sync/errgroup"

	"expenses/internal/amqp"
	"expenses/internal/cache"
	"expenses/internal/cli"
	applog "expenses/internal/log"
	"expenses/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg, applog.ComponentNotifier)

	if !cfg.AMQPEnabled() {
		logger.Error("AMQP_URL is required for the notifier")
		os.Exit(1)
	}

	ctx, stop := cli.SignalContext(context.Background())
	defer stop()

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", applog.FieldError, err)
		os.Exit(1)
	}
	defer client.Close()

	notifier := worker.NewNotifyWorker(logger)
	caches := cache.NewManager(logger)
	caches.Register("seen", notifier.Cache())

	g, gctx := errgroup.WithContext(ctx)
	caches.StartCleanup(gctx, cfg.CacheCleanupInterval)

	g.Go(func() error {
		logger.Info("Starting expenses-notifier", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		err := client.ConsumeExpenseRecorded(gctx, notifier.HandleExpenseRecorded)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	err = g.Wait()
	caches.Stop()
	if err != nil {
		logger.Error("Message consumption failed", applog.FieldError, err, applog.FieldOperation, applog.OpConsume)
		os.Exit(1)
	}
	logger.Info("Notifier stopped",
		"notified", notifier.Notified(),
		"skipped", notifier.Skipped())
}
