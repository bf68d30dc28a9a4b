package main

import (
	"context"
	"os"
	"time"

	"carteira/internal/cli"
	"carteira/internal/log"
	"carteira/internal/services"
	"carteira/internal/storage"
	"carteira/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg).WithComponent(log.ComponentWorker)

	logger.Info("Starting carteira-worker")

	res := cli.InitBackend(context.Background(), logger.Logger, cfg)
	exporter := cli.NewBillExporter(context.Background(), logger.Logger, cfg)

	repo := storage.NewRepository(res.Store, cfg.UserID)
	reconciler := services.NewReconciler(repo, cfg.ManualFreezeWindow, time.Now)
	w := worker.New(repo, reconciler, exporter, cfg.ReconcileInterval, time.Now)

	ctx, done := cli.GracefulShutdown(logger.Logger, 30*time.Second, func() {
		if err := res.Cleanup(); err != nil {
			logger.Error("Backend cleanup failed", "error", err)
		}
	})

	var consumer worker.Consumer
	if res.AMQP != nil {
		consumer = res.AMQP
	} else {
		// Same-process subscriptions only see this process's writes; the
		// periodic reconcile still picks up everything else.
		logger.Warn("No broker configured, consuming local store changes only")
		unwatch, err := w.WatchStore(ctx)
		if err != nil {
			logger.Error("Failed to watch store", "error", err)
			os.Exit(1)
		}
		defer unwatch()
	}

	if err := w.Run(ctx, consumer); err != nil {
		logger.Error("Worker stopped", "error", err)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker stopped gracefully")
}
