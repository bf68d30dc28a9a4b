package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"carteira/internal/cli"
	apphttp "carteira/internal/http"
	"carteira/internal/log"
	"carteira/internal/services"
	"carteira/internal/storage"
	"carteira/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg)

	startCtx := context.Background()
	res := cli.InitBackend(startCtx, logger.Logger, cfg)
	logger.Info("Store initialized", "backend", cfg.StoreBackend, "user_id", cfg.UserID, "amqp", res.AMQP != nil)

	repo := storage.NewRepository(res.Store, cfg.UserID)
	reconciler := services.NewReconciler(repo, cfg.ManualFreezeWindow, time.Now)

	dashCache, releaseCache := cli.NewDashboardCache(startCtx, logger.Logger, cfg)
	dashboard := services.NewDashboardService(repo, dashCache)

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Services{
		Transactions:   services.NewTransactionService(repo, reconciler),
		Accounts:       services.NewAccountService(repo, reconciler, time.Now),
		PaymentMethods: services.NewPaymentMethodService(repo),
		Dashboard:      dashboard,
	}, logger.WithComponent(log.ComponentHTTP))
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	var stops []func()
	watchCtx, stopWatch := context.WithCancel(startCtx)
	unwatch, err := dashboard.Watch(watchCtx)
	if err != nil {
		logger.Error("Failed to watch store for dashboard cache", "error", err)
		os.Exit(1)
	}
	stops = append(stops, unwatch)

	// Without a broker no separate worker sees changes, so export in-process.
	if res.AMQP == nil {
		exporter := cli.NewBillExporter(startCtx, logger.Logger, cfg)
		w := worker.New(repo, reconciler, exporter, cfg.ReconcileInterval, time.Now)
		unexport, err := w.WatchStore(watchCtx)
		if err != nil {
			logger.Error("Failed to watch store for bill export", "error", err)
			os.Exit(1)
		}
		stops = append(stops, unexport)
		go func() {
			if err := w.Run(watchCtx, nil); err != nil {
				logger.Error("In-process worker stopped", "error", err)
			}
		}()
		logger.Info("Running bill export and reconcile in-process")
	}

	ctx, done := cli.GracefulShutdown(logger.Logger, 30*time.Second, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 25*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		for _, stop := range stops {
			stop()
		}
		stopWatch()
		releaseCache()
		if err := res.Cleanup(); err != nil {
			logger.Error("Backend cleanup failed", "error", err)
		}
	})

	logger.Info("Starting carteira server", "port", cfg.Port)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
