package cli

import (
	"context"
	"log/slog"
	"os"

	"carteira/internal/cache"
	"carteira/internal/config"
	"carteira/internal/services"
	"carteira/internal/sheets"
	gsheet "carteira/internal/sheets/google"
	mem "carteira/internal/sheets/memory"
)

// NewBillExporter returns the Google Sheets exporter when a spreadsheet is
// configured and the in-memory one otherwise. Exits the process when the
// Sheets client cannot be built.
func NewBillExporter(ctx context.Context, logger *slog.Logger, cfg *config.Config) sheets.BillExporter {
	if !cfg.SheetsEnabled() {
		logger.Info("Google Sheets export disabled - no GOOGLE_SPREADSHEET_ID provided")
		return mem.New()
	}
	client, err := gsheet.New(ctx, gsheet.Options{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		SheetName:       cfg.GoogleBillsSheetName,
		CredentialsJSON: cfg.GoogleServiceAccountJSON,
		CredentialsFile: cfg.GoogleServiceAccountFile,
		OAuthClientJSON: cfg.GoogleOAuthClientJSON,
		OAuthClientFile: cfg.GoogleOAuthClientFile,
		OAuthTokenFile:  cfg.GoogleOAuthTokenFile,
	})
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", "error", err)
		os.Exit(1)
	}
	logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	return client
}

// NewDashboardCache returns a Redis cache when REDIS_URL is set and
// reachable, else an in-process LRU cleaned by a cache manager. The
// returned function releases it.
func NewDashboardCache(ctx context.Context, logger *slog.Logger, cfg *config.Config) (cache.Cache[services.Dashboard], func()) {
	if cfg.RedisURL != "" {
		client, err := cache.NewRedisClient(ctx, cfg.RedisURL)
		if err == nil {
			logger.Info("Dashboard cache using Redis")
			return cache.NewRedisCache[services.Dashboard](client, "carteira:dashboard", cfg.DashboardCacheTTL),
				func() { client.Close() }
		}
		logger.Warn("Redis unavailable, falling back to in-memory dashboard cache", "error", err)
	}

	lru := cache.NewLRUCache[services.Dashboard](cfg.DashboardCacheSize, cfg.DashboardCacheTTL)
	manager := cache.NewManager()
	manager.Register(lru)
	manager.StartCleanup(cfg.DashboardCacheTTL)
	return lru, manager.Stop
}
