package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	githubadapter "prboard/internal/adapter/driven/github"
	sqliteadapter "prboard/internal/adapter/driven/sqlite"
	httphandler "prboard/internal/adapter/driving/http"
	"prboard/internal/application"
	"prboard/internal/config"
	"prboard/internal/scheduler"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to config file (default: ./config.yaml)")
	flag.Parse()

	// 1. Load configuration (fail fast on missing token or invalid values).
	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}

	setupLogger(cfg.Log.Level)
	slog.Info("config loaded",
		"listen_addr", cfg.Server.ListenAddr(),
		"db_path", cfg.Database.Path,
		"sync_interval", cfg.Sync.Interval,
	)

	// 2. Setup signal-based context (SIGINT, SIGTERM).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Open database (dual reader/writer with WAL mode).
	db, err := sqliteadapter.NewDB(cfg.Database.Path)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()
	slog.Info("database opened", "path", cfg.Database.Path)

	// 4. Run migrations on writer connection.
	if err := sqliteadapter.RunMigrations(db.Writer); err != nil {
		return err
	}
	slog.Info("migrations complete")

	// 5. Wire stores.
	repoStore := sqliteadapter.NewRepoRepo(db)
	prStore := sqliteadapter.NewPRRepo(db)
	reviewStore := sqliteadapter.NewReviewRepo(db)
	syncLogStore := sqliteadapter.NewSyncLogRepo(db)

	// 6. Create GitHub client.
	ghClient, err := githubadapter.NewClient(cfg.GitHub.Token, cfg.GitHub.APIURL)
	if err != nil {
		return err
	}

	// 7. Create services.
	syncSvc := application.NewSyncService(ghClient, repoStore, prStore, reviewStore, syncLogStore, cfg.Sync.MergedWindowDays)
	webhookSvc := application.NewWebhookService(repoStore, prStore, reviewStore)

	// 8. Start the scheduler.
	sched, err := scheduler.New(syncSvc, cfg.Sync.Interval, slog.Default())
	if err != nil {
		return err
	}
	sched.Start()
	defer sched.Stop()

	// 9. Create HTTP handler and server.
	handler := httphandler.NewHandler(
		repoStore, prStore, reviewStore, syncLogStore, ghClient,
		syncSvc, webhookSvc,
		cfg.GitHub.WebhookSecret, cfg.Server.PublicBaseURL,
		slog.Default(),
	)
	router := httphandler.NewRouter(handler, slog.Default())

	srv := &http.Server{
		Addr:              cfg.Server.ListenAddr(),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		slog.Info("http server starting", "addr", cfg.Server.ListenAddr())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server error", "error", err)
		}
	}()

	slog.Info("prboard started",
		"listen_addr", cfg.Server.ListenAddr(),
		"sync_interval", cfg.Sync.Interval,
		"merged_window_days", cfg.Sync.MergedWindowDays,
	)

	// 10. Wait for shutdown signal.
	<-ctx.Done()
	slog.Info("shutting down")

	// 11. Graceful shutdown with a 10s drain timeout.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http server shutdown error", "error", err)
	}

	slog.Info("shutdown complete")
	return nil
}

// setupLogger replaces the default logger with one honoring the configured level.
func setupLogger(level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})))
}
