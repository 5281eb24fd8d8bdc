package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/crucial707/booktrack/internal/catalog"
	"github.com/crucial707/booktrack/internal/config"
	"github.com/crucial707/booktrack/internal/db"
	"github.com/crucial707/booktrack/internal/events"
	"github.com/crucial707/booktrack/internal/repo"
	"github.com/crucial707/booktrack/internal/scheduler"
)

func main() {
	// Load configuration
	cfg := config.Load()
	setupLogger(cfg.LogFormat, cfg.LogLevel)

	if err := run(cfg); err != nil {
		slog.Error("booktrack api stopped", "err", err)
		os.Exit(1)
	}
}

// run owns every resource it opens, so its defers close them on any return path.
func run(cfg config.Config) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Connect to database FIRST
	opts := db.Options{
		Host:         cfg.DBHost,
		Port:         cfg.DBPort,
		Name:         cfg.DBName,
		User:         cfg.DBUser,
		Password:     cfg.DBPass,
		SSLMode:      cfg.DBSSLMode,
		MaxOpenConns: cfg.DBMaxOpenConns,
		MaxIdleConns: cfg.DBMaxIdleConns,
	}
	database, err := db.Connect(ctx, opts)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer database.Close()
	slog.Info("connected to database", "host", cfg.DBHost, "name", cfg.DBName)

	if err := db.Migrate(opts.URL()); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	client := catalog.NewClient(cfg.CatalogURL, cfg.CatalogAPIKey, cfg.CatalogTimeout)
	svc := services{Search: client, Events: events.Nop{}}

	if cfg.RedisAddr != "" {
		rdb, err := catalog.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			slog.Warn("redis unavailable, catalog search is uncached", "addr", cfg.RedisAddr, "err", err)
		} else {
			defer rdb.Close()
			svc.Search = &catalog.Cached{Next: client, Store: catalog.RedisStore{Client: rdb}, TTL: cfg.CatalogCacheTTL}
			slog.Info("catalog search cache enabled", "addr", cfg.RedisAddr, "ttl", cfg.CatalogCacheTTL)
		}
	}

	if cfg.AMQPURL != "" {
		pub, err := events.NewAMQPPublisher(cfg.AMQPURL)
		if err != nil {
			slog.Warn("broker unavailable, library events disabled", "err", err)
		} else {
			defer pub.Close()
			svc.Events = pub
			slog.Info("publishing library events", "queue", events.QueueName)
		}
	}

	// Background work stops with bgCtx. It is cancelled and drained before
	// the deferred closes above run.
	bgCtx, cancelBg := context.WithCancel(ctx)
	var bgDone []<-chan struct{}
	defer func() {
		cancelBg()
		for _, done := range bgDone {
			<-done
		}
	}()

	if cfg.CatalogRefreshCron != "" {
		refresher := &catalog.Refresher{
			Books:   repo.NewBookRepo(database),
			Catalog: client,
			MaxAge:  cfg.CatalogRefreshMaxAge,
			Batch:   cfg.CatalogRefreshBatch,
		}
		sched, err := scheduler.New(scheduler.Job{
			Name:    "catalog-refresh",
			Spec:    cfg.CatalogRefreshCron,
			Timeout: 10 * time.Minute,
			Run: func(ctx context.Context) error {
				n, err := refresher.Run(ctx)
				slog.Info("catalog refresh", "updated", n)
				return err
			},
		})
		if err != nil {
			return fmt.Errorf("invalid CATALOG_REFRESH_CRON %q: %w", cfg.CatalogRefreshCron, err)
		}
		bgDone = append(bgDone, goRun(bgCtx, sched))
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           newRouter(database, cfg, svc),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		// Start server LAST
		slog.Info("starting server", "port", cfg.Port, "tls", cfg.TLSCertFile != "")
		if cfg.TLSCertFile != "" {
			errCh <- srv.ListenAndServeTLS(cfg.TLSCertFile, cfg.TLSKeyFile)
			return
		}
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
		slog.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("graceful shutdown failed", "err", err)
		}
	}
	return nil
}

type runner interface {
	Run(ctx context.Context)
}

// goRun starts r in the background. The returned channel is closed once r.Run returns.
func goRun(ctx context.Context, r runner) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		r.Run(ctx)
	}()
	return done
}

func setupLogger(format, level string) {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lvl}

	var h slog.Handler = slog.NewTextHandler(os.Stdout, opts)
	if strings.EqualFold(format, "json") {
		h = slog.NewJSONHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(h))
}
