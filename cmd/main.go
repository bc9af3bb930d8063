package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lorehub/reputation/internal/adapters/cache"
	"github.com/lorehub/reputation/internal/adapters/repository"
	app "github.com/lorehub/reputation/internal/app"
	"github.com/lorehub/reputation/internal/config"
	"github.com/lorehub/reputation/internal/domain/level"
	"github.com/lorehub/reputation/pkg/logger"
	"github.com/lorehub/reputation/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 10 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
)

func main() {
	// Disable default Go metrics collection to avoid duplicate metrics
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// Initialize logging
	if err := logger.Init(); err != nil {
		// Use stderr for initialization errors since logger isn't available yet
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	log := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return
	}

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info",
			logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		log.Warn(ctx, "invalid timezone; falling back to UTC",
			logger.String("timezone", cfg.Timezone), logger.Error(err))
		loc = time.UTC
	}

	store, err := repository.NewPostgres(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Error(ctx, "postgres connection failed", logger.Error(err))
		return
	}
	defer store.Close()

	if err := store.Migrate(ctx); err != nil {
		log.Error(ctx, "migration failed", logger.Error(err))
		return
	}

	opts := []app.Option{
		app.WithLogger(log.Named("reputation")),
		app.WithLocation(loc),
		app.WithCacheTTLs(
			time.Duration(cfg.SummaryTTLSec)*time.Second,
			time.Duration(cfg.CatalogTTLSec)*time.Second,
			time.Duration(cfg.LeaderboardTTLSec)*time.Second,
		),
		app.WithSnapshotSize(cfg.SnapshotSize),
		app.WithMaxLeaderboardLimit(cfg.MaxLeaderboardLimit),
		app.WithRebuildTimeout(time.Duration(cfg.RebuildTimeoutSec) * time.Second),
	}

	if cfg.RedisAddr != "" {
		rc := cache.NewRedis(cfg.RedisAddr, cache.WithDB(cfg.RedisDB))
		defer func() {
			if err := rc.Close(); err != nil {
				log.Warn(ctx, "redis close failed", logger.Error(err))
			}
		}()
		opts = append(opts, app.WithCache(rc))
		log.Info(ctx, "cache enabled", logger.String("redis_addr", cfg.RedisAddr))
	} else {
		log.Info(ctx, "cache disabled; serving from store only")
	}

	if len(cfg.PointValues) > 0 {
		opts = append(opts, app.WithPointOverrides(cfg.PointValues))
	}

	if len(cfg.LevelThresholds) > 0 {
		tiers := make([]level.Tier, len(cfg.LevelThresholds))
		for i, min := range cfg.LevelThresholds {
			tiers[i] = level.Tier{MinScore: min, Label: cfg.LevelLabels[i]}
		}
		tbl, err := level.NewTable(tiers)
		if err != nil {
			log.Error(ctx, "invalid level table", logger.Error(err))
			return
		}
		opts = append(opts, app.WithLevelTable(tbl))
	}

	svc := app.New(store, opts...)
	defer svc.Close()

	// Rebuild once at startup so reads never hit empty snapshots, then
	// keep rebuilding on the configured interval.
	if err := svc.RebuildLeaderboardSnapshots(ctx); err != nil {
		log.Warn(ctx, "initial snapshot rebuild incomplete", logger.Error(err))
	}
	go runRebuildScheduler(ctx, svc, time.Duration(cfg.RebuildIntervalSec)*time.Second, log)

	// HTTP mux and routes.
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry(), promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			os.Stderr.WriteString("HTTP server failed: " + err.Error() + "\n")
		}
	}()

	// Wait for shutdown signal
	<-ctx.Done()
	log.Info(ctx, "shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	log.Info(ctx, "server stopped")
}

// runRebuildScheduler rebuilds leaderboard snapshots on a fixed interval
// until the context is cancelled.
func runRebuildScheduler(ctx context.Context, svc *app.Service, interval time.Duration, log logger.Logger) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := svc.RebuildLeaderboardSnapshots(ctx); err != nil {
				log.Warn(ctx, "scheduled snapshot rebuild incomplete", logger.Error(err))
			}
		}
	}
}
