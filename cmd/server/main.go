package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"

	"github.com/pressquote/quote-engine/internal/config"
	"github.com/pressquote/quote-engine/internal/currency"
	"github.com/pressquote/quote-engine/internal/metrics"
	"github.com/pressquote/quote-engine/internal/migrations"
	"github.com/pressquote/quote-engine/internal/quote"
	"github.com/pressquote/quote-engine/internal/seed"
	"github.com/pressquote/quote-engine/internal/store"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Initialize store ---
	var st store.Store
	var cleanup []func()

	if cfg.DatabaseURL != "" {
		pool, err := store.Connect(ctx, cfg.DatabaseURL, cfg.DBConnectTimeout)
		if err != nil {
			slog.Error("database connection failed", "err", err)
			os.Exit(1)
		}
		cleanup = append(cleanup, pool.Close)

		db := stdlib.OpenDBFromPool(pool)
		if err := migrations.Up(ctx, db); err != nil {
			slog.Error("migrations failed", "err", err)
			os.Exit(1)
		}
		db.Close()

		st = store.NewPostgresStore(pool)
		slog.Info("connected to PostgreSQL")

		// Wrap with Redis read-through cache if configured.
		if cfg.RedisURL != "" {
			opt, err := redis.ParseURL(cfg.RedisURL)
			if err != nil {
				slog.Error("invalid REDIS_URL", "err", err)
				os.Exit(1)
			}
			rdb := redis.NewClient(opt)
			cleanup = append(cleanup, func() { rdb.Close() })
			st = store.NewCachedStore(st, rdb, cfg.CacheTTL)
			slog.Info("Redis cache enabled", "ttl", cfg.CacheTTL)
		}
	} else {
		slog.Warn("DATABASE_URL not set, using in-memory store (data will not persist)")
		st = store.NewMemoryStore()
	}

	defer func() {
		for _, fn := range cleanup {
			fn()
		}
	}()

	if cfg.SeedCatalog {
		stats, err := seed.Run(ctx, st)
		if err != nil {
			slog.Error("seeding default catalog failed", "err", err)
			os.Exit(1)
		}
		slog.Info("default catalog checked", "inserts", stats.Inserts, "existing", stats.Existing)
	}

	// --- WebSocket hub ---
	wsHub := quote.NewWSHub()
	go wsHub.Run(ctx)

	// --- Exchange rates ---
	var src currency.Source = currency.StaticSource(currency.FallbackRates())
	if cfg.RatesURL != "" {
		src = currency.NewHTTPSource(cfg.RatesURL)
	} else {
		slog.Warn("RATES_URL not set, using fallback exchange rates")
	}
	rates := currency.NewRefresher(src, cfg.RatesRefreshInterval)
	rates.OnUpdate(func(s currency.Snapshot) {
		metrics.ObserveRates(s.Rates)
		wsHub.Broadcast(quote.RatesMessage(s))
		slog.Info("exchange rates updated", "currencies", len(s.Rates))
	})
	rates.OnFailure(func(err error) {
		metrics.RateRefreshFailures.Inc()
		slog.Warn("exchange rate refresh failed, keeping last rates", "err", err)
	})
	metrics.ObserveRates(rates.Snapshot().Rates)
	go rates.Run(ctx)

	// --- Quote service ---
	quoteSvc := quote.NewService(st, rates, wsHub)

	// --- HTTP router ---
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(metrics.Middleware)

	// CORS middleware for frontend cross-origin requests.
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","service":"quote-engine"}`))
	})

	// Prometheus metrics endpoint.
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api/v1", quoteSvc.Routes)

	// --- Server ---
	srv := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     r,
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		slog.Info("quote-engine listening", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "err", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown.
	<-ctx.Done()
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	slog.Info("shutting down quote-engine...")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "err", err)
	}
	fmt.Println("quote-engine stopped")
}
