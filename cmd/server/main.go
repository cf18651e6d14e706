package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/yourusername/quotaguard/api"
	"github.com/yourusername/quotaguard/internal/config"
	"github.com/yourusername/quotaguard/pkg/quotaguard"
	"github.com/yourusername/quotaguard/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	counters, closeStore, err := initStore(cfg.Storage)
	if err != nil {
		log.Fatalf("failed to init counter store: %v", err)
	}
	defer closeStore()

	limiter, err := newLimiter(cfg.RateLimiter, counters)
	if err != nil {
		log.Fatalf("failed to create limiter: %v", err)
	}

	checkHandler := api.NewHandler(limiter)
	metricsHandler := api.NewMetricsHandler(limiter.Metrics())

	r := chi.NewRouter()
	r.Post("/check", checkHandler.CheckRateLimit)
	r.Get("/metrics", metricsHandler.ServeHTTP)
	r.Get("/health", healthHandler)
	r.Group(func(r chi.Router) {
		r.Use(limiter.Middleware)
		r.Get("/hello", helloHandler)
	})

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: r,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Printf("quotaguard listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Println("shutdown signal received")
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}
}

func initStore(cfg config.StorageConfig) (store.Store, func(), error) {
	switch cfg.Type {
	case "redis":
		redisStore := store.NewRedisStore(store.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := redisStore.Ping(ctx); err != nil {
			return nil, nil, err
		}
		log.Printf("connected to redis at %s", cfg.Redis.Addr)

		return redisStore, func() {
			if err := redisStore.Close(); err != nil {
				log.Printf("failed to close redis store: %v", err)
			}
		}, nil

	default:
		log.Println("using in-memory counter store (single instance only)")
		memStore := store.NewMemoryStore()
		return memStore, func() {
			_ = memStore.Close()
		}, nil
	}
}

func newLimiter(cfg config.RateLimiterConfig, counters store.Store) (quotaguard.RateLimiter, error) {
	opts := []quotaguard.Option{
		quotaguard.WithStore(counters),
	}
	if cfg.ConfigFile != "" {
		opts = append(opts, quotaguard.WithConfigFile(cfg.ConfigFile))
	} else {
		// Default wiring: the demo route gets 100 requests per second.
		rules := quotaguard.NewConfig()
		if err := rules.SetRule("/hello", quotaguard.RuleConfig{
			Capacity: 100,
			Window:   "1s",
			Enabled:  true,
		}); err != nil {
			return nil, err
		}
		opts = append(opts, quotaguard.WithConfig(rules))
	}
	if cfg.Fallback != "" {
		opts = append(opts, quotaguard.WithFallback(cfg.Fallback))
	}

	return quotaguard.NewRateLimiter(opts...)
}

func helloHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"msg": "hello"})
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"status":  "healthy",
		"service": "quotaguard",
	})
}
