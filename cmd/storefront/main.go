package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kailas-cloud/storefront/internal/config"
	dbRedis "github.com/kailas-cloud/storefront/internal/db/redis"
	"github.com/kailas-cloud/storefront/internal/domain/catalog"
	logpkg "github.com/kailas-cloud/storefront/internal/logger"
	"github.com/kailas-cloud/storefront/internal/metrics"
	"github.com/kailas-cloud/storefront/internal/repository/history"
	"github.com/kailas-cloud/storefront/internal/repository/searchcache"
	"github.com/kailas-cloud/storefront/internal/transport/algolia"
	chiTransport "github.com/kailas-cloud/storefront/internal/transport/chi"
	"github.com/kailas-cloud/storefront/internal/usecase/autocomplete"
	cataloguc "github.com/kailas-cloud/storefront/internal/usecase/catalog"
	healthuc "github.com/kailas-cloud/storefront/internal/usecase/health"
	"github.com/kailas-cloud/storefront/internal/usecase/panel"
	"github.com/kailas-cloud/storefront/internal/version"
)

// searchGateway is the gateway shared by the catalog and the aggregator.
type searchGateway interface {
	Search(ctx context.Context, index string, p catalog.Params) (catalog.Response, error)
	GetObject(ctx context.Context, index, objectID string) (catalog.Hit, error)
}

// historyStore is read by the aggregator and written by panel controllers.
type historyStore interface {
	autocomplete.History
	panel.HistoryWriter
}

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting storefront API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("db_addrs", cfg.Database.Addrs),
		zap.String("products_index", cfg.Algolia.ProductsIndex),
	)

	// Redis is optional: without it history stays in memory and the cache is off.
	ctx := context.Background()
	var store *dbRedis.Store
	if len(cfg.Database.Addrs) > 0 {
		store, err = dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Database.Addrs,
			Username: cfg.Database.Username,
			Password: cfg.Database.Password,
			DB:       cfg.Database.DB,
		})
		if err != nil {
			logger.Fatal("Failed to create database store", zap.Error(err))
		}
		defer store.Close()

		if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
			logger.Fatal("Database not ready", zap.Error(err))
		}
		logger.Info("Connected to database")
	}

	// Register storefront metrics explicitly (no init())
	metrics.RegisterStorefrontMetrics()

	algoliaGW, err := algolia.NewGateway(&algolia.Config{
		AppID:   cfg.Algolia.AppID,
		APIKey:  cfg.Algolia.APIKey,
		Timeout: time.Duration(cfg.Algolia.TimeoutSec) * time.Second,
		Logger:  logger,
	})
	if err != nil {
		logger.Fatal("Failed to create search gateway", zap.Error(err))
	}

	var gw searchGateway = algoliaGW
	if cfg.Cache.Enabled && store != nil {
		gw = searchcache.New(algoliaGW, store,
			time.Duration(cfg.Cache.TTLSec)*time.Second, metrics.SearchCacheTotal, logger)
		logger.Info("Search response cache enabled", zap.Int("ttl_sec", cfg.Cache.TTLSec))
	}

	var hist historyStore
	if store != nil {
		hist = history.New(store, cfg.Autocomplete.HistoryKey, cfg.Autocomplete.HistoryLimit,
			time.Duration(cfg.Autocomplete.HistoryTTL)*time.Hour)
	} else {
		hist = history.NewMemory(cfg.Autocomplete.HistoryLimit,
			time.Duration(cfg.Autocomplete.HistoryTTL)*time.Hour)
	}

	catalogCfg := cfg.Algolia.Catalog()
	agg, err := autocomplete.New(gw, hist, catalogCfg,
		autocomplete.WithPoolSize(cfg.Autocomplete.PoolSize),
		autocomplete.WithHistorySize(cfg.Autocomplete.HistoryLimit),
		autocomplete.WithLogger(logger),
	)
	if err != nil {
		logger.Fatal("Failed to create autocomplete aggregator", zap.Error(err))
	}
	defer agg.Close()

	// Pass nil interface (not typed nil pointer!) when Redis is not configured.
	var pinger healthuc.DBPinger
	if store != nil {
		pinger = store
	}
	healthSvc := healthuc.New(pinger, healthuc.CheckFunc(func(ctx context.Context) error {
		return algoliaGW.HealthCheck(ctx, catalogCfg.ProductsIndex)
	}))

	server := chiTransport.NewServer(
		cataloguc.New(gw, catalogCfg),
		agg,
		hist,
		healthSvc,
		chiTransport.SessionConfig{
			Debounce:       cfg.Autocomplete.Debounce(),
			AllowedOrigins: cfg.HTTP.AllowedOrigins,
		},
		logger,
	)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Routes(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(chiTransport.ErrorResponse{
						Code:    chiTransport.CodeInternalError,
						Message: "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line, one per request. Websocket sessions log when they close.
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
