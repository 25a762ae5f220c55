// Package main is the entry point for the routingcore service.
//
// routingcore is the fleet logistics planning core: it builds distance/time
// matrices, solves capacitated vehicle routing problems with optional time
// windows, annotates solver output with concrete inter-stop paths, and
// re-plans in-progress routes on traffic, service-delay and roadblock
// events.
//
// # Service Overview
//
// The service exposes a plain HTTP JSON surface:
//   - POST /optimize  - plan routes for a fresh problem
//   - POST /reroute   - re-plan an in-progress assignment
//   - GET  /health    - liveness probe
//
// # Architecture
//
// The service follows a clean layering with clear separation of concerns:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│                    HTTP Transport Layer                     │
//	│  Middleware: recovery, request-id, CORS, logging, metrics, │
//	│  rate-limit (internal/httpapi)                              │
//	├─────────────────────────────────────────────────────────────┤
//	│                      Service Layer                          │
//	│  internal/optimization - validate → matrix → solve →        │
//	│  annotate → stats pipeline, result caching                  │
//	│  internal/rerouting    - event-driven re-planning           │
//	├─────────────────────────────────────────────────────────────┤
//	│                      Solver Layer                           │
//	│  internal/vrpsolver - capacity / pickup-delivery / time-    │
//	│  window / global-span encoding over the CP router           │
//	├─────────────────────────────────────────────────────────────┤
//	│                       Matrix Layer                          │
//	│  internal/matrix - Haversine / routing-API matrices with    │
//	│  retry, sanitization, traffic overlay and persistent cache  │
//	├─────────────────────────────────────────────────────────────┤
//	│                       Graph Layer                           │
//	│  internal/shortestpath - Dijkstra kernel                    │
//	│  internal/annotator    - per-segment path tracing           │
//	└─────────────────────────────────────────────────────────────┘
//
// # Configuration
//
// Configuration is loaded with the following priority (highest to lowest):
//  1. Environment variables (ROUTINGCORE_* prefix)
//  2. Config files (config.yaml in standard locations)
//  3. Default values from internal/config/loader.go
//
// # Graceful Shutdown
//
// The service handles SIGINT and SIGTERM: the HTTP server stops accepting
// new requests, waits up to http.shutdown_timeout for in-flight requests,
// then flushes the audit buffer and closes cache and limiter connections.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/routingcore/routingcore/internal/audit"
	"github.com/routingcore/routingcore/internal/cache"
	"github.com/routingcore/routingcore/internal/config"
	"github.com/routingcore/routingcore/internal/externaldata"
	"github.com/routingcore/routingcore/internal/httpapi"
	"github.com/routingcore/routingcore/internal/logging"
	"github.com/routingcore/routingcore/internal/matrix"
	"github.com/routingcore/routingcore/internal/matrixcache"
	"github.com/routingcore/routingcore/internal/metrics"
	"github.com/routingcore/routingcore/internal/optimization"
	"github.com/routingcore/routingcore/internal/ratelimit"
	"github.com/routingcore/routingcore/internal/rerouting"
	"github.com/routingcore/routingcore/internal/resultcache"
	"github.com/routingcore/routingcore/internal/vrpsolver"
)

func main() {
	// =========================================================================
	// Configuration Loading
	// =========================================================================
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// =========================================================================
	// Logger Initialization
	// =========================================================================
	logging.InitWithConfig(logging.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		FilePath:   cfg.Log.FilePath,
		MaxSize:    cfg.Log.MaxSize,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAge,
		Compress:   cfg.Log.Compress,
	})

	logging.Info("starting routingcore",
		"version", cfg.App.Version,
		"environment", cfg.App.Environment,
	)

	// =========================================================================
	// Metrics Initialization (Prometheus)
	// =========================================================================
	//
	// The metrics endpoint is served on its own port so that operational
	// scraping never competes with planning traffic.
	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.InitMetrics(cfg.Metrics.Namespace, cfg.Metrics.Subsystem)
		m.SetServiceInfo(cfg.App.Version, cfg.App.Environment)
		go func() {
			if err := metrics.StartMetricsServer(cfg.Metrics.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logging.Warn("metrics server stopped", "error", err)
			}
		}()
	}

	// =========================================================================
	// Cache Initialization
	// =========================================================================
	//
	// One generic backend (memory or Redis) feeds two keyed caches: the
	// distance-matrix cache and the optimization-result cache. The service
	// continues without caching if the backend cannot be created.
	var matrixCache *matrixcache.Cache
	var resultCache *resultcache.Cache
	var backend cache.Cache
	if cfg.Cache.Enabled {
		backend, err = cache.New(cache.FromConfig(&cfg.Cache))
		if err != nil {
			logging.Warn("failed to create cache, continuing without cache", "error", err)
		} else {
			matrixCache = matrixcache.New(backend, cfg.Matrix.CacheTTL)
			resultCache = resultcache.New(backend, cfg.Cache.DefaultTTL)
			logging.Info("cache initialized", "driver", cfg.Cache.Driver)
		}
	}

	// =========================================================================
	// Service Graph
	// =========================================================================
	matrixBuilder := matrix.NewBuilder(cfg.Matrix, cfg.RoutingAPI, cfg.Retry, matrixCache)
	solverOpts := vrpsolver.FromConfig(cfg.Solver)
	if cfg.Matrix.AverageSpeedKMH > 0 {
		solverOpts.AverageSpeedKMH = cfg.Matrix.AverageSpeedKMH
	}

	optimizeSvc := optimization.NewService(matrixBuilder, resultCache, solverOpts, cfg.Cache.DefaultTTL)
	rerouteSvc := rerouting.NewService(optimizeSvc)

	handler := httpapi.NewHandler(optimizeSvc, rerouteSvc)

	// External traffic/weather provider: mock in development, HTTP against
	// a real backend when configured.
	switch cfg.ExternalData.Provider {
	case "http":
		handler.WithExternalData(externaldata.NewHTTP(externaldata.HTTPConfig{
			BaseURL:           cfg.ExternalData.BaseURL,
			Timeout:           cfg.ExternalData.Timeout,
			MaxRetries:        cfg.Retry.MaxAttempts,
			InitialBackoff:    cfg.Retry.InitialBackoff,
			MaxBackoff:        cfg.Retry.MaxBackoff,
			BackoffMultiplier: cfg.Retry.BackoffMultiplier,
		}))
	case "mock":
		handler.WithExternalData(externaldata.NewMock())
	}

	// =========================================================================
	// Audit Trail
	// =========================================================================
	var auditLogger audit.Logger
	if cfg.Audit.Enabled {
		auditLogger, err = audit.New(&audit.Config{
			Enabled:     true,
			Backend:     cfg.Audit.Backend,
			FilePath:    cfg.Audit.FilePath,
			BufferSize:  cfg.Audit.BufferSize,
			FlushPeriod: cfg.Audit.FlushPeriod,
		})
		if err != nil {
			logging.Warn("failed to create audit logger, continuing without audit", "error", err)
		} else {
			handler.WithAuditLogger(auditLogger)
		}
	}

	// =========================================================================
	// HTTP Server
	// =========================================================================
	middlewares := []httpapi.Middleware{
		httpapi.Recovery(),
		httpapi.RequestID(),
	}
	if cfg.HTTP.CORS.Enabled {
		middlewares = append(middlewares, httpapi.CORS(cfg.HTTP.CORS))
	}
	middlewares = append(middlewares, httpapi.Logging())
	if m != nil {
		middlewares = append(middlewares, httpapi.Metrics(m))
	}

	var limiter ratelimit.Limiter
	if cfg.RateLimit.Enabled {
		limiter, err = ratelimit.New(&ratelimit.Config{
			Requests:        cfg.RateLimit.Requests,
			Window:          cfg.RateLimit.Window,
			Strategy:        cfg.RateLimit.Strategy,
			Backend:         cfg.RateLimit.Backend,
			BurstSize:       cfg.RateLimit.BurstSize,
			CleanupInterval: cfg.RateLimit.CleanupInterval,
			RedisAddr:       cfg.RateLimit.RedisAddr,
		})
		if err != nil {
			logging.Warn("failed to create rate limiter, continuing without rate limiting", "error", err)
		} else {
			middlewares = append(middlewares, httpapi.RateLimit(limiter))
		}
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:      httpapi.Chain(handler.Routes(), middlewares...),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	go func() {
		logging.Info("HTTP server listening", "port", cfg.HTTP.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Fatal("HTTP server failed", "error", err)
		}
	}()

	// =========================================================================
	// Graceful Shutdown
	// =========================================================================
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	logging.Info("shutdown signal received", "signal", sig.String())

	shutdownTimeout := cfg.HTTP.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logging.Warn("HTTP server shutdown incomplete, forcing close", "error", err)
		_ = srv.Close()
	}

	if auditLogger != nil {
		if err := auditLogger.Close(); err != nil {
			logging.Warn("failed to close audit logger", "error", err)
		}
	}
	if limiter != nil {
		if err := limiter.Close(); err != nil {
			logging.Warn("failed to close rate limiter", "error", err)
		}
	}
	if backend != nil {
		if err := backend.Close(); err != nil {
			logging.Warn("failed to close cache", "error", err)
		}
	}

	logging.Info("routingcore stopped")
}
