// Package main is the entry point for the solver-svc microservice.
//
// solver-svc solves minimum-cost flow problems with the primal network
// simplex method and exposes it as an HTTP/JSON service.
//
// # Service Overview
//
// The solver service exposes the following capabilities over HTTP:
//   - Min-cost flow with per-vertex balances and lower/upper edge bounds
//   - Two entering-edge rules: block_search and batched_dfs
//   - The same solve over the plain-text bflow exchange format
//   - Optional result caching keyed by a canonical problem fingerprint
//   - Run history (memory or PostgreSQL) with an Excel report per run
//
// # Architecture
//
//	┌─────────────────────────────────────────────────────────────┐
//	│                     HTTP Transport Layer                    │
//	│  chi middleware: request id, logging, metrics, tracing,     │
//	│  CORS, body limit, rate limit                               │
//	├─────────────────────────────────────────────────────────────┤
//	│  internal/handler   - routes, JSON codec, error mapping     │
//	├─────────────────────────────────────────────────────────────┤
//	│  internal/service   - validation, caching, slot pool,       │
//	│                       verification, run persistence         │
//	├─────────────────────────────────────────────────────────────┤
//	│  internal/converter - Problem/Result, bflow, assignment     │
//	├─────────────────────────────────────────────────────────────┤
//	│  internal/simplex   - spanning tree, pivots, selectors      │
//	│  internal/graph     - residual arc store                    │
//	└─────────────────────────────────────────────────────────────┘
//
// # Configuration
//
// Configuration is loaded with the following priority (highest to lowest):
//  1. Environment variables (prefix: NETSIMPLEX_)
//  2. Config files (config.yaml, config/config.yaml, /etc/netsimplex/config.yaml)
//  3. Default values
//
// Key options:
//
//	NETSIMPLEX_HTTP_PORT              - HTTP port (default: 8080)
//	NETSIMPLEX_SOLVER_RULE            - Default entering-edge rule (default: block_search)
//	NETSIMPLEX_SOLVER_MAX_PIVOTS      - Pivot limit, 0 means unlimited
//	NETSIMPLEX_SOLVER_MAX_CONCURRENT  - Concurrent solves (default: 4)
//	NETSIMPLEX_SOLVER_ACQUIRE_WAIT    - Wait for a free slot (default: 5s)
//	NETSIMPLEX_DATABASE_ENABLED       - Store runs in PostgreSQL (default: false)
//	NETSIMPLEX_CACHE_ENABLED          - Cache solutions (default: false)
//	NETSIMPLEX_CACHE_DRIVER           - memory or redis
//	NETSIMPLEX_METRICS_ENABLED        - Serve Prometheus metrics (default: true)
//	NETSIMPLEX_TRACING_ENABLED        - Export OTLP traces (default: false)
//
// # Graceful Shutdown
//
// SIGINT and SIGTERM cancel the root context. The HTTP server drains
// in-flight requests for up to HTTP.ShutdownTimeout, then telemetry and the
// rate limiter are flushed and the database pool is closed.
//
// # API Usage Examples
//
//	curl -s localhost:8080/v1/solve -d '{
//	  "problem": {
//	    "vertices": 3,
//	    "balances": [4, 0, -4],
//	    "edges": [
//	      {"from": 0, "to": 1, "upper": 4, "cost": 1},
//	      {"from": 1, "to": 2, "upper": 4, "cost": 1},
//	      {"from": 0, "to": 2, "upper": 4, "cost": 3}
//	    ]
//	  },
//	  "rule": "batched_dfs"
//	}'
//
//	curl -s --data-binary @problem.bflow 'localhost:8080/v1/solve/bflow?rule=block'
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"netsimplex/pkg/cache"
	"netsimplex/pkg/config"
	"netsimplex/pkg/logger"
	"netsimplex/pkg/metrics"
	"netsimplex/pkg/server"
	"netsimplex/services/solver-svc/internal/converter"
	"netsimplex/services/solver-svc/internal/handler"
	"netsimplex/services/solver-svc/internal/repository"
	"netsimplex/services/solver-svc/internal/service"
)

func main() {
	// =========================================================================
	// Configuration Loading
	// =========================================================================
	//
	// The service name and default port apply only when not set explicitly,
	// so one config.yaml can be shared between deployments.
	cfg, err := config.LoadWithServiceDefaults("solver-svc", 8080)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// =========================================================================
	// Logger Initialization
	// =========================================================================
	logger.InitWithConfig(logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		FilePath:   cfg.Log.FilePath,
		MaxSize:    cfg.Log.MaxSize,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAge,
		Compress:   cfg.Log.Compress,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// =========================================================================
	// Metrics Initialization (Prometheus)
	// =========================================================================
	//
	// Telemetry is initialized by srv.Run when tracing is enabled.
	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.InitMetrics(cfg.Metrics.Namespace, cfg.Metrics.Subsystem)
		prometheus.MustRegister(metrics.NewRuntimeCollector(cfg.Metrics.Namespace, cfg.Metrics.Subsystem))
	}

	// =========================================================================
	// Cache Initialization
	// =========================================================================
	//
	// Solutions are keyed by rule and problem fingerprint. The cache is
	// optional and the service keeps working if it cannot be created.
	var solutions *cache.SolutionCache[converter.Result]
	if cfg.Cache.Enabled {
		baseCache, err := cache.New(cache.FromConfig(&cfg.Cache))
		if err != nil {
			logger.Log.Warn("Failed to create cache, continuing without cache", "error", err)
		} else {
			defer baseCache.Close()
			solutions = cache.NewSolutionCache[converter.Result](baseCache, cfg.Cache.DefaultTTL)
			logger.Log.Info("Solution cache initialized",
				"driver", cfg.Cache.Driver,
				"ttl", cfg.Cache.DefaultTTL,
			)
		}
	}

	// =========================================================================
	// Run History
	// =========================================================================
	repos, err := repository.NewRepositories(ctx, &cfg.Database)
	if err != nil {
		logger.Fatal("failed to init repositories", "error", err)
	}
	defer repos.Close()

	// =========================================================================
	// Service Creation
	// =========================================================================
	svcCfg, err := service.ConfigFromSolver(cfg.Solver, cfg.Cache.DefaultTTL)
	if err != nil {
		logger.Fatal("invalid solver config", "error", err)
	}
	svc := service.NewSolverService(svcCfg, repos.Runs, solutions, m)

	if m != nil {
		prometheus.MustRegister(metrics.NewPoolCollector(cfg.Metrics.Namespace, cfg.Metrics.Subsystem, svc.Pool()))
	}

	// =========================================================================
	// HTTP Server
	// =========================================================================
	srv := server.NewWithOptions(cfg, &server.ServerOptions{Metrics: m})
	handler.New(svc, cfg.App).Register(srv.Router())

	logger.Info("Starting solver service",
		"port", cfg.HTTP.Port,
		"rule", svcCfg.Rule,
		"max_concurrent", svcCfg.MaxConcurrent,
		"cache_enabled", solutions != nil,
		"database_enabled", cfg.Database.Enabled,
	)

	// =========================================================================
	// Run (Blocking)
	// =========================================================================
	//
	// The metrics listener has no graceful shutdown and exits with the
	// process, so its failure is only logged.
	if m != nil {
		go func() {
			if err := metrics.StartMetricsServer(cfg.Metrics.Port, cfg.Metrics.Path); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Log.Error("Metrics server failed", "error", err)
			}
		}()
	}

	if err := srv.Run(ctx); err != nil {
		logger.Fatal("server failed", "error", err)
	}
}
