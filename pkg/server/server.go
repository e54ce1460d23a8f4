// Package server поднимает HTTP сервер сервиса: chi роутер, общий стек
// middleware (трейсинг, метрики, CORS, rate limiting) и h2c.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"netsimplex/pkg/config"
	"netsimplex/pkg/logger"
	"netsimplex/pkg/metrics"
	"netsimplex/pkg/ratelimit"
	"netsimplex/pkg/telemetry"
)

// HTTPServer обёртка над http.Server с chi роутером
type HTTPServer struct {
	server      *http.Server
	router      chi.Router
	serviceName string
	config      *config.Config
	telemetry   *telemetry.Provider
	rateLimiter ratelimit.Limiter
	tracker     *metrics.RequestTracker
}

// ServerOptions дополнительные опции сервера
type ServerOptions struct {
	RateLimiter  ratelimit.Limiter
	KeyExtractor ratelimit.KeyExtractor
	Metrics      *metrics.Metrics
}

// New создаёт новый HTTP сервер
func New(cfg *config.Config) *HTTPServer {
	return NewWithOptions(cfg, nil)
}

// NewWithOptions создаёт сервер с дополнительными опциями
func NewWithOptions(cfg *config.Config, opts *ServerOptions) *HTTPServer {
	if opts == nil {
		opts = &ServerOptions{}
	}

	rateLimiter := opts.RateLimiter
	if rateLimiter == nil && cfg.RateLimit.Enabled {
		var err error
		rateLimiter, err = ratelimit.New(ratelimit.FromConfig(&cfg.RateLimit))
		if err != nil {
			logger.Log.Warn("Failed to create rate limiter, continuing without it", "error", err)
			rateLimiter = nil
		} else {
			logger.Log.Info("Rate limiter initialized",
				"requests", cfg.RateLimit.Requests,
				"window", cfg.RateLimit.Window,
				"backend", cfg.RateLimit.Backend,
			)
		}
	}

	m := opts.Metrics
	if m == nil {
		m = metrics.Get()
	}

	s := &HTTPServer{
		serviceName: cfg.App.Name,
		config:      cfg,
		rateLimiter: rateLimiter,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	if cfg.Tracing.Enabled {
		r.Use(telemetry.HTTPMiddleware(RoutePattern))
	}
	if m != nil {
		s.tracker = metrics.NewRequestTracker(m.HTTPRequestsInFlight)
		r.Use(s.metricsMiddleware(m))
	}
	r.Use(cors(cfg.HTTP.AllowedOrigins))
	if cfg.HTTP.MaxBodyBytes > 0 {
		r.Use(middleware.RequestSize(cfg.HTTP.MaxBodyBytes))
	}
	if rateLimiter != nil {
		r.Use(ratelimit.Middleware(rateLimiter, opts.KeyExtractor))
	}
	s.router = r

	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           h2c.NewHandler(r, &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
	}

	return s
}

// Router возвращает роутер для регистрации обработчиков
func (s *HTTPServer) Router() chi.Router {
	return s.router
}

// Handler возвращает корневой обработчик (используется в тестах)
func (s *HTTPServer) Handler() http.Handler {
	return s.server.Handler
}

// RateLimiter возвращает активный лимитер или nil
func (s *HTTPServer) RateLimiter() ratelimit.Limiter {
	return s.rateLimiter
}

// RoutePattern возвращает шаблон chi маршрута, совпавшего с запросом
func RoutePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		return rctx.RoutePattern()
	}
	return ""
}

// Run запускает сервер и блокируется до отмены ctx, после чего
// останавливает его gracefully
func (s *HTTPServer) Run(ctx context.Context) error {
	if s.config.Tracing.Enabled {
		tp, err := telemetry.Init(ctx, telemetry.FromConfig(s.config.App, s.config.Tracing))
		if err != nil {
			logger.Log.Warn("Failed to init telemetry", "error", err)
		} else {
			s.telemetry = tp
			logger.Log.Info("Telemetry initialized",
				"endpoint", s.config.Tracing.Endpoint,
				"sample_rate", s.config.Tracing.SampleRate,
			)
		}
	}

	lc := net.ListenConfig{}
	lis, err := lc.Listen(ctx, "tcp", s.server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Log.Info("Starting HTTP server",
			"service", s.serviceName,
			"port", s.config.HTTP.Port,
			"environment", s.config.App.Environment,
			"version", s.config.App.Version,
		)
		if err := s.server.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	if m := metrics.Get(); m != nil {
		m.SetServiceInfo(s.config.App.Version, s.config.App.Environment)
	}

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		logger.Log.Info("Shutting down HTTP server", "reason", context.Cause(ctx))
	}

	return s.shutdown()
}

func (s *HTTPServer) shutdown() error {
	timeout := s.config.HTTP.ShutdownTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	err := s.server.Shutdown(ctx)
	if err != nil {
		logger.Log.Warn("Forcing server stop", "error", err)
		_ = s.server.Close()
	} else {
		logger.Log.Info("Server stopped gracefully")
	}

	if s.telemetry != nil {
		if tErr := s.telemetry.Shutdown(ctx); tErr != nil {
			logger.Log.Warn("Failed to shutdown telemetry", "error", tErr)
		}
	}

	if s.rateLimiter != nil {
		if rErr := s.rateLimiter.Close(); rErr != nil {
			logger.Log.Warn("Failed to close rate limiter", "error", rErr)
		}
	}

	return err
}

// Stop останавливает сервер немедленно
func (s *HTTPServer) Stop() error {
	return s.server.Close()
}

func (s *HTTPServer) metricsMiddleware(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			// шаблон маршрута известен только после роутинга
			s.tracker.Start(r.Method)
			defer s.tracker.End(r.Method)

			next.ServeHTTP(ww, r)

			route := RoutePattern(r)
			if route == "" {
				route = "unmatched"
			}
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			m.RecordHTTPRequest(r.Method, route, status, time.Since(start))
		})
	}
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		reqID := middleware.GetReqID(r.Context())
		l := logger.WithRequestID(reqID)
		ctx := logger.NewContext(r.Context(), l)

		next.ServeHTTP(ww, r.WithContext(ctx))

		l.Debug("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
		)
	})
}

func cors(allowed []string) func(http.Handler) http.Handler {
	anyOrigin := false
	origins := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		if o == "*" {
			anyOrigin = true
		}
		origins[strings.ToLower(o)] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin != "" && (anyOrigin || origins[strings.ToLower(origin)]) {
				h := w.Header()
				if anyOrigin {
					h.Set("Access-Control-Allow-Origin", "*")
				} else {
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
				h.Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
				h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-Id")
				h.Set("Access-Control-Expose-Headers", "X-RateLimit-Limit, X-RateLimit-Remaining, X-RateLimit-Reset, X-Request-Id")
			}

			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
