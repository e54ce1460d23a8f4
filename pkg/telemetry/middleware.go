package telemetry

import (
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// RouteFunc возвращает шаблон маршрута для запроса (например, chi RoutePattern)
type RouteFunc func(r *http.Request) string

// HTTPMiddleware создаёт middleware для трейсинга HTTP запросов.
// Контекст трассировки извлекается из входящих заголовков.
func HTTPMiddleware(route RouteFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))

			ctx, span := StartSpan(ctx, r.Method+" "+r.URL.Path,
				trace.WithSpanKind(trace.SpanKindServer),
			)
			defer span.End()

			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r.WithContext(ctx))

			name := r.URL.Path
			if route != nil {
				if pattern := route(r); pattern != "" {
					name = pattern
				}
			}
			span.SetName(r.Method + " " + name)
			span.SetAttributes(
				attribute.String("http.request.method", r.Method),
				attribute.String("http.route", name),
				attribute.Int("http.response.status_code", rec.status),
			)

			if rec.status >= http.StatusInternalServerError {
				span.SetStatus(codes.Error, http.StatusText(rec.status))
			}
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}
