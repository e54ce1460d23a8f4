package ratelimit

import (
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"netsimplex/pkg/apperror"
	"netsimplex/pkg/logger"
)

// KeyExtractor функция для извлечения ключа rate limiting из запроса
type KeyExtractor func(r *http.Request) string

// DefaultKeyExtractor извлекает IP клиента
func DefaultKeyExtractor(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return "ip:" + strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return "ip:" + strings.TrimSpace(xri)
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "ip:" + host
}

// Middleware ограничивает частоту запросов. При ошибке лимитера запрос
// пропускается (fail open).
func Middleware(limiter Limiter, keyExtractor KeyExtractor) func(http.Handler) http.Handler {
	if keyExtractor == nil {
		keyExtractor = DefaultKeyExtractor
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			key := keyExtractor(r)

			allowed, err := limiter.Allow(ctx, key)
			if err != nil {
				logger.Log.Warn("Rate limit check failed", "error", err, "key", key)
				next.ServeHTTP(w, r)
				return
			}

			info, infoErr := limiter.GetInfo(ctx, key)
			if infoErr != nil {
				logger.Log.Debug("Failed to get rate limit info", "error", infoErr, "key", key)
				info = nil
			}
			if info != nil {
				setHeaders(w, info)
			}

			if allowed {
				next.ServeHTTP(w, r)
				return
			}

			limit := 0
			if info != nil {
				limit = info.Limit
				if info.RetryAfter > 0 {
					w.Header().Set("Retry-After", strconv.Itoa(int(info.RetryAfter.Round(time.Second).Seconds())))
				}
			}
			logger.Log.Warn("Rate limit exceeded", "key", key, "limit", limit)

			writeLimited(w)
		})
	}
}

func setHeaders(w http.ResponseWriter, info *LimitInfo) {
	h := w.Header()
	h.Set("X-RateLimit-Limit", strconv.Itoa(info.Limit))
	h.Set("X-RateLimit-Remaining", strconv.Itoa(info.Remaining))
	h.Set("X-RateLimit-Reset", info.ResetAt.UTC().Format(time.RFC3339))
}

func writeLimited(w http.ResponseWriter) {
	appErr := apperror.ErrRateLimited
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(appErr.HTTPStatus())
	_ = json.NewEncoder(w).Encode(map[string]string{
		"code":    string(appErr.Code),
		"message": appErr.Message,
	})
}
