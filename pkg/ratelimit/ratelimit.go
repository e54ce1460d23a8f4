// Package ratelimit ограничивает частоту запросов к решателю по ключу
// клиента (IP). Поддерживаются in-memory и Redis хранилища со скользящим окном.
package ratelimit

import (
	"context"
	"errors"
	"time"

	"netsimplex/pkg/config"
)

// Стандартные ошибки
var (
	ErrLimiterClosed = errors.New("limiter is closed")
)

// Limiter интерфейс ограничителя запросов
type Limiter interface {
	// Allow проверяет, разрешён ли запрос
	Allow(ctx context.Context, key string) (bool, error)

	// Reset сбрасывает лимит для ключа
	Reset(ctx context.Context, key string) error

	// GetInfo возвращает информацию о текущем состоянии
	GetInfo(ctx context.Context, key string) (*LimitInfo, error)

	// Close закрывает лимитер
	Close() error
}

// LimitInfo информация о состоянии лимита
type LimitInfo struct {
	Limit      int           `json:"limit"`
	Remaining  int           `json:"remaining"`
	ResetAt    time.Time     `json:"reset_at"`
	RetryAfter time.Duration `json:"retry_after,omitempty"`
}

// Config конфигурация rate limiter
type Config struct {
	Requests        int
	Window          time.Duration
	Backend         string // memory, redis
	CleanupInterval time.Duration

	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// DefaultConfig возвращает конфигурацию по умолчанию
func DefaultConfig() *Config {
	return &Config{
		Requests:        60,
		Window:          time.Minute,
		Backend:         "memory",
		CleanupInterval: 5 * time.Minute,
	}
}

// FromConfig переносит настройки из секции rate_limit
func FromConfig(cfg *config.RateLimitConfig) *Config {
	out := DefaultConfig()
	if cfg.Requests > 0 {
		out.Requests = cfg.Requests
	}
	if cfg.Window > 0 {
		out.Window = cfg.Window
	}
	if cfg.Backend != "" {
		out.Backend = cfg.Backend
	}
	if cfg.CleanupInterval > 0 {
		out.CleanupInterval = cfg.CleanupInterval
	}
	out.RedisAddr = cfg.RedisAddr
	return out
}

// New создаёт лимитер на основе конфигурации
func New(cfg *Config) (Limiter, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	switch cfg.Backend {
	case "redis":
		return NewRedisLimiter(cfg)
	default:
		return NewMemoryLimiter(cfg), nil
	}
}
