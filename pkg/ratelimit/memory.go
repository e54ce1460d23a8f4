package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryLimiter in-memory реализация со скользящим окном
type MemoryLimiter struct {
	mu      sync.Mutex
	windows map[string][]time.Time // отметки запросов в порядке поступления
	config  *Config
	now     func() time.Time
	stopCh  chan struct{}
	closed  bool
}

// NewMemoryLimiter создаёт in-memory rate limiter
func NewMemoryLimiter(cfg *Config) *MemoryLimiter {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = 5 * time.Minute
	}

	l := &MemoryLimiter{
		windows: make(map[string][]time.Time),
		config:  cfg,
		now:     time.Now,
		stopCh:  make(chan struct{}),
	}

	go l.cleanupLoop()

	return l
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return false, ErrLimiterClosed
	}

	now := l.now()
	hits := l.trim(key, now)
	if len(hits) >= l.config.Requests {
		return false, nil
	}

	l.windows[key] = append(hits, now)
	return true, nil
}

func (l *MemoryLimiter) Reset(_ context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.windows, key)
	return nil
}

func (l *MemoryLimiter) GetInfo(_ context.Context, key string) (*LimitInfo, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil, ErrLimiterClosed
	}

	now := l.now()
	hits := l.trim(key, now)

	info := &LimitInfo{
		Limit:     l.config.Requests,
		Remaining: max(l.config.Requests-len(hits), 0),
		ResetAt:   now.Add(l.config.Window),
	}
	if len(hits) > 0 {
		// окно освобождается, когда выпадает самый старый запрос
		info.ResetAt = hits[0].Add(l.config.Window)
		if info.Remaining == 0 {
			info.RetryAfter = info.ResetAt.Sub(now)
		}
	}
	return info, nil
}

func (l *MemoryLimiter) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil
	}

	l.closed = true
	close(l.stopCh)
	l.windows = nil

	return nil
}

// trim отбрасывает отметки старше окна; вызывается под l.mu
func (l *MemoryLimiter) trim(key string, now time.Time) []time.Time {
	hits := l.windows[key]
	windowStart := now.Add(-l.config.Window)

	drop := 0
	for drop < len(hits) && !hits[drop].After(windowStart) {
		drop++
	}
	if drop > 0 {
		hits = append(hits[:0], hits[drop:]...)
		l.windows[key] = hits
	}
	return hits
}

func (l *MemoryLimiter) cleanupLoop() {
	ticker := time.NewTicker(l.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-l.stopCh:
			return
		case <-ticker.C:
			l.cleanup()
		}
	}
}

func (l *MemoryLimiter) cleanup() {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	for key := range l.windows {
		if len(l.trim(key, now)) == 0 {
			delete(l.windows, key)
		}
	}
}
