package service

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"

	"netsimplex/pkg/apperror"
)

// SlotPool ограничивает число одновременно работающих решателей
type SlotPool struct {
	sem      *semaphore.Weighted
	capacity int
	inUse    atomic.Int64
	wait     time.Duration
}

// NewSlotPool создаёт пул на capacity слотов. wait - сколько ждать
// свободного слота; 0 - ждать до отмены контекста.
func NewSlotPool(capacity int, wait time.Duration) *SlotPool {
	if capacity <= 0 {
		capacity = 1
	}
	return &SlotPool{
		sem:      semaphore.NewWeighted(int64(capacity)),
		capacity: capacity,
		wait:     wait,
	}
}

// Acquire занимает слот. Возвращает функцию освобождения.
func (p *SlotPool) Acquire(ctx context.Context) (func(), error) {
	waitCtx := ctx
	if p.wait > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, p.wait)
		defer cancel()
	}

	if err := p.sem.Acquire(waitCtx, 1); err != nil {
		if ctx.Err() != nil {
			return nil, apperror.Wrap(ctx.Err(), apperror.CodeTimeout, "request cancelled while waiting for a solver slot")
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, apperror.ErrSolverBusy
		}
		return nil, err
	}

	p.inUse.Add(1)
	var released atomic.Bool
	return func() {
		if released.CompareAndSwap(false, true) {
			p.inUse.Add(-1)
			p.sem.Release(1)
		}
	}, nil
}

// Capacity implements metrics.PoolStats
func (p *SlotPool) Capacity() int {
	return p.capacity
}

// InUse implements metrics.PoolStats
func (p *SlotPool) InUse() int {
	return int(p.inUse.Load())
}
