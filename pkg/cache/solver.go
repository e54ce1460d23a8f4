package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// SolutionCache stores solver results as JSON under rule and problem hash.
type SolutionCache[T any] struct {
	cache      Cache
	defaultTTL time.Duration
}

// NewSolutionCache создаёт типизированный кэш поверх Cache
func NewSolutionCache[T any](cache Cache, defaultTTL time.Duration) *SolutionCache[T] {
	if defaultTTL <= 0 {
		defaultTTL = 10 * time.Minute
	}
	return &SolutionCache[T]{
		cache:      cache,
		defaultTTL: defaultTTL,
	}
}

// Get возвращает сохранённый результат. Повреждённые записи удаляются и
// считаются промахом.
func (sc *SolutionCache[T]) Get(ctx context.Context, rule, problemHash string) (*T, bool, error) {
	key := BuildSolveKey(rule, problemHash)

	data, err := sc.cache.Get(ctx, key)
	if err != nil {
		if errors.Is(err, ErrKeyNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}

	var result T
	if err := json.Unmarshal(data, &result); err != nil {
		_ = sc.cache.Delete(ctx, key) //nolint:errcheck // best effort cleanup
		return nil, false, nil
	}

	return &result, true, nil
}

// Set сохраняет результат
func (sc *SolutionCache[T]) Set(ctx context.Context, rule, problemHash string, result *T, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = sc.defaultTTL
	}

	data, err := json.Marshal(result)
	if err != nil {
		return err
	}

	return sc.cache.Set(ctx, BuildSolveKey(rule, problemHash), data, ttl)
}

// Invalidate удаляет результаты всех правил для задачи
func (sc *SolutionCache[T]) Invalidate(ctx context.Context, problemHash string) (int64, error) {
	return sc.cache.DeleteByPattern(ctx, ProblemPattern(problemHash))
}

// InvalidateAll удаляет все результаты решателя
func (sc *SolutionCache[T]) InvalidateAll(ctx context.Context) (int64, error) {
	return sc.cache.DeleteByPattern(ctx, solveKeyPrefix+":*")
}
