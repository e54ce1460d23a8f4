package repository

import (
	"context"
	"errors"
	"time"
)

// Стандартные ошибки
var (
	ErrRunNotFound = errors.New("run not found")
)

// Run запись о решении задачи
type Run struct {
	ID               string
	ProblemHash      string
	Rule             string
	Status           string
	Vertices         int
	Edges            int
	TotalCost        *int64 // nil, если решение не оптимально
	Pivots           int
	DegeneratePivots int
	Rounds           int
	DurationMs       float64
	CacheHit         bool
	Problem          []byte // JSON
	Solution         []byte // JSON, только для оптимальных решений
	CreatedAt        time.Time
}

// Summary возвращает краткую информацию о запуске
func (r *Run) Summary() *RunSummary {
	return &RunSummary{
		ID:               r.ID,
		ProblemHash:      r.ProblemHash,
		Rule:             r.Rule,
		Status:           r.Status,
		Vertices:         r.Vertices,
		Edges:            r.Edges,
		TotalCost:        r.TotalCost,
		Pivots:           r.Pivots,
		DegeneratePivots: r.DegeneratePivots,
		Rounds:           r.Rounds,
		DurationMs:       r.DurationMs,
		CacheHit:         r.CacheHit,
		CreatedAt:        r.CreatedAt,
	}
}

// RunSummary краткая информация о запуске без задачи и решения
type RunSummary struct {
	ID               string    `json:"id"`
	ProblemHash      string    `json:"problem_hash"`
	Rule             string    `json:"rule"`
	Status           string    `json:"status"`
	Vertices         int       `json:"vertices"`
	Edges            int       `json:"edges"`
	TotalCost        *int64    `json:"total_cost,omitempty"`
	Pivots           int       `json:"pivots"`
	DegeneratePivots int       `json:"degenerate_pivots"`
	Rounds           int       `json:"rounds"`
	DurationMs       float64   `json:"duration_ms"`
	CacheHit         bool      `json:"cache_hit"`
	CreatedAt        time.Time `json:"created_at"`
}

// ListFilter фильтры для списка
type ListFilter struct {
	Statuses      []string
	Rule          string
	ProblemHash   string
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
}

// SortOrder порядок сортировки
type SortOrder string

const (
	SortByCreatedDesc  SortOrder = "created_desc"
	SortByCreatedAsc   SortOrder = "created_asc"
	SortByDurationDesc SortOrder = "duration_desc"
	SortByPivotsDesc   SortOrder = "pivots_desc"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// ListOptions опции для списка
type ListOptions struct {
	Limit  int
	Offset int
	Filter *ListFilter
	Sort   SortOrder
}

func (o *ListOptions) normalize() *ListOptions {
	out := ListOptions{Limit: defaultListLimit, Sort: SortByCreatedDesc}
	if o != nil {
		out = *o
	}
	if out.Limit <= 0 {
		out.Limit = defaultListLimit
	}
	if out.Limit > maxListLimit {
		out.Limit = maxListLimit
	}
	if out.Offset < 0 {
		out.Offset = 0
	}
	return &out
}

// RunRepository интерфейс хранилища истории решений
type RunRepository interface {
	Create(ctx context.Context, run *Run) error
	GetByID(ctx context.Context, id string) (*Run, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, opts *ListOptions) ([]*RunSummary, int64, error)
	Ping(ctx context.Context) error
}
