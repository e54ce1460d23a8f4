package repository

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryRunRepository in-memory реализация RunRepository
type MemoryRunRepository struct {
	mu   sync.RWMutex
	runs map[string]*Run
	now  func() time.Time
}

// NewMemoryRunRepository создаёт новый in-memory репозиторий
func NewMemoryRunRepository() *MemoryRunRepository {
	return &MemoryRunRepository{
		runs: make(map[string]*Run),
		now:  time.Now,
	}
}

func (r *MemoryRunRepository) Create(_ context.Context, run *Run) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	run.CreatedAt = r.now()

	stored := *run
	r.runs[run.ID] = &stored
	return nil
}

func (r *MemoryRunRepository) GetByID(_ context.Context, id string) (*Run, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	run, ok := r.runs[id]
	if !ok {
		return nil, ErrRunNotFound
	}
	out := *run
	return &out, nil
}

func (r *MemoryRunRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.runs[id]; !ok {
		return ErrRunNotFound
	}
	delete(r.runs, id)
	return nil
}

func (r *MemoryRunRepository) List(_ context.Context, opts *ListOptions) ([]*RunSummary, int64, error) {
	opts = opts.normalize()

	r.mu.RLock()
	matched := make([]*RunSummary, 0, len(r.runs))
	for _, run := range r.runs {
		if matches(run, opts.Filter) {
			matched = append(matched, run.Summary())
		}
	}
	r.mu.RUnlock()

	slices.SortFunc(matched, compareBy(opts.Sort))

	total := int64(len(matched))
	if opts.Offset >= len(matched) {
		return []*RunSummary{}, total, nil
	}
	end := min(opts.Offset+opts.Limit, len(matched))
	return matched[opts.Offset:end], total, nil
}

func (r *MemoryRunRepository) Ping(context.Context) error {
	return nil
}

func matches(run *Run, f *ListFilter) bool {
	if f == nil {
		return true
	}
	if len(f.Statuses) > 0 && !slices.Contains(f.Statuses, run.Status) {
		return false
	}
	if f.Rule != "" && run.Rule != f.Rule {
		return false
	}
	if f.ProblemHash != "" && run.ProblemHash != f.ProblemHash {
		return false
	}
	if f.CreatedAfter != nil && run.CreatedAt.Before(*f.CreatedAfter) {
		return false
	}
	if f.CreatedBefore != nil && run.CreatedAt.After(*f.CreatedBefore) {
		return false
	}
	return true
}

func compareBy(sort SortOrder) func(a, b *RunSummary) int {
	byCreated := func(a, b *RunSummary) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	}

	switch sort {
	case SortByCreatedAsc:
		return byCreated
	case SortByDurationDesc:
		return func(a, b *RunSummary) int {
			switch {
			case a.DurationMs > b.DurationMs:
				return -1
			case a.DurationMs < b.DurationMs:
				return 1
			}
			return -byCreated(a, b)
		}
	case SortByPivotsDesc:
		return func(a, b *RunSummary) int {
			if a.Pivots != b.Pivots {
				return b.Pivots - a.Pivots
			}
			return -byCreated(a, b)
		}
	default:
		return func(a, b *RunSummary) int { return -byCreated(a, b) }
	}
}
