package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClockedRepo() (*MemoryRunRepository, *time.Time) {
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	r := NewMemoryRunRepository()
	r.now = func() time.Time {
		now = now.Add(time.Second)
		return now
	}
	return r, &now
}

func TestMemoryRunRepository_CRUD(t *testing.T) {
	repo, _ := newClockedRepo()
	ctx := context.Background()

	run := sampleRun()
	require.NoError(t, repo.Create(ctx, run))
	require.NotEmpty(t, run.ID)
	assert.False(t, run.CreatedAt.IsZero())

	got, err := repo.GetByID(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, run.ProblemHash, got.ProblemHash)

	// возвращается копия
	got.Status = "changed"
	again, _ := repo.GetByID(ctx, run.ID)
	assert.Equal(t, "optimal", again.Status)

	require.NoError(t, repo.Delete(ctx, run.ID))
	_, err = repo.GetByID(ctx, run.ID)
	assert.ErrorIs(t, err, ErrRunNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, run.ID), ErrRunNotFound)
	assert.NoError(t, repo.Ping(ctx))
}

func TestMemoryRunRepository_List(t *testing.T) {
	repo, _ := newClockedRepo()
	ctx := context.Background()

	seed := []struct {
		rule, status string
		pivots       int
		duration     float64
	}{
		{"block_search", "optimal", 5, 1.0},
		{"batched_dfs", "optimal", 9, 0.5},
		{"block_search", "infeasible", 2, 3.0},
		{"batched_dfs", "pivot_limit", 7, 2.0},
	}
	ids := make([]string, len(seed))
	for i, s := range seed {
		run := sampleRun()
		run.Rule, run.Status, run.Pivots, run.DurationMs = s.rule, s.status, s.pivots, s.duration
		require.NoError(t, repo.Create(ctx, run))
		ids[i] = run.ID
	}

	tests := []struct {
		name      string
		opts      *ListOptions
		wantIDs   []string
		wantTotal int64
	}{
		{"default newest first", nil, []string{ids[3], ids[2], ids[1], ids[0]}, 4},
		{"oldest first", &ListOptions{Sort: SortByCreatedAsc}, []string{ids[0], ids[1], ids[2], ids[3]}, 4},
		{"by pivots", &ListOptions{Sort: SortByPivotsDesc}, []string{ids[1], ids[3], ids[0], ids[2]}, 4},
		{"by duration", &ListOptions{Sort: SortByDurationDesc}, []string{ids[2], ids[3], ids[0], ids[1]}, 4},
		{"statuses", &ListOptions{Filter: &ListFilter{Statuses: []string{"infeasible", "pivot_limit"}}}, []string{ids[3], ids[2]}, 2},
		{"rule", &ListOptions{Filter: &ListFilter{Rule: "batched_dfs"}, Sort: SortByCreatedAsc}, []string{ids[1], ids[3]}, 2},
		{"page", &ListOptions{Limit: 2, Offset: 1, Sort: SortByCreatedAsc}, []string{ids[1], ids[2]}, 4},
		{"past the end", &ListOptions{Offset: 10}, []string{}, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runs, total, err := repo.List(ctx, tt.opts)
			require.NoError(t, err)
			assert.Equal(t, tt.wantTotal, total)

			got := make([]string, len(runs))
			for i, r := range runs {
				got[i] = r.ID
			}
			assert.Equal(t, tt.wantIDs, got)
		})
	}
}

func TestMemoryRunRepository_ListTimeFilter(t *testing.T) {
	repo, _ := newClockedRepo()
	ctx := context.Background()

	first := sampleRun()
	require.NoError(t, repo.Create(ctx, first))
	second := sampleRun()
	require.NoError(t, repo.Create(ctx, second))

	runs, total, err := repo.List(ctx, &ListOptions{Filter: &ListFilter{CreatedAfter: &second.CreatedAt}})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, second.ID, runs[0].ID)

	runs, _, err = repo.List(ctx, &ListOptions{Filter: &ListFilter{CreatedBefore: &first.CreatedAt}})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, first.ID, runs[0].ID)
}

func TestListOptions_Normalize(t *testing.T) {
	var nilOpts *ListOptions
	assert.Equal(t, defaultListLimit, nilOpts.normalize().Limit)
	assert.Equal(t, SortByCreatedDesc, nilOpts.normalize().Sort)

	opts := (&ListOptions{Limit: 1000, Offset: -3}).normalize()
	assert.Equal(t, maxListLimit, opts.Limit)
	assert.Equal(t, 0, opts.Offset)
}

func TestRun_Summary(t *testing.T) {
	run := sampleRun()
	run.ID = "x"
	s := run.Summary()
	assert.Equal(t, "x", s.ID)
	assert.Equal(t, run.TotalCost, s.TotalCost)
	assert.Equal(t, run.Pivots, s.Pivots)
}
