package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/lib/pq"

	"netsimplex/pkg/database"
	"netsimplex/pkg/telemetry"
)

// PostgresRunRepository PostgreSQL реализация
type PostgresRunRepository struct {
	db database.DB
}

// NewPostgresRunRepository создаёт новый репозиторий
func NewPostgresRunRepository(db database.DB) *PostgresRunRepository {
	return &PostgresRunRepository{db: db}
}

func (r *PostgresRunRepository) Create(ctx context.Context, run *Run) error {
	ctx, span := telemetry.StartSpan(ctx, "PostgresRunRepository.Create")
	defer span.End()

	if run.ID == "" {
		run.ID = uuid.NewString()
	}

	query := `
		INSERT INTO solve_runs (
			id, problem_hash, rule, status, vertices, edges, total_cost,
			pivots, degenerate_pivots, rounds, duration_ms, cache_hit,
			problem, solution
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING created_at
	`

	err := r.db.QueryRow(ctx, query,
		run.ID,
		run.ProblemHash,
		run.Rule,
		run.Status,
		run.Vertices,
		run.Edges,
		run.TotalCost,
		run.Pivots,
		run.DegeneratePivots,
		run.Rounds,
		run.DurationMs,
		run.CacheHit,
		run.Problem,
		run.Solution,
	).Scan(&run.CreatedAt)

	if err != nil {
		telemetry.SetError(ctx, err)
		return fmt.Errorf("failed to create run: %w", err)
	}

	return nil
}

func (r *PostgresRunRepository) GetByID(ctx context.Context, id string) (*Run, error) {
	ctx, span := telemetry.StartSpan(ctx, "PostgresRunRepository.GetByID")
	defer span.End()

	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrRunNotFound
	}

	query := `
		SELECT
			id, problem_hash, rule, status, vertices, edges, total_cost,
			pivots, degenerate_pivots, rounds, duration_ms, cache_hit,
			problem, solution, created_at
		FROM solve_runs
		WHERE id = $1
	`

	run := &Run{}
	err := r.db.QueryRow(ctx, query, id).Scan(
		&run.ID,
		&run.ProblemHash,
		&run.Rule,
		&run.Status,
		&run.Vertices,
		&run.Edges,
		&run.TotalCost,
		&run.Pivots,
		&run.DegeneratePivots,
		&run.Rounds,
		&run.DurationMs,
		&run.CacheHit,
		&run.Problem,
		&run.Solution,
		&run.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRunNotFound
		}
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	return run, nil
}

func (r *PostgresRunRepository) Delete(ctx context.Context, id string) error {
	ctx, span := telemetry.StartSpan(ctx, "PostgresRunRepository.Delete")
	defer span.End()

	if _, err := uuid.Parse(id); err != nil {
		return ErrRunNotFound
	}

	result, err := r.db.Exec(ctx, `DELETE FROM solve_runs WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrRunNotFound
	}

	return nil
}

func (r *PostgresRunRepository) List(ctx context.Context, opts *ListOptions) ([]*RunSummary, int64, error) {
	ctx, span := telemetry.StartSpan(ctx, "PostgresRunRepository.List")
	defer span.End()

	opts = opts.normalize()

	where, args := buildWhereClause(opts.Filter)

	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM solve_runs WHERE %s`, where)
	selectQuery := fmt.Sprintf(`
		SELECT
			id, problem_hash, rule, status, vertices, edges, total_cost,
			pivots, degenerate_pivots, rounds, duration_ms, cache_hit, created_at
		FROM solve_runs
		WHERE %s
		ORDER BY %s
		LIMIT $%d OFFSET $%d
	`, where, buildOrderBy(opts.Sort), len(args)+1, len(args)+2)

	// COUNT и страница читаются из одного снимка, чтобы total совпадал с выборкой
	page, err := database.WithSnapshot(ctx, r.db, func(tx pgx.Tx) (runPage, error) {
		var page runPage
		if err := tx.QueryRow(ctx, countQuery, args...).Scan(&page.total); err != nil {
			return page, fmt.Errorf("failed to count runs: %w", err)
		}

		rows, err := tx.Query(ctx, selectQuery, append(args, opts.Limit, opts.Offset)...)
		if err != nil {
			return page, fmt.Errorf("failed to list runs: %w", err)
		}
		page.runs, err = scanSummaries(rows, opts.Limit)
		return page, err
	})
	if err != nil {
		telemetry.SetError(ctx, err)
		return nil, 0, err
	}

	return page.runs, page.total, nil
}

type runPage struct {
	runs  []*RunSummary
	total int64
}

func scanSummaries(rows pgx.Rows, capacity int) ([]*RunSummary, error) {
	defer rows.Close()

	results := make([]*RunSummary, 0, capacity)
	for rows.Next() {
		s := &RunSummary{}
		err := rows.Scan(
			&s.ID,
			&s.ProblemHash,
			&s.Rule,
			&s.Status,
			&s.Vertices,
			&s.Edges,
			&s.TotalCost,
			&s.Pivots,
			&s.DegeneratePivots,
			&s.Rounds,
			&s.DurationMs,
			&s.CacheHit,
			&s.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		results = append(results, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return results, nil
}

func (r *PostgresRunRepository) Ping(ctx context.Context) error {
	return database.HealthCheck(ctx, r.db)
}

func buildWhereClause(filter *ListFilter) (string, []any) {
	var conditions []string
	var args []any
	argNum := 1

	if filter != nil {
		if len(filter.Statuses) > 0 {
			conditions = append(conditions, fmt.Sprintf("status = ANY($%d)", argNum))
			args = append(args, pq.Array(filter.Statuses))
			argNum++
		}

		if filter.Rule != "" {
			conditions = append(conditions, fmt.Sprintf("rule = $%d", argNum))
			args = append(args, filter.Rule)
			argNum++
		}

		if filter.ProblemHash != "" {
			conditions = append(conditions, fmt.Sprintf("problem_hash = $%d", argNum))
			args = append(args, filter.ProblemHash)
			argNum++
		}

		if filter.CreatedAfter != nil {
			conditions = append(conditions, fmt.Sprintf("created_at >= $%d", argNum))
			args = append(args, *filter.CreatedAfter)
			argNum++
		}

		if filter.CreatedBefore != nil {
			conditions = append(conditions, fmt.Sprintf("created_at <= $%d", argNum))
			args = append(args, *filter.CreatedBefore)
		}
	}

	if len(conditions) == 0 {
		return "TRUE", nil
	}
	return strings.Join(conditions, " AND "), args
}

func buildOrderBy(sort SortOrder) string {
	switch sort {
	case SortByCreatedAsc:
		return "created_at ASC"
	case SortByDurationDesc:
		return "duration_ms DESC"
	case SortByPivotsDesc:
		return "pivots DESC"
	default:
		return "created_at DESC"
	}
}
