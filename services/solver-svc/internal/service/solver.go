package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"netsimplex/pkg/apperror"
	"netsimplex/pkg/cache"
	"netsimplex/pkg/config"
	"netsimplex/pkg/logger"
	"netsimplex/pkg/metrics"
	"netsimplex/pkg/telemetry"
	"netsimplex/services/solver-svc/internal/converter"
	"netsimplex/services/solver-svc/internal/report"
	"netsimplex/services/solver-svc/internal/repository"
	"netsimplex/services/solver-svc/internal/simplex"
)

// Config настройки сервиса решателя
type Config struct {
	Rule          simplex.Rule
	MaxPivots     int
	MaxConcurrent int
	AcquireWait   time.Duration
	Limits        converter.Limits
	Verify        bool
	SaveRuns      bool
	CacheTTL      time.Duration
}

// ConfigFromSolver переводит секцию solver конфигурации в Config
func ConfigFromSolver(cfg config.SolverConfig, cacheTTL time.Duration) (Config, error) {
	rule, err := simplex.ParseRule(cfg.Rule)
	if err != nil {
		return Config{}, err
	}
	return Config{
		Rule:          rule,
		MaxPivots:     cfg.MaxPivots,
		MaxConcurrent: cfg.MaxConcurrent,
		AcquireWait:   cfg.AcquireWait,
		Limits: converter.Limits{
			MaxVertices: cfg.MaxVertices,
			MaxEdges:    cfg.MaxEdges,
		},
		Verify:   cfg.Verify,
		SaveRuns: cfg.SaveRuns,
		CacheTTL: cacheTTL,
	}, nil
}

// SolveRequest запрос на решение задачи
type SolveRequest struct {
	Problem   *converter.Problem `json:"problem"`
	Rule      string             `json:"rule,omitempty"`
	MaxPivots int                `json:"max_pivots,omitempty"`
	// Verify переопределяет настройку сервиса, если задан
	Verify  *bool `json:"verify,omitempty"`
	NoCache bool  `json:"no_cache,omitempty"`
}

// SolveResponse ответ на запрос решения
type SolveResponse struct {
	RunID       string            `json:"run_id,omitempty"`
	ProblemHash string            `json:"problem_hash"`
	CacheHit    bool              `json:"cache_hit"`
	DurationMs  float64           `json:"duration_ms"`
	Result      *converter.Result `json:"result"`
	Warnings    []string          `json:"warnings,omitempty"`
}

// RunDetails сохранённый запуск с разобранными задачей и решением
type RunDetails struct {
	*repository.RunSummary
	Problem *converter.Problem `json:"problem,omitempty"`
	Result  *converter.Result  `json:"result,omitempty"`
}

// SolverService решает задачи min-cost flow, кэширует результаты и
// ведёт историю запусков
type SolverService struct {
	cfg       Config
	pool      *SlotPool
	runs      repository.RunRepository
	solutions *cache.SolutionCache[converter.Result]
	metrics   *metrics.Metrics
	now       func() time.Time
}

// NewSolverService создаёт сервис. runs, solutions и m могут быть nil.
func NewSolverService(
	cfg Config,
	runs repository.RunRepository,
	solutions *cache.SolutionCache[converter.Result],
	m *metrics.Metrics,
) *SolverService {
	if cfg.Rule == "" {
		cfg.Rule = simplex.DefaultRule
	}
	return &SolverService{
		cfg:       cfg,
		pool:      NewSlotPool(cfg.MaxConcurrent, cfg.AcquireWait),
		runs:      runs,
		solutions: solutions,
		metrics:   m,
		now:       time.Now,
	}
}

// Pool возвращает пул слотов решателя
func (s *SolverService) Pool() *SlotPool {
	return s.pool
}

// Limits возвращает ограничения на размер задачи
func (s *SolverService) Limits() converter.Limits {
	return s.cfg.Limits
}

// Solve решает задачу. Недопустимость и исчерпание лимита пивотов -
// статусы результата, а не ошибки.
func (s *SolverService) Solve(ctx context.Context, req *SolveRequest) (*SolveResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "SolverService.Solve")
	defer span.End()

	log := logger.FromContext(ctx)

	opts, err := s.buildOptions(req)
	if err != nil {
		telemetry.SetError(ctx, err)
		return nil, err
	}
	span.SetAttributes(attribute.String(telemetry.AttrRule, string(opts.Rule)))

	if err := req.Problem.Validate(s.cfg.Limits); err != nil {
		telemetry.SetError(ctx, err)
		return nil, err
	}

	p := req.Problem
	hash := cache.Fingerprint(p.Canonical())
	span.SetAttributes(telemetry.ProblemAttributes(p.VertexCount(), len(p.Edges), hash)...)

	start := s.now()

	// Проверяем кэш
	if s.solutions != nil && !req.NoCache {
		cached, found, err := s.solutions.Get(ctx, string(opts.Rule), hash)
		if err != nil {
			log.Warn("Solution cache lookup failed", "error", err)
		}
		if s.metrics != nil && err == nil {
			s.metrics.RecordCacheLookup(found)
		}
		if found {
			telemetry.AddEvent(ctx, "cache_hit", attribute.String(telemetry.AttrStatus, string(cached.Status)))
			span.SetAttributes(attribute.Bool(telemetry.AttrCacheHit, true))

			resp := &SolveResponse{
				ProblemHash: hash,
				CacheHit:    true,
				Result:      cached,
			}
			s.persist(ctx, p, opts.Rule, resp)
			return resp, nil
		}
	}
	span.SetAttributes(attribute.Bool(telemetry.AttrCacheHit, false))

	release, err := s.pool.Acquire(ctx)
	if err != nil {
		telemetry.SetError(ctx, err)
		return nil, err
	}
	res, err := converter.Solve(p, opts)
	release()

	elapsed := s.now().Sub(start)

	if err != nil {
		if s.metrics != nil {
			s.metrics.RecordSolveOperation(string(opts.Rule), metrics.StatusError, elapsed, 0, 0)
		}
		log.Error("Solve failed", "rule", opts.Rule, "error", err)
		err = apperror.Wrap(err, apperror.CodeAlgorithmError, "solver failed")
		telemetry.SetError(ctx, err)
		return nil, err
	}

	resp := &SolveResponse{
		ProblemHash: hash,
		DurationMs:  float64(elapsed.Microseconds()) / 1000,
		Result:      res,
	}

	verify := s.cfg.Verify
	if req.Verify != nil {
		verify = *req.Verify
	}
	if verify && res.Optimal() {
		if v := converter.VerifyResult(p, res); v.HasErrors() {
			span.SetAttributes(attribute.Int(telemetry.AttrVerifyError, len(v.Errors)))
			log.Error("Solution failed verification", "errors", v.ErrorMessages())
			first := v.First()
			err := apperror.NewCritical(first.Code, "solution failed verification: "+first.Message).
				WithDetails("errors", v.ErrorMessages())
			telemetry.SetError(ctx, err)
			return nil, err
		}
	}

	stats := res.Stats
	span.SetAttributes(telemetry.SolveAttributes(
		string(opts.Rule), string(res.Status), stats.Pivots, stats.DegeneratePivots, stats.Rounds, res.TotalCost,
	)...)

	if s.metrics != nil {
		s.metrics.RecordSolveOperation(string(opts.Rule), string(res.Status), elapsed, stats.Pivots, stats.DegeneratePivots)
		s.metrics.RecordGraphSize("solve", p.VertexCount(), len(p.Edges))
		if res.Optimal() {
			s.metrics.RecordTotalCost(string(opts.Rule), res.TotalCost)
		}
	}

	log.Info("Problem solved",
		"rule", opts.Rule,
		"vertices", p.VertexCount(),
		"edges", len(p.Edges),
		"status", res.Status,
		"pivots", stats.Pivots,
		"duration", elapsed,
	)

	// Исход pivot_limit зависит от лимита запроса, его не кэшируем
	if s.solutions != nil && res.Status != converter.StatusPivotLimit {
		if err := s.solutions.Set(ctx, string(opts.Rule), hash, res, s.cfg.CacheTTL); err != nil {
			log.Warn("Failed to cache solve result", "error", err)
		}
	}

	s.persist(ctx, p, opts.Rule, resp)

	return resp, nil
}

// persist сохраняет запуск в историю. Ошибки хранилища не ломают ответ.
func (s *SolverService) persist(ctx context.Context, p *converter.Problem, rule simplex.Rule, resp *SolveResponse) {
	if s.runs == nil || !s.cfg.SaveRuns {
		return
	}

	problemJSON, err := json.Marshal(p)
	if err != nil {
		logger.FromContext(ctx).Warn("Failed to encode problem", "error", err)
		return
	}

	res := resp.Result
	run := &repository.Run{
		ProblemHash:      resp.ProblemHash,
		Rule:             string(rule),
		Status:           string(res.Status),
		Vertices:         p.VertexCount(),
		Edges:            len(p.Edges),
		Pivots:           res.Stats.Pivots,
		DegeneratePivots: res.Stats.DegeneratePivots,
		Rounds:           res.Stats.Rounds,
		DurationMs:       resp.DurationMs,
		CacheHit:         resp.CacheHit,
		Problem:          problemJSON,
	}
	if res.Optimal() {
		cost := res.TotalCost
		run.TotalCost = &cost
		if run.Solution, err = json.Marshal(res); err != nil {
			logger.FromContext(ctx).Warn("Failed to encode solution", "error", err)
			return
		}
	}

	if err := s.runs.Create(ctx, run); err != nil {
		logger.FromContext(ctx).Warn("Failed to save run", "error", err)
		resp.Warnings = append(resp.Warnings, "run was not saved")
		return
	}

	resp.RunID = run.ID
	telemetry.SetAttributes(ctx, attribute.String(telemetry.AttrRunID, run.ID))
}

func (s *SolverService) buildOptions(req *SolveRequest) (*simplex.Options, error) {
	if req == nil || req.Problem == nil {
		return nil, apperror.ErrNilProblem
	}
	if req.MaxPivots < 0 {
		return nil, apperror.NewWithField(apperror.CodeInvalidArgument, "max_pivots must be non-negative", "max_pivots")
	}

	opts := simplex.DefaultOptions().WithRule(s.cfg.Rule)
	opts.MaxPivots = s.cfg.MaxPivots

	if req.Rule != "" {
		rule, err := simplex.ParseRule(req.Rule)
		if err != nil {
			return nil, apperror.Wrap(err, apperror.CodeInvalidRule, err.Error()).WithField("rule")
		}
		opts.Rule = rule
	}

	// Лимит запроса может только ужесточить лимит сервиса
	if req.MaxPivots > 0 && (opts.MaxPivots <= 0 || req.MaxPivots < opts.MaxPivots) {
		opts.MaxPivots = req.MaxPivots
	}

	return opts, nil
}

// GetRun возвращает сохранённый запуск
func (s *SolverService) GetRun(ctx context.Context, id string) (*RunDetails, error) {
	ctx, span := telemetry.StartSpan(ctx, "SolverService.GetRun",
		trace.WithAttributes(attribute.String(telemetry.AttrRunID, id)),
	)
	defer span.End()

	run, err := s.getRun(ctx, id)
	if err != nil {
		telemetry.SetError(ctx, err)
		return nil, err
	}

	details := &RunDetails{RunSummary: run.Summary()}
	if details.Problem, details.Result, err = decodeRun(run); err != nil {
		return nil, err
	}
	return details, nil
}

// ListRuns возвращает страницу истории запусков и общее число записей
func (s *SolverService) ListRuns(ctx context.Context, opts *repository.ListOptions) ([]*repository.RunSummary, int64, error) {
	if s.runs == nil {
		return nil, 0, apperror.New(apperror.CodeUnavailable, "run history is disabled")
	}

	ctx, span := telemetry.StartSpan(ctx, "SolverService.ListRuns")
	defer span.End()

	runs, total, err := s.runs.List(ctx, opts)
	if err != nil {
		telemetry.SetError(ctx, err)
		return nil, 0, apperror.Wrap(err, apperror.CodeInternal, "failed to list runs")
	}
	span.SetAttributes(attribute.Int("runs.returned", len(runs)), attribute.Int64("runs.total", total))
	return runs, total, nil
}

// DeleteRun удаляет запуск из истории
func (s *SolverService) DeleteRun(ctx context.Context, id string) error {
	if s.runs == nil {
		return apperror.New(apperror.CodeUnavailable, "run history is disabled")
	}

	ctx, span := telemetry.StartSpan(ctx, "SolverService.DeleteRun",
		trace.WithAttributes(attribute.String(telemetry.AttrRunID, id)),
	)
	defer span.End()

	if err := s.runs.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrRunNotFound) {
			return apperror.ErrRunNotFound
		}
		telemetry.SetError(ctx, err)
		return apperror.Wrap(err, apperror.CodeInternal, "failed to delete run")
	}

	logger.FromContext(ctx).Info("Run deleted", "run_id", id)
	return nil
}

// RunReport строит xlsx отчёт по сохранённому запуску
func (s *SolverService) RunReport(ctx context.Context, id string) ([]byte, error) {
	ctx, span := telemetry.StartSpan(ctx, "SolverService.RunReport",
		trace.WithAttributes(attribute.String(telemetry.AttrRunID, id)),
	)
	defer span.End()

	run, err := s.getRun(ctx, id)
	if err != nil {
		telemetry.SetError(ctx, err)
		return nil, err
	}

	p, res, err := decodeRun(run)
	if err != nil {
		return nil, err
	}
	if res == nil {
		// Для неоптимальных запусков решение не хранится
		res = &converter.Result{
			Status: converter.Status(run.Status),
			Stats: simplex.Stats{
				Rule:             simplex.Rule(run.Rule),
				Pivots:           run.Pivots,
				DegeneratePivots: run.DegeneratePivots,
				Rounds:           run.Rounds,
			},
		}
	}

	data, err := report.Generate(&report.Data{Run: run, Problem: p, Result: res})
	if err != nil {
		telemetry.SetError(ctx, err)
		return nil, err
	}
	span.SetAttributes(attribute.Int("report.bytes", len(data)))
	return data, nil
}

// Ready проверяет доступность хранилища истории
func (s *SolverService) Ready(ctx context.Context) error {
	if s.runs == nil {
		return nil
	}
	if err := s.runs.Ping(ctx); err != nil {
		return apperror.Wrap(err, apperror.CodeUnavailable, "run repository is unavailable")
	}
	return nil
}

func (s *SolverService) getRun(ctx context.Context, id string) (*repository.Run, error) {
	if s.runs == nil {
		return nil, apperror.New(apperror.CodeUnavailable, "run history is disabled")
	}

	run, err := s.runs.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrRunNotFound) {
			return nil, apperror.ErrRunNotFound
		}
		return nil, apperror.Wrap(err, apperror.CodeInternal, "failed to load run")
	}
	return run, nil
}

func decodeRun(run *repository.Run) (*converter.Problem, *converter.Result, error) {
	var p converter.Problem
	if err := json.Unmarshal(run.Problem, &p); err != nil {
		return nil, nil, apperror.Wrap(err, apperror.CodeInternal, "stored problem is corrupted")
	}

	if len(run.Solution) == 0 {
		return &p, nil, nil
	}

	var res converter.Result
	if err := json.Unmarshal(run.Solution, &res); err != nil {
		return nil, nil, apperror.Wrap(err, apperror.CodeInternal, "stored solution is corrupted")
	}
	return &p, &res, nil
}
