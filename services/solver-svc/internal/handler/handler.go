// Package handler публикует сервис решателя по HTTP
package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"netsimplex/pkg/apperror"
	"netsimplex/pkg/config"
	"netsimplex/pkg/logger"
	"netsimplex/services/solver-svc/internal/converter"
	"netsimplex/services/solver-svc/internal/repository"
	"netsimplex/services/solver-svc/internal/service"
	"netsimplex/services/solver-svc/internal/simplex"
)

const (
	contentTypeJSON = "application/json"
	contentTypeText = "text/plain; charset=utf-8"
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// Service операции решателя, нужные HTTP слою
type Service interface {
	Solve(ctx context.Context, req *service.SolveRequest) (*service.SolveResponse, error)
	GetRun(ctx context.Context, id string) (*service.RunDetails, error)
	ListRuns(ctx context.Context, opts *repository.ListOptions) ([]*repository.RunSummary, int64, error)
	DeleteRun(ctx context.Context, id string) error
	RunReport(ctx context.Context, id string) ([]byte, error)
	Ready(ctx context.Context) error
	Limits() converter.Limits
}

// Запросы декодируются строго: опечатка в поле - ошибка, а не молчаливый ноль
var strictJSON = sonic.Config{DisallowUnknownFields: true}.Froze()

// Handler HTTP обработчики сервиса решателя
type Handler struct {
	svc       Service
	app       config.AppConfig
	startedAt time.Time
}

// New создаёт обработчики
func New(svc Service, app config.AppConfig) *Handler {
	return &Handler{
		svc:       svc,
		app:       app,
		startedAt: time.Now(),
	}
}

// Register регистрирует маршруты
func (h *Handler) Register(r chi.Router) {
	r.Get("/healthz", h.Health)
	r.Get("/readyz", h.Ready)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/info", h.Info)
		r.Get("/rules", h.Rules)
		r.Post("/solve", h.Solve)
		r.Post("/solve/bflow", h.SolveBFlow)

		r.Route("/runs", func(r chi.Router) {
			r.Get("/", h.ListRuns)
			r.Get("/{id}", h.GetRun)
			r.Delete("/{id}", h.DeleteRun)
			r.Get("/{id}/report.xlsx", h.RunReport)
		})
	})
}

// ==================== Health & Info ====================

// Health сообщает, что процесс жив
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Ready проверяет зависимости сервиса
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Ready(r.Context()); err != nil {
		logger.FromContext(r.Context()).Warn("Readiness check failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"ready": false,
			"error": err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ready": true})
}

// InfoResponse сведения о сервисе
type InfoResponse struct {
	Name          string    `json:"name"`
	Version       string    `json:"version"`
	Environment   string    `json:"environment"`
	StartedAt     time.Time `json:"started_at"`
	UptimeSeconds int64     `json:"uptime_seconds"`
	Rules         []string  `json:"rules"`
}

// Info возвращает сведения о сервисе
func (h *Handler) Info(w http.ResponseWriter, _ *http.Request) {
	rules := make([]string, 0, len(simplex.Rules()))
	for _, rule := range simplex.Rules() {
		rules = append(rules, string(rule))
	}

	writeJSON(w, http.StatusOK, &InfoResponse{
		Name:          h.app.Name,
		Version:       h.app.Version,
		Environment:   h.app.Environment,
		StartedAt:     h.startedAt.UTC(),
		UptimeSeconds: int64(time.Since(h.startedAt).Seconds()),
		Rules:         rules,
	})
}

// Rules возвращает описания правил выбора входящего ребра
func (h *Handler) Rules(w http.ResponseWriter, _ *http.Request) {
	infos := make([]*simplex.RuleInfo, 0, len(simplex.Rules()))
	for _, rule := range simplex.Rules() {
		infos = append(infos, simplex.GetRuleInfo(rule))
	}
	writeJSON(w, http.StatusOK, map[string]any{"rules": infos})
}

// ==================== Solve ====================

// Solve решает задачу, переданную в JSON
func (h *Handler) Solve(w http.ResponseWriter, r *http.Request) {
	var req service.SolveRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	resp, err := h.svc.Solve(r.Context(), &req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// SolveBFlow решает задачу в текстовом b-flow формате. Параметры rule и
// max_pivots передаются в query. Ответ - текст стоимости, потенциалов и
// потоков или "infeasible".
func (h *Handler) SolveBFlow(w http.ResponseWriter, r *http.Request) {
	p, err := converter.ParseBFlow(r.Body, h.svc.Limits())
	if err != nil {
		writeError(w, r, bodyError(err))
		return
	}

	req := &service.SolveRequest{
		Problem: p,
		Rule:    r.URL.Query().Get("rule"),
	}
	if req.MaxPivots, err = queryInt(r, "max_pivots", 0); err != nil {
		writeError(w, r, err)
		return
	}

	resp, err := h.svc.Solve(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if resp.RunID != "" {
		w.Header().Set("X-Run-ID", resp.RunID)
	}
	w.Header().Set("Content-Type", contentTypeText)

	if resp.Result.Status == converter.StatusPivotLimit {
		writeError(w, r, apperror.ErrPivotLimit)
		return
	}

	w.WriteHeader(http.StatusOK)
	if err := converter.WriteBFlowResult(w, resp.Result); err != nil {
		logger.FromContext(r.Context()).Warn("Failed to write b-flow result", "error", err)
	}
}

// ==================== Runs ====================

// ListRunsResponse страница истории запусков
type ListRunsResponse struct {
	Runs   []*repository.RunSummary `json:"runs"`
	Total  int64                    `json:"total"`
	Limit  int                      `json:"limit"`
	Offset int                      `json:"offset"`
}

// ListRuns возвращает историю запусков с фильтрами из query
func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	opts, err := parseListOptions(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	runs, total, err := h.svc.ListRuns(r.Context(), opts)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if runs == nil {
		runs = []*repository.RunSummary{}
	}

	writeJSON(w, http.StatusOK, &ListRunsResponse{
		Runs:   runs,
		Total:  total,
		Limit:  opts.Limit,
		Offset: opts.Offset,
	})
}

// GetRun возвращает запуск с задачей и решением
func (h *Handler) GetRun(w http.ResponseWriter, r *http.Request) {
	run, err := h.svc.GetRun(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

// DeleteRun удаляет запуск
func (h *Handler) DeleteRun(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteRun(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RunReport отдаёт xlsx отчёт по запуску
func (h *Handler) RunReport(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	data, err := h.svc.RunReport(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", contentTypeXLSX)
	w.Header().Set("Content-Disposition", `attachment; filename="run-`+id+`.xlsx"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data) //nolint:errcheck // клиент мог закрыть соединение
}

// ==================== Helpers ====================

func parseListOptions(r *http.Request) (*repository.ListOptions, error) {
	q := r.URL.Query()

	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		return nil, err
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		return nil, err
	}

	opts := &repository.ListOptions{
		Limit:  limit,
		Offset: offset,
		Sort:   repository.SortByCreatedDesc,
		Filter: &repository.ListFilter{
			Rule:        q.Get("rule"),
			ProblemHash: q.Get("problem_hash"),
		},
	}

	if sort := q.Get("sort"); sort != "" {
		switch s := repository.SortOrder(sort); s {
		case repository.SortByCreatedDesc, repository.SortByCreatedAsc,
			repository.SortByDurationDesc, repository.SortByPivotsDesc:
			opts.Sort = s
		default:
			return nil, apperror.NewWithField(apperror.CodeInvalidArgument, "unknown sort order "+strconv.Quote(sort), "sort")
		}
	}

	for _, v := range q["status"] {
		for _, s := range strings.Split(v, ",") {
			if s = strings.TrimSpace(s); s != "" {
				opts.Filter.Statuses = append(opts.Filter.Statuses, s)
			}
		}
	}

	if opts.Filter.CreatedAfter, err = queryTime(r, "created_after"); err != nil {
		return nil, err
	}
	if opts.Filter.CreatedBefore, err = queryTime(r, "created_before"); err != nil {
		return nil, err
	}

	// Ответ показывает фактически применённые значения
	if opts.Limit <= 0 {
		opts.Limit = 20
	}
	if opts.Limit > 100 {
		opts.Limit = 100
	}

	return opts, nil
}

func queryInt(r *http.Request, name string, def int) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, apperror.NewWithField(apperror.CodeInvalidArgument, name+" must be a non-negative integer", name)
	}
	return n, nil
}

func queryTime(r *http.Request, name string) (*time.Time, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return nil, apperror.NewWithField(apperror.CodeInvalidArgument, name+" must be an RFC 3339 timestamp", name)
	}
	return &t, nil
}

func decodeJSON(r *http.Request, v any) error {
	if err := strictJSON.NewDecoder(r.Body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return apperror.New(apperror.CodeInvalidArgument, "request body is empty")
		}
		return bodyError(err)
	}
	return nil
}

// bodyError отличает превышение лимита тела от ошибок разбора
func bodyError(err error) error {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return apperror.Newf(apperror.CodeProblemTooLarge, "request body exceeds %d bytes", maxErr.Limit)
	}
	if apperror.Code(err) != apperror.CodeInternal {
		return err
	}
	return apperror.Wrap(err, apperror.CodeParseError, "malformed request body: "+err.Error())
}

// ErrorResponse тело ответа с ошибкой
type ErrorResponse struct {
	Code      apperror.ErrorCode `json:"code"`
	Message   string             `json:"message"`
	Field     string             `json:"field,omitempty"`
	Details   map[string]any     `json:"details,omitempty"`
	RequestID string             `json:"request_id,omitempty"`
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	appErr := apperror.From(err)
	status := appErr.HTTPStatus()

	l := logger.FromContext(r.Context())
	if status >= http.StatusInternalServerError {
		l.Error("Request failed", "path", r.URL.Path, "code", appErr.Code, "error", err)
	} else {
		l.Debug("Request rejected", "path", r.URL.Path, "code", appErr.Code, "error", err)
	}

	resp := &ErrorResponse{
		Code:      appErr.Code,
		Message:   appErr.Message,
		Field:     appErr.Field,
		RequestID: middleware.GetReqID(r.Context()),
	}
	if len(appErr.Details) > 0 {
		resp.Details = appErr.Details
	}

	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	if err := sonic.ConfigStd.NewEncoder(w).Encode(v); err != nil {
		logger.Log.Warn("Failed to encode response", "error", err)
	}
}
