package converter

import (
	"errors"
	"math/big"

	"netsimplex/pkg/apperror"
	"netsimplex/services/solver-svc/internal/simplex"
)

// Status итог решения
type Status string

const (
	StatusOptimal    Status = "optimal"
	StatusInfeasible Status = "infeasible"
	StatusPivotLimit Status = "pivot_limit"
)

// Result решение задачи в форме для API и хранения.
// Flows и Potentials заполнены только для StatusOptimal.
type Result struct {
	Status    Status `json:"status"`
	TotalCost int64  `json:"total_cost"`
	// ExactCost задан, только если стоимость не помещается в int64.
	// TotalCost тогда равен нулю.
	ExactCost  *big.Int      `json:"exact_cost,omitempty"`
	Flows      []int64       `json:"flows,omitempty"`
	Potentials []int64       `json:"potentials,omitempty"`
	Stats      simplex.Stats `json:"stats"`
}

// Optimal сообщает, найден ли оптимальный поток
func (r *Result) Optimal() bool {
	return r.Status == StatusOptimal
}

// Cost возвращает точную итоговую стоимость
func (r *Result) Cost() *big.Int {
	if r.ExactCost != nil {
		return new(big.Int).Set(r.ExactCost)
	}
	return big.NewInt(r.TotalCost)
}

// FromSolution собирает Result из решения. ids - рёбра в порядке задачи.
func FromSolution(sol *simplex.Solution[int64, int64], ids []simplex.EdgeID) *Result {
	flows := make([]int64, len(ids))
	for i, id := range ids {
		flows[i] = sol.Flow(id)
	}
	res := &Result{
		Status:     StatusOptimal,
		Flows:      flows,
		Potentials: sol.Potentials(),
		Stats:      sol.Stats(),
	}
	if sol.TotalCostFits() {
		res.TotalCost = sol.TotalCost()
	} else {
		res.ExactCost = sol.TotalCostBig()
	}
	return res
}

// FromRunError переводит штатные исходы Run в Result. Для прочих ошибок
// возвращает nil.
func FromRunError(err error) *Result {
	switch {
	case errors.Is(err, simplex.ErrInfeasible):
		return &Result{Status: StatusInfeasible}
	case errors.Is(err, simplex.ErrPivotLimit):
		return &Result{Status: StatusPivotLimit}
	default:
		return nil
	}
}

// Solve строит решатель по задаче и запускает его
func Solve(p *Problem, opts *simplex.Options) (*Result, error) {
	s, ids := p.Build(opts)
	sol, err := s.Run()
	if err != nil {
		if res := FromRunError(err); res != nil {
			res.Stats = s.Stats()
			return res, nil
		}
		if errors.Is(err, simplex.ErrCostOverflow) {
			return nil, apperror.Wrap(err, apperror.CodeValueOutOfRange, "edge costs are too large")
		}
		return nil, err
	}
	return FromSolution(sol, ids), nil
}
