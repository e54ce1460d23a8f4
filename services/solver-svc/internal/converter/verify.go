package converter

import (
	"fmt"
	"math/big"

	"netsimplex/pkg/apperror"
)

// Verify проверяет поток и потенциалы на оптимальность: границы рёбер,
// сохранение потока в каждой вершине и дополняющую нежёсткость.
// Если totalCost не nil, сверяется и итоговая стоимость.
func Verify(p *Problem, flows, potentials []int64, totalCost *big.Int) *apperror.ValidationErrors {
	v := apperror.NewValidationErrors()

	if len(flows) != len(p.Edges) {
		v.Add(apperror.Newf(apperror.CodeInvalidArgument, "got %d flows for %d edges", len(flows), len(p.Edges)))
		return v
	}

	n := p.VertexCount()
	checkSlackness := potentials != nil
	if checkSlackness && len(potentials) < n {
		v.Add(apperror.Newf(apperror.CodeInvalidArgument, "got %d potentials for %d vertices", len(potentials), n))
		return v
	}

	net := make([]int64, n)
	var cost, term, unit big.Int
	for i, e := range p.Edges {
		field := fmt.Sprintf("edges[%d]", i)
		f := flows[i]

		if f < e.Lower || f > e.Upper {
			v.AddErrorWithField(apperror.CodeBoundViolation,
				fmt.Sprintf("flow %d outside [%d, %d]", f, e.Lower, e.Upper), field)
		}

		net[e.From] += f
		net[e.To] -= f
		cost.Add(&cost, term.Mul(term.SetInt64(f), unit.SetInt64(e.Cost)))

		if !checkSlackness {
			continue
		}
		rc := e.Cost + potentials[e.From] - potentials[e.To]
		if rc > 0 && f > e.Lower {
			v.AddErrorWithField(apperror.CodeSlacknessViolation,
				fmt.Sprintf("reduced cost %d > 0 but flow %d above lower bound %d", rc, f, e.Lower), field)
		}
		if rc < 0 && f < e.Upper {
			v.AddErrorWithField(apperror.CodeSlacknessViolation,
				fmt.Sprintf("reduced cost %d < 0 but flow %d below upper bound %d", rc, f, e.Upper), field)
		}
	}

	for u := 0; u < n; u++ {
		var b int64
		if u < len(p.Balances) {
			b = p.Balances[u]
		}
		if net[u] != b {
			v.AddErrorWithField(apperror.CodeConservationViolation,
				fmt.Sprintf("net outflow %d, balance %d", net[u], b), fmt.Sprintf("vertices[%d]", u))
		}
	}

	if totalCost != nil && totalCost.Cmp(&cost) != 0 {
		v.Add(apperror.Newf(apperror.CodeCostMismatch, "reported cost %s, recomputed %s", totalCost, &cost))
	}

	return v
}

// VerifyResult проверяет оптимальный Result против задачи
func VerifyResult(p *Problem, res *Result) *apperror.ValidationErrors {
	if !res.Optimal() {
		v := apperror.NewValidationErrors()
		v.AddWarning(apperror.CodeInvalidArgument, fmt.Sprintf("status %s has no flow to verify", res.Status))
		return v
	}
	return Verify(p, res.Flows, res.Potentials, res.Cost())
}
