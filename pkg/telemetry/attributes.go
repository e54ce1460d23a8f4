package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
)

// Стандартные ключи атрибутов
const (
	// Задача
	AttrProblemVertices = "problem.vertices"
	AttrProblemEdges    = "problem.edges"
	AttrProblemHash     = "problem.hash"

	// Решатель
	AttrRule        = "solver.rule"
	AttrPivots      = "solver.pivots"
	AttrDegenerate  = "solver.degenerate_pivots"
	AttrRounds      = "solver.rounds"
	AttrStatus      = "solver.status"
	AttrTotalCost   = "solver.total_cost"
	AttrCacheHit    = "solver.cache_hit"
	AttrRunID       = "solver.run_id"
	AttrVerifyError = "verify.errors"
)

// ProblemAttributes возвращает атрибуты задачи
func ProblemAttributes(vertices, edges int, hash string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Int(AttrProblemVertices, vertices),
		attribute.Int(AttrProblemEdges, edges),
		attribute.String(AttrProblemHash, hash),
	}
}

// SolveAttributes возвращает атрибуты завершённого решения
func SolveAttributes(rule, status string, pivots, degenerate, rounds int, cost int64) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrRule, rule),
		attribute.String(AttrStatus, status),
		attribute.Int(AttrPivots, pivots),
		attribute.Int(AttrDegenerate, degenerate),
		attribute.Int(AttrRounds, rounds),
		attribute.Int64(AttrTotalCost, cost),
	}
}
