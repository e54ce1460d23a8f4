// Package simplex implements a minimum-cost flow solver based on the primal
// network simplex method.
//
// The solver keeps a spanning tree of the residual graph that represents the
// current basic feasible solution, together with vertex potentials that make
// every tree edge's reduced cost zero. Each pivot brings in an edge with
// negative reduced cost and residual capacity, pushes flow around the cycle it
// closes and drops a saturated edge from the tree. When no such edge remains
// the flow is optimal and the potentials are a matching dual solution.
//
// # Pivot Rules
//
// Two entering-edge strategies share the seeding, pivot and extraction code:
//   - RuleBlockSearch: candidate-list pricing in blocks of about sqrt(E) edges
//   - RuleBatchedDFS: one tree traversal per round, many pivots per round
//
// Both reach the same optimal cost. Flows and potentials may differ when the
// optimum is not unique.
//
// # Feasibility
//
// Balances do not need to sum to zero up front. An artificial root absorbs any
// mismatch; if the optimum still routes flow through it, Run reports
// ErrInfeasible.
//
// # Thread Safety
//
// A Solver is NOT thread-safe and is single-use. The algorithm is sequential;
// run independent solvers in separate goroutines for parallelism.
//
// # Example Usage
//
//	s := simplex.New[int64, int64]()
//	s.AddSupply(0, 1)
//	s.AddDemand(1, 1)
//	e := s.AddEdge(0, 1, 0, 2, 5)
//
//	sol, err := s.Run()
//	if errors.Is(err, simplex.ErrInfeasible) {
//	    return
//	}
//	fmt.Println(sol.TotalCost(), sol.Flow(e))
package simplex

import (
	"errors"
	"fmt"

	"netsimplex/services/solver-svc/internal/graph"
)

// Integer is the set of signed integer types accepted for flows and costs.
type Integer = graph.Integer

// EdgeID identifies an edge returned by AddEdge.
type EdgeID = graph.EdgeID

// =============================================================================
// Error Definitions
// =============================================================================

var (
	// ErrInfeasible indicates that no flow satisfies every balance and bound.
	ErrInfeasible = errors.New("problem is infeasible")

	// ErrPivotLimit indicates that the pivot budget ran out before optimality
	// was proven. No solution is returned in that case.
	ErrPivotLimit = errors.New("pivot limit reached")

	// ErrAlreadySolved indicates a second call to Run on the same solver.
	ErrAlreadySolved = errors.New("solver already ran")

	// ErrUnknownRule indicates an unsupported pivot rule name.
	ErrUnknownRule = errors.New("unknown pivot rule")

	// ErrCostOverflow indicates edge costs too large for the cost type to
	// hold the artificial edge cost and the potentials derived from it.
	ErrCostOverflow = errors.New("edge costs overflow the cost type")
)

// =============================================================================
// Options
// =============================================================================

// Options configures a Solver.
//
// Options can be chained using the builder pattern:
//
//	opts := DefaultOptions().
//	    WithRule(RuleBatchedDFS).
//	    WithMaxPivots(1_000_000)
type Options struct {
	// Rule selects the entering-edge strategy.
	// Default: RuleBlockSearch
	Rule Rule

	// MaxPivots caps the number of pivots. Zero or negative means unlimited.
	// Default: 0
	MaxPivots int

	// Pool provides scratch buffers for tree traversals.
	// If nil, the global pool is used.
	Pool *graph.BufferPool
}

// DefaultOptions returns the options used by New.
func DefaultOptions() *Options {
	return &Options{
		Rule: DefaultRule,
		Pool: graph.GetPool(),
	}
}

// WithRule sets the pivot rule and returns the options for chaining.
func (o *Options) WithRule(rule Rule) *Options {
	o.Rule = rule
	return o
}

// WithMaxPivots sets the pivot budget and returns the options for chaining.
func (o *Options) WithMaxPivots(n int) *Options {
	o.MaxPivots = n
	return o
}

// WithPool sets the buffer pool and returns the options for chaining.
func (o *Options) WithPool(pool *graph.BufferPool) *Options {
	o.Pool = pool
	return o
}

// =============================================================================
// Solver
// =============================================================================

// Solver collects a min-cost flow problem and solves it once.
//
// Vertices are dense indices starting at zero; the vertex count is one more
// than the largest index passed to AddEdge, AddSupply or AddDemand.
type Solver[F, C Integer] struct {
	g      *graph.Residual[F, C]
	opts   Options
	edges  int
	solved bool
	stats  Stats
}

// New creates an empty solver with default options.
func New[F, C Integer]() *Solver[F, C] {
	return NewWithOptions[F, C](nil)
}

// NewWithOptions creates an empty solver. nil options select the defaults.
func NewWithOptions[F, C Integer](opts *Options) *Solver[F, C] {
	if opts == nil {
		opts = DefaultOptions()
	}
	o := *opts
	if o.Pool == nil {
		o.Pool = graph.GetPool()
	}
	if GetRuleInfo(o.Rule) == nil {
		o.Rule = DefaultRule
	}
	return &Solver[F, C]{
		g:    graph.New[F, C](),
		opts: o,
	}
}

// AddEdge adds an edge from src to dst that must carry between lower and upper
// units of flow at the given unit cost.
//
// AddEdge panics if lower > upper, if a vertex is negative or if the solver
// already ran.
func (s *Solver[F, C]) AddEdge(src, dst int, lower, upper F, cost C) EdgeID {
	if s.solved {
		panic("simplex: AddEdge after Run")
	}
	s.edges++
	return s.g.AddEdge(src, dst, lower, upper, cost)
}

// AddSupply adds amount units of supply at v.
func (s *Solver[F, C]) AddSupply(v int, amount F) {
	s.g.AddSupply(v, amount)
}

// AddDemand adds amount units of demand at v.
func (s *Solver[F, C]) AddDemand(v int, amount F) {
	s.g.AddDemand(v, amount)
}

// VertexCount returns the number of vertices referenced so far.
func (s *Solver[F, C]) VertexCount() int {
	return s.g.VertexCount()
}

// EdgeCount returns the number of edges added so far.
func (s *Solver[F, C]) EdgeCount() int {
	return s.edges
}

// Run solves the problem.
//
// It returns ErrInfeasible when the balances cannot be met, ErrPivotLimit when
// the pivot budget ran out, ErrCostOverflow when the costs are too large for C
// and ErrAlreadySolved on a second call.
func (s *Solver[F, C]) Run() (*Solution[F, C], error) {
	if s.solved {
		return nil, ErrAlreadySolved
	}
	s.solved = true

	t := &network[F, C]{
		g:         s.g,
		pool:      s.opts.Pool,
		maxPivots: s.opts.MaxPivots,
	}
	if err := t.seed(); err != nil {
		return nil, err
	}

	rule := newPivotRule[F, C](s.opts.Rule)
	rule.prepare(t)
	for rule.round(t) {
		t.rounds++
	}

	s.stats = Stats{
		Rule:             s.opts.Rule,
		Pivots:           t.pivots,
		DegeneratePivots: t.degenerate,
		Rounds:           t.rounds,
		Vertices:         t.vertices,
		Edges:            s.edges,
	}
	if t.limitHit {
		return nil, fmt.Errorf("%w: %d pivots", ErrPivotLimit, t.pivots)
	}
	return extract(t, s.stats)
}

// Stats returns the statistics of the last Run, including runs that ended
// with ErrInfeasible or ErrPivotLimit. It is zero before Run.
func (s *Solver[F, C]) Stats() Stats {
	return s.stats
}
