package simplex

import (
	"math/big"

	"netsimplex/services/solver-svc/internal/graph"
)

// =============================================================================
// Solution
// =============================================================================

// Stats summarizes the work done by a solve.
type Stats struct {
	Rule             Rule `json:"rule"`
	Pivots           int  `json:"pivots"`
	DegeneratePivots int  `json:"degenerate_pivots"`
	Rounds           int  `json:"rounds"`
	Vertices         int  `json:"vertices"`
	Edges            int  `json:"edges"`
}

// Solution is the read-only outcome of a successful solve.
type Solution[F, C Integer] struct {
	edges     []graph.Edge[F, C]
	potential []C
	cost      C
	exact     big.Int
	stats     Stats
}

// extract checks that the artificial edges are empty and snapshots the real
// edges and vertices.
func extract[F, C Integer](t *network[F, C], stats Stats) (*Solution[F, C], error) {
	start := int(t.artificialStart())
	for id := start; id < t.g.EdgeCount(); id++ {
		if t.g.Edge(graph.EdgeID(id)).Flow != 0 {
			return nil, ErrInfeasible
		}
	}

	sol := &Solution[F, C]{
		edges:     make([]graph.Edge[F, C], start),
		potential: make([]C, t.vertices),
		stats:     stats,
	}
	var term, unit big.Int
	for id := 0; id < start; id++ {
		e := *t.g.Edge(graph.EdgeID(id))
		sol.edges[id] = e
		// Each unit moved is counted once: on whichever entry of the pair
		// carries positive flow.
		if e.Flow > 0 {
			sol.cost += C(e.Flow) * e.Cost
			term.SetInt64(int64(e.Flow))
			sol.exact.Add(&sol.exact, term.Mul(&term, unit.SetInt64(int64(e.Cost))))
		}
	}
	copy(sol.potential, t.potential[:t.vertices])

	return sol, nil
}

// TotalCost returns the sum of flow × cost over all edges. The sum wraps when
// it does not fit in C; use TotalCostFits or TotalCostBig for such problems.
func (s *Solution[F, C]) TotalCost() C {
	return s.cost
}

// TotalCostBig returns the exact sum of flow × cost over all edges.
func (s *Solution[F, C]) TotalCostBig() *big.Int {
	return new(big.Int).Set(&s.exact)
}

// TotalCostFits reports whether TotalCost is exact.
func (s *Solution[F, C]) TotalCostFits() bool {
	return s.exact.IsInt64() && int64(s.cost) == s.exact.Int64()
}

// Flow returns the flow on the edge returned by AddEdge. The reverse id of the
// same edge gives the same value: flow is always reported in the direction
// the edge was added.
func (s *Solution[F, C]) Flow(id EdgeID) F {
	return s.edges[id&^1].Flow
}

// Flows returns the flow of every edge in insertion order.
func (s *Solution[F, C]) Flows() []F {
	flows := make([]F, len(s.edges)/2)
	for i := range flows {
		flows[i] = s.edges[2*i].Flow
	}
	return flows
}

// Potential returns the dual value of v. Potentials are unique only up to an
// additive constant per connected component.
func (s *Solution[F, C]) Potential(v int) C {
	return s.potential[v]
}

// Potentials returns the potential of every vertex.
func (s *Solution[F, C]) Potentials() []C {
	out := make([]C, len(s.potential))
	copy(out, s.potential)
	return out
}

// ReducedCost returns cost + potential[src] - potential[dst] for the edge.
// At optimality it is non-negative when the edge is below its upper bound and
// non-positive when it is above its lower bound.
func (s *Solution[F, C]) ReducedCost(id EdgeID) C {
	e := s.edges[id&^1]
	return e.Cost + s.potential[e.Src] - s.potential[e.Dst]
}

// Stats returns solve statistics.
func (s *Solution[F, C]) Stats() Stats {
	return s.stats
}
