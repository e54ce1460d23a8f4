// Package graph provides the arena-indexed residual graph used by the network
// simplex solver.
package graph

import "fmt"

// =============================================================================
// Numeric Types
// =============================================================================

// Integer is the set of signed integer types accepted for flows and costs.
//
// All arithmetic in the solver is exact. Callers choose a width large enough
// to hold cost×flow products and the artificial "infinity" cost (one plus the
// sum of all absolute edge costs).
type Integer interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64
}

// =============================================================================
// Edge Identifiers
// =============================================================================

// EdgeID identifies a stored edge.
//
// Edges are stored in pairs: the forward edge returned by AddEdge lives at an
// even index and its reverse counterpart at the adjacent odd index, so the
// partner of any edge is always id ^ 1.
type EdgeID int

// Reverse returns the paired edge.
func (id EdgeID) Reverse() EdgeID {
	return id ^ 1
}

// IsForward reports whether id refers to the edge inserted by AddEdge rather
// than its reverse counterpart.
func (id EdgeID) IsForward() bool {
	return id&1 == 0
}

// =============================================================================
// Residual Edge
// =============================================================================

// Edge is a single directed entry of the residual graph.
//
// For an input edge (u, v) with bounds [lower, upper] and cost w, the pair is
// stored as:
//   - Forward (u, v): Flow = lower, Capacity = upper, Cost = w
//   - Reverse (v, u): Flow = -lower, Capacity = -lower, Cost = -w
//
// Pushing f units along either entry adds f to its Flow and subtracts f from
// the partner's Flow. The residual capacity of an entry is Capacity - Flow, so
// the reverse entry can give back exactly the flow that was pushed above the
// lower bound.
type Edge[F, C Integer] struct {
	// Src is the tail vertex.
	Src int

	// Dst is the head vertex.
	Dst int

	// Flow is the current flow on this entry.
	Flow F

	// Capacity is the upper bound on Flow.
	Capacity F

	// Cost is the cost per unit of flow.
	Cost C
}

// Residual returns the remaining capacity on this entry.
func (e *Edge[F, C]) Residual() F {
	return e.Capacity - e.Flow
}

// Saturated reports whether no more flow can be pushed along this entry.
func (e *Edge[F, C]) Saturated() bool {
	return e.Flow == e.Capacity
}

// =============================================================================
// Residual Graph
// =============================================================================

// Residual is an arena-indexed residual graph with per-vertex balances.
//
// Vertices are dense integers starting at zero. The vertex set grows on demand:
// referencing a vertex through AddEdge, AddSupply or AddDemand makes every
// smaller index valid too.
//
// # Thread Safety
//
// Residual is NOT thread-safe. A solver owns its graph exclusively.
type Residual[F, C Integer] struct {
	edges     []Edge[F, C]
	adjacency [][]EdgeID
	balance   []F
}

// New creates an empty residual graph.
func New[F, C Integer]() *Residual[F, C] {
	return &Residual[F, C]{}
}

// NewWithCapacity creates an empty residual graph with room for the given
// number of vertices and input edges.
func NewWithCapacity[F, C Integer](vertices, edges int) *Residual[F, C] {
	return &Residual[F, C]{
		edges:     make([]Edge[F, C], 0, 2*edges),
		adjacency: make([][]EdgeID, 0, vertices),
		balance:   make([]F, 0, vertices),
	}
}

// Grow makes every vertex index below n valid.
func (g *Residual[F, C]) Grow(n int) {
	for len(g.balance) < n {
		g.balance = append(g.balance, 0)
		g.adjacency = append(g.adjacency, nil)
	}
}

// AddEdge inserts an edge from src to dst carrying between lower and upper
// units of flow at the given unit cost, and returns the id of its forward entry.
//
// The lower bound is satisfied immediately: the forward entry starts with
// Flow = lower, and the vertex balances are shifted so that src owes lower
// units and dst receives them.
//
// AddEdge panics if lower > upper or if a vertex index is negative.
func (g *Residual[F, C]) AddEdge(src, dst int, lower, upper F, cost C) EdgeID {
	if lower > upper {
		panic(fmt.Sprintf("graph: edge %d->%d has lower bound %v above upper bound %v", src, dst, lower, upper))
	}
	if src < 0 || dst < 0 {
		panic(fmt.Sprintf("graph: negative vertex in edge %d->%d", src, dst))
	}

	g.Grow(max(src, dst) + 1)

	id := EdgeID(len(g.edges))
	g.edges = append(g.edges,
		Edge[F, C]{Src: src, Dst: dst, Flow: lower, Capacity: upper, Cost: cost},
		Edge[F, C]{Src: dst, Dst: src, Flow: -lower, Capacity: -lower, Cost: -cost},
	)
	g.adjacency[src] = append(g.adjacency[src], id)
	g.adjacency[dst] = append(g.adjacency[dst], id.Reverse())

	if lower != 0 {
		g.AddDemand(src, lower)
		g.AddSupply(dst, lower)
	}

	return id
}

// AddSupply adds amount to the balance of v. Negative amounts are demands.
func (g *Residual[F, C]) AddSupply(v int, amount F) {
	if v < 0 {
		panic(fmt.Sprintf("graph: negative vertex %d", v))
	}
	g.Grow(v + 1)
	g.balance[v] += amount
}

// AddDemand subtracts amount from the balance of v.
func (g *Residual[F, C]) AddDemand(v int, amount F) {
	g.AddSupply(v, -amount)
}

// =============================================================================
// Queries
// =============================================================================

// VertexCount returns the number of vertices referenced so far.
func (g *Residual[F, C]) VertexCount() int {
	return len(g.balance)
}

// EdgeCount returns the number of stored entries (twice the number of AddEdge calls).
func (g *Residual[F, C]) EdgeCount() int {
	return len(g.edges)
}

// Edge returns the entry with the given id. The pointer stays valid until the
// next AddEdge call.
func (g *Residual[F, C]) Edge(id EdgeID) *Edge[F, C] {
	return &g.edges[id]
}

// Balance returns the net supply of v, including lower-bound shifts.
func (g *Residual[F, C]) Balance(v int) F {
	return g.balance[v]
}

// Adjacent returns the ids of all entries leaving v, forward and reverse.
func (g *Residual[F, C]) Adjacent(v int) []EdgeID {
	return g.adjacency[v]
}

// ResidualCapacity returns Capacity - Flow for the entry id.
func (g *Residual[F, C]) ResidualCapacity(id EdgeID) F {
	return g.edges[id].Residual()
}

// =============================================================================
// Flow Updates
// =============================================================================

// Push sends amount units along id and takes them back from its partner.
// It reports whether id became saturated.
func (g *Residual[F, C]) Push(id EdgeID, amount F) bool {
	g.edges[id.Reverse()].Flow -= amount
	e := &g.edges[id]
	e.Flow += amount
	return e.Flow == e.Capacity
}
