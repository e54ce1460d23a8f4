package simplex

import (
	"netsimplex/services/solver-svc/internal/graph"
)

// =============================================================================
// Feasibility Seeding
// =============================================================================

// seed builds the initial spanning tree.
//
// An artificial root is appended after the real vertices and every real vertex
// is linked to it by one artificial edge that already carries the vertex's
// whole balance:
//   - balance b < 0: root→v with capacity -b, saturated
//   - balance b ≥ 0: v→root with capacity b+1, carrying b
//
// The extra unit on non-negative vertices keeps a residual path to the root
// from every vertex, which makes the initial tree strongly feasible. Artificial
// edges cost one more than the sum of all real absolute costs, so no optimal
// solution keeps flow on them unless the balances cannot be met otherwise.
//
// seed returns ErrCostOverflow when that cost does not fit in C with room for
// the potentials built on top of it.
func (t *network[F, C]) seed() error {
	g := t.g
	n := g.VertexCount()

	inf, ok := infinityCost(g)
	if !ok {
		return ErrCostOverflow
	}
	t.vertices = n
	t.root = n
	t.infinity = inf

	artificial := make([]graph.EdgeID, n)
	for v := 0; v < n; v++ {
		b := g.Balance(v)
		var id graph.EdgeID
		if b < 0 {
			id = g.AddEdge(t.root, v, 0, -b, inf)
			g.Push(id, -b)
		} else {
			id = g.AddEdge(v, t.root, 0, b+1, inf)
			g.Push(id, b)
		}
		artificial[v] = id
	}
	// Makes the root a valid vertex even when there are no real vertices.
	g.Grow(t.root + 1)

	total := n + 1
	t.potential = make([]C, total)
	t.parent = make([]int, total)
	t.parentEdge = make([]graph.EdgeID, total)
	t.depth = make([]int, total)
	t.treeEdges = make([][]graph.EdgeID, total)
	t.treePos = make([]int, g.EdgeCount())
	for i := range t.treePos {
		t.treePos[i] = -1
	}

	for _, id := range artificial {
		t.treeInsert(id)
		t.treeInsert(id.Reverse())
	}

	t.parent[t.root] = noVertex
	t.parentEdge[t.root] = noEdge
	t.rebuild(t.root)

	if debugInvariants {
		t.checkTree()
	}
	return nil
}

// costHeadroom is how many times the artificial cost must fit in C. A tree
// path holds at most one artificial edge, so every potential is below 2×inf
// in magnitude and every reduced cost below 5×inf.
const costHeadroom = 8

// infinityCost returns one plus the sum of all absolute edge costs and
// whether costHeadroom times that value fits in C.
func infinityCost[F, C Integer](g *graph.Residual[F, C]) (C, bool) {
	var inf C = 1
	for i := 0; i < g.EdgeCount(); i++ {
		c := g.Edge(graph.EdgeID(i)).Cost
		switch {
		case c > 0:
			if inf+c < inf {
				return 0, false
			}
			inf += c
		case c < 0 && -c < 0:
			// The most negative value of C has no positive counterpart.
			return 0, false
		}
	}

	h := inf
	for k := 1; k < costHeadroom; k *= 2 {
		if h+h < h {
			return 0, false
		}
		h += h
	}
	return inf, true
}

// artificialStart returns the id of the first artificial entry.
func (t *network[F, C]) artificialStart() graph.EdgeID {
	return graph.EdgeID(t.g.EdgeCount() - 2*t.vertices)
}
