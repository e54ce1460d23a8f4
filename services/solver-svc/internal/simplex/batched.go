package simplex

import (
	"slices"

	"netsimplex/services/solver-svc/internal/graph"
)

// =============================================================================
// Batched DFS/LCA Rule
// =============================================================================

// batchedDFS prices every edge once per round.
//
// A single depth-first traversal of the current tree computes, for every
// edge pair, the depth of its endpoints' lowest common ancestor: when a vertex
// closes, each edge to an already closed vertex w has its LCA at the top of w's
// union-find component, because closed subtrees are merged into their parent as
// they finish. Edges are bucketed by that depth and the buckets are processed
// from deepest to shallowest, pivoting on every edge that still prices out
// negative. Cycles of edges in deep buckets stay inside small subtrees, so
// pivots on them rarely disturb each other; reduced costs are recomputed
// right before each pivot, so a disturbed edge is simply skipped.
//
// Bucketing is a counting sort over pooled buffers: the traversal records each
// pair once together with its LCA depth, then the pairs are laid out deepest
// first, in traversal order within a depth.
type batchedDFS[F, C Integer] struct{}

func (r *batchedDFS[F, C]) prepare(*network[F, C]) {}

// traversal steps are encoded as v (pre-order) and ^v (post-order).

func (r *batchedDFS[F, C]) round(t *network[F, C]) bool {
	g := t.g
	n := t.root + 1

	buffers := graph.NewBuffersWithPool(t.pool)
	defer buffers.Release()

	uf := newUnionFind(buffers.Ints(n), buffers.Ints(n))
	topDepth := buffers.Ints(n)
	closed := buffers.Bools(n)
	lcaDepth := buffers.Ints(g.EdgeCount() / 2)
	foundBuf := buffers.EdgeIDs()
	found := *foundBuf

	stack := append(t.stack[:0], t.root)
	depth := 0
	for len(stack) > 0 {
		step := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if step >= 0 {
			v := step
			depth++
			stack = append(stack, ^v)
			for _, id := range t.treeEdges[v] {
				if id != t.parentEdge[v] {
					stack = append(stack, g.Edge(id).Dst)
				}
			}
			continue
		}

		v := ^step
		depth--
		for _, id := range g.Adjacent(v) {
			e := g.Edge(id)
			switch {
			case closed[e.Dst]:
				lcaDepth[id>>1] = topDepth[uf.find(e.Dst)]
				found = append(found, id)
			case e.Dst == v && id.IsForward():
				lcaDepth[id>>1] = depth
				found = append(found, id)
			}
		}
		if p := t.parent[v]; p != noVertex {
			topDepth[uf.unite(p, v)] = depth - 1
		}
		closed[v] = true
	}
	t.stack = stack
	*foundBuf = found

	if debugInvariants && len(found) != g.EdgeCount()/2 {
		panic("simplex: batched traversal missed edges")
	}

	// Depth d sorts under key n-1-d so the deepest bucket comes first.
	offset := buffers.Ints(n + 1)
	for _, id := range found {
		offset[n-lcaDepth[id>>1]]++
	}
	for k := 1; k <= n; k++ {
		offset[k] += offset[k-1]
	}
	orderBuf := buffers.EdgeIDs()
	order := slices.Grow(*orderBuf, len(found))[:len(found)]
	*orderBuf = order
	for _, id := range found {
		k := n - 1 - lcaDepth[id>>1]
		order[offset[k]] = id
		offset[k]++
	}

	pivoted := false
	for _, id := range order {
		rc := t.reducedCost(id)
		if rc > 0 {
			id, rc = id.Reverse(), -rc
		}
		if rc == 0 || g.Edge(id).Saturated() {
			continue
		}
		if !t.allow() {
			return false
		}
		t.pivot(id)
		pivoted = true
	}
	return pivoted
}
