package simplex

import (
	"netsimplex/services/solver-svc/internal/graph"
)

// =============================================================================
// Pivot Engine
// =============================================================================

// leavingSide records where on the cycle the leaving edge was found.
type leavingSide int

const (
	sideNone leavingSide = iota
	sideSrc
	sideEnter
	sideDst
)

// pivot brings the entry enter into the tree.
//
// The entering edge src→dst closes a cycle with the tree paths from src and dst
// up to their lowest common ancestor (the apex). Flow travels around the cycle
// as apex ⇝ src → dst ⇝ apex, so the src-side path is used downward and the
// dst-side path upward. The largest amount that fits everywhere is pushed.
//
// The leaving edge is the last saturated entry met when walking the cycle in
// flow direction from the apex. Choosing the last blocking entry keeps the tree
// strongly feasible (every vertex can still push flow to the root along its tree
// path), which rules out cycling through degenerate pivots.
//
// When the entering edge itself is the leaving edge the tree does not change.
// Otherwise the subtree cut off by the leaving edge is re-hung below the
// entering edge and only that subtree's labels are recomputed.
func (t *network[F, C]) pivot(enter graph.EdgeID) {
	g := t.g
	e := g.Edge(enter)
	src, dst := e.Src, e.Dst

	// Walk up in lock-step to the apex and find the bottleneck.
	f := e.Residual()
	a, b := src, dst
	for a != b {
		if t.depth[a] > t.depth[b] {
			f = min(f, g.ResidualCapacity(t.parentEdge[a].Reverse()))
			a = t.parent[a]
		} else {
			f = min(f, g.ResidualCapacity(t.parentEdge[b]))
			b = t.parent[b]
		}
	}
	apex := a

	t.pivots++
	if f == 0 {
		t.degenerate++
	}

	// In flow order the src side comes first, walked here from src upward, so
	// the entry closest to src is the last one on it: keep the first hit.
	leaving, side := noEdge, sideNone
	for v := src; v != apex; v = t.parent[v] {
		down := t.parentEdge[v].Reverse()
		if g.Push(down, f) && side == sideNone {
			leaving, side = down, sideSrc
		}
	}
	if g.Push(enter, f) {
		leaving, side = enter, sideEnter
	}
	// The dst side is walked in flow order, so every later hit wins.
	for v := dst; v != apex; v = t.parent[v] {
		up := t.parentEdge[v]
		if g.Push(up, f) {
			leaving, side = up, sideDst
		}
	}

	if side == sideEnter {
		return
	}

	t.treeInsert(enter)
	t.treeInsert(enter.Reverse())
	t.treeRemove(leaving)
	t.treeRemove(leaving.Reverse())

	switch side {
	case sideSrc:
		// src lost its path to the root; it now hangs below dst.
		t.attach(src, dst, enter.Reverse())
		t.rebuild(src)
	case sideDst:
		t.attach(dst, src, enter)
		t.rebuild(dst)
	}

	if debugInvariants {
		t.checkTree()
	}
}

// allow reports whether another pivot fits into the pivot budget. Once the
// budget is exhausted it records the fact so the solve can be reported as
// unfinished.
func (t *network[F, C]) allow() bool {
	if t.maxPivots > 0 && t.pivots >= t.maxPivots {
		t.limitHit = true
		return false
	}
	return true
}
