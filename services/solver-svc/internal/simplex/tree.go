package simplex

import (
	"fmt"

	"netsimplex/services/solver-svc/internal/graph"
)

// =============================================================================
// Spanning Tree State
// =============================================================================

// noVertex marks the missing parent of the root.
const noVertex = -1

// noEdge marks the missing parent edge of the root and edges outside the tree.
const noEdge graph.EdgeID = -1

// network is the working state of a single solve: the residual graph plus the
// spanning tree that represents the current basic feasible solution.
//
// Per vertex it keeps:
//   - potential: for every tree edge p→c, potential[c] = potential[p] + cost(p→c)
//   - parent / parentEdge: the parent vertex and the entry leading from the
//     vertex to it (so parentEdge[v] has Src == v)
//   - depth: number of tree edges on the path to the root
//   - treeEdges: ids of tree entries whose Src is the vertex
//
// Every tree edge is present in the tree-edge sets in both directions, so each
// undirected tree edge appears once in treeEdges[u] and once in treeEdges[v].
type network[F, C graph.Integer] struct {
	g *graph.Residual[F, C]

	// vertices is the number of real vertices; the artificial root is vertices.
	vertices int
	root     int
	infinity C

	potential  []C
	parent     []int
	parentEdge []graph.EdgeID
	depth      []int
	treeEdges  [][]graph.EdgeID

	// treePos[id] is the index of id inside treeEdges[Src], or -1.
	treePos []int

	pool  *graph.BufferPool
	stack []int

	maxPivots  int
	limitHit   bool
	pivots     int
	degenerate int
	rounds     int
}

// reducedCost returns cost + potential[src] - potential[dst] for the entry id.
// It is zero for every tree edge and negative for entries whose use would lower
// the total cost.
func (t *network[F, C]) reducedCost(id graph.EdgeID) C {
	e := t.g.Edge(id)
	return e.Cost + t.potential[e.Src] - t.potential[e.Dst]
}

// inTree reports whether the entry id is currently a tree edge.
func (t *network[F, C]) inTree(id graph.EdgeID) bool {
	return t.treePos[id] >= 0
}

// treeInsert adds the entry id to the tree-edge set of its source vertex.
func (t *network[F, C]) treeInsert(id graph.EdgeID) {
	if debugInvariants && t.inTree(id) {
		panic(fmt.Sprintf("simplex: edge %d is already a tree edge", id))
	}
	src := t.g.Edge(id).Src
	t.treePos[id] = len(t.treeEdges[src])
	t.treeEdges[src] = append(t.treeEdges[src], id)
}

// treeRemove drops the entry id from the tree-edge set of its source vertex.
func (t *network[F, C]) treeRemove(id graph.EdgeID) {
	pos := t.treePos[id]
	if pos < 0 {
		if debugInvariants {
			panic(fmt.Sprintf("simplex: edge %d is not a tree edge", id))
		}
		return
	}

	src := t.g.Edge(id).Src
	set := t.treeEdges[src]
	last := set[len(set)-1]
	set[pos] = last
	t.treePos[last] = pos
	t.treeEdges[src] = set[:len(set)-1]
	t.treePos[id] = -1
}

// attach makes parent the tree parent of child through the entry parent→child
// identified by down.
func (t *network[F, C]) attach(child, parent int, down graph.EdgeID) {
	t.parent[child] = parent
	t.parentEdge[child] = down.Reverse()
	t.depth[child] = t.depth[parent] + 1
	t.potential[child] = t.potential[parent] + t.g.Edge(down).Cost
}

// rebuild recomputes parent, parentEdge, depth and potential for every vertex
// below v. The fields of v itself must already be correct.
//
// The walk uses an explicit stack: trees can be as deep as the vertex count.
func (t *network[F, C]) rebuild(v int) {
	stack := append(t.stack[:0], v)
	for len(stack) > 0 {
		u := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		for _, id := range t.treeEdges[u] {
			if id == t.parentEdge[u] {
				continue
			}
			child := t.g.Edge(id).Dst
			t.attach(child, u, id)
			stack = append(stack, child)
		}
	}
	t.stack = stack
}

// checkTree verifies the tree invariants. It is only called when
// debugInvariants is set.
func (t *network[F, C]) checkTree() {
	count := 0
	for v, set := range t.treeEdges {
		for _, id := range set {
			count++
			if !t.inTree(id.Reverse()) {
				panic(fmt.Sprintf("simplex: tree edge %d at vertex %d has no partner", id, v))
			}
			if rc := t.reducedCost(id); rc != 0 {
				panic(fmt.Sprintf("simplex: tree edge %d has reduced cost %v", id, rc))
			}
		}
	}
	if count != 2*t.vertices {
		panic(fmt.Sprintf("simplex: %d tree entries for %d real vertices", count, t.vertices))
	}
}
