package simplex

import (
	"math"

	"netsimplex/services/solver-svc/internal/graph"
)

// =============================================================================
// Block Search Rule
// =============================================================================

// blockSearch prices the entries in contiguous blocks starting at a rotating
// cursor. Within a block the most negative reduced cost wins, ties going to the
// lower id. The first block that contains any candidate ends the search.
type blockSearch[F, C Integer] struct {
	size   int
	cursor int
}

func (r *blockSearch[F, C]) prepare(t *network[F, C]) {
	edges := t.g.EdgeCount()
	r.size = min(int(math.Sqrt(float64(edges)))+10, edges)
	r.cursor = 0
}

func (r *blockSearch[F, C]) round(t *network[F, C]) bool {
	id, ok := r.next(t)
	if !ok || !t.allow() {
		return false
	}
	t.pivot(id)
	return true
}

// next returns the entering edge, or false once a full cycle over all entries
// found nothing to improve.
func (r *blockSearch[F, C]) next(t *network[F, C]) (graph.EdgeID, bool) {
	g := t.g
	edges := g.EdgeCount()
	if edges == 0 {
		return noEdge, false
	}

	i := r.cursor
	for scanned := 0; scanned < edges; {
		best := noEdge
		var bestCost C

		for end := min(scanned+r.size, edges); scanned < end; scanned++ {
			id := graph.EdgeID(i)
			if i++; i == edges {
				i = 0
			}
			if g.Edge(id).Saturated() {
				continue
			}
			rc := t.reducedCost(id)
			if rc >= 0 {
				continue
			}
			if best == noEdge || rc < bestCost || (rc == bestCost && id < best) {
				best, bestCost = id, rc
			}
		}

		if best != noEdge {
			r.cursor = (int(best) + 1) % edges
			return best, true
		}
	}
	return noEdge, false
}
