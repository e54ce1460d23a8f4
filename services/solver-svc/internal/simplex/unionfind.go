package simplex

// unionFind is a disjoint-set forest with union by size and path halving,
// backed by caller-provided slices so that it can live in pooled buffers.
type unionFind struct {
	parent []int
	size   []int
}

func newUnionFind(parent, size []int) *unionFind {
	for i := range parent {
		parent[i] = i
		size[i] = 1
	}
	return &unionFind{parent: parent, size: size}
}

func (u *unionFind) find(x int) int {
	for u.parent[x] != x {
		u.parent[x] = u.parent[u.parent[x]]
		x = u.parent[x]
	}
	return x
}

// unite merges the sets of a and b and returns the representative of the result.
func (u *unionFind) unite(a, b int) int {
	a, b = u.find(a), u.find(b)
	if a == b {
		return a
	}
	if u.size[a] < u.size[b] {
		a, b = b, a
	}
	u.parent[b] = a
	u.size[a] += u.size[b]
	return a
}
