package simplex

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUnionFind(t *testing.T) {
	uf := newUnionFind(make([]int, 6), make([]int, 6))

	for i := 0; i < 6; i++ {
		assert.Equal(t, i, uf.find(i))
	}

	r := uf.unite(0, 1)
	assert.Contains(t, []int{0, 1}, r)
	assert.Equal(t, uf.find(0), uf.find(1))

	r = uf.unite(2, 3)
	r = uf.unite(r, 1)
	assert.Equal(t, r, uf.find(3))
	assert.Equal(t, 4, uf.size[r])

	assert.Equal(t, r, uf.unite(0, 3), "uniting members of one set returns its root")
	assert.NotEqual(t, uf.find(4), uf.find(0))
	assert.Equal(t, 5, uf.find(5))
}
