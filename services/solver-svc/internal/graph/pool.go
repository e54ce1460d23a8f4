package graph

import (
	"sync"
)

// =============================================================================
// Buffer Pool
// =============================================================================

// BufferPool provides memory pooling for the scratch slices that tree
// traversals allocate on every call.
//
// The batched entering-edge selector walks the whole spanning tree once per
// round and needs several vertex-sized slices each time. On large instances
// this happens thousands of times per solve, so the slices are recycled
// through sync.Pool instead of being reallocated.
//
// The pool is safe for concurrent use from multiple goroutines.
//
// # Usage
//
//	pool := graph.GetPool()
//	depth := pool.AcquireInts(n)
//	defer pool.ReleaseInts(depth)
//
// For several buffers at once:
//
//	buffers := graph.NewBuffers()
//	defer buffers.Release()
//	parent := buffers.Ints(n)
//	closed := buffers.Bools(n)
type BufferPool struct {
	ints    sync.Pool
	bools   sync.Pool
	edgeIDs sync.Pool
}

// globalPool is the singleton pool instance.
var globalPool = NewBufferPool()

// NewBufferPool creates an isolated pool.
func NewBufferPool() *BufferPool {
	return &BufferPool{
		ints: sync.Pool{
			New: func() any {
				s := make([]int, 0, 128)
				return &s
			},
		},
		bools: sync.Pool{
			New: func() any {
				s := make([]bool, 0, 128)
				return &s
			},
		},
		edgeIDs: sync.Pool{
			New: func() any {
				s := make([]EdgeID, 0, 128)
				return &s
			},
		},
	}
}

// GetPool returns the global buffer pool.
func GetPool() *BufferPool {
	return globalPool
}

// AcquireInts obtains a zeroed []int of length n.
// Call ReleaseInts when done.
func (p *BufferPool) AcquireInts(n int) *[]int {
	s := p.ints.Get().(*[]int)
	*s = resize(*s, n)
	return s
}

// ReleaseInts returns a slice to the pool. It is safe to pass nil.
func (p *BufferPool) ReleaseInts(s *[]int) {
	if s == nil {
		return
	}
	*s = (*s)[:0]
	p.ints.Put(s)
}

// AcquireBools obtains a []bool of length n with every element false.
func (p *BufferPool) AcquireBools(n int) *[]bool {
	s := p.bools.Get().(*[]bool)
	*s = resize(*s, n)
	return s
}

// ReleaseBools returns a slice to the pool. It is safe to pass nil.
func (p *BufferPool) ReleaseBools(s *[]bool) {
	if s == nil {
		return
	}
	*s = (*s)[:0]
	p.bools.Put(s)
}

// AcquireEdgeIDs obtains an empty []EdgeID, typically used as a stack.
func (p *BufferPool) AcquireEdgeIDs() *[]EdgeID {
	return p.edgeIDs.Get().(*[]EdgeID)
}

// ReleaseEdgeIDs returns a slice to the pool. It is safe to pass nil.
func (p *BufferPool) ReleaseEdgeIDs(s *[]EdgeID) {
	if s == nil {
		return
	}
	*s = (*s)[:0]
	p.edgeIDs.Put(s)
}

// resize returns s with length n and all elements zeroed, reusing its backing
// array when large enough.
func resize[T any](s []T, n int) []T {
	if cap(s) < n {
		return make([]T, n)
	}
	s = s[:n]
	clear(s)
	return s
}

// =============================================================================
// Buffers
// =============================================================================

// Buffers tracks pooled slices acquired for a single traversal so that they
// can be released together.
//
// Buffers is NOT thread-safe. Each goroutine should have its own instance.
type Buffers struct {
	pool    *BufferPool
	ints    []*[]int
	bools   []*[]bool
	edgeIDs []*[]EdgeID
}

// NewBuffers creates a tracker backed by the global pool.
func NewBuffers() *Buffers {
	return NewBuffersWithPool(globalPool)
}

// NewBuffersWithPool creates a tracker backed by pool, or by the global pool
// when pool is nil.
func NewBuffersWithPool(pool *BufferPool) *Buffers {
	if pool == nil {
		pool = globalPool
	}
	return &Buffers{pool: pool}
}

// Ints acquires a zeroed []int of length n and tracks it for release.
func (b *Buffers) Ints(n int) []int {
	s := b.pool.AcquireInts(n)
	b.ints = append(b.ints, s)
	return *s
}

// Bools acquires a []bool of length n and tracks it for release.
func (b *Buffers) Bools(n int) []bool {
	s := b.pool.AcquireBools(n)
	b.bools = append(b.bools, s)
	return *s
}

// EdgeIDs acquires an empty []EdgeID and tracks it for release.
//
// Because appending may move the slice, the returned pointer must be used for
// every append so that the grown backing array is what goes back to the pool.
func (b *Buffers) EdgeIDs() *[]EdgeID {
	s := b.pool.AcquireEdgeIDs()
	b.edgeIDs = append(b.edgeIDs, s)
	return s
}

// Release returns all tracked slices to the pool. It is safe to call Release
// more than once.
func (b *Buffers) Release() {
	for _, s := range b.ints {
		b.pool.ReleaseInts(s)
	}
	for _, s := range b.bools {
		b.pool.ReleaseBools(s)
	}
	for _, s := range b.edgeIDs {
		b.pool.ReleaseEdgeIDs(s)
	}
	b.ints = b.ints[:0]
	b.bools = b.bools[:0]
	b.edgeIDs = b.edgeIDs[:0]
}
