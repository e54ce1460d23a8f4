package simplex

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Helpers
// =============================================================================

type testEdge struct {
	src, dst     int
	lower, upper int64
	cost         int64
}

type testProblem struct {
	balances []int64
	edges    []testEdge
}

func buildSolver(p testProblem, opts *Options) (*Solver[int64, int64], []EdgeID) {
	s := NewWithOptions[int64, int64](opts)
	for v, b := range p.balances {
		s.AddSupply(v, b)
	}
	ids := make([]EdgeID, len(p.edges))
	for i, e := range p.edges {
		ids[i] = s.AddEdge(e.src, e.dst, e.lower, e.upper, e.cost)
	}
	return s, ids
}

func solve(t *testing.T, p testProblem, rule Rule) (*Solution[int64, int64], []EdgeID, error) {
	t.Helper()
	s, ids := buildSolver(p, DefaultOptions().WithRule(rule))
	sol, err := s.Run()
	return sol, ids, err
}

func normalized(potentials []int64) []int64 {
	out := make([]int64, len(potentials))
	for i, p := range potentials {
		out[i] = p - potentials[0]
	}
	return out
}

// assertOptimal checks conservation, bounds and complementary slackness.
func assertOptimal(t *testing.T, p testProblem, sol *Solution[int64, int64], ids []EdgeID) {
	t.Helper()

	net := make([]int64, len(p.balances))
	var cost int64
	for i, e := range p.edges {
		f := sol.Flow(ids[i])
		require.GreaterOrEqual(t, f, e.lower, "edge %d below lower bound", i)
		require.LessOrEqual(t, f, e.upper, "edge %d above upper bound", i)

		net[e.src] += f
		net[e.dst] -= f
		cost += f * e.cost

		rc := e.cost + sol.Potential(e.src) - sol.Potential(e.dst)
		if f < e.upper {
			assert.GreaterOrEqual(t, rc, int64(0), "edge %d can still be increased profitably", i)
		}
		if f > e.lower {
			assert.LessOrEqual(t, rc, int64(0), "edge %d can still be decreased profitably", i)
		}
		assert.Equal(t, rc, sol.ReducedCost(ids[i]))
	}

	for v, b := range p.balances {
		assert.Equal(t, b, net[v], "flow conservation at vertex %d", v)
	}
	assert.Equal(t, cost, sol.TotalCost())
}

var exampleProblem = testProblem{
	balances: []int64{1, -1, 0},
	edges: []testEdge{
		{0, 1, 1, 2, 1},
		{1, 2, 0, 2, 2},
		{2, 0, -3, 5, 1},
		{0, 2, 0, 3, -2},
		{2, 1, 0, 1, 0},
	},
}

// =============================================================================
// Known Instances
// =============================================================================

func TestSolver_KnownInstances(t *testing.T) {
	tests := []struct {
		name           string
		problem        testProblem
		wantCost       int64
		wantFlows      []int64
		wantPotentials []int64 // normalized so that vertex 0 is zero; nil skips the check
	}{
		{
			name:           "lower bounds and negative costs",
			problem:        exampleProblem,
			wantCost:       -2,
			wantFlows:      []int64{1, 0, 3, 3, 0},
			wantPotentials: []int64{0, -1, -1},
		},
		{
			name: "transportation",
			problem: testProblem{
				balances: []int64{5, 3, -4, -4},
				edges: []testEdge{
					{0, 2, 0, 10, 4},
					{0, 3, 0, 10, 6},
					{1, 2, 0, 10, 5},
					{1, 3, 0, 10, 3},
				},
			},
			wantCost:  31,
			wantFlows: []int64{4, 1, 0, 3},
		},
		{
			name: "negative cycle is saturated",
			problem: testProblem{
				balances: []int64{0, 0, 0},
				edges: []testEdge{
					{0, 1, 0, 4, -1},
					{1, 2, 0, 3, -1},
					{2, 0, 0, 5, -1},
				},
			},
			wantCost:  -9,
			wantFlows: []int64{3, 3, 3},
		},
		{
			name: "parallel edges fill cheapest first",
			problem: testProblem{
				balances: []int64{2, -2},
				edges: []testEdge{
					{0, 1, 0, 1, 1},
					{0, 1, 0, 1, 3},
					{0, 1, 0, 5, 7},
				},
			},
			wantCost:  4,
			wantFlows: []int64{1, 1, 0},
		},
		{
			name: "negative self loop",
			problem: testProblem{
				balances: []int64{0},
				edges:    []testEdge{{0, 0, 0, 3, -2}},
			},
			wantCost:  -6,
			wantFlows: []int64{3},
		},
		{
			name:      "empty problem",
			problem:   testProblem{},
			wantCost:  0,
			wantFlows: []int64{},
		},
	}

	for _, rule := range Rules() {
		for _, tt := range tests {
			t.Run(fmt.Sprintf("%s/%s", rule, tt.name), func(t *testing.T) {
				sol, ids, err := solve(t, tt.problem, rule)
				require.NoError(t, err)
				require.NotNil(t, sol)

				assert.Equal(t, tt.wantCost, sol.TotalCost())
				assert.Equal(t, tt.wantFlows, sol.Flows())
				for i, id := range ids {
					assert.Equal(t, tt.wantFlows[i], sol.Flow(id))
				}
				if tt.wantPotentials != nil {
					assert.Equal(t, tt.wantPotentials, normalized(sol.Potentials()))
				}
				assertOptimal(t, tt.problem, sol, ids)
				assert.Equal(t, rule, sol.Stats().Rule)
			})
		}
	}
}

func TestSolver_Infeasible(t *testing.T) {
	tests := []struct {
		name    string
		problem testProblem
	}{
		{
			name: "demand exceeds capacity",
			problem: testProblem{
				balances: []int64{0, -2},
				edges:    []testEdge{{0, 1, 0, 1, 0}},
			},
		},
		{
			name: "unbalanced supply",
			problem: testProblem{
				balances: []int64{3, -1},
				edges:    []testEdge{{0, 1, 0, 10, 1}},
			},
		},
		{
			name: "lower bound cannot be routed back",
			problem: testProblem{
				balances: []int64{0, 0},
				edges:    []testEdge{{0, 1, 2, 4, 1}},
			},
		},
	}

	for _, rule := range Rules() {
		for _, tt := range tests {
			t.Run(fmt.Sprintf("%s/%s", rule, tt.name), func(t *testing.T) {
				sol, _, err := solve(t, tt.problem, rule)
				assert.ErrorIs(t, err, ErrInfeasible)
				assert.Nil(t, sol)
			})
		}
	}
}

// =============================================================================
// Lifecycle
// =============================================================================

func TestSolver_SingleUse(t *testing.T) {
	s, _ := buildSolver(exampleProblem, nil)

	_, err := s.Run()
	require.NoError(t, err)

	_, err = s.Run()
	assert.ErrorIs(t, err, ErrAlreadySolved)

	assert.Panics(t, func() {
		s.AddEdge(0, 1, 0, 1, 1)
	})
}

func TestSolver_AddEdgePanicsOnInvertedBounds(t *testing.T) {
	s := New[int64, int64]()
	assert.Panics(t, func() {
		s.AddEdge(0, 1, 2, 1, 0)
	})
}

func TestSolver_Counts(t *testing.T) {
	s, _ := buildSolver(exampleProblem, nil)

	assert.Equal(t, 3, s.VertexCount())
	assert.Equal(t, 5, s.EdgeCount())

	sol, err := s.Run()
	require.NoError(t, err)
	stats := sol.Stats()
	assert.Equal(t, 3, stats.Vertices)
	assert.Equal(t, 5, stats.Edges)
	assert.Positive(t, stats.Pivots)
	assert.LessOrEqual(t, stats.DegeneratePivots, stats.Pivots)
}

func TestSolver_PivotLimit(t *testing.T) {
	for _, rule := range Rules() {
		t.Run(string(rule), func(t *testing.T) {
			s, _ := buildSolver(exampleProblem, DefaultOptions().WithRule(rule).WithMaxPivots(1))

			sol, err := s.Run()
			assert.ErrorIs(t, err, ErrPivotLimit)
			assert.Nil(t, sol)
			assert.Equal(t, 1, s.Stats().Pivots)
			assert.Equal(t, rule, s.Stats().Rule)
		})
	}
}

func TestSolver_PivotLimitNotReached(t *testing.T) {
	s, _ := buildSolver(exampleProblem, DefaultOptions().WithMaxPivots(1000))

	sol, err := s.Run()
	require.NoError(t, err)
	assert.Equal(t, int64(-2), sol.TotalCost())
}

func TestSolver_UnknownRuleFallsBack(t *testing.T) {
	s, _ := buildSolver(exampleProblem, &Options{Rule: "steepest"})

	sol, err := s.Run()
	require.NoError(t, err)
	assert.Equal(t, RuleBlockSearch, sol.Stats().Rule)
}

func TestSolver_NarrowTypes(t *testing.T) {
	s := New[int32, int16]()
	s.AddSupply(0, 2)
	s.AddDemand(2, 2)
	a := s.AddEdge(0, 1, 0, 2, 3)
	b := s.AddEdge(1, 2, 0, 2, 4)
	c := s.AddEdge(0, 2, 0, 1, 5)

	sol, err := s.Run()
	require.NoError(t, err)
	assert.Equal(t, int16(12), sol.TotalCost())
	assert.Equal(t, int32(1), sol.Flow(a))
	assert.Equal(t, int32(1), sol.Flow(b))
	assert.Equal(t, int32(1), sol.Flow(c))
}

func TestSolver_CostOverflow(t *testing.T) {
	tests := []struct {
		name  string
		build func() error
	}{
		{
			name: "artificial cost exceeds int64",
			build: func() error {
				s := New[int64, int64]()
				s.AddSupply(0, 1)
				s.AddDemand(1, 1)
				s.AddEdge(0, 1, 0, 1, 5e18)
				s.AddEdge(1, 0, 0, 1, 5e18)
				_, err := s.Run()
				return err
			},
		},
		{
			name: "no headroom for potentials",
			build: func() error {
				s := New[int64, int64]()
				s.AddEdge(0, 1, 0, 1, math.MaxInt64/4)
				_, err := s.Run()
				return err
			},
		},
		{
			name: "most negative cost",
			build: func() error {
				s := New[int64, int64]()
				s.AddEdge(0, 1, 0, 1, math.MinInt64)
				_, err := s.Run()
				return err
			},
		},
		{
			name: "narrow cost type",
			build: func() error {
				s := New[int32, int16]()
				s.AddSupply(0, 1)
				s.AddDemand(1, 1)
				s.AddEdge(0, 1, 0, 1, 5000)
				_, err := s.Run()
				return err
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.build(), ErrCostOverflow)
		})
	}
}

func TestSolver_TotalCostBeyondCostType(t *testing.T) {
	for _, rule := range Rules() {
		t.Run(string(rule), func(t *testing.T) {
			s := NewWithOptions[int64, int64](DefaultOptions().WithRule(rule))
			s.AddSupply(0, 1e12)
			s.AddDemand(1, 1e12)
			e := s.AddEdge(0, 1, 0, 1e12, 1e9)

			sol, err := s.Run()
			require.NoError(t, err)
			assert.Equal(t, int64(1e12), sol.Flow(e))
			assert.False(t, sol.TotalCostFits())
			assert.Equal(t, "1000000000000000000000", sol.TotalCostBig().String())
		})
	}
}

func TestSolution_FlowOnReverseID(t *testing.T) {
	sol, ids, err := solve(t, exampleProblem, RuleBlockSearch)
	require.NoError(t, err)

	for _, id := range ids {
		assert.Equal(t, sol.Flow(id), sol.Flow(id.Reverse()))
	}
	assert.True(t, sol.TotalCostFits())
	assert.Equal(t, sol.TotalCost(), sol.TotalCostBig().Int64())
}

// =============================================================================
// Randomized Properties
// =============================================================================

func randomProblem(rng *rand.Rand, maxVertices, maxEdges int) testProblem {
	n := 1 + rng.IntN(maxVertices)
	m := rng.IntN(maxEdges + 1)

	p := testProblem{balances: make([]int64, n)}
	var sum int64
	for v := range p.balances {
		p.balances[v] = rng.Int64N(9) - 4
		sum += p.balances[v]
	}
	p.balances[0] -= sum

	for i := 0; i < m; i++ {
		lower := rng.Int64N(7) - 3
		p.edges = append(p.edges, testEdge{
			src:   rng.IntN(n),
			dst:   rng.IntN(n),
			lower: lower,
			upper: lower + rng.Int64N(6),
			cost:  rng.Int64N(15) - 5,
		})
	}
	return p
}

func TestSolver_RulesAgreeOnRandomGraphs(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))

	feasible := 0
	for i := 0; i < 1500; i++ {
		p := randomProblem(rng, 7, 14)

		block, blockIDs, blockErr := solve(t, p, RuleBlockSearch)
		batched, batchedIDs, batchedErr := solve(t, p, RuleBatchedDFS)

		if errors.Is(blockErr, ErrInfeasible) {
			require.ErrorIs(t, batchedErr, ErrInfeasible, "case %d: %+v", i, p)
			continue
		}
		require.NoError(t, blockErr, "case %d", i)
		require.NoError(t, batchedErr, "case %d: %+v", i, p)
		feasible++

		assertOptimal(t, p, block, blockIDs)
		assertOptimal(t, p, batched, batchedIDs)
		require.Equal(t, block.TotalCost(), batched.TotalCost(), "case %d: %+v", i, p)
	}
	assert.Positive(t, feasible)
}

func TestSolver_LargerRandomGraphs(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))

	for i := 0; i < 20; i++ {
		n := 60
		p := testProblem{balances: make([]int64, n)}
		var sum int64
		for v := range p.balances {
			p.balances[v] = rng.Int64N(11) - 5
			sum += p.balances[v]
		}
		p.balances[0] -= sum
		for j := 0; j < 400; j++ {
			p.edges = append(p.edges, testEdge{
				src:   rng.IntN(n),
				dst:   rng.IntN(n),
				upper: 1 + rng.Int64N(20),
				cost:  rng.Int64N(61) - 10,
			})
		}

		block, blockIDs, blockErr := solve(t, p, RuleBlockSearch)
		batched, batchedIDs, batchedErr := solve(t, p, RuleBatchedDFS)
		if blockErr != nil {
			require.ErrorIs(t, blockErr, ErrInfeasible)
			require.ErrorIs(t, batchedErr, ErrInfeasible)
			continue
		}
		require.NoError(t, batchedErr)
		assertOptimal(t, p, block, blockIDs)
		assertOptimal(t, p, batched, batchedIDs)
		assert.Equal(t, block.TotalCost(), batched.TotalCost())
	}
}

func TestSolver_ReSolveFixedOptimum(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 5))

	checked := 0
	for i := 0; i < 400; i++ {
		p := randomProblem(rng, 6, 12)

		first, ids, err := solve(t, p, RuleBlockSearch)
		if errors.Is(err, ErrInfeasible) {
			continue
		}
		require.NoError(t, err)

		fixed := testProblem{balances: p.balances}
		for j, e := range p.edges {
			f := first.Flow(ids[j])
			fixed.edges = append(fixed.edges, testEdge{e.src, e.dst, f, f, e.cost})
		}

		for _, rule := range Rules() {
			again, _, err := solve(t, fixed, rule)
			require.NoError(t, err)
			assert.Equal(t, first.TotalCost(), again.TotalCost())
			assert.Zero(t, again.Stats().Pivots, "case %d with %s", i, rule)
		}
		checked++
	}
	assert.Positive(t, checked)
}
