package converter

import (
	"math/big"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"netsimplex/pkg/apperror"
	"netsimplex/services/solver-svc/internal/simplex"
)

func TestVerify_Optimal(t *testing.T) {
	p := exampleProblem()
	v := Verify(p, []int64{1, 0, 3, 3, 0}, []int64{0, -1, -1}, big.NewInt(-2))
	assert.True(t, v.IsValid(), "%v", v.ErrorMessages())
}

func TestVerify_Violations(t *testing.T) {
	p := exampleProblem()
	potentials := []int64{0, -1, -1}

	tests := []struct {
		name       string
		flows      []int64
		potentials []int64
		cost       *big.Int
		want       apperror.ErrorCode
	}{
		{"length mismatch", []int64{1}, nil, nil, apperror.CodeInvalidArgument},
		{"short potentials", []int64{1, 0, 3, 3, 0}, []int64{0}, nil, apperror.CodeInvalidArgument},
		{"bound", []int64{3, 0, 3, 3, 0}, nil, nil, apperror.CodeBoundViolation},
		{"conservation", []int64{1, 0, 3, 2, 0}, nil, nil, apperror.CodeConservationViolation},
		// допустимый, но не оптимальный поток: 0 -> 1 -> 2 вместо 0 -> 2
		{"slackness", []int64{2, 1, 3, 2, 0}, potentials, nil, apperror.CodeSlacknessViolation},
		{"cost", []int64{1, 0, 3, 3, 0}, nil, big.NewInt(5), apperror.CodeCostMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := Verify(p, tt.flows, tt.potentials, tt.cost)
			require.True(t, v.HasErrors())

			codes := make([]apperror.ErrorCode, 0, len(v.Errors))
			for _, e := range v.Errors {
				codes = append(codes, e.Code)
			}
			assert.Contains(t, codes, tt.want)
		})
	}
}

func TestVerifyResult_NotOptimal(t *testing.T) {
	v := VerifyResult(exampleProblem(), &Result{Status: StatusInfeasible})
	assert.True(t, v.IsValid())
	assert.Len(t, v.Warnings, 1)
}

// Случайные допустимые задачи: каждое оптимальное решение обоих правил
// проходит проверку, и стоимости совпадают.
func TestVerify_RandomProblems(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))

	for i := 0; i < 200; i++ {
		p := randomProblem(rng, 2+rng.IntN(8), rng.IntN(20))

		var costs []int64
		for _, rule := range simplex.Rules() {
			res, err := Solve(p, simplex.DefaultOptions().WithRule(rule))
			require.NoError(t, err)
			if !res.Optimal() {
				continue
			}
			v := VerifyResult(p, res)
			require.True(t, v.IsValid(), "case %d %s: %v", i, rule, v.ErrorMessages())
			costs = append(costs, res.TotalCost)
		}
		if len(costs) == 2 {
			assert.Equal(t, costs[0], costs[1], "case %d", i)
		}
	}
}

func randomProblem(rng *rand.Rand, n, m int) *Problem {
	p := &Problem{Balances: make([]int64, n)}
	for k := 0; k < n/2; k++ {
		amount := rng.Int64N(5)
		p.Balances[rng.IntN(n)] += amount
		p.Balances[rng.IntN(n)] -= amount
	}
	for k := 0; k < m; k++ {
		lower := rng.Int64N(3) - 1
		p.Edges = append(p.Edges, Edge{
			From:  rng.IntN(n),
			To:    rng.IntN(n),
			Lower: lower,
			Upper: lower + rng.Int64N(6),
			Cost:  rng.Int64N(21) - 10,
		})
	}
	return p
}
