package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"netsimplex/pkg/apperror"
	"netsimplex/services/solver-svc/internal/simplex"
)

const degenerateBFlow = `3 5
1 -1 0
0 1 1 2 1
1 2 0 2 2
2 0 -3 5 1
0 2 0 3 -2
2 1 0 1 0
`

const exampleBFlow = `3 3
4 0 -4
0 1 0 4 1
1 2 0 4 1
0 2 0 4 3
`

func runCLI(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	err := run(args, strings.NewReader(stdin), &out, &errOut)
	return out.String(), err
}

func TestRun_BFlow(t *testing.T) {
	for _, rule := range []string{"block", "batched"} {
		t.Run(rule, func(t *testing.T) {
			out, err := runCLI(t, exampleBFlow, "-rule", rule, "-verify")
			require.NoError(t, err)

			lines := strings.Fields(out)
			require.Len(t, lines, 1+3+3)
			assert.Equal(t, "8", lines[0])
			assert.Equal(t, []string{"4", "4", "0"}, lines[4:])
		})
	}
}

func TestRun_BFlowNegativeCycle(t *testing.T) {
	out, err := runCLI(t, degenerateBFlow, "-verify")
	require.NoError(t, err)

	lines := strings.Fields(out)
	require.Len(t, lines, 1+3+5)
	assert.Equal(t, "-2", lines[0])
	assert.Equal(t, []string{"1", "0", "3", "3", "0"}, lines[4:])
}

func TestRun_BFlowInfeasible(t *testing.T) {
	out, err := runCLI(t, "2 1\n5 -5\n0 1 0 2 1\n")
	require.NoError(t, err)
	assert.Equal(t, "infeasible\n", out)
}

func TestRun_BFlowCostBeyondInt64(t *testing.T) {
	in := "2 1\n1000000000000 -1000000000000\n0 1 0 1000000000000 1000000000\n"

	out, err := runCLI(t, in, "-verify")
	require.NoError(t, err)

	lines := strings.Fields(out)
	require.Len(t, lines, 1+2+1)
	assert.Equal(t, "1000000000000000000000", lines[0])
	assert.Equal(t, "1000000000000", lines[3])
}

func TestRun_InputFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "problem.txt")
	require.NoError(t, os.WriteFile(path, []byte(exampleBFlow), 0o600))

	out, err := runCLI(t, "", "-input", path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "8\n"))
}

func TestRun_Assignment(t *testing.T) {
	costs := `3
4 1 3
2 0 5
3 2 2
`
	out, err := runCLI(t, costs, "-format", "assignment")
	require.NoError(t, err)
	assert.Equal(t, "5\n1 0 2\n", out)
}

func TestRun_Errors(t *testing.T) {
	tests := []struct {
		name  string
		stdin string
		args  []string
		check func(t *testing.T, err error)
	}{
		{
			name: "unknown rule",
			args: []string{"-rule", "steepest"},
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, simplex.ErrUnknownRule)
			},
		},
		{
			name: "negative max pivots",
			args: []string{"-max-pivots", "-1"},
			check: func(t *testing.T, err error) {
				assert.True(t, apperror.Is(err, apperror.CodeInvalidArgument))
			},
		},
		{
			name: "unknown format",
			args: []string{"-format", "dimacs"},
			check: func(t *testing.T, err error) {
				assert.True(t, apperror.Is(err, apperror.CodeInvalidArgument))
			},
		},
		{
			name:  "truncated input",
			stdin: "3 3\n4 0\n",
			check: func(t *testing.T, err error) {
				assert.Error(t, err)
			},
		},
		{
			name:  "inverted bounds",
			stdin: "2 1\n0 0\n0 1 5 2 1\n",
			check: func(t *testing.T, err error) {
				assert.True(t, apperror.Is(err, apperror.CodeInvalidBounds), "got %v", err)
			},
		},
		{
			name:  "costs out of range",
			stdin: "2 2\n1 -1\n0 1 0 1 5000000000000000000\n1 0 0 1 5000000000000000000\n",
			check: func(t *testing.T, err error) {
				assert.True(t, apperror.Is(err, apperror.CodeValueOutOfRange), "got %v", err)
			},
		},
		{
			name:  "pivot limit",
			stdin: degenerateBFlow,
			args:  []string{"-max-pivots", "1"},
			check: func(t *testing.T, err error) {
				assert.True(t, apperror.Is(err, apperror.CodePivotLimit))
			},
		},
		{
			name: "missing file",
			args: []string{"-input", "/nonexistent/problem.txt"},
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, os.ErrNotExist)
			},
		},
		{
			name: "unknown flag",
			args: []string{"-bogus"},
			check: func(t *testing.T, err error) {
				assert.Error(t, err)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runCLI(t, tt.stdin, tt.args...)
			tt.check(t, err)
		})
	}
}
