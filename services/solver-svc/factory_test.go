package solversvc

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const benchProblem = `{"problem":{"vertices":3,"balances":[4,0,-4],"edges":[
{"from":0,"to":1,"upper":4,"cost":1},
{"from":1,"to":2,"upper":4,"cost":1},
{"from":0,"to":2,"upper":4,"cost":3}]}}`

func TestNewBenchmarkHandler(t *testing.T) {
	h := NewBenchmarkHandler()

	req := httptest.NewRequest(http.MethodPost, "/v1/solve", strings.NewReader(benchProblem))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"total_cost":8`)
}

func BenchmarkSolve(b *testing.B) {
	h := NewBenchmarkHandler()
	for b.Loop() {
		req := httptest.NewRequest(http.MethodPost, "/v1/solve", strings.NewReader(benchProblem))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			b.Fatalf("status %d", rec.Code)
		}
	}
}
