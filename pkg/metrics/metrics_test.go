package metrics

import (
	"net/http"
	"net/http/httptest"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewMetrics(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry(), "test", "service")

	if m.HTTPRequestsTotal == nil {
		t.Error("HTTPRequestsTotal should not be nil")
	}
	if m.SolveOperationsTotal == nil {
		t.Error("SolveOperationsTotal should not be nil")
	}
	if m.PivotsTotal == nil {
		t.Error("PivotsTotal should not be nil")
	}
}

func TestInitMetricsAndGet(t *testing.T) {
	reg := prometheus.NewRegistry()
	prometheus.DefaultRegisterer = reg
	prometheus.DefaultGatherer = reg

	m := InitMetrics("test", "global")
	if Get() != m {
		t.Error("Get() should return the initialised instance")
	}
}

func TestGet_Lazy(t *testing.T) {
	reg := prometheus.NewRegistry()
	prometheus.DefaultRegisterer = reg
	prometheus.DefaultGatherer = reg
	defaultMetrics = nil

	m := Get()
	if m == nil {
		t.Fatal("Get() should not return nil")
	}
	if m2 := Get(); m2 != m {
		t.Error("Get() should return same instance")
	}
}

func TestRecordSolveOperation(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry(), "test", "solve")

	m.RecordSolveOperation("block_search", StatusOptimal, 20*time.Millisecond, 40, 10)
	m.RecordSolveOperation("block_search", StatusOptimal, 10*time.Millisecond, 0, 0)
	m.RecordSolveOperation("batched_dfs", StatusInfeasible, time.Millisecond, 3, 3)

	if got := testutil.ToFloat64(m.SolveOperationsTotal.WithLabelValues("block_search", StatusOptimal)); got != 2 {
		t.Errorf("optimal block_search solves = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.SolveOperationsTotal.WithLabelValues("batched_dfs", StatusInfeasible)); got != 1 {
		t.Errorf("infeasible batched solves = %v, want 1", got)
	}
	// Zero-pivot solves do not contribute a degenerate ratio.
	if got := testutil.CollectAndCount(m.DegenerateRatio); got != 2 {
		t.Errorf("degenerate ratio series = %d, want 2", got)
	}
}

func TestRecordHTTPRequest(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry(), "test", "http")

	m.RecordHTTPRequest("POST", "/v1/solve", 200, 5*time.Millisecond)
	m.RecordHTTPRequest("POST", "/v1/solve", 400, time.Millisecond)

	if got := testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("POST", "/v1/solve", "400")); got != 1 {
		t.Errorf("400 responses = %v, want 1", got)
	}
}

func TestRecordCacheLookupAndCost(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry(), "test", "cache")

	m.RecordCacheLookup(true)
	m.RecordCacheLookup(false)
	m.RecordCacheLookup(false)
	m.RecordTotalCost("block_search", -42)
	m.RecordGraphSize("solve", 100, 500)
	m.SetServiceInfo("1.0.0", "production")

	if got := testutil.ToFloat64(m.CacheLookups.WithLabelValues("miss")); got != 2 {
		t.Errorf("misses = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.LastTotalCost.WithLabelValues("block_search")); got != -42 {
		t.Errorf("last cost = %v, want -42", got)
	}
}

func TestRuntimeCollector(t *testing.T) {
	runtime.GC()
	collector := NewRuntimeCollector("test", "runtime")

	descCh := make(chan *prometheus.Desc, 10)
	collector.Describe(descCh)
	close(descCh)

	count := 0
	for range descCh {
		count++
	}
	if count != 5 {
		t.Errorf("expected 5 descriptors, got %d", count)
	}

	metricCh := make(chan prometheus.Metric, 10)
	collector.Collect(metricCh)
	close(metricCh)

	count = 0
	for range metricCh {
		count++
	}
	if count < 4 {
		t.Errorf("expected at least 4 metrics, got %d", count)
	}
}

type fakePool struct{ capacity, inUse int }

func (p fakePool) Capacity() int { return p.capacity }
func (p fakePool) InUse() int    { return p.inUse }

func TestPoolCollector(t *testing.T) {
	collector := NewPoolCollector("test", "", fakePool{capacity: 4, inUse: 1})

	expected := `
# HELP test_solver_pool_capacity Maximum number of concurrent solves
# TYPE test_solver_pool_capacity gauge
test_solver_pool_capacity 4
# HELP test_solver_pool_in_use Number of solves currently running
# TYPE test_solver_pool_in_use gauge
test_solver_pool_in_use 1
`
	if err := testutil.CollectAndCompare(collector, strings.NewReader(expected)); err != nil {
		t.Error(err)
	}
}

func TestRequestTracker(t *testing.T) {
	gauge := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "test_in_flight",
	})

	tracker := NewRequestTracker(gauge)

	tracker.Start("/v1/solve")
	tracker.Start("/v1/solve")
	tracker.Start("/v1/runs")

	if got := tracker.Active("/v1/solve"); got != 2 {
		t.Errorf("Active(/v1/solve) = %d, want 2", got)
	}
	if got := testutil.ToFloat64(gauge); got != 3 {
		t.Errorf("in flight = %v, want 3", got)
	}

	tracker.End("/v1/solve")
	tracker.End("/v1/solve")
	tracker.End("/v1/solve")
	if got := tracker.Active("/v1/solve"); got != 0 {
		t.Errorf("Active(/v1/solve) = %d, want 0", got)
	}
	if got := testutil.ToFloat64(gauge); got != 1 {
		t.Errorf("in flight = %v, want 1", got)
	}
}

func TestTimer(t *testing.T) {
	histogram := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "test_duration",
			Buckets: []float64{.01, .1, 1},
		},
		[]string{"rule"},
	)

	timer := NewTimer(histogram, "block_search")
	time.Sleep(10 * time.Millisecond)

	if duration := timer.ObserveDuration(); duration < 10*time.Millisecond {
		t.Errorf("duration = %v, expected >= 10ms", duration)
	}
}

func TestHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d", rec.Code)
	}
}
