package observability

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/ent0n29/meetingsnap/internal/snapshot"
)

func TestMetricsPreinitializesSnapPaths(t *testing.T) {
	m := NewMetrics("test")
	for _, p := range SnapPaths {
		if got := testutil.ToFloat64(m.Snaps.WithLabelValues(p)); got != 0 {
			t.Fatalf("snaps_total{path=%q} = %v, want 0", p, got)
		}
	}

	n, err := testutil.GatherAndCount(m.Registry(), "test_snaps_total")
	if err != nil {
		t.Fatalf("GatherAndCount() error = %v", err)
	}
	if n != len(SnapPaths) {
		t.Fatalf("snaps_total series = %d, want %d", n, len(SnapPaths))
	}

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), `test_snaps_total{path="fallback"} 0`) {
		t.Fatalf("metrics output missing fallback series:\n%s", body)
	}
}

func TestMetricsObserve(t *testing.T) {
	m := NewMetrics("test")
	m.ObserveSnap("fallback")
	m.ObserveProviderCall("openai", "timeout", 120*time.Millisecond)
	m.ObserveProviderCall("openai", "", 80*time.Millisecond)
	m.ObserveTokens("openai", 42)
	m.ObserveRepairs(snapshot.Report{DecisionsDropped: 3})

	if got := testutil.ToFloat64(m.Snaps.WithLabelValues("fallback")); got != 1 {
		t.Fatalf("snaps fallback = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.ProviderErrors.WithLabelValues("openai", "timeout")); got != 1 {
		t.Fatalf("provider errors = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.LLMCalls.WithLabelValues("openai", "ok")); got != 1 {
		t.Fatalf("llm ok calls = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.LLMTokens.WithLabelValues("openai")); got != 42 {
		t.Fatalf("tokens = %v, want 42", got)
	}
	if got := testutil.ToFloat64(m.Repairs.WithLabelValues("decisions_dropped")); got != 3 {
		t.Fatalf("repairs = %v, want 3", got)
	}
}

func TestMetricsInstancesAreIndependent(t *testing.T) {
	a := NewMetrics("test")
	b := NewMetrics("test")
	a.Requests.Inc()
	if got := testutil.ToFloat64(b.Requests); got != 0 {
		t.Fatalf("second instance requests = %v, want 0", got)
	}
}
