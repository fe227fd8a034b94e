package observability

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.ObserveAPI("GET", "/courses", "200", time.Millisecond)
	m.ObserveIngestion("done", time.Second)
	m.IncTeardownFailure("collection")
	m.IncPresetLockContention()
	if err := m.WritePrometheus(&bytes.Buffer{}); err != nil {
		t.Fatalf("WritePrometheus on nil: %v", err)
	}
}

func TestWritePrometheus(t *testing.T) {
	m := New()
	m.ObserveAPI("GET", "/courses", "200", 20*time.Millisecond)
	m.ObserveAPI("GET", "/courses", "200", 3*time.Second)
	m.ObserveIngestion("error", 2*time.Second)
	m.IncTeardownFailure("knowledge")
	m.IncTeardownFailure("knowledge")
	m.ObserveVectorStoreOperation("qdrant", "upsert", "ok", 10*time.Millisecond)

	if got := m.teardownFailures.Value("knowledge"); got != 2 {
		t.Fatalf("teardown failures: got=%v", got)
	}
	if got := m.ingestionDuration.Count("error"); got != 1 {
		t.Fatalf("ingestion duration count: got=%d", got)
	}

	var buf bytes.Buffer
	if err := m.WritePrometheus(&buf); err != nil {
		t.Fatalf("WritePrometheus: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		`classroom_api_requests_total{method="GET",route="/courses",status="200"} 2`,
		`classroom_api_request_duration_seconds_bucket{method="GET",route="/courses",status="200",le="0.025"} 1`,
		`classroom_api_request_duration_seconds_bucket{method="GET",route="/courses",status="200",le="+Inf"} 2`,
		`classroom_ingestion_runs_total{status="error"} 1`,
		`classroom_teardown_failures_total{target="knowledge"} 2`,
		`classroom_vector_store_operations_total{provider="qdrant",operation="upsert",status="ok"} 1`,
		"# TYPE classroom_preset_lock_contention_total counter",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}
}

func TestLabelEscaping(t *testing.T) {
	got := labelString([]string{"route"}, []string{`a"b\c`})
	if got != `{route="a\"b\\c"}` {
		t.Fatalf("labelString: %s", got)
	}
	if withLe("", "1") != `{le="1"}` {
		t.Fatalf("withLe empty")
	}
}

func TestParseHeaders(t *testing.T) {
	got := parseHeaders("x-api-key=abc, bad ,=v,k=")
	if len(got) != 1 || got["x-api-key"] != "abc" {
		t.Fatalf("parseHeaders: %v", got)
	}
	if parseHeaders("") != nil {
		t.Fatalf("parseHeaders empty: expected nil")
	}
}

func TestSampleRatioClamps(t *testing.T) {
	t.Setenv("OTEL_SAMPLER_RATIO", "4")
	if got := sampleRatio(); got != 1 {
		t.Fatalf("clamp high: %v", got)
	}
	t.Setenv("OTEL_SAMPLER_RATIO", "nope")
	if got := sampleRatio(); got != 0.1 {
		t.Fatalf("fallback: %v", got)
	}
}
