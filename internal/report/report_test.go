package report

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/jhaugland01/ReliabilitySim/internal/engine"
	"github.com/jhaugland01/ReliabilitySim/internal/scenario"
)

func preset(t *testing.T, key string) scenario.Scenario {
	t.Helper()
	sc, err := scenario.Preset(key)
	if err != nil {
		t.Fatalf("preset: %v", err)
	}
	return sc
}

func TestCompareDifferences(t *testing.T) {
	a := RunInput{Config: preset(t, "healthy-system").Config}
	b := RunInput{Config: a.Config}
	b.Config.Retry.MaxRetries = 4
	b.Config.CircuitBreaker.Enabled = false
	b.Config.RPS = 12.5

	c := Compare(a, b)
	want := []string{
		"Retries changed from 1 to 4",
		"Circuit breaker disabled",
		"RPS changed from 30 to 12.5",
	}
	if len(c.Differences) != len(want) {
		t.Fatalf("differences = %v, want %v", c.Differences, want)
	}
	for i := range want {
		if c.Differences[i] != want[i] {
			t.Errorf("difference %d = %q, want %q", i, c.Differences[i], want[i])
		}
	}
	if c.Analysis != SimilarResults {
		t.Fatalf("analysis = %q", c.Analysis)
	}

	back := Compare(b, a)
	if back.Differences[1] != "Circuit breaker enabled" {
		t.Fatalf("expected enabled, got %q", back.Differences[1])
	}
}

func TestCompareAnalysis(t *testing.T) {
	cfg := preset(t, "healthy-system").Config // base latency 50
	a := RunInput{Config: cfg, Summary: engine.Summary{ErrorRate: 10, P95Latency: 100, DowntimeSec: 0}}

	tests := []struct {
		name string
		b    engine.Summary
		want string
	}{
		{"similar", engine.Summary{ErrorRate: 14, P95Latency: 120, DowntimeSec: 1}, SimilarResults},
		{"error up", engine.Summary{ErrorRate: 30.5, P95Latency: 100}, "Error rate increased by 20.5%."},
		{"latency down", engine.Summary{ErrorRate: 10, P95Latency: 60}, "P95 latency decreased by 40ms."},
		{"all", engine.Summary{ErrorRate: 2, P95Latency: 300, DowntimeSec: 4.5},
			"Error rate decreased by 8.0%. P95 latency increased by 200ms. Downtime increased by 4.5s."},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Compare(a, RunInput{Config: cfg, Summary: tc.b}).Analysis
			if got != tc.want {
				t.Fatalf("analysis = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestCompareEmptyDifferencesIsNotNil(t *testing.T) {
	cfg := preset(t, "retry-storm").Config
	c := Compare(RunInput{Config: cfg}, RunInput{Config: cfg})
	if c.Differences == nil || len(c.Differences) != 0 {
		t.Fatalf("expected empty non-nil differences, got %#v", c.Differences)
	}
}

func TestNarrative(t *testing.T) {
	cfg := preset(t, "retry-storm").Config
	s := engine.Summary{TotalRequests: 1500, SuccessRate: 42, ErrorRate: 58, P95Latency: 900, DowntimeSec: 6.5, CircuitTrips: 2, RetryStorms: 3, MainCause: engine.CauseRetryStorm}
	n := Narrative(cfg, s)
	for _, want := range []string{
		"1500 requests over 30s at a target of 50 RPS",
		"down for 6.5s",
		"tripped 2 times",
		"in 3 ticks",
		engine.CauseRetryStorm + ".",
	} {
		if !strings.Contains(n, want) {
			t.Errorf("narrative missing %q: %s", want, n)
		}
	}

	calm := Narrative(cfg, engine.Summary{TotalRequests: 10, SuccessRate: 99, ErrorRate: 1, P95Latency: 80, MainCause: engine.CauseNormal})
	if strings.Contains(calm, "circuit breaker") || !strings.Contains(calm, "99.0% succeeded") {
		t.Fatalf("unexpected calm narrative: %s", calm)
	}
}

func TestText(t *testing.T) {
	s := engine.Summary{TotalRequests: 10, SuccessRate: 90, ErrorRate: 10, AvgLatency: 51.4, P95Latency: 80, MaxLatency: 120, DowntimeSec: 0, CircuitTrips: 1, MainCause: engine.CauseNormal}
	txt := Text("Healthy System", 30, s)
	lines := strings.Split(txt, "\n")
	if lines[0] != "Reliability Simulation Report" || lines[2] != "Duration: 30s" {
		t.Fatalf("unexpected header: %q", lines[:3])
	}
	if !strings.Contains(txt, "- Avg Latency: 51ms") || !strings.HasSuffix(txt, "Analysis: "+engine.CauseNormal) {
		t.Fatalf("unexpected report:\n%s", txt)
	}
}

func TestDocumentRoundTrip(t *testing.T) {
	sc := preset(t, "network-spike")
	cfg := sc.Config
	cfg.Duration = 2
	eng, err := engine.New(cfg, engine.WithSeed(21))
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	res, err := eng.Run()
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	path := filepath.Join(t.TempDir(), "result.json")
	if err := WriteDocument(path, NewDocument(sc.Name, cfg, res)); err != nil {
		t.Fatalf("write: %v", err)
	}
	doc, err := ReadDocument(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if doc.Seed != 21 || doc.Scenario != sc.Name || doc.Summary != res.Summary || len(doc.Metrics) != len(res.Metrics) {
		t.Fatalf("document mismatch: %+v", doc.Summary)
	}
	if c := Compare(doc.Input(), doc.Input()); c.Analysis != SimilarResults {
		t.Fatalf("self comparison should be similar: %q", c.Analysis)
	}
	if _, err := ReadDocument(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
