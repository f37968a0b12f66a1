package ui

import (
	"strings"
	"testing"

	"github.com/jhaugland01/ReliabilitySim/internal/engine"
)

func TestPlainFallback(t *testing.T) {
	u := Plain()
	if got := u.Header("Run"); got != "=== Run ===" {
		t.Fatalf("Header = %q", got)
	}
	if got := u.Success("done"); got != "[OK] done" {
		t.Fatalf("Success = %q", got)
	}
	if got := u.Warning("hmm"); got != "[WARN] hmm" {
		t.Fatalf("Warning = %q", got)
	}
	if got := u.Error("bad"); got != "[FAILED] bad" {
		t.Fatalf("Error = %q", got)
	}
	if got := u.KeyValue("Seed", "42"); got != "Seed:        42" {
		t.Fatalf("KeyValue = %q", got)
	}
	if strings.Contains(u.Muted("x"), "\x1b[") {
		t.Fatalf("plain output must not contain escapes")
	}
}

func TestTTYWithNoColorIsPlain(t *testing.T) {
	u := &UI{IsTTY: true, NoColor: true}
	if got := u.Success("done"); got != "[OK] done" {
		t.Fatalf("Success = %q", got)
	}
	u.SetNoColor(false)
	if got := u.Success("done"); got == "[OK] done" {
		t.Fatalf("expected styled output")
	}
}

func TestSummaryBox(t *testing.T) {
	s := engine.Summary{TotalRequests: 120, SuccessRate: 97.5, ErrorRate: 2.5, P95Latency: 88, MainCause: engine.CauseNormal}
	out := Plain().SummaryBox("Summary", SummaryItems(7, s))
	for _, want := range []string{"=== Summary ===", "Seed:", "7", "Success Rate:", "97.5%", engine.CauseNormal} {
		if !strings.Contains(out, want) {
			t.Errorf("summary box missing %q:\n%s", want, out)
		}
	}
	if n := len(SummaryItems(0, s)); n != 11 {
		t.Fatalf("expected 11 items, got %d", n)
	}
}

func TestVerdictAndEvent(t *testing.T) {
	u := Plain()
	if got := u.Verdict(engine.Summary{MainCause: engine.CauseNormal}); !strings.HasPrefix(got, "[OK]") {
		t.Fatalf("normal verdict = %q", got)
	}
	if got := u.Verdict(engine.Summary{MainCause: engine.CauseHighFailureRate, ErrorRate: 60}); !strings.HasPrefix(got, "[FAILED]") {
		t.Fatalf("failure verdict = %q", got)
	}
	if got := u.Verdict(engine.Summary{MainCause: engine.CauseBreakerFlapping, ErrorRate: 10}); !strings.HasPrefix(got, "[WARN]") {
		t.Fatalf("flapping verdict = %q", got)
	}
	ev := engine.Event{Time: 1.5, Kind: engine.EventCircuitOpened, Message: "Circuit breaker opened"}
	if got := u.Event(ev); got != "[t=  1.50s] Circuit breaker opened" {
		t.Fatalf("Event = %q", got)
	}
}
