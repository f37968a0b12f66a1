package sim

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jhaugland01/ReliabilitySim/internal/config"
	"github.com/jhaugland01/ReliabilitySim/internal/engine"
	"github.com/jhaugland01/ReliabilitySim/internal/scenario"
)

type fakeProgram struct{ msgs []tea.Msg }

func (f *fakeProgram) Send(msg tea.Msg) { f.msgs = append(f.msgs, msg) }

func presetConfig(t *testing.T, key string) config.SimulationConfig {
	t.Helper()
	sc, err := scenario.Preset(key)
	if err != nil {
		t.Fatalf("preset %s: %v", key, err)
	}
	return sc.Config
}

func TestTUIWriterMessages(t *testing.T) {
	p := &fakeProgram{}
	w := &TUIWriter{program: p}
	if err := w.WriteMetric(MetricRow{RunID: "r", TickMetric: engine.TickMetric{Tick: 3}}); err != nil {
		t.Fatalf("metric: %v", err)
	}
	if _, ok := p.msgs[0].(metricMsg); !ok {
		t.Fatalf("expected metricMsg, got %T", p.msgs[0])
	}
	ev := EventRow{RunID: "r", Event: engine.Event{Time: 1, Kind: engine.EventRetryStorm, Message: "storm"}}
	if err := w.WriteEvent(ev); err != nil {
		t.Fatalf("event: %v", err)
	}
	lm, ok := p.msgs[1].(logMsg)
	if !ok {
		t.Fatalf("expected logMsg, got %T", p.msgs[1])
	}
	if !strings.Contains(lm.line, "storm") {
		t.Fatalf("event line missing message: %q", lm.line)
	}
	if err := w.WriteSummary(SummaryRow{RunID: "r"}); err != nil {
		t.Fatalf("summary: %v", err)
	}
	if _, ok := p.msgs[2].(summaryMsg); !ok {
		t.Fatalf("expected summaryMsg, got %T", p.msgs[2])
	}
}

func TestTUIWriterWaitBlocksUntilQuit(t *testing.T) {
	w := &TUIWriter{program: &fakeProgram{}, done: make(chan struct{})}
	w.sendSignal.Store(true)
	returned := make(chan struct{})
	go func() {
		w.Wait(context.Background())
		close(returned)
	}()
	select {
	case <-returned:
		t.Fatalf("Wait returned before the TUI quit")
	case <-time.After(50 * time.Millisecond):
	}
	if w.sendSignal.Load() {
		t.Fatalf("quitting after Wait would still interrupt the process")
	}
	close(w.done)
	select {
	case <-returned:
	case <-time.After(time.Second):
		t.Fatalf("Wait did not return after quit")
	}
}

func TestTUIWriterWaitHonorsContext(t *testing.T) {
	w := &TUIWriter{program: &fakeProgram{}, done: make(chan struct{})}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	w.Wait(ctx)
}

func TestTUIModelTracksMetrics(t *testing.T) {
	cfg := presetConfig(t, "healthy-system")
	m := newTUIModel(&cfg)
	for i := 0; i < historyLen+5; i++ {
		mi, _ := m.Update(metricMsg{MetricRow{TickMetric: engine.TickMetric{Tick: i, ErrorRate: 100, CircuitState: engine.CircuitOpen}}})
		m = mi.(tuiModel)
	}
	if len(m.history) != historyLen {
		t.Fatalf("history length %d, want %d", len(m.history), historyLen)
	}
	if m.last == nil || m.last.Tick != historyLen+4 {
		t.Fatalf("unexpected last metric %+v", m.last)
	}
	if !strings.HasSuffix(m.renderSparkline(), "█") {
		t.Fatalf("expected full block for 100%% error rate: %q", m.renderSparkline())
	}
	if !strings.Contains(m.renderStatus(), "open") {
		t.Fatalf("status should show circuit state: %q", m.renderStatus())
	}

	mi, _ := m.Update(summaryMsg{SummaryRow{Summary: engine.Summary{MainCause: engine.CauseNormal}}})
	m = mi.(tuiModel)
	if !strings.Contains(m.renderBottom(), engine.CauseNormal) {
		t.Fatalf("bottom should show the main cause: %q", m.renderBottom())
	}
}

func TestWrapToggle(t *testing.T) {
	cfg := presetConfig(t, "healthy-system")
	m := newTUIModel(&cfg)
	mi, _ := m.Update(tea.WindowSizeMsg{Width: 20, Height: 40})
	m = mi.(tuiModel)
	if m.vp.Height < 2 {
		t.Fatalf("viewport too small: %d", m.vp.Height)
	}
	long := "one two three four five six"
	mi, _ = m.Update(logMsg{line: long})
	m = mi.(tuiModel)
	lines := strings.Split(m.vp.View(), "\n")
	if len(lines) < 2 || strings.TrimSpace(lines[1]) != "" {
		t.Fatalf("expected single line before wrap")
	}
	mi, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'w'}})
	m = mi.(tuiModel)
	if !m.wrap {
		t.Fatalf("wrap not toggled")
	}
	lines = strings.Split(m.vp.View(), "\n")
	if strings.TrimSpace(lines[1]) == "" {
		t.Fatalf("expected wrapped content on second line")
	}
}

func TestScrollToggle(t *testing.T) {
	cfg := config.SimulationConfig{TickInterval: 100, Duration: 1}
	m := newTUIModel(&cfg)
	m.vp.Height = 1
	m.vp.Width = 20
	mi, _ := m.Update(logMsg{line: "l1"})
	m = mi.(tuiModel)
	mi, _ = m.Update(logMsg{line: "l2"})
	m = mi.(tuiModel)
	if m.vp.YOffset != 1 {
		t.Fatalf("expected YOffset 1, got %d", m.vp.YOffset)
	}
	mi, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'s'}})
	m = mi.(tuiModel)
	if m.autoscroll {
		t.Fatalf("autoscroll should be off")
	}
	mi, _ = m.Update(logMsg{line: "l3"})
	m = mi.(tuiModel)
	if m.vp.YOffset != 1 {
		t.Fatalf("expected YOffset unchanged, got %d", m.vp.YOffset)
	}
	mi, _ = m.Update(tea.KeyMsg{Type: tea.KeyUp})
	m = mi.(tuiModel)
	if m.vp.YOffset != 0 {
		t.Fatalf("expected YOffset 0 after scrolling up, got %d", m.vp.YOffset)
	}
	mi, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'s'}})
	m = mi.(tuiModel)
	if !m.autoscroll {
		t.Fatalf("autoscroll should be on")
	}
	expected := len(m.logs) - m.vp.Height
	if m.vp.YOffset != expected {
		t.Fatalf("expected YOffset %d, got %d", expected, m.vp.YOffset)
	}
}

func TestQuitKey(t *testing.T) {
	cfg := config.SimulationConfig{TickInterval: 100, Duration: 1}
	m := newTUIModel(&cfg)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if cmd == nil {
		t.Fatalf("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatalf("expected tea.QuitMsg")
	}
}
