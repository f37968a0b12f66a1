package sim

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync/atomic"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/jhaugland01/ReliabilitySim/internal/config"
	"github.com/jhaugland01/ReliabilitySim/internal/engine"
)

// teaProgram abstracts bubbletea.Program for testing.
type teaProgram interface {
	Send(tea.Msg)
}

// logMsg carries an event line for the viewport.
type logMsg struct{ line string }

type metricMsg struct{ MetricRow }

type summaryMsg struct{ SummaryRow }

const (
	historyLen = 60
	// lines outside the header and the event viewport
	fixedLines = 7
)

var sparkBlocks = []rune("▁▂▃▄▅▆▇█")

var (
	okStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	warnStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	badStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	dimStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	boldStyle = lipgloss.NewStyle().Bold(true)
)

// TUIWriter renders a live run using a bubbletea TUI.
type TUIWriter struct {
	program    teaProgram
	done       chan struct{}
	sendSignal atomic.Bool
}

// NewTUIWriter starts a bubbletea program and returns a TUIWriter. Quitting
// the TUI interrupts the process so the run stops too.
func NewTUIWriter(cfg *config.SimulationConfig) *TUIWriter {
	w := &TUIWriter{done: make(chan struct{})}
	w.sendSignal.Store(true)
	p := tea.NewProgram(newTUIModel(cfg), tea.WithAltScreen())
	w.program = p
	go func() {
		_, _ = p.Run()
		close(w.done)
		if w.sendSignal.Load() {
			if proc, err := os.FindProcess(os.Getpid()); err == nil {
				_ = proc.Signal(os.Interrupt)
			}
		}
	}()
	return w
}

// WriteMetric implements MetricWriter.
func (w *TUIWriter) WriteMetric(row MetricRow) error {
	w.program.Send(metricMsg{row})
	return nil
}

// WriteEvent implements EventWriter.
func (w *TUIWriter) WriteEvent(row EventRow) error {
	w.program.Send(logMsg{line: formatEventLine(row)})
	return nil
}

// WriteSummary implements SummaryWriter.
func (w *TUIWriter) WriteSummary(row SummaryRow) error {
	w.program.Send(summaryMsg{row})
	return nil
}

// Wait blocks until the user quits the TUI or ctx is done. Quitting after
// Wait is called no longer interrupts the process.
func (w *TUIWriter) Wait(ctx context.Context) {
	w.sendSignal.Store(false)
	select {
	case <-w.done:
	case <-ctx.Done():
	}
}

// Close shuts down the TUI program and waits for cleanup.
func (w *TUIWriter) Close() error {
	w.sendSignal.Store(false)
	if w.program != nil {
		w.program.Send(tea.Quit())
	}
	if w.done != nil {
		<-w.done
	}
	return nil
}

func formatEventLine(row EventRow) string {
	style := okStyle
	switch row.Kind {
	case engine.EventCircuitOpened, engine.EventRetryStorm:
		style = badStyle
	case engine.EventCircuitHalfOpen, engine.EventStateTransition:
		style = warnStyle
	}
	return fmt.Sprintf("%s %s", dimStyle.Render(fmt.Sprintf("[t=%7.2fs]", row.Time)), style.Render(row.Message))
}

type tuiModel struct {
	cfg          *config.SimulationConfig
	table        table.Model
	vp           viewport.Model
	logs         []string
	wrap         bool
	autoscroll   bool
	help         bool
	header       string
	headerHeight int
	height       int
	last         *MetricRow
	history      []float64
	summary      *SummaryRow
}

func newTUIModel(cfg *config.SimulationConfig) tuiModel {
	cols := []table.Column{
		{Title: "Config", Width: 18},
		{Title: "Value", Width: 14},
		{Title: "Config", Width: 18},
		{Title: "Value", Width: 14},
	}
	breaker := "disabled"
	if cfg.CircuitBreaker.Enabled {
		breaker = fmt.Sprintf("%g%%/%d ticks", cfg.CircuitBreaker.ErrorThreshold, cfg.CircuitBreaker.WindowTicks)
	}
	rows := []table.Row{
		{"RPS", fmt.Sprintf("%g", cfg.RPS), "Capacity", fmt.Sprintf("%d", cfg.Capacity)},
		{"Duration", fmt.Sprintf("%gs", cfg.Duration), "Tick Interval", fmt.Sprintf("%dms", cfg.TickInterval)},
		{"Latency", fmt.Sprintf("%g±%gms", cfg.BaseLatency, cfg.LatencyJitter), "Failure Prob.", fmt.Sprintf("%.2f", cfg.BaseFailureProbability)},
		{"Retries", fmt.Sprintf("%d %s", cfg.Retry.MaxRetries, cfg.Retry.Kind()), "Breaker", breaker},
	}
	t := table.New(table.WithColumns(cols), table.WithRows(rows), table.WithHeight(len(rows)+1))
	return tuiModel{
		cfg:        cfg,
		table:      t,
		vp:         viewport.New(0, 0),
		autoscroll: true,
	}
}

func (m tuiModel) Init() tea.Cmd { return nil }

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.table.SetWidth(msg.Width)
		m.vp.Width = msg.Width
		m.height = msg.Height
		m.header = m.renderHeader()
		m.headerHeight = lipgloss.Height(m.header)
		m.updateViewportHeight()
		m.refreshViewport()
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "w":
			m.wrap = !m.wrap
			m.refreshViewport()
			return m, nil
		case "s":
			m.autoscroll = !m.autoscroll
			if m.autoscroll {
				m.vp.GotoBottom()
			}
			return m, nil
		case "?":
			m.help = !m.help
			return m, nil
		}
		var cmd tea.Cmd
		m.vp, cmd = m.vp.Update(msg)
		return m, cmd
	case logMsg:
		m.logs = append(m.logs, msg.line)
		m.refreshViewport()
	case metricMsg:
		row := msg.MetricRow
		m.last = &row
		m.history = append(m.history, row.ErrorRate)
		if len(m.history) > historyLen {
			m.history = m.history[len(m.history)-historyLen:]
		}
	case summaryMsg:
		row := msg.SummaryRow
		m.summary = &row
	}
	return m, nil
}

func (m *tuiModel) updateViewportHeight() {
	h := m.height - m.headerHeight - fixedLines
	if h < 0 {
		h = 0
	}
	m.vp.Height = h
	if m.autoscroll {
		m.vp.GotoBottom()
	}
}

func (m *tuiModel) refreshViewport() {
	lines := make([]string, 0, len(m.logs))
	for _, l := range m.logs {
		if m.wrap && m.vp.Width > 0 {
			lines = append(lines, wordwrap.String(l, m.vp.Width))
		} else {
			lines = append(lines, l)
		}
	}
	m.vp.SetContent(strings.Join(lines, "\n"))
	if m.autoscroll {
		m.vp.GotoBottom()
	}
}

func (m tuiModel) View() string {
	if m.help {
		return m.renderHelp()
	}
	divider := strings.Repeat("─", m.vp.Width)
	return strings.Join([]string{
		m.header,
		divider,
		m.renderStatus(),
		m.renderSparkline(),
		divider,
		"Events:",
		m.vp.View(),
		divider,
		m.renderBottom(),
	}, "\n")
}

func (m tuiModel) renderHeader() string {
	return m.table.View()
}

func (m tuiModel) renderStatus() string {
	if m.last == nil {
		return dimStyle.Render("waiting for first tick...")
	}
	r := m.last
	total := 0
	if m.cfg != nil {
		total = m.cfg.TotalTicks()
	}
	return fmt.Sprintf("tick %d/%d  t=%.2fs  req=%d  err=%s  p95=%.0fms  retries=%d  queue=%d  circuit=%s  state=%s",
		r.Tick+1, total, r.Time, r.Requests,
		rateStyle(r.ErrorRate).Render(fmt.Sprintf("%.1f%%", r.ErrorRate)),
		r.P95Latency, r.RetryCount, r.QueueDepth,
		circuitStyle(r.CircuitState).Render(string(r.CircuitState)),
		stateStyle(r.SystemState).Render(string(r.SystemState)))
}

// renderSparkline draws recent error rates on a 0-100 scale.
func (m tuiModel) renderSparkline() string {
	var b strings.Builder
	b.WriteString("error rate ")
	for _, v := range m.history {
		idx := int(v / 100 * float64(len(sparkBlocks)-1))
		if idx < 0 {
			idx = 0
		}
		if idx >= len(sparkBlocks) {
			idx = len(sparkBlocks) - 1
		}
		b.WriteRune(sparkBlocks[idx])
	}
	return b.String()
}

func (m tuiModel) renderBottom() string {
	if m.summary != nil {
		s := m.summary
		return boldStyle.Render(fmt.Sprintf("done: %d requests, %.1f%% success, p95 %.0fms, downtime %.2fs. %s",
			s.TotalRequests, s.SuccessRate, s.P95Latency, s.DowntimeSec, s.MainCause))
	}
	scroll := "on"
	if !m.autoscroll {
		scroll = "off"
	}
	return dimStyle.Render(fmt.Sprintf("q quit  w wrap  s autoscroll (%s)  ? help", scroll))
}

func (m tuiModel) renderHelp() string {
	return strings.Join([]string{
		"Key Bindings:",
		"  q / ctrl+c   quit",
		"  w            toggle line wrap",
		"  s            toggle autoscroll",
		"  up / down    scroll events",
		"  ?            toggle this help",
	}, "\n")
}

func rateStyle(rate float64) lipgloss.Style {
	switch {
	case rate > 50:
		return badStyle
	case rate > 10:
		return warnStyle
	default:
		return okStyle
	}
}

func circuitStyle(s engine.CircuitState) lipgloss.Style {
	switch s {
	case engine.CircuitOpen:
		return badStyle
	case engine.CircuitHalfOpen:
		return warnStyle
	default:
		return okStyle
	}
}

func stateStyle(s engine.SystemState) lipgloss.Style {
	switch s {
	case engine.StateDown:
		return badStyle
	case engine.StateDegraded:
		return warnStyle
	default:
		return okStyle
	}
}
