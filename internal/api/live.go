package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/jhaugland01/ReliabilitySim/internal/engine"
	"github.com/jhaugland01/ReliabilitySim/internal/logging"
	"github.com/jhaugland01/ReliabilitySim/internal/sim"
	"github.com/jhaugland01/ReliabilitySim/internal/store"
)

const subscriberBuffer = 16

// liveRun is a Runner shared by every viewer of one run. It is cancelled
// when the last viewer leaves before the final tick.
type liveRun struct {
	runner  *sim.Runner
	ctx     context.Context
	cancel  context.CancelFunc
	viewers int
	done    chan struct{}
}

type tickFrame struct {
	Type   sim.UpdateType    `json:"type"`
	Data   engine.TickMetric `json:"data"`
	Events []engine.Event    `json:"events"`
}

type completeFrame struct {
	Type    sim.UpdateType `json:"type"`
	Summary engine.Summary `json:"summary"`
}

func frameFor(u sim.Update) any {
	if u.Type == sim.UpdateComplete {
		return completeFrame{Type: u.Type, Summary: *u.Summary}
	}
	events := u.Events
	if events == nil {
		events = []engine.Event{}
	}
	return tickFrame{Type: u.Type, Data: *u.Tick, Events: events}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	switch r.PathValue("transport") {
	case "stream":
		s.handleStream(w, r)
	case "ws":
		s.handleWebSocket(w, r)
	default:
		http.NotFound(w, r)
	}
}

// handleStream sends the run as server-sent events, one data frame per tick
// and a final complete frame.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		s.writeError(w, r, errors.New("streaming unsupported"))
		return
	}
	sub, detach, err := s.attach(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	defer detach()
	s.metrics.activeStreams.Inc()
	defer s.metrics.activeStreams.Dec()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case u, ok := <-sub.Updates():
			if !ok {
				return
			}
			b, err := json.Marshal(frameFor(u))
			if err != nil {
				s.log.Error("encode frame", "err", err)
				return
			}
			if _, err := fmt.Fprintf(w, "data: %s\n\n", b); err != nil {
				return
			}
			flusher.Flush()
			if u.Type == sim.UpdateComplete {
				return
			}
		}
	}
}

// handleWebSocket sends the same frames as handleStream as WebSocket JSON
// messages.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sub, detach, err := s.attach(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	defer detach()

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", "err", err)
		return
	}
	defer conn.Close()
	s.metrics.activeStreams.Inc()
	defer s.metrics.activeStreams.Dec()

	// The client sends nothing; reading only surfaces the close.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-closed:
			return
		case u, ok := <-sub.Updates():
			if !ok {
				return
			}
			if err := conn.WriteJSON(frameFor(u)); err != nil {
				return
			}
			if u.Type == sim.UpdateComplete {
				msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "run complete")
				_ = conn.WriteMessage(websocket.CloseMessage, msg)
				return
			}
		}
	}
}

// attach subscribes to the live run for runID, starting it if this is the
// first viewer. The returned func must be called when the viewer leaves.
func (s *Server) attach(ctx context.Context, runID string) (*sim.Subscription, func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// The store is consulted even when a runner exists: a run is marked
	// completed before its final update is published.
	run, err := s.store.GetRun(ctx, runID)
	if err != nil {
		return nil, nil, err
	}
	if run.Status != store.StatusRunning {
		return nil, nil, fmt.Errorf("%w: run %s is %s", errConflict, runID, run.Status)
	}

	lr, ok := s.live[runID]
	if ok && lr.ctx.Err() != nil {
		// The last viewer left and the run is being stopped.
		return nil, nil, fmt.Errorf("%w: run %s is stopping", errConflict, runID)
	}
	if !ok {
		if lr, err = s.startLive(ctx, run); err != nil {
			return nil, nil, err
		}
		s.live[runID] = lr
	}
	sub := lr.runner.Subscribe(subscriberBuffer)
	lr.viewers++
	if !ok {
		go s.drive(runID, lr)
	}

	detach := func() {
		sub.Cancel()
		s.mu.Lock()
		defer s.mu.Unlock()
		lr.viewers--
		if lr.viewers == 0 {
			lr.cancel()
		}
	}
	return sub, detach, nil
}

// startLive builds the Runner for a running run.
func (s *Server) startLive(ctx context.Context, run store.Run) (*liveRun, error) {
	sc, err := s.store.GetScenario(ctx, run.ScenarioID)
	if err != nil {
		return nil, err
	}
	eng, err := engine.New(sc.Config, engine.WithSeed(run.Seed))
	if err != nil {
		return nil, err
	}

	runCtx, cancel := context.WithCancel(logging.NewContext(context.Background(), s.log))
	// Store writes outlive a cancelled run so the partial series is kept.
	writer := sim.NewMultiWriter(
		sim.NewStoreWriter(context.WithoutCancel(runCtx), s.store, run.ID),
		tickCounter{c: s.metrics.ticksStreamed},
	)
	return &liveRun{
		runner: sim.NewRunner(run.ID, eng, writer, s.pace(sc.Config)),
		ctx:    runCtx,
		cancel: cancel,
		done:   make(chan struct{}),
	}, nil
}

func (s *Server) drive(runID string, lr *liveRun) {
	defer close(lr.done)
	defer lr.cancel()

	err := lr.runner.Run(lr.ctx)

	// The status changes before the entry is removed so that a viewer never
	// finds a stopped run both absent from live and still running.
	s.mu.Lock()
	defer s.mu.Unlock()
	ctx := context.WithoutCancel(lr.ctx)
	switch {
	case err == nil:
		s.metrics.runsCompleted.Inc()
	case errors.Is(err, context.Canceled):
		s.markCancelled(ctx, runID)
	default:
		s.log.Error("live run failed", "run_id", runID, "err", err)
		s.markCancelled(ctx, runID)
	}
	delete(s.live, runID)
}

func (s *Server) markCancelled(ctx context.Context, runID string) {
	if err := s.store.SetRunStatus(context.WithoutCancel(ctx), runID, store.StatusCancelled); err != nil {
		s.log.Error("mark run cancelled", "run_id", runID, "err", err)
		return
	}
	s.metrics.runsCancelled.Inc()
	s.log.Info("run cancelled", "run_id", runID)
}

// Shutdown cancels every live run and waits for them to stop.
func (s *Server) Shutdown() {
	s.mu.Lock()
	runs := make([]*liveRun, 0, len(s.live))
	for _, lr := range s.live {
		lr.cancel()
		runs = append(runs, lr)
	}
	s.mu.Unlock()
	for _, lr := range runs {
		<-lr.done
	}
}
