package engine

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/chao921125/scroll-seamless-sub000/config"
	"github.com/chao921125/scroll-seamless-sub000/direction"
	"github.com/chao921125/scroll-seamless-sub000/event"
	"github.com/chao921125/scroll-seamless-sub000/scheduler"
	"github.com/chao921125/scroll-seamless-sub000/status"
	"github.com/chao921125/scroll-seamless-sub000/transform"
)

const testInterval = 10 * time.Millisecond

type fakeNode struct {
	extent    float64
	trans     string
	attrs     map[string]float64
	failSet   bool
	panicOnce bool
}

func (n *fakeNode) Extent(axis direction.Axis) (float64, error) {
	return n.extent, nil
}

func (n *fakeNode) SetTranslation(desc string) error {
	if n.panicOnce {
		n.panicOnce = false
		panic("render backend gone")
	}
	if n.failSet {
		return fmt.Errorf("node rejected translation")
	}
	n.trans = desc
	return nil
}

func (n *fakeNode) Translation() string { return n.trans }

func (n *fakeNode) SetPositionAttr(prop string, px float64) error {
	if n.failSet {
		return fmt.Errorf("node rejected position attr")
	}
	n.attrs[prop] = px
	return nil
}

type fakeContainer struct{ extent float64 }

func (c fakeContainer) Extent(direction.Axis) (float64, error) { return c.extent, nil }

type fakeFactory struct {
	itemExtent float64
	created    []*fakeNode
	copiesSeen []int
	releases   int
}

func (f *fakeFactory) NewBlock(track int, data []string, copies int) (transform.Node, error) {
	n := &fakeNode{
		extent: f.itemExtent * float64(len(data)*copies),
		attrs:  make(map[string]float64),
	}
	f.created = append(f.created, n)
	f.copiesSeen = append(f.copiesSeen, copies)
	return n, nil
}

func (f *fakeFactory) Release(transform.Node) { f.releases++ }

// harness wires an engine to a manually clocked scheduler so tests drive
// frames deterministically.
type harness struct {
	eng     *Engine
	sched   *scheduler.Scheduler
	clock   *scheduler.ManualClock
	factory *fakeFactory
	events  []event.Event
}

func newHarness(t *testing.T, mutate func(*config.Config)) *harness {
	t.Helper()
	h := &harness{
		clock:   scheduler.NewManualClock(time.Unix(1000, 0)),
		factory: &fakeFactory{itemExtent: 50},
	}
	reg := status.NewRegistry()
	h.sched = scheduler.New(testInterval, h.clock, reg)

	cfg := config.Default()
	cfg.Data = []string{"a", "b", "c", "d"}
	cfg.Step = 2
	cfg.OnEvent = func(ev event.Event) { h.events = append(h.events, ev) }
	if mutate != nil {
		mutate(&cfg)
	}

	eng, err := New(cfg, fakeContainer{extent: 100}, h.factory,
		WithScheduler(h.sched), WithRegistry(reg))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(eng.Destroy)
	h.eng = eng
	return h
}

func (h *harness) frames(n int) {
	for i := 0; i < n; i++ {
		h.clock.Advance(testInterval)
		h.sched.RunFrame()
	}
}

func (h *harness) hasEvent(typ event.Type) bool {
	for _, ev := range h.events {
		if ev.Type == typ {
			return true
		}
	}
	return false
}

func TestNewRejectsBadInputs(t *testing.T) {
	cfg := config.Default()
	cfg.Data = []string{"a", "b"}
	factory := &fakeFactory{itemExtent: 50}

	if _, err := New(cfg, nil, factory); !errors.Is(err, ErrContainerNotFound) {
		t.Fatalf("nil container: got %v, want ErrContainerNotFound", err)
	}
	if _, err := New(cfg, fakeContainer{extent: 100}, nil); !errors.Is(err, ErrFactoryRequired) {
		t.Fatalf("nil factory: got %v, want ErrFactoryRequired", err)
	}

	bad := cfg
	bad.Data = nil
	if _, err := New(bad, fakeContainer{extent: 100}, factory); !errors.Is(err, config.ErrInvalidData) {
		t.Fatalf("empty data: got %v, want ErrInvalidData", err)
	}

	bad = cfg
	bad.Direction = "sideways"
	if _, err := New(bad, fakeContainer{extent: 100}, factory); !errors.Is(err, direction.ErrInvalidDirection) {
		t.Fatalf("bad direction: got %v, want ErrInvalidDirection", err)
	}
}

func TestInitialLayout(t *testing.T) {
	h := newHarness(t, nil)

	if got := h.eng.GetPosition(); got != 0 {
		t.Fatalf("initial position = %v, want 0", got)
	}
	matrix := h.eng.GetRenderMatrix()
	if len(matrix) != 1 {
		t.Fatalf("render matrix tracks = %d, want 1", len(matrix))
	}
	// Left scroll at rest: block A on screen, block B one content
	// length past it on the entering edge.
	if matrix[0][0] != 0 || matrix[0][1] != 200 {
		t.Fatalf("render matrix = %v, want [0 200]", matrix[0])
	}

	blockA := h.factory.created[0]
	blockB := h.factory.created[1]
	if got := blockA.attrs["left"]; got != 0 {
		t.Fatalf("block A left attr = %v, want 0", got)
	}
	if got := blockB.attrs["left"]; got != -200 {
		t.Fatalf("block B left attr = %v, want -200", got)
	}
}

func TestPrefillReplicatesShortContent(t *testing.T) {
	h := newHarness(t, func(cfg *config.Config) {
		cfg.Data = []string{"a", "b", "c", "d"}
	})
	// 4 items at 50 cells each cover the container without replication.
	if got := h.factory.copiesSeen[len(h.factory.copiesSeen)-1]; got != 1 {
		t.Fatalf("copies = %d, want 1", got)
	}

	short := &fakeFactory{itemExtent: 10}
	cfg := config.Default()
	cfg.Data = []string{"a", "b", "c", "d"}
	eng, err := New(cfg, fakeContainer{extent: 100}, short)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer eng.Destroy()
	// Raw extent 40 against a 100-cell container needs 3 copies to cover
	// container plus safety margin.
	if got := short.copiesSeen[len(short.copiesSeen)-1]; got != 3 {
		t.Fatalf("copies = %d, want 3", got)
	}
}

func TestStartStopLifecycle(t *testing.T) {
	h := newHarness(t, nil)

	if err := h.eng.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if got := h.eng.State(); got != StateRunning {
		t.Fatalf("state = %v, want running", got)
	}
	if !h.hasEvent(event.Start) {
		t.Fatal("no start event emitted")
	}

	h.frames(5)
	if got := h.eng.GetPosition(); got != 10 {
		t.Fatalf("position after 5 frames = %v, want 10", got)
	}

	if err := h.eng.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if got := h.eng.State(); got != StateStopped {
		t.Fatalf("state = %v, want stopped", got)
	}
	pos := h.eng.GetPosition()
	h.frames(3)
	if got := h.eng.GetPosition(); got != pos {
		t.Fatalf("stopped engine moved: %v -> %v", pos, got)
	}
	if !h.hasEvent(event.Stop) {
		t.Fatal("no stop event emitted")
	}
}

func TestStartBelowScrollThreshold(t *testing.T) {
	h := newHarness(t, func(cfg *config.Config) {
		cfg.MinCountToScroll = 10
	})
	if err := h.eng.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if got := h.eng.State(); got != StateStopped {
		t.Fatalf("state = %v, want stopped below threshold", got)
	}
	if !h.hasEvent(event.Warning) {
		t.Fatal("no warning event for below-threshold start")
	}
	h.frames(3)
	if got := h.eng.GetPosition(); got != 0 {
		t.Fatalf("below-threshold engine moved to %v", got)
	}
}

func TestDestroyIsTerminal(t *testing.T) {
	h := newHarness(t, nil)
	if err := h.eng.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	h.eng.Destroy()

	if got := h.eng.State(); got != StateDestroyed {
		t.Fatalf("state = %v, want destroyed", got)
	}
	if h.factory.releases < 2 {
		t.Fatalf("releases = %d, want at least 2", h.factory.releases)
	}
	if !h.hasEvent(event.Destroy) {
		t.Fatal("no destroy event emitted")
	}
	if err := h.eng.Start(); !errors.Is(err, ErrEngineDestroyed) {
		t.Fatalf("Start after destroy: got %v, want ErrEngineDestroyed", err)
	}
	if err := h.eng.Pause(); !errors.Is(err, ErrEngineDestroyed) {
		t.Fatalf("Pause after destroy: got %v, want ErrEngineDestroyed", err)
	}
	// Destroy twice is fine.
	h.eng.Destroy()
}

func TestPauseResumeKeepsPosition(t *testing.T) {
	h := newHarness(t, nil)
	if err := h.eng.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	h.frames(5)

	if err := h.eng.Pause(); err != nil {
		t.Fatalf("Pause: %v", err)
	}
	if got := h.eng.State(); got != StatePaused {
		t.Fatalf("state = %v, want paused", got)
	}
	paused := h.eng.GetPosition()
	if paused != 10 {
		t.Fatalf("paused position = %v, want 10", paused)
	}
	h.frames(4)
	if got := h.eng.GetPosition(); got != paused {
		t.Fatalf("paused engine moved: %v -> %v", paused, got)
	}
	transforms := h.eng.GetTransforms()
	if transforms[0][0] != "translateX(-10px)" {
		t.Fatalf("paused transform = %q, want translateX(-10px)", transforms[0][0])
	}

	if err := h.eng.Resume(); err != nil {
		t.Fatalf("Resume: %v", err)
	}
	h.frames(1)
	if got := h.eng.GetPosition(); got != paused+2 {
		t.Fatalf("resumed position = %v, want %v", got, paused+2)
	}
	if !h.hasEvent(event.Pause) || !h.hasEvent(event.Resume) {
		t.Fatal("missing pause/resume events")
	}
}

func TestHoverPausesOnlyWhenEnabled(t *testing.T) {
	h := newHarness(t, nil)
	if err := h.eng.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	h.frames(2)

	h.eng.HoverEnter()
	if got := h.eng.State(); got != StatePaused {
		t.Fatalf("state after hover enter = %v, want paused", got)
	}
	h.eng.HoverLeave()
	if got := h.eng.State(); got != StateRunning {
		t.Fatalf("state after hover leave = %v, want running", got)
	}

	// Hover must not undo an explicit pause.
	if err := h.eng.Pause(); err != nil {
		t.Fatalf("Pause: %v", err)
	}
	h.eng.HoverEnter()
	h.eng.HoverLeave()
	if got := h.eng.State(); got != StatePaused {
		t.Fatalf("hover leave resumed an explicit pause: state = %v", got)
	}

	off := newHarness(t, func(cfg *config.Config) { cfg.HoverStop = false })
	if err := off.eng.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	off.eng.HoverEnter()
	if got := off.eng.State(); got != StateRunning {
		t.Fatalf("hover paused with hoverStop disabled: state = %v", got)
	}
}

func TestNudgeRequiresWheelEnable(t *testing.T) {
	h := newHarness(t, func(cfg *config.Config) { cfg.WheelEnable = true })
	if err := h.eng.Nudge(5); err != nil {
		t.Fatalf("Nudge: %v", err)
	}
	if got := h.eng.GetPosition(); got != 5 {
		t.Fatalf("position after nudge = %v, want 5", got)
	}

	off := newHarness(t, nil)
	if err := off.eng.Nudge(5); err != nil {
		t.Fatalf("Nudge: %v", err)
	}
	if got := off.eng.GetPosition(); got != 0 {
		t.Fatalf("nudge moved engine with wheel disabled: %v", got)
	}
}

func TestNudgeWrapsBothWays(t *testing.T) {
	h := newHarness(t, func(cfg *config.Config) { cfg.WheelEnable = true })

	// Backward from the rest position folds through the far bound instead
	// of drifting out of range.
	if err := h.eng.Nudge(-6); err != nil {
		t.Fatalf("Nudge: %v", err)
	}
	if got := h.eng.GetPosition(); got != 194 {
		t.Fatalf("position after backward nudge = %v, want 194", got)
	}
	if err := h.eng.Nudge(6); err != nil {
		t.Fatalf("Nudge: %v", err)
	}
	if got := h.eng.GetPosition(); got != 0 {
		t.Fatalf("position after forward nudge = %v, want 0", got)
	}

	// Many backward nudges stay inside [0, contentSize).
	for i := 0; i < 100; i++ {
		if err := h.eng.Nudge(-7); err != nil {
			t.Fatalf("Nudge: %v", err)
		}
		if got := h.eng.GetPosition(); got < 0 || got >= 200 {
			t.Fatalf("nudge %d drifted out of range: %v", i, got)
		}
	}
}

func TestResumeRollsBackOnDiscontinuity(t *testing.T) {
	h := newHarness(t, nil)
	if err := h.eng.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	h.frames(5)
	if err := h.eng.Pause(); err != nil {
		t.Fatalf("Pause: %v", err)
	}
	paused := h.eng.GetPosition()
	if paused != 10 {
		t.Fatalf("paused position = %v, want 10", paused)
	}

	// Something outside the engine rewrites the frozen translation while
	// paused. Resume must notice the jump and pull the track back.
	h.factory.created[0].trans = "translateX(-90px)"

	if err := h.eng.Resume(); err != nil {
		t.Fatalf("Resume: %v", err)
	}
	if got := h.eng.GetPosition(); got != paused {
		t.Fatalf("resumed position = %v, want rollback to %v", got, paused)
	}
	transforms := h.eng.GetTransforms()
	if transforms[0][0] != "translateX(-10px)" {
		t.Fatalf("resumed transform = %q, want translateX(-10px)", transforms[0][0])
	}

	drift := false
	for _, ev := range h.events {
		if ev.Type != event.Warning {
			continue
		}
		if p, ok := ev.Payload.(event.WarningPayload); ok && p.Code == "continuityDrift" {
			drift = true
		}
	}
	if !drift {
		t.Fatal("no continuityDrift warning emitted")
	}
}

func TestSetPositionValidatesRange(t *testing.T) {
	h := newHarness(t, nil)
	if err := h.eng.SetPosition(150); err != nil {
		t.Fatalf("SetPosition: %v", err)
	}
	if got := h.eng.GetPosition(); got != 150 {
		t.Fatalf("position = %v, want 150", got)
	}
	// Magnitudes beyond three content lengths are rejected.
	if err := h.eng.SetPosition(700); err == nil {
		t.Fatal("SetPosition accepted out-of-range value")
	}
	if got := h.eng.GetPosition(); got != 150 {
		t.Fatalf("failed SetPosition moved engine to %v", got)
	}
}

func TestStatsSnapshot(t *testing.T) {
	h := newHarness(t, nil)
	if err := h.eng.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	h.frames(3)

	stats := h.eng.Stats()
	if got, ok := stats["engine.state"].(string); !ok || got != "running" {
		t.Fatalf("engine.state = %v, want running", stats["engine.state"])
	}
	if got, ok := stats["scheduler.frames"].(int64); !ok || got != 3 {
		t.Fatalf("scheduler.frames = %v, want 3", stats["scheduler.frames"])
	}
}
