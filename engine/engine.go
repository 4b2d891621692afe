package engine

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/chao921125/scroll-seamless-sub000/config"
	"github.com/chao921125/scroll-seamless-sub000/direction"
	"github.com/chao921125/scroll-seamless-sub000/event"
	"github.com/chao921125/scroll-seamless-sub000/position"
	"github.com/chao921125/scroll-seamless-sub000/scheduler"
	"github.com/chao921125/scroll-seamless-sub000/status"
	"github.com/chao921125/scroll-seamless-sub000/transform"
)

// Container is the viewport the scrolling content moves through. The
// engine never creates containers, it only measures them.
type Container interface {
	Extent(axis direction.Axis) (float64, error)
}

// BlockFactory creates the paired content blocks for a track. copies is
// the replication count decided by pre-fill; implementations render the
// data that many times inside one block.
type BlockFactory interface {
	NewBlock(track int, data []string, copies int) (transform.Node, error)
	Release(node transform.Node)
}

// Lifecycle is the engine state machine. Destroyed is terminal.
type Lifecycle int32

const (
	StateStopped Lifecycle = iota
	StateRunning
	StatePaused
	StateDestroyed
)

func (s Lifecycle) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StateRunning:
		return "running"
	case StatePaused:
		return "paused"
	case StateDestroyed:
		return "destroyed"
	}
	return "unknown"
}

// Engine drives one or more seamless scroll tracks against a shared
// frame scheduler. All exported methods are safe for concurrent use.
type Engine struct {
	mu sync.Mutex

	cfg       config.Config
	container Container
	factory   BlockFactory

	logger   *log.Logger
	sched    *scheduler.Scheduler
	ownSched bool
	reg      *status.Registry
	queue    *event.Queue
	disp     *event.Dispatcher
	measurer *position.Measurer

	tracks []*Track
	state  Lifecycle

	hovered     bool
	hoverPaused bool
	nonVisual   bool
	degraded    bool

	resumeNotBefore time.Time

	statState *status.AtomicString
}

// Option configures optional engine collaborators.
type Option func(*Engine)

// WithLogger replaces the default discard logger.
func WithLogger(l *log.Logger) Option { return func(e *Engine) { e.logger = l } }

// WithScheduler shares an external scheduler between engines. The engine
// will not start or stop a shared scheduler.
func WithScheduler(s *scheduler.Scheduler) Option {
	return func(e *Engine) {
		e.sched = s
		e.ownSched = false
	}
}

// WithRegistry shares a status registry.
func WithRegistry(r *status.Registry) Option { return func(e *Engine) { e.reg = r } }

// NonVisual skips per-frame position validation. Intended for headless
// runs where blocks are synthetic and extents never change.
func NonVisual() Option { return func(e *Engine) { e.nonVisual = true } }

// New builds an engine, lays out its tracks at position zero and leaves
// it stopped. Invalid config, direction, or missing container/factory
// abort construction; layout-level problems degrade with warnings.
func New(cfg config.Config, container Container, factory BlockFactory, opts ...Option) (*Engine, error) {
	if container == nil {
		return nil, ErrContainerNotFound
	}
	if factory == nil {
		return nil, ErrFactoryRequired
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if _, err := direction.GetConfig(cfg.Direction); err != nil {
		return nil, err
	}

	e := &Engine{
		cfg:       cfg,
		container: container,
		factory:   factory,
		logger:    log.New(io.Discard),
		ownSched:  true,
		measurer:  position.NewMeasurer(),
		state:     StateStopped,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.reg == nil {
		e.reg = status.NewRegistry()
	}
	if e.sched == nil {
		e.sched = scheduler.New(cfg.FrameInterval, scheduler.NewSystemClock(), e.reg)
	}
	e.queue = event.NewQueue()
	e.disp = event.NewDispatcher(e.queue, cfg.OnEvent)
	e.statState = e.reg.Strings.Get("engine.state")
	e.statState.Store(e.state.String())

	if err := e.buildTracks(); err != nil {
		e.releaseTracks()
		return nil, err
	}
	return e, nil
}

// buildTracks creates and positions the block pairs for every track.
// Caller holds no lock yet (construction) or e.mu (rebuild).
func (e *Engine) buildTracks() error {
	dcfg := direction.MustConfig(e.cfg.Direction)
	containerSize, err := e.container.Extent(dcfg.Axis)
	if err != nil || containerSize <= 0 {
		return fmt.Errorf("%w: measuring container: %v", ErrContainerNotFound, err)
	}

	n := e.cfg.TrackCount()
	tracks := make([]*Track, 0, n)
	for i := 0; i < n; i++ {
		t, err := e.buildTrack(i, dcfg, containerSize)
		if err != nil {
			for _, built := range tracks {
				built.release(e.factory)
			}
			return err
		}
		tracks = append(tracks, t)
	}
	e.tracks = tracks
	e.reg.Ints.Get("engine.tracks").Store(int64(n))
	return nil
}

// Start schedules all track callbacks and begins animating. Starting an
// engine whose data is below the scroll threshold is a no-op with a
// warning: content stays statically positioned.
func (e *Engine) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == StateDestroyed {
		return ErrEngineDestroyed
	}
	if e.state == StateRunning {
		return nil
	}
	if !e.cfg.ShouldScroll() {
		e.logger.Warn("not enough content to scroll", "items", len(e.cfg.Data), "min", e.cfg.MinCountToScroll)
		e.emitWarning("belowScrollThreshold", "content below minimum scroll count", -1)
		e.flush()
		return nil
	}
	if e.cfg.Delay > 0 {
		e.resumeNotBefore = e.sched.Clock().Now().Add(e.cfg.Delay)
	}
	e.scheduleAll()
	if e.ownSched {
		e.sched.Start()
	}
	e.setState(StateRunning)
	e.emit(event.Start, nil)
	e.flush()
	e.logger.Info("engine started", "tracks", len(e.tracks), "direction", e.cfg.Direction)
	return nil
}

// Stop halts animation but keeps current positions and block layout so a
// later Start resumes seamlessly from rest. The scheduler is stopped
// outside the engine lock: an in-flight frame needs that lock to finish.
func (e *Engine) Stop() error {
	e.mu.Lock()
	if e.state == StateDestroyed {
		e.mu.Unlock()
		return ErrEngineDestroyed
	}
	if e.state == StateStopped {
		e.mu.Unlock()
		return nil
	}
	e.unscheduleAll()
	e.setState(StateStopped)
	e.emit(event.Stop, nil)
	e.flush()
	sched := e.ownedScheduler()
	e.mu.Unlock()

	if sched != nil {
		sched.Stop()
	}
	return nil
}

// Destroy stops the engine, releases all blocks and makes every further
// operation fail. Safe to call more than once.
func (e *Engine) Destroy() {
	e.mu.Lock()
	if e.state == StateDestroyed {
		e.mu.Unlock()
		return
	}
	e.unscheduleAll()
	e.releaseTracks()
	e.measurer.InvalidateAll()
	e.setState(StateDestroyed)
	e.emit(event.Destroy, nil)
	e.flush()
	e.logger.Info("engine destroyed")
	sched := e.ownedScheduler()
	e.mu.Unlock()

	if sched != nil {
		sched.Stop()
	}
}

func (e *Engine) ownedScheduler() *scheduler.Scheduler {
	if e.ownSched {
		return e.sched
	}
	return nil
}

// State reports the current lifecycle state.
func (e *Engine) State() Lifecycle {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Config returns a copy of the active configuration.
func (e *Engine) Config() config.Config {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cfg
}

// Stats snapshots the status registry.
func (e *Engine) Stats() map[string]any {
	return e.reg.Snapshot()
}

func (e *Engine) setState(s Lifecycle) {
	e.state = s
	e.statState.Store(s.String())
}

func (e *Engine) unscheduleAll() {
	for _, t := range e.tracks {
		e.sched.Unschedule(t.taskID)
	}
}

func (e *Engine) releaseTracks() {
	for _, t := range e.tracks {
		t.release(e.factory)
	}
	e.tracks = nil
}

func (e *Engine) emit(typ event.Type, payload any) {
	e.queue.Push(event.Event{
		Type:    typ,
		Payload: payload,
		Frame:   e.sched.FrameCount(),
		Time:    time.Now(),
	})
}

func (e *Engine) emitWarning(code, detail string, track int) {
	e.emit(event.Warning, event.WarningPayload{Code: code, Detail: detail, Track: track})
	e.reg.Ints.Get("engine.warnings").Add(1)
}

func (e *Engine) emitError(err error, track int, context string) {
	e.emit(event.Error, event.ErrorPayload{
		Tag:     errorTag(err),
		Err:     err,
		Track:   track,
		Context: context,
	})
	e.reg.Ints.Get("engine.errors").Add(1)
}

// flush drains queued events to the configured sink.
func (e *Engine) flush() {
	e.disp.DispatchAll()
}
