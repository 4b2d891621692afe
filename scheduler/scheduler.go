package scheduler

import (
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/chao921125/scroll-seamless-sub000/status"
)

// DefaultFrameInterval approximates a 60Hz display refresh.
const DefaultFrameInterval = 16667 * time.Microsecond

// fpsSmoothing is the EWMA weight of the newest frame interval.
const fpsSmoothing = 0.1

// Callback is one task's per-frame work. Returning false unschedules the
// task.
type Callback func(now time.Time) bool

// ErrUnknownTask is returned by Pause/Resume for ids never scheduled.
var ErrUnknownTask = fmt.Errorf("unknown animation task")

type task struct {
	id       string
	priority int
	paused   bool
	cb       Callback
}

// Scheduler runs all non-paused tasks once per frame, in priority order
// (higher first). A single goroutine drives the loop; drift is corrected the
// same way a fixed-tick game loop does it: the next deadline advances by the
// interval, snapping back when the loop falls more than two frames behind.
type Scheduler struct {
	mu    sync.Mutex
	tasks map[string]*task

	interval time.Duration
	clock    Clock

	running  atomic.Bool
	stopChan chan struct{}
	doneChan chan struct{}

	frameCount atomic.Uint64

	lastFrame time.Time
	fps       float64

	statFrames *atomic.Int64
	statFPS    *status.AtomicFloat
}

// New creates a stopped scheduler. A nil clock falls back to the system
// clock; reg may be nil when no diagnostics are wanted.
func New(interval time.Duration, clock Clock, reg *status.Registry) *Scheduler {
	if interval <= 0 {
		interval = DefaultFrameInterval
	}
	if clock == nil {
		clock = NewSystemClock()
	}
	s := &Scheduler{
		tasks:    make(map[string]*task),
		interval: interval,
		clock:    clock,
	}
	if reg != nil {
		s.statFrames = reg.Ints.Get("scheduler.frames")
		s.statFPS = reg.Floats.Get("scheduler.fps")
	}
	return s
}

// Clock exposes the scheduler's time source so callers can schedule
// deadlines on the same timeline the frame loop runs on.
func (s *Scheduler) Clock() Clock {
	return s.clock
}

// Schedule registers or replaces a task. Scheduling an existing id keeps its
// paused flag so a hot-swapped callback does not silently resume.
func (s *Scheduler) Schedule(id string, priority int, cb Callback) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.tasks[id]; ok {
		existing.priority = priority
		existing.cb = cb
		return
	}
	s.tasks[id] = &task{id: id, priority: priority, cb: cb}
}

// Unschedule removes a task from the next-frame set. Cancellation is
// cooperative: a task already running this frame finishes its call.
func (s *Scheduler) Unschedule(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tasks, id)
}

// Pause marks a task skipped without removing it, preserving its state.
func (s *Scheduler) Pause(id string) error {
	return s.setPaused(id, true)
}

// Resume clears a task's paused flag.
func (s *Scheduler) Resume(id string) error {
	return s.setPaused(id, false)
}

func (s *Scheduler) setPaused(id string, paused bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownTask, id)
	}
	t.paused = paused
	return nil
}

// Paused reports a task's paused flag; unknown ids report false.
func (s *Scheduler) Paused(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	return ok && t.paused
}

// TaskCount returns the number of scheduled tasks, paused included.
func (s *Scheduler) TaskCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

// Start launches the frame loop. Starting a running scheduler is a no-op.
func (s *Scheduler) Start() {
	// The flag flip and the channel swap must be atomic together, or a
	// concurrent Stop could close a channel from a previous run.
	s.mu.Lock()
	if !s.running.CompareAndSwap(false, true) {
		s.mu.Unlock()
		return
	}
	s.stopChan = make(chan struct{})
	s.doneChan = make(chan struct{})
	go s.loop(s.stopChan, s.doneChan)
	s.mu.Unlock()
}

// Stop halts the frame loop and waits for the in-flight frame. Tasks stay
// registered; Start resumes them where they left off.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running.CompareAndSwap(true, false) {
		s.mu.Unlock()
		return
	}
	close(s.stopChan)
	done := s.doneChan
	s.mu.Unlock()
	<-done
}

// Running reports whether the frame loop is live.
func (s *Scheduler) Running() bool {
	return s.running.Load()
}

// loop is the single frame-driving goroutine. Each run gets its own stop
// and done channels so an overlapping Stop/Start cycle never touches the
// channels of another run.
func (s *Scheduler) loop(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	timer := time.NewTimer(0)
	if !timer.Stop() {
		select {
		case <-timer.C:
		default:
		}
	}
	defer timer.Stop()

	deadline := s.clock.Now().Add(s.interval)
	for {
		sleep := deadline.Sub(s.clock.Now())
		if sleep > 0 {
			timer.Reset(sleep)
			select {
			case <-timer.C:
			case <-stop:
				return
			}
		} else {
			select {
			case <-stop:
				return
			default:
			}
		}

		s.RunFrame()

		deadline = deadline.Add(s.interval)
		if behind := s.clock.Now().Sub(deadline); behind > 2*s.interval {
			deadline = s.clock.Now().Add(s.interval)
		}
	}
}

// RunFrame executes one frame synchronously: all non-paused tasks in
// priority order. Exposed so tests and non-visual hosts can drive frames
// without the loop goroutine.
func (s *Scheduler) RunFrame() {
	now := s.clock.Now()

	s.mu.Lock()
	runnable := make([]*task, 0, len(s.tasks))
	for _, t := range s.tasks {
		if !t.paused {
			runnable = append(runnable, t)
		}
	}
	sort.Slice(runnable, func(i, j int) bool {
		if runnable[i].priority != runnable[j].priority {
			return runnable[i].priority > runnable[j].priority
		}
		return runnable[i].id < runnable[j].id
	})

	s.observeFrame(now)
	s.mu.Unlock()

	var done []string
	for _, t := range runnable {
		if !t.cb(now) {
			done = append(done, t.id)
		}
	}

	if len(done) > 0 {
		s.mu.Lock()
		for _, id := range done {
			delete(s.tasks, id)
		}
		s.mu.Unlock()
	}

	s.frameCount.Add(1)
	if s.statFrames != nil {
		s.statFrames.Add(1)
	}
}

// observeFrame updates the frame-rate estimate; caller holds mu.
func (s *Scheduler) observeFrame(now time.Time) {
	if !s.lastFrame.IsZero() {
		if dt := now.Sub(s.lastFrame).Seconds(); dt > 0 {
			inst := 1.0 / dt
			if s.fps == 0 {
				s.fps = inst
			} else {
				s.fps = s.fps*(1-fpsSmoothing) + inst*fpsSmoothing
			}
			if s.statFPS != nil {
				s.statFPS.Set(s.fps)
			}
		}
	}
	s.lastFrame = now
}

// FPS returns the smoothed observed frame rate.
func (s *Scheduler) FPS() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fps
}

// FrameCount returns the number of frames executed since creation.
func (s *Scheduler) FrameCount() uint64 {
	return s.frameCount.Load()
}
