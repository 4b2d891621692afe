package scheduler

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/chao921125/scroll-seamless-sub000/status"
)

func testClock() *ManualClock {
	return NewManualClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
}

func TestRunFramePriorityOrder(t *testing.T) {
	s := New(DefaultFrameInterval, testClock(), nil)

	var order []string
	record := func(id string) Callback {
		return func(time.Time) bool {
			order = append(order, id)
			return true
		}
	}
	s.Schedule("low", 1, record("low"))
	s.Schedule("high", 10, record("high"))
	s.Schedule("mid", 5, record("mid"))

	s.RunFrame()
	want := []string{"high", "mid", "low"}
	for i, id := range want {
		if order[i] != id {
			t.Fatalf("execution order = %v, want %v", order, want)
		}
	}
}

func TestPauseSkipsWithoutRemoving(t *testing.T) {
	s := New(DefaultFrameInterval, testClock(), nil)

	var calls int
	s.Schedule("track-0", 0, func(time.Time) bool {
		calls++
		return true
	})

	s.RunFrame()
	if err := s.Pause("track-0"); err != nil {
		t.Fatal(err)
	}
	s.RunFrame()
	s.RunFrame()
	if calls != 1 {
		t.Errorf("calls = %d, want 1 while paused", calls)
	}
	if !s.Paused("track-0") {
		t.Error("task must report paused")
	}
	if s.TaskCount() != 1 {
		t.Error("pause must not remove the task")
	}

	if err := s.Resume("track-0"); err != nil {
		t.Fatal(err)
	}
	s.RunFrame()
	if calls != 2 {
		t.Errorf("calls = %d, want 2 after resume", calls)
	}
}

func TestPauseUnknownTask(t *testing.T) {
	s := New(DefaultFrameInterval, testClock(), nil)
	if err := s.Pause("ghost"); !errors.Is(err, ErrUnknownTask) {
		t.Errorf("error = %v, want ErrUnknownTask", err)
	}
	if err := s.Resume("ghost"); !errors.Is(err, ErrUnknownTask) {
		t.Errorf("error = %v, want ErrUnknownTask", err)
	}
}

func TestCallbackReturningFalseUnschedules(t *testing.T) {
	s := New(DefaultFrameInterval, testClock(), nil)

	remaining := 2
	s.Schedule("finite", 0, func(time.Time) bool {
		remaining--
		return remaining > 0
	})

	s.RunFrame()
	s.RunFrame()
	s.RunFrame() // must not call again
	if remaining != 0 {
		t.Errorf("remaining = %d, want 0", remaining)
	}
	if s.TaskCount() != 0 {
		t.Error("finished task must be unscheduled")
	}
}

func TestScheduleExistingKeepsPausedFlag(t *testing.T) {
	s := New(DefaultFrameInterval, testClock(), nil)
	s.Schedule("track-0", 0, func(time.Time) bool { return true })
	if err := s.Pause("track-0"); err != nil {
		t.Fatal(err)
	}
	s.Schedule("track-0", 3, func(time.Time) bool { return true })
	if !s.Paused("track-0") {
		t.Error("rescheduling must not resume a paused task")
	}
}

func TestFrameCountersAndFPS(t *testing.T) {
	clock := testClock()
	reg := status.NewRegistry()
	s := New(DefaultFrameInterval, clock, reg)

	for i := 0; i < 10; i++ {
		s.RunFrame()
		clock.Advance(20 * time.Millisecond) // 50Hz cadence
	}
	if s.FrameCount() != 10 {
		t.Errorf("frameCount = %d, want 10", s.FrameCount())
	}
	if got := reg.Ints.Get("scheduler.frames").Load(); got != 10 {
		t.Errorf("scheduler.frames = %d, want 10", got)
	}
	fps := s.FPS()
	if fps < 45 || fps > 55 {
		t.Errorf("fps = %v, want ~50", fps)
	}
}

func TestStartStopChurn(t *testing.T) {
	// Start and Stop hammered from many goroutines must never close a stale
	// stop channel or leave the loop goroutine behind.
	s := New(time.Millisecond, nil, nil)
	s.Schedule("spin", 0, func(time.Time) bool { return true })

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				s.Start()
				s.Stop()
			}
		}()
	}
	wg.Wait()

	s.Stop()
	if s.Running() {
		t.Error("scheduler must settle stopped")
	}
}

func TestStartStopLoop(t *testing.T) {
	s := New(time.Millisecond, nil, nil)

	var calls atomic.Int64
	s.Schedule("spin", 0, func(time.Time) bool {
		calls.Add(1)
		return true
	})

	s.Start()
	if !s.Running() {
		t.Fatal("scheduler must report running")
	}
	deadline := time.Now().Add(time.Second)
	for calls.Load() < 3 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	s.Stop()
	if s.Running() {
		t.Error("scheduler must report stopped")
	}
	if calls.Load() < 3 {
		t.Errorf("calls = %d, want >= 3", calls.Load())
	}

	// Stop twice is safe; restart picks tasks back up.
	s.Stop()
	before := calls.Load()
	s.Start()
	deadline = time.Now().Add(time.Second)
	for calls.Load() == before && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	s.Stop()
	if calls.Load() == before {
		t.Error("restart must resume task execution")
	}
}
