package engine

import (
	"errors"
	"time"

	"github.com/chao921125/scroll-seamless-sub000/continuity"
	"github.com/chao921125/scroll-seamless-sub000/direction"
	"github.com/chao921125/scroll-seamless-sub000/position"
	"github.com/chao921125/scroll-seamless-sub000/transform"
)

// Strategy is a recovery tier. Tiers escalate from least to most
// disruptive as failures repeat on the same track.
type Strategy int

const (
	// StrategyResync re-adopts the rendered position as truth.
	StrategyResync Strategy = iota
	// StrategyDegrade halves the step so a struggling renderer keeps up.
	StrategyDegrade
	// StrategyReset snaps the track back to the zero rest position.
	StrategyReset
	// StrategyRebuild releases and recreates the track's blocks.
	StrategyRebuild
	// StrategyStop halts the whole engine; scrolling is worse than wrong.
	StrategyStop
)

func (s Strategy) String() string {
	switch s {
	case StrategyResync:
		return "resync"
	case StrategyDegrade:
		return "degrade"
	case StrategyReset:
		return "reset"
	case StrategyRebuild:
		return "rebuild"
	case StrategyStop:
		return "stop"
	}
	return "unknown"
}

// failStreak thresholds for escalation.
const (
	streakReset   = 3
	streakRebuild = 5
	streakStop    = 8
)

// chooseStrategy maps an error and the track's consecutive failure count
// to a recovery tier.
func chooseStrategy(err error, streak int) Strategy {
	switch {
	case streak >= streakStop:
		return StrategyStop
	case streak >= streakRebuild:
		return StrategyRebuild
	case streak >= streakReset:
		return StrategyReset
	}
	switch {
	case errors.Is(err, continuity.ErrSyncFailed):
		return StrategyResync
	case errors.Is(err, position.ErrValidation):
		return StrategyReset
	case errors.Is(err, transform.ErrNilNode):
		return StrategyRebuild
	case errors.Is(err, ErrContainerNotFound):
		return StrategyStop
	default:
		return StrategyDegrade
	}
}

// recoverTrack runs the chosen recovery tier for a frame-path failure.
// Caller holds e.mu.
func (e *Engine) recoverTrack(t *Track, cause error) {
	t.failures++
	t.cleanFrames = 0
	strategy := chooseStrategy(cause, t.failures)
	e.logger.Warn("recovering track", "track", t.index, "strategy", strategy.String(), "streak", t.failures, "cause", cause)
	e.reg.Ints.Get("engine.recoveries").Add(1)

	switch strategy {
	case StrategyResync:
		if _, err := continuity.PauseAtCurrentPosition(t.state, e.cfg.Direction, continuity.PauseOptions{}); err != nil {
			e.emitError(err, t.index, "recover.resync")
			e.resetTrack(t)
		}
	case StrategyDegrade:
		if !e.degraded {
			e.degraded = true
			e.emitWarning("degradedMode", "step halved after frame failure", t.index)
		}
	case StrategyReset:
		e.resetTrack(t)
	case StrategyRebuild:
		e.rebuildOneTrack(t)
	case StrategyStop:
		e.emitWarning("emergencyStop", "repeated frame failures, engine stopped", t.index)
		e.unscheduleAll()
		e.setState(StateStopped)
		// This runs on the frame goroutine; stopping the loop synchronously
		// here would wait on the frame in flight.
		if e.ownSched {
			go e.sched.Stop()
		}
	}
}

// rebuildOneTrack recreates a single track's blocks in place.
func (e *Engine) rebuildOneTrack(t *Track) {
	dcfg := direction.MustConfig(e.cfg.Direction)
	containerSize, err := e.container.Extent(dcfg.Axis)
	if err != nil || containerSize <= 0 {
		e.emitError(ErrContainerNotFound, t.index, "recover.rebuild")
		return
	}
	fresh, err := e.buildTrack(t.index, dcfg, containerSize)
	if err != nil {
		e.emitError(err, t.index, "recover.rebuild")
		return
	}
	t.release(e.factory)
	for i, cur := range e.tracks {
		if cur == t {
			fresh.failures = t.failures
			e.tracks[i] = fresh
			if e.state == StateRunning || e.state == StatePaused {
				e.sched.Unschedule(t.taskID)
				ft := fresh
				e.sched.Schedule(ft.taskID, 0, func(now time.Time) bool {
					return e.tick(ft, now)
				})
				if e.state == StatePaused {
					e.sched.Pause(ft.taskID)
				}
			}
			break
		}
	}
}

// noteCleanFrame restores full step once a track goes a full blank-check
// interval without failures.
func (e *Engine) noteCleanFrame(t *Track) {
	if t.failures == 0 {
		return
	}
	t.cleanFrames++
	if t.cleanFrames >= blankCheckInterval {
		t.failures = 0
		t.cleanFrames = 0
		e.degraded = false
	}
}
