package engine

import (
	"fmt"
	"time"

	"github.com/chao921125/scroll-seamless-sub000/config"
	"github.com/chao921125/scroll-seamless-sub000/direction"
	"github.com/chao921125/scroll-seamless-sub000/event"
	"github.com/chao921125/scroll-seamless-sub000/position"
	"github.com/chao921125/scroll-seamless-sub000/scheduler"
	"github.com/chao921125/scroll-seamless-sub000/transform"
)

// SetOptions applies a partial config update to a live engine. Same-axis
// direction changes preserve the rendered position; axis changes rebuild
// the tracks and carry the position over when it fits the new geometry.
// A failed direction change rolls back to the previous state.
func (e *Engine) SetOptions(u config.Update) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == StateDestroyed {
		return ErrEngineDestroyed
	}

	newCfg := e.cfg.Apply(u)
	if err := newCfg.Validate(); err != nil {
		return err
	}

	oldCfg := e.cfg
	switch {
	case newCfg.Direction == oldCfg.Direction:
		if err := e.applyQuietUpdate(oldCfg, newCfg); err != nil {
			return err
		}
	case direction.MustConfig(newCfg.Direction).Axis == direction.MustConfig(oldCfg.Direction).Axis:
		if err := e.changeDirectionSameAxis(oldCfg, newCfg); err != nil {
			return err
		}
	default:
		if err := e.changeAxis(oldCfg, newCfg); err != nil {
			return err
		}
	}
	e.flush()
	return nil
}

// applyQuietUpdate handles updates that keep the direction: data and
// layout changes rebuild tracks, interval changes swap the scheduler,
// everything else is a plain config store.
func (e *Engine) applyQuietUpdate(oldCfg, newCfg config.Config) error {
	rebuild := newCfg.TrackCount() != oldCfg.TrackCount() || !sameData(oldCfg.Data, newCfg.Data)
	e.cfg = newCfg

	if rebuild {
		if err := e.rebuildTracksCarry(); err != nil {
			e.cfg = oldCfg
			return err
		}
	}
	if newCfg.FrameInterval != oldCfg.FrameInterval && e.ownSched {
		e.swapScheduler(newCfg.FrameInterval)
	}
	e.emit(event.Update, event.UpdatePayload{From: oldCfg.Direction, To: newCfg.Direction})
	return nil
}

// changeDirectionSameAxis flips scroll direction without disturbing what
// is on screen: the rendered offset is invariant, so the new logical
// position is the negation of the old one.
func (e *Engine) changeDirectionSameAxis(oldCfg, newCfg config.Config) error {
	type saved struct{ logical float64 }
	prev := make([]saved, len(e.tracks))
	for i, t := range e.tracks {
		prev[i] = saved{logical: t.state.Logical}
	}

	e.cfg = newCfg
	dcfg := direction.MustConfig(newCfg.Direction)
	for i, t := range e.tracks {
		carried := -prev[i].logical
		if err := position.Validate(carried, t.state.ContentSize, t.state.ContainerSize, newCfg.Direction); err != nil {
			e.rollbackDirection(oldCfg, prev[i].logical, i)
			return fmt.Errorf("%w: track %d: %v", ErrDirectionChangeFailed, t.index, err)
		}
		offsets, err := position.InitialOffsets(t.state.ContentSize, newCfg.Direction)
		if err != nil {
			e.rollbackDirection(oldCfg, prev[i].logical, i)
			return fmt.Errorf("%w: %v", ErrDirectionChangeFailed, err)
		}
		if err := t.state.BlockA.SetPositionAttr(dcfg.PositionProp, offsets.ContentA); err != nil {
			e.rollbackDirection(oldCfg, prev[i].logical, i)
			return fmt.Errorf("%w: %v", ErrDirectionChangeFailed, err)
		}
		if err := t.state.BlockB.SetPositionAttr(dcfg.PositionProp, offsets.ContentB); err != nil {
			e.rollbackDirection(oldCfg, prev[i].logical, i)
			return fmt.Errorf("%w: %v", ErrDirectionChangeFailed, err)
		}
		if err := transform.ApplySeamlessPair(t.state.BlockA, t.state.BlockB, carried, t.state.ContentSize, newCfg.Direction); err != nil {
			e.rollbackDirection(oldCfg, prev[i].logical, i)
			return fmt.Errorf("%w: %v", ErrDirectionChangeFailed, err)
		}
		t.state.Logical = carried
		t.stepTarget = nil
	}

	carried := 0.0
	if len(e.tracks) > 0 {
		carried = e.tracks[0].state.Logical
	}
	e.emit(event.Update, event.UpdatePayload{
		From:            oldCfg.Direction,
		To:              newCfg.Direction,
		CarriedPosition: &carried,
	})
	e.logger.Info("direction changed", "from", oldCfg.Direction, "to", newCfg.Direction)
	return nil
}

// rollbackDirection restores the old config and re-freezes tracks up to
// and including index i at their previous positions.
func (e *Engine) rollbackDirection(oldCfg config.Config, logical float64, i int) {
	e.cfg = oldCfg
	dcfg := direction.MustConfig(oldCfg.Direction)
	for j := 0; j <= i && j < len(e.tracks); j++ {
		t := e.tracks[j]
		if offsets, err := position.InitialOffsets(t.state.ContentSize, oldCfg.Direction); err == nil {
			t.state.BlockA.SetPositionAttr(dcfg.PositionProp, offsets.ContentA)
			t.state.BlockB.SetPositionAttr(dcfg.PositionProp, offsets.ContentB)
		}
		restore := t.state.Logical
		if j == i {
			restore = logical
		}
		if err := transform.ApplySeamlessPair(t.state.BlockA, t.state.BlockB, restore, t.state.ContentSize, oldCfg.Direction); err != nil {
			e.emitError(err, j, "directionRollback")
			continue
		}
		t.state.Logical = restore
	}
}

// changeAxis rebuilds tracks in the new orientation. Logical positions
// are carried over when they stay valid against the new geometry.
func (e *Engine) changeAxis(oldCfg, newCfg config.Config) error {
	e.cfg = newCfg
	if err := e.rebuildTracksCarry(); err != nil {
		e.cfg = oldCfg
		return fmt.Errorf("%w: %v", ErrDirectionChangeFailed, err)
	}
	var carried *float64
	if len(e.tracks) > 0 && e.tracks[0].state.Logical != 0 {
		v := e.tracks[0].state.Logical
		carried = &v
	}
	e.emit(event.Update, event.UpdatePayload{
		From:            oldCfg.Direction,
		To:              newCfg.Direction,
		AxisChanged:     true,
		CarriedPosition: carried,
	})
	e.logger.Info("axis changed", "from", oldCfg.Direction, "to", newCfg.Direction)
	return nil
}

// UpdateData swaps the content list, invalidates cached measurements and
// relays out every track, preserving positions that remain valid.
func (e *Engine) UpdateData(items []string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == StateDestroyed {
		return ErrEngineDestroyed
	}
	newCfg := e.cfg
	newCfg.Data = items
	if err := newCfg.Validate(); err != nil {
		return err
	}
	oldCfg := e.cfg
	e.cfg = newCfg
	e.measurer.InvalidateAll()
	if err := e.rebuildTracksCarry(); err != nil {
		e.cfg = oldCfg
		return err
	}
	e.emit(event.Update, event.UpdatePayload{From: oldCfg.Direction, To: newCfg.Direction})
	e.flush()
	return nil
}

// rebuildTracksCarry tears tracks down and rebuilds them under the
// current config, carrying each logical position forward best-effort.
// Running engines get their scheduler tasks re-registered.
func (e *Engine) rebuildTracksCarry() error {
	logicals := make([]float64, len(e.tracks))
	for i, t := range e.tracks {
		logicals[i] = t.state.Logical
	}
	e.unscheduleAll()
	e.releaseTracks()

	if err := e.buildTracks(); err != nil {
		return err
	}
	for i, t := range e.tracks {
		if i >= len(logicals) || logicals[i] == 0 {
			continue
		}
		if position.Validate(logicals[i], t.state.ContentSize, t.state.ContainerSize, e.cfg.Direction) != nil {
			continue
		}
		e.applyPair(t, logicals[i])
	}
	if e.state == StateRunning {
		e.scheduleAll()
	}
	return nil
}

func (e *Engine) scheduleAll() {
	for _, t := range e.tracks {
		t := t
		e.sched.Schedule(t.taskID, 0, func(now time.Time) bool {
			return e.tick(t, now)
		})
	}
}

// swapScheduler replaces an owned scheduler to pick up a new frame
// interval, preserving the running state and task set. The old loop is
// stopped on its own goroutine; its tasks are already gone.
func (e *Engine) swapScheduler(interval time.Duration) {
	wasRunning := e.sched.Running()
	e.unscheduleAll()
	old := e.sched
	go old.Stop()
	e.sched = scheduler.New(interval, scheduler.NewSystemClock(), e.reg)
	if e.state == StateRunning || e.state == StatePaused {
		e.scheduleAll()
		if e.state == StatePaused {
			for _, t := range e.tracks {
				e.sched.Pause(t.taskID)
			}
		}
	}
	if wasRunning {
		e.sched.Start()
	}
}

func sameData(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
