package engine

import (
	"fmt"

	"github.com/chao921125/scroll-seamless-sub000/continuity"
	"github.com/chao921125/scroll-seamless-sub000/direction"
	"github.com/chao921125/scroll-seamless-sub000/event"
	"github.com/chao921125/scroll-seamless-sub000/position"
	"github.com/chao921125/scroll-seamless-sub000/transform"
)

// Pause freezes every track at its rendered position and suspends the
// scheduler tasks. Already-paused and stopped engines are no-ops.
func (e *Engine) Pause() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pauseLocked(continuity.ReasonPauseBefore)
}

func (e *Engine) pauseLocked(reason continuity.Reason) error {
	if e.state == StateDestroyed {
		return ErrEngineDestroyed
	}
	if e.state != StateRunning {
		return nil
	}

	// Suspend ticks first so the freeze below cannot race a frame.
	for _, t := range e.tracks {
		if err := e.sched.Pause(t.taskID); err != nil {
			e.logger.Warn("task pause failed", "task", t.taskID, "err", err)
		}
	}

	// Remember where each track sat going in; the matching resume checks
	// continuity against this reference.
	for _, t := range e.tracks {
		if snap, err := continuity.CreateSnapshot(t.state, e.cfg.Direction, continuity.ReasonPauseBefore); err == nil {
			ref := snap
			t.pauseRef = &ref
		} else {
			e.logger.Warn("pause snapshot failed", "track", t.index, "err", err)
		}
	}

	batch := continuity.BatchPositionManagement(e.states(), e.cfg.Direction, continuity.OpPause, continuity.BatchOptions{
		ContinueOnError: true,
		Pause:           continuity.PauseOptions{StabilitySamples: 1},
	})
	e.reportBatch(batch, "pause")

	e.setState(StatePaused)
	e.emit(event.Pause, reason)
	e.flush()
	return nil
}

// Resume re-synchronizes every track from its rendered position and
// reactivates the scheduler tasks.
func (e *Engine) Resume() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.resumeLocked(continuity.ReasonResumeBefore)
}

func (e *Engine) resumeLocked(reason continuity.Reason) error {
	if e.state == StateDestroyed {
		return ErrEngineDestroyed
	}
	if e.state != StatePaused {
		return nil
	}

	// Reference snapshots for the continuity check: the paused state as it
	// stands now, or the pre-pause snapshot if the state will not capture.
	refs := make([]*continuity.Snapshot, len(e.tracks))
	for i, t := range e.tracks {
		if snap, err := continuity.CreateSnapshot(t.state, e.cfg.Direction, continuity.ReasonResumeBefore); err == nil {
			ref := snap
			refs[i] = &ref
		} else {
			refs[i] = t.pauseRef
		}
	}

	batch := continuity.BatchPositionManagement(e.states(), e.cfg.Direction, continuity.OpResume, continuity.BatchOptions{
		ContinueOnError: true,
		ResumeRefs:      refs,
	})
	e.reportBatch(batch, "resume")
	for _, t := range e.tracks {
		t.pauseRef = nil
	}

	for _, t := range e.tracks {
		if err := e.sched.Resume(t.taskID); err != nil {
			e.logger.Warn("task resume failed", "task", t.taskID, "err", err)
		}
	}

	e.setState(StateRunning)
	e.emit(event.Resume, reason)
	e.flush()
	return nil
}

// reportBatch surfaces batch pause/resume failures as events. A failed
// state keeps whatever position it had; the next frame's validation and
// blank sweep pick up from there.
func (e *Engine) reportBatch(batch continuity.BatchResult, op string) {
	for _, res := range batch.Results {
		if res.Err != nil {
			e.emitError(res.Err, res.Index, op)
		}
	}
	for _, issue := range batch.ContinuityIssues {
		e.emitWarning("continuityDrift", issue, -1)
	}
	if batch.Summary.FailureCount > 0 {
		e.logger.Warn("batch position management had failures",
			"op", op, "failed", batch.Summary.FailureCount, "total", batch.Summary.TotalStates)
	}
}

// HoverEnter pauses a running engine when hover-stop is enabled. Calls on
// stopped or already-paused engines are ignored, as are repeats.
func (e *Engine) HoverEnter() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.hovered {
		return
	}
	e.hovered = true
	if !e.cfg.HoverStop || e.state != StateRunning {
		return
	}
	if err := e.pauseLocked(continuity.ReasonHoverEnter); err == nil {
		e.hoverPaused = true
	}
}

// HoverLeave resumes only if the matching HoverEnter caused the pause; an
// explicit Pause is never undone by the pointer leaving.
func (e *Engine) HoverLeave() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.hovered {
		return
	}
	e.hovered = false
	if !e.hoverPaused {
		return
	}
	e.hoverPaused = false
	if err := e.resumeLocked(continuity.ReasonHoverLeave); err != nil {
		e.emitError(err, -1, "hoverLeave")
		e.flush()
	}
}

// Nudge shifts every track by delta through the same wrap arithmetic the
// frame path uses. It requires wheel support to be enabled and works in
// any non-destroyed state, paused included.
func (e *Engine) Nudge(delta float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == StateDestroyed {
		return ErrEngineDestroyed
	}
	if !e.cfg.WheelEnable || delta == 0 {
		return nil
	}
	for _, t := range e.tracks {
		next := position.NextPosition(t.state.Logical, delta, t.state.ContentSize, e.cfg.Direction)
		if err := position.Validate(next, t.state.ContentSize, t.state.ContainerSize, e.cfg.Direction); err != nil {
			e.emitError(err, t.index, "nudge")
			continue
		}
		e.applyPair(t, next)
	}
	e.flush()
	return nil
}

// GetPosition reports track 0's logical position.
func (e *Engine) GetPosition() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.tracks) == 0 {
		return 0
	}
	return e.tracks[0].state.Logical
}

// SetPosition moves every track to the given logical position. The value
// must already be inside the direction's valid range.
func (e *Engine) SetPosition(pos float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == StateDestroyed {
		return ErrEngineDestroyed
	}
	for _, t := range e.tracks {
		if err := position.Validate(pos, t.state.ContentSize, t.state.ContainerSize, e.cfg.Direction); err != nil {
			return fmt.Errorf("engine: track %d: %w", t.index, err)
		}
	}
	for _, t := range e.tracks {
		e.applyPair(t, pos)
	}
	e.flush()
	return nil
}

// GetRenderMatrix returns, per track, the rendered offsets of blocks A
// and B as they would appear on screen.
func (e *Engine) GetRenderMatrix() [][2]float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	dcfg := direction.MustConfig(e.cfg.Direction)
	out := make([][2]float64, len(e.tracks))
	for i, t := range e.tracks {
		posB := t.state.Logical - t.state.ContentSize
		if dcfg.IsReverse {
			posB = t.state.Logical + t.state.ContentSize
		}
		out[i] = [2]float64{
			transform.RenderedOffset(t.state.Logical, dcfg),
			transform.RenderedOffset(posB, dcfg),
		}
	}
	return out
}

// GetTransforms returns, per track, the raw translation descriptors of
// both blocks.
func (e *Engine) GetTransforms() [][2]string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([][2]string, len(e.tracks))
	for i, t := range e.tracks {
		out[i] = [2]string{t.state.BlockA.Translation(), t.state.BlockB.Translation()}
	}
	return out
}

// Health runs the position-health monitor over all tracks.
func (e *Engine) Health() continuity.Health {
	e.mu.Lock()
	defer e.mu.Unlock()
	return continuity.MonitorPositionHealth(e.states(), e.cfg.Direction)
}
