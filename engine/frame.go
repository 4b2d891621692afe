package engine

import (
	"fmt"
	"math"
	"time"

	"github.com/chao921125/scroll-seamless-sub000/direction"
	"github.com/chao921125/scroll-seamless-sub000/position"
	"github.com/chao921125/scroll-seamless-sub000/transform"
)

// tick advances one track by one frame. It is the scheduler callback;
// returning false unschedules the track. Every per-frame failure is
// contained here: the callback never lets a panic reach the scheduler
// loop.
func (e *Engine) tick(t *Track, now time.Time) (keep bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("animation callback panicked", "track", t.index, "panic", r)
			e.emitError(fmt.Errorf("engine: animation callback panic: %v", r), t.index, "tick")
			e.resetTrack(t)
			keep = true
		}
		e.flush()
	}()

	if e.state != StateRunning {
		return true
	}
	if !now.Before(e.resumeNotBefore) {
		e.resumeNotBefore = time.Time{}
	} else {
		return true
	}

	t.frames++
	next, moved := e.advance(t, now)
	if !moved {
		return true
	}

	next = e.validated(t, next)
	e.applyPair(t, next)

	if t.frames%blankCheckInterval == 0 {
		e.sweepBlanks(t)
	}
	return true
}

// advance computes the next logical position. In step-wait mode the
// track travels one item extent, then holds for the configured wait.
func (e *Engine) advance(t *Track, now time.Time) (float64, bool) {
	cur := t.state.Logical
	step := e.cfg.Step
	if e.degraded {
		step = step / 2
	}

	if e.cfg.StepWait <= 0 || t.itemExtent <= 0 {
		return position.NextPosition(cur, step, t.state.ContentSize, e.cfg.Direction), true
	}

	if now.Before(t.waitUntil) {
		return 0, false
	}
	if t.stepTarget == nil {
		remaining := t.itemExtent
		t.stepTarget = &remaining
	}
	move := step
	if move > *t.stepTarget {
		move = *t.stepTarget
	}
	next := position.NextPosition(cur, move, t.state.ContentSize, e.cfg.Direction)
	*t.stepTarget -= move
	if *t.stepTarget <= 1e-9 {
		t.stepTarget = nil
		t.waitUntil = now.Add(e.cfg.StepWait)
	}
	return next, true
}

// validated runs the position through range validation and the seamless
// connection check, correcting rather than propagating when it can.
func (e *Engine) validated(t *Track, next float64) float64 {
	if e.nonVisual {
		return next
	}
	if err := position.Validate(next, t.state.ContentSize, t.state.ContainerSize, e.cfg.Direction); err == nil {
		return next
	}

	conn, cerr := position.SeamlessConnection(t.state.Logical, t.state.ContentSize, t.state.ContainerSize, e.cfg.Direction)
	if cerr == nil && conn.ShouldReset {
		e.reg.Ints.Get("engine.corrections").Add(1)
		return 0
	}
	e.emitWarning("positionValidationFailed",
		fmt.Sprintf("position %.2f out of range, track reset", next), t.index)
	e.resetTrack(t)
	return 0
}

// applyPair writes the new position to both blocks, falling back from
// the paired apply to per-block singles before invoking recovery.
func (e *Engine) applyPair(t *Track, next float64) {
	st := t.state
	err := transform.ApplySeamlessPair(st.BlockA, st.BlockB, next, st.ContentSize, e.cfg.Direction)
	if err == nil {
		st.Logical = next
		e.noteCleanFrame(t)
		return
	}

	dcfg := direction.MustConfig(e.cfg.Direction)
	posB := next - st.ContentSize
	if dcfg.IsReverse {
		posB = next + st.ContentSize
	}
	descA, aerr := transform.ToTranslationString(next, e.cfg.Direction, true)
	descB, berr := transform.ToTranslationString(posB, e.cfg.Direction, true)
	if aerr == nil && berr == nil {
		res := transform.ApplyBatch([]transform.BatchUpdate{
			{Node: st.BlockA, Desc: descA},
			{Node: st.BlockB, Desc: descB},
		})
		if res.Success {
			st.Logical = next
			e.reg.Ints.Get("engine.applyFallbacks").Add(1)
			return
		}
	}

	e.emitError(err, t.index, "applyPair")
	e.recoverTrack(t, err)
}

// sweepBlanks runs the periodic blank-area detection pass and resyncs the
// logical position if the sweep moved a block.
func (e *Engine) sweepBlanks(t *Track) {
	report := position.DetectAndFixBlankAreas(t.state.BlockA, t.state.BlockB, t.state.ContainerSize, e.cfg.Direction)
	for _, err := range report.Errors {
		e.emitWarning("blankCheckFailed", err.Error(), t.index)
	}
	if len(report.Fixed) == 0 {
		return
	}
	e.reg.Ints.Get("engine.blankFixes").Add(int64(len(report.Fixed)))
	e.logger.Debug("blank areas repaired", "track", t.index, "fixes", len(report.Fixed))

	// A repaired block may now disagree with the logical position; adopt
	// the rendered offset as truth.
	if rendered, err := renderedOf(t.state.BlockA, e.cfg.Direction); err == nil {
		logical := transform.LogicalFromRendered(rendered, direction.MustConfig(e.cfg.Direction))
		if !math.IsNaN(logical) && !math.IsInf(logical, 0) {
			t.state.Logical = logical
		}
	}
}
