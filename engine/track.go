package engine

import (
	"fmt"
	"time"

	"github.com/chao921125/scroll-seamless-sub000/continuity"
	"github.com/chao921125/scroll-seamless-sub000/direction"
	"github.com/chao921125/scroll-seamless-sub000/position"
	"github.com/chao921125/scroll-seamless-sub000/transform"
)

// blankCheckInterval is the per-track frame cadence of the blank-area sweep.
const blankCheckInterval = 30

// Track is one animated lane: a block pair, its continuity state and the
// frame bookkeeping for step-wait pacing. Tracks are engine-internal;
// access is serialized by the engine mutex.
type Track struct {
	index  int
	taskID string
	state  *continuity.State

	copies     int
	itemExtent float64

	frames     uint64
	stepTarget *float64
	waitUntil  time.Time

	// pauseRef is the pre-pause snapshot, held until the matching resume
	// so the continuity check has a reference even when the paused state
	// cannot be re-snapshotted.
	pauseRef *continuity.Snapshot

	failures    int
	cleanFrames int
}

func (e *Engine) buildTrack(i int, dcfg direction.Config, containerSize float64) (*Track, error) {
	blockA, err := e.factory.NewBlock(i, e.cfg.Data, 1)
	if err != nil {
		return nil, fmt.Errorf("engine: track %d block A: %w", i, err)
	}
	blockB, err := e.factory.NewBlock(i, e.cfg.Data, 1)
	if err != nil {
		e.factory.Release(blockA)
		return nil, fmt.Errorf("engine: track %d block B: %w", i, err)
	}

	copies := 1
	fill := position.PreFillContent(blockA, blockB, containerSize, e.cfg.Direction)
	switch {
	case fill.Err != nil:
		// Unmeasurable content degrades to single-copy layout; the blank
		// sweep will paper over any seam until measurement recovers.
		e.logger.Warn("pre-fill failed, using single copy", "track", i, "err", fill.Err)
		e.emitWarning("prefillFailed", fill.Err.Error(), i)
	case fill.Copies > 1:
		e.factory.Release(blockA)
		e.factory.Release(blockB)
		copies = fill.Copies
		blockA, err = e.factory.NewBlock(i, e.cfg.Data, copies)
		if err != nil {
			return nil, fmt.Errorf("engine: track %d replicated block A: %w", i, err)
		}
		blockB, err = e.factory.NewBlock(i, e.cfg.Data, copies)
		if err != nil {
			e.factory.Release(blockA)
			return nil, fmt.Errorf("engine: track %d replicated block B: %w", i, err)
		}
	}

	contentSize := e.measurer.Extent(blockA, e.cfg.Direction, true)

	t := &Track{
		index:  i,
		taskID: fmt.Sprintf("track-%d", i),
		state: &continuity.State{
			BlockA:        blockA,
			BlockB:        blockB,
			ContentSize:   contentSize,
			ContainerSize: containerSize,
		},
		copies: copies,
	}
	t.state.Handle = t.taskID
	if n := len(e.cfg.Data) * copies; n > 0 {
		t.itemExtent = contentSize / float64(n)
	}

	if err := e.layoutTrack(t, dcfg); err != nil {
		t.release(e.factory)
		return nil, err
	}
	return t, nil
}

// layoutTrack places both blocks at the seamless rest position for
// logical offset zero.
func (e *Engine) layoutTrack(t *Track, dcfg direction.Config) error {
	offsets, err := position.InitialOffsets(t.state.ContentSize, e.cfg.Direction)
	if err != nil {
		return err
	}
	if err := t.state.BlockA.SetPositionAttr(dcfg.PositionProp, offsets.ContentA); err != nil {
		return fmt.Errorf("engine: track %d position attr: %w", t.index, err)
	}
	if err := t.state.BlockB.SetPositionAttr(dcfg.PositionProp, offsets.ContentB); err != nil {
		return fmt.Errorf("engine: track %d position attr: %w", t.index, err)
	}
	t.state.Logical = 0
	return transform.ApplySeamlessPair(t.state.BlockA, t.state.BlockB, 0, t.state.ContentSize, e.cfg.Direction)
}

// resetTrack snaps a misbehaving track back to the zero rest position.
func (e *Engine) resetTrack(t *Track) {
	dcfg := direction.MustConfig(e.cfg.Direction)
	t.stepTarget = nil
	t.waitUntil = time.Time{}
	if err := e.layoutTrack(t, dcfg); err != nil {
		e.logger.Error("track reset failed", "track", t.index, "err", err)
		e.emitError(err, t.index, "reset")
		return
	}
	e.reg.Ints.Get("engine.resets").Add(1)
}

func (t *Track) release(factory BlockFactory) {
	if t == nil || t.state == nil {
		return
	}
	if t.state.BlockA != nil {
		factory.Release(t.state.BlockA)
		t.state.BlockA = nil
	}
	if t.state.BlockB != nil {
		factory.Release(t.state.BlockB)
		t.state.BlockB = nil
	}
}

// states collects the continuity states of all tracks, for batch
// pause/resume and health reporting.
func (e *Engine) states() []*continuity.State {
	out := make([]*continuity.State, len(e.tracks))
	for i, t := range e.tracks {
		out[i] = t.state
	}
	return out
}

// renderedOf parses a block's current translation into a rendered offset.
// An empty translation means the block sits at its attribute position.
func renderedOf(node transform.Node, dir direction.Direction) (float64, error) {
	desc := node.Translation()
	if desc == "" {
		return 0, nil
	}
	return transform.ParseTranslation(desc, direction.MustConfig(dir).Axis)
}
