package position

import (
	"fmt"
	"math"

	"github.com/chao921125/scroll-seamless-sub000/direction"
	"github.com/chao921125/scroll-seamless-sub000/transform"
)

// prefillSafetyPx pads the coverage requirement so sub-pixel rounding at the
// container edge never exposes a seam.
const prefillSafetyPx = 20.0

// FillResult reports how much replication a block pair needs to cover its
// container.
type FillResult struct {
	Success bool
	// ContentSize is the effective extent after replication.
	ContentSize float64
	// Copies is the number of source-list repetitions each block must hold.
	// The rendering collaborator owns the actual replication.
	Copies int
	// Adjusted holds block B's corrected initial offsets when replication
	// changed the effective extent.
	Adjusted *Offsets
	Err      error
}

// PreFillContent computes the replication needed when measured content is
// smaller than the container, so the pair scrolls without a visible edge.
// Nodes are not mutated; the caller applies Copies and Adjusted.
func PreFillContent(blockA, blockB transform.Node, containerSize float64, dir direction.Direction) FillResult {
	if _, err := direction.GetConfig(dir); err != nil {
		return FillResult{Err: err}
	}
	if containerSize <= 0 {
		return FillResult{Err: fmt.Errorf("%w: container size %v", ErrValidation, containerSize)}
	}
	if blockA == nil || blockB == nil {
		return FillResult{Err: fmt.Errorf("%w: missing content block", ErrValidation)}
	}

	cfg := direction.MustConfig(dir)
	raw, err := blockA.Extent(cfg.Axis)
	if err != nil || raw <= 0 {
		return FillResult{Err: fmt.Errorf("%w: unmeasurable content", ErrValidation)}
	}

	copies := 1
	if raw < containerSize+prefillSafetyPx {
		copies = int(math.Ceil((containerSize + prefillSafetyPx) / raw))
	}

	res := FillResult{
		Success:     true,
		ContentSize: raw * float64(copies),
		Copies:      copies,
	}
	if copies > 1 {
		offsets, oerr := InitialOffsets(res.ContentSize, dir)
		if oerr != nil {
			return FillResult{Err: oerr}
		}
		res.Adjusted = &offsets
	}
	return res
}
