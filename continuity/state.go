// Package continuity keeps a track's logical position and its rendered
// translation in agreement across pause, resume, and hover cycles. The
// rendered value is ground truth: synchronization always writes the parsed
// visual offset back into the logical position, never the reverse.
package continuity

import (
	"fmt"

	"github.com/chao921125/scroll-seamless-sub000/transform"
)

// ErrSyncFailed marks a state that could not be synchronized with its
// rendered position.
var ErrSyncFailed = fmt.Errorf("animation sync failed")

// State is the mutable scroll state of one track. The engine owns one per
// track and hands it to this package during pause/resume transitions.
type State struct {
	BlockA transform.Node
	BlockB transform.Node

	// Logical is the engine's internal floating offset.
	Logical float64

	// ContentSize is the measured extent of one content block.
	ContentSize float64

	// ContainerSize is the track container's extent on the scroll axis.
	ContainerSize float64

	// Handle is the scheduler task id driving this state, "" when idle.
	Handle string
}

func (s *State) check() error {
	if s == nil {
		return fmt.Errorf("%w: nil state", ErrSyncFailed)
	}
	if s.BlockA == nil || s.BlockB == nil {
		return fmt.Errorf("%w: missing content block", ErrSyncFailed)
	}
	if s.ContentSize <= 0 {
		return fmt.Errorf("%w: content size %v", ErrSyncFailed, s.ContentSize)
	}
	return nil
}
