package continuity

import (
	"math"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/chao921125/scroll-seamless-sub000/direction"
	"github.com/chao921125/scroll-seamless-sub000/transform"
)

// Reason tags why a snapshot was taken.
type Reason string

const (
	ReasonPauseBefore  Reason = "pause-before"
	ReasonPauseAfter   Reason = "pause-after"
	ReasonResumeBefore Reason = "resume-before"
	ReasonResumeAfter  Reason = "resume-after"
	ReasonHoverEnter   Reason = "hover-enter"
	ReasonHoverLeave   Reason = "hover-leave"
	ReasonManual       Reason = "manual"
)

// mono supplies the monotonic ordering stamp; wall-clock time alone cannot
// order snapshots taken within the same tick.
var mono atomic.Uint64

// Snapshot is an immutable record of one track's position at an instant,
// used purely for continuity validation and never persisted.
type Snapshot struct {
	ID     uuid.UUID
	Reason Reason

	Direction direction.Direction

	// Logical is the engine-side floating offset at capture time.
	Logical float64
	// Rendered is the offset actually present in block A's translation
	// attribute, falling back to the logical mapping when unparsable.
	Rendered float64
	// RenderedParsed records whether Rendered came from the live attribute.
	RenderedParsed bool
	// PositionDifference is the drift between Logical and the logical
	// equivalent of Rendered, after inverting the direction's sign rule.
	PositionDifference float64

	ContainerExtent float64
	VisibleA        bool
	VisibleB        bool

	Handle string

	Time time.Time
	// Mono is a process-wide monotonic sequence number.
	Mono uint64
}

// CreateSnapshot captures the state's logical and rendered positions. The
// rendered translation is parsed from whatever transform syntax block A
// carries (translate, matrix, matrix3d); parse failures and non-finite
// values fall back to the stored logical position.
func CreateSnapshot(st *State, dir direction.Direction, reason Reason) (Snapshot, error) {
	if err := st.check(); err != nil {
		return Snapshot{}, err
	}
	cfg, err := direction.GetConfig(dir)
	if err != nil {
		return Snapshot{}, err
	}

	rendered := transform.RenderedOffset(st.Logical, cfg)
	parsed := false
	if desc := st.BlockA.Translation(); desc != "" {
		if v, perr := transform.ParseTranslation(desc, cfg.Axis); perr == nil && !math.IsNaN(v) && !math.IsInf(v, 0) {
			rendered = v
			parsed = true
		}
	}

	snap := Snapshot{
		ID:                 uuid.New(),
		Reason:             reason,
		Direction:          dir,
		Logical:            st.Logical,
		Rendered:           rendered,
		RenderedParsed:     parsed,
		PositionDifference: math.Abs(st.Logical - transform.LogicalFromRendered(rendered, cfg)),
		ContainerExtent:    st.ContainerSize,
		Handle:             st.Handle,
		Time:               time.Now(),
		Mono:               mono.Add(1),
	}
	snap.VisibleA = spanVisible(rendered, st.ContentSize, st.ContainerSize)

	// Block B renders one content extent past block A on the entering side.
	snap.VisibleB = spanVisible(rendered+st.ContentSize, st.ContentSize, st.ContainerSize)
	return snap, nil
}

// spanVisible reports whether a block starting at offset with the given
// extent intersects the container's [0, container) viewport.
func spanVisible(offset, extent, container float64) bool {
	if container <= 0 {
		return false
	}
	return offset < container && offset+extent > 0
}
