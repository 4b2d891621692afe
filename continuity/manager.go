package continuity

import (
	"fmt"
	"math"
	"time"

	"github.com/chao921125/scroll-seamless-sub000/direction"
	"github.com/chao921125/scroll-seamless-sub000/transform"
)

const (
	// DefaultTolerance bounds acceptable deltas across a pause/resume cycle.
	DefaultTolerance = 0.5
	// DefaultStabilityTolerance bounds re-sampled rendered positions when
	// confirming a freeze held.
	DefaultStabilityTolerance = 0.1
	// DefaultMaxRetries bounds freeze re-application attempts.
	DefaultMaxRetries = 3
)

// Result is the verdict of a continuity check.
type Result struct {
	OK             bool
	PositionDelta  float64
	TransformDelta float64
	// Issues are hard failures.
	Issues []string
	// Flags are soft observations that do not fail the check.
	Flags []string
}

// ValidateContinuity compares two snapshots of the same track. Position or
// translation drift beyond tolerance, a direction change, or non-monotonic
// stamps fail the check; visibility, container-size, and handle changes are
// flagged only.
func ValidateContinuity(before, after Snapshot, tolerance float64) Result {
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}
	res := Result{
		PositionDelta:  math.Abs(after.Logical - before.Logical),
		TransformDelta: math.Abs(after.Rendered - before.Rendered),
	}

	if res.PositionDelta > tolerance {
		res.Issues = append(res.Issues, fmt.Sprintf("logical position jumped %.3fpx", res.PositionDelta))
	}
	if res.TransformDelta > tolerance {
		res.Issues = append(res.Issues, fmt.Sprintf("rendered translation jumped %.3fpx", res.TransformDelta))
	}
	if before.Direction != after.Direction {
		res.Issues = append(res.Issues, fmt.Sprintf("direction changed %s -> %s", before.Direction, after.Direction))
	}
	if after.Mono <= before.Mono {
		res.Issues = append(res.Issues, "snapshots out of order")
	}

	if before.VisibleA != after.VisibleA || before.VisibleB != after.VisibleB {
		res.Flags = append(res.Flags, "block visibility changed")
	}
	if before.ContainerExtent != after.ContainerExtent {
		res.Flags = append(res.Flags, "container extent changed")
	}
	if before.Handle != after.Handle {
		res.Flags = append(res.Flags, "animation handle changed")
	}

	res.OK = len(res.Issues) == 0
	return res
}

// PauseOptions tunes PauseAtCurrentPosition.
type PauseOptions struct {
	// MaxRetries bounds freeze attempts when the rendered value will not
	// settle. Zero means DefaultMaxRetries.
	MaxRetries int
	// Tolerance is the stability bound in pixels. Zero means
	// DefaultStabilityTolerance.
	Tolerance float64
	// StabilitySamples re-reads the rendered value this many times to
	// confirm the freeze held. Zero skips confirmation.
	StabilitySamples int
}

func (o PauseOptions) withDefaults() PauseOptions {
	if o.MaxRetries <= 0 {
		o.MaxRetries = DefaultMaxRetries
	}
	if o.Tolerance <= 0 {
		o.Tolerance = DefaultStabilityTolerance
	}
	return o
}

// PauseAtCurrentPosition freezes a track exactly where it renders: the
// rendered offset is parsed, the logical position is synchronized to it, and
// the same translation is re-applied so the freeze is idempotent. With
// StabilitySamples > 0 the rendered value is re-read and the freeze retried
// until stable or MaxRetries is exhausted.
func PauseAtCurrentPosition(st *State, dir direction.Direction, opts PauseOptions) (Snapshot, error) {
	if err := st.check(); err != nil {
		return Snapshot{}, err
	}
	cfg, err := direction.GetConfig(dir)
	if err != nil {
		return Snapshot{}, err
	}
	opts = opts.withDefaults()

	for attempt := 0; attempt <= opts.MaxRetries; attempt++ {
		if err := syncAndFreeze(st, cfg); err != nil {
			return Snapshot{}, err
		}
		if opts.StabilitySamples <= 0 || stable(st, cfg, opts) {
			return CreateSnapshot(st, dir, ReasonPauseAfter)
		}
	}
	return Snapshot{}, fmt.Errorf("%w: rendered position would not settle after %d retries", ErrSyncFailed, opts.MaxRetries)
}

// syncAndFreeze writes the rendered truth back into the logical position and
// re-applies the exact pair translation.
func syncAndFreeze(st *State, cfg direction.Config) error {
	rendered := transform.RenderedOffset(st.Logical, cfg)
	if desc := st.BlockA.Translation(); desc != "" {
		if v, perr := transform.ParseTranslation(desc, cfg.Axis); perr == nil && !math.IsNaN(v) && !math.IsInf(v, 0) {
			rendered = v
		}
	}
	st.Logical = transform.LogicalFromRendered(rendered, cfg)

	if err := transform.ApplySeamlessPair(st.BlockA, st.BlockB, st.Logical, st.ContentSize, cfg.Direction); err != nil {
		return fmt.Errorf("%w: %v", ErrSyncFailed, err)
	}
	return nil
}

// stable confirms the frozen rendered value reads back within tolerance.
func stable(st *State, cfg direction.Config, opts PauseOptions) bool {
	want := transform.RenderedOffset(st.Logical, cfg)
	for i := 0; i < opts.StabilitySamples; i++ {
		desc := st.BlockA.Translation()
		if desc == "" {
			return false
		}
		got, err := transform.ParseTranslation(desc, cfg.Axis)
		if err != nil || math.Abs(got-want) > opts.Tolerance {
			return false
		}
	}
	return true
}

// ResumeOptions tunes ResumeFromPausedPosition.
type ResumeOptions struct {
	// Reference, when set, is the pre-resume snapshot to validate against.
	Reference *Snapshot
	// Tolerance for the continuity check. Zero means DefaultTolerance.
	Tolerance float64
}

// ResumeFromPausedPosition re-synchronizes a track the same way pause does
// and re-applies the seamless pair. With a Reference snapshot the resumed
// position is validated for continuity; on failure the state is pulled back
// to the reference position before the error surfaces in the result.
func ResumeFromPausedPosition(st *State, dir direction.Direction, opts ResumeOptions) (Snapshot, *Result, error) {
	if err := st.check(); err != nil {
		return Snapshot{}, nil, err
	}
	cfg, err := direction.GetConfig(dir)
	if err != nil {
		return Snapshot{}, nil, err
	}

	if err := syncAndFreeze(st, cfg); err != nil {
		return Snapshot{}, nil, err
	}
	snap, err := CreateSnapshot(st, dir, ReasonResumeAfter)
	if err != nil {
		return Snapshot{}, nil, err
	}

	if opts.Reference == nil {
		return snap, nil, nil
	}

	res := ValidateContinuity(*opts.Reference, snap, opts.Tolerance)
	if !res.OK {
		// Targeted fix: the reference position is the last agreed truth.
		st.Logical = opts.Reference.Logical
		if aerr := transform.ApplySeamlessPair(st.BlockA, st.BlockB, st.Logical, st.ContentSize, dir); aerr != nil {
			return snap, &res, fmt.Errorf("%w: rollback failed: %v", ErrSyncFailed, aerr)
		}
		snap, err = CreateSnapshot(st, dir, ReasonResumeAfter)
		if err != nil {
			return snap, &res, err
		}
	}
	return snap, &res, nil
}

// Op selects the batch operation.
type Op string

const (
	OpPause  Op = "pause"
	OpResume Op = "resume"
)

// BatchOptions tunes BatchPositionManagement.
type BatchOptions struct {
	// ContinueOnError keeps processing remaining states after a failure.
	ContinueOnError bool
	Pause           PauseOptions
	Resume          ResumeOptions
	// ResumeRefs holds per-state reference snapshots for OpResume, indexed
	// like the states slice. A nil entry falls back to Resume.Reference.
	ResumeRefs []*Snapshot
}

// OpResult is one state's outcome inside a batch.
type OpResult struct {
	Index    int
	Snapshot Snapshot
	// Continuity is the resume check verdict when a reference was supplied.
	Continuity *Result
	Err        error
	Duration   time.Duration
}

// Summary aggregates a batch run.
type Summary struct {
	TotalStates          int
	SuccessCount         int
	FailureCount         int
	TotalExecutionTime   time.Duration
	AverageExecutionTime time.Duration
}

// BatchResult is the outcome of BatchPositionManagement.
type BatchResult struct {
	Results          []OpResult
	Summary          Summary
	ContinuityIssues []string
}

// BatchPositionManagement applies pause or resume across all states.
// Per-state failures, panics included, are caught and counted; with
// ContinueOnError=false the first failure aborts the remainder (aborted
// states still count as failures in the summary).
func BatchPositionManagement(states []*State, dir direction.Direction, op Op, opts BatchOptions) BatchResult {
	batch := BatchResult{Summary: Summary{TotalStates: len(states)}}
	start := time.Now()

	aborted := false
	for i, st := range states {
		if aborted {
			batch.Summary.FailureCount++
			batch.Results = append(batch.Results, OpResult{Index: i, Err: fmt.Errorf("%w: batch aborted", ErrSyncFailed)})
			continue
		}

		res := runOne(i, st, dir, op, opts)
		batch.Results = append(batch.Results, res)
		if res.Err != nil {
			batch.Summary.FailureCount++
			if !opts.ContinueOnError {
				aborted = true
			}
			continue
		}
		batch.Summary.SuccessCount++
		if res.Continuity != nil && !res.Continuity.OK {
			for _, issue := range res.Continuity.Issues {
				batch.ContinuityIssues = append(batch.ContinuityIssues,
					fmt.Sprintf("state %d: %s", i, issue))
			}
		}
		if res.Snapshot.PositionDifference > DefaultTolerance {
			batch.ContinuityIssues = append(batch.ContinuityIssues,
				fmt.Sprintf("state %d drifted %.3fpx after %s", i, res.Snapshot.PositionDifference, op))
		}
	}

	batch.Summary.TotalExecutionTime = time.Since(start)
	if n := len(states); n > 0 {
		batch.Summary.AverageExecutionTime = batch.Summary.TotalExecutionTime / time.Duration(n)
	}
	return batch
}

func runOne(i int, st *State, dir direction.Direction, op Op, opts BatchOptions) (res OpResult) {
	res.Index = i
	opStart := time.Now()
	defer func() {
		res.Duration = time.Since(opStart)
		if r := recover(); r != nil {
			res.Err = fmt.Errorf("%w: panic in %s: %v", ErrSyncFailed, op, r)
		}
	}()

	switch op {
	case OpPause:
		res.Snapshot, res.Err = PauseAtCurrentPosition(st, dir, opts.Pause)
	case OpResume:
		ropts := opts.Resume
		if i < len(opts.ResumeRefs) && opts.ResumeRefs[i] != nil {
			ropts.Reference = opts.ResumeRefs[i]
		}
		res.Snapshot, res.Continuity, res.Err = ResumeFromPausedPosition(st, dir, ropts)
	default:
		res.Err = fmt.Errorf("%w: unknown op %q", ErrSyncFailed, op)
	}
	return res
}
