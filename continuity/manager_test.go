package continuity

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/chao921125/scroll-seamless-sub000/direction"
)

// mockBlock is a minimal render node for continuity tests.
type mockBlock struct {
	translation string
	failApply   bool
	applies     int
}

func (m *mockBlock) Extent(axis direction.Axis) (float64, error) { return 100, nil }

func (m *mockBlock) SetTranslation(desc string) error {
	if m.failApply && desc != "" {
		return fmt.Errorf("node detached")
	}
	m.translation = desc
	m.applies++
	return nil
}

func (m *mockBlock) Translation() string { return m.translation }

func (m *mockBlock) SetPositionAttr(prop string, px float64) error { return nil }

func newState(logical float64, translation string) *State {
	return &State{
		BlockA:        &mockBlock{translation: translation},
		BlockB:        &mockBlock{},
		Logical:       logical,
		ContentSize:   100,
		ContainerSize: 80,
		Handle:        "track-0",
	}
}

func TestCreateSnapshotParsesRendered(t *testing.T) {
	tests := []struct {
		translation  string
		dir          direction.Direction
		wantRendered float64
	}{
		{"translateX(-42px)", direction.Left, -42},
		{"matrix(1, 0, 0, 1, -42, 0)", direction.Left, -42},
		{"matrix3d(1,0,0,0, 0,1,0,0, 0,0,1,0, 0, -42, 0, 1)", direction.Up, -42},
	}
	for _, tt := range tests {
		st := newState(42, tt.translation)
		snap, err := CreateSnapshot(st, tt.dir, ReasonManual)
		if err != nil {
			t.Fatalf("%q: %v", tt.translation, err)
		}
		if snap.Rendered != tt.wantRendered {
			t.Errorf("%q: rendered = %v, want %v", tt.translation, snap.Rendered, tt.wantRendered)
		}
		if !snap.RenderedParsed {
			t.Errorf("%q: expected a parsed capture", tt.translation)
		}
		if snap.PositionDifference != 0 {
			t.Errorf("%q: positionDifference = %v, want 0", tt.translation, snap.PositionDifference)
		}
	}
}

func TestCreateSnapshotFallsBackToLogical(t *testing.T) {
	st := newState(30, "rotate(45deg)")
	snap, err := CreateSnapshot(st, direction.Left, ReasonManual)
	if err != nil {
		t.Fatal(err)
	}
	if snap.RenderedParsed {
		t.Error("unparsable transform must fall back")
	}
	if snap.Rendered != -30 {
		t.Errorf("fallback rendered = %v, want -30 (logical through sign rule)", snap.Rendered)
	}
}

func TestCreateSnapshotMonotonicStamps(t *testing.T) {
	st := newState(0, "")
	a, _ := CreateSnapshot(st, direction.Left, ReasonManual)
	b, _ := CreateSnapshot(st, direction.Left, ReasonManual)
	if b.Mono <= a.Mono {
		t.Errorf("mono stamps not increasing: %d then %d", a.Mono, b.Mono)
	}
	if a.ID == b.ID {
		t.Error("snapshot ids must be unique")
	}
}

func TestValidateContinuity(t *testing.T) {
	st := newState(50, "translateX(-50px)")
	before, _ := CreateSnapshot(st, direction.Left, ReasonPauseBefore)
	after, _ := CreateSnapshot(st, direction.Left, ReasonPauseAfter)

	res := ValidateContinuity(before, after, DefaultTolerance)
	if !res.OK {
		t.Errorf("identical positions must validate: %v", res.Issues)
	}

	// A jump beyond tolerance fails.
	st.Logical = 60
	st.BlockA.SetTranslation("translateX(-60px)")
	jumped, _ := CreateSnapshot(st, direction.Left, ReasonResumeAfter)
	res = ValidateContinuity(before, jumped, DefaultTolerance)
	if res.OK {
		t.Error("10px jump must fail validation")
	}
	if res.PositionDelta != 10 || res.TransformDelta != 10 {
		t.Errorf("deltas = %v/%v, want 10/10", res.PositionDelta, res.TransformDelta)
	}

	// Direction mismatch fails even at identical positions.
	st.Logical = 50
	st.BlockA.SetTranslation("translateX(50px)")
	other, _ := CreateSnapshot(st, direction.Right, ReasonManual)
	if ValidateContinuity(before, other, DefaultTolerance).OK {
		t.Error("direction change must fail validation")
	}

	// Reversed order fails on the monotonic stamp.
	if ValidateContinuity(after, before, DefaultTolerance).OK {
		t.Error("out-of-order snapshots must fail validation")
	}
}

func TestValidateContinuityFlags(t *testing.T) {
	st := newState(10, "translateX(-10px)")
	before, _ := CreateSnapshot(st, direction.Left, ReasonPauseBefore)

	st.ContainerSize = 120
	st.Handle = "track-1"
	after, _ := CreateSnapshot(st, direction.Left, ReasonPauseAfter)

	res := ValidateContinuity(before, after, DefaultTolerance)
	if !res.OK {
		t.Fatalf("flag-only changes must not fail: %v", res.Issues)
	}
	if len(res.Flags) < 2 {
		t.Errorf("flags = %v, want container and handle observations", res.Flags)
	}
}

func TestPauseResumeRoundTrip(t *testing.T) {
	// The visual is ground truth: logical 52.0 but rendered at 51.7 means
	// the engine adopts 51.7, and resume must not move anything.
	st := newState(52.0, "translateX(-51.7px)")

	paused, err := PauseAtCurrentPosition(st, direction.Left, PauseOptions{StabilitySamples: 2})
	if err != nil {
		t.Fatal(err)
	}
	if st.Logical != 51.7 {
		t.Errorf("logical after pause = %v, want 51.7 (synchronized to rendered)", st.Logical)
	}

	resumed, res, err := ResumeFromPausedPosition(st, direction.Left, ResumeOptions{Reference: &paused})
	if err != nil {
		t.Fatal(err)
	}
	if res == nil || !res.OK {
		t.Fatalf("resume continuity failed: %+v", res)
	}
	if math.Abs(resumed.Logical-paused.Logical) > 1e-9 {
		t.Errorf("position moved across pause/resume: %v -> %v", paused.Logical, resumed.Logical)
	}
	if math.Abs(resumed.Rendered-paused.Rendered) > 1e-9 {
		t.Errorf("translation moved across pause/resume: %v -> %v", paused.Rendered, resumed.Rendered)
	}
	if resumed.PositionDifference > 1e-9 {
		t.Errorf("positionDifference = %v, want ~0", resumed.PositionDifference)
	}
}

func TestPauseFreezesBlockPair(t *testing.T) {
	st := newState(40, "translateX(-40px)")
	if _, err := PauseAtCurrentPosition(st, direction.Left, PauseOptions{}); err != nil {
		t.Fatal(err)
	}
	if got := st.BlockA.Translation(); got != "translateX(-40px)" {
		t.Errorf("blockA = %q", got)
	}
	if got := st.BlockB.Translation(); got != "translateX(60px)" {
		t.Errorf("blockB = %q, want one extent out on the entering side", got)
	}
}

func TestPauseBrokenState(t *testing.T) {
	broken := &State{BlockA: nil, BlockB: &mockBlock{}, ContentSize: 100}
	if _, err := PauseAtCurrentPosition(broken, direction.Left, PauseOptions{}); !errors.Is(err, ErrSyncFailed) {
		t.Errorf("error = %v, want ErrSyncFailed", err)
	}
	var nilState *State
	if _, err := PauseAtCurrentPosition(nilState, direction.Left, PauseOptions{}); !errors.Is(err, ErrSyncFailed) {
		t.Errorf("nil state error = %v, want ErrSyncFailed", err)
	}
}

func TestBatchContinueOnError(t *testing.T) {
	const k = 5
	states := make([]*State, 0, k)
	for i := 0; i < k-1; i++ {
		states = append(states, newState(float64(i*10), fmt.Sprintf("translateX(-%dpx)", i*10)))
	}
	// One deliberately broken state.
	states = append(states, &State{BlockA: nil, BlockB: nil, ContentSize: 100})

	batch := BatchPositionManagement(states, direction.Left, OpPause, BatchOptions{ContinueOnError: true})
	if batch.Summary.TotalStates != k {
		t.Errorf("totalStates = %d, want %d", batch.Summary.TotalStates, k)
	}
	if batch.Summary.SuccessCount != k-1 {
		t.Errorf("successCount = %d, want %d", batch.Summary.SuccessCount, k-1)
	}
	if batch.Summary.FailureCount != 1 {
		t.Errorf("failureCount = %d, want 1", batch.Summary.FailureCount)
	}
	if batch.Summary.TotalExecutionTime < 0 || batch.Summary.AverageExecutionTime < 0 {
		t.Error("execution times must be non-negative")
	}
}

func TestBatchResumeWithReferences(t *testing.T) {
	// State 0 resumes where it paused; state 1's rendered value was moved
	// while frozen and must be pulled back to its reference.
	states := []*State{
		newState(10, "translateX(-10px)"),
		newState(20, "translateX(-20px)"),
	}
	refs := make([]*Snapshot, len(states))
	for i, st := range states {
		snap, err := CreateSnapshot(st, direction.Left, ReasonResumeBefore)
		if err != nil {
			t.Fatal(err)
		}
		refs[i] = &snap
	}
	states[1].BlockA.SetTranslation("translateX(-75px)")

	batch := BatchPositionManagement(states, direction.Left, OpResume, BatchOptions{
		ContinueOnError: true,
		ResumeRefs:      refs,
	})
	if batch.Summary.FailureCount != 0 {
		t.Fatalf("failureCount = %d, want 0", batch.Summary.FailureCount)
	}

	if res := batch.Results[0].Continuity; res == nil || !res.OK {
		t.Errorf("untouched state flagged: %+v", res)
	}
	if res := batch.Results[1].Continuity; res == nil || res.OK {
		t.Error("moved state must fail its continuity check")
	}
	if len(batch.ContinuityIssues) == 0 {
		t.Error("batch must surface the continuity issue")
	}
	if states[1].Logical != 20 {
		t.Errorf("state 1 logical = %v, want rollback to 20", states[1].Logical)
	}
	if got := states[1].BlockA.Translation(); got != "translateX(-20px)" {
		t.Errorf("state 1 blockA = %q, want translateX(-20px)", got)
	}
}

func TestBatchAbortOnFirstFailure(t *testing.T) {
	states := []*State{
		&State{BlockA: nil, BlockB: nil, ContentSize: 100}, // fails first
		newState(10, "translateX(-10px)"),
		newState(20, "translateX(-20px)"),
	}
	batch := BatchPositionManagement(states, direction.Left, OpPause, BatchOptions{ContinueOnError: false})
	if batch.Summary.SuccessCount != 0 {
		t.Errorf("successCount = %d, want 0 after abort", batch.Summary.SuccessCount)
	}
	if batch.Summary.FailureCount != 3 {
		t.Errorf("failureCount = %d, want 3 (aborted states count)", batch.Summary.FailureCount)
	}
}

func TestBatchUnknownOp(t *testing.T) {
	batch := BatchPositionManagement([]*State{newState(0, "")}, direction.Left, Op("shake"), BatchOptions{})
	if batch.Summary.FailureCount != 1 {
		t.Errorf("failureCount = %d, want 1", batch.Summary.FailureCount)
	}
}
