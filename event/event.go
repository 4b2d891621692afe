// Package event defines the engine's observable events and the bounded
// queue they travel through. Producers push from the frame path without
// locking; the engine drains once per frame and fans out to the host's
// callback.
package event

import (
	"time"

	"github.com/chao921125/scroll-seamless-sub000/direction"
)

// Type identifies an engine event.
type Type int

const (
	// Start fires when the engine transitions to running.
	Start Type = iota
	// Stop fires when scrolling stops; tracks keep their positions.
	Stop
	// Pause fires after all tracks froze at their rendered positions.
	Pause
	// Resume fires after all tracks re-synchronized and continued.
	Resume
	// Update fires on option changes; payload carries direction details.
	Update
	// Destroy fires once, when the engine releases its tracks.
	Destroy
	// Warning reports a partial recovery; the engine kept rendering.
	Warning
	// Error reports a typed failure handled by the recovery ladder.
	Error
)

var typeNames = map[Type]string{
	Start:   "start",
	Stop:    "stop",
	Pause:   "pause",
	Resume:  "resume",
	Update:  "update",
	Destroy: "destroy",
	Warning: "warning",
	Error:   "error",
}

// String returns the wire name of the event type.
func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return "unknown"
}

// Event is one engine notification.
type Event struct {
	Type    Type
	Payload any
	// Frame is the scheduler frame the event was produced on.
	Frame uint64
	Time  time.Time
}

// WarningPayload describes a partial recovery.
type WarningPayload struct {
	Code   string
	Detail string
	Track  int
}

// ErrorPayload describes a handled failure.
type ErrorPayload struct {
	// Tag is the taxonomy name, e.g. "positionValidationFailed".
	Tag     string
	Err     error
	Track   int
	Context string
}

// UpdatePayload carries direction-change details.
type UpdatePayload struct {
	From        direction.Direction
	To          direction.Direction
	AxisChanged bool
	// CarriedPosition is the logical position preserved across the change,
	// nil when the position was reset.
	CarriedPosition *float64
}
