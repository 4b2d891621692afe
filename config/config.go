// Package config holds the engine's recognized options: typed defaults, a
// TOML file overlay, validation, and partial updates for the setOptions
// path.
package config

import (
	"fmt"
	"time"

	"github.com/chao921125/scroll-seamless-sub000/direction"
	"github.com/chao921125/scroll-seamless-sub000/event"
)

// ErrInvalidData marks an unusable item list.
var ErrInvalidData = fmt.Errorf("invalid data")

// defaultFrameInterval approximates a 60Hz refresh.
const defaultFrameInterval = 16667 * time.Microsecond

// Config is the full option surface of a scroll engine.
type Config struct {
	// Data is the ordered list of item identifiers to scroll.
	Data []string

	// Direction is one of left, right, up, down.
	Direction direction.Direction

	// Step is pixels advanced per frame.
	Step float64

	// StepWait, when positive, switches to single-step mode: advance one
	// item extent, hold for StepWait, repeat.
	StepWait time.Duration

	// Delay postpones the first advancement after start.
	Delay time.Duration

	// MinCountToScroll disables scrolling below this item count.
	MinCountToScroll int

	// Rows is the lane count for horizontal directions.
	Rows int
	// Cols is the lane count for vertical directions.
	Cols int

	// HoverStop pauses scrolling while hovered.
	HoverStop bool

	// WheelEnable allows external nudges to shift the position.
	WheelEnable bool

	// FrameInterval is the scheduler's frame period.
	FrameInterval time.Duration

	// OnEvent receives engine events; nil discards them.
	OnEvent event.Sink
}

// Default returns the baseline configuration.
func Default() Config {
	return Config{
		Direction:        direction.Left,
		Step:             1,
		MinCountToScroll: 2,
		Rows:             1,
		Cols:             1,
		HoverStop:        true,
		FrameInterval:    defaultFrameInterval,
	}
}

// Validate rejects configurations the engine cannot construct from.
func (c Config) Validate() error {
	if len(c.Data) == 0 {
		return fmt.Errorf("%w: empty item list", ErrInvalidData)
	}
	if !direction.Valid(c.Direction) {
		return fmt.Errorf("%w: %q", direction.ErrInvalidDirection, c.Direction)
	}
	if c.Step <= 0 {
		return fmt.Errorf("%w: step %v must be positive", ErrInvalidData, c.Step)
	}
	if c.Rows < 1 || c.Cols < 1 {
		return fmt.Errorf("%w: rows/cols must be at least 1", ErrInvalidData)
	}
	if c.MinCountToScroll < 0 {
		return fmt.Errorf("%w: minCountToScroll %d", ErrInvalidData, c.MinCountToScroll)
	}
	return nil
}

// TrackCount returns the lane count for the configured direction's axis.
func (c Config) TrackCount() int {
	if direction.IsHorizontal(c.Direction) {
		return c.Rows
	}
	return c.Cols
}

// ShouldScroll reports whether the item count reaches the scroll threshold.
func (c Config) ShouldScroll() bool {
	return len(c.Data) >= c.MinCountToScroll
}

// Update is a partial configuration change; nil fields keep their value.
type Update struct {
	Data        []string
	Direction   *direction.Direction
	Step        *float64
	StepWait    *time.Duration
	Delay       *time.Duration
	MinCount    *int
	Rows        *int
	Cols        *int
	HoverStop   *bool
	WheelEnable *bool
}

// Apply overlays u onto c and returns the merged configuration.
func (c Config) Apply(u Update) Config {
	if u.Data != nil {
		c.Data = u.Data
	}
	if u.Direction != nil {
		c.Direction = *u.Direction
	}
	if u.Step != nil {
		c.Step = *u.Step
	}
	if u.StepWait != nil {
		c.StepWait = *u.StepWait
	}
	if u.Delay != nil {
		c.Delay = *u.Delay
	}
	if u.MinCount != nil {
		c.MinCountToScroll = *u.MinCount
	}
	if u.Rows != nil {
		c.Rows = *u.Rows
	}
	if u.Cols != nil {
		c.Cols = *u.Cols
	}
	if u.HoverStop != nil {
		c.HoverStop = *u.HoverStop
	}
	if u.WheelEnable != nil {
		c.WheelEnable = *u.WheelEnable
	}
	return c
}
