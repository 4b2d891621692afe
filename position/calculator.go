// Package position computes scroll positions: per-frame advancement with
// seamless wraparound, initial block offsets, pair-connection math, content
// pre-fill, and blank-gap repair. All functions are pure except the extent
// measurer and the blank-area fixer, which touch render nodes.
package position

import (
	"fmt"
	"math"

	"github.com/chao921125/scroll-seamless-sub000/direction"
)

// ErrValidation marks a position that indicates upstream corruption rather
// than normal wraparound.
var ErrValidation = fmt.Errorf("position validation failed")

// maxPositionFactor bounds |position| relative to content size during
// validation. Normal wrap keeps positions inside one extent; anything past
// three extents is corruption, not travel.
const maxPositionFactor = 3.0

// NextPosition advances current by step along dir and folds the result back
// to exactly 0 when it reaches the content bound. Forward directions travel
// through [0, contentSize), reverse through (-contentSize, 0]. Step may have
// either sign: a backward step that crosses the range's near bound folds
// through the far bound by one extent so the position never leaves the
// direction's range. Oversized steps resolve to 0 with no overshoot carried
// over.
func NextPosition(current, step, contentSize float64, dir direction.Direction) float64 {
	cfg, err := direction.GetConfig(dir)
	if err != nil || contentSize <= 0 {
		return 0
	}
	next := current + step
	if cfg.IsReverse {
		next = current - step
	}
	if next >= contentSize || next <= -contentSize {
		return 0
	}
	if cfg.IsReverse {
		if next > 0 {
			next -= contentSize
		}
	} else if next < 0 {
		next += contentSize
	}
	return next
}

// Offsets holds the initial layout offsets of a track's block pair.
type Offsets struct {
	ContentA float64
	ContentB float64
}

// InitialOffsets places block A at 0 and block B one content extent away:
// +contentSize for reverse directions, -contentSize for forward. This is
// what makes the pair gapless at t=0.
func InitialOffsets(contentSize float64, dir direction.Direction) (Offsets, error) {
	cfg, err := direction.GetConfig(dir)
	if err != nil {
		return Offsets{}, err
	}
	if cfg.IsReverse {
		return Offsets{ContentA: 0, ContentB: contentSize}, nil
	}
	return Offsets{ContentA: 0, ContentB: -contentSize}, nil
}

// Connection is the seamless-pair verdict for one logical position.
type Connection struct {
	BlockA      float64
	BlockB      float64
	ShouldReset bool
}

// SeamlessConnection is the single source of truth for whether the two
// blocks of a track are still seamlessly adjacent. BlockB is always exactly
// BlockA±contentSize (sign per direction, matching the seamless pair on the
// side content enters); ShouldReset signals the caller to fold the logical
// position through NextPosition's wrap logic.
func SeamlessConnection(pos, contentSize, containerSize float64, dir direction.Direction) (Connection, error) {
	cfg, err := direction.GetConfig(dir)
	if err != nil {
		return Connection{}, err
	}
	_ = containerSize // reserved for future leading-edge prediction

	conn := Connection{BlockA: pos}
	if cfg.IsReverse {
		conn.BlockB = pos + contentSize
	} else {
		conn.BlockB = pos - contentSize
	}
	conn.ShouldReset = contentSize > 0 && math.Abs(pos) >= contentSize
	return conn, nil
}

// Validate rejects sizes and positions that no healthy frame can produce.
func Validate(pos, contentSize, containerSize float64, dir direction.Direction) error {
	if !direction.Valid(dir) {
		return fmt.Errorf("%w: %v", ErrValidation, direction.ErrInvalidDirection)
	}
	if contentSize <= 0 {
		return fmt.Errorf("%w: content size %v", ErrValidation, contentSize)
	}
	if containerSize <= 0 {
		return fmt.Errorf("%w: container size %v", ErrValidation, containerSize)
	}
	if math.Abs(pos) > maxPositionFactor*contentSize {
		return fmt.Errorf("%w: position %v exceeds %vx content size %v", ErrValidation, pos, maxPositionFactor, contentSize)
	}
	return nil
}
