// Package termnode renders scroll content into a tcell screen region. It
// supplies the engine's two collaborators: a Viewport that can be measured
// as a container, and replicated content Blocks that accept translation
// descriptors.
package termnode

import (
	"fmt"

	"github.com/gdamore/tcell/v2"

	"github.com/chao921125/scroll-seamless-sub000/direction"
)

// Viewport is a rectangular screen region the scroll content moves
// through. Cells map 1:1 to the engine's pixel unit.
type Viewport struct {
	screen tcell.Screen
	x, y   int
	w, h   int
}

// NewViewport clips the given rectangle to the current screen size.
func NewViewport(screen tcell.Screen, x, y, w, h int) *Viewport {
	sw, sh := screen.Size()
	if x+w > sw {
		w = sw - x
	}
	if y+h > sh {
		h = sh - y
	}
	return &Viewport{screen: screen, x: x, y: y, w: w, h: h}
}

// Extent reports the viewport length along the scroll axis.
func (v *Viewport) Extent(axis direction.Axis) (float64, error) {
	size := v.w
	if axis == direction.AxisY {
		size = v.h
	}
	if size <= 0 {
		return 0, fmt.Errorf("termnode: empty viewport on axis %v", axis)
	}
	return float64(size), nil
}

// Clear blanks the viewport region.
func (v *Viewport) Clear(style tcell.Style) {
	for row := 0; row < v.h; row++ {
		for col := 0; col < v.w; col++ {
			v.screen.SetContent(v.x+col, v.y+row, ' ', nil, style)
		}
	}
}

// setCell writes one rune, clipped to the viewport bounds.
func (v *Viewport) setCell(col, row int, r rune, style tcell.Style) {
	if col < 0 || col >= v.w || row < 0 || row >= v.h {
		return
	}
	v.screen.SetContent(v.x+col, v.y+row, r, nil, style)
}
