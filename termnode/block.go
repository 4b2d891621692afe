package termnode

import (
	"math"
	"sync"

	"github.com/gdamore/tcell/v2"

	"github.com/chao921125/scroll-seamless-sub000/direction"
	"github.com/chao921125/scroll-seamless-sub000/transform"
)

// itemGap is the blank run between adjacent items, in cells.
const itemGap = 2

// Block is one replicated content strip. It satisfies the engine's render
// node surface: the engine writes translation descriptors and position
// attributes, the block turns them into cell offsets at draw time.
type Block struct {
	mu sync.Mutex

	track  int
	items  []string
	copies int
	axis   direction.Axis

	trans    string
	rendered float64
	attrs    map[string]float64

	style tcell.Style
}

func newBlock(track int, items []string, copies int, axis direction.Axis, style tcell.Style) *Block {
	if copies < 1 {
		copies = 1
	}
	return &Block{
		track:  track,
		items:  items,
		copies: copies,
		axis:   axis,
		attrs:  make(map[string]float64),
		style:  style,
	}
}

// Extent is the strip length in cells: every item plus its gap, repeated
// per copy. Vertical strips occupy one row per item.
func (b *Block) Extent(axis direction.Axis) (float64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if axis == direction.AxisY {
		return float64(len(b.items) * b.copies), nil
	}
	total := 0
	for _, item := range b.items {
		total += len([]rune(item)) + itemGap
	}
	return float64(total * b.copies), nil
}

// SetTranslation parses and stores a translation descriptor. The empty
// string clears it.
func (b *Block) SetTranslation(desc string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if desc == "" {
		b.trans = ""
		b.rendered = 0
		return nil
	}
	v, err := transform.ParseTranslation(desc, b.axis)
	if err != nil {
		return err
	}
	b.trans = desc
	b.rendered = v
	return nil
}

// Translation returns the last applied descriptor.
func (b *Block) Translation() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.trans
}

// SetPositionAttr stores a layout attribute such as "left" or "top".
func (b *Block) SetPositionAttr(prop string, px float64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.attrs[prop] = px
	return nil
}

// PositionAttr reads a stored layout attribute; unset attributes read as 0.
func (b *Block) PositionAttr(prop string) float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.attrs[prop]
}

// offset is the block's current cell offset along its axis. The pair
// translation carries the full scroll offset, companion separation
// included; the layout attribute only records the initial static layout
// and must not be composed on top, or block B would land one extent off.
func (b *Block) offset() int {
	return int(math.Round(b.rendered))
}

// Draw paints the strip into the viewport. crossPos selects the row (or
// column, for vertical strips) the track occupies.
func (b *Block) Draw(v *Viewport, crossPos int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	pos := b.offset()
	if b.axis == direction.AxisY {
		for c := 0; c < b.copies; c++ {
			for _, item := range b.items {
				for i, r := range item {
					v.setCell(crossPos+i, pos, r, b.style)
				}
				pos++
			}
		}
		return
	}
	for c := 0; c < b.copies; c++ {
		for _, item := range b.items {
			for _, r := range item {
				v.setCell(pos, crossPos, r, b.style)
				pos++
			}
			pos += itemGap
		}
	}
}
