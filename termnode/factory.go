package termnode

import (
	"sync"

	"github.com/gdamore/tcell/v2"

	"github.com/chao921125/scroll-seamless-sub000/direction"
	"github.com/chao921125/scroll-seamless-sub000/transform"
)

// trackStyles color each lane differently so adjacent tracks read apart.
var trackStyles = []tcell.Style{
	tcell.StyleDefault.Foreground(tcell.ColorWhite),
	tcell.StyleDefault.Foreground(tcell.ColorAqua),
	tcell.StyleDefault.Foreground(tcell.ColorYellow),
	tcell.StyleDefault.Foreground(tcell.ColorFuchsia),
}

// Factory creates blocks for the engine and keeps the live set so the
// host can redraw the whole viewport each frame.
type Factory struct {
	mu   sync.Mutex
	view *Viewport
	axis direction.Axis

	blocks []*Block
}

// NewFactory builds a factory rendering into view along the given
// direction's axis.
func NewFactory(view *Viewport, dir direction.Direction) (*Factory, error) {
	dcfg, err := direction.GetConfig(dir)
	if err != nil {
		return nil, err
	}
	return &Factory{view: view, axis: dcfg.Axis}, nil
}

// SetAxis points future blocks at a new scroll axis. Called by the host
// before an axis-changing option update; existing blocks are released by
// the engine's rebuild.
func (f *Factory) SetAxis(dir direction.Direction) error {
	dcfg, err := direction.GetConfig(dir)
	if err != nil {
		return err
	}
	f.mu.Lock()
	f.axis = dcfg.Axis
	f.mu.Unlock()
	return nil
}

// NewBlock creates one content strip for a track.
func (f *Factory) NewBlock(track int, data []string, copies int) (transform.Node, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b := newBlock(track, data, copies, f.axis, trackStyles[track%len(trackStyles)])
	f.blocks = append(f.blocks, b)
	return b, nil
}

// Release forgets a block; it stops being drawn.
func (f *Factory) Release(node transform.Node) {
	b, ok := node.(*Block)
	if !ok {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, cur := range f.blocks {
		if cur == b {
			f.blocks = append(f.blocks[:i], f.blocks[i+1:]...)
			return
		}
	}
}

// Draw clears the viewport and paints every live block at its current
// offset. The caller shows the screen.
func (f *Factory) Draw() {
	f.mu.Lock()
	blocks := make([]*Block, len(f.blocks))
	copy(blocks, f.blocks)
	f.mu.Unlock()

	f.view.Clear(tcell.StyleDefault)
	for _, b := range blocks {
		b.Draw(f.view, b.track)
	}
}
