// Package transform converts logical positions into translation descriptors
// and applies them to render nodes. The descriptor string format
// "translateX(<n>px)" / "translateY(<n>px)" is the stable contract between
// the engine and any rendering collaborator.
package transform

import "github.com/chao921125/scroll-seamless-sub000/direction"

// Node is a render target the engine positions but never creates. The two
// content blocks of a track, and the scroll container, both satisfy subsets
// of this surface; the engine only ever measures extents and writes
// translation/position attributes.
type Node interface {
	// Extent reports the node's content length along the given axis,
	// in pixels (terminal nodes report cells).
	Extent(axis direction.Axis) (float64, error)

	// SetTranslation applies a translation descriptor such as
	// "translateX(-50px)". An empty string clears the translation.
	SetTranslation(desc string) error

	// Translation returns the currently applied descriptor, "" if none.
	Translation() string

	// SetPositionAttr writes the node's layout position property
	// ("left" or "top") in pixels.
	SetPositionAttr(prop string, px float64) error
}
