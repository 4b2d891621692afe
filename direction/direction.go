// Package direction defines the four scroll directions and the axis/sign/
// property metadata derived from them. The table is the single source of
// truth for travel semantics: left and up are the forward directions (logical
// position grows over time), right and down are the reverse directions
// (logical position shrinks into the negative range).
package direction

import "fmt"

// Direction is one of the four scroll direction tags.
type Direction string

const (
	Left  Direction = "left"
	Right Direction = "right"
	Up    Direction = "up"
	Down  Direction = "down"
)

// Axis identifies the scroll axis.
type Axis uint8

const (
	AxisX Axis = iota
	AxisY
)

// ErrInvalidDirection is returned for any tag outside the four known values.
var ErrInvalidDirection = fmt.Errorf("invalid direction")

// Config is the immutable metadata record for one direction.
type Config struct {
	Direction Direction
	Axis      Axis
	// IsReverse is true when logical position decreases over time.
	IsReverse bool
	// TranslateProp is the translation function name of the render contract.
	TranslateProp string
	// MeasureProp is the extent property measured along the scroll axis.
	MeasureProp string
	// PositionProp is the layout position property of a content block.
	PositionProp string
}

var table = map[Direction]Config{
	Left:  {Direction: Left, Axis: AxisX, IsReverse: false, TranslateProp: "translateX", MeasureProp: "width", PositionProp: "left"},
	Right: {Direction: Right, Axis: AxisX, IsReverse: true, TranslateProp: "translateX", MeasureProp: "width", PositionProp: "left"},
	Up:    {Direction: Up, Axis: AxisY, IsReverse: false, TranslateProp: "translateY", MeasureProp: "height", PositionProp: "top"},
	Down:  {Direction: Down, Axis: AxisY, IsReverse: true, TranslateProp: "translateY", MeasureProp: "height", PositionProp: "top"},
}

// GetConfig returns the metadata record for dir.
func GetConfig(dir Direction) (Config, error) {
	cfg, ok := table[dir]
	if !ok {
		return Config{}, fmt.Errorf("%w: %q", ErrInvalidDirection, dir)
	}
	return cfg, nil
}

// MustConfig is GetConfig for directions already validated upstream.
// Panics on an unknown tag.
func MustConfig(dir Direction) Config {
	cfg, err := GetConfig(dir)
	if err != nil {
		panic(err)
	}
	return cfg
}

// Valid reports whether dir is one of the four known tags.
func Valid(dir Direction) bool {
	_, ok := table[dir]
	return ok
}

// IsHorizontal reports whether dir scrolls along the X axis.
// Unknown tags report false.
func IsHorizontal(dir Direction) bool {
	cfg, ok := table[dir]
	return ok && cfg.Axis == AxisX
}

// IsReverse reports whether dir travels in the reverse sense.
// Unknown tags report false.
func IsReverse(dir Direction) bool {
	cfg, ok := table[dir]
	return ok && cfg.IsReverse
}

// Opposite returns the mirrored direction on the same axis.
func Opposite(dir Direction) Direction {
	switch dir {
	case Left:
		return Right
	case Right:
		return Left
	case Up:
		return Down
	case Down:
		return Up
	}
	return dir
}

// UnmarshalText implements encoding.TextUnmarshaler so directions can be
// decoded from configuration files.
func (d *Direction) UnmarshalText(text []byte) error {
	dir := Direction(text)
	if !Valid(dir) {
		return fmt.Errorf("%w: %q", ErrInvalidDirection, dir)
	}
	*d = dir
	return nil
}
