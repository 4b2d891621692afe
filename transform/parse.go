package transform

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/chao921125/scroll-seamless-sub000/direction"
)

// ErrUnparsableTransform is returned when a rendered transform string holds
// no recognizable translation for the requested axis.
var ErrUnparsableTransform = fmt.Errorf("unparsable transform")

// ParseTranslation extracts the rendered offset along axis from a transform
// descriptor. Plain translate forms are preferred, then matrix, then
// matrix3d; the first parsable, finite value wins.
func ParseTranslation(desc string, axis direction.Axis) (float64, error) {
	desc = strings.TrimSpace(desc)
	if desc == "" {
		return 0, fmt.Errorf("%w: empty descriptor", ErrUnparsableTransform)
	}

	type attempt func(string, direction.Axis) (float64, bool)
	for _, try := range []attempt{parseTranslate, parseMatrix, parseMatrix3D} {
		if v, ok := try(desc, axis); ok {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return 0, fmt.Errorf("%w: non-finite value in %q", ErrUnparsableTransform, desc)
			}
			return v, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnparsableTransform, desc)
}

// parseTranslate handles translateX(-50px), translateY(10px) and the
// two-argument translate(-50px, 0px) form.
func parseTranslate(desc string, axis direction.Axis) (float64, bool) {
	fn, args, ok := splitCall(desc)
	if !ok {
		return 0, false
	}
	switch fn {
	case "translateX":
		if axis != direction.AxisX || len(args) != 1 {
			return 0, false
		}
		return parsePx(args[0])
	case "translateY":
		if axis != direction.AxisY || len(args) != 1 {
			return 0, false
		}
		return parsePx(args[0])
	case "translate":
		idx := 0
		if axis == direction.AxisY {
			idx = 1
		}
		if idx >= len(args) {
			// translate(x) implies y=0
			if axis == direction.AxisY && len(args) == 1 {
				return 0, true
			}
			return 0, false
		}
		return parsePx(args[idx])
	}
	return 0, false
}

// parseMatrix handles matrix(a, b, c, d, tx, ty).
func parseMatrix(desc string, axis direction.Axis) (float64, bool) {
	fn, args, ok := splitCall(desc)
	if !ok || fn != "matrix" || len(args) != 6 {
		return 0, false
	}
	idx := 4
	if axis == direction.AxisY {
		idx = 5
	}
	return parseNumber(args[idx])
}

// parseMatrix3D handles matrix3d with its 16 column-major values; the
// translation lives in slots 13 (tx) and 14 (ty).
func parseMatrix3D(desc string, axis direction.Axis) (float64, bool) {
	fn, args, ok := splitCall(desc)
	if !ok || fn != "matrix3d" || len(args) != 16 {
		return 0, false
	}
	idx := 12
	if axis == direction.AxisY {
		idx = 13
	}
	return parseNumber(args[idx])
}

func splitCall(desc string) (fn string, args []string, ok bool) {
	open := strings.IndexByte(desc, '(')
	if open < 0 || !strings.HasSuffix(desc, ")") {
		return "", nil, false
	}
	fn = strings.TrimSpace(desc[:open])
	inner := desc[open+1 : len(desc)-1]
	for _, part := range strings.Split(inner, ",") {
		args = append(args, strings.TrimSpace(part))
	}
	return fn, args, true
}

func parsePx(s string) (float64, bool) {
	s = strings.TrimSuffix(strings.TrimSpace(s), "px")
	return parseNumber(s)
}

func parseNumber(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
