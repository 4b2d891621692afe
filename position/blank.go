package position

import (
	"fmt"
	"math"

	"github.com/chao921125/scroll-seamless-sub000/direction"
	"github.com/chao921125/scroll-seamless-sub000/transform"
)

// blankTolerance is the sub-pixel slack allowed at container edges before a
// gap counts as visible.
const blankTolerance = 2.0

// BlankFix records one applied repair.
type BlankFix struct {
	// Block is "A" or "B".
	Block string
	// Delta is the rendered-offset shift applied, always ±contentSize.
	Delta float64
	// Edge names where the gap was found: "leading" or "interior".
	Edge string
}

// BlankReport is the outcome of DetectAndFixBlankAreas.
type BlankReport struct {
	HasBlankAreas bool
	Fixed         []BlankFix
	Errors        []error
}

// DetectAndFixBlankAreas inspects the actual rendered geometry of a block
// pair and repairs visible gaps on the direction's leading edge by shifting
// the trailing block one content extent. Invalid container or content sizes
// short-circuit with an errors entry and no detection.
func DetectAndFixBlankAreas(blockA, blockB transform.Node, containerSize float64, dir direction.Direction) BlankReport {
	var report BlankReport

	cfg, err := direction.GetConfig(dir)
	if err != nil {
		report.Errors = append(report.Errors, err)
		return report
	}
	if blockA == nil || blockB == nil {
		report.Errors = append(report.Errors, fmt.Errorf("%w: missing content block", ErrValidation))
		return report
	}
	if containerSize <= 0 {
		report.Errors = append(report.Errors, fmt.Errorf("%w: container size %v", ErrValidation, containerSize))
		return report
	}

	content, err := blockA.Extent(cfg.Axis)
	if err != nil || content <= 0 {
		report.Errors = append(report.Errors, fmt.Errorf("%w: content size", ErrValidation))
		return report
	}

	rA, err := renderedOffset(blockA, cfg.Axis)
	if err != nil {
		report.Errors = append(report.Errors, err)
		return report
	}
	rB, err := renderedOffset(blockB, cfg.Axis)
	if err != nil {
		report.Errors = append(report.Errors, err)
		return report
	}

	lo, hi := rA, rB
	loName, hiName := "A", "B"
	loNode, hiNode := blockA, blockB
	if rB < rA {
		lo, hi = rB, rA
		loName, hiName = "B", "A"
		loNode, hiNode = blockB, blockA
	}

	// Interior gap: the pair drifted apart further than one extent. Snap the
	// high block back to adjacency before edge checks.
	if hi-(lo+content) > blankTolerance {
		if aerr := shiftRendered(hiNode, hi, -content, cfg); aerr != nil {
			report.Errors = append(report.Errors, aerr)
			return report
		}
		report.HasBlankAreas = true
		report.Fixed = append(report.Fixed, BlankFix{Block: hiName, Delta: -content, Edge: "interior"})
		hi -= content
		if hi < lo {
			lo, hi = hi, lo
			loName, hiName = hiName, loName
			loNode, hiNode = hiNode, loNode
		}
	}

	if cfg.IsReverse {
		// Reverse travel exposes gaps at the low (trailing) edge.
		if lo > blankTolerance {
			if aerr := shiftRendered(loNode, lo, -content, cfg); aerr != nil {
				report.Errors = append(report.Errors, aerr)
				return report
			}
			report.HasBlankAreas = true
			report.Fixed = append(report.Fixed, BlankFix{Block: loName, Delta: -content, Edge: "leading"})
		}
	} else {
		// Forward travel exposes gaps at the high edge as content exits.
		if hi+content < containerSize-blankTolerance {
			if aerr := shiftRendered(hiNode, hi, +content, cfg); aerr != nil {
				report.Errors = append(report.Errors, aerr)
				return report
			}
			report.HasBlankAreas = true
			report.Fixed = append(report.Fixed, BlankFix{Block: hiName, Delta: +content, Edge: "leading"})
		}
	}

	return report
}

// renderedOffset reads a block's current rendered translation. An unset
// translation reads as 0.
func renderedOffset(node transform.Node, axis direction.Axis) (float64, error) {
	desc := node.Translation()
	if desc == "" {
		return 0, nil
	}
	v, err := transform.ParseTranslation(desc, axis)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: non-finite rendered offset", ErrValidation)
	}
	return v, nil
}

// shiftRendered rewrites a node's translation so its rendered offset moves
// by delta. The write goes through the logical mapping so the descriptor
// stays consistent with the direction's sign rule.
func shiftRendered(node transform.Node, rendered, delta float64, cfg direction.Config) error {
	logical := transform.LogicalFromRendered(rendered+delta, cfg)
	desc, err := transform.ToTranslationString(logical, cfg.Direction, false)
	if err != nil {
		return err
	}
	return node.SetTranslation(desc)
}
