package continuity

import (
	"math"

	"github.com/chao921125/scroll-seamless-sub000/direction"
	"github.com/chao921125/scroll-seamless-sub000/transform"
)

// Stats aggregates position diagnostics across a set of states.
type Stats struct {
	Count            int
	MeanPosition     float64
	PositionVariance float64
	// MeanDrift is the average logical/rendered disagreement in pixels.
	MeanDrift float64
	MaxDrift  float64
	// CaptureRate is the fraction of states whose rendered translation was
	// parsable from the live attribute.
	CaptureRate float64
}

// GetPositionStats computes aggregate diagnostics.
func GetPositionStats(states []*State, dir direction.Direction) Stats {
	var stats Stats
	cfg, err := direction.GetConfig(dir)
	if err != nil || len(states) == 0 {
		return stats
	}

	captured := 0
	var sum, sumSq float64
	for _, st := range states {
		if st == nil || st.BlockA == nil {
			continue
		}
		stats.Count++
		sum += st.Logical
		sumSq += st.Logical * st.Logical

		rendered := transform.RenderedOffset(st.Logical, cfg)
		if desc := st.BlockA.Translation(); desc != "" {
			if v, perr := transform.ParseTranslation(desc, cfg.Axis); perr == nil {
				rendered = v
				captured++
			}
		}
		drift := math.Abs(st.Logical - transform.LogicalFromRendered(rendered, cfg))
		stats.MeanDrift += drift
		if drift > stats.MaxDrift {
			stats.MaxDrift = drift
		}
	}
	if stats.Count == 0 {
		return stats
	}

	n := float64(stats.Count)
	stats.MeanPosition = sum / n
	stats.PositionVariance = sumSq/n - stats.MeanPosition*stats.MeanPosition
	stats.MeanDrift /= n
	stats.CaptureRate = float64(captured) / n
	return stats
}

// Health statuses.
const (
	StatusHealthy  = "healthy"
	StatusWarning  = "warning"
	StatusCritical = "critical"
)

// Health collapses position diagnostics into a 0-100 score.
type Health struct {
	Score           int
	Status          string
	Recommendations []string
	Stats           Stats
}

// MonitorPositionHealth scores drift and capture quality across states.
// Score >= 80 is healthy, >= 50 warning, below that critical.
func MonitorPositionHealth(states []*State, dir direction.Direction) Health {
	stats := GetPositionStats(states, dir)
	h := Health{Score: 100, Stats: stats}

	if stats.Count == 0 {
		h.Score = 0
		h.Status = StatusCritical
		h.Recommendations = append(h.Recommendations, "no measurable states; check track construction")
		return h
	}

	if stats.CaptureRate < 1 {
		h.Score -= int(math.Round((1 - stats.CaptureRate) * 40))
		h.Recommendations = append(h.Recommendations, "some rendered translations are unparsable; verify nodes carry translate attributes")
	}
	if stats.MeanDrift > DefaultTolerance {
		h.Score -= 25
		h.Recommendations = append(h.Recommendations, "logical/rendered drift exceeds tolerance; run a pause/resume cycle to re-synchronize")
	} else if stats.MeanDrift > DefaultStabilityTolerance {
		h.Score -= 10
		h.Recommendations = append(h.Recommendations, "minor drift accumulating; consider more frequent blank-area checks")
	}
	if stats.MaxDrift > 2*DefaultTolerance {
		h.Score -= 15
		h.Recommendations = append(h.Recommendations, "at least one track drifted far from its rendered position; reset it to 0")
	}

	if h.Score < 0 {
		h.Score = 0
	}
	switch {
	case h.Score >= 80:
		h.Status = StatusHealthy
	case h.Score >= 50:
		h.Status = StatusWarning
	default:
		h.Status = StatusCritical
	}
	return h
}
