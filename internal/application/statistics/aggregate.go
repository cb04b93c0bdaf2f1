package statistics

import (
	"math"

	"github.com/runease-api/internal/domain"
)

// Summary is the totals shown on an athlete's statistics screen.
type Summary struct {
	TotalDistance float64 `json:"total_distance"` // kilometres, two decimals
	TotalDuration int     `json:"total_duration"` // whole minutes
	SessionCount  int     `json:"session_count"`
}

// maxMinutes keeps the duration total exactly representable as an int.
const maxMinutes = 1 << 53

// Aggregate folds logs into a Summary. Distances or durations that are not
// finite numbers count as zero, as does any value that would push a total
// past the float range. Every log counts as a session.
func Aggregate(logs []domain.TrainingLog) Summary {
	var distance, duration float64
	for _, l := range logs {
		distance = addFinite(distance, l.ActualDistance.Float())
		duration = addFinite(duration, l.ActualDuration.Float())
	}
	minutes := math.Max(-maxMinutes, math.Min(maxMinutes, math.Round(duration)))
	return Summary{
		TotalDistance: round2(distance),
		TotalDuration: int(minutes),
		SessionCount:  len(logs),
	}
}

func addFinite(sum, v float64) float64 {
	if t := sum + v; !math.IsInf(t, 0) {
		return t
	}
	return sum
}

func round2(v float64) float64 {
	scaled := v * 100
	if math.IsInf(scaled, 0) {
		return v
	}
	return math.Round(scaled) / 100
}
