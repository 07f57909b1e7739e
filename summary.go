package critstudy

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// BoutSummary condenses a bout list into the headline effort metrics.
type BoutSummary struct {
	Count            int              `json:"count"`
	AvgMagnitudePct  float64          `json:"avg_magnitude_pct_cp"`
	AvgDurationS     float64          `json:"avg_duration_s"`
	MaxMagnitudePct  float64          `json:"max_magnitude_pct_cp"`
	TotalBoutSeconds int              `json:"total_bout_seconds"`
	SeverityCounts   map[Severity]int `json:"severity_counts"`
}

// SummarizeBouts computes unweighted means over the bout list.
func SummarizeBouts(bouts []Bout) BoutSummary {
	summary := BoutSummary{
		Count: len(bouts),
		SeverityCounts: map[Severity]int{
			SeverityMild:     0,
			SeverityModerate: 0,
			SeveritySevere:   0,
		},
	}
	if len(bouts) == 0 {
		return summary
	}

	magnitudes := make([]float64, len(bouts))
	durations := make([]float64, len(bouts))
	for i, b := range bouts {
		magnitudes[i] = b.MagnitudePctCP
		durations[i] = float64(b.Duration)
		summary.TotalBoutSeconds += b.Duration
		summary.SeverityCounts[b.Severity]++
	}
	summary.AvgMagnitudePct = stat.Mean(magnitudes, nil)
	summary.AvgDurationS = stat.Mean(durations, nil)
	summary.MaxMagnitudePct = floats.Max(magnitudes)
	return summary
}
