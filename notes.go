package critstudy

import (
	"fmt"
	"math"
	"strings"
)

// BuildFileNotes turns one file's results into a short effort summary.
func BuildFileNotes(r FileResult, p Parameters) string {
	var b strings.Builder

	fmt.Fprintf(&b, "File: %s\n", r.Name)
	fmt.Fprintf(
		&b,
		"Duration %s | CP %.0f W | W' %.1f kJ | Bout threshold %.0f W (%.0f%% CP)\n",
		formatDuration(float64(r.DurationS)),
		p.CPWatts,
		p.WPrimeJoules/1000.0,
		p.ThresholdWatts(),
		p.ThresholdFactor*100,
	)
	if !r.Window.IsZero() {
		fmt.Fprintf(&b, "Zone/depletion window: %s\n", formatWindow(r.Window))
	}

	writeBoutLines(&b, r.Summary)

	fmt.Fprintf(
		&b,
		"W' low point %.1f kJ (%.0f%%) | Matches burned below %.0f%%: %d\n",
		r.MinBalance/1000.0,
		safePct(r.MinBalance, p.WPrimeJoules),
		p.DepletionFraction*100,
		r.DepletionCount(),
	)
	writeZoneLines(&b, r.Zones)

	return strings.TrimSpace(b.String())
}

// BuildCombinedNotes summarises a combined result across files.
func BuildCombinedNotes(c CombinedResult, p Parameters) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Combined analysis: %d file(s), %s total\n", len(c.Files), formatDuration(float64(c.TotalDurationS)))
	fmt.Fprintf(&b, "CP %.0f W | W' %.1f kJ\n", p.CPWatts, p.WPrimeJoules/1000.0)
	writeBoutLines(&b, c.Summary)
	fmt.Fprintf(&b, "Matches burned: %d\n", c.DepletionCount)
	writeZoneLines(&b, c.Zones)

	return strings.TrimSpace(b.String())
}

func writeBoutLines(b *strings.Builder, s BoutSummary) {
	if s.Count == 0 {
		b.WriteString("No high-intensity bouts detected.\n")
		return
	}
	fmt.Fprintf(
		b,
		"Efforts %d | Avg magnitude %.1f%% CP | Avg duration %.1f s | Peak %.0f%% CP\n",
		s.Count,
		s.AvgMagnitudePct,
		s.AvgDurationS,
		s.MaxMagnitudePct,
	)
	fmt.Fprintf(
		b,
		"Severity: %d severe / %d moderate / %d mild | Time in bouts %s\n",
		s.SeverityCounts[SeveritySevere],
		s.SeverityCounts[SeverityModerate],
		s.SeverityCounts[SeverityMild],
		formatDuration(float64(s.TotalBoutSeconds)),
	)
}

func writeZoneLines(b *strings.Builder, h ZoneHistogram) {
	if h.TotalSamples == 0 {
		return
	}
	b.WriteString("\nW' Balance Distribution\n")
	for i := len(h.Bins) - 1; i >= 0; i-- {
		z := h.Bins[i]
		if z.SampleCount == 0 {
			continue
		}
		fmt.Fprintf(b, "- %s: %s (%.2f%%)\n", z.Label, formatDuration(float64(z.SampleCount)), z.PercentOfDuration)
	}
}

func formatWindow(w Window) string {
	if w.EndS <= 0 {
		return fmt.Sprintf("%s to end", formatDuration(w.StartS))
	}
	return fmt.Sprintf("%s to %s", formatDuration(w.StartS), formatDuration(w.EndS))
}

func safePct(v, of float64) float64 {
	if of <= 0 {
		return 0
	}
	return v / of * 100
}

func formatDuration(seconds float64) string {
	if seconds <= 0 {
		return "0s"
	}
	s := int(math.Round(seconds))
	h := s / 3600
	m := (s % 3600) / 60
	sec := s % 60
	if h > 0 {
		return fmt.Sprintf("%dh%02dm%02ds", h, m, sec)
	}
	if m > 0 {
		return fmt.Sprintf("%dm%02ds", m, sec)
	}
	return fmt.Sprintf("%ds", sec)
}
