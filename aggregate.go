package critstudy

// FileBout is a bout tagged with the file it came from.
type FileBout struct {
	File string `json:"source_file"`
	Bout
}

// CombinedResult is derived from a list of FileResults and is never stored on its own.
type CombinedResult struct {
	Files          []string      `json:"files"`
	Bouts          []FileBout    `json:"bouts"`
	Summary        BoutSummary   `json:"summary"`
	DepletionCount int           `json:"depletion_count"`
	TotalDurationS int           `json:"total_duration_s"`
	Zones          ZoneHistogram `json:"zones"`
}

// Combine merges per-file results. Bouts are concatenated in file order, means are
// taken over the concatenated list, depletion counts are summed, and zone
// percentages are recomputed from summed sample counts over summed durations
// rather than averaged per file.
func Combine(results []FileResult) CombinedResult {
	combined := CombinedResult{
		Files: make([]string, 0, len(results)),
		Bouts: make([]FileBout, 0),
	}

	plain := make([]Bout, 0)
	zones := ZoneHistogram{Bins: []ZoneBin{}}
	index := make(map[string]int)

	for _, r := range results {
		combined.Files = append(combined.Files, r.Name)
		for _, b := range r.Bouts {
			combined.Bouts = append(combined.Bouts, FileBout{File: r.Name, Bout: b})
			plain = append(plain, b)
		}
		combined.DepletionCount += r.DepletionCount()
		combined.TotalDurationS += r.DurationS

		for _, bin := range r.Zones.Bins {
			i, ok := index[bin.Label]
			if !ok {
				i = len(zones.Bins)
				index[bin.Label] = i
				zones.Bins = append(zones.Bins, ZoneBin{
					Label:  bin.Label,
					MinPct: bin.MinPct,
					MaxPct: bin.MaxPct,
				})
			}
			zones.Bins[i].SampleCount += bin.SampleCount
		}
		zones.TotalSamples += r.Zones.TotalSamples
	}

	zones.recomputePercents()
	combined.Zones = zones
	combined.Summary = SummarizeBouts(plain)
	return combined
}
