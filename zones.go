package critstudy

import "fmt"

// ZoneBin is the time spent in one W′ balance band.
type ZoneBin struct {
	Label             string  `json:"zone"`
	MinPct            float64 `json:"min_pct_w_prime"`
	MaxPct            float64 `json:"max_pct_w_prime"`
	SampleCount       int     `json:"sample_count"`
	PercentOfDuration float64 `json:"percent_of_duration"`
}

// ZoneHistogram tallies samples per W′ balance zone. TotalSamples is the length of
// the range that was binned, so counts and percentages can be re-weighted when
// histograms from different files are combined.
type ZoneHistogram struct {
	Bins         []ZoneBin `json:"bins"`
	TotalSamples int       `json:"total_samples"`
}

// Bin looks up a zone by label.
func (h ZoneHistogram) Bin(label string) (ZoneBin, bool) {
	for _, b := range h.Bins {
		if b.Label == label {
			return b, true
		}
	}
	return ZoneBin{}, false
}

// CountSum is the sum of sample counts across all zones.
func (h ZoneHistogram) CountSum() int {
	total := 0
	for _, b := range h.Bins {
		total += b.SampleCount
	}
	return total
}

func (h *ZoneHistogram) recomputePercents() {
	for i := range h.Bins {
		if h.TotalSamples == 0 {
			h.Bins[i].PercentOfDuration = 0
			continue
		}
		h.Bins[i].PercentOfDuration = round2(float64(h.Bins[i].SampleCount) / float64(h.TotalSamples) * 100)
	}
}

// EmptyHistogram returns the zone layout for edges with every count at zero.
func EmptyHistogram(edgesPct []float64) ZoneHistogram {
	if len(edgesPct) < 2 {
		return ZoneHistogram{Bins: []ZoneBin{}}
	}
	bins := make([]ZoneBin, 0, len(edgesPct)-1)
	for i := 0; i < len(edgesPct)-1; i++ {
		bins = append(bins, ZoneBin{
			Label:  zoneLabel(edgesPct[i], edgesPct[i+1]),
			MinPct: edgesPct[i],
			MaxPct: edgesPct[i+1],
		})
	}
	return ZoneHistogram{Bins: bins}
}

func zoneLabel(lo, hi float64) string {
	return fmt.Sprintf("%g-%g%%", lo, hi)
}

// BinZones assigns each balance value, as percent of wPrime, to the half-open zone
// [edge[i], edge[i+1]). The last zone is open above and the first zone absorbs
// anything below edge[0], so every sample lands in exactly one zone.
func BinZones(balance WBalanceSeries, wPrime float64, edgesPct []float64) ZoneHistogram {
	h := EmptyHistogram(edgesPct)
	if len(h.Bins) == 0 || wPrime <= 0 {
		return h
	}
	last := len(h.Bins) - 1
	for _, v := range balance {
		pct := v / wPrime * 100
		idx := last
		for i := 0; i < last; i++ {
			if pct < h.Bins[i].MaxPct {
				idx = i
				break
			}
		}
		h.Bins[idx].SampleCount++
		h.TotalSamples++
	}
	h.recomputePercents()
	return h
}

// BinZonesInWindow bins only the part of balance whose times fall inside w.
func BinZonesInWindow(balance WBalanceSeries, times []float64, wPrime float64, edgesPct []float64, w Window) ZoneHistogram {
	lo, hi := w.Bounds(times)
	if hi > len(balance) {
		hi = len(balance)
	}
	if lo >= hi {
		return EmptyHistogram(edgesPct)
	}
	return BinZones(balance[lo:hi], wPrime, edgesPct)
}
