package critstudy

import "testing"

func TestBinZonesAssignsHalfOpenBins(t *testing.T) {
	w := 20000.0
	tests := []struct {
		pct   float64
		label string
	}{
		{0, "0-10%"},
		{9.99, "0-10%"},
		{10, "10-15%"},
		{24.9, "15-25%"},
		{25, "25-50%"},
		{69.99, "50-70%"},
		{70, "70-100%"},
		{100, "70-100%"},
	}
	for _, tc := range tests {
		h := BinZones(WBalanceSeries{tc.pct / 100 * w}, w, DefaultZoneEdgesPct)
		bin, ok := h.Bin(tc.label)
		if !ok || bin.SampleCount != 1 {
			t.Fatalf("%.2f%% should land in %s, histogram %+v", tc.pct, tc.label, h.Bins)
		}
		if bin.PercentOfDuration != 100 {
			t.Fatalf("percent of duration = %v", bin.PercentOfDuration)
		}
	}
}

func TestBinZonesCoverage(t *testing.T) {
	p := DefaultParameters()
	series := seriesFromPowers(concatPowers(repeatPower(600, 45), repeatPower(100, 200), repeatPower(400, 30))...)
	bal := TrackBalance(series, p)
	h := BinZones(bal, p.WPrimeJoules, p.ZoneEdgesPct)
	if h.CountSum() != len(bal) || h.TotalSamples != len(bal) {
		t.Fatalf("count sum %d / total %d, want %d", h.CountSum(), h.TotalSamples, len(bal))
	}
	if len(h.Bins) != len(p.ZoneEdgesPct)-1 {
		t.Fatalf("got %d bins", len(h.Bins))
	}
}

func TestBinZonesEmptyRange(t *testing.T) {
	h := BinZones(nil, 20000, DefaultZoneEdgesPct)
	if len(h.Bins) != 6 || h.TotalSamples != 0 {
		t.Fatalf("unexpected empty histogram %+v", h)
	}
	for _, b := range h.Bins {
		if b.SampleCount != 0 || b.PercentOfDuration != 0 {
			t.Fatalf("expected zeroed bin, got %+v", b)
		}
	}
}

func TestBinZonesRoundsPercent(t *testing.T) {
	w := 100.0
	h := BinZones(WBalanceSeries{100, 100, 5}, w, DefaultZoneEdgesPct)
	top, _ := h.Bin("70-100%")
	low, _ := h.Bin("0-10%")
	if top.PercentOfDuration != 66.67 || low.PercentOfDuration != 33.33 {
		t.Fatalf("got %v / %v", top.PercentOfDuration, low.PercentOfDuration)
	}
}

func TestBinZonesInWindow(t *testing.T) {
	w := 100.0
	bal := WBalanceSeries{100, 100, 5, 5, 5, 100, 100, 100}
	times := timeAxis(len(bal))

	h := BinZonesInWindow(bal, times, w, DefaultZoneEdgesPct, Window{StartS: 2, EndS: 5})
	if h.TotalSamples != 3 {
		t.Fatalf("window should cover 3 samples, got %d", h.TotalSamples)
	}
	low, _ := h.Bin("0-10%")
	if low.SampleCount != 3 || low.PercentOfDuration != 100 {
		t.Fatalf("unexpected low bin %+v", low)
	}

	empty := BinZonesInWindow(bal, times, w, DefaultZoneEdgesPct, Window{StartS: 50, EndS: 60})
	if empty.TotalSamples != 0 || len(empty.Bins) != 6 {
		t.Fatalf("out-of-range window should yield zeroed zones, got %+v", empty)
	}
}

func TestWindowBounds(t *testing.T) {
	times := timeAxis(10)
	tests := []struct {
		w      Window
		lo, hi int
	}{
		{Window{}, 0, 10},
		{Window{StartS: 3}, 3, 10},
		{Window{EndS: 4}, 0, 4},
		{Window{StartS: 2.5, EndS: 6}, 3, 6},
		{Window{StartS: 20}, 10, 10},
	}
	for _, tc := range tests {
		lo, hi := tc.w.Bounds(times)
		if lo != tc.lo || hi != tc.hi {
			t.Fatalf("%+v.Bounds() = %d,%d want %d,%d", tc.w, lo, hi, tc.lo, tc.hi)
		}
	}
}
