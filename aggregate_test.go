package critstudy

import (
	"math"
	"testing"
)

func TestCombineWeightsZonesByDuration(t *testing.T) {
	w := 20000.0
	short := FileResult{
		Name:      "short.fit",
		DurationS: 10,
		Zones:     BinZones(WBalanceSeries(repeatPower(w, 10)), w, DefaultZoneEdgesPct),
	}
	long := FileResult{
		Name:      "long.fit",
		DurationS: 90,
		Zones:     BinZones(WBalanceSeries(repeatPower(0, 90)), w, DefaultZoneEdgesPct),
	}

	combined := Combine([]FileResult{short, long})
	top, ok := combined.Zones.Bin("70-100%")
	if !ok {
		t.Fatalf("missing top zone in %+v", combined.Zones.Bins)
	}
	if top.PercentOfDuration != 10 {
		t.Fatalf("duration-weighted share = %v, want 10 (not the naive 50)", top.PercentOfDuration)
	}
	if top.SampleCount != 10 || combined.Zones.TotalSamples != 100 || combined.TotalDurationS != 100 {
		t.Fatalf("unexpected totals: %+v total=%d duration=%d", top, combined.Zones.TotalSamples, combined.TotalDurationS)
	}
	if combined.Zones.CountSum() != combined.Zones.TotalSamples {
		t.Fatalf("combined coverage broken: %d != %d", combined.Zones.CountSum(), combined.Zones.TotalSamples)
	}
}

func TestCombineConcatenatesBoutsInFileOrder(t *testing.T) {
	a := FileResult{
		Name: "a.fit",
		Bouts: []Bout{
			{StartTime: 10, Duration: 5, MagnitudePctCP: 120},
			{StartTime: 50, Duration: 15, MagnitudePctCP: 150},
		},
		Depletions: []DepletionEvent{{Time: 55}},
	}
	b := FileResult{
		Name:       "b.fit",
		Bouts:      []Bout{{StartTime: 5, Duration: 10, MagnitudePctCP: 180, Severity: SeveritySevere}},
		Depletions: []DepletionEvent{{Time: 7}, {Time: 90}},
	}

	combined := Combine([]FileResult{a, b})
	if len(combined.Bouts) != 3 {
		t.Fatalf("got %d bouts", len(combined.Bouts))
	}
	wantOrder := []struct {
		file  string
		start float64
	}{{"a.fit", 10}, {"a.fit", 50}, {"b.fit", 5}}
	for i, want := range wantOrder {
		got := combined.Bouts[i]
		if got.File != want.file || got.StartTime != want.start {
			t.Fatalf("bout %d = %s@%v, want %s@%v", i, got.File, got.StartTime, want.file, want.start)
		}
	}
	if math.Abs(combined.Summary.AvgMagnitudePct-150) > 1e-9 {
		t.Fatalf("avg magnitude = %v", combined.Summary.AvgMagnitudePct)
	}
	if math.Abs(combined.Summary.AvgDurationS-10) > 1e-9 {
		t.Fatalf("avg duration = %v", combined.Summary.AvgDurationS)
	}
	if combined.DepletionCount != 3 {
		t.Fatalf("depletion count = %d", combined.DepletionCount)
	}
	if len(combined.Files) != 2 || combined.Files[0] != "a.fit" {
		t.Fatalf("files = %v", combined.Files)
	}
}

func TestCombineEmpty(t *testing.T) {
	combined := Combine(nil)
	if combined.Summary.Count != 0 || combined.DepletionCount != 0 || combined.Zones.TotalSamples != 0 {
		t.Fatalf("unexpected combined result %+v", combined)
	}
}

func TestSummarizeBouts(t *testing.T) {
	s := SummarizeBouts([]Bout{
		{Duration: 4, MagnitudePctCP: 110, Severity: SeverityMild},
		{Duration: 6, MagnitudePctCP: 175, Severity: SeveritySevere},
	})
	if s.Count != 2 || s.TotalBoutSeconds != 10 || s.MaxMagnitudePct != 175 {
		t.Fatalf("unexpected summary %+v", s)
	}
	if s.AvgMagnitudePct != 142.5 || s.AvgDurationS != 5 {
		t.Fatalf("unexpected means %+v", s)
	}
	if s.SeverityCounts[SeveritySevere] != 1 || s.SeverityCounts[SeverityModerate] != 0 {
		t.Fatalf("unexpected severity counts %v", s.SeverityCounts)
	}
}
