package critstudy

import (
	"math"
	"reflect"
	"testing"
)

func seriesFromPowers(powers ...float64) SampleSeries {
	out := make(SampleSeries, len(powers))
	for i, p := range powers {
		out[i] = Sample{Time: float64(i), Power: p}
	}
	return out
}

func repeatPower(power float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = power
	}
	return out
}

func concatPowers(parts ...[]float64) []float64 {
	var out []float64
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

func boutParams(cp, factor float64, minDuration, gap int) Parameters {
	p := DefaultParameters()
	p.CPWatts = cp
	p.ThresholdFactor = factor
	p.MinBoutDuration = minDuration
	p.GapTolerance = gap
	return p
}

func TestDetectBoutsSingleEffortThenRecovery(t *testing.T) {
	p := boutParams(250, 1.05, 3, 3)
	series := seriesFromPowers(concatPowers(repeatPower(300, 10), repeatPower(200, 60))...)

	bouts := DetectBouts(series, p)
	if len(bouts) != 1 {
		t.Fatalf("expected 1 bout, got %d", len(bouts))
	}
	b := bouts[0]
	if b.Duration != 10 {
		t.Fatalf("duration: got %d want 10", b.Duration)
	}
	if math.Abs(b.MagnitudePctCP-120) > 1e-9 {
		t.Fatalf("magnitude: got %v want 120", b.MagnitudePctCP)
	}
	if b.StartTime != 0 || b.EndTime != 9 {
		t.Fatalf("unexpected bounds %v..%v", b.StartTime, b.EndTime)
	}
	if b.Severity != SeverityMild {
		t.Fatalf("severity: got %s", b.Severity)
	}
}

func TestDetectBoutsAtCPIsIdle(t *testing.T) {
	p := boutParams(250, 1.0, 1, 3)
	bouts := DetectBouts(seriesFromPowers(repeatPower(250, 120)...), p)
	if len(bouts) != 0 {
		t.Fatalf("threshold is strict, expected no bouts, got %d", len(bouts))
	}
}

func TestDetectBoutsCases(t *testing.T) {
	tests := []struct {
		name         string
		params       Parameters
		powers       []float64
		wantDuration []int
		wantAvg      []float64
	}{
		{
			name:         "interior dips stay in bout",
			params:       boutParams(100, 1.0, 3, 2),
			powers:       []float64{200, 200, 50, 50, 200, 200, 0, 0, 0, 0},
			wantDuration: []int{6},
			wantAvg:      []float64{150},
		},
		{
			name:         "too short",
			params:       boutParams(100, 1.0, 3, 2),
			powers:       []float64{0, 200, 200, 0, 0, 0},
			wantDuration: nil,
		},
		{
			name:         "zero gap tolerance splits",
			params:       boutParams(100, 1.0, 3, 0),
			powers:       []float64{200, 200, 200, 50, 200, 200, 200},
			wantDuration: []int{3, 3},
			wantAvg:      []float64{200, 200},
		},
		{
			name:         "bout open at end of series",
			params:       boutParams(100, 1.0, 3, 3),
			powers:       []float64{50, 200, 200, 200},
			wantDuration: []int{3},
			wantAvg:      []float64{200},
		},
		{
			name:         "trailing dips at end of series are trimmed",
			params:       boutParams(100, 1.0, 3, 3),
			powers:       []float64{200, 200, 200, 50, 50},
			wantDuration: []int{3},
			wantAvg:      []float64{200},
		},
		{
			name:         "dips pull average under threshold",
			params:       boutParams(100, 1.0, 1, 3),
			powers:       []float64{101, 0, 0, 0, 101, 0, 0, 0, 101},
			wantDuration: nil,
		},
		{
			name:         "all idle",
			params:       boutParams(100, 1.05, 3, 3),
			powers:       repeatPower(80, 30),
			wantDuration: nil,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			bouts := DetectBouts(seriesFromPowers(tc.powers...), tc.params)
			if len(bouts) != len(tc.wantDuration) {
				t.Fatalf("got %d bouts, want %d: %+v", len(bouts), len(tc.wantDuration), bouts)
			}
			for i, b := range bouts {
				if b.Duration != tc.wantDuration[i] {
					t.Fatalf("bout %d duration: got %d want %d", i, b.Duration, tc.wantDuration[i])
				}
				if math.Abs(b.AveragePower-tc.wantAvg[i]) > 1e-9 {
					t.Fatalf("bout %d avg: got %v want %v", i, b.AveragePower, tc.wantAvg[i])
				}
			}
		})
	}
}

func TestDetectBoutsValidity(t *testing.T) {
	p := boutParams(250, 1.05, 5, 3)
	powers := make([]float64, 0, 2000)
	for i := 0; i < 2000; i++ {
		// deterministic mix of surges, dips and steady riding
		switch {
		case i%97 < 12:
			powers = append(powers, 300+float64(i%40)*5)
		case i%97 < 15:
			powers = append(powers, 150)
		case i%97 < 20:
			powers = append(powers, 265)
		default:
			powers = append(powers, 180)
		}
	}
	series := seriesFromPowers(powers...)
	bouts := DetectBouts(series, p)
	if len(bouts) == 0 {
		t.Fatal("expected bouts in the synthetic ride")
	}
	for i, b := range bouts {
		if b.Duration < p.MinBoutDuration {
			t.Fatalf("bout %d shorter than minimum: %d", i, b.Duration)
		}
		if b.MagnitudePctCP < p.ThresholdFactor*100 {
			t.Fatalf("bout %d under threshold: %v", i, b.MagnitudePctCP)
		}
		if i > 0 && b.StartTime <= bouts[i-1].EndTime {
			t.Fatalf("bouts out of order at %d", i)
		}
	}

	again := DetectBouts(series, p)
	if !reflect.DeepEqual(bouts, again) {
		t.Fatal("bout detection is not repeatable")
	}
}

func TestBoutDetectorStep(t *testing.T) {
	d := NewBoutDetector(boutParams(100, 1.0, 2, 1))
	steps := []float64{150, 150, 50}
	for i, p := range steps {
		if _, ok := d.Step(Sample{Time: float64(i), Power: p}); ok {
			t.Fatalf("unexpected close at step %d", i)
		}
		if !d.Active() {
			t.Fatalf("expected open bout after step %d", i)
		}
	}
	b, ok := d.Step(Sample{Time: 3, Power: 50})
	if !ok {
		t.Fatal("expected bout to close when the gap exceeded tolerance")
	}
	if b.Duration != 2 || d.Active() {
		t.Fatalf("unexpected state after close: %+v active=%t", b, d.Active())
	}
	if _, ok := d.Flush(); ok {
		t.Fatal("flush on idle detector must not emit")
	}
}

func TestBoutDetectorFlushDropsTrailingGap(t *testing.T) {
	d := NewBoutDetector(boutParams(100, 1.0, 2, 3))
	for i, p := range []float64{150, 150, 150, 50, 50} {
		if _, ok := d.Step(Sample{Time: float64(i), Power: p}); ok {
			t.Fatalf("unexpected close at step %d", i)
		}
	}
	b, ok := d.Flush()
	if !ok {
		t.Fatal("expected flush to emit the open bout")
	}
	if b.Duration != 3 || b.EndTime != 2 || b.AveragePower != 150 {
		t.Fatalf("flush should drop the trailing gap samples: %+v", b)
	}
}

func TestClassifySeverity(t *testing.T) {
	tests := []struct {
		mag  float64
		want Severity
		col  string
	}{
		{105, SeverityMild, "blue"},
		{139.99, SeverityMild, "blue"},
		{140, SeverityModerate, "orange"},
		{169.9, SeverityModerate, "orange"},
		{170, SeveritySevere, "red"},
		{320, SeveritySevere, "red"},
	}
	for _, tc := range tests {
		got := ClassifySeverity(tc.mag)
		if got != tc.want || got.Color() != tc.col {
			t.Fatalf("ClassifySeverity(%v) = %s/%s, want %s/%s", tc.mag, got, got.Color(), tc.want, tc.col)
		}
	}
}
