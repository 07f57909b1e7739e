package critstudy

import (
	"math"
	"reflect"
	"testing"
)

func TestTrackBalanceDepleteThenRecover(t *testing.T) {
	p := DefaultParameters()
	p.CPWatts = 250
	p.WPrimeJoules = 20000
	series := seriesFromPowers(concatPowers(repeatPower(300, 10), repeatPower(200, 60))...)

	bal := TrackBalance(series, p)
	if len(bal) != len(series) {
		t.Fatalf("balance length %d, series length %d", len(bal), len(series))
	}
	for i := 0; i < 10; i++ {
		want := 20000 - 50*float64(i+1)
		if bal[i] != want {
			t.Fatalf("balance[%d] = %v, want %v", i, bal[i], want)
		}
	}

	tau := p.TauA * math.Pow(50, p.TauB)
	want := 19500 + 500*(1-math.Exp(-1/tau))
	if math.Abs(bal[10]-want) > 1e-9 {
		t.Fatalf("first recovery step = %v, want %v", bal[10], want)
	}
	for i := 11; i < len(bal); i++ {
		if bal[i] <= bal[i-1] || bal[i] > p.WPrimeJoules {
			t.Fatalf("balance[%d] = %v did not recover monotonically from %v", i, bal[i], bal[i-1])
		}
	}
}

func TestTrackBalanceAtCPStaysFull(t *testing.T) {
	p := DefaultParameters()
	bal := TrackBalance(seriesFromPowers(repeatPower(p.CPWatts, 300)...), p)
	for i, v := range bal {
		if v != p.WPrimeJoules {
			t.Fatalf("balance[%d] = %v, want full %v", i, v, p.WPrimeJoules)
		}
	}
}

func TestTrackBalanceClamps(t *testing.T) {
	p := DefaultParameters()
	p.WPrimeJoules = 15000
	powers := concatPowers(repeatPower(1200, 60), repeatPower(0, 600), repeatPower(900, 30), repeatPower(100, 30))
	bal := TrackBalance(seriesFromPowers(powers...), p)
	sawEmpty := false
	for i, v := range bal {
		if v < 0 || v > p.WPrimeJoules {
			t.Fatalf("balance[%d] = %v outside [0, %v]", i, v, p.WPrimeJoules)
		}
		if v == 0 {
			sawEmpty = true
		}
	}
	if !sawEmpty {
		t.Fatal("expected balance to bottom out at zero")
	}

	again := TrackBalance(seriesFromPowers(powers...), p)
	if !reflect.DeepEqual(bal, again) {
		t.Fatal("balance tracking is not repeatable")
	}
}

func TestBalanceTrackerSkipsDegenerateRecovery(t *testing.T) {
	tests := []struct {
		name string
		tauA float64
	}{
		{name: "zero tauA", tauA: 0},
		{name: "negative tauA", tauA: -10},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := DefaultParameters()
			p.TauA = tc.tauA
			tr := NewBalanceTracker(p)
			tr.Step(p.CPWatts + 100)
			depleted := tr.Balance()
			if got := tr.Step(p.CPWatts - 100); got != depleted {
				t.Fatalf("recovery should be skipped, got %v want %v", got, depleted)
			}
		})
	}
}

func TestRecoveryTau(t *testing.T) {
	if tau := RecoveryTau(2287.2, -0.688, 0); tau != 0 {
		t.Fatalf("zero deficit should yield 0, got %v", tau)
	}
	small := RecoveryTau(2287.2, -0.688, 20)
	large := RecoveryTau(2287.2, -0.688, 150)
	if !(small > large && large > 0) {
		t.Fatalf("expected faster recovery for larger deficit: tau(20)=%v tau(150)=%v", small, large)
	}
}

func TestWBalanceSeriesHelpers(t *testing.T) {
	w := WBalanceSeries{20000, 10000, 5000, 15000}
	if w.Min() != 5000 {
		t.Fatalf("Min() = %v", w.Min())
	}
	pct := w.PercentOf(20000)
	if pct[1] != 50 || pct[2] != 25 {
		t.Fatalf("PercentOf() = %v", pct)
	}
	if (WBalanceSeries{}).Min() != 0 {
		t.Fatal("empty Min() should be 0")
	}
}
