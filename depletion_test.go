package critstudy

import "testing"

func timeAxis(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = float64(i)
	}
	return out
}

func TestDetectDepletionsEdgeTriggered(t *testing.T) {
	p := DefaultParameters()
	p.WPrimeJoules = 20000
	p.DepletionFraction = 0.3 // threshold 6000 J

	tests := []struct {
		name    string
		balance WBalanceSeries
		want    []float64
	}{
		{
			name:    "held below counts once",
			balance: WBalanceSeries{20000, 8000, 5000, 5000, 5000, 5000, 5000},
			want:    []float64{2},
		},
		{
			name:    "oscillation counts each falling edge",
			balance: WBalanceSeries{7000, 5999, 6000, 5999, 6500, 1000},
			want:    []float64{1, 3, 5},
		},
		{
			name:    "equal to threshold is not below",
			balance: WBalanceSeries{6000, 6000, 6000},
			want:    nil,
		},
		{
			name:    "starts below",
			balance: WBalanceSeries{0, 0, 7000},
			want:    []float64{0},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			events := DetectDepletions(tc.balance, timeAxis(len(tc.balance)), p)
			if len(events) != len(tc.want) {
				t.Fatalf("got %d events %+v, want %d", len(events), events, len(tc.want))
			}
			for i, ev := range events {
				if ev.Time != tc.want[i] {
					t.Fatalf("event %d at %v, want %v", i, ev.Time, tc.want[i])
				}
			}
		})
	}
}

func TestDepletionDetectorConstantRun(t *testing.T) {
	p := DefaultParameters()
	d := NewDepletionDetector(p)
	fired := 0
	for i := 0; i < 500; i++ {
		if _, ok := d.Step(float64(i), 0.1*p.WPrimeJoules); ok {
			fired++
		}
	}
	if fired != 1 || !d.Below() {
		t.Fatalf("expected exactly one event and below state, got %d below=%t", fired, d.Below())
	}
}

func TestDepletionEventCarriesBalance(t *testing.T) {
	p := DefaultParameters()
	p.WPrimeJoules = 10000
	events := DetectDepletions(WBalanceSeries{10000, 2500}, []float64{100, 101}, p)
	if len(events) != 1 {
		t.Fatalf("got %d events", len(events))
	}
	if events[0].Time != 101 || events[0].BalanceJoules != 2500 || events[0].BalancePctOfWP != 25 {
		t.Fatalf("unexpected event %+v", events[0])
	}
}
