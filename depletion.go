package critstudy

// DepletionEvent marks the sample where W′ balance fell below the depletion threshold.
type DepletionEvent struct {
	Time           float64 `json:"time_s"`
	BalanceJoules  float64 `json:"balance_j"`
	BalancePctOfWP float64 `json:"balance_pct_w_prime"`
}

// DepletionDetector is an edge-triggered 1-bit state machine. It fires once per
// crossing below the threshold and re-arms only when the balance returns to or
// above it.
type DepletionDetector struct {
	threshold float64
	wPrime    float64
	below     bool
}

// NewDepletionDetector returns an armed detector for the given parameters.
func NewDepletionDetector(p Parameters) *DepletionDetector {
	return &DepletionDetector{
		threshold: p.DepletionThresholdJoules(),
		wPrime:    p.WPrimeJoules,
	}
}

// Below reports whether the last observed balance was under the threshold.
func (d *DepletionDetector) Below() bool {
	return d.below
}

// Step observes one balance value at time t.
func (d *DepletionDetector) Step(t, balance float64) (DepletionEvent, bool) {
	if balance >= d.threshold {
		d.below = false
		return DepletionEvent{}, false
	}
	if d.below {
		return DepletionEvent{}, false
	}
	d.below = true
	ev := DepletionEvent{Time: t, BalanceJoules: balance}
	if d.wPrime > 0 {
		ev.BalancePctOfWP = balance / d.wPrime * 100
	}
	return ev, true
}

// DetectDepletions returns the falling-edge crossings in balance. times must be
// parallel to balance.
func DetectDepletions(balance WBalanceSeries, times []float64, p Parameters) []DepletionEvent {
	events := make([]DepletionEvent, 0)
	d := NewDepletionDetector(p)
	n := len(balance)
	if len(times) < n {
		n = len(times)
	}
	for i := 0; i < n; i++ {
		if ev, ok := d.Step(times[i], balance[i]); ok {
			events = append(events, ev)
		}
	}
	return events
}
