package critstudy

import "math"

// WBalanceSeries holds one W′ balance value in joules per sample.
type WBalanceSeries []float64

// PercentOf converts each balance to percent of wPrime.
func (w WBalanceSeries) PercentOf(wPrime float64) []float64 {
	out := make([]float64, len(w))
	if wPrime <= 0 {
		return out
	}
	for i, v := range w {
		out[i] = v / wPrime * 100
	}
	return out
}

// Min returns the lowest balance in the series, or 0 for an empty series.
func (w WBalanceSeries) Min() float64 {
	if len(w) == 0 {
		return 0
	}
	m := w[0]
	for _, v := range w[1:] {
		if v < m {
			m = v
		}
	}
	return m
}

// BalanceTracker integrates W′ balance one 1-second sample at a time.
//
// Above CP the balance drops by the power surplus. At or below CP it recovers
// exponentially toward full with tau = TauA * (CP - P)^TauB. Steps whose tau is
// not a positive finite number skip recovery.
type BalanceTracker struct {
	cp      float64
	wPrime  float64
	tauA    float64
	tauB    float64
	balance float64
}

// NewBalanceTracker returns a tracker starting at a full W′.
func NewBalanceTracker(p Parameters) *BalanceTracker {
	return &BalanceTracker{
		cp:      p.CPWatts,
		wPrime:  p.WPrimeJoules,
		tauA:    p.TauA,
		tauB:    p.TauB,
		balance: p.WPrimeJoules,
	}
}

// Balance is the current W′ balance in joules.
func (t *BalanceTracker) Balance() float64 {
	return t.balance
}

// Step applies one second at the given power and returns the clamped balance.
func (t *BalanceTracker) Step(power float64) float64 {
	if power > t.cp {
		t.balance -= power - t.cp
	} else if deltaP := t.cp - power; deltaP > 0 {
		if tau := RecoveryTau(t.tauA, t.tauB, deltaP); tau > 0 {
			expended := t.wPrime - t.balance
			t.balance += expended * (1 - math.Exp(-1/tau))
		}
	}
	t.balance = clamp(t.balance, 0, t.wPrime)
	return t.balance
}

// RecoveryTau is the recovery time constant in seconds for a deficit below CP.
// It returns 0 when the model term is undefined for the inputs.
func RecoveryTau(tauA, tauB, deltaP float64) float64 {
	if tauA <= 0 || deltaP <= 0 {
		return 0
	}
	tau := tauA * math.Pow(deltaP, tauB)
	if !isFinite(tau) || tau <= 0 {
		return 0
	}
	return tau
}

// TrackBalance returns the W′ balance after every sample of the series.
func TrackBalance(series SampleSeries, p Parameters) WBalanceSeries {
	out := make(WBalanceSeries, len(series))
	t := NewBalanceTracker(p)
	for i, s := range series {
		out[i] = t.Step(s.Power)
	}
	return out
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
