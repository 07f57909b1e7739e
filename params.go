package critstudy

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrInvalidParameters is returned for parameter sets the model cannot run with.
	ErrInvalidParameters = errors.New("invalid parameters")
	// ErrEmptySeries is returned when a series has no samples.
	ErrEmptySeries = errors.New("empty sample series")
	// ErrNonMonotonicSeries is returned when sample times do not strictly increase.
	ErrNonMonotonicSeries = errors.New("non-monotonic sample series")
	// ErrMalformedSeries is returned when a sample holds NaN or infinite values.
	ErrMalformedSeries = errors.New("malformed sample series")
)

// PreconditionError describes which input failed validation.
type PreconditionError struct {
	Field  string
	Reason string
	Err    error
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("%v: %s %s", e.Err, e.Field, e.Reason)
}

func (e *PreconditionError) Unwrap() error {
	return e.Err
}

// Parameters holds the rider-specific model inputs for one analysis run.
type Parameters struct {
	CPWatts           float64   `json:"cp_w" yaml:"cp_w"`
	WPrimeJoules      float64   `json:"w_prime_j" yaml:"w_prime_j"`
	ThresholdFactor   float64   `json:"threshold_factor" yaml:"threshold_factor"`
	MinBoutDuration   int       `json:"min_bout_duration_s" yaml:"min_bout_duration_s"`
	GapTolerance      int       `json:"gap_tolerance_samples" yaml:"gap_tolerance_samples"`
	TauA              float64   `json:"tau_a" yaml:"tau_a"`
	TauB              float64   `json:"tau_b" yaml:"tau_b"`
	DepletionFraction float64   `json:"depletion_fraction" yaml:"depletion_fraction"`
	ZoneEdgesPct      []float64 `json:"zone_edges_pct" yaml:"zone_edges_pct"`
}

// DefaultZoneEdgesPct are the W′ balance zone boundaries in percent of W′.
// Values at or above the last-but-one edge fall into the final zone.
var DefaultZoneEdgesPct = []float64{0, 10, 15, 25, 50, 70, 100}

// DefaultParameters returns the parameter set used when nothing is configured.
// The recovery constants follow the power-law time constant tau = 2287.2 * dCP^-0.688.
func DefaultParameters() Parameters {
	return Parameters{
		CPWatts:           250,
		WPrimeJoules:      20000,
		ThresholdFactor:   1.05,
		MinBoutDuration:   3,
		GapTolerance:      3,
		TauA:              2287.2,
		TauB:              -0.688,
		DepletionFraction: 0.30,
		ZoneEdgesPct:      append([]float64(nil), DefaultZoneEdgesPct...),
	}
}

// ThresholdWatts is the power a sample must exceed to count as bout effort.
func (p Parameters) ThresholdWatts() float64 {
	return p.CPWatts * p.ThresholdFactor
}

// DepletionThresholdJoules is the balance below which a depletion event fires.
func (p Parameters) DepletionThresholdJoules() float64 {
	return p.DepletionFraction * p.WPrimeJoules
}

// ValidateParameters checks the preconditions every core operation relies on.
func ValidateParameters(p Parameters) error {
	fail := func(field, reason string) error {
		return &PreconditionError{Field: field, Reason: reason, Err: ErrInvalidParameters}
	}
	switch {
	case !isFinite(p.CPWatts) || p.CPWatts <= 0:
		return fail("cp_w", "must be > 0")
	case !isFinite(p.WPrimeJoules) || p.WPrimeJoules <= 0:
		return fail("w_prime_j", "must be > 0")
	case !isFinite(p.ThresholdFactor) || p.ThresholdFactor < 1:
		return fail("threshold_factor", "must be >= 1.0")
	case p.MinBoutDuration < 1:
		return fail("min_bout_duration_s", "must be >= 1")
	case p.GapTolerance < 0:
		return fail("gap_tolerance_samples", "must be >= 0")
	case !isFinite(p.DepletionFraction) || p.DepletionFraction <= 0 || p.DepletionFraction >= 1:
		return fail("depletion_fraction", "must be in (0,1)")
	case !isFinite(p.TauA) || !isFinite(p.TauB):
		return fail("tau_a/tau_b", "must be finite")
	}
	if len(p.ZoneEdgesPct) < 2 {
		return fail("zone_edges_pct", "needs at least two edges")
	}
	for i := 1; i < len(p.ZoneEdgesPct); i++ {
		if !(p.ZoneEdgesPct[i] > p.ZoneEdgesPct[i-1]) {
			return fail("zone_edges_pct", "must be strictly ascending")
		}
	}
	return nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
