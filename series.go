package critstudy

// Sample is one 1 Hz power reading. Time is seconds from the start of the activity.
type Sample struct {
	Time  float64 `json:"time_s"`
	Power float64 `json:"power_w"`
}

// SampleSeries is an ordered, uniformly 1-second-spaced run of samples.
type SampleSeries []Sample

// Times returns the time axis of the series.
func (s SampleSeries) Times() []float64 {
	out := make([]float64, len(s))
	for i, sample := range s {
		out[i] = sample.Time
	}
	return out
}

// DurationSeconds is the sample count, which equals elapsed seconds on a 1 Hz grid.
func (s SampleSeries) DurationSeconds() int {
	return len(s)
}

// ValidateSeries rejects empty series and series whose time does not strictly increase.
func ValidateSeries(s SampleSeries) error {
	if len(s) == 0 {
		return &PreconditionError{Field: "series", Reason: "has no samples", Err: ErrEmptySeries}
	}
	for i, sample := range s {
		if !isFinite(sample.Time) || !isFinite(sample.Power) {
			return &PreconditionError{Field: "series", Reason: "contains a non-finite sample", Err: ErrMalformedSeries}
		}
		if i > 0 && !(sample.Time > s[i-1].Time) {
			return &PreconditionError{Field: "series", Reason: "time must strictly increase", Err: ErrNonMonotonicSeries}
		}
	}
	return nil
}

// Window selects a [StartS, EndS) sub-range of a series by sample time.
// A zero EndS means "to the end of the series".
type Window struct {
	StartS float64 `json:"start_s" yaml:"start_s"`
	EndS   float64 `json:"end_s" yaml:"end_s"`
}

// IsZero reports whether the window selects the whole series.
func (w Window) IsZero() bool {
	return w.StartS <= 0 && w.EndS <= 0
}

// Bounds returns the [lo, hi) sample index range the window covers in times.
// Times must be ascending. An empty selection returns lo == hi.
func (w Window) Bounds(times []float64) (lo, hi int) {
	if w.IsZero() {
		return 0, len(times)
	}
	lo = len(times)
	for i, t := range times {
		if t >= w.StartS {
			lo = i
			break
		}
	}
	hi = lo
	for hi < len(times) && (w.EndS <= 0 || times[hi] < w.EndS) {
		hi++
	}
	return lo, hi
}
