package critstudy

// Severity buckets a bout by its magnitude relative to CP.
type Severity string

const (
	SeverityMild     Severity = "mild"
	SeverityModerate Severity = "moderate"
	SeveritySevere   Severity = "severe"
)

const (
	severeMagnitudePct   = 170.0
	moderateMagnitudePct = 140.0
)

// ClassifySeverity maps a magnitude in percent of CP to a severity bucket.
func ClassifySeverity(magnitudePct float64) Severity {
	switch {
	case magnitudePct >= severeMagnitudePct:
		return SeveritySevere
	case magnitudePct >= moderateMagnitudePct:
		return SeverityModerate
	default:
		return SeverityMild
	}
}

// Color is the plotting colour used for the severity.
func (s Severity) Color() string {
	switch s {
	case SeveritySevere:
		return "red"
	case SeverityModerate:
		return "orange"
	default:
		return "blue"
	}
}

// Bout is one gap-tolerant effort above the threshold power.
type Bout struct {
	StartTime      float64  `json:"start_time_s"`
	EndTime        float64  `json:"end_time_s"`
	Duration       int      `json:"duration_s"`
	AveragePower   float64  `json:"avg_power_w"`
	MagnitudePctCP float64  `json:"magnitude_pct_cp"`
	Severity       Severity `json:"severity"`
}

type boutPhase uint8

const (
	boutIdle boutPhase = iota
	boutActive
	boutInGap
)

// BoutDetector segments a power stream into bouts one sample at a time.
//
// Sub-threshold samples are absorbed into an open bout while at most GapTolerance
// of them occur in a row. When the run exceeds the tolerance the bout closes at its
// last above-threshold sample; the trailing absorbed samples are dropped, and
// Flush drops them the same way when the series ends inside a gap. Interior
// dips stay in the bout and can pull its average below the threshold, so the
// magnitude is re-checked before a bout is emitted.
type BoutDetector struct {
	cp           float64
	factor       float64
	minDuration  int
	gapTolerance int

	phase    boutPhase
	start    float64
	end      float64
	duration int
	sum      float64
	tail     int
	tailSum  float64
}

// NewBoutDetector returns an idle detector for the given parameters.
func NewBoutDetector(p Parameters) *BoutDetector {
	return &BoutDetector{
		cp:           p.CPWatts,
		factor:       p.ThresholdFactor,
		minDuration:  p.MinBoutDuration,
		gapTolerance: p.GapTolerance,
	}
}

// Active reports whether a bout is currently open.
func (d *BoutDetector) Active() bool {
	return d.phase != boutIdle
}

// Step advances the detector by one sample. It returns a bout when the sample
// closes one that passes the emission rule.
func (d *BoutDetector) Step(s Sample) (Bout, bool) {
	if s.Power > d.cp*d.factor {
		if d.phase == boutIdle {
			d.start = s.Time
		}
		d.phase = boutActive
		d.duration++
		d.sum += s.Power
		d.end = s.Time
		d.tail = 0
		d.tailSum = 0
		return Bout{}, false
	}

	if d.phase == boutIdle {
		return Bout{}, false
	}

	if d.tail < d.gapTolerance {
		d.phase = boutInGap
		d.tail++
		d.tailSum += s.Power
		d.duration++
		d.sum += s.Power
		return Bout{}, false
	}
	return d.close()
}

// Flush closes a bout left open at the end of the series.
func (d *BoutDetector) Flush() (Bout, bool) {
	if d.phase == boutIdle {
		return Bout{}, false
	}
	return d.close()
}

func (d *BoutDetector) close() (Bout, bool) {
	duration := d.duration - d.tail
	sum := d.sum - d.tailSum
	start, end := d.start, d.end
	d.reset()

	if duration < d.minDuration || duration <= 0 {
		return Bout{}, false
	}
	avg := sum / float64(duration)
	magnitude := avg / d.cp * 100
	if magnitude < d.factor*100 {
		return Bout{}, false
	}
	return Bout{
		StartTime:      start,
		EndTime:        end,
		Duration:       duration,
		AveragePower:   avg,
		MagnitudePctCP: magnitude,
		Severity:       ClassifySeverity(magnitude),
	}, true
}

func (d *BoutDetector) reset() {
	d.phase = boutIdle
	d.start = 0
	d.end = 0
	d.duration = 0
	d.sum = 0
	d.tail = 0
	d.tailSum = 0
}

// DetectBouts runs a single forward pass over the series and returns its bouts in order.
func DetectBouts(series SampleSeries, p Parameters) []Bout {
	bouts := make([]Bout, 0)
	d := NewBoutDetector(p)
	for _, s := range series {
		if b, ok := d.Step(s); ok {
			bouts = append(bouts, b)
		}
	}
	if b, ok := d.Flush(); ok {
		bouts = append(bouts, b)
	}
	return bouts
}
