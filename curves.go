package critstudy

// DefaultCurveDepletionPcts are the W′ fractions drawn as reference curves.
var DefaultCurveDepletionPcts = []float64{10, 20, 30, 40, 50}

// DefaultCurveSeconds is the longest bout duration the reference curves cover.
const DefaultCurveSeconds = 70

// DepletionCurve gives, for each duration, the magnitude in percent of CP that
// spends DepletionPct of W′ in that many seconds.
type DepletionCurve struct {
	DepletionPct float64   `json:"depletion_pct"`
	Seconds      []int     `json:"seconds"`
	MagnitudePct []float64 `json:"magnitude_pct_cp"`
}

// DepletionCurves evaluates ((W′·d/100)/t + CP)/CP·100 for t in 1..maxSeconds.
func DepletionCurves(cp, wPrime float64, depletionPcts []float64, maxSeconds int) []DepletionCurve {
	if cp <= 0 || maxSeconds < 1 {
		return nil
	}
	curves := make([]DepletionCurve, 0, len(depletionPcts))
	for _, d := range depletionPcts {
		c := DepletionCurve{
			DepletionPct: d,
			Seconds:      make([]int, 0, maxSeconds),
			MagnitudePct: make([]float64, 0, maxSeconds),
		}
		for t := 1; t <= maxSeconds; t++ {
			c.Seconds = append(c.Seconds, t)
			c.MagnitudePct = append(c.MagnitudePct, (wPrime*(d/100)/float64(t)+cp)/cp*100)
		}
		curves = append(curves, c)
	}
	return curves
}
