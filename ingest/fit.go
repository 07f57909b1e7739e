package ingest

import (
	"fmt"
	"io"
	"math"
	"time"

	"github.com/tormoder/fit"

	critstudy "github.com/lucasjlepore/crit-study"
)

// DecodeFIT decodes an activity FIT stream and returns its record power as a
// 1 Hz series. Records without a valid timestamp or power are skipped.
func DecodeFIT(r io.Reader) (critstudy.SampleSeries, error) {
	decoded, err := fit.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decode FIT file: %w", err)
	}
	activity, err := decoded.Activity()
	if err != nil {
		return nil, fmt.Errorf("activity FIT expected: %w", err)
	}

	points := recordPoints(activity.Records)
	if len(points) == 0 {
		return nil, ErrNoPowerData
	}
	return Resample(points)
}

func recordPoints(records []*fit.RecordMsg) []Point {
	var (
		start     time.Time
		haveStart bool
	)
	stamps := make([]time.Time, 0, len(records))
	powers := make([]float64, 0, len(records))
	for _, rec := range records {
		if rec == nil {
			continue
		}
		ts := validTimeOrZero(rec.Timestamp)
		if ts.IsZero() || rec.Power == math.MaxUint16 {
			continue
		}
		if !haveStart || ts.Before(start) {
			start = ts
			haveStart = true
		}
		stamps = append(stamps, ts)
		powers = append(powers, float64(rec.Power))
	}

	points := make([]Point, len(stamps))
	for i, ts := range stamps {
		points[i] = Point{Offset: ts.Sub(start).Seconds(), Power: powers[i]}
	}
	return points
}

func validTimeOrZero(t time.Time) time.Time {
	if t.IsZero() || fit.IsBaseTime(t) {
		return time.Time{}
	}
	return t
}
