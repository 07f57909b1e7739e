// Package ingest turns activity files into 1 Hz power series for analysis.
package ingest

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	critstudy "github.com/lucasjlepore/crit-study"
)

// ErrNoPowerData is returned when a file holds no usable power samples.
var ErrNoPowerData = errors.New("no power data")

// Point is a raw power reading at an offset in seconds, before resampling.
type Point struct {
	Offset float64
	Power  float64
}

// LoadFile reads a .fit or .csv activity from disk.
func LoadFile(path string) (critstudy.SampleSeries, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open activity file: %w", err)
	}
	defer f.Close()
	return Decode(filepath.Base(path), f)
}

// Decode picks a reader by the extension of name: .csv files go through
// ReadCSV and everything else is treated as FIT.
func Decode(name string, r io.Reader) (critstudy.SampleSeries, error) {
	var (
		series critstudy.SampleSeries
		err    error
	)
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv":
		series, err = ReadCSV(r)
	default:
		series, err = DecodeFIT(r)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return series, nil
}

// MaxSpan bounds the length of a resampled ride. Longer spans almost always
// come from a corrupt timestamp.
const MaxSpan = 48 * 60 * 60

// MaxFillGap is the longest run of missing seconds that is forward-filled.
// Longer pauses are filled with 0 W.
const MaxFillGap = 30

// ErrSpanTooLong is returned when readings cover more than MaxSpan seconds.
var ErrSpanTooLong = errors.New("recording span too long")

// Resample snaps points to the nearest whole second from the first reading.
// Runs of up to MaxFillGap missing seconds repeat the previous reading and
// longer runs read 0 W. When two readings share a second the later one wins.
func Resample(points []Point) (critstudy.SampleSeries, error) {
	valid := make([]Point, 0, len(points))
	for _, p := range points {
		if isFinite(p.Offset) && isFinite(p.Power) {
			valid = append(valid, p)
		}
	}
	if len(valid) == 0 {
		return nil, nil
	}
	sort.SliceStable(valid, func(i, j int) bool {
		return valid[i].Offset < valid[j].Offset
	})

	origin := valid[0].Offset
	span := math.Round(valid[len(valid)-1].Offset - origin)
	if span > MaxSpan {
		return nil, fmt.Errorf("%w: %.0f s exceeds %d s", ErrSpanTooLong, span, MaxSpan)
	}
	last := int(span)
	values := make([]float64, last+1)
	have := make([]bool, last+1)
	for _, p := range valid {
		idx := int(math.Round(p.Offset - origin))
		values[idx] = p.Power
		have[idx] = true
	}

	prev := 0
	for i := 1; i <= last; i++ {
		if !have[i] {
			continue
		}
		if missing := i - prev - 1; missing > 0 && missing <= MaxFillGap {
			for j := prev + 1; j < i; j++ {
				values[j] = values[prev]
			}
		}
		prev = i
	}

	out := make(critstudy.SampleSeries, last+1)
	for i, v := range values {
		out[i] = critstudy.Sample{Time: float64(i), Power: v}
	}
	return out, nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
