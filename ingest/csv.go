package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	critstudy "github.com/lucasjlepore/crit-study"
)

var (
	timeColumns  = []string{"time", "time_s", "elapsed_s", "seconds", "secs"}
	powerColumns = []string{"power", "power_w", "watts"}
)

// ReadCSV reads a time/power table. A header row naming the columns is optional;
// without one the first two columns are taken as time and power. Rows with an
// empty or unparsable power cell are skipped.
func ReadCSV(r io.Reader) (critstudy.SampleSeries, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	timeCol, powerCol := 0, 1
	first := true
	points := make([]Point, 0, 4096)
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		if first {
			first = false
			if t, p, ok := headerColumns(row); ok {
				timeCol, powerCol = t, p
				continue
			}
		}
		if timeCol >= len(row) || powerCol >= len(row) {
			continue
		}
		ts, err := strconv.ParseFloat(strings.TrimSpace(row[timeCol]), 64)
		if err != nil {
			continue
		}
		power, err := strconv.ParseFloat(strings.TrimSpace(row[powerCol]), 64)
		if err != nil {
			continue
		}
		points = append(points, Point{Offset: ts, Power: power})
	}
	if len(points) == 0 {
		return nil, ErrNoPowerData
	}
	return Resample(points)
}

func headerColumns(row []string) (timeCol, powerCol int, ok bool) {
	timeCol, powerCol = -1, -1
	for i, cell := range row {
		name := strings.ToLower(strings.TrimSpace(cell))
		if timeCol < 0 && slices.Contains(timeColumns, name) {
			timeCol = i
		}
		if powerCol < 0 && slices.Contains(powerColumns, name) {
			powerCol = i
		}
	}
	if timeCol < 0 || powerCol < 0 {
		return 0, 1, false
	}
	return timeCol, powerCol, true
}
