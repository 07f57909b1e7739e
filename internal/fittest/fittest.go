// Package fittest builds small activity FIT files in memory for tests.
package fittest

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"
	"time"

	"github.com/tormoder/fit"
)

// Start is the timestamp of the first record in built files.
var Start = time.Date(2026, 2, 26, 23, 0, 0, 0, time.UTC)

// Record is one record message to encode. A negative Power encodes the FIT
// invalid sentinel.
type Record struct {
	OffsetS int
	Power   int
}

// Steady returns one record per second with the given powers.
func Steady(powers ...int) []Record {
	out := make([]Record, len(powers))
	for i, p := range powers {
		out[i] = Record{OffsetS: i, Power: p}
	}
	return out
}

// Build encodes an activity file holding the given records.
func Build(t testing.TB, records []Record) []byte {
	t.Helper()

	header := fit.NewHeader(fit.V20, true)
	file, err := fit.NewFile(fit.FileTypeActivity, header)
	if err != nil {
		t.Fatalf("new fit file: %v", err)
	}
	activity, err := file.Activity()
	if err != nil {
		t.Fatalf("activity accessor: %v", err)
	}

	start := fit.NewEventMsg()
	start.Timestamp = Start
	start.Event = fit.EventTimer
	start.EventType = fit.EventTypeStart
	activity.Events = append(activity.Events, start)

	for _, r := range records {
		rec := fit.NewRecordMsg()
		rec.Timestamp = Start.Add(time.Duration(r.OffsetS) * time.Second)
		if r.Power >= 0 {
			rec.Power = uint16(r.Power)
		} else {
			rec.Power = math.MaxUint16
		}
		activity.Records = append(activity.Records, rec)
	}

	var buf bytes.Buffer
	if err := fit.Encode(&buf, file, binary.LittleEndian); err != nil {
		t.Fatalf("encode fit: %v", err)
	}
	return buf.Bytes()
}
