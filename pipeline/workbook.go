package pipeline

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	critstudy "github.com/lucasjlepore/crit-study"
)

// Workbook sheet names.
const (
	SheetBouts  = "All Bouts Data"
	SheetCurves = "W Prime Depletion Curves"
	SheetZones  = "Zone Distribution"
	SheetFiles  = "Files"
)

var severityFill = map[critstudy.Severity]string{
	critstudy.SeveritySevere:   "F8696B",
	critstudy.SeverityModerate: "FFB347",
	critstudy.SeverityMild:     "9DC3E6",
}

// buildWorkbook lays out the bout table, the reference depletion curves, the
// combined zone distribution and per-file totals as an .xlsx document.
func buildWorkbook(results []critstudy.FileResult, combined critstudy.CombinedResult, p critstudy.Parameters) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetBouts); err != nil {
		return nil, err
	}
	for _, name := range []string{SheetCurves, SheetZones, SheetFiles} {
		if _, err := f.NewSheet(name); err != nil {
			return nil, err
		}
	}

	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}

	if err := writeBoutsSheet(f, combined.Bouts, header); err != nil {
		return nil, fmt.Errorf("%s: %w", SheetBouts, err)
	}
	if err := writeCurvesSheet(f, p, header); err != nil {
		return nil, fmt.Errorf("%s: %w", SheetCurves, err)
	}
	if err := writeZonesSheet(f, results, combined.Zones, header); err != nil {
		return nil, fmt.Errorf("%s: %w", SheetZones, err)
	}
	if err := writeFilesSheet(f, results, header); err != nil {
		return nil, fmt.Errorf("%s: %w", SheetFiles, err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeBoutsSheet(f *excelize.File, bouts []critstudy.FileBout, header int) error {
	rows := [][]any{{
		"Source File", "Start Time (s)", "End Time (s)", "Duration (s)", "Avg Power (W)", "Magnitude (% CP)", "Severity",
	}}
	for _, b := range bouts {
		rows = append(rows, []any{
			b.File, b.StartTime, b.EndTime, b.Duration, b.AveragePower, b.MagnitudePctCP, string(b.Severity),
		})
	}
	if err := writeRows(f, SheetBouts, rows, header); err != nil {
		return err
	}

	fills := make(map[critstudy.Severity]int, len(severityFill))
	for sev, color := range severityFill {
		id, err := f.NewStyle(&excelize.Style{
			Fill: excelize.Fill{Type: "pattern", Color: []string{color}, Pattern: 1},
		})
		if err != nil {
			return err
		}
		fills[sev] = id
	}
	for i, b := range bouts {
		cell, err := excelize.CoordinatesToCellName(7, i+2)
		if err != nil {
			return err
		}
		if err := f.SetCellStyle(SheetBouts, cell, cell, fills[b.Severity]); err != nil {
			return err
		}
	}
	return f.SetColWidth(SheetBouts, "A", "A", 28)
}

func writeCurvesSheet(f *excelize.File, p critstudy.Parameters, header int) error {
	curves := critstudy.DepletionCurves(p.CPWatts, p.WPrimeJoules, critstudy.DefaultCurveDepletionPcts, critstudy.DefaultCurveSeconds)

	head := []any{"Time (s)"}
	for _, c := range curves {
		head = append(head, fmt.Sprintf("%.0f%% W' Depletion (%% CP)", c.DepletionPct))
	}
	rows := [][]any{head}
	for t := 0; t < critstudy.DefaultCurveSeconds; t++ {
		row := []any{t + 1}
		for _, c := range curves {
			row = append(row, c.MagnitudePct[t])
		}
		rows = append(rows, row)
	}
	return writeRows(f, SheetCurves, rows, header)
}

func writeZonesSheet(f *excelize.File, results []critstudy.FileResult, combined critstudy.ZoneHistogram, header int) error {
	head := []any{"Zone", "Min (% W')", "Max (% W')", "Combined Samples", "Combined (% of Duration)"}
	for _, r := range results {
		head = append(head, r.Name+" (%)")
	}
	rows := [][]any{head}
	for _, bin := range combined.Bins {
		row := []any{bin.Label, bin.MinPct, bin.MaxPct, bin.SampleCount, bin.PercentOfDuration}
		for _, r := range results {
			fb, _ := r.Zones.Bin(bin.Label)
			row = append(row, fb.PercentOfDuration)
		}
		rows = append(rows, row)
	}
	return writeRows(f, SheetZones, rows, header)
}

func writeFilesSheet(f *excelize.File, results []critstudy.FileResult, header int) error {
	rows := [][]any{{
		"File", "Duration (s)", "Efforts", "Avg Magnitude (% CP)", "Avg Duration (s)", "Max Magnitude (% CP)", "Matches Burned", "Min W' Balance (J)",
	}}
	for _, r := range results {
		rows = append(rows, []any{
			r.Name,
			r.DurationS,
			r.Summary.Count,
			r.Summary.AvgMagnitudePct,
			r.Summary.AvgDurationS,
			r.Summary.MaxMagnitudePct,
			r.DepletionCount(),
			r.MinBalance,
		})
	}
	if err := writeRows(f, SheetFiles, rows, header); err != nil {
		return err
	}
	return f.SetColWidth(SheetFiles, "A", "A", 28)
}

func writeRows(f *excelize.File, sheet string, rows [][]any, header int) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	return f.SetRowStyle(sheet, 1, 1, header)
}
