// Package critstudy detects high-intensity bouts in cycling power data and models
// W′ balance, depletion events and time in W′ zones across one or more rides.
package critstudy

import "fmt"

// FileResult bundles everything computed for one activity.
//
// Bouts and Balance always cover the full series. Depletions and Zones cover
// the analysis window, which is the full series unless one was selected.
type FileResult struct {
	Name       string           `json:"name"`
	DurationS  int              `json:"duration_s"`
	Window     Window           `json:"window"`
	Bouts      []Bout           `json:"bouts"`
	Summary    BoutSummary      `json:"summary"`
	Balance    WBalanceSeries   `json:"-"`
	MinBalance float64          `json:"min_balance_j"`
	Depletions []DepletionEvent `json:"depletions"`
	Zones      ZoneHistogram    `json:"zones"`
}

// DepletionCount is the number of depletion events in the file.
func (r FileResult) DepletionCount() int {
	return len(r.Depletions)
}

// Analyze runs bout detection, W′ balance tracking, depletion detection and zone
// binning over one series. Invalid parameters or a malformed series return an
// error and no partial result.
func Analyze(name string, series SampleSeries, p Parameters, w Window) (FileResult, error) {
	if err := ValidateParameters(p); err != nil {
		return FileResult{}, err
	}
	if err := ValidateSeries(series); err != nil {
		return FileResult{}, fmt.Errorf("%s: %w", name, err)
	}

	bouts := DetectBouts(series, p)
	balance := TrackBalance(series, p)

	times := series.Times()
	lo, hi := w.Bounds(times)
	depletions := DetectDepletions(balance[lo:hi], times[lo:hi], p)
	zones := BinZones(balance[lo:hi], p.WPrimeJoules, p.ZoneEdgesPct)

	return FileResult{
		Name:       name,
		DurationS:  series.DurationSeconds(),
		Window:     w,
		Bouts:      bouts,
		Summary:    SummarizeBouts(bouts),
		Balance:    balance,
		MinBalance: balance.Min(),
		Depletions: depletions,
		Zones:      zones,
	}, nil
}
