package pipeline

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	critstudy "github.com/lucasjlepore/crit-study"
	"github.com/lucasjlepore/crit-study/ingest"
)

// ErrNoUsableFiles is returned when every input failed to load or analyse.
var ErrNoUsableFiles = errors.New("no input file could be analysed")

// input is one activity waiting to be loaded.
type input struct {
	name string
	load func() (critstudy.SampleSeries, error)
}

// analysis keeps the series next to its result so artifacts can be written
// without reloading the file.
type analysis struct {
	series critstudy.SampleSeries
	result critstudy.FileResult
}

// Run analyses every input file, combines the results and writes all artifacts
// into OutDir. Files that fail are logged, listed in Result.Failures and left
// out of the combined result; Run only fails outright when no file succeeds.
func Run(ctx context.Context, opts Options) (*Result, error) {
	if len(opts.InputPaths) == 0 {
		return nil, fmt.Errorf("at least one input file is required")
	}
	if strings.TrimSpace(opts.OutDir) == "" {
		return nil, fmt.Errorf("output directory is required")
	}
	format, err := normalizeFormat(opts.Format)
	if err != nil {
		return nil, err
	}
	if err := critstudy.ValidateParameters(opts.Params); err != nil {
		return nil, err
	}
	if err := ensureOutputDir(opts.OutDir, opts.Overwrite); err != nil {
		return nil, err
	}

	logger := loggerOrNop(opts.Logger)
	inputs := make([]input, 0, len(opts.InputPaths))
	for _, path := range opts.InputPaths {
		inputs = append(inputs, input{
			name: filepath.Base(path),
			load: func() (critstudy.SampleSeries, error) { return ingest.LoadFile(path) },
		})
	}

	runID := uuid.NewString()
	logger.Infow("starting analysis run", "run_id", runID, "files", len(inputs), "format", format)

	analyses, failures, err := analyzeAll(ctx, inputs, opts.Params, opts.Window, opts.Workers, logger, opts.OnFileDone)
	if err != nil {
		return nil, err
	}
	if len(analyses) == 0 {
		return nil, noUsableFiles(failures)
	}

	results := fileResults(analyses)
	combined := critstudy.Combine(results)

	artifacts, err := renderArtifacts(runID, analyses, combined, opts.Params, opts.Window, failures)
	if err != nil {
		return nil, err
	}

	res := &Result{
		RunID:        runID,
		OutputDir:    opts.OutDir,
		SummaryPath:  filepath.Join(opts.OutDir, SummaryFileName),
		BoutsPath:    filepath.Join(opts.OutDir, BoutsFileName),
		WorkbookPath: filepath.Join(opts.OutDir, WorkbookFileName),
		NotesPath:    filepath.Join(opts.OutDir, NotesFileName),
		BalancePaths: make([]string, 0, len(analyses)),
		Files:        results,
		Combined:     combined,
		Failures:     failures,
		Warnings:     failureWarnings(failures),
	}
	for name, data := range artifacts {
		if err := os.WriteFile(filepath.Join(opts.OutDir, name), data, 0o644); err != nil {
			return nil, fmt.Errorf("write %s: %w", name, err)
		}
	}

	for i, a := range analyses {
		path := filepath.Join(opts.OutDir, balanceFileName(i, a.result.Name, format))
		switch format {
		case "csv":
			data, err := marshalBalanceCSV(a, opts.Params.WPrimeJoules)
			if err == nil {
				err = os.WriteFile(path, data, 0o644)
			}
			if err != nil {
				return nil, fmt.Errorf("write balance csv: %w", err)
			}
		case "parquet":
			if err := writeBalanceParquet(path, a, opts.Params.WPrimeJoules); err != nil {
				return nil, fmt.Errorf("write balance parquet: %w", err)
			}
		}
		res.BalancePaths = append(res.BalancePaths, path)
	}

	logger.Infow("analysis run complete",
		"run_id", runID,
		"analysed", len(analyses),
		"failed", len(failures),
		"bouts", combined.Summary.Count,
		"depletions", combined.DepletionCount,
	)
	return res, nil
}

// RunBytes is the in-memory variant of Run. It returns every artifact keyed by
// file name instead of writing to disk.
func RunBytes(ctx context.Context, opts BytesOptions) (*BytesResult, error) {
	if len(opts.Inputs) == 0 {
		return nil, fmt.Errorf("at least one input file is required")
	}
	format, err := normalizeFormat(opts.Format)
	if err != nil {
		return nil, err
	}
	if err := critstudy.ValidateParameters(opts.Params); err != nil {
		return nil, err
	}

	logger := loggerOrNop(opts.Logger)
	inputs := make([]input, 0, len(opts.Inputs))
	for _, in := range opts.Inputs {
		name := strings.TrimSpace(in.Name)
		if name == "" {
			name = "activity.fit"
		}
		inputs = append(inputs, input{
			name: name,
			load: func() (critstudy.SampleSeries, error) {
				return ingest.Decode(name, bytes.NewReader(in.Data))
			},
		})
	}

	analyses, failures, err := analyzeAll(ctx, inputs, opts.Params, opts.Window, opts.Workers, logger, nil)
	if err != nil {
		return nil, err
	}
	if len(analyses) == 0 {
		return nil, noUsableFiles(failures)
	}

	runID := uuid.NewString()
	results := fileResults(analyses)
	combined := critstudy.Combine(results)
	artifacts, err := renderArtifacts(runID, analyses, combined, opts.Params, opts.Window, failures)
	if err != nil {
		return nil, err
	}
	for i, a := range analyses {
		var data []byte
		switch format {
		case "csv":
			data, err = marshalBalanceCSV(a, opts.Params.WPrimeJoules)
		case "parquet":
			data, err = marshalBalanceParquet(a, opts.Params.WPrimeJoules)
		}
		if err != nil {
			return nil, fmt.Errorf("marshal balance %s: %w", format, err)
		}
		artifacts[balanceFileName(i, a.result.Name, format)] = data
	}

	return &BytesResult{
		RunID:    runID,
		Files:    artifacts,
		Results:  results,
		Combined: combined,
		Failures: failures,
		Warnings: failureWarnings(failures),
	}, nil
}

// analyzeAll loads and analyses inputs concurrently. Successful analyses keep
// input order; per-file errors become failures instead of aborting the run.
// Only context cancellation stops the fan-out.
func analyzeAll(
	ctx context.Context,
	inputs []input,
	p critstudy.Parameters,
	w critstudy.Window,
	workers int,
	logger *zap.SugaredLogger,
	onDone func(string, error),
) ([]analysis, []FileFailure, error) {
	slots := make([]*analysis, len(inputs))
	errs := make([]error, len(inputs))

	g, gctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}
	for i, in := range inputs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			start := time.Now()
			series, result, err := analyzeOne(in, p, w)
			if onDone != nil {
				onDone(in.name, err)
			}
			if err != nil {
				errs[i] = err
				logger.Warnw("skipping file", "file", in.name, "error", err)
				return nil
			}
			slots[i] = &analysis{series: series, result: result}
			logger.Debugw("file analysed",
				"file", in.name,
				"samples", len(series),
				"bouts", len(result.Bouts),
				"depletions", result.DepletionCount(),
				"elapsed", time.Since(start),
			)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	analyses := make([]analysis, 0, len(inputs))
	var failures []FileFailure
	for i, a := range slots {
		if a != nil {
			analyses = append(analyses, *a)
			continue
		}
		failures = append(failures, FileFailure{File: inputs[i].name, Error: errs[i].Error()})
	}
	return analyses, failures, nil
}

// analyzeOne loads and analyses a single input. A panic while decoding a
// corrupt file is returned as that file's error.
func analyzeOne(in input, p critstudy.Parameters, w critstudy.Window) (series critstudy.SampleSeries, result critstudy.FileResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s: panic during analysis: %v", in.name, r)
		}
	}()
	series, err = in.load()
	if err != nil {
		return nil, result, err
	}
	result, err = critstudy.Analyze(in.name, series, p, w)
	return series, result, err
}

func renderArtifacts(
	runID string,
	analyses []analysis,
	combined critstudy.CombinedResult,
	p critstudy.Parameters,
	w critstudy.Window,
	failures []FileFailure,
) (map[string][]byte, error) {
	results := fileResults(analyses)
	artifacts := make(map[string][]byte, 4+len(analyses))

	summary := SummaryFile{
		RunID:       runID,
		GeneratedAt: time.Now().UTC(),
		Params:      p,
		Window:      w,
		Files:       results,
		Combined:    combined,
		Failures:    failures,
	}
	data, err := marshalJSON(summary)
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", SummaryFileName, err)
	}
	artifacts[SummaryFileName] = data

	if data, err = marshalBoutsCSV(combined.Bouts); err != nil {
		return nil, fmt.Errorf("marshal %s: %w", BoutsFileName, err)
	}
	artifacts[BoutsFileName] = data

	if data, err = buildWorkbook(results, combined, p); err != nil {
		return nil, fmt.Errorf("build %s: %w", WorkbookFileName, err)
	}
	artifacts[WorkbookFileName] = data

	artifacts[NotesFileName] = []byte(buildNotesMarkdown(results, combined, p, failures))
	return artifacts, nil
}

func buildNotesMarkdown(results []critstudy.FileResult, combined critstudy.CombinedResult, p critstudy.Parameters, failures []FileFailure) string {
	var b strings.Builder
	b.WriteString("# Bout summary\n\n")
	for _, r := range results {
		fmt.Fprintf(&b, "## %s\n\n```\n%s\n```\n\n", r.Name, critstudy.BuildFileNotes(r, p))
	}
	if len(results) > 1 {
		fmt.Fprintf(&b, "## Combined\n\n```\n%s\n```\n\n", critstudy.BuildCombinedNotes(combined, p))
	}
	if len(failures) > 0 {
		b.WriteString("## Skipped files\n\n")
		for _, f := range failures {
			fmt.Fprintf(&b, "- %s: %s\n", f.File, f.Error)
		}
	}
	return b.String()
}

func fileResults(analyses []analysis) []critstudy.FileResult {
	out := make([]critstudy.FileResult, len(analyses))
	for i, a := range analyses {
		out[i] = a.result
	}
	return out
}

func noUsableFiles(failures []FileFailure) error {
	parts := make([]string, 0, len(failures))
	for _, f := range failures {
		parts = append(parts, f.File+": "+f.Error)
	}
	return fmt.Errorf("%w (%s)", ErrNoUsableFiles, strings.Join(parts, "; "))
}

func failureWarnings(failures []FileFailure) []string {
	if len(failures) == 0 {
		return nil
	}
	out := make([]string, 0, len(failures))
	for _, f := range failures {
		out = append(out, fmt.Sprintf("skipped %s: %s", f.File, f.Error))
	}
	return out
}

func normalizeFormat(format string) (string, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = "parquet"
	}
	if format != "parquet" && format != "csv" {
		return "", fmt.Errorf("unsupported format %q (expected parquet|csv)", format)
	}
	return format, nil
}

func loggerOrNop(l *zap.SugaredLogger) *zap.SugaredLogger {
	if l == nil {
		return zap.NewNop().Sugar()
	}
	return l
}

// balanceFileName prefixes the input's position so two inputs sharing a base
// name never overwrite each other.
func balanceFileName(i int, name, format string) string {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	return fmt.Sprintf("%02d_%s_wbal.%s", i+1, base, format)
}

func ensureOutputDir(path string, overwrite bool) error {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return fmt.Errorf("read output directory: %w", err)
	}
	if len(entries) > 0 && !overwrite {
		return fmt.Errorf("output directory is not empty: %s (set overwrite=true to allow)", path)
	}
	return nil
}

func marshalJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func marshalBoutsCSV(bouts []critstudy.FileBout) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	header := []string{
		"source_file", "start_time_s", "end_time_s", "duration_s", "avg_power_w", "magnitude_pct_cp", "severity", "color",
	}
	if err := w.Write(header); err != nil {
		return nil, err
	}
	for _, b := range bouts {
		row := []string{
			b.File,
			formatFloat(b.StartTime),
			formatFloat(b.EndTime),
			strconv.Itoa(b.Duration),
			formatFloat(b.AveragePower),
			formatFloat(b.MagnitudePctCP),
			string(b.Severity),
			b.Severity.Color(),
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func marshalBalanceCSV(a analysis, wPrime float64) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{"time_s", "power_w", "w_balance_j", "w_balance_pct", "in_bout"}); err != nil {
		return nil, err
	}
	for _, row := range balanceRows(a, wPrime) {
		rec := []string{
			formatFloat(row.TimeS),
			formatFloat(row.PowerW),
			formatFloat(row.WBalanceJ),
			formatFloat(row.WBalancePct),
			strconv.FormatBool(row.InBout),
		}
		if err := w.Write(rec); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// balanceRow is one second of the W′ balance export, shared by the CSV and
// Parquet writers.
type balanceRow struct {
	TimeS       float64 `parquet:"name=time_s, type=DOUBLE"`
	PowerW      float64 `parquet:"name=power_w, type=DOUBLE"`
	WBalanceJ   float64 `parquet:"name=w_balance_j, type=DOUBLE"`
	WBalancePct float64 `parquet:"name=w_balance_pct, type=DOUBLE"`
	InBout      bool    `parquet:"name=in_bout, type=BOOLEAN"`
}

func balanceRows(a analysis, wPrime float64) []balanceRow {
	pct := a.result.Balance.PercentOf(wPrime)
	rows := make([]balanceRow, len(a.series))
	bi := 0
	bouts := a.result.Bouts
	for i, s := range a.series {
		for bi < len(bouts) && bouts[bi].EndTime < s.Time {
			bi++
		}
		in := bi < len(bouts) && s.Time >= bouts[bi].StartTime && s.Time <= bouts[bi].EndTime
		rows[i] = balanceRow{
			TimeS:       s.Time,
			PowerW:      s.Power,
			WBalanceJ:   a.result.Balance[i],
			WBalancePct: pct[i],
			InBout:      in,
		}
	}
	return rows
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}
