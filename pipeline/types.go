package pipeline

import (
	"time"

	"go.uber.org/zap"

	critstudy "github.com/lucasjlepore/crit-study"
)

// Artifact names written for every run.
const (
	SummaryFileName  = "summary.json"
	BoutsFileName    = "bouts.csv"
	WorkbookFileName = "bout_analysis.xlsx"
	NotesFileName    = "bout_summary.md"
)

// Options configures a multi-file analysis run.
type Options struct {
	InputPaths []string
	OutDir     string
	Params     critstudy.Parameters
	Window     critstudy.Window
	Format     string // parquet|csv, for the W′ balance series
	Overwrite  bool
	Workers    int // 0 means one goroutine per file

	Logger *zap.SugaredLogger
	// OnFileDone is called once per input as it finishes. It may be called
	// concurrently from several goroutines.
	OnFileDone func(name string, err error)
}

// Result returns generated output paths and the computed results.
type Result struct {
	RunID        string                   `json:"run_id"`
	OutputDir    string                   `json:"output_dir"`
	SummaryPath  string                   `json:"summary_path"`
	BoutsPath    string                   `json:"bouts_path"`
	WorkbookPath string                   `json:"workbook_path"`
	NotesPath    string                   `json:"notes_path"`
	BalancePaths []string                 `json:"balance_paths"`
	Files        []critstudy.FileResult   `json:"-"`
	Combined     critstudy.CombinedResult `json:"-"`
	Failures     []FileFailure            `json:"failures,omitempty"`
	Warnings     []string                 `json:"warnings,omitempty"`
}

// FileFailure records an input that was excluded from the combined result.
type FileFailure struct {
	File  string `json:"file"`
	Error string `json:"error"`
}

// BytesInput is one in-memory activity file.
type BytesInput struct {
	Name string
	Data []byte
}

// BytesOptions configures RunBytes.
type BytesOptions struct {
	Inputs  []BytesInput
	Params  critstudy.Parameters
	Window  critstudy.Window
	Format  string
	Workers int
	Logger  *zap.SugaredLogger
}

// BytesResult holds every artifact keyed by file name.
type BytesResult struct {
	RunID    string                   `json:"run_id"`
	Files    map[string][]byte        `json:"-"`
	Results  []critstudy.FileResult   `json:"-"`
	Combined critstudy.CombinedResult `json:"-"`
	Failures []FileFailure            `json:"failures,omitempty"`
	Warnings []string                 `json:"warnings,omitempty"`
}

// SummaryFile is the JSON document written as summary.json.
type SummaryFile struct {
	RunID       string                   `json:"run_id"`
	GeneratedAt time.Time                `json:"generated_at"`
	Params      critstudy.Parameters     `json:"params"`
	Window      critstudy.Window         `json:"window"`
	Files       []critstudy.FileResult   `json:"files"`
	Combined    critstudy.CombinedResult `json:"combined"`
	Failures    []FileFailure            `json:"failures,omitempty"`
}
