package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/schollz/progressbar/v3"

	critstudy "github.com/lucasjlepore/crit-study"
	"github.com/lucasjlepore/crit-study/config"
	"github.com/lucasjlepore/crit-study/internal/log"
	"github.com/lucasjlepore/crit-study/pipeline"
	"github.com/lucasjlepore/crit-study/store"
)

func main() {
	var (
		configPath  = flag.String("config", "", "YAML parameter file (optional)")
		outDir      = flag.String("out", "", "Output directory")
		cp          = flag.Float64("cp", 0, "Critical power override in watts")
		wPrimeKJ    = flag.Float64("wprime-kj", 0, "W' override in kJ")
		factor      = flag.Float64("threshold", 0, "Bout threshold as a multiple of CP (e.g. 1.05)")
		windowStart = flag.Float64("window-start", 0, "Zone/depletion window start in seconds")
		windowEnd   = flag.Float64("window-end", 0, "Zone/depletion window end in seconds (0 = end of file)")
		format      = flag.String("format", "parquet", "W' balance series format: parquet|csv")
		workers     = flag.Int("workers", 4, "Files analysed in parallel")
		overwrite   = flag.Bool("overwrite", true, "Allow writing into non-empty output directories")
		dbPath      = flag.String("store", "", "SQLite run history to record this run in (optional)")
		debug       = flag.Bool("debug", false, "Verbose logging")
	)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s --out outdir [--config params.yaml] [--cp 250] [--wprime-kj 20] ride1.fit [ride2.fit ...]\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() == 0 || strings.TrimSpace(*outDir) == "" {
		flag.Usage()
		os.Exit(2)
	}

	if err := log.Init(*debug); err != nil {
		fmt.Fprintf(os.Stderr, "fit_analyze failed: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "fit_analyze failed: %v\n", err)
		os.Exit(1)
	}
	if *configPath == "" {
		*configPath = os.Getenv(config.EnvConfigPath)
	}
	var envErr error
	settings, err := config.LoadWith(*configPath, func(f *config.File) {
		envErr = config.ApplyEnv(f, os.LookupEnv)
		flag.Visit(func(fl *flag.Flag) {
			switch fl.Name {
			case "cp":
				f.CPWatts = cp
			case "wprime-kj":
				f.WPrimeKJ = wPrimeKJ
				f.WPrimeJoules = nil
			case "threshold":
				f.ThresholdFactor = factor
			case "window-start", "window-end":
				f.Window = &critstudy.Window{StartS: *windowStart, EndS: *windowEnd}
			}
		})
	})
	if err == nil {
		err = envErr
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "fit_analyze failed: %v\n", err)
		os.Exit(1)
	}

	log.Debugw("parameters loaded",
		"cp_w", settings.Params.CPWatts,
		"w_prime_j", settings.Params.WPrimeJoules,
		"threshold_factor", settings.Params.ThresholdFactor,
		"window", settings.Window,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	bar := progressbar.Default(int64(flag.NArg()), "analysing")
	result, err := pipeline.Run(ctx, pipeline.Options{
		InputPaths: flag.Args(),
		OutDir:     *outDir,
		Params:     settings.Params,
		Window:     settings.Window,
		Format:     *format,
		Overwrite:  *overwrite,
		Workers:    *workers,
		Logger:     log.GetSugaredLogger(),
		OnFileDone: func(string, error) { _ = bar.Add(1) },
	})
	_ = bar.Finish()
	if err != nil {
		fmt.Fprintf(os.Stderr, "fit_analyze failed: %v\n", err)
		os.Exit(1)
	}

	if *dbPath == "" {
		*dbPath = os.Getenv(config.EnvStorePath)
	}
	if *dbPath != "" {
		if err := record(ctx, *dbPath, result, settings); err != nil {
			log.Warnw("failed to record run", "store", *dbPath, "error", err)
		}
	}

	fmt.Printf("fit_analyze complete\n")
	fmt.Printf("Run id:              %s\n", result.RunID)
	fmt.Printf("Output dir:          %s\n", result.OutputDir)
	fmt.Printf("summary:             %s\n", result.SummaryPath)
	fmt.Printf("bouts:               %s\n", result.BoutsPath)
	fmt.Printf("workbook:            %s\n", result.WorkbookPath)
	fmt.Printf("notes:               %s\n", result.NotesPath)
	for _, p := range result.BalancePaths {
		fmt.Printf("W' balance:          %s\n", p)
	}
	for _, w := range result.Warnings {
		fmt.Printf("warning:             %s\n", w)
	}
	fmt.Println()
	fmt.Println(critstudy.BuildCombinedNotes(result.Combined, settings.Params))
}

func record(ctx context.Context, path string, result *pipeline.Result, settings config.Settings) error {
	db, err := store.Open(path)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := db.SaveRun(ctx, result.RunID, settings.Params, settings.Window, result.Files); err != nil {
		return err
	}
	log.Infow("run recorded", "run_id", result.RunID, "store", path)
	return nil
}
