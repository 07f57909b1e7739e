package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	critstudy "github.com/lucasjlepore/crit-study"
	"github.com/lucasjlepore/crit-study/config"
	"github.com/lucasjlepore/crit-study/store"
)

func main() {
	var (
		dbPath  = flag.String("store", "crit_history.db", "SQLite run history")
		runIDs  = flag.String("runs", "", "Comma-separated run ids to recombine (empty lists runs)")
		jsonOut = flag.Bool("json", false, "Emit the combined result as JSON")
	)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [--store history.db] [--runs id1,id2]\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}
	flag.Parse()

	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "bout_history failed: %v\n", err)
		os.Exit(1)
	}
	if v := os.Getenv(config.EnvStorePath); v != "" && !storeFlagSet() {
		*dbPath = v
	}

	exists, err := historyExists(*dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "bout_history failed: %v\n", err)
		os.Exit(1)
	}
	if !exists {
		if strings.TrimSpace(*runIDs) == "" {
			fmt.Println("No runs recorded.")
			return
		}
		fmt.Fprintf(os.Stderr, "bout_history failed: no run history at %s\n", *dbPath)
		os.Exit(1)
	}

	db, err := store.Open(*dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "bout_history failed: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	ctx := context.Background()
	if strings.TrimSpace(*runIDs) == "" {
		if err := listRuns(ctx, db); err != nil {
			fmt.Fprintf(os.Stderr, "bout_history failed: %v\n", err)
			os.Exit(1)
		}
		return
	}

	files, params, err := loadRuns(ctx, db, strings.Split(*runIDs, ","))
	if err != nil {
		fmt.Fprintf(os.Stderr, "bout_history failed: %v\n", err)
		os.Exit(1)
	}
	combined := critstudy.Combine(files)

	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(combined); err != nil {
			fmt.Fprintf(os.Stderr, "json encode failed: %v\n", err)
			os.Exit(1)
		}
		return
	}
	fmt.Println(critstudy.BuildCombinedNotes(combined, params))
}

func storeFlagSet() bool {
	set := false
	flag.Visit(func(fl *flag.Flag) {
		if fl.Name == "store" {
			set = true
		}
	})
	return set
}

// historyExists reports whether a run history file is present. Opening a
// missing path would create an empty database.
func historyExists(path string) (bool, error) {
	_, err := os.Stat(path)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	default:
		return false, fmt.Errorf("stat run history: %w", err)
	}
}

func listRuns(ctx context.Context, db *store.Store) error {
	runs, err := db.ListRuns(ctx)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("No runs recorded.")
		return nil
	}
	for _, r := range runs {
		fmt.Printf(
			"%s | %s | %d file(s) | %d bout(s) | CP %.0f W | W' %.1f kJ\n",
			r.ID,
			r.CreatedAt.Local().Format("2006-01-02 15:04"),
			r.FileCount,
			r.BoutCount,
			r.Params.CPWatts,
			r.Params.WPrimeJoules/1000.0,
		)
	}
	return nil
}

// loadRuns concatenates the files of every run in the order given. Runs
// analysed with different CP or W′ values are refused because their bout
// magnitudes and zones are not comparable.
func loadRuns(ctx context.Context, db *store.Store, ids []string) ([]critstudy.FileResult, critstudy.Parameters, error) {
	var (
		files  []critstudy.FileResult
		params critstudy.Parameters
		loaded int
	)
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		run, err := db.LoadRun(ctx, id)
		if err != nil {
			return nil, params, err
		}
		if loaded == 0 {
			params = run.Params
		} else if run.Params.CPWatts != params.CPWatts || run.Params.WPrimeJoules != params.WPrimeJoules {
			return nil, params, fmt.Errorf("run %s used CP %.0f W / W' %.0f J, expected %.0f W / %.0f J",
				id, run.Params.CPWatts, run.Params.WPrimeJoules, params.CPWatts, params.WPrimeJoules)
		}
		files = append(files, run.Files...)
		loaded++
	}
	if len(files) == 0 {
		return nil, params, errors.New("no files in the selected runs")
	}
	return files, params, nil
}
