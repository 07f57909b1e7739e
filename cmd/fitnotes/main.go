package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	critstudy "github.com/lucasjlepore/crit-study"
	"github.com/lucasjlepore/crit-study/config"
	"github.com/lucasjlepore/crit-study/ingest"
)

func main() {
	var (
		configPath = flag.String("config", "", "YAML parameter file (optional)")
		cp         = flag.Float64("cp", 0, "Critical power in watts (optional; defaults to the config or 250 W)")
		wPrimeKJ   = flag.Float64("wprime-kj", 0, "W' in kJ (optional; defaults to the config or 20 kJ)")
		jsonOut    = flag.Bool("json", false, "Emit full analysis as JSON")
		showBouts  = flag.Bool("bouts", false, "Include bout-by-bout listing in text output")
	)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] <path-to-fit-or-csv-file>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}

	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "analysis failed: %v\n", err)
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
			}
		})
	})
	if err == nil {
		err = envErr
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "analysis failed: %v\n", err)
		os.Exit(1)
	}

	filePath := flag.Arg(0)
	series, err := ingest.LoadFile(filePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "analysis failed: %v\n", err)
		os.Exit(1)
	}
	result, err := critstudy.Analyze(filepath.Base(filePath), series, settings.Params, settings.Window)
	if err != nil {
		fmt.Fprintf(os.Stderr, "analysis failed: %v\n", err)
		os.Exit(1)
	}

	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			fmt.Fprintf(os.Stderr, "json encode failed: %v\n", err)
			os.Exit(1)
		}
		return
	}

	fmt.Println(critstudy.BuildFileNotes(result, settings.Params))
	if *showBouts && len(result.Bouts) > 0 {
		fmt.Println()
		fmt.Println("Bouts")
		for i, b := range result.Bouts {
			fmt.Printf(
				"- Bout %02d | %7.0fs-%7.0fs | %4ds | %6.0f W | %5.1f%% CP | %s\n",
				i+1,
				b.StartTime,
				b.EndTime,
				b.Duration,
				b.AveragePower,
				b.MagnitudePctCP,
				b.Severity,
			)
		}
	}
}
