package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Environment variables honoured by the command-line tools.
const (
	EnvConfigPath        = "CRIT_STUDY_CONFIG"
	EnvStorePath         = "CRIT_STUDY_STORE"
	EnvCPWatts           = "CRIT_STUDY_CP_W"
	EnvWPrimeKJ          = "CRIT_STUDY_W_PRIME_KJ"
	EnvThresholdFactor   = "CRIT_STUDY_THRESHOLD_FACTOR"
	EnvDepletionFraction = "CRIT_STUDY_DEPLETION_FRACTION"
)

// LoadDotEnv loads KEY=value pairs from the given files (".env" when none are
// given) into the process environment. Variables already set win, and a missing
// file is not an error.
func LoadDotEnv(paths ...string) error {
	err := godotenv.Load(paths...)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("load env file: %w", err)
}

// ApplyEnv overlays the CRIT_STUDY_* parameter variables onto f. lookup is
// usually os.LookupEnv.
func ApplyEnv(f *File, lookup func(string) (string, bool)) error {
	vars := []struct {
		key string
		dst **float64
	}{
		{EnvCPWatts, &f.CPWatts},
		{EnvWPrimeKJ, &f.WPrimeKJ},
		{EnvThresholdFactor, &f.ThresholdFactor},
		{EnvDepletionFraction, &f.DepletionFraction},
	}
	for _, v := range vars {
		raw, ok := lookup(v.key)
		if !ok || strings.TrimSpace(raw) == "" {
			continue
		}
		n, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return fmt.Errorf("%s: %w", v.key, err)
		}
		*v.dst = &n
		if v.key == EnvWPrimeKJ {
			f.WPrimeJoules = nil
		}
	}
	return nil
}
