// Package config loads analysis parameters from YAML files.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	critstudy "github.com/lucasjlepore/crit-study"
)

// File is the on-disk shape of a parameter file. Every field is optional and
// overrides the matching default when present.
type File struct {
	CPWatts           *float64          `yaml:"cp_w"`
	WPrimeJoules      *float64          `yaml:"w_prime_j"`
	WPrimeKJ          *float64          `yaml:"w_prime_kj"`
	ThresholdFactor   *float64          `yaml:"threshold_factor"`
	MinBoutDuration   *int              `yaml:"min_bout_duration_s"`
	GapTolerance      *int              `yaml:"gap_tolerance_samples"`
	TauA              *float64          `yaml:"tau_a"`
	TauB              *float64          `yaml:"tau_b"`
	DepletionFraction *float64          `yaml:"depletion_fraction"`
	ZoneEdgesPct      []float64         `yaml:"zone_edges_pct"`
	Window            *critstudy.Window `yaml:"window"`
}

// Settings is the resolved configuration.
type Settings struct {
	Params critstudy.Parameters
	Window critstudy.Window
}

// Default returns settings built from critstudy.DefaultParameters.
func Default() Settings {
	return Settings{Params: critstudy.DefaultParameters()}
}

// Load reads path and overlays it on the defaults. An empty path returns the
// defaults unchanged.
func Load(path string) (Settings, error) {
	return LoadWith(path, nil)
}

// LoadWith is Load with a hook that can patch the decoded file, typically from
// command-line flags, before it is applied and validated.
func LoadWith(path string, override func(*File)) (Settings, error) {
	var b []byte
	if path != "" {
		var err error
		if b, err = os.ReadFile(path); err != nil {
			return Settings{}, fmt.Errorf("read config: %w", err)
		}
	}
	return ParseWith(b, override)
}

// Parse decodes YAML bytes over the defaults and validates the result.
func Parse(b []byte) (Settings, error) {
	return ParseWith(b, nil)
}

// ParseWith is Parse with an override hook; see LoadWith.
func ParseWith(b []byte, override func(*File)) (Settings, error) {
	var f File
	if err := yaml.Unmarshal(b, &f); err != nil {
		return Settings{}, fmt.Errorf("parse config: %w", err)
	}
	if override != nil {
		override(&f)
	}
	s := f.Apply(Default())
	if err := critstudy.ValidateParameters(s.Params); err != nil {
		return Settings{}, fmt.Errorf("config: %w", err)
	}
	return s, nil
}

// Apply overlays the fields present in f onto s.
func (f File) Apply(s Settings) Settings {
	p := &s.Params
	setFloat(&p.CPWatts, f.CPWatts)
	if f.WPrimeKJ != nil {
		p.WPrimeJoules = *f.WPrimeKJ * 1000
	}
	setFloat(&p.WPrimeJoules, f.WPrimeJoules)
	setFloat(&p.ThresholdFactor, f.ThresholdFactor)
	setInt(&p.MinBoutDuration, f.MinBoutDuration)
	setInt(&p.GapTolerance, f.GapTolerance)
	setFloat(&p.TauA, f.TauA)
	setFloat(&p.TauB, f.TauB)
	setFloat(&p.DepletionFraction, f.DepletionFraction)
	if len(f.ZoneEdgesPct) > 0 {
		p.ZoneEdgesPct = append([]float64(nil), f.ZoneEdgesPct...)
	}
	if f.Window != nil {
		s.Window = *f.Window
	}
	return s
}

func setFloat(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}
