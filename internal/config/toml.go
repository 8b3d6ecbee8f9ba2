// Package config provides the default scenario, TOML parsing and override merging.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/sparshmallow/appointmentscheduling/internal/model"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Run   RunConfig   `toml:"run"`
	Store StoreConfig `toml:"store"`
}

// RunConfig maps simulation settings. Unset keys keep the defaults.
type RunConfig struct {
	NPatients         *int               `toml:"n-patients"`
	Seed              *int64             `toml:"seed"`
	MaxAttempts       *int               `toml:"max-attempts"`
	LambdaPerWeek     *float64           `toml:"lambda-per-week"`
	PopulationWeights map[string]float64 `toml:"population-weights"`
	Scenario          *string            `toml:"scenario"`
}

// StoreConfig maps archive settings.
type StoreConfig struct {
	DSN    *string `toml:"dsn"`
	NoSave *bool   `toml:"no-save"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return FileConfig{}, fmt.Errorf("unknown config key %q", undecoded[0].String())
	}
	return cfg, nil
}

// ApplyRun layers the [run] table over base. A scenario file, when named,
// replaces base before the scalar keys are applied.
func (r RunConfig) ApplyRun(base model.Config) (model.Config, error) {
	cfg := base.Clone()
	if r.Scenario != nil && *r.Scenario != "" {
		loaded, err := LoadScenario("@" + *r.Scenario)
		if err != nil {
			return model.Config{}, err
		}
		cfg = loaded
	}
	weights := make(map[string]string, len(r.PopulationWeights))
	for name, w := range r.PopulationWeights {
		weights[name] = fmt.Sprint(w)
	}
	return Apply(cfg, Overrides{
		NPatients:         r.NPatients,
		Seed:              r.Seed,
		MaxAttempts:       r.MaxAttempts,
		LambdaPerWeek:     r.LambdaPerWeek,
		PopulationWeights: weights,
	})
}
