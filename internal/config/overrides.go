package config

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	jsoniter "github.com/json-iterator/go"

	"github.com/sparshmallow/appointmentscheduling/internal/model"
)

var strictJSON = jsoniter.Config{
	EscapeHTML:             true,
	SortMapKeys:            true,
	ValidateJsonRawMessage: true,
	DisallowUnknownFields:  true,
}.Froze()

// ConfigurationError reports malformed override data supplied by the caller.
type ConfigurationError struct {
	Field string
	Err   error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid %s: %v", e.Field, e.Err)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// Overrides are caller-supplied changes applied on top of a base configuration.
// Nil or empty fields leave the base untouched.
type Overrides struct {
	NPatients     *int
	Seed          *int64
	MaxAttempts   *int
	LambdaPerWeek *float64

	// PopulationWeights maps population name to a raw numeric string.
	PopulationWeights map[string]string

	// JSON documents (inline, or @path to read a file) replacing whole tables.
	PopulationParamsJSON string
	TouchpointsJSON      string
	AllocatedMinutesJSON string
}

// Apply returns a copy of base with o applied. base is never modified.
func Apply(base model.Config, o Overrides) (model.Config, error) {
	cfg := base.Clone()
	if o.NPatients != nil {
		cfg.NPatients = *o.NPatients
	}
	if o.Seed != nil {
		cfg.Seed = *o.Seed
	}
	if o.MaxAttempts != nil {
		cfg.MaxAttempts = *o.MaxAttempts
	}
	if o.LambdaPerWeek != nil {
		cfg.LambdaPerWeek = *o.LambdaPerWeek
	}

	names := make([]string, 0, len(o.PopulationWeights))
	for name := range o.PopulationWeights {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		raw := o.PopulationWeights[name]
		weight, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return model.Config{}, &ConfigurationError{Field: "weight for " + name, Err: err}
		}
		idx := populationIndex(cfg.Populations, name)
		if idx < 0 {
			return model.Config{}, &ConfigurationError{Field: "population weight", Err: fmt.Errorf("unknown population %q", name)}
		}
		cfg.Populations[idx].Weight = weight
	}

	if o.PopulationParamsJSON != "" {
		var params map[string]model.PopulationParams
		if err := decodeJSONArg(o.PopulationParamsJSON, &params); err != nil {
			return model.Config{}, &ConfigurationError{Field: "population_params", Err: err}
		}
		cfg.PopulationParams = params
	}
	if o.TouchpointsJSON != "" {
		var touchpoints map[string]float64
		if err := decodeJSONArg(o.TouchpointsJSON, &touchpoints); err != nil {
			return model.Config{}, &ConfigurationError{Field: "avg_touchpoints_by_method", Err: err}
		}
		cfg.TouchpointsByMethod = touchpoints
	}
	if o.AllocatedMinutesJSON != "" {
		var minutes map[string]float64
		if err := decodeJSONArg(o.AllocatedMinutesJSON, &minutes); err != nil {
			return model.Config{}, &ConfigurationError{Field: "allocated_minutes_by_visit_category", Err: err}
		}
		cfg.AllocatedMinutesByCategory = minutes
	}
	return cfg, nil
}

// LoadScenario reads a complete configuration document (as printed by
// `apptsim defaults`) from inline JSON or @path.
func LoadScenario(arg string) (model.Config, error) {
	var cfg model.Config
	if err := decodeJSONArg(arg, &cfg); err != nil {
		return model.Config{}, &ConfigurationError{Field: "scenario", Err: err}
	}
	return cfg, nil
}

// MarshalScenario renders cfg as indented JSON.
func MarshalScenario(cfg model.Config) ([]byte, error) {
	return strictJSON.MarshalIndent(cfg, "", "  ")
}

func decodeJSONArg(arg string, target any) error {
	data, err := readJSONArg(arg)
	if err != nil {
		return err
	}
	if err := strictJSON.Unmarshal(data, target); err != nil {
		return fmt.Errorf("failed to decode JSON: %w", err)
	}
	return nil
}

func readJSONArg(arg string) ([]byte, error) {
	arg = strings.TrimSpace(arg)
	if path, ok := strings.CutPrefix(arg, "@"); ok {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		return data, nil
	}
	return []byte(arg), nil
}

func populationIndex(pops []model.PopulationWeight, name string) int {
	for i, p := range pops {
		if p.Name == name {
			return i
		}
	}
	return -1
}
