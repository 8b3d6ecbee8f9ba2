package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfigIsFreshCopy(t *testing.T) {
	a := DefaultConfig()
	a.Populations[0].Weight = 9
	a.TouchpointsByMethod["Method 1"] = 99
	b := DefaultConfig()
	if b.Populations[0].Weight != 0.25 {
		t.Fatalf("expected untouched default weight, got %v", b.Populations[0].Weight)
	}
	if b.TouchpointsByMethod["Method 1"] != 2 {
		t.Fatalf("expected untouched default touchpoints, got %v", b.TouchpointsByMethod["Method 1"])
	}
	if len(b.PopulationParams) != 4 {
		t.Fatalf("expected 4 population param sets, got %d", len(b.PopulationParams))
	}
}

func TestApplyOverridesScalars(t *testing.T) {
	base := DefaultConfig()
	n := 10
	seed := int64(42)
	cfg, err := Apply(base, Overrides{NPatients: &n, Seed: &seed})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if cfg.NPatients != 10 || cfg.Seed != 42 {
		t.Fatalf("unexpected overrides: %d %d", cfg.NPatients, cfg.Seed)
	}
	if cfg.MaxAttempts != DefaultMaxAttempts {
		t.Fatalf("expected default max attempts, got %d", cfg.MaxAttempts)
	}
	if base.NPatients != DefaultNPatients {
		t.Fatalf("base was modified")
	}
}

func TestApplyPopulationWeights(t *testing.T) {
	cfg, err := Apply(DefaultConfig(), Overrides{PopulationWeights: map[string]string{"Population 2": " 0.7 "}})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if cfg.Populations[1].Weight != 0.7 {
		t.Fatalf("expected weight 0.7, got %v", cfg.Populations[1].Weight)
	}

	_, err = Apply(DefaultConfig(), Overrides{PopulationWeights: map[string]string{"Population 1": "abc"}})
	var cerr *ConfigurationError
	if !errors.As(err, &cerr) {
		t.Fatalf("expected ConfigurationError, got %v", err)
	}

	_, err = Apply(DefaultConfig(), Overrides{PopulationWeights: map[string]string{"Nobody": "1"}})
	if !errors.As(err, &cerr) {
		t.Fatalf("expected ConfigurationError for unknown population, got %v", err)
	}
}

func TestApplyPopulationWeightsErrorIsStable(t *testing.T) {
	weights := map[string]string{"Zeta": "1", "Population 1": "bad", "Alpha": "x"}
	for i := 0; i < 20; i++ {
		_, err := Apply(DefaultConfig(), Overrides{PopulationWeights: weights})
		var cerr *ConfigurationError
		if !errors.As(err, &cerr) {
			t.Fatalf("expected ConfigurationError, got %v", err)
		}
		if cerr.Field != "weight for Alpha" {
			t.Fatalf("expected error for Alpha, got %q", cerr.Field)
		}
	}
}

func TestApplyJSONTables(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "minutes.json")
	if err := os.WriteFile(path, []byte(`{"VisitCat 1": 45}`), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := Apply(DefaultConfig(), Overrides{
		TouchpointsJSON:      `{"Method 1": 5}`,
		AllocatedMinutesJSON: "@" + path,
		PopulationParamsJSON: `{"Population 1": {"methods": [{"method": "Method 1", "likelihood": 1, "p_schedule": 1, "p_complete": 1}], "visit_categories": [{"category": "VisitCat 1", "prob": 1}]}}`,
	})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if cfg.TouchpointsByMethod["Method 1"] != 5 || len(cfg.TouchpointsByMethod) != 1 {
		t.Fatalf("unexpected touchpoints: %v", cfg.TouchpointsByMethod)
	}
	if cfg.AllocatedMinutesByCategory["VisitCat 1"] != 45 {
		t.Fatalf("unexpected minutes: %v", cfg.AllocatedMinutesByCategory)
	}
	params := cfg.PopulationParams["Population 1"]
	if len(params.Methods) != 1 || params.Methods[0].PSchedule != 1 {
		t.Fatalf("unexpected params: %+v", params)
	}
}

func TestApplyRejectsMalformedJSON(t *testing.T) {
	cases := []Overrides{
		{TouchpointsJSON: `{"Method 1": "x"}`},
		{AllocatedMinutesJSON: `not json`},
		{PopulationParamsJSON: `{"Population 1": {"metods": []}}`},
		{TouchpointsJSON: "@" + filepath.Join(t.TempDir(), "missing.json")},
	}
	for i, o := range cases {
		_, err := Apply(DefaultConfig(), o)
		var cerr *ConfigurationError
		if !errors.As(err, &cerr) {
			t.Fatalf("case %d: expected ConfigurationError, got %v", i, err)
		}
	}
}

func TestScenarioRoundTrip(t *testing.T) {
	data, err := MarshalScenario(DefaultConfig())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	cfg, err := LoadScenario(string(data))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.NPatients != DefaultNPatients || len(cfg.Populations) != 4 {
		t.Fatalf("unexpected scenario: %+v", cfg)
	}
	if cfg.Populations[2].Name != "Population 3" {
		t.Fatalf("population order not kept: %+v", cfg.Populations)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Run.NPatients != nil || cfg.Store.DSN != nil {
		t.Fatalf("expected empty config, got %+v", cfg)
	}
}

func TestLoadConfigRunTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `[run]
n-patients = 50
seed = 3
lambda-per-week = 12.5

[run.population-weights]
"Population 4" = 0.0

[store]
dsn = "/tmp/runs.db"
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	file, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if file.Store.DSN == nil || *file.Store.DSN != "/tmp/runs.db" {
		t.Fatalf("unexpected store: %+v", file.Store)
	}
	cfg, err := file.Run.ApplyRun(DefaultConfig())
	if err != nil {
		t.Fatalf("apply run: %v", err)
	}
	if cfg.NPatients != 50 || cfg.Seed != 3 || cfg.LambdaPerWeek != 12.5 {
		t.Fatalf("unexpected run config: %+v", cfg)
	}
	if cfg.Populations[3].Weight != 0 {
		t.Fatalf("expected zero weight, got %v", cfg.Populations[3].Weight)
	}
}

func TestLoadConfigUnknownKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[run]\npatients = 5\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Fatalf("expected error for unknown key")
	}
}

func TestResolveDSN(t *testing.T) {
	t.Setenv(EnvDSN, "")
	t.Setenv("XDG_DATA_HOME", "/data")
	if got := ResolveDSN("", StoreConfig{}); got != filepath.Join("/data", "apptsim", "runs.db") {
		t.Fatalf("unexpected default dsn: %s", got)
	}
	fileDSN := "file.db"
	if got := ResolveDSN("", StoreConfig{DSN: &fileDSN}); got != "file.db" {
		t.Fatalf("expected file dsn, got %s", got)
	}
	t.Setenv(EnvDSN, "env.db")
	if got := ResolveDSN("", StoreConfig{DSN: &fileDSN}); got != "env.db" {
		t.Fatalf("expected env dsn, got %s", got)
	}
	if got := ResolveDSN("flag.db", StoreConfig{DSN: &fileDSN}); got != "flag.db" {
		t.Fatalf("expected flag dsn, got %s", got)
	}
}

func TestLoadEnvSkipsMissingAndKeepsExisting(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("APPTSIM_TEST_A=from-file\nAPPTSIM_TEST_B=from-file\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("APPTSIM_TEST_A", "preset")
	t.Setenv("APPTSIM_TEST_B", "")
	os.Unsetenv("APPTSIM_TEST_B")
	if err := LoadEnv(filepath.Join(dir, "missing.env"), path); err != nil {
		t.Fatalf("load env: %v", err)
	}
	if got := os.Getenv("APPTSIM_TEST_A"); got != "preset" {
		t.Fatalf("expected preset value kept, got %s", got)
	}
	if got := os.Getenv("APPTSIM_TEST_B"); got != "from-file" {
		t.Fatalf("expected value from file, got %s", got)
	}
}
