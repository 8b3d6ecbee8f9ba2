package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sparshmallow/appointmentscheduling/internal/config"
)

func newDefaultsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "defaults",
		Short: "Print the default scenario as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := config.MarshalScenario(config.DefaultConfig())
			if err != nil {
				return fmt.Errorf("failed to encode defaults: %w", err)
			}
			if _, err := fmt.Fprintln(cmd.OutOrStdout(), string(data)); err != nil {
				return fmt.Errorf("failed to write output: %w", err)
			}
			return nil
		},
	}
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := globalConfigPath
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# apptsim configuration
# Uncomment a value to enable it. CLI flags override config values.

[run]
# n-patients = %d           # Patients per run
# seed = %d                    # Random seed (> 0)
# max-attempts = %d            # Attempts per patient
# lambda-per-week = %.1f       # Arrivals per week
# scenario = "scenario.json"  # Full configuration from `+"`apptsim defaults`"+`

# [run.population-weights]
# "Population 1" = 0.25

[store]
# dsn = %q
# no-save = false             # Skip archiving runs
`,
		config.DefaultNPatients,
		config.DefaultSeed,
		config.DefaultMaxAttempts,
		config.DefaultLambdaPerWeek,
		config.DefaultDBPath(),
	)
}
