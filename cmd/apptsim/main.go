// Package main provides the CLI entrypoint for apptsim.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/sparshmallow/appointmentscheduling/internal/config"
	"github.com/sparshmallow/appointmentscheduling/internal/export"
	"github.com/sparshmallow/appointmentscheduling/internal/model"
	"github.com/sparshmallow/appointmentscheduling/internal/resultsui"
	"github.com/sparshmallow/appointmentscheduling/internal/sim"
	"github.com/sparshmallow/appointmentscheduling/internal/stats"
	"github.com/sparshmallow/appointmentscheduling/internal/store"
)

const (
	defaultPreviewRows = 25
	defaultTrendWindow = 3
)

var (
	simNPatients     int
	simSeed          int64
	simMaxAttempts   int
	simLambda        float64
	simPopWeights    []string
	simPopParams     string
	simTouchpoints   string
	simAllocMinutes  string
	simScenario      string
	simNoSave        bool
	simOut           string
	simFormat        string
	simView          bool
	simPreview       int
	globalDBDSN      string
	globalVerbose    bool
	globalConfigPath string
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		logErrf("error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:               "apptsim",
		Short:             "Appointment scheduling funnel simulator",
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: setupRuntime,
		RunE:              runSimulateCmd,
	}

	rootCmd.PersistentFlags().StringVar(&globalDBDSN, "db", "", "run archive: SQLite path or PostgreSQL DSN (default: $"+config.EnvDSN+" or XDG data dir)")
	rootCmd.PersistentFlags().BoolVarP(&globalVerbose, "verbose", "v", false, "debug logging on stderr")
	rootCmd.PersistentFlags().StringVar(&globalConfigPath, "config", config.DefaultConfigPath(), "TOML config file")

	rootCmd.Flags().IntVar(&simNPatients, "n-patients", config.DefaultNPatients, "number of patients to simulate")
	rootCmd.Flags().Int64Var(&simSeed, "seed", config.DefaultSeed, "random seed (> 0)")
	rootCmd.Flags().IntVar(&simMaxAttempts, "max-attempts", config.DefaultMaxAttempts, "maximum attempts per patient")
	rootCmd.Flags().Float64Var(&simLambda, "lambda", config.DefaultLambdaPerWeek, "patient arrivals per week")
	rootCmd.Flags().StringArrayVar(&simPopWeights, "pop-weight", nil, "population weight as NAME=WEIGHT (repeatable)")
	rootCmd.Flags().StringVar(&simPopParams, "population-params", "", "population parameters as JSON or @file")
	rootCmd.Flags().StringVar(&simTouchpoints, "touchpoints", "", "average touchpoints by method as JSON or @file")
	rootCmd.Flags().StringVar(&simAllocMinutes, "allocated-minutes", "", "allocated minutes by visit category as JSON or @file")
	rootCmd.Flags().StringVar(&simScenario, "scenario", "", "complete configuration as JSON or @file (see `apptsim defaults`)")
	rootCmd.Flags().BoolVar(&simNoSave, "no-save", false, "do not archive the run")
	rootCmd.Flags().StringVarP(&simOut, "out", "o", "", "write the result CSV to this path")
	rootCmd.Flags().StringVar(&simFormat, "format", "text", "output format: text or json")
	rootCmd.Flags().BoolVar(&simView, "view", false, "open the interactive results viewer")
	rootCmd.Flags().IntVar(&simPreview, "preview", defaultPreviewRows, "number of patient rows to preview")

	rootCmd.AddCommand(newRunsCmd())
	rootCmd.AddCommand(newShowCmd())
	rootCmd.AddCommand(newExportCmd())
	rootCmd.AddCommand(newDefaultsCmd())
	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}

func setupRuntime(cmd *cobra.Command, _ []string) error {
	level := slog.LevelWarn
	if globalVerbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})))
	if err := config.LoadEnv(); err != nil {
		return err
	}
	return nil
}

func runSimulateCmd(cmd *cobra.Command, _ []string) error {
	if simFormat != "text" && simFormat != "json" {
		return fmt.Errorf("--format must be text or json")
	}
	fileCfg, err := config.LoadConfig(globalConfigPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyBoolConfig(cmd, "no-save", &simNoSave, fileCfg.Store.NoSave)

	cfg, err := buildRunConfig(cmd, fileCfg.Run)
	if err != nil {
		return err
	}
	slog.Debug("simulating", "n_patients", cfg.NPatients, "seed", cfg.Seed, "max_attempts", cfg.MaxAttempts, "lambda_per_week", cfg.LambdaPerWeek)

	table, err := sim.Run(cfg)
	if err != nil {
		return err
	}
	summary, err := stats.Summarize(table)
	if err != nil {
		return fmt.Errorf("failed to summarize: %w", err)
	}
	csvText, err := export.EncodeCSV(table)
	if err != nil {
		return err
	}

	run := model.Run{RunInfo: model.RunInfo{Summary: summary}, Config: cfg, CSVText: csvText}
	if !simNoSave {
		info, err := saveRun(cmd.Context(), fileCfg.Store, cfg, summary, csvText)
		if err != nil {
			return err
		}
		run.RunInfo = info
	}
	if simOut != "" {
		if err := os.WriteFile(simOut, []byte(csvText), 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", simOut, err)
		}
		logErrf("Wrote %s\n", simOut)
	}

	report := stats.NewReport(run, table)
	if simView {
		return runViewer(report)
	}
	return writeReport(cmd.OutOrStdout(), report, simFormat, simPreview)
}

// buildRunConfig layers defaults, an optional scenario, the [run] table,
// explicit flags and JSON overrides, in that order.
func buildRunConfig(cmd *cobra.Command, file config.RunConfig) (model.Config, error) {
	base := config.DefaultConfig()
	if cmd.Flags().Changed("scenario") {
		scenario, err := config.LoadScenario(simScenario)
		if err != nil {
			return model.Config{}, err
		}
		base = scenario
		file.Scenario = nil
	}
	base, err := file.ApplyRun(base)
	if err != nil {
		return model.Config{}, err
	}

	weights, err := parsePopWeights(simPopWeights)
	if err != nil {
		return model.Config{}, err
	}
	overrides := config.Overrides{
		PopulationWeights:    weights,
		PopulationParamsJSON: simPopParams,
		TouchpointsJSON:      simTouchpoints,
		AllocatedMinutesJSON: simAllocMinutes,
	}
	if cmd.Flags().Changed("n-patients") {
		overrides.NPatients = &simNPatients
	}
	if cmd.Flags().Changed("seed") {
		overrides.Seed = &simSeed
	}
	if cmd.Flags().Changed("max-attempts") {
		overrides.MaxAttempts = &simMaxAttempts
	}
	if cmd.Flags().Changed("lambda") {
		overrides.LambdaPerWeek = &simLambda
	}
	return config.Apply(base, overrides)
}

func parsePopWeights(values []string) (map[string]string, error) {
	if len(values) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(values))
	for _, v := range values {
		name, weight, ok := strings.Cut(v, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, &config.ConfigurationError{Field: "--pop-weight", Err: fmt.Errorf("expected NAME=WEIGHT, got %q", v)}
		}
		out[name] = weight
	}
	return out, nil
}

func saveRun(ctx context.Context, file config.StoreConfig, cfg model.Config, summary model.Summary, csvText string) (model.RunInfo, error) {
	st, err := openStore(ctx, file)
	if err != nil {
		return model.RunInfo{}, err
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()
	info, err := st.SaveRun(ctx, cfg, summary, csvText)
	if err != nil {
		return model.RunInfo{}, fmt.Errorf("failed to save run: %w", err)
	}
	return info, nil
}

func openStore(ctx context.Context, file config.StoreConfig) (*store.Store, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	dsn := config.ResolveDSN(globalDBDSN, file)
	st, err := store.Open(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}
	return st, nil
}

func writeReport(w io.Writer, report stats.Report, format string, preview int) error {
	if format == "json" {
		doc := export.RunDocument{
			RunID:   report.Run.ID,
			RunKey:  report.Run.Key,
			Summary: report.Run.Summary,
			Preview: export.PreviewRows(report.Table, preview),
		}
		data, err := export.MarshalRun(doc)
		if err != nil {
			return fmt.Errorf("failed to encode json: %w", err)
		}
		if _, err := fmt.Fprintln(w, string(data)); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		return nil
	}
	return stats.RenderReport(w, report, stats.ReportOptions{
		PreviewRows: preview,
		TrendWindow: defaultTrendWindow,
	})
}

func runViewer(report stats.Report) error {
	program := tea.NewProgram(resultsui.NewModel(report), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run results viewer: %w", err)
	}
	return nil
}

func applyBoolConfig(cmd *cobra.Command, name string, target, value *bool) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
