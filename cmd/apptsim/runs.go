package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/sparshmallow/appointmentscheduling/internal/config"
	"github.com/sparshmallow/appointmentscheduling/internal/export"
	"github.com/sparshmallow/appointmentscheduling/internal/stats"
)

var (
	runsLimit      int
	runsPopulation string

	showView    bool
	showFormat  string
	showPreview int

	exportOut string
)

func newRunsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List archived runs",
		Args:  cobra.NoArgs,
		RunE:  runRunsCmd,
	}
	cmd.Flags().IntVar(&runsLimit, "limit", 20, "maximum number of runs to list")
	cmd.Flags().StringVar(&runsPopulation, "population", "", "show one population's completion rate across runs")
	return cmd
}

func runRunsCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(globalConfigPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	st, err := openStore(cmd.Context(), fileCfg.Store)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	if runsPopulation != "" {
		points, err := st.PopulationHistory(cmd.Context(), runsPopulation, runsLimit)
		if err != nil {
			return err
		}
		history := make([]stats.HistoryPoint, len(points))
		for i, p := range points {
			history[i] = stats.HistoryPoint{RunID: p.RunID, CompletionRate: p.CompletionRate, N: p.N}
		}
		return stats.RenderHistory(cmd.OutOrStdout(), runsPopulation, history)
	}

	runs, err := st.ListRuns(cmd.Context(), runsLimit)
	if err != nil {
		return err
	}
	return stats.RenderRuns(cmd.OutOrStdout(), runs)
}

func newShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show an archived run",
		Args:  cobra.ExactArgs(1),
		RunE:  runShowCmd,
	}
	cmd.Flags().BoolVar(&showView, "view", false, "open the interactive results viewer")
	cmd.Flags().StringVar(&showFormat, "format", "text", "output format: text or json")
	cmd.Flags().IntVar(&showPreview, "preview", defaultPreviewRows, "number of patient rows to preview")
	return cmd
}

func runShowCmd(cmd *cobra.Command, args []string) error {
	if showFormat != "text" && showFormat != "json" {
		return fmt.Errorf("--format must be text or json")
	}
	id, err := parseRunID(args[0])
	if err != nil {
		return err
	}
	fileCfg, err := config.LoadConfig(globalConfigPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	st, err := openStore(cmd.Context(), fileCfg.Store)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	report, err := stats.BuildReport(cmd.Context(), st, id)
	if err != nil {
		return err
	}
	if showView {
		return runViewer(report)
	}
	return writeReport(cmd.OutOrStdout(), report, showFormat, showPreview)
}

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export <run-id>",
		Short: "Write an archived run's CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  runExportCmd,
	}
	cmd.Flags().StringVarP(&exportOut, "output", "o", "", "output path, - for stdout (default: appt_sim_run_<id>.csv)")
	return cmd
}

func runExportCmd(cmd *cobra.Command, args []string) error {
	id, err := parseRunID(args[0])
	if err != nil {
		return err
	}
	fileCfg, err := config.LoadConfig(globalConfigPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	st, err := openStore(cmd.Context(), fileCfg.Store)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	run, err := st.GetRun(cmd.Context(), id)
	if err != nil {
		return err
	}
	if exportOut == "-" {
		if _, err := fmt.Fprint(cmd.OutOrStdout(), run.CSVText); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		return nil
	}
	path := exportOut
	if path == "" {
		path = export.FileName(id)
	}
	if err := os.WriteFile(path, []byte(run.CSVText), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	logErrf("Wrote %s\n", path)
	return nil
}

func parseRunID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid run id %q", arg)
	}
	return id, nil
}
