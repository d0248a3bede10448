package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var (
	dataDir  string
	logLevel string

	configFile string
	preset     string
	fieldKind  string
	forceSpec  string
	threads    int
	dim        int
	things     int
	seed       int64
	minIter    int
	maxIter    int
	tractlets  bool
	singleBin  bool
	live       bool
	save       bool

	outFile string
)

// main registers the commands and their flags and exits with status 1 if
// the selected command fails.
func main() {
	rootCmd := &cobra.Command{
		Use:   "tenpush",
		Short: "particle placement in tensor fields",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupLogging(logLevel)
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".tenpush", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run a simulation",
		Args:  cobra.NoArgs,
		RunE:  runSimulation,
	}
	addConfigFlags(runCmd)
	runCmd.Flags().BoolVar(&live, "live", false, "show the live view")
	runCmd.Flags().BoolVar(&save, "save", true, "store the run in the data directory")

	resumeCmd := &cobra.Command{
		Use:   "resume [run_id]",
		Short: "continue a stored run from its last snapshot",
		Args:  cobra.ExactArgs(1),
		RunE:  resumeRun,
	}
	resumeCmd.Flags().IntVar(&maxIter, "max-iter", 500, "further iteration limit (0 for none)")
	resumeCmd.Flags().IntVar(&threads, "threads", 1, "worker threads (default keeps the stored value)")
	resumeCmd.Flags().BoolVar(&live, "live", false, "show the live view")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot the mean speed history of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export the last snapshot of a run as csv",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}
	exportCSVCmd.Flags().StringVarP(&outFile, "out", "o", "", "output file (default stdout)")

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export a run, its history and last snapshot as json",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}
	exportJSONCmd.Flags().StringVarP(&outFile, "out", "o", "", "output file (default stdout)")

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "run a parameter grid and report the best settings",
		Args:  cobra.NoArgs,
		RunE:  sweepRun,
	}
	addConfigFlags(sweepCmd)
	sweepCmd.Flags().StringArrayVar(&sweepParams, "param", nil, "parameter values to sweep, name=v1,v2 (repeatable)")
	sweepCmd.Flags().StringVar(&sweepMetric, "metric", "mean_speed", "metric to minimize")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list presets",
		Args:  cobra.NoArgs,
		RunE:  listPresets,
	}

	rootCmd.AddCommand(runCmd, resumeCmd, listCmd, plotCmd, exportCSVCmd, exportJSONCmd, sweepCmd, presetsCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// addConfigFlags registers the flags resolveConfig reads.
func addConfigFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "preset for the chosen field kind")
	cmd.Flags().StringVar(&fieldKind, "field", "circle", "field kind (circle, noise, uniform)")
	cmd.Flags().StringVar(&forceSpec, "force", "spring:1,0.5", "force model, name:params")
	cmd.Flags().IntVar(&threads, "threads", 1, "worker threads")
	cmd.Flags().IntVar(&dim, "dim", 2, "dimension (2 or 3)")
	cmd.Flags().IntVar(&things, "things", 200, "number of things to seed")
	cmd.Flags().Int64Var(&seed, "seed", 1, "random seed")
	cmd.Flags().IntVar(&minIter, "min-iter", 10, "iterations before convergence is checked")
	cmd.Flags().IntVar(&maxIter, "max-iter", 500, "iteration limit (0 for none)")
	cmd.Flags().BoolVar(&tractlets, "tractlets", false, "let things grow into tractlets")
	cmd.Flags().BoolVar(&singleBin, "single-bin", false, "disable spatial binning")
}

func setupLogging(level string) error {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToLower(level))); err != nil {
		return fmt.Errorf("invalid log level %q", level)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)
	return nil
}
