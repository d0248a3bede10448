package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/san-kum/tenpush/internal/config"
	"github.com/san-kum/tenpush/internal/metrics"
	"github.com/san-kum/tenpush/internal/sim"
	"github.com/san-kum/tenpush/internal/storage"
	"github.com/san-kum/tenpush/internal/tui"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
)

// resolveConfig layers preset, config file and explicitly set flags, in
// that order.
func resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	flags := cmd.Flags()

	if preset != "" {
		p := config.GetPreset(fieldKind, preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s (available for %s: %v)", preset, fieldKind, config.ListPresets(fieldKind))
		}
		c := *p
		cfg = &c
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	if flags.Changed("field") || (preset == "" && configFile == "") {
		cfg.Field.Kind = fieldKind
	}
	if flags.Changed("force") {
		cfg.Force.Spec = forceSpec
	}
	if flags.Changed("threads") {
		cfg.Run.Threads = threads
	}
	if flags.Changed("dim") {
		cfg.Run.Dim = dim
	}
	if flags.Changed("things") {
		cfg.Run.Things = things
	}
	if flags.Changed("seed") {
		cfg.Run.Seed = seed
	}
	if flags.Changed("min-iter") {
		cfg.Run.MinIter = minIter
	}
	if flags.Changed("max-iter") {
		cfg.Run.MaxIter = maxIter
	}
	if flags.Changed("tractlets") {
		cfg.Tractlet.Enabled = tractlets
	}
	if flags.Changed("single-bin") {
		cfg.Domain.SingleBin = singleBin
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newScheduler(cfg *config.Config, p sim.Params) (*sim.Scheduler, error) {
	f, err := cfg.NewField()
	if err != nil {
		return nil, err
	}
	stepper, err := cfg.NewStepper()
	if err != nil {
		return nil, err
	}
	s, err := sim.New(p, f, stepper)
	if err != nil {
		return nil, err
	}
	for _, m := range metrics.All() {
		s.AddMetric(m)
	}
	return s, nil
}

func drive(ctx context.Context, s *sim.Scheduler, title string) (*sim.Result, error) {
	if live {
		return tui.Run(ctx, s, title)
	}
	return s.Run(ctx)
}

func status(res *sim.Result, err error) string {
	switch {
	case errors.Is(err, context.Canceled):
		return storage.StatusCancelled
	case err != nil:
		return storage.StatusFailed
	case res != nil && res.Converged:
		return storage.StatusConverged
	}
	return storage.StatusLimit
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	p, err := cfg.Params(slog.Default())
	if err != nil {
		return err
	}
	s, err := newScheduler(cfg, p)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var db *storage.DB
	var runID string
	if save {
		db, err = storage.OpenDir(dataDir)
		if err != nil {
			return err
		}
		defer db.Close()
		doc, err := cfg.Marshal()
		if err != nil {
			return err
		}
		runID, err = db.CreateRun(doc, cfg.Field.Kind, cfg.Run.Dim, cfg.Run.Threads)
		if err != nil {
			return err
		}
	}

	start := time.Now()
	if err := s.Start(ctx); err != nil {
		if db != nil {
			return markFailed(db, runID, err)
		}
		return err
	}
	defer s.Finish()

	title := fmt.Sprintf("%s field, %d-D, %s things", cfg.Field.Kind, cfg.Run.Dim, humanize.Comma(int64(cfg.Run.Things)))
	res, runErr := drive(ctx, s, title)

	if db != nil {
		if err := persist(db, runID, s, res, 0, runErr); err != nil {
			return err
		}
	}
	printSummary(runID, s, res, runErr, time.Since(start))
	return ignoreCancel(runErr)
}

func resumeRun(cmd *cobra.Command, args []string) error {
	db, err := storage.OpenDir(dataDir)
	if err != nil {
		return err
	}
	defer db.Close()

	run, err := db.Run(args[0])
	if err != nil {
		return err
	}
	sn, err := db.LatestSnapshot(run.ID)
	if err != nil {
		return err
	}
	cfg, err := config.Unmarshal(run.Config)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("threads") {
		cfg.Run.Threads = threads
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	p, err := cfg.Params(slog.Default())
	if err != nil {
		return err
	}
	p.NumThings = 0
	p.MinIter = max(0, p.MinIter-sn.Iter)
	p.MaxIter = maxIter

	s, err := newScheduler(cfg, p)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	start := time.Now()
	if err := s.Start(ctx); err != nil {
		return err
	}
	defer s.Finish()
	if err := s.Load(sn); err != nil {
		return err
	}

	title := fmt.Sprintf("%s field, resumed at iteration %d", cfg.Field.Kind, sn.Iter)
	res, runErr := drive(ctx, s, title)

	if err := persist(db, run.ID, s, res, sn.Iter, runErr); err != nil {
		return err
	}
	printSummary(run.ID, s, res, runErr, time.Since(start))
	return ignoreCancel(runErr)
}

// persist stores history and the final snapshot with iteration numbers
// shifted by offset.
func persist(db *storage.DB, runID string, s *sim.Scheduler, res *sim.Result, offset int, runErr error) error {
	var hist []sim.IterStats
	if res != nil {
		hist = make([]sim.IterStats, len(res.History))
		for i, st := range res.History {
			st.Iter += offset
			hist[i] = st
		}
	}
	if err := db.AppendHistory(runID, hist); err != nil {
		return fmt.Errorf("save history: %w", err)
	}

	if sn, err := s.Snapshot(); err == nil {
		sn.Iter += offset
		if err := db.SaveSnapshot(runID, sn); err != nil {
			return fmt.Errorf("save snapshot: %w", err)
		}
	}

	return db.FinishRun(runID, s.Iter()+offset, s.Registry().Len(), s.MeanSpeed(), status(res, runErr))
}

func printSummary(runID string, s *sim.Scheduler, res *sim.Result, runErr error, elapsed time.Duration) {
	fmt.Println(titleStyle.Render("tenpush"))
	if runID != "" {
		fmt.Printf("%s %s\n", labelStyle.Render("run:       "), runID)
	}
	fmt.Printf("%s %d\n", labelStyle.Render("iterations:"), s.Iter())
	fmt.Printf("%s %s\n", labelStyle.Render("things:    "), humanize.Comma(int64(s.Registry().Len())))
	fmt.Printf("%s %.4g\n", labelStyle.Render("mean speed:"), s.MeanSpeed())
	fmt.Printf("%s %s\n", labelStyle.Render("elapsed:   "), elapsed.Round(time.Millisecond))

	switch st := status(res, runErr); st {
	case storage.StatusConverged:
		fmt.Println(okStyle.Render(st))
	case storage.StatusFailed:
		fmt.Println(warnStyle.Render(fmt.Sprintf("%s: %v", st, runErr)))
	default:
		fmt.Println(warnStyle.Render(st))
	}

	if res != nil && len(res.Metrics) > 0 {
		fmt.Println()
		for _, name := range metrics.Names() {
			if v, ok := res.Metrics[name]; ok {
				fmt.Printf("%s %.4g\n", labelStyle.Render(fmt.Sprintf("%-18s", name)), v)
			}
		}
	}
}

// markFailed records a run that never started and returns err, joined with
// any error from recording it.
func markFailed(db *storage.DB, runID string, err error) error {
	if ferr := db.FinishRun(runID, 0, 0, 0, storage.StatusFailed); ferr != nil {
		return errors.Join(err, fmt.Errorf("mark run %s failed: %w", runID, ferr))
	}
	return err
}

func ignoreCancel(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
