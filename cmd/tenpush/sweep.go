package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/san-kum/tenpush/internal/config"
	"github.com/san-kum/tenpush/internal/metrics"
	"github.com/san-kum/tenpush/internal/optim"
	"github.com/san-kum/tenpush/internal/sim"
)

var (
	sweepParams []string
	sweepMetric string
)

// parseSweep turns name=v1,v2,... arguments into grid axes, sorted by name.
func parseSweep(args []string) ([]string, [][]float64, error) {
	axes := make(map[string][]float64)
	for _, arg := range args {
		name, list, ok := strings.Cut(arg, "=")
		if !ok || name == "" || list == "" {
			return nil, nil, fmt.Errorf("invalid --param %q, want name=v1,v2", arg)
		}
		if _, dup := axes[name]; dup {
			return nil, nil, fmt.Errorf("parameter %s given twice", name)
		}
		for _, s := range strings.Split(list, ",") {
			v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
			if err != nil {
				return nil, nil, fmt.Errorf("parameter %s: %w", name, err)
			}
			axes[name] = append(axes[name], v)
		}
	}

	names := make([]string, 0, len(axes))
	for n := range axes {
		names = append(names, n)
	}
	sort.Strings(names)
	ranges := make([][]float64, len(names))
	for i, n := range names {
		ranges[i] = axes[n]
	}
	return names, ranges, nil
}

func sweepRun(cmd *cobra.Command, args []string) error {
	base, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	if _, err := metrics.New(sweepMetric); err != nil {
		return fmt.Errorf("%w (available: %v)", err, metrics.Names())
	}
	names, ranges, err := parseSweep(sweepParams)
	if err != nil {
		return err
	}
	if len(names) == 0 {
		return fmt.Errorf("nothing to sweep, pass --param (available: %v)", config.Tunable())
	}
	for _, n := range names {
		if err := base.Clone().Set(n, 0); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	trial := func(ctx context.Context, values map[string]float64) (*sim.Result, error) {
		cfg := base.Clone()
		for n, v := range values {
			if err := cfg.Set(n, v); err != nil {
				return nil, err
			}
		}
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		p, err := cfg.Params(slog.Default())
		if err != nil {
			return nil, err
		}
		s, err := newScheduler(cfg, p)
		if err != nil {
			return nil, err
		}
		if err := s.Start(ctx); err != nil {
			return nil, err
		}
		defer s.Finish()
		return s.Run(ctx)
	}

	g := optim.NewGridSearch(names, ranges)
	fmt.Println(titleStyle.Render(fmt.Sprintf("sweep: %d runs over %s, minimizing %s", g.Size(), strings.Join(names, ", "), sweepMetric)))

	best, value, outcomes, err := g.Search(ctx, trial, sweepMetric)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, strings.ToUpper(strings.Join(names, "\t"))+"\t"+strings.ToUpper(sweepMetric))
	for _, o := range outcomes {
		row := make([]string, len(names))
		for i, n := range names {
			row[i] = strconv.FormatFloat(o.Params[n], 'g', -1, 64)
		}
		cell := fmt.Sprintf("%.4g", o.Value)
		if o.Err != nil {
			cell = warnStyle.Render("failed: " + o.Err.Error())
		}
		fmt.Fprintln(w, strings.Join(row, "\t")+"\t"+cell)
	}
	w.Flush()

	if best != nil {
		parts := make([]string, len(names))
		for i, n := range names {
			parts[i] = fmt.Sprintf("%s=%g", n, best[n])
		}
		fmt.Println(okStyle.Render(fmt.Sprintf("best: %s (%s %.4g)", strings.Join(parts, " "), sweepMetric, value)))
	} else {
		fmt.Println(warnStyle.Render("no run succeeded"))
	}
	return ignoreCancel(err)
}
