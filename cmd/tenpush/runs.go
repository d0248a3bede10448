package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/tenpush/internal/config"
	"github.com/san-kum/tenpush/internal/storage"
)

func listRuns(cmd *cobra.Command, args []string) error {
	db, err := storage.OpenDir(dataDir)
	if err != nil {
		return err
	}
	defer db.Close()

	runs, err := db.Runs()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tCREATED\tFIELD\tDIM\tTHREADS\tTHINGS\tITERS\tSPEED\tSTATUS")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%s\t%d\t%.3g\t%s\n",
			run.ID[:8],
			humanize.Time(run.CreatedAt()),
			run.Field,
			run.Dim,
			run.Threads,
			humanize.Comma(int64(run.Things)),
			run.Iters,
			run.MeanSpeed,
			run.Status,
		)
	}
	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	db, err := storage.OpenDir(dataDir)
	if err != nil {
		return err
	}
	defer db.Close()

	run, err := db.Run(args[0])
	if err != nil {
		return err
	}
	hist, err := db.History(run.ID)
	if err != nil {
		return err
	}
	if len(hist) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", run.ID)
	fmt.Printf("field: %s\n", run.Field)
	fmt.Printf("iterations: %d\n\n", len(hist))

	speed := make([]float64, len(hist))
	things := make([]float64, len(hist))
	for i, h := range hist {
		speed[i] = h.MeanSpeed
		things[i] = float64(h.Things)
	}

	fmt.Println(asciigraph.Plot(speed,
		asciigraph.Height(10),
		asciigraph.Width(80),
		asciigraph.Caption("mean speed"),
	))
	fmt.Println()
	fmt.Println(asciigraph.Plot(things,
		asciigraph.Height(6),
		asciigraph.Width(80),
		asciigraph.Caption("live things"),
	))
	return nil
}

// output returns stdout or the file named by --out.
func output() (io.WriteCloser, error) {
	if outFile == "" {
		return nopCloser{os.Stdout}, nil
	}
	return os.Create(outFile)
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

func exportCSV(cmd *cobra.Command, args []string) error {
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

	w, err := output()
	if err != nil {
		return err
	}
	if err := storage.WriteCSV(w, sn); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

func exportJSON(cmd *cobra.Command, args []string) error {
	db, err := storage.OpenDir(dataDir)
	if err != nil {
		return err
	}
	defer db.Close()

	run, err := db.Run(args[0])
	if err != nil {
		return err
	}
	hist, err := db.History(run.ID)
	if err != nil {
		return err
	}
	sn, err := db.LatestSnapshot(run.ID)
	if err != nil {
		return err
	}

	w, err := output()
	if err != nil {
		return err
	}
	if err := storage.WriteJSON(w, run, hist, sn); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

func listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "FIELD\tPRESET\tTHINGS\tTHREADS\tFORCE\tTRACTLETS")
	for _, kind := range config.FieldKinds() {
		for _, name := range config.ListPresets(kind) {
			p := config.GetPreset(kind, name)
			fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%s\t%t\n",
				kind, name, p.Run.Things, p.Run.Threads, p.Force.Spec, p.Tractlet.Enabled)
		}
	}
	return w.Flush()
}
