package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/ctrlsim/internal/automation"
	"github.com/san-kum/ctrlsim/internal/config"
	"github.com/san-kum/ctrlsim/internal/control"
	"github.com/san-kum/ctrlsim/internal/dynamo"
	"github.com/san-kum/ctrlsim/internal/metrics"
	"github.com/san-kum/ctrlsim/internal/optim"
	"github.com/san-kum/ctrlsim/internal/scenario"
	"github.com/san-kum/ctrlsim/internal/storage"
	"github.com/san-kum/ctrlsim/internal/tui"
	"github.com/san-kum/ctrlsim/internal/viz"
)

// resolveGains layers the configured defaults, an optional preset and any
// explicitly set gain flags, in that order.
func resolveGains(cmd *cobra.Command, system scenario.SystemType) (control.Gains, error) {
	g := cfg.Gains
	if preset != "" {
		p, ok := config.GetPreset(system.String(), preset)
		if !ok {
			return g, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets(system.String()))
		}
		g = p
	}

	flags := cmd.Flags()
	if flags.Changed("kp") {
		g.Kp = kp
	}
	if flags.Changed("ki") {
		g.Ki = ki
	}
	if flags.Changed("kd") {
		g.Kd = kd
	}
	return g, nil
}

func runSimulation(cmd *cobra.Command, args []string) error {
	system, err := systemArg(args)
	if err != nil {
		return err
	}
	gains, err := resolveGains(cmd, system)
	if err != nil {
		return err
	}

	sc, err := scenario.Lookup(system)
	if err != nil {
		return err
	}
	if duration > 0 {
		sc.Duration = duration
	}

	var observers []dynamo.Observer
	var renderer *viz.LiveRenderer
	if live {
		renderer = viz.NewLiveRenderer(os.Stderr, system.String(), sc.Samples(), 60)
		observers = append(observers, renderer)
	}

	fmt.Printf("running %s with %s...\n", system, gains)
	start := time.Now()

	out, err := sc.Run(cmd.Context(), gains, observers...)
	if renderer != nil {
		renderer.Finish()
	}
	if err != nil {
		return err
	}
	fmt.Printf("completed %d samples in %v\n", len(out.Time), time.Since(start))

	if !noSave {
		st, err := openStore()
		if err != nil {
			return err
		}
		runID, err := st.Save(out, sc.Dt, sc.Duration)
		if err != nil {
			return err
		}
		fmt.Printf("run id: %s\n", runID)
	}

	printMetrics(os.Stdout, out.Metrics)
	if !noChart {
		fmt.Println()
		fmt.Println(viz.ResponseChart(out, viz.DefaultChartOptions))
	}
	return nil
}

func printMetrics(w io.Writer, m map[string]float64) {
	fmt.Fprintln(w, "\nmetrics:")
	for _, name := range metrics.Names {
		if v, ok := m[name]; ok {
			fmt.Fprintf(w, "  %-20s %.6f\n", name, v)
		}
	}
}

func listSystems(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SYSTEM\tSAMPLES\tDESCRIPTION")
	for _, s := range scenario.All() {
		sc, err := scenario.Lookup(s)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s\t%d\t%s\n", s, sc.Samples(), sc.Description)
	}
	return w.Flush()
}

func listPresets(cmd *cobra.Command, args []string) error {
	presets := config.ListPresets(args[0])
	if len(presets) == 0 {
		fmt.Printf("no presets for system: %s\n", args[0])
		return nil
	}
	fmt.Printf("presets for %s:\n", args[0])
	for _, p := range presets {
		g, _ := config.GetPreset(args[0], p)
		fmt.Printf("  %-14s %s\n", p, g)
	}
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	runs, err := st.List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RUN ID\tSYSTEM\tGAINS\tIAE\tTIMESTAMP")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.4f\t%s\n",
			run.ID, run.System, run.Gains, run.Metrics[metrics.IAEName], run.Timestamp.Format(time.RFC3339))
	}
	return w.Flush()
}

func loadRun(runID string) (*scenario.Output, error) {
	st, err := openStore()
	if err != nil {
		return nil, err
	}
	return st.LoadSeries(runID)
}

func plotRun(cmd *cobra.Command, args []string) error {
	out, err := loadRun(args[0])
	if err != nil {
		return err
	}
	if outPath != "" {
		if err := viz.SavePlot(out, outPath); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", outPath)
		return nil
	}

	fmt.Println(viz.ResponseChart(out, viz.DefaultChartOptions))
	if chart := viz.ControlChart(out, viz.DefaultChartOptions); chart != "" {
		fmt.Println()
		fmt.Println(chart)
	}
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

// output returns stdout or the --out file.
func output() (io.WriteCloser, error) {
	if outPath == "" {
		return nopCloser{os.Stdout}, nil
	}
	return os.Create(outPath)
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

func exportCSV(cmd *cobra.Command, args []string) error {
	out, err := loadRun(args[0])
	if err != nil {
		return err
	}
	w, err := output()
	if err != nil {
		return err
	}
	return writeTo(w, func(w io.Writer) error { return storage.WriteCSV(w, out) })
}

func exportJSON(cmd *cobra.Command, args []string) error {
	out, err := loadRun(args[0])
	if err != nil {
		return err
	}
	w, err := output()
	if err != nil {
		return err
	}
	return writeTo(w, func(w io.Writer) error { return storage.ExportJSON(w, out) })
}

// writeTo runs write against w and closes it. A close failure is reported
// when the write itself succeeded.
func writeTo(w io.WriteCloser, write func(io.Writer) error) (err error) {
	defer func() {
		if cerr := w.Close(); err == nil {
			err = cerr
		}
	}()
	return write(w)
}

func tuneGains(cmd *cobra.Command, args []string) error {
	system, err := scenario.ParseSystemType(args[0])
	if err != nil {
		return err
	}
	sc, err := scenario.Lookup(system)
	if err != nil {
		return err
	}

	var ranges [3][]float64
	for i, r := range []string{kpRange, kiRange, kdRange} {
		if ranges[i], err = optim.ParseRange(r); err != nil {
			return err
		}
	}

	gs := optim.NewGridSearch(ranges[0], ranges[1], ranges[2])
	if workers > 0 {
		gs.Workers = workers
	}
	fmt.Printf("evaluating %d gain sets on %s (minimizing %s)...\n", gs.Size(), system, metric)

	start := time.Now()
	best, _, err := gs.Search(cmd.Context(), sc, metric)
	if err != nil {
		return err
	}
	fmt.Printf("completed in %v\n", time.Since(start))
	fmt.Printf("best: %s  %s=%.6f\n", best.Gains, metric, best.Metrics[metric])
	printMetrics(os.Stdout, best.Metrics)
	return nil
}

func sweepGain(cmd *cobra.Command, args []string) error {
	system, err := scenario.ParseSystemType(args[0])
	if err != nil {
		return err
	}
	base, err := resolveGains(cmd, system)
	if err != nil {
		return err
	}

	results, err := automation.RunSweep(cmd.Context(), automation.Sweep{
		System: system,
		Param:  sweepParam,
		Base:   base,
		Min:    sweepMin,
		Max:    sweepMax,
		Steps:  sweepSteps,
	})
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(w, "%s\tfinal\t", sweepParam)
	for _, name := range metrics.Names {
		fmt.Fprintf(w, "%s\t", name)
	}
	fmt.Fprintln(w)
	for _, r := range results {
		fmt.Fprintf(w, "%.4g\t%.4f\t", r.Value, r.Final)
		for _, name := range metrics.Names {
			fmt.Fprintf(w, "%.4f\t", r.Metrics[name])
		}
		fmt.Fprintln(w)
	}
	return w.Flush()
}

func runBatch(cmd *cobra.Command, args []string) error {
	b, err := automation.LoadBatch(args[0])
	if err != nil {
		return err
	}
	st, err := openStore()
	if err != nil {
		return err
	}

	fmt.Printf("batch %s: %d runs\n", b.Name, len(b.Runs))
	results, err := automation.RunBatch(cmd.Context(), b, st)
	for _, r := range results {
		saved := ""
		if r.RunID != "" {
			saved = "  saved " + r.RunID
		}
		fmt.Printf("  %-24s %s  iae=%.4f%s\n", r.Name, r.Output.Gains, r.Output.Metrics[metrics.IAEName], saved)
	}
	return err
}

func runTUI(cmd *cobra.Command, args []string) error {
	system, err := systemArg(args)
	if err != nil {
		return err
	}
	gains, err := resolveGains(cmd, system)
	if err != nil {
		return err
	}
	st, err := openStore()
	if err != nil {
		return err
	}
	if len(args) == 0 {
		system = 0
	}
	return tui.Run(st, system, gains)
}

func printConfig(cmd *cobra.Command, args []string) error {
	enc := yaml.NewEncoder(os.Stdout)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return err
	}
	return enc.Close()
}

func initConfig(cmd *cobra.Command, args []string) error {
	if _, err := os.Stat(configFile); err == nil {
		return fmt.Errorf("%s already exists", configFile)
	}
	if err := config.Save(configFile, config.DefaultConfig()); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", configFile)
	return nil
}
