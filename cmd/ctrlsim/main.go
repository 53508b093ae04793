package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/san-kum/ctrlsim/internal/config"
	"github.com/san-kum/ctrlsim/internal/logger"
	"github.com/san-kum/ctrlsim/internal/scenario"
	"github.com/san-kum/ctrlsim/internal/storage"
)

var (
	configFile string
	dataDir    string
	logFile    string
	debug      bool

	kp       float64
	ki       float64
	kd       float64
	preset   string
	duration float64
	noSave   bool
	live     bool
	noChart  bool

	outPath string

	kpRange string
	kiRange string
	kdRange string
	metric  string
	workers int

	sweepParam string
	sweepMin   float64
	sweepMax   float64
	sweepSteps int

	limit int
	addr  string

	cfg *config.Config
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "ctrlsim",
		Short:         "PID closed-loop simulation lab",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			logger.Close()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd, nil)
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configFile, "config", "ctrlsim.yaml", "config file path (yaml)")
	pf.StringVar(&dataDir, "data", config.DefaultDataDir, "data directory")
	pf.StringVar(&logFile, "log-file", "", "log file (rotated)")
	pf.BoolVar(&debug, "debug", false, "enable debug logging")

	runCmd := &cobra.Command{
		Use:   "run [system]",
		Short: "simulate one closed-loop step response",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSimulation,
	}
	gainFlags(runCmd)
	runCmd.Flags().StringVar(&preset, "preset", "", "use a named gain preset")
	runCmd.Flags().Float64Var(&duration, "time", 0, "override the scenario duration")
	runCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")
	runCmd.Flags().BoolVar(&live, "live", false, "draw progress while running")
	runCmd.Flags().BoolVar(&noChart, "no-chart", false, "skip the response chart")

	systemsCmd := &cobra.Command{
		Use:   "systems",
		Short: "list system types",
		RunE:  listSystems,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets [system]",
		Short: "list gain presets for a system",
		Args:  cobra.ExactArgs(1),
		RunE:  listPresets,
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVarP(&outPath, "out", "o", "", "write an image instead (png, svg, pdf)")

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "print run metadata",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export run series to CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}
	exportCSVCmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (default stdout)")

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run series to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}
	exportJSONCmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (default stdout)")

	tuneCmd := &cobra.Command{
		Use:   "tune [system]",
		Short: "grid search gains minimizing a metric",
		Args:  cobra.ExactArgs(1),
		RunE:  tuneGains,
	}
	tuneCmd.Flags().StringVar(&kpRange, "kp", "0:10:11", "kp values (list or min:max:n)")
	tuneCmd.Flags().StringVar(&kiRange, "ki", "0:5:6", "ki values (list or min:max:n)")
	tuneCmd.Flags().StringVar(&kdRange, "kd", "0", "kd values (list or min:max:n)")
	tuneCmd.Flags().StringVar(&metric, "metric", "iae", "metric to minimize")
	tuneCmd.Flags().IntVar(&workers, "workers", 0, "parallel runs (default GOMAXPROCS)")

	sweepCmd := &cobra.Command{
		Use:   "sweep [system]",
		Short: "sweep one gain and tabulate the metrics",
		Args:  cobra.ExactArgs(1),
		RunE:  sweepGain,
	}
	gainFlags(sweepCmd)
	sweepCmd.Flags().StringVar(&sweepParam, "param", "kp", "gain to sweep (kp, ki, kd)")
	sweepCmd.Flags().Float64Var(&sweepMin, "min", 0, "first value")
	sweepCmd.Flags().Float64Var(&sweepMax, "max", 10, "last value")
	sweepCmd.Flags().IntVar(&sweepSteps, "steps", 11, "number of values")

	batchCmd := &cobra.Command{
		Use:   "batch [file.yaml]",
		Short: "execute a scripted batch of runs",
		Args:  cobra.ExactArgs(1),
		RunE:  runBatch,
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "serve simulations over HTTP",
		RunE:  serve,
	}
	serveCmd.Flags().StringVar(&addr, "addr", config.DefaultAddr, "listen address")

	sessionsCmd := &cobra.Command{
		Use:   "sessions",
		Short: "list logged sessions",
		RunE:  listSessions,
	}
	sessionsCmd.Flags().IntVar(&limit, "limit", 20, "maximum sessions to show")

	tuiCmd := &cobra.Command{
		Use:   "tui [system]",
		Short: "interactive gain tuner",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runTUI,
	}
	gainFlags(tuiCmd)

	configCmd := &cobra.Command{
		Use:   "config",
		Short: "print the effective configuration",
		RunE:  printConfig,
	}
	configInitCmd := &cobra.Command{
		Use:   "init",
		Short: "write the default configuration to --config",
		RunE:  initConfig,
	}
	configCmd.AddCommand(configInitCmd)

	rootCmd.AddCommand(runCmd, systemsCmd, presetsCmd, listCmd, plotCmd, exportCmd, exportCSVCmd, exportJSONCmd,
		tuneCmd, sweepCmd, batchCmd, serveCmd, sessionsCmd, tuiCmd, configCmd)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}

func gainFlags(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&kp, "kp", config.DefaultKp, "proportional gain")
	cmd.Flags().Float64Var(&ki, "ki", config.DefaultKi, "integral gain")
	cmd.Flags().Float64Var(&kd, "kd", config.DefaultKd, "derivative gain")
}

// setup loads the configuration, applies explicit flags over it and starts
// the shared logger.
func setup(cmd *cobra.Command) error {
	var err error
	cfg, err = config.LoadOrDefault(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed("data") {
		cfg.DataDir = dataDir
	}
	if flags.Changed("log-file") {
		cfg.Log.File = logFile
	}
	if flags.Changed("debug") {
		cfg.Log.Debug = debug
	}
	if flags.Changed("addr") {
		cfg.Server.Addr = addr
	}

	return logger.Init(logger.Options{
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
		Debug:      cfg.Log.Debug,
	})
}

func openStore() (*storage.Store, error) {
	st := storage.New(cfg.DataDir)
	if err := st.Init(); err != nil {
		return nil, err
	}
	return st, nil
}

// systemArg resolves the optional system argument, falling back to the
// configured default.
func systemArg(args []string) (scenario.SystemType, error) {
	name := cfg.System
	if len(args) > 0 {
		name = args[0]
	}
	return scenario.ParseSystemType(name)
}
