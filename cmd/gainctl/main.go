package main

import (
	"fmt"
	"os"

	"github.com/go-logr/logr"
	"github.com/spf13/cobra"

	"github.com/san-kum/gainctl/internal/config"
	"github.com/san-kum/gainctl/internal/logging"
)

var (
	dataDir    string
	configFile string
	preset     string
	verbosity  int
	devLog     bool

	periodMs  int
	timeoutMs int
	slot      int
	setpoint  float64
	duration  float64
	feedback  string
	substeps  int

	saveRun    bool
	jsonOut    bool
	metaOnly   bool
	svgOut     string
	useCAN     bool
	canIface   string
	deviceID   int
	listenAddr string
	writeBack  bool
	outFile    string

	maxError float64
	fwdLimit float64
	revLimit float64

	axisFlags  []string
	metricName string
	workers    int
	topN       int
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "gainctl",
		Short:        "multi-slot PID profile manager for motor controllers",
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".gainctl", "data directory")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")
	rootCmd.PersistentFlags().StringVar(&preset, "preset", "", "use preset configuration")
	rootCmd.PersistentFlags().IntVarP(&verbosity, "verbose", "v", 0, "log verbosity")
	rootCmd.PersistentFlags().BoolVar(&devLog, "dev-log", false, "human-readable logs")
	rootCmd.PersistentFlags().IntVar(&periodMs, "period", config.DefaultPeriodMs, "control period (ms)")
	rootCmd.PersistentFlags().IntVar(&timeoutMs, "timeout", config.DefaultTimeoutMs, "device configure timeout (ms)")
	rootCmd.PersistentFlags().IntVar(&slot, "slot", 0, "profile slot")

	simCmd := &cobra.Command{
		Use:   "sim",
		Short: "run a slot against the simulated motor",
		RunE:  runSim,
	}
	simCmd.Flags().Float64Var(&setpoint, "setpoint", 1.0, "setpoint")
	simCmd.Flags().Float64Var(&duration, "time", config.DefaultDuration, "duration (s)")
	simCmd.Flags().StringVar(&feedback, "feedback", "position", "feedback: position or velocity")
	simCmd.Flags().IntVar(&substeps, "substeps", 4, "plant integration steps per period")
	simCmd.Flags().BoolVar(&saveRun, "save", false, "save the run under --data")
	simCmd.Flags().BoolVar(&jsonOut, "json", false, "write the trace as JSON to stdout")

	moveCmd := &cobra.Command{
		Use:   "move [target]",
		Short: "drive the simulated mechanism to a position",
		Args:  cobra.ExactArgs(1),
		RunE:  runMove,
	}
	moveCmd.Flags().Float64Var(&maxError, "max-error", 0.02, "finish tolerance")
	moveCmd.Flags().Float64Var(&duration, "time", config.DefaultDuration, "timeout (s)")
	moveCmd.Flags().Float64Var(&fwdLimit, "forward-limit", -1, "forward soft limit (-1 disables)")
	moveCmd.Flags().Float64Var(&revLimit, "reverse-limit", -1, "reverse soft limit (-1 disables)")

	tuneCmd := &cobra.Command{
		Use:   "tune",
		Short: "edit a slot's gains live in the terminal",
		RunE:  runTune,
	}
	addHardwareFlags(tuneCmd)
	tuneCmd.Flags().StringVar(&listenAddr, "listen", "", "also serve the dashboard over HTTP")
	tuneCmd.Flags().BoolVar(&writeBack, "write", false, "save tuned gains on exit")
	tuneCmd.Flags().StringVar(&outFile, "out", "", "write-back path (default: --config)")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "run a live simulated loop with an HTTP dashboard and /metrics",
		RunE:  runServe,
	}
	addHardwareFlags(serveCmd)
	serveCmd.Flags().StringVar(&listenAddr, "listen", ":8080", "listen address")
	serveCmd.Flags().Float64Var(&setpoint, "setpoint", 1.0, "setpoint")
	serveCmd.Flags().StringVar(&feedback, "feedback", "position", "feedback: position or velocity")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println("presets:")
			for _, p := range config.ListPresets() {
				fmt.Printf("  %s\n", p)
			}
			return nil
		},
	}

	validateCmd := &cobra.Command{
		Use:   "validate",
		Short: "check a configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			fmt.Printf("%s: ok (%d slots, %s)\n", cfg.Name, len(cfg.Profiles), cfg.Motion.Family)
			return nil
		},
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list saved runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a saved run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export a saved run as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}
	exportCmd.Flags().BoolVar(&metaOnly, "meta", false, "export run metadata only")
	exportCmd.Flags().StringVar(&svgOut, "svg", "", "write an SVG plot to this path instead of JSON")

	searchCmd := &cobra.Command{
		Use:   "search",
		Short: "grid-search a slot's gains against the simulated motor",
		RunE:  runSearch,
	}
	searchCmd.Flags().StringArrayVar(&axisFlags, "axis", nil, "gain axis, e.g. p=0.5:2:0.25 or d=0,0.05,0.1 (repeatable)")
	searchCmd.Flags().StringVar(&metricName, "metric", "settling_time", "metric to minimize")
	searchCmd.Flags().IntVar(&workers, "workers", 0, "parallel runs (0: GOMAXPROCS)")
	searchCmd.Flags().IntVar(&topN, "top", 10, "results to print")
	searchCmd.Flags().Float64Var(&setpoint, "setpoint", 1.0, "setpoint")
	searchCmd.Flags().Float64Var(&duration, "time", config.DefaultDuration, "duration (s)")
	searchCmd.Flags().StringVar(&feedback, "feedback", "position", "feedback: position or velocity")
	searchCmd.Flags().IntVar(&substeps, "substeps", 4, "plant integration steps per period")
	searchCmd.Flags().BoolVar(&writeBack, "write", false, "save the best gains into the config")
	searchCmd.Flags().StringVar(&outFile, "out", "", "write-back path (default: --config)")

	rootCmd.AddCommand(simCmd, moveCmd, tuneCmd, serveCmd, searchCmd, presetsCmd, validateCmd, listCmd, plotCmd, exportCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addHardwareFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&useCAN, "can", false, "drive a real controller over SocketCAN (default: in-memory)")
	cmd.Flags().StringVar(&canIface, "iface", config.DefaultInterface, "CAN interface")
	cmd.Flags().IntVar(&deviceID, "device", 1, "CAN device id")
}

func newLogger() (logr.Logger, error) {
	return logging.New(verbosity, devLog)
}

// loadConfig resolves defaults, then a preset, then --config, then any
// flags set explicitly on the command line.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("period") {
		cfg.PeriodMs = periodMs
	}
	if flags.Changed("timeout") {
		cfg.TimeoutMs = timeoutMs
	}
	if flags.Changed("slot") {
		cfg.Sim.Slot = slot
	}
	if flags.Changed("setpoint") {
		cfg.Sim.Setpoint = setpoint
	}
	if flags.Changed("time") {
		cfg.Sim.Duration = duration
	}
	if flags.Changed("feedback") {
		cfg.Sim.Feedback = feedback
	}
	if flags.Changed("iface") {
		cfg.CAN.Interface = canIface
	}
	if flags.Changed("device") {
		cfg.CAN.DeviceID = deviceID
	}
	return cfg, nil
}
