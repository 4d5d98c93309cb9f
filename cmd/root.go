package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/hioa-sim/hioa-sim/sim"
	"github.com/hioa-sim/hioa-sim/sim/engine"
	"github.com/hioa-sim/hioa-sim/sim/metrics"
	"github.com/hioa-sim/hioa-sim/sim/scenario"
	"github.com/hioa-sim/hioa-sim/sim/trace"
)

// runOptions holds the run command flags.
type runOptions struct {
	scenarioPath string  // scenario YAML file
	configPath   string  // equipment configuration YAML, defaults when empty
	logLevel     string  // log verbosity level
	assembly     string  // overrides the scenario assembly when set
	acceleration float64 // overrides the scenario acceleration when positive
	traceLevel   string  // none, states or full
	interval     time.Duration
	plot         bool   // print an ASCII chart of every sampled variable
	metricsAddr  string // serve Prometheus metrics while running
}

var runOpts runOptions

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "hioa-sim",
	Short: "Discrete-event simulator for hybrid household equipment",
}

// runCmd executes one scenario
var runCmd = &cobra.Command{
	Use:          "run",
	Short:        "Run a scenario",
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		level, err := logrus.ParseLevel(runOpts.logLevel)
		if err != nil {
			return fmt.Errorf("invalid log level %q: %w", runOpts.logLevel, err)
		}
		logrus.SetLevel(level)
		return runScenario(runOpts, cmd.OutOrStdout())
	},
}

func runScenario(opts runOptions, w io.Writer) error {
	if opts.scenarioPath == "" {
		return fmt.Errorf("%w: --scenario is required", sim.ErrInvalidConfig)
	}
	if !trace.IsValidLevel(opts.traceLevel) {
		return fmt.Errorf("%w: unknown trace level %q", sim.ErrInvalidConfig, opts.traceLevel)
	}
	sc, err := scenario.Load(opts.scenarioPath)
	if err != nil {
		return err
	}
	if opts.assembly != "" {
		sc.Assembly = scenario.Assembly(opts.assembly)
	}
	if opts.acceleration > 0 {
		sc.Acceleration = opts.acceleration
	}
	if err := sc.Validate(); err != nil {
		return err
	}
	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		return err
	}
	eq, err := lookupEquipment(sc.Equipment)
	if err != nil {
		return err
	}
	events, err := sc.Decode(eq.decode)
	if err != nil {
		return err
	}

	var root sim.Model
	if sc.Assembly == scenario.UnitTest {
		root, err = eq.unitTest(cfg, events)
	} else {
		root, err = eq.integration(cfg)
	}
	if err != nil {
		return err
	}

	level := trace.Level(opts.traceLevel)
	if opts.plot {
		level = trace.LevelFull
	}
	rec := trace.NewRecorder(root, trace.Config{Level: level, Interval: opts.interval})
	engineOpts := []engine.Option{engine.WithObserver(rec)}
	if opts.metricsAddr != "" {
		stop, err := serveMetrics(opts.metricsAddr, root, &engineOpts)
		if err != nil {
			return err
		}
		defer stop()
	}

	eng, err := engine.New(root, engine.Config{Start: sc.Start, End: sc.End, AccelerationFactor: sc.Acceleration}, engineOpts...)
	if err != nil {
		return err
	}
	if sc.Assembly == scenario.Integration {
		for _, e := range events {
			if err := eng.Inject(e); err != nil {
				return err
			}
		}
	}

	startTime := time.Now()
	res, runErr := eng.Run()
	logrus.Infof("Simulation of %s finished in %s", root.ID(), time.Since(startTime))

	fmt.Fprintf(w, "Run %s: %s (%s), %d steps, ended at %s\n", res.RunID, sc.Equipment, sc.Assembly, res.Steps, res.End)
	res.Report.Print(w)
	if level != trace.LevelNone {
		// a completed run covers the whole window even when nothing happens late
		end := sc.End
		if runErr != nil {
			end = res.End
		}
		printSummary(w, trace.Summarize(rec, end))
	}
	if opts.plot {
		plotSeries(w, rec)
	}
	return runErr
}

// serveMetrics registers a collector for root and serves it over HTTP.
func serveMetrics(addr string, root sim.Model, engineOpts *[]engine.Option) (func(), error) {
	reg := prometheus.NewRegistry()
	collector, err := metrics.NewCollector(reg, root)
	if err != nil {
		return nil, err
	}
	*engineOpts = append(*engineOpts, engine.WithObserver(collector))
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Errorf("metrics server on %s: %v", addr, err)
		}
	}()
	logrus.Infof("Serving metrics on %s/metrics", addr)
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}, nil
}

func printSummary(w io.Writer, s *trace.Summary) {
	fmt.Fprintf(w, "=== Trajectory: %d transitions, %d samples ===\n", s.Transitions, s.Samples)
	models := make([]string, 0, len(s.TimeInState))
	for m := range s.TimeInState {
		models = append(models, m)
	}
	sort.Strings(models)
	for _, m := range models {
		states := make([]string, 0, len(s.TimeInState[m]))
		for st := range s.TimeInState[m] {
			states = append(states, st)
		}
		sort.Strings(states)
		for _, st := range states {
			fmt.Fprintf(w, "%-24s %-16s %s\n", m, st, s.TimeInState[m][st])
		}
	}
	names := make([]string, 0, len(s.Ranges))
	for n := range s.Ranges {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		fmt.Fprintf(w, "%-24s min %.2f max %.2f\n", n, s.Ranges[n].Min, s.Ranges[n].Max)
	}
}

func plotSeries(w io.Writer, rec *trace.Recorder) {
	for _, name := range rec.VariableNames() {
		series := rec.Series(name)
		if len(series) < 2 {
			continue
		}
		fmt.Fprintln(w, asciigraph.Plot(series, asciigraph.Height(10), asciigraph.Width(80), asciigraph.Caption(name)))
		fmt.Fprintln(w)
	}
}

// addRunFlags registers the run flags on fs.
func addRunFlags(fs *pflag.FlagSet, o *runOptions) {
	fs.StringVar(&o.scenarioPath, "scenario", "", "Scenario YAML file")
	fs.StringVar(&o.configPath, "config", "", "Equipment configuration YAML (see default-config)")
	fs.StringVar(&o.logLevel, "log", "warn", "Log level (trace, debug, info, warn, error, fatal, panic)")
	fs.StringVar(&o.assembly, "assembly", "", "Override the scenario assembly (unit-test, integration)")
	fs.Float64Var(&o.acceleration, "acceleration", 0, "Simulated seconds per wall second; 0 keeps the scenario value")
	fs.StringVar(&o.traceLevel, "trace", string(trace.LevelStates), "Trajectory recording (none, states, full)")
	fs.DurationVar(&o.interval, "sample-interval", 0, "Minimum simulated time between variable samples")
	fs.BoolVar(&o.plot, "plot", false, "Plot every sampled variable")
	fs.StringVar(&o.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address while running")
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		logrus.Error(err)
		os.Exit(1)
	}
}

// init sets up CLI flags and subcommands
func init() {
	addRunFlags(runCmd.Flags(), &runOpts)
	rootCmd.AddCommand(runCmd, vocabularyCmd, defaultConfigCmd)
}
