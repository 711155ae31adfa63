package main

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/san-kum/gainctl/internal/config"
	"github.com/san-kum/gainctl/internal/control"
	"github.com/san-kum/gainctl/internal/gain"
	"github.com/san-kum/gainctl/internal/metrics"
	"github.com/san-kum/gainctl/internal/optim"
	"github.com/san-kum/gainctl/internal/plant"
)

func runSearch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if len(axisFlags) == 0 {
		return errors.New("at least one --axis is required")
	}
	if writeBack && outFile == "" && configFile == "" {
		return errors.New("--write needs --out or --config")
	}
	log, err := newLogger()
	if err != nil {
		return err
	}

	axes := make([]optim.Axis, 0, len(axisFlags))
	for _, s := range axisFlags {
		a, err := optim.ParseAxis(s)
		if err != nil {
			return err
		}
		axes = append(axes, a)
	}
	grid, err := optim.NewGridSearch(axes, workers)
	if err != nil {
		return err
	}

	fb, _ := plant.ParseFeedback(cfg.Sim.Feedback)
	motor := motorFor(cfg)
	runCfg := plant.Config{
		Period:   cfg.Period(),
		Duration: time.Duration(cfg.Sim.Duration * float64(time.Second)),
		Substeps: substeps,
		Feedback: fb,
		Setpoint: cfg.Sim.Setpoint,
	}
	run := func(ctx context.Context, g gain.Gains) (*plant.Trace, error) {
		p := gain.FromGains(g)
		eval, err := control.NewEvaluator(cfg.Period(), p)
		if err != nil {
			return nil, err
		}
		sim := plant.New(motor, eval)
		for _, m := range metrics.Standard(p.Range()) {
			sim.AddMetric(m)
		}
		return sim.Run(ctx, runCfg)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	base := cfg.Profiles[cfg.Sim.Slot].Gains
	log.Info("search started", "slot", cfg.Sim.Slot, "candidates", len(grid.Candidates(base)), "metric", metricName)
	start := time.Now()
	best, all, err := grid.Search(ctx, base, run, metricName)
	if err != nil {
		return err
	}

	sort.SliceStable(all, func(i, j int) bool { return all[i].Cost < all[j].Cost })
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "P\tI\tD\tFF\tCOST")
	for i, c := range all {
		if i == topN {
			break
		}
		cost := "-"
		if !math.IsInf(c.Cost, 1) {
			cost = fmt.Sprintf("%.5f", c.Cost)
		}
		fmt.Fprintf(w, "%.4g\t%.4g\t%.4g\t%.4g\t%s\n", c.Gains.P, c.Gains.I, c.Gains.D, c.Gains.FF, cost)
	}
	w.Flush()
	fmt.Printf("\nbest %s %.5f after %d runs in %v\n", metricName, best.Cost, len(all), time.Since(start).Round(time.Millisecond))

	if writeBack {
		path := outFile
		if path == "" {
			path = configFile
		}
		cfg.Profiles[cfg.Sim.Slot].Gains = best.Gains
		if err := config.Save(path, cfg); err != nil {
			return err
		}
		fmt.Printf("saved %s\n", path)
	}
	return nil
}
