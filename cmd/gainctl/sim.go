package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/gainctl/internal/config"
	"github.com/san-kum/gainctl/internal/control"
	"github.com/san-kum/gainctl/internal/metrics"
	"github.com/san-kum/gainctl/internal/plant"
	"github.com/san-kum/gainctl/internal/store"
	"github.com/san-kum/gainctl/internal/task"
)

func motorFor(cfg *config.Config) plant.Motor {
	return plant.Motor{Gain: cfg.Plant.Gain, TimeConstant: cfg.Plant.TimeConstant, Load: cfg.Plant.Load}
}

func runSim(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	log, err := newLogger()
	if err != nil {
		return err
	}

	profiles := cfg.BuildProfiles()
	eval, err := control.NewEvaluator(cfg.Period(), profiles...)
	if err != nil {
		return err
	}
	eval.SetLogger(log)

	fb, _ := plant.ParseFeedback(cfg.Sim.Feedback)
	sim := plant.New(motorFor(cfg), eval)
	sim.SetLogger(log)
	for _, m := range metrics.Standard(profiles[cfg.Sim.Slot].Range()) {
		sim.AddMetric(m)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	tr, err := sim.Run(ctx, plant.Config{
		Period:   cfg.Period(),
		Duration: time.Duration(cfg.Sim.Duration * float64(time.Second)),
		Substeps: substeps,
		Slot:     cfg.Sim.Slot,
		Feedback: fb,
		Setpoint: cfg.Sim.Setpoint,
	})
	if err != nil {
		return err
	}

	if jsonOut {
		return store.ExportJSON(os.Stdout, cfg.Name, tr)
	}

	fmt.Printf("%s slot %d (%s) -> %.3f in %v\n", cfg.Name, tr.Slot, tr.Feedback, tr.Setpoint, time.Since(start))
	printTrace(tr)

	if saveRun {
		st := store.New(dataDir)
		if err := st.Init(); err != nil {
			return err
		}
		runID, err := st.Save(cfg.Name, cfg.Period(), profiles[cfg.Sim.Slot].Gains(), tr)
		if err != nil {
			return err
		}
		fmt.Printf("run id: %s\n", runID)
	}
	return nil
}

func printTrace(tr *plant.Trace) {
	if tr.Len() == 0 {
		fmt.Println("no samples")
		return
	}
	fmt.Println(asciigraph.Plot(tr.Measured(),
		asciigraph.Height(10),
		asciigraph.Width(80),
		asciigraph.Caption(tr.Feedback),
	))
	fmt.Println()
	fmt.Println(asciigraph.Plot(tr.Outputs,
		asciigraph.Height(6),
		asciigraph.Width(80),
		asciigraph.Caption("output"),
	))
	fmt.Println("\nmetrics:")
	names := make([]string, 0, len(tr.Metrics))
	for name := range tr.Metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("  %s: %.6f\n", name, tr.Metrics[name])
	}
}

func runMove(cmd *cobra.Command, args []string) error {
	var target float64
	if _, err := fmt.Sscanf(args[0], "%g", &target); err != nil {
		return fmt.Errorf("bad target %q: %w", args[0], err)
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	log, err := newLogger()
	if err != nil {
		return err
	}

	eval, err := control.NewEvaluator(cfg.Period(), cfg.BuildProfiles()...)
	if err != nil {
		return err
	}
	eval.SetLogger(log)
	mech := plant.NewMechanism(motorFor(cfg), eval, cfg.Period(), 4)
	eval.Select(cfg.Sim.Slot)
	if err := eval.SupplyFeedback(cfg.Sim.Slot, mech.Position); err != nil {
		return err
	}
	eval.Enable()
	defer eval.Disable()

	clock := &simClock{mech: mech}
	t := task.NewSetPosition(mech, target, maxError, time.Duration(cfg.Sim.Duration*float64(time.Second))).
		WithLimits(fwdLimit, revLimit).
		WithClock(clock)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// The mechanism runs in simulated time, so poll without waiting.
	reason, err := t.Run(ctx, time.Nanosecond, func() { mech.Step() }, log)
	if err != nil {
		return err
	}
	fmt.Printf("%s after %.2fs at %.4f (target %.4f)\n", reason, mech.Time(), mech.Position(), target)
	return nil
}

// simClock reports the mechanism's simulated time.
type simClock struct {
	mech *plant.Mechanism
}

func (c *simClock) Now() time.Time {
	return time.Unix(0, 0).Add(time.Duration(c.mech.Time() * float64(time.Second)))
}
