package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"github.com/san-kum/gainctl/internal/control"
	"github.com/san-kum/gainctl/internal/plant"
	"github.com/san-kum/gainctl/internal/tuning"
)

// Labels of the loop entries published next to the motor entries.
const (
	labelSetpoint = "Setpoint"
	labelSlot     = "Slot"
	labelEnabled  = "Enabled"
)

func runServe(cmd *cobra.Command, args []string) error {
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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	r, err := newRig(ctx, cfg, log)
	if err != nil {
		return err
	}

	// The evaluator shares the rig's profiles, so dashboard edits reach the
	// device and the simulated loop together.
	eval, err := control.NewEvaluator(cfg.Period(), r.sync.Store().Profiles()...)
	if err != nil {
		return multierr.Append(err, r.Close())
	}
	eval.SetLogger(log)

	fb, _ := plant.ParseFeedback(cfg.Sim.Feedback)
	mech := plant.NewMechanism(motorFor(cfg), eval, cfg.Period(), 4)
	var mu sync.Mutex
	read := func() float64 { return mech.Read(fb) }
	for i := 0; i < eval.Store().Len(); i++ {
		if err := eval.SupplyFeedback(i, read); err != nil {
			return multierr.Append(err, r.Close())
		}
	}
	eval.Select(cfg.Sim.Slot)
	eval.SetSetpoint(cfg.Sim.Setpoint)
	eval.Enable()

	loop, err := tuning.NewBridge(r.tab, r.tuningOptions())
	if err != nil {
		return multierr.Append(err, r.Close())
	}
	bindErr := multierr.Combine(
		loop.BindField(labelSetpoint, cfg.Sim.Setpoint, func(v float64) { eval.SetSetpoint(v) }, nil),
		loop.BindField(labelSlot, float64(cfg.Sim.Slot),
			func(v float64) { eval.Select(int(v)) },
			func(v float64) error {
				_, err := r.sync.Select(int(v))
				return err
			}),
		loop.BindField(labelEnabled, 1, func(v float64) {
			if v != 0 {
				eval.Enable()
			} else {
				eval.Disable()
			}
		}, nil),
	)
	if bindErr != nil {
		return multierr.Append(bindErr, r.Close())
	}

	sample := func(f func() float64) func() float64 {
		return func() float64 {
			mu.Lock()
			defer mu.Unlock()
			return f()
		}
	}
	r.reg.MustRegister(
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{Namespace: "gainctl", Name: "position", Help: "Simulated mechanism position"}, sample(mech.Position)),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{Namespace: "gainctl", Name: "velocity", Help: "Simulated mechanism velocity"}, sample(mech.Velocity)),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{Namespace: "gainctl", Name: "output", Help: "Last evaluator output"}, sample(mech.Output)),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{Namespace: "gainctl", Name: "at_setpoint", Help: "1 when the selected slot is within tolerance"}, func() float64 {
			if eval.AtSetpoint() {
				return 1
			}
			return 0
		}),
	)

	served := serveHTTP(ctx, listenAddr, r.handler(), log)

	ticker := time.NewTicker(cfg.Period())
	defer ticker.Stop()
	var serveErr error
	for running := true; running; {
		select {
		case <-ctx.Done():
			running = false
		case serveErr = <-served:
			served = nil
			running = false
		case <-ticker.C:
			mu.Lock()
			mech.Step()
			mu.Unlock()
		}
	}

	eval.Disable()
	stop()
	if served != nil {
		serveErr = <-served
	}
	return multierr.Combine(serveErr, loop.Unbind(true), r.Close())
}
