package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-logr/logr"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/multierr"

	"github.com/san-kum/gainctl/internal/config"
	"github.com/san-kum/gainctl/internal/dashboard"
	"github.com/san-kum/gainctl/internal/gain"
	"github.com/san-kum/gainctl/internal/hardware"
	"github.com/san-kum/gainctl/internal/metrics"
	"github.com/san-kum/gainctl/internal/tuning"
)

// rig is one motor controller with its profiles applied and the selected
// slot bound to dashboard entries.
type rig struct {
	cfg      *config.Config
	log      logr.Logger
	table    *dashboard.Table
	tab      *dashboard.Tab
	act      hardware.Actuator
	closeAct func() error
	sync     *hardware.ProfileSync
	motion   *gain.Motion
	tuner    *tuning.MotorTuner
	inst     *metrics.Instruments
	reg      *prometheus.Registry
}

func newRig(ctx context.Context, cfg *config.Config, log logr.Logger) (*rig, error) {
	motion, err := cfg.BuildMotion()
	if err != nil {
		return nil, err
	}

	r := &rig{
		cfg:      cfg,
		log:      log,
		table:    dashboard.NewTable(),
		motion:   motion,
		inst:     metrics.NewInstruments("gainctl"),
		reg:      prometheus.NewRegistry(),
		closeAct: func() error { return nil },
	}
	r.tab = dashboard.NewTab(r.table, cfg.Name)
	if err := r.inst.Register(r.reg); err != nil {
		return nil, err
	}

	if useCAN {
		a, err := hardware.DialCAN(ctx, cfg.CAN.Interface, uint8(cfg.CAN.DeviceID))
		if err != nil {
			return nil, err
		}
		r.act, r.closeAct = a, a.Close
		log.Info("connected", "iface", cfg.CAN.Interface, "device", cfg.CAN.DeviceID)
	} else {
		r.act = hardware.NewRecorder()
		log.Info("using in-memory controller")
	}

	r.sync, err = hardware.NewProfileSync(r.act, hardware.Options{
		Timeout:  cfg.Timeout(),
		Motion:   motion,
		Observer: r.inst,
		Logger:   log,
	}, cfg.BuildProfiles()...)
	if err != nil {
		return nil, r.abort(fmt.Errorf("apply profiles: %w", err))
	}
	if _, err := r.sync.Select(cfg.Sim.Slot); err != nil {
		return nil, r.abort(fmt.Errorf("select slot %d: %w", cfg.Sim.Slot, err))
	}

	gains, err := r.sync.Store().Profile(cfg.Sim.Slot)
	if err != nil {
		return nil, r.abort(err)
	}
	r.tuner, err = tuning.NewMotorTuner(r.tab, gains, motion, r.tuningOptions())
	if err != nil {
		return nil, r.abort(err)
	}
	extra, err := r.tuner.Bind(r.act, cfg.Sim.Slot)
	if err != nil {
		return nil, r.abort(err)
	}
	log.V(1).Info("tuner bound", "slot", cfg.Sim.Slot, "entries", len(r.tuner.Labels()), "extra", extra)
	return r, nil
}

func (r *rig) tuningOptions() tuning.Options {
	return tuning.Options{
		Logger: r.log,
		OnEdit: r.inst.Edited,
		OnError: func(label string, err error) {
			r.log.Error(err, "actuator update failed", "label", label)
			r.inst.ActuatorError(label, err)
		},
	}
}

// handler serves the dashboard under /values and Prometheus under /metrics.
func (r *rig) handler() http.Handler {
	values := dashboard.NewHandler(r.table, r.log)
	mux := http.NewServeMux()
	mux.Handle("/values", values)
	mux.Handle("/values/", values)
	mux.Handle("/metrics", promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{}))
	return mux
}

// abort undoes a partially built rig: entries bound so far are removed and
// the controller released. Cleanup failures are combined with err.
func (r *rig) abort(err error) error {
	if r.tuner != nil {
		err = multierr.Append(err, r.tuner.Unbind(true))
	}
	return multierr.Append(err, r.closeAct())
}

// Close unbinds every entry and releases the controller.
func (r *rig) Close() error {
	return multierr.Combine(r.tuner.Unbind(true), r.closeAct())
}

func serveHTTP(ctx context.Context, addr string, h http.Handler, log logr.Logger) <-chan error {
	done := make(chan error, 1)
	srv := &http.Server{Addr: addr, Handler: h}
	go func() {
		<-ctx.Done()
		_ = srv.Shutdown(context.Background())
	}()
	go func() {
		log.Info("dashboard listening", "addr", addr)
		err := srv.ListenAndServe()
		if err == http.ErrServerClosed {
			err = nil
		}
		done <- err
	}()
	return done
}
