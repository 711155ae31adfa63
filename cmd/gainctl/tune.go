package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/san-kum/gainctl/internal/config"
	"github.com/san-kum/gainctl/internal/dashboard"
	"github.com/san-kum/gainctl/internal/hardware"
)

func runTune(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if writeBack && outFile == "" && configFile == "" {
		return errors.New("--write needs --out or --config")
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

	var served <-chan error
	if listenAddr != "" {
		served = serveHTTP(ctx, listenAddr, r.handler(), log)
	}

	title := fmt.Sprintf("%s  slot %d", cfg.Name, cfg.Sim.Slot)
	editErr := dashboard.RunEditor(r.table, title, func() []string {
		g := r.tuner.Gains()
		lines := []string{fmt.Sprintf("p %.4g  i %.4g  d %.4g  ff %.4g  range %.3g", g.P(), g.I(), g.D(), g.FF(), g.Range())}
		if rec, ok := r.act.(*hardware.Recorder); ok {
			lines = append(lines, fmt.Sprintf("controller: in-memory, %d writes, active slot %d",
				rec.Count(hardware.CallConfigure), rec.ActiveSlot()))
		}
		return lines
	})
	stop()

	if writeBack && editErr == nil {
		path := outFile
		if path == "" {
			path = configFile
		}
		cfg.Capture(r.sync.Store().Profiles(), r.motion)
		if err := config.Save(path, cfg); err != nil {
			editErr = err
		} else {
			fmt.Printf("saved %s\n", path)
		}
	}

	closeErr := r.Close()
	if served != nil {
		if err := <-served; err != nil && editErr == nil {
			editErr = err
		}
	}
	if editErr != nil {
		return editErr
	}
	return closeErr
}
