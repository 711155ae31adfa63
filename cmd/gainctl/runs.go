package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/san-kum/gainctl/internal/store"
)

func listRuns(cmd *cobra.Command, args []string) error {
	st := store.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tTIME\tSLOT\tFEEDBACK\tSETPOINT\tKP\tKI\tKD\tKF")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%.3f\t%.4f\t%.4f\t%.4f\t%.4f\n",
			run.ID,
			run.Name,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Slot,
			run.Feedback,
			run.Setpoint,
			run.Gains.P,
			run.Gains.I,
			run.Gains.D,
			run.Gains.FF,
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := store.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	tr, err := st.LoadTrace(runID)
	if err != nil {
		return err
	}
	if tr.Len() == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("gains: p=%g i=%g d=%g ff=%g range=%g\n", meta.Gains.P, meta.Gains.I, meta.Gains.D, meta.Gains.FF, meta.Gains.Range)
	fmt.Printf("samples: %d\n\n", tr.Len())
	printTrace(tr)
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := store.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	if metaOnly {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(meta)
	}
	tr, err := st.LoadTrace(runID)
	if err != nil {
		return err
	}
	if svgOut != "" {
		f, err := os.Create(svgOut)
		if err != nil {
			return err
		}
		if err := store.ExportSVG(f, tr, 800, 400); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", svgOut)
		return nil
	}
	return store.ExportJSON(os.Stdout, meta.Name, tr)
}
