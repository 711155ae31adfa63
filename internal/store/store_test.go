package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/san-kum/gainctl/internal/gain"
	"github.com/san-kum/gainctl/internal/plant"
)

func sampleTrace() *plant.Trace {
	return &plant.Trace{
		Slot:       1,
		Feedback:   "velocity",
		Setpoint:   5,
		Times:      []float64{0.02, 0.04},
		Positions:  []float64{0.01, 0.05},
		Velocities: []float64{1.5, 3.25},
		Outputs:    []float64{1, 0.75},
		Metrics:    map[string]float64{"overshoot": 0.1},
	}
}

func newStore(t *testing.T) (*Store, string) {
	t.Helper()
	dir := t.TempDir()
	st := New(dir)
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}
	return st, dir
}

func TestStoreSaveLoad(t *testing.T) {
	st, _ := newStore(t)
	g := gain.Gains{P: 0.05, I: 0.5, FF: 0.1, Range: 1}

	runID, err := st.Save("flywheel", 20*time.Millisecond, g, sampleTrace())
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if !strings.HasPrefix(runID, "flywheel_") {
		t.Errorf("unexpected run id %q", runID)
	}

	meta, err := st.Load(runID)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if meta.PeriodMs != 20 {
		t.Errorf("expected period 20ms, got %d", meta.PeriodMs)
	}
	if meta.Gains != g {
		t.Errorf("expected gains %+v, got %+v", g, meta.Gains)
	}
	if meta.Steps != 2 || meta.Duration != 0.04 {
		t.Errorf("expected 2 steps over 0.04s, got %d over %f", meta.Steps, meta.Duration)
	}
	if meta.Metrics["overshoot"] != 0.1 {
		t.Errorf("expected overshoot 0.1, got %f", meta.Metrics["overshoot"])
	}

	tr, err := st.LoadTrace(runID)
	if err != nil {
		t.Fatalf("load trace failed: %v", err)
	}
	if tr.Len() != 2 {
		t.Fatalf("expected 2 samples, got %d", tr.Len())
	}
	if tr.Velocities[1] != 3.25 || tr.Outputs[1] != 0.75 {
		t.Errorf("unexpected last sample: v=%f u=%f", tr.Velocities[1], tr.Outputs[1])
	}
	if tr.Feedback != "velocity" || tr.Slot != 1 {
		t.Errorf("unexpected trace header: %s slot %d", tr.Feedback, tr.Slot)
	}
}

func TestStoreList(t *testing.T) {
	st, dir := newStore(t)

	runs, err := st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected 0 runs, got %d", len(runs))
	}

	base := time.Unix(1000, 0)
	for i, name := range []string{"b", "a"} {
		ts := base.Add(time.Duration(i) * time.Second)
		st.now = func() time.Time { return ts }
		if _, err := st.Save(name, 20*time.Millisecond, gain.Gains{}, sampleTrace()); err != nil {
			t.Fatalf("save failed: %v", err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "junk"), 0755); err != nil {
		t.Fatal(err)
	}

	runs, err = st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].Name != "b" {
		t.Errorf("expected oldest run first, got %s", runs[0].Name)
	}
}

func TestStoreListMissingDir(t *testing.T) {
	st := New(filepath.Join(t.TempDir(), "nope"))
	runs, err := st.List()
	if err != nil || len(runs) != 0 {
		t.Errorf("expected empty list, got %v, %v", runs, err)
	}
}

func TestStoreFileStructure(t *testing.T) {
	st, dir := newStore(t)

	runID, err := st.Save("arm", 20*time.Millisecond, gain.Gains{}, sampleTrace())
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	for _, name := range []string{"metadata.json", "trace.csv"} {
		if _, err := os.Stat(filepath.Join(dir, runID, name)); os.IsNotExist(err) {
			t.Errorf("%s not created", name)
		}
	}
}

func TestReadCSVRejectsGarbage(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("time,position,velocity,output\n0.1,x,0,0\n"))
	if !errors.Is(err, ErrBadTrace) {
		t.Errorf("expected ErrBadTrace, got %v", err)
	}
	_, err = ReadCSV(strings.NewReader(""))
	if !errors.Is(err, ErrBadTrace) {
		t.Errorf("expected ErrBadTrace for empty input, got %v", err)
	}
}

func TestExportJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := ExportJSON(&buf, "flywheel", sampleTrace()); err != nil {
		t.Fatal(err)
	}

	var got map[string]any
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got["steps"] != 2.0 {
		t.Errorf("expected 2 steps, got %v", got["steps"])
	}
	if len(got["outputs"].([]any)) != 2 {
		t.Errorf("expected 2 outputs, got %v", got["outputs"])
	}
}

func TestExportSVG(t *testing.T) {
	var buf bytes.Buffer
	if err := ExportSVG(&buf, sampleTrace(), 400, 200); err != nil {
		t.Fatal(err)
	}
	out := buf.String()

	if !strings.HasPrefix(out, "<?xml") || !strings.HasSuffix(out, "</svg>\n") {
		t.Errorf("not an svg document: %q", out)
	}
	if n := strings.Count(out, "<path "); n != 2 {
		t.Errorf("expected 2 paths, got %d", n)
	}
	if !strings.Contains(out, "stroke-dasharray") {
		t.Error("expected a setpoint line")
	}
	if !strings.Contains(out, ">velocity<") {
		t.Error("expected the feedback label")
	}
}

func TestExportSVGShortTrace(t *testing.T) {
	tr := &plant.Trace{Times: []float64{0.02}, Positions: []float64{0}, Velocities: []float64{0}, Outputs: []float64{0}}
	if err := ExportSVG(&bytes.Buffer{}, tr, 400, 200); !errors.Is(err, ErrShortTrace) {
		t.Errorf("expected ErrShortTrace, got %v", err)
	}
}
