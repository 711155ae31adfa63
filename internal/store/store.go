// Package store persists simulation runs: one directory per run holding
// metadata.json and trace.csv.
package store

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/san-kum/gainctl/internal/gain"
	"github.com/san-kum/gainctl/internal/plant"
)

var traceHeader = []string{"time", "position", "velocity", "output"}

var ErrBadTrace = errors.New("store: malformed trace")

type Store struct {
	baseDir string
	now     func() time.Time
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir, now: time.Now}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID        string             `json:"id"`
	Name      string             `json:"name"`
	Timestamp time.Time          `json:"timestamp"`
	PeriodMs  int                `json:"period_ms"`
	Duration  float64            `json:"duration"`
	Slot      int                `json:"slot"`
	Feedback  string             `json:"feedback"`
	Setpoint  float64            `json:"setpoint"`
	Gains     gain.Gains         `json:"gains"`
	Steps     int                `json:"steps"`
	Metrics   map[string]float64 `json:"metrics"`
}

// Save writes tr under a new run directory and returns its ID. name,
// period and gains describe the run; the rest comes from the trace.
func (s *Store) Save(name string, period time.Duration, g gain.Gains, tr *plant.Trace) (string, error) {
	now := s.now()
	runID := fmt.Sprintf("%s_%d", name, now.UnixNano())
	runDir := filepath.Join(s.baseDir, runID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	duration := 0.0
	if n := tr.Len(); n > 0 {
		duration = tr.Times[n-1]
	}
	meta := RunMetadata{
		ID:        runID,
		Name:      name,
		Timestamp: now,
		PeriodMs:  int(period / time.Millisecond),
		Duration:  duration,
		Slot:      tr.Slot,
		Feedback:  tr.Feedback,
		Setpoint:  tr.Setpoint,
		Gains:     g,
		Steps:     tr.Len(),
		Metrics:   tr.Metrics,
	}
	if err := writeJSON(filepath.Join(runDir, "metadata.json"), meta); err != nil {
		return "", err
	}

	f, err := os.Create(filepath.Join(runDir, "trace.csv"))
	if err != nil {
		return "", err
	}
	defer f.Close()
	if err := WriteCSV(f, tr); err != nil {
		return "", err
	}
	return runID, nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteCSV writes one row per sample under traceHeader.
func WriteCSV(w io.Writer, tr *plant.Trace) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(traceHeader); err != nil {
		return err
	}
	for i := range tr.Times {
		row := []string{
			strconv.FormatFloat(tr.Times[i], 'f', 6, 64),
			strconv.FormatFloat(tr.Positions[i], 'f', 6, 64),
			strconv.FormatFloat(tr.Velocities[i], 'f', 6, 64),
			strconv.FormatFloat(tr.Outputs[i], 'f', 6, 64),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// List returns every readable run, oldest first. Directories without
// valid metadata are skipped.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}
	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "metadata.json"))
	if err != nil {
		return nil, err
	}
	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// LoadTrace rebuilds the trace of runID, metrics included.
func (s *Store) LoadTrace(runID string) (*plant.Trace, error) {
	meta, err := s.Load(runID)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(filepath.Join(s.baseDir, runID, "trace.csv"))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	tr, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", runID, err)
	}
	tr.Slot = meta.Slot
	tr.Feedback = meta.Feedback
	tr.Setpoint = meta.Setpoint
	tr.Metrics = meta.Metrics
	return tr, nil
}

func ReadCSV(r io.Reader) (*plant.Trace, error) {
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: missing header", ErrBadTrace)
	}

	tr := &plant.Trace{Metrics: map[string]float64{}}
	for i, record := range records[1:] {
		if len(record) != len(traceHeader) {
			return nil, fmt.Errorf("%w: row %d has %d fields", ErrBadTrace, i+1, len(record))
		}
		var vals [4]float64
		for j, field := range record {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: row %d: %v", ErrBadTrace, i+1, err)
			}
			vals[j] = v
		}
		tr.Times = append(tr.Times, vals[0])
		tr.Positions = append(tr.Positions, vals[1])
		tr.Velocities = append(tr.Velocities, vals[2])
		tr.Outputs = append(tr.Outputs, vals[3])
	}
	return tr, nil
}

// ExportJSON writes the full trace, samples included, to w.
func ExportJSON(w io.Writer, name string, tr *plant.Trace) error {
	data := struct {
		Name       string             `json:"name"`
		Slot       int                `json:"slot"`
		Feedback   string             `json:"feedback"`
		Setpoint   float64            `json:"setpoint"`
		Steps      int                `json:"steps"`
		Times      []float64          `json:"times"`
		Positions  []float64          `json:"positions"`
		Velocities []float64          `json:"velocities"`
		Outputs    []float64          `json:"outputs"`
		Metrics    map[string]float64 `json:"metrics"`
	}{
		Name:       name,
		Slot:       tr.Slot,
		Feedback:   tr.Feedback,
		Setpoint:   tr.Setpoint,
		Steps:      tr.Len(),
		Times:      tr.Times,
		Positions:  tr.Positions,
		Velocities: tr.Velocities,
		Outputs:    tr.Outputs,
		Metrics:    tr.Metrics,
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}
