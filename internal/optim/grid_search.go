// Package optim searches gain space offline by simulating every candidate
// and keeping the one with the lowest metric.
package optim

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"strconv"
	"strings"
	"sync"

	"github.com/san-kum/gainctl/internal/gain"
	"github.com/san-kum/gainctl/internal/plant"
)

// Axis is one searched gain ("p", "i", "d" or "ff") and its values.
type Axis struct {
	Param  string
	Values []float64
}

// ParseAxis accepts "p=0.5,1,2" or an inclusive range "p=0.5:2:0.5".
func ParseAxis(s string) (Axis, error) {
	name, spec, ok := strings.Cut(s, "=")
	if !ok {
		return Axis{}, fmt.Errorf("axis %q: want name=values", s)
	}
	a := Axis{Param: strings.TrimSpace(name)}
	if !validParam(a.Param) {
		return Axis{}, fmt.Errorf("%w: %q", ErrUnknownParam, a.Param)
	}

	if parts := strings.Split(spec, ":"); len(parts) == 3 {
		var lo, hi, step float64
		for i, dst := range []*float64{&lo, &hi, &step} {
			v, err := strconv.ParseFloat(strings.TrimSpace(parts[i]), 64)
			if err != nil {
				return Axis{}, fmt.Errorf("axis %q: %w", s, err)
			}
			*dst = v
		}
		if step <= 0 || hi < lo {
			return Axis{}, fmt.Errorf("axis %q: need lo <= hi and step > 0", s)
		}
		n := int(math.Floor((hi-lo)/step+1e-9)) + 1
		for i := 0; i < n; i++ {
			a.Values = append(a.Values, lo+float64(i)*step)
		}
		return a, nil
	}

	for _, f := range strings.Split(spec, ",") {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return Axis{}, fmt.Errorf("axis %q: %w", s, err)
		}
		a.Values = append(a.Values, v)
	}
	return a, nil
}

func validParam(p string) bool {
	switch p {
	case "p", "i", "d", "ff":
		return true
	}
	return false
}

func setParam(g *gain.Gains, p string, v float64) {
	switch p {
	case "p":
		g.P = v
	case "i":
		g.I = v
	case "d":
		g.D = v
	case "ff":
		g.FF = v
	}
}

// Runner simulates one candidate. It must be safe to call concurrently.
type Runner func(ctx context.Context, g gain.Gains) (*plant.Trace, error)

type Candidate struct {
	Gains   gain.Gains
	Cost    float64
	Metrics map[string]float64
	Err     error
}

type GridSearch struct {
	axes    []Axis
	workers int
}

// NewGridSearch validates the axes. workers < 1 uses GOMAXPROCS.
func NewGridSearch(axes []Axis, workers int) (*GridSearch, error) {
	for _, a := range axes {
		if !validParam(a.Param) {
			return nil, fmt.Errorf("%w: %q", ErrUnknownParam, a.Param)
		}
		if len(a.Values) == 0 {
			return nil, fmt.Errorf("%w: %s", ErrEmptyAxis, a.Param)
		}
	}
	if workers < 1 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &GridSearch{axes: axes, workers: workers}, nil
}

// Candidates expands the grid around base, first axis varying slowest.
func (g *GridSearch) Candidates(base gain.Gains) []gain.Gains {
	var out []gain.Gains
	g.expand(0, base, &out)
	return out
}

func (g *GridSearch) expand(depth int, current gain.Gains, out *[]gain.Gains) {
	if depth == len(g.axes) {
		*out = append(*out, current)
		return
	}
	a := g.axes[depth]
	for _, v := range a.Values {
		next := current
		setParam(&next, a.Param, v)
		g.expand(depth+1, next, out)
	}
}

// Search runs every candidate and returns the cheapest along with all
// results in grid order. A negative or NaN metric (e.g. a run that never
// settled) costs +Inf; ties go to the earlier candidate.
func (g *GridSearch) Search(ctx context.Context, base gain.Gains, run Runner, metric string) (Candidate, []Candidate, error) {
	grid := g.Candidates(base)
	results := make([]Candidate, len(grid))

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < g.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				results[idx] = evaluate(ctx, grid[idx], run, metric)
			}
		}()
	}
feed:
	for i := range grid {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return Candidate{}, results, err
	}

	best := -1
	for i, c := range results {
		if c.Err != nil || math.IsInf(c.Cost, 1) {
			continue
		}
		if best < 0 || c.Cost < results[best].Cost {
			best = i
		}
	}
	if best < 0 {
		for _, c := range results {
			if c.Err != nil {
				return Candidate{}, results, fmt.Errorf("%w: %v", ErrNoCandidate, c.Err)
			}
		}
		return Candidate{}, results, ErrNoCandidate
	}
	return results[best], results, nil
}

func evaluate(ctx context.Context, g gain.Gains, run Runner, metric string) Candidate {
	c := Candidate{Gains: g, Cost: math.Inf(1)}
	tr, err := run(ctx, g)
	if err != nil {
		c.Err = err
		return c
	}
	c.Metrics = tr.Metrics
	v, ok := tr.Metrics[metric]
	if !ok {
		c.Err = fmt.Errorf("%w: %s", ErrUnknownMetric, metric)
		return c
	}
	if v >= 0 && !math.IsNaN(v) {
		c.Cost = v
	}
	return c
}
