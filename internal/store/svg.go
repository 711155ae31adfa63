package store

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/san-kum/gainctl/internal/plant"
)

var ErrShortTrace = errors.New("store: trace needs at least two samples to plot")

type panel struct {
	values []float64
	ref    float64
	hasRef bool
	stroke string
	label  string
}

// ExportSVG draws the measured signal (with the setpoint dashed) above the
// loop output, sharing the time axis.
func ExportSVG(w io.Writer, tr *plant.Trace, width, height int) error {
	if tr.Len() < 2 {
		return ErrShortTrace
	}
	panels := []panel{
		{values: tr.Measured(), ref: tr.Setpoint, hasRef: true, stroke: "#00ff00", label: tr.Feedback},
		{values: tr.Outputs, stroke: "#ffaa00", label: "output"},
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, width, height, width, height)

	ph := float64(height) / float64(len(panels))
	t0, t1 := tr.Times[0], tr.Times[len(tr.Times)-1]
	for i, p := range panels {
		writePanel(&sb, tr.Times, p, t0, t1, float64(width), ph, float64(i)*ph)
	}
	sb.WriteString("</svg>\n")

	_, err := io.WriteString(w, sb.String())
	return err
}

func writePanel(sb *strings.Builder, times []float64, p panel, t0, t1, width, height, top float64) {
	minY, maxY := p.values[0], p.values[0]
	for _, v := range p.values {
		minY = min(minY, v)
		maxY = max(maxY, v)
	}
	if p.hasRef {
		minY = min(minY, p.ref)
		maxY = max(maxY, p.ref)
	}

	rangeX := t1 - t0
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minY -= rangeY * 0.1
	rangeY *= 1.2

	y := func(v float64) float64 { return top + height - (v-minY)/rangeY*height }

	fmt.Fprintf(sb, `<text x="4" y="%.1f" fill="#888888" font-size="11" font-family="monospace">%s</text>
`, top+12, p.label)
	if p.hasRef {
		fmt.Fprintf(sb, `<line x1="0" y1="%.1f" x2="%.0f" y2="%.1f" stroke="#555555" stroke-dasharray="4 3"/>
`, y(p.ref), width, y(p.ref))
	}

	fmt.Fprintf(sb, `<path fill="none" stroke="%s" stroke-width="1.5" d="M`, p.stroke)
	for i, v := range p.values {
		x := (times[i] - t0) / rangeX * width
		if i == 0 {
			fmt.Fprintf(sb, "%.1f,%.1f", x, y(v))
		} else {
			fmt.Fprintf(sb, " L%.1f,%.1f", x, y(v))
		}
	}
	sb.WriteString("\"/>\n")
}
