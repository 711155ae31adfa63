package dashboard

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	cyan    = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	white   = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	dim     = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	dimmer  = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
	red     = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	magenta = lipgloss.NewStyle().Foreground(lipgloss.Color("213"))
)

const refreshInterval = 250 * time.Millisecond

// Editor is a terminal front end over a Table. Every committed change goes
// through Table.Set, so bound listeners see it exactly as a remote edit.
type Editor struct {
	table  *Table
	title  string
	status func() []string

	labels  []string
	cursor  int
	editing bool
	editBuf string
	step    float64
	errMsg  string
}

// NewEditor builds an editor model. status, when non-nil, is polled on every
// refresh and its lines are shown under the title.
func NewEditor(table *Table, title string, status func() []string) *Editor {
	return &Editor{
		table:  table,
		title:  title,
		status: status,
		labels: table.Labels(),
		step:   0.1,
	}
}

type refreshMsg time.Time

func refresh() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg { return refreshMsg(t) })
}

func (e *Editor) Init() tea.Cmd { return refresh() }

func (e *Editor) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return e.handleKey(msg)
	case refreshMsg:
		e.labels = e.table.Labels()
		if e.cursor >= len(e.labels) {
			e.cursor = max(len(e.labels)-1, 0)
		}
		return e, refresh()
	}
	return e, nil
}

func (e *Editor) selected() (string, bool) {
	if e.cursor < 0 || e.cursor >= len(e.labels) {
		return "", false
	}
	return e.labels[e.cursor], true
}

func (e *Editor) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if e.editing {
		switch msg.String() {
		case "enter":
			e.commit()
		case "esc":
			e.editing = false
			e.editBuf = ""
		case "backspace":
			if len(e.editBuf) > 0 {
				e.editBuf = e.editBuf[:len(e.editBuf)-1]
			}
		default:
			if len(msg.String()) == 1 {
				c := msg.String()[0]
				if (c >= '0' && c <= '9') || c == '.' || c == '-' || c == 'e' {
					e.editBuf += string(c)
				}
			}
		}
		return e, nil
	}

	switch msg.String() {
	case "q", "ctrl+c":
		return e, tea.Quit
	case "up", "k":
		if e.cursor > 0 {
			e.cursor--
		}
	case "down", "j":
		if e.cursor < len(e.labels)-1 {
			e.cursor++
		}
	case "enter", " ":
		if label, ok := e.selected(); ok {
			v, _ := e.table.Get(label)
			e.editing = true
			e.editBuf = strconv.FormatFloat(v, 'g', -1, 64)
			e.errMsg = ""
		}
	case "left", "h":
		e.nudge(-e.step)
	case "right", "l":
		e.nudge(e.step)
	case "[":
		e.step /= 10
	case "]":
		e.step *= 10
	}
	return e, nil
}

func (e *Editor) nudge(delta float64) {
	label, ok := e.selected()
	if !ok {
		return
	}
	v, _ := e.table.Get(label)
	e.table.Set(label, v+delta)
}

func (e *Editor) commit() {
	defer func() {
		e.editing = false
		e.editBuf = ""
	}()
	label, ok := e.selected()
	if !ok {
		return
	}
	v, err := strconv.ParseFloat(e.editBuf, 64)
	if err != nil {
		e.errMsg = fmt.Sprintf("bad value %q", e.editBuf)
		return
	}
	e.errMsg = ""
	e.table.Set(label, v)
}

func (e *Editor) View() string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString("      " + cyan.Render(e.title) + "  " + dim.Render(fmt.Sprintf("step %g", e.step)) + "\n")
	if e.status != nil {
		for _, line := range e.status() {
			b.WriteString("      " + dim.Render(line) + "\n")
		}
	}
	b.WriteString(dimmer.Render("      "+strings.Repeat("─", 40)) + "\n\n")

	if len(e.labels) == 0 {
		b.WriteString("        " + dimmer.Render("no entries") + "\n")
	}
	for i, label := range e.labels {
		v, _ := e.table.Get(label)
		val := fmt.Sprintf("%10.4f", v)
		if e.editing && i == e.cursor {
			val = fmt.Sprintf("%10s", e.editBuf+"▋")
		}
		if i == e.cursor {
			b.WriteString("      " + cyan.Render("▸ ") + white.Render(fmt.Sprintf("%-28s", label)) + magenta.Render(val) + "\n")
		} else {
			b.WriteString("        " + dim.Render(fmt.Sprintf("%-28s", label)) + dim.Render(val) + "\n")
		}
	}

	if e.errMsg != "" {
		b.WriteString("\n      " + red.Render(e.errMsg) + "\n")
	}
	b.WriteString("\n")
	b.WriteString(dim.Render("      ↑↓ select  ←→ adjust  [] step  enter edit  q quit") + "\n")

	return b.String()
}

// RunEditor blocks until the operator quits.
func RunEditor(table *Table, title string, status func() []string) error {
	p := tea.NewProgram(NewEditor(table, title, status), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
