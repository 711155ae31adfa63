package dashboard

import "strings"

// Tab is a named view over a Table; its labels are stored as "<name>/<label>".
type Tab struct {
	table *Table
	name  string
}

func NewTab(table *Table, name string) *Tab {
	return &Tab{table: table, name: name}
}

func (t *Tab) Name() string        { return t.name }
func (t *Tab) Table() *Table       { return t.table }
func (t *Tab) key(l string) string { return t.name + "/" + l }

func (t *Tab) Publish(label string, value float64) { t.table.Publish(t.key(label), value) }
func (t *Tab) Set(label string, value float64)     { t.table.Set(t.key(label), value) }
func (t *Tab) Get(label string) (float64, bool)    { return t.table.Get(t.key(label)) }
func (t *Tab) Delete(label string) error           { return t.table.Delete(t.key(label)) }
func (t *Tab) Unsubscribe(h Handle)                { t.table.Unsubscribe(h) }

func (t *Tab) Subscribe(label string, fn Listener) Handle {
	return t.table.Subscribe(t.key(label), fn)
}

// Labels returns the tab's labels without the prefix.
func (t *Tab) Labels() []string {
	prefix := t.name + "/"
	var out []string
	for _, l := range t.table.Labels() {
		if strings.HasPrefix(l, prefix) {
			out = append(out, strings.TrimPrefix(l, prefix))
		}
	}
	return out
}
