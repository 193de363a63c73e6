package graph

import (
	"slices"
	"sync"
)

// Table collects rows of marked objects from a traversal. Columns are fixed
// by NewTable or, when none are given, taken from the marks of the first row.
type Table struct {
	mu      sync.Mutex
	columns []string
	rows    [][]any
}

func NewTable(columns ...string) *Table {
	return &Table{columns: slices.Clone(columns)}
}

func (t *Table) Columns() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return slices.Clone(t.columns)
}

// AddRow appends one row. A column takes the object of the last mark with
// its name; columns without a mark hold nil.
func (t *Table) AddRow(marks []Mark) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.columns) == 0 && len(t.rows) == 0 {
		for _, m := range marks {
			if !slices.Contains(t.columns, m.Name) {
				t.columns = append(t.columns, m.Name)
			}
		}
	}
	row := make([]any, len(t.columns))
	for i, col := range t.columns {
		for _, m := range marks {
			if m.Name == col {
				row[i] = m.Object
			}
		}
	}
	t.rows = append(t.rows, row)
}

// Rows returns a copy of the rows, each aligned with Columns.
func (t *Table) Rows() [][]any {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([][]any, len(t.rows))
	for i, r := range t.rows {
		out[i] = slices.Clone(r)
	}
	return out
}

func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.rows)
}
