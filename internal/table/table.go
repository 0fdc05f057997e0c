// Package table loads tabular sources into an immutable in-memory TableSet
// and produces the structural summaries that ground code generation.
package table

import (
	"fmt"
	"sort"
)

// Kind is the inferred primitive kind of a column.
type Kind int

const (
	KindText Kind = iota
	KindInteger
	KindReal
	KindBool
)

// String returns the lowercase kind name used in summaries and prompts.
func (k Kind) String() string {
	switch k {
	case KindInteger:
		return "integer"
	case KindReal:
		return "real"
	case KindBool:
		return "boolean"
	default:
		return "text"
	}
}

// Column describes a single named, typed column.
type Column struct {
	Name string
	Kind Kind
}

// Table is an ordered set of columns plus rows. Cell values are one of
// string, int64, float64, bool, or nil. A Table is never mutated after Load.
type Table struct {
	// Name is the normalized, binding-safe identifier.
	Name string
	// SourceName is the original name in the source (sheet/table/file name).
	SourceName string
	Columns    []Column
	Rows       [][]any
}

// NumRows returns the row count.
func (t *Table) NumRows() int { return len(t.Rows) }

// NumColumns returns the column count.
func (t *Table) NumColumns() int { return len(t.Columns) }

// ColumnIndex returns the position of the named column, or -1.
func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// ColumnNames returns the column names in order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// TableSet is the read-only collection of tables available to one request,
// keyed by normalized table name.
type TableSet struct {
	tables map[string]*Table
	order  []string
}

// NewTableSet builds a set from already-normalized tables. Duplicate names
// are rejected; the loader guarantees uniqueness via normalization.
func NewTableSet(tables []*Table) (*TableSet, error) {
	ts := &TableSet{tables: make(map[string]*Table, len(tables))}
	for _, t := range tables {
		if _, ok := ts.tables[t.Name]; ok {
			return nil, fmt.Errorf("duplicate table name %q", t.Name)
		}
		ts.tables[t.Name] = t
		ts.order = append(ts.order, t.Name)
	}
	return ts, nil
}

// Get returns the named table, or nil.
func (ts *TableSet) Get(name string) *Table { return ts.tables[name] }

// Names returns the table names in load order.
func (ts *TableSet) Names() []string {
	names := make([]string, len(ts.order))
	copy(names, ts.order)
	return names
}

// Len returns the number of tables in the set.
func (ts *TableSet) Len() int { return len(ts.order) }

// Tables returns the tables in load order.
func (ts *TableSet) Tables() []*Table {
	out := make([]*Table, 0, len(ts.order))
	for _, name := range ts.order {
		out = append(out, ts.tables[name])
	}
	return out
}

// SortedNames returns the table names in lexical order. Used where
// deterministic output matters more than load order (prompts, summaries).
func (ts *TableSet) SortedNames() []string {
	names := ts.Names()
	sort.Strings(names)
	return names
}
