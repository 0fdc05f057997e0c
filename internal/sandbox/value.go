package sandbox

import (
	"fmt"
	"strings"

	"go.starlark.net/starlark"

	"github.com/tabq-labs/tabq/internal/table"
)

// TableValue exposes one loaded table to generated code as a read-only
// Starlark value. Rows are addressable by index and iterable as
// column-keyed dicts; the analysis helpers (col, find, cell, head) cover
// the label-in-first-column access pattern the prompt instructs the model
// to use.
type TableValue struct {
	name    string
	columns []string
	cells   [][]starlark.Value
}

var (
	_ starlark.Value     = (*TableValue)(nil)
	_ starlark.Sequence  = (*TableValue)(nil)
	_ starlark.Indexable = (*TableValue)(nil)
	_ starlark.HasAttrs  = (*TableValue)(nil)
)

// NewTableValue converts a loaded table into its Starlark binding.
func NewTableValue(t *table.Table) *TableValue {
	cells := make([][]starlark.Value, len(t.Rows))
	for ri, row := range t.Rows {
		cr := make([]starlark.Value, len(row))
		for ci, cell := range row {
			cr[ci] = cellValue(cell)
		}
		cells[ri] = cr
	}
	return &TableValue{name: t.Name, columns: t.ColumnNames(), cells: cells}
}

func (t *TableValue) String() string {
	return fmt.Sprintf("<table %s %dx%d>", t.name, len(t.cells), len(t.columns))
}

func (t *TableValue) Type() string          { return "table" }
func (t *TableValue) Freeze()               {} // always immutable
func (t *TableValue) Truth() starlark.Bool  { return len(t.cells) > 0 }
func (t *TableValue) Hash() (uint32, error) { return 0, fmt.Errorf("unhashable type: table") }
func (t *TableValue) Len() int              { return len(t.cells) }

// Name returns the normalized table name.
func (t *TableValue) Name() string { return t.name }

// Columns returns the column names in order.
func (t *TableValue) Columns() []string { return t.columns }

// Index returns row i as a fresh column-keyed dict.
func (t *TableValue) Index(i int) starlark.Value { return t.rowDict(i) }

func (t *TableValue) Iterate() starlark.Iterator { return &tableIterator{t: t} }

type tableIterator struct {
	t *TableValue
	i int
}

func (it *tableIterator) Next(p *starlark.Value) bool {
	if it.i >= len(it.t.cells) {
		return false
	}
	*p = it.t.rowDict(it.i)
	it.i++
	return true
}

func (it *tableIterator) Done() {}

func (t *TableValue) rowDict(i int) *starlark.Dict {
	d := starlark.NewDict(len(t.columns))
	for ci, cn := range t.columns {
		_ = d.SetKey(starlark.String(cn), t.cells[i][ci])
	}
	return d
}

// Row returns the raw cells of row i. Used by the result normalizer.
func (t *TableValue) Row(i int) []starlark.Value { return t.cells[i] }

func (t *TableValue) AttrNames() []string {
	return []string{"cell", "col", "columns", "find", "head", "name", "row", "shape"}
}

func (t *TableValue) Attr(name string) (starlark.Value, error) {
	switch name {
	case "name":
		return starlark.String(t.name), nil
	case "columns":
		cols := make([]starlark.Value, len(t.columns))
		for i, c := range t.columns {
			cols[i] = starlark.String(c)
		}
		return starlark.NewList(cols), nil
	case "shape":
		return starlark.Tuple{
			starlark.MakeInt(len(t.cells)),
			starlark.MakeInt(len(t.columns)),
		}, nil
	case "col":
		return starlark.NewBuiltin("col", tableCol).BindReceiver(t), nil
	case "find":
		return starlark.NewBuiltin("find", tableFind).BindReceiver(t), nil
	case "cell":
		return starlark.NewBuiltin("cell", tableCell).BindReceiver(t), nil
	case "head":
		return starlark.NewBuiltin("head", tableHead).BindReceiver(t), nil
	case "row":
		return starlark.NewBuiltin("row", tableRow).BindReceiver(t), nil
	}
	return nil, nil // no such attr; starlark reports the error
}

func (t *TableValue) columnIndex(name string) (int, error) {
	for i, c := range t.columns {
		if c == name {
			return i, nil
		}
	}
	return 0, fmt.Errorf("table %s has no column %q (columns: %s)",
		t.name, name, strings.Join(t.columns, ", "))
}

// col(name) returns one column as a column value.
func tableCol(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	t := b.Receiver().(*TableValue)
	var name string
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "name", &name); err != nil {
		return nil, err
	}
	ci, err := t.columnIndex(name)
	if err != nil {
		return nil, err
	}
	values := make([]starlark.Value, len(t.cells))
	for ri := range t.cells {
		values[ri] = t.cells[ri][ci]
	}
	return &ColumnValue{name: name, values: values}, nil
}

// find(text) returns the rows whose first-column label contains text,
// case-insensitively. This is the row-oriented lookup the prompt teaches.
func tableFind(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	t := b.Receiver().(*TableValue)
	var text string
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "text", &text); err != nil {
		return nil, err
	}
	if len(t.columns) == 0 {
		return &TableValue{name: t.name, columns: t.columns}, nil
	}
	needle := strings.ToLower(text)
	var cells [][]starlark.Value
	for _, row := range t.cells {
		label, ok := starlark.AsString(row[0])
		if !ok {
			label = row[0].String()
		}
		if strings.Contains(strings.ToLower(label), needle) {
			cells = append(cells, row)
		}
	}
	return &TableValue{name: t.name, columns: t.columns, cells: cells}, nil
}

// cell(row, col) returns a single cell; col may be a name or an index.
func tableCell(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	t := b.Receiver().(*TableValue)
	var row int
	var col starlark.Value
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "row", &row, "col", &col); err != nil {
		return nil, err
	}
	if row < 0 || row >= len(t.cells) {
		return nil, fmt.Errorf("table %s: row index %d out of range (0..%d)", t.name, row, len(t.cells)-1)
	}
	var ci int
	switch c := col.(type) {
	case starlark.String:
		idx, err := t.columnIndex(string(c))
		if err != nil {
			return nil, err
		}
		ci = idx
	case starlark.Int:
		idx, err := starlark.AsInt32(c)
		if err != nil {
			return nil, err
		}
		if idx < 0 || idx >= len(t.columns) {
			return nil, fmt.Errorf("table %s: column index %d out of range (0..%d)", t.name, idx, len(t.columns)-1)
		}
		ci = idx
	default:
		return nil, fmt.Errorf("cell: col must be a string or int, got %s", col.Type())
	}
	return t.cells[row][ci], nil
}

// head(n=5) returns the first n rows as a new table.
func tableHead(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	t := b.Receiver().(*TableValue)
	n := 5
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "n?", &n); err != nil {
		return nil, err
	}
	if n < 0 {
		n = 0
	}
	if n > len(t.cells) {
		n = len(t.cells)
	}
	return &TableValue{name: t.name, columns: t.columns, cells: t.cells[:n]}, nil
}

// row(i) returns row i as a column-keyed dict.
func tableRow(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	t := b.Receiver().(*TableValue)
	var i int
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "i", &i); err != nil {
		return nil, err
	}
	if i < 0 || i >= len(t.cells) {
		return nil, fmt.Errorf("table %s: row index %d out of range (0..%d)", t.name, i, len(t.cells)-1)
	}
	return t.rowDict(i), nil
}

// ColumnValue is a single named column: a read-only sequence of cells.
type ColumnValue struct {
	name   string
	values []starlark.Value
}

var (
	_ starlark.Value     = (*ColumnValue)(nil)
	_ starlark.Sequence  = (*ColumnValue)(nil)
	_ starlark.Indexable = (*ColumnValue)(nil)
	_ starlark.HasAttrs  = (*ColumnValue)(nil)
)

// NewColumnValue builds a column value. Used by tests and the normalizer.
func NewColumnValue(name string, values []starlark.Value) *ColumnValue {
	return &ColumnValue{name: name, values: values}
}

func (c *ColumnValue) String() string {
	return fmt.Sprintf("<column %s len=%d>", c.name, len(c.values))
}

func (c *ColumnValue) Type() string              { return "column" }
func (c *ColumnValue) Freeze()                   {}
func (c *ColumnValue) Truth() starlark.Bool      { return len(c.values) > 0 }
func (c *ColumnValue) Hash() (uint32, error)     { return 0, fmt.Errorf("unhashable type: column") }
func (c *ColumnValue) Len() int                  { return len(c.values) }
func (c *ColumnValue) Index(i int) starlark.Value { return c.values[i] }

// Name returns the column name.
func (c *ColumnValue) Name() string { return c.name }

// Values returns the raw cells. Used by the result normalizer.
func (c *ColumnValue) Values() []starlark.Value { return c.values }

func (c *ColumnValue) Iterate() starlark.Iterator { return &columnIterator{c: c} }

type columnIterator struct {
	c *ColumnValue
	i int
}

func (it *columnIterator) Next(p *starlark.Value) bool {
	if it.i >= len(it.c.values) {
		return false
	}
	*p = it.c.values[it.i]
	it.i++
	return true
}

func (it *columnIterator) Done() {}

func (c *ColumnValue) AttrNames() []string { return []string{"name", "values"} }

func (c *ColumnValue) Attr(name string) (starlark.Value, error) {
	switch name {
	case "name":
		return starlark.String(c.name), nil
	case "values":
		values := make([]starlark.Value, len(c.values))
		copy(values, c.values)
		return starlark.NewList(values), nil
	}
	return nil, nil
}
