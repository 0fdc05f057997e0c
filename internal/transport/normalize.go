// Package transport converts sandbox result values into recursively
// primitive forms (text, number, boolean, null, mapping, sequence) that are
// safe to serialize across a process boundary.
package transport

import (
	"go.starlark.net/starlark"

	"github.com/tabq-labs/tabq/internal/sandbox"
)

// RowCap bounds how many rows of a tabular result survive normalization.
// Truncation beyond the cap is silent and deliberate.
const RowCap = 100

// Normalize converts a Starlark value into a transport-safe Go value. It
// never fails: unrecognized types fall back to their string rendering, and
// serialization problems are left to the transport layer.
func Normalize(v starlark.Value) any {
	switch val := v.(type) {
	case nil, starlark.NoneType:
		return nil

	case starlark.Bool:
		return bool(val)

	case starlark.String:
		return string(val)

	case starlark.Int:
		if i, ok := val.Int64(); ok {
			return i
		}
		// Out of int64 range: decimal string beats silent overflow.
		return val.String()

	case starlark.Float:
		return float64(val)

	case *sandbox.TableValue:
		return normalizeTable(val)

	case *sandbox.ColumnValue:
		return map[string]any{val.Name(): normalizeSeq(val.Values())}

	case *starlark.List:
		out := make([]any, val.Len())
		for i := 0; i < val.Len(); i++ {
			out[i] = Normalize(val.Index(i))
		}
		return out

	case starlark.Tuple:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = Normalize(item)
		}
		return out

	case *starlark.Dict:
		out := make(map[string]any, val.Len())
		for _, item := range val.Items() {
			key, ok := starlark.AsString(item[0])
			if !ok {
				key = item[0].String()
			}
			out[key] = Normalize(item[1])
		}
		return out

	default:
		return val.String()
	}
}

// normalizeTable renders a tabular value as a bounded list of column-keyed
// rows.
func normalizeTable(t *sandbox.TableValue) []map[string]any {
	n := t.Len()
	if n > RowCap {
		n = RowCap
	}
	columns := t.Columns()
	rows := make([]map[string]any, n)
	for ri := 0; ri < n; ri++ {
		cells := t.Row(ri)
		row := make(map[string]any, len(columns))
		for ci, cn := range columns {
			row[cn] = Normalize(cells[ci])
		}
		rows[ri] = row
	}
	return rows
}

func normalizeSeq(values []starlark.Value) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = Normalize(v)
	}
	return out
}
