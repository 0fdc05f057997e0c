package sandbox

import (
	"fmt"

	"go.starlark.net/starlark"
)

// toStarlark converts a table cell or context value to a Starlark value.
// Supported types: nil, string, int, int64, float64, bool, []any,
// map[string]any.
func toStarlark(v any) (starlark.Value, error) {
	if v == nil {
		return starlark.None, nil
	}

	switch val := v.(type) {
	case string:
		return starlark.String(val), nil

	case int:
		return starlark.MakeInt(val), nil

	case int64:
		return starlark.MakeInt64(val), nil

	case float64:
		return starlark.Float(val), nil

	case bool:
		return starlark.Bool(val), nil

	case []any:
		list := make([]starlark.Value, len(val))
		for i, item := range val {
			sv, err := toStarlark(item)
			if err != nil {
				return nil, fmt.Errorf("list index %d: %w", i, err)
			}
			list[i] = sv
		}
		return starlark.NewList(list), nil

	case map[string]any:
		dict := starlark.NewDict(len(val))
		for k, v := range val {
			sv, err := toStarlark(v)
			if err != nil {
				return nil, fmt.Errorf("dict key %q: %w", k, err)
			}
			if err := dict.SetKey(starlark.String(k), sv); err != nil {
				return nil, fmt.Errorf("dict setkey %q: %w", k, err)
			}
		}
		return dict, nil

	default:
		return nil, fmt.Errorf("unsupported type: %T", v)
	}
}

// cellValue converts a table cell, falling back to its string rendering for
// anything the loader should already have narrowed away.
func cellValue(v any) starlark.Value {
	sv, err := toStarlark(v)
	if err != nil {
		return starlark.String(fmt.Sprintf("%v", v))
	}
	return sv
}

// asFloat extracts a Go float64 from a numeric Starlark value.
func asFloat(v starlark.Value) (float64, bool) {
	switch n := v.(type) {
	case starlark.Int:
		f, _ := starlark.AsFloat(n)
		return f, true
	case starlark.Float:
		return float64(n), true
	default:
		return 0, false
	}
}
