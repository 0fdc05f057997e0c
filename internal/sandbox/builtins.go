package sandbox

import (
	"fmt"
	"math"

	"go.starlark.net/starlark"
)

// baseline returns the fixed set of safe aggregation builtins available to
// generated code, on top of the Starlark universe (len, min, max, abs,
// sorted, ...). A fresh dict is built per call so no attempt can hand a
// mutated scope to a later one.
func baseline() starlark.StringDict {
	return starlark.StringDict{
		"sum":            starlark.NewBuiltin("sum", builtinSum),
		"mean":           starlark.NewBuiltin("mean", builtinMean),
		"round":          starlark.NewBuiltin("round", builtinRound),
		"percent_change": starlark.NewBuiltin("percent_change", builtinPercentChange),
	}
}

// numericElements collects the numeric elements of a column or list,
// skipping None cells the way spreadsheet aggregation does. A non-numeric,
// non-None element is an error.
func numericElements(name string, v starlark.Value) ([]float64, bool, error) {
	it, ok := v.(starlark.Iterable)
	if !ok {
		return nil, false, fmt.Errorf("%s: want a column or list, got %s", name, v.Type())
	}

	var out []float64
	allInt := true
	iter := it.Iterate()
	defer iter.Done()

	var elem starlark.Value
	for iter.Next(&elem) {
		if elem == starlark.None {
			continue
		}
		f, ok := asFloat(elem)
		if !ok {
			return nil, false, fmt.Errorf("%s: non-numeric element %s", name, elem.String())
		}
		if _, isInt := elem.(starlark.Int); !isInt {
			allInt = false
		}
		out = append(out, f)
	}
	return out, allInt, nil
}

// sum(values) totals the numeric elements of a column or list.
func builtinSum(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var v starlark.Value
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "values", &v); err != nil {
		return nil, err
	}
	nums, allInt, err := numericElements(b.Name(), v)
	if err != nil {
		return nil, err
	}
	total := 0.0
	for _, n := range nums {
		total += n
	}
	if allInt {
		return starlark.MakeInt64(int64(total)), nil
	}
	return starlark.Float(total), nil
}

// mean(values) averages the numeric elements of a column or list.
func builtinMean(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var v starlark.Value
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "values", &v); err != nil {
		return nil, err
	}
	nums, _, err := numericElements(b.Name(), v)
	if err != nil {
		return nil, err
	}
	if len(nums) == 0 {
		return nil, fmt.Errorf("mean: no numeric elements")
	}
	total := 0.0
	for _, n := range nums {
		total += n
	}
	return starlark.Float(total / float64(len(nums))), nil
}

// round(x, ndigits=0) rounds half away from zero.
func builtinRound(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var x starlark.Value
	ndigits := 0
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "x", &x, "ndigits?", &ndigits); err != nil {
		return nil, err
	}
	f, ok := asFloat(x)
	if !ok {
		return nil, fmt.Errorf("round: want a number, got %s", x.Type())
	}
	scale := math.Pow(10, float64(ndigits))
	rounded := math.Round(f*scale) / scale
	if ndigits <= 0 {
		return starlark.MakeInt64(int64(rounded)), nil
	}
	return starlark.Float(rounded), nil
}

// percent_change(new, old) returns (new-old)/old*100.
func builtinPercentChange(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var newV, oldV starlark.Value
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "new", &newV, "old", &oldV); err != nil {
		return nil, err
	}
	newF, ok := asFloat(newV)
	if !ok {
		return nil, fmt.Errorf("percent_change: new must be a number, got %s", newV.Type())
	}
	oldF, ok := asFloat(oldV)
	if !ok {
		return nil, fmt.Errorf("percent_change: old must be a number, got %s", oldV.Type())
	}
	if oldF == 0 {
		return nil, fmt.Errorf("percent_change: division by zero (old value is 0)")
	}
	return starlark.Float((newF - oldF) / oldF * 100), nil
}
