package transport

import (
	"encoding/json"
	"fmt"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.starlark.net/starlark"

	"github.com/tabq-labs/tabq/internal/sandbox"
	"github.com/tabq-labs/tabq/internal/table"
)

func TestNormalizePrimitives(t *testing.T) {
	tests := []struct {
		name  string
		input starlark.Value
		want  any
	}{
		{name: "none", input: starlark.None, want: nil},
		{name: "nil", input: nil, want: nil},
		{name: "bool", input: starlark.True, want: true},
		{name: "string", input: starlark.String("revenue"), want: "revenue"},
		{name: "int", input: starlark.MakeInt(42), want: int64(42)},
		{name: "float", input: starlark.Float(23.7), want: 23.7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.input))
		})
	}
}

func TestNormalizeHugeInt(t *testing.T) {
	huge := starlark.MakeBigInt(new(big.Int).Lsh(big.NewInt(1), 100))
	got := Normalize(huge)
	s, ok := got.(string)
	require.True(t, ok, "huge int should normalize to its decimal string")
	assert.Equal(t, huge.String(), s)
}

func TestNormalizeNested(t *testing.T) {
	d := starlark.NewDict(2)
	require.NoError(t, d.SetKey(starlark.String("growth"), starlark.Float(23.7)))
	require.NoError(t, d.SetKey(starlark.String("years"), starlark.NewList([]starlark.Value{
		starlark.MakeInt(2023), starlark.MakeInt(2024),
	})))

	got := Normalize(d)
	want := map[string]any{
		"growth": 23.7,
		"years":  []any{int64(2023), int64(2024)},
	}
	assert.Equal(t, want, got)

	// The whole thing must be JSON-serializable.
	_, err := json.Marshal(got)
	require.NoError(t, err)
}

func TestNormalizeTableRowCap(t *testing.T) {
	tbl := &table.Table{
		Name: "big",
		Columns: []table.Column{
			{Name: "label", Kind: table.KindText},
			{Name: "value", Kind: table.KindInteger},
		},
	}
	for i := 0; i < 500; i++ {
		tbl.Rows = append(tbl.Rows, []any{fmt.Sprintf("row%d", i), int64(i)})
	}

	got := Normalize(sandbox.NewTableValue(tbl))
	rows, ok := got.([]map[string]any)
	require.True(t, ok)
	require.Len(t, rows, RowCap)
	assert.Equal(t, "row0", rows[0]["label"])
	assert.Equal(t, int64(99), rows[99]["value"])
}

func TestNormalizeSmallTable(t *testing.T) {
	tbl := &table.Table{
		Name:    "small",
		Columns: []table.Column{{Name: "a", Kind: table.KindInteger}},
		Rows:    [][]any{{int64(1)}, {int64(2)}},
	}

	got := Normalize(sandbox.NewTableValue(tbl))
	rows, ok := got.([]map[string]any)
	require.True(t, ok)
	assert.Len(t, rows, 2)
}

func TestNormalizeColumn(t *testing.T) {
	col := sandbox.NewColumnValue("fy2024", []starlark.Value{
		starlark.Float(245.0), starlark.Float(101.0),
	})

	got := Normalize(col)
	assert.Equal(t, map[string]any{"fy2024": []any{245.0, 101.0}}, got)
}

func TestNormalizeTuple(t *testing.T) {
	got := Normalize(starlark.Tuple{starlark.MakeInt(3), starlark.MakeInt(2)})
	assert.Equal(t, []any{int64(3), int64(2)}, got)
}

func TestNormalizeUnknownTypePassesThrough(t *testing.T) {
	b := starlark.NewBuiltin("sum", nil)
	got := Normalize(b)
	assert.Equal(t, b.String(), got)
}
