package table

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "spaces to underscores", input: "Income Statement", want: "income_statement"},
		{name: "ampersand", input: "P&L Summary", want: "pandl_summary"},
		{name: "mixed symbols", input: "Cash Flow (FY-2024)", want: "cash_flow_fy_2024"},
		{name: "leading digit", input: "2024 Data", want: "t_2024_data"},
		{name: "already safe", input: "balance_sheet", want: "balance_sheet"},
		{name: "only symbols", input: "***", want: "table"},
		{name: "collapses underscores", input: "a  -  b", want: "a_b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeName(tt.input))
		})
	}
}

func TestUniqueNamesCollisions(t *testing.T) {
	names := uniqueNames([]string{"Revenue", "revenue", "REVENUE", "costs"})
	assert.Equal(t, []string{"revenue", "revenue_2", "revenue_3", "costs"}, names)
}

func TestDropEmpty(t *testing.T) {
	rt := rawTable{
		name:    "sheet1",
		columns: []string{"label", "blank", "value"},
		rows: [][]any{
			{"Revenue", nil, int64(100)},
			{nil, nil, nil},
			{"  ", "", " "},
			{"Costs", nil, int64(40)},
		},
	}

	got := dropEmpty(rt)
	assert.Equal(t, []string{"label", "value"}, got.columns)
	require.Len(t, got.rows, 2)
	assert.Equal(t, "Revenue", got.rows[0][0])
	assert.Equal(t, int64(40), got.rows[1][1])
}

func TestDropEmptyAllEmpty(t *testing.T) {
	rt := rawTable{
		name:    "empty",
		columns: []string{"a", "b"},
		rows:    [][]any{{nil, ""}, {"", nil}},
	}
	got := dropEmpty(rt)
	assert.Empty(t, got.rows)
	assert.Empty(t, got.columns)
}

func TestInferKind(t *testing.T) {
	rows := [][]any{
		{"Revenue", int64(1), 1.5, true, nil},
		{"Costs", int64(2), int64(3), false, nil},
	}

	assert.Equal(t, KindText, inferKind(rows, 0))
	assert.Equal(t, KindInteger, inferKind(rows, 1))
	assert.Equal(t, KindReal, inferKind(rows, 2))
	assert.Equal(t, KindBool, inferKind(rows, 3))
	assert.Equal(t, KindText, inferKind(rows, 4))
}

func TestSummarize(t *testing.T) {
	tbl := &Table{
		Name: "income_statement",
		Columns: []Column{
			{Name: "line_item", Kind: KindText},
			{Name: "fy2024", Kind: KindReal},
			{Name: "fy2023", Kind: KindInteger},
		},
		Rows: [][]any{
			{"Revenue", 245.12, int64(198)},
			{"Gross Profit", 101.5, int64(88)},
			{"Revenue", 1.0, int64(1)}, // duplicate label, sampled once
		},
	}

	s := Summarize(tbl)
	assert.Equal(t, "income_statement", s.Table)
	assert.Equal(t, []string{"line_item", "fy2024", "fy2023"}, s.Columns)
	assert.Equal(t, 3, s.RowCount)
	assert.Equal(t, 3, s.ColumnCount)
	assert.Equal(t, "line_item", s.MetricColumn)
	assert.Equal(t, []string{"fy2024", "fy2023"}, s.NumericColumns)
	assert.Equal(t, []string{"Revenue", "Gross Profit"}, s.SampleLabels)
	assert.Equal(t, "real", s.Kinds["fy2024"])
}

func TestSummarizeSampleLabelCap(t *testing.T) {
	tbl := &Table{
		Name:    "big",
		Columns: []Column{{Name: "label", Kind: KindText}},
	}
	for i := 0; i < 25; i++ {
		tbl.Rows = append(tbl.Rows, []any{string(rune('a' + i))})
	}

	s := Summarize(tbl)
	assert.Len(t, s.SampleLabels, 10)
}

func TestSummarizeDegenerate(t *testing.T) {
	s := Summarize(&Table{Name: "empty"})
	assert.Empty(t, s.Columns)
	assert.Empty(t, s.MetricColumn)
	assert.Empty(t, s.SampleLabels)
	assert.Zero(t, s.RowCount)
}

func TestTableSetAccess(t *testing.T) {
	ts, err := NewTableSet([]*Table{
		{Name: "b_sheet"},
		{Name: "a_sheet"},
	})
	require.NoError(t, err)

	assert.Equal(t, 2, ts.Len())
	assert.Equal(t, []string{"b_sheet", "a_sheet"}, ts.Names())
	assert.Equal(t, []string{"a_sheet", "b_sheet"}, ts.SortedNames())
	assert.NotNil(t, ts.Get("a_sheet"))
	assert.Nil(t, ts.Get("missing"))

	_, err = NewTableSet([]*Table{{Name: "x"}, {Name: "x"}})
	assert.Error(t, err)
}
