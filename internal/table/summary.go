package table

import "fmt"

// maxSampleLabels caps how many first-column values a summary carries.
const maxSampleLabels = 10

// Summary is the structural description of one table, embedded into the
// code-generation prompt so generated code can only reference columns and
// tables that actually exist.
type Summary struct {
	Table          string            `json:"table"`
	Columns        []string          `json:"columns"`
	RowCount       int               `json:"row_count"`
	ColumnCount    int               `json:"column_count"`
	MetricColumn   string            `json:"metric_column,omitempty"`
	NumericColumns []string          `json:"numeric_columns"`
	SampleLabels   []string          `json:"sample_labels"`
	Kinds          map[string]string `json:"kinds"`
}

// Summarize derives the structural summary of a table. It never fails: a
// degenerate table with zero columns yields an empty summary.
func Summarize(t *Table) Summary {
	s := Summary{
		Table:          t.Name,
		Columns:        []string{},
		NumericColumns: []string{},
		SampleLabels:   []string{},
		Kinds:          map[string]string{},
	}
	if t == nil || len(t.Columns) == 0 {
		return s
	}

	s.Columns = t.ColumnNames()
	s.RowCount = t.NumRows()
	s.ColumnCount = t.NumColumns()

	for _, c := range t.Columns {
		s.Kinds[c.Name] = c.Kind.String()
		if c.Kind == KindInteger || c.Kind == KindReal {
			s.NumericColumns = append(s.NumericColumns, c.Name)
		}
	}

	// The metric column candidate is the first text column that has at
	// least one non-empty value. Financial sheets keep line-item labels
	// there ("Revenue", "Gross Profit", ...).
	for ci, c := range t.Columns {
		if c.Kind != KindText {
			continue
		}
		if columnHasValue(t, ci) {
			s.MetricColumn = c.Name
			break
		}
	}

	// Sample labels come from the first column regardless of kind: labels
	// live in rows, not column headers.
	seen := make(map[string]bool)
	for _, row := range t.Rows {
		if len(s.SampleLabels) >= maxSampleLabels {
			break
		}
		v := cellString(row[0])
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		s.SampleLabels = append(s.SampleLabels, v)
	}

	return s
}

// Summaries returns a summary per table, in load order.
func (ts *TableSet) Summaries() []Summary {
	out := make([]Summary, 0, ts.Len())
	for _, t := range ts.Tables() {
		out = append(out, Summarize(t))
	}
	return out
}

func columnHasValue(t *Table, ci int) bool {
	for _, row := range t.Rows {
		if cellString(row[ci]) != "" {
			return true
		}
	}
	return false
}

// cellString renders a cell for label sampling. nil and empty strings
// render as "", which marks the cell as empty.
func cellString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	default:
		return fmt.Sprintf("%v", x)
	}
}
