package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/tabq-labs/tabq/internal/analyst"
	tabtable "github.com/tabq-labs/tabq/internal/table"
)

// resolveMode turns "auto" into a concrete format: table on a terminal,
// json when output is piped.
func resolveMode(w io.Writer, mode string) string {
	if mode != "auto" && mode != "" {
		return mode
	}
	if f, ok := w.(*os.File); ok {
		if info, err := f.Stat(); err == nil && info.Mode()&os.ModeCharDevice != 0 {
			return "table"
		}
	}
	return "json"
}

func renderJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// renderAnalysis renders a full analysis result.
func renderAnalysis(w io.Writer, res *analyst.Result, mode string) error {
	if resolveMode(w, mode) == "json" {
		return renderJSON(w, res)
	}

	if !res.Success {
		fmt.Fprintf(w, "Analysis failed after %d attempt(s): %s\n", res.Attempts, res.Error)
		return nil
	}

	if res.Explanation != "" {
		fmt.Fprintln(w, res.Explanation)
		fmt.Fprintln(w)
	}
	if res.Result != nil {
		renderValue(w, res.Result.Value)
		if res.Result.Output != "" {
			fmt.Fprintf(w, "\nScript output:\n%s", res.Result.Output)
		}
	}
	return nil
}

// renderRaw renders a raw execution result.
func renderRaw(w io.Writer, res *analyst.RawResult, mode string) error {
	if resolveMode(w, mode) == "json" {
		return renderJSON(w, res)
	}

	if !res.Success {
		fmt.Fprintf(w, "Execution failed: %s\n", res.Error)
		return nil
	}
	if res.Result != nil {
		renderValue(w, res.Result.Value)
		if res.Result.Output != "" {
			fmt.Fprintf(w, "\nScript output:\n%s", res.Result.Output)
		}
	}
	return nil
}

// renderValue pretty-prints a normalized result value. Row sets become
// tables, everything else falls back to JSON.
func renderValue(w io.Writer, v any) {
	if v == nil {
		return
	}
	if rows, ok := asRowSet(v); ok {
		renderRows(w, rows)
		return
	}
	if b, err := json.MarshalIndent(v, "", "  "); err == nil {
		fmt.Fprintf(w, "Result: %s\n", b)
	} else {
		fmt.Fprintf(w, "Result: %v\n", v)
	}
}

// asRowSet reports whether v is a non-empty list of column-keyed rows,
// the shape table-valued results normalize to.
func asRowSet(v any) ([]map[string]any, bool) {
	if rows, ok := v.([]map[string]any); ok {
		return rows, len(rows) > 0
	}
	list, ok := v.([]any)
	if !ok || len(list) == 0 {
		return nil, false
	}
	rows := make([]map[string]any, 0, len(list))
	for _, item := range list {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, false
		}
		rows = append(rows, m)
	}
	return rows, true
}

func renderRows(w io.Writer, rows []map[string]any) {
	cols := make([]string, 0, len(rows[0]))
	for c := range rows[0] {
		cols = append(cols, c)
	}
	sort.Strings(cols)

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)

	header := make(table.Row, len(cols))
	for i, c := range cols {
		header[i] = c
	}
	t.AppendHeader(header)

	for _, r := range rows {
		row := make(table.Row, len(cols))
		for i, c := range cols {
			row[i] = formatCell(r[c])
		}
		t.AppendRow(row)
	}

	t.Render()
	fmt.Fprintf(w, "(%d rows)\n", len(rows))
}

func formatCell(v any) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%v", v)
}

// renderSummaries prints one line per table with its structural summary.
func renderSummaries(w io.Writer, summaries []tabtable.Summary, mode string) error {
	if resolveMode(w, mode) == "json" {
		return renderJSON(w, summaries)
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"table", "rows", "cols", "metric column", "numeric columns"})
	for _, s := range summaries {
		t.AppendRow(table.Row{
			s.Table,
			s.RowCount,
			s.ColumnCount,
			s.MetricColumn,
			len(s.NumericColumns),
		})
	}
	t.Render()
	return nil
}
