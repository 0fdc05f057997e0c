package table

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ErrSourceUnavailable reports that a table source could not be read at all.
// It is fatal for the request; no generation attempt is made.
var ErrSourceUnavailable = errors.New("table source unavailable")

// ErrEmptyTableSet reports that a readable source contained zero usable
// tables after empty rows and columns were dropped.
var ErrEmptyTableSet = errors.New("table source contains no usable tables")

// rawTable is a table as read from a source, before cleaning and kind
// inference.
type rawTable struct {
	name    string
	columns []string
	rows    [][]any
}

// Load resolves a source handle to a TableSet. Supported handles:
//
//   - a directory of .csv / .parquet files (read through DuckDB)
//   - a single .csv or .parquet file
//   - a .duckdb / .ddb database file
//   - a .db / .sqlite / .sqlite3 database file
//
// Fully-empty rows and columns are dropped; tables that are empty after
// dropping are excluded. Table names are normalized to binding-safe
// identifiers, with collisions suffixed deterministically.
func Load(ctx context.Context, source string, logger *slog.Logger) (*TableSet, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	info, err := os.Stat(source)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrSourceUnavailable, source, err)
	}

	var raw []rawTable
	switch {
	case info.IsDir():
		raw, err = readFlatDir(ctx, source)
	default:
		switch strings.ToLower(filepath.Ext(source)) {
		case ".csv", ".parquet":
			raw, err = readFlatFiles(ctx, []string{source})
		case ".duckdb", ".ddb":
			raw, err = readDuckDBFile(ctx, source)
		case ".db", ".sqlite", ".sqlite3":
			raw, err = readSQLiteFile(ctx, source)
		default:
			return nil, fmt.Errorf("%w: unsupported source %s", ErrSourceUnavailable, source)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrSourceUnavailable, source, err)
	}

	sources := make([]string, 0, len(raw))
	cleaned := make([]rawTable, 0, len(raw))
	for _, rt := range raw {
		ct := dropEmpty(rt)
		if len(ct.columns) == 0 || len(ct.rows) == 0 {
			logger.Debug("excluding empty table", "table", rt.name)
			continue
		}
		cleaned = append(cleaned, ct)
		sources = append(sources, rt.name)
	}
	if len(cleaned) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyTableSet, source)
	}

	names := uniqueNames(sources)
	tables := make([]*Table, len(cleaned))
	for i, ct := range cleaned {
		tables[i] = buildTable(names[i], ct)
		logger.Debug("loaded table",
			"table", names[i],
			"rows", tables[i].NumRows(),
			"columns", tables[i].NumColumns())
	}

	return NewTableSet(tables)
}

// buildTable infers per-column kinds and assembles the immutable Table.
func buildTable(name string, rt rawTable) *Table {
	cols := make([]Column, len(rt.columns))
	for ci, cn := range rt.columns {
		cols[ci] = Column{Name: cn, Kind: inferKind(rt.rows, ci)}
	}
	return &Table{
		Name:       name,
		SourceName: rt.name,
		Columns:    cols,
		Rows:       rt.rows,
	}
}

// inferKind picks a column kind from its non-empty values: all integers →
// integer, any float among numerics → real, all bools → boolean, anything
// else → text.
func inferKind(rows [][]any, ci int) Kind {
	sawInt, sawFloat, sawBool, sawOther := false, false, false, false
	for _, row := range rows {
		switch row[ci].(type) {
		case nil:
		case int64:
			sawInt = true
		case float64:
			sawFloat = true
		case bool:
			sawBool = true
		case string:
			if strings.TrimSpace(row[ci].(string)) != "" {
				sawOther = true
			}
		default:
			sawOther = true
		}
	}
	switch {
	case sawOther:
		return KindText
	case sawFloat:
		return KindReal
	case sawInt:
		return KindInteger
	case sawBool:
		return KindBool
	default:
		return KindText
	}
}

// dropEmpty removes fully-empty rows, then fully-empty columns.
func dropEmpty(rt rawTable) rawTable {
	rows := make([][]any, 0, len(rt.rows))
	for _, row := range rt.rows {
		if !rowEmpty(row) {
			rows = append(rows, row)
		}
	}

	keep := make([]int, 0, len(rt.columns))
	for ci := range rt.columns {
		empty := true
		for _, row := range rows {
			if !cellEmpty(row[ci]) {
				empty = false
				break
			}
		}
		if !empty {
			keep = append(keep, ci)
		}
	}

	if len(keep) == len(rt.columns) {
		return rawTable{name: rt.name, columns: rt.columns, rows: rows}
	}

	columns := make([]string, len(keep))
	for i, ci := range keep {
		columns[i] = rt.columns[ci]
	}
	outRows := make([][]any, len(rows))
	for ri, row := range rows {
		or := make([]any, len(keep))
		for i, ci := range keep {
			or[i] = row[ci]
		}
		outRows[ri] = or
	}
	return rawTable{name: rt.name, columns: columns, rows: outRows}
}

func rowEmpty(row []any) bool {
	for _, c := range row {
		if !cellEmpty(c) {
			return false
		}
	}
	return true
}

func cellEmpty(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(x) == ""
	default:
		return false
	}
}

// coerceCell narrows driver-specific scan values to the cell types a Table
// carries: string, int64, float64, bool, or nil.
func coerceCell(v any) any {
	switch x := v.(type) {
	case nil, string, int64, float64, bool:
		return x
	case int:
		return int64(x)
	case int8:
		return int64(x)
	case int16:
		return int64(x)
	case int32:
		return int64(x)
	case uint:
		return int64(x)
	case uint8:
		return int64(x)
	case uint16:
		return int64(x)
	case uint32:
		return int64(x)
	case uint64:
		return int64(x)
	case float32:
		return float64(x)
	case []byte:
		return string(x)
	case time.Time:
		return x.Format("2006-01-02")
	default:
		return fmt.Sprintf("%v", x)
	}
}
