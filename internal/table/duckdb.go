package table

// duckdb.go - flat-file and DuckDB database sources

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/marcboeker/go-duckdb" // duckdb driver
)

// readFlatDir loads every .csv and .parquet file in a directory into an
// in-memory DuckDB and dumps the resulting tables.
func readFlatDir(ctx context.Context, dir string) ([]rawTable, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read source directory: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".csv", ".parquet":
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no .csv or .parquet files in %s", dir)
	}
	return readFlatFiles(ctx, files)
}

// readFlatFiles registers each flat file as a table in an in-memory DuckDB
// with automatic schema detection, then dumps all tables.
func readFlatFiles(ctx context.Context, files []string) ([]rawTable, error) {
	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, fmt.Errorf("failed to open in-memory duckdb: %w", err)
	}
	defer func() { _ = db.Close() }()

	for _, f := range files {
		absPath, err := filepath.Abs(f)
		if err != nil {
			return nil, fmt.Errorf("failed to get absolute path: %w", err)
		}

		name := strings.TrimSuffix(filepath.Base(f), filepath.Ext(f))
		reader := "read_csv_auto"
		if strings.EqualFold(filepath.Ext(f), ".parquet") {
			reader = "read_parquet"
		}

		query := fmt.Sprintf(
			"CREATE OR REPLACE TABLE %s AS SELECT * FROM %s('%s')",
			quoteIdent(name), reader, strings.ReplaceAll(absPath, "'", "''"),
		)
		if _, err := db.ExecContext(ctx, query); err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", filepath.Base(f), err)
		}
	}

	return dumpDuckDBTables(ctx, db)
}

// readDuckDBFile opens an existing DuckDB database read-only and dumps the
// tables in its main schema.
func readDuckDBFile(ctx context.Context, path string) ([]rawTable, error) {
	db, err := sql.Open("duckdb", path+"?access_mode=read_only")
	if err != nil {
		return nil, fmt.Errorf("failed to open duckdb database: %w", err)
	}
	defer func() { _ = db.Close() }()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping duckdb: %w", err)
	}
	return dumpDuckDBTables(ctx, db)
}

// dumpDuckDBTables reads every table in the main schema into memory.
func dumpDuckDBTables(ctx context.Context, db *sql.DB) ([]rawTable, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = 'main'
		ORDER BY table_name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan table name: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tables: %w", err)
	}

	out := make([]rawTable, 0, len(names))
	for _, name := range names {
		rt, err := dumpTable(ctx, db, name)
		if err != nil {
			return nil, err
		}
		out = append(out, rt)
	}
	return out, nil
}

// dumpTable reads a whole table into a rawTable.
func dumpTable(ctx context.Context, db *sql.DB, name string) (rawTable, error) {
	//nolint:gosec // identifier is quoted, not interpolated as a value
	rows, err := db.QueryContext(ctx, fmt.Sprintf("SELECT * FROM %s", quoteIdent(name)))
	if err != nil {
		return rawTable{}, fmt.Errorf("failed to read table %s: %w", name, err)
	}
	defer func() { _ = rows.Close() }()

	cols, err := rows.Columns()
	if err != nil {
		return rawTable{}, fmt.Errorf("failed to get columns for %s: %w", name, err)
	}

	rt := rawTable{name: name, columns: cols}
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return rawTable{}, fmt.Errorf("failed to scan row of %s: %w", name, err)
		}
		for i := range vals {
			vals[i] = coerceCell(vals[i])
		}
		rt.rows = append(rt.rows, vals)
	}
	if err := rows.Err(); err != nil {
		return rawTable{}, fmt.Errorf("error iterating rows of %s: %w", name, err)
	}
	return rt, nil
}

// quoteIdent quotes an SQL identifier, doubling embedded quotes.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
