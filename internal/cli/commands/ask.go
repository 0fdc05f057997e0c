package commands

import (
	"strings"

	"github.com/spf13/cobra"
)

// NewAskCommand creates the ask command.
func NewAskCommand() *cobra.Command {
	var (
		source   string
		ctxPairs []string
	)

	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Answer a natural-language question about tabular data",
		Long: `Ask a question about a data source. tabq summarizes the tables,
has the configured model write an analysis script, executes it in a
sandbox, and retries with the failure context when the script fails.

The source may be a directory of CSV/Parquet files, a single CSV or
Parquet file, a DuckDB database, or a SQLite database.`,
		Example: `  tabq ask -s ./financials "What was the revenue growth in 2024?"
  tabq ask -s report.duckdb -c company="Acme Corp" "total operating expenses"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc := FromCommand(cmd)

			domain, err := parseKeyValues(ctxPairs)
			if err != nil {
				return err
			}

			a, err := newAnalyzer(cc)
			if err != nil {
				return err
			}

			query := strings.Join(args, " ")
			res, err := a.Analyze(cmd.Context(), query, source, domain)
			if err != nil {
				return err
			}

			return renderAnalysis(cmd.OutOrStdout(), res, cc.Cfg.Output)
		},
	}

	cmd.Flags().StringVarP(&source, "source", "s", "", "Data source (directory, CSV/Parquet file, DuckDB or SQLite database)")
	_ = cmd.MarkFlagRequired("source")
	cmd.Flags().StringArrayVarP(&ctxPairs, "context", "c", nil, "Domain context as key=value (repeatable)")

	return cmd
}
