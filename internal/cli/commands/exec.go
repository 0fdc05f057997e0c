package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

// NewExecCommand creates the exec command.
func NewExecCommand() *cobra.Command {
	var source string

	cmd := &cobra.Command{
		Use:   "exec [script]",
		Short: "Run a Starlark analysis script against a data source",
		Long: `Execute a hand-written analysis script in the same sandbox the
ask command uses, with the source's tables bound by name. Reads the
script from a file argument, or from stdin when the argument is "-" or
omitted. Assign to the "result" binding to produce a value.`,
		Example: `  tabq exec -s ./financials analysis.star
  echo 'result = sum(income_statement.col("revenue"))' | tabq exec -s report.duckdb`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc := FromCommand(cmd)

			code, err := readScript(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}

			a, err := newRawExecutor(cc)
			if err != nil {
				return err
			}

			res, err := a.ExecuteRaw(cmd.Context(), code, source)
			if err != nil {
				return err
			}

			return renderRaw(cmd.OutOrStdout(), res, cc.Cfg.Output)
		},
	}

	cmd.Flags().StringVarP(&source, "source", "s", "", "Data source (directory, CSV/Parquet file, DuckDB or SQLite database)")
	_ = cmd.MarkFlagRequired("source")

	return cmd
}

func readScript(stdin io.Reader, args []string) (string, error) {
	if len(args) == 1 && args[0] != "-" {
		b, err := os.ReadFile(args[0])
		if err != nil {
			return "", fmt.Errorf("reading script: %w", err)
		}
		return string(b), nil
	}
	b, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("reading script from stdin: %w", err)
	}
	if len(b) == 0 {
		return "", fmt.Errorf("empty script")
	}
	return string(b), nil
}
