package commands

import (
	"github.com/spf13/cobra"

	"github.com/tabq-labs/tabq/internal/table"
)

// NewInspectCommand creates the inspect command.
func NewInspectCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect [source]",
		Short: "Show the structural summary of a data source",
		Long: `Load a data source and print the structural summary of each
table: columns, row counts, inferred column kinds, and the detected
metric column. This is exactly what the model sees when generating
analysis code.`,
		Example: `  tabq inspect ./financials
  tabq inspect report.duckdb -o json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc := FromCommand(cmd)

			ts, err := table.Load(cmd.Context(), args[0], cc.Logger)
			if err != nil {
				return err
			}

			return renderSummaries(cmd.OutOrStdout(), ts.Summaries(), cc.Cfg.Output)
		},
	}
	return cmd
}
