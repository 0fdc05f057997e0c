// Package cli provides the command-line interface for tabq.
package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"

	"github.com/tabq-labs/tabq/internal/cli/commands"
	"github.com/tabq-labs/tabq/internal/config"
)

var cfgFile string

// Version information (set at build time).
var (
	Version   = "0.1.0"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "tabq",
		Short: "tabq - Agentic Tabular Data Analyst",
		Long: `tabq answers natural-language questions about tabular data.

It summarizes your tables for a language model, has the model write a
small analysis script, runs that script in a sandbox, and retries with
the failure context when the script does not work.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}

			cfg, err := config.Load(cfgFile, cmd.Root().PersistentFlags())
			if err != nil {
				return err
			}

			cc := &commands.CommandContext{
				Cfg:    cfg,
				Logger: newLogger(cmd.ErrOrStderr(), cfg.Verbose),
			}
			cmd.SetContext(commands.WithCommandContext(cmd.Context(), cc))
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.SetVersionTemplate(`{{.Name}} {{.Version}}
`)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./tabq.yaml)")
	rootCmd.PersistentFlags().String("base-url", "", "OpenAI-compatible endpoint base URL")
	rootCmd.PersistentFlags().String("api-key", "", "API key for the model endpoint")
	rootCmd.PersistentFlags().String("model", "", "Chat model for explanations")
	rootCmd.PersistentFlags().String("code-model", "", "Model for code generation")
	rootCmd.PersistentFlags().Int("max-attempts", 0, "Generate/execute attempt budget per question")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().StringP("output", "o", "", "Output format (auto|table|json)")

	_ = rootCmd.RegisterFlagCompletionFunc("output", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"auto", "table", "json"}, cobra.ShellCompDirectiveNoFileComp
	})

	rootCmd.AddCommand(commands.NewAskCommand())
	rootCmd.AddCommand(commands.NewExecCommand())
	rootCmd.AddCommand(commands.NewInspectCommand())
	rootCmd.AddCommand(commands.NewVersionCommand(Version))

	return rootCmd
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	if !verbose {
		return slog.New(slog.DiscardHandler)
	}
	return slog.New(tint.NewHandler(w, &tint.Options{
		Level: slog.LevelDebug,
	}))
}

// Execute runs the root command.
func Execute() error {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}
