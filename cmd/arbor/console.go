package main

import (
	"context"
	"os"

	"github.com/aretw0/arbor"
	"github.com/aretw0/arbor/internal/cli"
	"github.com/aretw0/arbor/internal/presentation/tui"
	"github.com/aretw0/arbor/pkg/adapters/console"
	"github.com/spf13/cobra"
)

var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Run commands interactively as the operator",
	Long: `Reads command lines from standard input and runs them as the operator,
who holds every permission but is not a player.

Prefix a line with '?' to list completions, type 'tree' to show the command
tree and 'exit' to leave.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, true)
		if err != nil {
			return err
		}
		defer a.close()

		interactive := cli.IsInteractive(os.Stdin)
		style := tui.NewStyle()
		out := cli.NewSyncWriter(os.Stdout)
		if interactive {
			tui.PrintBanner(out, arbor.Version)
		}

		sigCtx := cli.NewSignalContext(context.Background())
		defer sigCtx.Cancel()

		opts := cli.ConsoleOptions{
			In:     os.Stdin,
			Out:    out,
			Caller: console.NewOperator(out, console.WithFormatter(style.Message)),
			Prompt: interactive,
			Logger: a.logger,
		}
		if interactive {
			opts.Style = &style
			opts.Render = tui.NewRenderer()
		}
		return cli.RunConsole(sigCtx, a.engine, opts)
	},
}

func init() {
	rootCmd.AddCommand(consoleCmd)
}
