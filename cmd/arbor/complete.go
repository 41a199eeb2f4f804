package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/aretw0/arbor/pkg/adapters/console"
	"github.com/spf13/cobra"
)

var completeCmd = &cobra.Command{
	Use:   "complete <partial line>",
	Short: "Print completion candidates for a partial command line",
	Long: `Prints one candidate per line, as the operator would see them.
End the line with a space to complete the next word, e.g. "guild invite ".`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, true)
		if err != nil {
			return err
		}
		defer a.close()

		op := console.NewOperator(io.Discard)
		candidates := a.engine.CompleteLine(op, args[0])
		if len(candidates) > 0 {
			fmt.Fprintln(cmd.OutOrStdout(), strings.Join(candidates, "\n"))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(completeCmd)
}
