package main

import (
	"encoding/json"
	"fmt"

	"github.com/aretw0/arbor/internal/presentation/tui"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var treeCmd = &cobra.Command{
	Use:   "tree",
	Short: "Print the loaded command tree",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, true)
		if err != nil {
			return err
		}
		defer a.close()

		format, _ := cmd.Flags().GetString("format")
		desc := a.engine.Describe()
		out := cmd.OutOrStdout()

		switch format {
		case "json":
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(desc)
		case "yaml":
			enc := yaml.NewEncoder(out)
			enc.SetIndent(2)
			defer enc.Close()
			return enc.Encode(desc)
		case "markdown":
			_, err := fmt.Fprint(out, tui.TreeMarkdown(desc))
			return err
		case "", "pretty":
			rendered, err := tui.NewRenderer()(tui.TreeMarkdown(desc))
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(out, rendered)
			return err
		default:
			return fmt.Errorf("unknown format %q (supported: pretty, markdown, json, yaml)", format)
		}
	},
}

func init() {
	rootCmd.AddCommand(treeCmd)
	treeCmd.Flags().StringP("format", "f", "pretty", "Output format: pretty, markdown, json or yaml")
}
