package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all open iTerm2 terminals",
	Long: `List every iTerm2 window and tab as a terminal identifier, one per
line, followed by a window/tab count summary.

Each identifier can be passed to the other subcommands (read, exec,
send, close). The output is exactly what the list-terminals MCP tool
returns.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		app, err := newApp(cfg)
		if err != nil {
			return err
		}

		out, err := app.List(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to list terminals: %w", err)
		}
		fmt.Println(out)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}
