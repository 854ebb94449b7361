package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var openCmd = &cobra.Command{
	Use:   "open",
	Short: "Open a new iTerm2 terminal window",
	Long: `Open a new iTerm2 terminal window and print its identifier.

The identifier (term-<window>-<tab>) can be passed to the other
subcommands. This is the same operation the open-terminal MCP tool
performs, useful for exercising the AppleScript layer without an MCP
client.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		app, err := newApp(cfg)
		if err != nil {
			return err
		}

		id, err := app.Open(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to open terminal: %w", err)
		}
		fmt.Println(id.String())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(openCmd)
}
