package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/timvw/iterm-relay/internal/session"
)

var closeCmd = &cobra.Command{
	Use:   "close <terminal-id>",
	Short: "Close a terminal window",
	Long: `Close the iTerm2 window containing the given terminal.

Closing an already-closed terminal is a soft success: the command
reports which of the two happened and exits zero either way.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := session.Parse(args[0])
		if err != nil {
			return fmt.Errorf("%w: %q (expected %s-<window>-<tab>)", err, args[0], session.Prefix)
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		app, err := newApp(cfg)
		if err != nil {
			return err
		}

		found, err := app.Close(cmd.Context(), id)
		if err != nil {
			return fmt.Errorf("failed to close %s: %w", args[0], err)
		}
		if !found {
			fmt.Printf("Terminal %s was not found (already closed)\n", args[0])
			return nil
		}
		fmt.Printf("Terminal %s closed\n", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(closeCmd)
}
