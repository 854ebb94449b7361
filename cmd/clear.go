package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/timvw/iterm-relay/internal/session"
)

var clearCmd = &cobra.Command{
	Use:   "clear <terminal-id>",
	Short: "Clear a terminal's screen",
	Long:  `Run the clear command in an iTerm2 terminal to reset its screen.`,
	Args:  cobra.ExactArgs(1),
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

		if err := app.WriteText(cmd.Context(), id, "clear", true); err != nil {
			return fmt.Errorf("failed to clear %s: %w", args[0], err)
		}
		fmt.Printf("Cleared terminal %s\n", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(clearCmd)
}
