package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/timvw/iterm-relay/internal/session"
)

var execCmd = &cobra.Command{
	Use:   "exec <terminal-id> <command...>",
	Short: "Run a shell command in a terminal",
	Long: `Type a shell command into an iTerm2 terminal and press Enter.

The command is fire-and-forget: this returns as soon as the keystrokes
are delivered, without waiting for the command to finish. Use read to
see the output afterwards.`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := session.Parse(args[0])
		if err != nil {
			return fmt.Errorf("%w: %q (expected %s-<window>-<tab>)", err, args[0], session.Prefix)
		}
		command := strings.Join(args[1:], " ")

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		app, err := newApp(cfg)
		if err != nil {
			return err
		}

		if err := app.WriteText(cmd.Context(), id, command, true); err != nil {
			return fmt.Errorf("failed to send command to %s: %w", args[0], err)
		}
		fmt.Printf("Command sent to %s: %s\n", args[0], command)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(execCmd)
}
