package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/timvw/iterm-relay/internal/session"
)

var flagReadLines int

var readCmd = &cobra.Command{
	Use:   "read <terminal-id>",
	Short: "Read the screen content of a terminal",
	Long: `Read the visible buffer of an iTerm2 terminal and print it to stdout.

Pass --lines to limit the output to the last N lines of the buffer.
This is pure transport — no interpretation of the content.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := session.Parse(args[0])
		if err != nil {
			return fmt.Errorf("%w: %q (expected %s-<window>-<tab>)", err, args[0], session.Prefix)
		}
		if flagReadLines < 0 {
			return fmt.Errorf("lines must be a positive number, got %d", flagReadLines)
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		app, err := newApp(cfg)
		if err != nil {
			return err
		}

		out, err := app.ReadOutput(cmd.Context(), id, flagReadLines)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", args[0], err)
		}
		fmt.Println(out)
		return nil
	},
}

func init() {
	readCmd.Flags().IntVar(&flagReadLines, "lines", 0, "print only the last N lines (0 = full buffer)")
	rootCmd.AddCommand(readCmd)
}
