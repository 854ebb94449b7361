package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/timvw/iterm-relay/internal/iterm"
	"github.com/timvw/iterm-relay/internal/session"
)

var (
	flagSendKeys string
	flagSendText string
)

var sendCmd = &cobra.Command{
	Use:   "send <terminal-id>",
	Short: "Send keystrokes to a terminal",
	Long: `Send keystrokes to an iTerm2 terminal for interacting with
full-screen programs (vim, interactive installers, pagers).

--keys names a special key: enter, escape, tab, up, down, left, right,
space, backspace, delete, or a control combination like ctrl-c. An
unrecognized name is typed as literal text followed by Enter.

--text types the given text followed by Enter. When both flags are
given, --text wins.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if flagSendKeys == "" && flagSendText == "" {
			return fmt.Errorf("no keys or text specified: provide --keys or --text")
		}

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
		ctx := cmd.Context()

		if flagSendText != "" {
			if err := app.WriteText(ctx, id, flagSendText, true); err != nil {
				return fmt.Errorf("failed to send text to %s: %w", args[0], err)
			}
			fmt.Printf("Sent text to %s: %s\n", args[0], flagSendText)
			return nil
		}

		key, known := iterm.LookupKey(flagSendKeys)
		switch {
		case known && key.Control > 0:
			err = app.SendControl(ctx, id, key.Control)
		case known:
			err = app.WriteText(ctx, id, key.Text, false)
		default:
			err = app.WriteText(ctx, id, flagSendKeys, true)
		}
		if err != nil {
			return fmt.Errorf("failed to send keys to %s: %w", args[0], err)
		}
		fmt.Printf("Sent keys to %s: %s\n", args[0], flagSendKeys)
		return nil
	},
}

func init() {
	sendCmd.Flags().StringVar(&flagSendKeys, "keys", "", "special key name or control combination (e.g. enter, ctrl-c)")
	sendCmd.Flags().StringVar(&flagSendText, "text", "", "literal text to type, followed by Enter")
	rootCmd.AddCommand(sendCmd)
}
