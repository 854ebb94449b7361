package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/timvw/iterm-relay/internal/diagnose"
	"github.com/timvw/iterm-relay/internal/model"
	"github.com/timvw/iterm-relay/internal/session"
)

var flagDiagnoseNoLLM bool

var diagnoseCmd = &cobra.Command{
	Use:   "diagnose <terminal-id>",
	Short: "Explain what a terminal is doing",
	Long: `Capture a terminal's screen and classify its state: busy, idle,
waiting for input, or unknown.

Obvious screens (idle shell prompt, password prompt, pager, empty
buffer) are classified deterministically. Anything else goes to an LLM,
which also proposes send-keys actions to move a waiting terminal along.
Use --no-llm to stay on the deterministic tier.

Outputs a JSON diagnosis to stdout.`,
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

		var eval diagnose.Evaluator
		if !flagDiagnoseNoLLM {
			eval, err = getEvaluator(cfg)
			if err != nil {
				// Degrade to the deterministic tier; ambiguous content
				// then comes back as "unknown".
				fmt.Fprintf(os.Stderr, "warning: LLM unavailable, deterministic classification only: %v\n", err)
			}
		}

		content, err := app.ReadOutput(cmd.Context(), id, cfg.CaptureLines)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", args[0], err)
		}

		term := model.Terminal{ID: args[0], WindowID: id.WindowID, Tab: id.Tab}
		d := &diagnose.Diagnoser{
			Evaluator: eval,
			Verbose:   flagVerbose,
		}
		diagnosis, err := d.Diagnose(cmd.Context(), term, content)
		if err != nil {
			return fmt.Errorf("diagnosis failed: %w", err)
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(diagnosis)
	},
}

func init() {
	diagnoseCmd.Flags().BoolVar(&flagDiagnoseNoLLM, "no-llm", false, "deterministic classification only, never call an LLM")
	rootCmd.AddCommand(diagnoseCmd)
}
