package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/timvw/iterm-relay/internal/automation"
	"github.com/timvw/iterm-relay/internal/config"
	"github.com/timvw/iterm-relay/internal/diagnose"
	"github.com/timvw/iterm-relay/internal/iterm"
)

// Version is stamped at build time via -ldflags.
var Version = "dev"

var (
	// Global flags.
	flagOsascript string
	flagTimeout   string
	flagVerbose   bool
)

var rootCmd = &cobra.Command{
	Use:   "iterm-relay",
	Short: "MCP server that lets AI assistants drive iTerm2 terminals",
	Long: `iterm-relay exposes iTerm2 terminal control to AI assistants over the
Model Context Protocol.

The serve command speaks MCP on stdin/stdout and offers tools to open
terminals, run commands, read output, and send keystrokes. All terminal
access goes through osascript, so the assistant sees exactly what a user
at the keyboard would see.

Terminal identifiers (term-<window>-<tab>) carry all addressing state;
the relay keeps no session registry and survives restarts without losing
track of terminals.`,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagOsascript, "osascript", envOrDefault("ITERM_RELAY_OSASCRIPT", ""), "path to the osascript binary (default: resolve from PATH)")
	rootCmd.PersistentFlags().StringVar(&flagTimeout, "timeout", "", "per-invocation osascript timeout, e.g. 30s (0/off disables)")
	rootCmd.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "include raw screen content in diagnose output")
}

// loadConfig resolves the effective configuration: defaults, config file,
// environment, then command-line flags on top.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if flagTimeout != "" {
		cfg.Timeout = flagTimeout
		cfg.TimeoutDuration, err = config.ParseDurationOrDisable(flagTimeout)
		if err != nil {
			return nil, fmt.Errorf("invalid --timeout %q: %w", flagTimeout, err)
		}
	}
	return cfg, nil
}

// newRunner builds the osascript executor for the resolved config.
func newRunner(cfg *config.Config, logger *slog.Logger) *automation.Osascript {
	r := automation.New()
	if flagOsascript != "" {
		r.Bin = flagOsascript
	}
	r.Timeout = cfg.TimeoutDuration
	r.Logger = logger
	return r
}

// newApp builds an iTerm2 controller for the debug subcommands. Fails
// fast when osascript is not on this host.
func newApp(cfg *config.Config) (*iterm.App, error) {
	if flagOsascript == "" {
		if err := automation.Detect(); err != nil {
			return nil, fmt.Errorf("osascript not available (is this macOS?): %w", err)
		}
	}
	return iterm.New(newRunner(cfg, nil)), nil
}

// getEvaluator returns the configured LLM evaluator for diagnose.
func getEvaluator(cfg *config.Config) (diagnose.Evaluator, error) {
	switch cfg.Provider {
	case "anthropic":
		return newAnthropicEvaluator(cfg)
	case "openai":
		return newOpenAIEvaluator(cfg)
	default:
		return nil, fmt.Errorf("unknown provider %q (supported: anthropic, openai)", cfg.Provider)
	}
}

// newAnthropicEvaluator creates an Anthropic evaluator with the resolved config.
func newAnthropicEvaluator(cfg *config.Config) (diagnose.Evaluator, error) {
	model := cfg.Model
	if model == "" {
		model = "claude-sonnet-4-5"
	}

	baseURL := cfg.BaseURL
	apiKey := cfg.APIKey
	extraHeaders := map[string]string{}

	// Resolve base URL and API key from environment.
	if baseURL == "" {
		resourceName := os.Getenv("AZURE_RESOURCE_NAME")
		if resourceName != "" {
			// The Anthropic SDK appends /v1/messages to the base URL, so the
			// Azure AI Foundry endpoint stops at .../anthropic/.
			baseURL = fmt.Sprintf("https://%s.services.ai.azure.com/anthropic/", resourceName)
		}
	}
	if apiKey == "" {
		apiKey = os.Getenv("AZURE_OPENAI_API_KEY")
	}
	if apiKey == "" {
		// Direct Anthropic API: the SDK default base URL applies.
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
	}

	if apiKey == "" {
		return nil, fmt.Errorf("no API key found. Set ITERM_RELAY_API_KEY, AZURE_OPENAI_API_KEY, or ANTHROPIC_API_KEY")
	}

	// Azure AI Foundry needs both "api-key" (Azure) and "x-api-key" (Anthropic SDK default) headers.
	if os.Getenv("AZURE_RESOURCE_NAME") != "" || config.IsAzureEndpoint(baseURL) {
		extraHeaders["api-key"] = apiKey
	}

	return diagnose.NewAnthropicEvaluator(diagnose.AnthropicConfig{
		BaseURL:      baseURL,
		APIKey:       apiKey,
		Model:        model,
		MaxTokens:    cfg.MaxTokens,
		ExtraHeaders: extraHeaders,
	}), nil
}

// newOpenAIEvaluator creates an OpenAI evaluator with the resolved config.
func newOpenAIEvaluator(cfg *config.Config) (diagnose.Evaluator, error) {
	model := cfg.Model
	if model == "" || model == "claude-sonnet-4-5" {
		model = "gpt-4o-mini"
	}

	baseURL := cfg.BaseURL
	apiKey := cfg.APIKey
	extraHeaders := map[string]string{}

	if baseURL == "" {
		resourceName := os.Getenv("AZURE_RESOURCE_NAME")
		if resourceName != "" {
			baseURL = fmt.Sprintf("https://%s.openai.azure.com/openai/v1", resourceName)
		}
	}
	if apiKey == "" {
		apiKey = os.Getenv("AZURE_OPENAI_API_KEY")
	}
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}

	if apiKey == "" {
		return nil, fmt.Errorf("no API key found. Set ITERM_RELAY_API_KEY, AZURE_OPENAI_API_KEY, or OPENAI_API_KEY")
	}

	if os.Getenv("AZURE_RESOURCE_NAME") != "" || config.IsAzureEndpoint(baseURL) {
		extraHeaders["api-key"] = apiKey
	}

	return diagnose.NewOpenAIEvaluator(diagnose.OpenAIConfig{
		BaseURL:      baseURL,
		APIKey:       apiKey,
		Model:        model,
		MaxTokens:    cfg.MaxTokens,
		ExtraHeaders: extraHeaders,
	}), nil
}

func envOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}
