package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/brightwell/adforge/cmd/adforge/internal/config"
)

var (
	// Global flags
	verbose bool

	// Global configuration (loaded at init time)
	globalConfig *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "adforge",
	Short: "Agentic marketing campaign pipeline",
	Long: `adforge - generate complete marketing campaigns from a single topic.

A run walks a topic through strategy (optionally with multi-dimension deep
research), copywriting, image prompts, a storyboarded video script, and a
final campaign package. Image and video asset generation are opt-in.

Configuration is stored in the OS config directory:
  macOS:   ~/Library/Application Support/adforge/
  Linux:   ~/.config/adforge/
  Windows: %AppData%/adforge/

Use 'adforge config' to manage contexts and service credentials.

Examples:
  # Create a context and configure the LLM provider
  adforge config add-context dev
  adforge config set dev chat provider openai
  adforge config set dev chat api_key sk-xxx

  # Use the current context for runs
  adforge config use-context dev
  adforge run "AI-powered fitness coach app"

  # Full campaign with research and assets
  adforge run --deep-research --enable-image-gen "smart coffee grinder"`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// configLoadErr stores the error from config.Load() for deferred reporting.
var configLoadErr error

func initConfig() {
	cfg, err := config.Load()
	if err != nil {
		// Commands that need config get a clear error via GetConfig().
		// This keeps commands like 'adforge version' working.
		configLoadErr = err
		return
	}
	globalConfig = cfg
}

// GetConfig returns the global configuration.
// Returns an error if the config could not be loaded (e.g., HOME not set).
func GetConfig() (*config.Config, error) {
	if globalConfig == nil {
		if configLoadErr != nil {
			return nil, fmt.Errorf("config not available: %w", configLoadErr)
		}
		// Try loading again (e.g., dir was created since init).
		cfg, err := config.Load()
		if err != nil {
			return nil, fmt.Errorf("config not available: %w", err)
		}
		globalConfig = cfg
	}
	return globalConfig, nil
}

// IsVerbose returns whether verbose mode is enabled.
func IsVerbose() bool {
	return verbose
}
