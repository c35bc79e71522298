package workflow

import (
	"log/slog"
)

// Provider selects the chat backend.
type Provider string

const (
	ProviderOpenAI Provider = "openai"
	ProviderGemini Provider = "gemini"
)

// Config carries everything a pipeline run needs. Zero values disable the
// optional stages.
type Config struct {
	// Chat backend.
	Provider Provider
	Model    string
	APIKey   string
	BaseURL  string // optional, OpenAI-compatible endpoints

	// Feature switches.
	EnableDeepResearch    bool
	EnableImageGeneration bool
	EnableVideoGeneration bool
	Debug                 bool

	// Persistence.
	PersistOutput bool
	OutputDir     string
	CheckpointDir string // empty keeps checkpoints in memory

	// Web search.
	TavilyAPIKey string

	// Image generation (Azure AI Foundry FLUX deployment).
	FluxEndpoint   string
	FluxAPIKey     string
	FluxDeployment string

	// Video generation (Azure OpenAI Sora deployment).
	SoraEndpoint   string
	SoraAPIKey     string
	SoraDeployment string

	Logger *slog.Logger
}

// Validate checks that every enabled integration is configured. It runs at
// construction time, before any stage, so a missing credential never
// surfaces halfway through a run.
func (c *Config) Validate() error {
	var missing []string
	if c.Model == "" {
		missing = append(missing, "model")
	}
	switch c.Provider {
	case ProviderOpenAI, ProviderGemini:
		if c.APIKey == "" {
			missing = append(missing, string(c.Provider)+" api key")
		}
	default:
		missing = append(missing, "provider")
	}
	if c.TavilyAPIKey == "" {
		missing = append(missing, "tavily api key")
	}
	if c.EnableImageGeneration {
		if c.FluxEndpoint == "" {
			missing = append(missing, "flux endpoint (image generation enabled)")
		}
		if c.FluxAPIKey == "" {
			missing = append(missing, "flux api key (image generation enabled)")
		}
		if c.FluxDeployment == "" {
			missing = append(missing, "flux deployment (image generation enabled)")
		}
	}
	if c.EnableVideoGeneration {
		if c.SoraEndpoint == "" {
			missing = append(missing, "sora endpoint (video generation enabled)")
		}
		if c.SoraAPIKey == "" {
			missing = append(missing, "sora api key (video generation enabled)")
		}
		if c.SoraDeployment == "" {
			missing = append(missing, "sora deployment (video generation enabled)")
		}
	}
	if c.PersistOutput && c.OutputDir == "" {
		missing = append(missing, "output dir (persistence enabled)")
	}
	if len(missing) > 0 {
		return &ConfigurationError{Missing: missing}
	}
	return nil
}

func (c *Config) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}
