// Package workflow drives the marketing content pipeline: a topic flows
// through strategy (plain or deep research), copywriting, optional image
// and video generation, and packaging, each stage appending its artifact to
// an immutable history.
package workflow

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/brightwell/adforge/pkg/campaign"
	"github.com/brightwell/adforge/pkg/checkpoint"
	"github.com/brightwell/adforge/pkg/chat"
	"github.com/brightwell/adforge/pkg/flux"
	"github.com/brightwell/adforge/pkg/sora"
	"github.com/brightwell/adforge/pkg/tavily"
)

// Result is the outcome of one pipeline run.
type Result struct {
	Package *campaign.CampaignPackage
	History History
	RunID   string
}

// Workflow is a fully wired pipeline. Build one with New, run topics
// through Run, and Close it when done.
type Workflow struct {
	cfg    *Config
	runner *Runner
	store  checkpoint.Store
}

// New validates the configuration, builds the provider clients and
// assembles the stage chain. The strategy variant (single-shot or deep
// research) is chosen here, once; Run never branches on it.
func New(ctx context.Context, cfg *Config, onEvent EventFunc) (*Workflow, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger := cfg.logger()

	var client chat.Client
	switch cfg.Provider {
	case ProviderOpenAI:
		client = chat.NewOpenAIClient(cfg.APIKey, cfg.BaseURL, cfg.Model)
	case ProviderGemini:
		c, err := chat.NewGeminiClient(ctx, cfg.APIKey, cfg.Model)
		if err != nil {
			return nil, fmt.Errorf("gemini client: %w", err)
		}
		client = c
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}

	var searcher Searcher = tavily.NewClient(cfg.TavilyAPIKey)

	var strategy Stage
	if cfg.EnableDeepResearch {
		strategy = &DeepResearchStage{Client: client, Searcher: searcher, Events: onEvent, Logger: logger}
	} else {
		strategy = &StrategyStage{Client: client, Searcher: searcher, Events: onEvent, Logger: logger}
	}

	stages := []Stage{
		strategy,
		&CopywritingStage{Client: client, Searcher: searcher, Events: onEvent, Logger: logger},
	}
	if cfg.EnableImageGeneration {
		stages = append(stages, &ImageStage{
			Client:   client,
			Renderer: flux.NewClient(cfg.FluxEndpoint, cfg.FluxAPIKey, cfg.FluxDeployment),
			AssetDir: cfg.assetDir("images"),
			Events:   onEvent,
			Logger:   logger,
		})
	}
	if cfg.EnableVideoGeneration {
		stages = append(stages, &VideoStage{
			Client:    client,
			Generator: sora.NewClient(cfg.SoraEndpoint, cfg.SoraAPIKey, cfg.SoraDeployment),
			AssetDir:  cfg.assetDir("video"),
			Events:    onEvent,
			Logger:    logger,
		})
	}

	var writer *campaign.Writer
	if cfg.PersistOutput {
		writer = campaign.NewWriter(cfg.OutputDir)
	}
	stages = append(stages, &PackagingStage{
		Writer:        writer,
		RequireImages: cfg.EnableImageGeneration,
		RequireVideo:  cfg.EnableVideoGeneration,
		Events:        onEvent,
		Logger:        logger,
	})

	store, err := newStore(cfg)
	if err != nil {
		return nil, err
	}

	return &Workflow{
		cfg: cfg,
		runner: &Runner{
			Stages:  stages,
			Store:   store,
			OnEvent: onEvent,
			Logger:  logger,
		},
		store: store,
	}, nil
}

func newStore(cfg *Config) (checkpoint.Store, error) {
	if cfg.CheckpointDir == "" {
		return checkpoint.NewMemory(), nil
	}
	store, err := checkpoint.NewBadger(checkpoint.BadgerOptions{Dir: cfg.CheckpointDir})
	if err != nil {
		return nil, fmt.Errorf("checkpoint store: %w", err)
	}
	return store, nil
}

func (c *Config) assetDir(kind string) string {
	if !c.PersistOutput || c.OutputDir == "" {
		return ""
	}
	return filepath.Join(c.OutputDir, "assets", kind)
}

// Run drives one topic through the full pipeline and returns the assembled
// package.
func (w *Workflow) Run(ctx context.Context, topic string) (*Result, error) {
	if topic == "" {
		return nil, fmt.Errorf("topic is empty")
	}
	h, runID, err := w.runner.Run(ctx, topic)
	if err != nil {
		return nil, err
	}
	pkg, ok := h.Package()
	if !ok {
		return nil, &IncompleteCampaignError{Missing: []string{string(KindPackage)}}
	}
	return &Result{Package: pkg, History: h, RunID: runID}, nil
}

// Checkpoints lists the saved records of a run.
func (w *Workflow) Checkpoints(ctx context.Context, runID string) ([]*checkpoint.Record, error) {
	var out []*checkpoint.Record
	for rec, err := range w.store.List(ctx, runID) {
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// Close releases the checkpoint store.
func (w *Workflow) Close() error {
	return w.store.Close()
}
