package commands

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/brightwell/adforge/cmd/adforge/internal/config"
	"github.com/brightwell/adforge/pkg/cli"
	"github.com/brightwell/adforge/pkg/workflow"
)

type runFlagsType struct {
	file          string
	context       string
	deepResearch  bool
	imageGen      bool
	videoGen      bool
	debug         bool
	noPersist     bool
	outputDir     string
	checkpoints   bool
	checkpointDir string
	provider      string
	model         string
	baseURL       string
	outputFile    string
	format        string
	filter        string
}

var runFlags runFlagsType

// runRequest is the YAML/JSON request file shape for 'run -f'.
type runRequest struct {
	Topic          string `yaml:"topic" json:"topic"`
	DeepResearch   bool   `yaml:"deep_research" json:"deep_research"`
	EnableImageGen bool   `yaml:"enable_image_gen" json:"enable_image_gen"`
	EnableVideoGen bool   `yaml:"enable_video_gen" json:"enable_video_gen"`
	OutputDir      string `yaml:"output_dir" json:"output_dir"`
}

var runCmd = &cobra.Command{
	Use:   "run <topic>",
	Short: "Run the campaign pipeline for a topic",
	Long: `Run the full marketing campaign pipeline for a product topic.

Credentials come from the active context (chat.yaml, tavily.yaml, flux.yaml,
sora.yaml), with environment variables as fallback. A .env file in the
working directory is loaded first.

Examples:
  adforge run "AI-powered fitness coach app"
  adforge run --deep-research "smart coffee grinder"
  adforge run --enable-image-gen --enable-video-gen "noise-canceling earbuds"
  adforge run --format json --filter '.copywriting.hero_message' "solar charger"
  adforge run -f campaign.yaml`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		topic, err := resolveRunRequest(args)
		if err != nil {
			return err
		}

		// Optional .env in the working directory.
		_ = godotenv.Load()

		cfg, err := buildWorkflowConfig()
		if err != nil {
			return err
		}

		// Progress goes to stderr so the package on stdout stays pipeable.
		progress := cli.NewProgress(os.Stderr)

		wf, err := workflow.New(cmd.Context(), cfg, progressEvents(progress))
		if err != nil {
			return err
		}
		defer wf.Close()

		result, err := wf.Run(cmd.Context(), topic)
		if err != nil {
			var inc *workflow.IncompleteCampaignError
			if errors.As(err, &inc) {
				return fmt.Errorf("campaign incomplete: missing %s", strings.Join(inc.Missing, ", "))
			}
			return err
		}

		progress.Detail("run %s", result.RunID)
		if result.Package.PackagePath != "" {
			progress.Detail("package %s", result.Package.PackagePath)
		}

		return cli.Output(result.Package, cli.OutputOptions{
			Format: cli.OutputFormat(runFlags.format),
			File:   runFlags.outputFile,
			Filter: runFlags.filter,
		})
	},
}

// resolveRunRequest merges the optional request file into the run flags and
// returns the topic. A topic argument wins over the file's topic; file
// toggles only switch features on.
func resolveRunRequest(args []string) (string, error) {
	var req runRequest
	if runFlags.file != "" {
		var err error
		if runFlags.file == "-" {
			err = cli.LoadRequestFromStdin(&req)
		} else {
			err = cli.LoadRequest(runFlags.file, &req)
		}
		if err != nil {
			return "", err
		}
		runFlags.deepResearch = runFlags.deepResearch || req.DeepResearch
		runFlags.imageGen = runFlags.imageGen || req.EnableImageGen
		runFlags.videoGen = runFlags.videoGen || req.EnableVideoGen
		if req.OutputDir != "" {
			runFlags.outputDir = req.OutputDir
		}
	}

	topic := req.Topic
	if len(args) == 1 {
		topic = args[0]
	}
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return "", fmt.Errorf("topic is empty (pass it as an argument or in the request file)")
	}
	return topic, nil
}

// buildWorkflowConfig assembles the pipeline configuration from the active
// context, environment variables and flags. Flags win over context values,
// which win over environment variables.
func buildWorkflowConfig() (*workflow.Config, error) {
	cfg := &workflow.Config{
		EnableDeepResearch:    runFlags.deepResearch,
		EnableImageGeneration: runFlags.imageGen,
		EnableVideoGeneration: runFlags.videoGen,
		Debug:                 runFlags.debug,
		PersistOutput:         !runFlags.noPersist,
		OutputDir:             runFlags.outputDir,
		CheckpointDir:         runFlags.checkpointDir,
	}
	if cfg.CheckpointDir == "" && runFlags.checkpoints {
		dir, err := defaultCheckpointDir()
		if err != nil {
			return nil, err
		}
		cfg.CheckpointDir = dir
	}

	// Environment fallbacks first, then context files on top.
	cfg.TavilyAPIKey = os.Getenv("TAVILY_API_KEY")
	cfg.FluxEndpoint = os.Getenv("FLUX_ENDPOINT")
	cfg.FluxAPIKey = os.Getenv("FLUX_API_KEY")
	cfg.FluxDeployment = os.Getenv("FLUX_DEPLOYMENT")
	cfg.SoraEndpoint = os.Getenv("SORA_ENDPOINT")
	cfg.SoraAPIKey = os.Getenv("SORA_API_KEY")
	cfg.SoraDeployment = os.Getenv("SORA_DEPLOYMENT")
	cfg.BaseURL = os.Getenv("OPENAI_BASE_URL")
	cfg.Model = os.Getenv("ADFORGE_CHAT_MODEL")

	provider := runFlags.provider

	if rootCfg, err := GetConfig(); err == nil {
		if dir, err := rootCfg.ResolveContext(runFlags.context); err == nil {
			applyContext(cfg, &provider, dir)
		} else if runFlags.context != "" {
			// An explicitly named context must exist.
			return nil, err
		}
	} else if runFlags.context != "" {
		return nil, err
	}

	if provider == "" {
		provider = "openai"
	}
	cfg.Provider = workflow.Provider(provider)

	if cfg.APIKey == "" {
		switch cfg.Provider {
		case workflow.ProviderOpenAI:
			cfg.APIKey = os.Getenv("OPENAI_API_KEY")
		case workflow.ProviderGemini:
			cfg.APIKey = os.Getenv("GEMINI_API_KEY")
		}
	}
	if runFlags.model != "" {
		cfg.Model = runFlags.model
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel(cfg.Provider)
	}
	if runFlags.baseURL != "" {
		cfg.BaseURL = runFlags.baseURL
	}

	cfg.Logger = newRunLogger(runFlags.debug)
	return cfg, nil
}

// applyContext overlays service config files from a context directory.
// Missing service files are fine; env values stay in place.
func applyContext(cfg *workflow.Config, provider *string, dir string) {
	if chat, err := config.LoadService[config.ChatConfig](dir, config.ServiceChat); err == nil {
		if *provider == "" {
			*provider = chat.Provider
		}
		if chat.Model != "" {
			cfg.Model = chat.Model
		}
		if chat.APIKey != "" {
			cfg.APIKey = chat.APIKey
		}
		if chat.BaseURL != "" {
			cfg.BaseURL = chat.BaseURL
		}
	}
	if tv, err := config.LoadService[config.TavilyConfig](dir, config.ServiceTavily); err == nil && tv.APIKey != "" {
		cfg.TavilyAPIKey = tv.APIKey
	}
	if fx, err := config.LoadService[config.FluxConfig](dir, config.ServiceFlux); err == nil {
		if fx.Endpoint != "" {
			cfg.FluxEndpoint = fx.Endpoint
		}
		if fx.APIKey != "" {
			cfg.FluxAPIKey = fx.APIKey
		}
		if fx.Deployment != "" {
			cfg.FluxDeployment = fx.Deployment
		}
	}
	if so, err := config.LoadService[config.SoraConfig](dir, config.ServiceSora); err == nil {
		if so.Endpoint != "" {
			cfg.SoraEndpoint = so.Endpoint
		}
		if so.APIKey != "" {
			cfg.SoraAPIKey = so.APIKey
		}
		if so.Deployment != "" {
			cfg.SoraDeployment = so.Deployment
		}
	}
}

func defaultModel(p workflow.Provider) string {
	switch p {
	case workflow.ProviderGemini:
		return "gemini-2.0-flash"
	default:
		return "gpt-4o"
	}
}

func newRunLogger(debug bool) *slog.Logger {
	level := slog.LevelWarn
	if debug {
		level = slog.LevelDebug
	} else if IsVerbose() {
		level = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// progressEvents maps pipeline events onto progress lines.
func progressEvents(p *cli.Progress) workflow.EventFunc {
	return func(evt workflow.Event) {
		switch evt.Type {
		case workflow.EventStageStart:
			p.StepStart(evt.Stage)
		case workflow.EventStageDone:
			p.StepDone(evt.Stage)
		case workflow.EventStageError:
			p.StepFail(evt.Stage, evt.Err)
		case workflow.EventSearchQuery:
			p.Detail("search %q", evt.Message)
		case workflow.EventToolCall:
			p.Detail("%s", evt.Message)
		case workflow.EventCheckpoint:
			p.Detail("checkpoint %s", evt.Stage)
		}
	}
}

func init() {
	f := runCmd.Flags()
	f.StringVarP(&runFlags.file, "file", "f", "", "request YAML/JSON file (use '-' for stdin)")
	f.StringVarP(&runFlags.context, "context", "c", "", "config context to use")
	f.BoolVar(&runFlags.deepResearch, "deep-research", false, "multi-dimension web research before strategy")
	f.BoolVar(&runFlags.imageGen, "enable-image-gen", false, "generate image assets via FLUX")
	f.BoolVar(&runFlags.videoGen, "enable-video-gen", false, "generate video clips via Sora")
	f.BoolVar(&runFlags.debug, "debug", false, "debug logging")
	f.BoolVar(&runFlags.noPersist, "no-persist", false, "skip writing the campaign package to disk")
	f.StringVar(&runFlags.outputDir, "output-dir", "campaign_output", "directory for persisted campaigns")
	f.BoolVar(&runFlags.checkpoints, "checkpoints", false, "save durable checkpoints to the default data dir")
	f.StringVar(&runFlags.checkpointDir, "checkpoint-dir", "", "directory for durable checkpoints (default in-memory)")
	f.StringVar(&runFlags.provider, "provider", "", "chat provider (openai or gemini)")
	f.StringVar(&runFlags.model, "model", "", "chat model ID")
	f.StringVar(&runFlags.baseURL, "base-url", "", "OpenAI-compatible base URL")
	f.StringVarP(&runFlags.outputFile, "output", "o", "", "write the package to a file instead of stdout")
	f.StringVar(&runFlags.format, "format", "yaml", "output format (yaml, json, raw)")
	f.StringVar(&runFlags.filter, "filter", "", "jq expression applied to the package")
	rootCmd.AddCommand(runCmd)
}
