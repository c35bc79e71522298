package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/brightwell/adforge/pkg/campaign"
	"github.com/brightwell/adforge/pkg/chat"
	"github.com/brightwell/adforge/pkg/flux"
)

const StageImage = "image"

// ImageRenderer renders images from prompts. *flux.Client implements it.
type ImageRenderer interface {
	Generate(ctx context.Context, req *flux.GenerateRequest) (*flux.GenerateResponse, error)
}

// ImageStage designs image prompts from the strategy and copywriting, and
// with a Renderer attached also generates the assets through the
// generate_image tool. A failed generation call is reported back to the
// model; the stage fails only when its structured output is unusable.
type ImageStage struct {
	Client   chat.Client
	Renderer ImageRenderer
	Events   EventFunc
	Logger   *slog.Logger

	// AssetDir, when set, receives the rendered image files.
	AssetDir string

	// Size is the render size, e.g. "1024x1024". Empty leaves it to the
	// deployment default.
	Size string
}

func (s *ImageStage) Name() string { return StageImage }

func (s *ImageStage) Run(ctx context.Context, _ string, h History) ([]Record, error) {
	strategy, ok := h.Strategy()
	if !ok {
		return nil, errors.New("no marketing strategy in history")
	}
	copywriting, ok := h.Copywriting()
	if !ok {
		return nil, errors.New("no copywriting content in history")
	}

	em := newEmitter(s.Events)
	collector := &assetCollector[campaign.GeneratedImage]{}
	var tools []*chat.FuncTool
	if s.Renderer != nil {
		tools = append(tools, s.generateTool(collector, em))
	}

	text, err := runAgent(ctx, s.Client, StageImage,
		imageInstructions(s.Renderer != nil), imagePrompt(strategy, copywriting), tools, em, s.Logger)
	if err != nil {
		return nil, err
	}

	content, err := decodeStageJSON[campaign.ImageContent](StageImage, text)
	if err != nil {
		return nil, err
	}
	if len(content.Assets) == 0 {
		content.Assets = collector.all()
	}
	if err := content.Validate(); err != nil {
		return nil, &SchemaError{Stage: StageImage, Detail: "unusable image content", Err: err}
	}
	return []Record{{Kind: KindImage, Stage: StageImage, Payload: content}}, nil
}

type generateImageArgs struct {
	Prompt   string `json:"prompt"`
	PromptID string `json:"prompt_id"`
}

func (s *ImageStage) generateTool(collector *assetCollector[campaign.GeneratedImage], em *emitter) *chat.FuncTool {
	return chat.MustNewFuncTool("generate_image",
		"Generate one marketing image from an English prompt. Returns the stored asset record.",
		func(ctx context.Context, args generateImageArgs) (any, error) {
			if args.Prompt == "" {
				return nil, fmt.Errorf("prompt is required")
			}
			if args.PromptID == "" {
				return nil, fmt.Errorf("prompt_id is required")
			}
			resp, err := s.Renderer.Generate(ctx, &flux.GenerateRequest{
				Prompt:       args.Prompt,
				Size:         s.Size,
				OutputFormat: "png",
			})
			if err != nil {
				return nil, &ToolError{Tool: "generate_image", Query: args.PromptID, Err: err}
			}
			if len(resp.Data) == 0 {
				return nil, &ToolError{Tool: "generate_image", Query: args.PromptID, Err: errors.New("empty response")}
			}
			img := resp.Data[0]
			asset := campaign.GeneratedImage{
				PromptID:      args.PromptID,
				URL:           img.URL,
				RevisedPrompt: img.RevisedPrompt,
				Prompt:        args.Prompt,
			}
			if s.AssetDir != "" {
				path, err := s.saveAsset(ctx, args.PromptID, &img)
				if err != nil {
					s.logger().Warn("image asset not saved", "prompt_id", args.PromptID, "error", err)
				} else {
					asset.LocalPath = path
				}
			}
			collector.add(asset)
			return asset, nil
		})
}

// saveAsset writes the rendered image under AssetDir.
func (s *ImageStage) saveAsset(ctx context.Context, promptID string, img *flux.Image) (string, error) {
	data, err := img.Bytes(ctx, nil)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(s.AssetDir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(s.AssetDir, campaign.Slugify(promptID, 60)+".png")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

func (s *ImageStage) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

// assetCollector keeps tool-generated assets in call order so the stage can
// recover them when the model forgets to echo the assets array.
type assetCollector[T any] struct {
	mu     sync.Mutex
	assets []T
}

func (c *assetCollector[T]) add(asset T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.assets = append(c.assets, asset)
}

func (c *assetCollector[T]) all() []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]T, len(c.assets))
	copy(out, c.assets)
	return out
}
