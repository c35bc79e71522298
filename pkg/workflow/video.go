package workflow

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/brightwell/adforge/pkg/campaign"
	"github.com/brightwell/adforge/pkg/chat"
	"github.com/brightwell/adforge/pkg/sora"
)

const StageVideo = "video"

// maxVideoJobs caps simultaneous generation calls; the provider rejects
// anything beyond two.
const maxVideoJobs = 2

const defaultVideoSize = "1280x720"

// VideoGenerator renders clips from prompts. *sora.Client implements it.
type VideoGenerator interface {
	Generate(ctx context.Context, req *sora.CreateJobRequest) (*sora.JobResult, error)
	Download(ctx context.Context, generationID string, w io.Writer) error
}

// VideoStage writes the three-act video script and, with a Generator
// attached, renders each scene through the generate_video tool. Scene
// durations outside the supported set are rejected before any generation
// call is made.
type VideoStage struct {
	Client    chat.Client
	Generator VideoGenerator
	Events    EventFunc
	Logger    *slog.Logger

	// AssetDir, when set, receives the rendered clips.
	AssetDir string
}

func (s *VideoStage) Name() string { return StageVideo }

func (s *VideoStage) Run(ctx context.Context, _ string, h History) ([]Record, error) {
	strategy, ok := h.Strategy()
	if !ok {
		return nil, errors.New("no marketing strategy in history")
	}
	copywriting, ok := h.Copywriting()
	if !ok {
		return nil, errors.New("no copywriting content in history")
	}

	em := newEmitter(s.Events)
	collector := &assetCollector[campaign.GeneratedVideo]{}
	var tools []*chat.FuncTool
	if s.Generator != nil {
		tools = append(tools, s.generateTool(collector, em))
	}

	text, err := runAgent(ctx, s.Client, StageVideo,
		videoInstructions(s.Generator != nil), videoPrompt(strategy, copywriting), tools, em, s.Logger)
	if err != nil {
		return nil, err
	}

	script, err := decodeStageJSON[campaign.VideoScript](StageVideo, text)
	if err != nil {
		return nil, err
	}
	normalizeScript(script)
	if len(script.Assets) == 0 {
		script.Assets = collector.all()
	}
	if err := script.Validate(); err != nil {
		return nil, &SchemaError{Stage: StageVideo, Detail: "unusable video script", Err: err}
	}
	return []Record{{Kind: KindVideo, Stage: StageVideo, Payload: script}}, nil
}

// normalizeScript clamps scene durations to the supported set and recomputes
// the total.
func normalizeScript(v *campaign.VideoScript) {
	total := 0
	for i := range v.Scenes {
		scene := &v.Scenes[i]
		if scene.DurationSeconds != 0 && !sora.IsValidDuration(scene.DurationSeconds) {
			scene.DurationSeconds = sora.NearestDuration(scene.DurationSeconds)
		}
		total += scene.DurationSeconds
	}
	if total > 0 {
		v.TotalDurationSeconds = total
	}
}

type generateVideoArgs struct {
	Prompt  string `json:"prompt"`
	SceneID string `json:"scene_id"`
	Seconds int    `json:"seconds"`
	Size    string `json:"size,omitempty"`
}

func (s *VideoStage) generateTool(collector *assetCollector[campaign.GeneratedVideo], em *emitter) *chat.FuncTool {
	// Semaphore honoring the provider's concurrency ceiling; the agent
	// loop is sequential today, the cap holds even if that changes.
	sem := make(chan struct{}, maxVideoJobs)

	return chat.MustNewFuncTool("generate_video",
		"Generate one video clip from an English prompt. Duration must be 4, 8 or 12 seconds.",
		func(ctx context.Context, args generateVideoArgs) (any, error) {
			if args.Prompt == "" {
				return nil, fmt.Errorf("prompt is required")
			}
			if args.SceneID == "" {
				return nil, fmt.Errorf("scene_id is required")
			}
			if !sora.IsValidDuration(args.Seconds) {
				return nil, fmt.Errorf("seconds must be one of %v, got %d", sora.ValidDurations, args.Seconds)
			}
			width, height, err := parseSize(args.Size)
			if err != nil {
				return nil, err
			}

			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			defer func() { <-sem }()

			em.emit(Event{Type: EventToolCall, Stage: StageVideo, Message: "render " + args.SceneID})
			result, err := s.Generator.Generate(ctx, &sora.CreateJobRequest{
				Prompt:  args.Prompt,
				Width:   width,
				Height:  height,
				Seconds: args.Seconds,
			})
			if err != nil {
				return nil, &ToolError{Tool: "generate_video", Query: args.SceneID, Err: err}
			}

			asset := campaign.GeneratedVideo{
				SceneID:         args.SceneID,
				Prompt:          args.Prompt,
				DurationSeconds: args.Seconds,
			}
			if s.AssetDir != "" {
				path, err := s.saveClip(ctx, args.SceneID, result.GenerationID)
				if err != nil {
					s.logger().Warn("video asset not saved", "scene_id", args.SceneID, "error", err)
				} else {
					asset.LocalPath = path
				}
			}
			collector.add(asset)
			return asset, nil
		})
}

// saveClip downloads the rendered generation under AssetDir.
func (s *VideoStage) saveClip(ctx context.Context, sceneID, generationID string) (string, error) {
	if err := os.MkdirAll(s.AssetDir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(s.AssetDir, campaign.Slugify(sceneID, 60)+".mp4")
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	if err := s.Generator.Download(ctx, generationID, f); err != nil {
		os.Remove(path)
		return "", err
	}
	return path, nil
}

// parseSize splits "1280x720" into width and height. Empty means the
// default landscape size.
func parseSize(size string) (width, height int, err error) {
	if size == "" {
		size = defaultVideoSize
	}
	w, h, ok := strings.Cut(size, "x")
	if !ok {
		return 0, 0, fmt.Errorf("size must look like %q, got %q", defaultVideoSize, size)
	}
	width, err = strconv.Atoi(strings.TrimSpace(w))
	if err != nil {
		return 0, 0, fmt.Errorf("bad width in size %q", size)
	}
	height, err = strconv.Atoi(strings.TrimSpace(h))
	if err != nil {
		return 0, 0, fmt.Errorf("bad height in size %q", size)
	}
	return width, height, nil
}

func (s *VideoStage) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}
