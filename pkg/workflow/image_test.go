package workflow

import (
	"context"
	"encoding/base64"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/brightwell/adforge/pkg/campaign"
	"github.com/brightwell/adforge/pkg/chat"
	"github.com/brightwell/adforge/pkg/flux"
)

// fakeRenderer serves one canned image per request.
type fakeRenderer struct {
	mu    sync.Mutex
	reqs  []*flux.GenerateRequest
	fail  bool
	image flux.Image
}

func (r *fakeRenderer) Generate(_ context.Context, req *flux.GenerateRequest) (*flux.GenerateResponse, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reqs = append(r.reqs, req)
	if r.fail {
		return nil, errors.New("content_policy_violation")
	}
	return &flux.GenerateResponse{Data: []flux.Image{r.image}}, nil
}

const imageContentJSON = `{
  "prompts": [
    {"prompt_id": "prompt-01", "prompt": "runner at sunrise, cinematic lighting", "scene_description": "Morning run"},
    {"prompt_id": "prompt-02", "prompt": "home workout corner, warm tones", "scene_description": "Home setup"}
  ]
}`


func TestImageStagePromptsOnlyWithoutRenderer(t *testing.T) {
	client := &fakeClient{responses: []*chat.Response{textResponse(imageContentJSON)}}
	stage := &ImageStage{Client: client}

	recs, err := stage.Run(context.Background(), "AI Fitness Coach", contentHistory(t))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	content := recs[0].Payload.(*campaign.ImageContent)
	if len(content.Prompts) != 2 {
		t.Errorf("prompts = %d", len(content.Prompts))
	}
	if len(content.Assets) != 0 {
		t.Errorf("assets without renderer = %+v", content.Assets)
	}
	if len(client.requests[0].Tools) != 0 {
		t.Error("tool offered without renderer")
	}
}

func TestImageStageRendersAndSavesAssets(t *testing.T) {
	dir := t.TempDir()
	renderer := &fakeRenderer{image: flux.Image{
		B64JSON:       base64.StdEncoding.EncodeToString([]byte("png-bytes")),
		RevisedPrompt: "runner at golden hour",
	}}
	client := &fakeClient{responses: []*chat.Response{
		toolCallResponse(chat.ToolCall{
			ID:        "c1",
			Name:      "generate_image",
			Arguments: `{"prompt":"runner at sunrise","prompt_id":"prompt-01"}`,
		}),
		textResponse(imageContentJSON),
	}}
	stage := &ImageStage{Client: client, Renderer: renderer, AssetDir: dir}

	recs, err := stage.Run(context.Background(), "AI Fitness Coach", contentHistory(t))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	content := recs[0].Payload.(*campaign.ImageContent)
	if len(content.Assets) != 1 {
		t.Fatalf("assets = %+v", content.Assets)
	}
	asset := content.Assets[0]
	if asset.PromptID != "prompt-01" || asset.RevisedPrompt != "runner at golden hour" {
		t.Errorf("asset = %+v", asset)
	}
	data, err := os.ReadFile(filepath.Join(dir, "prompt-01.png"))
	if err != nil {
		t.Fatalf("saved asset: %v", err)
	}
	if string(data) != "png-bytes" {
		t.Errorf("asset bytes = %q", data)
	}
	if asset.LocalPath == "" {
		t.Error("local path not recorded")
	}
}

func TestImageStageSurvivesFailedGeneration(t *testing.T) {
	renderer := &fakeRenderer{fail: true}
	client := &fakeClient{responses: []*chat.Response{
		toolCallResponse(chat.ToolCall{
			ID:        "c1",
			Name:      "generate_image",
			Arguments: `{"prompt":"runner","prompt_id":"prompt-01"}`,
		}),
		// The model acknowledges the failure and still returns prompts.
		textResponse(imageContentJSON),
	}}
	stage := &ImageStage{Client: client, Renderer: renderer}

	recs, err := stage.Run(context.Background(), "AI Fitness Coach", contentHistory(t))
	if err != nil {
		t.Fatalf("stage should survive a failed render: %v", err)
	}
	content := recs[0].Payload.(*campaign.ImageContent)
	if len(content.Assets) != 0 {
		t.Errorf("assets = %+v", content.Assets)
	}
}

func TestImageStageRejectsEmptyPrompts(t *testing.T) {
	client := &fakeClient{responses: []*chat.Response{textResponse(`{"prompts": []}`)}}
	stage := &ImageStage{Client: client}

	_, err := stage.Run(context.Background(), "topic", contentHistory(t))
	var se *SchemaError
	if !errors.As(err, &se) {
		t.Fatalf("err = %v, want SchemaError", err)
	}
}
