package workflow

import (
	"context"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/brightwell/adforge/pkg/campaign"
	"github.com/brightwell/adforge/pkg/chat"
	"github.com/brightwell/adforge/pkg/sora"
)

// fakeGenerator records render requests and serves canned results.
type fakeGenerator struct {
	mu   sync.Mutex
	reqs []*sora.CreateJobRequest
}

func (g *fakeGenerator) Generate(_ context.Context, req *sora.CreateJobRequest) (*sora.JobResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.reqs = append(g.reqs, req)
	return &sora.JobResult{JobID: "job-1", GenerationID: "gen-1"}, nil
}

func (g *fakeGenerator) Download(_ context.Context, _ string, w io.Writer) error {
	_, err := w.Write([]byte("mp4"))
	return err
}

const videoScriptJSON = `{
  "structure_notes": ["Problem", "Solution", "Transformation"],
  "scenes": [
    {"scene_number": 1, "act": "Problem", "visuals": "Tired commuter", "voiceover": "No time to train?", "duration_seconds": 4},
    {"scene_number": 2, "act": "Solution", "visuals": "Quick home workout", "voiceover": "Fifteen minutes is enough.", "duration_seconds": 8}
  ],
  "total_duration_seconds": 12,
  "cta": "Download the app"
}`

func TestVideoToolRejectsUnsupportedDurationBeforeGeneration(t *testing.T) {
	gen := &fakeGenerator{}
	stage := &VideoStage{Generator: gen}
	collector := &assetCollector[campaign.GeneratedVideo]{}
	tool := stage.generateTool(collector, newEmitter(nil))

	_, err := tool.Invoke(context.Background(), `{"prompt":"a scene","scene_id":"scene-01","seconds":6}`)
	if err == nil {
		t.Fatal("duration 6 accepted")
	}
	if !strings.Contains(err.Error(), "seconds") {
		t.Errorf("err = %v", err)
	}
	if len(gen.reqs) != 0 {
		t.Fatalf("generator called %d times for invalid duration", len(gen.reqs))
	}
}

func TestVideoToolGeneratesScene(t *testing.T) {
	gen := &fakeGenerator{}
	stage := &VideoStage{Generator: gen}
	collector := &assetCollector[campaign.GeneratedVideo]{}
	tool := stage.generateTool(collector, newEmitter(nil))

	out, err := tool.Invoke(context.Background(), `{"prompt":"runner at dawn","scene_id":"scene-01","seconds":8,"size":"720x1280"}`)
	if err != nil {
		t.Fatalf("invoke: %v", err)
	}
	asset, ok := out.(campaign.GeneratedVideo)
	if !ok {
		t.Fatalf("result = %T", out)
	}
	if asset.SceneID != "scene-01" || asset.DurationSeconds != 8 {
		t.Errorf("asset = %+v", asset)
	}
	req := gen.reqs[0]
	if req.Width != 720 || req.Height != 1280 || req.Seconds != 8 {
		t.Errorf("request = %+v", req)
	}
	if got := collector.all(); len(got) != 1 {
		t.Errorf("collected assets = %v", got)
	}
}

func TestVideoToolDefaultsToLandscape(t *testing.T) {
	gen := &fakeGenerator{}
	stage := &VideoStage{Generator: gen}
	collector := &assetCollector[campaign.GeneratedVideo]{}
	tool := stage.generateTool(collector, newEmitter(nil))

	if _, err := tool.Invoke(context.Background(), `{"prompt":"runner at dawn","scene_id":"scene-01","seconds":4}`); err != nil {
		t.Fatalf("invoke: %v", err)
	}
	req := gen.reqs[0]
	if req.Width != 1280 || req.Height != 720 {
		t.Errorf("request size = %dx%d, want 1280x720", req.Width, req.Height)
	}
}

func TestVideoStageProducesScript(t *testing.T) {
	client := &fakeClient{responses: []*chat.Response{
		toolCallResponse(chat.ToolCall{
			ID:        "c1",
			Name:      "generate_video",
			Arguments: `{"prompt":"tired commuter on a train","scene_id":"scene-01","seconds":4}`,
		}),
		textResponse(videoScriptJSON),
	}}
	gen := &fakeGenerator{}
	stage := &VideoStage{Client: client, Generator: gen}

	var h History
	strategy, _ := decodeStageJSON[campaign.MarketingStrategy]("test", strategyJSON)
	copywriting, _ := decodeStageJSON[campaign.CopywritingContent]("test", copywritingJSON)
	h = h.Append(Record{Kind: KindStrategy, Payload: strategy})
	h = h.Append(Record{Kind: KindCopywriting, Payload: copywriting})

	recs, err := stage.Run(context.Background(), "AI Fitness Coach", h)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	script := recs[0].Payload.(*campaign.VideoScript)
	if len(script.Scenes) != 2 {
		t.Fatalf("scenes = %d", len(script.Scenes))
	}
	// The model omitted assets; the tool bookkeeping fills them in.
	if len(script.Assets) != 1 || script.Assets[0].SceneID != "scene-01" {
		t.Errorf("assets = %+v", script.Assets)
	}
	if len(gen.reqs) != 1 {
		t.Errorf("generator calls = %d", len(gen.reqs))
	}
}

func TestNormalizeScriptClampsDurations(t *testing.T) {
	script := &campaign.VideoScript{Scenes: []campaign.VideoScene{
		{SceneNumber: 1, DurationSeconds: 5},
		{SceneNumber: 2, DurationSeconds: 11},
		{SceneNumber: 3, DurationSeconds: 8},
	}}
	normalizeScript(script)

	want := []int{4, 12, 8}
	for i, s := range script.Scenes {
		if s.DurationSeconds != want[i] {
			t.Errorf("scene %d duration = %d, want %d", i+1, s.DurationSeconds, want[i])
		}
	}
	if script.TotalDurationSeconds != 24 {
		t.Errorf("total = %d", script.TotalDurationSeconds)
	}
}

func TestParseSize(t *testing.T) {
	w, h, err := parseSize("")
	if err != nil || w != 720 || h != 1280 {
		t.Errorf("default size = %dx%d, err %v", w, h, err)
	}
	if _, _, err := parseSize("portrait"); err == nil {
		t.Error("bad size accepted")
	}
}
