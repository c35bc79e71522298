package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/brightwell/adforge/pkg/chat"
	"github.com/brightwell/adforge/pkg/tavily"
)

// fakeClient replays a fixed sequence of responses and records every
// request it sees.
type fakeClient struct {
	mu        sync.Mutex
	responses []*chat.Response
	requests  []*chat.Request
}

func (c *fakeClient) Complete(_ context.Context, req *chat.Request) (*chat.Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.requests = append(c.requests, req)
	if len(c.responses) == 0 {
		return nil, errors.New("fake client script exhausted")
	}
	resp := c.responses[0]
	c.responses = c.responses[1:]
	return resp, nil
}

func textResponse(text string) *chat.Response {
	return &chat.Response{
		Message:      chat.Message{Role: chat.RoleModel, Content: text},
		FinishReason: chat.FinishStop,
	}
}

func toolCallResponse(calls ...chat.ToolCall) *chat.Response {
	return &chat.Response{
		Message:      chat.Message{Role: chat.RoleModel, ToolCalls: calls},
		FinishReason: chat.FinishToolCalls,
	}
}

// fakeSearcher records queries and fails any query containing a configured
// marker.
type fakeSearcher struct {
	mu      sync.Mutex
	queries []string
	failOn  string
}

func (s *fakeSearcher) Search(_ context.Context, req *tavily.SearchRequest) (*tavily.SearchResponse, error) {
	s.mu.Lock()
	s.queries = append(s.queries, req.Query)
	s.mu.Unlock()
	if s.failOn != "" && strings.Contains(req.Query, s.failOn) {
		return nil, fmt.Errorf("search backend unavailable")
	}
	return &tavily.SearchResponse{
		Query: req.Query,
		Results: []tavily.SearchResult{
			{Title: "result for " + req.Query, URL: "https://example.com/" + req.Query, Content: "snippet", Score: 0.9},
		},
	}, nil
}

const strategyJSON = `{
  "topic": "AI Fitness Coach",
  "user_intent": "Drive app signups by showing busy people they can stay fit in minutes a day.",
  "output_language": "en",
  "target_audience": "Busy professionals aged 25-45",
  "pain_points": ["No time for the gym", "Generic workout plans", "Lost motivation"],
  "selling_points": ["Adaptive 15-minute sessions", "Plans that fit your schedule", "Daily coaching nudges"],
  "content_framework": ["Problem", "Solution", "Proof", "Getting started"],
  "tone_of_voice": "Encouraging and practical",
  "brand_pillars": ["Science", "Simplicity", "Results"],
  "keywords": ["ai fitness coach", "home workout app", "personal training"]
}`

const copywritingJSON = `{
  "hero_message": "Your pocket coach turns 15 spare minutes into real fitness.",
  "blog_article": "# Fit in Fifteen\n\nBusy schedules kill workout plans...",
  "social_posts": [
    {"platform": "LinkedIn", "tone": "professional", "hook": "Too busy to train?", "body": "Short adaptive sessions.", "cta": "Try it free"},
    {"platform": "Instagram", "tone": "casual", "hook": "15 minutes. Real results.", "body": "Your coach, your schedule.", "cta": "Start today"},
    {"platform": "Rednote", "tone": "authentic", "hook": "How I stay fit", "body": "No gym needed.", "cta": "Join me"}
  ],
  "pain_point_analysis": ["No time -> 15-minute adaptive sessions"],
  "cta_variations": ["Try it free", "Start today", "Get your plan", "Train smarter"]
}`

func TestPipelineWithoutOptionalStages(t *testing.T) {
	client := &fakeClient{responses: []*chat.Response{
		textResponse(strategyJSON),
		textResponse(copywritingJSON),
	}}

	runner := &Runner{Stages: []Stage{
		&StrategyStage{Client: client},
		&CopywritingStage{Client: client},
		&PackagingStage{},
	}}

	h, runID, err := runner.Run(context.Background(), "AI Fitness Coach")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if runID == "" {
		t.Error("empty run id")
	}

	pkg, ok := h.Package()
	if !ok {
		t.Fatal("no package in history")
	}
	if pkg.Strategy == nil || pkg.Strategy.Topic != "AI Fitness Coach" {
		t.Errorf("strategy = %+v", pkg.Strategy)
	}
	if pkg.Copywriting == nil || pkg.Copywriting.HeroMessage == "" {
		t.Errorf("copywriting = %+v", pkg.Copywriting)
	}
	if pkg.Images != nil {
		t.Errorf("images should be absent, got %+v", pkg.Images)
	}
	if pkg.Video != nil {
		t.Errorf("video should be absent, got %+v", pkg.Video)
	}

	// With no searcher or renderer wired, no stage exposes tools.
	for i, req := range client.requests {
		if len(req.Tools) != 0 {
			t.Errorf("request %d carries %d tools", i, len(req.Tools))
		}
	}
}
