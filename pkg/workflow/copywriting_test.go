package workflow

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/brightwell/adforge/pkg/campaign"
	"github.com/brightwell/adforge/pkg/chat"
)

func strategyHistory(t *testing.T) History {
	t.Helper()
	strategy, err := decodeStageJSON[campaign.MarketingStrategy]("test", strategyJSON)
	if err != nil {
		t.Fatal(err)
	}
	return History{}.Append(Record{Kind: KindStrategy, Stage: StageStrategy, Payload: strategy})
}

func TestCopywritingStageProducesContent(t *testing.T) {
	client := &fakeClient{responses: []*chat.Response{textResponse(copywritingJSON)}}
	stage := &CopywritingStage{Client: client}

	recs, err := stage.Run(context.Background(), "AI Fitness Coach", strategyHistory(t))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	content := recs[0].Payload.(*campaign.CopywritingContent)
	if content.HeroMessage == "" || content.BlogArticle == "" {
		t.Errorf("content = %+v", content)
	}
	if len(content.SocialPosts) != 3 {
		t.Errorf("social posts = %d", len(content.SocialPosts))
	}
	for _, p := range content.SocialPosts {
		if p.Platform == "" || p.Body == "" {
			t.Errorf("post = %+v", p)
		}
	}
}

func TestCopywritingStageRequiresStrategy(t *testing.T) {
	stage := &CopywritingStage{Client: &fakeClient{}}
	if _, err := stage.Run(context.Background(), "topic", History{}); err == nil {
		t.Fatal("missing strategy accepted")
	}
}

func TestCopywritingStageRejectsIncompleteContent(t *testing.T) {
	client := &fakeClient{responses: []*chat.Response{
		textResponse(`{"hero_message": "", "blog_article": "", "social_posts": []}`),
	}}
	stage := &CopywritingStage{Client: client}

	_, err := stage.Run(context.Background(), "topic", strategyHistory(t))
	var se *SchemaError
	if !errors.As(err, &se) {
		t.Fatalf("err = %v, want SchemaError", err)
	}
}

func TestCopywritingPromptCarriesStrategy(t *testing.T) {
	client := &fakeClient{responses: []*chat.Response{textResponse(copywritingJSON)}}
	stage := &CopywritingStage{Client: client}

	if _, err := stage.Run(context.Background(), "topic", strategyHistory(t)); err != nil {
		t.Fatal(err)
	}
	req := client.requests[0]
	user := req.Messages[len(req.Messages)-1].Content
	for _, want := range []string{"AI Fitness Coach", "Busy professionals"} {
		if !strings.Contains(user, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}
