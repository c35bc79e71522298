package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/brightwell/adforge/pkg/chat"
	"github.com/brightwell/adforge/pkg/tavily"
)

func newEmitter(fn EventFunc) *emitter {
	return &emitter{fn: fn, now: time.Now}
}

// decodeStageJSON parses a model reply into the stage's artifact type.
// Fenced or prose-wrapped JSON is tolerated; anything that still does not
// unmarshal is a SchemaError.
func decodeStageJSON[T any](stage, text string) (*T, error) {
	var out T
	if err := chat.Unmarshal([]byte(chat.ExtractJSON(text)), &out); err != nil {
		return nil, &SchemaError{Stage: stage, Detail: truncate(text, 200), Err: err}
	}
	return &out, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// runAgent drives one tool-loop conversation for a stage and relays the
// agent's tool activity as pipeline events.
func runAgent(ctx context.Context, client chat.Client, stage, system, input string, tools []*chat.FuncTool, em *emitter, logger *slog.Logger) (string, error) {
	agent := &chat.Agent{
		Client: client,
		System: system,
		Tools:  tools,
		Logger: logger,
		OnEvent: func(evt chat.AgentEvent) {
			switch evt.Type {
			case chat.EventToolStart:
				em.emit(Event{Type: EventToolCall, Stage: stage, Message: evt.ToolCall.Name})
			case chat.EventToolDone:
				em.emit(Event{Type: EventToolResult, Stage: stage, Message: evt.ToolCall.Name})
			case chat.EventToolError:
				em.emit(Event{Type: EventToolResult, Stage: stage, Message: evt.ToolCall.Name, Err: evt.Err})
			}
		},
	}
	text, _, err := agent.Run(ctx, input)
	return text, err
}

// Searcher is the web search dependency of the strategy, copywriting and
// deep-research stages.
type Searcher interface {
	Search(ctx context.Context, req *tavily.SearchRequest) (*tavily.SearchResponse, error)
}

type webSearchArgs struct {
	Query       string `json:"query"`
	SearchDepth string `json:"search_depth,omitempty"`
	MaxResults  int    `json:"max_results,omitempty"`
}

type webSearchHit struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Content string `json:"content"`
}

// webSearchTool exposes a Searcher to the model as the web_search tool.
func webSearchTool(s Searcher, em *emitter, stage string) *chat.FuncTool {
	return chat.MustNewFuncTool("web_search",
		"Search the web for up-to-date information. Returns a list of result snippets with source URLs.",
		func(ctx context.Context, args webSearchArgs) (any, error) {
			if args.Query == "" {
				return nil, fmt.Errorf("query is required")
			}
			em.emit(Event{Type: EventSearchQuery, Stage: stage, Message: args.Query})
			resp, err := s.Search(ctx, &tavily.SearchRequest{
				Query:       args.Query,
				SearchDepth: tavily.SearchDepth(args.SearchDepth),
				MaxResults:  args.MaxResults,
			})
			if err != nil {
				return nil, &ToolError{Tool: "web_search", Query: args.Query, Err: err}
			}
			hits := make([]webSearchHit, 0, len(resp.Results))
			for _, r := range resp.Results {
				hits = append(hits, webSearchHit{Title: r.Title, URL: r.URL, Content: r.Content})
			}
			return hits, nil
		})
}
