package workflow

import (
	"context"
	"errors"
	"log/slog"

	"github.com/brightwell/adforge/pkg/campaign"
	"github.com/brightwell/adforge/pkg/chat"
)

const StageCopywriting = "copywriting"

// CopywritingStage turns the strategy into blog, social and CTA copy. The
// optional Searcher lets the model pull in trends and references before
// writing.
type CopywritingStage struct {
	Client   chat.Client
	Searcher Searcher
	Events   EventFunc
	Logger   *slog.Logger
}

func (s *CopywritingStage) Name() string { return StageCopywriting }

func (s *CopywritingStage) Run(ctx context.Context, _ string, h History) ([]Record, error) {
	strategy, ok := h.Strategy()
	if !ok {
		return nil, errors.New("no marketing strategy in history")
	}

	em := newEmitter(s.Events)
	var tools []*chat.FuncTool
	if s.Searcher != nil {
		tools = append(tools, webSearchTool(s.Searcher, em, StageCopywriting))
	}

	text, err := runAgent(ctx, s.Client, StageCopywriting,
		copywritingInstructions(s.Searcher != nil), copywritingPrompt(strategy), tools, em, s.Logger)
	if err != nil {
		return nil, err
	}

	content, err := decodeStageJSON[campaign.CopywritingContent](StageCopywriting, text)
	if err != nil {
		return nil, err
	}
	if err := content.Validate(); err != nil {
		return nil, &SchemaError{Stage: StageCopywriting, Detail: "incomplete copywriting", Err: err}
	}
	return []Record{{Kind: KindCopywriting, Stage: StageCopywriting, Payload: content}}, nil
}
