package workflow

import (
	"context"
	"log/slog"

	"github.com/brightwell/adforge/pkg/campaign"
	"github.com/brightwell/adforge/pkg/chat"
)

const StageStrategy = "strategy"

// StrategyStage produces the MarketingStrategy in a single agent
// conversation. With a Searcher attached the model grounds the strategy in
// live web searches; without one it works from the topic alone.
type StrategyStage struct {
	Client   chat.Client
	Searcher Searcher
	Events   EventFunc
	Logger   *slog.Logger
}

func (s *StrategyStage) Name() string { return StageStrategy }

func (s *StrategyStage) Run(ctx context.Context, topic string, _ History) ([]Record, error) {
	em := newEmitter(s.Events)
	var tools []*chat.FuncTool
	if s.Searcher != nil {
		tools = append(tools, webSearchTool(s.Searcher, em, StageStrategy))
	}

	text, err := runAgent(ctx, s.Client, StageStrategy,
		strategyInstructions(s.Searcher != nil), strategyPrompt(topic), tools, em, s.Logger)
	if err != nil {
		return nil, err
	}

	strategy, err := decodeStageJSON[campaign.MarketingStrategy](StageStrategy, text)
	if err != nil {
		return nil, err
	}
	normalizeStrategy(strategy, topic)
	if err := strategy.Validate(); err != nil {
		return nil, &SchemaError{Stage: StageStrategy, Detail: "incomplete strategy", Err: err}
	}
	return []Record{{Kind: KindStrategy, Stage: StageStrategy, Payload: strategy}}, nil
}

// normalizeStrategy fills the fields models habitually omit.
func normalizeStrategy(s *campaign.MarketingStrategy, topic string) {
	if s.Topic == "" {
		s.Topic = topic
	}
	if s.OutputLanguage == "" {
		s.OutputLanguage = campaign.LanguageCode(topic)
	}
}
