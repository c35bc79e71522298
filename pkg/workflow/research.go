package workflow

import (
	"context"
	"errors"
	"log/slog"

	"github.com/brightwell/adforge/pkg/campaign"
	"github.com/brightwell/adforge/pkg/chat"
	"github.com/brightwell/adforge/pkg/tavily"
)

const StageDeepResearch = "deep_research"

// Sub-phase names used in error context.
const (
	phasePlan       = "deep_research.plan"
	phaseSynthesize = "deep_research.synthesize"
)

const defaultResultsPerQuery = 5

// DeepResearchStage replaces the single strategy call with a three-phase,
// search-grounded synthesis: a planning call decomposes the topic into
// research dimensions, the research phase executes the planned queries, and
// a synthesis call turns plan plus findings into the MarketingStrategy. The
// three phases run strictly in order; the stage's output record is
// indistinguishable from the plain strategy stage's.
type DeepResearchStage struct {
	Client   chat.Client
	Searcher Searcher
	Events   EventFunc
	Logger   *slog.Logger

	// ResultsPerQuery bounds each search call. Zero means the default.
	ResultsPerQuery int
}

func (s *DeepResearchStage) Name() string { return StageDeepResearch }

func (s *DeepResearchStage) Run(ctx context.Context, topic string, _ History) ([]Record, error) {
	em := newEmitter(s.Events)

	plan, err := s.Plan(ctx, topic)
	if err != nil {
		return nil, err
	}
	s.logger().Info("research plan ready", "dimensions", len(plan.Dimensions))

	findings := s.Research(ctx, topic, plan, em)

	strategy, err := s.Synthesize(ctx, topic, plan, findings)
	if err != nil {
		return nil, err
	}
	return []Record{
		{Kind: KindResearchPlan, Stage: StageDeepResearch, Payload: plan},
		{Kind: KindResearchFindings, Stage: StageDeepResearch, Payload: findings},
		{Kind: KindStrategy, Stage: StageDeepResearch, Payload: strategy},
	}, nil
}

// Plan asks the model to decompose the topic into researchable dimensions.
func (s *DeepResearchStage) Plan(ctx context.Context, topic string) (*campaign.ResearchPlan, error) {
	if topic == "" {
		return nil, errors.New("topic is empty")
	}
	resp, err := s.Client.Complete(ctx, &chat.Request{
		Messages: []chat.Message{
			chat.SystemMessage(plannerInstructions()),
			chat.UserMessage(planPrompt(topic)),
		},
		ResponseSchema:     planSchema,
		ResponseSchemaName: "research_plan",
	})
	if err != nil {
		return nil, err
	}
	plan, err := decodeStageJSON[campaign.ResearchPlan](phasePlan, resp.Message.Content)
	if err != nil {
		return nil, err
	}
	if len(plan.Dimensions) == 0 {
		return nil, &SchemaError{
			Stage:  phasePlan,
			Detail: truncate(resp.Message.Content, 200),
			Err:    errors.New("plan has no research dimensions"),
		}
	}
	return plan, nil
}

// Research executes the planned queries dimension by dimension, high
// priority first. A failed search degrades that dimension to empty findings
// with the failure recorded; it never aborts the phase.
func (s *DeepResearchStage) Research(ctx context.Context, topic string, plan *campaign.ResearchPlan, em *emitter) *campaign.ResearchFindings {
	findings := &campaign.ResearchFindings{Topic: topic}
	for _, dim := range plan.OrderedDimensions() {
		df := campaign.DimensionFindings{
			Dimension: dim.Name,
			Priority:  dim.Priority,
			Queries:   dim.Queries,
		}
		for _, query := range dim.Queries {
			em.emit(Event{Type: EventSearchQuery, Stage: StageDeepResearch, Message: query})
			resp, err := s.Searcher.Search(ctx, &tavily.SearchRequest{
				Query:       query,
				SearchDepth: tavily.SearchDepthAdvanced,
				MaxResults:  s.resultsPerQuery(),
			})
			if err != nil {
				terr := &ToolError{Tool: "web_search", Query: query, Err: err}
				df.Errors = append(df.Errors, terr.Error())
				s.logger().Warn("search failed, dimension degraded",
					"dimension", dim.Name, "query", query, "error", err)
				continue
			}
			for _, r := range resp.Results {
				df.Hits = append(df.Hits, campaign.SearchHit{
					Title:   r.Title,
					URL:     r.URL,
					Content: r.Content,
					Score:   r.Score,
				})
			}
		}
		findings.Dimensions = append(findings.Dimensions, df)
	}
	return findings
}

// Synthesize combines plan and findings into the MarketingStrategy.
func (s *DeepResearchStage) Synthesize(ctx context.Context, topic string, plan *campaign.ResearchPlan, findings *campaign.ResearchFindings) (*campaign.MarketingStrategy, error) {
	resp, err := s.Client.Complete(ctx, &chat.Request{
		Messages: []chat.Message{
			chat.SystemMessage(analystInstructions()),
			chat.UserMessage(synthesizePrompt(topic, plan, findings)),
		},
		ResponseSchema:     strategySchema,
		ResponseSchemaName: "marketing_strategy",
	})
	if err != nil {
		return nil, err
	}
	strategy, err := decodeStageJSON[campaign.MarketingStrategy](phaseSynthesize, resp.Message.Content)
	if err != nil {
		return nil, err
	}
	normalizeStrategy(strategy, topic)
	if err := strategy.Validate(); err != nil {
		return nil, &SchemaError{Stage: phaseSynthesize, Detail: "incomplete strategy", Err: err}
	}
	return strategy, nil
}

func (s *DeepResearchStage) resultsPerQuery() int {
	if s.ResultsPerQuery > 0 {
		return s.ResultsPerQuery
	}
	return defaultResultsPerQuery
}

func (s *DeepResearchStage) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

