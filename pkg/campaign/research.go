package campaign

import "encoding/json"

// ResearchDimension is one angle of investigation in a research plan.
type ResearchDimension struct {
	Name       string     `json:"name"`
	Priority   string     `json:"priority"`
	Queries    StringList `json:"queries"`
	NeededInfo StringList `json:"needed_info,omitempty"`
}

// UnmarshalJSON accepts the field aliases models commonly produce for a
// dimension ("dimension" for the name, "search_queries", "info_needed").
func (d *ResearchDimension) UnmarshalJSON(data []byte) error {
	var raw struct {
		Name          string     `json:"name"`
		Dimension     string     `json:"dimension"`
		Priority      string     `json:"priority"`
		Queries       StringList `json:"queries"`
		SearchQueries StringList `json:"search_queries"`
		NeededInfo    StringList `json:"needed_info"`
		InfoNeeded    StringList `json:"info_needed"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	d.Name = firstNonEmpty(raw.Name, raw.Dimension)
	d.Priority = raw.Priority
	d.Queries = raw.Queries
	if len(d.Queries) == 0 {
		d.Queries = raw.SearchQueries
	}
	d.NeededInfo = raw.NeededInfo
	if len(d.NeededInfo) == 0 {
		d.NeededInfo = raw.InfoNeeded
	}
	return nil
}

// ResearchPlan is the structured plan produced by the planning phase of the
// deep-research pipeline. Immutable once created.
type ResearchPlan struct {
	TopicAnalysis string              `json:"topic_analysis,omitempty"`
	Dimensions    []ResearchDimension `json:"dimensions"`
}

// UnmarshalJSON accepts "research_dimensions" as an alias for "dimensions".
func (p *ResearchPlan) UnmarshalJSON(data []byte) error {
	var raw struct {
		TopicAnalysis      string              `json:"topic_analysis"`
		Dimensions         []ResearchDimension `json:"dimensions"`
		ResearchDimensions []ResearchDimension `json:"research_dimensions"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	p.TopicAnalysis = raw.TopicAnalysis
	p.Dimensions = raw.Dimensions
	if len(p.Dimensions) == 0 {
		p.Dimensions = raw.ResearchDimensions
	}
	return nil
}

// priorityRank maps priorities to a sortable rank. Unknown values sort last
// so a model inventing a priority level never jumps the queue.
func priorityRank(p string) int {
	switch p {
	case "high":
		return 0
	case "medium":
		return 1
	case "low":
		return 2
	}
	return 3
}

// OrderedDimensions returns the plan's dimensions in execution order:
// high before medium before low, ties kept in plan order.
func (p *ResearchPlan) OrderedDimensions() []ResearchDimension {
	out := make([]ResearchDimension, len(p.Dimensions))
	copy(out, p.Dimensions)
	// Insertion sort keeps ties stable without pulling in sort.SliceStable
	// for a list that is rarely longer than five entries.
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && priorityRank(out[j].Priority) < priorityRank(out[j-1].Priority); j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

// SearchHit is one shaped result from the web search tool.
type SearchHit struct {
	Title   string  `json:"title"`
	URL     string  `json:"url"`
	Content string  `json:"content"`
	Score   float64 `json:"score,omitempty"`
}

// DimensionFindings holds the raw material gathered for one dimension.
// A dimension whose every query failed still appears, with empty hits.
type DimensionFindings struct {
	Dimension string      `json:"dimension"`
	Priority  string      `json:"priority"`
	Queries   []string    `json:"queries"`
	Hits      []SearchHit `json:"hits"`
	Errors    []string    `json:"errors,omitempty"`
}

// SourceURLs returns the distinct URLs backing the dimension's hits.
func (f *DimensionFindings) SourceURLs() []string {
	seen := make(map[string]struct{}, len(f.Hits))
	var out []string
	for _, h := range f.Hits {
		if h.URL == "" {
			continue
		}
		if _, ok := seen[h.URL]; ok {
			continue
		}
		seen[h.URL] = struct{}{}
		out = append(out, h.URL)
	}
	return out
}

// ResearchFindings collects everything gathered during the research phase,
// in execution order. The overview fields are filled during synthesis.
type ResearchFindings struct {
	Topic                string              `json:"topic"`
	Dimensions           []DimensionFindings `json:"dimensions"`
	MarketOverview       string              `json:"market_overview,omitempty"`
	CompetitiveLandscape string              `json:"competitive_landscape,omitempty"`
	Opportunities        StringList          `json:"opportunities,omitempty"`
}
