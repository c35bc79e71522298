package tavily

import "context"

const (
	// MinResults and MaxResults bound the max_results parameter. The API
	// rejects values outside this range, so out-of-range requests are
	// clamped rather than failed.
	MinResults = 1
	MaxResults = 10

	DefaultResults = 5
)

// SearchDepth selects how much work the API spends per query.
type SearchDepth string

const (
	SearchDepthBasic    SearchDepth = "basic"
	SearchDepthAdvanced SearchDepth = "advanced"
)

// SearchRequest is a web search request.
type SearchRequest struct {
	Query          string      `json:"query"`
	SearchDepth    SearchDepth `json:"search_depth,omitempty"`
	MaxResults     int         `json:"max_results,omitempty"`
	IncludeAnswer  bool        `json:"include_answer,omitempty"`
	IncludeDomains []string    `json:"include_domains,omitempty"`
	ExcludeDomains []string    `json:"exclude_domains,omitempty"`
}

// SearchResult is one hit in a search response.
type SearchResult struct {
	Title   string  `json:"title"`
	URL     string  `json:"url"`
	Content string  `json:"content"`
	Score   float64 `json:"score"`
}

// SearchResponse is a web search response.
type SearchResponse struct {
	Query        string         `json:"query"`
	Answer       string         `json:"answer,omitempty"`
	Results      []SearchResult `json:"results"`
	ResponseTime float64        `json:"response_time,omitempty"`
}

// Search runs one web search. MaxResults outside [MinResults, MaxResults]
// is clamped, zero means DefaultResults.
func (c *Client) Search(ctx context.Context, req *SearchRequest) (*SearchResponse, error) {
	r := *req
	switch {
	case r.MaxResults == 0:
		r.MaxResults = DefaultResults
	case r.MaxResults < MinResults:
		r.MaxResults = MinResults
	case r.MaxResults > MaxResults:
		r.MaxResults = MaxResults
	}
	var resp SearchResponse
	if err := c.post(ctx, "/search", &r, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
