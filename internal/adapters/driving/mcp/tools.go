package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/handbook-search/internal/core/domain"
)

// SearchInput is the input schema for the search tools.
type SearchInput struct {
	Query    string   `json:"query" jsonschema:"the search query to find handbook documents"`
	Limit    int      `json:"limit,omitempty" jsonschema:"maximum number of results to return (default 10)"`
	Sections []string `json:"sections,omitempty" jsonschema:"sections to search: handbook, guidelines, protocols, formulary"`
	Tags     []string `json:"tags,omitempty" jsonschema:"keep documents carrying any of these tags"`
	Strategy string   `json:"strategy,omitempty" jsonschema:"exact, approximate, fallback or merge"`
}

// SearchOutput is the output schema for the search tools.
type SearchOutput struct {
	Results     []SearchResultOutput `json:"results"`
	Count       int                  `json:"count"`
	Fallback    bool                 `json:"fallback,omitempty"`
	Unavailable []string             `json:"unavailable,omitempty"`
}

// SearchResultOutput represents a single search result.
type SearchResultOutput struct {
	ID       string   `json:"id"`
	Section  string   `json:"section"`
	Path     string   `json:"path"`
	Title    string   `json:"title"`
	Scorer   string   `json:"scorer"`
	Score    float64  `json:"score"`
	Excerpt  string   `json:"excerpt,omitempty"`
	Category string   `json:"category,omitempty"`
	Tags     []string `json:"tags,omitempty"`
	Matched  []string `json:"matched_fields,omitempty"`
}

// SuggestInput is the input schema for the suggest tool.
type SuggestInput struct {
	Query string `json:"query" jsonschema:"a partial query"`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum number of suggestions"`
}

// SuggestOutput is the output schema for the suggest tool.
type SuggestOutput struct {
	Suggestions []string `json:"suggestions"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search",
		Description: "Search the clinical handbook by relevance, falling back to typo-tolerant matching",
	}, s.handleSearch)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "enhanced_search",
		Description: "Typo-tolerant search reporting which fields matched",
	}, s.handleEnhancedSearch)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "suggest",
		Description: "Suggest handbook titles and terms for a partial query",
	}, s.handleSuggest)
}

// handleSearch handles the search tool invocation.
func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	opts, err := input.options()
	if err != nil {
		return nil, SearchOutput{}, err
	}

	resp, err := s.ports.Search.Search(ctx, input.Query, opts)
	if err != nil {
		return nil, SearchOutput{}, err
	}

	output := SearchOutput{
		Results:     make([]SearchResultOutput, len(resp.Results)),
		Count:       len(resp.Results),
		Fallback:    resp.Fallback,
		Unavailable: unavailable(resp.Unavailable),
	}
	for i := range resp.Results {
		output.Results[i] = resultOutput(&resp.Results[i])
	}

	return nil, output, nil
}

// handleEnhancedSearch handles the enhanced_search tool invocation.
func (s *Server) handleEnhancedSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	opts, err := input.options()
	if err != nil {
		return nil, SearchOutput{}, err
	}

	resp, err := s.ports.Search.EnhancedSearch(ctx, input.Query, opts)
	if err != nil {
		return nil, SearchOutput{}, err
	}

	output := SearchOutput{
		Results:     make([]SearchResultOutput, len(resp.Results)),
		Count:       len(resp.Results),
		Unavailable: unavailable(resp.Unavailable),
	}
	for i := range resp.Results {
		r := &resp.Results[i]
		out := resultOutput(&r.SearchResult)
		for _, m := range r.Matches {
			out.Matched = append(out.Matched, string(m.Field))
		}
		output.Results[i] = out
	}

	return nil, output, nil
}

// handleSuggest handles the suggest tool invocation.
func (s *Server) handleSuggest(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SuggestInput,
) (*mcp.CallToolResult, SuggestOutput, error) {
	suggestions, err := s.ports.Search.GetSuggestions(ctx, input.Query, input.Limit)
	if err != nil {
		return nil, SuggestOutput{}, err
	}
	if suggestions == nil {
		suggestions = []string{}
	}
	return nil, SuggestOutput{Suggestions: suggestions}, nil
}

func (in *SearchInput) options() (domain.SearchOptions, error) {
	limit := in.Limit
	if limit <= 0 {
		limit = 10
	}
	opts := domain.SearchOptions{
		Limit:   limit,
		Filters: domain.Filters{Tags: in.Tags},
	}

	sections, err := domain.ParseSections(in.Sections)
	if err != nil {
		return opts, err
	}
	opts.Filters.Sections = sections

	if in.Strategy != "" {
		strategy := domain.Strategy(in.Strategy)
		if !strategy.IsValid() {
			return opts, fmt.Errorf("%w: strategy %q", domain.ErrInvalidInput, in.Strategy)
		}
		opts.Strategy = strategy
	}
	return opts, nil
}

func resultOutput(r *domain.SearchResult) SearchResultOutput {
	return SearchResultOutput{
		ID:       r.ID,
		Section:  r.Reference.Section.String(),
		Path:     r.Reference.Path,
		Title:    r.Reference.Title,
		Scorer:   r.Scorer,
		Score:    r.Score.Value,
		Excerpt:  r.Excerpt,
		Category: r.Metadata.Category,
		Tags:     r.Metadata.Tags,
	}
}

func unavailable(failures []domain.SectionFailure) []string {
	if len(failures) == 0 {
		return nil
	}
	out := make([]string, len(failures))
	for i, f := range failures {
		out[i] = f.Section.String() + ": " + f.Message
	}
	return out
}
