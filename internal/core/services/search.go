package services

import (
	"context"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/handbook-search/internal/core/domain"
	"github.com/custodia-labs/handbook-search/internal/core/ports/driven"
	"github.com/custodia-labs/handbook-search/internal/core/ports/driving"
	"github.com/custodia-labs/handbook-search/internal/logger"
)

// Ensure SearchService implements the interface.
var _ driving.SearchService = (*SearchService)(nil)

// SearchService is the query orchestrator.
//
// Per call it validates the query, lazily indexes the sections in
// scope, scores with the selected strategy, filters, sorts in the
// scorer's own direction and truncates.
type SearchService struct {
	index    *SearchIndex
	matcher  driven.ApproximateMatcher
	settings domain.SearchSettings
	excerpts *ExcerptBuilder
}

// NewSearchService creates a new search service.
// The matcher is optional; without it approximate strategies return
// no results.
func NewSearchService(
	index *SearchIndex,
	matcher driven.ApproximateMatcher,
	settings domain.SearchSettings,
) *SearchService {
	return &SearchService{
		index:    index,
		matcher:  matcher,
		settings: settings,
		excerpts: NewExcerptBuilder(settings.Excerpt),
	}
}

// Search runs the configured strategy.
func (s *SearchService) Search(
	ctx context.Context, query string, opts domain.SearchOptions,
) (*domain.SearchResponse, error) {
	logger.Section("Search Execution")
	query = strings.TrimSpace(query)
	resp := &domain.SearchResponse{Query: query, Results: []domain.SearchResult{}}

	if !s.executable(query) {
		return resp, nil
	}

	records, failures, err := s.candidates(ctx, &opts.Filters)
	if err != nil {
		return nil, err
	}
	resp.Unavailable = failures

	strategy := s.strategy(opts.Strategy)
	limit := s.limit(opts.Limit)
	logger.Debug("Query: %q, strategy: %s, limit: %d, candidates: %d", query, strategy, limit, len(records))

	var ranked []Scored
	switch strategy {
	case domain.StrategyExact:
		ranked = s.exact(query, opts.MinScore, records)
	case domain.StrategyApproximate:
		ranked = s.approximate(query, records)
	case domain.StrategyFallback:
		ranked = s.exact(query, opts.MinScore, records)
		if len(ranked) == 0 {
			logger.Debug("No exact matches, falling back to approximate")
			ranked = s.approximate(query, records)
			resp.Fallback = len(ranked) > 0
		}
	case domain.StrategyMerge:
		ranked = mergeRanked(s.exact(query, opts.MinScore, records), s.approximate(query, records))
	}

	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	for i := range ranked {
		resp.Results = append(resp.Results, s.toResult(&ranked[i]))
	}

	logger.Debug("Returning %d results (%d sections unavailable)", len(resp.Results), len(resp.Unavailable))
	return resp, nil
}

// EnhancedSearch runs the approximate matcher only.
func (s *SearchService) EnhancedSearch(
	ctx context.Context, query string, opts domain.SearchOptions,
) (*domain.EnhancedSearchResponse, error) {
	logger.Section("Enhanced Search Execution")
	query = strings.TrimSpace(query)
	resp := &domain.EnhancedSearchResponse{Query: query, Results: []domain.EnhancedSearchResult{}}

	if !s.executable(query) {
		return resp, nil
	}

	records, failures, err := s.candidates(ctx, &opts.Filters)
	if err != nil {
		return nil, err
	}
	resp.Unavailable = failures

	ranked := s.approximate(query, records)
	if limit := s.limit(opts.Limit); len(ranked) > limit {
		ranked = ranked[:limit]
	}
	for i := range ranked {
		m := &ranked[i]
		resp.Results = append(resp.Results, domain.EnhancedSearchResult{
			SearchResult: s.toResult(m),
			Similarity:   1 - m.Score.Value,
			Matches:      m.Matches,
			Headings:     m.Record.Headings,
		})
	}

	logger.Debug("Returning %d enhanced results", len(resp.Results))
	return resp, nil
}

// GetSuggestions returns titles, then headings, then tags containing the
// fragment. Without any, the closest approximate titles are returned.
func (s *SearchService) GetSuggestions(ctx context.Context, query string, limit int) ([]string, error) {
	query = strings.TrimSpace(query)
	suggestions := []string{}
	if !s.executable(query) {
		return suggestions, nil
	}
	if limit <= 0 {
		limit = s.settings.SuggestionLimit
	}
	if limit <= 0 {
		return suggestions, nil
	}

	records, _, err := s.index.collect(ctx, s.settings.Sections)
	if err != nil {
		return nil, err
	}

	fragment := strings.ToLower(query)
	seen := make(map[string]bool)
	add := func(candidate string) bool {
		if len(suggestions) >= limit {
			return false
		}
		key := strings.ToLower(candidate)
		if candidate == "" || seen[key] {
			return true
		}
		seen[key] = true
		suggestions = append(suggestions, candidate)
		return len(suggestions) < limit
	}
	contains := func(v string) bool {
		return strings.Contains(strings.ToLower(v), fragment)
	}

	passes := []func(r *domain.IndexedRecord) []string{
		func(r *domain.IndexedRecord) []string { return []string{r.Title} },
		func(r *domain.IndexedRecord) []string { return r.Headings },
		func(r *domain.IndexedRecord) []string { return r.Metadata.Tags },
	}
	for _, values := range passes {
		for _, r := range records {
			for _, v := range values(r) {
				if contains(v) && !add(v) {
					return suggestions, nil
				}
			}
		}
	}

	if len(suggestions) == 0 && s.matcher != nil {
		pattern := s.matcher.Compile(query)
		type candidate struct {
			title string
			score float64
		}
		var candidates []candidate
		for _, r := range records {
			if m := pattern.Match(r.Title); m.IsMatch {
				candidates = append(candidates, candidate{r.Title, m.Score})
			}
		}
		sort.SliceStable(candidates, func(i, j int) bool {
			return candidates[i].score < candidates[j].score
		})
		for _, c := range candidates {
			if !add(c.title) {
				break
			}
		}
	}

	return suggestions, nil
}

// executable reports whether the trimmed query is long enough to run.
func (s *SearchService) executable(query string) bool {
	if utf8.RuneCountInString(query) < s.settings.MinQueryLength {
		logger.Debug("Query %q shorter than %d, returning no results", query, s.settings.MinQueryLength)
		return false
	}
	return true
}

// candidates indexes the sections in scope and returns the records that
// pass the filters.
func (s *SearchService) candidates(
	ctx context.Context, filters *domain.Filters,
) ([]*domain.IndexedRecord, []domain.SectionFailure, error) {
	scope := filters.Sections
	if len(scope) == 0 {
		scope = s.settings.Sections
	}

	records, failures, err := s.index.collect(ctx, scope)
	if err != nil {
		return nil, nil, err
	}

	kept := make([]*domain.IndexedRecord, 0, len(records))
	for _, r := range records {
		if filters.Match(r) {
			kept = append(kept, r)
		}
	}
	return kept, failures, nil
}

func (s *SearchService) exact(query string, minScore float64, records []*domain.IndexedRecord) []Scored {
	if minScore <= 0 {
		minScore = s.settings.MinScore
	}
	return rank(NewExactScorer(query, minScore, s.settings.Scoring), records)
}

func (s *SearchService) approximate(query string, records []*domain.IndexedRecord) []Scored {
	if s.matcher == nil {
		return nil
	}
	return rank(NewApproximateScorer(s.matcher, query, s.settings.Fuzzy.Weights), records)
}

// mergeRanked lists exact hits first, then approximate hits for records
// the exact scorer missed. The two lists are never compared.
func mergeRanked(exact, approx []Scored) []Scored {
	seen := make(map[string]bool, len(exact))
	for _, m := range exact {
		seen[m.Record.ID] = true
	}
	merged := exact
	for _, m := range approx {
		if !seen[m.Record.ID] {
			merged = append(merged, m)
		}
	}
	return merged
}

func (s *SearchService) strategy(requested domain.Strategy) domain.Strategy {
	if requested.IsValid() {
		return requested
	}
	if s.settings.Strategy.IsValid() {
		return s.settings.Strategy
	}
	return domain.StrategyFallback
}

func (s *SearchService) limit(requested int) int {
	limit := requested
	if limit <= 0 {
		limit = s.settings.DefaultLimit
	}
	if s.settings.MaxLimit > 0 && limit > s.settings.MaxLimit {
		limit = s.settings.MaxLimit
	}
	return max(limit, 1)
}

func (s *SearchService) toResult(m *Scored) domain.SearchResult {
	return domain.SearchResult{
		Reference:  m.Record.Reference(),
		ID:         m.Record.ID,
		Scorer:     m.Scorer,
		Score:      m.Score,
		MatchSpans: m.Spans,
		Excerpt:    s.excerpt(m),
		Metadata:   m.Record.Metadata,
	}
}

// excerpt previews the chosen span. Exact matches leave the highlight
// implicit; approximate matches wrap it in delimiters.
func (s *SearchService) excerpt(m *Scored) string {
	r := m.Record
	if m.Excerpt == nil {
		return s.excerpts.Lead(r.SearchableText)
	}
	source := fieldValue(r, m.Excerpt.Field, m.Excerpt.Index)
	return s.excerpts.Build(source, m.Excerpt.Start, m.Excerpt.End, !m.Score.HigherIsBetter)
}

func fieldValue(r *domain.IndexedRecord, field domain.Field, index int) string {
	switch field {
	case domain.FieldTitle:
		return r.Title
	case domain.FieldHeadings:
		if index < len(r.Headings) {
			return r.Headings[index]
		}
	case domain.FieldText:
		return r.SearchableText
	case domain.FieldTags:
		if index < len(r.Metadata.Tags) {
			return r.Metadata.Tags[index]
		}
	}
	return ""
}
