package tui

import (
	"context"
	"strings"

	"github.com/custodia-labs/handbook-search/internal/core/domain"
)

// mockSearchService returns one result per query whose title is the query.
type mockSearchService struct {
	err error
}

func (m *mockSearchService) Search(
	_ context.Context, query string, _ domain.SearchOptions,
) (*domain.SearchResponse, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &domain.SearchResponse{
		Query: query,
		Results: []domain.SearchResult{{
			Reference: domain.ContentReference{
				Section: domain.SectionHandbook,
				Path:    "topics/" + strings.ToLower(query),
				Title:   query,
			},
			ID:      "handbook/topics/" + strings.ToLower(query),
			Scorer:  "relevance",
			Score:   domain.Score{Value: 1, HigherIsBetter: true},
			Excerpt: "about «" + query + "»",
		}},
	}, nil
}

func (m *mockSearchService) EnhancedSearch(
	context.Context, string, domain.SearchOptions,
) (*domain.EnhancedSearchResponse, error) {
	return &domain.EnhancedSearchResponse{}, nil
}

func (m *mockSearchService) GetSuggestions(context.Context, string, int) ([]string, error) {
	return nil, nil
}

type mockIndexService struct {
	stats []domain.SectionStats
}

func (m *mockIndexService) Warm(_ context.Context, sections ...domain.SectionID) ([]domain.SectionFailure, error) {
	for _, s := range sections {
		m.stats = append(m.stats, domain.SectionStats{Section: s, Records: 3})
	}
	return nil, nil
}

func (m *mockIndexService) Stats() []domain.SectionStats { return m.stats }

func (m *mockIndexService) Clear() { m.stats = nil }

func (m *mockIndexService) ClearSection(domain.SectionID) {}
