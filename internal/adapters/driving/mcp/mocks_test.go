package mcp

import (
	"context"

	"github.com/custodia-labs/handbook-search/internal/core/domain"
)

// mockSearchService is a mock implementation of driving.SearchService.
type mockSearchService struct {
	response    *domain.SearchResponse
	enhanced    *domain.EnhancedSearchResponse
	suggestions []string
	err         error

	lastQuery string
	lastOpts  domain.SearchOptions
	lastLimit int
}

func (m *mockSearchService) Search(
	_ context.Context,
	query string,
	opts domain.SearchOptions,
) (*domain.SearchResponse, error) {
	m.lastQuery, m.lastOpts = query, opts
	if m.err != nil {
		return nil, m.err
	}
	if m.response == nil {
		return &domain.SearchResponse{Query: query, Results: []domain.SearchResult{}}, nil
	}
	return m.response, nil
}

func (m *mockSearchService) EnhancedSearch(
	_ context.Context,
	query string,
	opts domain.SearchOptions,
) (*domain.EnhancedSearchResponse, error) {
	m.lastQuery, m.lastOpts = query, opts
	if m.err != nil {
		return nil, m.err
	}
	if m.enhanced == nil {
		return &domain.EnhancedSearchResponse{Query: query, Results: []domain.EnhancedSearchResult{}}, nil
	}
	return m.enhanced, nil
}

func (m *mockSearchService) GetSuggestions(_ context.Context, query string, limit int) ([]string, error) {
	m.lastQuery, m.lastLimit = query, limit
	return m.suggestions, m.err
}

// mockIndexService is a mock implementation of driving.IndexService.
type mockIndexService struct {
	stats    []domain.SectionStats
	failures []domain.SectionFailure
	err      error
	warmed   []domain.SectionID
}

func (m *mockIndexService) Warm(_ context.Context, sections ...domain.SectionID) ([]domain.SectionFailure, error) {
	m.warmed = append(m.warmed, sections...)
	if m.err != nil {
		return nil, m.err
	}
	if len(m.failures) == 0 {
		for _, s := range sections {
			m.stats = append(m.stats, domain.SectionStats{Section: s, Records: 3})
		}
	}
	return m.failures, nil
}

func (m *mockIndexService) Stats() []domain.SectionStats {
	return m.stats
}

func (m *mockIndexService) Clear() {
	m.stats = nil
}

func (m *mockIndexService) ClearSection(section domain.SectionID) {
	kept := m.stats[:0]
	for _, s := range m.stats {
		if s.Section != section {
			kept = append(kept, s)
		}
	}
	m.stats = kept
}
