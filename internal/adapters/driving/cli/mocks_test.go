package cli

import (
	"context"
	"errors"

	"github.com/custodia-labs/handbook-search/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/handbook-search/internal/core/domain"
	"github.com/custodia-labs/handbook-search/internal/core/services"
)

// mockSearchService returns one handbook result per query unless told
// to return nothing.
type mockSearchService struct {
	empty       bool
	fallback    bool
	unavailable []domain.SectionFailure
	suggestions []string

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
	resp := &domain.SearchResponse{
		Query:       query,
		Results:     []domain.SearchResult{},
		Unavailable: m.unavailable,
		Fallback:    m.fallback,
	}
	if !m.empty {
		resp.Results = append(resp.Results, domain.SearchResult{
			Reference: domain.ContentReference{
				Section: domain.SectionHandbook,
				Path:    "cardiology/angina",
				Title:   "Stable Angina",
			},
			ID:      "handbook:cardiology/angina",
			Score:   domain.Score{Value: 12.5, HigherIsBetter: true, Tier: 1},
			Excerpt: "Give «aspirin» and GTN.",
		})
	}
	return resp, nil
}

func (m *mockSearchService) EnhancedSearch(
	_ context.Context,
	query string,
	opts domain.SearchOptions,
) (*domain.EnhancedSearchResponse, error) {
	m.lastQuery, m.lastOpts = query, opts
	resp := &domain.EnhancedSearchResponse{Query: query, Results: []domain.EnhancedSearchResult{}}
	if !m.empty {
		resp.Results = append(resp.Results, domain.EnhancedSearchResult{
			SearchResult: domain.SearchResult{
				Reference: domain.ContentReference{
					Section: domain.SectionFormulary,
					Path:    "morphine",
					Title:   "Morphine",
				},
				Score:   domain.Score{Value: 0.125},
				Excerpt: "«Morphine» sulfate",
			},
			Similarity: 0.875,
			Matches:    []domain.FieldMatch{{Field: domain.FieldTitle, Value: "Morphine"}},
		})
	}
	return resp, nil
}

func (m *mockSearchService) GetSuggestions(_ context.Context, query string, limit int) ([]string, error) {
	m.lastQuery, m.lastLimit = query, limit
	return m.suggestions, nil
}

// mockSearchServiceError fails every call.
type mockSearchServiceError struct{}

var errMockSearch = errors.New("content unreachable")

func (m *mockSearchServiceError) Search(
	_ context.Context, _ string, _ domain.SearchOptions,
) (*domain.SearchResponse, error) {
	return nil, errMockSearch
}

func (m *mockSearchServiceError) EnhancedSearch(
	_ context.Context, _ string, _ domain.SearchOptions,
) (*domain.EnhancedSearchResponse, error) {
	return nil, errMockSearch
}

func (m *mockSearchServiceError) GetSuggestions(_ context.Context, _ string, _ int) ([]string, error) {
	return nil, errMockSearch
}

// mockIndexService records warmed sections.
type mockIndexService struct {
	stats    []domain.SectionStats
	failures []domain.SectionFailure
	err      error
	cleared  bool
}

func (m *mockIndexService) Warm(_ context.Context, sections ...domain.SectionID) ([]domain.SectionFailure, error) {
	if m.err != nil {
		return nil, m.err
	}
	if len(sections) == 0 {
		sections = domain.AllSections()
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
	m.cleared = true
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

// testServices holds the mocks installed by setupTestServices.
type testServices struct {
	search   *mockSearchService
	index    *mockIndexService
	settings *services.SettingsService
}

// setupTestServices installs mock services and returns a cleanup func
// restoring the previous ones.
func setupTestServices() (*testServices, func()) {
	oldSearch, oldIndex, oldSettings, oldWatcher := searchService, indexService, settingsService, contentWatcher

	ts := &testServices{
		search:   &mockSearchService{},
		index:    &mockIndexService{},
		settings: services.NewSettingsService(memory.NewConfigStore()),
	}
	SetServices(Services{Search: ts.search, Index: ts.index, Settings: ts.settings})

	return ts, func() {
		searchService, indexService, settingsService, contentWatcher = oldSearch, oldIndex, oldSettings, oldWatcher
		searchOpts.reset()
		enhancedOpts.reset()
		indexJSON = false
		suggestLimit = 0
		importSource, importPath, importBaseURL, importDataDir, importSections = "", "", "", "", nil
		rootCmd.SetArgs(nil)
	}
}
