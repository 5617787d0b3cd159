package mcp

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/handbook-search/internal/core/domain"
)

func chestPainResult() domain.SearchResult {
	return domain.SearchResult{
		Reference: domain.ContentReference{
			Section: domain.SectionHandbook,
			Path:    "cardiology/chest-pain",
			Title:   "Chest Pain",
		},
		ID:       "handbook:cardiology/chest-pain",
		Scorer:   "exact",
		Score:    domain.Score{Value: 4.5, HigherIsBetter: true, Tier: 1},
		Excerpt:  "assess «chest pain» urgently",
		Metadata: domain.RecordMetadata{Category: "Cardiology", Tags: []string{"cardio"}},
	}
}

func TestServer_handleSearch(t *testing.T) {
	ctx := context.Background()

	t.Run("returns search results", func(t *testing.T) {
		mockSearch := &mockSearchService{
			response: &domain.SearchResponse{
				Query:   "chest pain",
				Results: []domain.SearchResult{chestPainResult()},
			},
		}

		server, err := NewServer(&Ports{Search: mockSearch})
		require.NoError(t, err)

		input := SearchInput{Query: "chest pain", Limit: 5}
		_, output, err := server.handleSearch(ctx, nil, input)

		require.NoError(t, err)
		assert.Equal(t, 1, output.Count)
		require.Len(t, output.Results, 1)
		got := output.Results[0]
		assert.Equal(t, "handbook:cardiology/chest-pain", got.ID)
		assert.Equal(t, "handbook", got.Section)
		assert.Equal(t, "cardiology/chest-pain", got.Path)
		assert.Equal(t, "Chest Pain", got.Title)
		assert.Equal(t, "exact", got.Scorer)
		assert.Equal(t, 4.5, got.Score)
		assert.Equal(t, "assess «chest pain» urgently", got.Excerpt)
		assert.Equal(t, "Cardiology", got.Category)
		assert.Equal(t, []string{"cardio"}, got.Tags)
		assert.Equal(t, 5, mockSearch.lastOpts.Limit)
	})

	t.Run("default limit is 10", func(t *testing.T) {
		mockSearch := &mockSearchService{}
		server, err := NewServer(&Ports{Search: mockSearch})
		require.NoError(t, err)

		_, output, err := server.handleSearch(ctx, nil, SearchInput{Query: "test"})

		require.NoError(t, err)
		assert.Equal(t, 0, output.Count)
		assert.Equal(t, 10, mockSearch.lastOpts.Limit)
	})

	t.Run("passes sections tags and strategy", func(t *testing.T) {
		mockSearch := &mockSearchService{}
		server, err := NewServer(&Ports{Search: mockSearch})
		require.NoError(t, err)

		input := SearchInput{
			Query:    "sepsis",
			Sections: []string{"Protocols"},
			Tags:     []string{"icu"},
			Strategy: "merge",
		}
		_, _, err = server.handleSearch(ctx, nil, input)

		require.NoError(t, err)
		assert.Equal(t, []domain.SectionID{domain.SectionProtocols}, mockSearch.lastOpts.Filters.Sections)
		assert.Equal(t, []string{"icu"}, mockSearch.lastOpts.Filters.Tags)
		assert.Equal(t, domain.StrategyMerge, mockSearch.lastOpts.Strategy)
	})

	t.Run("rejects unknown section", func(t *testing.T) {
		server, err := NewServer(&Ports{Search: &mockSearchService{}})
		require.NoError(t, err)

		_, _, err = server.handleSearch(ctx, nil, SearchInput{Query: "x", Sections: []string{"radiology"}})
		assert.ErrorIs(t, err, domain.ErrUnknownSection)
	})

	t.Run("rejects unknown strategy", func(t *testing.T) {
		server, err := NewServer(&Ports{Search: &mockSearchService{}})
		require.NoError(t, err)

		_, _, err = server.handleSearch(ctx, nil, SearchInput{Query: "x", Strategy: "semantic"})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("reports fallback and unavailable sections", func(t *testing.T) {
		mockSearch := &mockSearchService{
			response: &domain.SearchResponse{
				Results:  []domain.SearchResult{chestPainResult()},
				Fallback: true,
				Unavailable: []domain.SectionFailure{
					domain.NewSectionFailure(domain.SectionFormulary, errors.New("offline")),
				},
			},
		}
		server, err := NewServer(&Ports{Search: mockSearch})
		require.NoError(t, err)

		_, output, err := server.handleSearch(ctx, nil, SearchInput{Query: "chset pain"})

		require.NoError(t, err)
		assert.True(t, output.Fallback)
		assert.Equal(t, []string{"formulary: offline"}, output.Unavailable)
	})

	t.Run("returns error on search failure", func(t *testing.T) {
		mockSearch := &mockSearchService{
			err: context.Canceled,
		}

		server, err := NewServer(&Ports{Search: mockSearch})
		require.NoError(t, err)

		_, _, err = server.handleSearch(ctx, nil, SearchInput{Query: "test"})

		require.Error(t, err)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestServer_handleEnhancedSearch(t *testing.T) {
	ctx := context.Background()

	mockSearch := &mockSearchService{
		enhanced: &domain.EnhancedSearchResponse{
			Results: []domain.EnhancedSearchResult{{
				SearchResult: chestPainResult(),
				Similarity:   0.9,
				Matches: []domain.FieldMatch{
					{Field: domain.FieldTitle, Value: "Chest Pain", Score: 0.1},
					{Field: domain.FieldTags, Value: "cardio", Score: 0.3},
				},
			}},
		},
	}
	server, err := NewServer(&Ports{Search: mockSearch})
	require.NoError(t, err)

	_, output, err := server.handleEnhancedSearch(ctx, nil, SearchInput{Query: "chest pian"})

	require.NoError(t, err)
	require.Len(t, output.Results, 1)
	assert.Equal(t, []string{"title", "tags"}, output.Results[0].Matched)
	assert.Equal(t, "chest pian", mockSearch.lastQuery)
}

func TestServer_handleSuggest(t *testing.T) {
	ctx := context.Background()

	t.Run("returns suggestions", func(t *testing.T) {
		mockSearch := &mockSearchService{suggestions: []string{"Chest Pain", "Back Pain"}}
		server, err := NewServer(&Ports{Search: mockSearch})
		require.NoError(t, err)

		_, output, err := server.handleSuggest(ctx, nil, SuggestInput{Query: "pain", Limit: 2})

		require.NoError(t, err)
		assert.Equal(t, []string{"Chest Pain", "Back Pain"}, output.Suggestions)
		assert.Equal(t, 2, mockSearch.lastLimit)
	})

	t.Run("never returns nil", func(t *testing.T) {
		server, err := NewServer(&Ports{Search: &mockSearchService{}})
		require.NoError(t, err)

		_, output, err := server.handleSuggest(ctx, nil, SuggestInput{Query: "zz"})

		require.NoError(t, err)
		assert.NotNil(t, output.Suggestions)
		assert.Empty(t, output.Suggestions)
	})
}
