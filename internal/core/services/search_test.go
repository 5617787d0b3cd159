package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/handbook-search/internal/adapters/driven/matcher/bitap"
	"github.com/custodia-labs/handbook-search/internal/core/domain"
	"github.com/custodia-labs/handbook-search/internal/core/ports/driven"
)

func newTestSearchService(store *fakeStore, matcher driven.ApproximateMatcher) *SearchService {
	settings := domain.DefaultSearchSettings()
	return NewSearchService(NewSearchIndex(store, 2, settings.Sections), matcher, settings)
}

func clinicalStore() *fakeStore {
	store := newFakeStore()
	store.add(domain.SectionHandbook, "chest-pain", &domain.Document{
		Title:    "Chest Pain",
		Category: "Cardiology",
		Content: []domain.Block{
			domain.HeadingBlock{Level: 2, Text: "Initial assessment"},
			domain.ParagraphBlock{Text: "Record an ECG within ten minutes. Pain management with morphine if severe."},
		},
		Metadata: &domain.DocMetadata{
			Author:        "Dr Patel",
			Tags:          []string{"cardiology", "acs"},
			ClinicalLevel: domain.ClinicalLevel(2),
			LastUpdated:   time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		},
	})
	store.add(domain.SectionHandbook, "back-pain", paragraphs("Back Pain", "Simple analgesia and early mobilisation for pain."))
	store.add(domain.SectionGuidelines, "febrile-neutropenia", &domain.Document{
		Title: "Febrile Neutropenia",
		Content: []domain.Block{
			domain.ParagraphBlock{Text: "Treat fever and absolute neutrophil count below 0.5 as an emergency."},
		},
		Metadata: &domain.DocMetadata{Tags: []string{"oncology"}},
	})
	store.add(domain.SectionProtocols, "sepsis", paragraphs("Sepsis Six", "Give antibiotics within one hour."))
	store.add(domain.SectionFormulary, "morphine", paragraphs("Morphine", "Opioid analgesic for severe pain."))
	return store
}

func ids(results []domain.SearchResult) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.ID
	}
	return out
}

func TestSearch_ShortQueryDoesNoIO(t *testing.T) {
	store := clinicalStore()
	svc := newTestSearchService(store, substringMatcher{})

	for _, q := range []string{"", " ", "a", "  b  "} {
		resp, err := svc.Search(context.Background(), q, domain.SearchOptions{})
		require.NoError(t, err)
		assert.Empty(t, resp.Results)
		assert.NotNil(t, resp.Results)
	}

	enhanced, err := svc.EnhancedSearch(context.Background(), "x", domain.SearchOptions{})
	require.NoError(t, err)
	assert.Empty(t, enhanced.Results)

	for _, s := range domain.AllSections() {
		assert.Zero(t, store.calls(s))
	}
	assert.Zero(t, store.docCalls.Load())
}

func TestSearch_MinQueryLengthBoundary(t *testing.T) {
	tests := []struct {
		name      string
		minLength int
		query     string
		runs      bool
	}{
		{"default minimum reached", 2, "ec", true},
		{"exactly the minimum", 3, "ecg", true},
		{"one rune short", 3, "ec", false},
		{"padding is not counted", 3, " ec ", false},
		{"runes not bytes", 3, "ödé", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := clinicalStore()
			settings := domain.DefaultSearchSettings()
			settings.MinQueryLength = tt.minLength
			svc := NewSearchService(NewSearchIndex(store, 2, settings.Sections), substringMatcher{}, settings)

			resp, err := svc.Search(context.Background(), tt.query, domain.SearchOptions{Strategy: domain.StrategyExact})
			require.NoError(t, err)
			require.NotNil(t, resp.Results)

			if !tt.runs {
				assert.Empty(t, resp.Results)
				assert.Zero(t, store.calls(domain.SectionHandbook), "short queries must not index")
				assert.Zero(t, store.docCalls.Load())
				return
			}
			assert.Equal(t, 1, store.calls(domain.SectionHandbook))
			if tt.query == "ecg" {
				assert.Equal(t, []string{"handbook:chest-pain"}, ids(resp.Results))
			}
		})
	}
}

func TestSearch_RepeatedQueryIsIdentical(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		strategy domain.Strategy
	}{
		{"exact", "pain", domain.StrategyExact},
		{"fallback", "neutropeni", domain.StrategyFallback},
		{"merge", "pain", domain.StrategyMerge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := clinicalStore()
			svc := newTestSearchService(store, bitap.New(bitap.DefaultOptions()))
			opts := domain.SearchOptions{Strategy: tt.strategy}

			first, err := svc.Search(context.Background(), tt.query, opts)
			require.NoError(t, err)
			require.NotEmpty(t, first.Results)

			for range 3 {
				again, err := svc.Search(context.Background(), tt.query, opts)
				require.NoError(t, err)
				assert.Equal(t, first.Results, again.Results)
			}
			assert.Equal(t, 1, store.calls(domain.SectionHandbook), "repeats reuse the built index")
		})
	}
}

func TestSearch_ExactRanking(t *testing.T) {
	svc := newTestSearchService(clinicalStore(), substringMatcher{})

	resp, err := svc.Search(context.Background(), "pain", domain.SearchOptions{Strategy: domain.StrategyExact})
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(resp.Results), 3)

	// Title matches come before text-only matches.
	top := ids(resp.Results[:2])
	assert.ElementsMatch(t, []string{"handbook:chest-pain", "handbook:back-pain"}, top)
	assert.Equal(t, "formulary:morphine", resp.Results[2].ID)
	for _, r := range resp.Results {
		assert.Equal(t, ScorerExact, r.Scorer)
		assert.True(t, r.Score.HigherIsBetter)
	}
	assert.False(t, resp.Partial())
}

func TestSearch_PhraseBoostScenario(t *testing.T) {
	svc := newTestSearchService(clinicalStore(), substringMatcher{})

	resp, err := svc.Search(context.Background(), "pain management", domain.SearchOptions{Strategy: domain.StrategyExact})
	require.NoError(t, err)
	require.NotEmpty(t, resp.Results)
	assert.Equal(t, "handbook:chest-pain", resp.Results[0].ID)
}

func TestSearch_ExcerptHasNoDelimitersForExact(t *testing.T) {
	svc := newTestSearchService(clinicalStore(), substringMatcher{})

	resp, err := svc.Search(context.Background(), "antibiotics", domain.SearchOptions{Strategy: domain.StrategyExact})
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.Contains(t, resp.Results[0].Excerpt, "antibiotics")
	assert.NotContains(t, resp.Results[0].Excerpt, "«")
}

func TestSearch_FallbackStrategy(t *testing.T) {
	svc := newTestSearchService(clinicalStore(), bitap.New(bitap.DefaultOptions()))

	resp, err := svc.Search(context.Background(), "mobilisaton", domain.SearchOptions{})
	require.NoError(t, err)
	require.NotEmpty(t, resp.Results)
	assert.True(t, resp.Fallback)
	assert.Equal(t, "handbook:back-pain", resp.Results[0].ID)
	assert.Equal(t, ScorerApproximate, resp.Results[0].Scorer)
	assert.False(t, resp.Results[0].Score.HigherIsBetter)

	exact, err := svc.Search(context.Background(), "morphine", domain.SearchOptions{})
	require.NoError(t, err)
	assert.False(t, exact.Fallback)
	assert.Equal(t, ScorerExact, exact.Results[0].Scorer)
}

func TestSearch_MergeStrategy(t *testing.T) {
	svc := newTestSearchService(clinicalStore(), substringMatcher{})

	resp, err := svc.Search(context.Background(), "cardio", domain.SearchOptions{Strategy: domain.StrategyMerge})
	require.NoError(t, err)

	// "cardio" is not an exact token of any text, only a substring of a
	// tag, so the exact list is empty and the tag hit comes from the
	// approximate list with its own scorer label.
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "handbook:chest-pain", resp.Results[0].ID)
	assert.Equal(t, ScorerApproximate, resp.Results[0].Scorer)
}

func TestMergeRanked_DedupesExactFirst(t *testing.T) {
	a := &domain.IndexedRecord{ID: "a"}
	b := &domain.IndexedRecord{ID: "b"}
	c := &domain.IndexedRecord{ID: "c"}

	merged := mergeRanked(
		[]Scored{{Record: a, Scorer: ScorerExact}},
		[]Scored{{Record: c, Scorer: ScorerApproximate}, {Record: a, Scorer: ScorerApproximate}, {Record: b, Scorer: ScorerApproximate}},
	)

	require.Len(t, merged, 3)
	assert.Equal(t, "a", merged[0].Record.ID)
	assert.Equal(t, ScorerExact, merged[0].Scorer)
	assert.Equal(t, "c", merged[1].Record.ID)
	assert.Equal(t, "b", merged[2].Record.ID)
}

func TestSearch_Filters(t *testing.T) {
	svc := newTestSearchService(clinicalStore(), substringMatcher{})
	ctx := context.Background()

	tests := []struct {
		name    string
		filters domain.Filters
		want    []string
	}{
		{"section", domain.Filters{Sections: []domain.SectionID{domain.SectionFormulary}}, []string{"formulary:morphine"}},
		{"tag", domain.Filters{Tags: []string{"ACS"}}, []string{"handbook:chest-pain"}},
		{"level", domain.Filters{Levels: []domain.ClinicalLevel{2}}, []string{"handbook:chest-pain"}},
		{"author", domain.Filters{Author: "patel"}, []string{"handbook:chest-pain"}},
		{"category", domain.Filters{Category: "cardiology"}, []string{"handbook:chest-pain"}},
		{"updated after", domain.Filters{UpdatedAfter: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}, []string{"handbook:chest-pain"}},
		{"updated before", domain.Filters{UpdatedBefore: time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := svc.Search(ctx, "pain", domain.SearchOptions{Strategy: domain.StrategyExact, Filters: tt.filters})
			require.NoError(t, err)
			assert.ElementsMatch(t, tt.want, ids(resp.Results))
		})
	}
}

func TestSearch_SectionScopeLimitsIndexing(t *testing.T) {
	store := clinicalStore()
	svc := newTestSearchService(store, substringMatcher{})

	_, err := svc.Search(context.Background(), "morphine", domain.SearchOptions{
		Filters: domain.Filters{Sections: []domain.SectionID{domain.SectionFormulary}},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, store.calls(domain.SectionFormulary))
	assert.Zero(t, store.calls(domain.SectionHandbook))
	assert.Zero(t, store.calls(domain.SectionGuidelines))
}

func TestSearch_Limit(t *testing.T) {
	svc := newTestSearchService(clinicalStore(), substringMatcher{})

	resp, err := svc.Search(context.Background(), "pain", domain.SearchOptions{Strategy: domain.StrategyExact, Limit: 1})
	require.NoError(t, err)
	assert.Len(t, resp.Results, 1)

	assert.Equal(t, 20, svc.limit(0))
	assert.Equal(t, 100, svc.limit(1000))
	assert.Equal(t, 7, svc.limit(7))
}

func TestSearch_TwoSectionsOneUnavailable(t *testing.T) {
	store := newFakeStore()
	store.tocErrs[domain.SectionGuidelines] = domain.ErrFetchFailed
	store.add(domain.SectionProtocols, "sepsis", paragraphs("Sepsis Six", "Antibiotics within one hour for sepsis."))
	store.add(domain.SectionProtocols, "neutropenic-sepsis", paragraphs("Neutropenic Sepsis", "Piperacillin within one hour."))
	store.add(domain.SectionProtocols, "stroke", paragraphs("Stroke", "Thrombolysis window."))
	svc := newTestSearchService(store, substringMatcher{})

	resp, err := svc.Search(context.Background(), "sepsis", domain.SearchOptions{
		Strategy: domain.StrategyExact,
		Filters:  domain.Filters{Sections: []domain.SectionID{domain.SectionGuidelines, domain.SectionProtocols}},
	})
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"protocols:sepsis", "protocols:neutropenic-sepsis"}, ids(resp.Results))
	require.True(t, resp.Partial())
	require.Len(t, resp.Unavailable, 1)
	assert.Equal(t, domain.SectionGuidelines, resp.Unavailable[0].Section)
	assert.ErrorIs(t, resp.Unavailable[0].Err, domain.ErrIndexUnavailable)
}

func TestSearch_Cancelled(t *testing.T) {
	store := clinicalStore()
	store.gate = make(chan struct{})
	defer close(store.gate)
	svc := newTestSearchService(store, substringMatcher{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Search(ctx, "pain", domain.SearchOptions{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEnhancedSearch_NeutropeniaScenario(t *testing.T) {
	svc := newTestSearchService(clinicalStore(), bitap.New(bitap.DefaultOptions()))

	resp, err := svc.EnhancedSearch(context.Background(), "neutropeni", domain.SearchOptions{})
	require.NoError(t, err)
	require.NotEmpty(t, resp.Results)

	top := resp.Results[0]
	assert.Equal(t, "guidelines:febrile-neutropenia", top.ID)
	assert.Greater(t, top.Similarity, 0.0)
	assert.InDelta(t, 1-top.Score.Value, top.Similarity, 1e-12)
	assert.Equal(t, ScorerApproximate, top.Scorer)

	var inTitle bool
	for _, span := range top.MatchSpans {
		if span.Field == domain.FieldTitle && span.Start <= 8 && span.End >= 17 {
			inTitle = true
		}
	}
	assert.True(t, inTitle, "expected a highlighted span inside the title, got %+v", top.MatchSpans)
	assert.Contains(t, top.Excerpt, "«")
	require.NotEmpty(t, top.Matches)
	assert.Equal(t, domain.FieldTitle, top.Matches[0].Field)
}

func TestEnhancedSearch_WithoutMatcher(t *testing.T) {
	svc := newTestSearchService(clinicalStore(), nil)

	resp, err := svc.EnhancedSearch(context.Background(), "neutropenia", domain.SearchOptions{})
	require.NoError(t, err)
	assert.Empty(t, resp.Results)
}

func TestGetSuggestions(t *testing.T) {
	svc := newTestSearchService(clinicalStore(), bitap.New(bitap.DefaultOptions()))
	ctx := context.Background()

	t.Run("titles then headings then tags", func(t *testing.T) {
		got, err := svc.GetSuggestions(ctx, "ca", 10)
		require.NoError(t, err)
		assert.Equal(t, []string{"cardiology"}, got)

		got, err = svc.GetSuggestions(ctx, "pain", 10)
		require.NoError(t, err)
		assert.Equal(t, []string{"Chest Pain", "Back Pain"}, got)

		got, err = svc.GetSuggestions(ctx, "ass", 10)
		require.NoError(t, err)
		assert.Equal(t, []string{"Initial assessment"}, got)
	})

	t.Run("limit", func(t *testing.T) {
		got, err := svc.GetSuggestions(ctx, "pain", 1)
		require.NoError(t, err)
		assert.Equal(t, []string{"Chest Pain"}, got)
	})

	t.Run("approximate fallback", func(t *testing.T) {
		got, err := svc.GetSuggestions(ctx, "morfine", 5)
		require.NoError(t, err)
		require.NotEmpty(t, got)
		assert.Equal(t, "Morphine", got[0])
	})

	t.Run("no limit configured", func(t *testing.T) {
		settings := domain.DefaultSearchSettings()
		settings.SuggestionLimit = 0
		unlimited := NewSearchService(NewSearchIndex(clinicalStore(), 2, settings.Sections), nil, settings)

		got, err := unlimited.GetSuggestions(ctx, "pain", 0)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("short fragment", func(t *testing.T) {
		got, err := svc.GetSuggestions(ctx, "m", 5)
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}
