package services

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/handbook-search/internal/core/domain"
)

func newTestApproximateScorer(query string) *ApproximateScorer {
	return NewApproximateScorer(substringMatcher{}, query, domain.DefaultSearchSettings().Fuzzy.Weights)
}

func TestApproximateScorer_WeightedProduct(t *testing.T) {
	r := &domain.IndexedRecord{
		ID:             "a",
		Title:          "Febrile Neutropenia",
		Headings:       []string{"Assessment", "Neutropenia risk"},
		SearchableText: "fever in neutropenia",
	}

	m, ok := newTestApproximateScorer("neutropenia").Score(r)
	require.True(t, ok)
	assert.False(t, m.Score.HigherIsBetter)

	// title 0.2^(0.4*0.707) * heading 0.2^(0.3*0.707) * text 0.2^(0.2*0.577)
	want := math.Pow(0.2, 0.4*0.707) * math.Pow(0.2, 0.3*0.707) * math.Pow(0.2, 0.2*0.577)
	assert.InDelta(t, want, m.Score.Value, 1e-9)

	require.Len(t, m.Matches, 3)
	assert.Equal(t, domain.FieldTitle, m.Matches[0].Field)
	assert.Equal(t, domain.FieldHeadings, m.Matches[1].Field)
	assert.Equal(t, 1, m.Matches[1].Index)
	assert.Equal(t, domain.FieldText, m.Matches[2].Field)

	require.NotNil(t, m.Excerpt)
	assert.Equal(t, domain.MatchSpan{Field: domain.FieldTitle, Start: 8, End: 18}, *m.Excerpt)
}

func TestApproximateScorer_PerfectMatchUsesEpsilon(t *testing.T) {
	r := &domain.IndexedRecord{ID: "a", Title: "Sepsis"}

	m, ok := newTestApproximateScorer("sepsis").Score(r)
	require.True(t, ok)
	assert.Greater(t, m.Score.Value, 0.0)
	assert.Less(t, m.Score.Value, 1e-5)
}

func TestApproximateScorer_TagsMatch(t *testing.T) {
	r := &domain.IndexedRecord{
		ID:       "a",
		Title:    "Chest Pain",
		Metadata: domain.RecordMetadata{Tags: []string{"cardiology", "acs"}},
	}

	m, ok := newTestApproximateScorer("cardio").Score(r)
	require.True(t, ok)
	require.Len(t, m.Matches, 1)
	assert.Equal(t, domain.FieldTags, m.Matches[0].Field)
	assert.Equal(t, 0, m.Matches[0].Index)
	assert.Equal(t, domain.FieldTags, m.Excerpt.Field)
}

func TestApproximateScorer_NoMatch(t *testing.T) {
	_, ok := newTestApproximateScorer("stroke").Score(&domain.IndexedRecord{ID: "a", Title: "Asthma", SearchableText: "wheeze"})
	assert.False(t, ok)
}

func TestApproximateScorer_RanksLowerFirst(t *testing.T) {
	exact := &domain.IndexedRecord{ID: "exact", Title: "Sepsis"}
	partial := &domain.IndexedRecord{ID: "partial", Title: "Sepsis bundle"}
	unrelated := &domain.IndexedRecord{ID: "none", Title: "Asthma"}

	ranked := rank(newTestApproximateScorer("sepsis"), []*domain.IndexedRecord{partial, unrelated, exact})
	require.Len(t, ranked, 2)
	assert.Equal(t, "exact", ranked[0].Record.ID)
	assert.Equal(t, "partial", ranked[1].Record.ID)
	assert.Equal(t, ScorerApproximate, ranked[0].Scorer)
}

func TestExcerptSpan_LongestOfFirstField(t *testing.T) {
	matches := []domain.FieldMatch{
		{Field: domain.FieldTitle},
		{Field: domain.FieldText, Spans: []domain.MatchSpan{
			{Field: domain.FieldText, Start: 0, End: 2},
			{Field: domain.FieldText, Start: 10, End: 17},
			{Field: domain.FieldText, Start: 30, End: 33},
		}},
		{Field: domain.FieldTags, Spans: []domain.MatchSpan{{Field: domain.FieldTags, Start: 0, End: 40}}},
	}

	span := excerptSpan(matches)
	require.NotNil(t, span)
	assert.Equal(t, domain.MatchSpan{Field: domain.FieldText, Start: 10, End: 17}, *span)
	assert.Nil(t, excerptSpan(nil))
}

func TestFieldNorm(t *testing.T) {
	assert.Equal(t, 1.0, fieldNorm("sepsis"))
	assert.Equal(t, 0.707, fieldNorm("febrile neutropenia"))
	assert.Equal(t, 0.5, fieldNorm("a b c d"))
	assert.Equal(t, 1.0, fieldNorm(""))
}
