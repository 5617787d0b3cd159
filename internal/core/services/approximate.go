package services

import (
	"math"
	"strings"

	"github.com/custodia-labs/handbook-search/internal/core/domain"
	"github.com/custodia-labs/handbook-search/internal/core/ports/driven"
)

// epsilon replaces perfect field scores so the weighted product can
// still tell fields apart.
const epsilon = 2.220446049250313e-16

// ApproximateScorer ranks by typo-tolerant matching over weighted fields.
// Lower is better; 0 is a perfect match.
//
// A record's score is the product over every matching field value of
// score^(weight * norm), where norm = 1/sqrt(tokens in the value) damps
// long values.
type ApproximateScorer struct {
	pattern driven.CompiledPattern
	weights domain.FieldWeights
}

var _ Scorer = (*ApproximateScorer)(nil)

// NewApproximateScorer compiles the query with the matcher.
func NewApproximateScorer(
	matcher driven.ApproximateMatcher, query string, weights domain.FieldWeights,
) *ApproximateScorer {
	return &ApproximateScorer{
		pattern: matcher.Compile(strings.TrimSpace(query)),
		weights: weights.Normalised(),
	}
}

// Name implements Scorer.
func (s *ApproximateScorer) Name() string {
	return ScorerApproximate
}

// Score implements Scorer.
func (s *ApproximateScorer) Score(r *domain.IndexedRecord) (Scored, bool) {
	var matches []domain.FieldMatch

	matches = s.matchValue(matches, domain.FieldTitle, 0, r.Title)
	for i, h := range r.Headings {
		matches = s.matchValue(matches, domain.FieldHeadings, i, h)
	}
	matches = s.matchValue(matches, domain.FieldText, 0, r.SearchableText)
	for i, tag := range r.Metadata.Tags {
		matches = s.matchValue(matches, domain.FieldTags, i, tag)
	}

	if len(matches) == 0 {
		return Scored{}, false
	}

	total := 1.0
	var spans []domain.MatchSpan
	for _, m := range matches {
		score := m.Score
		if score == 0 {
			score = epsilon
		}
		total *= math.Pow(score, s.weights.Of(m.Field)*fieldNorm(m.Value))
		spans = append(spans, m.Spans...)
	}

	return Scored{
		Record:  r,
		Score:   domain.Score{Value: total},
		Spans:   spans,
		Matches: matches,
		Excerpt: excerptSpan(matches),
	}, true
}

func (s *ApproximateScorer) matchValue(
	matches []domain.FieldMatch, field domain.Field, index int, value string,
) []domain.FieldMatch {
	if strings.TrimSpace(value) == "" {
		return matches
	}
	tm := s.pattern.Match(value)
	if !tm.IsMatch {
		return matches
	}
	spans := make([]domain.MatchSpan, 0, len(tm.Ranges))
	for _, rg := range tm.Ranges {
		spans = append(spans, domain.MatchSpan{Field: field, Index: index, Start: rg.Start, End: rg.End})
	}
	return append(matches, domain.FieldMatch{
		Field: field,
		Index: index,
		Value: value,
		Score: tm.Score,
		Spans: spans,
	})
}

// excerptSpan picks the longest span of the first field that has spans.
func excerptSpan(matches []domain.FieldMatch) *domain.MatchSpan {
	for _, m := range matches {
		if len(m.Spans) == 0 {
			continue
		}
		best := m.Spans[0]
		for _, sp := range m.Spans[1:] {
			if sp.Len() > best.Len() {
				best = sp
			}
		}
		return &best
	}
	return nil
}

// fieldNorm is 1/sqrt(token count) rounded to three decimals.
func fieldNorm(value string) float64 {
	n := max(len(strings.Fields(value)), 1)
	return math.Round(1/math.Sqrt(float64(n))*1000) / 1000
}
