package services

import (
	"math"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/handbook-search/internal/core/domain"
)

// Scorer names.
const (
	ScorerExact       = "exact"
	ScorerApproximate = "approximate"
)

// Scored is one record that matched a query.
type Scored struct {
	Record *domain.IndexedRecord
	Score  domain.Score

	// Scorer is the name of the scorer that produced Score.
	Scorer string

	// Spans are the located matches, in field order.
	Spans []domain.MatchSpan

	// Matches carry per-value detail from the approximate scorer.
	Matches []domain.FieldMatch

	// Excerpt is the span used for the preview, if any.
	Excerpt *domain.MatchSpan
}

// Scorer rates records against a single prepared query.
// The score carries its own sort direction so callers never need to
// know which scorer produced it.
type Scorer interface {
	// Name identifies the scorer in results.
	Name() string

	// Score returns the match for r, or false when r does not match.
	Score(r *domain.IndexedRecord) (Scored, bool)
}

// rank scores every record and sorts the matches best first.
// Ties keep the input order.
func rank(s Scorer, records []*domain.IndexedRecord) []Scored {
	var out []Scored
	for _, r := range records {
		if m, ok := s.Score(r); ok {
			m.Scorer = s.Name()
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score.Better(out[j].Score)
	})
	return out
}

// Tokenize lower-cases the query, splits it on whitespace and drops
// tokens of one rune or less.
func Tokenize(query string) []string {
	fields := strings.Fields(strings.ToLower(query))
	tokens := fields[:0]
	for _, f := range fields {
		if utf8.RuneCountInString(f) > 1 {
			tokens = append(tokens, f)
		}
	}
	return tokens
}

// ExactScorer ranks by field-weighted term frequency with a phrase bonus,
// normalised by text length. Higher is better.
type ExactScorer struct {
	tokens   []string
	phrase   string
	minScore float64
	settings domain.ScoringSettings
}

var _ Scorer = (*ExactScorer)(nil)

// NewExactScorer prepares the query for exact scoring.
func NewExactScorer(query string, minScore float64, settings domain.ScoringSettings) *ExactScorer {
	s := &ExactScorer{
		tokens:   Tokenize(query),
		minScore: minScore,
		settings: settings,
	}
	if len(s.tokens) > 1 {
		s.phrase = strings.Join(strings.Fields(strings.ToLower(query)), " ")
	}
	return s
}

// Name implements Scorer.
func (s *ExactScorer) Name() string {
	return ScorerExact
}

// Score implements Scorer.
func (s *ExactScorer) Score(r *domain.IndexedRecord) (Scored, bool) {
	if len(s.tokens) == 0 {
		return Scored{}, false
	}

	title := strings.ToLower(r.Title)
	text := r.SearchableText

	var raw float64
	var tier int
	var spans []domain.MatchSpan
	var excerpt *domain.MatchSpan

	for _, tok := range s.tokens {
		if at := runeIndex(title, tok); at >= 0 {
			raw += s.settings.TitleBoost
			tier = 1
			spans = append(spans, spanAt(domain.FieldTitle, 0, at, tok))
		}
		if count := strings.Count(text, tok); count > 0 {
			raw += float64(count)
			span := spanAt(domain.FieldText, 0, runeIndex(text, tok), tok)
			spans = append(spans, span)
			if excerpt == nil || span.Start < excerpt.Start {
				excerpt = &span
			}
		}
	}

	if s.phrase != "" && strings.Contains(text, s.phrase) {
		raw += s.settings.PhraseBoost
	}
	if raw == 0 {
		return Scored{}, false
	}

	value := raw / s.lengthDivisor(text)
	if value < s.minScore {
		return Scored{}, false
	}

	return Scored{
		Record:  r,
		Score:   domain.Score{Value: value, HigherIsBetter: true, Tier: tier},
		Spans:   spans,
		Excerpt: excerpt,
	}, true
}

// lengthDivisor is max(floor, sqrt(len/scale)), and 1 for empty text.
func (s *ExactScorer) lengthDivisor(text string) float64 {
	n := utf8.RuneCountInString(text)
	if n == 0 || s.settings.LengthScale <= 0 {
		return 1
	}
	d := math.Sqrt(float64(n) / s.settings.LengthScale)
	floor := s.settings.LengthFloor
	if floor <= 0 {
		floor = 1
	}
	return math.Max(floor, d)
}

// runeIndex is strings.Index in runes.
func runeIndex(s, substr string) int {
	i := strings.Index(s, substr)
	if i < 0 {
		return -1
	}
	return utf8.RuneCountInString(s[:i])
}

func spanAt(field domain.Field, index, start int, token string) domain.MatchSpan {
	return domain.MatchSpan{
		Field: field,
		Index: index,
		Start: start,
		End:   start + utf8.RuneCountInString(token) - 1,
	}
}
