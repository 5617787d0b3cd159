package domain

import (
	"fmt"
	"strings"
	"time"
)

// Highlight delimiters wrapped around matched text in excerpts.
// Rendering layers replace them with their own styling.
const (
	HighlightOpen  = "«"
	HighlightClose = "»"
)

// Strategy selects which scorer(s) answer a query.
type Strategy string

// Available strategies.
const (
	// StrategyExact uses only the exact/weighted scorer.
	StrategyExact Strategy = "exact"

	// StrategyApproximate uses only the typo-tolerant scorer.
	StrategyApproximate Strategy = "approximate"

	// StrategyFallback uses the exact scorer and falls back to the
	// approximate scorer when the exact one finds nothing.
	StrategyFallback Strategy = "fallback"

	// StrategyMerge runs both scorers and lists exact hits first,
	// followed by approximate-only hits.
	StrategyMerge Strategy = "merge"
)

// IsValid returns true if the strategy is recognised.
func (s Strategy) IsValid() bool {
	switch s {
	case StrategyExact, StrategyApproximate, StrategyFallback, StrategyMerge:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (s Strategy) String() string {
	return string(s)
}

// Field names a searchable field of an indexed record.
type Field string

// Searchable fields.
const (
	FieldTitle    Field = "title"
	FieldHeadings Field = "headings"
	FieldText     Field = "searchableText"
	FieldTags     Field = "tags"
)

// Score is a relevance value together with its sort direction.
// Scores from different scorers are never compared with each other.
type Score struct {
	// Value is the raw score.
	Value float64 `json:"value"`

	// HigherIsBetter is true for descending ("bigger wins") scores.
	HigherIsBetter bool `json:"higher_is_better"`

	// Tier ranks ahead of Value: a higher tier always wins.
	Tier int `json:"tier,omitempty"`
}

// Better reports whether s ranks strictly ahead of other.
func (s Score) Better(other Score) bool {
	if s.Tier != other.Tier {
		return s.Tier > other.Tier
	}
	if s.HigherIsBetter {
		return s.Value > other.Value
	}
	return s.Value < other.Value
}

// String formats the value with the precision its scorer uses:
// two decimals for relevance, three for fuzzy distances.
func (s Score) String() string {
	if s.HigherIsBetter {
		return fmt.Sprintf("%.2f", s.Value)
	}
	return fmt.Sprintf("%.3f", s.Value)
}

// MatchSpan is a zero-based rune range within a field value.
// End is inclusive.
type MatchSpan struct {
	Field Field `json:"field"`

	// Index selects the element for multi-valued fields (headings, tags).
	Index int `json:"index,omitempty"`

	Start int `json:"start"`
	End   int `json:"end"`
}

// Len returns the number of runes covered by the span.
func (m MatchSpan) Len() int {
	return m.End - m.Start + 1
}

// FieldMatch describes where the approximate matcher hit one field value.
type FieldMatch struct {
	Field Field  `json:"field"`
	Index int    `json:"index,omitempty"`
	Value string `json:"value"`

	// Score is the per-value match score, 0 for a perfect match.
	Score float64 `json:"score"`

	Spans []MatchSpan `json:"spans"`
}

// Filters narrows results by record metadata. Zero values disable a filter.
type Filters struct {
	// Sections is an allow-list; it also limits which sections are indexed.
	Sections []SectionID

	// Tags keeps records carrying at least one of the tags.
	Tags []string

	// Levels keeps records whose clinical level is listed.
	Levels []ClinicalLevel

	// Author keeps records whose author contains this substring.
	Author string

	// Category keeps records whose category equals this value, ignoring case.
	Category string

	// UpdatedAfter keeps records updated at or after this instant.
	UpdatedAfter time.Time

	// UpdatedBefore keeps records updated at or before this instant.
	UpdatedBefore time.Time
}

// IsEmpty returns true if no filter is active apart from Sections.
func (f *Filters) IsEmpty() bool {
	return len(f.Tags) == 0 && len(f.Levels) == 0 && f.Author == "" && f.Category == "" &&
		f.UpdatedAfter.IsZero() && f.UpdatedBefore.IsZero()
}

// Match reports whether a record passes every active filter.
func (f *Filters) Match(r *IndexedRecord) bool {
	if len(f.Sections) > 0 && !containsSection(f.Sections, r.Section) {
		return false
	}
	if len(f.Tags) > 0 && !anyTag(&r.Metadata, f.Tags) {
		return false
	}
	if len(f.Levels) > 0 && !containsLevel(f.Levels, r.Metadata.ClinicalLevel) {
		return false
	}
	if f.Author != "" &&
		!strings.Contains(strings.ToLower(r.Metadata.Author), strings.ToLower(f.Author)) {
		return false
	}
	if f.Category != "" && !strings.EqualFold(r.Metadata.Category, f.Category) {
		return false
	}
	if !f.UpdatedAfter.IsZero() || !f.UpdatedBefore.IsZero() {
		updated := r.Metadata.LastUpdated
		if updated.IsZero() {
			return false
		}
		if !f.UpdatedAfter.IsZero() && updated.Before(f.UpdatedAfter) {
			return false
		}
		if !f.UpdatedBefore.IsZero() && updated.After(f.UpdatedBefore) {
			return false
		}
	}
	return true
}

func containsSection(list []SectionID, s SectionID) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func containsLevel(list []ClinicalLevel, l ClinicalLevel) bool {
	for _, v := range list {
		if v == l {
			return true
		}
	}
	return false
}

func anyTag(m *RecordMetadata, tags []string) bool {
	for _, t := range tags {
		if m.HasTag(t) {
			return true
		}
	}
	return false
}

// SearchOptions configures a search query.
type SearchOptions struct {
	// Limit is the maximum number of results. Zero uses the default.
	Limit int

	// MinScore drops exact matches scoring below it. Zero uses the default.
	MinScore float64

	// Strategy overrides the configured strategy for Search.
	// EnhancedSearch always uses StrategyApproximate.
	Strategy Strategy

	// Filters are post-filters applied after scoring.
	Filters Filters
}

// SearchResult represents a single ranked hit.
type SearchResult struct {
	// Reference identifies the matched document.
	Reference ContentReference `json:"reference"`

	// ID is the record key.
	ID string `json:"id"`

	// Scorer names the scorer that produced Score ("exact" or "approximate").
	Scorer string `json:"scorer"`

	// Score is the relevance score in the scorer's own direction.
	Score Score `json:"score"`

	// MatchSpans are the located matches per field.
	MatchSpans []MatchSpan `json:"match_spans,omitempty"`

	// Excerpt is a bounded preview around the first match.
	Excerpt string `json:"excerpt,omitempty"`

	// Metadata is copied from the record.
	Metadata RecordMetadata `json:"metadata"`
}

// EnhancedSearchResult is an approximate hit with per-field match detail.
type EnhancedSearchResult struct {
	SearchResult

	// Similarity is 1 - score, so bigger means closer.
	Similarity float64 `json:"similarity"`

	// Matches lists every matching field value.
	Matches []FieldMatch `json:"matches,omitempty"`

	// Headings are the record headings, for result cards.
	Headings []string `json:"headings,omitempty"`
}

// SectionFailure flags a section that could not be searched.
type SectionFailure struct {
	Section SectionID `json:"section"`
	Err     error     `json:"-"`
	Message string    `json:"message"`
}

// NewSectionFailure builds a failure record from an error.
func NewSectionFailure(section SectionID, err error) SectionFailure {
	return SectionFailure{Section: section, Err: err, Message: err.Error()}
}

// SearchResponse carries results and any sections that were unavailable.
type SearchResponse struct {
	Query       string           `json:"query"`
	Results     []SearchResult   `json:"results"`
	Unavailable []SectionFailure `json:"unavailable,omitempty"`

	// Fallback is true when the approximate scorer answered an exact query.
	Fallback bool `json:"fallback,omitempty"`
}

// Partial returns true if at least one section could not be searched.
func (r *SearchResponse) Partial() bool {
	return len(r.Unavailable) > 0
}

// EnhancedSearchResponse is the approximate counterpart of SearchResponse.
type EnhancedSearchResponse struct {
	Query       string                 `json:"query"`
	Results     []EnhancedSearchResult `json:"results"`
	Unavailable []SectionFailure       `json:"unavailable,omitempty"`
}

// Partial returns true if at least one section could not be searched.
func (r *EnhancedSearchResponse) Partial() bool {
	return len(r.Unavailable) > 0
}

// SectionStats describes one built section of the index.
type SectionStats struct {
	Section       SectionID     `json:"section"`
	Records       int           `json:"records"`
	Skipped       int           `json:"skipped"`
	BuildDuration time.Duration `json:"build_duration"`
	BuiltAt       time.Time     `json:"built_at"`
}

// String returns a one-line summary.
func (s SectionStats) String() string {
	return fmt.Sprintf("%s: %d records (%d skipped) in %s", s.Section, s.Records, s.Skipped, s.BuildDuration)
}
