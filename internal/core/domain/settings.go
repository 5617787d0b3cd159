package domain

import "fmt"

// ContentSourceType identifies the backing content store.
type ContentSourceType string

// Available content sources.
const (
	// ContentSourceFilesystem reads a local directory tree.
	ContentSourceFilesystem ContentSourceType = "filesystem"

	// ContentSourceHTTP reads from a static HTTP content endpoint.
	ContentSourceHTTP ContentSourceType = "http"

	// ContentSourceGitHub reads files from a GitHub repository.
	ContentSourceGitHub ContentSourceType = "github"

	// ContentSourceSQLite reads a previously imported SQLite database.
	ContentSourceSQLite ContentSourceType = "sqlite"
)

// IsValid returns true if the content source is recognised.
func (t ContentSourceType) IsValid() bool {
	switch t {
	case ContentSourceFilesystem, ContentSourceHTTP, ContentSourceGitHub, ContentSourceSQLite:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (t ContentSourceType) String() string {
	return string(t)
}

// ScoringSettings tunes the exact/weighted scorer.
type ScoringSettings struct {
	// TitleBoost is added per token found in the title.
	TitleBoost float64

	// PhraseBoost is added when a multi-token query occurs verbatim.
	PhraseBoost float64

	// LengthScale and LengthFloor shape the length normaliser
	// max(LengthFloor, sqrt(len(text)/LengthScale)).
	LengthScale float64
	LengthFloor float64
}

// FieldWeights are the relative weights of the approximate scorer fields.
type FieldWeights struct {
	Title    float64
	Headings float64
	Text     float64
	Tags     float64
}

// Normalised returns the weights scaled to sum to 1.
func (w FieldWeights) Normalised() FieldWeights {
	total := w.Title + w.Headings + w.Text + w.Tags
	if total <= 0 {
		return FieldWeights{Title: 0.25, Headings: 0.25, Text: 0.25, Tags: 0.25}
	}
	return FieldWeights{
		Title:    w.Title / total,
		Headings: w.Headings / total,
		Text:     w.Text / total,
		Tags:     w.Tags / total,
	}
}

// Of returns the weight of a field.
func (w FieldWeights) Of(f Field) float64 {
	switch f {
	case FieldTitle:
		return w.Title
	case FieldHeadings:
		return w.Headings
	case FieldText:
		return w.Text
	case FieldTags:
		return w.Tags
	default:
		return 0
	}
}

// FuzzySettings configures the approximate matcher.
type FuzzySettings struct {
	// Threshold is the accepted mismatch on a 0 (exact) to 1 (anything) scale.
	Threshold float64

	// MinMatchLength is the shortest matched run that counts.
	MinMatchLength int

	// IgnoreLocation disables the position penalty.
	IgnoreLocation bool

	// Distance is how far from the expected location a match may drift
	// when IgnoreLocation is false.
	Distance int

	// Weights are the per-field weights.
	Weights FieldWeights
}

// ExcerptSettings configures excerpt generation.
type ExcerptSettings struct {
	// MaxLength bounds the excerpt text, excluding markup.
	MaxLength int

	// Context is the number of runes kept on each side of a match.
	Context int

	// HighlightOpen and HighlightClose wrap the matched text.
	HighlightOpen  string
	HighlightClose string
}

// SearchSettings holds search behaviour configuration.
type SearchSettings struct {
	// MinQueryLength is the shortest trimmed query that executes.
	MinQueryLength int

	// DefaultLimit applies when a caller passes no limit.
	DefaultLimit int

	// MaxLimit caps caller-supplied limits.
	MaxLimit int

	// MinScore is the default exact score cut-off.
	MinScore float64

	// Strategy is the default strategy of Search.
	Strategy Strategy

	// Sections are the sections searched when a query names none.
	Sections []SectionID

	// SuggestionLimit is the default number of suggestions.
	SuggestionLimit int

	// Concurrency bounds parallel document fetches per section.
	Concurrency int

	Scoring ScoringSettings
	Fuzzy   FuzzySettings
	Excerpt ExcerptSettings
}

// Validate checks that the settings are usable.
func (s *SearchSettings) Validate() error {
	if s.MinQueryLength < 1 {
		return fmt.Errorf("%w: min query length must be at least 1", ErrInvalidInput)
	}
	if s.DefaultLimit < 1 || s.MaxLimit < s.DefaultLimit {
		return fmt.Errorf("%w: limits must satisfy 1 <= default <= max", ErrInvalidInput)
	}
	if !s.Strategy.IsValid() {
		return fmt.Errorf("%w: strategy %q", ErrInvalidInput, s.Strategy)
	}
	if s.Fuzzy.Threshold < 0 || s.Fuzzy.Threshold > 1 {
		return fmt.Errorf("%w: fuzzy threshold must be within [0, 1]", ErrInvalidInput)
	}
	if s.Excerpt.MaxLength < 1 {
		return fmt.Errorf("%w: excerpt max length must be positive", ErrInvalidInput)
	}
	if s.Scoring.LengthScale <= 0 {
		return fmt.Errorf("%w: length scale must be positive", ErrInvalidInput)
	}
	for _, sec := range s.Sections {
		if !sec.IsValid() {
			return fmt.Errorf("%w: %q", ErrUnknownSection, sec)
		}
	}
	return nil
}

// DefaultSearchSettings returns the built-in defaults.
func DefaultSearchSettings() SearchSettings {
	return SearchSettings{
		MinQueryLength:  2,
		DefaultLimit:    20,
		MaxLimit:        100,
		MinScore:        0.1,
		Strategy:        StrategyFallback,
		Sections:        AllSections(),
		SuggestionLimit: 5,
		Concurrency:     6,
		Scoring: ScoringSettings{
			TitleBoost:  3,
			PhraseBoost: 5,
			LengthScale: 1000,
			LengthFloor: 1,
		},
		Fuzzy: FuzzySettings{
			Threshold:      0.4,
			MinMatchLength: 3,
			IgnoreLocation: true,
			Distance:       100,
			Weights: FieldWeights{
				Title:    0.4,
				Headings: 0.3,
				Text:     0.2,
				Tags:     0.1,
			},
		},
		Excerpt: ExcerptSettings{
			MaxLength:      200,
			Context:        100,
			HighlightOpen:  HighlightOpen,
			HighlightClose: HighlightClose,
		},
	}
}

// ContentSettings configures where documents come from.
type ContentSettings struct {
	Source ContentSourceType

	// Path is the filesystem root or SQLite data directory.
	Path string

	// BaseURL is the HTTP content endpoint.
	BaseURL string

	// Token is an optional bearer token for HTTP and GitHub sources.
	Token string

	// Rate is the request rate limit per second; zero disables it.
	Rate float64

	// GitHub repository coordinates.
	Owner string
	Repo  string
	Ref   string
	Root  string

	// Watch clears the index when filesystem content changes.
	Watch bool
}

// DefaultContentSettings returns the built-in content defaults.
func DefaultContentSettings() ContentSettings {
	return ContentSettings{
		Source: ContentSourceFilesystem,
		Rate:   10,
	}
}

// AppSettings is the complete application configuration.
type AppSettings struct {
	Search  SearchSettings
	Content ContentSettings
}

// DefaultAppSettings returns all defaults.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Search:  DefaultSearchSettings(),
		Content: DefaultContentSettings(),
	}
}
