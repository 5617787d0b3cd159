package driven

// MatchRange is an inclusive, zero-based rune range.
type MatchRange struct {
	Start int
	End   int
}

// TextMatch is the outcome of matching one pattern against one text.
type TextMatch struct {
	// IsMatch is true when the text matched within the threshold.
	IsMatch bool

	// Score is 0 for a perfect match and approaches 1 for a poor one.
	Score float64

	// Ranges are the matched runs, each at least the configured
	// minimum length.
	Ranges []MatchRange
}

// CompiledPattern is a query prepared for repeated matching.
// It must be safe for concurrent use.
type CompiledPattern interface {
	// Match searches text for the pattern.
	Match(text string) TextMatch
}

// ApproximateMatcher performs edit-distance tolerant substring matching.
type ApproximateMatcher interface {
	// Compile prepares a pattern. Matching is case-insensitive.
	Compile(pattern string) CompiledPattern
}
