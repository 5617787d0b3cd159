package services

import (
	"strings"

	"github.com/custodia-labs/handbook-search/internal/core/domain"
)

const ellipsis = "..."

// ExcerptBuilder cuts bounded previews around a match.
// Offsets are rune based and the match end is inclusive.
type ExcerptBuilder struct {
	maxLength int
	context   int
	open      string
	close     string
}

// NewExcerptBuilder creates an excerpt builder from settings.
func NewExcerptBuilder(settings domain.ExcerptSettings) *ExcerptBuilder {
	b := &ExcerptBuilder{
		maxLength: settings.MaxLength,
		context:   settings.Context,
		open:      settings.HighlightOpen,
		close:     settings.HighlightClose,
	}
	if b.maxLength <= 0 {
		b.maxLength = 200
	}
	if b.context < 0 {
		b.context = 0
	}
	return b
}

// Build returns the window of text around [start, end].
//
// The window text (excluding ellipses and highlight markup) holds at
// most maxLength runes unless the match alone is longer, in which case
// the whole match is kept. Ellipses mark sides where the window stops
// short of the text boundary. When highlight is set the match is
// wrapped in the configured delimiters.
func (b *ExcerptBuilder) Build(text string, start, end int, highlight bool) string {
	runes := []rune(text)
	n := len(runes)
	if n == 0 {
		return ""
	}
	start = max(start, 0)
	end = min(end, n-1)
	if start > end {
		return b.Lead(text)
	}

	from := max(start-b.context, 0)
	to := min(end+b.context, n-1)

	if to-from+1 > b.maxLength {
		budget := b.maxLength - (end - start + 1)
		if budget <= 0 {
			from, to = start, end
		} else {
			leadRoom, trailRoom := start-from, to-end
			lead := min(leadRoom, budget/2)
			trail := min(trailRoom, budget-lead)
			lead = min(leadRoom, budget-trail)
			from, to = start-lead, end+trail
		}
	}

	var sb strings.Builder
	if from > 0 {
		sb.WriteString(ellipsis)
	}
	if highlight {
		sb.WriteString(string(runes[from:start]))
		sb.WriteString(b.open)
		sb.WriteString(string(runes[start : end+1]))
		sb.WriteString(b.close)
		sb.WriteString(string(runes[end+1 : to+1]))
	} else {
		sb.WriteString(string(runes[from : to+1]))
	}
	if to < n-1 {
		sb.WriteString(ellipsis)
	}
	return sb.String()
}

// Lead returns the opening of text, for records matched without a span.
func (b *ExcerptBuilder) Lead(text string) string {
	runes := []rune(text)
	if len(runes) <= b.maxLength {
		return text
	}
	return string(runes[:b.maxLength]) + ellipsis
}
