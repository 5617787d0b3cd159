package driving

import (
	"context"

	"github.com/custodia-labs/handbook-search/internal/core/domain"
)

// SearchService provides search capabilities to external actors.
//
// Errors are returned only when ctx is cancelled. Sections that could
// not be indexed are reported in the response instead.
type SearchService interface {
	// Search runs the configured strategy (exact by default, with
	// approximate fallback) over the requested sections.
	Search(ctx context.Context, query string, opts domain.SearchOptions) (*domain.SearchResponse, error)

	// EnhancedSearch runs the approximate matcher and returns per-field
	// match detail.
	EnhancedSearch(ctx context.Context, query string, opts domain.SearchOptions) (*domain.EnhancedSearchResponse, error)

	// GetSuggestions returns titles and terms containing the fragment.
	GetSuggestions(ctx context.Context, query string, limit int) ([]string, error)
}
