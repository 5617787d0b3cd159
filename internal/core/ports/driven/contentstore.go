package driven

import (
	"context"

	"github.com/custodia-labs/handbook-search/internal/core/domain"
)

// ContentStore retrieves handbook content by logical path.
// It performs pure I/O and carries no business logic.
//
// Implementations return an error wrapping domain.ErrNotFound when the
// store answers that an entry does not exist, domain.ErrFetchFailed for
// transport or status failures, and domain.ErrParseFailed for malformed
// envelopes.
type ContentStore interface {
	// FetchTableOfContents returns the ordered table of contents of a section.
	FetchTableOfContents(ctx context.Context, section domain.SectionID) ([]domain.TocNode, error)

	// FetchDocument returns one document of a section.
	FetchDocument(ctx context.Context, section domain.SectionID, path string) (*domain.Document, error)
}

// ContentWatcher is implemented by stores that can report content changes.
type ContentWatcher interface {
	// Watch blocks until ctx is done, calling onChange with the section
	// whose content changed.
	Watch(ctx context.Context, onChange func(section domain.SectionID)) error
}
