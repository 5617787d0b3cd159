package driving

import (
	"context"

	"github.com/custodia-labs/handbook-search/internal/core/domain"
)

// IndexService manages the session content index.
type IndexService interface {
	// Warm builds the given sections (all configured sections when none
	// are given) and reports those that could not be built.
	Warm(ctx context.Context, sections ...domain.SectionID) ([]domain.SectionFailure, error)

	// Stats describes the sections built so far.
	Stats() []domain.SectionStats

	// Clear discards every built section.
	Clear()

	// ClearSection discards one section so its next search rebuilds it.
	ClearSection(section domain.SectionID)
}
