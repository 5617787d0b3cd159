package mcp

import (
	"github.com/custodia-labs/handbook-search/internal/core/ports/driving"
)

// Ports are the driving ports the MCP server calls.
type Ports struct {
	// Search answers the search, enhanced_search and suggest tools.
	Search driving.SearchService

	// Index backs the sections resources and warming on start. Optional.
	Index driving.IndexService
}

// Validate reports a missing search service.
func (p *Ports) Validate() error {
	if p == nil || p.Search == nil {
		return ErrMissingSearchService
	}
	return nil
}
