// Package tui provides an interactive terminal user interface for the handbook.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"github.com/custodia-labs/handbook-search/internal/core/ports/driving"
)

// Ports aggregates the driving ports used by the TUI.
type Ports struct {
	// Search answers queries. Required.
	Search driving.SearchService

	// Index builds and discards sections. Optional; the sections view
	// reports an error without it.
	Index driving.IndexService

	// Settings reads and writes configuration. Optional.
	Settings driving.SettingsService
}

// Validate ensures the required ports are set.
func (p *Ports) Validate() error {
	if p == nil {
		return ErrInvalidPorts
	}
	if p.Search == nil {
		return ErrMissingSearchService
	}
	return nil
}
