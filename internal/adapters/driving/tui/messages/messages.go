// Package messages defines Bubbletea message types for the TUI.
// Messages represent events and commands that flow through the Elm architecture.
package messages

import (
	"github.com/custodia-labs/handbook-search/internal/core/domain"
)

// SearchCompleted carries search results back to the model.
// Seq is the sequence number of the query that produced them; views
// discard completions older than their latest query.
type SearchCompleted struct {
	Seq      int
	Query    string
	Response *domain.SearchResponse
	Err      error
}

// SuggestionsLoaded carries suggestions for a query that found nothing.
type SuggestionsLoaded struct {
	Seq         int
	Suggestions []string
	Err         error
}

// ResultSelected is sent when a search result is opened.
type ResultSelected struct {
	Result domain.SearchResult
}

// ViewChanged is sent when navigating between views.
type ViewChanged struct {
	View ViewType
}

// ViewType identifies which view is currently active.
type ViewType int

const (
	// ViewMenu is the main navigation menu.
	ViewMenu ViewType = iota
	// ViewSearch is the search input and results view.
	ViewSearch
	// ViewResult shows one result in detail.
	ViewResult
	// ViewSections lists handbook sections and index status.
	ViewSections
	// ViewSettings is the settings configuration view.
	ViewSettings
	// ViewHelp is the help/keybindings view.
	ViewHelp
)

// String returns the string representation of the view type.
func (v ViewType) String() string {
	switch v {
	case ViewMenu:
		return "menu"
	case ViewSearch:
		return "search"
	case ViewResult:
		return "result"
	case ViewSections:
		return "sections"
	case ViewSettings:
		return "settings"
	case ViewHelp:
		return "help"
	default:
		return "unknown"
	}
}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}

// Quit signals the application should exit.
type Quit struct{}

// SectionsLoaded carries index statistics.
type SectionsLoaded struct {
	Stats []domain.SectionStats
}

// SectionWarmed signals that a section build finished.
type SectionWarmed struct {
	Section  domain.SectionID
	Failures []domain.SectionFailure
	Err      error
}

// SettingEntry is one configuration key with its effective value.
type SettingEntry struct {
	Key   string
	Value string
}

// SettingsLoaded carries the configuration entries.
type SettingsLoaded struct {
	Entries []SettingEntry
	Err     error
}

// SettingSaved signals a setting was stored.
type SettingSaved struct {
	Key string
	Err error
}
