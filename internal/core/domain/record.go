package domain

import (
	"strings"
	"time"
)

// RecordID builds the globally unique key of a document.
func RecordID(section SectionID, path string) string {
	return string(section) + ":" + path
}

// RecordMetadata is the structured metadata copied onto an indexed record.
type RecordMetadata struct {
	Category      string        `json:"category,omitempty"`
	Author        string        `json:"author,omitempty"`
	Version       string        `json:"version,omitempty"`
	LastUpdated   time.Time     `json:"last_updated,omitzero"`
	Tags          []string      `json:"tags,omitempty"`
	ClinicalLevel ClinicalLevel `json:"clinical_level,omitempty"`
}

// HasTag reports whether the metadata carries the tag, ignoring case.
func (m *RecordMetadata) HasTag(tag string) bool {
	for _, t := range m.Tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

// IndexedRecord is the unit stored in the content index.
// Records are built once per session and never mutated afterwards.
type IndexedRecord struct {
	// ID is section + path and unique within an index.
	ID string

	// Section is the content domain of the record.
	Section SectionID

	// Path is the logical slug of the document.
	Path string

	// Title is the document title. Weighted highest.
	Title string

	// Headings are heading texts in document order. Weighted second.
	Headings []string

	// SearchableText is the lower-cased, whitespace-normalised
	// concatenation of all textual content.
	SearchableText string

	// Metadata holds category, authorship, revision and level.
	Metadata RecordMetadata

	// ContentBlocks is the original body, kept for excerpt context.
	ContentBlocks []Block

	// Order is the discovery position within the section.
	Order int
}

// Reference returns the content reference of the record.
func (r *IndexedRecord) Reference() ContentReference {
	return ContentReference{Section: r.Section, Path: r.Path, Title: r.Title}
}

// IsTitleOnly returns true if the record has nothing to search but its title.
func (r *IndexedRecord) IsTitleOnly() bool {
	return r.SearchableText == "" && len(r.Headings) == 0
}
