package domain

import (
	"fmt"
	"strings"
)

// SectionID identifies a top-level content domain of the handbook.
// The set of sections is fixed; each section is an independent corpus.
type SectionID string

// Known handbook sections.
const (
	// SectionHandbook is the core clinical handbook.
	SectionHandbook SectionID = "handbook"

	// SectionGuidelines holds condition-specific management guidelines.
	SectionGuidelines SectionID = "guidelines"

	// SectionProtocols holds step-by-step ward and emergency protocols.
	SectionProtocols SectionID = "protocols"

	// SectionFormulary holds drug monographs and dosing references.
	SectionFormulary SectionID = "formulary"
)

// AllSections returns every known section in display order.
func AllSections() []SectionID {
	return []SectionID{SectionHandbook, SectionGuidelines, SectionProtocols, SectionFormulary}
}

// IsValid returns true if the section is one of the known sections.
func (s SectionID) IsValid() bool {
	switch s {
	case SectionHandbook, SectionGuidelines, SectionProtocols, SectionFormulary:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (s SectionID) String() string {
	return string(s)
}

// Description returns a human-readable name for the section.
func (s SectionID) Description() string {
	switch s {
	case SectionHandbook:
		return "Clinical Handbook"
	case SectionGuidelines:
		return "Guidelines"
	case SectionProtocols:
		return "Protocols"
	case SectionFormulary:
		return "Formulary"
	default:
		return "Unknown"
	}
}

// ParseSection converts a user-supplied name into a SectionID.
// Matching is case-insensitive and ignores surrounding whitespace.
func ParseSection(name string) (SectionID, error) {
	s := SectionID(strings.ToLower(strings.TrimSpace(name)))
	if !s.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownSection, name)
	}
	return s, nil
}

// ParseSections converts a list of names, failing on the first unknown one.
func ParseSections(names []string) ([]SectionID, error) {
	sections := make([]SectionID, 0, len(names))
	for _, name := range names {
		s, err := ParseSection(name)
		if err != nil {
			return nil, err
		}
		sections = append(sections, s)
	}
	return sections, nil
}
