package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ClinicalLevel is the ordinal depth of a document.
type ClinicalLevel int

// Clinical levels, in increasing depth.
const (
	// LevelUnspecified means the document carries no level.
	LevelUnspecified ClinicalLevel = iota
	LevelBasic
	LevelIntermediate
	LevelAdvanced
)

// String returns the string representation.
func (l ClinicalLevel) String() string {
	switch l {
	case LevelBasic:
		return "basic"
	case LevelIntermediate:
		return "intermediate"
	case LevelAdvanced:
		return "advanced"
	default:
		return ""
	}
}

// IsValid returns true for the three named levels.
func (l ClinicalLevel) IsValid() bool {
	return l >= LevelBasic && l <= LevelAdvanced
}

// ParseClinicalLevel accepts a level name or its ordinal (1..3).
// An empty string yields LevelUnspecified.
func ParseClinicalLevel(s string) (ClinicalLevel, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "":
		return LevelUnspecified, nil
	case "basic":
		return LevelBasic, nil
	case "intermediate":
		return LevelIntermediate, nil
	case "advanced":
		return LevelAdvanced, nil
	}
	if n, err := strconv.Atoi(s); err == nil && ClinicalLevel(n).IsValid() {
		return ClinicalLevel(n), nil
	}
	return LevelUnspecified, fmt.Errorf("%w: clinical level %q", ErrInvalidInput, s)
}

// MarshalText encodes the level by name.
func (l ClinicalLevel) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// UnmarshalText accepts anything ParseClinicalLevel accepts.
func (l *ClinicalLevel) UnmarshalText(text []byte) error {
	parsed, err := ParseClinicalLevel(string(text))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// DocMetadata is the structured envelope metadata of a document.
type DocMetadata struct {
	// Author is the responsible author or editor.
	Author string

	// Version is the editorial version label.
	Version string

	// LastUpdated is the revision date. Zero when unknown.
	LastUpdated time.Time

	// Tags are free-form topic labels.
	Tags []string

	// ClinicalLevel is the intended depth of the document.
	ClinicalLevel ClinicalLevel
}

// Document is one content document as returned by the content store.
type Document struct {
	// Title is the document title.
	Title string

	// Category is an optional grouping label.
	Category string

	// Content is the typed body in display order.
	Content []Block

	// Metadata is optional; nil when the store sent none.
	Metadata *DocMetadata
}
