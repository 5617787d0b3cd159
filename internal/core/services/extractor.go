package services

import (
	"sort"
	"strconv"
	"strings"

	"github.com/custodia-labs/handbook-search/internal/core/domain"
)

// ExtractedFields are the searchable fields of one document.
type ExtractedFields struct {
	// SearchableText is lower-cased and whitespace-normalised.
	SearchableText string

	// Headings keep their original case, in document order.
	Headings []string

	// Metadata is copied from the document envelope.
	Metadata domain.RecordMetadata
}

// FieldExtractor flattens typed content blocks into searchable fields.
type FieldExtractor struct{}

// NewFieldExtractor creates a new field extractor.
func NewFieldExtractor() *FieldExtractor {
	return &FieldExtractor{}
}

// Extract walks the document body and collects its text.
// Unknown block kinds are skipped.
func (e *FieldExtractor) Extract(doc *domain.Document) ExtractedFields {
	var parts []string
	var headings []string

	add := func(texts ...string) {
		for _, t := range texts {
			if t = strings.TrimSpace(t); t != "" {
				parts = append(parts, t)
			}
		}
	}

	for _, block := range doc.Content {
		switch b := block.(type) {
		case domain.HeadingBlock:
			if text := normaliseSpace(b.Text); text != "" {
				headings = append(headings, text)
				add(text)
			}
		case domain.ParagraphBlock:
			add(b.Text)
		case domain.MarkdownBlock:
			add(stripMarkdown(b.Text))
		case domain.CalloutBlock:
			add(b.Title, stripMarkdown(b.Text))
		case domain.ListBlock:
			for i := range b.Items {
				add(flattenListItem(&b.Items[i])...)
			}
		case domain.DefinitionsBlock:
			for _, d := range b.Items {
				add(d.Term, d.Description)
			}
		case domain.TableBlock:
			add(b.Headers...)
			for _, row := range b.Rows {
				add(row...)
			}
		case domain.UnknownBlock:
			// Newer block types degrade to nothing.
		}
	}

	return ExtractedFields{
		SearchableText: strings.ToLower(normaliseSpace(strings.Join(parts, " "))),
		Headings:       headings,
		Metadata:       copyMetadata(doc),
	}
}

// Record builds the indexed record for a fetched document.
// The document title wins over the table of contents title.
func (e *FieldExtractor) Record(ref domain.ContentReference, doc *domain.Document, order int) *domain.IndexedRecord {
	fields := e.Extract(doc)

	title := strings.TrimSpace(doc.Title)
	if title == "" {
		title = strings.TrimSpace(ref.Title)
	}

	return &domain.IndexedRecord{
		ID:             ref.ID(),
		Section:        ref.Section,
		Path:           ref.Path,
		Title:          title,
		Headings:       fields.Headings,
		SearchableText: fields.SearchableText,
		Metadata:       fields.Metadata,
		ContentBlocks:  doc.Content,
		Order:          order,
	}
}

func copyMetadata(doc *domain.Document) domain.RecordMetadata {
	meta := domain.RecordMetadata{Category: doc.Category}
	if doc.Metadata == nil {
		return meta
	}
	meta.Author = doc.Metadata.Author
	meta.Version = doc.Metadata.Version
	meta.LastUpdated = doc.Metadata.LastUpdated
	meta.ClinicalLevel = doc.Metadata.ClinicalLevel
	if len(doc.Metadata.Tags) > 0 {
		meta.Tags = append([]string(nil), doc.Metadata.Tags...)
	}
	return meta
}

// flattenListItem returns the text of an item followed by its children.
func flattenListItem(item *domain.ListItem) []string {
	var out []string
	if item.Text != "" {
		out = append(out, stripMarkdown(item.Text))
	}
	if item.IsStructured() {
		out = append(out, flattenValue(item.Fields)...)
	}
	for i := range item.Children {
		out = append(out, flattenListItem(&item.Children[i])...)
	}
	return out
}

// flattenValue serialises a decoded structured value to its text leaves.
// Map values are visited in key order so the output is stable.
func flattenValue(v any) []string {
	switch val := v.(type) {
	case nil:
		return nil
	case string:
		return []string{val}
	case bool:
		return []string{strconv.FormatBool(val)}
	case float64:
		return []string{strconv.FormatFloat(val, 'f', -1, 64)}
	case int:
		return []string{strconv.Itoa(val)}
	case int64:
		return []string{strconv.FormatInt(val, 10)}
	case []any:
		var out []string
		for _, elem := range val {
			out = append(out, flattenValue(elem)...)
		}
		return out
	case []string:
		return append([]string(nil), val...)
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		var out []string
		for _, k := range keys {
			out = append(out, flattenValue(val[k])...)
		}
		return out
	default:
		return nil
	}
}

func normaliseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
