package wire

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/handbook-search/internal/core/domain"
)

// Date only form accepted for lastUpdated.
const dateLayout = "2006-01-02"

type tocNode struct {
	Title string    `json:"title"`
	Path  string    `json:"path,omitempty"`
	Items []tocNode `json:"items,omitempty"`
}

type envelope struct {
	Title    string            `json:"title"`
	Category string            `json:"category,omitempty"`
	Content  []json.RawMessage `json:"content"`
	Metadata *metadata         `json:"metadata,omitempty"`
}

type metadata struct {
	Author        string          `json:"author,omitempty"`
	Version       string          `json:"version,omitempty"`
	LastUpdated   string          `json:"lastUpdated,omitempty"`
	Tags          []string        `json:"tags,omitempty"`
	ClinicalLevel json.RawMessage `json:"clinicalLevel,omitempty"`
}

// DecodeTOC parses a table of contents.
func DecodeTOC(data []byte) ([]domain.TocNode, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty table of contents", domain.ErrParseFailed)
	}

	var nodes []tocNode
	if data[0] == '{' {
		var wrapped struct {
			Items []tocNode `json:"items"`
		}
		if err := json.Unmarshal(data, &wrapped); err != nil {
			return nil, fmt.Errorf("%w: table of contents: %v", domain.ErrParseFailed, err)
		}
		nodes = wrapped.Items
	} else if err := json.Unmarshal(data, &nodes); err != nil {
		return nil, fmt.Errorf("%w: table of contents: %v", domain.ErrParseFailed, err)
	}

	return toDomainTOC(nodes), nil
}

// DecodeTOCYAML parses a YAML table of contents.
func DecodeTOCYAML(data []byte) ([]domain.TocNode, error) {
	converted, err := yamlToJSON(data)
	if err != nil {
		return nil, err
	}
	return DecodeTOC(converted)
}

// EncodeTOC serialises a table of contents.
func EncodeTOC(nodes []domain.TocNode) ([]byte, error) {
	return json.Marshal(fromDomainTOC(nodes))
}

func toDomainTOC(nodes []tocNode) []domain.TocNode {
	if len(nodes) == 0 {
		return nil
	}
	out := make([]domain.TocNode, len(nodes))
	for i, n := range nodes {
		out[i] = domain.TocNode{
			Title: strings.TrimSpace(n.Title),
			Path:  strings.Trim(strings.TrimSpace(n.Path), "/"),
			Items: toDomainTOC(n.Items),
		}
	}
	return out
}

func fromDomainTOC(nodes []domain.TocNode) []tocNode {
	out := make([]tocNode, len(nodes))
	for i, n := range nodes {
		out[i] = tocNode{Title: n.Title, Path: n.Path, Items: fromDomainTOC(n.Items)}
		if len(n.Items) == 0 {
			out[i].Items = nil
		}
	}
	return out
}

// DecodeDocument parses a JSON document envelope.
func DecodeDocument(data []byte) (*domain.Document, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '{' {
		return nil, fmt.Errorf("%w: document is not an object", domain.ErrParseFailed)
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: document: %v", domain.ErrParseFailed, err)
	}

	doc := &domain.Document{
		Title:    strings.TrimSpace(env.Title),
		Category: strings.TrimSpace(env.Category),
		Content:  make([]domain.Block, 0, len(env.Content)),
	}
	for i, raw := range env.Content {
		block, err := decodeBlock(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: block %d: %v", domain.ErrParseFailed, i, err)
		}
		doc.Content = append(doc.Content, block)
	}
	if env.Metadata != nil {
		doc.Metadata = decodeMetadata(env.Metadata)
	}
	return doc, nil
}

// DecodeDocumentYAML parses a YAML document envelope.
func DecodeDocumentYAML(data []byte) (*domain.Document, error) {
	converted, err := yamlToJSON(data)
	if err != nil {
		return nil, err
	}
	return DecodeDocument(converted)
}

// EncodeDocument serialises a document into the envelope shape.
func EncodeDocument(doc *domain.Document) ([]byte, error) {
	env := struct {
		Title    string    `json:"title"`
		Category string    `json:"category,omitempty"`
		Content  []any     `json:"content"`
		Metadata *metadata `json:"metadata,omitempty"`
	}{
		Title:    doc.Title,
		Category: doc.Category,
		Content:  make([]any, 0, len(doc.Content)),
	}
	for _, b := range doc.Content {
		env.Content = append(env.Content, encodeBlock(b))
	}
	if m := doc.Metadata; m != nil {
		env.Metadata = &metadata{
			Author:  m.Author,
			Version: m.Version,
			Tags:    m.Tags,
		}
		if !m.LastUpdated.IsZero() {
			env.Metadata.LastUpdated = m.LastUpdated.Format(time.RFC3339)
		}
		if m.ClinicalLevel.IsValid() {
			env.Metadata.ClinicalLevel = json.RawMessage(strconv.Quote(m.ClinicalLevel.String()))
		}
	}
	return json.Marshal(env)
}

// decodeMetadata is lenient: unreadable dates and levels are dropped
// rather than failing the whole document.
func decodeMetadata(m *metadata) *domain.DocMetadata {
	meta := &domain.DocMetadata{
		Author:      strings.TrimSpace(m.Author),
		Version:     strings.TrimSpace(m.Version),
		LastUpdated: parseDate(m.LastUpdated),
	}
	for _, tag := range m.Tags {
		if tag = strings.TrimSpace(tag); tag != "" {
			meta.Tags = append(meta.Tags, tag)
		}
	}
	if len(m.ClinicalLevel) > 0 {
		var level any
		if err := json.Unmarshal(m.ClinicalLevel, &level); err == nil {
			switch v := level.(type) {
			case string:
				meta.ClinicalLevel, _ = domain.ParseClinicalLevel(v)
			case float64:
				meta.ClinicalLevel, _ = domain.ParseClinicalLevel(strconv.Itoa(int(v)))
			}
		}
	}
	return meta
}

func parseDate(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC()
	}
	if t, err := time.Parse(dateLayout, s); err == nil {
		return t
	}
	return time.Time{}
}

func yamlToJSON(data []byte) ([]byte, error) {
	var v any
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("%w: yaml: %v", domain.ErrParseFailed, err)
	}
	converted, err := json.Marshal(normaliseYAML(v))
	if err != nil {
		return nil, fmt.Errorf("%w: yaml: %v", domain.ErrParseFailed, err)
	}
	return converted, nil
}

// normaliseYAML rewrites values encoding/json cannot marshal.
func normaliseYAML(v any) any {
	switch val := v.(type) {
	case map[string]any:
		for k, elem := range val {
			val[k] = normaliseYAML(elem)
		}
		return val
	case map[any]any:
		out := make(map[string]any, len(val))
		for k, elem := range val {
			out[fmt.Sprint(k)] = normaliseYAML(elem)
		}
		return out
	case []any:
		for i, elem := range val {
			val[i] = normaliseYAML(elem)
		}
		return val
	case time.Time:
		return val.Format(time.RFC3339)
	default:
		return val
	}
}
