package wire

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	"github.com/custodia-labs/handbook-search/internal/core/domain"
)

var errMissingType = errors.New("missing block type")

var knownKinds = map[string]bool{
	"heading": true, "paragraph": true, "text": true, "markdown": true,
	"callout": true, "note": true, "warning": true, "tip": true, "info": true,
	"list": true, "bullets": true, "numbers": true, "definitions": true, "table": true,
}

type blockHead struct {
	Type string `json:"type"`
}

type rawBlock struct {
	Text    string `json:"text"`
	Content string `json:"content"`
	Level   int    `json:"level"`
	Title   string `json:"title"`
	Variant string `json:"variant"`
	Ordered bool   `json:"ordered"`
}

type rawItems struct {
	Items []json.RawMessage `json:"items"`
}

type rawDefinition struct {
	Term        string `json:"term"`
	Description string `json:"description"`
	Definition  string `json:"definition"`
}

type rawTable struct {
	Headers []any   `json:"headers"`
	Rows    [][]any `json:"rows"`
}

// decodeBlock dispatches on the "type" field.
func decodeBlock(data json.RawMessage) (domain.Block, error) {
	var head blockHead
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, err
	}
	kind := strings.ToLower(strings.TrimSpace(head.Type))
	if kind == "" {
		return nil, errMissingType
	}
	if !knownKinds[kind] {
		return domain.UnknownBlock{Type: kind}, nil
	}

	var rb rawBlock
	if err := json.Unmarshal(data, &rb); err != nil {
		return nil, err
	}

	switch kind {
	case "heading":
		return domain.HeadingBlock{Level: rb.Level, Text: firstNonEmpty(rb.Text, rb.Content)}, nil
	case "paragraph", "text":
		return domain.ParagraphBlock{Text: firstNonEmpty(rb.Text, rb.Content)}, nil
	case "markdown":
		return domain.MarkdownBlock{Text: firstNonEmpty(rb.Text, rb.Content)}, nil
	case "callout", "note", "warning", "tip", "info":
		variant := kind
		if kind == "callout" && rb.Variant != "" {
			variant = rb.Variant
		}
		return domain.CalloutBlock{Variant: variant, Title: rb.Title, Text: firstNonEmpty(rb.Text, rb.Content)}, nil
	case "list", "bullets", "numbers":
		var ri rawItems
		if err := json.Unmarshal(data, &ri); err != nil {
			return nil, err
		}
		style := domain.ListBulleted
		if kind == "numbers" || rb.Ordered {
			style = domain.ListNumbered
		}
		items, err := decodeItems(ri.Items)
		if err != nil {
			return nil, err
		}
		return domain.ListBlock{Style: style, Items: items}, nil
	case "definitions":
		var defs struct {
			Items []rawDefinition `json:"items"`
		}
		if err := json.Unmarshal(data, &defs); err != nil {
			return nil, err
		}
		block := domain.DefinitionsBlock{Items: make([]domain.Definition, 0, len(defs.Items))}
		for _, d := range defs.Items {
			block.Items = append(block.Items, domain.Definition{
				Term:        d.Term,
				Description: firstNonEmpty(d.Description, d.Definition),
			})
		}
		return block, nil
	case "table":
		var rt rawTable
		if err := json.Unmarshal(data, &rt); err != nil {
			return nil, err
		}
		block := domain.TableBlock{Headers: cells(rt.Headers)}
		for _, row := range rt.Rows {
			block.Rows = append(block.Rows, cells(row))
		}
		return block, nil
	default:
		return domain.UnknownBlock{Type: kind}, nil
	}
}

// decodeItems accepts plain strings, numbers and structured objects.
func decodeItems(raw []json.RawMessage) ([]domain.ListItem, error) {
	items := make([]domain.ListItem, 0, len(raw))
	for _, r := range raw {
		var v any
		if err := json.Unmarshal(r, &v); err != nil {
			return nil, err
		}
		item, err := itemFrom(v)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

func itemFrom(v any) (domain.ListItem, error) {
	obj, ok := v.(map[string]any)
	if !ok {
		return domain.ListItem{Text: scalarText(v)}, nil
	}

	var item domain.ListItem
	fields := make(map[string]any, len(obj))
	for k, val := range obj {
		switch k {
		case "text":
			if s, ok := val.(string); ok {
				item.Text = s
				continue
			}
		case "items", "children":
			if list, ok := val.([]any); ok {
				for _, child := range list {
					c, err := itemFrom(child)
					if err != nil {
						return domain.ListItem{}, err
					}
					item.Children = append(item.Children, c)
				}
				continue
			}
		}
		fields[k] = val
	}
	if len(fields) > 0 {
		item.Fields = fields
	}
	return item, nil
}

func cells(values []any) []string {
	if len(values) == 0 {
		return nil
	}
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = scalarText(v)
	}
	return out
}

func scalarText(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// encodeBlock is the inverse of decodeBlock.
func encodeBlock(b domain.Block) map[string]any {
	switch v := b.(type) {
	case domain.HeadingBlock:
		m := map[string]any{"type": "heading", "text": v.Text}
		if v.Level > 0 {
			m["level"] = v.Level
		}
		return m
	case domain.ParagraphBlock:
		return map[string]any{"type": "paragraph", "text": v.Text}
	case domain.MarkdownBlock:
		return map[string]any{"type": "markdown", "text": v.Text}
	case domain.CalloutBlock:
		m := map[string]any{"type": "callout", "variant": v.Variant, "text": v.Text}
		if v.Title != "" {
			m["title"] = v.Title
		}
		return m
	case domain.ListBlock:
		kind := "list"
		if v.Style == domain.ListNumbered {
			kind = "numbers"
		}
		return map[string]any{"type": kind, "items": encodeItems(v.Items)}
	case domain.DefinitionsBlock:
		items := make([]map[string]string, len(v.Items))
		for i, d := range v.Items {
			items[i] = map[string]string{"term": d.Term, "description": d.Description}
		}
		return map[string]any{"type": "definitions", "items": items}
	case domain.TableBlock:
		m := map[string]any{"type": "table", "rows": v.Rows}
		if len(v.Headers) > 0 {
			m["headers"] = v.Headers
		}
		return m
	case domain.UnknownBlock:
		return map[string]any{"type": v.Type}
	default:
		return map[string]any{"type": string(b.Kind())}
	}
}

func encodeItems(items []domain.ListItem) []any {
	out := make([]any, len(items))
	for i, item := range items {
		if !item.IsStructured() && len(item.Children) == 0 {
			out[i] = item.Text
			continue
		}
		m := make(map[string]any, len(item.Fields)+2)
		for k, v := range item.Fields {
			m[k] = v
		}
		if item.Text != "" {
			m["text"] = item.Text
		}
		if len(item.Children) > 0 {
			m["items"] = encodeItems(item.Children)
		}
		out[i] = m
	}
	return out
}
