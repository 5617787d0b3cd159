package domain

// BlockKind is the discriminator of a content block.
type BlockKind string

// Block kinds understood by the field extractor.
const (
	BlockHeading     BlockKind = "heading"
	BlockParagraph   BlockKind = "paragraph"
	BlockMarkdown    BlockKind = "markdown"
	BlockCallout     BlockKind = "callout"
	BlockList        BlockKind = "list"
	BlockNumbers     BlockKind = "numbers"
	BlockDefinitions BlockKind = "definitions"
	BlockTable       BlockKind = "table"
	BlockUnknown     BlockKind = "unknown"
)

// Block is a typed fragment of a document body.
//
// The set of implementations is closed: only types in this package can
// satisfy the interface. Consumers switch on the concrete type and
// must handle every kind listed above.
type Block interface {
	// Kind returns the block discriminator.
	Kind() BlockKind

	sealed()
}

// HeadingBlock is a section heading inside a document.
type HeadingBlock struct {
	// Level is the heading depth (1 = top level). Zero when unspecified.
	Level int

	// Text is the heading text.
	Text string
}

// ParagraphBlock is a plain-text paragraph.
type ParagraphBlock struct {
	Text string
}

// MarkdownBlock is free text carrying lightweight markdown formatting.
type MarkdownBlock struct {
	Text string
}

// CalloutBlock is a highlighted note, warning or tip.
type CalloutBlock struct {
	// Variant is the callout style (note, warning, tip...).
	Variant string

	// Title is an optional callout heading.
	Title string

	// Text is the callout body.
	Text string
}

// ListStyle distinguishes bulleted from numbered lists.
type ListStyle string

// List styles.
const (
	ListBulleted ListStyle = "bulleted"
	ListNumbered ListStyle = "numbered"
)

// ListItem is one entry of a list block.
// Plain items carry Text. Structured items carry Fields instead and are
// flattened to text when indexed.
type ListItem struct {
	// Text is the plain item text.
	Text string

	// Fields holds a structured item as decoded from the store
	// (nested maps, slices, strings, numbers, booleans).
	Fields map[string]any

	// Children are nested sub-items.
	Children []ListItem
}

// IsStructured returns true if the item is not a plain string.
func (i *ListItem) IsStructured() bool {
	return len(i.Fields) > 0
}

// ListBlock is a bulleted or numbered list.
type ListBlock struct {
	Style ListStyle
	Items []ListItem
}

// Definition is one term of a definition list.
type Definition struct {
	Term        string
	Description string
}

// DefinitionsBlock is a glossary-style list of terms.
type DefinitionsBlock struct {
	Items []Definition
}

// TableBlock is a table of text cells.
type TableBlock struct {
	// Headers are the column headers, possibly empty.
	Headers []string

	// Rows are the body rows in display order.
	Rows [][]string
}

// UnknownBlock preserves a block type this version does not understand.
// It is never searched.
type UnknownBlock struct {
	// Type is the discriminator as received from the store.
	Type string
}

func (HeadingBlock) Kind() BlockKind     { return BlockHeading }
func (ParagraphBlock) Kind() BlockKind   { return BlockParagraph }
func (MarkdownBlock) Kind() BlockKind    { return BlockMarkdown }
func (CalloutBlock) Kind() BlockKind     { return BlockCallout }
func (DefinitionsBlock) Kind() BlockKind { return BlockDefinitions }
func (TableBlock) Kind() BlockKind       { return BlockTable }
func (UnknownBlock) Kind() BlockKind     { return BlockUnknown }

// Kind returns BlockNumbers for numbered lists and BlockList otherwise.
func (b ListBlock) Kind() BlockKind {
	if b.Style == ListNumbered {
		return BlockNumbers
	}
	return BlockList
}

func (HeadingBlock) sealed()     {}
func (ParagraphBlock) sealed()   {}
func (MarkdownBlock) sealed()    {}
func (CalloutBlock) sealed()     {}
func (ListBlock) sealed()        {}
func (DefinitionsBlock) sealed() {}
func (TableBlock) sealed()       {}
func (UnknownBlock) sealed()     {}
