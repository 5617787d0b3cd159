package domain

// TocNode is one entry of a section's table of contents.
// A node without a Path is a pure grouping node.
type TocNode struct {
	// Title is the display title of the entry.
	Title string

	// Path is the logical slug of the document, unique within a section.
	// Empty for grouping nodes.
	Path string

	// Items are the nested child entries.
	Items []TocNode
}

// IsGroup returns true if the node only groups other entries.
func (n *TocNode) IsGroup() bool {
	return n.Path == ""
}

// ContentReference identifies a single document within a section.
// It is created when a table of contents is parsed and never changes.
type ContentReference struct {
	// Section is the content domain the document belongs to.
	Section SectionID

	// Path is the logical slug, unique within the section.
	Path string

	// Title is the title given by the table of contents.
	Title string
}

// ID returns the globally unique key of the referenced document.
func (r ContentReference) ID() string {
	return RecordID(r.Section, r.Path)
}

// CollectReferences walks the tree depth-first and returns every node
// that carries a path, in discovery order. Repeated paths keep their
// first occurrence.
func CollectReferences(section SectionID, nodes []TocNode) []ContentReference {
	seen := make(map[string]bool)
	var refs []ContentReference

	var walk func(nodes []TocNode)
	walk = func(nodes []TocNode) {
		for i := range nodes {
			node := &nodes[i]
			if !node.IsGroup() && !seen[node.Path] {
				seen[node.Path] = true
				refs = append(refs, ContentReference{
					Section: section,
					Path:    node.Path,
					Title:   node.Title,
				})
			}
			walk(node.Items)
		}
	}
	walk(nodes)

	return refs
}
