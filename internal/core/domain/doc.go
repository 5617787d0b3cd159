// Package domain defines the core business entities for the handbook search engine.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - SectionID: A fixed top-level content domain
//   - TocNode / ContentReference: The table-of-contents tree and its leaves
//   - Document / Block: A fetched content document and its typed body
//   - IndexedRecord: The searchable unit stored in the index
//   - SearchResult / EnhancedSearchResult: Ranked query output
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
