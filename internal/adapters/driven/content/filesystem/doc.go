// Package filesystem reads handbook content from a directory tree.
//
// # Layout
//
// Each section is a directory under the root:
//
//	<root>/<section>/toc.json
//	<root>/<section>/<path>.json
//
// A table of contents may also be toc.yaml or toc.yml, and a document
// may use a .yaml or .yml extension. JSON wins when several exist.
//
// # Watching
//
// Store also implements driven.ContentWatcher using fsnotify. Every
// change under a section directory reports that section once per
// debounce window, so editors that write in several steps trigger a
// single reindex.
package filesystem
