package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/handbook-search/internal/adapters/driven/content/wire"
	"github.com/custodia-labs/handbook-search/internal/core/domain"
	"github.com/custodia-labs/handbook-search/internal/core/ports/driven"
)

// tocName is the base name of a section's table of contents.
const tocName = "toc"

// extensions are tried in order when resolving a content file.
var extensions = []string{".json", ".yaml", ".yml"}

// Ensure Store implements the interfaces.
var (
	_ driven.ContentStore   = (*Store)(nil)
	_ driven.ContentWatcher = (*Store)(nil)
)

// Store serves content from files under a root directory.
type Store struct {
	root string
}

// New creates a store rooted at root.
func New(root string) *Store {
	return &Store{root: filepath.Clean(root)}
}

// Root returns the content root directory.
func (s *Store) Root() string {
	return s.root
}

// FetchTableOfContents implements driven.ContentStore.
func (s *Store) FetchTableOfContents(ctx context.Context, section domain.SectionID) ([]domain.TocNode, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, ext, err := s.read(section, tocName)
	if err != nil {
		return nil, &domain.FetchError{Section: section, Err: err}
	}

	var nodes []domain.TocNode
	if ext == ".json" {
		nodes, err = wire.DecodeTOC(data)
	} else {
		nodes, err = wire.DecodeTOCYAML(data)
	}
	if err != nil {
		return nil, &domain.FetchError{Section: section, Err: err}
	}
	return nodes, nil
}

// FetchDocument implements driven.ContentStore.
func (s *Store) FetchDocument(ctx context.Context, section domain.SectionID, path string) (*domain.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, ext, err := s.read(section, path)
	if err != nil {
		return nil, &domain.FetchError{Section: section, Path: path, Err: err}
	}

	var doc *domain.Document
	if ext == ".json" {
		doc, err = wire.DecodeDocument(data)
	} else {
		doc, err = wire.DecodeDocumentYAML(data)
	}
	if err != nil {
		return nil, &domain.FetchError{Section: section, Path: path, Err: err}
	}
	return doc, nil
}

// read loads the first existing file for name within the section
// directory. Names that escape the section directory are not found.
func (s *Store) read(section domain.SectionID, name string) ([]byte, string, error) {
	dir := filepath.Join(s.root, section.String())
	base := filepath.Join(dir, filepath.FromSlash(name))
	if !within(dir, base) {
		return nil, "", domain.ErrNotFound
	}

	for _, ext := range extensions {
		data, err := os.ReadFile(base + ext)
		if err == nil {
			return data, ext, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, "", fmt.Errorf("%w: %v", domain.ErrFetchFailed, err)
		}
	}
	return nil, "", domain.ErrNotFound
}

// within reports whether path lies strictly inside dir.
func within(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel != "." && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
