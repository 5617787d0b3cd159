// Package memory provides an in-memory content store for tests, demos
// and content loaded up front.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/custodia-labs/handbook-search/internal/core/domain"
	"github.com/custodia-labs/handbook-search/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.ContentStore = (*Store)(nil)

// Store holds tables of contents and documents in maps.
type Store struct {
	mu   sync.RWMutex
	tocs map[domain.SectionID][]domain.TocNode
	docs map[string]*domain.Document
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		tocs: make(map[domain.SectionID][]domain.TocNode),
		docs: make(map[string]*domain.Document),
	}
}

// SetTableOfContents replaces the table of contents of a section.
func (s *Store) SetTableOfContents(section domain.SectionID, nodes []domain.TocNode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tocs[section] = nodes
}

// PutDocument stores a document under section and path.
func (s *Store) PutDocument(section domain.SectionID, path string, doc *domain.Document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[domain.RecordID(section, path)] = doc
}

// FetchTableOfContents implements driven.ContentStore.
func (s *Store) FetchTableOfContents(ctx context.Context, section domain.SectionID) ([]domain.TocNode, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	nodes, ok := s.tocs[section]
	if !ok {
		return nil, &domain.FetchError{Section: section, Err: domain.ErrNotFound}
	}
	return nodes, nil
}

// FetchDocument implements driven.ContentStore.
func (s *Store) FetchDocument(ctx context.Context, section domain.SectionID, path string) (*domain.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.docs[domain.RecordID(section, path)]
	if !ok {
		return nil, &domain.FetchError{Section: section, Path: path, Err: domain.ErrNotFound}
	}
	return doc, nil
}

// Len returns the number of stored documents.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}

// String describes the store contents.
func (s *Store) String() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fmt.Sprintf("memory store: %d sections, %d documents", len(s.tocs), len(s.docs))
}
