package services

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/custodia-labs/handbook-search/internal/core/domain"
	"github.com/custodia-labs/handbook-search/internal/core/ports/driven"
)

// fakeStore is an in-memory content store that counts fetches and can
// be told to fail or block.
type fakeStore struct {
	mu       sync.Mutex
	tocs     map[domain.SectionID][]domain.TocNode
	docs     map[string]*domain.Document
	tocErrs  map[domain.SectionID]error
	docErrs  map[string]error
	tocCalls map[domain.SectionID]int
	docCalls atomic.Int32

	// gate, when set, blocks every table of contents fetch until closed.
	gate chan struct{}

	// docDelay holds each document fetch open so overlapping fetches
	// show up in peakDocs.
	docDelay time.Duration
	inFlight atomic.Int32
	peakDocs atomic.Int32
}

var _ driven.ContentStore = (*fakeStore)(nil)

func newFakeStore() *fakeStore {
	return &fakeStore{
		tocs:     make(map[domain.SectionID][]domain.TocNode),
		docs:     make(map[string]*domain.Document),
		tocErrs:  make(map[domain.SectionID]error),
		docErrs:  make(map[string]error),
		tocCalls: make(map[domain.SectionID]int),
	}
}

// add registers a flat table of contents entry and its document.
func (f *fakeStore) add(section domain.SectionID, path string, doc *domain.Document) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tocs[section] = append(f.tocs[section], domain.TocNode{Title: doc.Title, Path: path})
	f.docs[domain.RecordID(section, path)] = doc
}

func (f *fakeStore) FetchTableOfContents(ctx context.Context, section domain.SectionID) ([]domain.TocNode, error) {
	f.mu.Lock()
	f.tocCalls[section]++
	gate := f.gate
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.tocErrs[section]; err != nil {
		return nil, &domain.FetchError{Section: section, Err: err}
	}
	nodes, ok := f.tocs[section]
	if !ok {
		return nil, &domain.FetchError{Section: section, Err: domain.ErrNotFound}
	}
	return nodes, nil
}

func (f *fakeStore) FetchDocument(_ context.Context, section domain.SectionID, path string) (*domain.Document, error) {
	f.docCalls.Add(1)
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		peak := f.peakDocs.Load()
		if n <= peak || f.peakDocs.CompareAndSwap(peak, n) {
			break
		}
	}
	if f.docDelay > 0 {
		time.Sleep(f.docDelay)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	id := domain.RecordID(section, path)
	if err := f.docErrs[id]; err != nil {
		return nil, &domain.FetchError{Section: section, Path: path, Err: err}
	}
	doc, ok := f.docs[id]
	if !ok {
		return nil, &domain.FetchError{Section: section, Path: path, Err: domain.ErrNotFound}
	}
	return doc, nil
}

func (f *fakeStore) calls(section domain.SectionID) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tocCalls[section]
}

// paragraphs builds a document whose body is one paragraph per text.
func paragraphs(title string, texts ...string) *domain.Document {
	doc := &domain.Document{Title: title}
	for _, t := range texts {
		doc.Content = append(doc.Content, domain.ParagraphBlock{Text: t})
	}
	return doc
}

// substringMatcher is a deterministic stand-in for the approximate
// matcher: a value matches when it contains the pattern, scoring 0 when
// equal and 0.2 otherwise.
type substringMatcher struct{}

type substringPattern struct{ pattern string }

func (substringMatcher) Compile(pattern string) driven.CompiledPattern {
	return substringPattern{pattern: strings.ToLower(pattern)}
}

func (p substringPattern) Match(text string) driven.TextMatch {
	lower := strings.ToLower(text)
	at := strings.Index(lower, p.pattern)
	if p.pattern == "" || at < 0 {
		return driven.TextMatch{Score: 1}
	}
	score := 0.2
	if lower == p.pattern {
		score = 0
	}
	start := len([]rune(lower[:at]))
	return driven.TextMatch{
		IsMatch: true,
		Score:   score,
		Ranges:  []driven.MatchRange{{Start: start, End: start + len([]rune(p.pattern)) - 1}},
	}
}
