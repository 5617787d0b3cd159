package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/custodia-labs/handbook-search/internal/core/domain"
	"github.com/custodia-labs/handbook-search/internal/core/ports/driven"
	"github.com/custodia-labs/handbook-search/internal/core/ports/driving"
	"github.com/custodia-labs/handbook-search/internal/logger"
)

// Ensure SearchIndex implements the interface.
var _ driving.IndexService = (*SearchIndex)(nil)

// Fetch concurrency bounds.
const (
	minConcurrency     = 1
	maxConcurrency     = 16
	defaultConcurrency = 6
)

// builtSection is an immutable, fully built section.
type builtSection struct {
	records []*domain.IndexedRecord
	stats   domain.SectionStats
}

// SearchIndex is the session content index.
//
// Each section is built once, on first use, by crawling its table of
// contents and fetching every document with bounded concurrency.
// Concurrent callers for the same section share one build. Built
// sections are never mutated. Each section has its own generation;
// clearing a section starts a new one so builds already in flight for
// it cannot repopulate the cache. Other sections are unaffected.
type SearchIndex struct {
	store       driven.ContentStore
	extractor   *FieldExtractor
	concurrency int
	defaults    []domain.SectionID

	mu          sync.RWMutex
	sections    map[domain.SectionID]*builtSection
	generations map[domain.SectionID]string

	builds singleflight.Group
}

// NewSearchIndex creates an empty index over a content store.
// Concurrency is clamped to [1, 16]; sections are the ones Warm builds
// when called without arguments.
func NewSearchIndex(store driven.ContentStore, concurrency int, sections []domain.SectionID) *SearchIndex {
	if concurrency == 0 {
		concurrency = defaultConcurrency
	}
	if len(sections) == 0 {
		sections = domain.AllSections()
	}
	return &SearchIndex{
		store:       store,
		extractor:   NewFieldExtractor(),
		concurrency: min(max(concurrency, minConcurrency), maxConcurrency),
		defaults:    sections,
		sections:    make(map[domain.SectionID]*builtSection),
		generations: make(map[domain.SectionID]string),
	}
}

// EnsureIndexed returns the records of a section, building it first if
// needed. It is idempotent: a built section is never fetched again.
//
// The returned error is ctx.Err() when the caller gives up waiting, or
// an *domain.IndexUnavailableError when the section could not be built.
// A build continues after its callers are cancelled so later queries
// can reuse it.
func (x *SearchIndex) EnsureIndexed(ctx context.Context, section domain.SectionID) ([]*domain.IndexedRecord, error) {
	x.mu.Lock()
	built, ok := x.sections[section]
	gen := x.generationLocked(section)
	x.mu.Unlock()
	if ok {
		return built.records, nil
	}

	buildCtx := context.WithoutCancel(ctx)
	ch := x.builds.DoChan(string(section)+"@"+gen, func() (any, error) {
		return x.build(buildCtx, section, gen)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*builtSection).records, nil
	}
}

func (x *SearchIndex) build(ctx context.Context, section domain.SectionID, gen string) (*builtSection, error) {
	started := time.Now()
	logger.Debug("Indexing section %s", section)

	toc, err := x.store.FetchTableOfContents(ctx, section)
	if err != nil {
		logger.Warn("Section %s unavailable: %v", section, err)
		return nil, &domain.IndexUnavailableError{Section: section, Err: err}
	}

	refs := domain.CollectReferences(section, toc)
	slots := make([]*domain.IndexedRecord, len(refs))
	var failed atomic.Int32

	var g errgroup.Group
	g.SetLimit(x.concurrency)
	for i, ref := range refs {
		g.Go(func() error {
			doc, err := x.store.FetchDocument(ctx, section, ref.Path)
			switch {
			case domain.IsNotFound(err):
				logger.Debug("Skipping %s: not found", ref.ID())
				return nil
			case err != nil:
				failed.Add(1)
				logger.Warn("Skipping %s: %v", ref.ID(), err)
				return nil
			case doc == nil:
				return nil
			}
			slots[i] = x.extractor.Record(ref, doc, i)
			return nil
		})
	}
	_ = g.Wait() // workers never fail; errors are logged per document

	records := make([]*domain.IndexedRecord, 0, len(slots))
	for _, r := range slots {
		if r != nil {
			records = append(records, r)
		}
	}

	if len(refs) > 0 && int(failed.Load()) == len(refs) {
		err := fmt.Errorf("%w: all %d documents failed", domain.ErrFetchFailed, len(refs))
		logger.Warn("Section %s unavailable: %v", section, err)
		return nil, &domain.IndexUnavailableError{Section: section, Err: err}
	}

	built := &builtSection{
		records: records,
		stats: domain.SectionStats{
			Section:       section,
			Records:       len(records),
			Skipped:       len(refs) - len(records),
			BuildDuration: time.Since(started),
			BuiltAt:       time.Now(),
		},
	}

	x.mu.Lock()
	if x.generations[section] == gen {
		x.sections[section] = built
	}
	x.mu.Unlock()

	logger.Info("Indexed %s", built.stats)
	return built, nil
}

// Warm builds sections in parallel.
// Failures are reported per section; the error is non-nil only when ctx
// is done.
func (x *SearchIndex) Warm(ctx context.Context, sections ...domain.SectionID) ([]domain.SectionFailure, error) {
	if len(sections) == 0 {
		sections = x.defaults
	}
	_, failures, err := x.collect(ctx, sections)
	return failures, err
}

// collect ensures every section is indexed and returns their records in
// section order, together with the sections that could not be built.
func (x *SearchIndex) collect(
	ctx context.Context, sections []domain.SectionID,
) ([]*domain.IndexedRecord, []domain.SectionFailure, error) {
	perSection := make([][]*domain.IndexedRecord, len(sections))
	errs := make([]error, len(sections))

	var g errgroup.Group
	for i, section := range sections {
		g.Go(func() error {
			perSection[i], errs[i] = x.EnsureIndexed(ctx, section)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	var records []*domain.IndexedRecord
	var failures []domain.SectionFailure
	for i, section := range sections {
		if errs[i] != nil {
			if errors.Is(errs[i], context.Canceled) || errors.Is(errs[i], context.DeadlineExceeded) {
				return nil, nil, errs[i]
			}
			failures = append(failures, domain.NewSectionFailure(section, errs[i]))
			continue
		}
		records = append(records, perSection[i]...)
	}
	return records, failures, nil
}

// Stats describes the built sections in display order.
func (x *SearchIndex) Stats() []domain.SectionStats {
	x.mu.RLock()
	defer x.mu.RUnlock()

	var stats []domain.SectionStats
	for _, s := range domain.AllSections() {
		if built, ok := x.sections[s]; ok {
			stats = append(stats, built.stats)
		}
	}
	return stats
}

// Generation identifies the current cache generation of a section.
func (x *SearchIndex) Generation(section domain.SectionID) string {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.generationLocked(section)
}

// generationLocked returns the section's generation, starting one if
// needed. x.mu must be held for writing.
func (x *SearchIndex) generationLocked(section domain.SectionID) string {
	gen, ok := x.generations[section]
	if !ok {
		gen = uuid.NewString()
		x.generations[section] = gen
	}
	return gen
}

// Clear discards every built section.
func (x *SearchIndex) Clear() {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.sections = make(map[domain.SectionID]*builtSection)
	x.generations = make(map[domain.SectionID]string)
	logger.Debug("Index cleared")
}

// ClearSection discards one built section. Builds of other sections,
// including those in flight, are kept.
func (x *SearchIndex) ClearSection(section domain.SectionID) {
	x.mu.Lock()
	defer x.mu.Unlock()
	delete(x.sections, section)
	x.generations[section] = uuid.NewString()
	logger.Debug("Section %s cleared", section)
}
