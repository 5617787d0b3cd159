package github

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/custodia-labs/handbook-search/internal/adapters/driven/content/wire"
	"github.com/custodia-labs/handbook-search/internal/core/domain"
	"github.com/custodia-labs/handbook-search/internal/core/ports/driven"
	"github.com/custodia-labs/handbook-search/internal/logger"
)

// Ensure Store implements the interface.
var _ driven.ContentStore = (*Store)(nil)

// Options locates the handbook inside a repository.
type Options struct {
	Owner string
	Repo  string

	// Ref is a branch, tag or commit. Empty means the default branch.
	Ref string

	// Root is the directory holding the section directories.
	Root string

	Token string

	// Rate caps requests per second.
	Rate float64
}

// Store reads content files from a repository.
type Store struct {
	client *Client
	owner  string
	repo   string
	ref    string
	root   string
}

// New creates a store with a token-authenticated client.
func New(ctx context.Context, opts Options) (*Store, error) {
	return NewWithClient(NewClientWithToken(ctx, opts.Token, opts.Rate), opts)
}

// NewWithClient creates a store over an existing client.
func NewWithClient(client *Client, opts Options) (*Store, error) {
	owner := strings.TrimSpace(opts.Owner)
	repo := strings.TrimSpace(opts.Repo)
	if owner == "" || repo == "" {
		return nil, fmt.Errorf("%w: github content needs owner and repo", domain.ErrInvalidInput)
	}
	return &Store{
		client: client,
		owner:  owner,
		repo:   repo,
		ref:    strings.TrimSpace(opts.Ref),
		root:   strings.Trim(strings.TrimSpace(opts.Root), "/"),
	}, nil
}

// FetchTableOfContents implements driven.ContentStore.
func (s *Store) FetchTableOfContents(ctx context.Context, section domain.SectionID) ([]domain.TocNode, error) {
	data, err := s.fetch(ctx, section, "toc")
	if err != nil {
		return nil, s.wrap(ctx, section, "", err)
	}
	nodes, err := wire.DecodeTOC(data)
	if err != nil {
		return nil, &domain.FetchError{Section: section, Err: err}
	}
	return nodes, nil
}

// FetchDocument implements driven.ContentStore.
func (s *Store) FetchDocument(ctx context.Context, section domain.SectionID, docPath string) (*domain.Document, error) {
	data, err := s.fetch(ctx, section, docPath)
	if err != nil {
		return nil, s.wrap(ctx, section, docPath, err)
	}
	doc, err := wire.DecodeDocument(data)
	if err != nil {
		return nil, &domain.FetchError{Section: section, Path: docPath, Err: err}
	}
	return doc, nil
}

func (s *Store) fetch(ctx context.Context, section domain.SectionID, name string) ([]byte, error) {
	file, ok := s.filePath(section, name)
	if !ok {
		return nil, domain.ErrNotFound
	}
	return s.client.GetFileContent(ctx, s.owner, s.repo, file, s.ref)
}

// filePath maps a logical name to a repository path, refusing names
// that would leave the section directory.
func (s *Store) filePath(section domain.SectionID, name string) (string, bool) {
	name = strings.Trim(name, "/")
	if name == "" {
		return "", false
	}
	for _, seg := range strings.Split(name, "/") {
		if seg == "" || seg == "." || seg == ".." {
			return "", false
		}
	}
	return path.Join(s.root, section.String(), name+".json"), true
}

func (s *Store) wrap(ctx context.Context, section domain.SectionID, docPath string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}

	switch {
	case errors.Is(err, domain.ErrNotFound):
	case IsNotFound(err), errors.Is(err, ErrNotAFile):
		err = fmt.Errorf("%w: %v", domain.ErrNotFound, err)
	case IsRateLimited(err):
		logger.Warn("github: %v", err)
		err = fmt.Errorf("%w: %v", domain.ErrFetchFailed, err)
	default:
		err = fmt.Errorf("%w: %v", domain.ErrFetchFailed, err)
	}
	return &domain.FetchError{Section: section, Path: docPath, Err: err}
}
