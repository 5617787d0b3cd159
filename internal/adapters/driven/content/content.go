// Package content opens the content store selected by configuration.
package content

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/custodia-labs/handbook-search/internal/adapters/driven/content/filesystem"
	"github.com/custodia-labs/handbook-search/internal/adapters/driven/content/github"
	"github.com/custodia-labs/handbook-search/internal/adapters/driven/content/remote"
	"github.com/custodia-labs/handbook-search/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/handbook-search/internal/core/domain"
	"github.com/custodia-labs/handbook-search/internal/core/ports/driven"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Open returns the store described by cfg. The closer releases any
// resources it holds and is never nil on success.
func Open(ctx context.Context, cfg domain.ContentSettings) (driven.ContentStore, io.Closer, error) {
	switch cfg.Source {
	case domain.ContentSourceFilesystem, "":
		root := cfg.Path
		if root == "" {
			var err error
			if root, err = DefaultRoot(); err != nil {
				return nil, nil, err
			}
		}
		info, err := os.Stat(root)
		if err != nil {
			return nil, nil, fmt.Errorf("content root: %w", err)
		}
		if !info.IsDir() {
			return nil, nil, fmt.Errorf("%w: content root %s is not a directory", domain.ErrInvalidInput, root)
		}
		return filesystem.New(root), nopCloser{}, nil

	case domain.ContentSourceHTTP:
		store, err := remote.New(remote.Options{
			BaseURL: cfg.BaseURL,
			Token:   cfg.Token,
			Rate:    cfg.Rate,
		})
		if err != nil {
			return nil, nil, err
		}
		return store, nopCloser{}, nil

	case domain.ContentSourceGitHub:
		store, err := github.New(ctx, github.Options{
			Owner: cfg.Owner,
			Repo:  cfg.Repo,
			Ref:   cfg.Ref,
			Root:  cfg.Root,
			Token: cfg.Token,
			Rate:  cfg.Rate,
		})
		if err != nil {
			return nil, nil, err
		}
		return store, nopCloser{}, nil

	case domain.ContentSourceSQLite:
		store, err := sqlite.NewStore(cfg.Path)
		if err != nil {
			return nil, nil, err
		}
		return store, store, nil

	default:
		return nil, nil, fmt.Errorf("%w: content source %q", domain.ErrUnsupportedType, cfg.Source)
	}
}

// DefaultRoot returns ~/.handbook/content.
func DefaultRoot() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".handbook", "content"), nil
}
