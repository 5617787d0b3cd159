// Package remote fetches handbook content from an HTTP content service.
//
// The service exposes, per section,
//
//	GET <base>/<section>/toc.json
//	GET <base>/<section>/<path>.json
//
// A 404 answer means the entry does not exist. Any other non-2xx answer
// or transport failure is a fetch failure.
package remote

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"github.com/custodia-labs/handbook-search/internal/adapters/driven/content/wire"
	"github.com/custodia-labs/handbook-search/internal/core/domain"
	"github.com/custodia-labs/handbook-search/internal/core/ports/driven"
)

const (
	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// maxBodySize caps how much of a response body is read.
	maxBodySize = 8 << 20
)

// Ensure Store implements the interface.
var _ driven.ContentStore = (*Store)(nil)

// Options configures a remote store.
type Options struct {
	// BaseURL is the root of the content service.
	BaseURL string

	// Token is sent as a bearer token when set.
	Token string

	// Rate caps requests per second. Zero or less disables throttling.
	Rate float64

	// Timeout bounds each request. Defaults to DefaultTimeout.
	Timeout time.Duration

	// HTTPClient overrides the client built from Token and Timeout.
	HTTPClient *http.Client
}

// Store reads content over HTTP.
type Store struct {
	base    *url.URL
	client  *http.Client
	limiter *rate.Limiter
}

// New creates a remote store.
func New(opts Options) (*Store, error) {
	base, err := url.Parse(strings.TrimSpace(opts.BaseURL))
	if err != nil {
		return nil, fmt.Errorf("%w: base url: %v", domain.ErrInvalidInput, err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("%w: base url must be http or https, got %q", domain.ErrInvalidInput, opts.BaseURL)
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	client := opts.HTTPClient
	if client == nil {
		if opts.Token != "" {
			ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: opts.Token})
			client = oauth2.NewClient(context.Background(), ts)
		} else {
			client = &http.Client{}
		}
		client.Timeout = timeout
	}

	limit := rate.Inf
	if opts.Rate > 0 {
		limit = rate.Limit(opts.Rate)
	}

	return &Store{
		base:    base,
		client:  client,
		limiter: rate.NewLimiter(limit, 1),
	}, nil
}

// FetchTableOfContents implements driven.ContentStore.
func (s *Store) FetchTableOfContents(ctx context.Context, section domain.SectionID) ([]domain.TocNode, error) {
	data, err := s.get(ctx, section.String(), "toc.json")
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
func (s *Store) FetchDocument(ctx context.Context, section domain.SectionID, path string) (*domain.Document, error) {
	segments, ok := splitPath(path)
	if !ok {
		return nil, &domain.FetchError{Section: section, Path: path, Err: domain.ErrNotFound}
	}
	segments[len(segments)-1] += ".json"

	data, err := s.get(ctx, append([]string{section.String()}, segments...)...)
	if err != nil {
		return nil, s.wrap(ctx, section, path, err)
	}
	doc, err := wire.DecodeDocument(data)
	if err != nil {
		return nil, &domain.FetchError{Section: section, Path: path, Err: err}
	}
	return doc, nil
}

// get performs a throttled GET of the joined path below the base URL.
func (s *Store) get(ctx context.Context, elem ...string) ([]byte, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	escaped := make([]string, len(elem))
	for i, e := range elem {
		escaped[i] = url.PathEscape(e)
	}
	target := s.base.JoinPath(escaped...)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrFetchFailed, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, domain.ErrNotFound
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, fmt.Errorf("%w: %s returned %s", domain.ErrFetchFailed, target.Redacted(), resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %v", domain.ErrFetchFailed, err)
	}
	return data, nil
}

// wrap attaches location to err, passing cancellation through untouched.
func (s *Store) wrap(ctx context.Context, section domain.SectionID, path string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return &domain.FetchError{Section: section, Path: path, Err: err}
}

// splitPath breaks a logical path into URL segments, refusing empty,
// dot and dot-dot segments.
func splitPath(path string) ([]string, bool) {
	path = strings.Trim(path, "/")
	if path == "" {
		return nil, false
	}
	segments := strings.Split(path, "/")
	for _, seg := range segments {
		if seg == "" || seg == "." || seg == ".." {
			return nil, false
		}
	}
	return segments, true
}
