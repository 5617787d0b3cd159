// Package github reads handbook content from a GitHub repository.
//
// The repository mirrors the filesystem layout below an optional root
// directory:
//
//	<root>/<section>/toc.json
//	<root>/<section>/<path>.json
//
// Files are fetched through the contents API at a fixed ref. Requests are
// throttled proactively with a token bucket and reactively from the
// X-RateLimit headers GitHub returns.
package github
