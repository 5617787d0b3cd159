// Package mcp provides an MCP (Model Context Protocol) server adapter for the
// handbook. It lets AI assistants search handbook content and read section
// information.
package mcp

import "errors"

// ErrMissingSearchService is returned when the search service is not provided.
var ErrMissingSearchService = errors.New("mcp: search service is required")
