package mcp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/handbook-search/internal/logger"
)

// Version is the MCP server version.
const Version = "0.1.0"

// instructions tell the assistant how the tools relate.
const instructions = `Searches a clinical handbook split into the sections handbook, guidelines,
protocols and formulary. Use search first. Use enhanced_search when the user
may have misspelt a term; lower scores are closer. Use suggest to complete a
partial term. Matched text in excerpts is wrapped in « and ».
Read handbook://sections to see which sections are built.`

// shutdownTimeout bounds how long HTTP clients get to finish.
const shutdownTimeout = 5 * time.Second

// Server is the MCP server for the handbook.
type Server struct {
	ports  *Ports
	server *mcp.Server
}

// NewServer creates a new MCP server with the given ports.
func NewServer(ports *Ports) (*Server, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("validating ports: %w", err)
	}

	impl := &mcp.Implementation{
		Name:    "handbook",
		Version: Version,
	}

	s := &Server{
		ports:  ports,
		server: mcp.NewServer(impl, &mcp.ServerOptions{Instructions: instructions}),
	}

	s.registerTools()
	s.registerResources()

	return s, nil
}

// Run serves over stdio until ctx is cancelled or the client disconnects.
func (s *Server) Run(ctx context.Context) error {
	s.warm(ctx)
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// RunHTTP serves streamable HTTP on addr until ctx is cancelled.
func (s *Server) RunHTTP(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("mcp: shutdown: %v", err)
		}
	}()

	s.warm(ctx)
	logger.Info("mcp: listening on %s", addr)

	err := httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Handler returns the streamable HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	return mcp.NewStreamableHTTPHandler(func(_ *http.Request) *mcp.Server {
		return s.server
	}, nil)
}

// warm builds every configured section in the background so the first
// tool call does not pay for indexing. Failures are left for the tools
// to report per section.
func (s *Server) warm(ctx context.Context) {
	if s.ports.Index == nil {
		return
	}
	go func() {
		failures, err := s.ports.Index.Warm(ctx)
		if err != nil {
			logger.Debug("mcp: warm stopped: %v", err)
			return
		}
		for _, f := range failures {
			logger.Warn("mcp: %s unavailable: %s", f.Section, f.Message)
		}
	}()
}
