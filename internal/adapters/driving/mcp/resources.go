package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/handbook-search/internal/core/domain"
)

const (
	// URIScheme is the custom URI scheme for handbook resources.
	uriScheme = "handbook://"
)

// sectionInfo describes a section and, once built, its index.
type sectionInfo struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	URI     string `json:"uri"`
	Built   bool   `json:"built"`
	Records int    `json:"records,omitempty"`
	Skipped int    `json:"skipped,omitempty"`
}

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	// Static resource for listing sections.
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "sections",
		Name:        "sections",
		Description: "Handbook sections and their index status",
		MIMEType:    "application/json",
	}, s.handleSectionsResource)

	// Template for a single section; reading it builds the section.
	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "sections/{section}",
		Name:        "section",
		Description: "Index status of one section, built on first read",
		MIMEType:    "application/json",
	}, s.handleSectionResource)
}

// handleSectionsResource lists every section.
func (s *Server) handleSectionsResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	built := s.builtStats()

	infos := make([]sectionInfo, 0, len(domain.AllSections()))
	for _, section := range domain.AllSections() {
		infos = append(infos, newSectionInfo(section, built))
	}

	return jsonResult(req.Params.URI, infos)
}

// handleSectionResource builds one section and returns its status.
func (s *Server) handleSectionResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	name := extractSectionID(req.Params.URI)
	if name == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	section, err := domain.ParseSection(name)
	if err != nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	if s.ports.Index != nil {
		failures, err := s.ports.Index.Warm(ctx, section)
		if err != nil {
			return nil, err
		}
		if len(failures) > 0 {
			return nil, fmt.Errorf("building %s: %s", section, failures[0].Message)
		}
	}

	return jsonResult(req.Params.URI, newSectionInfo(section, s.builtStats()))
}

func (s *Server) builtStats() map[domain.SectionID]domain.SectionStats {
	built := make(map[domain.SectionID]domain.SectionStats)
	if s.ports.Index == nil {
		return built
	}
	for _, st := range s.ports.Index.Stats() {
		built[st.Section] = st
	}
	return built
}

func newSectionInfo(section domain.SectionID, built map[domain.SectionID]domain.SectionStats) sectionInfo {
	info := sectionInfo{
		ID:   section.String(),
		Name: section.Description(),
		URI:  uriScheme + "sections/" + section.String(),
	}
	if st, ok := built[section]; ok {
		info.Built = true
		info.Records = st.Records
		info.Skipped = st.Skipped
	}
	return info
}

func jsonResult(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling sections: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// extractSectionID extracts the section from a URI like handbook://sections/{section}.
func extractSectionID(uri string) string {
	const prefix = uriScheme + "sections/"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}

	return strings.Trim(strings.TrimPrefix(uri, prefix), "/")
}
