package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/handbook-search/internal/core/domain"
)

var highlightStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF87D7"))

// styledOutput reports whether w is a terminal that can show styling.
func styledOutput(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// renderExcerpt replaces highlight delimiters with terminal styling.
// Plain output keeps the delimiters so matches stay visible in pipes.
func renderExcerpt(excerpt string, styled bool) string {
	if !styled || excerpt == "" {
		return excerpt
	}
	var b strings.Builder
	rest := excerpt
	for {
		open := strings.Index(rest, domain.HighlightOpen)
		if open < 0 {
			b.WriteString(rest)
			return b.String()
		}
		after := rest[open+len(domain.HighlightOpen):]
		closeAt := strings.Index(after, domain.HighlightClose)
		if closeAt < 0 {
			b.WriteString(rest)
			return b.String()
		}
		b.WriteString(rest[:open])
		b.WriteString(highlightStyle.Render(after[:closeAt]))
		rest = after[closeAt+len(domain.HighlightClose):]
	}
}

func outputJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

// printUnavailable lists sections that could not be searched.
func printUnavailable(cmd *cobra.Command, failures []domain.SectionFailure) {
	for _, f := range failures {
		cmd.PrintErrf("Warning: %s unavailable: %s\n", f.Section.Description(), f.Message)
	}
}
