// Package sections provides the section index view for the TUI.
package sections

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/handbook-search/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/handbook-search/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/handbook-search/internal/core/domain"
	"github.com/custodia-labs/handbook-search/internal/core/ports/driving"
)

// ErrNoIndexService indicates that no index service was provided.
var ErrNoIndexService = errors.New("index service is not configured")

// View lists the handbook sections with their index status and lets the
// user build or discard each one.
type View struct {
	styles       *styles.Styles
	indexService driving.IndexService
	ctx          context.Context

	sections []domain.SectionID
	stats    map[domain.SectionID]domain.SectionStats
	building map[domain.SectionID]bool
	failures map[domain.SectionID]string
	selected int
	width    int
	height   int
	ready    bool
	err      error
}

// NewView creates a new sections view.
func NewView(s *styles.Styles, indexService driving.IndexService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &View{
		styles:       s,
		indexService: indexService,
		ctx:          context.Background(),
		sections:     domain.AllSections(),
		stats:        make(map[domain.SectionID]domain.SectionStats),
		building:     make(map[domain.SectionID]bool),
		failures:     make(map[domain.SectionID]string),
	}
}

// WithContext sets the context for section builds.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init loads the current index statistics.
func (v *View) Init() tea.Cmd {
	return v.loadStats()
}

func (v *View) loadStats() tea.Cmd {
	svc := v.indexService
	return func() tea.Msg {
		if svc == nil {
			return messages.ErrorOccurred{Err: ErrNoIndexService}
		}
		return messages.SectionsLoaded{Stats: svc.Stats()}
	}
}

func (v *View) warm(section domain.SectionID) tea.Cmd {
	svc := v.indexService
	if svc == nil {
		return func() tea.Msg { return messages.ErrorOccurred{Err: ErrNoIndexService} }
	}
	v.building[section] = true
	delete(v.failures, section)

	ctx := v.ctx
	return func() tea.Msg {
		failures, err := svc.Warm(ctx, section)
		return messages.SectionWarmed{Section: section, Failures: failures, Err: err}
	}
}

func (v *View) clear(section domain.SectionID) tea.Cmd {
	if v.indexService == nil {
		return func() tea.Msg { return messages.ErrorOccurred{Err: ErrNoIndexService} }
	}
	v.indexService.ClearSection(section)
	delete(v.stats, section)
	delete(v.failures, section)
	return v.loadStats()
}

// Update handles messages for the sections view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.SectionsLoaded:
		v.err = nil
		v.stats = make(map[domain.SectionID]domain.SectionStats, len(msg.Stats))
		for _, st := range msg.Stats {
			v.stats[st.Section] = st
		}
		return v, nil

	case messages.SectionWarmed:
		delete(v.building, msg.Section)
		switch {
		case msg.Err != nil:
			v.failures[msg.Section] = msg.Err.Error()
		case len(msg.Failures) > 0:
			v.failures[msg.Section] = msg.Failures[0].Message
		}
		return v, v.loadStats()

	case messages.ErrorOccurred:
		v.err = msg.Err
		return v, nil
	}

	return v, nil
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if v.selected > 0 {
			v.selected--
		}
	case "down", "j":
		if v.selected < len(v.sections)-1 {
			v.selected++
		}
	case "enter", "w":
		section := v.sections[v.selected]
		if v.building[section] {
			return v, nil
		}
		return v, v.warm(section)
	case "c":
		return v, v.clear(v.sections[v.selected])
	case "r":
		return v, v.loadStats()
	case "esc":
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewMenu}
		}
	}
	return v, nil
}

// View renders the sections view.
func (v *View) View() string {
	var b strings.Builder

	b.WriteString(v.styles.Title.Render("Sections"))
	b.WriteString("\n\n")

	if v.err != nil {
		b.WriteString(v.styles.Error.Render(fmt.Sprintf("Error: %s", v.err.Error())))
		b.WriteString("\n\n")
	}

	for i, section := range v.sections {
		b.WriteString(v.renderSection(i, section))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(v.styles.Help.Render("[enter/w] build  [c] clear  [r] reload  [esc] back"))
	return b.String()
}

func (v *View) renderSection(index int, section domain.SectionID) string {
	indicator := "  "
	if index == v.selected {
		indicator = "> "
	}
	name := fmt.Sprintf("%s%-20s", indicator, section.Description())

	var status string
	switch st, built := v.stats[section]; {
	case v.building[section]:
		status = v.styles.Muted.Render("building...")
	case v.failures[section] != "":
		status = v.styles.Error.Render("failed: " + v.failures[section])
	case built:
		status = v.styles.Success.Render(fmt.Sprintf("%d records", st.Records))
		if st.Skipped > 0 {
			status += v.styles.Warning.Render(fmt.Sprintf(" (%d skipped)", st.Skipped))
		}
		status += v.styles.Muted.Render(" in " + st.BuildDuration.Round(time.Millisecond).String())
	default:
		status = v.styles.Muted.Render("not built")
	}

	if index == v.selected {
		return v.styles.Selected.Render(name) + " " + status
	}
	return v.styles.Normal.Render(name) + " " + status
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
}

// Selected returns the highlighted section.
func (v *View) Selected() domain.SectionID {
	return v.sections[v.selected]
}

// Stats returns the statistics of a built section.
func (v *View) Stats(section domain.SectionID) (domain.SectionStats, bool) {
	st, ok := v.stats[section]
	return st, ok
}

// Building reports whether a build of section is in progress.
func (v *View) Building(section domain.SectionID) bool {
	return v.building[section]
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}
