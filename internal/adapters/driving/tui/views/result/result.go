// Package result provides the search result detail view for the TUI.
package result

import (
	"fmt"
	"strings"
	"unicode/utf8"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/handbook-search/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/handbook-search/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/handbook-search/internal/core/domain"
)

// View shows one search result with its metadata and excerpt.
type View struct {
	styles *styles.Styles

	result       *domain.SearchResult
	lines        []string
	scrollOffset int
	width        int
	height       int
	ready        bool
}

// NewView creates a new result view.
func NewView(s *styles.Styles) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &View{
		styles: s,
		width:  80,
		height: 24,
	}
}

// SetResult sets the result to display.
func (v *View) SetResult(r domain.SearchResult) {
	v.result = &r
	v.scrollOffset = 0
	v.layout()
}

// Result returns the displayed result.
func (v *View) Result() *domain.SearchResult {
	return v.result
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return nil
}

// Update handles messages for the result view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
	case tea.KeyMsg:
		return v.handleKeyMsg(msg)
	}
	return v, nil
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if v.scrollOffset > 0 {
			v.scrollOffset--
		}
	case "down", "j":
		if v.scrollOffset < v.maxScrollOffset() {
			v.scrollOffset++
		}
	case "pgup", "ctrl+u":
		v.scrollOffset = max(v.scrollOffset-v.visibleLines(), 0)
	case "pgdown", "ctrl+d":
		v.scrollOffset = min(v.scrollOffset+v.visibleLines(), v.maxScrollOffset())
	case "home", "g":
		v.scrollOffset = 0
	case "end", "G":
		v.scrollOffset = v.maxScrollOffset()
	case "esc":
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewSearch}
		}
	}
	return v, nil
}

// layout renders the result body into styled lines.
func (v *View) layout() {
	v.lines = nil
	if v.result == nil {
		return
	}
	r := v.result

	field := func(label, value string) {
		if value == "" {
			return
		}
		v.lines = append(v.lines,
			v.styles.Muted.Render(fmt.Sprintf("%-10s", label+":"))+v.styles.Normal.Render(value))
	}

	field("Section", r.Reference.Section.Description())
	field("Path", r.Reference.Path)
	field("Score", fmt.Sprintf("%s (%s)", r.Score, r.Scorer))
	field("Matched", matchedFields(r.MatchSpans))

	m := r.Metadata
	field("Category", m.Category)
	field("Author", m.Author)
	field("Version", m.Version)
	if !m.LastUpdated.IsZero() {
		field("Updated", m.LastUpdated.Format("2006-01-02"))
	}
	field("Level", m.ClinicalLevel.String())
	field("Tags", strings.Join(m.Tags, ", "))

	if r.Excerpt == "" {
		return
	}
	v.lines = append(v.lines, "", v.styles.Subtitle.Render("Excerpt"))
	for _, line := range wrapExcerpt(r.Excerpt, v.contentWidth()) {
		v.lines = append(v.lines, v.styles.Excerpt(line, v.styles.Normal))
	}
}

func (v *View) contentWidth() int {
	return max(v.width-4, 20)
}

// matchedFields lists the distinct fields of spans in first-seen order.
func matchedFields(spans []domain.MatchSpan) string {
	seen := make(map[domain.Field]bool, len(spans))
	var fields []string
	for _, s := range spans {
		if !seen[s.Field] {
			seen[s.Field] = true
			fields = append(fields, string(s.Field))
		}
	}
	return strings.Join(fields, ", ")
}

// wrapExcerpt word-wraps text to width runes. A highlight that crosses a
// line break is closed at the end of the line and reopened on the next, so
// every line carries balanced delimiters. Delimiters do not count towards
// the width.
func wrapExcerpt(text string, width int) []string {
	var (
		lines []string
		cur   strings.Builder
		n     int
		open  bool
	)
	flush := func() {
		line := cur.String()
		if open {
			line += domain.HighlightClose
		}
		lines = append(lines, line)
		cur.Reset()
		n = 0
		if open {
			cur.WriteString(domain.HighlightOpen)
		}
	}

	strip := strings.NewReplacer(domain.HighlightOpen, "", domain.HighlightClose, "")
	for _, word := range strings.Fields(text) {
		visible := utf8.RuneCountInString(strip.Replace(word))
		if n > 0 && n+1+visible > width {
			flush()
		}
		if n > 0 {
			cur.WriteByte(' ')
			n++
		}
		cur.WriteString(word)
		n += visible

		lastOpen := strings.LastIndex(word, domain.HighlightOpen)
		lastClose := strings.LastIndex(word, domain.HighlightClose)
		switch {
		case lastOpen > lastClose:
			open = true
		case lastClose > lastOpen:
			open = false
		}
	}
	if n > 0 {
		lines = append(lines, cur.String())
	}
	return lines
}

func (v *View) visibleLines() int {
	// Title, separator, help and padding.
	return max(v.height-6, 1)
}

func (v *View) maxScrollOffset() int {
	return max(len(v.lines)-v.visibleLines(), 0)
}

// View renders the result view.
func (v *View) View() string {
	var b strings.Builder

	title := "Result"
	if v.result != nil {
		title = v.result.Reference.Title
		if title == "" {
			title = v.result.ID
		}
	}
	b.WriteString(v.styles.Title.Render(title))
	b.WriteString("\n")
	b.WriteString(strings.Repeat("─", min(max(v.width-4, 1), 60)))
	b.WriteString("\n\n")

	if v.result == nil {
		b.WriteString(v.styles.Muted.Render("(No result selected)"))
		b.WriteString("\n\n")
		b.WriteString(v.renderHelp())
		return b.String()
	}

	visible := v.visibleLines()
	end := min(v.scrollOffset+visible, len(v.lines))
	for i := v.scrollOffset; i < end; i++ {
		b.WriteString(v.lines[i])
		b.WriteString("\n")
	}

	if len(v.lines) > visible {
		percentage := 0
		if v.maxScrollOffset() > 0 {
			percentage = v.scrollOffset * 100 / v.maxScrollOffset()
		}
		b.WriteString("\n")
		b.WriteString(v.styles.Muted.Render(fmt.Sprintf("  [%d%%] Line %d-%d of %d",
			percentage, v.scrollOffset+1, end, len(v.lines))))
	}

	b.WriteString("\n\n")
	b.WriteString(v.renderHelp())
	return b.String()
}

func (v *View) renderHelp() string {
	return v.styles.Help.Render("[↑/↓/PgUp/PgDn] scroll  [g/G] top/bottom  [esc] back")
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
	v.layout()
}

// Ready returns whether the view has been sized.
func (v *View) Ready() bool {
	return v.ready
}
