// Package search provides the live search view for the TUI.
package search

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/handbook-search/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/handbook-search/internal/adapters/driving/tui/components/list"
	"github.com/custodia-labs/handbook-search/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/handbook-search/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/handbook-search/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/handbook-search/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/handbook-search/internal/core/domain"
	"github.com/custodia-labs/handbook-search/internal/core/ports/driving"
)

// suggestionLimit caps the "did you mean" list.
const suggestionLimit = 5

// View searches as the user types. Every edit issues a query tagged with
// a sequence number; completions carrying an older number are dropped, so
// a slow query can never overwrite the results of a newer one.
type View struct {
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	input     *input.SearchInput
	list      *list.ResultList
	statusbar *status.Bar

	searchService driving.SearchService
	ctx           context.Context
	cancel        context.CancelFunc

	seq         int
	query       string
	scope       int // 0 is every section, i selects AllSections()[i-1]
	fallback    bool
	unavailable []domain.SectionFailure
	suggestions []string

	width      int
	height     int
	ready      bool
	err        error
	focusInput bool
}

// NewView creates a new search view.
func NewView(s *styles.Styles, km *keymap.KeyMap, searchService driving.SearchService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	return &View{
		styles:        s,
		keymap:        km,
		input:         input.NewSearchInput(s),
		list:          list.NewResultList(s),
		statusbar:     status.NewBar(s, km),
		searchService: searchService,
		ctx:           context.Background(),
		width:         80,
		height:        24,
		focusInput:    true,
	}
}

// WithContext sets the parent context for queries.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return v.input.Init()
}

// Update handles messages for the search view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.SearchCompleted:
		return v, v.handleSearchCompleted(msg)

	case messages.SuggestionsLoaded:
		if msg.Seq == v.seq && msg.Err == nil {
			v.suggestions = msg.Suggestions
		}
		return v, nil

	case messages.ErrorOccurred:
		v.setError(msg.Err)
		return v, nil
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keymap.Back):
		v.supersede()
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewMenu}
		}

	case key.Matches(msg, v.keymap.Scope):
		v.scope = (v.scope + 1) % (len(domain.AllSections()) + 1)
		v.input.SetScope(v.scopeLabel())
		return v, v.issue(v.input.Value())

	case key.Matches(msg, v.keymap.Focus):
		if v.focusInput && !v.list.IsEmpty() {
			v.focusResults()
		} else {
			v.focusQuery()
		}
		return v, nil
	}

	if v.focusInput {
		if msg.Type == tea.KeyEnter {
			if !v.list.IsEmpty() {
				v.focusResults()
			}
			return v, nil
		}
		var cmd tea.Cmd
		v.input, cmd = v.input.Update(msg)
		if value := v.input.Value(); value != v.query {
			return v, tea.Batch(cmd, v.issue(value))
		}
		return v, cmd
	}

	switch {
	case key.Matches(msg, v.keymap.Open):
		if r := v.list.SelectedResult(); r != nil {
			selected := *r
			return v, func() tea.Msg {
				return messages.ResultSelected{Result: selected}
			}
		}
		return v, nil

	case key.Matches(msg, v.keymap.NewSearch):
		v.input.Reset()
		v.focusQuery()
		return v, v.issue("")
	}

	var cmd tea.Cmd
	v.list, cmd = v.list.Update(msg)
	return v, cmd
}

// supersede invalidates the in-flight query, if any.
func (v *View) supersede() {
	v.seq++
	if v.cancel != nil {
		v.cancel()
		v.cancel = nil
	}
}

// issue starts a query for value, superseding the previous one.
// A blank value clears the results instead.
func (v *View) issue(value string) tea.Cmd {
	v.supersede()
	v.query = value
	v.suggestions = nil

	if strings.TrimSpace(value) == "" {
		v.list.SetResults(nil)
		v.fallback = false
		v.unavailable = nil
		v.err = nil
		v.statusbar.Clear()
		return nil
	}

	v.statusbar.SetState(status.StateSearching)

	ctx, cancel := context.WithCancel(v.ctx)
	v.cancel = cancel
	return v.performSearch(ctx, v.seq, value, v.options())
}

func (v *View) options() domain.SearchOptions {
	var opts domain.SearchOptions
	if v.scope > 0 {
		opts.Filters.Sections = []domain.SectionID{domain.AllSections()[v.scope-1]}
	}
	return opts
}

func (v *View) scopeLabel() string {
	if v.scope == 0 {
		return ""
	}
	return domain.AllSections()[v.scope-1].Description()
}

func (v *View) performSearch(ctx context.Context, seq int, query string, opts domain.SearchOptions) tea.Cmd {
	svc := v.searchService
	return func() tea.Msg {
		if svc == nil {
			return messages.ErrorOccurred{Err: ErrNoSearchService}
		}
		resp, err := svc.Search(ctx, query, opts)
		return messages.SearchCompleted{Seq: seq, Query: query, Response: resp, Err: err}
	}
}

func (v *View) loadSuggestions(seq int, query string) tea.Cmd {
	svc := v.searchService
	ctx := v.ctx
	return func() tea.Msg {
		suggestions, err := svc.GetSuggestions(ctx, query, suggestionLimit)
		return messages.SuggestionsLoaded{Seq: seq, Suggestions: suggestions, Err: err}
	}
}

func (v *View) handleSearchCompleted(msg messages.SearchCompleted) tea.Cmd {
	if msg.Seq != v.seq {
		return nil
	}
	if v.cancel != nil {
		v.cancel()
		v.cancel = nil
	}

	if msg.Err != nil {
		if !errors.Is(msg.Err, context.Canceled) {
			v.setError(msg.Err)
		}
		return nil
	}
	if msg.Response == nil {
		return nil
	}

	resp := msg.Response
	v.err = nil
	v.fallback = resp.Fallback
	v.unavailable = resp.Unavailable
	v.list.SetResults(resp.Results)

	v.statusbar.SetState(status.StateResults)
	v.statusbar.SetMessage("")
	v.statusbar.SetResultCount(len(resp.Results))
	v.statusbar.SetFallback(resp.Fallback)
	v.statusbar.SetUnavailable(len(resp.Unavailable))

	if len(resp.Results) == 0 {
		v.statusbar.SetMessage("No results found")
		return v.loadSuggestions(msg.Seq, msg.Query)
	}
	return nil
}

func (v *View) setError(err error) {
	if err == nil {
		return
	}
	v.err = err
	v.statusbar.SetState(status.StateError)
	v.statusbar.SetMessage(err.Error())
}

func (v *View) focusResults() {
	v.focusInput = false
	v.input.Blur()
}

func (v *View) focusQuery() {
	v.focusInput = true
	v.input.Focus()
}

// View renders the search view.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	parts := make([]string, 0, 12)
	parts = append(parts, v.styles.Title.Render("Handbook"), "", v.input.View(), "")

	if v.err != nil {
		parts = append(parts, v.styles.Error.Render("Error: "+v.err.Error()), "")
	}
	for _, f := range v.unavailable {
		parts = append(parts, v.styles.Warning.Render(f.Section.Description()+" unavailable: "+f.Message))
	}
	if len(v.unavailable) > 0 {
		parts = append(parts, "")
	}
	if v.fallback && !v.list.IsEmpty() {
		parts = append(parts, v.styles.Muted.Render("No exact matches; showing closest matches."), "")
	}

	switch {
	case v.list.IsEmpty() && strings.TrimSpace(v.query) == "":
		parts = append(parts, v.styles.Muted.Render("Type to search the handbook."))
	case v.list.IsEmpty() && len(v.suggestions) > 0:
		parts = append(parts,
			v.styles.Muted.Render("No results found."),
			v.styles.Normal.Render("Did you mean: ")+v.styles.Highlight.Render(strings.Join(v.suggestions, ", "))+"?",
		)
	default:
		parts = append(parts, v.list.View())
	}

	parts = append(parts, "", v.statusbar.View())
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true

	v.input.SetWidth(width)
	v.list.SetDimensions(width, height-10) // header, input and status
	v.statusbar.SetWidth(width)
}

// Ready returns whether the view is ready to render.
func (v *View) Ready() bool {
	return v.ready
}

// Query returns the query of the latest issued search.
func (v *View) Query() string {
	return v.query
}

// SetQuery fills the input and searches for it.
func (v *View) SetQuery(query string) tea.Cmd {
	v.input.SetValue(query)
	return v.issue(query)
}

// Seq returns the sequence number of the latest issued search.
func (v *View) Seq() int {
	return v.seq
}

// Results returns the current search results.
func (v *View) Results() []domain.SearchResult {
	return v.list.Results()
}

// Suggestions returns the suggestions shown for an empty result.
func (v *View) Suggestions() []string {
	return v.suggestions
}

// Scope returns the sections the search is restricted to; nil means all.
func (v *View) Scope() []domain.SectionID {
	return v.options().Filters.Sections
}

// SelectedIndex returns the index of the selected result.
func (v *View) SelectedIndex() int {
	return v.list.Selected()
}

// SelectedResult returns the currently selected result.
func (v *View) SelectedResult() *domain.SearchResult {
	return v.list.SelectedResult()
}

// Err returns the current error, if any.
func (v *View) Err() error {
	return v.err
}

// Reset returns the view to an empty query with input focus.
func (v *View) Reset() {
	v.input.Reset()
	v.focusQuery()
	v.issue("")
}

// InputFocused returns whether the input has focus.
func (v *View) InputFocused() bool {
	return v.focusInput
}
