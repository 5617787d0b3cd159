package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/handbook-search/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/handbook-search/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/handbook-search/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/handbook-search/internal/adapters/driving/tui/views/menu"
	"github.com/custodia-labs/handbook-search/internal/adapters/driving/tui/views/result"
	"github.com/custodia-labs/handbook-search/internal/adapters/driving/tui/views/search"
	"github.com/custodia-labs/handbook-search/internal/adapters/driving/tui/views/sections"
	"github.com/custodia-labs/handbook-search/internal/adapters/driving/tui/views/settings"
	"github.com/custodia-labs/handbook-search/internal/core/domain"
)

// App is the main TUI application following the Elm architecture.
// It implements tea.Model for use with Bubbletea.
type App struct {
	ports  *Ports
	ctx    context.Context
	styles *styles.Styles
	keymap *keymap.KeyMap
	help   help.Model

	menuView     *menu.View
	searchView   *search.View
	resultView   *result.View
	sectionsView *sections.View
	settingsView *settings.View

	// initialQuery is searched on start when set.
	initialQuery string

	currentView messages.ViewType
	err         error

	width  int
	height int
	ready  bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a new TUI application with the given ports.
func NewApp(ports *Ports) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()
	h := help.New()
	h.ShowAll = true

	return &App{
		ports:        ports,
		ctx:          context.Background(),
		styles:       s,
		keymap:       km,
		help:         h,
		menuView:     menu.NewView(s),
		searchView:   search.NewView(s, km, ports.Search),
		resultView:   result.NewView(s),
		sectionsView: sections.NewView(s, ports.Index),
		settingsView: settings.NewView(s, ports.Settings),
		currentView:  messages.ViewMenu,
	}, nil
}

// WithContext sets the context that bounds every query and build.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	a.searchView.WithContext(ctx)
	a.sectionsView.WithContext(ctx)
	return a
}

// WithQuery opens the app on the search view, searching for query.
func (a *App) WithQuery(query string) *App {
	if strings.TrimSpace(query) != "" {
		a.initialQuery = query
		a.currentView = messages.ViewSearch
	}
	return a
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	cmds := []tea.Cmd{
		tea.EnterAltScreen,
		tea.SetWindowTitle("handbook"),
	}
	if a.initialQuery != "" {
		cmds = append(cmds, a.searchView.Init(), a.searchView.SetQuery(a.initialQuery))
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
//
//nolint:gocyclo // central message router
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
		return a, a.routeKey(msg)

	// Results always reach the search view, which drops stale ones.
	case messages.SearchCompleted, messages.SuggestionsLoaded:
		a.searchView, cmd = a.searchView.Update(msg)
		a.err = a.searchView.Err()
		return a, cmd

	case messages.ResultSelected:
		a.resultView.SetResult(msg.Result)
		a.currentView = messages.ViewResult
		return a, nil

	case messages.ViewChanged:
		return a, a.switchView(msg.View)

	// Builds may finish after the user leaves the sections view.
	case messages.SectionsLoaded, messages.SectionWarmed:
		a.sectionsView, cmd = a.sectionsView.Update(msg)
		return a, cmd

	case messages.SettingsLoaded, messages.SettingSaved:
		a.settingsView, cmd = a.settingsView.Update(msg)
		return a, cmd

	case messages.ErrorOccurred:
		a.err = msg.Err
		switch a.currentView {
		case messages.ViewSearch:
			a.searchView, cmd = a.searchView.Update(msg)
		case messages.ViewSections:
			a.sectionsView, cmd = a.sectionsView.Update(msg)
		case messages.ViewMenu, messages.ViewResult, messages.ViewSettings, messages.ViewHelp:
			// Shown through Err only.
		}
		return a, cmd

	case messages.Quit:
		return a, tea.Quit
	}

	// Cursor blinks and other component messages.
	switch a.currentView {
	case messages.ViewSearch:
		a.searchView, cmd = a.searchView.Update(msg)
	case messages.ViewSettings:
		a.settingsView, cmd = a.settingsView.Update(msg)
	case messages.ViewMenu, messages.ViewResult, messages.ViewSections, messages.ViewHelp:
	}
	return a, cmd
}

func (a *App) routeKey(msg tea.KeyMsg) tea.Cmd {
	var cmd tea.Cmd
	switch a.currentView {
	case messages.ViewMenu:
		a.menuView, cmd = a.menuView.Update(msg)
	case messages.ViewSearch:
		a.searchView, cmd = a.searchView.Update(msg)
	case messages.ViewResult:
		a.resultView, cmd = a.resultView.Update(msg)
	case messages.ViewSections:
		a.sectionsView, cmd = a.sectionsView.Update(msg)
	case messages.ViewSettings:
		a.settingsView, cmd = a.settingsView.Update(msg)
	case messages.ViewHelp:
		if msg.Type == tea.KeyEsc || msg.String() == "q" {
			a.currentView = messages.ViewMenu
		}
	}
	return cmd
}

func (a *App) switchView(to messages.ViewType) tea.Cmd {
	from := a.currentView
	a.currentView = to

	switch to {
	case messages.ViewSearch:
		// Returning from a result keeps the query and results.
		if from == messages.ViewResult {
			return nil
		}
		a.searchView.Reset()
		return a.searchView.Init()
	case messages.ViewSections:
		return a.sectionsView.Init()
	case messages.ViewSettings:
		a.settingsView.Reset()
		return a.settingsView.Init()
	case messages.ViewMenu, messages.ViewResult, messages.ViewHelp:
	}
	return nil
}

// View implements tea.Model.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}

	switch a.currentView {
	case messages.ViewSearch:
		return a.searchView.View()
	case messages.ViewResult:
		return a.resultView.View()
	case messages.ViewSections:
		return a.sectionsView.View()
	case messages.ViewSettings:
		return a.settingsView.View()
	case messages.ViewHelp:
		return a.viewHelp()
	default:
		return a.menuView.View()
	}
}

func (a *App) viewHelp() string {
	var b strings.Builder
	b.WriteString(a.styles.Title.Render("Help"))
	b.WriteString("\n\n")
	b.WriteString(a.help.View(a.keymap))
	b.WriteString("\n\n")
	b.WriteString(a.styles.Muted.Render("Typing searches immediately. Matches are highlighted in each excerpt;"))
	b.WriteString("\n")
	b.WriteString(a.styles.Muted.Render("when nothing matches exactly, the closest titles and terms are shown."))
	b.WriteString("\n\n")
	b.WriteString(a.styles.Help.Render("[esc] back to menu"))
	return b.String()
}

// Run starts the TUI application.
func (a *App) Run() error {
	p := tea.NewProgram(a, tea.WithAltScreen(), tea.WithContext(a.ctx))
	_, err := p.Run()
	return err
}

// Query returns the current search query.
func (a *App) Query() string {
	return a.searchView.Query()
}

// Results returns the current search results.
func (a *App) Results() []domain.SearchResult {
	return a.searchView.Results()
}

// CurrentView returns the current view type.
func (a *App) CurrentView() messages.ViewType {
	return a.currentView
}

// Err returns the last error that occurred.
func (a *App) Err() error {
	return a.err
}

// Ready returns whether the app has been sized.
func (a *App) Ready() bool {
	return a.ready
}

// SetDimensions sizes the app and every view.
func (a *App) SetDimensions(width, height int) {
	a.width = width
	a.height = height
	a.ready = true
	a.help.Width = width

	a.menuView.SetDimensions(width, height)
	a.searchView.SetDimensions(width, height)
	a.resultView.SetDimensions(width, height)
	a.sectionsView.SetDimensions(width, height)
	a.settingsView.SetDimensions(width, height)
}
