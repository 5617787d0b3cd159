package tui

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/handbook-search/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/handbook-search/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/handbook-search/internal/core/domain"
	"github.com/custodia-labs/handbook-search/internal/core/services"
)

func newTestApp(t *testing.T) (*App, *mockIndexService) {
	t.Helper()
	idx := &mockIndexService{}
	app, err := NewApp(&Ports{
		Search:   &mockSearchService{},
		Index:    idx,
		Settings: services.NewSettingsService(memory.NewConfigStore()),
	})
	require.NoError(t, err)
	app.SetDimensions(100, 40)
	return app, idx
}

func typeInto(app *App, text string) {
	for _, r := range text {
		app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

func TestPorts_Validate(t *testing.T) {
	var nilPorts *Ports
	assert.ErrorIs(t, nilPorts.Validate(), ErrInvalidPorts)
	assert.ErrorIs(t, (&Ports{}).Validate(), ErrMissingSearchService)
	assert.NoError(t, (&Ports{Search: &mockSearchService{}}).Validate())
}

func TestNewApp(t *testing.T) {
	app, err := NewApp(&Ports{Search: &mockSearchService{}})

	require.NoError(t, err)
	assert.Equal(t, messages.ViewMenu, app.CurrentView())
	assert.False(t, app.Ready())
	assert.Equal(t, "Initialising...", app.View())
}

func TestNewApp_MissingSearch(t *testing.T) {
	app, err := NewApp(&Ports{})

	assert.ErrorIs(t, err, ErrMissingSearchService)
	assert.Nil(t, app)
}

func TestApp_WindowSize(t *testing.T) {
	app, err := NewApp(&Ports{Search: &mockSearchService{}})
	require.NoError(t, err)

	model, cmd := app.Update(tea.WindowSizeMsg{Width: 80, Height: 24})

	assert.Same(t, app, model)
	assert.Nil(t, cmd)
	assert.True(t, app.Ready())
	assert.Contains(t, app.View(), "Handbook")
}

func TestApp_Init(t *testing.T) {
	app, _ := newTestApp(t)
	assert.NotNil(t, app.Init())
}

func TestApp_CtrlCQuits(t *testing.T) {
	app, _ := newTestApp(t)

	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyCtrlC})

	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestApp_QuitMessage(t *testing.T) {
	app, _ := newTestApp(t)

	_, cmd := app.Update(messages.Quit{})

	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestApp_MenuToSearch(t *testing.T) {
	app, _ := newTestApp(t)

	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	app.Update(cmd())

	assert.Equal(t, messages.ViewSearch, app.CurrentView())
	assert.Contains(t, app.View(), "Type to search the handbook.")
}

func TestApp_SearchFlow(t *testing.T) {
	app, _ := newTestApp(t)
	app.Update(messages.ViewChanged{View: messages.ViewSearch})

	typeInto(app, "asthma")
	assert.Equal(t, "asthma", app.Query())

	// The completion of the final keystroke lands; earlier ones are stale.
	app.Update(messages.SearchCompleted{Seq: app.searchView.Seq() - 1, Query: "asthm", Response: &domain.SearchResponse{
		Results: []domain.SearchResult{{Reference: domain.ContentReference{Title: "stale"}}},
	}})
	assert.Empty(t, app.Results())

	resp, err := (&mockSearchService{}).Search(context.Background(), "asthma", domain.SearchOptions{})
	require.NoError(t, err)
	app.Update(messages.SearchCompleted{Seq: app.searchView.Seq(), Query: "asthma", Response: resp})

	require.Len(t, app.Results(), 1)
	assert.Equal(t, "asthma", app.Results()[0].Reference.Title)
}

func TestApp_OpenResultAndBack(t *testing.T) {
	app, _ := newTestApp(t)
	app.WithQuery("angina")
	cmd := app.searchView.SetQuery("angina")
	app.Update(cmd())
	require.Len(t, app.Results(), 1)

	app.Update(tea.KeyMsg{Type: tea.KeyTab})
	_, open := app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, open)
	app.Update(open())

	assert.Equal(t, messages.ViewResult, app.CurrentView())
	view := app.View()
	assert.Contains(t, view, "angina")
	assert.Contains(t, view, "Clinical Handbook")

	_, back := app.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, back)
	app.Update(back())

	assert.Equal(t, messages.ViewSearch, app.CurrentView())
	assert.Len(t, app.Results(), 1, "results survive returning from a result")
}

func TestApp_LeavingSearchResets(t *testing.T) {
	app, _ := newTestApp(t)
	app.Update(messages.ViewChanged{View: messages.ViewSearch})
	app.Update(app.searchView.SetQuery("angina")())
	require.NotEmpty(t, app.Results())

	app.Update(messages.ViewChanged{View: messages.ViewMenu})
	app.Update(messages.ViewChanged{View: messages.ViewSearch})

	assert.Empty(t, app.Results())
	assert.Empty(t, app.Query())
}

func TestApp_WithQuery(t *testing.T) {
	app, _ := newTestApp(t)

	app.WithQuery("sepsis")

	assert.Equal(t, messages.ViewSearch, app.CurrentView())
	assert.Equal(t, "", app.Query(), "query is issued by Init")

	blank, _ := newTestApp(t)
	blank.WithQuery("  ")
	assert.Equal(t, messages.ViewMenu, blank.CurrentView())
}

func TestApp_SectionsView(t *testing.T) {
	app, idx := newTestApp(t)

	cmd := app.switchView(messages.ViewSections)
	require.NotNil(t, cmd)
	app.Update(cmd())
	assert.Contains(t, app.View(), "not built")

	_, warm := app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("w")})
	require.NotNil(t, warm)

	// The build finishes after the user has left the view.
	app.Update(messages.ViewChanged{View: messages.ViewMenu})
	_, reload := app.Update(warm())
	require.NotNil(t, reload)
	app.Update(reload())

	require.Len(t, idx.stats, 1)
	st, ok := app.sectionsView.Stats(domain.SectionHandbook)
	require.True(t, ok)
	assert.Equal(t, 3, st.Records)
}

func TestApp_SettingsView(t *testing.T) {
	app, _ := newTestApp(t)

	cmd := app.switchView(messages.ViewSettings)
	require.NotNil(t, cmd)
	app.Update(cmd())

	assert.Contains(t, app.View(), "search.default_limit")
}

func TestApp_HelpView(t *testing.T) {
	app, _ := newTestApp(t)
	app.Update(messages.ViewChanged{View: messages.ViewHelp})

	view := app.View()
	assert.Contains(t, view, "Help")
	assert.Contains(t, view, "section")

	app.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, messages.ViewMenu, app.CurrentView())
}

func TestApp_ErrorOccurred(t *testing.T) {
	app, _ := newTestApp(t)
	app.Update(messages.ViewChanged{View: messages.ViewSearch})

	app.Update(messages.ErrorOccurred{Err: errors.New("content unreachable")})

	assert.EqualError(t, app.Err(), "content unreachable")
	assert.Contains(t, app.View(), "content unreachable")
}

func TestApp_WithContext(t *testing.T) {
	app, _ := newTestApp(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	assert.Same(t, app, app.WithContext(ctx))
	assert.Equal(t, ctx, app.ctx)
}
