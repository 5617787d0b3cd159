package menu

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/handbook-search/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/handbook-search/internal/adapters/driving/tui/styles"
)

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestNewView(t *testing.T) {
	v := NewView(styles.DefaultStyles())

	require.NotNil(t, v)
	assert.Len(t, v.items, 5)
	assert.Equal(t, 0, v.Selected())
	assert.Equal(t, 80, v.width)
	assert.Equal(t, 24, v.height)
	assert.Nil(t, v.Init())
}

func TestNewView_NilStyles(t *testing.T) {
	assert.NotNil(t, NewView(nil).styles)
}

func TestView_WindowSize(t *testing.T) {
	v := NewView(nil)

	updated, cmd := v.Update(tea.WindowSizeMsg{Width: 100, Height: 50})

	assert.Same(t, v, updated)
	assert.Nil(t, cmd)
	assert.True(t, v.ready)
	assert.Equal(t, 100, v.width)
}

func TestView_Navigation(t *testing.T) {
	tests := []struct {
		name string
		keys []tea.KeyMsg
		want int
	}{
		{"down", []tea.KeyMsg{{Type: tea.KeyDown}}, 1},
		{"j twice", []tea.KeyMsg{runes("j"), runes("j")}, 2},
		{"up at top", []tea.KeyMsg{{Type: tea.KeyUp}}, 0},
		{"k after down", []tea.KeyMsg{runes("j"), runes("k")}, 0},
		{"clamped at bottom", []tea.KeyMsg{runes("j"), runes("j"), runes("j"), runes("j"), runes("j"), runes("j")}, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewView(nil)
			for _, k := range tt.keys {
				v.Update(k)
			}
			assert.Equal(t, tt.want, v.Selected())
		})
	}
}

func TestView_EnterChangesView(t *testing.T) {
	tests := []struct {
		index int
		want  messages.ViewType
	}{
		{0, messages.ViewSearch},
		{1, messages.ViewSections},
		{2, messages.ViewSettings},
		{3, messages.ViewHelp},
	}

	for _, tt := range tests {
		t.Run(tt.want.String(), func(t *testing.T) {
			v := NewView(nil)
			v.selected = tt.index

			_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})

			require.NotNil(t, cmd)
			assert.Equal(t, messages.ViewChanged{View: tt.want}, cmd())
		})
	}
}

func TestView_QuitItem(t *testing.T) {
	v := NewView(nil)
	v.selected = 4

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})

	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestView_QKeyQuits(t *testing.T) {
	_, cmd := NewView(nil).Update(runes("q"))

	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestView_DigitJumps(t *testing.T) {
	v := NewView(nil)

	_, cmd := v.Update(runes("2"))

	require.NotNil(t, cmd)
	assert.Equal(t, 1, v.Selected())
	assert.Equal(t, messages.ViewChanged{View: messages.ViewSections}, cmd())
}

func TestView_DigitOutOfRangeIgnored(t *testing.T) {
	v := NewView(nil)

	_, cmd := v.Update(runes("9"))

	assert.Nil(t, cmd)
	assert.Equal(t, 0, v.Selected())
}

func TestView_View(t *testing.T) {
	v := NewView(nil)
	assert.Equal(t, "Initialising...", v.View())

	v.SetDimensions(80, 24)
	view := v.View()

	assert.Contains(t, view, "Handbook")
	assert.Contains(t, view, "> ")
	for _, label := range []string{"1. Search", "2. Sections", "3. Settings", "4. Help", "5. Quit"} {
		assert.Contains(t, view, label)
	}
	assert.Contains(t, view, "build and inspect the index")
}
