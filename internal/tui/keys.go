package tui

import (
	"errors"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/wesm/strend/internal/selection"
	"github.com/wesm/strend/internal/trends"
)

type keyMap struct {
	Next      key.Binding
	Prev      key.Binding
	Unfocus   key.Binding
	Submit    key.Binding
	Up        key.Binding
	Down      key.Binding
	Toggle    key.Binding
	Unselect  key.Binding
	SelectAll key.Binding
	ClearAll  key.Binding
	Export    key.Binding
	Quit      key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Next: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "next panel"),
		),
		Prev: key.NewBinding(
			key.WithKeys("shift+tab"),
			key.WithHelp("shift+tab", "prev panel"),
		),
		Unfocus: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "unfocus"),
		),
		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "search"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Toggle: key.NewBinding(
			key.WithKeys("enter", " "),
			key.WithHelp("enter/space", "toggle"),
		),
		Unselect: key.NewBinding(
			key.WithKeys("left", "h"),
			key.WithHelp("←/h", "unselect"),
		),
		SelectAll: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "select all"),
		),
		ClearAll: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "clear"),
		),
		Export: key.NewBinding(
			key.WithKeys("ctrl+e"),
			key.WithHelp("ctrl+e", "export csv"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "quit"),
		),
	}
}

// forPanel returns the bindings shown in the footer for a focused panel.
func (k keyMap) forPanel(p panel) []key.Binding {
	switch p {
	case panelQuery, panelFacets:
		return []key.Binding{k.Submit, k.Next, k.Prev, k.Unfocus, k.Quit}
	case panelSavedQueries, panelFacetValues:
		return []key.Binding{k.Up, k.Down, k.Toggle, k.Unselect, k.SelectAll, k.ClearAll, k.Next, k.Export, k.Quit}
	case panelChart:
		return []key.Binding{k.Next, k.Prev, k.Unfocus, k.Export, k.Quit}
	default:
		return []key.Binding{k.Next, k.Export, k.Quit}
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return k.forPanel(panelNone)
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Next, k.Prev, k.Unfocus, k.Submit},
		{k.Up, k.Down, k.Toggle, k.Unselect, k.SelectAll, k.ClearAll},
		{k.Export, k.Quit},
	}
}

// handleKeyPress routes a key to the focused panel. While a search is in
// flight only quit is honored.
func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		m.quitting = true
		return m, tea.Quit
	}
	if m.coord.Busy() {
		return m, nil
	}

	switch m.focus {
	case panelQuery, panelFacets:
		return m.handleInputKeys(msg)
	case panelSavedQueries, panelFacetValues:
		return m.handleListKeys(msg)
	default:
		return m.handleNavKeys(msg)
	}
}

// handleNavKeys handles keys shared by every non-input panel.
func (m Model) handleNavKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Next):
		return m.cycleFocus(1)
	case key.Matches(msg, m.keys.Prev):
		return m.cycleFocus(-1)
	case key.Matches(msg, m.keys.Unfocus):
		return m.setFocus(panelNone)
	case key.Matches(msg, m.keys.Export):
		return m.export()
	}
	return m, nil
}

// handleInputKeys handles keys when the query or facet input has focus.
func (m Model) handleInputKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Submit):
		return m.submit()
	case key.Matches(msg, m.keys.Next):
		return m.cycleFocus(1)
	case key.Matches(msg, m.keys.Prev):
		return m.cycleFocus(-1)
	case key.Matches(msg, m.keys.Unfocus):
		return m.setFocus(panelNone)
	}

	var cmd tea.Cmd
	if m.focus == panelQuery {
		m.queryInput, cmd = m.queryInput.Update(msg)
	} else {
		m.facetInput, cmd = m.facetInput.Update(msg)
	}
	return m, cmd
}

// handleListKeys handles keys in the saved-query and facet-value lists.
func (m Model) handleListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var op selection.Op
	switch {
	case key.Matches(msg, m.keys.Up):
		op = selection.OpPrevious
	case key.Matches(msg, m.keys.Down):
		op = selection.OpNext
	case key.Matches(msg, m.keys.Toggle):
		op = selection.OpToggle
	case key.Matches(msg, m.keys.Unselect):
		op = selection.OpUnselectCursor
	case key.Matches(msg, m.keys.SelectAll):
		op = selection.OpSelectAll
	case key.Matches(msg, m.keys.ClearAll):
		op = selection.OpClearAll
	default:
		return m.handleNavKeys(msg)
	}

	if m.focus == panelFacetValues {
		m.state.FacetEvent(op)
		return m, nil
	}
	if m.state.SavedEvent(op) {
		m.syncInputs()
	}
	return m, nil
}

// submit validates the inputs and starts a search.
func (m Model) submit() (tea.Model, tea.Cmd) {
	req, err := m.state.Submit(m.queryInput.Value(), m.facetInput.Value())
	if err != nil {
		return m, nil
	}
	if m.coord.Dispatch(req) {
		m.dotFrame = 0
	}
	return m, nil
}

// export writes the chart on screen to the export path in the background.
func (m Model) export() (tea.Model, tea.Cmd) {
	table, err := m.state.Export(m.showingFacets())
	path := m.exportPath
	return m, func() (msg tea.Msg) {
		defer func() {
			if r := recover(); r != nil {
				msg = exportResultMsg{path: path, err: errors.New("export panic")}
			}
		}()
		if err != nil {
			return exportResultMsg{path: path, err: err}
		}
		return exportResultMsg{path: path, err: trends.SaveCSV(path, table)}
	}
}
