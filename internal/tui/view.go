package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/wesm/strend/internal/dashboard"
	"github.com/wesm/strend/internal/selection"
	"github.com/wesm/strend/internal/trends"
)

// Monochrome theme - adaptive for light and dark terminals
var (
	bgBase   = lipgloss.AdaptiveColor{Light: "#ffffff", Dark: "#000000"}
	bgCursor = lipgloss.AdaptiveColor{Light: "#e0e0e0", Dark: "#282828"}

	borderColor  = lipgloss.AdaptiveColor{Light: "#bbbbbb", Dark: "#444444"}
	focusedColor = lipgloss.AdaptiveColor{Light: "#996600", Dark: "#ffcc00"}

	titleBarStyle = lipgloss.NewStyle().
			Bold(true).
			Background(lipgloss.AdaptiveColor{Light: "#e0e0e0", Dark: "#333333"}).
			Foreground(lipgloss.AdaptiveColor{Light: "#000000", Dark: "#ffffff"}).
			Padding(0, 1)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(borderColor)

	focusedPanelStyle = panelStyle.
				BorderForeground(focusedColor)

	panelTitleStyle = lipgloss.NewStyle().
			Bold(true)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#555555", Dark: "#999999"})

	axisStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#555555", Dark: "#999999"})

	// Cursor row: subtle lighter background
	cursorRowStyle = lipgloss.NewStyle().
			Background(bgCursor)

	// Selected (checked) rows: bold
	selectedRowStyle = lipgloss.NewStyle().
				Bold(true)

	footerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#555555", Dark: "#999999"}).
			Background(bgBase).
			Padding(0, 1)

	errorStyle = lipgloss.NewStyle().
			Bold(true)

	loadingStyle = lipgloss.NewStyle().
			Italic(true)

	flashStyle = lipgloss.NewStyle().
			Italic(true).
			Foreground(lipgloss.AdaptiveColor{Light: "#996600", Dark: "#ffcc00"})
)

const (
	searchBoxHeight = 3
	minSidebarWidth = 24
	maxSidebarWidth = 44
)

// View renders the dashboard.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	title := titleBarStyle.Width(m.width).Render("strend · Shodan Trends")
	search := m.searchView()
	footer := m.footerView()

	mainH := m.height - lipgloss.Height(title) - lipgloss.Height(search) - lipgloss.Height(footer)
	main := m.mainView(m.width, max(mainH, 3))

	return lipgloss.JoinVertical(lipgloss.Left, title, search, main, footer)
}

// box draws a bordered panel with outer size w x h.
func box(title, body string, w, h int, focused bool) string {
	style := panelStyle
	if focused {
		style = focusedPanelStyle
	}
	innerW := max(w-2, 1)
	innerH := max(h-2, 1)
	if title != "" {
		body = panelTitleStyle.Render(truncateRunes(title, innerW)) + "\n" + body
	}
	lines := strings.Split(body, "\n")
	if len(lines) > innerH {
		lines = lines[:innerH]
	}
	for i, l := range lines {
		lines[i] = padRight(l, innerW)
	}
	return style.Width(innerW).Height(innerH).Render(strings.Join(lines, "\n"))
}

func (m Model) searchView() string {
	half := m.width / 2
	query := labelStyle.Render("Query  ") + m.queryInput.View()
	facets := labelStyle.Render("Facets ") + m.facetInput.View()
	return lipgloss.JoinHorizontal(lipgloss.Top,
		box("", query, half, searchBoxHeight, m.focus == panelQuery),
		box("", facets, m.width-half, searchBoxHeight, m.focus == panelFacets),
	)
}

func (m Model) mainView(w, h int) string {
	if m.state.Store().Len() == 0 {
		return m.statusPane(w, h)
	}

	sideW := min(max(w/3, minSidebarWidth), maxSidebarWidth)
	sidebar := m.sidebarView(sideW, h)
	return lipgloss.JoinHorizontal(lipgloss.Top, sidebar, m.statusPane(w-sideW, h))
}

// statusPane renders the right-hand area: a loading, welcome, error or
// no-results message, or the chart.
func (m Model) statusPane(w, h int) string {
	var msg string
	switch {
	case m.coord.Busy():
		msg = loadingStyle.Render("Searching" + dots(m.dotFrame))
	default:
		switch m.state.Phase() {
		case dashboard.PhaseWelcome:
			msg = welcomeText
		case dashboard.PhaseError:
			msg = errorStyle.Render(m.state.Err())
		case dashboard.PhaseNoResults:
			msg = "No results found"
		default:
			return m.chartView(w, h)
		}
	}

	innerW := max(w-2, 1)
	var lines []string
	for _, l := range strings.Split(msg, "\n") {
		lines = append(lines, center(l, innerW))
	}
	pad := max((h-2-len(lines))/2, 0)
	body := strings.Repeat("\n", pad) + strings.Join(lines, "\n")
	return box("", body, w, h, false)
}

const welcomeText = `Welcome to strend

Type a search query, optionally add facets,
and press enter to see how results change over time.

tab moves between panels · ctrl+c quits`

func (m Model) sidebarView(w, h int) string {
	facetChart := m.state.FacetChart()
	if facetChart == nil {
		return m.savedListView(w, h)
	}
	savedH := min(m.state.Store().Len()+3, h/2)
	return lipgloss.JoinVertical(lipgloss.Left,
		m.savedListView(w, savedH),
		m.facetListView(facetChart, w, h-savedH),
	)
}

func (m Model) savedListView(w, h int) string {
	ids := m.state.Store().Identities()
	items := make([]listItem, len(ids))
	for i, id := range ids {
		label := id.Query()
		if f := id.Facets(); f != "" {
			label += " (" + f + ")"
		}
		items[i] = listItem{label: label}
	}
	body := renderList(items, m.state.Saved(), w-2, h-3, m.focus == panelSavedQueries)
	return box("Saved queries", body, w, h, m.focus == panelSavedQueries)
}

func (m Model) facetListView(c *trends.Chart, w, h int) string {
	items := make([]listItem, len(c.Datasets))
	for i, ds := range c.Datasets {
		items[i] = listItem{label: ds.Label, total: formatTotal(ds.Total)}
	}
	title := "Facets"
	if name := m.state.Active().FacetName(); name != "" {
		title = "Facets: " + name
	}
	body := renderList(items, m.state.Facets(), w-2, h-3, m.focus == panelFacetValues)
	return box(title, body, w, h, m.focus == panelFacetValues)
}

type listItem struct {
	label string
	total string
}

// renderList draws a checkbox list, scrolled so the cursor stays in view.
func renderList(items []listItem, sel *selection.State, w, h int, focused bool) string {
	if h < 1 || len(items) == 0 {
		return ""
	}
	cur, hasCursor := sel.Cursor()
	offset := 0
	if hasCursor && cur >= h {
		offset = cur - h + 1
	}

	var lines []string
	for i := offset; i < len(items) && i < offset+h; i++ {
		it := items[i]
		prefix := "  "
		if hasCursor && i == cur {
			prefix = "> "
		}
		if sel.IsSelected(i) {
			prefix += "[x] "
		} else {
			prefix += "[ ] "
		}
		labelW := max(w-lipgloss.Width(prefix), 1)
		line := prefix + truncateRunes(it.label, labelW)
		if it.total != "" {
			labelW = max(labelW-lipgloss.Width(it.total)-1, 1)
			line = prefix + padRight(truncateRunes(it.label, labelW), labelW) + " " + it.total
		}
		line = padRight(line, w)

		style := lipgloss.NewStyle()
		if sel.IsSelected(i) {
			style = selectedRowStyle
		}
		if focused && hasCursor && i == cur {
			style = style.Inherit(cursorRowStyle)
		}
		lines = append(lines, style.Render(line))
	}
	return strings.Join(lines, "\n")
}

func (m Model) chartView(w, h int) string {
	facets := m.showingFacets()
	var v dashboard.View
	title := "All saved queries"
	if facets {
		v = m.state.FacetView()
		title = "Breakdown by " + m.state.Active().FacetName()
	} else {
		v = m.state.AggregateView()
	}

	if v.Highlight >= 0 && v.Chart != nil {
		ds := v.Chart.Datasets[v.Highlight]
		label := ds.Label
		if !facets {
			label = trends.Identity(label).Query()
		}
		title = fmt.Sprintf("%s · %s: %s", title, label, formatTotal(ds.Total))
	}

	innerW := max(w-2, 1)
	innerH := max(h-3, 1)
	return box(title, renderChart(v, innerW, innerH), w, h, m.focus == panelChart)
}

func (m Model) footerView() string {
	helpText := m.help.ShortHelpView(m.keys.forPanel(m.focus))
	line := helpText
	if status := m.state.Status(); status != "" {
		line = flashStyle.Render(status) + "  " + helpText
	}
	return footerStyle.Width(m.width).Render(truncateLine(line, m.width-2))
}

// truncateLine cuts a styled line to width cells.
func truncateLine(s string, width int) string {
	if lipgloss.Width(s) <= width {
		return s
	}
	return padRight(s, width)
}
