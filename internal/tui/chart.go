package tui

import (
	"strings"

	plot "github.com/chriskim06/drawille-go"
	"github.com/charmbracelet/lipgloss"
	"github.com/wesm/strend/internal/dashboard"
)

// seriesColors picks the highlight and dim line colors for the terminal
// background.
func seriesColors() (highlight, dim plot.Color) {
	if lipgloss.HasDarkBackground() {
		return plot.Red, plot.DimGray
	}
	return plot.Black, plot.LightGray
}

// plotSeries orders the view's series for drawing. A zero baseline comes
// first so the canvas always starts at zero, and the highlighted series
// comes last so it is drawn on top. Single-month series are widened to two
// points because a line needs two ends.
func plotSeries(v dashboard.View, highlight, dim plot.Color) ([][]float64, []plot.Color) {
	n := len(v.Chart.XLabels)
	points := max(n, 2)

	widen := func(vals []float64) []float64 {
		out := make([]float64, points)
		copy(out, vals)
		for i := len(vals); i < points && len(vals) > 0; i++ {
			out[i] = vals[len(vals)-1]
		}
		return out
	}

	data := [][]float64{make([]float64, points)}
	colors := []plot.Color{dim}
	var top []float64
	for i, ds := range v.Chart.Datasets {
		if i == v.Highlight {
			top = widen(ds.Values())
			continue
		}
		data = append(data, widen(ds.Values()))
		colors = append(colors, dim)
	}
	if top != nil {
		data = append(data, top)
		colors = append(colors, highlight)
	}
	return data, colors
}

// renderChart draws v in a width x height block: y tick labels on the
// left, the braille plot, and x tick labels underneath.
func renderChart(v dashboard.View, width, height int) string {
	if v.Chart == nil || len(v.Chart.Datasets) == 0 {
		return placeholder("Nothing selected", width, height)
	}

	c := v.Chart
	labelW := 0
	for _, t := range c.YTicks {
		labelW = max(labelW, lipgloss.Width(t))
	}
	plotW := width - labelW - 1
	plotH := height - 1
	if plotW < 4 || plotH < 2 {
		return placeholder("", width, height)
	}

	var rows []string
	if c.YBounds[1] > 0 {
		highlight, dim := seriesColors()
		data, colors := plotSeries(v, highlight, dim)
		p := plot.NewCanvas(plotW, plotH)
		p.NumDataPoints = len(data[0])
		p.ShowAxis = false
		p.LineColors = colors
		p.Fill(data)
		if s := p.String(); s != "" {
			rows = strings.Split(strings.TrimRight(s, "\n"), "\n")
		}
	}
	if len(rows) == 0 {
		// All-zero data: a flat line along the bottom.
		rows = make([]string, plotH)
		rows[plotH-1] = strings.Repeat("⣀", plotW)
	}

	var sb strings.Builder
	for i, row := range rows {
		var label string
		switch i {
		case 0:
			label = c.YTicks[2]
		case len(rows) / 2:
			label = c.YTicks[1]
		case len(rows) - 1:
			label = c.YTicks[0]
		}
		sb.WriteString(axisStyle.Render(padLeft(label, labelW)))
		sb.WriteString(" ")
		sb.WriteString(padRight(row, plotW))
		sb.WriteString("\n")
	}

	third := plotW / 3
	xAxis := padRight(c.XTicks[0], third) +
		center(c.XTicks[1], plotW-2*third) +
		padLeft(c.XTicks[2], third)
	sb.WriteString(strings.Repeat(" ", labelW+1))
	sb.WriteString(axisStyle.Render(xAxis))
	return sb.String()
}

// placeholder fills a width x height block with msg centered.
func placeholder(msg string, width, height int) string {
	if height < 1 {
		return ""
	}
	lines := make([]string, height)
	for i := range lines {
		lines[i] = strings.Repeat(" ", max(width, 0))
	}
	lines[height/2] = center(msg, max(width, 0))
	return strings.Join(lines, "\n")
}
