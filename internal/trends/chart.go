// Package trends turns Shodan Trends search responses into chart data and
// keeps the small set of charts the dashboard can compare.
package trends

import (
	"cmp"
	"slices"
)

// Point is one monthly sample: X is the zero-based month ordinal.
type Point struct {
	X float64
	Y float64
}

// Points is one named series.
type Points struct {
	Label string
	// Total is the API grand total for a primary series and the sum of
	// monthly counts for a facet series.
	Total int64
	Data  []Point
}

// Values returns the Y values in month order.
func (p Points) Values() []float64 {
	out := make([]float64, len(p.Data))
	for i, pt := range p.Data {
		out[i] = pt.Y
	}
	return out
}

// Chart is an axis-scaled set of series sharing one month axis. For a query
// with a facet, the outer chart holds the unfiltered series and Facets holds
// one series per facet value.
type Chart struct {
	Datasets []Points
	XBounds  [2]float64
	YBounds  [2]float64
	XTicks   [3]string
	YTicks   [3]string
	XLabels  []string
	Facets   *Chart
}

// HasFacets reports whether a facet breakdown with at least one series is
// attached.
func (c *Chart) HasFacets() bool {
	return c != nil && c.Facets != nil && len(c.Facets.Datasets) > 0
}

// Select returns the datasets at the given indices, in the order given.
// Out-of-range indices are skipped.
func (c *Chart) Select(indices []int) []Points {
	out := make([]Points, 0, len(indices))
	for _, i := range indices {
		if i >= 0 && i < len(c.Datasets) {
			out = append(out, c.Datasets[i])
		}
	}
	return out
}

// BuildChart decodes a raw search response into a Chart labeled with id.
// A zero total yields ErrNoResults; a malformed body yields *ParseError.
func BuildChart(body []byte, id Identity) (*Chart, error) {
	resp, err := ParseResponse(body, id.FacetName())
	if err != nil {
		return nil, err
	}
	return resp.Chart(id)
}

// Chart builds the chart for a parsed response.
func (r *Response) Chart(id Identity) (*Chart, error) {
	if r.Total == 0 {
		return nil, ErrNoResults
	}
	if len(r.Matches) == 0 {
		return nil, parseErrorf("no monthly matches for a non-zero total")
	}

	labels := make([]string, len(r.Matches))
	primary := Points{Label: id.String(), Total: r.Total, Data: make([]Point, len(r.Matches))}
	for i, m := range r.Matches {
		labels[i] = m.Label
		primary.Data[i] = Point{X: float64(i), Y: float64(m.Count)}
	}
	chart := newChart([]Points{primary}, labels)

	if len(r.Buckets) > 0 {
		chart.Facets = buildFacetChart(r.Buckets)
	}
	return chart, nil
}

func buildFacetChart(buckets []FacetBucket) *Chart {
	labels := make([]string, len(buckets))
	perMonth := make([]map[string]int64, len(buckets))
	totals := make(map[string]int64)
	var order []string

	for i, b := range buckets {
		labels[i] = b.Label
		perMonth[i] = make(map[string]int64, len(b.Values))
		for _, v := range b.Values {
			if _, seen := totals[v.Value]; !seen {
				order = append(order, v.Value)
			}
			totals[v.Value] += v.Count
			perMonth[i][v.Value] += v.Count
		}
	}

	datasets := make([]Points, len(order))
	for j, value := range order {
		data := make([]Point, len(buckets))
		for i := range buckets {
			data[i] = Point{X: float64(i), Y: float64(perMonth[i][value])}
		}
		datasets[j] = Points{Label: value, Total: totals[value], Data: data}
	}
	slices.SortStableFunc(datasets, func(a, b Points) int {
		return cmp.Compare(b.Total, a.Total)
	})
	return newChart(datasets, labels)
}

// newChart computes bounds and ticks for datasets over labels. labels must
// be non-empty.
func newChart(datasets []Points, labels []string) *Chart {
	c := &Chart{
		Datasets: datasets,
		XBounds:  [2]float64{0, float64(len(labels) - 1)},
		XTicks:   LabelTicks(labels),
		XLabels:  labels,
	}
	c.YBounds, c.YTicks = ScaleY(datasets)
	return c
}

// LabelTicks samples the first, middle and last label. Series of one or two
// months repeat labels.
func LabelTicks(labels []string) [3]string {
	n := len(labels)
	if n == 0 {
		return [3]string{}
	}
	return [3]string{labels[0], labels[n/2], labels[n-1]}
}

// ScaleY returns the Y bounds [0, max] over datasets and the matching
// "0", max/2, max tick labels.
func ScaleY(datasets []Points) ([2]float64, [3]string) {
	var maxY float64
	for _, ds := range datasets {
		for _, p := range ds.Data {
			maxY = max(maxY, p.Y)
		}
	}
	return [2]float64{0, maxY}, [3]string{
		"0",
		HumanCount(int64(maxY / 2)),
		HumanCount(int64(maxY)),
	}
}
