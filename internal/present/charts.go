package present

import (
	"fmt"
	"strings"

	"github.com/TobiSchelling/storedash/internal/dataset"
	"github.com/TobiSchelling/storedash/internal/query"
)

// Series is an ordered category/value sequence for bar, pie and line charts.
type Series struct {
	Name string    `json:"name"`
	X    []string  `json:"x"`
	Y    []float64 `json:"y"`
}

// Len returns the number of points.
func (s Series) Len() int {
	return len(s.X)
}

// SeriesOf reads one grouping column and one measure from a result, in the
// result's row order.
func SeriesOf(res *query.Result, dim, measure string) (Series, error) {
	di, mi := res.DimIndex(dim), res.MeasureIndex(measure)
	if di < 0 {
		return Series{}, fmt.Errorf("series: result is not grouped by %q", dim)
	}
	if mi < 0 {
		return Series{}, fmt.Errorf("series: unknown measure %q", measure)
	}
	s := Series{Name: res.Measures[mi]}
	for _, r := range res.Rows {
		s.X = append(s.X, r.Key[di].String())
		s.Y = append(s.Y, r.Values[mi])
	}
	return s, nil
}

// TimeView selects the calendar grouping of the revenue time series.
type TimeView string

const (
	ByDayOfWeek  TimeView = "day_of_week"
	ByMonthName  TimeView = "month"
	ByOrderMonth TimeView = "order_month"
)

// TimeViews lists the views in display order.
var TimeViews = []TimeView{ByDayOfWeek, ByMonthName, ByOrderMonth}

// ParseTimeView maps a view name to a TimeView. Empty selects day of week.
func ParseTimeView(s string) (TimeView, error) {
	switch TimeView(strings.TrimSpace(s)) {
	case "", ByDayOfWeek:
		return ByDayOfWeek, nil
	case ByMonthName:
		return ByMonthName, nil
	case ByOrderMonth:
		return ByOrderMonth, nil
	}
	return "", fmt.Errorf("unknown time view %q", s)
}

// Column returns the dataset column the view groups by.
func (v TimeView) Column() string {
	switch v {
	case ByMonthName:
		return dataset.ColMonthName
	case ByOrderMonth:
		return dataset.ColOrderMonth
	default:
		return dataset.ColDayOfWeek
	}
}

// Title is the chart title for the view.
func (v TimeView) Title() string {
	switch v {
	case ByMonthName:
		return "Revenue by Month"
	case ByOrderMonth:
		return "Revenue by Month-Year"
	default:
		return "Revenue by Day of Week (0=Monday, 6=Sunday)"
	}
}

// TimeSeries sums revenue per calendar bucket of the view.
func TimeSeries(ds *dataset.Dataset, view TimeView) (Series, error) {
	res, err := query.Aggregate(ds, []string{view.Column()}, query.Sum(dataset.ColRevenue))
	if err != nil {
		return Series{}, err
	}
	return SeriesOf(res, view.Column(), dataset.ColRevenue)
}

// Distribution is the raw values of one group, the input of a density plot.
type Distribution struct {
	Group  string    `json:"group"`
	Values []float64 `json:"values"`
}

// Distributions splits a numeric column by the values of a grouping
// column. Groups keep their order of first appearance.
func Distributions(ds *dataset.Dataset, valueCol, groupCol string) ([]Distribution, error) {
	readValue, err := ds.Accessor(valueCol)
	if err != nil {
		return nil, err
	}
	readGroup, err := ds.Accessor(groupCol)
	if err != nil {
		return nil, err
	}

	var out []Distribution
	pos := map[string]int{}
	for i := range ds.Orders {
		o := &ds.Orders[i]
		f, ok := readValue(o).Float()
		if !ok {
			return nil, fmt.Errorf("distribution: column %q is not numeric", valueCol)
		}
		g := readGroup(o).String()
		j, seen := pos[g]
		if !seen {
			j = len(out)
			pos[g] = j
			out = append(out, Distribution{Group: g})
		}
		out[j].Values = append(out[j].Values, f)
	}
	return out, nil
}

// HierarchySep joins the labels of a node's path into its ID.
const HierarchySep = "\x1f"

// HierarchyNode is one ring segment of a sunburst chart.
type HierarchyNode struct {
	ID     string  `json:"id"`
	Label  string  `json:"label"`
	Parent string  `json:"parent"`
	Value  float64 `json:"value"`
}

// Hierarchy totals measure along the nested levels (e.g. Category then
// Sub-Category). Parent values are the sum of their children.
func Hierarchy(ds *dataset.Dataset, levels []string, measure string) ([]HierarchyNode, error) {
	res, err := query.Aggregate(ds, levels, query.Sum(measure))
	if err != nil {
		return nil, err
	}

	var nodes []HierarchyNode
	pos := map[string]int{}
	for _, r := range res.Rows {
		parent := ""
		for d := range r.Key {
			label := r.Key[d].String()
			id := label
			if parent != "" {
				id = parent + HierarchySep + label
			}
			j, ok := pos[id]
			if !ok {
				j = len(nodes)
				pos[id] = j
				nodes = append(nodes, HierarchyNode{ID: id, Label: label, Parent: parent})
			}
			nodes[j].Value += r.Values[0]
			parent = id
		}
	}
	return nodes, nil
}

// Point is one scatter plot marker.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Scatter pairs two numeric columns row by row.
func Scatter(ds *dataset.Dataset, xCol, yCol string) ([]Point, error) {
	readX, err := ds.Accessor(xCol)
	if err != nil {
		return nil, err
	}
	readY, err := ds.Accessor(yCol)
	if err != nil {
		return nil, err
	}
	out := make([]Point, 0, len(ds.Orders))
	for i := range ds.Orders {
		x, okX := readX(&ds.Orders[i]).Float()
		y, okY := readY(&ds.Orders[i]).Float()
		if !okX || !okY {
			return nil, fmt.Errorf("scatter: %q and %q must be numeric", xCol, yCol)
		}
		out = append(out, Point{X: x, Y: y})
	}
	return out, nil
}
