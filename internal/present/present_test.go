package present

import (
	"reflect"
	"testing"

	"github.com/TobiSchelling/storedash/internal/dataset"
	"github.com/TobiSchelling/storedash/internal/query"
	"github.com/TobiSchelling/storedash/internal/table"
)

// fixture rows: order date, segment, ship mode, state, category, sub-category, sales, quantity, discount
func fixture(t *testing.T, rows ...[9]string) *dataset.Dataset {
	t.Helper()
	raw := table.New(dataset.RequiredColumns...)
	for i, r := range rows {
		id := "P-" + string(rune('A'+i))
		if err := raw.Append(id, r[0], r[0], r[2], r[1], "East", r[3], r[4], r[5], r[6], r[7], r[8]); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	ds, err := dataset.Enrich(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return ds
}

func products(t *testing.T) *dataset.Dataset {
	return fixture(t,
		[9]string{"2017-03-06", "Consumer", "First Class", "Ohio", "Furniture", "Chairs", "10", "1", "0"},
		[9]string{"2017-03-07", "Consumer", "First Class", "Ohio", "Furniture", "Tables", "20", "1", "0.2"},
		[9]string{"2017-01-02", "Corporate", "Same Day", "Texas", "Furniture", "Chairs", "5", "2", "0.1"},
		[9]string{"2016-01-03", "Corporate", "Same Day", "Texas", "Technology", "Phones", "7", "1", "0"},
	)
}

func TestFlowIndicesAreDisjoint(t *testing.T) {
	ds := products(t)
	res, err := query.Aggregate(ds, []string{dataset.ColCategory, dataset.ColSubCategory}, query.Count("counts"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	f, err := Flow(res, dataset.ColCategory, dataset.ColSubCategory, "counts")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	wantLabels := []string{"Furniture", "Technology", "Chairs", "Tables", "Phones"}
	if !reflect.DeepEqual(f.Labels(), wantLabels) {
		t.Errorf("expected labels %v, got %v", wantLabels, f.Labels())
	}
	wantLinks := []FlowLink{
		{Source: 0, Target: 2, Value: 2},
		{Source: 0, Target: 3, Value: 1},
		{Source: 1, Target: 4, Value: 1},
	}
	if !reflect.DeepEqual(f.Links, wantLinks) {
		t.Errorf("expected links %v, got %v", wantLinks, f.Links)
	}
}

func TestFlowLabelInBothLevels(t *testing.T) {
	ds := fixture(t,
		[9]string{"2017-01-02", "Consumer", "First Class", "Ohio", "Paper", "Paper", "1", "1", "0"},
		[9]string{"2017-01-02", "Consumer", "First Class", "Ohio", "Binders", "Paper", "1", "1", "0"},
	)
	res, _ := query.Aggregate(ds, []string{dataset.ColCategory, dataset.ColSubCategory}, query.Count("counts"))

	f, err := Flow(res, dataset.ColCategory, dataset.ColSubCategory, "counts")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Binders=0, Paper=1 at level 0; Paper=2 at level 1.
	if len(f.Nodes) != 3 {
		t.Fatalf("expected 3 nodes, got %d", len(f.Nodes))
	}
	for _, l := range f.Links {
		if l.Target != 2 {
			t.Errorf("expected every link to end at the second-level Paper node, got %+v", l)
		}
		if l.Source == l.Target {
			t.Errorf("self loop %+v", l)
		}
	}
}

func TestFlowRequiresDims(t *testing.T) {
	res, _ := query.Aggregate(products(t), []string{dataset.ColCategory}, query.Count("counts"))
	if _, err := Flow(res, dataset.ColCategory, dataset.ColSubCategory, "counts"); err == nil {
		t.Error("expected error when the result lacks a dimension")
	}
}

func TestTopNHints(t *testing.T) {
	ds := products(t)
	res, _ := query.Aggregate(ds, []string{dataset.ColState}, query.Sum(dataset.ColRevenue))

	top, err := TopN(res, dataset.ColRevenue, 1, 25)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(top.Rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(top.Rows))
	}
	if top.Rows[0].Key[0] != "Ohio" || top.Rows[0].Hint != Hot {
		t.Errorf("expected hot Ohio, got %+v", top.Rows[0])
	}

	all, err := Highlight(res, dataset.ColRevenue, 25)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Texas revenue is 17: not above the threshold.
	if all.Rows[1].Key[0] != "Texas" || all.Rows[1].Hint != Cold {
		t.Errorf("expected cold Texas, got %+v", all.Rows[1])
	}
	if got := all.Rows[0].Cells(); !reflect.DeepEqual(got, []string{"Ohio", "30"}) {
		t.Errorf("unexpected cells %v", got)
	}

	if _, err := TopN(res, "Profit", 3, 0); err == nil {
		t.Error("expected error for unknown measure")
	}
}

func TestHintIsStrictlyAboveThreshold(t *testing.T) {
	res, _ := query.Aggregate(products(t), []string{dataset.ColState}, query.Sum(dataset.ColRevenue))
	tbl, _ := Highlight(res, dataset.ColRevenue, 30)
	if tbl.Rows[0].Hint != Cold {
		t.Errorf("expected a value equal to the threshold to be cold")
	}
}

func TestTimeSeriesViews(t *testing.T) {
	ds := products(t)

	months, err := TimeSeries(ds, ByMonthName)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(months.X, []string{"January", "March"}) {
		t.Errorf("expected [January March], got %v", months.X)
	}
	if !reflect.DeepEqual(months.Y, []float64{17, 30}) {
		t.Errorf("expected [17 30], got %v", months.Y)
	}

	monthly, _ := TimeSeries(ds, ByOrderMonth)
	if !reflect.DeepEqual(monthly.X, []string{"2016-01-01", "2017-01-01", "2017-03-01"}) {
		t.Errorf("unexpected month-year buckets %v", monthly.X)
	}

	// 2017-03-06 Monday, 2017-03-07 Tuesday, 2017-01-02 Monday, 2016-01-03 Sunday.
	days, _ := TimeSeries(ds, ByDayOfWeek)
	if !reflect.DeepEqual(days.X, []string{"0", "1", "6"}) {
		t.Errorf("unexpected weekdays %v", days.X)
	}
	if !reflect.DeepEqual(days.Y, []float64{20, 20, 7}) {
		t.Errorf("unexpected weekday revenue %v", days.Y)
	}
}

func TestParseTimeView(t *testing.T) {
	for _, v := range TimeViews {
		got, err := ParseTimeView(string(v))
		if err != nil || got != v {
			t.Errorf("%s: got %v, %v", v, got, err)
		}
	}
	if v, _ := ParseTimeView(""); v != ByDayOfWeek {
		t.Errorf("expected default day_of_week, got %s", v)
	}
	if _, err := ParseTimeView("fortnight"); err == nil {
		t.Error("expected error for unknown view")
	}
}

func TestDistributions(t *testing.T) {
	got, err := Distributions(products(t), dataset.ColDiscount, dataset.ColSegment)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []Distribution{
		{Group: "Consumer", Values: []float64{0, 0.2}},
		{Group: "Corporate", Values: []float64{0.1, 0}},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}

	if _, err := Distributions(products(t), dataset.ColState, dataset.ColSegment); err == nil {
		t.Error("expected error for a text value column")
	}
}

func TestHierarchySumsChildren(t *testing.T) {
	nodes, err := Hierarchy(products(t), []string{dataset.ColCategory, dataset.ColSubCategory}, dataset.ColRevenue)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	byID := map[string]HierarchyNode{}
	for _, n := range nodes {
		byID[n.ID] = n
	}
	if byID["Furniture"].Value != 40 {
		t.Errorf("expected Furniture 40, got %v", byID["Furniture"].Value)
	}
	if n := byID["Furniture"+HierarchySep+"Chairs"]; n.Value != 20 || n.Parent != "Furniture" || n.Label != "Chairs" {
		t.Errorf("unexpected chairs node %+v", n)
	}
	if byID["Technology"].Parent != "" {
		t.Error("expected top-level node without parent")
	}
}

func TestHierarchyKeepsSlashedLabelsApart(t *testing.T) {
	ds := fixture(t,
		[9]string{"2017-03-06", "Consumer", "First Class", "Ohio", "A", "B/C", "10", "1", "0"},
		[9]string{"2017-03-07", "Consumer", "First Class", "Ohio", "A/B", "C", "20", "1", "0"},
	)
	nodes, err := Hierarchy(ds, []string{dataset.ColCategory, dataset.ColSubCategory}, dataset.ColRevenue)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(nodes) != 4 {
		t.Fatalf("expected 4 nodes, got %d: %+v", len(nodes), nodes)
	}
	seen := map[string]bool{}
	for _, n := range nodes {
		if seen[n.ID] {
			t.Errorf("duplicate node id %q", n.ID)
		}
		seen[n.ID] = true
	}
}

func TestScatter(t *testing.T) {
	pts, err := Scatter(products(t), dataset.ColSales, dataset.ColRevenue)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pts) != 4 || pts[2] != (Point{X: 5, Y: 10}) {
		t.Errorf("unexpected points %v", pts)
	}
}
