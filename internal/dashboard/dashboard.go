package dashboard

import (
	"errors"
	"fmt"
	"strings"

	"github.com/TobiSchelling/storedash/internal/dataset"
	"github.com/TobiSchelling/storedash/internal/present"
	"github.com/TobiSchelling/storedash/internal/query"
	"github.com/TobiSchelling/storedash/internal/table"
)

// Options are the configured knobs of the dashboard.
type Options struct {
	TopN         int
	HotThreshold float64
}

// Params are the user's choices for one interaction.
type Params struct {
	// Selection restricts the segment, ship mode and distribution sections.
	Selection query.Selection
	// Range restricts the time series. Nil spans every order.
	Range           *query.DateRange
	TimeView        present.TimeView
	ShowSubCategory bool
	ShowStates      bool
	OrderID         string
}

// Level is the severity of a notice.
type Level string

const (
	Info    Level = "info"
	Warning Level = "warning"
)

// Notice is a recoverable condition shown in place of missing data.
type Notice struct {
	Level   Level  `json:"level"`
	Section string `json:"section"`
	Message string `json:"message"`
}

// Lookup is the order tracker result.
type Lookup struct {
	OrderID string      `json:"order_id"`
	Found   bool        `json:"found"`
	Table   table.Table `json:"table"`
}

// View is every section of the dashboard for one interaction.
type View struct {
	Orders   int             `json:"orders"`
	Selected int             `json:"selected"`
	Span     query.DateRange `json:"span"`

	Segments  []string `json:"segments"`
	ShipModes []string `json:"ship_modes"`

	SegmentCounts      present.Series         `json:"segment_counts"`
	ShipModeCounts     present.Series         `json:"ship_mode_counts"`
	DiscountBySegment  []present.Distribution `json:"discount_by_segment"`
	QuantityByShipMode []present.Distribution `json:"quantity_by_ship_mode"`
	SalesVsRevenue     []present.Point        `json:"sales_vs_revenue"`

	Products      []present.HierarchyNode `json:"products"`
	ProductFlow   present.FlowDiagram     `json:"product_flow"`
	ProductCounts present.Series          `json:"product_counts"`

	GeoCounts present.Series      `json:"geo_counts"`
	TopStates present.RankedTable `json:"top_states"`
	AllStates present.RankedTable `json:"all_states"`

	TimeView   present.TimeView `json:"time_view"`
	TimeTitle  string           `json:"time_title"`
	TimeSeries present.Series   `json:"time_series"`

	Lookup  *Lookup  `json:"lookup,omitempty"`
	Notices []Notice `json:"notices"`
}

func (v *View) notice(level Level, section, msg string) {
	v.Notices = append(v.Notices, Notice{Level: level, Section: section, Message: msg})
}

// section is one step of a dashboard build. A returned error aborts the
// build; recoverable conditions are recorded as notices.
type section struct {
	name string
	run  func(v *View) error
}

// Build computes every section of the dashboard from the enriched dataset.
// Empty selections and unknown order ids degrade to notices; an error is
// returned only when a section cannot be computed at all.
func Build(ds *dataset.Dataset, p Params, opts Options) (*View, error) {
	if opts.TopN <= 0 {
		opts.TopN = 10
	}
	v := &View{
		Orders:    ds.Len(),
		Segments:  query.Distinct(ds, dataset.ColSegment),
		ShipModes: query.Distinct(ds, dataset.ColShipMode),
		TimeView:  p.TimeView,
	}
	if v.TimeView == "" {
		v.TimeView = present.ByDayOfWeek
	}
	v.TimeTitle = v.TimeView.Title()
	if span, ok := query.DateSpan(ds); ok {
		v.Span = span
	}

	selected, err := query.Filter(ds, p.Selection)
	if err != nil {
		return nil, fmt.Errorf("filter: %w", err)
	}
	v.Selected = selected.Len()
	if errors.Is(query.CheckNonEmpty(selected), query.ErrEmptyResult) {
		v.notice(Info, "customers", "No orders match the selected segments and ship modes.")
	}

	sections := []section{
		{"customers", func(v *View) error { return customerSections(v, selected) }},
		{"products", func(v *View) error { return productSections(v, ds, p.ShowSubCategory) }},
		{"states", func(v *View) error { return stateSections(v, ds, p.ShowStates, opts) }},
		{"time series", func(v *View) error { return timeSection(v, ds, p.Range) }},
		{"order tracker", func(v *View) error { return lookupSection(v, ds, p.OrderID) }},
	}
	for _, s := range sections {
		if err := s.run(v); err != nil {
			return nil, fmt.Errorf("%s: %w", s.name, err)
		}
	}
	return v, nil
}

func customerSections(v *View, selected *dataset.Dataset) error {
	var err error
	if v.SegmentCounts, err = counts(selected, dataset.ColSegment); err != nil {
		return err
	}
	if v.ShipModeCounts, err = counts(selected, dataset.ColShipMode); err != nil {
		return err
	}
	if v.DiscountBySegment, err = present.Distributions(selected, dataset.ColDiscount, dataset.ColSegment); err != nil {
		return err
	}
	if v.QuantityByShipMode, err = present.Distributions(selected, dataset.ColQuantity, dataset.ColShipMode); err != nil {
		return err
	}
	return nil
}

func productSections(v *View, ds *dataset.Dataset, showSubCategory bool) error {
	var err error
	if v.SalesVsRevenue, err = present.Scatter(ds, dataset.ColSales, dataset.ColRevenue); err != nil {
		return err
	}
	levels := []string{dataset.ColCategory, dataset.ColSubCategory}
	if v.Products, err = present.Hierarchy(ds, levels, dataset.ColRevenue); err != nil {
		return err
	}
	pairs, err := query.Aggregate(ds, levels, query.Count("counts"))
	if err != nil {
		return err
	}
	if v.ProductFlow, err = present.Flow(pairs, dataset.ColCategory, dataset.ColSubCategory, "counts"); err != nil {
		return err
	}
	col := dataset.ColCategory
	if showSubCategory {
		col = dataset.ColSubCategory
	}
	v.ProductCounts, err = counts(ds, col)
	return err
}

func stateSections(v *View, ds *dataset.Dataset, showStates bool, opts Options) error {
	var err error
	if showStates {
		// Alphabetical by state, like a map legend.
		res, err := query.Aggregate(ds, []string{dataset.ColState}, query.Count("Count"))
		if err != nil {
			return err
		}
		if v.GeoCounts, err = present.SeriesOf(res, dataset.ColState, "Count"); err != nil {
			return err
		}
	} else if v.GeoCounts, err = counts(ds, dataset.ColRegion); err != nil {
		return err
	}

	res, err := stateRevenue(ds)
	if err != nil {
		return err
	}
	if v.TopStates, err = present.TopN(res, dataset.ColRevenue, opts.TopN, opts.HotThreshold); err != nil {
		return err
	}
	v.AllStates, err = present.Highlight(res, dataset.ColRevenue, opts.HotThreshold)
	return err
}

func timeSection(v *View, ds *dataset.Dataset, r *query.DateRange) error {
	in := ds
	if r != nil {
		filtered, err := query.Filter(ds, query.Selection{Range: r})
		if err != nil {
			return err
		}
		if filtered.Len() == 0 {
			v.notice(Info, "time series", fmt.Sprintf("No orders between %s and %s.",
				r.Start.Format(dataset.DateLayout), r.End.Format(dataset.DateLayout)))
		}
		in = filtered
	}
	series, err := present.TimeSeries(in, v.TimeView)
	if err != nil {
		return err
	}
	v.TimeSeries = series
	return nil
}

func lookupSection(v *View, ds *dataset.Dataset, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil
	}
	t, err := OrderTable(ds, id)
	switch {
	case errors.Is(err, query.ErrOrderNotFound):
		v.Lookup = &Lookup{OrderID: id, Table: t}
		v.notice(Warning, "order tracker", "Order ID not found in the database!")
		return nil
	case err != nil:
		return err
	}
	v.Lookup = &Lookup{OrderID: id, Found: true, Table: t}
	return nil
}

func counts(ds *dataset.Dataset, column string) (present.Series, error) {
	res, err := query.ValueCounts(ds, column)
	if err != nil {
		return present.Series{}, err
	}
	return present.SeriesOf(res, column, "Count")
}

// stateRevenue sums revenue and quantity per state and region.
func stateRevenue(ds *dataset.Dataset) (*query.Result, error) {
	return query.Aggregate(ds,
		[]string{dataset.ColState, dataset.ColRegion},
		query.Sum(dataset.ColRevenue), query.Sum(dataset.ColQuantity))
}

// StatesTable is the per-state revenue table offered for download.
func StatesTable(ds *dataset.Dataset) (table.Table, error) {
	res, err := stateRevenue(ds)
	if err != nil {
		return table.Table{}, err
	}
	return res.Project(dataset.ColState, dataset.ColRegion, dataset.ColQuantity, dataset.ColRevenue)
}

// OrderTable renders every row of the given order id with all columns. An
// unknown id yields a header-only table and query.ErrOrderNotFound.
func OrderTable(ds *dataset.Dataset, id string) (table.Table, error) {
	matched, findErr := query.FindByOrderID(ds, id)
	t, err := matched.Table()
	if err != nil {
		return table.Table{}, err
	}
	return t, findErr
}
