package dataset

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"github.com/TobiSchelling/storedash/internal/table"
)

// Enrich validates a raw table and derives the computed columns. Row order
// and count are preserved. The result depends only on the input.
func Enrich(raw table.Table) (*Dataset, error) {
	idx := make(map[string]int, len(RequiredColumns))
	var missing []string
	for _, c := range RequiredColumns {
		i := raw.Index(c)
		if i < 0 {
			missing = append(missing, c)
			continue
		}
		idx[c] = i
	}
	if len(missing) > 0 {
		return nil, &MissingColumnError{Columns: missing}
	}

	known := make(map[int]bool, len(idx))
	for _, i := range idx {
		known[i] = true
	}
	ds := &Dataset{}
	var extraIdx []int
	for i, c := range raw.Columns {
		if known[i] || isDerived(c) {
			continue
		}
		ds.Extra = append(ds.Extra, strings.TrimSpace(c))
		extraIdx = append(extraIdx, i)
	}

	ds.Orders = make([]Order, 0, len(raw.Rows))
	for n, cells := range raw.Rows {
		row := n + 1
		if len(cells) != len(raw.Columns) {
			return nil, fmt.Errorf("row %d: has %d cells, header has %d", row, len(cells), len(raw.Columns))
		}
		cell := func(col string) string { return strings.TrimSpace(cells[idx[col]]) }

		orderDate, err := parseDate(cell(ColOrderDate))
		if err != nil {
			return nil, &MalformedDateError{Row: row, Column: ColOrderDate, Value: cell(ColOrderDate), Err: err}
		}
		shipDate, err := parseDate(cell(ColShipDate))
		if err != nil {
			return nil, &MalformedDateError{Row: row, Column: ColShipDate, Value: cell(ColShipDate), Err: err}
		}
		sales, err := parseNumber(cell(ColSales))
		if err != nil {
			return nil, &MalformedValueError{Row: row, Column: ColSales, Value: cell(ColSales), Err: err}
		}
		quantity, err := parseCount(cell(ColQuantity))
		if err != nil {
			return nil, &MalformedValueError{Row: row, Column: ColQuantity, Value: cell(ColQuantity), Err: err}
		}
		discount, err := parseNumber(cell(ColDiscount))
		if err != nil {
			return nil, &MalformedValueError{Row: row, Column: ColDiscount, Value: cell(ColDiscount), Err: err}
		}

		o := Order{
			OrderID:     cell(ColOrderID),
			OrderDate:   orderDate,
			ShipDate:    shipDate,
			ShipMode:    cell(ColShipMode),
			Segment:     cell(ColSegment),
			Region:      cell(ColRegion),
			State:       cell(ColState),
			Category:    cell(ColCategory),
			SubCategory: cell(ColSubCategory),
			Sales:       sales,
			Quantity:    quantity,
			Discount:    discount,
		}
		if len(extraIdx) > 0 {
			o.Extra = make([]string, len(extraIdx))
			for j, i := range extraIdx {
				o.Extra[j] = cells[i]
			}
		}
		derive(&o)
		ds.Orders = append(ds.Orders, o)
	}
	return ds, nil
}

func derive(o *Order) {
	o.Revenue = o.Sales * float64(o.Quantity)
	o.OrderMonth = FirstOfMonth(o.OrderDate)
	o.ShipMonth = FirstOfMonth(o.ShipDate)
	o.DayOfWeek = Weekday(o.OrderDate)
	o.MonthName = o.OrderDate.Month().String()
	o.OrderYear = o.OrderMonth.Year()
}

// FirstOfMonth returns midnight UTC on the first day of t's month.
func FirstOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// Weekday returns the day of week with Monday=0 and Sunday=6.
func Weekday(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

// ParseDate parses a calendar date in any layout a retail export carries
// (11/8/2016, 2016-11-08, 8 Nov 2016, ...). The time of day is dropped.
func ParseDate(s string) (time.Time, error) {
	return parseDate(strings.TrimSpace(s))
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	t, err := dateparse.ParseIn(s, time.UTC)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
}

func parseNumber(s string) (float64, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("not a finite number")
	}
	return f, nil
}

func parseCount(s string) (int, error) {
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	f, err := parseNumber(s)
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) {
		return 0, fmt.Errorf("not a whole number")
	}
	return int(f), nil
}

func isDerived(column string) bool {
	for _, d := range DerivedColumns {
		if strings.EqualFold(strings.TrimSpace(column), d) {
			return true
		}
	}
	return false
}
