package dataset

import (
	"fmt"
	"strings"
	"time"

	"github.com/TobiSchelling/storedash/internal/table"
)

// Order is one enriched transaction row. It is never mutated after Enrich.
type Order struct {
	OrderID     string
	OrderDate   time.Time
	ShipDate    time.Time
	ShipMode    string
	Segment     string
	Region      string
	State       string
	Category    string
	SubCategory string
	Sales       float64
	Quantity    int
	Discount    float64

	Revenue    float64
	OrderMonth time.Time
	ShipMonth  time.Time
	DayOfWeek  int
	MonthName  string
	OrderYear  int

	// Extra holds cells of source columns outside the schema, aligned with
	// Dataset.Extra.
	Extra []string
}

// Dataset is an enriched table: the orders plus the names of any extra
// source columns carried alongside them.
type Dataset struct {
	Extra  []string
	Orders []Order
}

// Len returns the number of orders.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Orders)
}

// Subset returns a dataset with the same columns holding the given orders.
func (d *Dataset) Subset(orders []Order) *Dataset {
	return &Dataset{Extra: d.Extra, Orders: orders}
}

// Columns returns every column name: source columns, extras, then derived.
func (d *Dataset) Columns() []string {
	cols := make([]string, 0, len(RequiredColumns)+len(d.Extra)+len(DerivedColumns))
	cols = append(cols, RequiredColumns...)
	cols = append(cols, d.Extra...)
	cols = append(cols, DerivedColumns...)
	return cols
}

// Accessor is a typed reader for one column.
type Accessor func(o *Order) Value

var accessors = map[string]Accessor{
	ColOrderID:     func(o *Order) Value { return textValue(o.OrderID) },
	ColOrderDate:   func(o *Order) Value { return dateValue(o.OrderDate) },
	ColShipDate:    func(o *Order) Value { return dateValue(o.ShipDate) },
	ColShipMode:    func(o *Order) Value { return textValue(o.ShipMode) },
	ColSegment:     func(o *Order) Value { return textValue(o.Segment) },
	ColRegion:      func(o *Order) Value { return textValue(o.Region) },
	ColState:       func(o *Order) Value { return textValue(o.State) },
	ColCategory:    func(o *Order) Value { return textValue(o.Category) },
	ColSubCategory: func(o *Order) Value { return textValue(o.SubCategory) },
	ColSales:       func(o *Order) Value { return numberValue(o.Sales) },
	ColQuantity:    func(o *Order) Value { return integerValue(o.Quantity) },
	ColDiscount:    func(o *Order) Value { return numberValue(o.Discount) },
	ColRevenue:     func(o *Order) Value { return numberValue(o.Revenue) },
	ColOrderMonth:  func(o *Order) Value { return dateValue(o.OrderMonth) },
	ColShipMonth:   func(o *Order) Value { return dateValue(o.ShipMonth) },
	ColDayOfWeek:   func(o *Order) Value { return integerValue(o.DayOfWeek) },
	ColMonthName:   func(o *Order) Value { return monthValue(o.OrderDate.Month()) },
	ColOrderYear:   func(o *Order) Value { return integerValue(o.OrderYear) },
}

// Accessor resolves a column name (case-insensitive) to a reader.
func (d *Dataset) Accessor(column string) (Accessor, error) {
	name := strings.TrimSpace(column)
	for k, fn := range accessors {
		if strings.EqualFold(k, name) {
			return fn, nil
		}
	}
	for i, k := range d.Extra {
		if strings.EqualFold(k, name) {
			idx := i
			return func(o *Order) Value { return textValue(o.Extra[idx]) }, nil
		}
	}
	return nil, fmt.Errorf("unknown column %q", column)
}

// Table renders the orders back to a string table. With no columns given,
// every column is included.
func (d *Dataset) Table(columns ...string) (table.Table, error) {
	if len(columns) == 0 {
		columns = d.Columns()
	}
	read := make([]Accessor, len(columns))
	for i, c := range columns {
		fn, err := d.Accessor(c)
		if err != nil {
			return table.Table{}, err
		}
		read[i] = fn
	}

	out := table.New(columns...)
	out.Rows = make([][]string, 0, len(d.Orders))
	for i := range d.Orders {
		row := make([]string, len(read))
		for j, fn := range read {
			row[j] = fn(&d.Orders[i]).String()
		}
		out.Rows = append(out.Rows, row)
	}
	return out, nil
}
