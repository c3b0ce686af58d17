package query

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/TobiSchelling/storedash/internal/dataset"
)

// ErrEmptyResult is reported when a selection keeps no rows. It is not
// fatal: callers show a "no data" notice.
var ErrEmptyResult = errors.New("no rows match the current selection")

// DateRange is an inclusive range over order dates.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls in [Start, End].
func (r DateRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}

func (r DateRange) String() string {
	return r.Start.Format(dataset.DateLayout) + ".." + r.End.Format(dataset.DateLayout)
}

// Selection restricts rows by categorical values and order date.
//
// A column absent from Allowed is unconstrained. A column present with no
// values matches nothing.
type Selection struct {
	Allowed map[string][]string
	Range   *DateRange
}

// Allow sets the allowed values for a column.
func (s *Selection) Allow(column string, values ...string) {
	if s.Allowed == nil {
		s.Allowed = make(map[string][]string)
	}
	s.Allowed[column] = append([]string{}, values...)
}

// DefaultSelection allows every segment and ship mode present in the data
// and spans every order date.
func DefaultSelection(ds *dataset.Dataset) Selection {
	var sel Selection
	sel.Allow(dataset.ColSegment, Distinct(ds, dataset.ColSegment)...)
	sel.Allow(dataset.ColShipMode, Distinct(ds, dataset.ColShipMode)...)
	if span, ok := DateSpan(ds); ok {
		sel.Range = &span
	}
	return sel
}

// Filter keeps the rows that satisfy every constraint of the selection, in
// input order.
func Filter(ds *dataset.Dataset, sel Selection) (*dataset.Dataset, error) {
	type constraint struct {
		read    dataset.Accessor
		allowed map[string]struct{}
	}
	var cons []constraint
	for col, values := range sel.Allowed {
		read, err := ds.Accessor(col)
		if err != nil {
			return nil, fmt.Errorf("filter: %w", err)
		}
		set := make(map[string]struct{}, len(values))
		for _, v := range values {
			set[v] = struct{}{}
		}
		cons = append(cons, constraint{read: read, allowed: set})
	}

	out := make([]dataset.Order, 0, len(ds.Orders))
	for i := range ds.Orders {
		o := &ds.Orders[i]
		if sel.Range != nil && !sel.Range.Contains(o.OrderDate) {
			continue
		}
		keep := true
		for _, c := range cons {
			if _, ok := c.allowed[c.read(o).String()]; !ok {
				keep = false
				break
			}
		}
		if keep {
			out = append(out, *o)
		}
	}
	return ds.Subset(out), nil
}

// CheckNonEmpty returns ErrEmptyResult when the dataset has no rows.
func CheckNonEmpty(ds *dataset.Dataset) error {
	if ds.Len() == 0 {
		return ErrEmptyResult
	}
	return nil
}

// DateSpan returns the earliest and latest order dates.
func DateSpan(ds *dataset.Dataset) (DateRange, bool) {
	if ds.Len() == 0 {
		return DateRange{}, false
	}
	span := DateRange{Start: ds.Orders[0].OrderDate, End: ds.Orders[0].OrderDate}
	for _, o := range ds.Orders[1:] {
		if o.OrderDate.Before(span.Start) {
			span.Start = o.OrderDate
		}
		if o.OrderDate.After(span.End) {
			span.End = o.OrderDate
		}
	}
	return span, true
}

// Distinct returns the distinct values of a column in order of first
// appearance. Unknown columns yield nil.
func Distinct(ds *dataset.Dataset, column string) []string {
	read, err := ds.Accessor(column)
	if err != nil {
		return nil
	}
	seen := make(map[string]bool)
	var out []string
	for i := range ds.Orders {
		v := read(&ds.Orders[i]).String()
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

// ErrOrderNotFound is reported when an order lookup matches nothing.
var ErrOrderNotFound = errors.New("order ID not found")

// FindByOrderID returns every row with the given order ID. When nothing
// matches it returns an empty dataset together with ErrOrderNotFound.
func FindByOrderID(ds *dataset.Dataset, id string) (*dataset.Dataset, error) {
	id = strings.TrimSpace(id)
	var out []dataset.Order
	for _, o := range ds.Orders {
		if o.OrderID == id {
			out = append(out, o)
		}
	}
	if len(out) == 0 {
		return ds.Subset(nil), ErrOrderNotFound
	}
	return ds.Subset(out), nil
}
