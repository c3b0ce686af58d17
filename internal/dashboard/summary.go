package dashboard

import (
	"github.com/TobiSchelling/storedash/internal/dataset"
	"github.com/TobiSchelling/storedash/internal/query"
)

// Summary is the headline figures of a dataset.
type Summary struct {
	Orders   int
	Revenue  float64
	Quantity int
	Span     query.DateRange
	States   int
	Segments []string
}

// Summarize totals revenue and quantity and counts distinct states.
func Summarize(ds *dataset.Dataset) Summary {
	s := Summary{
		Orders:   ds.Len(),
		States:   len(query.Distinct(ds, dataset.ColState)),
		Segments: query.Distinct(ds, dataset.ColSegment),
	}
	if span, ok := query.DateSpan(ds); ok {
		s.Span = span
	}
	for i := range ds.Orders {
		s.Revenue += ds.Orders[i].Revenue
		s.Quantity += ds.Orders[i].Quantity
	}
	return s
}
