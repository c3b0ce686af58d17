package dashboard

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/TobiSchelling/storedash/internal/dataset"
	"github.com/TobiSchelling/storedash/internal/present"
	"github.com/TobiSchelling/storedash/internal/query"
)

// Query string keys understood by ParseParams.
const (
	KeyFiltered    = "filtered"
	KeySegment     = "segment"
	KeyShipMode    = "ship_mode"
	KeyStart       = "start"
	KeyEnd         = "end"
	KeyView        = "view"
	KeySubCategory = "subcat"
	KeyStates      = "states"
	KeyOrderID     = "order_id"
)

// DefaultParams selects everything: all segments and ship modes, the full
// date span and the day-of-week view.
func DefaultParams(ds *dataset.Dataset) Params {
	p := Params{Selection: query.DefaultSelection(ds), TimeView: present.ByDayOfWeek}
	if p.Selection.Range != nil {
		span := *p.Selection.Range
		p.Range = &span
	}
	// The sidebar selection does not restrict dates.
	p.Selection.Range = nil
	return p
}

// ParseParams maps form values to dashboard params. Missing values keep
// their defaults. Segment and ship mode lists are only read when the
// filter form was submitted (KeyFiltered is set), so an empty submission
// selects nothing. Invalid values fall back to the default and produce a
// notice.
func ParseParams(q url.Values, ds *dataset.Dataset) (Params, []Notice) {
	p := DefaultParams(ds)
	var notices []Notice
	warn := func(section, format string, args ...interface{}) {
		notices = append(notices, Notice{Level: Warning, Section: section, Message: fmt.Sprintf(format, args...)})
	}

	if q.Has(KeyFiltered) {
		p.Selection.Allow(dataset.ColSegment, nonEmpty(q[KeySegment])...)
		p.Selection.Allow(dataset.ColShipMode, nonEmpty(q[KeyShipMode])...)
	}

	if p.Range != nil {
		if s := strings.TrimSpace(q.Get(KeyStart)); s != "" {
			if t, err := time.Parse(dataset.DateLayout, s); err == nil {
				p.Range.Start = t
			} else {
				warn("time series", "Ignoring start date %q; expected YYYY-MM-DD.", s)
			}
		}
		if s := strings.TrimSpace(q.Get(KeyEnd)); s != "" {
			if t, err := time.Parse(dataset.DateLayout, s); err == nil {
				p.Range.End = t
			} else {
				warn("time series", "Ignoring end date %q; expected YYYY-MM-DD.", s)
			}
		}
	}

	if v, err := present.ParseTimeView(q.Get(KeyView)); err == nil {
		p.TimeView = v
	} else {
		warn("time series", "Unknown view %q; showing revenue by day of week.", q.Get(KeyView))
	}

	p.ShowSubCategory = truthy(q.Get(KeySubCategory))
	p.ShowStates = truthy(q.Get(KeyStates))
	p.OrderID = strings.TrimSpace(q.Get(KeyOrderID))
	return p, notices
}

// Values encodes params back into form values for links.
func (p Params) Values() url.Values {
	q := url.Values{}
	if p.Selection.Allowed != nil {
		q.Set(KeyFiltered, "1")
		q[KeySegment] = append([]string(nil), p.Selection.Allowed[dataset.ColSegment]...)
		q[KeyShipMode] = append([]string(nil), p.Selection.Allowed[dataset.ColShipMode]...)
	}
	if p.Range != nil {
		q.Set(KeyStart, p.Range.Start.Format(dataset.DateLayout))
		q.Set(KeyEnd, p.Range.End.Format(dataset.DateLayout))
	}
	if p.TimeView != "" {
		q.Set(KeyView, string(p.TimeView))
	}
	if p.ShowSubCategory {
		q.Set(KeySubCategory, "1")
	}
	if p.ShowStates {
		q.Set(KeyStates, "1")
	}
	if p.OrderID != "" {
		q.Set(KeyOrderID, p.OrderID)
	}
	return q
}

// IsSelected reports whether value is allowed for column. Unconstrained
// columns allow everything.
func (p Params) IsSelected(column, value string) bool {
	allowed, ok := p.Selection.Allowed[column]
	if !ok {
		return true
	}
	for _, a := range allowed {
		if a == value {
			return true
		}
	}
	return false
}

func nonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func truthy(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "on", "yes":
		return true
	}
	return false
}
