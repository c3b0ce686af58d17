package present

import (
	"fmt"

	"github.com/TobiSchelling/storedash/internal/dataset"
	"github.com/TobiSchelling/storedash/internal/query"
)

// Hint tells the renderer how to highlight a row.
type Hint string

const (
	Hot  Hint = "hot"
	Cold Hint = "cold"
)

// RankedRow is a result row prepared for a highlighted table.
type RankedRow struct {
	Key    []string  `json:"key"`
	Values []float64 `json:"values"`
	Hint   Hint      `json:"hint"`
}

// RankedTable is a result with a highlight hint per row.
type RankedTable struct {
	Columns   []string    `json:"columns"`
	Measure   string      `json:"measure"`
	Threshold float64     `json:"threshold"`
	Rows      []RankedRow `json:"rows"`
}

// TopN keeps the n largest groups by measure, descending, and marks each
// row hot when its measure exceeds threshold.
func TopN(res *query.Result, measure string, n int, threshold float64) (RankedTable, error) {
	sorted, err := query.SortDescendingBy(res, measure, n)
	if err != nil {
		return RankedTable{}, err
	}
	return Highlight(sorted, measure, threshold)
}

// Highlight marks every row of the result against threshold, keeping the
// result's order.
func Highlight(res *query.Result, measure string, threshold float64) (RankedTable, error) {
	mi := res.MeasureIndex(measure)
	if mi < 0 {
		return RankedTable{}, fmt.Errorf("highlight: unknown measure %q", measure)
	}
	t := RankedTable{
		Columns:   append(append([]string{}, res.Dims...), res.Measures...),
		Measure:   res.Measures[mi],
		Threshold: threshold,
		Rows:      make([]RankedRow, 0, len(res.Rows)),
	}
	for _, r := range res.Rows {
		key := make([]string, len(r.Key))
		for i, k := range r.Key {
			key[i] = k.String()
		}
		hint := Cold
		if r.Values[mi] > threshold {
			hint = Hot
		}
		t.Rows = append(t.Rows, RankedRow{Key: key, Values: append([]float64(nil), r.Values...), Hint: hint})
	}
	return t, nil
}

// Cells returns the row's key and measure values as display strings.
func (r RankedRow) Cells() []string {
	out := append([]string{}, r.Key...)
	for _, v := range r.Values {
		out = append(out, dataset.FormatNumber(v))
	}
	return out
}
