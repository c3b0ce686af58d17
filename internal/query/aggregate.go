package query

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/TobiSchelling/storedash/internal/dataset"
	"github.com/TobiSchelling/storedash/internal/table"
)

// Reducer folds a column of a group into one number.
type Reducer int

const (
	ReduceSum Reducer = iota
	ReduceCount
)

func (r Reducer) String() string {
	if r == ReduceCount {
		return "count"
	}
	return "sum"
}

// Measure names an output column and how it is computed.
type Measure struct {
	Name    string
	Column  string
	Reducer Reducer
}

// Sum totals a numeric column. The output column takes the source name.
func Sum(column string) Measure {
	return Measure{Name: column, Column: column, Reducer: ReduceSum}
}

// Count counts the rows of each group.
func Count(name string) Measure {
	return Measure{Name: name, Reducer: ReduceCount}
}

// Row is one group: its key values and its measure values.
type Row struct {
	Key    []dataset.Value
	Values []float64
}

// KeyString joins the key values for display and tie-breaking.
func (r Row) KeyString() string {
	parts := make([]string, len(r.Key))
	for i, v := range r.Key {
		parts[i] = v.String()
	}
	return strings.Join(parts, " / ")
}

// Result is a grouped table: one row per distinct key present in the input.
type Result struct {
	Dims     []string
	Measures []string
	Rows     []Row
}

// Len returns the number of groups.
func (r *Result) Len() int {
	return len(r.Rows)
}

// DimIndex returns the position of a grouping column, or -1.
func (r *Result) DimIndex(name string) int {
	return indexFold(r.Dims, name)
}

// MeasureIndex returns the position of a measure column, or -1.
func (r *Result) MeasureIndex(name string) int {
	return indexFold(r.Measures, name)
}

// Table renders the result with grouping columns first, then measures.
func (r *Result) Table() table.Table {
	cols := append(append([]string{}, r.Dims...), r.Measures...)
	out := table.New(cols...)
	out.Rows = make([][]string, 0, len(r.Rows))
	for _, row := range r.Rows {
		cells := make([]string, 0, len(cols))
		for _, k := range row.Key {
			cells = append(cells, k.String())
		}
		for _, v := range row.Values {
			cells = append(cells, dataset.FormatNumber(v))
		}
		out.Rows = append(out.Rows, cells)
	}
	return out
}

// Project renders the named columns of the result in the given order.
func (r *Result) Project(columns ...string) (table.Table, error) {
	return r.Table().Select(columns...)
}

// Aggregate groups rows by the given columns and reduces each measure per
// group. Groups are ordered by the natural order of their keys: month
// names run January to December, numbers and dates ascend, text sorts
// lexically. Combinations absent from the input do not appear.
func Aggregate(ds *dataset.Dataset, dims []string, measures ...Measure) (*Result, error) {
	if len(dims) == 0 {
		return nil, errors.New("aggregate: at least one grouping column is required")
	}
	keys := make([]dataset.Accessor, len(dims))
	for i, d := range dims {
		read, err := ds.Accessor(d)
		if err != nil {
			return nil, fmt.Errorf("aggregate: %w", err)
		}
		keys[i] = read
	}
	values := make([]dataset.Accessor, len(measures))
	names := make([]string, len(measures))
	for i, m := range measures {
		names[i] = m.Name
		if m.Reducer == ReduceCount {
			continue
		}
		read, err := ds.Accessor(m.Column)
		if err != nil {
			return nil, fmt.Errorf("aggregate: %w", err)
		}
		values[i] = read
	}

	res := &Result{Dims: append([]string{}, dims...), Measures: names}
	groups := make(map[string]int)
	for i := range ds.Orders {
		o := &ds.Orders[i]
		key := make([]dataset.Value, len(keys))
		for j, read := range keys {
			key[j] = read(o)
		}
		id := groupID(key)
		g, ok := groups[id]
		if !ok {
			g = len(res.Rows)
			groups[id] = g
			res.Rows = append(res.Rows, Row{Key: key, Values: make([]float64, len(measures))})
		}
		for j, m := range measures {
			if m.Reducer == ReduceCount {
				res.Rows[g].Values[j]++
				continue
			}
			f, ok := values[j](o).Float()
			if !ok {
				return nil, fmt.Errorf("aggregate: column %q is not numeric", m.Column)
			}
			res.Rows[g].Values[j] += f
		}
	}

	sort.SliceStable(res.Rows, func(a, b int) bool {
		return keyLess(res.Rows[a].Key, res.Rows[b].Key)
	})
	return res, nil
}

// SortDescendingBy orders the groups by a measure, largest first, and keeps
// at most limit rows (all rows when limit <= 0). Ties are broken by the
// group key in lexical order so the result is reproducible.
func SortDescendingBy(res *Result, column string, limit int) (*Result, error) {
	m := res.MeasureIndex(column)
	if m < 0 {
		return nil, fmt.Errorf("sort: unknown measure %q", column)
	}
	rows := append([]Row(nil), res.Rows...)
	sort.SliceStable(rows, func(a, b int) bool {
		if rows[a].Values[m] != rows[b].Values[m] {
			return rows[a].Values[m] > rows[b].Values[m]
		}
		return rows[a].KeyString() < rows[b].KeyString()
	})
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	return &Result{Dims: res.Dims, Measures: res.Measures, Rows: rows}, nil
}

// ValueCounts counts rows per distinct value of a column, most frequent
// first.
func ValueCounts(ds *dataset.Dataset, column string) (*Result, error) {
	res, err := Aggregate(ds, []string{column}, Count("Count"))
	if err != nil {
		return nil, err
	}
	return SortDescendingBy(res, "Count", 0)
}

func keyLess(a, b []dataset.Value) bool {
	for i := range a {
		if dataset.Less(a[i], b[i]) {
			return true
		}
		if dataset.Less(b[i], a[i]) {
			return false
		}
	}
	return false
}

func groupID(key []dataset.Value) string {
	var sb strings.Builder
	for i, v := range key {
		if i > 0 {
			sb.WriteByte(0x1f)
		}
		sb.WriteString(v.String())
	}
	return sb.String()
}

func indexFold(names []string, name string) int {
	for i, n := range names {
		if strings.EqualFold(n, strings.TrimSpace(name)) {
			return i
		}
	}
	return -1
}
