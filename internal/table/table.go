package table

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Table is an ordered set of string rows sharing a header.
type Table struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// New creates an empty table with the given columns.
func New(columns ...string) Table {
	return Table{Columns: append([]string(nil), columns...)}
}

// Len returns the number of data rows.
func (t Table) Len() int {
	return len(t.Rows)
}

// Empty reports whether the table has no data rows.
func (t Table) Empty() bool {
	return len(t.Rows) == 0
}

// Append adds a row. The row must have one cell per column.
func (t *Table) Append(cells ...string) error {
	if len(cells) != len(t.Columns) {
		return fmt.Errorf("row has %d cells, table has %d columns", len(cells), len(t.Columns))
	}
	t.Rows = append(t.Rows, append([]string(nil), cells...))
	return nil
}

// Index returns the position of a column, matching names case-insensitively
// after trimming whitespace. It returns -1 when the column is absent.
func (t Table) Index(column string) int {
	want := strings.TrimSpace(column)
	for i, c := range t.Columns {
		if strings.EqualFold(strings.TrimSpace(c), want) {
			return i
		}
	}
	return -1
}

// Select returns a new table holding only the named columns, in that order.
func (t Table) Select(columns ...string) (Table, error) {
	idx := make([]int, len(columns))
	for i, c := range columns {
		j := t.Index(c)
		if j < 0 {
			return Table{}, fmt.Errorf("column not found: %s", c)
		}
		idx[i] = j
	}

	out := New(columns...)
	out.Rows = make([][]string, 0, len(t.Rows))
	for _, r := range t.Rows {
		row := make([]string, len(idx))
		for i, j := range idx {
			row[i] = r[j]
		}
		out.Rows = append(out.Rows, row)
	}
	return out, nil
}

// Equal reports whether two tables have identical columns and cells.
func (t Table) Equal(o Table) bool {
	if len(t.Columns) != len(o.Columns) || len(t.Rows) != len(o.Rows) {
		return false
	}
	for i := range t.Columns {
		if t.Columns[i] != o.Columns[i] {
			return false
		}
	}
	for i := range t.Rows {
		if len(t.Rows[i]) != len(o.Rows[i]) {
			return false
		}
		for j := range t.Rows[i] {
			if t.Rows[i][j] != o.Rows[i][j] {
				return false
			}
		}
	}
	return true
}

// ToPortableText encodes the table as comma-separated text with a header
// row. Cells holding delimiters, quotes or newlines are quoted.
func ToPortableText(t Table) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(&buf, t); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ErrCarriageReturn is returned for cells holding a carriage return, which
// CSV readers fold into the following newline.
var ErrCarriageReturn = errors.New("cell contains a carriage return")

// Write streams the table as CSV to w.
func Write(w io.Writer, t Table) error {
	cw := csv.NewWriter(w)
	if err := writeRecord(w, cw, t.Columns); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, r := range t.Rows {
		if err := writeRecord(w, cw, r); err != nil {
			return fmt.Errorf("writing row %d: %w", i+1, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// writeRecord writes one record. A lone empty field is written as "" so the
// line is not blank; readers skip blank lines.
func writeRecord(w io.Writer, cw *csv.Writer, record []string) error {
	for _, cell := range record {
		if strings.ContainsRune(cell, '\r') {
			return ErrCarriageReturn
		}
	}
	if len(record) == 1 && record[0] == "" {
		cw.Flush()
		if err := cw.Error(); err != nil {
			return err
		}
		_, err := io.WriteString(w, "\"\"\n")
		return err
	}
	return cw.Write(record)
}

// Parse decodes comma-separated text with a header row.
func Parse(data []byte) (Table, error) {
	return Read(bytes.NewReader(data))
}

// Read decodes CSV from r. The first record is the header; every following
// record must have the same number of fields.
func Read(r io.Reader) (Table, error) {
	cr := csv.NewReader(r)
	records, err := cr.ReadAll()
	if err != nil {
		return Table{}, fmt.Errorf("reading CSV: %w", err)
	}
	if len(records) == 0 {
		return Table{}, errors.New("CSV is empty")
	}

	header := records[0]
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	return Table{Columns: header, Rows: records[1:]}, nil
}
