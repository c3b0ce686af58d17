package store

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/TobiSchelling/storedash/internal/dataset"
	"github.com/TobiSchelling/storedash/internal/table"
)

// sqlColumns maps each source column to its warehouse column, in source
// order.
var sqlColumns = []struct {
	source string
	column string
}{
	{dataset.ColOrderID, "order_id"},
	{dataset.ColOrderDate, "order_date"},
	{dataset.ColShipDate, "ship_date"},
	{dataset.ColShipMode, "ship_mode"},
	{dataset.ColSegment, "segment"},
	{dataset.ColRegion, "region"},
	{dataset.ColState, "state"},
	{dataset.ColCategory, "category"},
	{dataset.ColSubCategory, "sub_category"},
	{dataset.ColSales, "sales"},
	{dataset.ColQuantity, "quantity"},
	{dataset.ColDiscount, "discount"},
}

// Stats summarizes the warehouse content.
type Stats struct {
	Orders     int
	Revenue    float64
	Runs       int
	LastExport time.Time
}

// SaveOrders replaces the orders table with the dataset in one transaction.
// onRow, when set, is called after each inserted row with the running count.
// Extra source columns are not stored.
func (db *DB) SaveOrders(ctx context.Context, ds *dataset.Dataset, sourceKey string, onRow func(done int)) (int, error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin save: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM orders"); err != nil {
		return 0, fmt.Errorf("clearing orders: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO orders (row_no, order_id, order_date, ship_date, ship_mode, segment, region, state,
    category, sub_category, sales, quantity, discount, revenue)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for i := range ds.Orders {
		o := &ds.Orders[i]
		_, err := stmt.ExecContext(ctx, i+1, o.OrderID,
			o.OrderDate.Format(dataset.DateLayout), o.ShipDate.Format(dataset.DateLayout),
			o.ShipMode, o.Segment, o.Region, o.State, o.Category, o.SubCategory,
			o.Sales, o.Quantity, o.Discount, o.Revenue)
		if err != nil {
			return 0, fmt.Errorf("inserting order %s (row %d): %w", o.OrderID, i+1, err)
		}
		if onRow != nil {
			onRow(i + 1)
		}
	}

	_, err = tx.ExecContext(ctx,
		"INSERT INTO export_runs (source_key, row_count, exported_at) VALUES (?, ?, ?)",
		shortKey(sourceKey), ds.Len(), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return 0, fmt.Errorf("recording export run: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit save: %w", err)
	}
	db.log.Info("saved orders", "rows", ds.Len(), "dialect", db.dialect)
	return ds.Len(), nil
}

// LoadTable reads the named warehouse table back as a raw source table
// with the original column headers, ready for enrichment.
func (db *DB) LoadTable(ctx context.Context, name string) (table.Table, error) {
	if name == "" {
		name = DefaultTable
	}
	if !tableName.MatchString(name) {
		return table.Table{}, fmt.Errorf("invalid table name %q", name)
	}

	cols := make([]string, len(sqlColumns))
	headers := make([]string, len(sqlColumns))
	for i, c := range sqlColumns {
		cols[i] = c.column
		headers[i] = c.source
	}
	q := fmt.Sprintf("SELECT %s FROM %s ORDER BY row_no", strings.Join(cols, ", "), name)

	rows, err := db.conn.QueryContext(ctx, q)
	if err != nil {
		return table.Table{}, fmt.Errorf("querying %s: %w", name, err)
	}
	defer rows.Close()

	out := table.New(headers...)
	for rows.Next() {
		var (
			r               [9]string
			sales, discount float64
			quantity        int64
		)
		err := rows.Scan(&r[0], &r[1], &r[2], &r[3], &r[4], &r[5], &r[6], &r[7], &r[8],
			&sales, &quantity, &discount)
		if err != nil {
			return table.Table{}, fmt.Errorf("scanning %s: %w", name, err)
		}
		cells := append(r[:],
			dataset.FormatNumber(sales),
			strconv.FormatInt(quantity, 10),
			dataset.FormatNumber(discount))
		out.Rows = append(out.Rows, cells)
	}
	if err := rows.Err(); err != nil {
		return table.Table{}, fmt.Errorf("reading %s: %w", name, err)
	}
	return out, nil
}

// LoadSource reads the named table as a dataset source. The source bytes
// are the table's CSV rendering, so equal content shares a cache key.
func (db *DB) LoadSource(ctx context.Context, name string) (dataset.Source, error) {
	t, err := db.LoadTable(ctx, name)
	if err != nil {
		return dataset.Source{}, err
	}
	data, err := table.ToPortableText(t)
	if err != nil {
		return dataset.Source{}, err
	}
	if name == "" {
		name = DefaultTable
	}
	return dataset.Source{Name: string(db.dialect) + ":" + name, Data: data, Encoding: "utf-8"}, nil
}

// Stats returns order totals and export history.
func (db *DB) Stats(ctx context.Context) (Stats, error) {
	var s Stats
	err := db.conn.QueryRowContext(ctx,
		"SELECT COUNT(*), COALESCE(SUM(revenue), 0) FROM orders").Scan(&s.Orders, &s.Revenue)
	if err != nil {
		return Stats{}, fmt.Errorf("counting orders: %w", err)
	}

	var last sql.NullString
	err = db.conn.QueryRowContext(ctx,
		"SELECT COUNT(*), MAX(exported_at) FROM export_runs").Scan(&s.Runs, &last)
	if err != nil {
		return Stats{}, fmt.Errorf("reading export runs: %w", err)
	}
	if last.Valid {
		if t, err := time.Parse(time.RFC3339, last.String); err == nil {
			s.LastExport = t
		}
	}
	return s, nil
}

func shortKey(key string) string {
	if len(key) > 64 {
		return key[:64]
	}
	return key
}
