package dataset

import (
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/TobiSchelling/storedash/internal/table"
)

var header = []string{
	"Row ID", "Order ID", "Order Date", "Ship Date", "Ship Mode", "Segment",
	"Region", "State", "Category", "Sub-Category", "Sales", "Quantity", "Discount",
}

func rawFixture() table.Table {
	return table.Table{
		Columns: header,
		Rows: [][]string{
			{"1", "CA-2016-152156", "11/8/2016", "11/11/2016", "Second Class", "Consumer", "South", "Kentucky", "Furniture", "Bookcases", "261.96", "2", "0"},
			{"2", "CA-2016-152156", "11/8/2016", "11/11/2016", "Second Class", "Consumer", "South", "Kentucky", "Furniture", "Chairs", "731.94", "3", "0"},
			{"3", "CA-2016-138688", "2016-06-12", "2016-06-16", "Second Class", "Corporate", "West", "California", "Office Supplies", "Labels", "14.62", "2", "0"},
			{"4", "US-2015-108966", "10/11/2015", "10/18/2015", "Standard Class", "Consumer", "South", "Florida", "Furniture", "Tables", "0", "5", "0.45"},
			{"5", "US-2015-108967", "1/4/2015", "1/9/2015", "Standard Class", "Home Office", "East", "Ohio", "Technology", "Phones", "0.5", "0", "0.2"},
		},
	}
}

func mustEnrich(t *testing.T, raw table.Table) *Dataset {
	t.Helper()
	ds, err := Enrich(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return ds
}

func TestEnrichIsIdempotent(t *testing.T) {
	a := mustEnrich(t, rawFixture())
	b := mustEnrich(t, rawFixture())
	if !reflect.DeepEqual(a, b) {
		t.Fatal("expected identical datasets from identical input")
	}

	// Re-enriching a rendered dataset skips the derived columns and yields
	// the same orders.
	rendered, err := a.Table()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	c := mustEnrich(t, rendered)
	if !reflect.DeepEqual(a.Orders, c.Orders) {
		t.Errorf("expected re-enrichment to reproduce orders:\n%+v\n%+v", a.Orders[0], c.Orders[0])
	}
}

func TestRevenueIsSalesTimesQuantity(t *testing.T) {
	ds := mustEnrich(t, rawFixture())
	for i, o := range ds.Orders {
		if o.Revenue != o.Sales*float64(o.Quantity) {
			t.Errorf("row %d: revenue %v != %v * %d", i, o.Revenue, o.Sales, o.Quantity)
		}
	}
	if ds.Orders[3].Revenue != 0 {
		t.Errorf("expected zero revenue for zero sales, got %v", ds.Orders[3].Revenue)
	}
	if ds.Orders[4].Revenue != 0 {
		t.Errorf("expected zero revenue for zero quantity, got %v", ds.Orders[4].Revenue)
	}
	if got := ds.Orders[0].Revenue; got != 523.92 {
		t.Errorf("expected 523.92, got %v", got)
	}
}

func TestDerivedCalendarFields(t *testing.T) {
	ds := mustEnrich(t, rawFixture())
	o := ds.Orders[0] // 2016-11-08, a Tuesday

	if !o.OrderDate.Equal(time.Date(2016, 11, 8, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected order date %v", o.OrderDate)
	}
	if !o.OrderMonth.Equal(time.Date(2016, 11, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected order month %v", o.OrderMonth)
	}
	if !o.ShipMonth.Equal(time.Date(2016, 11, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected ship month %v", o.ShipMonth)
	}
	if o.DayOfWeek != 1 {
		t.Errorf("expected Tuesday=1, got %d", o.DayOfWeek)
	}
	if o.MonthName != "November" {
		t.Errorf("expected November, got %q", o.MonthName)
	}
	if o.OrderYear != 2016 {
		t.Errorf("expected 2016, got %d", o.OrderYear)
	}

	// ISO dates parse the same way.
	if got := ds.Orders[2].OrderDate.Format(DateLayout); got != "2016-06-12" {
		t.Errorf("expected 2016-06-12, got %s", got)
	}
}

func TestWeekdayMondayIsZero(t *testing.T) {
	monday := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 7; i++ {
		if got := Weekday(monday.AddDate(0, 0, i)); got != i {
			t.Errorf("day %d: expected %d, got %d", i, i, got)
		}
	}
}

func TestEnrichPreservesOrderAndCount(t *testing.T) {
	raw := rawFixture()
	ds := mustEnrich(t, raw)
	if ds.Len() != len(raw.Rows) {
		t.Fatalf("expected %d orders, got %d", len(raw.Rows), ds.Len())
	}
	for i, o := range ds.Orders {
		if o.Extra[0] != raw.Rows[i][0] {
			t.Errorf("row %d out of order: Row ID %q", i, o.Extra[0])
		}
	}
	if len(ds.Extra) != 1 || ds.Extra[0] != "Row ID" {
		t.Errorf("expected Row ID as extra column, got %v", ds.Extra)
	}
}

func TestEnrichMissingColumns(t *testing.T) {
	raw := rawFixture()
	raw, _ = raw.Select("Order ID", "Order Date", "Ship Date", "Segment")

	_, err := Enrich(raw)
	var missing *MissingColumnError
	if !errors.As(err, &missing) {
		t.Fatalf("expected MissingColumnError, got %v", err)
	}
	if len(missing.Columns) != 8 {
		t.Errorf("expected 8 missing columns, got %v", missing.Columns)
	}
	if !strings.Contains(Describe(err), "Ship Mode") {
		t.Errorf("expected actionable message naming Ship Mode, got %q", Describe(err))
	}
}

func TestEnrichMalformedDate(t *testing.T) {
	raw := rawFixture()
	raw.Rows[2][3] = "not a date"

	_, err := Enrich(raw)
	var bad *MalformedDateError
	if !errors.As(err, &bad) {
		t.Fatalf("expected MalformedDateError, got %v", err)
	}
	if bad.Row != 3 || bad.Column != ColShipDate {
		t.Errorf("unexpected error location: row %d column %s", bad.Row, bad.Column)
	}
}

func TestEnrichMalformedNumber(t *testing.T) {
	raw := rawFixture()
	raw.Rows[0][10] = "n/a"

	_, err := Enrich(raw)
	var bad *MalformedValueError
	if !errors.As(err, &bad) {
		t.Fatalf("expected MalformedValueError, got %v", err)
	}
	if bad.Column != ColSales {
		t.Errorf("expected Sales, got %s", bad.Column)
	}
}

func TestEnrichFractionalQuantityFails(t *testing.T) {
	raw := rawFixture()
	raw.Rows[0][11] = "2.5"
	if _, err := Enrich(raw); err == nil {
		t.Fatal("expected error for fractional quantity")
	}
}

func TestAccessorAndTable(t *testing.T) {
	ds := mustEnrich(t, rawFixture())

	fn, err := ds.Accessor("month_name")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v := fn(&ds.Orders[0]); v.Kind != KindMonth || v.String() != "November" {
		t.Errorf("unexpected month value %+v", v)
	}

	if _, err := ds.Accessor("Profit"); err == nil {
		t.Error("expected error for unknown column")
	}

	tbl, err := ds.Table(ColOrderID, ColRevenue, ColOrderMonth, "Row ID")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"CA-2016-152156", "523.92", "2016-11-01", "1"}
	if !reflect.DeepEqual(tbl.Rows[0], want) {
		t.Errorf("expected %v, got %v", want, tbl.Rows[0])
	}
}

func TestLessOrdersMonthsByCalendar(t *testing.T) {
	if !Less(monthValue(time.January), monthValue(time.March)) {
		t.Error("expected January before March")
	}
	if Less(monthValue(time.December), monthValue(time.February)) {
		t.Error("expected December after February")
	}
	if MonthOrder("march") != 3 || MonthOrder("Smarch") != 0 {
		t.Error("unexpected MonthOrder results")
	}
}

func TestDecodeLatin1(t *testing.T) {
	// "Café" in ISO-8859-1.
	out, err := Decode([]byte{'C', 'a', 'f', 0xE9}, "iso-8859-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(out) != "Café" {
		t.Errorf("expected Café, got %q", out)
	}

	if _, err := Decode([]byte("x"), "ebcdic"); err == nil {
		t.Error("expected error for unsupported encoding")
	}
}

func TestDecodeAutoKeepsUTF8(t *testing.T) {
	in := []byte("Order ID,State\nCA-1,Québec — Montréal\n")
	out, err := Decode(in, "auto")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(out) != string(in) {
		t.Errorf("expected UTF-8 passthrough, got %q", out)
	}
}

func TestDecodeAutoDetectsLegacyText(t *testing.T) {
	// ISO-8859-1 bytes are not valid UTF-8, so detection falls to chardet.
	in := []byte("Order ID,State,Note\nCA-1,Qu\xe9bec,Caf\xe9 cr\xe8me br\xfbl\xe9e \xe0 la fran\xe7aise\n")
	if enc := detect(in); enc == "utf-8" {
		t.Fatalf("expected a single-byte encoding, got %q", enc)
	}
	out, err := Decode(in, "auto")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "Order ID,State,Note\nCA-1,Québec,Café crème brûlée à la française\n"
	if string(out) != want {
		t.Errorf("expected %q, got %q", want, out)
	}
}

func TestLoadStripsUTF8ByteOrderMark(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("\xEF\xBB\xBF")
	sb.WriteString(strings.Join(header, ","))
	sb.WriteString("\n1,CA-2016-1,11/8/2016,11/11/2016,Second Class,Consumer,South,Kentucky,Furniture,Bookcases,261.96,2,0\n")

	ds, err := Load(Source{Name: "bom.csv", Data: []byte(sb.String()), Encoding: DefaultEncoding})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ds.Len() != 1 || ds.Orders[0].OrderID != "CA-2016-1" {
		t.Errorf("unexpected orders %+v", ds.Orders)
	}
}

func TestDefaultDatasetLoads(t *testing.T) {
	ds, err := Load(Default())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ds.Len() == 0 {
		t.Fatal("expected bundled orders")
	}
	if ds.Orders[0].OrderID != "CA-2016-166510" {
		t.Errorf("unexpected first order %q", ds.Orders[0].OrderID)
	}
}

func TestSourceKey(t *testing.T) {
	a := Source{Data: []byte("x"), Encoding: "utf-8"}
	b := Source{Name: "other", Data: []byte("x"), Encoding: "UTF-8"}
	c := Source{Data: []byte("y"), Encoding: "utf-8"}
	if a.Key() != b.Key() {
		t.Error("expected same key for same content")
	}
	if a.Key() == c.Key() {
		t.Error("expected different key for different content")
	}
}
