package dataset

// Source columns every dataset must carry.
const (
	ColOrderID     = "Order ID"
	ColOrderDate   = "Order Date"
	ColShipDate    = "Ship Date"
	ColShipMode    = "Ship Mode"
	ColSegment     = "Segment"
	ColRegion      = "Region"
	ColState       = "State"
	ColCategory    = "Category"
	ColSubCategory = "Sub-Category"
	ColSales       = "Sales"
	ColQuantity    = "Quantity"
	ColDiscount    = "Discount"
)

// Columns derived during enrichment.
const (
	ColRevenue    = "Revenue"
	ColOrderMonth = "order_month"
	ColShipMonth  = "ship_month"
	ColDayOfWeek  = "day_of_week"
	ColMonthName  = "month_name"
	ColOrderYear  = "order_year"
)

// RequiredColumns lists the source columns in their canonical order.
var RequiredColumns = []string{
	ColOrderID,
	ColOrderDate,
	ColShipDate,
	ColShipMode,
	ColSegment,
	ColRegion,
	ColState,
	ColCategory,
	ColSubCategory,
	ColSales,
	ColQuantity,
	ColDiscount,
}

// DerivedColumns lists the enrichment columns in output order.
var DerivedColumns = []string{
	ColRevenue,
	ColOrderMonth,
	ColShipMonth,
	ColDayOfWeek,
	ColMonthName,
	ColOrderYear,
}

// DateLayout is the canonical text form of calendar dates.
const DateLayout = "2006-01-02"
