package dataset

import (
	"strconv"
	"strings"
	"time"
)

// Kind describes how a column value compares and renders.
type Kind int

const (
	KindText Kind = iota
	KindNumber
	KindInteger
	KindDate
	// KindMonth is a calendar month name ordered January to December.
	KindMonth
)

// Value is a single typed cell.
type Value struct {
	Kind Kind
	Text string
	Num  float64
	Time time.Time
}

func textValue(s string) Value { return Value{Kind: KindText, Text: s} }
func numberValue(f float64) Value { return Value{Kind: KindNumber, Num: f} }
func integerValue(i int) Value { return Value{Kind: KindInteger, Num: float64(i)} }
func dateValue(t time.Time) Value { return Value{Kind: KindDate, Time: t} }
func monthValue(m time.Month) Value { return Value{Kind: KindMonth, Text: m.String(), Num: float64(m)} }

// String renders the value in its canonical text form.
func (v Value) String() string {
	switch v.Kind {
	case KindNumber:
		return FormatNumber(v.Num)
	case KindInteger:
		return strconv.FormatInt(int64(v.Num), 10)
	case KindDate:
		return v.Time.Format(DateLayout)
	default:
		return v.Text
	}
}

// Float returns the numeric content of number and integer values.
func (v Value) Float() (float64, bool) {
	switch v.Kind {
	case KindNumber, KindInteger:
		return v.Num, true
	}
	return 0, false
}

// Less orders two values of the same column by their natural order:
// numbers numerically, dates chronologically, month names by calendar,
// text lexically.
func Less(a, b Value) bool {
	switch a.Kind {
	case KindNumber, KindInteger, KindMonth:
		if a.Num != b.Num {
			return a.Num < b.Num
		}
		return a.Text < b.Text
	case KindDate:
		return a.Time.Before(b.Time)
	default:
		return a.Text < b.Text
	}
}

// FormatNumber renders a float without trailing zeros.
func FormatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// MonthOrder returns the calendar position (1-12) of an English month name,
// or 0 when the name is not a month.
func MonthOrder(name string) int {
	for m := time.January; m <= time.December; m++ {
		if strings.EqualFold(m.String(), strings.TrimSpace(name)) {
			return int(m)
		}
	}
	return 0
}
