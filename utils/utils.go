package utils

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// QtyPrecision is the number of decimals quantities are compared at.
const QtyPrecision int32 = 2

const DateLayout = "2006-01-02"

func RoundQty(d decimal.Decimal) decimal.Decimal {
	return d.Round(QtyPrecision)
}

// HasQtyPrecision reports whether d carries no more than QtyPrecision decimals.
func HasQtyPrecision(d decimal.Decimal) bool {
	return d.Equal(RoundQty(d))
}

func QtyIsZero(d decimal.Decimal) bool {
	return RoundQty(d).LessThanOrEqual(decimal.Zero)
}

func QtyIsPositive(d decimal.Decimal) bool {
	return RoundQty(d).GreaterThan(decimal.Zero)
}

// ParseDate parses a calendar date in YYYY-MM-DD form.
func ParseDate(raw string) (time.Time, error) {
	return time.Parse(DateLayout, strings.TrimSpace(raw))
}

// DateOnly returns the calendar date of t as UTC midnight, comparable with
// dates from ParseDate.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
