package models

import (
	"fmt"
	"time"
)

// periodLayout is the canonical wire and storage form of a Period.
const periodLayout = "2006-01"

// Period identifies one calendar month. It is the unique key of a
// FinancialRecord and the time axis of every KPI and forecast.
type Period struct {
	Year  int
	Month time.Month
}

// ParsePeriod parses a period in YYYY-MM form.
func ParsePeriod(s string) (Period, error) {
	t, err := time.Parse(periodLayout, s)
	if err != nil {
		return Period{}, fmt.Errorf("malformed period %q: expected YYYY-MM", s)
	}
	return Period{Year: t.Year(), Month: t.Month()}, nil
}

// PeriodOf returns the period containing t.
func PeriodOf(t time.Time) Period {
	return Period{Year: t.Year(), Month: t.Month()}
}

func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, int(p.Month))
}

// IsZero reports whether p is the zero value.
func (p Period) IsZero() bool {
	return p.Year == 0 && p.Month == 0
}

// Start returns midnight on the first day of the month, UTC.
func (p Period) Start() time.Time {
	return time.Date(p.Year, p.Month, 1, 0, 0, 0, 0, time.UTC)
}

// End returns the last instant of the month. An employee hired on any
// day of a month counts toward that month's salary total.
func (p Period) End() time.Time {
	return p.Start().AddDate(0, 1, 0).Add(-time.Nanosecond)
}

// AddMonths returns the period n months after p. Negative n goes back.
func (p Period) AddMonths(n int) Period {
	return PeriodOf(p.Start().AddDate(0, n, 0))
}

// Compare orders periods chronologically: -1 if p < q, 0 if equal, 1 if p > q.
func (p Period) Compare(q Period) int {
	switch a, b := p.Year*12+int(p.Month), q.Year*12+int(q.Month); {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// Before reports whether p is strictly earlier than q.
func (p Period) Before(q Period) bool {
	return p.Compare(q) < 0
}
