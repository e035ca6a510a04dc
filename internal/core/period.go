package core

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Period identifies one monthly report and at most one MonthlyExpense.
type Period struct {
	Year  int `json:"year"`
	Month int `json:"month"`
}

// PeriodOf returns the period containing t.
func PeriodOf(t time.Time) Period {
	return Period{Year: t.Year(), Month: int(t.Month())}
}

// ParsePeriod parses "YYYY-MM".
func ParsePeriod(s string) (Period, error) {
	s = strings.TrimSpace(s)
	y, m, ok := strings.Cut(s, "-")
	if !ok {
		return Period{}, fmt.Errorf("invalid period %q: expected YYYY-MM", s)
	}
	year, err := strconv.Atoi(y)
	if err != nil {
		return Period{}, fmt.Errorf("invalid period year %q: %w", y, err)
	}
	month, err := strconv.Atoi(m)
	if err != nil {
		return Period{}, fmt.Errorf("invalid period month %q: %w", m, err)
	}
	p := Period{Year: year, Month: month}
	if err := p.Validate(); err != nil {
		return Period{}, err
	}
	return p, nil
}

func (p Period) Validate() error {
	if p.Month < 1 || p.Month > 12 {
		return ErrInvalidMonth
	}
	if p.Year < 1 || p.Year > 9999 {
		return fmt.Errorf("invalid year %d", p.Year)
	}
	return nil
}

func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, p.Month)
}

// Start returns the first day of the period.
func (p Period) Start() Date {
	return NewDate(p.Year, p.Month, 1)
}

// End returns the last day of the period.
func (p Period) End() Date {
	return NewDate(p.Year, p.Month, DaysInMonth(p.Year, p.Month))
}

// Contains reports whether d falls inside the period.
func (p Period) Contains(d Date) bool {
	return d.Year() == p.Year && d.Month() == p.Month
}

// Days returns 1..N for the period.
func (p Period) Days() []int {
	return MonthDays(p.Year, p.Month)
}

// DaysInMonth returns the number of days in the month, leap years included.
func DaysInMonth(year, month int) int {
	// Day 0 of the next month normalises to the last day of this one.
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// MonthDays returns the ordered day numbers 1..N of the month.
func MonthDays(year, month int) []int {
	n := DaysInMonth(year, month)
	days := make([]int, n)
	for i := range days {
		days[i] = i + 1
	}
	return days
}

// SelectablePeriods lists the periods a report can be requested for:
// January..now's month of the current year, then January..December of
// the previous year.
func SelectablePeriods(now time.Time) []Period {
	current := PeriodOf(now)
	out := make([]Period, 0, 24)
	for year := current.Year; year >= current.Year-1; year-- {
		last := 12
		if year == current.Year {
			last = current.Month
		}
		for month := 1; month <= last; month++ {
			out = append(out, Period{Year: year, Month: month})
		}
	}
	return out
}
