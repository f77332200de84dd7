// Package datetime holds the calendar arithmetic shared by the scheduler,
// the ledger and the budget monitor. Dates are normalised to UTC midnight
// unless a location is passed explicitly.
package datetime

import (
	"encoding/json"
	"strings"
	"time"
)

const (
	// DateFormat is the wire format for date-only values.
	DateFormat = "2006-01-02"

	// DisplayDateFormat is used in notification bodies.
	DisplayDateFormat = "Jan 2, 2006"
)

// Date is a calendar day that travels as "YYYY-MM-DD" in JSON.
type Date struct {
	time.Time
}

// NewDate returns the UTC midnight of the given day.
func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day in t's own location, then pins it to UTC.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateFormat, s)
	if err != nil {
		return Date{}, err
	}
	return Date{t}, nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.Format(DateFormat))
}

// UnmarshalJSON accepts "YYYY-MM-DD" or a full RFC3339 timestamp, keeping only the day.
func (d *Date) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), "\"")
	if s == "" || s == "null" {
		return nil
	}

	if t, err := time.Parse(DateFormat, s); err == nil {
		d.Time = t
		return nil
	}

	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return err
	}
	*d = DateOf(t)
	return nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateFormat)
}

// Ptr returns nil for the zero Date so optional columns stay NULL.
func (d Date) Ptr() *time.Time {
	if d.IsZero() {
		return nil
	}
	t := d.Time
	return &t
}

// DaysIn returns the number of days in month of year.
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// AddMonthsClamped moves t by n calendar months. When the target month is
// shorter than anchorDay, the result is the last day of that month. The
// clock part of t is preserved.
func AddMonthsClamped(t time.Time, n int, anchorDay int) time.Time {
	y, m, _ := t.Date()
	total := int(m) - 1 + n
	y += floorDiv(total, 12)
	m = time.Month(floorMod(total, 12) + 1)

	day := anchorDay
	if last := DaysIn(y, m); day > last {
		day = last
	}
	if day < 1 {
		day = 1
	}
	return time.Date(y, m, day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

// AddYearsClamped is AddMonthsClamped with a twelve-month step, so Feb 29
// lands on Feb 28 in common years.
func AddYearsClamped(t time.Time, n int, anchorDay int) time.Time {
	return AddMonthsClamped(t, 12*n, anchorDay)
}

func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func StartOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// MonthRange returns [first day, first day of next month) in UTC.
func MonthRange(year int, month time.Month) (time.Time, time.Time) {
	return MonthRangeIn(year, month, time.UTC)
}

// MonthRangeIn is MonthRange with calendar boundaries taken in loc.
func MonthRangeIn(year int, month time.Month, loc *time.Location) (time.Time, time.Time) {
	start := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 1, 0)
}

// PreviousMonth returns the month and year immediately before t's month.
func PreviousMonth(t time.Time) (int, time.Month) {
	prev := StartOfMonth(t).AddDate(0, -1, 0)
	return prev.Year(), prev.Month()
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func floorMod(a, b int) int {
	return a - floorDiv(a, b)*b
}
