package core

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"time"
)

// DayFormat is the wire and storage format for calendar dates.
const DayFormat = "2006-01-02"

// Day is a calendar date. The embedded time is always UTC midnight so two
// Days built from the same date compare equal.
type Day struct {
	time.Time
}

// Window is an inclusive date range.
type Window struct {
	From Day
	To   Day
}

func NewDay(year, month, day int) Day {
	return Day{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DayOf truncates a time to its UTC calendar date.
func DayOf(t time.Time) Day {
	y, m, d := t.UTC().Date()
	return NewDay(y, int(m), d)
}

// Today returns the current date in UTC.
func Today() Day {
	return DayOf(time.Now())
}

// ParseDay parses a YYYY-MM-DD string.
func ParseDay(s string) (Day, error) {
	t, err := time.Parse(DayFormat, s)
	if err != nil {
		return Day{}, ErrInvalidDate
	}
	return Day{Time: t}, nil
}

func (d Day) String() string {
	return d.Format(DayFormat)
}

func (d Day) AddDays(n int) Day {
	return Day{Time: d.AddDate(0, 0, n)}
}

func (d Day) Before(o Day) bool { return d.Time.Before(o.Time) }
func (d Day) After(o Day) bool  { return d.Time.After(o.Time) }
func (d Day) Equal(o Day) bool  { return d.Time.Equal(o.Time) }

// FirstOfMonth returns the first day of d's month, used to key monthly
// series such as inflation.
func (d Day) FirstOfMonth() Day {
	return NewDay(d.Year(), int(d.Month()), 1)
}

func (d Day) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte(`""`), nil
	}
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Day) UnmarshalJSON(b []byte) error {
	s := string(b)
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return ErrInvalidDate
	}
	s = s[1 : len(s)-1]
	if s == "" {
		*d = Day{}
		return nil
	}
	parsed, err := ParseDay(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Value stores the date as YYYY-MM-DD text; the zero Day stores as NULL.
func (d Day) Value() (driver.Value, error) {
	if d.IsZero() {
		return nil, nil
	}
	return d.String(), nil
}

func (d *Day) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*d = Day{}
		return nil
	case string:
		parsed, err := ParseDay(v)
		if err != nil {
			return fmt.Errorf("scanning day from %q: %w", v, err)
		}
		*d = parsed
		return nil
	case []byte:
		return d.Scan(string(v))
	case time.Time:
		*d = DayOf(v)
		return nil
	default:
		return fmt.Errorf("scanning day: unsupported type %T", src)
	}
}

// YearWindows splits [start, today] into calendar-year fetch windows: the
// start date through Dec 31 of its year, one window per full year between,
// and Jan 1 of the current year through tomorrow. The trailing extra day
// keeps same-day expenses inside a dated_before bound.
func YearWindows(start, today Day) ([]Window, error) {
	if start.IsZero() || today.IsZero() {
		return nil, ErrInvalidDate
	}
	if start.After(today) {
		return nil, errors.New("start date is in the future")
	}

	windows := []Window{{From: start, To: NewDay(start.Year(), 12, 31)}}
	for year := start.Year() + 1; year < today.Year(); year++ {
		windows = append(windows, Window{
			From: NewDay(year, 1, 1),
			To:   NewDay(year, 12, 31),
		})
	}
	windows = append(windows, Window{
		From: NewDay(today.Year(), 1, 1),
		To:   today.AddDays(1),
	})
	return windows, nil
}
