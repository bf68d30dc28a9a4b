package core

import (
	"fmt"
	"time"
)

// MonthRef identifies a calendar month.
type MonthRef struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
}

// MonthOf returns the calendar month containing t.
func MonthOf(t time.Time) MonthRef {
	return MonthRef{Year: t.Year(), Month: t.Month()}
}

func (m MonthRef) Validate() error {
	if m.Month < time.January || m.Month > time.December {
		return ErrInvalidMonth
	}
	if m.Year < 1 {
		return ErrInvalidMonth
	}
	return nil
}

// Previous returns the month before m, wrapping January to December of the prior year.
func (m MonthRef) Previous() MonthRef {
	if m.Month == time.January {
		return MonthRef{Year: m.Year - 1, Month: time.December}
	}
	return MonthRef{Year: m.Year, Month: m.Month - 1}
}

// Next returns the month after m.
func (m MonthRef) Next() MonthRef {
	if m.Month == time.December {
		return MonthRef{Year: m.Year + 1, Month: time.January}
	}
	return MonthRef{Year: m.Year, Month: m.Month + 1}
}

// Start returns the first instant of the month in loc.
func (m MonthRef) Start(loc *time.Location) time.Time {
	return time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, loc)
}

// Contains reports calendar-month membership, evaluated in t's own location.
func (m MonthRef) Contains(t time.Time) bool {
	return t.Year() == m.Year && t.Month() == m.Month
}

// Key is a stable "YYYY-MM" identifier.
func (m MonthRef) Key() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

func (m MonthRef) String() string {
	return m.Key()
}

// AddMonthsClamped moves t forward by n months keeping the day of month,
// clamped to the last day of the target month (Jan 31 + 1 = Feb 28/29).
func AddMonthsClamped(t time.Time, n int) time.Time {
	y, mo, d := t.Date()
	first := time.Date(y, mo+time.Month(n), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	lastDay := time.Date(first.Year(), first.Month()+1, 0, 0, 0, 0, 0, t.Location()).Day()
	if d > lastDay {
		d = lastDay
	}
	return time.Date(first.Year(), first.Month(), d, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}
