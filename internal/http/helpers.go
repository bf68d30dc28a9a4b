package http

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"carteira/internal/core"
)

const dateLayout = "2006-01-02"

// parseMonth reads year and month from the query, defaulting each to the
// month containing now.
func parseMonth(q url.Values, now time.Time) (core.MonthRef, error) {
	month := core.MonthOf(now)
	if v := strings.TrimSpace(q.Get("year")); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil {
			return core.MonthRef{}, badRequest("invalid year %q", v)
		}
		month.Year = y
	}
	if v := strings.TrimSpace(q.Get("month")); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil {
			return core.MonthRef{}, badRequest("invalid month %q", v)
		}
		month.Month = time.Month(m)
	}
	if err := month.Validate(); err != nil {
		return core.MonthRef{}, err
	}
	return month, nil
}

// parseDate parses a YYYY-MM-DD date as midnight UTC.
func parseDate(s string) (time.Time, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, core.ErrInvalidDate
	}
	return t, nil
}

// sanitizeInput drops control characters other than tab and newlines and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
