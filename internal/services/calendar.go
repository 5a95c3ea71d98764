package services

import (
	"time"
)

var earliestEntryDate = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)

// Calendar turns the server clock into calendar dates in one configured zone.
// Dates are returned as midnight UTC so they compare and store uniformly.
type Calendar struct {
	loc *time.Location
	now func() time.Time
}

// NewCalendar creates a Calendar. Nil arguments select UTC and time.Now.
func NewCalendar(loc *time.Location, now func() time.Time) *Calendar {
	if loc == nil {
		loc = time.UTC
	}
	if now == nil {
		now = time.Now
	}
	return &Calendar{loc: loc, now: now}
}

// Now returns the current instant.
func (c *Calendar) Now() time.Time {
	return c.now()
}

// Today returns the current calendar date in the configured zone.
func (c *Calendar) Today() time.Time {
	return c.DateOf(c.now())
}

// DateOf truncates t to its calendar date in the configured zone.
func (c *Calendar) DateOf(t time.Time) time.Time {
	y, m, d := t.In(c.loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD value.
func ParseDate(value string) (time.Time, error) {
	t, err := time.Parse(time.DateOnly, value)
	if err != nil {
		return time.Time{}, validationError("date %q must be formatted YYYY-MM-DD", value)
	}
	return t, nil
}

// ParseEntryDate parses a client-supplied entry date and rejects values that
// are implausible for the server clock: before 2000-01-01 or more than one
// day after today, which covers every time zone offset.
func (c *Calendar) ParseEntryDate(value string) (time.Time, error) {
	date, err := ParseDate(value)
	if err != nil {
		return time.Time{}, err
	}
	if date.Before(earliestEntryDate) {
		return time.Time{}, validationError("entry_date %s is too far in the past", value)
	}
	if date.After(c.Today().AddDate(0, 0, 1)) {
		return time.Time{}, validationError("entry_date %s is in the future", value)
	}
	return date, nil
}
