package task

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	// DisplayLayout is the human-readable due date format, e.g. "May 16, 2025".
	DisplayLayout = "January 2, 2006"
	// StorageLayout is the format valid due dates are persisted in.
	StorageLayout = "2006-01-02"
)

// DueDate is a calendar day without time of day. Text that cannot be parsed is
// kept verbatim in an invalid DueDate so legacy rows survive a round trip; an
// invalid date never compares equal, before or after anything.
type DueDate struct {
	day time.Time // midnight UTC, zero when invalid
	raw string
}

// Date returns the due date for the given civil day.
func Date(year int, month time.Month, day int) DueDate {
	return DueDate{day: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf returns the calendar day of t in t's own location.
func DateOf(t time.Time) DueDate {
	y, m, d := t.Date()
	return Date(y, m, d)
}

// ParseDueDate accepts DisplayLayout (month names are matched case-insensitively)
// and StorageLayout. Anything else yields an invalid DueDate holding s.
func ParseDueDate(s string) DueDate {
	v := strings.TrimSpace(s)
	for _, layout := range []string{DisplayLayout, StorageLayout} {
		if t, err := time.Parse(layout, v); err == nil {
			return DateOf(t)
		}
	}
	return DueDate{raw: s}
}

func (d DueDate) Valid() bool {
	return !d.day.IsZero()
}

// Raw returns the original text of an invalid date.
func (d DueDate) Raw() string {
	return d.raw
}

// Time returns midnight UTC of the day. The zero time for invalid dates.
func (d DueDate) Time() time.Time {
	return d.day
}

func (d DueDate) Equal(o DueDate) bool {
	return d.Valid() && o.Valid() && d.day.Equal(o.day)
}

func (d DueDate) Before(o DueDate) bool {
	return d.Valid() && o.Valid() && d.day.Before(o.day)
}

func (d DueDate) After(o DueDate) bool {
	return d.Valid() && o.Valid() && d.day.After(o.day)
}

// Between reports whether from <= d <= to.
func (d DueDate) Between(from, to DueDate) bool {
	return d.Valid() && !d.Before(from) && !d.After(to) && from.Valid() && to.Valid()
}

func (d DueDate) AddDays(n int) DueDate {
	if !d.Valid() {
		return d
	}
	return DueDate{day: d.day.AddDate(0, 0, n)}
}

// ISOWeekday returns 1 for Monday through 7 for Sunday.
func (d DueDate) ISOWeekday() int {
	wd := int(d.day.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}

// String renders the date in DisplayLayout, or the raw text when invalid.
func (d DueDate) String() string {
	if !d.Valid() {
		return d.raw
	}
	return d.day.Format(DisplayLayout)
}

// Encode returns the persisted form of the date.
func (d DueDate) Encode() string {
	if !d.Valid() {
		return d.raw
	}
	return d.day.Format(StorageLayout)
}

// ResolveDueDate reads user input relative to today: "today", "tomorrow",
// "+N" for N days ahead, or either date layout.
func ResolveDueDate(s string, today DueDate) (DueDate, error) {
	v := strings.TrimSpace(s)
	switch strings.ToLower(v) {
	case "", "today":
		return today, nil
	case "tomorrow":
		return today.AddDays(1), nil
	}
	if rest, ok := strings.CutPrefix(v, "+"); ok {
		n, err := strconv.Atoi(rest)
		if err != nil || n < 0 {
			return DueDate{}, fmt.Errorf("bad day offset %q", v)
		}
		return today.AddDays(n), nil
	}
	due := ParseDueDate(v)
	if !due.Valid() {
		return DueDate{}, fmt.Errorf("unrecognised due date %q (try %q or %q)", v, DisplayLayout, StorageLayout)
	}
	return due, nil
}
