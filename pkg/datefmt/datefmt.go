// Package datefmt is the single place where the console translates between
// the date forms used by the library API and the calendar form used by the
// edit dialogs.
//
// Stored dates of birth arrive either as ISO dates (2006-01-02, optionally
// with a time part) or slash-delimited day-first strings (02/01/2006).
// Dialogs always work with the calendar form; the API always receives the
// slash-delimited form.
package datefmt

import (
	"fmt"
	"strings"
	"time"
)

const (
	// CalendarLayout is the edit-friendly form shown in dialogs.
	CalendarLayout = "2006-01-02"
	// StorageLayout is the slash-delimited form persisted by the library API.
	StorageLayout = "02/01/2006"
)

var instantLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	CalendarLayout,
	StorageLayout,
}

// ParseDate accepts any supported stored or calendar form and returns the
// calendar day it names, at midnight UTC.
func ParseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	if strings.Contains(raw, "/") {
		t, err := time.Parse(StorageLayout, raw)
		if err != nil {
			return time.Time{}, fmt.Errorf("parse %q as DD/MM/YYYY: %w", raw, err)
		}
		return t, nil
	}
	if len(raw) > len(CalendarLayout) {
		t, err := ParseInstant(raw)
		if err != nil {
			return time.Time{}, err
		}
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	t, err := time.Parse(CalendarLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse %q as YYYY-MM-DD: %w", raw, err)
	}
	return t, nil
}

// ToCalendar converts a stored date into the calendar form. Empty input stays empty.
func ToCalendar(stored string) (string, error) {
	if strings.TrimSpace(stored) == "" {
		return "", nil
	}
	t, err := ParseDate(stored)
	if err != nil {
		return "", err
	}
	return t.Format(CalendarLayout), nil
}

// ToStorage converts a calendar (or already stored) date into the stored form.
// Empty input stays empty.
func ToStorage(calendar string) (string, error) {
	if strings.TrimSpace(calendar) == "" {
		return "", nil
	}
	t, err := ParseDate(calendar)
	if err != nil {
		return "", err
	}
	return t.Format(StorageLayout), nil
}

// ParseInstant parses timestamps returned by the API, such as ban expiry.
func ParseInstant(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range instantLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", raw)
}

// StartOfDay truncates t to midnight in its own location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// EndOfDay returns the last second of t's calendar day in loc.
func EndOfDay(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, 0, loc)
}

// AddDays returns the calendar day n days after t's day, at midnight in t's location.
func AddDays(t time.Time, n int) time.Time {
	return StartOfDay(t).AddDate(0, 0, n)
}
