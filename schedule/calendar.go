/*
Package schedule maps calendar dates to the shift codes active on them.

PURPOSE:
  The site runs a fixed weekly pattern: every weekday has a known set of
  day-shift codes and night-shift codes (e.g. Wednesday day shift is DA+DB).
  This package answers the single question "which shift codes are working on
  this date?" for the rest of the engine.

KEY CONCEPTS:
  - ShiftType: Day, Night, or Both (Both = deduplicated union)
  - Shift code: two-letter token (DA, NB, ...) naming a shift pattern
  - Local dates: the date string is interpreted as a LOCAL calendar date.
    Parsing "2024-06-05" through a UTC-based path shifts the weekday for
    users west of UTC, which silently activates the wrong codes. The parser
    here splits the string by hand and never converts through an instant.

DESIGN:
  Pure lookup, no configuration, no persistence, no errors: an unparseable
  date or unknown shift type yields an empty set.

SEE ALSO:
  - roster/eligibility.go: consumes ActiveCodes for the scheduled-population filter
*/
package schedule

import (
	"sort"
	"strconv"
	"strings"
	"time"
)

// ShiftType selects which half of the weekly table applies.
type ShiftType string

const (
	ShiftDay   ShiftType = "day"
	ShiftNight ShiftType = "night"
	ShiftBoth  ShiftType = "both"
)

// ParseShiftType normalizes selector values ("Day", "NIGHT", ...) into a
// ShiftType. Unrecognized values default to ShiftDay.
func ParseShiftType(s string) ShiftType {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "night":
		return ShiftNight
	case "both":
		return ShiftBoth
	default:
		return ShiftDay
	}
}

// =============================================================================
// WEEKLY TABLE - fixed 7x2 lookup, Sunday = 0
// =============================================================================

var dayCodes = [7][]string{
	0: {"DA", "DL", "DC", "DH"},
	1: {"DA", "DL", "DC", "DH"},
	2: {"DA", "DL", "DC"},
	3: {"DA", "DB"},
	4: {"DB", "DN", "DC"},
	5: {"DB", "DN", "DC", "DH"},
	6: {"DB", "DN", "DL", "DH"},
}

var nightCodes = [7][]string{
	0: {"NA", "NL", "NC", "NH"},
	1: {"NA", "NL", "NC", "NH"},
	2: {"NA", "NL", "NC"},
	3: {"NA", "NB"},
	4: {"NB", "NN", "NC"},
	5: {"NB", "NN", "NC", "NH"},
	6: {"NB", "NN", "NL", "NH"},
}

// Colors maps shift codes to the chip colors the board legend uses.
var Colors = map[string]string{
	"DA": "#7C3AED", "DB": "#16A34A", "DC": "#0EA5E9", "DL": "#F59E0B", "DN": "#22C55E", "DH": "#06B6D4",
	"NA": "#4F46E5", "NB": "#9333EA", "NC": "#2563EB", "NL": "#A855F7", "NN": "#1D4ED8", "NH": "#7C3AED",
}

// =============================================================================
// DATE HANDLING
// =============================================================================

// ParseLocalDate parses "YYYY-MM-DD" as a local calendar date. The weekday of
// the result is the calendar weekday of the date itself, independent of the
// caller's zone offset. Returns ok=false for anything unparseable.
func ParseLocalDate(s string) (time.Time, bool) {
	parts := strings.Split(strings.TrimSpace(s), "-")
	if len(parts) != 3 {
		return time.Time{}, false
	}
	y, err1 := strconv.Atoi(parts[0])
	m, err2 := strconv.Atoi(parts[1])
	d, err3 := strconv.Atoi(parts[2])
	if err1 != nil || err2 != nil || err3 != nil {
		return time.Time{}, false
	}
	if y < 1 || m < 1 || m > 12 || d < 1 || d > 31 {
		return time.Time{}, false
	}
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.Local), true
}

// Weekday returns the local calendar weekday (0=Sunday..6=Saturday) of a
// date string, and ok=false if the string does not parse.
func Weekday(date string) (int, bool) {
	t, ok := ParseLocalDate(date)
	if !ok {
		return 0, false
	}
	return int(t.Weekday()), true
}

// DateInRange reports whether date falls inside [start, end], inclusive, at
// calendar-day granularity. An unparseable start disables the range; an
// unparseable or empty end collapses the range to the start day.
func DateInRange(date, start, end string) bool {
	d, ok := ParseLocalDate(date)
	if !ok {
		return false
	}
	s, ok := ParseLocalDate(start)
	if !ok {
		return false
	}
	e, ok := ParseLocalDate(end)
	if !ok {
		e = s
	}
	return !d.Before(s) && !d.After(e)
}

// =============================================================================
// ACTIVE CODES
// =============================================================================

// ActiveCodes returns the sorted shift codes working on the given date for
// the given shift type. Unknown dates yield an empty slice.
func ActiveCodes(date string, shift ShiftType) []string {
	wd, ok := Weekday(date)
	if !ok {
		return nil
	}
	var codes []string
	switch shift {
	case ShiftDay:
		codes = append(codes, dayCodes[wd]...)
	case ShiftNight:
		codes = append(codes, nightCodes[wd]...)
	case ShiftBoth:
		seen := make(map[string]bool)
		for _, c := range dayCodes[wd] {
			if !seen[c] {
				seen[c] = true
				codes = append(codes, c)
			}
		}
		for _, c := range nightCodes[wd] {
			if !seen[c] {
				seen[c] = true
				codes = append(codes, c)
			}
		}
	default:
		return nil
	}
	sort.Strings(codes)
	return codes
}

// CodeSet returns ActiveCodes as a membership set.
func CodeSet(date string, shift ShiftType) map[string]bool {
	set := make(map[string]bool)
	for _, c := range ActiveCodes(date, shift) {
		set[c] = true
	}
	return set
}
