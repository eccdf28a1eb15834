package calendar

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Region selects a set of civil holidays.
type Region string

const (
	RegionUS Region = "US"
	RegionGB Region = "GB"
)

// ParseRegion parses a region code, ignoring case.
func ParseRegion(s string) (Region, error) {
	switch r := Region(strings.ToUpper(strings.TrimSpace(s))); r {
	case RegionUS, RegionGB:
		return r, nil
	}
	return "", fmt.Errorf("unknown holiday region %q (want US or GB)", s)
}

// Holiday is a civil holiday resolved to a date.
type Holiday struct {
	Date time.Time `json:"date"`
	Name string    `json:"name"`
}

// FixedHoliday falls on the same month and day every year.
type FixedHoliday struct {
	Month time.Month
	Day   int
	Name  string
}

// FloatingHoliday is the nth (or last, -1) weekday of a month.
type FloatingHoliday struct {
	Nth     int
	Weekday time.Weekday
	Month   time.Month
	Name    string
}

// EasterHoliday sits a fixed number of days from Easter Sunday.
type EasterHoliday struct {
	Offset int
	Name   string
}

type holidaySet struct {
	fixed    []FixedHoliday
	floating []FloatingHoliday
	easter   []EasterHoliday
}

// Substitute days for holidays falling on a weekend are not included.
var holidaySets = map[Region]holidaySet{
	RegionUS: {
		fixed: []FixedHoliday{
			{time.January, 1, "New Year's Day"},
			{time.June, 19, "Juneteenth"},
			{time.July, 4, "Independence Day"},
			{time.November, 11, "Veterans Day"},
			{time.December, 25, "Christmas Day"},
		},
		floating: []FloatingHoliday{
			{3, time.Monday, time.January, "Martin Luther King Jr. Day"},
			{3, time.Monday, time.February, "Presidents Day"},
			{-1, time.Monday, time.May, "Memorial Day"},
			{1, time.Monday, time.September, "Labor Day"},
			{2, time.Monday, time.October, "Columbus Day"},
			{4, time.Thursday, time.November, "Thanksgiving Day"},
		},
	},
	RegionGB: {
		fixed: []FixedHoliday{
			{time.January, 1, "New Year's Day"},
			{time.December, 25, "Christmas Day"},
			{time.December, 26, "Boxing Day"},
		},
		floating: []FloatingHoliday{
			{1, time.Monday, time.May, "Early May bank holiday"},
			{-1, time.Monday, time.May, "Spring bank holiday"},
			{-1, time.Monday, time.August, "Summer bank holiday"},
		},
		easter: []EasterHoliday{
			{-2, "Good Friday"},
			{1, "Easter Monday"},
		},
	},
}

// NthWeekday returns the nth weekday of a month, counting from the end of
// the month when n is negative. It reports false when the month has no such
// day (a fifth Monday, for instance).
func NthWeekday(year int, month time.Month, weekday time.Weekday, n int) (time.Time, bool) {
	if n == 0 {
		return time.Time{}, false
	}
	var monthOffset time.Month
	nOffset := 1
	if n < 0 {
		monthOffset = 1
		nOffset = 0
	}

	first := time.Date(year, month+monthOffset, 1, 0, 0, 0, 0, time.UTC)
	target := NextOrSame(first, weekday).AddDate(0, 0, (n-nOffset)*7)
	if target.Month() != month {
		return time.Time{}, false
	}
	return target, true
}

// Holidays returns the civil holidays of a region in year, ordered by date.
func Holidays(region Region, year int) ([]Holiday, error) {
	set, ok := holidaySets[region]
	if !ok {
		return nil, fmt.Errorf("unknown holiday region %q", region)
	}

	out := make([]Holiday, 0, len(set.fixed)+len(set.floating)+len(set.easter))
	for _, h := range set.fixed {
		out = append(out, Holiday{Date: time.Date(year, h.Month, h.Day, 0, 0, 0, 0, time.UTC), Name: h.Name})
	}
	for _, h := range set.floating {
		d, ok := NthWeekday(year, h.Month, h.Weekday, h.Nth)
		if !ok {
			continue
		}
		out = append(out, Holiday{Date: d, Name: h.Name})
	}
	for _, h := range set.easter {
		d, err := EasterDate(year, h.Offset, time.Time{})
		if err != nil {
			return nil, fmt.Errorf("%s %d: %w", h.Name, year, err)
		}
		out = append(out, Holiday{Date: d, Name: h.Name})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}
