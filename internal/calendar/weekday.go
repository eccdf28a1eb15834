// Package calendar provides the calendar arithmetic behind annual gathering
// rules: weekday codes, ordinal positions, signed day-of-year windows, the
// Easter table, the named special days and civil holidays.
package calendar

import (
	"strconv"
	"strings"
	"time"
)

var weekdayCodes = [7]string{"SU", "MO", "TU", "WE", "TH", "FR", "SA"}

// WeekdayCode returns the two-letter code (SU, MO, ...) used in recurrence
// expressions, or "" for an out of range weekday.
func WeekdayCode(wd time.Weekday) string {
	if !ValidWeekday(wd) {
		return ""
	}
	return weekdayCodes[wd]
}

// ParseWeekdayCode parses a two-letter weekday code. Matching is case
// insensitive.
func ParseWeekdayCode(code string) (time.Weekday, bool) {
	code = strings.ToUpper(code)
	for i, c := range weekdayCodes {
		if c == code {
			return time.Weekday(i), true
		}
	}
	return time.Sunday, false
}

// ValidWeekday reports whether wd is one of the seven weekdays.
func ValidWeekday(wd time.Weekday) bool {
	return wd >= time.Sunday && wd <= time.Saturday
}

// DayName returns the day of week name (Sunday, Monday, etc.)
func DayName(wd time.Weekday) string {
	return wd.String()
}

// AddWeekdays moves wd by n days, wrapping around the week.
func AddWeekdays(wd time.Weekday, n int) time.Weekday {
	return time.Weekday(((int(wd)+n)%7 + 7) % 7)
}

// OrdinalWord returns the English word for a weekday ordinal:
// first, second, third, fourth or last (-1).
func OrdinalWord(n int) string {
	switch n {
	case 1:
		return "first"
	case 2:
		return "second"
	case 3:
		return "third"
	case 4:
		return "fourth"
	case 5:
		return "fifth"
	case -1:
		return "last"
	}
	return ""
}

// OrdinalWeekdayPosition returns which occurrence of its weekday the date is
// within its month (1 for days 1-7, 2 for 8-14, ...) together with the weekday.
func OrdinalWeekdayPosition(date time.Time) (int, time.Weekday) {
	return (date.Day()-1)/7 + 1, date.Weekday()
}

// IsLastOfKind reports whether the date is the last occurrence of its weekday
// in its month.
func IsLastOfKind(date time.Time) bool {
	return date.AddDate(0, 0, 7).Month() != date.Month()
}

// NextOrSame returns the first date on or after date that falls on wd.
func NextOrSame(date time.Time, wd time.Weekday) time.Time {
	return date.AddDate(0, 0, (int(wd)-int(date.Weekday())+7)%7)
}

// isoIndex orders weekdays Monday first.
func isoIndex(wd time.Weekday) int {
	return (int(wd) + 6) % 7
}

// OffsetDelta returns the signed number of days between an anchor weekday
// and the target weekday of a before (sign < 0) or after (sign > 0) offset.
//
// Weekdays are compared in Monday-first order. A positive offset always moves
// forward to the next target weekday. A negative offset moves back by the
// distance between the two within that week, and a full week when they match.
//
//	OffsetDelta(time.Tuesday, -1, time.Monday)   // -1
//	OffsetDelta(time.Monday, -1, time.Sunday)    // -6
//	OffsetDelta(time.Monday, 1, time.Sunday)     // 6
func OffsetDelta(anchor time.Weekday, sign int, target time.Weekday) int {
	diff := isoIndex(target) - isoIndex(anchor)
	if sign > 0 {
		if diff <= 0 {
			diff += 7
		}
		return diff
	}
	switch {
	case diff == 0:
		return -7
	case diff > 0:
		return -diff
	}
	return diff
}

// =============================================================================
// Signed day-of-year arithmetic
// =============================================================================

// Day-of-year values follow the recurrence expression convention: positive
// values count forward from January 1 (1), negative values count back from
// December 31 (-1). There is no day zero.
//
// January and February use positive values, March through December use
// negative ones, so a value names the same calendar date in leap and
// non-leap years.
var monthStartYearDay = [14]int{
	0,
	1,    // January
	32,   // February
	-306, // March
	-275, // April
	-245, // May
	-214, // June
	-184, // July
	-153, // August
	-122, // September
	-92,  // October
	-61,  // November
	-31,  // December
	1,    // January of the following year
}

// MonthStartYearDay returns the signed day-of-year of the first day of the
// month. Passing time.December+1 yields the first day of the next year.
func MonthStartYearDay(m time.Month) int {
	return monthStartYearDay[m]
}

// YearDayAdd adds delta days to a signed day-of-year, skipping the
// nonexistent day zero when crossing the year boundary.
func YearDayAdd(yearDay, delta int) int {
	r := yearDay + delta
	if yearDay > 0 && r <= 0 {
		r--
	}
	if yearDay < 0 && r >= 0 {
		r++
	}
	return r
}

// YearDayOf returns the signed day-of-year for a month and day of month.
func YearDayOf(m time.Month, day int) int {
	return YearDayAdd(monthStartYearDay[m], day-1)
}

// Window is seven consecutive signed days-of-year. Exactly one of them falls
// on any given weekday in every year.
type Window [7]int

// WindowFrom returns the seven days starting at yearDay.
func WindowFrom(yearDay int) Window {
	var w Window
	for i := range w {
		w[i] = YearDayAdd(yearDay, i)
	}
	return w
}

// AnchorWindow returns the days in which the nth weekday of a month can fall.
// An ordinal of -1 selects the last seven days of the month.
func AnchorWindow(m time.Month, ordinal int) Window {
	if ordinal < 0 {
		return WindowFrom(YearDayAdd(monthStartYearDay[m+1], 7*ordinal))
	}
	return WindowFrom(YearDayAdd(monthStartYearDay[m], 7*(ordinal-1)))
}

// DateWindow returns the seven days immediately before (sign < 0) or after
// (sign > 0) a fixed month and day.
func DateWindow(m time.Month, day, sign int) Window {
	yd := YearDayOf(m, day)
	if sign < 0 {
		return WindowFrom(YearDayAdd(yd, -7))
	}
	return WindowFrom(YearDayAdd(yd, 1))
}

// Shift moves every day of the window by delta days.
func (w Window) Shift(delta int) Window {
	var out Window
	for i, yd := range w {
		out[i] = YearDayAdd(yd, delta)
	}
	return out
}

// String renders the window as a comma separated list.
func (w Window) String() string {
	var b strings.Builder
	for i, yd := range w {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Itoa(yd))
	}
	return b.String()
}

// Date resolves a signed day-of-year in the given year.
func Date(year, yearDay int, loc *time.Location) time.Time {
	if yearDay > 0 {
		return time.Date(year, time.January, yearDay, 0, 0, 0, 0, loc)
	}
	return time.Date(year, time.December, 32+yearDay, 0, 0, 0, 0, loc)
}
