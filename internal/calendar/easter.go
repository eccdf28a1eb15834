package calendar

import (
	"errors"
	"fmt"
	"time"
)

// ErrYearOutOfRange is returned when a year falls outside the span covered by
// the Easter table.
var ErrYearOutOfRange = errors.New("year outside Easter table coverage")

// MetonicEntry is one row of the 19-year lunar cycle used to date Easter.
// Years sharing a golden number share a paschal full moon date within the
// entry's validity span.
type MetonicEntry struct {
	GoldenNumber int
	// FullMoon is the paschal full moon as days after March 21.
	FullMoon  int
	FirstYear int
	LastYear  int
}

// Covers reports whether the entry is valid for year.
func (e MetonicEntry) Covers(year int) bool {
	return year >= e.FirstYear && year <= e.LastYear
}

// Window returns the seven days after the paschal full moon, expressed as
// days after March 21. Easter is the Sunday among them.
func (e MetonicEntry) Window() [7]int {
	var w [7]int
	for i := range w {
		w[i] = e.FullMoon + i + 1
	}
	return w
}

// The Gregorian epact cycle only changes at the century corrections of 1900
// and 2200, so one set of full moon dates serves 1900 through 2199.
const (
	metonicFirstYear = 1900
	metonicLastYear  = 2199
)

var metonicCycle = [19]MetonicEntry{
	{GoldenNumber: 1, FullMoon: 24},  // April 14
	{GoldenNumber: 2, FullMoon: 13},  // April 3
	{GoldenNumber: 3, FullMoon: 2},   // March 23
	{GoldenNumber: 4, FullMoon: 21},  // April 11
	{GoldenNumber: 5, FullMoon: 10},  // March 31
	{GoldenNumber: 6, FullMoon: 28},  // April 18
	{GoldenNumber: 7, FullMoon: 18},  // April 8
	{GoldenNumber: 8, FullMoon: 7},   // March 28
	{GoldenNumber: 9, FullMoon: 26},  // April 16
	{GoldenNumber: 10, FullMoon: 15}, // April 5
	{GoldenNumber: 11, FullMoon: 4},  // March 25
	{GoldenNumber: 12, FullMoon: 23}, // April 13
	{GoldenNumber: 13, FullMoon: 12}, // April 2
	{GoldenNumber: 14, FullMoon: 1},  // March 22
	{GoldenNumber: 15, FullMoon: 20}, // April 10
	{GoldenNumber: 16, FullMoon: 9},  // March 30
	{GoldenNumber: 17, FullMoon: 27}, // April 17
	{GoldenNumber: 18, FullMoon: 17}, // April 7
	{GoldenNumber: 19, FullMoon: 6},  // March 27
}

func init() {
	for i := range metonicCycle {
		metonicCycle[i].FirstYear = metonicFirstYear
		metonicCycle[i].LastYear = metonicLastYear
	}
}

// GoldenNumber returns the position of year in the 19-year lunar cycle (1-19).
func GoldenNumber(year int) int {
	return year%19 + 1
}

// MetonicTable returns a copy of the Easter table ordered by golden number.
func MetonicTable() []MetonicEntry {
	out := make([]MetonicEntry, len(metonicCycle))
	copy(out, metonicCycle[:])
	return out
}

// EasterDate returns Easter Sunday of year moved by dayOffset days, at the
// clock time and location of timeOfDay.
//
// Easter is the first Sunday strictly after the paschal full moon. Years
// outside the table's span return ErrYearOutOfRange.
func EasterDate(year, dayOffset int, timeOfDay time.Time) (time.Time, error) {
	if year < 0 {
		return time.Time{}, fmt.Errorf("%w: %d", ErrYearOutOfRange, year)
	}
	entry := metonicCycle[GoldenNumber(year)-1]
	if !entry.Covers(year) {
		return time.Time{}, fmt.Errorf("%w: %d not in %d-%d", ErrYearOutOfRange, year, entry.FirstYear, entry.LastYear)
	}

	var day int
	for _, d := range entry.Window() {
		if time.Date(year, time.March, 21+d, 0, 0, 0, 0, time.UTC).Weekday() == time.Sunday {
			day = 21 + d
			break
		}
	}

	return time.Date(year, time.March, day+dayOffset,
		timeOfDay.Hour(), timeOfDay.Minute(), timeOfDay.Second(), timeOfDay.Nanosecond(), timeOfDay.Location()), nil
}

// Easter returns Easter Sunday of year at midnight UTC.
func Easter(year int) (time.Time, error) {
	return EasterDate(year, 0, time.Time{})
}
