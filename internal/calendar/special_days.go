package calendar

import (
	"sort"
	"time"
)

// SpecialCategory says how a special day is placed in the year.
type SpecialCategory string

const (
	// CategoryFixedDate days fall on the same month and day every year.
	CategoryFixedDate SpecialCategory = "fixedDate"
	// CategoryFixedDay days fall on a given weekday within a seven day window.
	CategoryFixedDay SpecialCategory = "fixedDay"
	// CategoryEasterRelative days sit a fixed number of days from Easter.
	CategoryEasterRelative SpecialCategory = "easterRelative"
)

// SpecialDay is a named day that gathering rules can be anchored to.
type SpecialDay struct {
	Key      string          `json:"key"`
	Name     string          `json:"name"`
	Category SpecialCategory `json:"category"`

	// Month and Day are set for fixedDate days.
	Month time.Month `json:"month,omitempty"`
	Day   int        `json:"day,omitempty"`

	// Weekday is the day of week of fixedDay and easterRelative days.
	Weekday time.Weekday `json:"-"`
	// Window holds the seven candidate days-of-year of a fixedDay day.
	Window Window `json:"-"`
	// EasterOffset is the distance in days from Easter Sunday.
	EasterOffset int `json:"easter_offset,omitempty"`
}

// HasWeekday reports whether the day always falls on the same weekday.
func (s SpecialDay) HasWeekday() bool {
	return s.Category != CategoryFixedDate
}

// Names read naturally both on their own ("Easter") and after "before" or
// "after" ("the Sunday before the fifth Sunday after Independence Day").
var specialDays = []SpecialDay{
	{Key: "newYear", Name: "New Year's Day", Category: CategoryFixedDate, Month: time.January, Day: 1},
	{Key: "independenceDay", Name: "Independence Day", Category: CategoryFixedDate, Month: time.July, Day: 4},
	{Key: "christmas", Name: "Christmas Day", Category: CategoryFixedDate, Month: time.December, Day: 25},
	{Key: "boxingDay", Name: "Boxing Day", Category: CategoryFixedDate, Month: time.December, Day: 26},
	{Key: "dayAfterBoxingDay", Name: "the day after Boxing Day", Category: CategoryFixedDate, Month: time.December, Day: 27},

	{Key: "palmSunday", Name: "Palm Sunday", Category: CategoryEasterRelative, Weekday: time.Sunday, EasterOffset: -7},
	{Key: "easter", Name: "Easter", Category: CategoryEasterRelative, Weekday: time.Sunday, EasterOffset: 0},

	{Key: "fifthSundaySpring", Name: "the fifth Sunday of spring", Category: CategoryFixedDay, Weekday: time.Sunday,
		Window: Window{-278, -277, -276, -275, -274, -273, -272}},
	{Key: "mayDay", Name: "the May Day bank holiday", Category: CategoryFixedDay, Weekday: time.Monday,
		Window: Window{-245, -244, -243, -242, -241, -240, -239}},
	{Key: "whitsun", Name: "the Whitsun bank holiday", Category: CategoryFixedDay, Weekday: time.Monday,
		Window: Window{-221, -220, -219, -218, -217, -216, -215}},
	{Key: "armedForcesDay", Name: "Armed Forces Day", Category: CategoryFixedDay, Weekday: time.Saturday,
		Window: Window{-191, -190, -189, -188, -187, -186, -185}},
	{Key: "fifthSundayAfterIndependenceDay", Name: "the fifth Sunday after Independence Day", Category: CategoryFixedDay, Weekday: time.Sunday,
		Window: Window{-152, -151, -150, -149, -148, -147, -146}},
	{Key: "summerHoliday", Name: "the summer bank holiday", Category: CategoryFixedDay, Weekday: time.Monday,
		Window: Window{-129, -128, -127, -126, -125, -124, -123}},
	{Key: "fifthSundayAfterLabourDay", Name: "the fifth Sunday after Labour Day", Category: CategoryFixedDay, Weekday: time.Sunday,
		Window: Window{-88, -87, -86, -85, -84, -83, -82}},
	{Key: "fifthSundayBeforeThanksgiving", Name: "the fifth Sunday before Thanksgiving", Category: CategoryFixedDay, Weekday: time.Sunday,
		Window: Window{-72, -71, -70, -69, -68, -67, -66}},
	{Key: "clocksGoBack", Name: "the Saturday the clocks go back", Category: CategoryFixedDay, Weekday: time.Saturday,
		Window: Window{-68, -67, -66, -65, -64, -63, -62}},
	{Key: "remembranceSunday", Name: "Remembrance Sunday", Category: CategoryFixedDay, Weekday: time.Sunday,
		Window: Window{-54, -53, -52, -51, -50, -49, -48}},
	{Key: "thanksgiving", Name: "Thanksgiving", Category: CategoryFixedDay, Weekday: time.Thursday,
		Window: Window{-40, -39, -38, -37, -36, -35, -34}},
	{Key: "blackFriday", Name: "Black Friday", Category: CategoryFixedDay, Weekday: time.Friday,
		Window: Window{-39, -38, -37, -36, -35, -34, -33}},
	{Key: "fifthSundayLastInYear", Name: "the last Sunday of the year", Category: CategoryFixedDay, Weekday: time.Sunday,
		Window: Window{-7, -6, -5, -4, -3, -2, -1}},
}

var specialDayIndex = func() map[string]int {
	m := make(map[string]int, len(specialDays))
	for i, s := range specialDays {
		m[s.Key] = i
	}
	return m
}()

// LookupSpecialDay returns the special day registered under key.
func LookupSpecialDay(key string) (SpecialDay, bool) {
	i, ok := specialDayIndex[key]
	if !ok {
		return SpecialDay{}, false
	}
	return specialDays[i], true
}

// SpecialDays returns a copy of the special day table.
func SpecialDays() []SpecialDay {
	out := make([]SpecialDay, len(specialDays))
	copy(out, specialDays)
	return out
}

// SpecialDayKeys returns every registered key in sorted order.
func SpecialDayKeys() []string {
	keys := make([]string, 0, len(specialDays))
	for _, s := range specialDays {
		keys = append(keys, s.Key)
	}
	sort.Strings(keys)
	return keys
}
