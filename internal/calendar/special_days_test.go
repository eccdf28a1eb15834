package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// resolve returns the date in year on which a fixedDay special day falls.
func resolve(t *testing.T, s SpecialDay, year int) time.Time {
	t.Helper()
	var hits []time.Time
	for _, yd := range s.Window {
		if d := Date(year, yd, time.UTC); d.Weekday() == s.Weekday {
			hits = append(hits, d)
		}
	}
	require.Len(t, hits, 1, "%s in %d", s.Key, year)
	return hits[0]
}

func TestSpecialDays_FixedDayDates(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"fifthSundaySpring", "2024-03-31"},
		{"mayDay", "2024-05-06"},
		{"whitsun", "2024-05-27"},
		{"armedForcesDay", "2024-06-29"},
		{"fifthSundayAfterIndependenceDay", "2024-08-04"},
		{"summerHoliday", "2024-08-26"},
		{"fifthSundayAfterLabourDay", "2024-10-06"},
		{"fifthSundayBeforeThanksgiving", "2024-10-27"},
		{"clocksGoBack", "2024-10-26"},
		{"remembranceSunday", "2024-11-10"},
		{"thanksgiving", "2024-11-28"},
		{"blackFriday", "2024-11-29"},
		{"fifthSundayLastInYear", "2024-12-29"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			s, ok := LookupSpecialDay(tt.key)
			require.True(t, ok)
			require.Equal(t, CategoryFixedDay, s.Category)
			assert.Equal(t, tt.want, resolve(t, s, 2024).Format(time.DateOnly))
		})
	}
}

func TestSpecialDays_WindowsAreConsecutive(t *testing.T) {
	for _, s := range SpecialDays() {
		if s.Category != CategoryFixedDay {
			continue
		}
		assert.Equal(t, WindowFrom(s.Window[0]), s.Window, s.Key)
		for year := 2019; year <= 2030; year++ {
			resolve(t, s, year)
		}
	}
}

func TestSpecialDays_MatchCalendarRules(t *testing.T) {
	thanksgiving := AnchorWindow(time.November, 4)
	cases := map[string]Window{
		"mayDay":            AnchorWindow(time.May, 1),
		"whitsun":           AnchorWindow(time.May, -1),
		"armedForcesDay":    AnchorWindow(time.June, -1),
		"summerHoliday":     AnchorWindow(time.August, -1),
		"clocksGoBack":      AnchorWindow(time.October, -1),
		"remembranceSunday": AnchorWindow(time.November, 2),
		"thanksgiving":      thanksgiving,
		"blackFriday":       thanksgiving.Shift(1),

		"fifthSundaySpring":               AnchorWindow(time.March, 5),
		"fifthSundayAfterIndependenceDay": DateWindow(time.July, 4, 1).Shift(28),
		"fifthSundayLastInYear":           AnchorWindow(time.December, -1),
	}

	for key, want := range cases {
		s, ok := LookupSpecialDay(key)
		require.True(t, ok, key)
		assert.Equal(t, want, s.Window, key)
	}
}

func TestSpecialDays_Categories(t *testing.T) {
	fixed := []string{"newYear", "independenceDay", "christmas", "boxingDay", "dayAfterBoxingDay"}
	for _, key := range fixed {
		s, ok := LookupSpecialDay(key)
		require.True(t, ok, key)
		assert.Equal(t, CategoryFixedDate, s.Category)
		assert.False(t, s.HasWeekday())
		assert.NotZero(t, s.Month)
		assert.NotZero(t, s.Day)
	}

	easter, ok := LookupSpecialDay("easter")
	require.True(t, ok)
	assert.Equal(t, CategoryEasterRelative, easter.Category)
	assert.Equal(t, 0, easter.EasterOffset)

	palm, ok := LookupSpecialDay("palmSunday")
	require.True(t, ok)
	assert.Equal(t, -7, palm.EasterOffset)

	var easterRelative []string
	for _, s := range SpecialDays() {
		if s.Category == CategoryEasterRelative {
			easterRelative = append(easterRelative, s.Key)
		}
	}
	assert.ElementsMatch(t, []string{"easter", "palmSunday"}, easterRelative)

	_, ok = LookupSpecialDay("groundhogDay")
	assert.False(t, ok)
}

func TestSpecialDays_ReturnsCopy(t *testing.T) {
	days := SpecialDays()
	require.Len(t, days, 20)
	days[0].Name = "changed"

	s, _ := LookupSpecialDay(days[0].Key)
	assert.NotEqual(t, "changed", s.Name)
	assert.Len(t, SpecialDayKeys(), len(days))
}
