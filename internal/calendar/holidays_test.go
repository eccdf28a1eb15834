package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNthWeekday(t *testing.T) {
	tests := []struct {
		name    string
		month   time.Month
		weekday time.Weekday
		n       int
		want    string
		ok      bool
	}{
		{"MLK Day", time.January, time.Monday, 3, "2024-01-15", true},
		{"Memorial Day", time.May, time.Monday, -1, "2024-05-27", true},
		{"Thanksgiving", time.November, time.Thursday, 4, "2024-11-28", true},
		{"fifth Friday", time.November, time.Friday, 5, "2024-11-29", true},
		{"no fifth Monday", time.November, time.Monday, 5, "", false},
		{"zero", time.November, time.Monday, 0, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := NthWeekday(2024, tt.month, tt.weekday, tt.n)
			require.Equal(t, tt.ok, ok)
			if ok {
				assert.Equal(t, tt.want, got.Format(time.DateOnly))
			}
		})
	}
}

func dates(hs []Holiday) map[string]string {
	out := make(map[string]string, len(hs))
	for _, h := range hs {
		out[h.Name] = h.Date.Format(time.DateOnly)
	}
	return out
}

func TestHolidays_US(t *testing.T) {
	hs, err := Holidays(RegionUS, 2024)
	require.NoError(t, err)
	require.Len(t, hs, 11)

	got := dates(hs)
	assert.Equal(t, "2024-01-15", got["Martin Luther King Jr. Day"])
	assert.Equal(t, "2024-02-19", got["Presidents Day"])
	assert.Equal(t, "2024-05-27", got["Memorial Day"])
	assert.Equal(t, "2024-09-02", got["Labor Day"])
	assert.Equal(t, "2024-10-14", got["Columbus Day"])
	assert.Equal(t, "2024-11-28", got["Thanksgiving Day"])

	for i := 1; i < len(hs); i++ {
		assert.False(t, hs[i].Date.Before(hs[i-1].Date))
	}
}

func TestHolidays_GB(t *testing.T) {
	hs, err := Holidays(RegionGB, 2024)
	require.NoError(t, err)
	require.Len(t, hs, 8)

	got := dates(hs)
	assert.Equal(t, "2024-03-29", got["Good Friday"])
	assert.Equal(t, "2024-04-01", got["Easter Monday"])
	assert.Equal(t, "2024-05-06", got["Early May bank holiday"])
	assert.Equal(t, "2024-05-27", got["Spring bank holiday"])
	assert.Equal(t, "2024-08-26", got["Summer bank holiday"])
	assert.Equal(t, "New Year's Day", hs[0].Name)
}

func TestHolidays_GBOutsideEasterTable(t *testing.T) {
	_, err := Holidays(RegionGB, 2300)
	assert.ErrorIs(t, err, ErrYearOutOfRange)
}

func TestParseRegion(t *testing.T) {
	r, err := ParseRegion(" gb ")
	require.NoError(t, err)
	assert.Equal(t, RegionGB, r)

	_, err = ParseRegion("FR")
	assert.Error(t, err)
}
