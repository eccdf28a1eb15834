package calendar

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// computus is the anonymous Gregorian algorithm, used to cross-check the table.
func computus(year int) time.Time {
	a := year % 19
	b := year / 100
	c := year % 100
	d := b / 4
	e := b % 4
	f := (b + 8) / 25
	g := (b - f + 1) / 3
	h := (19*a + b - d - g + 15) % 30
	i := c / 4
	k := c % 4
	l := (32 + 2*e + 2*i - h - k) % 7
	m := (a + 11*h + 22*l) / 451
	month := (h + l - 7*m + 114) / 31
	day := ((h + l - 7*m + 114) % 31) + 1

	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}

func TestEaster(t *testing.T) {
	tests := []struct {
		year int
		want string
	}{
		{1900, "1900-04-15"},
		{2019, "2019-04-21"},
		{2021, "2021-04-04"},
		{2024, "2024-03-31"},
		{2025, "2025-04-20"},
		{2199, "2199-04-14"},
	}

	for _, tt := range tests {
		got, err := Easter(tt.year)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got.Format(time.DateOnly))
		assert.Equal(t, time.Sunday, got.Weekday())
	}
}

func TestEaster_MatchesComputus(t *testing.T) {
	for year := 1900; year <= 2199; year++ {
		got, err := Easter(year)
		require.NoError(t, err)
		assert.Equal(t, computus(year), got, "year %d", year)
	}
}

func TestEasterDate_OutsideTable(t *testing.T) {
	for _, year := range []int{1899, 2200, -5} {
		_, err := EasterDate(year, 0, time.Time{})
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrYearOutOfRange), "year %d", year)
	}
}

func TestEasterDate_OffsetAndClock(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*3600)
	clock := time.Date(2000, 1, 1, 18, 30, 0, 0, loc)

	palm, err := EasterDate(2021, -7, clock)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2021, time.March, 28, 18, 30, 0, 0, loc), palm)

	saturday, err := EasterDate(2021, OffsetDelta(time.Sunday, -1, time.Saturday), time.Time{})
	require.NoError(t, err)
	assert.Equal(t, "2021-04-03", saturday.Format(time.DateOnly))
}

func TestMetonicTable(t *testing.T) {
	table := MetonicTable()
	require.Len(t, table, 19)
	for i, e := range table {
		assert.Equal(t, i+1, e.GoldenNumber)
		assert.True(t, e.Covers(2024))
		assert.False(t, e.Covers(1899))

		w := e.Window()
		assert.Equal(t, e.FullMoon+1, w[0])
		assert.Equal(t, e.FullMoon+7, w[6])
	}

	table[0].FullMoon = 99
	assert.Equal(t, 24, MetonicTable()[0].FullMoon)
}

func TestGoldenNumber(t *testing.T) {
	assert.Equal(t, 11, GoldenNumber(2024))
	assert.Equal(t, 1, GoldenNumber(2014))
	assert.Equal(t, 19, GoldenNumber(2013))
}
