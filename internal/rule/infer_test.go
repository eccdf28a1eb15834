package rule

import (
	"testing"
	"time"

	"github.com/samber/mo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(s string) time.Time {
	d, err := time.Parse(time.DateOnly, s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestInferFromDate(t *testing.T) {
	tests := []struct {
		date string
		ref  mo.Option[time.Weekday]
		want Rule
	}{
		{"2019-05-05", mo.None[time.Weekday](), nth(time.May, 1, time.Sunday)},
		{"2019-05-25", mo.None[time.Weekday](), nth(time.May, Last, time.Saturday)},
		{"2024-11-28", mo.None[time.Weekday](), nth(time.November, Last, time.Thursday)},
		{"2024-11-21", mo.None[time.Weekday](), nth(time.November, 3, time.Thursday)},
		{"2021-05-01", mo.Some(time.Sunday), before(nth(time.May, 1, time.Sunday), time.Saturday)},
		{"2019-05-25", mo.Some(time.Sunday), before(nth(time.May, Last, time.Sunday), time.Saturday)},
	}

	for _, tt := range tests {
		t.Run(tt.date, func(t *testing.T) {
			got, err := InferFromDate(day(tt.date), tt.ref)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %s, want %s", got, tt.want)
			assert.Equal(t, 1, got.Interval)
		})
	}
}

func TestInferFromDate_FifthOccurrence(t *testing.T) {
	// 2019-05-29 is the fifth Wednesday of May but not every May has one.
	_, err := InferFromDate(day("2019-05-29"), mo.None[time.Weekday]())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTemporal)

	var re *Error
	require.ErrorAs(t, err, &re)
	assert.Equal(t, "date", re.Field)
}

func TestInferFromDate_EarliestSample(t *testing.T) {
	_, err := InferFromDate(day("1800-01-01"), mo.None[time.Weekday]())
	assert.NoError(t, err)

	_, err = InferFromDate(day("1799-12-31"), mo.None[time.Weekday]())
	assert.ErrorIs(t, err, ErrTemporal)
}

func TestInferLastDay(t *testing.T) {
	got, err := InferLastDay(day("2019-05-25"), mo.None[time.Weekday]())
	require.NoError(t, err)
	assert.Equal(t, LastDay{Month: time.May, Weekday: time.Saturday}, got.Anchor)
	assert.True(t, got.Offset.IsAbsent())

	_, err = InferLastDay(day("2019-05-18"), mo.None[time.Weekday]())
	assert.ErrorIs(t, err, ErrTemporal)

	_, err = InferLastDay(day("1700-05-25"), mo.None[time.Weekday]())
	assert.ErrorIs(t, err, ErrTemporal)
}

// Ordinals 1-3 always round-trip. A fourth weekday that is also the last
// infers as -1, and a last weekday that is the fifth cannot be inferred;
// TestInferFromDate_FourthAndFifth covers both.
func TestInferFromDate_RoundTrip(t *testing.T) {
	for m := time.January; m <= time.December; m++ {
		for ordinal := 1; ordinal <= 3; ordinal++ {
			for wd := time.Sunday; wd <= time.Saturday; wd++ {
				r := nth(m, ordinal, wd)
				occs, err := Occurrences(r, 4, mo.Some(jan2021))
				require.NoError(t, err)
				require.Len(t, occs, 4)

				for _, o := range occs {
					got, err := InferFromDate(o.End, mo.None[time.Weekday]())
					require.NoError(t, err, "%s on %s", r, o.End.Format(time.DateOnly))
					assert.True(t, r.Equal(got), "%s inferred as %s", r, got)
				}
			}
		}
	}
}

func TestInferFromDate_FourthAndFifth(t *testing.T) {
	// 2019-05-25 is both the fourth and the last Saturday of May.
	got, err := InferFromDate(day("2019-05-25"), mo.None[time.Weekday]())
	require.NoError(t, err)
	assert.Equal(t, NthDay{Month: time.May, ByDay: ByDay{Ordinal: Last, Weekday: time.Saturday}}, got.Anchor)

	// The last Saturday of May 2020 is the fifth.
	occs, err := Occurrences(nth(time.May, Last, time.Saturday), 1, mo.Some(jan2021.AddDate(-1, 0, 0)))
	require.NoError(t, err)
	require.Equal(t, "2020-05-30", occs[0].End.Format(time.DateOnly))

	_, err = InferFromDate(occs[0].End, mo.None[time.Weekday]())
	assert.ErrorIs(t, err, ErrTemporal)
}

func TestInferFromDate_OffsetInPreviousWeek(t *testing.T) {
	got, err := InferFromDate(day("2019-05-05"), mo.Some(time.Monday))
	require.NoError(t, err)
	assert.Equal(t, NthDay{Month: time.May, ByDay: ByDay{Ordinal: 1, Weekday: time.Monday}}, got.Anchor)

	occs, err := Occurrences(got, 1, mo.Some(day("2019-01-01")))
	require.NoError(t, err)
	assert.Equal(t, "2019-04-28", occs[0].End.Format(time.DateOnly))
}
