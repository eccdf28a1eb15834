package recurrence

import (
	"testing"
	"time"

	"github.com/samber/mo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngine_ExpandCount(t *testing.T) {
	engine := NewEngine(0)
	start := time.Date(2021, time.January, 1, 9, 30, 0, 0, time.UTC)

	got, err := engine.Expand("FREQ=YEARLY;INTERVAL=1;BYMONTH=5;BYDAY=1SU", start, Limit{Count: 3})
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, time.Date(2021, time.May, 2, 9, 30, 0, 0, time.UTC), got[0])
	assert.Equal(t, time.Date(2022, time.May, 1, 9, 30, 0, 0, time.UTC), got[1])
	assert.Equal(t, time.Date(2023, time.May, 7, 9, 30, 0, 0, time.UTC), got[2])
}

func TestEngine_ExpandUntil(t *testing.T) {
	engine := NewEngine(0)
	start := time.Date(2021, time.January, 1, 0, 0, 0, 0, time.UTC)
	until := time.Date(2023, time.December, 31, 0, 0, 0, 0, time.UTC)

	got, err := engine.Expand("FREQ=YEARLY;INTERVAL=1;BYMONTH=1;BYMONTHDAY=1", start, Limit{Until: mo.Some(until)})
	require.NoError(t, err)
	assert.Len(t, got, 3)
	assert.Equal(t, start, got[0])
}

func TestEngine_ExpandUntilBeforeStart(t *testing.T) {
	engine := NewEngine(0)
	start := time.Date(2021, time.January, 1, 0, 0, 0, 0, time.UTC)

	got, err := engine.Expand("FREQ=YEARLY;BYMONTH=1;BYMONTHDAY=1", start, Limit{Until: mo.Some(start.AddDate(-1, 0, 0))})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestEngine_YearDayWindow(t *testing.T) {
	engine := NewEngine(0)
	start := time.Date(2021, time.January, 1, 0, 0, 0, 0, time.UTC)

	// Saturday before the first Sunday in May.
	got, err := engine.Expand("FREQ=YEARLY;INTERVAL=1;BYDAY=SA;BYYEARDAY=-246,-245,-244,-243,-242,-241,-240", start, Limit{Count: 2})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "2021-05-01", got[0].Format(time.DateOnly))
	assert.Equal(t, "2022-04-30", got[1].Format(time.DateOnly))
}

func TestEngine_MaxInstances(t *testing.T) {
	engine := NewEngine(4)
	start := time.Date(2021, time.January, 1, 0, 0, 0, 0, time.UTC)

	got, err := engine.Expand("FREQ=YEARLY;BYMONTH=1;BYMONTHDAY=1", start, Limit{Until: mo.Some(start.AddDate(100, 0, 0))})
	require.NoError(t, err)
	assert.Len(t, got, 4)
}

func TestEngine_Errors(t *testing.T) {
	engine := NewEngine(0)
	start := time.Date(2021, time.January, 1, 0, 0, 0, 0, time.UTC)

	_, err := engine.Expand("FREQ=YEARLY;BYMONTH=1", start, Limit{})
	assert.ErrorIs(t, err, ErrUnbounded)

	_, err = engine.EveryYear("FREQ=SOMETIMES", start, 1)
	assert.Error(t, err)
	_, err = engine.EveryYear("FREQ=YEARLY;BYDAY=XX", start, 1)
	assert.Error(t, err)
}

func TestEngine_EveryYear(t *testing.T) {
	engine := NewEngine(0)
	start := time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		expression string
		want       bool
	}{
		{"FREQ=YEARLY;BYMONTH=2;BYDAY=4MO", true},
		{"FREQ=YEARLY;BYMONTH=2;BYDAY=-1MO", true},
		{"FREQ=YEARLY;BYMONTH=11;BYDAY=4TH", true},
		// Only leap years that start February on a Monday have a fifth Monday.
		{"FREQ=YEARLY;BYMONTH=2;BYDAY=5MO", false},
		{"FREQ=YEARLY;BYMONTH=5;BYDAY=5SU", false},
		{"FREQ=YEARLY;INTERVAL=2;BYMONTH=1;BYMONTHDAY=1", false},
	}

	for _, tt := range tests {
		t.Run(tt.expression, func(t *testing.T) {
			got, err := engine.EveryYear(tt.expression, start, 28)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
