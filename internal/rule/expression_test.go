package rule

import (
	"errors"
	"testing"
	"time"

	"github.com/samber/mo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zapponejosh/gatherings-api/internal/recurrence"
)

func nth(m time.Month, ordinal int, wd time.Weekday) Rule {
	return Rule{Anchor: NthDay{Month: m, ByDay: ByDay{Ordinal: ordinal, Weekday: wd}}}
}

func special(key string) Rule {
	return Rule{Anchor: Special{Key: key}}
}

func before(r Rule, wd time.Weekday) Rule {
	r.Offset = mo.Some(Offset{Sign: -1, Weekday: wd})
	return r
}

func after(r Rule, wd time.Weekday) Rule {
	r.Offset = mo.Some(Offset{Sign: 1, Weekday: wd})
	return r
}

func span(r Rule, days int) Rule {
	r.StartOffset = mo.Some(days)
	return r
}

func TestExpression(t *testing.T) {
	biennial := nth(time.November, 4, time.Thursday)
	biennial.Interval = 2

	tests := []struct {
		name string
		rule Rule
		want string
	}{
		{
			name: "first Sunday in May",
			rule: nth(time.May, 1, time.Sunday),
			want: "FREQ=YEARLY;INTERVAL=1;BYMONTH=5;BYDAY=1SU",
		},
		{
			name: "Saturday before first Sunday in May",
			rule: before(nth(time.May, 1, time.Sunday), time.Saturday),
			want: "FREQ=YEARLY;INTERVAL=1;BYDAY=SA;BYYEARDAY=-246,-245,-244,-243,-242,-241,-240",
		},
		{
			name: "last Saturday in May",
			rule: Rule{Anchor: LastDay{Month: time.May, Weekday: time.Saturday}},
			want: "FREQ=YEARLY;INTERVAL=1;BYMONTH=5;BYDAY=-1SA",
		},
		{
			name: "Friday before last Saturday in May",
			rule: before(Rule{Anchor: LastDay{Month: time.May, Weekday: time.Saturday}}, time.Friday),
			want: "FREQ=YEARLY;INTERVAL=1;BYDAY=FR;BYYEARDAY=-222,-221,-220,-219,-218,-217,-216",
		},
		{
			name: "every other Thanksgiving",
			rule: biennial,
			want: "FREQ=YEARLY;INTERVAL=2;BYMONTH=11;BYDAY=4TH",
		},
		{
			name: "New Year's Day",
			rule: special("newYear"),
			want: "FREQ=YEARLY;INTERVAL=1;BYMONTH=1;BYMONTHDAY=1",
		},
		{
			name: "Sunday before Christmas",
			rule: before(special("christmas"), time.Sunday),
			want: "FREQ=YEARLY;INTERVAL=1;BYDAY=SU;BYYEARDAY=-14,-13,-12,-11,-10,-9,-8",
		},
		{
			name: "Thanksgiving",
			rule: special("thanksgiving"),
			want: "FREQ=YEARLY;INTERVAL=1;BYDAY=TH;BYYEARDAY=-40,-39,-38,-37,-36,-35,-34",
		},
		{
			name: "Friday after Thanksgiving",
			rule: after(special("thanksgiving"), time.Friday),
			want: "FREQ=YEARLY;INTERVAL=1;BYDAY=FR;BYYEARDAY=-39,-38,-37,-36,-35,-34,-33",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Expression(tt.rule)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExpression_ExpandsToExpectedDates(t *testing.T) {
	expr, err := Expression(before(special("christmas"), time.Sunday))
	require.NoError(t, err)

	start := time.Date(2021, time.January, 1, 0, 0, 0, 0, time.UTC)
	got, err := defaultEngine.Expand(expr, start, recurrence.Limit{Count: 3})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "2021-12-19", got[0].Format(time.DateOnly))
	assert.Equal(t, "2022-12-18", got[1].Format(time.DateOnly))
	assert.Equal(t, "2023-12-24", got[2].Format(time.DateOnly))
}

func TestExpression_EasterUnsupported(t *testing.T) {
	for _, key := range []string{"easter", "palmSunday"} {
		_, err := Expression(special(key))
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrUnsupported), key)
		assert.Equal(t, KindUnsupported, KindOf(err))
	}
}

func TestExpression_FifthSundaySpring(t *testing.T) {
	expr, err := Expression(special("fifthSundaySpring"))
	require.NoError(t, err)

	start := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	got, err := defaultEngine.Expand(expr, start, recurrence.Limit{Count: 3})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "2024-03-31", got[0].Format(time.DateOnly))
	assert.Equal(t, "2025-03-30", got[1].Format(time.DateOnly))
	assert.Equal(t, "2026-03-29", got[2].Format(time.DateOnly))
}

func TestExpression_InvalidRule(t *testing.T) {
	_, err := Expression(nth(time.May, 5, time.Sunday))
	assert.ErrorIs(t, err, ErrInvalidRule)
}
