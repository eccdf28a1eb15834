package rule

import (
	"fmt"
	"time"

	"github.com/zapponejosh/gatherings-api/internal/calendar"
	"github.com/zapponejosh/gatherings-api/internal/recurrence"
)

// MinStartOffset is the longest span a rule may cover before its end day.
const MinStartOffset = -6

var defaultEngine = recurrence.NewEngine(0)

// Validate checks a rule and returns the first problem found as an *Error.
//
// Checks run in a fixed order: required fields, weekday codes, offset sign,
// interval, special day key, start offset, and finally that the ordinal and
// month form a recurrence the expression engine places in every year.
func Validate(r Rule) error {
	if err := validateRequired(r); err != nil {
		return err
	}
	if err := validateWeekdays(r); err != nil {
		return err
	}
	if off, ok := r.Offset.Get(); ok && off.Sign != 1 && off.Sign != -1 {
		return invalidRule("offset", off.Sign, "sign must be +1 or -1")
	}
	if r.Interval < 0 {
		return invalidRule("interval", r.Interval, "must be a positive whole number")
	}
	if s, ok := r.Anchor.(Special); ok {
		if _, found := calendar.LookupSpecialDay(s.Key); !found {
			return invalidRule("special", s.Key, "unknown special day")
		}
	}
	if so, ok := r.StartOffset.Get(); ok && (so > 0 || so < MinStartOffset) {
		return invalidRule("start_offset", so, "must be between %d and 0", MinStartOffset)
	}
	return validateOccurrence(r)
}

func validateRequired(r Rule) error {
	switch a := r.Anchor.(type) {
	case nil:
		return invalidRule("kind", nil, "rule has no anchor")
	case NthDay:
		if err := validateMonth(a.Month); err != nil {
			return err
		}
		if a.ByDay.Ordinal == 0 {
			return invalidRule("byday", nil, "required")
		}
	case LastDay:
		return validateMonth(a.Month)
	case Special:
		if a.Key == "" {
			return invalidRule("special", nil, "required")
		}
	}
	return nil
}

func validateMonth(m time.Month) error {
	if m == 0 {
		return invalidRule("month", nil, "required")
	}
	if m < time.January || m > time.December {
		return invalidRule("month", int(m), "must be 1-12")
	}
	return nil
}

func validateWeekdays(r Rule) error {
	switch a := r.Anchor.(type) {
	case NthDay:
		if !calendar.ValidWeekday(a.ByDay.Weekday) {
			return invalidRule("byday", int(a.ByDay.Weekday), "unknown weekday")
		}
	case LastDay:
		if !calendar.ValidWeekday(a.Weekday) {
			return invalidRule("weekday", int(a.Weekday), "unknown weekday")
		}
	}
	if off, ok := r.Offset.Get(); ok && !calendar.ValidWeekday(off.Weekday) {
		return invalidRule("offset", int(off.Weekday), "unknown weekday")
	}
	return nil
}

// Ordinal plausibility is checked over 2000-2027, a full cycle of weekday
// and leap year alignment.
var plausibilityStart = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)

const plausibilityYears = 28

// validateOccurrence asks the engine whether the ordinal and month fall in
// every year. Ordinals no month can hold fail without expanding.
func validateOccurrence(r Rule) error {
	var (
		expr  string
		byDay ByDay
	)
	switch a := r.Anchor.(type) {
	case NthDay:
		byDay = a.ByDay
		if byDay.Ordinal != Last && (byDay.Ordinal < 1 || byDay.Ordinal > 5) {
			return invalidRule("byday", byDay.String(), "ordinal must be 1-4 or -1")
		}
		expr = fmt.Sprintf("FREQ=YEARLY;BYMONTH=%d;BYDAY=%s", a.Month, byDay)
	case LastDay:
		byDay = ByDay{Ordinal: Last, Weekday: a.Weekday}
		expr = fmt.Sprintf("FREQ=YEARLY;BYMONTH=%d;BYDAY=%s", a.Month, byDay)
	default:
		return nil
	}

	ok, err := defaultEngine.EveryYear(expr, plausibilityStart, plausibilityYears)
	if err != nil {
		return &Error{Kind: KindInvalidRule, Field: "byday", Value: byDay.String(), Message: "not a valid recurrence", Err: err}
	}
	if !ok {
		return invalidRule("byday", byDay.String(), "ordinal must be 1-4 or -1")
	}
	return nil
}
