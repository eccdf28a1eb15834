package rule

import (
	"time"

	"github.com/samber/mo"

	"github.com/zapponejosh/gatherings-api/internal/calendar"
)

// EarliestSampleDate is the earliest date a rule may be inferred from.
var EarliestSampleDate = time.Date(1800, time.January, 1, 0, 0, 0, 0, time.UTC)

// InferFromDate builds the NthDay rule a sample date belongs to.
//
// With a reference weekday the rule is anchored on the first such weekday on
// or after the date and the date itself becomes a "before" offset. Dates
// whose anchor is the fifth of its weekday in the month fail, since not
// every year has one; a last-of-month anchor is encoded as -1.
//
// Offsets resolve with OffsetDelta's Monday-first weekday order, so a
// "before" offset whose weekday sorts after the reference weekday lands in
// the previous week. Such rules do not round-trip: 2019-05-05 with reference
// MO infers as "the Sunday before the first Monday in May", which expands to
// 2019-04-28.
func InferFromDate(date time.Time, reference mo.Option[time.Weekday]) (Rule, error) {
	anchor, err := inferAnchorDate(date, reference)
	if err != nil {
		return Rule{}, err
	}

	ordinal, wd := calendar.OrdinalWeekdayPosition(anchor)
	if ordinal == 5 {
		return Rule{}, temporal("date", date.Format(time.DateOnly),
			"falls on the fifth %s of %s, which not every year has", wd, anchor.Month())
	}
	if calendar.IsLastOfKind(anchor) {
		ordinal = Last
	}

	r := Rule{
		Anchor:   NthDay{Month: anchor.Month(), ByDay: ByDay{Ordinal: ordinal, Weekday: wd}},
		Interval: 1,
	}
	if wd != date.Weekday() {
		r.Offset = mo.Some(Offset{Sign: -1, Weekday: date.Weekday()})
	}
	return r, nil
}

// InferLastDay builds the LastDay rule for a date that is the last of its
// weekday in its month, optionally anchored on a reference weekday as in
// InferFromDate.
func InferLastDay(date time.Time, reference mo.Option[time.Weekday]) (Rule, error) {
	anchor, err := inferAnchorDate(date, reference)
	if err != nil {
		return Rule{}, err
	}
	if !calendar.IsLastOfKind(anchor) {
		return Rule{}, temporal("date", date.Format(time.DateOnly),
			"is not the last %s of %s", anchor.Weekday(), anchor.Month())
	}

	r := Rule{
		Anchor:   LastDay{Month: anchor.Month(), Weekday: anchor.Weekday()},
		Interval: 1,
	}
	if anchor.Weekday() != date.Weekday() {
		r.Offset = mo.Some(Offset{Sign: -1, Weekday: date.Weekday()})
	}
	return r, nil
}

func inferAnchorDate(date time.Time, reference mo.Option[time.Weekday]) (time.Time, error) {
	y, m, d := date.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	if day.Before(EarliestSampleDate) {
		return time.Time{}, temporal("date", day.Format(time.DateOnly), "must be on or after %s", EarliestSampleDate.Format(time.DateOnly))
	}

	ref := reference.OrElse(day.Weekday())
	if !calendar.ValidWeekday(ref) {
		return time.Time{}, invalidRule("weekday", int(ref), "unknown weekday")
	}
	return calendar.NextOrSame(day, ref), nil
}
