package rule

import (
	"fmt"
	"time"

	"github.com/zapponejosh/gatherings-api/internal/calendar"
)

// Expression returns the yearly RFC 5545 recurrence expression for a rule.
//
// Rules without an offset encode their month and ordinal weekday directly.
// An offset moves the rule to a different weekday, which an ordinal weekday
// cannot express, so the anchor's seven day window is shifted instead and
// encoded as BYYEARDAY with the target weekday.
//
// Easter-relative special days cannot be expressed and return an
// unsupported error.
func Expression(r Rule) (string, error) {
	if err := Validate(r); err != nil {
		return "", err
	}
	head := fmt.Sprintf("FREQ=YEARLY;INTERVAL=%d", r.IntervalOrDefault())
	off, hasOffset := r.Offset.Get()

	var (
		window  calendar.Window
		weekday time.Weekday
	)
	switch a := r.Anchor.(type) {
	case NthDay:
		if !hasOffset {
			return fmt.Sprintf("%s;BYMONTH=%d;BYDAY=%s", head, a.Month, a.ByDay), nil
		}
		window = calendar.AnchorWindow(a.Month, a.ByDay.Ordinal)
		weekday = a.ByDay.Weekday
	case LastDay:
		if !hasOffset {
			return fmt.Sprintf("%s;BYMONTH=%d;BYDAY=%s", head, a.Month, ByDay{Ordinal: Last, Weekday: a.Weekday}), nil
		}
		window = calendar.AnchorWindow(a.Month, Last)
		weekday = a.Weekday
	case Special:
		s, _ := calendar.LookupSpecialDay(a.Key)
		switch s.Category {
		case calendar.CategoryEasterRelative:
			return "", unsupported("special", a.Key, "Easter-relative days cannot be written as a yearly recurrence")
		case calendar.CategoryFixedDate:
			if !hasOffset {
				return fmt.Sprintf("%s;BYMONTH=%d;BYMONTHDAY=%d", head, s.Month, s.Day), nil
			}
			window := calendar.DateWindow(s.Month, s.Day, off.Sign)
			return fmt.Sprintf("%s;BYDAY=%s;BYYEARDAY=%s", head, calendar.WeekdayCode(off.Weekday), window), nil
		}
		if !hasOffset {
			return fmt.Sprintf("%s;BYDAY=%s;BYYEARDAY=%s", head, calendar.WeekdayCode(s.Weekday), s.Window), nil
		}
		window = s.Window
		weekday = s.Weekday
	}

	shifted := window.Shift(calendar.OffsetDelta(weekday, off.Sign, off.Weekday))
	return fmt.Sprintf("%s;BYDAY=%s;BYYEARDAY=%s", head, calendar.WeekdayCode(off.Weekday), shifted), nil
}
