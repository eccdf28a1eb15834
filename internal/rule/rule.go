// Package rule models annual gathering rules ("the first Sunday in May",
// "the Saturday before Easter") and turns them into recurrence expressions,
// English sentences and concrete occurrences. It can also infer a rule from
// a sample date.
package rule

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/samber/mo"

	"github.com/zapponejosh/gatherings-api/internal/calendar"
)

// Last is the ordinal of the last weekday of a month.
const Last = -1

// Anchor is the day a rule is defined relative to. It is one of NthDay,
// LastDay or Special.
type Anchor interface {
	isAnchor()
}

// ByDay is an ordinal weekday such as 1SU (first Sunday) or -1SA (last
// Saturday).
type ByDay struct {
	Ordinal int
	Weekday time.Weekday
}

func (b ByDay) String() string {
	return strconv.Itoa(b.Ordinal) + calendar.WeekdayCode(b.Weekday)
}

// NthDay anchors a rule to the nth weekday of a month.
type NthDay struct {
	Month time.Month
	ByDay ByDay
}

// LastDay anchors a rule to the last weekday of a month.
type LastDay struct {
	Month   time.Month
	Weekday time.Weekday
}

// Special anchors a rule to a named day from the special day table.
type Special struct {
	Key string
}

func (NthDay) isAnchor()  {}
func (LastDay) isAnchor() {}
func (Special) isAnchor() {}

// Offset moves a rule from its anchor to the nearest given weekday before
// (Sign -1) or after (Sign +1) it.
type Offset struct {
	Sign    int
	Weekday time.Weekday
}

func (o Offset) String() string {
	sign := "+"
	if o.Sign < 0 {
		sign = "-"
	}
	return sign + "1" + calendar.WeekdayCode(o.Weekday)
}

// Rule is an annual recurrence relative to an anchor day.
type Rule struct {
	Anchor Anchor
	Offset mo.Option[Offset]
	// Interval repeats the rule every n years. Zero means every year.
	Interval int
	// StartOffset makes each occurrence a span that begins this many days
	// (-6 to 0) before the day the rule resolves to.
	StartOffset mo.Option[int]
}

// IntervalOrDefault returns the interval with zero treated as 1.
func (r Rule) IntervalOrDefault() int {
	if r.Interval == 0 {
		return 1
	}
	return r.Interval
}

// Equal reports whether two rules describe the same recurrence.
func (r Rule) Equal(other Rule) bool {
	return r.Anchor == other.Anchor &&
		r.Offset == other.Offset &&
		r.IntervalOrDefault() == other.IntervalOrDefault() &&
		r.StartOffset.OrElse(0) == other.StartOffset.OrElse(0)
}

// AnchorWeekday returns the weekday the anchor always falls on. Fixed date
// special days have none.
func (r Rule) AnchorWeekday() (time.Weekday, bool) {
	switch a := r.Anchor.(type) {
	case NthDay:
		return a.ByDay.Weekday, true
	case LastDay:
		return a.Weekday, true
	case Special:
		s, ok := calendar.LookupSpecialDay(a.Key)
		if !ok || !s.HasWeekday() {
			return 0, false
		}
		return s.Weekday, true
	}
	return 0, false
}

// =============================================================================
// Wire codes
// =============================================================================

// ParseWeekday parses a two-letter weekday code for the named field.
func ParseWeekday(field, s string) (time.Weekday, error) {
	if len(s) != 2 {
		return 0, invalidRule(field, s, "weekday code must be two letters")
	}
	wd, ok := calendar.ParseWeekdayCode(s)
	if !ok {
		return 0, invalidRule(field, s, "unknown weekday code")
	}
	return wd, nil
}

// ParseByDay parses an ordinal weekday such as "1SU" or "-1SA".
func ParseByDay(s string) (ByDay, error) {
	if len(s) < 3 || len(s) > 4 {
		return ByDay{}, invalidRule("byday", s, "must be an ordinal followed by a weekday code")
	}
	wd, err := ParseWeekday("byday", s[len(s)-2:])
	if err != nil {
		return ByDay{}, err
	}
	n, err := strconv.Atoi(s[:len(s)-2])
	if err != nil {
		return ByDay{}, invalidRule("byday", s, "ordinal is not a number")
	}
	return ByDay{Ordinal: n, Weekday: wd}, nil
}

// ParseOffset parses a signed weekday offset such as "-1SA" or "+1MO". An
// unsigned "1MO" means after.
func ParseOffset(s string) (Offset, error) {
	if len(s) < 3 || len(s) > 4 {
		return Offset{}, invalidRule("offset", s, "must be a signed 1 followed by a weekday code")
	}
	wd, err := ParseWeekday("offset", s[len(s)-2:])
	if err != nil {
		return Offset{}, err
	}
	n, err := strconv.Atoi(s[:len(s)-2])
	if err != nil {
		return Offset{}, invalidRule("offset", s, "sign is not a number")
	}
	return Offset{Sign: n, Weekday: wd}, nil
}

// MonthName returns the English month name, or an empty string when m is out
// of range.
func MonthName(m time.Month) string {
	if m < time.January || m > time.December {
		return ""
	}
	return m.String()
}

func upperFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// String renders the rule compactly for logs.
func (r Rule) String() string {
	var b strings.Builder
	switch a := r.Anchor.(type) {
	case NthDay:
		fmt.Fprintf(&b, "nthDay(%s %s)", MonthName(a.Month), a.ByDay)
	case LastDay:
		fmt.Fprintf(&b, "lastDay(%s %s)", MonthName(a.Month), calendar.WeekdayCode(a.Weekday))
	case Special:
		fmt.Fprintf(&b, "special(%s)", a.Key)
	default:
		b.WriteString("none")
	}
	if off, ok := r.Offset.Get(); ok {
		fmt.Fprintf(&b, " offset %s", off)
	}
	if r.IntervalOrDefault() != 1 {
		fmt.Fprintf(&b, " every %d years", r.IntervalOrDefault())
	}
	if so, ok := r.StartOffset.Get(); ok {
		fmt.Fprintf(&b, " span %d", so)
	}
	return b.String()
}
