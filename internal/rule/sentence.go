package rule

import (
	"fmt"
	"strings"

	"github.com/zapponejosh/gatherings-api/internal/calendar"
)

// Sentence describes a rule in English, for example "The Saturday before the
// first Sunday in May and the Friday before". It depends only on the rule's
// fields.
func Sentence(r Rule) (string, error) {
	if err := Validate(r); err != nil {
		return "", err
	}

	var base string
	switch a := r.Anchor.(type) {
	case NthDay:
		base = fmt.Sprintf("the %s %s in %s", calendar.OrdinalWord(a.ByDay.Ordinal), calendar.DayName(a.ByDay.Weekday), a.Month)
	case LastDay:
		base = fmt.Sprintf("the last %s in %s", calendar.DayName(a.Weekday), a.Month)
	case Special:
		s, _ := calendar.LookupSpecialDay(a.Key)
		base = s.Name
	}

	var b strings.Builder
	if off, ok := r.Offset.Get(); ok {
		direction := "before"
		if off.Sign > 0 {
			direction = "after"
		}
		fmt.Fprintf(&b, "The %s %s %s", calendar.DayName(off.Weekday), direction, base)
	} else {
		b.WriteString(upperFirst(base))
	}

	if so, ok := r.StartOffset.Get(); ok && so < 0 {
		b.WriteString(spanPhrase(r, -so))
	}
	return b.String(), nil
}

// spanPhrase names the days covered before the rule's end day. Weekdays are
// counted back from the offset weekday when there is one.
func spanPhrase(r Rule, days int) string {
	end, ok := r.AnchorWeekday()
	if off, hasOffset := r.Offset.Get(); hasOffset {
		end, ok = off.Weekday, true
	}
	if !ok {
		if days == 1 {
			return " and the day before"
		}
		return fmt.Sprintf(" and the %d days before", days)
	}

	first := calendar.DayName(calendar.AddWeekdays(end, -days))
	last := calendar.DayName(calendar.AddWeekdays(end, -1))
	switch days {
	case 1:
		return fmt.Sprintf(" and the %s before", last)
	case 2:
		return fmt.Sprintf(" and the %s and %s before", first, last)
	}
	return fmt.Sprintf(" and the %s to %s before", first, last)
}
