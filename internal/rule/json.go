package rule

import (
	"encoding/json"
	"time"

	"github.com/samber/mo"

	"github.com/zapponejosh/gatherings-api/internal/calendar"
)

// Anchor kinds on the wire.
const (
	KindNthDay  = "nthDay"
	KindLastDay = "lastDay"
	KindSpecial = "special"
)

// Fields is the flat wire form of a rule, shared by the JSON API, the
// database and the CSV importer.
type Fields struct {
	Kind        string `json:"kind"`
	Month       int    `json:"month,omitempty"`
	ByDay       string `json:"byday,omitempty"`
	Weekday     string `json:"weekday,omitempty"`
	Special     string `json:"special,omitempty"`
	Offset      string `json:"offset,omitempty"`
	Interval    int    `json:"interval,omitempty"`
	StartOffset *int   `json:"start_offset,omitempty"`
}

// Rule converts the wire form into a rule. It checks the shape of each field
// but not the rule as a whole; call Validate for that.
func (f Fields) Rule() (Rule, error) {
	var r Rule

	switch f.Kind {
	case KindNthDay:
		if f.Month == 0 {
			return Rule{}, invalidRule("month", nil, "required for %s", f.Kind)
		}
		if f.ByDay == "" {
			return Rule{}, invalidRule("byday", nil, "required for %s", f.Kind)
		}
		bd, err := ParseByDay(f.ByDay)
		if err != nil {
			return Rule{}, err
		}
		r.Anchor = NthDay{Month: time.Month(f.Month), ByDay: bd}
	case KindLastDay:
		if f.Month == 0 {
			return Rule{}, invalidRule("month", nil, "required for %s", f.Kind)
		}
		if f.Weekday == "" {
			return Rule{}, invalidRule("weekday", nil, "required for %s", f.Kind)
		}
		wd, err := ParseWeekday("weekday", f.Weekday)
		if err != nil {
			return Rule{}, err
		}
		r.Anchor = LastDay{Month: time.Month(f.Month), Weekday: wd}
	case KindSpecial:
		if f.Special == "" {
			return Rule{}, invalidRule("special", nil, "required for %s", f.Kind)
		}
		r.Anchor = Special{Key: f.Special}
	case "":
		return Rule{}, invalidRule("kind", nil, "required")
	default:
		return Rule{}, invalidRule("kind", f.Kind, "must be %s, %s or %s", KindNthDay, KindLastDay, KindSpecial)
	}

	if f.Offset != "" {
		off, err := ParseOffset(f.Offset)
		if err != nil {
			return Rule{}, err
		}
		r.Offset = mo.Some(off)
	}
	r.Interval = f.Interval
	if f.StartOffset != nil {
		r.StartOffset = mo.Some(*f.StartOffset)
	}
	return r, nil
}

// FieldsOf returns the wire form of r.
func FieldsOf(r Rule) Fields {
	var f Fields
	switch a := r.Anchor.(type) {
	case NthDay:
		f.Kind = KindNthDay
		f.Month = int(a.Month)
		f.ByDay = a.ByDay.String()
	case LastDay:
		f.Kind = KindLastDay
		f.Month = int(a.Month)
		f.Weekday = calendar.WeekdayCode(a.Weekday)
	case Special:
		f.Kind = KindSpecial
		f.Special = a.Key
	}
	if off, ok := r.Offset.Get(); ok {
		f.Offset = off.String()
	}
	f.Interval = r.IntervalOrDefault()
	if so, ok := r.StartOffset.Get(); ok {
		f.StartOffset = &so
	}
	return f
}

// MarshalJSON encodes the rule in its wire form.
func (r Rule) MarshalJSON() ([]byte, error) {
	return json.Marshal(FieldsOf(r))
}

// UnmarshalJSON decodes the wire form. Field shape errors are returned as
// *Error values.
func (r *Rule) UnmarshalJSON(data []byte) error {
	var f Fields
	if err := json.Unmarshal(data, &f); err != nil {
		return &Error{Kind: KindInvalidRule, Message: "malformed rule: " + err.Error(), Err: err}
	}
	parsed, err := f.Rule()
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// Decode parses and validates a JSON rule.
func Decode(data []byte) (Rule, error) {
	var r Rule
	if err := json.Unmarshal(data, &r); err != nil {
		if KindOf(err) == "" {
			err = &Error{Kind: KindInvalidRule, Message: "malformed rule: " + err.Error(), Err: err}
		}
		return Rule{}, err
	}
	if err := Validate(r); err != nil {
		return Rule{}, err
	}
	return r, nil
}
