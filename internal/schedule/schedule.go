// Package schedule resolves a set of gathering rules against one calendar
// year and exports the result as iCalendar or xCal feeds.
package schedule

import (
	"errors"
	"fmt"
	"time"

	"github.com/samber/mo"

	"github.com/zapponejosh/gatherings-api/internal/calendar"
	"github.com/zapponejosh/gatherings-api/internal/rule"
)

// Item is a named rule to place in a schedule.
type Item struct {
	Key         string
	Name        string
	Description string
	Rule        rule.Rule
}

// Entry is an item resolved for the schedule's year.
type Entry struct {
	Item        Item
	Sentence    string
	Expression  mo.Option[string]
	Occurrences []rule.Occurrence
}

// Schedule is one year of resolved gatherings. Each entry resolves
// independently, so one bad rule does not hide the others. Holidays are
// advisory and fail on their own as well.
type Schedule struct {
	Year     int
	Entries  []mo.Result[Entry]
	Holidays mo.Result[[]calendar.Holiday]
}

type options struct {
	now      func() time.Time
	location *time.Location
	region   mo.Option[calendar.Region]
	expander *rule.Expander
}

// Option configures New.
type Option func(*options)

// WithClock sets the clock used to pick the default year.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithLocation sets the time zone occurrences are resolved in.
func WithLocation(loc *time.Location) Option {
	return func(o *options) { o.location = loc }
}

// WithHolidays adds the civil holidays of region to the schedule.
func WithHolidays(region calendar.Region) Option {
	return func(o *options) { o.region = mo.Some(region) }
}

// WithExpander sets the expander used to resolve rules.
func WithExpander(x *rule.Expander) Option {
	return func(o *options) { o.expander = x }
}

// New resolves items for year, which defaults to the current year.
func New(items []Item, year mo.Option[int], opts ...Option) (*Schedule, error) {
	o := options{now: time.Now, location: time.UTC}
	for _, opt := range opts {
		opt(&o)
	}
	if o.expander == nil {
		o.expander = rule.NewExpander(rule.WithClock(o.now))
	}

	s := &Schedule{Year: year.OrElse(o.now().In(o.location).Year())}
	if s.Year < 1 || s.Year > 9999 {
		return nil, fmt.Errorf("year %d out of range", s.Year)
	}

	s.Holidays = mo.Ok[[]calendar.Holiday](nil)
	if region, ok := o.region.Get(); ok {
		holidays, err := calendar.Holidays(region, s.Year)
		if err != nil {
			s.Holidays = mo.Err[[]calendar.Holiday](fmt.Errorf("failed to resolve %s holidays: %w", region, err))
		} else {
			s.Holidays = mo.Ok(holidays)
		}
	}

	from := time.Date(s.Year, time.January, 1, 0, 0, 0, 0, o.location)
	until := time.Date(s.Year, time.December, 31, 23, 59, 59, 0, o.location)
	for _, item := range items {
		s.Entries = append(s.Entries, resolve(o.expander, item, from, until))
	}
	return s, nil
}

func resolve(x *rule.Expander, item Item, from, until time.Time) mo.Result[Entry] {
	sentence, err := rule.Sentence(item.Rule)
	if err != nil {
		return mo.Err[Entry](fmt.Errorf("%s: %w", item.Name, err))
	}

	entry := Entry{Item: item, Sentence: sentence}
	expr, err := rule.Expression(item.Rule)
	switch {
	case err == nil:
		entry.Expression = mo.Some(expr)
	case !errors.Is(err, rule.ErrUnsupported):
		return mo.Err[Entry](fmt.Errorf("%s: %w", item.Name, err))
	}

	occs, err := x.OccurrencesUntil(item.Rule, until, mo.Some(from))
	if err != nil {
		return mo.Err[Entry](fmt.Errorf("%s: %w", item.Name, err))
	}
	entry.Occurrences = occs
	return mo.Ok(entry)
}

// Resolved returns the entries that resolved successfully.
func (s *Schedule) Resolved() []Entry {
	var out []Entry
	for _, r := range s.Entries {
		if e, err := r.Get(); err == nil {
			out = append(out, e)
		}
	}
	return out
}

// Errors returns the failures of entries that did not resolve.
func (s *Schedule) Errors() []error {
	var out []error
	for _, r := range s.Entries {
		if r.IsError() {
			out = append(out, r.Error())
		}
	}
	return out
}

// Feed returns an iCalendar feed of every resolved occurrence.
func (s *Schedule) Feed(name string, stamp time.Time) *Feed {
	f := NewFeed(name, stamp)
	for _, e := range s.Resolved() {
		f.Add(e.Item.Key, e.Item.Name, e.Sentence, e.Expression, e.Occurrences...)
	}
	return f
}
