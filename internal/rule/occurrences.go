package rule

import (
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/samber/mo"

	"github.com/zapponejosh/gatherings-api/internal/calendar"
	"github.com/zapponejosh/gatherings-api/internal/recurrence"
)

// Occurrence is one resolved instance of a rule. End is the day the rule
// resolves to; Start equals End unless the rule has a start offset.
type Occurrence struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Expander resolves rules into occurrences.
type Expander struct {
	engine *recurrence.Engine
	now    func() time.Time
	logger *slog.Logger
}

// ExpanderOption configures an Expander.
type ExpanderOption func(*Expander)

// WithEngine sets the recurrence engine used for expression based rules.
func WithEngine(e *recurrence.Engine) ExpanderOption {
	return func(x *Expander) { x.engine = e }
}

// WithClock sets the clock used when no start instant is given.
func WithClock(now func() time.Time) ExpanderOption {
	return func(x *Expander) { x.now = now }
}

// WithLogger sets the logger for expansion diagnostics.
func WithLogger(l *slog.Logger) ExpanderOption {
	return func(x *Expander) { x.logger = l }
}

// NewExpander creates an expander with the given options.
func NewExpander(opts ...ExpanderOption) *Expander {
	x := &Expander{
		engine: defaultEngine,
		now:    time.Now,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(x)
	}
	return x
}

var defaultExpander = NewExpander()

// Occurrences returns up to count occurrences of r on or after start, which
// defaults to now.
func Occurrences(r Rule, count int, start mo.Option[time.Time]) ([]Occurrence, error) {
	return defaultExpander.Occurrences(r, count, start)
}

// OccurrencesUntil returns the occurrences of r from start, which defaults
// to now, through until.
func OccurrencesUntil(r Rule, until time.Time, start mo.Option[time.Time]) ([]Occurrence, error) {
	return defaultExpander.OccurrencesUntil(r, until, start)
}

// Occurrences returns up to count occurrences of r on or after start.
// A non-positive count yields no occurrences.
func (x *Expander) Occurrences(r Rule, count int, start mo.Option[time.Time]) ([]Occurrence, error) {
	if err := Validate(r); err != nil {
		return nil, err
	}
	if count <= 0 {
		return []Occurrence{}, nil
	}
	return x.expand(r, start.OrElse(x.now()), recurrence.Limit{Count: count})
}

// OccurrencesUntil returns the occurrences of r from start through until.
// An until bound earlier than start yields no occurrences.
func (x *Expander) OccurrencesUntil(r Rule, until time.Time, start mo.Option[time.Time]) ([]Occurrence, error) {
	if err := Validate(r); err != nil {
		return nil, err
	}
	from := start.OrElse(x.now())
	if until.Before(from) {
		return []Occurrence{}, nil
	}
	return x.expand(r, from, recurrence.Limit{Until: mo.Some(until)})
}

func (x *Expander) expand(r Rule, start time.Time, limit recurrence.Limit) ([]Occurrence, error) {
	var (
		ends []time.Time
		err  error
	)
	if s, ok := r.Anchor.(Special); ok {
		if day, _ := calendar.LookupSpecialDay(s.Key); day.Category == calendar.CategoryEasterRelative {
			ends, err = x.easterDates(r, day, start, limit)
		}
	}
	if ends == nil && err == nil {
		var expr string
		expr, err = Expression(r)
		if err != nil {
			return nil, err
		}
		ends, err = x.engine.Expand(expr, start, limit)
	}
	if err != nil {
		return nil, err
	}

	x.logger.Debug("expanded rule",
		"rule", r.String(),
		"start", start,
		"count", len(ends),
	)

	out := make([]Occurrence, 0, len(ends))
	for _, end := range ends {
		out = append(out, Occurrence{Start: end.AddDate(0, 0, r.StartOffset.OrElse(0)), End: end})
	}
	return out, nil
}

// easterDates walks years from start, keeping every interval-th candidate.
// A first year outside the Easter table is an error; running past the table
// later truncates the result.
func (x *Expander) easterDates(r Rule, day calendar.SpecialDay, start time.Time, limit recurrence.Limit) ([]time.Time, error) {
	dayOffset := day.EasterOffset
	if off, ok := r.Offset.Get(); ok {
		dayOffset += calendar.OffsetDelta(day.Weekday, off.Sign, off.Weekday)
	}
	until, bounded := limit.Until.Get()
	interval := r.IntervalOrDefault()

	out := []time.Time{}
	for year, index := start.Year(), 0; ; year++ {
		d, err := calendar.EasterDate(year, dayOffset, start)
		if err != nil {
			if year == start.Year() && errors.Is(err, calendar.ErrYearOutOfRange) {
				return nil, &Error{Kind: KindTemporal, Field: "start", Value: year, Message: "year outside Easter table coverage", Err: err}
			}
			x.logger.Debug("easter expansion truncated", "year", year, "error", err)
			return out, nil
		}
		if d.Before(start) {
			continue
		}
		if bounded && d.After(until) {
			return out, nil
		}
		if index%interval == 0 {
			out = append(out, d)
			if limit.Count > 0 && len(out) == limit.Count {
				return out, nil
			}
		}
		index++
	}
}
