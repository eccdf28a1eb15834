// Package recurrence expands RFC 5545 recurrence expressions.
package recurrence

import (
	"errors"
	"fmt"
	"time"

	"github.com/samber/mo"
	"github.com/teambition/rrule-go"
)

// DefaultMaxInstances caps expansions that are bounded only by an until date.
const DefaultMaxInstances = 5000

// ErrUnbounded is returned when an expansion has neither a count nor an
// until bound.
var ErrUnbounded = errors.New("recurrence expansion needs a count or an until bound")

// Limit bounds an expansion. Count and Until may be combined; the first
// bound reached wins.
type Limit struct {
	Count int
	Until mo.Option[time.Time]
}

// Engine expands and checks recurrence expressions.
type Engine struct {
	maxInstances int
}

// NewEngine creates a new recurrence engine. A non-positive maxInstances
// selects DefaultMaxInstances.
func NewEngine(maxInstances int) *Engine {
	if maxInstances <= 0 {
		maxInstances = DefaultMaxInstances
	}
	return &Engine{maxInstances: maxInstances}
}

// EveryYear reports whether the expression produces an instant in each of
// the given number of calendar years, counting from dtstart's year.
func (e *Engine) EveryYear(expression string, dtstart time.Time, years int) (bool, error) {
	until := time.Date(dtstart.Year()+years, time.January, 1, 0, 0, 0, 0, dtstart.Location()).Add(-time.Second)
	instants, err := e.Expand(expression, dtstart, Limit{Until: mo.Some(until)})
	if err != nil {
		return false, err
	}

	seen := make(map[int]bool, years)
	for _, t := range instants {
		seen[t.Year()] = true
	}
	return len(seen) == years, nil
}

// Expand returns the instants of expression starting at dtstart. Each instant
// keeps dtstart's clock time and location.
func (e *Engine) Expand(expression string, dtstart time.Time, limit Limit) ([]time.Time, error) {
	if limit.Count <= 0 && limit.Until.IsAbsent() {
		return nil, ErrUnbounded
	}
	if until, ok := limit.Until.Get(); ok && until.Before(dtstart) {
		return []time.Time{}, nil
	}

	r, err := e.build(expression, dtstart, limit)
	if err != nil {
		return nil, err
	}
	return r.All(), nil
}

func (e *Engine) build(expression string, dtstart time.Time, limit Limit) (*rrule.RRule, error) {
	opt, err := rrule.StrToROption(expression)
	if err != nil {
		return nil, fmt.Errorf("failed to parse recurrence %q: %w", expression, err)
	}

	opt.Dtstart = dtstart
	switch {
	case limit.Count > 0:
		opt.Count = limit.Count
	default:
		opt.Count = e.maxInstances
	}
	if until, ok := limit.Until.Get(); ok {
		opt.Until = until
	}

	r, err := rrule.NewRRule(*opt)
	if err != nil {
		return nil, fmt.Errorf("failed to build recurrence %q: %w", expression, err)
	}
	return r, nil
}
