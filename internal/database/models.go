package database

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
	_ "time/tzdata" // gatherings name IANA zones; hosts may lack a zoneinfo database

	"github.com/zapponejosh/gatherings-api/internal/rule"
)

// Gathering is a named annual event defined by a rule.
type Gathering struct {
	ID          int64     `json:"id"`
	Slug        string    `json:"slug"`                  // URL-safe unique key, derived from the name if empty
	Name        string    `json:"name"`                  // "Family reunion"
	Description *string   `json:"description,omitempty"` // nullable
	Rule        rule.Rule `json:"rule"`
	Timezone    string    `json:"timezone"` // IANA zone occurrences are resolved in
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Location loads the gathering's time zone.
func (g *Gathering) Location() (*time.Location, error) {
	if g.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(g.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", g.Timezone, err)
	}
	return loc, nil
}

// Validate checks the gathering before it is written. Rule problems are
// returned as *rule.Error values.
func (g *Gathering) Validate() error {
	var errs []error
	if strings.TrimSpace(g.Name) == "" {
		errs = append(errs, errors.New("name is required"))
	}
	if g.Slug != "" && !slugPattern.MatchString(g.Slug) {
		errs = append(errs, fmt.Errorf("slug %q must be lowercase letters, digits and dashes", g.Slug))
	}
	if _, err := g.Location(); err != nil {
		errs = append(errs, err)
	}
	if err := rule.Validate(g.Rule); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

var (
	slugPattern  = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)
	nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)
)

// Slugify derives a slug from a name: "Mum's 70th Party!" becomes
// "mum-s-70th-party".
func Slugify(name string) string {
	return strings.Trim(nonSlugChars.ReplaceAllString(strings.ToLower(name), "-"), "-")
}

// ListOptions filters and pages ListGatherings.
type ListOptions struct {
	Kind   string // anchor kind: nthDay, lastDay or special
	Limit  int
	Offset int
}
