// Command dategen prints the expression, sentence and upcoming dates of a
// gathering rule.
//
// Usage:
//
//	go run ./cmd/dategen -kind nthDay -month 5 -byday 1SU -offset -1SA -count 5
//	go run ./cmd/dategen -from 2025-05-03 -ref SU
//	go run ./cmd/dategen -specials
//	go run ./cmd/dategen -easter-table
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/samber/mo"

	"github.com/zapponejosh/gatherings-api/internal/calendar"
	"github.com/zapponejosh/gatherings-api/internal/logger"
	"github.com/zapponejosh/gatherings-api/internal/rule"
)

type options struct {
	fields      rule.Fields
	startOffset int
	count       int
	start       string
	from        string
	ref         string
	last        bool
	asJSON      bool
	specials    bool
	easterTable bool
	verbose     bool
}

func main() {
	var o options
	flag.StringVar(&o.fields.Kind, "kind", "", "Anchor kind: nthDay, lastDay or special")
	flag.IntVar(&o.fields.Month, "month", 0, "Month number for nthDay and lastDay")
	flag.StringVar(&o.fields.ByDay, "byday", "", "Ordinal weekday for nthDay, e.g. 1SU or -1FR")
	flag.StringVar(&o.fields.Weekday, "weekday", "", "Weekday code for lastDay, e.g. SA")
	flag.StringVar(&o.fields.Special, "special", "", "Special day key: "+strings.Join(calendar.SpecialDayKeys(), ", "))
	flag.StringVar(&o.fields.Offset, "offset", "", "Weekday offset, e.g. -1SA or +1MO")
	flag.IntVar(&o.fields.Interval, "interval", 1, "Repeat every N years")
	flag.IntVar(&o.startOffset, "start-offset", 0, "Days the occurrence starts before its day (-6..0)")
	flag.IntVar(&o.count, "count", 5, "Number of occurrences to print")
	flag.StringVar(&o.start, "start", "", "First date to consider, YYYY-MM-DD (default today)")
	flag.StringVar(&o.from, "from", "", "Infer the rule from this sample date, YYYY-MM-DD")
	flag.StringVar(&o.ref, "ref", "", "Reference weekday for -from, e.g. SU")
	flag.BoolVar(&o.last, "last", false, "Infer a lastDay rule with -from")
	flag.BoolVar(&o.asJSON, "json", false, "Print JSON instead of text")
	flag.BoolVar(&o.specials, "specials", false, "List the special days and exit")
	flag.BoolVar(&o.easterTable, "easter-table", false, "Print the Easter full-moon table and exit")
	flag.BoolVar(&o.verbose, "v", false, "Log expansion details to stderr")
	flag.Parse()

	if err := run(os.Stdout, o); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// report is what dategen prints for one rule.
type report struct {
	Rule        rule.Rule         `json:"rule"`
	Expression  string            `json:"expression,omitempty"`
	Sentence    string            `json:"sentence"`
	Occurrences []rule.Occurrence `json:"occurrences"`
}

func run(w io.Writer, o options) error {
	switch {
	case o.specials:
		return printSpecials(w)
	case o.easterTable:
		return printEasterTable(w)
	}

	r, err := buildRule(o)
	if err != nil {
		return err
	}

	start := mo.None[time.Time]()
	if o.start != "" {
		d, err := time.Parse(time.DateOnly, o.start)
		if err != nil {
			return fmt.Errorf("invalid -start: %w", err)
		}
		start = mo.Some(d)
	}

	x := rule.NewExpander()
	if o.verbose {
		x = rule.NewExpander(rule.WithLogger(logger.New(os.Stderr, "debug", "text")))
	}

	rep := report{Rule: r}
	if rep.Sentence, err = rule.Sentence(r); err != nil {
		return err
	}
	expr, err := rule.Expression(r)
	switch {
	case err == nil:
		rep.Expression = expr
	case !errors.Is(err, rule.ErrUnsupported):
		return err
	}
	if rep.Occurrences, err = x.Occurrences(r, o.count, start); err != nil {
		return err
	}

	if o.asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rep)
	}
	return printReport(w, rep)
}

// buildRule assembles the rule from flags, or infers it with -from.
func buildRule(o options) (rule.Rule, error) {
	if o.from != "" {
		date, err := time.Parse(time.DateOnly, o.from)
		if err != nil {
			return rule.Rule{}, fmt.Errorf("invalid -from: %w", err)
		}
		reference := mo.None[time.Weekday]()
		if o.ref != "" {
			wd, err := rule.ParseWeekday("ref", o.ref)
			if err != nil {
				return rule.Rule{}, err
			}
			reference = mo.Some(wd)
		}
		if o.last {
			return rule.InferLastDay(date, reference)
		}
		return rule.InferFromDate(date, reference)
	}

	f := o.fields
	if o.startOffset != 0 {
		f.StartOffset = &o.startOffset
	}
	r, err := f.Rule()
	if err != nil {
		return rule.Rule{}, err
	}
	return r, rule.Validate(r)
}

func printReport(w io.Writer, rep report) error {
	fmt.Fprintf(w, "Rule:       %s\n", rep.Rule)
	fmt.Fprintf(w, "Sentence:   %s\n", rep.Sentence)
	if rep.Expression != "" {
		fmt.Fprintf(w, "Expression: %s\n", rep.Expression)
	} else {
		fmt.Fprintln(w, "Expression: (none, Easter-relative)")
	}
	fmt.Fprintln(w)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "START\tEND\tDAY")
	for _, o := range rep.Occurrences {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", o.Start.Format(time.DateOnly), o.End.Format(time.DateOnly), o.End.Weekday())
	}
	return tw.Flush()
}

func printSpecials(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "KEY\tCATEGORY\tNAME")
	for _, d := range calendar.SpecialDays() {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", d.Key, d.Category, d.Name)
	}
	return tw.Flush()
}

func printEasterTable(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "GOLDEN\tFULL MOON\tEASTER WINDOW\tYEARS")
	march21 := func(days int) string {
		return time.Date(2001, time.March, 21+days, 0, 0, 0, 0, time.UTC).Format("January 2")
	}
	for _, e := range calendar.MetonicTable() {
		w := e.Window()
		fmt.Fprintf(tw, "%d\t%s\t%s to %s\t%d-%d\n",
			e.GoldenNumber, march21(e.FullMoon), march21(w[0]), march21(w[len(w)-1]), e.FirstYear, e.LastYear)
	}
	return tw.Flush()
}
