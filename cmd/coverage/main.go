// Command coverage expands every anchor a rule can use across a span of
// years and checks each occurrence against a date computed directly from
// the calendar tables.
//
// Usage:
//
//	go run ./cmd/coverage -start 2024 -years 50
//	go run ./cmd/coverage -start 1900 -years 300 -o coverage.json
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/samber/mo"

	"github.com/zapponejosh/gatherings-api/internal/calendar"
	"github.com/zapponejosh/gatherings-api/internal/rule"
)

// TestResult holds the result for a single rule in a single year.
type TestResult struct {
	Rule     string `json:"rule"`
	Category string `json:"category"`
	Year     int    `json:"year"`
	Want     string `json:"want"`
	Got      string `json:"got"`
	Success  bool   `json:"success"`
	Error    string `json:"error,omitempty"`
}

// CategoryStats tracks statistics for each anchor category.
type CategoryStats struct {
	Category    string   `json:"category"`
	Total       int      `json:"total"`
	Passed      int      `json:"passed"`
	Failed      int      `json:"failed"`
	FailedRules []string `json:"failed_rules,omitempty"`
}

// Analysis summarises a coverage run.
type Analysis struct {
	TotalTested int                       `json:"total_tested"`
	TotalPassed int                       `json:"total_passed"`
	TotalFailed int                       `json:"total_failed"`
	Categories  map[string]*CategoryStats `json:"categories"`
	Failures    []TestResult              `json:"failures,omitempty"`
}

// check is one rule together with the date it must resolve to in a year.
type check struct {
	category string
	rule     rule.Rule
	want     func(year int) (time.Time, error)
}

func main() {
	startYear := flag.Int("start", 2024, "Start year")
	years := flag.Int("years", 50, "Number of years to test")
	verbose := flag.Bool("v", false, "Verbose output (show each rule)")
	outputFile := flag.String("o", "", "Output results to JSON file")
	flag.Parse()

	if *years < 1 {
		fmt.Println("Error: -years must be at least 1")
		os.Exit(2)
	}
	endYear := *startYear + *years - 1

	fmt.Println("================================================================")
	fmt.Println("Gathering Rules - Anchor Coverage Test")
	fmt.Println("================================================================")
	fmt.Printf("Years:       %d to %d\n", *startYear, endYear)
	fmt.Println()

	results := runChecks(rule.NewExpander(), buildChecks(), *startYear, endYear, *verbose)
	analysis := analyzeResults(results)

	printSummary(analysis)
	printFailures(analysis)

	if *outputFile != "" {
		if err := saveResults(*outputFile, results, analysis); err != nil {
			fmt.Printf("Error saving results: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("\nResults saved to: %s\n", *outputFile)
	}

	if analysis.TotalFailed > 0 {
		os.Exit(1)
	}
}

// buildChecks lists every nth and last weekday of every month plus every
// special day.
func buildChecks() []check {
	var checks []check
	for m := time.January; m <= time.December; m++ {
		for wd := time.Sunday; wd <= time.Saturday; wd++ {
			for _, n := range []int{1, 2, 3, 4, rule.Last} {
				month, weekday, ordinal := m, wd, n
				checks = append(checks, check{
					category: "nthDay",
					rule:     rule.Rule{Anchor: rule.NthDay{Month: month, ByDay: rule.ByDay{Ordinal: ordinal, Weekday: weekday}}},
					want:     nthWeekday(month, weekday, ordinal),
				})
			}
			month, weekday := m, wd
			checks = append(checks, check{
				category: "lastDay",
				rule:     rule.Rule{Anchor: rule.LastDay{Month: month, Weekday: weekday}},
				want:     nthWeekday(month, weekday, rule.Last),
			})
		}
	}

	for _, day := range calendar.SpecialDays() {
		checks = append(checks, check{
			category: string(day.Category),
			rule:     rule.Rule{Anchor: rule.Special{Key: day.Key}},
			want:     specialDate(day),
		})
	}
	return checks
}

func nthWeekday(m time.Month, wd time.Weekday, n int) func(int) (time.Time, error) {
	return func(year int) (time.Time, error) {
		d, ok := calendar.NthWeekday(year, m, wd, n)
		if !ok {
			return time.Time{}, fmt.Errorf("no %s %s in %s %d", calendar.OrdinalWord(n), wd, m, year)
		}
		return d, nil
	}
}

func specialDate(day calendar.SpecialDay) func(int) (time.Time, error) {
	return func(year int) (time.Time, error) {
		switch day.Category {
		case calendar.CategoryFixedDate:
			return time.Date(year, day.Month, day.Day, 0, 0, 0, 0, time.UTC), nil
		case calendar.CategoryEasterRelative:
			easter, err := calendar.Easter(year)
			if err != nil {
				return time.Time{}, err
			}
			return easter.AddDate(0, 0, day.EasterOffset), nil
		default:
			for _, yd := range day.Window {
				if d := calendar.Date(year, yd, time.UTC); d.Weekday() == day.Weekday {
					return d, nil
				}
			}
			return time.Time{}, fmt.Errorf("%s has no %s in its window", day.Key, day.Weekday)
		}
	}
}

func runChecks(x *rule.Expander, checks []check, startYear, endYear int, verbose bool) []TestResult {
	from := time.Date(startYear, time.January, 1, 0, 0, 0, 0, time.UTC)
	until := time.Date(endYear, time.December, 31, 23, 59, 59, 0, time.UTC)

	fmt.Printf("Testing %d rules over %d years...\n\n", len(checks), endYear-startYear+1)

	var results []TestResult
	failed := 0
	for i, c := range checks {
		name := c.rule.String()
		got := make(map[int]string)

		occ, err := x.OccurrencesUntil(c.rule, until, mo.Some(from))
		if err != nil {
			failed++
			results = append(results, TestResult{Rule: name, Category: c.category, Year: startYear, Error: err.Error()})
			continue
		}
		for _, o := range occ {
			got[o.End.Year()] = o.End.Format(time.DateOnly)
		}

		for year := startYear; year <= endYear; year++ {
			result := TestResult{Rule: name, Category: c.category, Year: year, Got: got[year]}
			want, err := c.want(year)
			if err != nil {
				result.Error = err.Error()
			} else {
				result.Want = want.Format(time.DateOnly)
				result.Success = result.Want == result.Got
				if !result.Success {
					result.Error = "date mismatch"
				}
			}
			if !result.Success {
				failed++
			}
			results = append(results, result)

			if verbose && !result.Success {
				fmt.Printf("  ✗ %s %d: want %s, got %s\n", name, year, result.Want, result.Got)
			}
		}

		if verbose {
			fmt.Printf("  [%d/%d] %s (%d occurrences)\n", i+1, len(checks), name, len(occ))
		}
	}

	fmt.Printf("  Done - Failures: %d\n\n", failed)
	return results
}

func analyzeResults(results []TestResult) *Analysis {
	analysis := &Analysis{Categories: make(map[string]*CategoryStats)}

	for _, r := range results {
		analysis.TotalTested++

		stats, ok := analysis.Categories[r.Category]
		if !ok {
			stats = &CategoryStats{Category: r.Category}
			analysis.Categories[r.Category] = stats
		}
		stats.Total++

		if r.Success {
			analysis.TotalPassed++
			stats.Passed++
			continue
		}
		analysis.TotalFailed++
		stats.Failed++
		analysis.Failures = append(analysis.Failures, r)
		if n := len(stats.FailedRules); n == 0 || stats.FailedRules[n-1] != r.Rule {
			stats.FailedRules = append(stats.FailedRules, r.Rule)
		}
	}

	return analysis
}

func printSummary(analysis *Analysis) {
	fmt.Println("================================================================")
	fmt.Println("SUMMARY")
	fmt.Println("================================================================")
	fmt.Printf("Total checks:  %d\n", analysis.TotalTested)
	fmt.Printf("Passed:        %d\n", analysis.TotalPassed)
	fmt.Printf("Failed:        %d\n", analysis.TotalFailed)
	if analysis.TotalTested > 0 {
		fmt.Printf("Success rate:  %.2f%%\n", float64(analysis.TotalPassed)*100/float64(analysis.TotalTested))
	}
	fmt.Println()

	names := make([]string, 0, len(analysis.Categories))
	for name := range analysis.Categories {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Printf("%-16s %8s %8s %8s\n", "CATEGORY", "TOTAL", "PASSED", "FAILED")
	for _, name := range names {
		s := analysis.Categories[name]
		fmt.Printf("%-16s %8d %8d %8d\n", s.Category, s.Total, s.Passed, s.Failed)
	}
	fmt.Println()
}

func printFailures(analysis *Analysis) {
	if analysis.TotalFailed == 0 {
		fmt.Println("All checks passed.")
		return
	}

	fmt.Println("================================================================")
	fmt.Println("FAILURES")
	fmt.Println("================================================================")
	const limit = 50
	for i, f := range analysis.Failures {
		if i == limit {
			fmt.Printf("... and %d more\n", len(analysis.Failures)-limit)
			break
		}
		fmt.Printf("  %s %d: want %q, got %q", f.Rule, f.Year, f.Want, f.Got)
		if f.Error != "" {
			fmt.Printf(" (%s)", f.Error)
		}
		fmt.Println()
	}
}

func saveResults(filename string, results []TestResult, analysis *Analysis) error {
	output := struct {
		Analysis *Analysis    `json:"analysis"`
		Results  []TestResult `json:"results"`
	}{analysis, results}

	data, err := json.MarshalIndent(output, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal results: %w", err)
	}
	return os.WriteFile(filename, data, 0o644)
}
