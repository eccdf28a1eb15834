// Command import loads gatherings from a CSV file into the SQLite database.
//
// Usage:
//
//	go run ./cmd/import -csv gatherings.csv -db data/gatherings.db
//
// The first row is a header naming the columns. Recognised columns are
// name, slug, description, timezone and the rule fields kind, month, byday,
// weekday, special, offset, interval and start_offset; unknown columns are
// ignored. Example:
//
//	name,kind,month,byday,offset,timezone
//	Family Reunion,nthDay,5,1SU,-1SA,America/Chicago
//
// All rows are inserted in a single transaction. A bad row aborts the
// import unless -skip is given.
package main

import (
	"context"
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/zapponejosh/gatherings-api/internal/database"
	"github.com/zapponejosh/gatherings-api/internal/logger"
	"github.com/zapponejosh/gatherings-api/internal/rule"
)

func main() {
	csvPath := flag.String("csv", "gatherings.csv", "Path to CSV file")
	dbPath := flag.String("db", "data/gatherings.db", "Path to SQLite database")
	skip := flag.Bool("skip", false, "Skip rows that fail to parse instead of aborting")
	verbose := flag.Bool("v", false, "Verbose output")
	flag.Parse()

	level := "info"
	if *verbose {
		level = "debug"
	}
	log := logger.New(os.Stdout, level, "text")

	if err := run(*csvPath, *dbPath, *skip, log); err != nil {
		log.Error("import failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	log.Info("import complete")
}

func run(csvPath, dbPath string, skip bool, log *slog.Logger) error {
	ctx := context.Background()
	startTime := time.Now()

	log.Info("reading CSV file", slog.String("path", csvPath))
	f, err := os.Open(csvPath)
	if err != nil {
		return fmt.Errorf("open CSV file: %w", err)
	}
	defer f.Close()

	gatherings, skipped, err := loadGatherings(csv.NewReader(f), skip, log)
	if err != nil {
		return err
	}
	log.Info("parsed CSV", slog.Int("gatherings", len(gatherings)), slog.Int("skipped", skipped))

	log.Info("opening database", slog.String("path", dbPath))
	db, err := database.Open(database.DefaultConfig(dbPath), log)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	migrated, err := db.Migrate(ctx)
	if err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	log.Info("migrations complete", slog.Int("applied", migrated))

	if err := db.CreateGatherings(ctx, gatherings); err != nil {
		return fmt.Errorf("import gatherings: %w", err)
	}

	total, err := db.CountGatherings(ctx)
	if err != nil {
		return fmt.Errorf("count gatherings: %w", err)
	}

	elapsed := time.Since(startTime)
	log.Info("import verified",
		slog.Int("imported", len(gatherings)),
		slog.Int("total", total),
		slog.Duration("elapsed", elapsed),
	)

	fmt.Println()
	fmt.Println("=== Import Summary ===")
	fmt.Printf("Gatherings imported: %d\n", len(gatherings))
	fmt.Printf("Rows skipped:        %d\n", skipped)
	fmt.Printf("Gatherings in store: %d\n", total)
	fmt.Printf("Time elapsed:        %v\n", elapsed.Round(time.Millisecond))

	return nil
}

// loadGatherings reads every data row after the header. Rows that fail to
// parse or validate abort the load, or are logged and counted when skip is
// set.
func loadGatherings(rd *csv.Reader, skip bool, log *slog.Logger) ([]*database.Gathering, int, error) {
	header, err := rd.Read()
	if err != nil {
		return nil, 0, fmt.Errorf("read header: %w", err)
	}
	columns := make(map[string]int, len(header))
	for i, h := range header {
		columns[strings.ToLower(strings.TrimSpace(h))] = i
	}
	if _, ok := columns["name"]; !ok {
		return nil, 0, errors.New("header has no name column")
	}
	if _, ok := columns["kind"]; !ok {
		return nil, 0, errors.New("header has no kind column")
	}
	rd.FieldsPerRecord = len(header)

	var (
		gatherings []*database.Gathering
		skipped    int
	)
	for line := 2; ; line++ {
		rec, err := rd.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, 0, fmt.Errorf("read row: %w", err)
		}

		g, err := parseRow(columns, rec)
		if err == nil {
			err = g.Validate()
		}
		if err != nil {
			if !skip {
				return nil, 0, fmt.Errorf("line %d: %w", line, err)
			}
			log.Warn("skipping row", slog.Int("line", line), slog.String("error", err.Error()))
			skipped++
			continue
		}
		log.Debug("parsed gathering", slog.String("name", g.Name), slog.String("rule", g.Rule.String()))
		gatherings = append(gatherings, g)
	}
	return gatherings, skipped, nil
}

// parseRow maps one CSV record onto a gathering.
func parseRow(columns map[string]int, rec []string) (*database.Gathering, error) {
	get := func(name string) string {
		if i, ok := columns[name]; ok {
			return strings.TrimSpace(rec[i])
		}
		return ""
	}
	atoi := func(name string) (int, error) {
		s := get(name)
		if s == "" {
			return 0, nil
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return 0, fmt.Errorf("%s: %q is not a number", name, s)
		}
		return n, nil
	}

	fields := rule.Fields{
		Kind:    get("kind"),
		ByDay:   strings.ToUpper(get("byday")),
		Weekday: strings.ToUpper(get("weekday")),
		Special: get("special"),
		Offset:  strings.ToUpper(get("offset")),
	}

	var err error
	if fields.Month, err = atoi("month"); err != nil {
		return nil, err
	}
	if fields.Interval, err = atoi("interval"); err != nil {
		return nil, err
	}
	if get("start_offset") != "" {
		n, err := atoi("start_offset")
		if err != nil {
			return nil, err
		}
		fields.StartOffset = &n
	}

	r, err := fields.Rule()
	if err != nil {
		return nil, err
	}

	g := &database.Gathering{
		Slug:     get("slug"),
		Name:     get("name"),
		Rule:     r,
		Timezone: get("timezone"),
	}
	if d := get("description"); d != "" {
		g.Description = &d
	}
	return g, nil
}
