package main

import (
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/zapponejosh/gatherings-api/internal/logger"
	"github.com/zapponejosh/gatherings-api/internal/rule"
)

const sampleCSV = `name,kind,month,byday,weekday,special,offset,interval,start_offset,timezone,notes
Family Reunion,nthDay,5,1su,,,-1sa,,,America/Chicago,lake house
Bank Holiday Barbecue,lastDay,5,,MO,,,2,,,
Easter Weekend,special,,,,easter,,,-2,,
`

func TestLoadGatherings(t *testing.T) {
	gatherings, skipped, err := loadGatherings(csv.NewReader(strings.NewReader(sampleCSV)), false, logger.Discard())
	if err != nil {
		t.Fatalf("loadGatherings() error = %v", err)
	}
	if skipped != 0 {
		t.Errorf("skipped = %d, want 0", skipped)
	}
	if len(gatherings) != 3 {
		t.Fatalf("got %d gatherings, want 3", len(gatherings))
	}

	reunion := gatherings[0]
	if reunion.Timezone != "America/Chicago" {
		t.Errorf("timezone = %q", reunion.Timezone)
	}
	wantAnchor := rule.NthDay{Month: time.May, ByDay: rule.ByDay{Ordinal: 1, Weekday: time.Sunday}}
	if reunion.Rule.Anchor != wantAnchor {
		t.Errorf("anchor = %v, want %v", reunion.Rule.Anchor, wantAnchor)
	}
	if off, ok := reunion.Rule.Offset.Get(); !ok || off.Weekday != time.Saturday || off.Sign != -1 {
		t.Errorf("offset = %v, want -1SA", reunion.Rule.Offset)
	}

	if got := gatherings[1].Rule.Interval; got != 2 {
		t.Errorf("interval = %d, want 2", got)
	}
	if got := gatherings[2].Rule.StartOffset.OrElse(0); got != -2 {
		t.Errorf("start offset = %d, want -2", got)
	}
}

func TestLoadGatherings_BadRow(t *testing.T) {
	data := "name,kind,month,byday\nGood,nthDay,5,1SU\nBad,nthDay,5,5SU\n"

	if _, _, err := loadGatherings(csv.NewReader(strings.NewReader(data)), false, logger.Discard()); err == nil {
		t.Fatal("loadGatherings() expected error for fifth ordinal")
	} else if !strings.Contains(err.Error(), "line 3") {
		t.Errorf("error = %v, want line 3", err)
	}

	gatherings, skipped, err := loadGatherings(csv.NewReader(strings.NewReader(data)), true, logger.Discard())
	if err != nil {
		t.Fatalf("loadGatherings(skip) error = %v", err)
	}
	if len(gatherings) != 1 || skipped != 1 {
		t.Errorf("got %d gatherings, %d skipped; want 1 and 1", len(gatherings), skipped)
	}
}

func TestLoadGatherings_MissingColumns(t *testing.T) {
	_, _, err := loadGatherings(csv.NewReader(strings.NewReader("title,kind\n")), false, logger.Discard())
	if err == nil {
		t.Error("loadGatherings() expected error for missing name column")
	}
}
