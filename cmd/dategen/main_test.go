package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/zapponejosh/gatherings-api/internal/rule"
)

func TestRun_Text(t *testing.T) {
	var buf bytes.Buffer
	o := options{
		fields: rule.Fields{Kind: rule.KindNthDay, Month: 5, ByDay: "1SU", Offset: "-1SA", Interval: 1},
		count:  2,
		start:  "2021-01-01",
	}
	if err := run(&buf, o); err != nil {
		t.Fatalf("run() error = %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		"Sentence:   The Saturday before the first Sunday in May",
		"Expression: FREQ=YEARLY;INTERVAL=1;BYDAY=SA;BYYEARDAY=",
		"2021-05-01",
		"2022-04-30",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRun_InferJSON(t *testing.T) {
	var buf bytes.Buffer
	o := options{from: "2021-05-01", ref: "SU", count: 1, start: "2022-01-01", asJSON: true}
	if err := run(&buf, o); err != nil {
		t.Fatalf("run() error = %v", err)
	}

	var rep struct {
		Rule        rule.Fields `json:"rule"`
		Sentence    string      `json:"sentence"`
		Occurrences []struct {
			End string `json:"end"`
		} `json:"occurrences"`
	}
	if err := json.Unmarshal(buf.Bytes(), &rep); err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if rep.Rule.ByDay != "1SU" || rep.Rule.Offset != "-1SA" {
		t.Errorf("rule = %+v, want 1SU with -1SA", rep.Rule)
	}
	if len(rep.Occurrences) != 1 || !strings.HasPrefix(rep.Occurrences[0].End, "2022-04-30") {
		t.Errorf("occurrences = %+v, want 2022-04-30", rep.Occurrences)
	}
}

func TestRun_EasterHasNoExpression(t *testing.T) {
	var buf bytes.Buffer
	o := options{fields: rule.Fields{Kind: rule.KindSpecial, Special: "easter"}, count: 1, start: "2024-01-01"}
	if err := run(&buf, o); err != nil {
		t.Fatalf("run() error = %v", err)
	}
	if !strings.Contains(buf.String(), "Expression: (none, Easter-relative)") {
		t.Errorf("output:\n%s", buf.String())
	}
	if !strings.Contains(buf.String(), "2024-03-31") {
		t.Errorf("output missing Easter 2024:\n%s", buf.String())
	}
}

func TestRun_InvalidRule(t *testing.T) {
	o := options{fields: rule.Fields{Kind: rule.KindNthDay, Month: 5, ByDay: "5SU"}, count: 1}
	if err := run(&bytes.Buffer{}, o); err == nil {
		t.Error("run() expected error for fifth ordinal")
	}
}

func TestRun_Tables(t *testing.T) {
	var buf bytes.Buffer
	if err := run(&buf, options{specials: true}); err != nil {
		t.Fatalf("run(specials) error = %v", err)
	}
	if !strings.Contains(buf.String(), "palmSunday") {
		t.Errorf("specials output missing palmSunday:\n%s", buf.String())
	}

	buf.Reset()
	if err := run(&buf, options{easterTable: true}); err != nil {
		t.Fatalf("run(easter-table) error = %v", err)
	}
	if !strings.Contains(buf.String(), "April 15 to April 21") || !strings.Contains(buf.String(), "1900-2199") {
		t.Errorf("easter table output:\n%s", buf.String())
	}
}
