package schedule

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/beevik/etree"
	"github.com/emersion/go-ical"
	"github.com/google/uuid"
	"github.com/samber/mo"

	"github.com/zapponejosh/gatherings-api/internal/rule"
)

const (
	productID      = "-//gatherings-api//Annual Gatherings//EN"
	icalDateFormat = "20060102"
	xcalNamespace  = "urn:ietf:params:xml:ns:icalendar-2.0"
)

// uidNamespace seeds stable event UIDs, so re-exporting a feed does not
// create duplicate events in subscribed calendars.
var uidNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://gatherings-api/events"))

// Event is one all-day occurrence in a feed.
type Event struct {
	UID         string
	Summary     string
	Description string
	Start       time.Time
	// End is the last day of the occurrence, inclusive.
	End time.Time
	// Recurrence is the RRULE value of a recurring event. The event is then
	// the first instance of the series.
	Recurrence mo.Option[string]
}

// Feed is a list of all-day events exported as a calendar.
type Feed struct {
	Name   string
	Stamp  time.Time
	Events []Event
}

// NewFeed creates an empty feed. Stamp is written as each event's DTSTAMP.
func NewFeed(name string, stamp time.Time) *Feed {
	return &Feed{Name: name, Stamp: stamp.UTC()}
}

// Add appends the occurrences of one gathering. Key identifies the gathering
// and keeps UIDs stable across exports.
//
// When expression is present and no occurrence spans more than its end day,
// the occurrences are written as a single recurring event whose RRULE is the
// expression limited to len(occs) instances. Otherwise each occurrence is its
// own event.
func (f *Feed) Add(key, summary, description string, expression mo.Option[string], occs ...rule.Occurrence) {
	if len(occs) == 0 {
		return
	}
	if expr, ok := expression.Get(); ok && singleDays(occs) {
		f.Events = append(f.Events, Event{
			UID:         uuid.NewSHA1(uidNamespace, []byte(key+"/series/"+occs[0].End.Format(time.DateOnly))).String(),
			Summary:     summary,
			Description: description,
			Start:       occs[0].Start,
			End:         occs[0].End,
			Recurrence:  mo.Some(expr + ";COUNT=" + strconv.Itoa(len(occs))),
		})
		return
	}
	for _, o := range occs {
		f.Events = append(f.Events, Event{
			UID:         uuid.NewSHA1(uidNamespace, []byte(key+"/"+o.End.Format(time.DateOnly))).String(),
			Summary:     summary,
			Description: description,
			Start:       o.Start,
			End:         o.End,
		})
	}
}

// singleDays reports whether every occurrence starts on its end day. A
// recurrence expression places end days, so spans cannot be expressed by it.
func singleDays(occs []rule.Occurrence) bool {
	for _, o := range occs {
		if !o.Start.Equal(o.End) {
			return false
		}
	}
	return true
}

// Calendar builds the iCalendar representation of the feed.
func (f *Feed) Calendar() *ical.Calendar {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, productID)
	if f.Name != "" {
		cal.Props.SetText(ical.PropName, f.Name)
	}

	for _, e := range f.Events {
		event := ical.NewEvent()
		event.Props.SetText(ical.PropUID, e.UID)
		event.Props.SetDateTime(ical.PropDateTimeStamp, f.Stamp)
		setDate(event.Props, ical.PropDateTimeStart, e.Start)
		setDate(event.Props, ical.PropDateTimeEnd, e.End.AddDate(0, 0, 1))
		event.Props.SetText(ical.PropSummary, e.Summary)
		if e.Description != "" {
			event.Props.SetText(ical.PropDescription, e.Description)
		}
		if rrule, ok := e.Recurrence.Get(); ok {
			prop := ical.NewProp(ical.PropRecurrenceRule)
			prop.Value = rrule
			event.Props.Set(prop)
		}
		cal.Children = append(cal.Children, event.Component)
	}
	return cal
}

func setDate(props ical.Props, name string, t time.Time) {
	prop := ical.NewProp(name)
	prop.SetValueType(ical.ValueDate)
	prop.Value = t.Format(icalDateFormat)
	props.Set(prop)
}

// EncodeICS writes the feed as an iCalendar (RFC 5545) stream.
func (f *Feed) EncodeICS(w io.Writer) error {
	if err := ical.NewEncoder(w).Encode(f.Calendar()); err != nil {
		return fmt.Errorf("failed to encode calendar: %w", err)
	}
	return nil
}

// EncodeXCal writes the feed as an xCal (RFC 6321) document.
func (f *Feed) EncodeXCal(w io.Writer) error {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	root := doc.CreateElement("icalendar")
	root.CreateAttr("xmlns", xcalNamespace)
	vcal := root.CreateElement("vcalendar")

	props := vcal.CreateElement("properties")
	xcalValue(props, "version", "text", "2.0")
	xcalValue(props, "prodid", "text", productID)

	components := vcal.CreateElement("components")
	for _, e := range f.Events {
		event := components.CreateElement("vevent").CreateElement("properties")
		xcalValue(event, "uid", "text", e.UID)
		xcalValue(event, "dtstamp", "date-time", f.Stamp.Format("2006-01-02T15:04:05Z"))
		xcalValue(event, "dtstart", "date", e.Start.Format(time.DateOnly))
		xcalValue(event, "dtend", "date", e.End.AddDate(0, 0, 1).Format(time.DateOnly))
		xcalValue(event, "summary", "text", e.Summary)
		if e.Description != "" {
			xcalValue(event, "description", "text", e.Description)
		}
		if rrule, ok := e.Recurrence.Get(); ok {
			xcalRecur(event.CreateElement("rrule").CreateElement("recur"), rrule)
		}
	}

	doc.Indent(2)
	if _, err := doc.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write xcal: %w", err)
	}
	return nil
}

func xcalValue(parent *etree.Element, name, valueType, value string) {
	parent.CreateElement(name).CreateElement(valueType).SetText(value)
}

// xcalRecur writes an RRULE value as RFC 6321 recur parts, one element per
// list item.
func xcalRecur(recur *etree.Element, rrule string) {
	for _, part := range strings.Split(rrule, ";") {
		name, value, ok := strings.Cut(part, "=")
		if !ok {
			continue
		}
		for _, v := range strings.Split(value, ",") {
			recur.CreateElement(strings.ToLower(name)).SetText(v)
		}
	}
}
