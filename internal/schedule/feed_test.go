package schedule

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/beevik/etree"
	"github.com/emersion/go-ical"
	"github.com/stretchr/testify/assert"
	"github.com/samber/mo"
	"github.com/stretchr/testify/require"

	"github.com/zapponejosh/gatherings-api/internal/rule"
)

var stamp = time.Date(2021, time.January, 1, 0, 0, 0, 0, time.UTC)

func easterFeed() *Feed {
	f := NewFeed("Easter", stamp)
	f.Add("easter-lunch", "Easter lunch", "Easter", mo.None[string](), rule.Occurrence{
		Start: time.Date(2021, time.April, 3, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2021, time.April, 4, 0, 0, 0, 0, time.UTC),
	})
	return f
}

func TestFeed_StableUIDs(t *testing.T) {
	a, b := easterFeed(), easterFeed()
	require.Len(t, a.Events, 1)
	assert.Equal(t, a.Events[0].UID, b.Events[0].UID)

	other := NewFeed("Other", stamp)
	other.Add("another-gathering", "Other", "", mo.None[string](), rule.Occurrence{Start: a.Events[0].Start, End: a.Events[0].End})
	assert.NotEqual(t, a.Events[0].UID, other.Events[0].UID)
}

func TestFeed_EncodeICSRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, easterFeed().EncodeICS(&buf))

	cal, err := ical.NewDecoder(&buf).Decode()
	require.NoError(t, err)

	events := cal.Events()
	require.Len(t, events, 1)

	summary, err := events[0].Props.Text(ical.PropSummary)
	require.NoError(t, err)
	assert.Equal(t, "Easter lunch", summary)

	start := events[0].Props.Get(ical.PropDateTimeStart)
	require.NotNil(t, start)
	assert.Equal(t, "20210403", start.Value)
	assert.Equal(t, ical.ValueDate, start.ValueType())

	end := events[0].Props.Get(ical.PropDateTimeEnd)
	require.NotNil(t, end)
	assert.Equal(t, "20210405", end.Value)
}

func TestFeed_EncodeXCal(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, easterFeed().EncodeXCal(&buf))

	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromBytes(buf.Bytes()))

	root := doc.SelectElement("icalendar")
	require.NotNil(t, root)
	assert.Equal(t, xcalNamespace, root.SelectAttrValue("xmlns", ""))

	events := root.FindElements("./vcalendar/components/vevent")
	require.Len(t, events, 1)

	dtstart := events[0].FindElement("./properties/dtstart/date")
	require.NotNil(t, dtstart)
	assert.Equal(t, "2021-04-03", dtstart.Text())

	summary := events[0].FindElement("./properties/summary/text")
	require.NotNil(t, summary)
	assert.Equal(t, "Easter lunch", summary.Text())
}

// reunionFeed holds three occurrences of the Saturday before the first
// Sunday in May.
func reunionFeed(t *testing.T) *Feed {
	t.Helper()
	r := rule.Rule{
		Anchor: rule.NthDay{Month: time.May, ByDay: rule.ByDay{Ordinal: 1, Weekday: time.Sunday}},
		Offset: mo.Some(rule.Offset{Sign: -1, Weekday: time.Saturday}),
	}
	expr, err := rule.Expression(r)
	require.NoError(t, err)
	occs, err := rule.Occurrences(r, 3, mo.Some(stamp))
	require.NoError(t, err)

	f := NewFeed("Reunion", stamp)
	f.Add("reunion", "Family reunion", "", mo.Some(expr), occs...)
	return f
}

func TestFeed_RecurringEvent(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, reunionFeed(t).EncodeICS(&buf))

	cal, err := ical.NewDecoder(&buf).Decode()
	require.NoError(t, err)
	events := cal.Events()
	require.Len(t, events, 1)

	rrule := events[0].Props.Get(ical.PropRecurrenceRule)
	require.NotNil(t, rrule)
	assert.Contains(t, rrule.Value, "FREQ=YEARLY")
	assert.True(t, strings.HasSuffix(rrule.Value, ";COUNT=3"), rrule.Value)

	start := events[0].Props.Get(ical.PropDateTimeStart)
	require.NotNil(t, start)
	assert.Equal(t, "20210501", start.Value)

	set, err := events[0].RecurrenceSet(time.UTC)
	require.NoError(t, err)
	require.NotNil(t, set)
	var got []string
	for _, d := range set.All() {
		got = append(got, d.Format(time.DateOnly))
	}
	assert.Equal(t, []string{"2021-05-01", "2022-04-30", "2023-04-29"}, got)
}

func TestFeed_NoRecurrenceWithoutExpression(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, easterFeed().EncodeICS(&buf))

	cal, err := ical.NewDecoder(&buf).Decode()
	require.NoError(t, err)
	for _, e := range cal.Events() {
		assert.Nil(t, e.Props.Get(ical.PropRecurrenceRule))
	}
}

func TestFeed_SpansAreSingleEvents(t *testing.T) {
	occs := []rule.Occurrence{
		{Start: time.Date(2021, time.April, 30, 0, 0, 0, 0, time.UTC), End: time.Date(2021, time.May, 1, 0, 0, 0, 0, time.UTC)},
		{Start: time.Date(2022, time.April, 29, 0, 0, 0, 0, time.UTC), End: time.Date(2022, time.April, 30, 0, 0, 0, 0, time.UTC)},
	}
	f := NewFeed("Reunion", stamp)
	f.Add("reunion", "Family reunion", "", mo.Some("FREQ=YEARLY;INTERVAL=1;BYMONTH=5"), occs...)

	require.Len(t, f.Events, 2)
	for _, e := range f.Events {
		assert.True(t, e.Recurrence.IsAbsent())
	}
}

func TestFeed_EncodeXCalRecurrence(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, reunionFeed(t).EncodeXCal(&buf))

	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromBytes(buf.Bytes()))

	recur := doc.FindElement("//vevent/properties/rrule/recur")
	require.NotNil(t, recur)
	freq := recur.SelectElement("freq")
	require.NotNil(t, freq)
	assert.Equal(t, "YEARLY", freq.Text())
	count := recur.SelectElement("count")
	require.NotNil(t, count)
	assert.Equal(t, "3", count.Text())
	assert.Len(t, recur.SelectElements("byyearday"), 7)
}
