package ics

import (
	"strings"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/require"

	"coursecal/internal/model"
)

var testSource = Source{ID: "home", Name: "Home", URL: "https://cal.example.com/secret/home.ics"}

// calendar wraps VEVENT lines in a VCALENDAR using CRLF line endings.
func calendar(lines ...string) []byte {
	all := append([]string{"BEGIN:VCALENDAR", "VERSION:2.0", "PRODID:-//test//EN"}, lines...)
	all = append(all, "END:VCALENDAR")
	return []byte(strings.Join(all, "\r\n") + "\r\n")
}

func parse(t *testing.T, body []byte) map[string]model.EventTemplate {
	t.Helper()
	tmpls, err := ParseICS(testSource, body, time.UTC)
	require.NoError(t, err)
	out := make(map[string]model.EventTemplate, len(tmpls))
	for _, tm := range tmpls {
		out[tm.ID] = tm
	}
	return out
}

func TestParseSingleEvent(t *testing.T) {
	got := parse(t, calendar(
		"BEGIN:VEVENT",
		"UID:dentist",
		"SUMMARY:Dentist",
		"LOCATION:Main street 1",
		"DTSTART:20251002T090000Z",
		"DTEND:20251002T093000Z",
		"END:VEVENT",
	))
	require.Len(t, got, 1)

	ev := got["ics:home:dentist"]
	require.Equal(t, "Dentist", ev.Title)
	require.Equal(t, "Main street 1", ev.Location)
	require.Equal(t, model.CategoryPersonal, ev.Category)
	require.Equal(t, model.StatusScheduled, ev.Status)
	require.Equal(t, time.Date(2025, 10, 2, 9, 0, 0, 0, time.UTC), ev.Start)
	require.Equal(t, 30*time.Minute, ev.End.Sub(ev.Start))
	require.Nil(t, ev.Recurrence)
	require.False(t, ev.AllDay)
}

func TestParseAllDayAndCancelled(t *testing.T) {
	got := parse(t, calendar(
		"BEGIN:VEVENT",
		"UID:trip",
		"SUMMARY:Trip",
		"DTSTART;VALUE=DATE:20251003",
		"STATUS:CANCELLED",
		"END:VEVENT",
	))

	ev := got["ics:home:trip"]
	require.True(t, ev.AllDay)
	require.Equal(t, time.Date(2025, 10, 3, 0, 0, 0, 0, time.UTC), ev.Start)
	require.Equal(t, time.Date(2025, 10, 4, 0, 0, 0, 0, time.UTC), ev.End)
	require.Equal(t, model.StatusCancelled, ev.Status)
}

func TestParseTZID(t *testing.T) {
	got := parse(t, calendar(
		"BEGIN:VEVENT",
		"UID:call",
		"SUMMARY:Call",
		"DTSTART;TZID=Europe/Amsterdam:20250901T100000",
		"DTEND;TZID=Europe/Amsterdam:20250901T110000",
		"END:VEVENT",
	))

	ev := got["ics:home:call"]
	require.Equal(t, time.Date(2025, 9, 1, 8, 0, 0, 0, time.UTC), ev.Start)
	require.Equal(t, time.Date(2025, 9, 1, 9, 0, 0, 0, time.UTC), ev.End)
}

func TestParseRecurrenceRules(t *testing.T) {
	got := parse(t, calendar(
		"BEGIN:VEVENT",
		"UID:until",
		"DTSTART:20250901T100000Z",
		"DTEND:20250901T110000Z",
		"RRULE:FREQ=WEEKLY;BYDAY=MO;UNTIL=20251215T235959Z",
		"END:VEVENT",
		"BEGIN:VEVENT",
		"UID:count",
		"DTSTART:20250901T100000Z",
		"DTEND:20250901T110000Z",
		"RRULE:FREQ=WEEKLY;COUNT=3",
		"END:VEVENT",
		"BEGIN:VEVENT",
		"UID:fortnight",
		"DTSTART:20250901T100000Z",
		"DTEND:20250901T110000Z",
		"RRULE:FREQ=WEEKLY;INTERVAL=2",
		"END:VEVENT",
		"BEGIN:VEVENT",
		"UID:otherday",
		"DTSTART:20250901T100000Z",
		"DTEND:20250901T110000Z",
		"RRULE:FREQ=WEEKLY;BYDAY=TU",
		"END:VEVENT",
		"BEGIN:VEVENT",
		"UID:rent",
		"DTSTART:20250905T090000Z",
		"DTEND:20250905T091500Z",
		"RRULE:FREQ=MONTHLY",
		"END:VEVENT",
	))
	require.Len(t, got, 5)

	until := got["ics:home:until"].Recurrence
	require.Equal(t, model.FrequencyWeekly, until.Rule)
	require.Equal(t, time.Date(2025, 12, 15, 23, 59, 59, 0, time.UTC), *until.EndDate)

	count := got["ics:home:count"].Recurrence
	require.Equal(t, model.FrequencyWeekly, count.Rule)
	require.Equal(t, time.Date(2025, 9, 15, 10, 0, 0, 0, time.UTC), *count.EndDate)

	// Rules the cadence cannot express stay raw and are not Known.
	fortnight := got["ics:home:fortnight"].Recurrence
	require.False(t, fortnight.Rule.Known())
	require.Equal(t, model.Frequency("FREQ=WEEKLY;INTERVAL=2"), fortnight.Rule)
	require.False(t, got["ics:home:otherday"].Recurrence.Rule.Known())

	rent := got["ics:home:rent"].Recurrence
	require.Equal(t, model.FrequencyMonthly, rent.Rule)
	require.Nil(t, rent.EndDate)
}

func TestParseExdateAndOverride(t *testing.T) {
	tmpls, err := ParseICS(testSource, calendar(
		"BEGIN:VEVENT",
		"UID:run",
		"SUMMARY:Run",
		"DTSTART:20250901T070000Z",
		"DTEND:20250901T080000Z",
		"RRULE:FREQ=WEEKLY",
		"EXDATE:20250908T070000Z,20250915T070000Z",
		"END:VEVENT",
		"BEGIN:VEVENT",
		"UID:run",
		"SUMMARY:Run (late)",
		"RECURRENCE-ID:20250922T070000Z",
		"DTSTART:20250922T180000Z",
		"DTEND:20250922T190000Z",
		"END:VEVENT",
	), time.UTC)
	require.NoError(t, err)
	require.Len(t, tmpls, 2)

	series := tmpls[0]
	require.Equal(t, "ics:home:run", series.ID)
	require.Equal(t, []time.Time{
		time.Date(2025, 9, 8, 7, 0, 0, 0, time.UTC),
		time.Date(2025, 9, 15, 7, 0, 0, 0, time.UTC),
		time.Date(2025, 9, 22, 7, 0, 0, 0, time.UTC),
	}, series.Recurrence.Except)

	override := tmpls[1]
	require.Equal(t, "ics:home:run@2025-09-22T07:00:00Z", override.ID)
	require.Equal(t, "Run (late)", override.Title)
	require.Nil(t, override.Recurrence)
	require.Equal(t, time.Date(2025, 9, 22, 18, 0, 0, 0, time.UTC), override.Start)
}

func TestParseSkipsBrokenEvents(t *testing.T) {
	got := parse(t, calendar(
		"BEGIN:VEVENT",
		"SUMMARY:No uid",
		"DTSTART:20251002T090000Z",
		"END:VEVENT",
		"BEGIN:VEVENT",
		"UID:nostart",
		"SUMMARY:No start",
		"END:VEVENT",
		"BEGIN:VEVENT",
		"UID:badend",
		"DTSTART:20251002T090000Z",
		"DTEND:20251001T090000Z",
		"END:VEVENT",
	))
	require.Len(t, got, 1)
	ev := got["ics:home:badend"]
	require.Equal(t, ev.Start, ev.End)
}

func TestParseEmptyBody(t *testing.T) {
	_, err := ParseICS(testSource, nil, time.UTC)
	require.Error(t, err)
}

func TestRedactURL(t *testing.T) {
	require.Equal(t, "https://cal.example.com/...(redacted)", redactURL(testSource.URL))
	require.Equal(t, "ics://...(redacted)", redactURL("not a url"))
}
