package ics

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/teambition/rrule-go"

	appLog "coursecal/internal/log"
	"coursecal/internal/model"
)

const propRecurrenceID ical.ComponentProperty = "RECURRENCE-ID"

var icsLayouts = []string{
	"20060102T150405Z",
	"20060102T150405",
	"20060102",
}

var rruleWeekdays = map[time.Weekday]rrule.Weekday{
	time.Monday:    rrule.MO,
	time.Tuesday:   rrule.TU,
	time.Wednesday: rrule.WE,
	time.Thursday:  rrule.TH,
	time.Friday:    rrule.FR,
	time.Saturday:  rrule.SA,
	time.Sunday:    rrule.SU,
}

// parsedEvent is a VEVENT before overrides are folded into their series.
type parsedEvent struct {
	uid        string
	tmpl       model.EventTemplate
	recurrence *time.Time
}

// ParseICS turns one feed payload into personal event templates. Floating
// and date-only times are read in loc. Recurring series keep a simple
// cadence; RECURRENCE-ID overrides become one-off templates and remove the
// instance they replace from their series.
func ParseICS(src Source, body []byte, loc *time.Location) ([]model.EventTemplate, error) {
	if len(body) == 0 {
		return nil, errors.New("empty ICS body")
	}
	if loc == nil {
		loc = time.Local
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		appLog.Error("ics parse failed", err, "id", src.ID, "url", redactURL(src.URL))
		return nil, err
	}

	var (
		series    []parsedEvent
		overrides []parsedEvent
	)
	for _, ve := range cal.Events() {
		ev, err := parseVEvent(src, ve, loc)
		if err != nil {
			appLog.Warn("ics vevent skipped", "id", src.ID, "reason", err.Error())
			continue
		}
		if ev.recurrence != nil {
			overrides = append(overrides, ev)
			continue
		}
		series = append(series, ev)
	}

	byUID := make(map[string]int, len(series))
	for i, ev := range series {
		byUID[ev.uid] = i
	}
	for _, ov := range overrides {
		if i, ok := byUID[ov.uid]; ok && series[i].tmpl.Recurrence != nil {
			r := series[i].tmpl.Recurrence
			r.Except = append(r.Except, *ov.recurrence)
		}
	}

	out := make([]model.EventTemplate, 0, len(series)+len(overrides))
	for _, ev := range series {
		out = append(out, ev.tmpl)
	}
	for _, ov := range overrides {
		out = append(out, ov.tmpl)
	}

	appLog.Info("ics parse completed", "id", src.ID, "url", redactURL(src.URL), "event_count", len(out))
	return out, nil
}

func parseVEvent(src Source, ve *ical.VEvent, loc *time.Location) (parsedEvent, error) {
	var out parsedEvent

	uid := ve.GetProperty(ical.ComponentPropertyUniqueId)
	if uid == nil || uid.Value == "" {
		return out, errors.New("missing UID")
	}
	out.uid = uid.Value

	dtStart := ve.GetProperty(ical.ComponentPropertyDtStart)
	if dtStart == nil {
		return out, errors.New("missing DTSTART")
	}
	start, allDay, err := propTime(dtStart, loc)
	if err != nil {
		return out, fmt.Errorf("DTSTART: %w", err)
	}

	end := start
	if allDay {
		end = start.AddDate(0, 0, 1)
	}
	if dtEnd := ve.GetProperty(ical.ComponentPropertyDtEnd); dtEnd != nil {
		if t, _, err := propTime(dtEnd, loc); err == nil && !t.Before(start) {
			end = t
		}
	}

	tmpl := model.EventTemplate{
		ID:          "ics:" + src.ID + ":" + out.uid,
		Title:       propValue(ve, ical.ComponentPropertySummary),
		Start:       start,
		End:         end,
		AllDay:      allDay,
		Category:    model.CategoryPersonal,
		Location:    propValue(ve, ical.ComponentPropertyLocation),
		Description: propValue(ve, ical.ComponentPropertyDescription),
		Status:      statusOf(propValue(ve, ical.ComponentPropertyStatus)),
	}

	if rid := ve.GetProperty(propRecurrenceID); rid != nil {
		t, _, err := propTime(rid, loc)
		if err != nil {
			return out, fmt.Errorf("RECURRENCE-ID: %w", err)
		}
		out.recurrence = &t
		tmpl.ID += "@" + t.UTC().Format(time.RFC3339)
		out.tmpl = tmpl
		return out, nil
	}

	if rr := ve.GetProperty(ical.ComponentPropertyRrule); rr != nil && rr.Value != "" {
		tmpl.Recurrence = recurrenceOf(rr.Value, start, loc)
		for _, prop := range ve.Properties {
			if prop.IANAToken != string(ical.ComponentPropertyExdate) {
				continue
			}
			for _, part := range strings.Split(prop.Value, ",") {
				p := prop
				p.Value = strings.TrimSpace(part)
				if t, _, err := propTime(&p, loc); err == nil {
					tmpl.Recurrence.Except = append(tmpl.Recurrence.Except, t)
				}
			}
		}
	}

	out.tmpl = tmpl
	return out, nil
}

// recurrenceOf maps an RRULE onto the daily/weekly/monthly cadence. Rules
// the cadence cannot express are kept verbatim so expansion reports them.
func recurrenceOf(value string, start time.Time, loc *time.Location) *model.Recurrence {
	raw := &model.Recurrence{Rule: model.Frequency(value)}

	opt, err := rrule.StrToROptionInLocation(value, loc)
	if err != nil {
		return raw
	}
	if opt.Interval > 1 || len(opt.Bymonth) > 0 || len(opt.Bysetpos) > 0 || len(opt.Byyearday) > 0 ||
		len(opt.Byweekno) > 0 || len(opt.Byhour) > 0 || len(opt.Byminute) > 0 || len(opt.Bysecond) > 0 {
		return raw
	}

	var freq model.Frequency
	switch opt.Freq {
	case rrule.DAILY:
		if len(opt.Byweekday) > 0 || len(opt.Bymonthday) > 0 {
			return raw
		}
		freq = model.FrequencyDaily
	case rrule.WEEKLY:
		// BYDAY naming only the start weekday is a plain weekly rule.
		if len(opt.Byweekday) > 1 || len(opt.Bymonthday) > 0 {
			return raw
		}
		if len(opt.Byweekday) == 1 && opt.Byweekday[0] != rruleWeekdays[start.In(loc).Weekday()] {
			return raw
		}
		freq = model.FrequencyWeekly
	case rrule.MONTHLY:
		if len(opt.Byweekday) > 0 {
			return raw
		}
		if len(opt.Bymonthday) > 1 || (len(opt.Bymonthday) == 1 && opt.Bymonthday[0] != start.In(loc).Day()) {
			return raw
		}
		freq = model.FrequencyMonthly
	default:
		return raw
	}

	rec := &model.Recurrence{Rule: freq}
	switch {
	case !opt.Until.IsZero():
		until := opt.Until.In(loc)
		rec.EndDate = &until
	case opt.Count > 0:
		r, err := rrule.NewRRule(rrule.ROption{Freq: opt.Freq, Dtstart: start, Count: opt.Count})
		if err != nil {
			return raw
		}
		if all := r.All(); len(all) > 0 {
			last := all[len(all)-1].In(loc)
			rec.EndDate = &last
		}
	}
	return rec
}

// propTime reads a DATE or DATE-TIME property, honoring TZID. The bool
// reports a date-only value.
func propTime(prop *ical.IANAProperty, loc *time.Location) (time.Time, bool, error) {
	val := strings.TrimSpace(prop.Value)
	if val == "" {
		return time.Time{}, false, errors.New("empty time value")
	}

	zone := loc
	for k, v := range prop.ICalParameters {
		if strings.EqualFold(k, "TZID") && len(v) > 0 {
			if tz, err := time.LoadLocation(v[0]); err == nil {
				zone = tz
			}
		}
	}

	for _, layout := range icsLayouts {
		t, err := time.Parse(layout, val)
		if err != nil {
			continue
		}
		if strings.HasSuffix(layout, "Z") {
			return t.In(loc), false, nil
		}
		if !strings.Contains(layout, "T") {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc), true, nil
		}
		local := time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, zone)
		return local.In(loc), false, nil
	}
	return time.Time{}, false, fmt.Errorf("unparseable time %q", val)
}

func propValue(ve *ical.VEvent, p ical.ComponentProperty) string {
	if prop := ve.GetProperty(p); prop != nil {
		return strings.TrimSpace(prop.Value)
	}
	return ""
}

func statusOf(v string) model.EventStatus {
	if strings.EqualFold(v, "CANCELLED") {
		return model.StatusCancelled
	}
	return model.StatusScheduled
}
