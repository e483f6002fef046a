package ics

import (
	"time"

	ical "github.com/arran4/golang-ical"

	"coursecal/internal/model"
)

const productID = "-//coursecal//timeline//EN"

// Export renders a composed timeline as a VCALENDAR. Deadlines become
// all-day events on their due date; stamp is written as DTSTAMP so that
// identical input yields identical output.
func Export(items []model.TimelineItem, stamp time.Time) string {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(productID)

	for _, it := range items {
		ev := cal.AddEvent(it.ID())
		ev.SetDtStampTime(stamp.UTC())
		ev.SetSummary(it.Title())

		if it.AllDay() {
			day := it.Start()
			ev.SetAllDayStartAt(day)
			ev.SetAllDayEndAt(day.AddDate(0, 0, 1))
		} else {
			ev.SetStartAt(it.Start())
			ev.SetEndAt(it.End())
		}

		ev.AddProperty(ical.ComponentPropertyCategories, it.Category().Meta().Label)

		switch it.Kind {
		case model.KindDeadline:
			a := it.Assessment
			if a.CourseCode != "" {
				ev.SetDescription(a.CourseCode + " " + string(a.Type))
			}
		default:
			o := it.Occurrence
			if o.Location != "" {
				ev.SetLocation(o.Location)
			}
			if o.Description != "" {
				ev.SetDescription(o.Description)
			}
			if o.Status == model.StatusCancelled {
				ev.SetStatus(ical.ObjectStatusCancelled)
			}
		}
	}

	return cal.Serialize()
}
