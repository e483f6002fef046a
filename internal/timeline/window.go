package timeline

import (
	"fmt"
	"time"

	"coursecal/internal/model"
)

// isoWeekday numbers weekdays Monday=1 .. Sunday=7.
func isoWeekday(t time.Time) int {
	wd := int(t.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}

// StartOfDay returns midnight of t's calendar day in t's location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// EndOfDay returns the last representable millisecond of t's calendar day.
func EndOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, int(999*time.Millisecond), t.Location())
}

// StartOfWeek returns the Monday on or before t, at midnight.
func StartOfWeek(t time.Time) time.Time {
	return StartOfDay(t).AddDate(0, 0, -(isoWeekday(t) - 1))
}

// EndOfWeek returns the end of the Sunday on or after t.
func EndOfWeek(t time.Time) time.Time {
	return EndOfDay(t.AddDate(0, 0, 7-isoWeekday(t)))
}

func startOfMonth(t time.Time) time.Time {
	y, m, _ := t.Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, t.Location())
}

// endOfMonth returns the end of the last day of the month that is
// offset months after t's month.
func endOfMonth(t time.Time, offset int) time.Time {
	y, m, _ := t.Date()
	// Day 0 of the following month is the last day of the target month.
	last := time.Date(y, m+time.Month(offset)+1, 0, 0, 0, 0, 0, t.Location())
	return EndOfDay(last)
}

// Resolve computes the concrete window for the view granularity g anchored
// at ref. Month windows cover whole Monday–Sunday weeks; agenda windows
// run from the 1st of ref's month to the end of the following month.
func Resolve(ref time.Time, g model.Granularity) (model.ViewWindow, error) {
	var start, end time.Time

	switch g {
	case model.GranularityMonth:
		start = StartOfWeek(startOfMonth(ref))
		end = EndOfWeek(endOfMonth(ref, 0))
	case model.GranularityWeek:
		start = StartOfWeek(ref)
		end = EndOfWeek(ref)
	case model.GranularityDay:
		start = StartOfDay(ref)
		end = EndOfDay(ref)
	case model.GranularityAgenda:
		start = startOfMonth(ref)
		end = endOfMonth(ref, 1)
	default:
		return model.ViewWindow{}, fmt.Errorf("resolve: %w: %s", model.ErrUnknownGranularity, g)
	}

	return model.NewViewWindow(start, end, g)
}

// Step moves ref by n units of the view granularity. Agenda views page
// by month, like month views.
func Step(ref time.Time, g model.Granularity, n int) time.Time {
	switch g {
	case model.GranularityWeek:
		return ref.AddDate(0, 0, 7*n)
	case model.GranularityDay:
		return ref.AddDate(0, 0, n)
	default:
		return addMonthsClamped(ref, n)
	}
}

// addMonthsClamped adds n months without letting day overflow spill into
// the next month (Jan 31 + 1 month is Feb 28/29, not Mar 3).
func addMonthsClamped(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(n), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	last := time.Date(first.Year(), first.Month()+1, 0, 0, 0, 0, 0, t.Location()).Day()
	if d > last {
		d = last
	}
	return first.AddDate(0, 0, d-1)
}
