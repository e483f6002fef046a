package timeline

import (
	"time"

	"coursecal/internal/model"
)

// RelativeLabel names a bucket relative to "now" in agenda-style displays.
type RelativeLabel string

const (
	LabelOverdue  RelativeLabel = "Overdue"
	LabelToday    RelativeLabel = "Today"
	LabelTomorrow RelativeLabel = "Tomorrow"
	LabelThisWeek RelativeLabel = "This Week"
	LabelLater    RelativeLabel = "Later"
)

var relativeOrder = []RelativeLabel{LabelOverdue, LabelToday, LabelTomorrow, LabelThisWeek, LabelLater}

// RelativeGroup is a labelled run of items.
type RelativeGroup struct {
	Label RelativeLabel        `json:"label"`
	Items []model.TimelineItem `json:"items"`
}

// RelativeLabelFor classifies t against now by calendar days: before today
// is overdue, the next two days are named, up to 7 days ahead is this week.
func RelativeLabelFor(t, now time.Time) RelativeLabel {
	switch d := DaysBetween(now, t); {
	case d < 0:
		return LabelOverdue
	case d == 0:
		return LabelToday
	case d == 1:
		return LabelTomorrow
	case d <= 7:
		return LabelThisWeek
	default:
		return LabelLater
	}
}

// RelativeGroups buckets items by RelativeLabelFor. Empty groups are omitted.
func RelativeGroups(items []model.TimelineItem, now time.Time) []RelativeGroup {
	byLabel := make(map[RelativeLabel][]model.TimelineItem, len(relativeOrder))
	for _, it := range items {
		l := RelativeLabelFor(it.Start(), now)
		byLabel[l] = append(byLabel[l], it)
	}

	out := make([]RelativeGroup, 0, len(byLabel))
	for _, l := range relativeOrder {
		if len(byLabel[l]) == 0 {
			continue
		}
		out = append(out, RelativeGroup{Label: l, Items: byLabel[l]})
	}
	return out
}

// DayLabel renders a heading for day as seen from now:
// "Today", "Tomorrow", "Wednesday, Oct 22" within the coming week,
// otherwise "Wed, Oct 22" with the year appended when it differs from now's.
func DayLabel(day, now time.Time) string {
	d := DaysBetween(now, day)
	local := day.In(now.Location())
	switch {
	case d == 0:
		return string(LabelToday)
	case d == 1:
		return string(LabelTomorrow)
	case d > 1 && d <= 7:
		return local.Format("Monday, Jan 2")
	case local.Year() != now.Year():
		return local.Format("Mon, Jan 2, 2006")
	default:
		return local.Format("Mon, Jan 2")
	}
}

// DayGroup is the agenda row for one calendar day.
type DayGroup struct {
	Date  time.Time            `json:"date"`
	Label string               `json:"label"`
	Items []model.TimelineItem `json:"items"`
}

// DayGroups splits chronological items into per-day groups labelled with
// DayLabel. Days are read in now's location.
func DayGroups(items []model.TimelineItem, now time.Time) []DayGroup {
	out := make([]DayGroup, 0)
	for _, it := range items {
		day := StartOfDay(it.Start().In(now.Location()))
		if n := len(out); n > 0 && out[n-1].Date.Equal(day) {
			out[n-1].Items = append(out[n-1].Items, it)
			continue
		}
		out = append(out, DayGroup{
			Date:  day,
			Label: DayLabel(day, now),
			Items: []model.TimelineItem{it},
		})
	}
	return out
}
