package timeline

import (
	"cmp"
	"slices"
	"time"

	"coursecal/internal/model"
)

// dayNumber counts calendar days since the Unix epoch for t's local date.
func dayNumber(t time.Time) int64 {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix() / 86400
}

// DaysBetween is the number of calendar days from a's date to b's date,
// both read in a's location.
func DaysBetween(a, b time.Time) int {
	return int(dayNumber(b.In(a.Location())) - dayNumber(a))
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// WeekIndex is floor(days(anchor, t) / 7) + 1, so the anchor's own week is 1.
func WeekIndex(anchor, t time.Time) int {
	return floorDiv(DaysBetween(anchor, t), 7) + 1
}

// Group buckets chronological items into relative weeks counted from
// anchor. With a nil anchor the earliest item's date is used. Buckets are
// returned by ascending index; items keep their input order inside a bucket.
func Group(items []model.TimelineItem, anchor *time.Time) []model.WeekBucket {
	if len(items) == 0 {
		return []model.WeekBucket{}
	}

	var base time.Time
	if anchor != nil {
		base = StartOfDay(*anchor)
	} else {
		base = StartOfDay(earliest(items))
	}

	byIndex := make(map[int]int)
	buckets := make([]model.WeekBucket, 0)
	for _, it := range items {
		idx := WeekIndex(base, it.Start())
		pos, ok := byIndex[idx]
		if !ok {
			pos = len(buckets)
			byIndex[idx] = pos
			buckets = append(buckets, model.WeekBucket{
				Index: idx,
				Start: base.AddDate(0, 0, (idx-1)*7),
			})
		}
		buckets[pos].Items = append(buckets[pos].Items, it)
	}

	slices.SortStableFunc(buckets, func(a, b model.WeekBucket) int {
		return cmp.Compare(a.Index, b.Index)
	})
	return buckets
}

func earliest(items []model.TimelineItem) time.Time {
	first := items[0].Start()
	for _, it := range items[1:] {
		if s := it.Start(); s.Before(first) {
			first = s
		}
	}
	return first
}
