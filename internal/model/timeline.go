package model

import (
	"fmt"
	"time"
)

// ItemKind tags the source of a TimelineItem. The numeric order is the
// tie-break priority for items sharing a start instant.
type ItemKind uint8

const (
	KindLesson ItemKind = iota
	KindDeadline
	KindPersonal
)

var kindNames = [...]string{
	KindLesson:   "lesson",
	KindDeadline: "deadline",
	KindPersonal: "personal",
}

func (k ItemKind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

func (k ItemKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// TimelineItem is the tagged union merged from lessons, assessment deadlines
// and personal events. Exactly one of Occurrence / Assessment is set:
// Occurrence for KindLesson and KindPersonal, Assessment for KindDeadline.
type TimelineItem struct {
	Kind       ItemKind        `json:"kind"`
	Occurrence *Occurrence     `json:"occurrence,omitempty"`
	Assessment *AssessmentItem `json:"assessment,omitempty"`
}

// LessonItem wraps a copy of occ as a lesson entry.
func LessonItem(occ Occurrence) TimelineItem {
	return TimelineItem{Kind: KindLesson, Occurrence: &occ}
}

// PersonalItem wraps a copy of occ as a personal entry.
func PersonalItem(occ Occurrence) TimelineItem {
	return TimelineItem{Kind: KindPersonal, Occurrence: &occ}
}

// DeadlineItem wraps a copy of a as a deadline entry. Items without a due
// date cannot be placed on a timeline and yield ok == false.
func DeadlineItem(a AssessmentItem) (TimelineItem, bool) {
	if a.DueDate == nil {
		return TimelineItem{}, false
	}
	return TimelineItem{Kind: KindDeadline, Assessment: &a}, true
}

// ID is unique within a kind: the instance id for occurrences, a prefixed
// assessment id for deadlines.
func (it TimelineItem) ID() string {
	switch it.Kind {
	case KindDeadline:
		if it.Assessment != nil {
			return "deadline:" + it.Assessment.ID
		}
	default:
		if it.Occurrence != nil {
			return it.Occurrence.InstanceID
		}
	}
	return ""
}

func (it TimelineItem) Start() time.Time {
	switch it.Kind {
	case KindDeadline:
		if it.Assessment != nil && it.Assessment.DueDate != nil {
			return *it.Assessment.DueDate
		}
	default:
		if it.Occurrence != nil {
			return it.Occurrence.Start
		}
	}
	return time.Time{}
}

// End is the due instant for deadlines.
func (it TimelineItem) End() time.Time {
	if it.Kind != KindDeadline && it.Occurrence != nil {
		return it.Occurrence.End
	}
	return it.Start()
}

func (it TimelineItem) Category() Category {
	switch it.Kind {
	case KindDeadline:
		if it.Assessment != nil {
			return it.Assessment.Type.Category()
		}
		return CategoryAssignment
	case KindPersonal:
		if it.Occurrence != nil {
			return it.Occurrence.Category
		}
		return CategoryPersonal
	default:
		if it.Occurrence != nil {
			return it.Occurrence.Category
		}
		return CategoryClass
	}
}

func (it TimelineItem) Title() string {
	switch it.Kind {
	case KindDeadline:
		if it.Assessment != nil {
			return it.Assessment.Title
		}
	default:
		if it.Occurrence != nil {
			return it.Occurrence.Title
		}
	}
	return ""
}

// AllDay is always true for deadlines.
func (it TimelineItem) AllDay() bool {
	if it.Kind == KindDeadline {
		return true
	}
	return it.Occurrence != nil && it.Occurrence.AllDay
}

func (it TimelineItem) CourseCode() string {
	if it.Kind == KindDeadline {
		if it.Assessment != nil {
			return it.Assessment.CourseCode
		}
		return ""
	}
	if it.Occurrence != nil {
		return it.Occurrence.CourseCode
	}
	return ""
}

// Less is the total order of the timeline: start ascending, then kind
// priority, then id.
func Less(a, b TimelineItem) bool {
	as, bs := a.Start(), b.Start()
	if !as.Equal(bs) {
		return as.Before(bs)
	}
	if a.Kind != b.Kind {
		return a.Kind < b.Kind
	}
	return a.ID() < b.ID()
}

// WeekBucket groups items sharing a relative week index.
type WeekBucket struct {
	Index int            `json:"index"`
	Start time.Time      `json:"start"`
	Items []TimelineItem `json:"items"`
}
