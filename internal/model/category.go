package model

import (
	"fmt"
	"strings"
)

// Category is the display category of a timeline entry. The set is closed:
// every table keyed by Category is indexed by it and sized by categoryCount.
type Category uint8

const (
	CategoryClass Category = iota
	CategoryAssignment
	CategoryExam
	CategoryPersonal
	CategoryOfficeHours

	categoryCount
)

// CategoryMeta holds presentation metadata for a category.
type CategoryMeta struct {
	Key   string
	Label string
	Icon  string
}

var categoryTable = [categoryCount]CategoryMeta{
	CategoryClass:       {Key: "class", Label: "Class", Icon: "📚"},
	CategoryAssignment:  {Key: "assignment", Label: "Assignment", Icon: "📝"},
	CategoryExam:        {Key: "exam", Label: "Exam", Icon: "🎯"},
	CategoryPersonal:    {Key: "personal", Label: "Personal", Icon: "📅"},
	CategoryOfficeHours: {Key: "office-hours", Label: "Office hours", Icon: "👨‍🏫"},
}

// Categories returns every category in declaration order.
func Categories() []Category {
	out := make([]Category, 0, categoryCount)
	for c := Category(0); c < categoryCount; c++ {
		out = append(out, c)
	}
	return out
}

func (c Category) Valid() bool { return c < categoryCount }

// Meta returns the label/icon row for c. Invalid values get a neutral row.
func (c Category) Meta() CategoryMeta {
	if !c.Valid() {
		return CategoryMeta{Key: "unknown", Label: "Other", Icon: "•"}
	}
	return categoryTable[c]
}

func (c Category) String() string { return c.Meta().Key }

// ParseCategory accepts the wire keys ("class", "office-hours", ...) case-insensitively.
// Underscores are accepted in place of dashes.
func ParseCategory(s string) (Category, error) {
	key := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "_", "-")
	for c := Category(0); c < categoryCount; c++ {
		if categoryTable[c].Key == key {
			return c, nil
		}
	}
	return 0, fmt.Errorf("unknown category %q", s)
}

func (c Category) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("invalid category %d", uint8(c))
	}
	return []byte(c.String()), nil
}

func (c *Category) UnmarshalText(b []byte) error {
	v, err := ParseCategory(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// LessonType is the teaching format of a scheduled lesson.
type LessonType string

const (
	LessonLecture  LessonType = "lecture"
	LessonSeminar  LessonType = "seminar"
	LessonExam     LessonType = "exam"
	LessonTutorial LessonType = "tutorial"
	LessonLab      LessonType = "lab"
	LessonWorkshop LessonType = "workshop"
)

// CategoryForLesson maps a lesson type onto its calendar category.
// Exams stay exams, tutorials are shown as office hours, everything else is a class.
func CategoryForLesson(t LessonType) Category {
	switch t {
	case LessonExam:
		return CategoryExam
	case LessonTutorial:
		return CategoryOfficeHours
	default:
		return CategoryClass
	}
}
