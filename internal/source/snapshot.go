package source

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	appLog "coursecal/internal/log"
	"coursecal/internal/model"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrInvalidRow = errors.New("invalid row")
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Provider rows, as delivered by the course-data provider. References
// between rows are ids, never pointers.

type FacilityRow struct {
	ID   string `yaml:"id" json:"id" validate:"required"`
	Name string `yaml:"name" json:"name"`
}

type RoomRow struct {
	ID         string `yaml:"id" json:"id" validate:"required"`
	Name       string `yaml:"name" json:"name"`
	FacilityID string `yaml:"facility_id" json:"facility_id"`
}

type CourseRow struct {
	ID    string `yaml:"id" json:"id" validate:"required"`
	Code  string `yaml:"code" json:"code" validate:"required"`
	Title string `yaml:"title" json:"title"`
}

type LessonRow struct {
	ID          string           `yaml:"id" json:"id" validate:"required"`
	CourseID    string           `yaml:"course_id" json:"course_id" validate:"required"`
	Title       string           `yaml:"title" json:"title"`
	Type        model.LessonType `yaml:"type" json:"type"`
	Description string           `yaml:"description,omitempty" json:"description,omitempty"`
	RoomID      string           `yaml:"room_id,omitempty" json:"room_id,omitempty"`
}

type EventRow struct {
	ID                string            `yaml:"id" json:"id" validate:"required"`
	LessonID          string            `yaml:"lesson_id" json:"lesson_id" validate:"required"`
	Title             string            `yaml:"title,omitempty" json:"title,omitempty"`
	Description       string            `yaml:"description,omitempty" json:"description,omitempty"`
	StartTime         time.Time         `yaml:"start_time" json:"start_time" validate:"required"`
	EndTime           time.Time         `yaml:"end_time" json:"end_time" validate:"required,gtefield=StartTime"`
	RecurrenceRule    string            `yaml:"recurrence_rule,omitempty" json:"recurrence_rule,omitempty"`
	RecurrenceEndDate *time.Time        `yaml:"recurrence_end_date,omitempty" json:"recurrence_end_date,omitempty"`
	LocationOverride  string            `yaml:"location_override,omitempty" json:"location_override,omitempty"`
	IsOnline          bool              `yaml:"is_online,omitempty" json:"is_online,omitempty"`
	OnlineLink        string            `yaml:"online_link,omitempty" json:"online_link,omitempty"`
	Status            model.EventStatus `yaml:"status,omitempty" json:"status,omitempty"`
}

type AssessmentRow struct {
	ID           string                 `yaml:"id" json:"id" validate:"required"`
	CourseID     string                 `yaml:"course_id" json:"course_id" validate:"required"`
	Title        string                 `yaml:"title" json:"title"`
	Type         model.AssessmentType   `yaml:"type" json:"type"`
	Weight       *float64               `yaml:"weight,omitempty" json:"weight,omitempty"`
	MaxPoints    *float64               `yaml:"max_points,omitempty" json:"max_points,omitempty"`
	EarnedPoints *float64               `yaml:"earned_points,omitempty" json:"earned_points,omitempty"`
	DueDate      *time.Time             `yaml:"due_date,omitempty" json:"due_date,omitempty"`
	Status       model.SubmissionStatus `yaml:"status,omitempty" json:"status,omitempty"`
}

// Snapshot is one immutable provider snapshot: flat row slices plus id
// indexes built on load.
type Snapshot struct {
	Facilities  []FacilityRow   `yaml:"facilities" json:"facilities"`
	Rooms       []RoomRow       `yaml:"rooms" json:"rooms"`
	Courses     []CourseRow     `yaml:"courses" json:"courses"`
	Lessons     []LessonRow     `yaml:"lessons" json:"lessons"`
	Events      []EventRow      `yaml:"events" json:"events"`
	Assessments []AssessmentRow `yaml:"assessments" json:"assessments"`

	facilities map[string]int
	rooms      map[string]int
	courses    map[string]int
	lessons    map[string]int
}

// LoadSnapshot reads a YAML (or JSON) snapshot file. Rows failing
// validation are dropped and logged; the rest of the snapshot is kept.
func LoadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("snapshot: read %s: %w", path, err)
	}
	return ParseSnapshot(data)
}

// ParseSnapshot decodes snapshot bytes and indexes them.
func ParseSnapshot(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("snapshot: decode: %w", err)
	}

	s.Facilities = validRows(s.Facilities, "facility", func(r FacilityRow) string { return r.ID })
	s.Rooms = validRows(s.Rooms, "room", func(r RoomRow) string { return r.ID })
	s.Courses = validRows(s.Courses, "course", func(r CourseRow) string { return r.ID })
	s.Lessons = validRows(s.Lessons, "lesson", func(r LessonRow) string { return r.ID })
	s.Events = validRows(s.Events, "event", func(r EventRow) string { return r.ID })
	s.Assessments = validRows(s.Assessments, "assessment", func(r AssessmentRow) string { return r.ID })

	s.index()
	return &s, nil
}

func validRows[T any](rows []T, kind string, id func(T) string) []T {
	out := make([]T, 0, len(rows))
	for _, r := range rows {
		if err := validate.Struct(r); err != nil {
			appLog.Error("snapshot: row dropped", fmt.Errorf("%w: %v", ErrInvalidRow, err),
				"kind", kind, "id", id(r))
			continue
		}
		out = append(out, r)
	}
	return out
}

func indexBy[T any](rows []T, id func(T) string) map[string]int {
	m := make(map[string]int, len(rows))
	for i, r := range rows {
		if _, dup := m[id(r)]; !dup {
			m[id(r)] = i
		}
	}
	return m
}

func (s *Snapshot) index() {
	s.facilities = indexBy(s.Facilities, func(r FacilityRow) string { return r.ID })
	s.rooms = indexBy(s.Rooms, func(r RoomRow) string { return r.ID })
	s.courses = indexBy(s.Courses, func(r CourseRow) string { return r.ID })
	s.lessons = indexBy(s.Lessons, func(r LessonRow) string { return r.ID })
}

func (s *Snapshot) Course(id string) (CourseRow, bool) {
	i, ok := s.courses[id]
	if !ok {
		return CourseRow{}, false
	}
	return s.Courses[i], true
}

func (s *Snapshot) Lesson(id string) (LessonRow, bool) {
	i, ok := s.lessons[id]
	if !ok {
		return LessonRow{}, false
	}
	return s.Lessons[i], true
}

func (s *Snapshot) Room(id string) (RoomRow, bool) {
	i, ok := s.rooms[id]
	if !ok {
		return RoomRow{}, false
	}
	return s.Rooms[i], true
}

func (s *Snapshot) Facility(id string) (FacilityRow, bool) {
	i, ok := s.facilities[id]
	if !ok {
		return FacilityRow{}, false
	}
	return s.Facilities[i], true
}

// location renders where an event takes place: the online link (or
// "Online"), an explicit override, "Facility Room", or "TBA".
func (s *Snapshot) location(ev EventRow, lesson LessonRow) string {
	if ev.IsOnline {
		if ev.OnlineLink != "" {
			return ev.OnlineLink
		}
		return "Online"
	}
	if ev.LocationOverride != "" {
		return ev.LocationOverride
	}
	room, ok := s.Room(lesson.RoomID)
	if !ok {
		return "TBA"
	}
	if f, ok := s.Facility(room.FacilityID); ok && f.Name != "" {
		return f.Name + " " + room.Name
	}
	return room.Name
}

// Templates joins events with their lesson, course and room into lesson
// templates. Events whose lesson or course is missing are dropped.
func (s *Snapshot) Templates() []model.EventTemplate {
	out := make([]model.EventTemplate, 0, len(s.Events))
	for _, ev := range s.Events {
		lesson, ok := s.Lesson(ev.LessonID)
		if !ok {
			appLog.Warn("snapshot: event references unknown lesson", "event_id", ev.ID, "lesson_id", ev.LessonID)
			continue
		}
		course, ok := s.Course(lesson.CourseID)
		if !ok {
			appLog.Warn("snapshot: lesson references unknown course", "lesson_id", lesson.ID, "course_id", lesson.CourseID)
			continue
		}

		title := ev.Title
		if title == "" {
			title = lesson.Title
		}
		desc := ev.Description
		if desc == "" {
			desc = lesson.Description
		}

		tmpl := model.EventTemplate{
			ID:          ev.ID,
			Title:       course.Code + ": " + title,
			Start:       ev.StartTime,
			End:         ev.EndTime,
			Category:    model.CategoryForLesson(lesson.Type),
			Location:    s.location(ev, lesson),
			CourseCode:  course.Code,
			Description: desc,
			Status:      ev.Status,
		}
		if ev.RecurrenceRule != "" {
			tmpl.Recurrence = &model.Recurrence{
				Rule:    model.Frequency(ev.RecurrenceRule),
				EndDate: ev.RecurrenceEndDate,
			}
		}
		out = append(out, tmpl)
	}
	return out
}

// AssessmentItems converts assessment rows. A missing weight counts as 0.
func (s *Snapshot) AssessmentItems() []model.AssessmentItem {
	out := make([]model.AssessmentItem, 0, len(s.Assessments))
	for _, row := range s.Assessments {
		var code string
		if c, ok := s.Course(row.CourseID); ok {
			code = c.Code
		}
		var weight float64
		if row.Weight != nil {
			weight = *row.Weight
		}
		out = append(out, model.AssessmentItem{
			ID:           row.ID,
			CourseCode:   code,
			Title:        row.Title,
			Type:         row.Type,
			Weight:       weight,
			MaxPoints:    row.MaxPoints,
			EarnedPoints: row.EarnedPoints,
			DueDate:      row.DueDate,
			Status:       row.Status,
		})
	}
	return out
}
