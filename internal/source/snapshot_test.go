package source

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"coursecal/internal/model"
)

const snapshotYAML = `
facilities:
  - id: f1
    name: Science Park
rooms:
  - id: r1
    name: C0.110
    facility_id: f1
  - id: r2
    name: Lab 3
courses:
  - id: c1
    code: CS101
    title: Programming
  - id: c2
    title: missing code
lessons:
  - id: l1
    course_id: c1
    title: Lecture
    type: lecture
    room_id: r1
  - id: l2
    course_id: c1
    title: Tutorial
    type: tutorial
    room_id: r2
  - id: l3
    course_id: c1
    title: Midterm
    type: exam
  - id: l4
    course_id: gone
    title: Orphan
    type: lecture
events:
  - id: e1
    lesson_id: l1
    start_time: 2025-09-01T10:00:00Z
    end_time: 2025-09-01T11:30:00Z
    recurrence_rule: WEEKLY
    recurrence_end_date: 2025-12-15T00:00:00Z
  - id: e2
    lesson_id: l2
    title: Tutorial - Week 1
    start_time: 2025-09-03T13:00:00Z
    end_time: 2025-09-03T14:00:00Z
    is_online: true
    online_link: https://meet.example.com/cs101
  - id: e3
    lesson_id: l3
    start_time: 2025-10-20T09:00:00Z
    end_time: 2025-10-20T11:00:00Z
    location_override: Sports Hall
    status: rescheduled
  - id: e4
    lesson_id: l4
    start_time: 2025-10-20T09:00:00Z
    end_time: 2025-10-20T11:00:00Z
  - id: e5
    lesson_id: l1
    start_time: 2025-10-21T09:00:00Z
    end_time: 2025-10-21T08:00:00Z
  - id: e6
    lesson_id: unknown
    start_time: 2025-10-21T09:00:00Z
    end_time: 2025-10-21T10:00:00Z
assessments:
  - id: a1
    course_id: c1
    title: Homework 1
    type: homework
    weight: 0.2
    max_points: 10
    earned_points: 7.5
    due_date: 2025-09-15T23:59:00Z
    status: graded
  - id: a2
    course_id: c1
    title: Participation
    type: preparation
    max_points: 10
`

func TestParseSnapshot(t *testing.T) {
	snap, err := ParseSnapshot([]byte(snapshotYAML))
	require.NoError(t, err)

	// c2 (no code) and e5 (ends before it starts) fail validation.
	require.Len(t, snap.Courses, 1)
	require.Len(t, snap.Events, 5)

	course, ok := snap.Course("c1")
	require.True(t, ok)
	require.Equal(t, "CS101", course.Code)
	_, ok = snap.Course("c2")
	require.False(t, ok)

	room, ok := snap.Room("r1")
	require.True(t, ok)
	fac, ok := snap.Facility(room.FacilityID)
	require.True(t, ok)
	require.Equal(t, "Science Park", fac.Name)

	lesson, ok := snap.Lesson("l2")
	require.True(t, ok)
	require.Equal(t, model.LessonTutorial, lesson.Type)
}

func TestSnapshotTemplates(t *testing.T) {
	snap, err := ParseSnapshot([]byte(snapshotYAML))
	require.NoError(t, err)

	tmpls := snap.Templates()
	// e4 has an orphan lesson, e6 an unknown lesson.
	require.Len(t, tmpls, 3)

	byID := make(map[string]model.EventTemplate)
	for _, tm := range tmpls {
		byID[tm.ID] = tm
	}

	lec := byID["e1"]
	require.Equal(t, "CS101: Lecture", lec.Title)
	require.Equal(t, model.CategoryClass, lec.Category)
	require.Equal(t, "Science Park C0.110", lec.Location)
	require.Equal(t, "CS101", lec.CourseCode)
	require.NotNil(t, lec.Recurrence)
	require.Equal(t, model.FrequencyWeekly, lec.Recurrence.Rule)
	require.Equal(t, time.Date(2025, 12, 15, 0, 0, 0, 0, time.UTC), lec.Recurrence.EndDate.UTC())

	tut := byID["e2"]
	require.Equal(t, "CS101: Tutorial - Week 1", tut.Title)
	require.Equal(t, model.CategoryOfficeHours, tut.Category)
	require.Equal(t, "https://meet.example.com/cs101", tut.Location)
	require.Nil(t, tut.Recurrence)

	exam := byID["e3"]
	require.Equal(t, model.CategoryExam, exam.Category)
	require.Equal(t, "Sports Hall", exam.Location)
	require.Equal(t, model.StatusRescheduled, exam.Status)
}

func TestSnapshotLocationFallbacks(t *testing.T) {
	snap, err := ParseSnapshot([]byte(snapshotYAML))
	require.NoError(t, err)

	require.Equal(t, "Online", snap.location(EventRow{IsOnline: true}, LessonRow{}))
	require.Equal(t, "TBA", snap.location(EventRow{}, LessonRow{RoomID: "nowhere"}))
	require.Equal(t, "Lab 3", snap.location(EventRow{}, LessonRow{RoomID: "r2"}))
}

func TestSnapshotAssessmentItems(t *testing.T) {
	snap, err := ParseSnapshot([]byte(snapshotYAML))
	require.NoError(t, err)

	items := snap.AssessmentItems()
	require.Len(t, items, 2)

	hw := items[0]
	require.Equal(t, "CS101", hw.CourseCode)
	require.Equal(t, model.AssessmentHomework, hw.Type)
	require.InDelta(t, 0.2, hw.Weight, 1e-12)
	require.Equal(t, 7.5, *hw.EarnedPoints)
	require.True(t, hw.Graded())
	require.NotNil(t, hw.DueDate)

	part := items[1]
	require.Zero(t, part.Weight)
	require.Nil(t, part.DueDate)
	require.False(t, part.Graded())
}

func TestLoadSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.yaml")
	require.NoError(t, os.WriteFile(path, []byte(snapshotYAML), 0o600))

	snap, err := LoadSnapshot(path)
	require.NoError(t, err)
	require.Len(t, snap.Assessments, 2)

	_, err = LoadSnapshot(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	_, err = ParseSnapshot([]byte("events: {"))
	require.Error(t, err)
}
