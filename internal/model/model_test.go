package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCategoryTableIsComplete(t *testing.T) {
	keys := make(map[string]bool)
	for _, c := range Categories() {
		m := c.Meta()
		require.NotEmpty(t, m.Key, c)
		require.NotEmpty(t, m.Label, c)
		require.NotEmpty(t, m.Icon, c)
		require.False(t, keys[m.Key], "duplicate key %s", m.Key)
		keys[m.Key] = true

		parsed, err := ParseCategory(m.Key)
		require.NoError(t, err)
		require.Equal(t, c, parsed)
	}
	require.Len(t, keys, int(categoryCount))
}

func TestParseCategory(t *testing.T) {
	c, err := ParseCategory(" Office_Hours ")
	require.NoError(t, err)
	require.Equal(t, CategoryOfficeHours, c)

	_, err = ParseCategory("holiday")
	require.Error(t, err)

	require.Equal(t, "unknown", Category(200).String())
	require.False(t, Category(200).Valid())
}

func TestCategoryJSON(t *testing.T) {
	b, err := json.Marshal(struct {
		C Category `json:"c"`
	}{CategoryExam})
	require.NoError(t, err)
	require.JSONEq(t, `{"c":"exam"}`, string(b))

	var v struct {
		C Category `json:"c"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"c":"office-hours"}`), &v))
	require.Equal(t, CategoryOfficeHours, v.C)
	require.Error(t, json.Unmarshal([]byte(`{"c":"nope"}`), &v))
}

func TestSourceCategoryMapping(t *testing.T) {
	require.Equal(t, CategoryExam, CategoryForLesson(LessonExam))
	require.Equal(t, CategoryOfficeHours, CategoryForLesson(LessonTutorial))
	require.Equal(t, CategoryClass, CategoryForLesson(LessonLecture))
	require.Equal(t, CategoryClass, CategoryForLesson("field-trip"))

	require.Equal(t, CategoryExam, AssessmentExam.Category())
	require.Equal(t, CategoryAssignment, AssessmentQuiz.Category())
	require.Equal(t, CategoryAssignment, AssessmentType("portfolio").Category())
}

func TestParseGranularity(t *testing.T) {
	for _, name := range []string{"month", "week", "day", "agenda"} {
		g, err := ParseGranularity(name)
		require.NoError(t, err)
		require.Equal(t, name, g.String())
	}
	g, err := ParseGranularity(" WEEK ")
	require.NoError(t, err)
	require.Equal(t, GranularityWeek, g)

	_, err = ParseGranularity("year")
	require.ErrorIs(t, err, ErrUnknownGranularity)
}

func TestViewWindow(t *testing.T) {
	start := time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 10, 31, 23, 59, 59, 0, time.UTC)

	w, err := NewViewWindow(start, end, GranularityMonth)
	require.NoError(t, err)
	require.True(t, w.Contains(start))
	require.True(t, w.Contains(end))
	require.False(t, w.Contains(end.Add(time.Second)))
	require.False(t, w.Contains(start.Add(-time.Nanosecond)))

	_, err = NewViewWindow(start, start, GranularityDay)
	require.NoError(t, err)

	_, err = NewViewWindow(end, start, GranularityMonth)
	require.ErrorIs(t, err, ErrInvalidRange)
}

func TestFrequency(t *testing.T) {
	require.True(t, Frequency(" weekly").Known())
	require.False(t, Frequency("YEARLY").Known())
	require.False(t, Frequency("").Known())
}

func TestRecurrenceExcludes(t *testing.T) {
	at := time.Date(2025, 9, 8, 10, 0, 0, 0, time.UTC)
	r := &Recurrence{Rule: FrequencyWeekly, Except: []time.Time{at}}

	require.True(t, r.Excludes(at.In(time.FixedZone("CEST", 2*3600))))
	require.False(t, r.Excludes(at.AddDate(0, 0, 7)))

	var none *Recurrence
	require.False(t, none.Excludes(at))
}

func TestInstanceIDIsZoneIndependent(t *testing.T) {
	at := time.Date(2025, 9, 8, 10, 0, 0, 0, time.UTC)
	require.Equal(t, "lec@2025-09-08T10:00:00Z", InstanceID("lec", at))
	require.Equal(t, InstanceID("lec", at), InstanceID("lec", at.In(time.FixedZone("X", -5*3600))))
}

func TestTimelineItemProjection(t *testing.T) {
	due := time.Date(2025, 10, 20, 17, 0, 0, 0, time.UTC)
	a := AssessmentItem{ID: "hw1", CourseCode: "CS101", Title: "Homework 1", Type: AssessmentHomework, DueDate: &due}

	it, ok := DeadlineItem(a)
	require.True(t, ok)
	require.Equal(t, "deadline:hw1", it.ID())
	require.Equal(t, due, it.Start())
	require.Equal(t, due, it.End())
	require.True(t, it.AllDay())
	require.Equal(t, CategoryAssignment, it.Category())
	require.Equal(t, "CS101", it.CourseCode())

	a.DueDate = nil
	_, ok = DeadlineItem(a)
	require.False(t, ok)

	occ := Occurrence{InstanceID: "x@1", Title: "Gym", Category: CategoryPersonal, Start: due, End: due.Add(time.Hour)}
	p := PersonalItem(occ)
	require.Equal(t, KindPersonal, p.Kind)
	require.Equal(t, "x@1", p.ID())
	require.Equal(t, "Gym", p.Title())
	require.Equal(t, due.Add(time.Hour), p.End())

	l := LessonItem(occ)
	require.True(t, Less(l, it))
	require.True(t, Less(it, p))
	require.False(t, Less(p, l))
}

func TestAssessmentState(t *testing.T) {
	earned := 7.0
	a := AssessmentItem{ID: "q"}
	require.False(t, a.Graded())
	require.False(t, a.Submitted())

	a.Status = SubmissionSubmitted
	require.True(t, a.Submitted())

	a = AssessmentItem{ID: "q", EarnedPoints: &earned}
	require.True(t, a.Graded())
	require.True(t, a.Submitted())
}
