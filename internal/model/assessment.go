package model

import "time"

// AssessmentType is the kind of graded coursework.
type AssessmentType string

const (
	AssessmentHomework     AssessmentType = "homework"
	AssessmentEssay        AssessmentType = "essay"
	AssessmentProject      AssessmentType = "project"
	AssessmentExam         AssessmentType = "exam"
	AssessmentQuiz         AssessmentType = "quiz"
	AssessmentPresentation AssessmentType = "presentation"
	AssessmentPreparation  AssessmentType = "preparation"
)

// Category returns the timeline category of a deadline for this type.
func (t AssessmentType) Category() Category {
	if t == AssessmentExam {
		return CategoryExam
	}
	return CategoryAssignment
}

// SubmissionStatus is the student's submission state for an assessment.
type SubmissionStatus string

const (
	SubmissionNone      SubmissionStatus = ""
	SubmissionDraft     SubmissionStatus = "draft"
	SubmissionSubmitted SubmissionStatus = "submitted"
	SubmissionGraded    SubmissionStatus = "graded"
	SubmissionReturned  SubmissionStatus = "returned"
)

// AssessmentItem is one graded or ungraded unit of coursework.
// EarnedPoints == nil means "not graded yet", which is not the same as 0.
type AssessmentItem struct {
	ID           string           `yaml:"id" json:"id" validate:"required"`
	CourseCode   string           `yaml:"course_code,omitempty" json:"course_code,omitempty"`
	Title        string           `yaml:"title" json:"title"`
	Type         AssessmentType   `yaml:"type" json:"type"`
	Weight       float64          `yaml:"weight" json:"weight"`
	MaxPoints    *float64         `yaml:"max_points,omitempty" json:"max_points,omitempty"`
	EarnedPoints *float64         `yaml:"earned_points,omitempty" json:"earned_points,omitempty"`
	DueDate      *time.Time       `yaml:"due_date,omitempty" json:"due_date,omitempty"`
	Status       SubmissionStatus `yaml:"status,omitempty" json:"status,omitempty"`
}

// Graded reports whether a grade has been recorded.
func (a AssessmentItem) Graded() bool { return a.EarnedPoints != nil }

// Submitted reports whether the student handed something in.
func (a AssessmentItem) Submitted() bool {
	switch a.Status {
	case SubmissionSubmitted, SubmissionGraded, SubmissionReturned:
		return true
	}
	return a.Graded()
}
