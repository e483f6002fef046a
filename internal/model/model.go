package model

import (
	"strings"
	"time"
)

// Frequency is the cadence of a recurrence rule. Values outside the known
// set are kept verbatim so the expander can report and skip them.
type Frequency string

const (
	FrequencyDaily   Frequency = "DAILY"
	FrequencyWeekly  Frequency = "WEEKLY"
	FrequencyMonthly Frequency = "MONTHLY"
)

// Normalize upper-cases and trims the rule value.
func (f Frequency) Normalize() Frequency {
	return Frequency(strings.ToUpper(strings.TrimSpace(string(f))))
}

func (f Frequency) Known() bool {
	switch f.Normalize() {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly:
		return true
	}
	return false
}

// Recurrence describes how a template repeats. EndDate, when set, is
// inclusive through the end of its calendar day. Except lists instance
// starts that are not emitted.
type Recurrence struct {
	Rule    Frequency   `yaml:"rule" json:"rule"`
	EndDate *time.Time  `yaml:"end_date,omitempty" json:"end_date,omitempty"`
	Except  []time.Time `yaml:"except,omitempty" json:"except,omitempty"`
}

// Excludes reports whether an instance starting at t was removed.
func (r *Recurrence) Excludes(t time.Time) bool {
	if r == nil {
		return false
	}
	for _, ex := range r.Except {
		if ex.Equal(t) {
			return true
		}
	}
	return false
}

// EventStatus is the scheduling state of a lesson template.
type EventStatus string

const (
	StatusScheduled   EventStatus = "scheduled"
	StatusCancelled   EventStatus = "cancelled"
	StatusRescheduled EventStatus = "rescheduled"
	StatusCompleted   EventStatus = "completed"
)

// EventTemplate is an immutable snapshot row from the course-data provider
// (or a personal entry). One template may stand for many occurrences.
type EventTemplate struct {
	ID          string      `yaml:"id" json:"id" validate:"required"`
	Title       string      `yaml:"title" json:"title"`
	Start       time.Time   `yaml:"start" json:"start" validate:"required"`
	End         time.Time   `yaml:"end" json:"end" validate:"required,gtefield=Start"`
	AllDay      bool        `yaml:"all_day,omitempty" json:"all_day,omitempty"`
	Category    Category    `yaml:"category" json:"category"`
	Location    string      `yaml:"location,omitempty" json:"location,omitempty"`
	CourseCode  string      `yaml:"course_code,omitempty" json:"course_code,omitempty"`
	Description string      `yaml:"description,omitempty" json:"description,omitempty"`
	Status      EventStatus `yaml:"status,omitempty" json:"status,omitempty"`
	Recurrence  *Recurrence `yaml:"recurrence,omitempty" json:"recurrence,omitempty" validate:"omitempty"`
}

// Occurrence is one concrete instance of a template. InstanceID is derived
// from the template id and the instance start, so re-expansion reproduces it.
type Occurrence struct {
	InstanceID  string      `json:"instance_id"`
	TemplateID  string      `json:"template_id"`
	Title       string      `json:"title"`
	Category    Category    `json:"category"`
	Start       time.Time   `json:"start"`
	End         time.Time   `json:"end"`
	AllDay      bool        `json:"all_day"`
	Location    string      `json:"location,omitempty"`
	CourseCode  string      `json:"course_code,omitempty"`
	Description string      `json:"description,omitempty"`
	Status      EventStatus `json:"status,omitempty"`
	Recurring   bool        `json:"recurring"`
}

// InstanceID returns the stable identifier of the instance of templateID
// starting at start.
func InstanceID(templateID string, start time.Time) string {
	return templateID + "@" + start.UTC().Format(time.RFC3339)
}
