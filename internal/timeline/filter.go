package timeline

import (
	"time"

	"coursecal/internal/model"
)

// CategoryConfig toggles categories on and off.
type CategoryConfig struct {
	Classes     bool `yaml:"classes" json:"classes"`
	Assignments bool `yaml:"assignments" json:"assignments"`
	Exams       bool `yaml:"exams" json:"exams"`
	Personal    bool `yaml:"personal" json:"personal"`
	OfficeHours bool `yaml:"office_hours" json:"office_hours"`
}

// AllCategories enables every category.
func AllCategories() CategoryConfig {
	return CategoryConfig{Classes: true, Assignments: true, Exams: true, Personal: true, OfficeHours: true}
}

// Allows reports whether items of category c pass. Values outside the
// known set are let through.
func (c CategoryConfig) Allows(cat model.Category) bool {
	switch cat {
	case model.CategoryClass:
		return c.Classes
	case model.CategoryAssignment:
		return c.Assignments
	case model.CategoryExam:
		return c.Exams
	case model.CategoryPersonal:
		return c.Personal
	case model.CategoryOfficeHours:
		return c.OfficeHours
	default:
		return true
	}
}

// With returns a copy of c with cat set to on.
func (c CategoryConfig) With(cat model.Category, on bool) CategoryConfig {
	switch cat {
	case model.CategoryClass:
		c.Classes = on
	case model.CategoryAssignment:
		c.Assignments = on
	case model.CategoryExam:
		c.Exams = on
	case model.CategoryPersonal:
		c.Personal = on
	case model.CategoryOfficeHours:
		c.OfficeHours = on
	}
	return c
}

// Filter returns the items whose category is enabled, in their original
// relative order. The input slice is never modified.
func Filter(items []model.TimelineItem, cfg CategoryConfig) []model.TimelineItem {
	return Select(items, func(it model.TimelineItem) bool {
		return cfg.Allows(it.Category())
	})
}

// Select returns a new slice with the items for which keep returns true.
func Select(items []model.TimelineItem, keep func(model.TimelineItem) bool) []model.TimelineItem {
	out := make([]model.TimelineItem, 0, len(items))
	for _, it := range items {
		if keep(it) {
			out = append(out, it)
		}
	}
	return out
}

// WithoutCancelled drops lessons whose template was cancelled.
func WithoutCancelled(items []model.TimelineItem) []model.TimelineItem {
	return Select(items, func(it model.TimelineItem) bool {
		return it.Occurrence == nil || it.Occurrence.Status != model.StatusCancelled
	})
}

// InWindow keeps items starting inside win.
func InWindow(items []model.TimelineItem, win model.ViewWindow) []model.TimelineItem {
	return Select(items, func(it model.TimelineItem) bool {
		return win.Contains(it.Start())
	})
}

// Upcoming keeps items starting in [now, now+days].
func Upcoming(items []model.TimelineItem, now time.Time, days int) []model.TimelineItem {
	until := now.AddDate(0, 0, days)
	return Select(items, func(it model.TimelineItem) bool {
		s := it.Start()
		return !s.Before(now) && !s.After(until)
	})
}
