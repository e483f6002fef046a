package timeline

import (
	"fmt"
	"time"

	"coursecal/internal/model"
)

// Sources is one provider snapshot: lesson templates, assessments and the
// user's personal templates.
type Sources struct {
	Lessons     []model.EventTemplate
	Assessments []model.AssessmentItem
	Personal    []model.EventTemplate
}

// Options tune a Compose call. The zero value shows nothing; start from
// DefaultOptions.
type Options struct {
	Filters                   CategoryConfig
	Location                  *time.Location
	HideCancelled             bool
	MaxOccurrencesPerTemplate int
}

func DefaultOptions() Options {
	return Options{Filters: AllCategories()}
}

// Result is a composed timeline plus the expansion diagnostics.
type Result struct {
	Window          model.ViewWindow     `json:"window"`
	Items           []model.TimelineItem `json:"items"`
	Skipped         []string             `json:"skipped,omitempty"`
	Truncated       []string             `json:"truncated,omitempty"`
	MonthlyOverflow []string             `json:"monthly_overflow,omitempty"`
}

// ComposeView resolves the window for (ref, g) and composes it.
func ComposeView(src Sources, ref time.Time, g model.Granularity, opts Options) (Result, error) {
	if opts.Location != nil {
		ref = ref.In(opts.Location)
	}
	win, err := Resolve(ref, g)
	if err != nil {
		return Result{}, err
	}
	return Compose(src, win, opts)
}

// Compose runs the whole pipeline over win: expand lessons and personal
// templates, synthesize deadlines due inside the window, merge, then
// filter. It fails only on an invalid window.
func Compose(src Sources, win model.ViewWindow, opts Options) (Result, error) {
	cfg := ExpandConfig{
		Window:                    win,
		Location:                  opts.Location,
		MaxOccurrencesPerTemplate: opts.MaxOccurrencesPerTemplate,
	}

	lessons, err := ExpandAll(src.Lessons, cfg)
	if err != nil {
		return Result{}, fmt.Errorf("compose lessons: %w", err)
	}
	personal, err := ExpandAll(src.Personal, cfg)
	if err != nil {
		return Result{}, fmt.Errorf("compose personal: %w", err)
	}

	due := make([]model.AssessmentItem, 0, len(src.Assessments))
	for _, a := range src.Assessments {
		if a.DueDate != nil && win.Contains(*a.DueDate) {
			due = append(due, a)
		}
	}

	items := Merge(lessons.Occurrences, due, personal.Occurrences)
	if opts.HideCancelled {
		items = WithoutCancelled(items)
	}
	items = Filter(items, opts.Filters)

	return Result{
		Window:          win,
		Items:           items,
		Skipped:         append(lessons.Skipped, personal.Skipped...),
		Truncated:       append(lessons.Truncated, personal.Truncated...),
		MonthlyOverflow: append(lessons.MonthlyOverflow, personal.MonthlyOverflow...),
	}, nil
}
