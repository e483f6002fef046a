package timeline

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/teambition/rrule-go"

	appLog "coursecal/internal/log"
	"coursecal/internal/model"
)

const (
	defaultMaxOccurrencesPerTemplate = 5000
)

var frequencies = map[model.Frequency]rrule.Frequency{
	model.FrequencyDaily:   rrule.DAILY,
	model.FrequencyWeekly:  rrule.WEEKLY,
	model.FrequencyMonthly: rrule.MONTHLY,
}

// weekOrdinalSuffix matches a trailing "Week N" marker such as
// "Lecture – Week 3", "Lab: week 12" or "Seminar (Week 4)".
var weekOrdinalSuffix = regexp.MustCompile(`(?i)\s*(?:[-–—:|,]\s*)?\(?\bweek\s*\d+\)?\s*$`)

// ExpandConfig controls how recurrence expansion is performed.
type ExpandConfig struct {
	// Window bounds the emitted occurrences (inclusive on both ends).
	Window model.ViewWindow

	// Location is the zone whose wall clock is preserved across
	// occurrences. If nil, each template's own start location is used.
	Location *time.Location

	// MaxOccurrencesPerTemplate caps a single template's expansion. If zero,
	// defaultMaxOccurrencesPerTemplate is used.
	MaxOccurrencesPerTemplate int
}

// ExpandResult wraps the expanded occurrences together with the templates
// that needed attention.
type ExpandResult struct {
	Occurrences []model.Occurrence
	// Skipped records template ids whose recurrence rule is unknown.
	Skipped []string
	// Truncated records template ids that hit MaxOccurrencesPerTemplate.
	Truncated []string
	// MonthlyOverflow records monthly templates anchored on a day that some
	// months lack; those months produce no occurrence.
	MonthlyOverflow []string
}

type expandOutcome struct {
	skipped   bool
	truncated bool
	overflow  bool
}

// Expand expands one template over win. The result is ordered by start and
// identical for identical inputs.
func Expand(tmpl model.EventTemplate, win model.ViewWindow) ([]model.Occurrence, error) {
	res, err := ExpandAll([]model.EventTemplate{tmpl}, ExpandConfig{Window: win})
	if err != nil {
		return nil, err
	}
	return res.Occurrences, nil
}

// ExpandAll expands every template over cfg.Window. A template with an
// unknown rule contributes nothing and is reported in Skipped; only an
// invalid window fails the call.
func ExpandAll(templates []model.EventTemplate, cfg ExpandConfig) (ExpandResult, error) {
	var result ExpandResult

	if err := cfg.Window.Validate(); err != nil {
		return result, fmt.Errorf("expand: %w", err)
	}
	if cfg.MaxOccurrencesPerTemplate <= 0 {
		cfg.MaxOccurrencesPerTemplate = defaultMaxOccurrencesPerTemplate
	}

	all := make([]model.Occurrence, 0, len(templates))
	for _, tmpl := range templates {
		occ, outcome := expandTemplate(tmpl, cfg)
		switch {
		case outcome.skipped:
			result.Skipped = append(result.Skipped, tmpl.ID)
			appLog.Warn("expand: unknown recurrence rule; template skipped",
				"template_id", tmpl.ID,
				"rule", string(tmpl.Recurrence.Rule),
			)
			continue
		case outcome.truncated:
			result.Truncated = append(result.Truncated, tmpl.ID)
			appLog.Warn("expand: truncated occurrences for template due to cap",
				"template_id", tmpl.ID,
				"cap", cfg.MaxOccurrencesPerTemplate,
			)
		}
		if outcome.overflow {
			result.MonthlyOverflow = append(result.MonthlyOverflow, tmpl.ID)
			appLog.Warn("expand: monthly recurrence on a day missing from some months",
				"template_id", tmpl.ID,
				"day", tmpl.Start.Day(),
			)
		}
		all = append(all, occ...)
	}

	slices.SortStableFunc(all, compareOccurrences)
	result.Occurrences = all
	return result, nil
}

func compareOccurrences(a, b model.Occurrence) int {
	if c := a.Start.Compare(b.Start); c != 0 {
		return c
	}
	return strings.Compare(a.InstanceID, b.InstanceID)
}

func expandTemplate(tmpl model.EventTemplate, cfg ExpandConfig) ([]model.Occurrence, expandOutcome) {
	if tmpl.Recurrence == nil {
		return expandSingle(tmpl, cfg), expandOutcome{}
	}
	return expandRecurring(tmpl, cfg)
}

func locationFor(tmpl model.EventTemplate, cfg ExpandConfig) *time.Location {
	if cfg.Location != nil {
		return cfg.Location
	}
	return tmpl.Start.Location()
}

func expandSingle(tmpl model.EventTemplate, cfg ExpandConfig) []model.Occurrence {
	loc := locationFor(tmpl, cfg)
	start := tmpl.Start.In(loc)
	if !cfg.Window.Contains(start) {
		return nil
	}
	return []model.Occurrence{makeOccurrence(tmpl, start, tmpl.End.In(loc), tmpl.Title, false)}
}

func expandRecurring(tmpl model.EventTemplate, cfg ExpandConfig) ([]model.Occurrence, expandOutcome) {
	var outcome expandOutcome

	freq, ok := frequencies[tmpl.Recurrence.Rule.Normalize()]
	if !ok {
		outcome.skipped = true
		return nil, outcome
	}

	loc := locationFor(tmpl, cfg)
	local := tmpl.Start.In(loc)
	// Occurrences carry the template's hour and minute; seconds are dropped.
	dtstart := time.Date(local.Year(), local.Month(), local.Day(), local.Hour(), local.Minute(), 0, 0, loc)
	duration := tmpl.End.Sub(tmpl.Start)

	bound := cfg.Window.End
	if end := tmpl.Recurrence.EndDate; end != nil {
		// The recurrence end date is a calendar day as written, inclusive.
		y, m, d := end.Date()
		if last := time.Date(y, m, d, 23, 59, 59, int(999*time.Millisecond), loc); last.Before(bound) {
			bound = last
		}
	}

	if freq == rrule.MONTHLY && dtstart.Day() > 28 {
		outcome.overflow = true
	}

	if dtstart.After(bound) || bound.Before(cfg.Window.Start) {
		return nil, outcome
	}

	r, err := rrule.NewRRule(rrule.ROption{
		Freq:    freq,
		Dtstart: dtstart,
	})
	if err != nil {
		appLog.Error("expand: failed to build recurrence rule", err, "template_id", tmpl.ID)
		outcome.skipped = true
		return nil, outcome
	}

	starts := r.Between(cfg.Window.Start, bound, true)
	if len(starts) > cfg.MaxOccurrencesPerTemplate {
		starts = starts[:cfg.MaxOccurrencesPerTemplate]
		outcome.truncated = true
	}

	title := stableTitle(tmpl.Title)
	out := make([]model.Occurrence, 0, len(starts))
	for _, s := range starts {
		s = s.In(loc)
		occStart := time.Date(s.Year(), s.Month(), s.Day(), dtstart.Hour(), dtstart.Minute(), 0, 0, loc)
		if !cfg.Window.Contains(occStart) || occStart.After(bound) || tmpl.Recurrence.Excludes(occStart) {
			continue
		}
		out = append(out, makeOccurrence(tmpl, occStart, occStart.Add(duration), title, true))
	}

	return out, outcome
}

// stableTitle strips a trailing week ordinal so every instance of a
// recurring template shows the same title.
func stableTitle(title string) string {
	stripped := strings.TrimSpace(weekOrdinalSuffix.ReplaceAllString(title, ""))
	if stripped == "" {
		return title
	}
	return stripped
}

func makeOccurrence(tmpl model.EventTemplate, start, end time.Time, title string, recurring bool) model.Occurrence {
	return model.Occurrence{
		InstanceID:  model.InstanceID(tmpl.ID, start),
		TemplateID:  tmpl.ID,
		Title:       title,
		Category:    tmpl.Category,
		Start:       start,
		End:         end,
		AllDay:      tmpl.AllDay,
		Location:    tmpl.Location,
		CourseCode:  tmpl.CourseCode,
		Description: tmpl.Description,
		Status:      tmpl.Status,
		Recurring:   recurring,
	}
}
