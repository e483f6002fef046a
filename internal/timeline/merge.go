package timeline

import (
	"slices"

	"coursecal/internal/model"
)

// Merge combines expanded lesson occurrences, one deadline per assessment
// with a due date, and personal occurrences into a single timeline ordered
// by model.Less. Duplicates within a source (same instance id, or same
// assessment id) keep their first appearance. Inputs are not modified.
func Merge(lessons []model.Occurrence, assessments []model.AssessmentItem, personal []model.Occurrence) []model.TimelineItem {
	out := make([]model.TimelineItem, 0, len(lessons)+len(assessments)+len(personal))

	out = appendOccurrences(out, lessons, model.LessonItem)
	out = appendDeadlines(out, assessments)
	out = appendOccurrences(out, personal, model.PersonalItem)

	Sort(out)
	return out
}

// Sort orders items in place by the timeline's total order.
func Sort(items []model.TimelineItem) {
	slices.SortStableFunc(items, func(a, b model.TimelineItem) int {
		switch {
		case model.Less(a, b):
			return -1
		case model.Less(b, a):
			return 1
		default:
			return 0
		}
	})
}

func appendOccurrences(out []model.TimelineItem, occs []model.Occurrence, wrap func(model.Occurrence) model.TimelineItem) []model.TimelineItem {
	seen := make(map[string]struct{}, len(occs))
	for _, occ := range occs {
		if _, dup := seen[occ.InstanceID]; dup {
			continue
		}
		seen[occ.InstanceID] = struct{}{}
		out = append(out, wrap(occ))
	}
	return out
}

// appendDeadlines synthesizes deadline items. Assessments without a due
// date have no place on a timeline and are left out.
func appendDeadlines(out []model.TimelineItem, assessments []model.AssessmentItem) []model.TimelineItem {
	seen := make(map[string]struct{}, len(assessments))
	for _, a := range assessments {
		item, ok := model.DeadlineItem(a)
		if !ok {
			continue
		}
		if _, dup := seen[a.ID]; dup {
			continue
		}
		seen[a.ID] = struct{}{}
		out = append(out, item)
	}
	return out
}
