package grade

import (
	"math"
	"sort"

	appLog "coursecal/internal/log"
	"coursecal/internal/model"
)

// accumulator keeps full-precision running sums for one rollup.
type accumulator struct {
	weighted    float64
	graded      float64
	total       float64
	gradedCount int
	count       int
}

func (a *accumulator) add(weight, ratio float64, graded bool) {
	a.count++
	a.total += weight
	if !graded {
		return
	}
	a.gradedCount++
	a.graded += weight
	a.weighted += ratio * weight
}

func (a accumulator) rollup() model.Rollup {
	r := model.Rollup{
		GradedWeight: a.graded,
		TotalWeight:  a.total,
		GradedCount:  a.gradedCount,
		ItemCount:    a.count,
	}
	if a.graded > 0 {
		gpa := a.weighted / a.graded * model.GradeScale
		r.WeightedGPA = &gpa
	}
	if a.total > 0 {
		r.Progress = a.graded / a.total * 100
	}
	return r
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

// inspect decides whether an item takes part in aggregation and returns
// its earned ratio clamped to [0, 1]. Rows with unusable max points or
// weight are excluded; out-of-range earned points are clamped and flagged.
func inspect(it model.AssessmentItem) (ratio float64, anomalies []model.GradeAnomaly, ok bool) {
	if it.MaxPoints == nil || !finite(*it.MaxPoints) || *it.MaxPoints <= 0 {
		return 0, []model.GradeAnomaly{{ItemID: it.ID, Reason: model.AnomalyMaxPoints, Excluded: true}}, false
	}
	if !finite(it.Weight) || it.Weight < 0 || it.Weight > 1 {
		return 0, []model.GradeAnomaly{{ItemID: it.ID, Reason: model.AnomalyWeight, Excluded: true}}, false
	}
	if it.EarnedPoints == nil {
		return 0, nil, true
	}

	earned := *it.EarnedPoints
	if !finite(earned) {
		return 0, []model.GradeAnomaly{{ItemID: it.ID, Reason: model.AnomalyEarnedPoints, Excluded: true}}, false
	}
	ratio = earned / *it.MaxPoints
	if ratio < 0 || ratio > 1 {
		anomalies = append(anomalies, model.GradeAnomaly{ItemID: it.ID, Reason: model.AnomalyEarnedPoints})
		ratio = math.Min(math.Max(ratio, 0), 1)
	}
	return ratio, anomalies, true
}

// Summarize aggregates a scope of assessment items (one course or the
// union of all enrolled courses). Items without a due date take part like
// any other. Anomalous rows are reported in the summary and logged.
func Summarize(items []model.AssessmentItem) model.GradeSummary {
	var all accumulator
	perType := make(map[model.AssessmentType]*accumulator)
	summary := model.GradeSummary{PerCategory: make(map[model.AssessmentType]model.Rollup)}

	for _, it := range items {
		ratio, anomalies, ok := inspect(it)
		for _, an := range anomalies {
			summary.Anomalies = append(summary.Anomalies, an)
			appLog.Warn("grade: assessment data anomaly",
				"item_id", an.ItemID,
				"reason", string(an.Reason),
				"excluded", an.Excluded,
			)
		}
		if !ok {
			continue
		}

		graded := it.Graded()
		all.add(it.Weight, ratio, graded)

		acc := perType[it.Type]
		if acc == nil {
			acc = &accumulator{}
			perType[it.Type] = acc
		}
		acc.add(it.Weight, ratio, graded)
	}

	summary.Rollup = all.rollup()
	for t, acc := range perType {
		summary.PerCategory[t] = acc.rollup()
	}
	return summary
}

// SummarizeByCourse groups items by course code and summarizes each group.
func SummarizeByCourse(items []model.AssessmentItem) map[string]model.GradeSummary {
	groups := make(map[string][]model.AssessmentItem)
	for _, it := range items {
		groups[it.CourseCode] = append(groups[it.CourseCode], it)
	}

	out := make(map[string]model.GradeSummary, len(groups))
	for code, group := range groups {
		out[code] = Summarize(group)
	}
	return out
}

// Courses returns the course codes of items in ascending order.
func Courses(items []model.AssessmentItem) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, it := range items {
		if _, ok := seen[it.CourseCode]; ok {
			continue
		}
		seen[it.CourseCode] = struct{}{}
		out = append(out, it.CourseCode)
	}
	sort.Strings(out)
	return out
}
