package model

// GradeScale is the upper bound of the weighted GPA.
const GradeScale = 10.0

// Rollup is the weighted aggregate over one group of assessment items.
// WeightedGPA is nil while nothing in the group has been graded.
type Rollup struct {
	WeightedGPA  *float64 `json:"weighted_gpa"`
	GradedWeight float64  `json:"graded_weight"`
	TotalWeight  float64  `json:"total_weight"`
	Progress     float64  `json:"progress"`
	GradedCount  int      `json:"graded_count"`
	ItemCount    int      `json:"item_count"`
}

// HasGrade reports whether WeightedGPA is defined.
func (r Rollup) HasGrade() bool { return r.WeightedGPA != nil }

// AnomalyReason explains why an assessment item was flagged.
type AnomalyReason string

const (
	AnomalyMaxPoints    AnomalyReason = "max_points_invalid"
	AnomalyWeight       AnomalyReason = "weight_out_of_range"
	AnomalyEarnedPoints AnomalyReason = "earned_points_out_of_range"
)

// GradeAnomaly flags a provider row that needs upstream correction.
type GradeAnomaly struct {
	ItemID   string        `json:"item_id"`
	Reason   AnomalyReason `json:"reason"`
	Excluded bool          `json:"excluded"`
}

// GradeSummary is the aggregate over a scope of assessment items, with
// rollups per assessment type.
type GradeSummary struct {
	Rollup
	PerCategory map[AssessmentType]Rollup `json:"per_category"`
	Anomalies   []GradeAnomaly            `json:"anomalies,omitempty"`
}
