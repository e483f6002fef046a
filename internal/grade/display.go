package grade

import (
	"math"

	"coursecal/internal/model"
)

// Round2 rounds to two decimals, half away from zero.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func roundRollup(r model.Rollup) model.Rollup {
	if r.WeightedGPA != nil {
		v := Round2(*r.WeightedGPA)
		r.WeightedGPA = &v
	}
	r.GradedWeight = Round2(r.GradedWeight)
	r.TotalWeight = Round2(r.TotalWeight)
	r.Progress = Round2(r.Progress)
	return r
}

// Display returns a copy of s rounded for presentation. s itself keeps its
// full precision.
func Display(s model.GradeSummary) model.GradeSummary {
	out := model.GradeSummary{
		Rollup:      roundRollup(s.Rollup),
		PerCategory: make(map[model.AssessmentType]model.Rollup, len(s.PerCategory)),
		Anomalies:   append([]model.GradeAnomaly(nil), s.Anomalies...),
	}
	for t, r := range s.PerCategory {
		out.PerCategory[t] = roundRollup(r)
	}
	return out
}

// Band is the qualitative class of a grade on the 0–10 scale.
type Band string

const (
	BandNone      Band = "none"
	BandExcellent Band = "excellent"
	BandGood      Band = "good"
	BandAverage   Band = "average"
	BandPoor      Band = "poor"
	BandFailing   Band = "failing"
)

var bandFloors = []struct {
	floor float64
	band  Band
}{
	{8.5, BandExcellent},
	{7.5, BandGood},
	{6.5, BandAverage},
	{5.5, BandPoor},
}

// BandOf classifies gpa; an undefined grade has BandNone.
func BandOf(gpa *float64) Band {
	if gpa == nil {
		return BandNone
	}
	for _, b := range bandFloors {
		if *gpa >= b.floor {
			return b.band
		}
	}
	return BandFailing
}

// Passing reports whether gpa reaches the lowest passing band.
func Passing(gpa *float64) bool {
	return gpa != nil && *gpa >= bandFloors[len(bandFloors)-1].floor
}
