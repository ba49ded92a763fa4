package workout

import (
	"fmt"
	"strings"
)

const (
	maxProgressedSets = 6
	maxProgressedReps = 20
	minDeloadSets     = 2
)

const deloadNote = " DELOAD WEEK: Reduce weights by 10-15% but maintain good form."

type progressionPattern struct {
	deloadFrequency int
	deloadReduction float64
	loadIncrease    int // percent per even week
}

//nolint:gochecknoglobals // read-only lookup tables.
var (
	progressionPatterns = map[Level]progressionPattern{
		LevelBeginner:     {deloadFrequency: 4, deloadReduction: 0.40, loadIncrease: 5},  //nolint:mnd // table values.
		LevelIntermediate: {deloadFrequency: 4, deloadReduction: 0.30, loadIncrease: 10}, //nolint:mnd // table values.
		LevelAdvanced:     {deloadFrequency: 3, deloadReduction: 0.25, loadIncrease: 10}, //nolint:mnd // table values.
	}
	// Main lifts get an extra set on odd weeks.
	mainLifts = map[string]bool{"squat": true, "deadlift": true, "bench press": true, "overhead press": true}
)

func patternFor(level Level) progressionPattern {
	if p, ok := progressionPatterns[level]; ok {
		return p
	}
	return progressionPatterns[LevelBeginner]
}

// Progress expands a weekly template into weeks of progressive overload with periodic deloads.
//
// Every week starts from its own deep copy of base, so no two weeks share storage and base is never modified.
func Progress(base []DayWorkout, weeks int, level Level) []WeeklyPlan {
	pattern := patternFor(level)
	plans := make([]WeeklyPlan, 0, max(weeks, 0))
	for week := 1; week <= weeks; week++ {
		days := cloneDays(base)
		deload := week%pattern.deloadFrequency == 0
		for i := range days {
			for j := range days[i].Exercises {
				a := &days[i].Exercises[j]
				switch {
				case deload:
					applyDeload(a, pattern)
				case week%2 == 1:
					applyVolumeWeek(a, week)
				default:
					a.Notes += fmt.Sprintf(" Increase weight by %d%% from previous week.", pattern.loadIncrease)
				}
			}
		}
		plans = append(plans, WeeklyPlan{Week: week, IsDeload: deload, Workouts: days})
	}
	return plans
}

func applyDeload(a *Assignment, pattern progressionPattern) {
	a.Sets = max(minDeloadSets, int(float64(a.Sets)*(1-pattern.deloadReduction)))
	if a.Reps.counted() {
		a.Reps.Max = min(a.Reps.Min+2, a.Reps.Max)
	}
	a.Notes += deloadNote
}

// applyVolumeWeek adds volume on odd weeks by widening rep ranges and, from week 3, adding a set to main lifts.
func applyVolumeWeek(a *Assignment, week int) {
	if week > 2 && mainLifts[strings.ToLower(a.Exercise.Title)] {
		a.Sets = min(a.Sets+1, maxProgressedSets)
	}
	if a.Reps.counted() {
		a.Reps = Reps{
			Min:  min(a.Reps.Min+1, a.Reps.Max),
			Max:  min(a.Reps.Max+2, maxProgressedReps),
			Unit: UnitReps,
		}
	}
}
