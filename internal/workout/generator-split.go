package workout

const maxWorkoutsPerWeek = 7

//nolint:gochecknoglobals // read-only lookup tables.
var (
	goalSplits = map[Goal]map[int][]string{
		GoalSportsAndAthletics: {
			2: {"Full Body", "Full Body"},
			3: {"Upper Body", "Lower Body", "Full Body"},
			4: {"Upper Body", "Lower Body", "Cardio/Plyometrics", "Sport Specific"},
			5: {"Upper Push", "Lower Pull", "Rest/Recovery", "Upper Pull", "Lower Push"},
		},
		GoalBodyBuilding: {
			3: {"Push", "Pull", "Legs"},
			4: {"Upper Body", "Lower Body", "Upper Body", "Lower Body"},
			5: {"Chest/Triceps", "Back/Biceps", "Legs/Shoulders", "Upper Body", "Lower Body"},
			6: {"Push", "Pull", "Legs", "Push", "Pull", "Legs"},
		},
		GoalBodyWeightFitness: {
			2: {"Upper Body", "Lower Body"},
			3: {"Push", "Pull", "Legs/Core"},
			4: {"Horizontal Push/Pull", "Legs", "Vertical Push/Pull", "Core/Conditioning"},
		},
		GoalWeightLoss: {
			2: {"Full Body + HIIT", "Full Body + Steady Cardio"},
			3: {"Upper Body + HIIT", "Lower Body + HIIT", "Full Body + Steady Cardio"},
			4: {"Upper Push + HIIT", "Lower Body + Steady Cardio", "Upper Pull + HIIT", "Full Body Circuit"},
		},
		GoalMobilityExclusive: {
			2: {"Upper Body Mobility", "Lower Body Mobility"},
			3: {"Dynamic Mobility", "Static Stretching", "Joint Mobility"},
			4: {"Upper Body Mobility", "Lower Body Mobility", "Full Body Flow", "Targeted Rehab"},
		},
	}
	defaultSplits = map[int][]string{
		1: {"Full Body"},
		2: {"Upper Body", "Lower Body"},
		3: {"Push", "Pull", "Legs"},
		4: {"Upper Body", "Lower Body", "Upper Body", "Lower Body"},
		5: {"Chest/Triceps", "Back/Biceps", "Legs", "Shoulders/Arms", "Full Body"},
		6: {"Push", "Pull", "Legs", "Push", "Pull", "Legs"},
		7: {"Chest", "Back", "Legs", "Shoulders", "Arms", "Full Body", "Active Recovery"},
	}
)

// clampWorkouts bounds the weekly frequency to [1, 7].
func clampWorkouts(n int) int {
	return max(1, min(n, maxWorkoutsPerWeek))
}

// SplitFor returns the focus label of each training day of the week.
//
// The result always has exactly clamp(workoutsPerWeek, 1, 7) labels and is safe to modify.
func SplitFor(goal Goal, workoutsPerWeek int) []string {
	n := clampWorkouts(workoutsPerWeek)
	if split, ok := goalSplits[goal][n]; ok {
		return append([]string(nil), split...)
	}
	if split, ok := defaultSplits[n]; ok {
		return append([]string(nil), split...)
	}
	split := make([]string, n)
	for i := range split {
		split[i] = "Full Body"
	}
	return split
}
