package workout

import "strings"

type levelParameters struct {
	sets int
	reps Reps
}

//nolint:gochecknoglobals // read-only lookup table.
var levelTable = map[Level]levelParameters{
	LevelBeginner:     {sets: 3, reps: repRange(8, 12)}, //nolint:mnd // table values.
	LevelIntermediate: {sets: 4, reps: repRange(8, 10)}, //nolint:mnd // table values.
	LevelAdvanced:     {sets: 5, reps: repRange(6, 12)}, //nolint:mnd // table values.
}

func paramsFor(level Level) levelParameters {
	if p, ok := levelTable[level]; ok {
		return p
	}
	return levelTable[LevelBeginner]
}

// parameterize prescribes sets, reps, rest and tempo for an exercise.
func parameterize(exercise Exercise, goal Goal, level Level) Assignment {
	lp := paramsFor(level)
	a := Assignment{
		ID:       0,
		Exercise: exercise,
		Sets:     lp.sets,
		Reps:     lp.reps,
		Rest:     restFor(exercise.Category, goal),
		Tempo:    tempoFor(exercise.Category, goal),
		Notes:    strings.Join(exercise.Instructions, " "),
	}
	switch exercise.Category {
	case CategoryCompound:
		if !goal.has("Strength") {
			a.Reps = repRange(8, 12) //nolint:mnd // hypertrophy default.
		}
	case CategoryIsolation:
		a.Sets = max(3, lp.sets-1) //nolint:mnd // isolation floor.
		a.Reps = repRange(12, 15)  //nolint:mnd // table values.
		if goal.has("Body Building") {
			a.Reps = repRange(10, 15) //nolint:mnd // table values.
		}
	case CategoryCardio:
		minutes := 15 //nolint:mnd // beginner duration.
		switch level {
		case LevelIntermediate:
			minutes += 5
		case LevelAdvanced:
			minutes += 10
		case LevelBeginner:
		}
		a.Sets = 1
		a.Reps = Reps{Min: minutes, Max: minutes, Unit: UnitMinutes}
	case CategoryMobility:
		a.Sets = 3
		if level == LevelBeginner || !level.valid() {
			a.Sets = 2
		}
		a.Reps = Reps{Min: 30, Max: 60, Unit: UnitSeconds} //nolint:mnd // hold duration.
	}
	return a
}

func restFor(category Category, goal Goal) string {
	switch category {
	case CategoryCompound:
		if goal.has("Strength") || goal.has("Body Building") {
			return "2-3 minutes"
		}
		return "60-90 seconds"
	case CategoryIsolation:
		if goal.has("Body Building") {
			return "60-90 seconds"
		}
		return "30-60 seconds"
	case CategoryCardio:
		return "Minimal rest"
	case CategoryMobility:
		return "30 seconds"
	}
	return "60-90 seconds"
}

func tempoFor(category Category, goal Goal) string {
	switch {
	case goal.has("Strength"):
		if category == CategoryCompound {
			return "2-0-2"
		}
		return "2-0-1"
	case goal.has("Body Building"):
		return "3-1-2"
	case goal.has("Sports"):
		if category == CategoryCompound {
			return "1-0-1"
		}
		return "2-0-2"
	}
	return "2-0-2"
}
