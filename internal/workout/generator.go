// Package workout plans training programs, tracks progress and recommends the day's workout.
package workout

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"
)

const defaultPlanName = "Custom Fitness Plan"

// Generator builds complete plans from preferences.
//
// A Generator is safe for concurrent use. Its random source is seedable so that plans are reproducible.
type Generator struct {
	catalog ExerciseCatalog
	logger  *slog.Logger
	now     func() time.Time

	mu   sync.Mutex
	rand *rand.Rand
}

// NewGenerator creates a Generator drawing exercises from catalog.
func NewGenerator(catalog ExerciseCatalog, logger *slog.Logger, rng *rand.Rand, now func() time.Time) *Generator {
	return &Generator{
		catalog: catalog,
		logger:  logger,
		now:     now,
		mu:      sync.Mutex{},
		rand:    rng,
	}
}

// NewRand returns a random source. Seed zero seeds from the current time.
func NewRand(seed uint64) *rand.Rand {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano()) //nolint:gosec // not security sensitive.
	}
	return rand.New(rand.NewPCG(seed, seed)) //nolint:gosec // not security sensitive.
}

// Generate validates prefs and builds a plan with one day template per split position, expanded over the plan's
// duration with progressive overload.
func (g *Generator) Generate(ctx context.Context, prefs Preferences) (Plan, error) {
	if err := prefs.Validate(); err != nil {
		return Plan{}, err
	}
	prefs.WorkoutsPerWeek = clampWorkouts(prefs.WorkoutsPerWeek)

	split := SplitFor(prefs.Goal, prefs.WorkoutsPerWeek)
	base := make([]DayWorkout, 0, len(split))
	for i, focus := range split {
		exercises, err := g.selectExercises(ctx, focus, prefs)
		if err != nil {
			return Plan{}, fmt.Errorf("select exercises for day %d: %w", i+1, err)
		}
		day := DayWorkout{Day: i + 1, Focus: focus, Exercises: make([]Assignment, 0, len(exercises))}
		for _, e := range exercises {
			day.Exercises = append(day.Exercises, parameterize(e, prefs.Goal, prefs.Level))
		}
		base = append(base, day)
	}

	name := prefs.Name
	if name == "" {
		name = defaultPlanName
	}
	now := g.now()
	plan := Plan{
		ID:              uuid.New(),
		Name:            name,
		Goal:            prefs.Goal,
		Level:           prefs.Level,
		DurationWeeks:   prefs.DurationWeeks,
		WorkoutsPerWeek: prefs.WorkoutsPerWeek,
		Equipment:       append([]string(nil), prefs.Equipment...),
		Limitations:     append([]string(nil), prefs.Limitations...),
		Weeks:           Progress(base, prefs.DurationWeeks, prefs.Level),
		Active:          true,
		StartDate:       dateOf(now),
		CreatedAt:       now.UTC(),
		UpdatedAt:       now.UTC(),
	}
	g.logger.LogAttrs(ctx, slog.LevelInfo, "generated plan",
		slog.String("plan_id", plan.ID.String()),
		slog.String("goal", string(plan.Goal)),
		slog.Int("weeks", plan.DurationWeeks),
		slog.Int("workouts_per_week", plan.WorkoutsPerWeek))
	return plan, nil
}
