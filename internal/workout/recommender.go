package workout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	overtrainingWindowDays = 3
	overtrainingLogs       = 5
	bonusExerciseCount     = 4
	increaseRating         = 3
	changeSchemeRating     = -2
)

// SuggestionType discriminates the outcomes of [Recommender.Today].
type SuggestionType string

const (
	SuggestionDefault     SuggestionType = "default"
	SuggestionRecovery    SuggestionType = "recovery"
	SuggestionAlternative SuggestionType = "alternative"
	SuggestionCompleted   SuggestionType = "completed"
	SuggestionScheduled   SuggestionType = "scheduled"
)

// GuidedExercise is a free-form exercise of a fixed or bonus workout.
type GuidedExercise struct {
	Title        string `json:"title"`
	Instructions string `json:"instructions"`
}

// GuidedWorkout is a workout outside the plan schedule.
type GuidedWorkout struct {
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Exercises   []GuidedExercise `json:"exercises"`
}

// RecoveryStatus tells how long ago a body part was trained.
type RecoveryStatus struct {
	BodyPart string `json:"body_part"`
	// Status is "<n> days" or "Ready" when never trained.
	Status string `json:"status"`
}

// Suggestion is the recommendation for today.
type Suggestion struct {
	Type    SuggestionType `json:"type"`
	Message string         `json:"message"`
	PlanID  *uuid.UUID     `json:"plan_id,omitempty"`
	Week    int            `json:"week,omitempty"`
	// Day names the weekday an alternative workout was borrowed from.
	Day         string           `json:"day,omitempty"`
	Workouts    []Assignment     `json:"workouts,omitempty"`
	Workout     *GuidedWorkout   `json:"workout,omitempty"`
	Adjustments []string         `json:"adjustments,omitempty"`
	Recovery    []RecoveryStatus `json:"muscle_recovery,omitempty"`
}

//nolint:gochecknoglobals // fixed workout templates.
var (
	recoveryWorkouts = []GuidedWorkout{
		{
			Title:       "Active Recovery",
			Description: "Light movement to promote blood flow and recovery",
			Exercises: []GuidedExercise{
				{Title: "Light Walking", Instructions: "Walk at an easy pace for 20-30 minutes"},
				{Title: "Dynamic Stretching", Instructions: "Full body dynamic stretches, 30 seconds each movement"},
				{Title: "Foam Rolling", Instructions: "Roll major muscle groups, 1 minute per area"},
			},
		},
		{
			Title:       "Mobility Focus",
			Description: "Improve range of motion and joint health",
			Exercises: []GuidedExercise{
				{Title: "Hip Mobility Flow", Instructions: "5 minutes of hip circles, lunges, and squats"},
				{Title: "Shoulder Mobility", Instructions: "Arm circles, wall slides, and band pull-aparts"},
				{Title: "Ankle Mobility", Instructions: "Ankle circles, calf stretches, and toe raises"},
			},
		},
		{
			Title:       "Light Cardio",
			Description: "Low intensity cardio to aid recovery",
			Exercises: []GuidedExercise{
				{Title: "Easy Cycling", Instructions: "15-20 minutes at low resistance"},
				{Title: "Swimming", Instructions: "Easy laps for 10-15 minutes, focus on technique"},
				{Title: "Elliptical", Instructions: "10-15 minutes at low intensity"},
			},
		},
	}
	calorieBurner = GuidedWorkout{
		Title:       "Calorie Burner",
		Description: "High-intensity interval training to burn extra calories",
		Exercises: []GuidedExercise{
			{Title: "HIIT Circuit", Instructions: "30 seconds work, 15 seconds rest for 5 exercises, 4 rounds"},
			{Title: "Jump Rope", Instructions: "3 sets of 1 minute fast jumping"},
			{Title: "Mountain Climbers", Instructions: "3 sets of 30 seconds"},
		},
	}
	coreAndMobility = GuidedWorkout{
		Title:       "Core & Mobility",
		Description: "Strengthen your core and improve overall mobility",
		Exercises: []GuidedExercise{
			{Title: "Plank Variations", Instructions: "3 sets of 30-45 seconds each variation"},
			{Title: "Russian Twists", Instructions: "3 sets of 20 reps"},
			{Title: "Hip Mobility Flow", Instructions: "5 minutes of dynamic hip movements"},
		},
	}
	defaultWorkout = GuidedWorkout{
		Title:       "Full Body Basics",
		Description: "A bodyweight full body session that needs no equipment",
		Exercises: []GuidedExercise{
			{Title: "Bodyweight Squats", Instructions: "3 sets of 12-15 reps"},
			{Title: "Push-Ups", Instructions: "3 sets of 8-12 reps, on the knees if needed"},
			{Title: "Glute Bridges", Instructions: "3 sets of 12-15 reps"},
			{Title: "Plank", Instructions: "3 sets of 30 seconds"},
		},
	}
	// Specialization candidates in order of preference.
	laggingBodyParts  = []string{"Arms", "Shoulders", "Calves", "Abs"}
	recoveryBodyParts = []string{"Chest", "Back", "Legs", "Shoulders", "Arms", "Core"}
)

func cloneGuided(w GuidedWorkout) *GuidedWorkout {
	w.Exercises = slices.Clone(w.Exercises)
	return &w
}

// Recommender resolves what to train today.
//
// A Recommender is safe for concurrent use.
type Recommender struct {
	store  Store
	logger *slog.Logger
	now    func() time.Time

	mu   sync.Mutex
	rand *rand.Rand
}

// NewRecommender creates a Recommender.
func NewRecommender(store Store, logger *slog.Logger, rng *rand.Rand, now func() time.Time) *Recommender {
	return &Recommender{store: store, logger: logger, now: now, mu: sync.Mutex{}, rand: rng}
}

func (r *Recommender) intN(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.IntN(n)
}

func defaultSuggestion() Suggestion {
	return Suggestion{
		Type:    SuggestionDefault,
		Message: "No active plan found. Here's a full body workout to get you started:",
		Workout: cloneGuided(defaultWorkout),
	}
}

// isoWeekday returns 1 for Monday through 7 for Sunday.
func isoWeekday(t time.Time) int {
	if t.Weekday() == time.Sunday {
		return 7 //nolint:mnd // Sunday is the last day of the week.
	}
	return int(t.Weekday())
}

// weekdayName is the inverse of isoWeekday.
func weekdayName(day int) string {
	return time.Weekday(day % 7).String() //nolint:mnd // Sunday wraps to zero.
}

// Today recommends a workout for today from the given plan or, when planID is nil, the most recent active plan.
func (r *Recommender) Today(ctx context.Context, userID int, planID *uuid.UUID) (Suggestion, error) {
	plan, ok, err := r.resolvePlan(ctx, planID)
	if err != nil {
		return Suggestion{}, err
	}
	if !ok {
		return defaultSuggestion(), nil
	}

	today := dateOf(r.now())
	elapsed := daysBetween(plan.StartDate, today)
	if elapsed < 0 {
		r.logger.LogAttrs(ctx, slog.LevelDebug, "plan has not started",
			slog.String("plan_id", plan.ID.String()), slog.Int("days_until_start", -elapsed))
		return defaultSuggestion(), nil
	}
	week := elapsed/7 + 1 //nolint:mnd // days per week.
	weekday := isoWeekday(today)
	scheduled, err := r.store.ScheduledWorkouts(ctx, plan.ID, week, weekday)
	if err != nil {
		return Suggestion{}, fmt.Errorf("get scheduled workouts: %w", err)
	}

	var s Suggestion
	if len(scheduled) == 0 {
		s, err = r.unscheduled(ctx, userID, plan.ID, week, weekday)
	} else {
		s, err = r.scheduled(ctx, userID, plan, scheduled)
	}
	if err != nil {
		return Suggestion{}, err
	}
	if s.Type != SuggestionDefault {
		s.PlanID = &plan.ID
		s.Week = week
	}
	r.logger.LogAttrs(ctx, slog.LevelDebug, "recommended workout",
		slog.String("type", string(s.Type)),
		slog.String("plan_id", plan.ID.String()),
		slog.Int("week", week),
		slog.Int("weekday", weekday))
	return s, nil
}

func (r *Recommender) resolvePlan(ctx context.Context, planID *uuid.UUID) (Plan, bool, error) {
	if planID != nil {
		plan, err := r.store.GetPlan(ctx, *planID)
		if errors.Is(err, ErrNotFound) {
			return Plan{}, false, nil
		}
		if err != nil {
			return Plan{}, false, fmt.Errorf("get plan: %w", err)
		}
		return plan, true, nil
	}
	plans, err := r.store.ActivePlans(ctx)
	if err != nil {
		return Plan{}, false, fmt.Errorf("get active plans: %w", err)
	}
	if len(plans) == 0 {
		return Plan{}, false, nil
	}
	return plans[0], true, nil
}

// unscheduled suggests recovery after heavy recent training, otherwise borrows another day of the same week.
func (r *Recommender) unscheduled(
	ctx context.Context,
	userID int,
	planID uuid.UUID,
	week int,
	weekday int,
) (Suggestion, error) {
	today := dateOf(r.now())
	recent, err := r.store.CountLogsSince(ctx, userID, today.AddDate(0, 0, -overtrainingWindowDays))
	if err != nil {
		return Suggestion{}, fmt.Errorf("count recent logs: %w", err)
	}
	if recent > overtrainingLogs {
		return Suggestion{
			Type:    SuggestionRecovery,
			Message: "You've been working hard! Here's a recovery workout:",
			Workout: cloneGuided(recoveryWorkouts[r.intN(len(recoveryWorkouts))]),
		}, nil
	}

	days, err := r.store.ScheduledDays(ctx, planID, week)
	if err != nil {
		return Suggestion{}, fmt.Errorf("get scheduled days: %w", err)
	}
	days = slices.DeleteFunc(days, func(d int) bool { return d == weekday })
	if len(days) == 0 {
		return defaultSuggestion(), nil
	}
	day := days[r.intN(len(days))]
	workouts, err := r.store.ScheduledWorkouts(ctx, planID, week, day)
	if err != nil {
		return Suggestion{}, fmt.Errorf("get alternative workouts: %w", err)
	}
	return Suggestion{
		Type:     SuggestionAlternative,
		Message:  fmt.Sprintf("No workout scheduled for today. Here's your %s workout instead:", weekdayName(day)),
		Day:      weekdayName(day),
		Workouts: workouts,
	}, nil
}

func (r *Recommender) scheduled(
	ctx context.Context,
	userID int,
	plan Plan,
	scheduled []Assignment,
) (Suggestion, error) {
	today := dateOf(r.now())
	logged, err := r.store.LoggedAssignmentsOn(ctx, userID, today)
	if err != nil {
		return Suggestion{}, fmt.Errorf("get logged assignments: %w", err)
	}
	remaining := slices.DeleteFunc(slices.Clone(scheduled), func(a Assignment) bool { return logged[a.ID] })
	if len(remaining) == 0 {
		bonus, bonusErr := r.bonusWorkout(ctx, userID, plan.Goal)
		if bonusErr != nil {
			return Suggestion{}, bonusErr
		}
		return Suggestion{
			Type:    SuggestionCompleted,
			Message: "You've completed all scheduled workouts for today! Would you like a bonus workout?",
			Workout: bonus,
		}, nil
	}

	var adjustments []string
	for _, a := range remaining {
		rating, ok, ratingErr := r.store.LatestProgressionRating(ctx, userID, a.Exercise.ID)
		if ratingErr != nil {
			return Suggestion{}, fmt.Errorf("get progression rating of exercise %d: %w", a.Exercise.ID, ratingErr)
		}
		switch {
		case !ok:
		case rating > increaseRating:
			adjustments = append(adjustments, fmt.Sprintf("Increase weight for %s by 5-10%% today", a.Exercise.Title))
		case rating < changeSchemeRating:
			adjustments = append(adjustments,
				fmt.Sprintf("Try different rep range for %s today (e.g., 5x5 instead of 3x10)", a.Exercise.Title))
		}
	}

	recovery := make([]RecoveryStatus, 0, len(recoveryBodyParts))
	for _, bodyPart := range recoveryBodyParts {
		last, ok, lastErr := r.store.LastTrained(ctx, userID, bodyPart)
		if lastErr != nil {
			return Suggestion{}, fmt.Errorf("get last training of %s: %w", bodyPart, lastErr)
		}
		status := "Ready"
		if ok {
			status = strconv.Itoa(daysBetween(last, today)) + " days"
		}
		recovery = append(recovery, RecoveryStatus{BodyPart: bodyPart, Status: status})
	}

	return Suggestion{
		Type:        SuggestionScheduled,
		Message:     "Here's your workout for today:",
		Workouts:    remaining,
		Adjustments: adjustments,
		Recovery:    recovery,
	}, nil
}

// bonusWorkout specialises body builders on a lagging body part not trained since yesterday.
func (r *Recommender) bonusWorkout(ctx context.Context, userID int, goal Goal) (*GuidedWorkout, error) {
	switch {
	case goal.has("Body Building"):
	case goal.has("Weight Loss"):
		return cloneGuided(calorieBurner), nil
	default:
		return cloneGuided(coreAndMobility), nil
	}

	today := dateOf(r.now())
	target := laggingBodyParts[0]
	for _, bodyPart := range laggingBodyParts {
		last, ok, err := r.store.LastTrained(ctx, userID, bodyPart)
		if err != nil {
			return nil, fmt.Errorf("get last training of %s: %w", bodyPart, err)
		}
		if !ok || daysBetween(last, today) > 1 {
			target = bodyPart
			break
		}
	}

	candidates, err := r.store.QueryExercises(ctx, ExerciseQuery{BodyPart: target})
	if err != nil {
		return nil, fmt.Errorf("query %s exercises: %w", target, err)
	}
	r.mu.Lock()
	r.rand.Shuffle(len(candidates), func(i, j int) { candidates[i], candidates[j] = candidates[j], candidates[i] })
	r.mu.Unlock()
	candidates = candidates[:min(len(candidates), bonusExerciseCount)]

	w := &GuidedWorkout{
		Title:       target + " Specialization",
		Description: "Focus on " + target + " with high volume",
		Exercises:   make([]GuidedExercise, 0, len(candidates)),
	}
	for _, e := range candidates {
		w.Exercises = append(w.Exercises, GuidedExercise{
			Title:        e.Title,
			Instructions: strings.Join(e.Instructions, " "),
		})
	}
	return w, nil
}

// NextSession is the suggested load for the next session of an exercise.
type NextSession struct {
	Sets   int     `json:"sets"`
	Reps   Reps    `json:"reps"`
	Weight float64 `json:"weight"`
	Notes  string  `json:"notes"`
}

// SuggestNextSession suggests the next load of an exercise from its history, oldest log first.
func SuggestNextSession(history []LogEntry) NextSession {
	if len(history) == 0 {
		return NextSession{
			Sets:   3,               //nolint:mnd // starting volume.
			Reps:   repRange(8, 12), //nolint:mnd // starting volume.
			Weight: 0,
			Notes:  "Start with a weight you can handle for all sets",
		}
	}
	last := history[len(history)-1]
	if last.Sets >= last.TargetSets {
		return NextSession{
			Sets:   last.Sets,
			Reps:   repRange(last.Reps, last.Reps),
			Weight: math.Round(last.Weight*105) / 100, //nolint:mnd // 5% increase rounded to two decimals.
			Notes:  "Increase weight by 5% from last session",
		}
	}
	return NextSession{
		Sets:   last.TargetSets,
		Reps:   last.TargetReps,
		Weight: last.Weight,
		Notes:  "Maintain current weight and focus on form",
	}
}
