package workout

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ExerciseCatalog is the read-only exercise catalog.
type ExerciseCatalog interface {
	// QueryExercises returns every match in ascending id order.
	QueryExercises(ctx context.Context, q ExerciseQuery) ([]Exercise, error)
	GetExercise(ctx context.Context, id int) (Exercise, error)
}

// PlanStore persists generated plans.
type PlanStore interface {
	PersistPlan(ctx context.Context, plan Plan) (uuid.UUID, error)
	GetPlan(ctx context.Context, id uuid.UUID) (Plan, error)
	// ActivePlans returns active plans, most recent start date first.
	ActivePlans(ctx context.Context) ([]Plan, error)
	ScheduledWorkouts(ctx context.Context, planID uuid.UUID, week, day int) ([]Assignment, error)
	// ScheduledDays returns the weekdays of week that have workouts, ascending.
	ScheduledDays(ctx context.Context, planID uuid.UUID, week int) ([]int, error)
	SetPlanActive(ctx context.Context, planID uuid.UUID, active bool) error
	UpdatePlanGoal(ctx context.Context, planID uuid.UUID, goal Goal) error
}

// HistoryStore holds the append-only workout logs and progression records.
type HistoryStore interface {
	// WorkoutLogs returns the logs of an exercise on or after since, oldest first.
	WorkoutLogs(ctx context.Context, userID, exerciseID int, since time.Time) ([]LogEntry, error)
	AppendWorkoutLog(ctx context.Context, userID int, assignmentID int64, sets, reps int, weight float64,
		on time.Time) (LogEntry, error)
	AppendProgressionRecord(ctx context.Context, record ProgressionRecord) error
	LatestProgressionRating(ctx context.Context, userID, exerciseID int) (int, bool, error)
	CountLogsSince(ctx context.Context, userID int, since time.Time) (int, error)
	// LoggedAssignmentsOn returns the ids of the assignments logged on day.
	LoggedAssignmentsOn(ctx context.Context, userID int, day time.Time) (map[int64]bool, error)
	// LastTrained returns the latest log date of an exercise with the given body part.
	LastTrained(ctx context.Context, userID int, bodyPart string) (time.Time, bool, error)
	WeekSummaries(ctx context.Context, userID int, planID uuid.UUID) ([]WeekSummary, error)
}

// Store is the complete storage port.
type Store interface {
	ExerciseCatalog
	PlanStore
	HistoryStore
}
