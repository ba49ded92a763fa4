package workout

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/myrjola/fitplanner/internal/contexthelpers"
	"github.com/myrjola/fitplanner/internal/sqlite"
)

// ServiceConfig tunes a Service. The zero value is usable.
type ServiceConfig struct {
	// Seed seeds plan generation and recommendations. Zero seeds from the current time.
	Seed uint64
	// WindowDays is the default analysis lookback. Zero or less means 90 days.
	WindowDays int
	// Now returns the current time. Nil means time.Now.
	Now func() time.Time
}

// Service ties plan generation, progress analysis and daily recommendations to the store. The acting user is
// read from the request context.
type Service struct {
	store       Store
	generator   *Generator
	analyzer    *Analyzer
	recommender *Recommender
	logger      *slog.Logger
	now         func() time.Time
}

// NewService creates a new workout service backed by db.
func NewService(db *sqlite.Database, logger *slog.Logger, cfg ServiceConfig) *Service {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return newService(newRepositoryFactory(db, logger, cfg.Now).newRepository(), logger, cfg)
}

func newService(store Store, logger *slog.Logger, cfg ServiceConfig) *Service {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	// Each component gets its own source since they lock separately.
	return &Service{
		store:       store,
		generator:   NewGenerator(store, logger, NewRand(cfg.Seed), now),
		analyzer:    NewAnalyzer(store, store, logger, now, cfg.WindowDays),
		recommender: NewRecommender(store, logger, NewRand(cfg.Seed), now),
		logger:      logger,
		now:         now,
	}
}

// CreatePlan generates a plan from prefs, persists it and returns the stored plan.
func (s *Service) CreatePlan(ctx context.Context, prefs Preferences) (Plan, error) {
	plan, err := s.generator.Generate(ctx, prefs)
	if err != nil {
		return Plan{}, fmt.Errorf("generate plan: %w", err)
	}
	id, err := s.store.PersistPlan(ctx, plan)
	if err != nil {
		return Plan{}, fmt.Errorf("persist plan: %w", err)
	}
	stored, err := s.store.GetPlan(ctx, id)
	if err != nil {
		return Plan{}, fmt.Errorf("get persisted plan: %w", err)
	}
	s.logger.LogAttrs(ctx, slog.LevelInfo, "created plan",
		slog.String("plan_id", id.String()),
		slog.String("goal", string(stored.Goal)),
		slog.Int("weeks", len(stored.Weeks)))
	return stored, nil
}

// GetPlan returns a stored plan.
func (s *Service) GetPlan(ctx context.Context, id uuid.UUID) (Plan, error) {
	plan, err := s.store.GetPlan(ctx, id)
	if err != nil {
		return Plan{}, fmt.Errorf("get plan: %w", err)
	}
	return plan, nil
}

// ActivePlans lists the active plans without their weeks, most recent first.
func (s *Service) ActivePlans(ctx context.Context) ([]Plan, error) {
	plans, err := s.store.ActivePlans(ctx)
	if err != nil {
		return nil, fmt.Errorf("get active plans: %w", err)
	}
	return plans, nil
}

// QueryExercises searches the exercise catalog.
func (s *Service) QueryExercises(ctx context.Context, q ExerciseQuery) ([]Exercise, error) {
	exercises, err := s.store.QueryExercises(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query exercises: %w", err)
	}
	return exercises, nil
}

// GetExercise returns a catalog exercise.
func (s *Service) GetExercise(ctx context.Context, id int) (Exercise, error) {
	exercise, err := s.store.GetExercise(ctx, id)
	if err != nil {
		return Exercise{}, fmt.Errorf("get exercise: %w", err)
	}
	return exercise, nil
}

// PlanSummary reports the logging progress of every week of a plan.
func (s *Service) PlanSummary(ctx context.Context, planID uuid.UUID) ([]WeekSummary, error) {
	if _, err := s.store.GetPlan(ctx, planID); err != nil {
		return nil, fmt.Errorf("get plan: %w", err)
	}
	summaries, err := s.store.WeekSummaries(ctx, contexthelpers.AuthenticatedUserID(ctx), planID)
	if err != nil {
		return nil, fmt.Errorf("get week summaries: %w", err)
	}
	for i, w := range summaries {
		if w.ScheduledExercises > 0 {
			pct := float64(w.CompletedExercises) / float64(w.ScheduledExercises) * 100 //nolint:mnd // percent.
			summaries[i].ProgressPercent = math.Round(pct*10) / 10                     //nolint:mnd // one decimal.
		}
	}
	return summaries, nil
}

// ExportPlanHTML renders a printable HTML overview of a plan.
func (s *Service) ExportPlanHTML(ctx context.Context, planID uuid.UUID) ([]byte, error) {
	plan, err := s.store.GetPlan(ctx, planID)
	if err != nil {
		return nil, fmt.Errorf("get plan: %w", err)
	}
	html, err := RenderPlanHTML(plan)
	if err != nil {
		return nil, fmt.Errorf("render plan: %w", err)
	}
	return html, nil
}

// AnalyzeExercise analyses the acting user's progress on an exercise.
func (s *Service) AnalyzeExercise(ctx context.Context, exerciseID, windowDays int) (Analysis, error) {
	if _, err := s.store.GetExercise(ctx, exerciseID); err != nil {
		return Analysis{}, fmt.Errorf("get exercise: %w", err)
	}
	analysis, err := s.analyzer.AnalyzeExercise(ctx, contexthelpers.AuthenticatedUserID(ctx), exerciseID, windowDays)
	if err != nil {
		return Analysis{}, fmt.Errorf("analyze exercise: %w", err)
	}
	return analysis, nil
}

// PlanReport analyses every exercise of a plan for the acting user.
func (s *Service) PlanReport(ctx context.Context, planID uuid.UUID) (PlanReport, error) {
	report, err := s.analyzer.PlanReport(ctx, contexthelpers.AuthenticatedUserID(ctx), planID)
	if err != nil {
		return PlanReport{}, fmt.Errorf("plan report: %w", err)
	}
	return report, nil
}

// NextSession suggests the load of the next session of an exercise from the analysis window's history.
func (s *Service) NextSession(ctx context.Context, exerciseID int) (NextSession, error) {
	if _, err := s.store.GetExercise(ctx, exerciseID); err != nil {
		return NextSession{}, fmt.Errorf("get exercise: %w", err)
	}
	since := dateOf(s.now()).AddDate(0, 0, -s.analyzer.windowDays)
	history, err := s.store.WorkoutLogs(ctx, contexthelpers.AuthenticatedUserID(ctx), exerciseID, since)
	if err != nil {
		return NextSession{}, fmt.Errorf("get workout logs: %w", err)
	}
	return SuggestNextSession(history), nil
}

// Today recommends what the acting user should train today.
func (s *Service) Today(ctx context.Context, planID *uuid.UUID) (Suggestion, error) {
	suggestion, err := s.recommender.Today(ctx, contexthelpers.AuthenticatedUserID(ctx), planID)
	if err != nil {
		return Suggestion{}, fmt.Errorf("recommend workout: %w", err)
	}
	return suggestion, nil
}

// LogWorkout appends a performance of a scheduled assignment dated today.
func (s *Service) LogWorkout(ctx context.Context, assignmentID int64, sets, reps int, weight float64) (LogEntry, error) {
	var fields []string
	if sets < 1 {
		fields = append(fields, "sets")
	}
	if reps < 1 {
		fields = append(fields, "reps")
	}
	if weight < 0 || math.IsNaN(weight) || math.IsInf(weight, 0) {
		fields = append(fields, "weight")
	}
	if len(fields) > 0 {
		return LogEntry{}, &ValidationError{Fields: fields}
	}
	entry, err := s.store.AppendWorkoutLog(ctx, contexthelpers.AuthenticatedUserID(ctx), assignmentID, sets, reps,
		weight, dateOf(s.now()))
	if err != nil {
		return LogEntry{}, fmt.Errorf("append workout log: %w", err)
	}
	s.logger.LogAttrs(ctx, slog.LevelInfo, "logged workout",
		slog.Int64("assignment_id", assignmentID),
		slog.Int("exercise_id", entry.ExerciseID))
	return entry, nil
}

// SetPlanActive activates or archives a plan.
func (s *Service) SetPlanActive(ctx context.Context, planID uuid.UUID, active bool) error {
	if err := s.store.SetPlanActive(ctx, planID, active); err != nil {
		return fmt.Errorf("set plan active: %w", err)
	}
	return nil
}

// UpdatePlanGoal changes the goal of a plan. The schedule is left as generated.
func (s *Service) UpdatePlanGoal(ctx context.Context, planID uuid.UUID, goal Goal) error {
	if !goal.valid() {
		return &ValidationError{Fields: []string{"goal"}}
	}
	if err := s.store.UpdatePlanGoal(ctx, planID, goal); err != nil {
		return fmt.Errorf("update plan goal: %w", err)
	}
	return nil
}

