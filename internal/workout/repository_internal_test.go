package workout

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/google/uuid"
	"github.com/myrjola/fitplanner/internal/sqlite"
	"github.com/myrjola/fitplanner/internal/testhelpers"
)

// repositoryNow stamps the audit timestamps written by test repositories.
//
//nolint:gochecknoglobals // fixed test clock.
var repositoryNow = time.Date(2025, time.March, 5, 12, 0, 0, 0, time.UTC)

func newTestRepository(t *testing.T) *repository {
	t.Helper()
	logger := testhelpers.NewLogger(testhelpers.NewWriter(t))
	db, err := sqlite.NewDatabase(t.Context(), ":memory:", logger)
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		if err = db.Close(); err != nil {
			t.Errorf("Failed to close database: %v", err)
		}
	})
	return newRepositoryFactory(db, logger, testhelpers.Clock(repositoryNow)).newRepository()
}

func exerciseIDs(exercises []Exercise) []int {
	ids := make([]int, 0, len(exercises))
	for _, e := range exercises {
		ids = append(ids, e.ID)
	}
	return ids
}

func Test_sqliteExerciseRepository(t *testing.T) {
	repo := newTestRepository(t)
	ctx := t.Context()

	t.Run("GetExercise", func(t *testing.T) {
		squat, err := repo.GetExercise(ctx, 1)
		if err != nil {
			t.Fatalf("GetExercise: %v", err)
		}
		want := Exercise{
			ID:        1,
			Title:     "Squat",
			Category:  CategoryCompound,
			BodyPart:  "Legs",
			FocusTags: "Legs, Lower Body, Lower Push, Full Body, Sport Specific, Legs/Core",
			Equipment: "Barbell",
			Level:     LevelIntermediate,
			Instructions: []string{
				"Brace your core and keep the bar over mid-foot.",
				"Sit down between your hips until thighs are parallel, then drive up.",
			},
		}
		if diff := cmp.Diff(want, squat); diff != "" {
			t.Errorf("GetExercise() mismatch (-want +got):\n%s", diff)
		}

		dip, err := repo.GetExercise(ctx, 13)
		if err != nil {
			t.Fatalf("GetExercise: %v", err)
		}
		if dip.Instructions != nil {
			t.Errorf("Instructions = %v, want nil", dip.Instructions)
		}

		if _, err = repo.GetExercise(ctx, 999); !errors.Is(err, ErrNotFound) {
			t.Errorf("GetExercise(999) error = %v, want ErrNotFound", err)
		}
	})

	tests := []struct {
		name  string
		query ExerciseQuery
		want  []int
	}{
		{
			name:  "keyword with equipment",
			query: ExerciseQuery{Category: CategoryCompound, Keywords: []string{"Push"}, Equipment: []string{"Barbell"}},
			want:  []int{1, 3, 4, 7, 10, 13, 16},
		},
		{
			name: "limitations are excluded ignoring case",
			query: ExerciseQuery{Category: CategoryCompound, Keywords: []string{"push"}, Equipment: []string{"Barbell"},
				ExcludeLimitations: []string{"shoulder", "Knee"}},
			want: []int{3, 7},
		},
		{
			name:  "body part is matched exactly",
			query: ExerciseQuery{BodyPart: "abs"},
			want:  []int{40, 41},
		},
		{
			name:  "either keyword matches",
			query: ExerciseQuery{Category: CategoryIsolation, Keywords: []string{"calves", "core"}},
			want:  []int{38, 39, 40, 41},
		},
		{
			name:  "curated focus tag",
			query: ExerciseQuery{Category: CategoryCardio, Keywords: []string{"full body + steady cardio"}},
			want:  []int{63, 64, 67},
		},
		{
			name:  "no match",
			query: ExerciseQuery{Category: CategoryMobility, Keywords: []string{"nonexistent"}},
			want:  []int{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.QueryExercises(ctx, tt.query)
			if err != nil {
				t.Fatalf("QueryExercises: %v", err)
			}
			if diff := cmp.Diff(tt.want, exerciseIDs(got)); diff != "" {
				t.Errorf("QueryExercises() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func Test_sqlitePlanRepository_roundTrip(t *testing.T) {
	repo := newTestRepository(t)
	ctx := t.Context()
	now := time.Date(2025, time.March, 3, 9, 30, 15, 0, time.UTC)
	g := NewGenerator(repo, testhelpers.NewLogger(testhelpers.NewWriter(t)), NewRand(7), testhelpers.Clock(now))

	plan, err := g.Generate(ctx, Preferences{
		Name:            "Hypertrophy",
		Goal:            GoalBodyBuilding,
		DurationWeeks:   4,
		WorkoutsPerWeek: 3,
		Level:           LevelIntermediate,
		Equipment:       []string{"Barbell", "Dumbbell", "Cable", "Machine"},
		Limitations:     []string{"Lower Back"},
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	id, err := repo.PersistPlan(ctx, plan)
	if err != nil {
		t.Fatalf("PersistPlan: %v", err)
	}
	if id != plan.ID {
		t.Errorf("PersistPlan id = %s, want %s", id, plan.ID)
	}
	stored, err := repo.GetPlan(ctx, id)
	if err != nil {
		t.Fatalf("GetPlan: %v", err)
	}
	opts := cmp.Options{cmpopts.IgnoreFields(Assignment{}, "ID"), cmpopts.EquateEmpty()}
	if diff := cmp.Diff(plan, stored, opts); diff != "" {
		t.Errorf("stored plan mismatch (-want +got):\n%s", diff)
	}

	seen := make(map[int64]bool)
	for _, w := range stored.Weeks {
		for _, d := range w.Workouts {
			for _, a := range d.Exercises {
				if a.ID == 0 || seen[a.ID] {
					t.Errorf("assignment id %d is not unique", a.ID)
				}
				seen[a.ID] = true
			}
		}
	}

	t.Run("ScheduledWorkouts", func(t *testing.T) {
		got, scheduledErr := repo.ScheduledWorkouts(ctx, id, 4, 2)
		if scheduledErr != nil {
			t.Fatalf("ScheduledWorkouts: %v", scheduledErr)
		}
		if diff := cmp.Diff(stored.Weeks[3].Workouts[1].Exercises, got, cmpopts.EquateEmpty()); diff != "" {
			t.Errorf("ScheduledWorkouts() mismatch (-want +got):\n%s", diff)
		}
		if none, _ := repo.ScheduledWorkouts(ctx, id, 5, 1); len(none) != 0 {
			t.Errorf("week beyond the plan has %d workouts", len(none))
		}
	})

	t.Run("ScheduledDays", func(t *testing.T) {
		got, daysErr := repo.ScheduledDays(ctx, id, 1)
		if daysErr != nil {
			t.Fatalf("ScheduledDays: %v", daysErr)
		}
		if diff := cmp.Diff([]int{1, 2, 3}, got); diff != "" {
			t.Errorf("ScheduledDays() mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("unknown plan", func(t *testing.T) {
		if _, getErr := repo.GetPlan(ctx, uuid.New()); !errors.Is(getErr, ErrNotFound) {
			t.Errorf("GetPlan error = %v, want ErrNotFound", getErr)
		}
		if setErr := repo.SetPlanActive(ctx, uuid.New(), false); !errors.Is(setErr, ErrNotFound) {
			t.Errorf("SetPlanActive error = %v, want ErrNotFound", setErr)
		}
	})
}

func Test_sqlitePlanRepository_ActivePlans(t *testing.T) {
	repo := newTestRepository(t)
	ctx := t.Context()
	created := time.Date(2025, time.March, 1, 8, 0, 0, 0, time.UTC)
	newPlan := func(name string, start string) Plan {
		return Plan{
			ID: uuid.New(), Name: name, Goal: GoalWeightLoss, Level: LevelBeginner, DurationWeeks: 1,
			WorkoutsPerWeek: 1, Active: true, StartDate: testhelpers.Date(t, start), CreatedAt: created,
			UpdatedAt: created,
		}
	}
	older, newer, archived := newPlan("Older", "2025-01-06"), newPlan("Newer", "2025-03-03"),
		newPlan("Archived", "2025-03-10")
	for _, p := range []Plan{older, newer, archived} {
		if _, err := repo.PersistPlan(ctx, p); err != nil {
			t.Fatalf("PersistPlan: %v", err)
		}
	}
	if err := repo.SetPlanActive(ctx, archived.ID, false); err != nil {
		t.Fatalf("SetPlanActive: %v", err)
	}
	if err := repo.UpdatePlanGoal(ctx, older.ID, GoalMobilityExclusive); err != nil {
		t.Fatalf("UpdatePlanGoal: %v", err)
	}

	plans, err := repo.ActivePlans(ctx)
	if err != nil {
		t.Fatalf("ActivePlans: %v", err)
	}
	var names []string
	for _, p := range plans {
		names = append(names, p.Name)
		if p.Weeks != nil {
			t.Errorf("plan %q listed with weeks", p.Name)
		}
	}
	if diff := cmp.Diff([]string{"Newer", "Older"}, names); diff != "" {
		t.Errorf("ActivePlans() mismatch (-want +got):\n%s", diff)
	}
	if plans[1].Goal != GoalMobilityExclusive {
		t.Errorf("Goal = %q, want updated goal", plans[1].Goal)
	}
	if !plans[1].UpdatedAt.Equal(repositoryNow) {
		t.Errorf("UpdatedAt = %v, want the repository clock %v", plans[1].UpdatedAt, repositoryNow)
	}
}

func Test_sqliteHistoryRepository(t *testing.T) {
	repo := newTestRepository(t)
	ctx := t.Context()

	exercise := func(id int) Exercise {
		e, err := repo.GetExercise(ctx, id)
		if err != nil {
			t.Fatalf("GetExercise: %v", err)
		}
		return e
	}
	assignment := func(id int) Assignment {
		return Assignment{Exercise: exercise(id), Sets: 3, Reps: repRange(8, 12), Rest: "2-3 minutes", Tempo: "3-1-2"}
	}
	plan := Plan{
		ID: uuid.New(), Name: "History", Goal: GoalBodyBuilding, Level: LevelBeginner, DurationWeeks: 2,
		WorkoutsPerWeek: 2, Active: true, StartDate: testhelpers.Date(t, "2025-03-03"),
		Weeks: []WeeklyPlan{
			{Week: 1, Workouts: []DayWorkout{
				{Day: 1, Focus: "Push", Exercises: []Assignment{assignment(1), assignment(3)}},
				{Day: 3, Focus: "Arms", Exercises: []Assignment{assignment(30)}},
			}},
			{Week: 2, IsDeload: true, Workouts: []DayWorkout{
				{Day: 1, Focus: "Push", Exercises: []Assignment{assignment(1)}},
				{Day: 3, Focus: "Rest"},
			}},
		},
	}
	if _, err := repo.PersistPlan(ctx, plan); err != nil {
		t.Fatalf("PersistPlan: %v", err)
	}
	stored, err := repo.GetPlan(ctx, plan.ID)
	if err != nil {
		t.Fatalf("GetPlan: %v", err)
	}
	squat := stored.Weeks[0].Workouts[0].Exercises[0]
	bench := stored.Weeks[0].Workouts[0].Exercises[1]
	curl := stored.Weeks[0].Workouts[1].Exercises[0]
	monday, wednesday := testhelpers.Date(t, "2025-03-03"), testhelpers.Date(t, "2025-03-05")

	entry, err := repo.AppendWorkoutLog(ctx, 1, squat.ID, 3, 10, 100, monday)
	if err != nil {
		t.Fatalf("AppendWorkoutLog: %v", err)
	}
	want := LogEntry{
		ID: entry.ID, AssignmentID: squat.ID, ExerciseID: 1, Date: monday, Sets: 3, Reps: 10, Weight: 100,
		TargetSets: 3, TargetReps: repRange(8, 12), Week: 1, Day: 1,
	}
	if diff := cmp.Diff(want, entry); diff != "" {
		t.Errorf("AppendWorkoutLog() mismatch (-want +got):\n%s", diff)
	}
	var loggedAt string
	if err = repo.sqliteHistoryRepository.db.ReadOnly.QueryRowContext(ctx,
		"SELECT logged_at FROM workout_logs WHERE id = ?", entry.ID).Scan(&loggedAt); err != nil {
		t.Fatalf("Failed to read logged_at: %v", err)
	}
	if want := formatTimestamp(repositoryNow); loggedAt != want {
		t.Errorf("logged_at = %q, want %q", loggedAt, want)
	}
	for _, l := range []struct {
		userID     int
		assignment Assignment
		weight     float64
		on         time.Time
	}{
		{1, bench, 0, monday},
		{1, curl, 20, wednesday},
		{2, squat, 140, wednesday},
	} {
		if _, err = repo.AppendWorkoutLog(ctx, l.userID, l.assignment.ID, 3, 10, l.weight, l.on); err != nil {
			t.Fatalf("AppendWorkoutLog: %v", err)
		}
	}
	if _, err = repo.AppendWorkoutLog(ctx, 1, 99999, 3, 10, 20, monday); !errors.Is(err, ErrNotFound) {
		t.Errorf("AppendWorkoutLog unknown assignment error = %v, want ErrNotFound", err)
	}

	t.Run("WorkoutLogs", func(t *testing.T) {
		logs, logsErr := repo.WorkoutLogs(ctx, 1, 1, monday)
		if logsErr != nil {
			t.Fatalf("WorkoutLogs: %v", logsErr)
		}
		if diff := cmp.Diff([]LogEntry{want}, logs); diff != "" {
			t.Errorf("WorkoutLogs() mismatch (-want +got):\n%s", diff)
		}
		if later, _ := repo.WorkoutLogs(ctx, 1, 1, wednesday); len(later) != 0 {
			t.Errorf("got %d logs since wednesday, want none", len(later))
		}
	})

	t.Run("logs are append-only", func(t *testing.T) {
		db := repo.sqliteHistoryRepository.db
		if _, updateErr := db.ReadWrite.ExecContext(ctx, `UPDATE workout_logs SET weight = 1`); updateErr == nil {
			t.Error("updating a workout log succeeded")
		}
	})

	t.Run("CountLogsSince", func(t *testing.T) {
		count, countErr := repo.CountLogsSince(ctx, 1, monday)
		if countErr != nil {
			t.Fatalf("CountLogsSince: %v", countErr)
		}
		if count != 3 {
			t.Errorf("CountLogsSince() = %d, want 3", count)
		}
	})

	t.Run("LoggedAssignmentsOn", func(t *testing.T) {
		logged, loggedErr := repo.LoggedAssignmentsOn(ctx, 1, monday)
		if loggedErr != nil {
			t.Fatalf("LoggedAssignmentsOn: %v", loggedErr)
		}
		if diff := cmp.Diff(map[int64]bool{squat.ID: true, bench.ID: true}, logged); diff != "" {
			t.Errorf("LoggedAssignmentsOn() mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("LastTrained", func(t *testing.T) {
		last, ok, lastErr := repo.LastTrained(ctx, 1, "arms")
		if lastErr != nil || !ok || !last.Equal(wednesday) {
			t.Errorf("LastTrained(arms) = %v, %v, %v; want %v", last, ok, lastErr, wednesday)
		}
		if _, ok, lastErr = repo.LastTrained(ctx, 1, "Calves"); lastErr != nil || ok {
			t.Errorf("LastTrained(Calves) = %v, %v; want not trained", ok, lastErr)
		}
	})

	t.Run("progression records", func(t *testing.T) {
		if _, ok, ratingErr := repo.LatestProgressionRating(ctx, 1, 1); ratingErr != nil || ok {
			t.Fatalf("LatestProgressionRating before analysis = %v, %v", ok, ratingErr)
		}
		for _, r := range []ProgressionRecord{
			{UserID: 1, ExerciseID: 1, Date: monday, OneRepMax: 120, Volume: 3000, Rating: 4},
			{UserID: 1, ExerciseID: 1, Date: wednesday, OneRepMax: 118, Volume: 2800, Rating: -1},
			{UserID: 1, ExerciseID: 1, Date: wednesday, OneRepMax: 118, Volume: 2800, Rating: -3},
		} {
			if appendErr := repo.AppendProgressionRecord(ctx, r); appendErr != nil {
				t.Fatalf("AppendProgressionRecord: %v", appendErr)
			}
		}
		rating, ok, ratingErr := repo.LatestProgressionRating(ctx, 1, 1)
		if ratingErr != nil || !ok || rating != -3 {
			t.Errorf("LatestProgressionRating() = %d, %v, %v; want -3", rating, ok, ratingErr)
		}
	})

	t.Run("WeekSummaries", func(t *testing.T) {
		got, summaryErr := repo.WeekSummaries(ctx, 1, plan.ID)
		if summaryErr != nil {
			t.Fatalf("WeekSummaries: %v", summaryErr)
		}
		want := []WeekSummary{
			{Week: 1, ScheduledExercises: 3, CompletedExercises: 3, AverageWeight: 60, DaysWorked: 2},
			{Week: 2, ScheduledExercises: 1},
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("WeekSummaries() mismatch (-want +got):\n%s", diff)
		}
	})
}
