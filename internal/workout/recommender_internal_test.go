package workout

import (
	"slices"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/myrjola/fitplanner/internal/testhelpers"
)

// 2025-03-03 is a Monday.
func recommenderPlan(t *testing.T, goal Goal) Plan {
	t.Helper()
	day := func(weekday int, focus string, ids ...int) DayWorkout {
		d := DayWorkout{Day: weekday, Focus: focus}
		for _, id := range ids {
			d.Exercises = append(d.Exercises, Assignment{Exercise: exerciseByID(t, id), Sets: 3, Reps: repRange(8, 12)})
		}
		return d
	}
	week := func(n int) WeeklyPlan {
		return WeeklyPlan{Week: n, Workouts: []DayWorkout{
			day(1, "Push", 3, 31),
			day(2, "Pull", 2, 30),
			day(3, "Legs", 1, 33),
		}}
	}
	return Plan{
		ID:              uuid.New(),
		Name:            "PPL",
		Goal:            goal,
		Level:           LevelBeginner,
		DurationWeeks:   2,
		WorkoutsPerWeek: 3,
		Weeks:           []WeeklyPlan{week(1), week(2)},
		Active:          true,
		StartDate:       testhelpers.Date(t, "2025-03-03"),
		CreatedAt:       time.Date(2025, time.March, 3, 8, 0, 0, 0, time.UTC),
	}
}

func newTestRecommender(t *testing.T, store *fakeStore, now time.Time) *Recommender {
	t.Helper()
	return NewRecommender(store, testhelpers.NewLogger(testhelpers.NewWriter(t)), NewRand(1), testhelpers.Clock(now))
}

func persistPlan(t *testing.T, store *fakeStore, plan Plan) Plan {
	t.Helper()
	id, err := store.PersistPlan(t.Context(), plan)
	if err != nil {
		t.Fatalf("PersistPlan: %v", err)
	}
	stored, err := store.GetPlan(t.Context(), id)
	if err != nil {
		t.Fatalf("GetPlan: %v", err)
	}
	return stored
}

func logAssignment(t *testing.T, store *fakeStore, a Assignment, on time.Time) {
	t.Helper()
	if _, err := store.AppendWorkoutLog(t.Context(), 1, a.ID, 3, 10, 50, on); err != nil {
		t.Fatalf("AppendWorkoutLog: %v", err)
	}
}

func TestRecommender_Today(t *testing.T) {
	wednesday := time.Date(2025, time.March, 5, 17, 0, 0, 0, time.UTC)
	thursday := time.Date(2025, time.March, 6, 17, 0, 0, 0, time.UTC)

	t.Run("no active plan", func(t *testing.T) {
		got, err := newTestRecommender(t, newFakeStore(testCatalog()...), wednesday).Today(t.Context(), 1, nil)
		if err != nil {
			t.Fatalf("Today: %v", err)
		}
		if diff := cmp.Diff(defaultSuggestion(), got); diff != "" {
			t.Errorf("Today() mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("unknown explicit plan", func(t *testing.T) {
		store := newFakeStore(testCatalog()...)
		persistPlan(t, store, recommenderPlan(t, GoalBodyBuilding))
		id := uuid.New()
		got, err := newTestRecommender(t, store, wednesday).Today(t.Context(), 1, &id)
		if err != nil {
			t.Fatalf("Today: %v", err)
		}
		if got.Type != SuggestionDefault {
			t.Errorf("Type = %q, want default", got.Type)
		}
	})

	t.Run("scheduled workout with adjustments", func(t *testing.T) {
		store := newFakeStore(testCatalog()...)
		plan := persistPlan(t, store, recommenderPlan(t, GoalBodyBuilding))
		legs := plan.Weeks[0].Workouts[2].Exercises
		store.records = []ProgressionRecord{
			{UserID: 1, ExerciseID: 33, Rating: 4},
			{UserID: 1, ExerciseID: 1, Rating: 5},
			{UserID: 1, ExerciseID: 1, Rating: -3},
			{UserID: 2, ExerciseID: 33, Rating: -5},
		}
		store.addLog(1, exerciseByID(t, 30), LogEntry{Date: testhelpers.Date(t, "2025-03-03")})

		got, err := newTestRecommender(t, store, wednesday).Today(t.Context(), 1, nil)
		if err != nil {
			t.Fatalf("Today: %v", err)
		}
		want := Suggestion{
			Type:     SuggestionScheduled,
			Message:  "Here's your workout for today:",
			PlanID:   &plan.ID,
			Week:     1,
			Workouts: legs,
			Adjustments: []string{
				"Try different rep range for Squat today (e.g., 5x5 instead of 3x10)",
				"Increase weight for Leg Extension by 5-10% today",
			},
			Recovery: []RecoveryStatus{
				{BodyPart: "Chest", Status: "Ready"},
				{BodyPart: "Back", Status: "Ready"},
				{BodyPart: "Legs", Status: "Ready"},
				{BodyPart: "Shoulders", Status: "Ready"},
				{BodyPart: "Arms", Status: "2 days"},
				{BodyPart: "Core", Status: "Ready"},
			},
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("Today() mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("logged workouts are left out", func(t *testing.T) {
		store := newFakeStore(testCatalog()...)
		plan := persistPlan(t, store, recommenderPlan(t, GoalBodyBuilding))
		legs := plan.Weeks[0].Workouts[2].Exercises
		logAssignment(t, store, legs[0], wednesday)

		got, err := newTestRecommender(t, store, wednesday).Today(t.Context(), 1, nil)
		if err != nil {
			t.Fatalf("Today: %v", err)
		}
		if diff := cmp.Diff(legs[1:], got.Workouts); diff != "" {
			t.Errorf("remaining workouts mismatch (-want +got):\n%s", diff)
		}
		if i := slices.IndexFunc(got.Recovery, func(r RecoveryStatus) bool { return r.BodyPart == "Legs" }); i < 0 ||
			got.Recovery[i].Status != "0 days" {
			t.Errorf("legs recovery = %+v", got.Recovery)
		}
	})

	t.Run("completed body building day offers specialization", func(t *testing.T) {
		store := newFakeStore(testCatalog()...)
		plan := persistPlan(t, store, recommenderPlan(t, GoalBodyBuilding))
		for _, a := range plan.Weeks[0].Workouts[2].Exercises {
			logAssignment(t, store, a, wednesday)
		}
		// Arms were trained yesterday, shoulders never.
		store.addLog(1, exerciseByID(t, 30), LogEntry{Date: testhelpers.Date(t, "2025-03-04")})

		got, err := newTestRecommender(t, store, wednesday).Today(t.Context(), 1, nil)
		if err != nil {
			t.Fatalf("Today: %v", err)
		}
		if got.Type != SuggestionCompleted {
			t.Fatalf("Type = %q, want completed", got.Type)
		}
		if got.Workout == nil || got.Workout.Title != "Shoulders Specialization" {
			t.Fatalf("Workout = %+v, want shoulders specialization", got.Workout)
		}
		var titles []string
		for _, e := range got.Workout.Exercises {
			titles = append(titles, e.Title)
		}
		slices.Sort(titles)
		want := []string{"Face Pull", "Lateral Raise", "Overhead Press", "Shoulder Dislocates"}
		if diff := cmp.Diff(want, titles); diff != "" {
			t.Errorf("bonus exercises mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("completed weight loss day offers calorie burner", func(t *testing.T) {
		store := newFakeStore(testCatalog()...)
		plan := persistPlan(t, store, recommenderPlan(t, GoalWeightLoss))
		for _, a := range plan.Weeks[0].Workouts[2].Exercises {
			logAssignment(t, store, a, wednesday)
		}
		got, err := newTestRecommender(t, store, wednesday).Today(t.Context(), 1, &plan.ID)
		if err != nil {
			t.Fatalf("Today: %v", err)
		}
		if diff := cmp.Diff(&calorieBurner, got.Workout); diff != "" {
			t.Errorf("bonus workout mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("unscheduled day borrows another day", func(t *testing.T) {
		store := newFakeStore(testCatalog()...)
		plan := persistPlan(t, store, recommenderPlan(t, GoalBodyBuilding))
		got, err := newTestRecommender(t, store, thursday).Today(t.Context(), 1, nil)
		if err != nil {
			t.Fatalf("Today: %v", err)
		}
		if got.Type != SuggestionAlternative {
			t.Fatalf("Type = %q, want alternative", got.Type)
		}
		i := slices.IndexFunc(plan.Weeks[0].Workouts, func(d DayWorkout) bool { return weekdayName(d.Day) == got.Day })
		if i < 0 {
			t.Fatalf("alternative day %q is not scheduled", got.Day)
		}
		if diff := cmp.Diff(plan.Weeks[0].Workouts[i].Exercises, got.Workouts); diff != "" {
			t.Errorf("alternative workouts mismatch (-want +got):\n%s", diff)
		}
		if want := "No workout scheduled for today. Here's your " + got.Day + " workout instead:"; got.Message != want {
			t.Errorf("Message = %q, want %q", got.Message, want)
		}
	})

	t.Run("heavy recent training suggests recovery", func(t *testing.T) {
		store := newFakeStore(testCatalog()...)
		persistPlan(t, store, recommenderPlan(t, GoalBodyBuilding))
		for range 6 {
			store.addLog(1, exerciseByID(t, 1), LogEntry{Date: testhelpers.Date(t, "2025-03-04")})
		}
		got, err := newTestRecommender(t, store, thursday).Today(t.Context(), 1, nil)
		if err != nil {
			t.Fatalf("Today: %v", err)
		}
		if got.Type != SuggestionRecovery {
			t.Fatalf("Type = %q, want recovery", got.Type)
		}
		if !slices.ContainsFunc(recoveryWorkouts, func(w GuidedWorkout) bool { return cmp.Equal(&w, got.Workout) }) {
			t.Errorf("Workout %+v is not a recovery template", got.Workout)
		}
	})

	t.Run("recovery threshold", func(t *testing.T) {
		tests := []struct {
			logs int
			want SuggestionType
		}{
			{logs: 5, want: SuggestionAlternative},
			{logs: 6, want: SuggestionRecovery},
		}
		for _, tt := range tests {
			store := newFakeStore(testCatalog()...)
			persistPlan(t, store, recommenderPlan(t, GoalBodyBuilding))
			for range tt.logs {
				store.addLog(1, exerciseByID(t, 1), LogEntry{Date: testhelpers.Date(t, "2025-03-03")})
			}
			got, err := newTestRecommender(t, store, thursday).Today(t.Context(), 1, nil)
			if err != nil {
				t.Fatalf("Today: %v", err)
			}
			if got.Type != tt.want {
				t.Errorf("%d logs in the window: Type = %q, want %q", tt.logs, got.Type, tt.want)
			}
		}
	})

	t.Run("plan starting in the future", func(t *testing.T) {
		store := newFakeStore(testCatalog()...)
		plan := recommenderPlan(t, GoalBodyBuilding)
		plan.StartDate = testhelpers.Date(t, "2025-03-10")
		persistPlan(t, store, plan)
		got, err := newTestRecommender(t, store, wednesday).Today(t.Context(), 1, nil)
		if err != nil {
			t.Fatalf("Today: %v", err)
		}
		if diff := cmp.Diff(defaultSuggestion(), got); diff != "" {
			t.Errorf("Today() mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("week is derived from the start date", func(t *testing.T) {
		store := newFakeStore(testCatalog()...)
		plan := persistPlan(t, store, recommenderPlan(t, GoalBodyBuilding))
		got, err := newTestRecommender(t, store, wednesday.AddDate(0, 0, 7)).Today(t.Context(), 1, nil)
		if err != nil {
			t.Fatalf("Today: %v", err)
		}
		if got.Week != 2 {
			t.Errorf("Week = %d, want 2", got.Week)
		}
		if diff := cmp.Diff(plan.Weeks[1].Workouts[2].Exercises, got.Workouts); diff != "" {
			t.Errorf("week 2 workouts mismatch (-want +got):\n%s", diff)
		}
	})
}

func TestSuggestNextSession(t *testing.T) {
	tests := []struct {
		name    string
		history []LogEntry
		want    NextSession
	}{
		{
			name:    "no history",
			history: nil,
			want: NextSession{Sets: 3, Reps: repRange(8, 12), Weight: 0,
				Notes: "Start with a weight you can handle for all sets"},
		},
		{
			name: "all sets completed",
			history: []LogEntry{
				{Sets: 2, Reps: 8, Weight: 40, TargetSets: 3, TargetReps: repRange(8, 12)},
				{Sets: 3, Reps: 10, Weight: 50, TargetSets: 3, TargetReps: repRange(8, 12)},
			},
			want: NextSession{Sets: 3, Reps: repRange(10, 10), Weight: 52.5,
				Notes: "Increase weight by 5% from last session"},
		},
		{
			name: "sets missed",
			history: []LogEntry{
				{Sets: 2, Reps: 8, Weight: 62.5, TargetSets: 4, TargetReps: repRange(6, 8)},
			},
			want: NextSession{Sets: 4, Reps: repRange(6, 8), Weight: 62.5,
				Notes: "Maintain current weight and focus on form"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, SuggestNextSession(tt.history)); diff != "" {
				t.Errorf("SuggestNextSession() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
