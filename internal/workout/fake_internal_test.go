package workout

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/myrjola/fitplanner/internal/testhelpers"
)

type fakeLog struct {
	userID   int
	bodyPart string
	entry    LogEntry
}

// fakeStore is an in-memory Store with the same matching rules as the SQLite repository.
type fakeStore struct {
	mu                sync.Mutex
	exercises         []Exercise
	contraindications map[int][]string
	plans             map[uuid.UUID]Plan
	logs              []fakeLog
	records           []ProgressionRecord
	nextID            int64
}

var _ Store = (*fakeStore)(nil)

func newFakeStore(exercises ...Exercise) *fakeStore {
	return &fakeStore{
		exercises:         exercises,
		contraindications: make(map[int][]string),
		plans:             make(map[uuid.UUID]Plan),
	}
}

func (s *fakeStore) QueryExercises(_ context.Context, q ExerciseQuery) ([]Exercise, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var matches []Exercise
	for _, e := range s.exercises {
		if q.Category != "" && e.Category != q.Category {
			continue
		}
		if q.BodyPart != "" && !strings.EqualFold(e.BodyPart, q.BodyPart) {
			continue
		}
		if len(q.Keywords) > 0 && !slices.ContainsFunc(q.Keywords, func(k string) bool {
			k = strings.ToLower(k)
			return strings.Contains(strings.ToLower(e.BodyPart), k) ||
				strings.Contains(strings.ToLower(e.Title), k) ||
				strings.Contains(strings.ToLower(e.FocusTags), k)
		}) {
			continue
		}
		if len(q.Equipment) > 0 && e.Equipment != "Body Only" && !slices.Contains(q.Equipment, e.Equipment) {
			continue
		}
		if slices.ContainsFunc(s.contraindications[e.ID], func(l string) bool {
			return slices.ContainsFunc(q.ExcludeLimitations, func(x string) bool { return strings.EqualFold(l, x) })
		}) {
			continue
		}
		e.Instructions = slices.Clone(e.Instructions)
		matches = append(matches, e)
	}
	return matches, nil
}

func (s *fakeStore) GetExercise(_ context.Context, id int) (Exercise, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.exercises {
		if e.ID == id {
			return e, nil
		}
	}
	return Exercise{}, fmt.Errorf("exercise %d: %w", id, ErrNotFound)
}

func (s *fakeStore) PersistPlan(_ context.Context, plan Plan) (uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	plan = plan.Clone()
	for i := range plan.Weeks {
		for j := range plan.Weeks[i].Workouts {
			for k := range plan.Weeks[i].Workouts[j].Exercises {
				s.nextID++
				plan.Weeks[i].Workouts[j].Exercises[k].ID = s.nextID
			}
		}
	}
	s.plans[plan.ID] = plan
	return plan.ID, nil
}

func (s *fakeStore) GetPlan(_ context.Context, id uuid.UUID) (Plan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	plan, ok := s.plans[id]
	if !ok {
		return Plan{}, fmt.Errorf("plan %s: %w", id, ErrNotFound)
	}
	return plan.Clone(), nil
}

func (s *fakeStore) ActivePlans(_ context.Context) ([]Plan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var plans []Plan
	for _, p := range s.plans {
		if p.Active {
			p = p.Clone()
			p.Weeks = nil
			plans = append(plans, p)
		}
	}
	slices.SortFunc(plans, func(a, b Plan) int {
		return cmp.Or(b.StartDate.Compare(a.StartDate), b.CreatedAt.Compare(a.CreatedAt))
	})
	return plans, nil
}

func (s *fakeStore) day(planID uuid.UUID, week, day int) (DayWorkout, bool) {
	plan, ok := s.plans[planID]
	if !ok || week < 1 || week > len(plan.Weeks) {
		return DayWorkout{}, false
	}
	for _, d := range plan.Weeks[week-1].Workouts {
		if d.Day == day {
			return d, true
		}
	}
	return DayWorkout{}, false
}

func (s *fakeStore) ScheduledWorkouts(_ context.Context, planID uuid.UUID, week, day int) ([]Assignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, _ := s.day(planID, week, day)
	return cloneAssignments(d.Exercises), nil
}

func (s *fakeStore) ScheduledDays(_ context.Context, planID uuid.UUID, week int) ([]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var days []int
	for day := 1; day <= 7; day++ {
		if d, ok := s.day(planID, week, day); ok && len(d.Exercises) > 0 {
			days = append(days, day)
		}
	}
	return days, nil
}

func (s *fakeStore) SetPlanActive(_ context.Context, planID uuid.UUID, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	plan, ok := s.plans[planID]
	if !ok {
		return fmt.Errorf("plan %s: %w", planID, ErrNotFound)
	}
	plan.Active = active
	s.plans[planID] = plan
	return nil
}

func (s *fakeStore) UpdatePlanGoal(_ context.Context, planID uuid.UUID, goal Goal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	plan, ok := s.plans[planID]
	if !ok {
		return fmt.Errorf("plan %s: %w", planID, ErrNotFound)
	}
	plan.Goal = goal
	s.plans[planID] = plan
	return nil
}

func (s *fakeStore) WorkoutLogs(_ context.Context, userID, exerciseID int, since time.Time) ([]LogEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var logs []LogEntry
	for _, l := range s.logs {
		if l.userID == userID && l.entry.ExerciseID == exerciseID && !l.entry.Date.Before(dateOf(since)) {
			logs = append(logs, l.entry)
		}
	}
	slices.SortStableFunc(logs, func(a, b LogEntry) int {
		return cmp.Or(a.Date.Compare(b.Date), cmp.Compare(a.ID, b.ID))
	})
	return logs, nil
}

func (s *fakeStore) AppendWorkoutLog(
	_ context.Context,
	userID int,
	assignmentID int64,
	sets, reps int,
	weight float64,
	on time.Time,
) (LogEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, plan := range s.plans {
		for _, w := range plan.Weeks {
			for _, d := range w.Workouts {
				for _, a := range d.Exercises {
					if a.ID != assignmentID {
						continue
					}
					s.nextID++
					entry := LogEntry{
						ID:           s.nextID,
						AssignmentID: assignmentID,
						ExerciseID:   a.Exercise.ID,
						Date:         dateOf(on),
						Sets:         sets,
						Reps:         reps,
						Weight:       weight,
						TargetSets:   a.Sets,
						TargetReps:   a.Reps,
						Week:         w.Week,
						Day:          d.Day,
					}
					s.logs = append(s.logs, fakeLog{userID: userID, bodyPart: a.Exercise.BodyPart, entry: entry})
					return entry, nil
				}
			}
		}
	}
	return LogEntry{}, fmt.Errorf("assignment %d: %w", assignmentID, ErrNotFound)
}

// addLog appends a log that is not tied to a stored plan.
func (s *fakeStore) addLog(userID int, e Exercise, entry LogEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	entry.ID = s.nextID
	entry.ExerciseID = e.ID
	s.logs = append(s.logs, fakeLog{userID: userID, bodyPart: e.BodyPart, entry: entry})
}

func (s *fakeStore) AppendProgressionRecord(_ context.Context, record ProgressionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, record)
	return nil
}

func (s *fakeStore) LatestProgressionRating(_ context.Context, userID, exerciseID int) (int, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range slices.Backward(s.records) {
		if r.UserID == userID && r.ExerciseID == exerciseID {
			return r.Rating, true, nil
		}
	}
	return 0, false, nil
}

func (s *fakeStore) CountLogsSince(_ context.Context, userID int, since time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int
	for _, l := range s.logs {
		if l.userID == userID && !l.entry.Date.Before(dateOf(since)) {
			n++
		}
	}
	return n, nil
}

func (s *fakeStore) LoggedAssignmentsOn(_ context.Context, userID int, day time.Time) (map[int64]bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	logged := make(map[int64]bool)
	for _, l := range s.logs {
		if l.userID == userID && l.entry.Date.Equal(dateOf(day)) {
			logged[l.entry.AssignmentID] = true
		}
	}
	return logged, nil
}

func (s *fakeStore) LastTrained(_ context.Context, userID int, bodyPart string) (time.Time, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var (
		last time.Time
		ok   bool
	)
	for _, l := range s.logs {
		if l.userID == userID && strings.EqualFold(l.bodyPart, bodyPart) && (!ok || l.entry.Date.After(last)) {
			last, ok = l.entry.Date, true
		}
	}
	return last, ok, nil
}

func (s *fakeStore) WeekSummaries(_ context.Context, userID int, planID uuid.UUID) ([]WeekSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	plan, ok := s.plans[planID]
	if !ok {
		return nil, nil
	}
	summaries := make([]WeekSummary, 0, len(plan.Weeks))
	for _, w := range plan.Weeks {
		summary := WeekSummary{Week: w.Week}
		ids := make(map[int64]bool)
		for _, d := range w.Workouts {
			for _, a := range d.Exercises {
				ids[a.ID] = true
				summary.ScheduledExercises++
			}
		}
		var (
			weightSum float64
			weighted  int
			days      = make(map[time.Time]bool)
		)
		for _, l := range s.logs {
			if l.userID != userID || !ids[l.entry.AssignmentID] {
				continue
			}
			summary.CompletedExercises++
			days[l.entry.Date] = true
			if l.entry.Weight > 0 {
				weightSum += l.entry.Weight
				weighted++
			}
		}
		summary.DaysWorked = len(days)
		if weighted > 0 {
			summary.AverageWeight = weightSum / float64(weighted)
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

// testCatalog is a small catalog covering every category and the Push/Pull/Legs foci.
func testCatalog() []Exercise {
	return []Exercise{
		{ID: 1, Title: "Squat", Category: CategoryCompound, BodyPart: "Legs", FocusTags: "Legs, Lower Body",
			Equipment: "Barbell", Level: LevelIntermediate, Instructions: []string{"Brace.", "Sit down."}},
		{ID: 2, Title: "Deadlift", Category: CategoryCompound, BodyPart: "Back", FocusTags: "Pull, Lower Body",
			Equipment: "Barbell", Level: LevelIntermediate},
		{ID: 3, Title: "Bench Press", Category: CategoryCompound, BodyPart: "Chest", FocusTags: "Push, Upper Body",
			Equipment: "Barbell", Level: LevelIntermediate},
		{ID: 4, Title: "Overhead Press", Category: CategoryCompound, BodyPart: "Shoulders",
			FocusTags: "Push, Upper Body", Equipment: "Barbell", Level: LevelIntermediate},
		{ID: 5, Title: "Barbell Row", Category: CategoryCompound, BodyPart: "Back", FocusTags: "Pull, Upper Body",
			Equipment: "Barbell", Level: LevelIntermediate},
		{ID: 6, Title: "Walking Lunge", Category: CategoryCompound, BodyPart: "Legs", FocusTags: "Legs, Lower Body",
			Equipment: "Body Only", Level: LevelBeginner},
		{ID: 7, Title: "Push-Up", Category: CategoryCompound, BodyPart: "Chest", FocusTags: "Push, Upper Body",
			Equipment: "Body Only", Level: LevelBeginner},
		{ID: 8, Title: "Pull-Up", Category: CategoryCompound, BodyPart: "Back", FocusTags: "Pull, Upper Body",
			Equipment: "Pull-up Bar", Level: LevelIntermediate},
		{ID: 30, Title: "Bicep Curl", Category: CategoryIsolation, BodyPart: "Arms", FocusTags: "Pull, Arms",
			Equipment: "Dumbbell", Level: LevelBeginner, Instructions: []string{"Pin the elbows."}},
		{ID: 31, Title: "Triceps Pushdown", Category: CategoryIsolation, BodyPart: "Arms", FocusTags: "Push, Arms",
			Equipment: "Cable", Level: LevelBeginner},
		{ID: 32, Title: "Lateral Raise", Category: CategoryIsolation, BodyPart: "Shoulders",
			FocusTags: "Push, Shoulders", Equipment: "Dumbbell", Level: LevelBeginner},
		{ID: 33, Title: "Leg Extension", Category: CategoryIsolation, BodyPart: "Legs", FocusTags: "Legs",
			Equipment: "Machine", Level: LevelBeginner},
		{ID: 34, Title: "Leg Curl", Category: CategoryIsolation, BodyPart: "Legs", FocusTags: "Legs",
			Equipment: "Machine", Level: LevelBeginner},
		{ID: 35, Title: "Face Pull", Category: CategoryIsolation, BodyPart: "Shoulders", FocusTags: "Pull",
			Equipment: "Cable", Level: LevelBeginner},
		{ID: 36, Title: "Hammer Curl", Category: CategoryIsolation, BodyPart: "Arms", FocusTags: "Pull, Arms",
			Equipment: "Dumbbell", Level: LevelBeginner},
		{ID: 37, Title: "Standing Calf Raise", Category: CategoryIsolation, BodyPart: "Calves", FocusTags: "Legs",
			Equipment: "Body Only", Level: LevelBeginner},
		{ID: 38, Title: "Chest Fly", Category: CategoryIsolation, BodyPart: "Chest", FocusTags: "Push",
			Equipment: "Dumbbell", Level: LevelBeginner},
		{ID: 39, Title: "Hanging Leg Raise", Category: CategoryIsolation, BodyPart: "Abs", FocusTags: "Core",
			Equipment: "Pull-up Bar", Level: LevelIntermediate},
		{ID: 60, Title: "Jump Rope", Category: CategoryCardio, BodyPart: "Full Body", FocusTags: "Push, Pull, Legs",
			Equipment: "Jump Rope", Level: LevelBeginner},
		{ID: 61, Title: "Rowing Machine", Category: CategoryCardio, BodyPart: "Back", FocusTags: "Pull",
			Equipment: "Machine", Level: LevelBeginner},
		{ID: 80, Title: "Hip Mobility Flow", Category: CategoryMobility, BodyPart: "Legs", FocusTags: "Legs",
			Equipment: "Body Only", Level: LevelBeginner},
		{ID: 81, Title: "Shoulder Dislocates", Category: CategoryMobility, BodyPart: "Shoulders",
			FocusTags: "Push", Equipment: "Bands", Level: LevelBeginner},
		{ID: 82, Title: "Cat-Cow", Category: CategoryMobility, BodyPart: "Back", FocusTags: "Pull",
			Equipment: "Body Only", Level: LevelBeginner},
	}
}

func exerciseByID(t *testing.T, id int) Exercise {
	t.Helper()
	for _, e := range testCatalog() {
		if e.ID == id {
			return e
		}
	}
	t.Fatalf("no test exercise %d", id)
	return Exercise{}
}

func newTestGenerator(t *testing.T, store *fakeStore, now time.Time) *Generator {
	t.Helper()
	return NewGenerator(store, testhelpers.NewLogger(testhelpers.NewWriter(t)), NewRand(1), testhelpers.Clock(now))
}
