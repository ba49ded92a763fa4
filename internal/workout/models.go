package workout

import (
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Goal is the training objective a plan is built around.
type Goal string

const (
	GoalSportsAndAthletics Goal = "Sports and Athletics"
	GoalBodyBuilding       Goal = "Body Building"
	GoalBodyWeightFitness  Goal = "Body Weight Fitness"
	GoalWeightLoss         Goal = "Weight Loss"
	GoalMobilityExclusive  Goal = "Mobility Exclusive"
)

// Goals lists every supported goal.
var Goals = []Goal{ //nolint:gochecknoglobals // read-only enumeration.
	GoalSportsAndAthletics,
	GoalBodyBuilding,
	GoalBodyWeightFitness,
	GoalWeightLoss,
	GoalMobilityExclusive,
}

func (g Goal) valid() bool {
	return slices.Contains(Goals, g)
}

// has reports whether the goal name contains s. The rule tables match goals by substring.
func (g Goal) has(s string) bool {
	return strings.Contains(string(g), s)
}

// Level is the trainee's experience level.
type Level string

const (
	LevelBeginner     Level = "Beginner"
	LevelIntermediate Level = "Intermediate"
	LevelAdvanced     Level = "Advanced"
)

func (l Level) valid() bool {
	return l == LevelBeginner || l == LevelIntermediate || l == LevelAdvanced
}

// Category classifies catalog exercises. Selection always happens in categoryOrder.
type Category string

const (
	CategoryCompound  Category = "Compound"
	CategoryIsolation Category = "Isolation"
	CategoryCardio    Category = "Cardio"
	CategoryMobility  Category = "Mobility"
)

var categoryOrder = []Category{ //nolint:gochecknoglobals // read-only enumeration.
	CategoryCompound,
	CategoryIsolation,
	CategoryCardio,
	CategoryMobility,
}

// Exercise is an immutable catalog entry.
type Exercise struct {
	ID       int      `json:"id"`
	Title    string   `json:"title"`
	Category Category `json:"category"`
	BodyPart string   `json:"body_part"`
	// FocusTags is a comma separated list of split labels the exercise suits, e.g. "Push, Upper Body".
	FocusTags    string   `json:"focus_tags"`
	Equipment    string   `json:"equipment"`
	Level        Level    `json:"level"`
	Instructions []string `json:"instructions"`
}

// RepUnit tells what a Reps range counts.
type RepUnit string

const (
	UnitReps    RepUnit = "reps"
	UnitSeconds RepUnit = "seconds"
	UnitMinutes RepUnit = "minutes"
)

// Reps is a prescribed repetition or duration range.
type Reps struct {
	Min  int
	Max  int
	Unit RepUnit
}

func repRange(minimum, maximum int) Reps {
	return Reps{Min: minimum, Max: maximum, Unit: UnitReps}
}

// counted reports whether r is a repetition range that the progression rules may rewrite.
func (r Reps) counted() bool {
	return r.Unit == UnitReps && r.Min < r.Max
}

// String formats r as "8-12", "10", "30-60 seconds" or "20 minutes".
func (r Reps) String() string {
	s := strconv.Itoa(r.Min)
	if r.Max != r.Min {
		s += "-" + strconv.Itoa(r.Max)
	}
	if r.Unit == UnitReps || r.Unit == "" {
		return s
	}
	return s + " " + string(r.Unit)
}

// ParseReps is the inverse of [Reps.String].
func ParseReps(s string) (Reps, error) {
	span, unit, _ := strings.Cut(strings.TrimSpace(s), " ")
	r := Reps{Unit: UnitReps}
	switch RepUnit(unit) {
	case "", UnitReps:
	case UnitSeconds, UnitMinutes:
		r.Unit = RepUnit(unit)
	default:
		return Reps{}, fmt.Errorf("unknown rep unit %q", unit)
	}
	lo, hi, ranged := strings.Cut(span, "-")
	var err error
	if r.Min, err = strconv.Atoi(lo); err != nil {
		return Reps{}, fmt.Errorf("parse minimum of %q: %w", s, err)
	}
	r.Max = r.Min
	if ranged {
		if r.Max, err = strconv.Atoi(hi); err != nil {
			return Reps{}, fmt.Errorf("parse maximum of %q: %w", s, err)
		}
	}
	if r.Max < r.Min {
		return Reps{}, fmt.Errorf("reversed range %q", s)
	}
	return r, nil
}

func (r Reps) MarshalJSON() ([]byte, error) {
	b, err := json.Marshal(r.String())
	if err != nil {
		return nil, fmt.Errorf("marshal reps: %w", err)
	}
	return b, nil
}

func (r *Reps) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("unmarshal reps: %w", err)
	}
	parsed, err := ParseReps(s)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// Assignment is one exercise prescription within a day template.
type Assignment struct {
	// ID is the persisted plan workout id, zero until the plan has been stored.
	ID       int64    `json:"id"`
	Exercise Exercise `json:"exercise"`
	Sets     int      `json:"sets"`
	Reps     Reps     `json:"reps"`
	Rest     string   `json:"rest"`
	Tempo    string   `json:"tempo"`
	Notes    string   `json:"notes"`
}

// DayWorkout is the template for one training day. Day is the weekday, 1 = Monday.
type DayWorkout struct {
	Day       int          `json:"day"`
	Focus     string       `json:"focus"`
	Exercises []Assignment `json:"exercises"`
}

// WeeklyPlan is one week of the program.
type WeeklyPlan struct {
	Week     int          `json:"week"`
	IsDeload bool         `json:"is_deload"`
	Workouts []DayWorkout `json:"workouts"`
}

// Plan is a complete multi-week program.
type Plan struct {
	ID              uuid.UUID    `json:"id"`
	Name            string       `json:"name"`
	Goal            Goal         `json:"goal"`
	Level           Level        `json:"level"`
	DurationWeeks   int          `json:"duration_weeks"`
	WorkoutsPerWeek int          `json:"workouts_per_week"`
	Equipment       []string     `json:"equipment"`
	Limitations     []string     `json:"limitations"`
	Weeks           []WeeklyPlan `json:"weeks"`
	Active          bool         `json:"active"`
	// StartDate is the date-only origin of the week arithmetic.
	StartDate time.Time `json:"start_date"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Clone returns a deep copy of p that shares no slices with it.
func (p Plan) Clone() Plan {
	c := p
	c.Equipment = slices.Clone(p.Equipment)
	c.Limitations = slices.Clone(p.Limitations)
	if p.Weeks != nil {
		c.Weeks = make([]WeeklyPlan, len(p.Weeks))
		for i, w := range p.Weeks {
			w.Workouts = cloneDays(w.Workouts)
			c.Weeks[i] = w
		}
	}
	return c
}

// Exercises returns every distinct exercise of the plan in order of first appearance.
func (p Plan) Exercises() []Exercise {
	var (
		seen      = make(map[int]bool)
		exercises []Exercise
	)
	for _, w := range p.Weeks {
		for _, d := range w.Workouts {
			for _, a := range d.Exercises {
				if seen[a.Exercise.ID] {
					continue
				}
				seen[a.Exercise.ID] = true
				exercises = append(exercises, a.Exercise)
			}
		}
	}
	return exercises
}

func cloneDays(days []DayWorkout) []DayWorkout {
	if days == nil {
		return nil
	}
	c := make([]DayWorkout, len(days))
	for i, d := range days {
		d.Exercises = cloneAssignments(d.Exercises)
		c[i] = d
	}
	return c
}

func cloneAssignments(assignments []Assignment) []Assignment {
	if assignments == nil {
		return nil
	}
	c := make([]Assignment, len(assignments))
	for i, a := range assignments {
		a.Exercise.Instructions = slices.Clone(a.Exercise.Instructions)
		c[i] = a
	}
	return c
}

// Preferences are the inputs to plan generation.
type Preferences struct {
	Name            string   `json:"name"`
	Goal            Goal     `json:"goal"`
	DurationWeeks   int      `json:"duration_weeks"`
	WorkoutsPerWeek int      `json:"workouts_per_week"`
	Level           Level    `json:"level"`
	Equipment       []string `json:"equipment"`
	Limitations     []string `json:"limitations"`
}

// Validate reports every missing or invalid field at once.
func (p Preferences) Validate() error {
	var fields []string
	if !p.Goal.valid() {
		fields = append(fields, "goal")
	}
	if p.DurationWeeks < 1 {
		fields = append(fields, "duration_weeks")
	}
	if p.WorkoutsPerWeek < 1 {
		fields = append(fields, "workouts_per_week")
	}
	if !p.Level.valid() {
		fields = append(fields, "level")
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// excludedLimitations returns the limitations that rule out exercises. A lone "None" means no limitations.
func (p Preferences) excludedLimitations() []string {
	if len(p.Limitations) == 1 && strings.EqualFold(p.Limitations[0], "None") {
		return nil
	}
	return p.Limitations
}

// LogEntry is one logged performance of a scheduled assignment. Entries are append-only.
type LogEntry struct {
	ID           int64     `json:"id"`
	AssignmentID int64     `json:"assignment_id"`
	ExerciseID   int       `json:"exercise_id"`
	Date         time.Time `json:"date"`
	Sets         int       `json:"sets"`
	Reps         int       `json:"reps"`
	Weight       float64   `json:"weight"`
	TargetSets   int       `json:"target_sets"`
	TargetReps   Reps      `json:"target_reps"`
	Week         int       `json:"week"`
	Day          int       `json:"day"`
}

// ProgressionRecord is an analytics snapshot appended after each analysis.
type ProgressionRecord struct {
	UserID     int       `json:"user_id"`
	ExerciseID int       `json:"exercise_id"`
	Date       time.Time `json:"date"`
	OneRepMax  float64   `json:"one_rep_max"`
	Volume     float64   `json:"volume"`
	Rating     int       `json:"rating"`
}

// ExerciseQuery selects catalog exercises. Zero fields do not restrict the result.
type ExerciseQuery struct {
	Category Category
	// BodyPart matches the body part exactly, ignoring case.
	BodyPart string
	// Keywords match body part, title or focus tags case-insensitively. Empty matches everything.
	Keywords []string
	// Equipment restricts to exercises using one of these or no equipment. Empty means no restriction.
	Equipment          []string
	ExcludeLimitations []string
}

// WeekSummary is the logging progress of one plan week.
type WeekSummary struct {
	Week               int     `json:"week"`
	ScheduledExercises int     `json:"scheduled_exercises"`
	CompletedExercises int     `json:"completed_exercises"`
	AverageWeight      float64 `json:"average_weight"`
	DaysWorked         int     `json:"days_worked"`
	ProgressPercent    float64 `json:"progress_percent"`
}

// dateOf returns the calendar date of t in t's own location as a UTC midnight, so that dates taken from the
// clock and dates read back from storage compare equal.
func dateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// daysBetween counts whole calendar days from a to b.
func daysBetween(a, b time.Time) int {
	return int(dateOf(b).Sub(dateOf(a)).Hours() / 24) //nolint:mnd // hours per day.
}
