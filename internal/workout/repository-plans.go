package workout

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// sqlitePlanRepository implements PlanStore.
type sqlitePlanRepository struct {
	baseRepository
}

// newSQLitePlanRepository creates a new SQLite plan repository.
func newSQLitePlanRepository(base baseRepository) *sqlitePlanRepository {
	return &sqlitePlanRepository{
		baseRepository: base,
	}
}

const planColumns = `id, name, goal, level, duration_weeks, workouts_per_week, equipment, limitations, is_active,
       start_date, created_at, updated_at`

func scanPlan(row rowScanner) (Plan, error) {
	var (
		p                               Plan
		id, equipment, limitations      string
		startDate, createdAt, updatedAt string
	)
	if err := row.Scan(&id, &p.Name, &p.Goal, &p.Level, &p.DurationWeeks, &p.WorkoutsPerWeek, &equipment,
		&limitations, &p.Active, &startDate, &createdAt, &updatedAt); err != nil {
		return Plan{}, err //nolint:wrapcheck // callers wrap and need sql.ErrNoRows intact.
	}
	var err error
	if p.ID, err = uuid.Parse(id); err != nil {
		return Plan{}, fmt.Errorf("parse plan id: %w", err)
	}
	if p.Equipment, err = parseJSONStrings(equipment); err != nil {
		return Plan{}, fmt.Errorf("parse equipment: %w", err)
	}
	if p.Limitations, err = parseJSONStrings(limitations); err != nil {
		return Plan{}, fmt.Errorf("parse limitations: %w", err)
	}
	if p.StartDate, err = parseDate(startDate); err != nil {
		return Plan{}, err
	}
	if p.CreatedAt, err = parseTimestamp(createdAt); err != nil {
		return Plan{}, err
	}
	if p.UpdatedAt, err = parseTimestamp(updatedAt); err != nil {
		return Plan{}, err
	}
	return p, nil
}

// PersistPlan stores the plan with all its weeks in a single transaction. A nil plan ID is replaced by a new one.
func (r *sqlitePlanRepository) PersistPlan(ctx context.Context, plan Plan) (uuid.UUID, error) {
	if plan.ID == uuid.Nil {
		plan.ID = uuid.New()
	}
	equipment, err := jsonStrings(plan.Equipment)
	if err != nil {
		return uuid.Nil, err
	}
	limitations, err := jsonStrings(plan.Limitations)
	if err != nil {
		return uuid.Nil, err
	}

	err = r.db.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO plans (id, name, goal, level, duration_weeks, workouts_per_week, equipment, limitations,
			                   is_active, start_date, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			plan.ID.String(), plan.Name, plan.Goal, plan.Level, plan.DurationWeeks, plan.WorkoutsPerWeek,
			equipment, limitations, plan.Active, formatDate(plan.StartDate), formatTimestamp(plan.CreatedAt),
			formatTimestamp(plan.UpdatedAt)); err != nil {
			return fmt.Errorf("insert plan: %w", err)
		}
		for _, week := range plan.Weeks {
			for _, day := range week.Workouts {
				if _, err = tx.ExecContext(ctx, `
					INSERT INTO plan_days (plan_id, week_number, day, focus, is_deload)
					VALUES (?, ?, ?, ?, ?)`,
					plan.ID.String(), week.Week, day.Day, day.Focus, week.IsDeload); err != nil {
					return fmt.Errorf("insert week %d day %d: %w", week.Week, day.Day, err)
				}
				for position, a := range day.Exercises {
					if _, err = tx.ExecContext(ctx, `
						INSERT INTO plan_workouts (plan_id, week_number, day, position, exercise_id, sets, reps_min,
						                           reps_max, reps_unit, rest, tempo, notes)
						VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
						plan.ID.String(), week.Week, day.Day, position, a.Exercise.ID, a.Sets, a.Reps.Min, a.Reps.Max,
						a.Reps.Unit, a.Rest, a.Tempo, a.Notes); err != nil {
						return fmt.Errorf("insert workout %d of week %d day %d: %w", position, week.Week, day.Day, err)
					}
				}
			}
		}
		return nil
	})
	if err != nil {
		return uuid.Nil, fmt.Errorf("persist plan: %w", err)
	}
	return plan.ID, nil
}

// GetPlan retrieves a plan with all its weeks.
func (r *sqlitePlanRepository) GetPlan(ctx context.Context, id uuid.UUID) (Plan, error) {
	plan, err := scanPlan(r.db.ReadOnly.QueryRowContext(ctx,
		`SELECT `+planColumns+` FROM plans WHERE id = ?`, id.String()))
	if errors.Is(err, sql.ErrNoRows) {
		return Plan{}, fmt.Errorf("plan %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return Plan{}, fmt.Errorf("query plan: %w", err)
	}
	if plan.Weeks, err = r.queryWeeks(ctx, id); err != nil {
		return Plan{}, fmt.Errorf("query weeks: %w", err)
	}
	return plan, nil
}

func (r *sqlitePlanRepository) queryWeeks(ctx context.Context, planID uuid.UUID) (_ []WeeklyPlan, err error) {
	rows, err := r.db.ReadOnly.QueryContext(ctx, `
		SELECT week_number, day, focus, is_deload
		FROM plan_days
		WHERE plan_id = ?
		ORDER BY week_number, day`, planID.String())
	if err != nil {
		return nil, fmt.Errorf("query plan days: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("close rows: %w", closeErr))
		}
	}()

	var weeks []WeeklyPlan
	for rows.Next() {
		var (
			week   int
			deload bool
			day    DayWorkout
		)
		if err = rows.Scan(&week, &day.Day, &day.Focus, &deload); err != nil {
			return nil, fmt.Errorf("scan plan day: %w", err)
		}
		if len(weeks) == 0 || weeks[len(weeks)-1].Week != week {
			weeks = append(weeks, WeeklyPlan{Week: week, IsDeload: deload, Workouts: nil})
		}
		w := &weeks[len(weeks)-1]
		w.Workouts = append(w.Workouts, day)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	assignments, err := r.queryAssignments(ctx, `pw.plan_id = ?`, planID.String())
	if err != nil {
		return nil, err
	}
	for _, sa := range assignments {
		for i := range weeks {
			if weeks[i].Week != sa.week {
				continue
			}
			for j := range weeks[i].Workouts {
				if weeks[i].Workouts[j].Day == sa.day {
					weeks[i].Workouts[j].Exercises = append(weeks[i].Workouts[j].Exercises, sa.Assignment)
				}
			}
		}
	}
	return weeks, nil
}

// scheduledAssignment is an Assignment together with its slot in the plan.
type scheduledAssignment struct {
	Assignment
	week int
	day  int
}

// queryAssignments returns the plan workouts matching where, ordered by week, day and position.
func (r *sqlitePlanRepository) queryAssignments(
	ctx context.Context,
	where string,
	args ...any,
) (_ []scheduledAssignment, err error) {
	rows, err := r.db.ReadOnly.QueryContext(ctx, `
		SELECT `+exerciseColumns+`, pw.id, pw.week_number, pw.day, pw.sets, pw.reps_min, pw.reps_max, pw.reps_unit,
		       pw.rest, pw.tempo, pw.notes
		FROM plan_workouts AS pw
		         JOIN exercises AS e ON e.id = pw.exercise_id
		WHERE `+where+`
		ORDER BY pw.week_number, pw.day, pw.position`, args...) //nolint:gosec // where is a constant fragment.
	if err != nil {
		return nil, fmt.Errorf("query plan workouts: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("close rows: %w", closeErr))
		}
	}()

	var assignments []scheduledAssignment
	for rows.Next() {
		var sa scheduledAssignment
		sa.Exercise, err = scanExercise(rows, &sa.ID, &sa.week, &sa.day, &sa.Sets, &sa.Reps.Min, &sa.Reps.Max,
			&sa.Reps.Unit, &sa.Rest, &sa.Tempo, &sa.Notes)
		if err != nil {
			return nil, fmt.Errorf("scan plan workout: %w", err)
		}
		assignments = append(assignments, sa)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return assignments, nil
}

// ActivePlans returns the active plans without their weeks, most recently started first.
func (r *sqlitePlanRepository) ActivePlans(ctx context.Context) (_ []Plan, err error) {
	rows, err := r.db.ReadOnly.QueryContext(ctx, `
		SELECT `+planColumns+`
		FROM plans
		WHERE is_active = 1
		ORDER BY start_date DESC, created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("query active plans: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("close rows: %w", closeErr))
		}
	}()

	var plans []Plan
	for rows.Next() {
		var plan Plan
		if plan, err = scanPlan(rows); err != nil {
			return nil, fmt.Errorf("scan plan: %w", err)
		}
		plans = append(plans, plan)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return plans, nil
}

// ScheduledWorkouts returns the assignments of one plan day in order.
func (r *sqlitePlanRepository) ScheduledWorkouts(
	ctx context.Context,
	planID uuid.UUID,
	week, day int,
) ([]Assignment, error) {
	scheduled, err := r.queryAssignments(ctx, `pw.plan_id = ? AND pw.week_number = ? AND pw.day = ?`,
		planID.String(), week, day)
	if err != nil {
		return nil, err
	}
	assignments := make([]Assignment, len(scheduled))
	for i, sa := range scheduled {
		assignments[i] = sa.Assignment
	}
	return assignments, nil
}

// ScheduledDays returns the weekdays of a plan week that have at least one assignment.
func (r *sqlitePlanRepository) ScheduledDays(ctx context.Context, planID uuid.UUID, week int) (_ []int, err error) {
	rows, err := r.db.ReadOnly.QueryContext(ctx, `
		SELECT DISTINCT day
		FROM plan_workouts
		WHERE plan_id = ? AND week_number = ?
		ORDER BY day`, planID.String(), week)
	if err != nil {
		return nil, fmt.Errorf("query scheduled days: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("close rows: %w", closeErr))
		}
	}()

	var days []int
	for rows.Next() {
		var day int
		if err = rows.Scan(&day); err != nil {
			return nil, fmt.Errorf("scan day: %w", err)
		}
		days = append(days, day)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return days, nil
}

// SetPlanActive activates or deactivates a plan.
func (r *sqlitePlanRepository) SetPlanActive(ctx context.Context, planID uuid.UUID, active bool) error {
	return r.updatePlan(ctx, planID, `is_active = ?`, active)
}

// UpdatePlanGoal changes the goal of a plan. The schedule is not regenerated.
func (r *sqlitePlanRepository) UpdatePlanGoal(ctx context.Context, planID uuid.UUID, goal Goal) error {
	return r.updatePlan(ctx, planID, `goal = ?`, goal)
}

func (r *sqlitePlanRepository) updatePlan(ctx context.Context, planID uuid.UUID, set string, value any) error {
	result, err := r.db.ReadWrite.ExecContext(ctx,
		`UPDATE plans SET `+set+`, updated_at = ? WHERE id = ?`, //nolint:gosec // set is a constant fragment.
		value, formatTimestamp(r.now()), planID.String())
	if err != nil {
		return fmt.Errorf("update plan: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("plan %s: %w", planID, ErrNotFound)
	}
	return nil
}
