package workout

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// sqliteHistoryRepository implements HistoryStore.
type sqliteHistoryRepository struct {
	baseRepository
}

// newSQLiteHistoryRepository creates a new SQLite history repository.
func newSQLiteHistoryRepository(base baseRepository) *sqliteHistoryRepository {
	return &sqliteHistoryRepository{
		baseRepository: base,
	}
}

const logColumns = `wl.id, wl.plan_workout_id, pw.exercise_id, wl.logged_on, wl.sets_completed, wl.reps_completed,
       wl.weight, pw.sets, pw.reps_min, pw.reps_max, pw.reps_unit, pw.week_number, pw.day`

func scanLogEntry(row rowScanner) (LogEntry, error) {
	var (
		l        LogEntry
		loggedOn string
	)
	if err := row.Scan(&l.ID, &l.AssignmentID, &l.ExerciseID, &loggedOn, &l.Sets, &l.Reps, &l.Weight, &l.TargetSets,
		&l.TargetReps.Min, &l.TargetReps.Max, &l.TargetReps.Unit, &l.Week, &l.Day); err != nil {
		return LogEntry{}, err //nolint:wrapcheck // callers wrap.
	}
	var err error
	if l.Date, err = parseDate(loggedOn); err != nil {
		return LogEntry{}, err
	}
	return l, nil
}

// WorkoutLogs returns the logs of an exercise on or after since, oldest first.
func (r *sqliteHistoryRepository) WorkoutLogs(
	ctx context.Context,
	userID, exerciseID int,
	since time.Time,
) (_ []LogEntry, err error) {
	rows, err := r.db.ReadOnly.QueryContext(ctx, `
		SELECT `+logColumns+`
		FROM workout_logs AS wl
		         JOIN plan_workouts AS pw ON pw.id = wl.plan_workout_id
		WHERE wl.user_id = ? AND pw.exercise_id = ? AND wl.logged_on >= ?
		ORDER BY wl.logged_on, wl.id`, userID, exerciseID, formatDate(since))
	if err != nil {
		return nil, fmt.Errorf("query workout logs: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("close rows: %w", closeErr))
		}
	}()

	var logs []LogEntry
	for rows.Next() {
		var l LogEntry
		if l, err = scanLogEntry(rows); err != nil {
			return nil, fmt.Errorf("scan workout log: %w", err)
		}
		logs = append(logs, l)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return logs, nil
}

// AppendWorkoutLog records a performance of a scheduled assignment on the given day.
func (r *sqliteHistoryRepository) AppendWorkoutLog(
	ctx context.Context,
	userID int,
	assignmentID int64,
	sets, reps int,
	weight float64,
	on time.Time,
) (LogEntry, error) {
	var entry LogEntry
	err := r.db.WithTx(ctx, func(tx *sql.Tx) error {
		var id int64
		err := tx.QueryRowContext(ctx, `
			INSERT INTO workout_logs (user_id, plan_workout_id, sets_completed, reps_completed, weight, logged_on,
			                          logged_at)
			SELECT ?, id, ?, ?, ?, ?, ?
			FROM plan_workouts
			WHERE id = ?
			RETURNING id`,
			userID, sets, reps, weight, formatDate(on), formatTimestamp(r.now()), assignmentID).Scan(&id)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("assignment %d: %w", assignmentID, ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("insert workout log: %w", err)
		}
		entry, err = scanLogEntry(tx.QueryRowContext(ctx, `
			SELECT `+logColumns+`
			FROM workout_logs AS wl
			         JOIN plan_workouts AS pw ON pw.id = wl.plan_workout_id
			WHERE wl.id = ?`, id))
		if err != nil {
			return fmt.Errorf("query inserted workout log: %w", err)
		}
		return nil
	})
	if err != nil {
		return LogEntry{}, fmt.Errorf("append workout log: %w", err)
	}
	return entry, nil
}

// AppendProgressionRecord stores an analytics snapshot.
func (r *sqliteHistoryRepository) AppendProgressionRecord(ctx context.Context, record ProgressionRecord) error {
	if _, err := r.db.ReadWrite.ExecContext(ctx, `
		INSERT INTO progression_records (user_id, exercise_id, recorded_on, one_rep_max, volume, rating)
		VALUES (?, ?, ?, ?, ?, ?)`,
		record.UserID, record.ExerciseID, formatDate(record.Date), record.OneRepMax, record.Volume,
		record.Rating); err != nil {
		return fmt.Errorf("insert progression record: %w", err)
	}
	return nil
}

// LatestProgressionRating returns the rating of the most recent progression record, if any.
func (r *sqliteHistoryRepository) LatestProgressionRating(
	ctx context.Context,
	userID, exerciseID int,
) (int, bool, error) {
	var rating int
	err := r.db.ReadOnly.QueryRowContext(ctx, `
		SELECT rating
		FROM progression_records
		WHERE user_id = ? AND exercise_id = ?
		ORDER BY recorded_on DESC, id DESC
		LIMIT 1`, userID, exerciseID).Scan(&rating)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("query latest progression rating: %w", err)
	}
	return rating, true, nil
}

// CountLogsSince counts the logs of a user on or after since.
func (r *sqliteHistoryRepository) CountLogsSince(ctx context.Context, userID int, since time.Time) (int, error) {
	var count int
	if err := r.db.ReadOnly.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM workout_logs
		WHERE user_id = ? AND logged_on >= ?`, userID, formatDate(since)).Scan(&count); err != nil {
		return 0, fmt.Errorf("count workout logs: %w", err)
	}
	return count, nil
}

// LoggedAssignmentsOn returns the assignments a user logged on day.
func (r *sqliteHistoryRepository) LoggedAssignmentsOn(
	ctx context.Context,
	userID int,
	day time.Time,
) (_ map[int64]bool, err error) {
	rows, err := r.db.ReadOnly.QueryContext(ctx, `
		SELECT DISTINCT plan_workout_id
		FROM workout_logs
		WHERE user_id = ? AND logged_on = ?`, userID, formatDate(day))
	if err != nil {
		return nil, fmt.Errorf("query logged assignments: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("close rows: %w", closeErr))
		}
	}()

	logged := make(map[int64]bool)
	for rows.Next() {
		var id int64
		if err = rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan assignment id: %w", err)
		}
		logged[id] = true
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return logged, nil
}

// LastTrained returns the latest day a user logged an exercise for bodyPart.
func (r *sqliteHistoryRepository) LastTrained(
	ctx context.Context,
	userID int,
	bodyPart string,
) (time.Time, bool, error) {
	var last sql.NullString
	if err := r.db.ReadOnly.QueryRowContext(ctx, `
		SELECT MAX(wl.logged_on)
		FROM workout_logs AS wl
		         JOIN plan_workouts AS pw ON pw.id = wl.plan_workout_id
		         JOIN exercises AS e ON e.id = pw.exercise_id
		WHERE wl.user_id = ? AND lower(e.body_part) = lower(?)`, userID, bodyPart).Scan(&last); err != nil {
		return time.Time{}, false, fmt.Errorf("query last training day: %w", err)
	}
	if !last.Valid {
		return time.Time{}, false, nil
	}
	day, err := parseDate(last.String)
	if err != nil {
		return time.Time{}, false, err
	}
	return day, true, nil
}

// WeekSummaries counts scheduled and logged exercises per plan week. ProgressPercent is left for the caller.
func (r *sqliteHistoryRepository) WeekSummaries(
	ctx context.Context,
	userID int,
	planID uuid.UUID,
) (_ []WeekSummary, err error) {
	rows, err := r.db.ReadOnly.QueryContext(ctx, `
		WITH weeks AS (SELECT DISTINCT week_number FROM plan_days WHERE plan_id = :plan_id),
		     scheduled AS (SELECT week_number, COUNT(*) AS n
		                   FROM plan_workouts
		                   WHERE plan_id = :plan_id
		                   GROUP BY week_number),
		     logged AS (SELECT pw.week_number,
		                       COUNT(*)                                       AS completed,
		                       AVG(CASE WHEN wl.weight > 0 THEN wl.weight END) AS average_weight,
		                       COUNT(DISTINCT wl.logged_on)                   AS days
		                FROM workout_logs AS wl
		                         JOIN plan_workouts AS pw ON pw.id = wl.plan_workout_id
		                WHERE pw.plan_id = :plan_id AND wl.user_id = :user_id
		                GROUP BY pw.week_number)
		SELECT w.week_number,
		       COALESCE(s.n, 0),
		       COALESCE(l.completed, 0),
		       COALESCE(l.average_weight, 0.0),
		       COALESCE(l.days, 0)
		FROM weeks AS w
		         LEFT JOIN scheduled AS s USING (week_number)
		         LEFT JOIN logged AS l USING (week_number)
		ORDER BY w.week_number`,
		sql.Named("plan_id", planID.String()), sql.Named("user_id", userID))
	if err != nil {
		return nil, fmt.Errorf("query week summaries: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("close rows: %w", closeErr))
		}
	}()

	var summaries []WeekSummary
	for rows.Next() {
		var s WeekSummary
		if err = rows.Scan(&s.Week, &s.ScheduledExercises, &s.CompletedExercises, &s.AverageWeight,
			&s.DaysWorked); err != nil {
			return nil, fmt.Errorf("scan week summary: %w", err)
		}
		summaries = append(summaries, s)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return summaries, nil
}
