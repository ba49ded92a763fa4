package workout

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// sqliteExerciseRepository implements ExerciseCatalog.
type sqliteExerciseRepository struct {
	baseRepository
}

// newSQLiteExerciseRepository creates a new SQLite exercise repository.
func newSQLiteExerciseRepository(base baseRepository) *sqliteExerciseRepository {
	return &sqliteExerciseRepository{
		baseRepository: base,
	}
}

// exerciseColumns selects an exercise aliased as e, instructions aggregated into a JSON array.
const exerciseColumns = `e.id, e.title, e.category, e.body_part, e.focus_tags, e.equipment, e.level,
       (SELECT json_group_array(instruction ORDER BY step_number)
        FROM exercise_instructions
        WHERE exercise_id = e.id)`

type rowScanner interface {
	Scan(dest ...any) error
}

// scanExercise scans exerciseColumns into an Exercise. Extra destinations are scanned after the exercise columns.
func scanExercise(row rowScanner, extra ...any) (Exercise, error) {
	var (
		e            Exercise
		instructions string
	)
	dest := append([]any{
		&e.ID, &e.Title, &e.Category, &e.BodyPart, &e.FocusTags, &e.Equipment, &e.Level, &instructions,
	}, extra...)
	if err := row.Scan(dest...); err != nil {
		return Exercise{}, err //nolint:wrapcheck // callers wrap and need sql.ErrNoRows intact.
	}
	var err error
	if e.Instructions, err = parseJSONStrings(instructions); err != nil {
		return Exercise{}, fmt.Errorf("parse instructions of exercise %d: %w", e.ID, err)
	}
	if len(e.Instructions) == 0 {
		e.Instructions = nil
	}
	return e, nil
}

// GetExercise retrieves a single exercise by ID.
func (r *sqliteExerciseRepository) GetExercise(ctx context.Context, id int) (Exercise, error) {
	row := r.db.ReadOnly.QueryRowContext(ctx, `SELECT `+exerciseColumns+` FROM exercises AS e WHERE e.id = ?`, id)
	exercise, err := scanExercise(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Exercise{}, fmt.Errorf("exercise %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return Exercise{}, fmt.Errorf("query exercise: %w", err)
	}
	return exercise, nil
}

// QueryExercises returns the exercises matching q in ascending id order.
func (r *sqliteExerciseRepository) QueryExercises(ctx context.Context, q ExerciseQuery) (_ []Exercise, err error) {
	keywords := make([]string, 0, len(q.Keywords))
	for _, k := range q.Keywords {
		if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
			keywords = append(keywords, k)
		}
	}
	keywordsJSON, err := jsonStrings(keywords)
	if err != nil {
		return nil, err
	}
	equipmentJSON, err := jsonStrings(q.Equipment)
	if err != nil {
		return nil, err
	}
	limitationsJSON, err := jsonStrings(q.ExcludeLimitations)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.ReadOnly.QueryContext(ctx, `SELECT `+exerciseColumns+`
FROM exercises AS e
WHERE (:category = '' OR e.category = :category)
  AND (:body_part = '' OR lower(e.body_part) = lower(:body_part))
  AND (json_array_length(:keywords) = 0 OR EXISTS (
      SELECT 1 FROM json_each(:keywords) AS k
      WHERE instr(lower(e.body_part), k.value) > 0
         OR instr(lower(e.title), k.value) > 0
         OR instr(lower(e.focus_tags), k.value) > 0))
  AND (json_array_length(:equipment) = 0
      OR e.equipment = 'Body Only'
      OR e.equipment IN (SELECT value FROM json_each(:equipment)))
  AND NOT EXISTS (
      SELECT 1 FROM exercise_contraindications AS c
      WHERE c.exercise_id = e.id
        AND lower(c.limitation) IN (SELECT lower(value) FROM json_each(:limitations)))
ORDER BY e.id`,
		sql.Named("category", string(q.Category)),
		sql.Named("body_part", q.BodyPart),
		sql.Named("keywords", keywordsJSON),
		sql.Named("equipment", equipmentJSON),
		sql.Named("limitations", limitationsJSON))
	if err != nil {
		return nil, fmt.Errorf("query exercises: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("close rows: %w", closeErr))
		}
	}()

	var exercises []Exercise
	for rows.Next() {
		var exercise Exercise
		if exercise, err = scanExercise(rows); err != nil {
			return nil, fmt.Errorf("scan exercise: %w", err)
		}
		exercises = append(exercises, exercise)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return exercises, nil
}
