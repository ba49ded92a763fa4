package workout

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/myrjola/fitplanner/internal/sqlite"
)

const timestampFormat = "2006-01-02T15:04:05.000Z"

// repository is the SQLite implementation of Store, composed of one repository per aggregate.
type repository struct {
	*sqliteExerciseRepository
	*sqlitePlanRepository
	*sqliteHistoryRepository
}

var _ Store = (*repository)(nil)

// repositoryFactory creates repository instances.
type repositoryFactory struct {
	db     *sqlite.Database
	logger *slog.Logger
	now    func() time.Time
}

// newRepositoryFactory creates a new repository factory. now stamps the audit timestamps of writes.
func newRepositoryFactory(db *sqlite.Database, logger *slog.Logger, now func() time.Time) *repositoryFactory {
	return &repositoryFactory{db: db, logger: logger, now: now}
}

// newRepository creates a new repository aggregate.
func (f *repositoryFactory) newRepository() *repository {
	return &repository{
		sqliteExerciseRepository: newSQLiteExerciseRepository(newBaseRepository(f.db, f.logger, f.now)),
		sqlitePlanRepository:     newSQLitePlanRepository(newBaseRepository(f.db, f.logger, f.now)),
		sqliteHistoryRepository:  newSQLiteHistoryRepository(newBaseRepository(f.db, f.logger, f.now)),
	}
}

// baseRepository holds what every SQLite repository needs.
type baseRepository struct {
	db     *sqlite.Database
	logger *slog.Logger
	now    func() time.Time
}

func newBaseRepository(db *sqlite.Database, logger *slog.Logger, now func() time.Time) baseRepository {
	return baseRepository{db: db, logger: logger, now: now}
}

func formatDate(t time.Time) string {
	return t.Format(time.DateOnly)
}

func parseDate(s string) (time.Time, error) {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date: %w", err)
	}
	return t, nil
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampFormat)
}

func parseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(timestampFormat, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp: %w", err)
	}
	return t, nil
}

// jsonStrings encodes ss as a JSON array for SQLite's json functions. Nil encodes as an empty array.
func jsonStrings(ss []string) (string, error) {
	if ss == nil {
		ss = []string{}
	}
	b, err := json.Marshal(ss)
	if err != nil {
		return "", fmt.Errorf("marshal strings: %w", err)
	}
	return string(b), nil
}

func parseJSONStrings(s string) ([]string, error) {
	var ss []string
	if err := json.Unmarshal([]byte(s), &ss); err != nil {
		return nil, fmt.Errorf("unmarshal strings: %w", err)
	}
	return ss, nil
}
