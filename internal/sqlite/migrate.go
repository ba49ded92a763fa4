package sqlite

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// migrateTo makes the live schema match schemaDefinition.
//
// The migration is declarative. The target schema is created in an attached in-memory database and compared with
// the live one:
//
//  1. tables missing from the target are dropped and new tables are created,
//  2. changed tables go through the 12-step procedure of https://www.sqlite.org/lang_altertable.html#otheralter
//     copying the columns both versions share,
//  3. triggers and indexes are dropped, created or recreated to match.
//
// Inspired by https://david.rothlis.net/declarative-schema-migration-for-sqlite/
func (db *Database) migrateTo(ctx context.Context, schemaDefinition string) (err error) {
	start := time.Now()

	detach, err := db.attachSchemaTarget(ctx, schemaDefinition)
	if err != nil {
		return fmt.Errorf("attach schema target database: %w", err)
	}
	defer detach()

	// Foreign keys can't be toggled inside a transaction. The writer pool has a single connection so the pragma
	// applies to the transaction below.
	if _, err = db.ReadWrite.ExecContext(ctx, "PRAGMA foreign_keys = OFF"); err != nil {
		return fmt.Errorf("disable foreign key validation: %w", err)
	}
	defer func() {
		if _, fkErr := db.ReadWrite.ExecContext(ctx, "PRAGMA foreign_keys = ON"); fkErr != nil {
			err = errors.Join(err, fmt.Errorf("re-enable foreign key validation: %w", fkErr))
		}
	}()

	err = db.WithTx(ctx, func(tx *sql.Tx) error {
		m := migration{tx: tx, logger: db.logger}
		if err := m.migrateTables(ctx); err != nil {
			return fmt.Errorf("migrate tables: %w", err)
		}
		for _, typ := range []schemaType{schemaTypeTrigger, schemaTypeIndex} {
			if err := m.migrateEntities(ctx, typ); err != nil {
				return fmt.Errorf("migrate %ss: %w", typ, err)
			}
		}
		violations, err := m.queryStrings(ctx, `SELECT "table" FROM pragma_foreign_key_check`)
		if err != nil {
			return fmt.Errorf("foreign key check: %w", err)
		}
		if len(violations) > 0 {
			return fmt.Errorf("foreign key check failed for tables %s", strings.Join(violations, ", "))
		}
		return nil
	})
	if err != nil {
		return err
	}

	db.logger.LogAttrs(ctx, slog.LevelInfo, "migrated database", slog.Duration("duration", time.Since(start)))
	return nil
}

// attachSchemaTarget attaches an in-memory database initialised with schemaDefinition as schemaTarget. The returned
// function detaches it.
func (db *Database) attachSchemaTarget(ctx context.Context, schemaDefinition string) (func(), error) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", rand.Text())
	target, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open schema target database: %w", err)
	}
	// The attached database stays alive while the writer holds it, so this handle can go once the schema exists.
	defer func() {
		if closeErr := target.Close(); closeErr != nil {
			db.logger.LogAttrs(ctx, slog.LevelError, "failed to close schema target database",
				slog.Any("error", closeErr))
		}
	}()
	if _, err = target.ExecContext(ctx, schemaDefinition); err != nil {
		return nil, fmt.Errorf("create schema target: %w", err)
	}
	if _, err = db.ReadWrite.ExecContext(ctx, "ATTACH DATABASE ? AS schemaTarget", dsn); err != nil {
		return nil, fmt.Errorf("attach: %w", err)
	}
	return func() {
		if _, detachErr := db.ReadWrite.ExecContext(ctx, "DETACH DATABASE schemaTarget"); detachErr != nil {
			db.logger.LogAttrs(ctx, slog.LevelError, "failed to detach schema target database",
				slog.Any("error", detachErr))
		}
	}, nil
}

type migration struct {
	tx     *sql.Tx
	logger *slog.Logger
}

type schemaType string

const (
	schemaTypeTable   schemaType = "table"
	schemaTypeTrigger schemaType = "trigger"
	schemaTypeIndex   schemaType = "index"
)

type changedSchema struct {
	name    string
	liveSQL string
	newSQL  string
}

// Internal SQLite and Litestream objects are never touched.
const ownedObjects = `live.name NOT LIKE 'sqlite_%' AND live.name NOT LIKE '_litestream_%'`

func (m migration) migrateTables(ctx context.Context) error {
	deleted, err := m.queryStrings(ctx, `SELECT live.name
FROM sqlite_schema AS live
         LEFT JOIN schemaTarget.sqlite_schema AS target ON live.name = target.name AND live.type = target.type
WHERE live.type = 'table' AND target.type IS NULL AND `+ownedObjects)
	if err != nil {
		return fmt.Errorf("query deleted tables: %w", err)
	}
	for _, table := range deleted {
		if err = m.exec(ctx, "dropping table", fmt.Sprintf("DROP TABLE %s", table)); err != nil {
			return err
		}
	}

	created, err := m.queryCreated(ctx, schemaTypeTable)
	if err != nil {
		return fmt.Errorf("query new tables: %w", err)
	}
	for _, createSQL := range created {
		if err = m.exec(ctx, "creating table", createSQL); err != nil {
			return err
		}
	}

	// Renamed tables get double quotes around their name, which must not count as a change.
	changed, err := m.queryChanged(ctx, schemaTypeTable, `REPLACE(live.sql, '"', '') <> REPLACE(target.sql, '"', '')`)
	if err != nil {
		return fmt.Errorf("query changed tables: %w", err)
	}
	for _, table := range changed {
		if err = m.rebuildTable(ctx, table); err != nil {
			return fmt.Errorf("rebuild table %s: %w", table.name, err)
		}
	}
	return nil
}

// rebuildTable creates the new version under a temporary name, copies the common columns, drops the old table and
// renames the new one into its place.
func (m migration) rebuildTable(ctx context.Context, table changedSchema) error {
	m.logger.LogAttrs(ctx, slog.LevelInfo, "migrating table", slog.String("table", table.name),
		slog.String("live_sql", table.liveSQL), slog.String("new_sql", table.newSQL))

	tempName := table.name + "_migration_temp"
	if err := m.exec(ctx, "creating temporary table",
		strings.Replace(table.newSQL, table.name, tempName, 1)); err != nil {
		return err
	}

	// Column names are quoted because some may be SQLite keywords.
	columns, err := m.queryStrings(ctx, `SELECT '"' || target.name || '"'
FROM PRAGMA_TABLE_INFO(:table_name) AS live
JOIN PRAGMA_TABLE_INFO(:table_name, 'schemaTarget') AS target ON target.name = live.name`,
		sql.Named("table_name", table.name))
	if err != nil {
		return fmt.Errorf("query common columns: %w", err)
	}
	common := strings.Join(columns, ", ")

	for _, step := range []struct{ msg, query string }{
		{"copying data", fmt.Sprintf("INSERT INTO %s (%s) SELECT %s FROM %s", tempName, common, common, table.name)},
		{"dropping old table", fmt.Sprintf("DROP TABLE %s", table.name)},
		{"renaming new table", fmt.Sprintf("ALTER TABLE %s RENAME TO %s", tempName, table.name)},
	} {
		if err = m.exec(ctx, step.msg, step.query); err != nil {
			return err
		}
	}
	return nil
}

// migrateEntities synchronises triggers or indexes. Changed entities are dropped and recreated.
func (m migration) migrateEntities(ctx context.Context, typ schemaType) error {
	keyword := strings.ToUpper(string(typ))

	deleted, err := m.queryStrings(ctx, `SELECT live.name
FROM sqlite_schema AS live
         LEFT JOIN schemaTarget.sqlite_schema AS target ON live.name = target.name AND live.type = target.type
WHERE live.type = ? AND target.type IS NULL AND live.name NOT LIKE 'sqlite_%'`, typ)
	if err != nil {
		return fmt.Errorf("query deleted: %w", err)
	}
	for _, name := range deleted {
		if err = m.exec(ctx, "dropping "+string(typ), fmt.Sprintf("DROP %s %s", keyword, name)); err != nil {
			return err
		}
	}

	created, err := m.queryCreated(ctx, typ)
	if err != nil {
		return fmt.Errorf("query created: %w", err)
	}
	for _, createSQL := range created {
		if err = m.exec(ctx, "creating "+string(typ), createSQL); err != nil {
			return err
		}
	}

	changed, err := m.queryChanged(ctx, typ, "live.sql <> target.sql")
	if err != nil {
		return fmt.Errorf("query changed: %w", err)
	}
	for _, c := range changed {
		if err = m.exec(ctx, "dropping changed "+string(typ), fmt.Sprintf("DROP %s %s", keyword, c.name)); err != nil {
			return err
		}
		if err = m.exec(ctx, "recreating changed "+string(typ), c.newSQL); err != nil {
			return err
		}
	}
	return nil
}

func (m migration) exec(ctx context.Context, msg string, query string) error {
	m.logger.LogAttrs(ctx, slog.LevelInfo, msg, slog.String("query", query))
	if _, err := m.tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("%s: %w", msg, err)
	}
	return nil
}

// queryCreated returns the SQL of entities of typ that only exist in the target schema.
func (m migration) queryCreated(ctx context.Context, typ schemaType) ([]string, error) {
	return m.queryStrings(ctx, `SELECT target.sql
FROM sqlite_schema AS live
         RIGHT JOIN schemaTarget.sqlite_schema AS target ON live.name = target.name AND live.type = target.type
WHERE target.type = ?
  AND live.type IS NULL
  AND target.name NOT LIKE 'sqlite_%'
  AND target.name NOT LIKE '_litestream_%'
  AND target.sql IS NOT NULL`, typ)
}

// queryStrings returns the first column of every row.
func (m migration) queryStrings(ctx context.Context, query string, args ...any) (_ []string, err error) {
	rows, err := m.tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("close rows: %w", closeErr))
		}
	}()
	var results []string
	for rows.Next() {
		var result string
		if err = rows.Scan(&result); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		results = append(results, result)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return results, nil
}

// queryChanged returns the entities of typ present in both schemas for which differs holds.
func (m migration) queryChanged(ctx context.Context, typ schemaType, differs string) (_ []changedSchema, err error) {
	rows, err := m.tx.QueryContext(ctx, `SELECT live.name, live.sql, target.sql
FROM sqlite_schema AS live
         JOIN schemaTarget.sqlite_schema AS target ON live.name = target.name AND live.type = target.type
WHERE live.type = ? AND `+ownedObjects+` AND `+differs, typ) //nolint:gosec // constant fragments only.
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("close rows: %w", closeErr))
		}
	}()
	var changed []changedSchema
	for rows.Next() {
		var c changedSchema
		if err = rows.Scan(&c.name, &c.liveSQL, &c.newSQL); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		changed = append(changed, c)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return changed, nil
}
