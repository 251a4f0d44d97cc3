package db

import (
	"database/sql"
	"fmt"
	"strings"
)

// Migrate runs all schema migrations.
func Migrate(db *sql.DB) error {
	for i, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			// Tolerate "duplicate column name" errors from ALTER TABLE
			// since the migration system re-runs all statements.
			if strings.Contains(err.Error(), "duplicate column name") {
				continue
			}
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	if err := migrateLegacyPredecessorColumn(db); err != nil {
		return fmt.Errorf("migrating legacy predecessor column: %w", err)
	}
	return nil
}

// migrateLegacyPredecessorColumn copies the single-string predecessor column
// of early schemas into predecessors. The repository normalizes either form
// on read, so the text is copied as is.
func migrateLegacyPredecessorColumn(db *sql.DB) error {
	has, err := hasColumn(db, "tasks", "predecessor")
	if err != nil || !has {
		return err
	}
	_, err = db.Exec(`UPDATE tasks SET predecessors = predecessor
		WHERE predecessors = '[]' AND predecessor IS NOT NULL AND TRIM(predecessor) != ''`)
	return err
}

func hasColumn(db *sql.DB, table, column string) (bool, error) {
	rows, err := db.Query(fmt.Sprintf(`PRAGMA table_info(%s)`, table))
	if err != nil {
		return false, fmt.Errorf("reading %s columns: %w", table, err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			cid       int
			name, typ string
			notNull   int
			dflt      sql.NullString
			pk        int
		)
		if err := rows.Scan(&cid, &name, &typ, &notNull, &dflt, &pk); err != nil {
			return false, err
		}
		if name == column {
			return true, nil
		}
	}
	return false, rows.Err()
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS projects (
		id         TEXT PRIMARY KEY,
		name       TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS tasks (
		id               TEXT PRIMARY KEY,
		project_id       TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		hierarchy_number TEXT NOT NULL,
		name             TEXT NOT NULL,
		start_date       TEXT NOT NULL,
		end_date         TEXT NOT NULL,
		duration         INTEGER NOT NULL DEFAULT 1,
		progress         INTEGER NOT NULL DEFAULT 0 CHECK(progress BETWEEN 0 AND 100),
		created_at       TEXT NOT NULL,
		updated_at       TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_tasks_project ON tasks(project_id)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_tasks_project_hierarchy ON tasks(project_id, hierarchy_number)`,

	// Project display codes
	`ALTER TABLE projects ADD COLUMN code TEXT NOT NULL DEFAULT ''`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_projects_code ON projects(code) WHERE code != ''`,

	// Predecessor lists (JSON array text) and opaque task metadata
	`ALTER TABLE tasks ADD COLUMN predecessors TEXT NOT NULL DEFAULT '[]'`,
	`ALTER TABLE tasks ADD COLUMN resources TEXT NOT NULL DEFAULT ''`,
	`ALTER TABLE tasks ADD COLUMN notes TEXT NOT NULL DEFAULT ''`,
}
