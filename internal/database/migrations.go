package database

import (
	"database/sql"
)

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS builds (
		id TEXT PRIMARY KEY,
		app_name TEXT NOT NULL,
		output_path TEXT NOT NULL,
		built_at TEXT NOT NULL,
		compiler_version TEXT NOT NULL,
		git_author TEXT NOT NULL,
		git_commit TEXT NOT NULL,
		version TEXT NOT NULL,
		web_version TEXT NOT NULL,
		status TEXT NOT NULL,
		exit_code INTEGER NOT NULL,
		output TEXT,
		hostname TEXT,
		os TEXT,
		platform TEXT,
		cpus INTEGER DEFAULT 0,
		started_at DATETIME NOT NULL,
		finished_at DATETIME NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,

	`CREATE INDEX IF NOT EXISTS idx_builds_started_at ON builds(started_at)`,
	`CREATE INDEX IF NOT EXISTS idx_builds_status ON builds(status)`,
	`CREATE INDEX IF NOT EXISTS idx_builds_git_commit ON builds(git_commit)`,
}

func runMigrations(db *sql.DB) error {
	for _, migration := range migrations {
		if _, err := db.Exec(migration); err != nil {
			return err
		}
	}
	return nil
}
