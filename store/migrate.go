package store

import (
	"database/sql"
	"fmt"
)

// migrations run in order; user_version records how many have been applied.
// Never edit an existing entry, always append.
var migrations = []string{
	`
	CREATE TABLE project (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		logline TEXT NOT NULL DEFAULT '',
		style TEXT NOT NULL DEFAULT '',
		script TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	);
	CREATE TABLE character (
		id TEXT PRIMARY KEY,
		project_id TEXT NOT NULL REFERENCES project(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		prompt_fragment TEXT NOT NULL DEFAULT '',
		sheet_path TEXT NOT NULL DEFAULT ''
	);
	CREATE TABLE scene (
		id TEXT PRIMARY KEY,
		project_id TEXT NOT NULL REFERENCES project(id) ON DELETE CASCADE,
		idx INTEGER NOT NULL,
		heading TEXT NOT NULL DEFAULT '',
		summary TEXT NOT NULL DEFAULT '',
		body TEXT NOT NULL DEFAULT '',
		prompt TEXT NOT NULL DEFAULT '',
		image_path TEXT NOT NULL DEFAULT ''
	);
	CREATE TABLE shot (
		id TEXT PRIMARY KEY,
		scene_id TEXT NOT NULL REFERENCES scene(id) ON DELETE CASCADE,
		project_id TEXT NOT NULL REFERENCES project(id) ON DELETE CASCADE,
		idx INTEGER NOT NULL,
		size TEXT NOT NULL DEFAULT '',
		movement TEXT NOT NULL DEFAULT '',
		image_prompt TEXT NOT NULL DEFAULT '',
		video_prompt TEXT NOT NULL DEFAULT '',
		narration TEXT NOT NULL DEFAULT '',
		image_path TEXT NOT NULL DEFAULT '',
		video_path TEXT NOT NULL DEFAULT '',
		audio_path TEXT NOT NULL DEFAULT '',
		duration_sec REAL NOT NULL DEFAULT 0
	);
	CREATE TABLE task (
		id TEXT PRIMARY KEY,
		project_id TEXT NOT NULL,
		shot_id TEXT NOT NULL DEFAULT '',
		type TEXT NOT NULL,
		status TEXT NOT NULL,
		progress INTEGER NOT NULL DEFAULT 0,
		message TEXT NOT NULL DEFAULT '',
		result_path TEXT NOT NULL DEFAULT '',
		error TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	);
	CREATE INDEX idx_scene_project ON scene(project_id, idx);
	CREATE INDEX idx_shot_scene ON shot(scene_id, idx);
	CREATE INDEX idx_shot_project ON shot(project_id);
	CREATE INDEX idx_task_project ON task(project_id);
	CREATE INDEX idx_task_shot_status ON task(shot_id, status);
	`,
}

func runMigrations(db *sql.DB) error {
	var version int
	if err := db.QueryRow(`PRAGMA user_version`).Scan(&version); err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	if version > len(migrations) {
		return fmt.Errorf("database schema version %d is newer than this build supports (%d)", version, len(migrations))
	}

	for i := version; i < len(migrations); i++ {
		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("failed to begin migration %d: %w", i+1, err)
		}
		if _, err := tx.Exec(migrations[i]); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
		// PRAGMA cannot take a bound parameter.
		if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", i+1)); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to bump schema version to %d: %w", i+1, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", i+1, err)
		}
	}
	return nil
}
