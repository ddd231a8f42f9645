package db

import "fmt"

// SchemaSQL is the complete schema for fresh conductor installs.
//
// This is the SINGLE SOURCE OF TRUTH for the database schema. All tests use
// this schema via GetSchemaSQL(): if repository code references a column that
// does not exist here, tests fail immediately with "no such column".
const SchemaSQL = `
-- Tracks (units of implementation work)
CREATE TABLE IF NOT EXISTS tracks (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	description TEXT,
	status TEXT NOT NULL CHECK(status IN ('new', 'in_progress', 'completed', 'paused', 'needs_patch')) DEFAULT 'new',
	wave INTEGER DEFAULT 0,
	complexity TEXT NOT NULL CHECK(complexity IN ('S', 'M', 'L', 'XL')) DEFAULT 'M',
	interfaces_owned TEXT,
	interfaces_consumed TEXT,
	constraint_created INTEGER NOT NULL DEFAULT 0,
	constraint_current INTEGER NOT NULL DEFAULT 0,
	phases_complete INTEGER NOT NULL DEFAULT 0,
	test_command TEXT,
	test_timeout_seconds INTEGER DEFAULT 300,
	quality_pass_rate REAL DEFAULT 0,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	completed_at DATETIME
);

-- Dependency edges (track depends on depends_on)
CREATE TABLE IF NOT EXISTS track_dependencies (
	track_id TEXT NOT NULL,
	depends_on_id TEXT NOT NULL,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (track_id, depends_on_id),
	FOREIGN KEY (track_id) REFERENCES tracks(id),
	FOREIGN KEY (depends_on_id) REFERENCES tracks(id)
);

-- Patches (retroactive compliance units on completed tracks)
CREATE TABLE IF NOT EXISTS patches (
	id TEXT PRIMARY KEY,
	track_id TEXT NOT NULL,
	constraint_version INTEGER NOT NULL,
	blocks_wave INTEGER NOT NULL,
	depends_on TEXT,
	description TEXT,
	status TEXT NOT NULL CHECK(status IN ('open', 'completed')) DEFAULT 'open',
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	completed_at DATETIME,
	FOREIGN KEY (track_id) REFERENCES tracks(id)
);

-- Override log (audited gate overrides, append only)
CREATE TABLE IF NOT EXISTS override_log (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	track_id TEXT NOT NULL,
	check_name TEXT NOT NULL,
	reason TEXT NOT NULL,
	actor TEXT NOT NULL,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY (track_id) REFERENCES tracks(id)
);

-- Discoveries (immutable facts; status flip pending -> processed is the commit point)
CREATE TABLE IF NOT EXISTS discoveries (
	id TEXT PRIMARY KEY,
	source_track_id TEXT NOT NULL,
	description TEXT NOT NULL,
	classification TEXT NOT NULL CHECK(classification IN ('new_track', 'track_extension', 'new_dependency', 'constraint_change', 'structural_change', 'interface_mismatch')),
	suggested_scope TEXT,
	affected_tracks TEXT,
	urgency TEXT NOT NULL CHECK(urgency IN ('blocking', 'next_wave', 'backlog')) DEFAULT 'backlog',
	status TEXT NOT NULL CHECK(status IN ('pending', 'processed')) DEFAULT 'pending',
	action TEXT,
	duplicate_of TEXT,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	processed_at DATETIME
);

-- Constraint set (append-only, monotonically versioned)
CREATE TABLE IF NOT EXISTS constraint_versions (
	version INTEGER PRIMARY KEY AUTOINCREMENT,
	text TEXT NOT NULL,
	source_discovery_id TEXT,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_tracks_wave ON tracks(wave);
CREATE INDEX IF NOT EXISTS idx_tracks_status ON tracks(status);
CREATE INDEX IF NOT EXISTS idx_discoveries_status ON discoveries(status, created_at);
CREATE INDEX IF NOT EXISTS idx_patches_track ON patches(track_id);
`

// InitSchema creates all tables if they don't exist
func InitSchema() error {
	database, err := GetDB()
	if err != nil {
		return err
	}

	if _, err := database.Exec(SchemaSQL); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

// GetSchemaSQL returns the authoritative schema SQL for use by tests.
// Tests must never hardcode CREATE TABLE statements.
func GetSchemaSQL() string {
	return SchemaSQL
}
