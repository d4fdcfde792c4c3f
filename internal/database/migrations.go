package database

import "database/sql"

// Migration represents a single schema migration step.
type Migration struct {
	Version     int
	Description string
	Up          func(tx *sql.Tx) error
}

// migrations is the ordered list of all schema migrations.
// Append new migrations to the end with incrementing Version numbers.
var migrations = []Migration{
	{
		Version:     1,
		Description: "initial schema",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS charts (
    id TEXT PRIMARY KEY,
    user_id TEXT,
    pattern TEXT DEFAULT '',
    schema_version TEXT NOT NULL,
    chart_json TEXT NOT NULL,
    raw_json TEXT,
    created_at TEXT DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS match_stats (
    user_id TEXT NOT NULL,
    engine TEXT NOT NULL CHECK(engine IN ('bazi', 'time')),
    match_count INTEGER DEFAULT 0,
    verified_count INTEGER DEFAULT 0,
    updated_at TEXT DEFAULT (datetime('now')),
    PRIMARY KEY (user_id, engine)
);

CREATE INDEX IF NOT EXISTS idx_charts_user ON charts(user_id);
CREATE INDEX IF NOT EXISTS idx_charts_created ON charts(created_at);
CREATE INDEX IF NOT EXISTS idx_match_stats_engine ON match_stats(engine);
`)
			return err
		},
	},
}

// latestVersion returns the highest migration version number.
func latestVersion() int {
	if len(migrations) == 0 {
		return 0
	}
	return migrations[len(migrations)-1].Version
}
