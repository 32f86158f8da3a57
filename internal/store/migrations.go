package store

import (
	"fmt"
)

type migration struct {
	Version     int
	Description string
	SQL         string
}

var migrations = []migration{
	{
		Version:     1,
		Description: "principals: activity and notification state per account",
		SQL: `
CREATE TABLE principals (
    id                   TEXT PRIMARY KEY,
    name                 TEXT NOT NULL DEFAULT '',
    email                TEXT NOT NULL DEFAULT '',

    -- Notification settings; threshold stays NULL until configured
    threshold_days       INTEGER CHECK (threshold_days IS NULL OR threshold_days > 0),
    beneficiary_name     TEXT NOT NULL DEFAULT '',
    beneficiary_contact  TEXT NOT NULL DEFAULT '',
    beneficiary_relation TEXT NOT NULL DEFAULT '',

    -- Episode state
    last_active_at       INTEGER,
    notified             INTEGER NOT NULL DEFAULT 0 CHECK (notified IN (0, 1)),
    notified_at          INTEGER,
    version              INTEGER NOT NULL DEFAULT 1,

    created_at           INTEGER NOT NULL,
    updated_at           INTEGER NOT NULL,

    CHECK (notified = 0 OR last_active_at IS NOT NULL)
);

CREATE INDEX idx_principals_candidates ON principals(notified, threshold_days);
`,
	},
	{
		Version:     2,
		Description: "deliveries: log of notification delivery attempts",
		SQL: `
CREATE TABLE deliveries (
    id           TEXT PRIMARY KEY,
    principal_id TEXT NOT NULL,
    cycle_id     TEXT NOT NULL,
    role         TEXT NOT NULL CHECK (role IN ('beneficiary', 'principal')),
    recipient    TEXT NOT NULL,
    subject      TEXT NOT NULL,
    status       TEXT NOT NULL CHECK (status IN ('sent', 'failed')),
    error        TEXT NOT NULL DEFAULT '',
    created_at   INTEGER NOT NULL,

    FOREIGN KEY (principal_id) REFERENCES principals(id) ON DELETE CASCADE
);

CREATE INDEX idx_deliveries_principal ON deliveries(principal_id, created_at DESC);
CREATE INDEX idx_deliveries_cycle     ON deliveries(cycle_id);
`,
	},
}

func (db *DB) migrate() error {
	// Create schema_versions table if it doesn't exist
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_versions (
			version     INTEGER PRIMARY KEY,
			description TEXT NOT NULL,
			applied_at  INTEGER NOT NULL DEFAULT (strftime('%s', 'now') * 1000)
		)
	`)
	if err != nil {
		return fmt.Errorf("create schema_versions: %w", err)
	}

	for _, m := range migrations {
		var count int
		err := db.QueryRow("SELECT COUNT(*) FROM schema_versions WHERE version = ?", m.Version).Scan(&count)
		if err != nil {
			return fmt.Errorf("check migration %d: %w", m.Version, err)
		}
		if count > 0 {
			continue
		}

		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", m.Version, err)
		}

		if _, err := tx.Exec(m.SQL); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d (%s): %w", m.Version, m.Description, err)
		}

		if _, err := tx.Exec(
			"INSERT INTO schema_versions (version, description) VALUES (?, ?)",
			m.Version, m.Description,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration %d: %w", m.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", m.Version, err)
		}
	}

	return nil
}

// SchemaVersion returns the current schema version.
func (db *DB) SchemaVersion() (int, error) {
	var version int
	err := db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_versions").Scan(&version)
	return version, err
}
