package store

import (
	"testing"
)

func TestOpenMemory(t *testing.T) {
	db, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer db.Close()

	if db.Path != ":memory:" {
		t.Errorf("Path = %q, want :memory:", db.Path)
	}
}

func TestSchemaVersion(t *testing.T) {
	db, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer db.Close()

	v, err := db.SchemaVersion()
	if err != nil {
		t.Fatalf("SchemaVersion: %v", err)
	}
	if v != 2 {
		t.Errorf("SchemaVersion = %d, want 2", v)
	}
}

func TestTablesExist(t *testing.T) {
	db, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer db.Close()

	tables := []string{"schema_versions", "principals", "deliveries"}
	for _, table := range tables {
		var name string
		err := db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&name)
		if err != nil {
			t.Errorf("table %q not found: %v", table, err)
		}
	}
}

func TestPrincipalsConstraints(t *testing.T) {
	db, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer db.Close()

	// Valid insert
	_, err = db.Exec(`
		INSERT INTO principals (id, created_at, updated_at)
		VALUES ('alice@example.com', 1000, 1000)
	`)
	if err != nil {
		t.Fatalf("valid insert failed: %v", err)
	}

	// Non-positive threshold
	_, err = db.Exec(`
		INSERT INTO principals (id, threshold_days, created_at, updated_at)
		VALUES ('bob@example.com', 0, 1000, 1000)
	`)
	if err == nil {
		t.Error("expected error for zero threshold, got nil")
	}

	// Notified without any recorded activity
	_, err = db.Exec(`
		INSERT INTO principals (id, notified, created_at, updated_at)
		VALUES ('carol@example.com', 1, 1000, 1000)
	`)
	if err == nil {
		t.Error("expected error for notified principal without last_active_at, got nil")
	}
}

func TestDeliveriesConstraints(t *testing.T) {
	db, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer db.Close()

	db.Exec(`INSERT INTO principals (id, created_at, updated_at) VALUES ('alice@example.com', 1000, 1000)`)

	// Invalid role
	_, err = db.Exec(`
		INSERT INTO deliveries (id, principal_id, cycle_id, role, recipient, subject, status, created_at)
		VALUES ('d1', 'alice@example.com', 'c1', 'stranger', 'x@example.com', 's', 'sent', 1000)
	`)
	if err == nil {
		t.Error("expected error for invalid role, got nil")
	}

	// Unknown principal
	_, err = db.Exec(`
		INSERT INTO deliveries (id, principal_id, cycle_id, role, recipient, subject, status, created_at)
		VALUES ('d2', 'nobody', 'c1', 'principal', 'x@example.com', 's', 'sent', 1000)
	`)
	if err == nil {
		t.Error("expected foreign key error for unknown principal, got nil")
	}
}

func TestMigrationsIdempotent(t *testing.T) {
	db, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer db.Close()

	// Running migrate again should be a no-op
	if err := db.migrate(); err != nil {
		t.Fatalf("second migrate: %v", err)
	}

	v, err := db.SchemaVersion()
	if err != nil {
		t.Fatalf("SchemaVersion: %v", err)
	}
	if v != 2 {
		t.Errorf("SchemaVersion after re-migrate = %d, want 2", v)
	}
}

func TestWALMode(t *testing.T) {
	db, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer db.Close()

	var mode string
	err = db.QueryRow("PRAGMA journal_mode").Scan(&mode)
	if err != nil {
		t.Fatalf("PRAGMA journal_mode: %v", err)
	}
	// In-memory databases may use "memory" mode instead of WAL
	if mode != "wal" && mode != "memory" {
		t.Errorf("journal_mode = %q, want wal or memory", mode)
	}
}

func TestForeignKeysEnabled(t *testing.T) {
	db, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer db.Close()

	var fk int
	err = db.QueryRow("PRAGMA foreign_keys").Scan(&fk)
	if err != nil {
		t.Fatalf("PRAGMA foreign_keys: %v", err)
	}
	if fk != 1 {
		t.Errorf("foreign_keys = %d, want 1", fk)
	}
}
