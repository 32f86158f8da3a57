package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNotFound is returned when no principal has the given id.
	ErrNotFound = errors.New("principal not found")

	// ErrExists is returned when registering an id that is already taken.
	ErrExists = errors.New("principal already registered")

	// ErrConflict is returned by MarkNotified when the record changed
	// after the sweep read it.
	ErrConflict = errors.New("principal changed since read")
)

// Principal is one registered account holder whose inactivity is tracked.
// Timestamps are unix milliseconds.
type Principal struct {
	ID    string
	Name  string
	Email string

	ThresholdDays       *int
	BeneficiaryName     string
	BeneficiaryContact  string
	BeneficiaryRelation string

	LastActiveAt *int64
	Notified     bool
	NotifiedAt   *int64
	Version      int64

	CreatedAt int64
	UpdatedAt int64
}

// LastActive returns the last recorded interaction, if any.
func (p *Principal) LastActive() (time.Time, bool) {
	if p.LastActiveAt == nil {
		return time.Time{}, false
	}
	return time.UnixMilli(*p.LastActiveAt), true
}

// Settings are the principal-controlled notification fields.
type Settings struct {
	ThresholdDays       int
	BeneficiaryName     string
	BeneficiaryContact  string
	BeneficiaryRelation string
}

const principalColumns = `id, name, email, threshold_days, beneficiary_name, beneficiary_contact,
	beneficiary_relation, last_active_at, notified, notified_at, version, created_at, updated_at`

// CreatePrincipal inserts a freshly registered principal: not notified,
// no activity yet, no threshold configured.
func (db *DB) CreatePrincipal(id, name, email string, now time.Time) (*Principal, error) {
	ts := now.UnixMilli()
	result, err := db.Exec(`
		INSERT INTO principals (id, name, email, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, id, name, email, ts, ts)
	if err != nil {
		return nil, fmt.Errorf("insert principal: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return nil, ErrExists
	}

	return &Principal{
		ID:        id,
		Name:      name,
		Email:     email,
		Version:   1,
		CreatedAt: ts,
		UpdatedAt: ts,
	}, nil
}

// GetPrincipal returns a principal by id, or ErrNotFound.
func (db *DB) GetPrincipal(id string) (*Principal, error) {
	row := db.QueryRow(`SELECT `+principalColumns+` FROM principals WHERE id = ?`, id)
	p, err := scanPrincipal(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get principal: %w", err)
	}
	return p, nil
}

// RecordActivity stamps the principal as active at now and re-arms the
// detector. Both fields change in one statement.
func (db *DB) RecordActivity(id string, now time.Time) error {
	ts := now.UnixMilli()
	result, err := db.Exec(`
		UPDATE principals
		SET last_active_at = ?, notified = 0, notified_at = NULL,
		    version = version + 1, updated_at = ?
		WHERE id = ?
	`, ts, ts, id)
	if err != nil {
		return fmt.Errorf("record activity: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateSettings replaces the notification settings and re-arms the
// detector in the same statement.
func (db *DB) UpdateSettings(id string, s Settings, now time.Time) error {
	result, err := db.Exec(`
		UPDATE principals
		SET threshold_days = ?, beneficiary_name = ?, beneficiary_contact = ?,
		    beneficiary_relation = ?, notified = 0, notified_at = NULL,
		    version = version + 1, updated_at = ?
		WHERE id = ?
	`, s.ThresholdDays, s.BeneficiaryName, s.BeneficiaryContact, s.BeneficiaryRelation, now.UnixMilli(), id)
	if err != nil {
		return fmt.Errorf("update settings: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// ListCandidates returns principals that have a threshold configured
// and have not been notified in their current episode.
func (db *DB) ListCandidates() ([]Principal, error) {
	rows, err := db.Query(`
		SELECT ` + principalColumns + ` FROM principals
		WHERE threshold_days IS NOT NULL AND notified = 0
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}
	defer rows.Close()

	var out []Principal
	for rows.Next() {
		p, err := scanPrincipal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan principal: %w", err)
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

// MarkNotified closes the principal's episode, but only if the record
// still carries the version the sweep read. A concurrent RecordActivity
// or UpdateSettings bumps the version and wins; the caller gets
// ErrConflict.
func (db *DB) MarkNotified(id string, version int64, now time.Time) error {
	ts := now.UnixMilli()
	result, err := db.Exec(`
		UPDATE principals
		SET notified = 1, notified_at = ?, version = version + 1, updated_at = ?
		WHERE id = ? AND version = ? AND notified = 0
	`, ts, ts, id, version)
	if err != nil {
		return fmt.Errorf("mark notified: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 1 {
		return nil
	}

	var exists int
	if err := db.QueryRow(`SELECT COUNT(*) FROM principals WHERE id = ?`, id).Scan(&exists); err != nil {
		return fmt.Errorf("mark notified: check principal: %w", err)
	}
	if exists == 0 {
		return ErrNotFound
	}
	return ErrConflict
}

// CountPrincipals returns the number of registered principals.
func (db *DB) CountPrincipals() (int, error) {
	var n int
	err := db.QueryRow(`SELECT COUNT(*) FROM principals`).Scan(&n)
	return n, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPrincipal(r rowScanner) (*Principal, error) {
	var (
		p         Principal
		threshold sql.NullInt64
		notified  int
	)
	err := r.Scan(&p.ID, &p.Name, &p.Email, &threshold, &p.BeneficiaryName, &p.BeneficiaryContact,
		&p.BeneficiaryRelation, &p.LastActiveAt, &notified, &p.NotifiedAt, &p.Version, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if threshold.Valid {
		d := int(threshold.Int64)
		p.ThresholdDays = &d
	}
	p.Notified = notified == 1
	return &p, nil
}
