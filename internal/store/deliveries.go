package store

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Delivery roles and statuses.
const (
	RoleBeneficiary = "beneficiary"
	RolePrincipal   = "principal"

	DeliverySent   = "sent"
	DeliveryFailed = "failed"
)

// Delivery is one attempt to send an episode notification.
type Delivery struct {
	ID          string
	PrincipalID string
	CycleID     string
	Role        string
	Recipient   string
	Subject     string
	Status      string
	Error       string
	CreatedAt   int64
}

// AddDelivery appends a delivery attempt to the log. ID is generated
// when empty.
func (db *DB) AddDelivery(d *Delivery, now time.Time) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	d.CreatedAt = now.UnixMilli()
	_, err := db.Exec(`
		INSERT INTO deliveries (id, principal_id, cycle_id, role, recipient, subject, status, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, d.ID, d.PrincipalID, d.CycleID, d.Role, d.Recipient, d.Subject, d.Status, d.Error, d.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert delivery: %w", err)
	}
	return nil
}

// GetDeliveries returns the most recent delivery attempts for a
// principal, newest first.
func (db *DB) GetDeliveries(principalID string, limit int) ([]Delivery, error) {
	rows, err := db.Query(`
		SELECT id, principal_id, cycle_id, role, recipient, subject, status, error, created_at
		FROM deliveries WHERE principal_id = ?
		ORDER BY created_at DESC, rowid DESC LIMIT ?
	`, principalID, limit)
	if err != nil {
		return nil, fmt.Errorf("get deliveries: %w", err)
	}
	defer rows.Close()

	var out []Delivery
	for rows.Next() {
		var d Delivery
		if err := rows.Scan(&d.ID, &d.PrincipalID, &d.CycleID, &d.Role, &d.Recipient, &d.Subject, &d.Status, &d.Error, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan delivery: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// CountDeliveries returns how many attempts with the given status were
// logged for a principal.
func (db *DB) CountDeliveries(principalID, status string) (int, error) {
	var n int
	err := db.QueryRow(`
		SELECT COUNT(*) FROM deliveries WHERE principal_id = ? AND status = ?
	`, principalID, status).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count deliveries: %w", err)
	}
	return n, nil
}
