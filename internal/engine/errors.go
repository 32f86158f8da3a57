package engine

import "fmt"

// StorageError reports that the activity store was unreachable or
// returned an inconsistent result.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string { return fmt.Sprintf("storage: %s: %v", e.Op, e.Err) }
func (e *StorageError) Unwrap() error { return e.Err }

// DeliveryError reports a failed send. It never reaches an end user; the
// sweep retries the whole episode on the next cycle.
type DeliveryError struct {
	PrincipalID string
	Role        string
	Recipient   string
	Err         error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("delivery to %s %s for %s: %v", e.Role, e.Recipient, e.PrincipalID, e.Err)
}
func (e *DeliveryError) Unwrap() error { return e.Err }

// ConfigurationError rejects invalid notification settings before they
// are written.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
