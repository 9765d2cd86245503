package organization

import "time"

// Organization represents a row in the organizations table. The id is a
// caller-chosen tenant identifier (e.g. "WONKA") and scopes every other
// entity in the system.
type Organization struct {
	ID          string
	Name        string
	Description string
	CreatedAt   time.Time
}
