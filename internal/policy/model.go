package policy

import (
	"fmt"
	"time"
)

// Policy represents a row in the policies table. Statements are opaque JSON;
// this service only manages how policies are associated with teams and
// users, never how statements evaluate.
type Policy struct {
	ID          int64
	Name        string
	Version     string
	OrgID       string
	OwnerTeamID *int64 // set when the policy is owned by a team and cascades with it
	Statements  []byte
	CreatedAt   time.Time
}

// Ref is the compact policy shape returned on team and user views.
type Ref struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Version string `json:"version"`
}

// DefaultAdminName returns the conventional name of the auto-provisioned
// admin policy for a team.
func DefaultAdminName(teamID int64) string {
	return fmt.Sprintf("Default Team Admin for %d", teamID)
}
