package team

import (
	"time"

	"github.com/authcore/authcore/internal/policy"
	"github.com/authcore/authcore/internal/user"
)

// Team represents a row in the teams table.
type Team struct {
	ID          int64
	Name        string
	Description string
	OrgID       string
	ParentID    *int64 // nil for root teams
	Path        Path
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// View is a team with its resolved membership and policy set, the shape
// returned by every read and by every mutation.
type View struct {
	Team
	Users    []user.Ref
	Policies []policy.Ref
}

// UpdateFields holds the partially updatable team columns. Nil fields are
// left untouched.
type UpdateFields struct {
	Name        *string
	Description *string
}
