package user

import (
	"time"

	"github.com/authcore/authcore/internal/policy"
)

// User represents a row in the users table.
type User struct {
	ID        int64
	Name      string
	OrgID     string
	CreatedAt time.Time
}

// Ref is the compact user shape returned on team views.
type Ref struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Detail is a user together with its directly attached policies.
type Detail struct {
	User
	Policies []policy.Ref
}
