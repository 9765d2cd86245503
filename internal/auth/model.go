package auth

import (
	"time"

	"github.com/google/uuid"
)

// Account represents a row in the service_accounts table: a caller of the
// authorization API, distinct from the end-users managed by the user store.
type Account struct {
	ID           uuid.UUID
	Name         string
	IsAdmin      bool
	ApiKeyPrefix string
	ApiKeyHash   string
	CreatedAt    time.Time
	RevokedAt    *time.Time
}

// Identity is stored in the request context after authentication.
type Identity struct {
	AccountID uuid.UUID
	Name      string
	IsAdmin   bool
}
