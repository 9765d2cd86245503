package auth

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrAccountNotFound is returned when a service account record is not found.
var ErrAccountNotFound = errors.New("service account not found")

// AccountRepository provides operations on the service_accounts table.
type AccountRepository interface {
	Create(ctx context.Context, a *Account) error
	GetByID(ctx context.Context, id uuid.UUID) (*Account, error)
	FindByPrefix(ctx context.Context, prefix string) ([]Account, error)
	Revoke(ctx context.Context, id uuid.UUID) error
	CountAll(ctx context.Context) (int, error)
}
