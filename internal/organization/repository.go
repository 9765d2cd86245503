package organization

import (
	"context"
	"errors"
)

// ErrNotFound is returned when an organization record is not found.
var ErrNotFound = errors.New("organization not found")

// ErrDuplicateID is returned when an organization with the same id already exists.
var ErrDuplicateID = errors.New("organization id already exists")

// ErrHasTeams is returned when attempting to delete an organization that
// still has teams (FK RESTRICT).
var ErrHasTeams = errors.New("organization has teams")

// Repository provides CRUD operations on the organizations table.
type Repository interface {
	Create(ctx context.Context, org *Organization) error
	GetByID(ctx context.Context, id string) (*Organization, error)
	List(ctx context.Context) ([]Organization, error)
	Delete(ctx context.Context, id string) error
}
