package policy

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a policy record is not found.
var ErrNotFound = errors.New("policy not found")

// Repository provides operations on the policies table. GetByIDs and
// ListByOrganization return the compact Ref shape used on team and user
// views; GetByID returns the full record including statements.
type Repository interface {
	Create(ctx context.Context, p *Policy) error
	GetByID(ctx context.Context, id int64, orgID string) (*Policy, error)
	GetByIDs(ctx context.Context, ids []int64, orgID string) ([]Ref, error)
	ListByOrganization(ctx context.Context, orgID string) ([]Ref, error)
	Delete(ctx context.Context, id int64, orgID string) error
	DeleteByOwnerTeams(ctx context.Context, teamIDs []int64) error
}
