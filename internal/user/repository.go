package user

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a user record is not found.
var ErrNotFound = errors.New("user not found")

// Repository provides operations on the users table and its attachment link
// tables. AttachPolicy and AttachToTeam are idempotent; attaching an existing
// pair is a no-op.
type Repository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id int64, orgID string) (*User, error)
	Read(ctx context.Context, id int64, orgID string) (*Detail, error)
	List(ctx context.Context, orgID string) ([]User, error)
	Delete(ctx context.Context, id int64, orgID string) error
	AttachPolicy(ctx context.Context, userID, policyID int64) error
	AttachToTeam(ctx context.Context, userID, teamID int64) error
	MissingIDs(ctx context.Context, ids []int64, orgID string) ([]int64, error)
}
