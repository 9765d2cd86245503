package team

import (
	"context"
	"errors"

	"github.com/authcore/authcore/internal/policy"
	"github.com/authcore/authcore/internal/user"
)

// ErrTeamNotFound is returned when a team record is not found in the
// requested organization.
var ErrTeamNotFound = errors.New("team not found")

// Repository provides row-level operations on the teams table and the two
// link tables it owns (team_members, team_policies). Orchestration of
// multi-entity units of work lives in Service; every method here is a single
// statement (or read) so it composes inside a transaction.
type Repository interface {
	Insert(ctx context.Context, t *Team) error
	SetPath(ctx context.Context, id int64, p Path) error
	SetParent(ctx context.Context, id int64, parentID *int64) error
	GetByID(ctx context.Context, id int64, orgID string) (*Team, error)
	GetByIDAnyOrg(ctx context.Context, id int64) (*Team, error)
	ListOrg(ctx context.Context, orgID string) ([]Team, error)
	Update(ctx context.Context, id int64, orgID string, fields UpdateFields) (*Team, error)

	// Subtree operations select by path prefix: the target row plus every
	// row whose path extends it.
	SubtreeIDs(ctx context.Context, orgID string, prefix Path) ([]int64, error)
	RepathSubtree(ctx context.Context, orgID string, oldPrefix, newPath Path) error
	DeleteByIDs(ctx context.Context, ids []int64) error

	ReplaceMembers(ctx context.Context, teamID int64, userIDs []int64) error
	Members(ctx context.Context, teamID int64) ([]user.Ref, error)

	AddPolicies(ctx context.Context, teamID int64, policyIDs []int64) error
	ClearPolicies(ctx context.Context, teamID int64) error
	RemovePolicy(ctx context.Context, teamID, policyID int64) error
	Policies(ctx context.Context, teamID int64) ([]policy.Ref, error)
}
