package team

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/authcore/authcore/internal/organization"
	"github.com/authcore/authcore/internal/policy"
	"github.com/authcore/authcore/internal/store"
	"github.com/authcore/authcore/internal/user"
)

// ErrMissingOrganization is returned when a request carries no organization id.
var ErrMissingOrganization = errors.New("organization id is required")

// ErrCrossOrganization is returned when a parent reference points at a team
// in a different organization.
var ErrCrossOrganization = errors.New("parent team belongs to a different organization")

// ErrCycle is returned when a move would place a team under itself or one of
// its own descendants.
var ErrCycle = errors.New("move would create a cycle")

// ErrUnknownPolicies is returned when a policy-set mutation references a
// policy id that does not exist in the organization.
var ErrUnknownPolicies = errors.New("one or more policies do not exist in the organization")

// ErrUnknownUsers is returned when a membership replacement references a
// user id that does not exist in the organization.
var ErrUnknownUsers = errors.New("one or more users do not exist in the organization")

// CreateRequest is the input to Create.
type CreateRequest struct {
	Name        string
	Description string
	ParentID    *int64
	OrgID       string
	AdminUser   *AdminUserSpec
}

// AdminUserSpec requests provisioning of an admin user alongside the team.
type AdminUserSpec struct {
	Name string
}

// CreateOptions controls Create side effects.
type CreateOptions struct {
	// CreateOnly suppresses creation of the default admin policy.
	CreateOnly bool
}

// UpdateRequest is the input to Update. Nil fields are left untouched; a
// non-nil Users slice replaces the entire membership set.
type UpdateRequest struct {
	ID          int64
	OrgID       string
	Name        *string
	Description *string
	Users       []int64
}

// Engine is the surface the API layer consumes: the team lifecycle
// operations plus the policy-set operations.
type Engine interface {
	Create(ctx context.Context, req CreateRequest, opts CreateOptions) (*View, error)
	Read(ctx context.Context, id int64, orgID string) (*View, error)
	Update(ctx context.Context, req UpdateRequest) (*View, error)
	Move(ctx context.Context, id int64, parentID *int64, orgID string) (*View, error)
	Delete(ctx context.Context, id int64, orgID string) error
	ListOrg(ctx context.Context, orgID string) ([]Team, error)

	ReplacePolicies(ctx context.Context, teamID int64, orgID string, policyIDs []int64) ([]policy.Ref, error)
	AddPolicies(ctx context.Context, teamID int64, orgID string, policyIDs []int64) ([]policy.Ref, error)
	ClearPolicies(ctx context.Context, teamID int64, orgID string) ([]policy.Ref, error)
	RemovePolicy(ctx context.Context, teamID, policyID int64, orgID string) ([]policy.Ref, error)
}

// Service is the team hierarchy engine. It owns path computation, the
// move and cascade-delete algorithms, and orchestrates multi-entity side
// effects as single transactions. It holds no state between calls; all
// state lives in the backing store.
type Service struct {
	pool *pgxpool.Pool
}

// NewService creates a Service on the given connection pool.
func NewService(pool *pgxpool.Pool) *Service {
	return &Service{pool: pool}
}

var _ Engine = (*Service)(nil)

// Create inserts a team, computes its path from the parent's stored path,
// and unless opts.CreateOnly provisions the default admin policy (owned by
// the team, attached to it). When req.AdminUser is set, the admin user is
// created, added to the membership, and given the default policy directly.
// All of it commits or rolls back as one unit.
func (s *Service) Create(ctx context.Context, req CreateRequest, opts CreateOptions) (*View, error) {
	if req.OrgID == "" {
		return nil, ErrMissingOrganization
	}

	var view *View
	err := store.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		teams := NewRepository(tx)

		if _, err := organization.NewRepository(tx).GetByID(ctx, req.OrgID); err != nil {
			return err
		}

		var parentPath Path
		if req.ParentID != nil {
			parent, err := teams.GetByIDAnyOrg(ctx, *req.ParentID)
			if err != nil {
				return fmt.Errorf("looking up parent: %w", err)
			}
			if parent.OrgID != req.OrgID {
				return ErrCrossOrganization
			}
			parentPath = parent.Path
		}

		t := &Team{
			Name:        req.Name,
			Description: req.Description,
			OrgID:       req.OrgID,
			ParentID:    req.ParentID,
		}
		if err := teams.Insert(ctx, t); err != nil {
			return err
		}

		t.Path = parentPath.Child(t.ID)
		if err := teams.SetPath(ctx, t.ID, t.Path); err != nil {
			return err
		}

		var defaultPolicyID *int64
		if !opts.CreateOnly {
			pol := &policy.Policy{
				Name:        policy.DefaultAdminName(t.ID),
				OrgID:       req.OrgID,
				OwnerTeamID: &t.ID,
			}
			if err := policy.NewRepository(tx).Create(ctx, pol); err != nil {
				return err
			}
			if err := teams.AddPolicies(ctx, t.ID, []int64{pol.ID}); err != nil {
				return err
			}
			defaultPolicyID = &pol.ID
		}

		if req.AdminUser != nil {
			users := user.NewRepository(tx)
			admin := &user.User{Name: req.AdminUser.Name, OrgID: req.OrgID}
			if err := users.Create(ctx, admin); err != nil {
				return err
			}
			if err := users.AttachToTeam(ctx, admin.ID, t.ID); err != nil {
				return err
			}
			if defaultPolicyID != nil {
				if err := users.AttachPolicy(ctx, admin.ID, *defaultPolicyID); err != nil {
					return err
				}
			}
		}

		v, err := s.view(ctx, teams, t)
		if err != nil {
			return err
		}
		view = v
		return nil
	})
	if err != nil {
		return nil, err
	}

	return view, nil
}

// Read returns the team with its resolved users and policies.
func (s *Service) Read(ctx context.Context, id int64, orgID string) (*View, error) {
	teams := NewRepository(s.pool)

	t, err := teams.GetByID(ctx, id, orgID)
	if err != nil {
		return nil, err
	}

	return s.view(ctx, teams, t)
}

// Update applies a partial update. Only non-nil fields change; a non-nil
// Users slice replaces the entire membership set in the same transaction.
func (s *Service) Update(ctx context.Context, req UpdateRequest) (*View, error) {
	if req.OrgID == "" {
		return nil, ErrMissingOrganization
	}

	var view *View
	err := store.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		teams := NewRepository(tx)

		t, err := teams.Update(ctx, req.ID, req.OrgID, UpdateFields{
			Name:        req.Name,
			Description: req.Description,
		})
		if err != nil {
			return err
		}

		if req.Users != nil {
			missing, err := user.NewRepository(tx).MissingIDs(ctx, req.Users, req.OrgID)
			if err != nil {
				return err
			}
			if len(missing) > 0 {
				return fmt.Errorf("%w: %v", ErrUnknownUsers, missing)
			}
			if err := teams.ReplaceMembers(ctx, req.ID, req.Users); err != nil {
				return err
			}
		}

		v, err := s.view(ctx, teams, t)
		if err != nil {
			return err
		}
		view = v
		return nil
	})
	if err != nil {
		return nil, err
	}

	return view, nil
}

// Move re-parents a team (or detaches it to root when parentID is nil) and
// rewrites the path of the entire subtree in one bulk statement. The cycle
// check runs on path prefixes before anything is written.
func (s *Service) Move(ctx context.Context, id int64, parentID *int64, orgID string) (*View, error) {
	if orgID == "" {
		return nil, ErrMissingOrganization
	}

	var view *View
	err := store.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		teams := NewRepository(tx)

		t, err := teams.GetByID(ctx, id, orgID)
		if err != nil {
			return err
		}

		var newPath Path
		if parentID != nil {
			if *parentID == id {
				return ErrCycle
			}
			parent, err := teams.GetByID(ctx, *parentID, orgID)
			if err != nil {
				return fmt.Errorf("looking up new parent: %w", err)
			}
			if parent.Path.HasPrefix(t.Path) {
				return ErrCycle
			}
			newPath = parent.Path.Child(id)
		} else {
			newPath = Path{id}
		}

		if err := teams.RepathSubtree(ctx, orgID, t.Path, newPath); err != nil {
			return err
		}
		if err := teams.SetParent(ctx, id, parentID); err != nil {
			return err
		}

		moved, err := teams.GetByID(ctx, id, orgID)
		if err != nil {
			return err
		}

		v, err := s.view(ctx, teams, moved)
		if err != nil {
			return err
		}
		view = v
		return nil
	})
	if err != nil {
		return nil, err
	}

	return view, nil
}

// Delete removes the team and every descendant, together with all policies
// owned by the deleted teams and all link rows referencing them, as one
// transaction.
func (s *Service) Delete(ctx context.Context, id int64, orgID string) error {
	if orgID == "" {
		return ErrMissingOrganization
	}

	return store.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		teams := NewRepository(tx)

		t, err := teams.GetByID(ctx, id, orgID)
		if err != nil {
			return err
		}

		ids, err := teams.SubtreeIDs(ctx, orgID, t.Path)
		if err != nil {
			return err
		}

		if err := policy.NewRepository(tx).DeleteByOwnerTeams(ctx, ids); err != nil {
			return err
		}

		return teams.DeleteByIDs(ctx, ids)
	})
}

// ListOrg returns all teams of an organization.
func (s *Service) ListOrg(ctx context.Context, orgID string) ([]Team, error) {
	if orgID == "" {
		return nil, ErrMissingOrganization
	}
	return NewRepository(s.pool).ListOrg(ctx, orgID)
}

// ReplacePolicies overwrites the team's policy set with exactly the given
// ids.
func (s *Service) ReplacePolicies(ctx context.Context, teamID int64, orgID string, policyIDs []int64) ([]policy.Ref, error) {
	return s.mutatePolicies(ctx, teamID, orgID, policyIDs, func(ctx context.Context, teams Repository, ids []int64) error {
		if err := teams.ClearPolicies(ctx, teamID); err != nil {
			return err
		}
		return teams.AddPolicies(ctx, teamID, ids)
	})
}

// AddPolicies unions the given ids into the team's policy set. Adding an
// already-present id is a no-op for that id.
func (s *Service) AddPolicies(ctx context.Context, teamID int64, orgID string, policyIDs []int64) ([]policy.Ref, error) {
	return s.mutatePolicies(ctx, teamID, orgID, policyIDs, func(ctx context.Context, teams Repository, ids []int64) error {
		return teams.AddPolicies(ctx, teamID, ids)
	})
}

// ClearPolicies removes the team's entire policy set.
func (s *Service) ClearPolicies(ctx context.Context, teamID int64, orgID string) ([]policy.Ref, error) {
	var refs []policy.Ref
	err := store.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		teams := NewRepository(tx)

		if _, err := teams.GetByID(ctx, teamID, orgID); err != nil {
			return err
		}
		if err := teams.ClearPolicies(ctx, teamID); err != nil {
			return err
		}

		var err error
		refs, err = teams.Policies(ctx, teamID)
		return err
	})
	if err != nil {
		return nil, err
	}

	return refs, nil
}

// RemovePolicy removes a single policy id from the team's set. Absence of
// the association is not an error.
func (s *Service) RemovePolicy(ctx context.Context, teamID, policyID int64, orgID string) ([]policy.Ref, error) {
	var refs []policy.Ref
	err := store.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		teams := NewRepository(tx)

		if _, err := teams.GetByID(ctx, teamID, orgID); err != nil {
			return err
		}
		if err := teams.RemovePolicy(ctx, teamID, policyID); err != nil {
			return err
		}

		var err error
		refs, err = teams.Policies(ctx, teamID)
		return err
	})
	if err != nil {
		return nil, err
	}

	return refs, nil
}

// mutatePolicies is the shared shell of ReplacePolicies and AddPolicies:
// check the team, verify every referenced policy exists in the organization,
// apply the mutation, return the resulting set.
func (s *Service) mutatePolicies(ctx context.Context, teamID int64, orgID string, policyIDs []int64, apply func(context.Context, Repository, []int64) error) ([]policy.Ref, error) {
	if orgID == "" {
		return nil, ErrMissingOrganization
	}

	ids := dedupe(policyIDs)

	var refs []policy.Ref
	err := store.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		teams := NewRepository(tx)

		if _, err := teams.GetByID(ctx, teamID, orgID); err != nil {
			return err
		}

		found, err := policy.NewRepository(tx).GetByIDs(ctx, ids, orgID)
		if err != nil {
			return err
		}
		if len(found) != len(ids) {
			return ErrUnknownPolicies
		}

		if err := apply(ctx, teams, ids); err != nil {
			return err
		}

		refs, err = teams.Policies(ctx, teamID)
		return err
	})
	if err != nil {
		return nil, err
	}

	return refs, nil
}

// view resolves the full team view using the same Querier as the caller, so
// reads inside a transaction see that transaction's writes.
func (s *Service) view(ctx context.Context, teams Repository, t *Team) (*View, error) {
	members, err := teams.Members(ctx, t.ID)
	if err != nil {
		return nil, err
	}

	refs, err := teams.Policies(ctx, t.ID)
	if err != nil {
		return nil, err
	}

	return &View{Team: *t, Users: members, Policies: refs}, nil
}

func dedupe(ids []int64) []int64 {
	seen := make(map[int64]bool, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
