package team

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/authcore/authcore/internal/policy"
	"github.com/authcore/authcore/internal/store"
	"github.com/authcore/authcore/internal/user"
)

// PostgresRepository implements Repository using a pgx Querier.
type PostgresRepository struct {
	db store.Querier
}

// NewRepository creates a new Repository backed by the given Querier. Pass a
// pgx.Tx to scope all operations to a transaction.
func NewRepository(db store.Querier) Repository {
	return &PostgresRepository{db: db}
}

const teamColumns = `id, name, description, org_id, parent_id, path, created_at, updated_at`

// Insert creates a new team row. The path is written afterwards via SetPath,
// once the generated id is known.
func (r *PostgresRepository) Insert(ctx context.Context, t *Team) error {
	query := `
		INSERT INTO teams (name, description, org_id, parent_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRow(ctx, query, t.Name, t.Description, t.OrgID, t.ParentID).
		Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("inserting team: %w", err)
	}

	return nil
}

// SetPath writes the materialized path of a single team.
func (r *PostgresRepository) SetPath(ctx context.Context, id int64, p Path) error {
	query := `UPDATE teams SET path = $1 WHERE id = $2`

	result, err := r.db.Exec(ctx, query, p.String(), id)
	if err != nil {
		return fmt.Errorf("setting team path: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrTeamNotFound
	}

	return nil
}

// SetParent updates a team's parent reference.
func (r *PostgresRepository) SetParent(ctx context.Context, id int64, parentID *int64) error {
	query := `UPDATE teams SET parent_id = $1, updated_at = NOW() WHERE id = $2`

	result, err := r.db.Exec(ctx, query, parentID, id)
	if err != nil {
		return fmt.Errorf("setting team parent: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrTeamNotFound
	}

	return nil
}

// GetByID retrieves a single team by id within an organization.
func (r *PostgresRepository) GetByID(ctx context.Context, id int64, orgID string) (*Team, error) {
	query := fmt.Sprintf(`SELECT %s FROM teams WHERE id = $1 AND org_id = $2`, teamColumns)
	return r.scanOne(ctx, query, id, orgID)
}

// GetByIDAnyOrg retrieves a team by id regardless of organization. Used only
// to distinguish a cross-organization parent reference from a missing one.
func (r *PostgresRepository) GetByIDAnyOrg(ctx context.Context, id int64) (*Team, error) {
	query := fmt.Sprintf(`SELECT %s FROM teams WHERE id = $1`, teamColumns)
	return r.scanOne(ctx, query, id)
}

// ListOrg retrieves all teams of an organization ordered by id.
func (r *PostgresRepository) ListOrg(ctx context.Context, orgID string) ([]Team, error) {
	query := fmt.Sprintf(`SELECT %s FROM teams WHERE org_id = $1 ORDER BY id ASC`, teamColumns)

	rows, err := r.db.Query(ctx, query, orgID)
	if err != nil {
		return nil, fmt.Errorf("listing teams: %w", err)
	}
	defer rows.Close()

	var teams []Team
	for rows.Next() {
		t, err := scanTeam(rows)
		if err != nil {
			return nil, err
		}
		teams = append(teams, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating team rows: %w", err)
	}

	if teams == nil {
		teams = []Team{}
	}

	return teams, nil
}

// Update modifies name and/or description. Nil fields are left untouched;
// path and the policy set are never affected.
func (r *PostgresRepository) Update(ctx context.Context, id int64, orgID string, fields UpdateFields) (*Team, error) {
	var setClauses []string
	var args []any
	argIdx := 1

	if fields.Name != nil {
		setClauses = append(setClauses, fmt.Sprintf("name = $%d", argIdx))
		args = append(args, *fields.Name)
		argIdx++
	}
	if fields.Description != nil {
		setClauses = append(setClauses, fmt.Sprintf("description = $%d", argIdx))
		args = append(args, *fields.Description)
		argIdx++
	}

	if len(setClauses) == 0 {
		return r.GetByID(ctx, id, orgID)
	}

	setClauses = append(setClauses, "updated_at = NOW()")

	args = append(args, id, orgID)

	query := fmt.Sprintf(`
		UPDATE teams
		SET %s
		WHERE id = $%d AND org_id = $%d
		RETURNING %s`,
		strings.Join(setClauses, ", "), argIdx, argIdx+1, teamColumns)

	return r.scanOne(ctx, query, args...)
}

// SubtreeIDs returns the ids of every team whose path is the given prefix or
// extends it, i.e. the team itself plus all descendants.
func (r *PostgresRepository) SubtreeIDs(ctx context.Context, orgID string, prefix Path) ([]int64, error) {
	query := `
		SELECT id FROM teams
		WHERE org_id = $1 AND (path = $2 OR path LIKE $2 || '.%')`

	rows, err := r.db.Query(ctx, query, orgID, prefix.String())
	if err != nil {
		return nil, fmt.Errorf("querying subtree: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning subtree id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating subtree ids: %w", err)
	}

	return ids, nil
}

// RepathSubtree rewrites the paths of a whole subtree in one statement: the
// row whose path equals oldPrefix gets newPath, and every descendant keeps
// its suffix beyond oldPrefix appended to newPath. A single bulk UPDATE
// keeps the rewrite atomic with respect to concurrent readers.
func (r *PostgresRepository) RepathSubtree(ctx context.Context, orgID string, oldPrefix, newPath Path) error {
	query := `
		UPDATE teams
		SET path = $3 || substr(path, char_length($2) + 1), updated_at = NOW()
		WHERE org_id = $1 AND (path = $2 OR path LIKE $2 || '.%')`

	result, err := r.db.Exec(ctx, query, orgID, oldPrefix.String(), newPath.String())
	if err != nil {
		return fmt.Errorf("repathing subtree: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrTeamNotFound
	}

	return nil
}

// DeleteByIDs removes the given team rows. Membership and policy link rows
// go with them via ON DELETE CASCADE.
func (r *PostgresRepository) DeleteByIDs(ctx context.Context, ids []int64) error {
	query := `DELETE FROM teams WHERE id = ANY($1)`

	if _, err := r.db.Exec(ctx, query, ids); err != nil {
		return fmt.Errorf("deleting teams: %w", err)
	}

	return nil
}

// ReplaceMembers overwrites the team's entire membership set.
func (r *PostgresRepository) ReplaceMembers(ctx context.Context, teamID int64, userIDs []int64) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM team_members WHERE team_id = $1`, teamID); err != nil {
		return fmt.Errorf("clearing team members: %w", err)
	}

	if len(userIDs) == 0 {
		return nil
	}

	query := `
		INSERT INTO team_members (team_id, user_id)
		SELECT $1, unnest($2::bigint[])
		ON CONFLICT DO NOTHING`

	if _, err := r.db.Exec(ctx, query, teamID, userIDs); err != nil {
		return fmt.Errorf("inserting team members: %w", err)
	}

	return nil
}

// Members returns the team's membership as {id, name} refs ordered by id.
func (r *PostgresRepository) Members(ctx context.Context, teamID int64) ([]user.Ref, error) {
	query := `
		SELECT u.id, u.name
		FROM users u
		JOIN team_members tm ON tm.user_id = u.id
		WHERE tm.team_id = $1
		ORDER BY u.id ASC`

	rows, err := r.db.Query(ctx, query, teamID)
	if err != nil {
		return nil, fmt.Errorf("querying team members: %w", err)
	}
	defer rows.Close()

	members := []user.Ref{}
	for rows.Next() {
		var ref user.Ref
		if err := rows.Scan(&ref.ID, &ref.Name); err != nil {
			return nil, fmt.Errorf("scanning member row: %w", err)
		}
		members = append(members, ref)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating member rows: %w", err)
	}

	return members, nil
}

// AddPolicies unions the given policy ids into the team's policy set.
// Already-present ids are a no-op.
func (r *PostgresRepository) AddPolicies(ctx context.Context, teamID int64, policyIDs []int64) error {
	if len(policyIDs) == 0 {
		return nil
	}

	query := `
		INSERT INTO team_policies (team_id, policy_id)
		SELECT $1, unnest($2::bigint[])
		ON CONFLICT DO NOTHING`

	if _, err := r.db.Exec(ctx, query, teamID, policyIDs); err != nil {
		return fmt.Errorf("adding team policies: %w", err)
	}

	return nil
}

// ClearPolicies removes the team's entire policy set.
func (r *PostgresRepository) ClearPolicies(ctx context.Context, teamID int64) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM team_policies WHERE team_id = $1`, teamID); err != nil {
		return fmt.Errorf("clearing team policies: %w", err)
	}

	return nil
}

// RemovePolicy removes a single policy id from the team's set. Removing an
// absent association is a no-op.
func (r *PostgresRepository) RemovePolicy(ctx context.Context, teamID, policyID int64) error {
	query := `DELETE FROM team_policies WHERE team_id = $1 AND policy_id = $2`

	if _, err := r.db.Exec(ctx, query, teamID, policyID); err != nil {
		return fmt.Errorf("removing team policy: %w", err)
	}

	return nil
}

// Policies returns the team's policy set as {id, name, version} refs ordered
// by id.
func (r *PostgresRepository) Policies(ctx context.Context, teamID int64) ([]policy.Ref, error) {
	query := `
		SELECT p.id, p.name, p.version
		FROM policies p
		JOIN team_policies tp ON tp.policy_id = p.id
		WHERE tp.team_id = $1
		ORDER BY p.id ASC`

	rows, err := r.db.Query(ctx, query, teamID)
	if err != nil {
		return nil, fmt.Errorf("querying team policies: %w", err)
	}
	defer rows.Close()

	refs := []policy.Ref{}
	for rows.Next() {
		var ref policy.Ref
		if err := rows.Scan(&ref.ID, &ref.Name, &ref.Version); err != nil {
			return nil, fmt.Errorf("scanning team policy row: %w", err)
		}
		refs = append(refs, ref)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating team policy rows: %w", err)
	}

	return refs, nil
}

func (r *PostgresRepository) scanOne(ctx context.Context, query string, args ...any) (*Team, error) {
	t, err := scanTeam(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTeamNotFound
		}
		return nil, err
	}
	return t, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTeam(row rowScanner) (*Team, error) {
	var t Team
	var rawPath string
	err := row.Scan(&t.ID, &t.Name, &t.Description, &t.OrgID, &t.ParentID, &rawPath, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning team row: %w", err)
	}

	if rawPath != "" {
		p, err := ParsePath(rawPath)
		if err != nil {
			return nil, fmt.Errorf("parsing stored path: %w", err)
		}
		t.Path = p
	}

	return &t, nil
}
