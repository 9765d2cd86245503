package user

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/authcore/authcore/internal/policy"
	"github.com/authcore/authcore/internal/store"
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

// Create inserts a new user record.
func (r *PostgresRepository) Create(ctx context.Context, u *User) error {
	query := `
		INSERT INTO users (name, org_id)
		VALUES ($1, $2)
		RETURNING id, created_at`

	err := r.db.QueryRow(ctx, query, u.Name, u.OrgID).Scan(&u.ID, &u.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting user: %w", err)
	}

	return nil
}

// GetByID retrieves a single user by id within an organization.
func (r *PostgresRepository) GetByID(ctx context.Context, id int64, orgID string) (*User, error) {
	query := `
		SELECT id, name, org_id, created_at
		FROM users
		WHERE id = $1 AND org_id = $2`

	var u User
	err := r.db.QueryRow(ctx, query, id, orgID).Scan(&u.ID, &u.Name, &u.OrgID, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("querying user: %w", err)
	}

	return &u, nil
}

// Read retrieves a user together with its directly attached policies.
func (r *PostgresRepository) Read(ctx context.Context, id int64, orgID string) (*Detail, error) {
	u, err := r.GetByID(ctx, id, orgID)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT p.id, p.name, p.version
		FROM policies p
		JOIN user_policies up ON up.policy_id = p.id
		WHERE up.user_id = $1
		ORDER BY p.id ASC`

	rows, err := r.db.Query(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("querying user policies: %w", err)
	}
	defer rows.Close()

	policies := []policy.Ref{}
	for rows.Next() {
		var ref policy.Ref
		if err := rows.Scan(&ref.ID, &ref.Name, &ref.Version); err != nil {
			return nil, fmt.Errorf("scanning user policy row: %w", err)
		}
		policies = append(policies, ref)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating user policy rows: %w", err)
	}

	return &Detail{User: *u, Policies: policies}, nil
}

// List retrieves all users of an organization ordered by id.
func (r *PostgresRepository) List(ctx context.Context, orgID string) ([]User, error) {
	query := `
		SELECT id, name, org_id, created_at
		FROM users
		WHERE org_id = $1
		ORDER BY id ASC`

	rows, err := r.db.Query(ctx, query, orgID)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Name, &u.OrgID, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning user row: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating user rows: %w", err)
	}

	if users == nil {
		users = []User{}
	}

	return users, nil
}

// Delete removes a user by id within an organization. Membership and policy
// link rows go with it via ON DELETE CASCADE.
func (r *PostgresRepository) Delete(ctx context.Context, id int64, orgID string) error {
	query := `DELETE FROM users WHERE id = $1 AND org_id = $2`

	result, err := r.db.Exec(ctx, query, id, orgID)
	if err != nil {
		return fmt.Errorf("deleting user: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// AttachPolicy links a policy directly to a user. Idempotent.
func (r *PostgresRepository) AttachPolicy(ctx context.Context, userID, policyID int64) error {
	query := `
		INSERT INTO user_policies (user_id, policy_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING`

	if _, err := r.db.Exec(ctx, query, userID, policyID); err != nil {
		return fmt.Errorf("attaching policy to user: %w", err)
	}

	return nil
}

// AttachToTeam adds a user to a team's membership set. Idempotent.
func (r *PostgresRepository) AttachToTeam(ctx context.Context, userID, teamID int64) error {
	query := `
		INSERT INTO team_members (team_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING`

	if _, err := r.db.Exec(ctx, query, teamID, userID); err != nil {
		return fmt.Errorf("attaching user to team: %w", err)
	}

	return nil
}

// MissingIDs returns the subset of ids that do not exist as users in the
// given organization. Used to validate membership replacement input.
func (r *PostgresRepository) MissingIDs(ctx context.Context, ids []int64, orgID string) ([]int64, error) {
	query := `
		SELECT id FROM users
		WHERE id = ANY($1) AND org_id = $2`

	rows, err := r.db.Query(ctx, query, ids, orgID)
	if err != nil {
		return nil, fmt.Errorf("querying users by ids: %w", err)
	}
	defer rows.Close()

	found := make(map[int64]bool, len(ids))
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning user id: %w", err)
		}
		found[id] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating user ids: %w", err)
	}

	var missing []int64
	for _, id := range ids {
		if !found[id] {
			missing = append(missing, id)
		}
	}

	return missing, nil
}
