package policy

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

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

// Create inserts a new policy record.
func (r *PostgresRepository) Create(ctx context.Context, p *Policy) error {
	if p.Version == "" {
		p.Version = "0.1"
	}
	if p.Statements == nil {
		p.Statements = []byte("{}")
	}

	query := `
		INSERT INTO policies (name, version, org_id, owner_team_id, statements)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	err := r.db.QueryRow(ctx, query,
		p.Name,
		p.Version,
		p.OrgID,
		p.OwnerTeamID,
		p.Statements,
	).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting policy: %w", err)
	}

	return nil
}

// GetByID retrieves a single policy by id within an organization.
func (r *PostgresRepository) GetByID(ctx context.Context, id int64, orgID string) (*Policy, error) {
	query := `
		SELECT id, name, version, org_id, owner_team_id, statements, created_at
		FROM policies
		WHERE id = $1 AND org_id = $2`

	var p Policy
	err := r.db.QueryRow(ctx, query, id, orgID).Scan(
		&p.ID, &p.Name, &p.Version, &p.OrgID, &p.OwnerTeamID, &p.Statements, &p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("querying policy: %w", err)
	}

	return &p, nil
}

// GetByIDs retrieves the compact refs for the given ids within an
// organization. Ids that do not exist in the organization are simply absent
// from the result; callers compare lengths to detect unknown ids.
func (r *PostgresRepository) GetByIDs(ctx context.Context, ids []int64, orgID string) ([]Ref, error) {
	query := `
		SELECT id, name, version
		FROM policies
		WHERE id = ANY($1) AND org_id = $2
		ORDER BY id ASC`

	rows, err := r.db.Query(ctx, query, ids, orgID)
	if err != nil {
		return nil, fmt.Errorf("querying policies by ids: %w", err)
	}
	defer rows.Close()

	return scanRefs(rows)
}

// ListByOrganization retrieves all policy refs for an organization.
func (r *PostgresRepository) ListByOrganization(ctx context.Context, orgID string) ([]Ref, error) {
	query := `
		SELECT id, name, version
		FROM policies
		WHERE org_id = $1
		ORDER BY id ASC`

	rows, err := r.db.Query(ctx, query, orgID)
	if err != nil {
		return nil, fmt.Errorf("listing policies: %w", err)
	}
	defer rows.Close()

	return scanRefs(rows)
}

// Delete removes a policy by id within an organization. Link rows in
// team_policies and user_policies go with it via ON DELETE CASCADE.
func (r *PostgresRepository) Delete(ctx context.Context, id int64, orgID string) error {
	query := `DELETE FROM policies WHERE id = $1 AND org_id = $2`

	result, err := r.db.Exec(ctx, query, id, orgID)
	if err != nil {
		return fmt.Errorf("deleting policy: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// DeleteByOwnerTeams removes every policy owned by one of the given teams.
// Used by the team cascade delete; runs inside that operation's transaction.
func (r *PostgresRepository) DeleteByOwnerTeams(ctx context.Context, teamIDs []int64) error {
	query := `DELETE FROM policies WHERE owner_team_id = ANY($1)`

	if _, err := r.db.Exec(ctx, query, teamIDs); err != nil {
		return fmt.Errorf("deleting team-owned policies: %w", err)
	}

	return nil
}

func scanRefs(rows pgx.Rows) ([]Ref, error) {
	var refs []Ref
	for rows.Next() {
		var ref Ref
		if err := rows.Scan(&ref.ID, &ref.Name, &ref.Version); err != nil {
			return nil, fmt.Errorf("scanning policy row: %w", err)
		}
		refs = append(refs, ref)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating policy rows: %w", err)
	}

	if refs == nil {
		refs = []Ref{}
	}

	return refs, nil
}
