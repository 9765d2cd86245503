package organization

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

// NewRepository creates a new Repository backed by the given Querier.
func NewRepository(db store.Querier) Repository {
	return &PostgresRepository{db: db}
}

// Create inserts a new organization record.
func (r *PostgresRepository) Create(ctx context.Context, org *Organization) error {
	query := `
		INSERT INTO organizations (id, name, description)
		VALUES ($1, $2, $3)
		RETURNING created_at`

	err := r.db.QueryRow(ctx, query, org.ID, org.Name, org.Description).Scan(&org.CreatedAt)
	if err != nil {
		if store.IsUniqueViolation(err, "") {
			return ErrDuplicateID
		}
		return fmt.Errorf("inserting organization: %w", err)
	}

	return nil
}

// GetByID retrieves a single organization by its id.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*Organization, error) {
	query := `
		SELECT id, name, description, created_at
		FROM organizations
		WHERE id = $1`

	var org Organization
	err := r.db.QueryRow(ctx, query, id).Scan(&org.ID, &org.Name, &org.Description, &org.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("querying organization: %w", err)
	}

	return &org, nil
}

// List retrieves all organizations ordered by creation time.
func (r *PostgresRepository) List(ctx context.Context) ([]Organization, error) {
	query := `
		SELECT id, name, description, created_at
		FROM organizations
		ORDER BY created_at ASC`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing organizations: %w", err)
	}
	defer rows.Close()

	var orgs []Organization
	for rows.Next() {
		var org Organization
		err := rows.Scan(&org.ID, &org.Name, &org.Description, &org.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scanning organization row: %w", err)
		}
		orgs = append(orgs, org)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating organization rows: %w", err)
	}

	if orgs == nil {
		orgs = []Organization{}
	}

	return orgs, nil
}

// Delete removes an organization by id. Returns ErrHasTeams if teams still
// reference it.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM organizations WHERE id = $1`

	result, err := r.db.Exec(ctx, query, id)
	if err != nil {
		if store.IsForeignKeyViolation(err) {
			return ErrHasTeams
		}
		return fmt.Errorf("deleting organization: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}
