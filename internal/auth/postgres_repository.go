package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/authcore/authcore/internal/store"
)

// PostgresRepository implements AccountRepository using a pgx Querier.
type PostgresRepository struct {
	db store.Querier
}

// NewRepository creates a new AccountRepository backed by the given Querier.
func NewRepository(db store.Querier) AccountRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a new service account record.
func (r *PostgresRepository) Create(ctx context.Context, a *Account) error {
	query := `
		INSERT INTO service_accounts (name, is_admin, api_key_prefix, api_key_hash)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	err := r.db.QueryRow(ctx, query, a.Name, a.IsAdmin, a.ApiKeyPrefix, a.ApiKeyHash).
		Scan(&a.ID, &a.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting service account: %w", err)
	}

	return nil
}

// GetByID retrieves a single service account by its UUID.
func (r *PostgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*Account, error) {
	query := `
		SELECT id, name, is_admin, api_key_prefix, api_key_hash, created_at, revoked_at
		FROM service_accounts
		WHERE id = $1`

	var a Account
	err := r.db.QueryRow(ctx, query, id).Scan(
		&a.ID, &a.Name, &a.IsAdmin, &a.ApiKeyPrefix, &a.ApiKeyHash, &a.CreatedAt, &a.RevokedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("querying service account: %w", err)
	}

	return &a, nil
}

// FindByPrefix retrieves all non-revoked accounts whose key prefix matches.
func (r *PostgresRepository) FindByPrefix(ctx context.Context, prefix string) ([]Account, error) {
	query := `
		SELECT id, name, is_admin, api_key_prefix, api_key_hash, created_at, revoked_at
		FROM service_accounts
		WHERE api_key_prefix = $1 AND revoked_at IS NULL`

	rows, err := r.db.Query(ctx, query, prefix)
	if err != nil {
		return nil, fmt.Errorf("querying service accounts by prefix: %w", err)
	}
	defer rows.Close()

	var accounts []Account
	for rows.Next() {
		var a Account
		err := rows.Scan(&a.ID, &a.Name, &a.IsAdmin, &a.ApiKeyPrefix, &a.ApiKeyHash, &a.CreatedAt, &a.RevokedAt)
		if err != nil {
			return nil, fmt.Errorf("scanning service account row: %w", err)
		}
		accounts = append(accounts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating service account rows: %w", err)
	}

	return accounts, nil
}

// Revoke marks a service account as revoked.
func (r *PostgresRepository) Revoke(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE service_accounts
		SET revoked_at = NOW()
		WHERE id = $1 AND revoked_at IS NULL`

	result, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("revoking service account: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrAccountNotFound
	}

	return nil
}

// CountAll returns the total number of service accounts, revoked or not.
func (r *PostgresRepository) CountAll(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM service_accounts`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting service accounts: %w", err)
	}
	return count, nil
}
