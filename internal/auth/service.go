package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidKey is returned when the provided API key does not match any
// active service account.
var ErrInvalidKey = errors.New("invalid or revoked API key")

// Service provides authentication for callers of the authorization API.
type Service struct {
	accounts   AccountRepository
	bcryptCost int
}

// NewService creates a new auth Service.
func NewService(accounts AccountRepository, bcryptCost int) *Service {
	return &Service{accounts: accounts, bcryptCost: bcryptCost}
}

// GenerateKey creates a new API key. Returns the raw key, its prefix (first
// 8 chars), and the bcrypt hash. The raw key is: 32 random bytes ->
// base64url -> prepend "acz_".
func (s *Service) GenerateKey() (rawKey, prefix, hash string, err error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", "", "", fmt.Errorf("generating random bytes: %w", err)
	}

	rawKey = "acz_" + base64.RawURLEncoding.EncodeToString(b)
	prefix = rawKey[:8]

	hashBytes, err := bcrypt.GenerateFromPassword([]byte(rawKey), s.bcryptCost)
	if err != nil {
		return "", "", "", fmt.Errorf("hashing key: %w", err)
	}
	hash = string(hashBytes)

	return rawKey, prefix, hash, nil
}

// Authenticate resolves a raw API key to an Identity. It extracts the
// prefix, looks up candidates, and bcrypt-compares each one.
func (s *Service) Authenticate(ctx context.Context, rawKey string) (*Identity, error) {
	if len(rawKey) < 8 {
		return nil, ErrInvalidKey
	}

	prefix := rawKey[:8]

	candidates, err := s.accounts.FindByPrefix(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("finding accounts by prefix: %w", err)
	}

	for _, a := range candidates {
		if bcrypt.CompareHashAndPassword([]byte(a.ApiKeyHash), []byte(rawKey)) == nil {
			return &Identity{AccountID: a.ID, Name: a.Name, IsAdmin: a.IsAdmin}, nil
		}
	}

	return nil, ErrInvalidKey
}

// Bootstrap creates the initial admin service account if the table is
// empty. Returns the raw API key (only displayed once). If accounts already
// exist, returns empty string.
func (s *Service) Bootstrap(ctx context.Context) (string, error) {
	count, err := s.accounts.CountAll(ctx)
	if err != nil {
		return "", fmt.Errorf("counting service accounts: %w", err)
	}

	if count > 0 {
		return "", nil
	}

	rawKey, prefix, hash, err := s.GenerateKey()
	if err != nil {
		return "", fmt.Errorf("generating bootstrap key: %w", err)
	}

	account := &Account{
		Name:         "root",
		IsAdmin:      true,
		ApiKeyPrefix: prefix,
		ApiKeyHash:   hash,
	}

	if err := s.accounts.Create(ctx, account); err != nil {
		return "", fmt.Errorf("creating bootstrap account: %w", err)
	}

	slog.Info("Bootstrap admin API key created", "key", rawKey)

	return rawKey, nil
}
