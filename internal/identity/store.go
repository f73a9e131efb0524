package identity

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"sociallogin/pkg/db"
	"sociallogin/pkg/social"
)

// Store is the persistence surface the resolver needs. Kept narrow so
// unit tests can mock it the same way the db package mocks SQLExecutor.
type Store interface {
	// FindByIdentity returns the local user ID linked to a provider
	// identity, if any.
	FindByIdentity(ctx context.Context, provider, providerUserID string) (int64, bool, error)

	// FindUserByEmail returns the local user ID owning an email, if any.
	FindUserByEmail(ctx context.Context, email string) (int64, bool, error)

	// LinkIdentity attaches a provider identity to an existing user.
	LinkIdentity(ctx context.Context, userID int64, provider, providerUserID string) error

	// CreateUserWithIdentity creates the user row and its identity link
	// in one transaction.
	CreateUserWithIdentity(ctx context.Context, userID int64, user *social.UserData) error
}

type sqlStore struct {
	db db.SQLExecutor
}

func NewStore(executor db.SQLExecutor) Store {
	return &sqlStore{db: executor}
}

func (s *sqlStore) FindByIdentity(ctx context.Context, provider, providerUserID string) (int64, bool, error) {
	var userID int64
	err := s.db.QueryRowContext(ctx,
		"SELECT user_id FROM social_identities WHERE provider = $1 AND provider_user_id = $2",
		provider, providerUserID,
	).Scan(&userID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to look up identity: %w", err)
	}
	return userID, true, nil
}

func (s *sqlStore) FindUserByEmail(ctx context.Context, email string) (int64, bool, error) {
	var userID int64
	err := s.db.QueryRowContext(ctx,
		"SELECT id FROM users WHERE email = $1",
		email,
	).Scan(&userID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to look up user by email: %w", err)
	}
	return userID, true, nil
}

func (s *sqlStore) LinkIdentity(ctx context.Context, userID int64, provider, providerUserID string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO social_identities (user_id, provider, provider_user_id) VALUES ($1, $2, $3)",
		userID, provider, providerUserID,
	)
	if err != nil {
		return fmt.Errorf("failed to link identity: %w", err)
	}
	return nil
}

func (s *sqlStore) CreateUserWithIdentity(ctx context.Context, userID int64, user *social.UserData) error {
	return s.db.WithTransaction(ctx, sql.LevelSerializable,
		func(ctx context.Context, tx *sql.Tx) error {
			_, err := tx.ExecContext(ctx,
				"INSERT INTO users (id, name, email, email_verified, timezone, picture) VALUES ($1, $2, $3, $4, $5, $6)",
				userID, user.Name, user.Email, user.Verified, user.Timezone, user.Picture,
			)
			if err != nil {
				return fmt.Errorf("failed to create user: %w", err)
			}

			_, err = tx.ExecContext(ctx,
				"INSERT INTO social_identities (user_id, provider, provider_user_id) VALUES ($1, $2, $3)",
				userID, user.Provider, user.ID,
			)
			if err != nil {
				return fmt.Errorf("failed to link identity: %w", err)
			}
			return nil
		})
}
