// Package storage persists per-user service data: generation settings and
// linked source-control connections.
package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound indicates the requested row does not exist.
var ErrNotFound = errors.New("storage: not found")

// Settings holds a user's generation configuration. A user without
// settings, or with an empty API key, is treated as not configured.
type Settings struct {
	UserID    uuid.UUID
	APIKey    string
	Model     string
	UpdatedAt time.Time
}

// Configured reports whether the settings are complete enough to run a
// generation.
func (s Settings) Configured() bool {
	return s.APIKey != "" && s.Model != ""
}

// Connection is a user's link to a source-control provider account,
// carrying the token used to read repository content on their behalf.
type Connection struct {
	UserID      uuid.UUID
	Provider    string
	AccessToken string
	UpdatedAt   time.Time
}

// Store provides access to persisted user data backed by PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

// New creates a Store over the given connection pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// GetSettings returns the user's generation settings, or ErrNotFound when
// the user never saved any.
func (s *Store) GetSettings(ctx context.Context, userID uuid.UUID) (Settings, error) {
	const q = `SELECT user_id, api_key, model, updated_at FROM user_settings WHERE user_id = $1`

	var st Settings
	err := s.pool.QueryRow(ctx, q, userID).Scan(&st.UserID, &st.APIKey, &st.Model, &st.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Settings{}, ErrNotFound
		}
		return Settings{}, fmt.Errorf("storage: get settings: %w", err)
	}
	return st, nil
}

// UpsertSettings saves or replaces the user's generation settings.
func (s *Store) UpsertSettings(ctx context.Context, st Settings) error {
	const q = `
		INSERT INTO user_settings (user_id, api_key, model, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (user_id)
		DO UPDATE SET api_key = EXCLUDED.api_key, model = EXCLUDED.model, updated_at = now()`

	if _, err := s.pool.Exec(ctx, q, st.UserID, st.APIKey, st.Model); err != nil {
		return fmt.Errorf("storage: upsert settings: %w", err)
	}
	return nil
}

// GetConnection returns the user's link to the named provider, or
// ErrNotFound when the account was never connected.
func (s *Store) GetConnection(ctx context.Context, userID uuid.UUID, provider string) (Connection, error) {
	const q = `SELECT user_id, provider, access_token, updated_at
		FROM provider_connections WHERE user_id = $1 AND provider = $2`

	var c Connection
	err := s.pool.QueryRow(ctx, q, userID, provider).Scan(&c.UserID, &c.Provider, &c.AccessToken, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Connection{}, ErrNotFound
		}
		return Connection{}, fmt.Errorf("storage: get connection: %w", err)
	}
	return c, nil
}

// UpsertConnection saves or replaces the user's provider link.
func (s *Store) UpsertConnection(ctx context.Context, c Connection) error {
	const q = `
		INSERT INTO provider_connections (user_id, provider, access_token, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (user_id, provider)
		DO UPDATE SET access_token = EXCLUDED.access_token, updated_at = now()`

	if _, err := s.pool.Exec(ctx, q, c.UserID, c.Provider, c.AccessToken); err != nil {
		return fmt.Errorf("storage: upsert connection: %w", err)
	}
	return nil
}

// DeleteConnection removes the user's provider link. Deleting a link that
// does not exist is not an error.
func (s *Store) DeleteConnection(ctx context.Context, userID uuid.UUID, provider string) error {
	const q = `DELETE FROM provider_connections WHERE user_id = $1 AND provider = $2`

	if _, err := s.pool.Exec(ctx, q, userID, provider); err != nil {
		return fmt.Errorf("storage: delete connection: %w", err)
	}
	return nil
}
