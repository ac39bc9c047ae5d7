package repository

import (
	"context"
	"database/sql"
	"time"
)

// SessionRepo persists issued session tokens (single 'token_hash' column).
// The table is an allow-list with a kill switch per entry: a token hash that
// is absent, revoked or expired does not authenticate, so revocation never
// needs to touch the token itself.
type SessionRepo struct{ DB *sql.DB }

func NewSessionRepo(db *sql.DB) *SessionRepo { return &SessionRepo{DB: db} }

// Create inserts a session token hash row with revoked_at unset. The row
// must be durable before the login response carrying the raw token is sent.
func (r *SessionRepo) Create(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO session_tokens (user_id, token_hash, expires_at) VALUES (?,?,?)",
		userID, tokenHash, exp)
	return err
}

// Validate returns the owning userID if a non-revoked, non-expired token
// row exists for the given hash. Absent, revoked and expired rows all
// collapse to sql.ErrNoRows — callers treat them identically as a
// blacklisted/unknown token.
func (r *SessionRepo) Validate(ctx context.Context, tokenHash string) (uint64, error) {
	var (
		userID    uint64
		expiresAt time.Time
		revokedAt sql.NullTime
	)
	err := r.DB.QueryRowContext(ctx,
		"SELECT user_id, expires_at, revoked_at FROM session_tokens WHERE token_hash=? LIMIT 1",
		tokenHash).Scan(&userID, &expiresAt, &revokedAt)
	if err != nil {
		return 0, err
	}
	if revokedAt.Valid {
		return 0, sql.ErrNoRows
	}
	if time.Now().UTC().After(expiresAt) {
		return 0, sql.ErrNoRows
	}
	return userID, nil
}

// Revoke marks the user's token as revoked. A no-op when no matching
// non-revoked row exists, so calling it twice is safe.
func (r *SessionRepo) Revoke(ctx context.Context, tokenHash string, userID uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE session_tokens SET revoked_at=NOW() WHERE token_hash=? AND user_id=? AND revoked_at IS NULL",
		tokenHash, userID)
	return err
}

// RevokeAllForUser revokes all of a user's active session tokens. Used when
// the email on the account changes and after operator intervention.
func (r *SessionRepo) RevokeAllForUser(ctx context.Context, userID uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE session_tokens SET revoked_at=NOW() WHERE user_id=? AND revoked_at IS NULL",
		userID)
	return err
}
