package repository

import (
	"context"
	"database/sql"
	"time"
)

// TokenRepo persists the server-side record of issued refresh tokens,
// keyed by the jti claim. A refresh token is honored only while its row
// exists, is unexpired and carries no revoked_at timestamp; setting
// revoked_at is the blacklist operation and is never undone.
type TokenRepo struct{ DB *sql.DB }

func NewTokenRepo(db *sql.DB) *TokenRepo { return &TokenRepo{DB: db} }

// StoreRefresh records a newly issued refresh token jti.
func (r *TokenRepo) StoreRefresh(ctx context.Context, userID uint64, jti string, exp time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO refresh_tokens (user_id, jti, expires_at) VALUES (?,?,?)",
		userID, jti, exp)
	return err
}

// ValidateRefresh returns the owning userID if a non-revoked, non-expired
// token row exists for the jti. The read-before-honor check here is the
// blacklist gate on every refresh attempt.
func (r *TokenRepo) ValidateRefresh(ctx context.Context, jti string) (uint64, error) {
	var (
		userID    uint64
		expiresAt time.Time
		revokedAt sql.NullTime
	)
	err := r.DB.QueryRowContext(ctx,
		"SELECT user_id, expires_at, revoked_at FROM refresh_tokens WHERE jti=? LIMIT 1",
		jti).Scan(&userID, &expiresAt, &revokedAt)
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

// RevokeByJTI blacklists a single token.
func (r *TokenRepo) RevokeByJTI(ctx context.Context, jti string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked_at=NOW() WHERE jti=? AND revoked_at IS NULL",
		jti)
	return err
}

// RevokeAllForUser blacklists all of a user's active tokens.
func (r *TokenRepo) RevokeAllForUser(ctx context.Context, userID uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked_at=NOW() WHERE user_id=? AND revoked_at IS NULL",
		userID)
	return err
}
