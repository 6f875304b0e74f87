package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/odialabs/coaching-api/internal/utils"
)

// RevokedTokenRepo is the revocation ledger for access and refresh tokens.
// Signed tokens are not natively revocable, so every explicit invalidation
// (logout, password change) inserts a row here and the auth middleware
// consults the ledger before cryptographic verification. Rows are keyed
// by the SHA-256 digest of the token value and carry the token's own
// expiry so a periodic sweep can drop entries for tokens that would have
// expired anyway.
type RevokedTokenRepo struct{ DB *sql.DB }

func NewRevokedTokenRepo(db *sql.DB) *RevokedTokenRepo { return &RevokedTokenRepo{DB: db} }

// IsRevoked reports whether the exact token string has been revoked.
// This is a point lookup on the primary key and sits on the request path.
func (r *RevokedTokenRepo) IsRevoked(ctx context.Context, token string) (bool, error) {
	var one int
	err := r.DB.QueryRowContext(ctx,
		"SELECT 1 FROM revoked_tokens WHERE token_hash=? LIMIT 1",
		utils.HashToken(token)).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Revoke records a revocation entry. Revoking the same token twice is not
// an error; the duplicate insert leaves the original row untouched.
func (r *RevokedTokenRepo) Revoke(ctx context.Context, token string, userID uint64, tokenType string, expiresAt time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO revoked_tokens (token_hash, token, user_id, token_type, revoked_at, expires_at)
		 VALUES (?,?,?,?,UTC_TIMESTAMP(),?)
		 ON DUPLICATE KEY UPDATE token_hash=token_hash`,
		utils.HashToken(token), token, userID, tokenType, expiresAt)
	return err
}

// PurgeExpired deletes every ledger entry whose expiry has passed and
// returns the number of rows removed. It is driven by the scheduler, never
// by the request path, and is safe to run concurrently with live traffic
// because it deletes by expiry predicate only.
func (r *RevokedTokenRepo) PurgeExpired(ctx context.Context) (int64, error) {
	res, err := r.DB.ExecContext(ctx,
		"DELETE FROM revoked_tokens WHERE expires_at <= UTC_TIMESTAMP()")
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
