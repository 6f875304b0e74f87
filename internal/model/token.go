package model

import "time"

// RevokedToken models an entry in the revocation ledger (`revoked_tokens`
// table). Access and refresh tokens are stateless JWTs, so an explicit
// invalidation (logout, password change) is recorded here and consulted on
// every request. Each entry carries the token's own expiry so the ledger
// can be purged once the token would have died anyway; the steady-state
// size is bounded by revocations-per-window times token lifetime.
//
// Fields:
//
//	TokenHash – SHA-256 hex digest of the token value (primary key).
//	Token     – the full serialized token, kept for audit.
//	UserID    – owner of the token.
//	TokenType – "access" or "refresh".
//	RevokedAt – when the token was invalidated.
//	ExpiresAt – the token's own expiry, after which the entry is
//	            purge-eligible.
type RevokedToken struct {
	TokenHash string    // revoked_tokens.token_hash
	Token     string    // revoked_tokens.token
	UserID    uint64    // revoked_tokens.user_id
	TokenType string    // revoked_tokens.token_type
	RevokedAt time.Time // revoked_tokens.revoked_at
	ExpiresAt time.Time // revoked_tokens.expires_at
}
