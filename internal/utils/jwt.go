package utils // package utils provides helpers for token creation and hashing

import (
	"crypto/rand"   // secure random number generation
	"crypto/sha256" // SHA-256 digests for ledger keys
	"encoding/hex"  // hex encoding for random tokens and digests
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5" // JWT library for creating signed tokens
)

// Token kinds carried in the "kind" claim. A refresh token can never be
// presented in place of an access token and vice versa.
const (
	KindAccess  = "access"
	KindRefresh = "refresh"
)

// Parse failures are collapsed into two sentinel errors so that callers
// can map them onto stable rejection reason codes.
var (
	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("token invalid")
)

// Claims is the signed payload of both access and refresh tokens. The
// subject is the immutable numeric user id; email rides along as a display
// attribute only, so changing an account's email does not orphan its
// outstanding tokens.
type Claims struct {
	UserID uint64 `json:"uid"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	Kind   string `json:"kind"`
	jwt.RegisteredClaims
}

// SignedToken pairs a serialized JWT with its expiration time so callers
// can set cookie max-ages and ledger expiries without re-decoding.
type SignedToken struct {
	Token string    // the serialized JWT string
	Exp   time.Time // the UTC expiration time
}

// NewAccessToken builds and signs a short-lived HS256 access token.
func NewAccessToken(secret string, userID uint64, email, role string, ttlMin int) (SignedToken, error) {
	return newToken(secret, userID, email, role, KindAccess,
		time.Duration(ttlMin)*time.Minute)
}

// NewRefreshToken builds and signs a long-lived HS256 refresh token. It is
// signed with a secret distinct from the access secret and is only ever
// exchanged for new access tokens, never presented to resource endpoints.
func NewRefreshToken(secret string, userID uint64, email, role string, ttlDays int) (SignedToken, error) {
	return newToken(secret, userID, email, role, KindRefresh,
		time.Duration(ttlDays)*24*time.Hour)
}

func newToken(secret string, userID uint64, email, role, kind string, ttl time.Duration) (SignedToken, error) {
	now := time.Now().UTC()
	exp := now.Add(ttl)
	claims := Claims{
		UserID: userID,
		Email:  email,
		Role:   role,
		Kind:   kind,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return SignedToken{}, err
	}
	return SignedToken{Token: signed, Exp: exp}, nil
}

// ParseAccessToken verifies signature, expiry and kind of an access token.
func ParseAccessToken(secret, raw string) (*Claims, error) {
	return parseToken(secret, raw, KindAccess)
}

// ParseRefreshToken verifies signature, expiry and kind of a refresh token.
func ParseRefreshToken(secret, raw string) (*Claims, error) {
	return parseToken(secret, raw, KindRefresh)
}

func parseToken(secret, raw, wantKind string) (*Claims, error) {
	var claims Claims
	tok, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return []byte(secret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}
	if !tok.Valid || claims.Kind != wantKind {
		return nil, ErrTokenInvalid
	}
	return &claims, nil
}

// DecodeExpiry extracts the expiration time of a token without verifying
// its signature. Logout uses it to copy a token's own expiry into the
// revocation ledger even when the token no longer verifies; the zero time
// and false are returned when the payload cannot be decoded at all.
func DecodeExpiry(raw string) (uint64, time.Time, bool) {
	var claims Claims
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(raw, &claims); err != nil {
		return 0, time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return 0, time.Time{}, false
	}
	return claims.UserID, claims.ExpiresAt.Time, true
}

// HashToken returns the SHA-256 digest of a token as a hex string. The
// revocation ledger is keyed by this digest because a serialized JWT is
// too long for a MySQL unique index.
func HashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// RandomHex returns a hex-encoded string generated from n bytes of
// cryptographically secure random data. Password reset tokens use 32
// bytes (256 bits).
func RandomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
