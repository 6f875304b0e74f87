package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/odialabs/coaching-api/internal/repository"
	"github.com/odialabs/coaching-api/internal/utils"
)

// Context keys populated by Authenticate.
const (
	CtxUserID   = "user_id"
	CtxEmail    = "email"
	CtxRole     = "role"
	CtxRawToken = "raw_token"
)

// Rejection reason codes. Every authentication failure is a 401 with a
// machine-readable reason so clients can distinguish an expired session
// from a revoked one.
const (
	ReasonMissing = "TOKEN_MISSING"
	ReasonRevoked = "TOKEN_REVOKED"
	ReasonExpired = "TOKEN_EXPIRED"
	ReasonInvalid = "TOKEN_INVALID"
)

func unauthorized(c echo.Context, reason string) error {
	return c.JSON(http.StatusUnauthorized, echo.Map{"error": reason})
}

// ExtractToken pulls the access token from the request: the `token`
// cookie wins, then the Authorization bearer header. Returns "" when
// neither carries one.
func ExtractToken(c echo.Context) string {
	if ck, err := c.Cookie("token"); err == nil && ck.Value != "" {
		return ck.Value
	}
	auth := c.Request().Header.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return ""
}

// Authenticate validates the access token on every protected request.
// The revocation ledger is consulted before the cryptographic check so
// a revoked token is reported as revoked even after it also expires.
// On success the user's id, email, role and the raw token are stored in
// the request context.
func Authenticate(secret string, revoked *repository.RevokedTokenRepo) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := ExtractToken(c)
			if raw == "" {
				return unauthorized(c, ReasonMissing)
			}

			ctx := c.Request().Context()
			isRevoked, err := revoked.IsRevoked(ctx, raw)
			if err != nil {
				return echo.NewHTTPError(http.StatusInternalServerError, "auth check failed")
			}
			if isRevoked {
				return unauthorized(c, ReasonRevoked)
			}

			claims, err := utils.ParseAccessToken(secret, raw)
			if err != nil {
				if err == utils.ErrTokenExpired {
					return unauthorized(c, ReasonExpired)
				}
				return unauthorized(c, ReasonInvalid)
			}

			c.Set(CtxUserID, claims.UserID)
			c.Set(CtxEmail, claims.Email)
			c.Set(CtxRole, claims.Role)
			c.Set(CtxRawToken, raw)
			return next(c)
		}
	}
}
