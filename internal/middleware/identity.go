package middleware

// identity.go holds a small helper shared by the rate limiter for
// building per-user keys. Before authentication runs only the IP part
// of a key is meaningful, so unauthenticated callers resolve to "anon".

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

func currentUserKey(c echo.Context) string {
	if v, ok := c.Get(CtxUserID).(uint64); ok && v != 0 {
		return strconv.FormatUint(v, 10)
	}
	return "anon"
}
