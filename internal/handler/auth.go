package handler

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/odialabs/coaching-api/internal/config"
	"github.com/odialabs/coaching-api/internal/mail"
	"github.com/odialabs/coaching-api/internal/middleware"
	"github.com/odialabs/coaching-api/internal/model"
	"github.com/odialabs/coaching-api/internal/repository"
	"github.com/odialabs/coaching-api/internal/utils"
)

// AuthHandler bundles dependencies for auth and session endpoints.
type AuthHandler struct {
	Cfg     config.Config
	Users   *repository.UserRepo
	Revoked *repository.RevokedTokenRepo
	Mailer  *mail.Client
}

func NewAuthHandler(cfg config.Config, u *repository.UserRepo, r *repository.RevokedTokenRepo, m *mail.Client) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: u, Revoked: r, Mailer: m}
}

// ----- DTOs -----

type registerReq struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}
type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
type changePasswordReq struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}
type forgotPasswordReq struct {
	Email string `json:"email"`
}
type resetPasswordReq struct {
	Token       string `json:"token"`
	NewPassword string `json:"newPassword"`
}

type userPart struct {
	ID        uint64 `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Role      string `json:"role"`
}

func toUserPart(u model.User) userPart {
	return userPart{ID: u.ID, Email: u.Email, FirstName: u.FirstName, LastName: u.LastName, Role: u.Role}
}

// ----- cookies -----

func (h *AuthHandler) cookie(name, value string, exp time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Expires:  exp,
		HttpOnly: true,
		Secure:   h.Cfg.Env == "prod",
		SameSite: http.SameSiteLaxMode,
	}
}

func (h *AuthHandler) setAuthCookies(c echo.Context, access, refresh utils.SignedToken) {
	c.SetCookie(h.cookie("token", access.Token, access.Exp))
	c.SetCookie(h.cookie("refreshToken", refresh.Token, refresh.Exp))
}

func (h *AuthHandler) clearAuthCookies(c echo.Context) {
	past := time.Unix(0, 0)
	c.SetCookie(h.cookie("token", "", past))
	c.SetCookie(h.cookie("refreshToken", "", past))
}

func (h *AuthHandler) issuePair(c echo.Context, u model.User) error {
	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, u.ID, u.Email, u.Role, h.Cfg.AccessTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue access failed"})
	}
	refresh, err := utils.NewRefreshToken(h.Cfg.RefreshSecret, u.ID, u.Email, u.Role, h.Cfg.RefreshTTLDays)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue refresh failed"})
	}
	h.setAuthCookies(c, access, refresh)
	return c.JSON(http.StatusOK, echo.Map{"user": toUserPart(u)})
}

// ----- endpoints -----

// Register creates a user with its empty profile and opens a session.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)
	if req.Email == "" || req.Password == "" || req.FirstName == "" || req.LastName == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email, password and name required"})
	}
	if len(req.Password) < 8 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "password too short"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	uid, err := h.Users.Create(ctx, req.Email, req.Password, req.FirstName, req.LastName, model.RoleUser, h.Cfg.BcryptCost)
	if err != nil {
		if err == repository.ErrEmailExists {
			return c.JSON(http.StatusConflict, echo.Map{"error": "email already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create user failed"})
	}

	u, err := h.Users.GetByID(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load user failed"})
	}
	return h.issuePair(c, u)
}

// Login verifies credentials and opens a session. Wrong email and wrong
// password return the same error so accounts cannot be enumerated.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/password required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err == repository.ErrNotFound || (err == nil && !utils.VerifyPassword(u.PasswordHash, req.Password)) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "login failed"})
	}
	return h.issuePair(c, u)
}

// Refresh exchanges a valid refresh token cookie for a fresh pair. The
// refresh token goes through the same revocation check as access
// tokens, so logout kills the whole session.
func (h *AuthHandler) Refresh(c echo.Context) error {
	ck, err := c.Cookie("refreshToken")
	if err != nil || ck.Value == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": middleware.ReasonMissing})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	revoked, err := h.Revoked.IsRevoked(ctx, ck.Value)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "auth check failed"})
	}
	if revoked {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": middleware.ReasonRevoked})
	}

	claims, err := utils.ParseRefreshToken(h.Cfg.RefreshSecret, ck.Value)
	if err != nil {
		reason := middleware.ReasonInvalid
		if err == utils.ErrTokenExpired {
			reason = middleware.ReasonExpired
		}
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": reason})
	}

	// Claims carry the numeric id; reload the user so role or email
	// changes since issuance take effect on rotation.
	u, err := h.Users.GetByID(ctx, claims.UserID)
	if err == repository.ErrNotFound {
		// The account is gone; retire the orphaned token so it cannot
		// be replayed against a recreated id.
		if err := h.Revoked.Revoke(ctx, ck.Value, claims.UserID, utils.KindRefresh, claims.ExpiresAt.Time); err != nil {
			c.Logger().Warnf("revoke orphaned refresh token: %v", err)
		}
		h.clearAuthCookies(c)
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": middleware.ReasonInvalid})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load user failed"})
	}

	// Rotate: the old refresh token goes to the ledger.
	if err := h.Revoked.Revoke(ctx, ck.Value, claims.UserID, utils.KindRefresh, claims.ExpiresAt.Time); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "rotate failed"})
	}
	return h.issuePair(c, u)
}

// Logout revokes both tokens and clears the cookies. Best effort: an
// unreadable or missing token still results in cleared cookies and a
// 200, because the client's goal is to end up logged out.
func (h *AuthHandler) Logout(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	h.revokeFromRequest(ctx, c, "token", utils.KindAccess)
	h.revokeFromRequest(ctx, c, "refreshToken", utils.KindRefresh)
	h.clearAuthCookies(c)
	return c.JSON(http.StatusOK, echo.Map{"message": "logged out"})
}

func (h *AuthHandler) revokeFromRequest(ctx context.Context, c echo.Context, cookieName, kind string) {
	var raw string
	if ck, err := c.Cookie(cookieName); err == nil {
		raw = ck.Value
	}
	if raw == "" && kind == utils.KindAccess {
		raw = middleware.ExtractToken(c)
	}
	if raw == "" {
		return
	}
	uid, exp, ok := utils.DecodeExpiry(raw)
	if !ok {
		return
	}
	if err := h.Revoked.Revoke(ctx, raw, uid, kind, exp); err != nil {
		c.Logger().Warnf("logout: revoke %s failed: %v", kind, err)
	}
}

// ChangePassword verifies the current password before setting the new
// one. The presented token pair is revoked and replaced; sessions on
// other devices keep their tokens until natural expiry.
func (h *AuthHandler) ChangePassword(c echo.Context) error {
	uid := c.Get(middleware.CtxUserID).(uint64)

	var req changePasswordReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if len(req.NewPassword) < 8 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "password too short"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByID(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load user failed"})
	}
	if !utils.VerifyPassword(u.PasswordHash, req.CurrentPassword) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	hash, err := utils.HashPassword(req.NewPassword, h.Cfg.BcryptCost)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "hash failed"})
	}
	if err := h.Users.UpdatePassword(ctx, uid, hash); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}

	h.revokeFromRequest(ctx, c, "token", utils.KindAccess)
	h.revokeFromRequest(ctx, c, "refreshToken", utils.KindRefresh)
	return h.issuePair(c, u)
}

// ForgotPassword issues a reset token and mails the link. The response
// is identical whether or not the address exists.
func (h *AuthHandler) ForgotPassword(c echo.Context) error {
	var req forgotPasswordReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email required"})
	}

	neutral := echo.Map{"message": "if the account exists, a reset email has been sent"}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err == repository.ErrNotFound {
		return c.JSON(http.StatusOK, neutral)
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "reset failed"})
	}

	token, err := utils.RandomHex(32)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "reset failed"})
	}
	expires := time.Now().UTC().Add(time.Duration(h.Cfg.ResetTTLMin) * time.Minute)
	if err := h.Users.SetResetToken(ctx, u.ID, token, expires); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "reset failed"})
	}

	link := h.Cfg.FrontendBaseURL + "/reset-password?token=" + url.QueryEscape(token)
	subject, body := mail.ResetPassword(u.FirstName, link, h.Cfg.ResetTTLMin)
	h.Mailer.SendAsync(u.Email, subject, body)

	return c.JSON(http.StatusOK, neutral)
}

// ResetPassword consumes a reset token. The token comparison, expiry
// check and clearing happen in one UPDATE so a token can never be
// redeemed twice.
func (h *AuthHandler) ResetPassword(c echo.Context) error {
	var req resetPasswordReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Token == "" || len(req.NewPassword) < 8 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "token and new password required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	hash, err := utils.HashPassword(req.NewPassword, h.Cfg.BcryptCost)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "hash failed"})
	}
	err = h.Users.ResetPasswordByToken(ctx, req.Token, hash)
	if err == repository.ErrNotFound {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid or expired token"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "reset failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "password reset"})
}

// UserData returns the authenticated user's account.
func (h *AuthHandler) UserData(c echo.Context) error {
	uid := c.Get(middleware.CtxUserID).(uint64)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByID(ctx, uid)
	if err == repository.ErrNotFound {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load user failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"user": toUserPart(u)})
}
