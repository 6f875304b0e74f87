package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/odialabs/coaching-api/internal/config"
	"github.com/odialabs/coaching-api/internal/middleware"
	"github.com/odialabs/coaching-api/internal/model"
	"github.com/odialabs/coaching-api/internal/repository"
	"github.com/odialabs/coaching-api/internal/service"
)

// AdminUserHandler covers the admin's account management surface:
// roster listing, role changes, visio links, progression overrides and
// cascade deletion. Role changes and deletions invalidate the cached
// canonical-admin resolution.
type AdminUserHandler struct {
	Cfg       config.Config
	Users     *repository.UserRepo
	Profiles  *repository.ProfileRepo
	Visio     *repository.VisioRepo
	Messaging *service.Messaging
}

func NewAdminUserHandler(cfg config.Config, u *repository.UserRepo, p *repository.ProfileRepo, v *repository.VisioRepo, m *service.Messaging) *AdminUserHandler {
	return &AdminUserHandler{Cfg: cfg, Users: u, Profiles: p, Visio: v, Messaging: m}
}

type roleReq struct {
	Role string `json:"role"`
}

type userInfoReq struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
}

type visioReq struct {
	URL string `json:"url"`
}

type createUserReq struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Role      string `json:"role"`
}

type progressReq struct {
	Column string `json:"column"`
	Value  int    `json:"value"`
}

func paramID(c echo.Context, name string) (uint64, error) {
	return strconv.ParseUint(c.Param(name), 10, 64)
}

// List returns every account.
func (h *AdminUserHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	users, err := h.Users.List(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list users failed"})
	}
	out := make([]userPart, 0, len(users))
	for _, u := range users {
		out = append(out, toUserPart(u))
	}
	return c.JSON(http.StatusOK, echo.Map{"users": out})
}

// Create provisions an account directly, which is the only way visitor
// accounts come into existence; public registration always yields role
// user.
func (h *AdminUserHandler) Create(c echo.Context) error {
	var req createUserReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.FirstName == "" || req.LastName == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email, firstName and lastName required"})
	}
	if len(req.Password) < 8 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "password must be at least 8 characters"})
	}
	if req.Role == "" {
		req.Role = model.RoleUser
	}
	switch req.Role {
	case model.RoleUser, model.RoleVisitor, model.RoleAdmin:
	default:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid role"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	uid, err := h.Users.Create(ctx, req.Email, req.Password,
		strings.TrimSpace(req.FirstName), strings.TrimSpace(req.LastName), req.Role, h.Cfg.BcryptCost)
	if err == repository.ErrEmailExists {
		return c.JSON(http.StatusConflict, echo.Map{"error": "email already exists"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create user failed"})
	}
	if req.Role == model.RoleAdmin {
		h.Messaging.InvalidateAdminCache(ctx)
	}

	u, err := h.Users.GetByID(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load user failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"user": toUserPart(u)})
}

// Get returns one account with its profile.
func (h *AdminUserHandler) Get(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByID(ctx, id)
	if err == repository.ErrNotFound {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load user failed"})
	}
	p, err := h.Profiles.Get(ctx, id)
	if err != nil && err != repository.ErrNotFound {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load profile failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"user": toUserPart(u), "profile": p})
}

// UpdateInfo edits name and email on one account.
func (h *AdminUserHandler) UpdateInfo(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}
	var req userInfoReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	err = h.Users.UpdateInfo(ctx, id, strings.TrimSpace(req.FirstName), strings.TrimSpace(req.LastName), req.Email)
	if err == repository.ErrNotFound {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	}
	if err == repository.ErrEmailExists {
		return c.JSON(http.StatusConflict, echo.Map{"error": "email already exists"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "user updated"})
}

// UpdateRole changes an account's role. The admin roster may change, so
// the canonical-admin cache is dropped.
func (h *AdminUserHandler) UpdateRole(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}
	var req roleReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	switch req.Role {
	case model.RoleUser, model.RoleVisitor, model.RoleAdmin:
	default:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid role"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	// Demoting the last admin would leave messaging with no route.
	if req.Role != model.RoleAdmin {
		u, err := h.Users.GetByID(ctx, id)
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load user failed"})
		}
		if u.Role == model.RoleAdmin {
			n, err := h.Users.CountByRole(ctx, model.RoleAdmin)
			if err != nil {
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load user failed"})
			}
			if n <= 1 {
				return c.JSON(http.StatusConflict, echo.Map{"error": "cannot demote the last admin"})
			}
		}
	}

	err = h.Users.UpdateRole(ctx, id, req.Role)
	if err == repository.ErrNotFound {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}

	h.Messaging.InvalidateAdminCache(ctx)
	return c.JSON(http.StatusOK, echo.Map{"message": "role updated"})
}

// SetProgress overrides one progression column on a user's profile.
func (h *AdminUserHandler) SetProgress(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}
	var req progressReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Value < 0 || req.Value > 100 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "value must be 0-100"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	err = h.Profiles.SetProgress(ctx, id, req.Column, req.Value)
	if err == repository.ErrNotFound {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown progression column"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "progress updated"})
}

// ActivateVisio sets a user's active video link, replacing any prior
// one in the same transaction.
func (h *AdminUserHandler) ActivateVisio(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}
	var req visioReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.URL == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "url required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	link, err := h.Visio.ActivateTx(ctx, id, req.URL)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "activate link failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"visioLink": link})
}

// DeactivateVisio turns off a user's active video link.
func (h *AdminUserHandler) DeactivateVisio(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	err = h.Visio.Deactivate(ctx, id)
	if err == repository.ErrNotFound {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "no active link"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "deactivate failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "link deactivated"})
}

// MyVisio returns the authenticated user's active video link. Mounted
// on the user group, not the admin group.
func (h *AdminUserHandler) MyVisio(c echo.Context) error {
	uid := c.Get(middleware.CtxUserID).(uint64)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	link, err := h.Visio.GetActiveByUser(ctx, uid)
	if err == repository.ErrNotFound {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "no active link"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load link failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"visioLink": link})
}

// Delete removes an account and everything attached to it. The cache is
// invalidated in case the deleted account was an admin.
func (h *AdminUserHandler) Delete(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	err = h.Users.DeleteCascade(ctx, id)
	if err == repository.ErrNotFound {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}

	h.Messaging.InvalidateAdminCache(ctx)
	return c.JSON(http.StatusOK, echo.Map{"message": "user deleted"})
}
