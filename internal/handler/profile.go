package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/odialabs/coaching-api/internal/config"
	"github.com/odialabs/coaching-api/internal/mail"
	"github.com/odialabs/coaching-api/internal/middleware"
	"github.com/odialabs/coaching-api/internal/repository"
)

// ProfileHandler serves the authenticated user's coaching profile:
// contact details, progression, documents and forms.
type ProfileHandler struct {
	Cfg      config.Config
	Users    *repository.UserRepo
	Profiles *repository.ProfileRepo
	Mailer   *mail.Client
}

func NewProfileHandler(cfg config.Config, u *repository.UserRepo, p *repository.ProfileRepo, m *mail.Client) *ProfileHandler {
	return &ProfileHandler{Cfg: cfg, Users: u, Profiles: p, Mailer: m}
}

type profileInfoReq struct {
	Phone        *string `json:"phone"`
	Address      *string `json:"address"`
	FamilyStatus *string `json:"familyStatus"`
	BirthDate    *string `json:"birthDate"` // "2006-01-02"
}

type documentReq struct {
	Name string `json:"name"`
	Type string `json:"type"`
	URL  string `json:"url"`
}

type formReq struct {
	Data string `json:"data"`
}

// Get returns the user's profile with progression values.
func (h *ProfileHandler) Get(c echo.Context) error {
	uid := c.Get(middleware.CtxUserID).(uint64)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	p, err := h.Profiles.Get(ctx, uid)
	if err == repository.ErrNotFound {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "profile not found"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load profile failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"profile": p})
}

// UpdateInformations updates contact fields. Once all four are filled
// the profile progression reaches 100.
func (h *ProfileHandler) UpdateInformations(c echo.Context) error {
	uid := c.Get(middleware.CtxUserID).(uint64)

	var req profileInfoReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	var birthDate *time.Time
	if req.BirthDate != nil && *req.BirthDate != "" {
		t, err := time.Parse("2006-01-02", *req.BirthDate)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid birthDate"})
		}
		birthDate = &t
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Profiles.UpdateInformations(ctx, uid, req.Phone, req.Address, req.FamilyStatus, birthDate); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update profile failed"})
	}
	p, err := h.Profiles.Get(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load profile failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"profile": p})
}

// AddDocument registers a document reference and completes the document
// progression.
func (h *ProfileHandler) AddDocument(c echo.Context) error {
	uid := c.Get(middleware.CtxUserID).(uint64)

	var req documentReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Name == "" || req.URL == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name and url required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	doc, err := h.Profiles.AddDocument(ctx, uid, req.Name, req.Type, req.URL)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "add document failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"document": doc})
}

// ListDocuments returns the user's document references.
func (h *ProfileHandler) ListDocuments(c echo.Context) error {
	uid := c.Get(middleware.CtxUserID).(uint64)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	docs, err := h.Profiles.ListDocuments(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list documents failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"documents": docs})
}

// SubmitForm stores a questionnaire submission, completes the form
// progression and notifies the admin by mail.
func (h *ProfileHandler) SubmitForm(c echo.Context) error {
	uid := c.Get(middleware.CtxUserID).(uint64)

	var req formReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Data == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "data required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	form, err := h.Profiles.SaveForm(ctx, uid, req.Data)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "save form failed"})
	}

	if h.Cfg.AdminEmail != "" {
		if u, err := h.Users.GetByID(ctx, uid); err == nil {
			subject, body := mail.FormSubmittedAdmin(u.FirstName, u.LastName, u.Email)
			h.Mailer.SendAsync(h.Cfg.AdminEmail, subject, body)
		}
	}
	return c.JSON(http.StatusCreated, echo.Map{"form": form})
}

// UpdateForm replaces a submitted form's payload.
func (h *ProfileHandler) UpdateForm(c echo.Context) error {
	uid := c.Get(middleware.CtxUserID).(uint64)
	formID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid form id"})
	}

	var req formReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Data == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "data required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	form, err := h.Profiles.UpdateForm(ctx, uid, formID, req.Data)
	if err == repository.ErrNotFound {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "form not found"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update form failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"form": form})
}

// ListForms returns the user's forms.
func (h *ProfileHandler) ListForms(c echo.Context) error {
	uid := c.Get(middleware.CtxUserID).(uint64)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	forms, err := h.Profiles.ListForms(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list forms failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"forms": forms})
}

// DeleteForm removes one of the user's forms.
func (h *ProfileHandler) DeleteForm(c echo.Context) error {
	uid := c.Get(middleware.CtxUserID).(uint64)
	formID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid form id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	err = h.Profiles.DeleteForm(ctx, uid, formID)
	if err == repository.ErrNotFound {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "form not found"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete form failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "form deleted"})
}
