package handler

import (
	"context"
	"html"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/odialabs/coaching-api/internal/config"
	"github.com/odialabs/coaching-api/internal/mail"
	"github.com/odialabs/coaching-api/internal/model"
	"github.com/odialabs/coaching-api/internal/repository"
)

// LeadHandler takes unauthenticated input from the public site: the
// student-lead capture form and the contact widget.
type LeadHandler struct {
	Cfg    config.Config
	Leads  *repository.LeadRepo
	Mailer *mail.Client
}

func NewLeadHandler(cfg config.Config, l *repository.LeadRepo, m *mail.Client) *LeadHandler {
	return &LeadHandler{Cfg: cfg, Leads: l, Mailer: m}
}

type leadReq struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	School    string `json:"school"`
	Region    string `json:"region"`
	Email     string `json:"email"`
}

type contactReq struct {
	Email   string `json:"email"`
	Content string `json:"content"`
}

// CreateLead records a prospect from the public form. A repeated email
// returns 200 as if it were new; the public form must not reveal which
// addresses are already known.
func (h *LeadHandler) CreateLead(c echo.Context) error {
	var req leadReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.FirstName == "" || req.LastName == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "firstName, lastName and email required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	_, err := h.Leads.CreateLead(ctx, model.StudentLead{
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
		School:    strings.TrimSpace(req.School),
		Region:    strings.TrimSpace(req.Region),
		Email:     req.Email,
	})
	if err != nil && err != repository.ErrEmailExists {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "save failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "thanks, we will be in touch"})
}

// ListLeads returns captured prospects (admin).
func (h *LeadHandler) ListLeads(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	leads, err := h.Leads.ListLeads(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list leads failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"leads": leads})
}

// DeleteLead removes a captured prospect (admin).
func (h *LeadHandler) DeleteLead(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Leads.DeleteLead(ctx, id); err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "lead not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete lead failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "lead deleted"})
}

// CreateContactMessage records a message from the public contact widget
// and forwards it to the admin mailbox.
func (h *LeadHandler) CreateContactMessage(c echo.Context) error {
	var req contactReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Content = strings.TrimSpace(req.Content)
	if req.Email == "" || req.Content == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email and content required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	msg, err := h.Leads.CreateContactMessage(ctx, req.Email, req.Content)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "save failed"})
	}

	if h.Cfg.AdminEmail != "" {
		h.Mailer.SendAsync(h.Cfg.AdminEmail, "Nouveau message de contact",
			"<p>De : "+html.EscapeString(req.Email)+"</p><p>"+html.EscapeString(req.Content)+"</p>")
	}
	return c.JSON(http.StatusCreated, echo.Map{"contactMessage": msg})
}

// ListContactMessages returns contact messages (admin).
func (h *LeadHandler) ListContactMessages(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	msgs, err := h.Leads.ListContactMessages(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list messages failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"contactMessages": msgs})
}
