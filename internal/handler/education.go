package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/odialabs/coaching-api/internal/model"
	"github.com/odialabs/coaching-api/internal/repository"
)

// EducationHandler serves the public education catalog and its admin
// CRUD. Public reads sit behind the redis response cache.
type EducationHandler struct {
	Education *repository.EducationRepo
}

func NewEducationHandler(e *repository.EducationRepo) *EducationHandler {
	return &EducationHandler{Education: e}
}

type sectionReq struct {
	Title        *string `json:"title"`
	Description  *string `json:"description"`
	DisplayOrder *int    `json:"displayOrder"`
}

type contentReq struct {
	SectionID    uint64  `json:"sectionId"`
	Title        *string `json:"title"`
	Body         *string `json:"body"`
	ContentType  *string `json:"contentType"`
	URL          *string `json:"url"`
	DisplayOrder *int    `json:"displayOrder"`
}

// ListSections returns all sections (public).
func (h *EducationHandler) ListSections(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	sections, err := h.Education.ListSections(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list sections failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"sections": sections})
}

// ListContents returns one section's contents (public).
func (h *EducationHandler) ListContents(c echo.Context) error {
	sectionID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid section id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	contents, err := h.Education.ListContents(ctx, sectionID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list contents failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"contents": contents})
}

// CreateSection adds a section (admin).
func (h *EducationHandler) CreateSection(c echo.Context) error {
	var req sectionReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Title == nil || *req.Title == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "title required"})
	}
	desc := ""
	if req.Description != nil {
		desc = *req.Description
	}
	order := 0
	if req.DisplayOrder != nil {
		order = *req.DisplayOrder
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	section, err := h.Education.CreateSection(ctx, *req.Title, desc, order)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create section failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"section": section})
}

// UpdateSection edits a section (admin).
func (h *EducationHandler) UpdateSection(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid section id"})
	}
	var req sectionReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	section, err := h.Education.UpdateSection(ctx, id, req.Title, req.Description, req.DisplayOrder)
	if err == repository.ErrNotFound {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "section not found"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update section failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"section": section})
}

// DeleteSection removes a section and its contents (admin).
func (h *EducationHandler) DeleteSection(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid section id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	err = h.Education.DeleteSection(ctx, id)
	if err == repository.ErrNotFound {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "section not found"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete section failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "section deleted"})
}

// CreateContent adds content to a section (admin).
func (h *EducationHandler) CreateContent(c echo.Context) error {
	var req contentReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.SectionID == 0 || req.Title == nil || *req.Title == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "sectionId and title required"})
	}

	content := model.EducationContent{SectionID: req.SectionID, Title: *req.Title}
	if req.Body != nil {
		content.Body = *req.Body
	}
	if req.ContentType != nil {
		content.ContentType = *req.ContentType
	}
	if req.URL != nil {
		content.URL = *req.URL
	}
	if req.DisplayOrder != nil {
		content.DisplayOrder = *req.DisplayOrder
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	created, err := h.Education.CreateContent(ctx, content)
	if err == repository.ErrNotFound {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "section not found"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create content failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"content": created})
}

// UpdateContent edits a content row (admin).
func (h *EducationHandler) UpdateContent(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid content id"})
	}
	var req contentReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	content, err := h.Education.UpdateContent(ctx, id, req.Title, req.Body, req.ContentType, req.URL, req.DisplayOrder)
	if err == repository.ErrNotFound {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "content not found"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update content failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"content": content})
}

// DeleteContent removes a content row (admin).
func (h *EducationHandler) DeleteContent(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid content id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	err = h.Education.DeleteContent(ctx, id)
	if err == repository.ErrNotFound {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "content not found"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete content failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "content deleted"})
}
