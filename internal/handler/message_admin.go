package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/odialabs/coaching-api/internal/middleware"
	"github.com/odialabs/coaching-api/internal/repository"
	"github.com/odialabs/coaching-api/internal/service"
)

// AdminMessageHandler is the coach side of internal messaging: the
// triage list, per-student conversations and cleanup.
type AdminMessageHandler struct {
	Messaging *service.Messaging
}

func NewAdminMessageHandler(m *service.Messaging) *AdminMessageHandler {
	return &AdminMessageHandler{Messaging: m}
}

// Triage lists every student, unread conversations first.
func (h *AdminMessageHandler) Triage(c echo.Context) error {
	adminID := c.Get(middleware.CtxUserID).(uint64)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	users, err := h.Messaging.Triage(ctx, adminID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "triage failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"users": users})
}

// Conversation returns a page of the conversation with one student.
func (h *AdminMessageHandler) Conversation(c echo.Context) error {
	adminID := c.Get(middleware.CtxUserID).(uint64)
	userID, err := strconv.ParseUint(c.Param("userId"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}
	limit, offset := pagination(c)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	msgs, total, err := h.Messaging.AdminConversation(ctx, adminID, userID, limit, offset)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load conversation failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"messages": msgs, "total": total})
}

// Send posts a message to one student.
func (h *AdminMessageHandler) Send(c echo.Context) error {
	adminID := c.Get(middleware.CtxUserID).(uint64)
	userID, err := strconv.ParseUint(c.Param("userId"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}

	var req sendMessageReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	msg, err := h.Messaging.Send(ctx, adminID, userID, req.Content)
	if err == service.ErrEmptyContent {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "content required"})
	}
	if err == repository.ErrNotFound {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "send failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"message": msg})
}

// MarkRead marks one student's messages to the coach as read.
func (h *AdminMessageHandler) MarkRead(c echo.Context) error {
	adminID := c.Get(middleware.CtxUserID).(uint64)
	userID, err := strconv.ParseUint(c.Param("userId"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	n, err := h.Messaging.MarkReadByAdmin(ctx, adminID, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "mark read failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"marked": n})
}

// UnreadCount returns the coach's total unread across conversations.
func (h *AdminMessageHandler) UnreadCount(c echo.Context) error {
	adminID := c.Get(middleware.CtxUserID).(uint64)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	n, err := h.Messaging.UnreadForAdmin(ctx, adminID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "count failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"unread": n})
}

// DeleteConversation drops the whole conversation with one student.
func (h *AdminMessageHandler) DeleteConversation(c echo.Context) error {
	adminID := c.Get(middleware.CtxUserID).(uint64)
	userID, err := strconv.ParseUint(c.Param("userId"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	n, err := h.Messaging.DeleteConversation(ctx, adminID, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"deleted": n})
}

// DeleteMessage removes a single message by id.
func (h *AdminMessageHandler) DeleteMessage(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid message id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	err = h.Messaging.DeleteMessage(ctx, id)
	if err == repository.ErrNotFound {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "message not found"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "deleted"})
}
