package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/odialabs/coaching-api/internal/middleware"
	"github.com/odialabs/coaching-api/internal/service"
)

// UserMessageHandler is the student side of internal messaging. The
// counterparty is always the canonical admin; students never address
// a receiver themselves.
type UserMessageHandler struct {
	Messaging *service.Messaging
}

func NewUserMessageHandler(m *service.Messaging) *UserMessageHandler {
	return &UserMessageHandler{Messaging: m}
}

type sendMessageReq struct {
	Content string `json:"content"`
}

func pagination(c echo.Context) (limit, offset int) {
	limit = 50
	if v, err := strconv.Atoi(c.QueryParam("limit")); err == nil && v > 0 && v <= 100 {
		limit = v
	}
	if v, err := strconv.Atoi(c.QueryParam("offset")); err == nil && v >= 0 {
		offset = v
	}
	return limit, offset
}

// Send posts a message to the coach.
func (h *UserMessageHandler) Send(c echo.Context) error {
	uid := c.Get(middleware.CtxUserID).(uint64)

	var req sendMessageReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	msg, err := h.Messaging.SendToAdmin(ctx, uid, req.Content)
	if err == service.ErrEmptyContent {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "content required"})
	}
	if err == service.ErrNoAdmin {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "messaging unavailable"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "send failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"message": msg})
}

// Conversation returns a page of the student's conversation with the
// coach, newest first.
func (h *UserMessageHandler) Conversation(c echo.Context) error {
	uid := c.Get(middleware.CtxUserID).(uint64)
	limit, offset := pagination(c)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	msgs, total, err := h.Messaging.UserConversation(ctx, uid, limit, offset)
	if err == service.ErrNoAdmin {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "messaging unavailable"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load conversation failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"messages": msgs, "total": total})
}

// MarkRead marks the coach's messages to this student as read.
func (h *UserMessageHandler) MarkRead(c echo.Context) error {
	uid := c.Get(middleware.CtxUserID).(uint64)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	n, err := h.Messaging.MarkReadByUser(ctx, uid)
	if err == service.ErrNoAdmin {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "messaging unavailable"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "mark read failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"marked": n})
}

// UnreadCount returns how many coach messages the student has not read.
func (h *UserMessageHandler) UnreadCount(c echo.Context) error {
	uid := c.Get(middleware.CtxUserID).(uint64)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	n, err := h.Messaging.UnreadForUser(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "count failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"unread": n})
}
