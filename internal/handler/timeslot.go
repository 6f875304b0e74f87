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

// TimeSlotHandler exposes slot listing to students and slot management
// to the admin.
type TimeSlotHandler struct {
	Slots *repository.TimeSlotRepo
}

func NewTimeSlotHandler(s *repository.TimeSlotRepo) *TimeSlotHandler {
	return &TimeSlotHandler{Slots: s}
}

type slotReq struct {
	StartAt *time.Time `json:"startAt"`
	EndAt   *time.Time `json:"endAt"`
	Status  *string    `json:"status"`
	Type    *string    `json:"type"`
}

func validSlotType(t string) bool {
	return t == model.TypePhone || t == model.TypeStrategy
}

// ListAvailable returns future open slots for booking.
func (h *TimeSlotHandler) ListAvailable(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	slots, err := h.Slots.ListAvailable(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list slots failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"slots": slots})
}

// Create opens a new slot (admin).
func (h *TimeSlotHandler) Create(c echo.Context) error {
	var req slotReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.StartAt == nil || req.EndAt == nil || req.Type == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "startAt, endAt and type required"})
	}
	if !req.EndAt.After(*req.StartAt) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "endAt must be after startAt"})
	}
	if !validSlotType(*req.Type) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid type"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	slot, err := h.Slots.Create(ctx, *req.StartAt, *req.EndAt, model.SlotAvailable, *req.Type)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create slot failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"slot": slot})
}

// Update edits a slot (admin).
func (h *TimeSlotHandler) Update(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid slot id"})
	}
	var req slotReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Type != nil && !validSlotType(*req.Type) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid type"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	slot, err := h.Slots.Update(ctx, id, req.StartAt, req.EndAt, req.Status, req.Type)
	if err == repository.ErrNotFound {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "slot not found"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update slot failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"slot": slot})
}

// Delete removes a slot (admin). Booked slots cannot be removed.
func (h *TimeSlotHandler) Delete(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid slot id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	err = h.Slots.Delete(ctx, id)
	if err == repository.ErrNotFound {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "slot not found"})
	}
	if err == repository.ErrConflict {
		return c.JSON(http.StatusConflict, echo.Map{"error": "slot is booked"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete slot failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "slot deleted"})
}
