package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/odialabs/coaching-api/internal/middleware"
	"github.com/odialabs/coaching-api/internal/model"
	"github.com/odialabs/coaching-api/internal/queue"
	"github.com/odialabs/coaching-api/internal/repository"
	"github.com/odialabs/coaching-api/internal/service"
)

// AppointmentHandler covers booking and cancellation for students plus
// the admin views. After a booking or cancellation commits, an event is
// published for the mail consumer; publish failures never fail the
// request.
type AppointmentHandler struct {
	Appointments *repository.AppointmentRepo
	Publisher    *service.Publisher
}

func NewAppointmentHandler(a *repository.AppointmentRepo, p *service.Publisher) *AppointmentHandler {
	return &AppointmentHandler{Appointments: a, Publisher: p}
}

type bookReq struct {
	SlotID uint64  `json:"slotId"`
	Notes  *string `json:"notes"`
}

type adminBookReq struct {
	UserID uint64  `json:"userId"`
	SlotID uint64  `json:"slotId"`
	Notes  *string `json:"notes"`
}

type statusReq struct {
	Status string `json:"status"`
}

// Book reserves an available slot for the authenticated user.
func (h *AppointmentHandler) Book(c echo.Context) error {
	uid := c.Get(middleware.CtxUserID).(uint64)

	var req bookReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.SlotID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "slotId required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	appt, err := h.Appointments.BookTx(ctx, uid, req.SlotID, req.Notes)
	if err == repository.ErrConflict {
		return c.JSON(http.StatusConflict, echo.Map{"error": "slot not available"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "booking failed"})
	}

	h.publishBooked(c, appt)
	return c.JSON(http.StatusCreated, echo.Map{"appointment": appt})
}

// Cancel cancels one of the user's own scheduled appointments and frees
// its slot.
func (h *AppointmentHandler) Cancel(c echo.Context) error {
	uid := c.Get(middleware.CtxUserID).(uint64)
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid appointment id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	appt, err := h.Appointments.CancelTx(ctx, id, uid, false)
	if err == repository.ErrNotFound {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "appointment not found"})
	}
	if err == repository.ErrConflict {
		return c.JSON(http.StatusConflict, echo.Map{"error": "appointment is not scheduled"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "cancel failed"})
	}

	h.publishCanceled(c, appt, false)
	return c.JSON(http.StatusOK, echo.Map{"appointment": appt})
}

// ListMine returns the authenticated user's appointments with slot
// details.
func (h *AppointmentHandler) ListMine(c echo.Context) error {
	uid := c.Get(middleware.CtxUserID).(uint64)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	appts, err := h.Appointments.ListByUser(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list appointments failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"appointments": appts})
}

// AdminList returns every appointment with user and slot info.
func (h *AppointmentHandler) AdminList(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	appts, err := h.Appointments.ListAll(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list appointments failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"appointments": appts})
}

// AdminCreate books a slot on behalf of a user.
func (h *AppointmentHandler) AdminCreate(c echo.Context) error {
	var req adminBookReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.UserID == 0 || req.SlotID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "userId and slotId required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	appt, err := h.Appointments.AdminCreateTx(ctx, req.UserID, req.SlotID, req.Notes)
	if err == repository.ErrConflict {
		return c.JSON(http.StatusConflict, echo.Map{"error": "slot not available"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "booking failed"})
	}

	h.publishBooked(c, appt)
	return c.JSON(http.StatusCreated, echo.Map{"appointment": appt})
}

// AdminCancel cancels any scheduled appointment.
func (h *AppointmentHandler) AdminCancel(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid appointment id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	appt, err := h.Appointments.CancelTx(ctx, id, 0, true)
	if err == repository.ErrNotFound {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "appointment not found"})
	}
	if err == repository.ErrConflict {
		return c.JSON(http.StatusConflict, echo.Map{"error": "appointment is not scheduled"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "cancel failed"})
	}

	h.publishCanceled(c, appt, true)
	return c.JSON(http.StatusOK, echo.Map{"appointment": appt})
}

// AdminSetStatus marks an appointment done or scheduled.
func (h *AppointmentHandler) AdminSetStatus(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid appointment id"})
	}
	var req statusReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Status != model.AppointmentScheduled && req.Status != model.AppointmentDone {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid status"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	err = h.Appointments.SetStatus(ctx, id, req.Status)
	if err == repository.ErrNotFound {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "appointment not found"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "status updated"})
}

// publishBooked emits the booked event. The detail join runs outside
// the booking transaction; by the time it executes the booking is
// committed, so a lookup failure only costs the email.
func (h *AppointmentHandler) publishBooked(c echo.Context, appt model.Appointment) {
	ctx := c.Request().Context()
	d, err := h.Appointments.GetDetail(ctx, appt.ID)
	if err != nil {
		c.Logger().Warnf("booked event: load detail for %d failed: %v", appt.ID, err)
		return
	}
	ev := queue.AppointmentBookedEvent{
		AppointmentID: d.ID,
		UserID:        d.UserID,
		Email:         d.Email,
		FirstName:     d.FirstName,
		LastName:      d.LastName,
		Type:          d.Type,
		StartsAt:      d.StartAt.UTC().Format(time.RFC3339),
		EndsAt:        d.EndAt.UTC().Format(time.RFC3339),
		BookedAt:      time.Now().UTC().Format(time.RFC3339),
	}
	_ = h.Publisher.PublishAppointmentBooked(ctx, ev)
}

func (h *AppointmentHandler) publishCanceled(c echo.Context, appt model.Appointment, byAdmin bool) {
	ctx := c.Request().Context()
	d, err := h.Appointments.GetDetail(ctx, appt.ID)
	if err != nil {
		c.Logger().Warnf("canceled event: load detail for %d failed: %v", appt.ID, err)
		return
	}
	ev := queue.AppointmentCanceledEvent{
		AppointmentID: d.ID,
		UserID:        d.UserID,
		Email:         d.Email,
		FirstName:     d.FirstName,
		StartsAt:      d.StartAt.UTC().Format(time.RFC3339),
		CanceledAt:    time.Now().UTC().Format(time.RFC3339),
		ByAdmin:       byAdmin,
	}
	_ = h.Publisher.PublishAppointmentCanceled(ctx, ev)
}
