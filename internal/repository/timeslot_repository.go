package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/odialabs/coaching-api/internal/model"
)

// TimeSlotRepo provides CRUD operations for bookable time slots.
type TimeSlotRepo struct{ DB *sql.DB }

func NewTimeSlotRepo(db *sql.DB) *TimeSlotRepo { return &TimeSlotRepo{DB: db} }

const slotColumns = "id, start_at, end_at, status, type, created_at, updated_at"

func scanSlot(row *sql.Row) (model.TimeSlot, error) {
	var s model.TimeSlot
	err := row.Scan(&s.ID, &s.StartAt, &s.EndAt, &s.Status, &s.Type, &s.CreatedAt, &s.UpdatedAt)
	return s, err
}

// Create inserts a new slot and returns the stored row.
func (r *TimeSlotRepo) Create(ctx context.Context, startAt, endAt time.Time, status, slotType string) (model.TimeSlot, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO time_slots (start_at, end_at, status, type) VALUES (?,?,?,?)",
		startAt, endAt, status, slotType)
	if err != nil {
		return model.TimeSlot{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.TimeSlot{}, err
	}
	return scanSlot(r.DB.QueryRowContext(ctx,
		"SELECT "+slotColumns+" FROM time_slots WHERE id=?", id))
}

// GetByID fetches a slot by id.
func (r *TimeSlotRepo) GetByID(ctx context.Context, id uint64) (model.TimeSlot, error) {
	s, err := scanSlot(r.DB.QueryRowContext(ctx,
		"SELECT "+slotColumns+" FROM time_slots WHERE id=?", id))
	if err == sql.ErrNoRows {
		return model.TimeSlot{}, ErrNotFound
	}
	return s, err
}

// ListAvailable returns future slots still open for booking, soonest
// first.
func (r *TimeSlotRepo) ListAvailable(ctx context.Context) ([]model.TimeSlot, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT `+slotColumns+` FROM time_slots
		 WHERE status = ? AND start_at >= UTC_TIMESTAMP()
		 ORDER BY start_at ASC`, model.SlotAvailable)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var slots []model.TimeSlot
	for rows.Next() {
		var s model.TimeSlot
		if err := rows.Scan(&s.ID, &s.StartAt, &s.EndAt, &s.Status, &s.Type, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		slots = append(slots, s)
	}
	return slots, rows.Err()
}

// Update applies the provided non-nil fields to a slot.
func (r *TimeSlotRepo) Update(ctx context.Context, id uint64, startAt, endAt *time.Time, status, slotType *string) (model.TimeSlot, error) {
	sets := make([]string, 0, 4)
	args := make([]interface{}, 0, 5)
	if startAt != nil {
		sets = append(sets, "start_at=?")
		args = append(args, *startAt)
	}
	if endAt != nil {
		sets = append(sets, "end_at=?")
		args = append(args, *endAt)
	}
	if status != nil {
		sets = append(sets, "status=?")
		args = append(args, *status)
	}
	if slotType != nil {
		sets = append(sets, "type=?")
		args = append(args, *slotType)
	}
	if len(sets) == 0 {
		return r.GetByID(ctx, id)
	}
	args = append(args, id)
	if _, err := r.DB.ExecContext(ctx,
		"UPDATE time_slots SET "+strings.Join(sets, ", ")+" WHERE id=?", args...); err != nil {
		return model.TimeSlot{}, err
	}
	return r.GetByID(ctx, id)
}

// Delete removes a slot unless it is booked.
func (r *TimeSlotRepo) Delete(ctx context.Context, id uint64) error {
	s, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if s.Status == model.SlotBooked {
		return ErrConflict
	}
	_, err = r.DB.ExecContext(ctx, "DELETE FROM time_slots WHERE id=?", id)
	return err
}
