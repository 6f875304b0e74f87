package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/odialabs/coaching-api/internal/model"
)

// AppointmentRepo manages appointments and their coupling to time
// slots. Booking and cancellation run inside a single transaction so
// the slot status and appointment row can never diverge.
type AppointmentRepo struct{ DB *sql.DB }

func NewAppointmentRepo(db *sql.DB) *AppointmentRepo { return &AppointmentRepo{DB: db} }

const appointmentColumns = "id, user_id, slot_id, type, status, notes, reminded_24h, reminded_2h, created_at, updated_at"

func scanAppointmentRows(rows *sql.Rows) (model.Appointment, error) {
	var a model.Appointment
	err := rows.Scan(&a.ID, &a.UserID, &a.SlotID, &a.Type, &a.Status, &a.Notes,
		&a.Reminded24h, &a.Reminded2h, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}

// BookTx reserves an available slot for a user. The slot flips to
// booked, the appointment is inserted and the matching progression
// column is bumped, all atomically. A slot that is missing, in the
// past or already booked yields ErrConflict.
func (r *AppointmentRepo) BookTx(ctx context.Context, userID, slotID uint64, notes *string) (model.Appointment, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return model.Appointment{}, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE time_slots SET status = ?
		 WHERE id = ? AND status = ? AND start_at >= UTC_TIMESTAMP()`,
		model.SlotBooked, slotID, model.SlotAvailable)
	if err != nil {
		return model.Appointment{}, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return model.Appointment{}, err
	}
	if n == 0 {
		return model.Appointment{}, ErrConflict
	}

	var slotType string
	if err := tx.QueryRowContext(ctx,
		"SELECT type FROM time_slots WHERE id=?", slotID).Scan(&slotType); err != nil {
		return model.Appointment{}, err
	}

	ins, err := tx.ExecContext(ctx,
		"INSERT INTO appointments (user_id, slot_id, type, status, notes) VALUES (?,?,?,?,?)",
		userID, slotID, slotType, model.AppointmentScheduled, notes)
	if err != nil {
		return model.Appointment{}, err
	}
	id, err := ins.LastInsertId()
	if err != nil {
		return model.Appointment{}, err
	}

	progress := "progress_phone_call"
	if slotType == model.TypeStrategy {
		progress = "progress_strategy_call"
	}
	if _, err := tx.ExecContext(ctx,
		"UPDATE profiles SET "+progress+" = 100 WHERE user_id = ?", userID); err != nil {
		return model.Appointment{}, err
	}

	var a model.Appointment
	if err := tx.QueryRowContext(ctx,
		"SELECT "+appointmentColumns+" FROM appointments WHERE id=?", id).
		Scan(&a.ID, &a.UserID, &a.SlotID, &a.Type, &a.Status, &a.Notes,
			&a.Reminded24h, &a.Reminded2h, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return model.Appointment{}, err
	}
	if err := tx.Commit(); err != nil {
		return model.Appointment{}, err
	}
	return a, nil
}

// CancelTx cancels an appointment and releases its slot. When adminOnly
// is false the appointment must belong to userID.
func (r *AppointmentRepo) CancelTx(ctx context.Context, id, userID uint64, admin bool) (model.Appointment, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return model.Appointment{}, err
	}
	defer tx.Rollback()

	q := "SELECT " + appointmentColumns + " FROM appointments WHERE id = ?"
	args := []interface{}{id}
	if !admin {
		q += " AND user_id = ?"
		args = append(args, userID)
	}
	var a model.Appointment
	err = tx.QueryRowContext(ctx, q, args...).
		Scan(&a.ID, &a.UserID, &a.SlotID, &a.Type, &a.Status, &a.Notes,
			&a.Reminded24h, &a.Reminded2h, &a.CreatedAt, &a.UpdatedAt)
	if err == sql.ErrNoRows {
		return model.Appointment{}, ErrNotFound
	}
	if err != nil {
		return model.Appointment{}, err
	}
	if a.Status != model.AppointmentScheduled {
		return model.Appointment{}, ErrConflict
	}

	if _, err := tx.ExecContext(ctx,
		"UPDATE appointments SET status = ? WHERE id = ?", model.AppointmentCanceled, id); err != nil {
		return model.Appointment{}, err
	}
	if _, err := tx.ExecContext(ctx,
		"UPDATE time_slots SET status = ? WHERE id = ?", model.SlotAvailable, a.SlotID); err != nil {
		return model.Appointment{}, err
	}
	if err := tx.Commit(); err != nil {
		return model.Appointment{}, err
	}
	a.Status = model.AppointmentCanceled
	return a, nil
}

// AdminCreateTx books a slot on behalf of a user. Same transaction
// shape as BookTx but skips the past-slot guard so an admin can record
// an appointment that already happened.
func (r *AppointmentRepo) AdminCreateTx(ctx context.Context, userID, slotID uint64, notes *string) (model.Appointment, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return model.Appointment{}, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		"UPDATE time_slots SET status = ? WHERE id = ? AND status = ?",
		model.SlotBooked, slotID, model.SlotAvailable)
	if err != nil {
		return model.Appointment{}, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return model.Appointment{}, err
	}
	if n == 0 {
		return model.Appointment{}, ErrConflict
	}

	var slotType string
	if err := tx.QueryRowContext(ctx,
		"SELECT type FROM time_slots WHERE id=?", slotID).Scan(&slotType); err != nil {
		return model.Appointment{}, err
	}

	ins, err := tx.ExecContext(ctx,
		"INSERT INTO appointments (user_id, slot_id, type, status, notes) VALUES (?,?,?,?,?)",
		userID, slotID, slotType, model.AppointmentScheduled, notes)
	if err != nil {
		return model.Appointment{}, err
	}
	id, err := ins.LastInsertId()
	if err != nil {
		return model.Appointment{}, err
	}
	var a model.Appointment
	if err := tx.QueryRowContext(ctx,
		"SELECT "+appointmentColumns+" FROM appointments WHERE id=?", id).
		Scan(&a.ID, &a.UserID, &a.SlotID, &a.Type, &a.Status, &a.Notes,
			&a.Reminded24h, &a.Reminded2h, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return model.Appointment{}, err
	}
	if err := tx.Commit(); err != nil {
		return model.Appointment{}, err
	}
	return a, nil
}

// SetStatus updates an appointment status (admin).
func (r *AppointmentRepo) SetStatus(ctx context.Context, id uint64, status string) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE appointments SET status = ? WHERE id = ?", status, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// AppointmentDetail joins the appointment with its slot window and the
// booking user, for admin listings and reminder emails.
type AppointmentDetail struct {
	model.Appointment
	StartAt   time.Time `json:"startAt"`
	EndAt     time.Time `json:"endAt"`
	Email     string    `json:"email"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
}

const detailQuery = `
	SELECT a.id, a.user_id, a.slot_id, a.type, a.status, a.notes,
	       a.reminded_24h, a.reminded_2h, a.created_at, a.updated_at,
	       s.start_at, s.end_at, u.email, u.first_name, u.last_name
	FROM appointments a
	JOIN time_slots s ON s.id = a.slot_id
	JOIN users u ON u.id = a.user_id`

func scanDetail(rows *sql.Rows) (AppointmentDetail, error) {
	var d AppointmentDetail
	err := rows.Scan(&d.ID, &d.UserID, &d.SlotID, &d.Type, &d.Status, &d.Notes,
		&d.Reminded24h, &d.Reminded2h, &d.CreatedAt, &d.UpdatedAt,
		&d.StartAt, &d.EndAt, &d.Email, &d.FirstName, &d.LastName)
	return d, err
}

// GetDetail returns one appointment with slot and user detail.
func (r *AppointmentRepo) GetDetail(ctx context.Context, id uint64) (AppointmentDetail, error) {
	rows, err := r.DB.QueryContext(ctx, detailQuery+" WHERE a.id = ?", id)
	if err != nil {
		return AppointmentDetail{}, err
	}
	defer rows.Close()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return AppointmentDetail{}, err
		}
		return AppointmentDetail{}, ErrNotFound
	}
	return scanDetail(rows)
}

// ListAll returns every appointment with slot and user detail, soonest
// slot first.
func (r *AppointmentRepo) ListAll(ctx context.Context) ([]AppointmentDetail, error) {
	rows, err := r.DB.QueryContext(ctx, detailQuery+" ORDER BY s.start_at ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectDetails(rows)
}

// ListByUser returns a user's own appointments, soonest first.
func (r *AppointmentRepo) ListByUser(ctx context.Context, userID uint64) ([]AppointmentDetail, error) {
	rows, err := r.DB.QueryContext(ctx,
		detailQuery+" WHERE a.user_id = ? ORDER BY s.start_at ASC", userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectDetails(rows)
}

func collectDetails(rows *sql.Rows) ([]AppointmentDetail, error) {
	var out []AppointmentDetail
	for rows.Next() {
		d, err := scanDetail(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// DueForReminder returns scheduled appointments starting within the
// window that have not yet received the reminder named by column.
// column must be reminded_24h or reminded_2h.
func (r *AppointmentRepo) DueForReminder(ctx context.Context, column string, within time.Duration) ([]AppointmentDetail, error) {
	if column != "reminded_24h" && column != "reminded_2h" {
		return nil, ErrNotFound
	}
	rows, err := r.DB.QueryContext(ctx,
		detailQuery+` WHERE a.status = ? AND a.`+column+` = FALSE
		 AND s.start_at > UTC_TIMESTAMP()
		 AND s.start_at <= DATE_ADD(UTC_TIMESTAMP(), INTERVAL ? SECOND)`,
		model.AppointmentScheduled, int64(within.Seconds()))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectDetails(rows)
}

// MarkReminded records that the reminder named by column was sent.
func (r *AppointmentRepo) MarkReminded(ctx context.Context, id uint64, column string) error {
	if column != "reminded_24h" && column != "reminded_2h" {
		return ErrNotFound
	}
	_, err := r.DB.ExecContext(ctx,
		"UPDATE appointments SET "+column+" = TRUE WHERE id = ?", id)
	return err
}
