package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/odialabs/coaching-api/internal/model"
)

var appointmentRowColumns = []string{
	"id", "user_id", "slot_id", "type", "status", "notes",
	"reminded_24h", "reminded_2h", "created_at", "updated_at",
}

func TestBookTxConflict(t *testing.T) {
	db, mock, cleanup := newTestDB(t)
	defer cleanup()

	r := NewAppointmentRepo(db)

	// A slot that is missing, already booked or in the past makes the
	// guarded UPDATE match zero rows; the transaction must roll back
	// without touching appointments.
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE time_slots SET status = ?")).
		WithArgs(model.SlotBooked, uint64(5), model.SlotAvailable).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, err := r.BookTx(context.Background(), 7, 5, nil)
	if !errors.Is(err, ErrConflict) {
		t.Errorf("got %v, want ErrConflict", err)
	}
}

func TestBookTxBumpsProgression(t *testing.T) {
	db, mock, cleanup := newTestDB(t)
	defer cleanup()

	r := NewAppointmentRepo(db)
	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE time_slots SET status = ?")).
		WithArgs(model.SlotBooked, uint64(5), model.SlotAvailable).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT type FROM time_slots WHERE id=?")).
		WithArgs(uint64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"type"}).AddRow(model.TypeStrategy))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO appointments")).
		WithArgs(uint64(7), uint64(5), model.TypeStrategy, model.AppointmentScheduled, nil).
		WillReturnResult(sqlmock.NewResult(11, 1))
	// The slot type picks which progression column is completed.
	mock.ExpectExec(regexp.QuoteMeta("UPDATE profiles SET progress_strategy_call = 100 WHERE user_id = ?")).
		WithArgs(uint64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("FROM appointments WHERE id=?")).
		WithArgs(int64(11)).
		WillReturnRows(sqlmock.NewRows(appointmentRowColumns).
			AddRow(11, 7, 5, model.TypeStrategy, model.AppointmentScheduled, nil,
				false, false, now, now))
	mock.ExpectCommit()

	a, err := r.BookTx(context.Background(), 7, 5, nil)
	if err != nil {
		t.Fatalf("BookTx: %v", err)
	}
	if a.ID != 11 || a.Type != model.TypeStrategy || a.Status != model.AppointmentScheduled {
		t.Errorf("unexpected appointment: %+v", a)
	}
}

func TestCancelTxScopesToOwner(t *testing.T) {
	db, mock, cleanup := newTestDB(t)
	defer cleanup()

	r := NewAppointmentRepo(db)

	// Non-admin cancellation filters on user_id; another user's
	// appointment simply does not exist from the caller's view.
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM appointments WHERE id = ? AND user_id = ?")).
		WithArgs(uint64(11), uint64(99)).
		WillReturnRows(sqlmock.NewRows(appointmentRowColumns))
	mock.ExpectRollback()

	_, err := r.CancelTx(context.Background(), 11, 99, false)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}

func TestCancelTxRejectsNonScheduled(t *testing.T) {
	db, mock, cleanup := newTestDB(t)
	defer cleanup()

	r := NewAppointmentRepo(db)
	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM appointments WHERE id = ?")).
		WithArgs(uint64(11)).
		WillReturnRows(sqlmock.NewRows(appointmentRowColumns).
			AddRow(11, 7, 5, model.TypePhone, model.AppointmentDone, nil,
				true, true, now, now))
	mock.ExpectRollback()

	_, err := r.CancelTx(context.Background(), 11, 0, true)
	if !errors.Is(err, ErrConflict) {
		t.Errorf("got %v, want ErrConflict", err)
	}
}

func TestCancelTxReleasesSlot(t *testing.T) {
	db, mock, cleanup := newTestDB(t)
	defer cleanup()

	r := NewAppointmentRepo(db)
	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FROM appointments WHERE id = ?")).
		WithArgs(uint64(11)).
		WillReturnRows(sqlmock.NewRows(appointmentRowColumns).
			AddRow(11, 7, 5, model.TypePhone, model.AppointmentScheduled, nil,
				false, false, now, now))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE appointments SET status = ? WHERE id = ?")).
		WithArgs(model.AppointmentCanceled, uint64(11)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE time_slots SET status = ? WHERE id = ?")).
		WithArgs(model.SlotAvailable, uint64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	a, err := r.CancelTx(context.Background(), 11, 0, true)
	if err != nil {
		t.Fatalf("CancelTx: %v", err)
	}
	if a.Status != model.AppointmentCanceled {
		t.Errorf("got status %q, want %q", a.Status, model.AppointmentCanceled)
	}
}
