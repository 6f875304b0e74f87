package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/odialabs/coaching-api/internal/model"
)

func TestCanonicalAdminID(t *testing.T) {
	db, mock, cleanup := newTestDB(t)
	defer cleanup()

	r := NewUserRepo(db)
	q := regexp.QuoteMeta("SELECT id FROM users WHERE role=? ORDER BY id LIMIT 1")

	// No admin on the roster is ErrNotFound, which the messaging
	// service maps to a hard failure.
	mock.ExpectQuery(q).
		WithArgs(model.RoleAdmin).
		WillReturnError(sql.ErrNoRows)

	_, err := r.CanonicalAdminID(context.Background())
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("got err '%v', want ErrNotFound", err)
	}

	// With several admins the lowest id wins; the ORDER BY id LIMIT 1
	// in the query is what guarantees it.
	mock.ExpectQuery(q).
		WithArgs(model.RoleAdmin).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(3))

	id, err := r.CanonicalAdminID(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if id != 3 {
		t.Errorf("got admin id %d, want 3", id)
	}
}

func TestSetResetTokenOverwrites(t *testing.T) {
	db, mock, cleanup := newTestDB(t)
	defer cleanup()

	r := NewUserRepo(db)
	var (
		q       = regexp.QuoteMeta("UPDATE users SET reset_token=?, reset_token_expires=? WHERE id=?")
		token   = "aabbcc"
		expires = time.Date(2026, 8, 30, 13, 0, 0, 0, time.UTC)
	)

	mock.ExpectExec(q).
		WithArgs(token, expires, uint64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := r.SetResetToken(context.Background(), 7, token, expires); err != nil {
		t.Fatal(err)
	}

	// Unknown user.
	mock.ExpectExec(q).
		WithArgs(token, expires, uint64(8)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := r.SetResetToken(context.Background(), 8, token, expires)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("got err '%v', want ErrNotFound", err)
	}
}

func TestResetPasswordByTokenIsSingleUse(t *testing.T) {
	db, mock, cleanup := newTestDB(t)
	defer cleanup()

	r := NewUserRepo(db)
	var (
		q     = regexp.QuoteMeta("WHERE reset_token=? AND reset_token_expires > UTC_TIMESTAMP()")
		token = "aabbcc"
		hash  = "$2a$10$newhash"
	)

	// First consumption matches the row and clears the token.
	mock.ExpectExec(q).
		WithArgs(hash, token).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := r.ResetPasswordByToken(context.Background(), token, hash); err != nil {
		t.Fatal(err)
	}

	// Second consumption matches nothing: same outcome as a token
	// that never existed or one that expired.
	mock.ExpectExec(q).
		WithArgs(hash, token).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := r.ResetPasswordByToken(context.Background(), token, hash)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("got err '%v', want ErrNotFound", err)
	}
}

func TestUpdateRole(t *testing.T) {
	db, mock, cleanup := newTestDB(t)
	defer cleanup()

	r := NewUserRepo(db)
	q := regexp.QuoteMeta("UPDATE users SET role=? WHERE id=?")

	mock.ExpectExec(q).
		WithArgs(model.RoleAdmin, uint64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := r.UpdateRole(context.Background(), 7, model.RoleAdmin); err != nil {
		t.Fatal(err)
	}

	mock.ExpectExec(q).
		WithArgs(model.RoleAdmin, uint64(404)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := r.UpdateRole(context.Background(), 404, model.RoleAdmin)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("got err '%v', want ErrNotFound", err)
	}
}

func TestDeleteCascadeRollsBack(t *testing.T) {
	db, mock, cleanup := newTestDB(t)
	defer cleanup()

	r := NewUserRepo(db)
	id := uint64(7)

	// A failure mid-transaction must roll everything back.
	unexpectedErr := errors.New("unexpected error")
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM appointments WHERE user_id=?")).
		WithArgs(id).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM forms WHERE user_id=?")).
		WithArgs(id).
		WillReturnError(unexpectedErr)
	mock.ExpectRollback()

	err := r.DeleteCascade(context.Background(), id)
	if !errors.Is(err, unexpectedErr) {
		t.Errorf("got err '%v', want '%v'", err, unexpectedErr)
	}

	// Success path deletes dependents before the user row and commits.
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM appointments WHERE user_id=?")).
		WithArgs(id).WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM forms WHERE user_id=?")).
		WithArgs(id).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM documents WHERE user_id=?")).
		WithArgs(id).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM visio_links WHERE user_id=?")).
		WithArgs(id).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM internal_messages WHERE sender_id=? OR receiver_id=?")).
		WithArgs(id, id).WillReturnResult(sqlmock.NewResult(0, 5))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM profiles WHERE user_id=?")).
		WithArgs(id).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM users WHERE id=?")).
		WithArgs(id).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := r.DeleteCascade(context.Background(), id); err != nil {
		t.Fatal(err)
	}
}
