package service

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/odialabs/coaching-api/internal/model"
	"github.com/odialabs/coaching-api/internal/repository"
)

// newTestMessaging mocks the database and runs without redis, so every
// admin resolution goes straight to the repository.
func newTestMessaging(t *testing.T) (*Messaging, sqlmock.Sqlmock, func()) {
	t.Helper()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	cleanup := func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet expectations: %v", err)
		}
		db.Close()
	}
	m := NewMessaging(repository.NewUserRepo(db), repository.NewMessageRepo(db), nil)
	return m, mock, cleanup
}

var userRowColumns = []string{
	"id", "email", "password_hash", "first_name", "last_name", "role",
	"reset_token", "reset_token_expires", "created_at", "updated_at",
}

func userRow(id uint64, role string) *sqlmock.Rows {
	now := time.Now().UTC()
	return sqlmock.NewRows(userRowColumns).
		AddRow(id, "someone@example.com", "x", "Jane", "Doe", role, nil, nil, now, now)
}

func expectCanonicalAdmin(mock sqlmock.Sqlmock, id uint64, missing bool) {
	q := mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM users WHERE role=? ORDER BY id LIMIT 1")).
		WithArgs(model.RoleAdmin)
	if missing {
		q.WillReturnError(sql.ErrNoRows)
	} else {
		q.WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(id))
	}
}

func TestSendToAdminWithoutAdmin(t *testing.T) {
	m, mock, cleanup := newTestMessaging(t)
	defer cleanup()

	expectCanonicalAdmin(mock, 0, true)

	_, err := m.SendToAdmin(context.Background(), 7, "bonjour")
	if !errors.Is(err, ErrNoAdmin) {
		t.Errorf("got %v, want ErrNoAdmin", err)
	}
}

func TestSendRejectsBlankContent(t *testing.T) {
	m, _, cleanup := newTestMessaging(t)
	defer cleanup()

	// Whitespace-only content must be rejected before any lookup.
	for _, content := range []string{"", "   ", "\n\t "} {
		_, err := m.Send(context.Background(), 7, 1, content)
		if !errors.Is(err, ErrEmptyContent) {
			t.Errorf("Send(%q): got %v, want ErrEmptyContent", content, err)
		}
	}
}

func TestSendTrimsContent(t *testing.T) {
	m, mock, cleanup := newTestMessaging(t)
	defer cleanup()

	now := time.Now().UTC()
	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE id=? LIMIT 1")).
		WithArgs(uint64(7)).
		WillReturnRows(userRow(7, model.RoleUser))
	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE id=? LIMIT 1")).
		WithArgs(uint64(1)).
		WillReturnRows(userRow(1, model.RoleAdmin))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO internal_messages")).
		WithArgs(uint64(7), uint64(1), "bonjour", false).
		WillReturnResult(sqlmock.NewResult(44, 1))
	mock.ExpectQuery(regexp.QuoteMeta("FROM internal_messages WHERE id=?")).
		WithArgs(int64(44)).
		WillReturnRows(sqlmock.NewRows(
			[]string{"id", "sender_id", "receiver_id", "content", "is_admin", "is_read", "created_at"}).
			AddRow(44, 7, 1, "bonjour", false, false, now))

	// Surrounding whitespace is stripped before the message is stored.
	if _, err := m.Send(context.Background(), 7, 1, "  bonjour \n"); err != nil {
		t.Fatalf("Send: %v", err)
	}
}

func TestSendDerivesAdminFlagFromSenderRole(t *testing.T) {
	m, mock, cleanup := newTestMessaging(t)
	defer cleanup()

	now := time.Now().UTC()
	// The admin flag on the stored message comes from the sender's
	// role in the database, never from the request.
	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE id=? LIMIT 1")).
		WithArgs(uint64(1)).
		WillReturnRows(userRow(1, model.RoleAdmin))
	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE id=? LIMIT 1")).
		WithArgs(uint64(7)).
		WillReturnRows(userRow(7, model.RoleUser))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO internal_messages")).
		WithArgs(uint64(1), uint64(7), "bonjour", true).
		WillReturnResult(sqlmock.NewResult(42, 1))
	mock.ExpectQuery(regexp.QuoteMeta("FROM internal_messages WHERE id=?")).
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows(
			[]string{"id", "sender_id", "receiver_id", "content", "is_admin", "is_read", "created_at"}).
			AddRow(42, 1, 7, "bonjour", true, false, now))

	msg, err := m.Send(context.Background(), 1, 7, "bonjour")
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if !msg.IsAdmin {
		t.Error("message from an admin sender must carry the admin flag")
	}
}

func TestSendToAdminRoutesToLowestAdmin(t *testing.T) {
	m, mock, cleanup := newTestMessaging(t)
	defer cleanup()

	now := time.Now().UTC()
	expectCanonicalAdmin(mock, 1, false)
	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE id=? LIMIT 1")).
		WithArgs(uint64(7)).
		WillReturnRows(userRow(7, model.RoleUser))
	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE id=? LIMIT 1")).
		WithArgs(uint64(1)).
		WillReturnRows(userRow(1, model.RoleAdmin))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO internal_messages")).
		WithArgs(uint64(7), uint64(1), "bonjour", false).
		WillReturnResult(sqlmock.NewResult(43, 1))
	mock.ExpectQuery(regexp.QuoteMeta("FROM internal_messages WHERE id=?")).
		WithArgs(int64(43)).
		WillReturnRows(sqlmock.NewRows(
			[]string{"id", "sender_id", "receiver_id", "content", "is_admin", "is_read", "created_at"}).
			AddRow(43, 7, 1, "bonjour", false, false, now))

	msg, err := m.SendToAdmin(context.Background(), 7, "bonjour")
	if err != nil {
		t.Fatalf("SendToAdmin: %v", err)
	}
	if msg.ReceiverID != 1 || msg.IsAdmin {
		t.Errorf("unexpected message: %+v", msg)
	}
}
