package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/go-cmp/cmp"

	"github.com/odialabs/coaching-api/internal/model"
)

var messageColumns = []string{"id", "sender_id", "receiver_id", "content", "is_admin", "is_read", "created_at"}

func TestListConversation(t *testing.T) {
	db, mock, cleanup := newTestDB(t)
	defer cleanup()

	r := NewMessageRepo(db)
	var (
		userID  = uint64(7)
		adminID = uint64(1)
		now     = time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM internal_messages")).
		WithArgs(userID, adminID, userID, adminID).
		WillReturnRows(sqlmock.NewRows([]string{"COUNT(*)"}).AddRow(3))

	// Page query must order newest first with id as tiebreaker.
	mock.ExpectQuery("ORDER BY created_at DESC, id DESC LIMIT \\? OFFSET \\?").
		WithArgs(userID, adminID, userID, adminID, 2, 0).
		WillReturnRows(sqlmock.NewRows(messageColumns).
			AddRow(12, adminID, userID, "re: hello", true, false, now).
			AddRow(11, userID, adminID, "hello", false, true, now.Add(-time.Minute)))

	msgs, total, err := r.ListConversation(context.Background(), userID, adminID, 2, 0)
	if err != nil {
		t.Fatal(err)
	}
	if total != 3 {
		t.Errorf("got total %d, want 3", total)
	}

	want := []model.InternalMessage{
		{ID: 12, SenderID: adminID, ReceiverID: userID, Content: "re: hello", IsAdmin: true, Read: false, CreatedAt: now},
		{ID: 11, SenderID: userID, ReceiverID: adminID, Content: "hello", IsAdmin: false, Read: true, CreatedAt: now.Add(-time.Minute)},
	}
	if diff := cmp.Diff(want, msgs); diff != "" {
		t.Errorf("unexpected messages (-want +got):\n%s", diff)
	}
}

func TestInsertMessage(t *testing.T) {
	db, mock, cleanup := newTestDB(t)
	defer cleanup()

	r := NewMessageRepo(db)
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO internal_messages (sender_id, receiver_id, content, is_admin) VALUES (?,?,?,?)")).
		WithArgs(uint64(7), uint64(1), "bonjour", false).
		WillReturnResult(sqlmock.NewResult(99, 1))
	mock.ExpectQuery(regexp.QuoteMeta("FROM internal_messages WHERE id=?")).
		WithArgs(int64(99)).
		WillReturnRows(sqlmock.NewRows(messageColumns).
			AddRow(99, 7, 1, "bonjour", false, false, now))

	m, err := r.Insert(context.Background(), 7, 1, "bonjour", false)
	if err != nil {
		t.Fatal(err)
	}
	if m.ID != 99 || m.IsAdmin || m.Read {
		t.Errorf("unexpected message: %+v", m)
	}
}

func TestMarkReadIsDirectional(t *testing.T) {
	db, mock, cleanup := newTestDB(t)
	defer cleanup()

	r := NewMessageRepo(db)
	var (
		userID  = uint64(7)
		adminID = uint64(1)
	)

	// Admin reads: only user-authored unread messages flip, keyed
	// receiver=admin, sender=user.
	mock.ExpectExec(regexp.QuoteMeta("is_admin = FALSE AND is_read = FALSE")).
		WithArgs(adminID, userID).
		WillReturnResult(sqlmock.NewResult(0, 2))

	n, err := r.MarkReadByAdmin(context.Background(), userID, adminID)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("got %d marked, want 2", n)
	}

	// User reads: the mirror direction.
	mock.ExpectExec(regexp.QuoteMeta("is_admin = TRUE AND is_read = FALSE")).
		WithArgs(userID, adminID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	n, err = r.MarkReadByUser(context.Background(), userID, adminID)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("got %d marked, want 1", n)
	}

	// Re-marking an already read conversation affects zero rows and
	// is not an error.
	mock.ExpectExec(regexp.QuoteMeta("is_admin = FALSE AND is_read = FALSE")).
		WithArgs(adminID, userID).
		WillReturnResult(sqlmock.NewResult(0, 0))

	n, err = r.MarkReadByAdmin(context.Background(), userID, adminID)
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Errorf("got %d marked, want 0", n)
	}
}

func TestUnreadCounts(t *testing.T) {
	db, mock, cleanup := newTestDB(t)
	defer cleanup()

	r := NewMessageRepo(db)

	mock.ExpectQuery(regexp.QuoteMeta("is_admin = FALSE AND is_read = FALSE")).
		WithArgs(uint64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"COUNT(*)"}).AddRow(5))

	n, err := r.UnreadCountForAdmin(context.Background(), 1)
	if err != nil {
		t.Fatal(err)
	}
	if n != 5 {
		t.Errorf("got %d, want 5", n)
	}

	mock.ExpectQuery(regexp.QuoteMeta("is_admin = TRUE AND is_read = FALSE")).
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"COUNT(*)"}).AddRow(2))

	n, err = r.UnreadCountForUser(context.Background(), 7)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("got %d, want 2", n)
	}
}

func TestListUsersWithConversations(t *testing.T) {
	db, mock, cleanup := newTestDB(t)
	defer cleanup()

	r := NewMessageRepo(db)
	var (
		adminID = uint64(1)
		last    = time.Date(2026, 8, 29, 9, 0, 0, 0, time.UTC)
		cols    = []string{"id", "first_name", "last_name", "email", "last_message_at", "unread_count"}
	)

	// The triage ordering is part of the query contract.
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY unread_count DESC, (last_message_at IS NULL), last_message_at DESC, u.last_name")).
		WithArgs(adminID, adminID, adminID).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow(7, "Jane", "Doe", "jane@example.com", last, 3).
			AddRow(8, "Joe", "Smith", "joe@example.com", nil, 0))

	users, err := r.ListUsersWithConversations(context.Background(), adminID)
	if err != nil {
		t.Fatal(err)
	}

	want := []model.ConversationUser{
		{UserID: 7, FirstName: "Jane", LastName: "Doe", Email: "jane@example.com", LastMessageAt: &last, UnreadCount: 3},
		{UserID: 8, FirstName: "Joe", LastName: "Smith", Email: "joe@example.com"},
	}
	if diff := cmp.Diff(want, users); diff != "" {
		t.Errorf("unexpected triage list (-want +got):\n%s", diff)
	}
}

func TestDeleteConversation(t *testing.T) {
	db, mock, cleanup := newTestDB(t)
	defer cleanup()

	r := NewMessageRepo(db)

	unexpectedErr := errors.New("unexpected error")
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM internal_messages WHERE")).
		WithArgs(uint64(7), uint64(1), uint64(7), uint64(1)).
		WillReturnError(unexpectedErr)

	_, err := r.DeleteConversation(context.Background(), 7, 1)
	if !errors.Is(err, unexpectedErr) {
		t.Errorf("got err '%v', want '%v'", err, unexpectedErr)
	}

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM internal_messages WHERE")).
		WithArgs(uint64(7), uint64(1), uint64(7), uint64(1)).
		WillReturnResult(sqlmock.NewResult(0, 4))

	n, err := r.DeleteConversation(context.Background(), 7, 1)
	if err != nil {
		t.Fatal(err)
	}
	if n != 4 {
		t.Errorf("got %d deleted, want 4", n)
	}
}

func TestUnreadAdminMessagesOlderThan(t *testing.T) {
	db, mock, cleanup := newTestDB(t)
	defer cleanup()

	r := NewMessageRepo(db)
	cutoff := time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("GROUP BY u.id, u.email, u.first_name")).
		WithArgs(cutoff).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "first_name", "COUNT(*)"}).
			AddRow(7, "jane@example.com", "Jane", 2))

	reminders, err := r.UnreadAdminMessagesOlderThan(context.Background(), cutoff)
	if err != nil {
		t.Fatal(err)
	}
	want := []UnreadReminder{{UserID: 7, Email: "jane@example.com", FirstName: "Jane", Count: 2}}
	if diff := cmp.Diff(want, reminders); diff != "" {
		t.Errorf("unexpected reminders (-want +got):\n%s", diff)
	}
}
