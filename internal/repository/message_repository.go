package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/odialabs/coaching-api/internal/model"
)

// MessageRepo provides data access to the internal_messages table. A
// conversation is always the pair (non-admin user, canonical admin); a
// message belongs to it when its sender/receiver ids match the pair in
// either direction. Read-state updates are strictly directional: marking
// a conversation read for one side never touches messages flowing the
// other way.
type MessageRepo struct{ DB *sql.DB }

func NewMessageRepo(db *sql.DB) *MessageRepo { return &MessageRepo{DB: db} }

// conversationWhere matches both directions of a (user, admin) pair. The
// two placeholders are userID then adminID.
const conversationWhere = "((sender_id = ? AND receiver_id = ?) OR (receiver_id = ? AND sender_id = ?))"

// ListConversation returns one page of the conversation, newest first,
// along with the total message count so clients can paginate. Ordering is
// strictly by creation time descending with id as a tiebreaker, which
// keeps page concatenation free of duplicates.
func (r *MessageRepo) ListConversation(ctx context.Context, userID, adminID uint64, limit, offset int) ([]model.InternalMessage, int, error) {
	var total int
	err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM internal_messages WHERE "+conversationWhere,
		userID, adminID, userID, adminID).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	rows, err := r.DB.QueryContext(ctx,
		`SELECT id, sender_id, receiver_id, content, is_admin, is_read, created_at
		 FROM internal_messages WHERE `+conversationWhere+`
		 ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`,
		userID, adminID, userID, adminID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var messages []model.InternalMessage
	for rows.Next() {
		var m model.InternalMessage
		if err := rows.Scan(&m.ID, &m.SenderID, &m.ReceiverID, &m.Content,
			&m.IsAdmin, &m.Read, &m.CreatedAt); err != nil {
			return nil, 0, err
		}
		messages = append(messages, m)
	}
	return messages, total, rows.Err()
}

// Insert stores a new message and returns it with its generated id and
// timestamp.
func (r *MessageRepo) Insert(ctx context.Context, senderID, receiverID uint64, content string, isAdmin bool) (model.InternalMessage, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO internal_messages (sender_id, receiver_id, content, is_admin) VALUES (?,?,?,?)",
		senderID, receiverID, content, isAdmin)
	if err != nil {
		return model.InternalMessage{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.InternalMessage{}, err
	}

	var m model.InternalMessage
	err = r.DB.QueryRowContext(ctx,
		`SELECT id, sender_id, receiver_id, content, is_admin, is_read, created_at
		 FROM internal_messages WHERE id=?`, id).
		Scan(&m.ID, &m.SenderID, &m.ReceiverID, &m.Content, &m.IsAdmin, &m.Read, &m.CreatedAt)
	return m, err
}

// MarkReadByAdmin flips the unread messages a user sent to the admin and
// returns the affected count. Only the user-to-admin direction is touched
// and re-marking an already read conversation affects zero rows.
func (r *MessageRepo) MarkReadByAdmin(ctx context.Context, userID, adminID uint64) (int64, error) {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE internal_messages SET is_read = TRUE
		 WHERE receiver_id = ? AND sender_id = ? AND is_admin = FALSE AND is_read = FALSE`,
		adminID, userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// MarkReadByUser flips the unread messages the admin sent to a user.
func (r *MessageRepo) MarkReadByUser(ctx context.Context, userID, adminID uint64) (int64, error) {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE internal_messages SET is_read = TRUE
		 WHERE receiver_id = ? AND sender_id = ? AND is_admin = TRUE AND is_read = FALSE`,
		userID, adminID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// UnreadCountForAdmin counts user-authored messages the admin has not read.
func (r *MessageRepo) UnreadCountForAdmin(ctx context.Context, adminID uint64) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM internal_messages
		 WHERE receiver_id = ? AND is_admin = FALSE AND is_read = FALSE`,
		adminID).Scan(&n)
	return n, err
}

// UnreadCountForUser counts admin-authored messages a user has not read.
func (r *MessageRepo) UnreadCountForUser(ctx context.Context, userID uint64) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM internal_messages
		 WHERE receiver_id = ? AND is_admin = TRUE AND is_read = FALSE`,
		userID).Scan(&n)
	return n, err
}

// ListUsersWithConversations returns every non-admin user annotated with
// the last message time for their conversation with the admin (NULL when
// none exists yet) and the count of their messages the admin has not read.
// Ordering is a triage contract: unread count descending, then last
// message time descending with NULLs last, then family name.
func (r *MessageRepo) ListUsersWithConversations(ctx context.Context, adminID uint64) ([]model.ConversationUser, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT
		     u.id, u.first_name, u.last_name, u.email,
		     (SELECT MAX(m.created_at) FROM internal_messages m
		      WHERE (m.sender_id = u.id AND m.receiver_id = ?)
		         OR (m.receiver_id = u.id AND m.sender_id = ?)) AS last_message_at,
		     (SELECT COUNT(*) FROM internal_messages mu
		      WHERE mu.receiver_id = ? AND mu.sender_id = u.id
		        AND mu.is_admin = FALSE AND mu.is_read = FALSE) AS unread_count
		 FROM users u
		 WHERE u.role != 'admin'
		 ORDER BY unread_count DESC, (last_message_at IS NULL), last_message_at DESC, u.last_name`,
		adminID, adminID, adminID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []model.ConversationUser
	for rows.Next() {
		var (
			cu   model.ConversationUser
			last sql.NullTime
		)
		if err := rows.Scan(&cu.UserID, &cu.FirstName, &cu.LastName, &cu.Email,
			&last, &cu.UnreadCount); err != nil {
			return nil, err
		}
		if last.Valid {
			cu.LastMessageAt = &last.Time
		}
		list = append(list, cu)
	}
	return list, rows.Err()
}

// DeleteConversation removes every message in either direction for the
// pair and returns the number of rows deleted. Irreversible.
func (r *MessageRepo) DeleteConversation(ctx context.Context, userID, adminID uint64) (int64, error) {
	res, err := r.DB.ExecContext(ctx,
		"DELETE FROM internal_messages WHERE "+conversationWhere,
		userID, adminID, userID, adminID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// DeleteByID removes a single message.
func (r *MessageRepo) DeleteByID(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx,
		"DELETE FROM internal_messages WHERE id=?", id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// UnreadReminder is one row of the unread-reminder scan: a user with
// admin messages older than the cutoff still unread.
type UnreadReminder struct {
	UserID    uint64
	Email     string
	FirstName string
	Count     int
}

// UnreadAdminMessagesOlderThan groups unread admin-authored messages
// created before the cutoff by receiving user, so the reminder job sends
// one email per user.
func (r *MessageRepo) UnreadAdminMessagesOlderThan(ctx context.Context, cutoff time.Time) ([]UnreadReminder, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT u.id, u.email, u.first_name, COUNT(*)
		 FROM internal_messages im
		 JOIN users u ON u.id = im.receiver_id
		 WHERE im.is_admin = TRUE AND im.is_read = FALSE AND im.created_at < ?
		 GROUP BY u.id, u.email, u.first_name
		 ORDER BY u.id`,
		cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reminders []UnreadReminder
	for rows.Next() {
		var rem UnreadReminder
		if err := rows.Scan(&rem.UserID, &rem.Email, &rem.FirstName, &rem.Count); err != nil {
			return nil, err
		}
		reminders = append(reminders, rem)
	}
	return reminders, rows.Err()
}
