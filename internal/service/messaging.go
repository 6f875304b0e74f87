// Package service implements the business rules sitting between the
// HTTP handlers and the repositories.
package service

import (
	"context"
	"errors"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/odialabs/coaching-api/internal/model"
	"github.com/odialabs/coaching-api/internal/repository"
)

// ErrNoAdmin is returned when no admin account exists. Messaging cannot
// operate without one; this is a deployment misconfiguration, not a
// user error.
var ErrNoAdmin = errors.New("no admin account configured")

// ErrEmptyContent rejects blank messages.
var ErrEmptyContent = errors.New("message content is empty")

const adminCacheKey = "messaging:canonical_admin"
const adminCacheTTL = 10 * time.Minute

// Messaging routes every student conversation to the canonical admin:
// the admin account with the lowest id. The resolution is cached in
// redis and invalidated whenever the admin roster changes.
type Messaging struct {
	Users    *repository.UserRepo
	Messages *repository.MessageRepo
	RDB      *redis.Client
}

func NewMessaging(users *repository.UserRepo, messages *repository.MessageRepo, rdb *redis.Client) *Messaging {
	return &Messaging{Users: users, Messages: messages, RDB: rdb}
}

// CanonicalAdminID resolves the admin all student messages route to.
func (m *Messaging) CanonicalAdminID(ctx context.Context) (uint64, error) {
	if m.RDB != nil {
		if v, err := m.RDB.Get(ctx, adminCacheKey).Result(); err == nil {
			if id, err := strconv.ParseUint(v, 10, 64); err == nil && id != 0 {
				return id, nil
			}
		}
	}

	id, err := m.Users.CanonicalAdminID(ctx)
	if err == repository.ErrNotFound {
		return 0, ErrNoAdmin
	}
	if err != nil {
		return 0, err
	}

	if m.RDB != nil {
		if err := m.RDB.Set(ctx, adminCacheKey, strconv.FormatUint(id, 10), adminCacheTTL).Err(); err != nil {
			log.Printf("[messaging] admin cache set failed: %v", err)
		}
	}
	return id, nil
}

// InvalidateAdminCache drops the cached admin id. Called whenever a
// user's role changes or an account is deleted.
func (m *Messaging) InvalidateAdminCache(ctx context.Context) {
	if m.RDB == nil {
		return
	}
	if err := m.RDB.Del(ctx, adminCacheKey).Err(); err != nil {
		log.Printf("[messaging] admin cache invalidate failed: %v", err)
	}
}

// Send stores a message from senderID to receiverID. Content is
// trimmed and must not be blank. Whether the message counts as an admin
// message is derived from the sender's role, never taken from the
// caller.
func (m *Messaging) Send(ctx context.Context, senderID, receiverID uint64, content string) (model.InternalMessage, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return model.InternalMessage{}, ErrEmptyContent
	}
	sender, err := m.Users.GetByID(ctx, senderID)
	if err != nil {
		return model.InternalMessage{}, err
	}
	if _, err := m.Users.GetByID(ctx, receiverID); err != nil {
		return model.InternalMessage{}, err
	}
	return m.Messages.Insert(ctx, senderID, receiverID, content, sender.Role == model.RoleAdmin)
}

// SendToAdmin stores a message from a student to the canonical admin.
func (m *Messaging) SendToAdmin(ctx context.Context, senderID uint64, content string) (model.InternalMessage, error) {
	adminID, err := m.CanonicalAdminID(ctx)
	if err != nil {
		return model.InternalMessage{}, err
	}
	return m.Send(ctx, senderID, adminID, content)
}

// UserConversation returns a page of the student's conversation with
// the canonical admin, newest first, plus the total message count.
func (m *Messaging) UserConversation(ctx context.Context, userID uint64, limit, offset int) ([]model.InternalMessage, int, error) {
	adminID, err := m.CanonicalAdminID(ctx)
	if err != nil {
		return nil, 0, err
	}
	return m.Messages.ListConversation(ctx, userID, adminID, limit, offset)
}

// AdminConversation returns a page of the conversation with one student
// as seen from the admin side.
func (m *Messaging) AdminConversation(ctx context.Context, adminID, userID uint64, limit, offset int) ([]model.InternalMessage, int, error) {
	return m.Messages.ListConversation(ctx, userID, adminID, limit, offset)
}

// MarkReadByUser marks the admin's messages to this student as read.
func (m *Messaging) MarkReadByUser(ctx context.Context, userID uint64) (int64, error) {
	adminID, err := m.CanonicalAdminID(ctx)
	if err != nil {
		return 0, err
	}
	return m.Messages.MarkReadByUser(ctx, userID, adminID)
}

// MarkReadByAdmin marks one student's messages to the admin as read.
func (m *Messaging) MarkReadByAdmin(ctx context.Context, adminID, userID uint64) (int64, error) {
	return m.Messages.MarkReadByAdmin(ctx, userID, adminID)
}

// UnreadForUser counts admin messages the student has not read yet.
func (m *Messaging) UnreadForUser(ctx context.Context, userID uint64) (int, error) {
	return m.Messages.UnreadCountForUser(ctx, userID)
}

// UnreadForAdmin counts student messages the admin has not read yet,
// across all conversations.
func (m *Messaging) UnreadForAdmin(ctx context.Context, adminID uint64) (int, error) {
	return m.Messages.UnreadCountForAdmin(ctx, adminID)
}

// Triage lists every student the admin can talk to, unread
// conversations first, then most recently active.
func (m *Messaging) Triage(ctx context.Context, adminID uint64) ([]model.ConversationUser, error) {
	return m.Messages.ListUsersWithConversations(ctx, adminID)
}

// DeleteConversation removes the admin's whole conversation with one
// student and reports how many messages were dropped.
func (m *Messaging) DeleteConversation(ctx context.Context, adminID, userID uint64) (int64, error) {
	return m.Messages.DeleteConversation(ctx, userID, adminID)
}

// DeleteMessage removes one message by id.
func (m *Messaging) DeleteMessage(ctx context.Context, id uint64) error {
	return m.Messages.DeleteByID(ctx, id)
}
