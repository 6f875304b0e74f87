package model

import "time"

// InternalMessage is one message in a conversation between a non-admin
// user and the canonical admin. A message belongs to the conversation for
// (user, admin) iff its sender/receiver pair matches in either direction.
// IsAdmin records which side authored the message and is derived by the
// messaging service, never taken from the caller.
type InternalMessage struct {
	ID         uint64    `json:"id"`
	SenderID   uint64    `json:"sender_id"`
	ReceiverID uint64    `json:"receiver_id"`
	Content    string    `json:"content"`
	IsAdmin    bool      `json:"is_admin"`
	Read       bool      `json:"read"`
	CreatedAt  time.Time `json:"created_at"`
}

// ConversationUser is one row of the admin's conversation triage list:
// every non-admin user annotated with the time of the last exchanged
// message (nil when no conversation exists yet) and the number of messages
// from that user the admin has not read.
type ConversationUser struct {
	UserID        uint64     `json:"user_id"`
	FirstName     string     `json:"first_name"`
	LastName      string     `json:"last_name"`
	Email         string     `json:"email"`
	LastMessageAt *time.Time `json:"last_message_at"`
	UnreadCount   int        `json:"unread_count"`
}
