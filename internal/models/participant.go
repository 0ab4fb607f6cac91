package models

import "time"

// ConversationParticipant carries per-user read state for a conversation.
// A missing row and a row with a NULL pointer both mean "never read".
// Primary key: (ConversationID, UserID).
type ConversationParticipant struct {
	ConversationID    string    `db:"conversation_id" json:"conversation_id"`
	UserID            int64     `db:"user_id" json:"user_id"`
	LastReadMessageID *string   `db:"last_read_message_id" json:"last_read_message_id,omitempty"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time `db:"updated_at" json:"updated_at"`
}
