package repositories

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// ParticipantRepository tracks per-user read pointers and unread counts.
type ParticipantRepository interface {
	AdvanceReadPointer(ctx context.Context, conversationID string, userID int64, messageID string) error
	UnreadCount(ctx context.Context, conversationID string, userID int64) (int, error)
}

// ParticipantRepo is a sqlx implementation of ParticipantRepository.
type ParticipantRepo struct {
	db *sqlx.DB
}

// NewParticipantRepo constructs a ParticipantRepo.
func NewParticipantRepo(db *sqlx.DB) *ParticipantRepo {
	return &ParticipantRepo{db: db}
}

// AdvanceReadPointer moves the user's read pointer to messageID. The pointer
// never rewinds: message ids sort by creation time, so GREATEST over the
// stored and incoming id keeps the later one. Upserting also repairs a
// missing participant row.
func (r *ParticipantRepo) AdvanceReadPointer(ctx context.Context, conversationID string, userID int64, messageID string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO conversation_participants (conversation_id, user_id, last_read_message_id)
         VALUES ($1, $2, $3)
         ON CONFLICT (conversation_id, user_id) DO UPDATE
         SET last_read_message_id = GREATEST(COALESCE(conversation_participants.last_read_message_id, ''), EXCLUDED.last_read_message_id),
             updated_at = NOW()`,
		conversationID, userID, messageID)
	return err
}

// UnreadCount counts messages the user has not read: messages sent by the
// other participant with an id above the user's read pointer. A missing row
// and a NULL pointer both coalesce to the empty string, which sorts before
// every message id, so "never read" counts everything from the other side.
func (r *ParticipantRepo) UnreadCount(ctx context.Context, conversationID string, userID int64) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM messages m
         WHERE m.conversation_id = $1
           AND m.sender_id <> $2
           AND m.id > COALESCE((
               SELECT p.last_read_message_id FROM conversation_participants p
               WHERE p.conversation_id = $1 AND p.user_id = $2), '')`,
		conversationID, userID)
	return count, err
}
