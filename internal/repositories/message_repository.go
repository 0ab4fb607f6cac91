package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"listing-chat-service/internal/ident"
	"listing-chat-service/internal/models"
)

// MessageRepository is the append-only message log of a conversation.
type MessageRepository interface {
	Append(ctx context.Context, conversationID string, senderID int64, content string) (models.Message, error)
	ListPage(ctx context.Context, conversationID string, offset, limit int) ([]models.Message, error)
	Count(ctx context.Context, conversationID string) (int, error)
	Latest(ctx context.Context, conversationID string) (*models.Message, error)
}

// MessageRepo is a sqlx-backed repository.
type MessageRepo struct {
	db *sqlx.DB
}

// NewMessageRepo constructs MessageRepo.
func NewMessageRepo(db *sqlx.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

const messageColumns = `id, conversation_id, sender_id, content, created_at`

// Append stores a message and bumps the conversation's updated_at to the
// message's creation time, in one transaction.
func (r *MessageRepo) Append(ctx context.Context, conversationID string, senderID int64, content string) (models.Message, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.Message{}, err
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	var msg models.Message
	if err := tx.QueryRowxContext(ctx,
		`INSERT INTO messages (id, conversation_id, sender_id, content, created_at)
         VALUES ($1, $2, $3, $4, $5)
         RETURNING `+messageColumns,
		ident.NewMessageID(), conversationID, senderID, content, now).StructScan(&msg); err != nil {
		return models.Message{}, err
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE conversations SET updated_at=$2 WHERE id=$1`, conversationID, msg.CreatedAt); err != nil {
		return models.Message{}, err
	}

	if err := tx.Commit(); err != nil {
		return models.Message{}, err
	}
	return msg, nil
}

// ListPage returns one page of messages, oldest first. Message ids are
// time-sortable, so ordering by id orders by creation time with id as the
// tiebreaker.
func (r *MessageRepo) ListPage(ctx context.Context, conversationID string, offset, limit int) ([]models.Message, error) {
	var msgs []models.Message
	err := r.db.SelectContext(ctx, &msgs,
		`SELECT `+messageColumns+` FROM messages
         WHERE conversation_id=$1
         ORDER BY id ASC
         OFFSET $2 LIMIT $3`, conversationID, offset, limit)
	return msgs, err
}

// Count returns the total number of messages in the conversation.
func (r *MessageRepo) Count(ctx context.Context, conversationID string) (int, error) {
	var total int
	err := r.db.GetContext(ctx, &total,
		`SELECT COUNT(*) FROM messages WHERE conversation_id=$1`, conversationID)
	return total, err
}

// Latest returns the most recent message, or nil for an empty conversation.
func (r *MessageRepo) Latest(ctx context.Context, conversationID string) (*models.Message, error) {
	var msg models.Message
	err := r.db.GetContext(ctx, &msg,
		`SELECT `+messageColumns+` FROM messages
         WHERE conversation_id=$1
         ORDER BY id DESC
         LIMIT 1`, conversationID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &msg, nil
}
