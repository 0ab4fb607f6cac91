package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"listing-chat-service/internal/ident"
	"listing-chat-service/internal/models"
)

var ErrConversationNotFound = errors.New("conversation not found")

const pqUniqueViolation = "23505"

// ConversationRepository abstracts conversation persistence.
type ConversationRepository interface {
	CreateOrGet(ctx context.Context, listingID, buyerID, sellerID int64, listingTitle *string) (models.Conversation, bool, error)
	GetConversation(ctx context.Context, conversationID string) (models.Conversation, error)
	ListForUser(ctx context.Context, userID int64) ([]models.Conversation, error)
}

// ConversationRepo is a sqlx implementation of ConversationRepository.
type ConversationRepo struct {
	db *sqlx.DB
}

// NewConversationRepo constructs a ConversationRepo.
func NewConversationRepo(db *sqlx.DB) *ConversationRepo {
	return &ConversationRepo{db: db}
}

const conversationColumns = `id, listing_id, buyer_id, seller_id, listing_title, created_at, updated_at`

// CreateOrGet returns the conversation for the (listing, buyer, seller)
// triple, creating it together with both participants' read-state rows when
// absent. The second return value reports whether a new row was created.
// Concurrent identical calls are resolved by the storage-level unique
// constraint: the loser of the race re-fetches the winner's row.
func (r *ConversationRepo) CreateOrGet(ctx context.Context, listingID, buyerID, sellerID int64, listingTitle *string) (models.Conversation, bool, error) {
	conv, err := r.getByTriple(ctx, listingID, buyerID, sellerID)
	if err == nil {
		return conv, false, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return models.Conversation{}, false, err
	}

	conv, err = r.insert(ctx, listingID, buyerID, sellerID, listingTitle)
	if err == nil {
		return conv, true, nil
	}
	if isUniqueViolation(err) {
		conv, err = r.getByTriple(ctx, listingID, buyerID, sellerID)
		if err != nil {
			return models.Conversation{}, false, err
		}
		return conv, false, nil
	}
	return models.Conversation{}, false, err
}

func (r *ConversationRepo) getByTriple(ctx context.Context, listingID, buyerID, sellerID int64) (models.Conversation, error) {
	var conv models.Conversation
	err := r.db.GetContext(ctx, &conv,
		`SELECT `+conversationColumns+` FROM conversations WHERE listing_id=$1 AND buyer_id=$2 AND seller_id=$3`,
		listingID, buyerID, sellerID)
	return conv, err
}

func (r *ConversationRepo) insert(ctx context.Context, listingID, buyerID, sellerID int64, listingTitle *string) (models.Conversation, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.Conversation{}, err
	}
	defer tx.Rollback()

	var conv models.Conversation
	if err := tx.QueryRowxContext(ctx,
		`INSERT INTO conversations (id, listing_id, buyer_id, seller_id, listing_title)
         VALUES ($1, $2, $3, $4, $5)
         RETURNING `+conversationColumns,
		ident.NewConversationID(), listingID, buyerID, sellerID, listingTitle).StructScan(&conv); err != nil {
		return models.Conversation{}, err
	}

	// Both participants' read-state rows are created eagerly so that unread
	// counts never depend on lazy row creation.
	for _, userID := range []int64{buyerID, sellerID} {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO conversation_participants (conversation_id, user_id) VALUES ($1, $2)`,
			conv.ID, userID); err != nil {
			return models.Conversation{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return models.Conversation{}, err
	}
	return conv, nil
}

// GetConversation fetches a conversation by id.
func (r *ConversationRepo) GetConversation(ctx context.Context, conversationID string) (models.Conversation, error) {
	var conv models.Conversation
	err := r.db.GetContext(ctx, &conv,
		`SELECT `+conversationColumns+` FROM conversations WHERE id=$1`, conversationID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Conversation{}, ErrConversationNotFound
	}
	return conv, err
}

// ListForUser returns every conversation where the user is buyer or seller,
// most recently active first.
func (r *ConversationRepo) ListForUser(ctx context.Context, userID int64) ([]models.Conversation, error) {
	var convs []models.Conversation
	err := r.db.SelectContext(ctx, &convs,
		`SELECT `+conversationColumns+` FROM conversations
         WHERE buyer_id=$1 OR seller_id=$1
         ORDER BY updated_at DESC, id DESC`, userID)
	return convs, err
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation
}
