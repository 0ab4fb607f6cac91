package models

import "time"

// Conversation is the single thread between a buyer and a listing's seller.
// At most one row exists per (listing_id, buyer_id, seller_id) triple.
type Conversation struct {
	ID           string    `db:"id" json:"id"`
	ListingID    int64     `db:"listing_id" json:"listing_id"`
	BuyerID      int64     `db:"buyer_id" json:"buyer_id"`
	SellerID     int64     `db:"seller_id" json:"seller_id"`
	ListingTitle *string   `db:"listing_title" json:"listing_title,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// Participant returns the conversation member that is not the given user.
func (c Conversation) Participant(userID int64) int64 {
	if c.BuyerID == userID {
		return c.SellerID
	}
	return c.BuyerID
}

// HasParticipant reports whether the user belongs to the conversation.
func (c Conversation) HasParticipant(userID int64) bool {
	return c.BuyerID == userID || c.SellerID == userID
}

// ConversationSummary is the API-friendly view of a conversation for one user.
type ConversationSummary struct {
	Conversation
	UnreadCount int      `json:"unread_count"`
	LastMessage *Message `json:"last_message,omitempty"`
}
