package realtime

import (
	"time"

	"listing-chat-service/internal/models"
)

// Event names on the wire.
const (
	EventMessageCreated = "message.created"
	EventUserTyping     = "user.typing"
)

// PreviewRunes bounds the message preview pushed to the recipient's
// personal channel.
const PreviewRunes = 100

// Event is the envelope published to the realtime transport.
type Event struct {
	Event      string    `json:"event"`
	Channel    string    `json:"channel"`
	OccurredAt time.Time `json:"occurred_at"`
	Data       any       `json:"data"`
}

// MessageCreatedPayload is pushed to the conversation channel.
type MessageCreatedPayload struct {
	Message models.Message `json:"message"`
}

// MessagePreviewPayload is pushed to the recipient's personal channel so a
// list view can refresh without loading the conversation.
type MessagePreviewPayload struct {
	ConversationID string    `json:"conversation_id"`
	MessageID      string    `json:"message_id"`
	SenderID       int64     `json:"sender_id"`
	Preview        string    `json:"preview"`
	CreatedAt      time.Time `json:"created_at"`
}

// TypingPayload is pushed to the conversation channel. Clients throttle
// their own emission; the server adds no persistence or guarantee.
type TypingPayload struct {
	ConversationID string `json:"conversation_id"`
	UserID         int64  `json:"user_id"`
	DisplayName    string `json:"display_name,omitempty"`
}

// Preview truncates content to PreviewRunes runes.
func Preview(content string) string {
	runes := []rune(content)
	if len(runes) <= PreviewRunes {
		return content
	}
	return string(runes[:PreviewRunes])
}
