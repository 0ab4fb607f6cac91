package realtime

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"listing-chat-service/internal/ident"
)

// Channel name prefixes. These are part of the wire contract with realtime
// clients and must not change.
const (
	conversationChannelPrefix = "private-conversation."
	userChannelPrefix         = "private-user."
)

// ErrMalformedChannel means a channel name does not follow either naming scheme.
var ErrMalformedChannel = errors.New("malformed channel name")

// ChannelKind distinguishes the two channel families.
type ChannelKind int

const (
	ChannelConversation ChannelKind = iota
	ChannelUser
)

// ChannelRef is a parsed channel name.
type ChannelRef struct {
	Kind           ChannelKind
	ConversationID string
	UserID         int64
}

// ConversationChannel returns the fan-out channel for a conversation.
func ConversationChannel(conversationID string) string {
	return conversationChannelPrefix + conversationID
}

// UserChannel returns a user's personal channel.
func UserChannel(userID int64) string {
	return userChannelPrefix + strconv.FormatInt(userID, 10)
}

// ParseChannel validates a channel name presented by a subscriber.
func ParseChannel(name string) (ChannelRef, error) {
	switch {
	case strings.HasPrefix(name, conversationChannelPrefix):
		conversationID := strings.TrimPrefix(name, conversationChannelPrefix)
		if !ident.IsConversationID(conversationID) {
			return ChannelRef{}, fmt.Errorf("%w: %q", ErrMalformedChannel, name)
		}
		return ChannelRef{Kind: ChannelConversation, ConversationID: conversationID}, nil
	case strings.HasPrefix(name, userChannelPrefix):
		raw := strings.TrimPrefix(name, userChannelPrefix)
		userID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || userID <= 0 {
			return ChannelRef{}, fmt.Errorf("%w: %q", ErrMalformedChannel, name)
		}
		return ChannelRef{Kind: ChannelUser, UserID: userID}, nil
	default:
		return ChannelRef{}, fmt.Errorf("%w: %q", ErrMalformedChannel, name)
	}
}
