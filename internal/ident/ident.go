// Package ident generates the time-sortable identifiers used for
// conversations and messages. Identifiers are prefixed lowercase ULIDs;
// because ULID strings are fixed-length Crockford base32, lexicographic
// order on ids of the same kind equals creation order.
package ident

import (
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

const (
	ConversationPrefix = "conv_"
	MessagePrefix      = "msg_"
)

var (
	entropyOnce sync.Once
	entropyMu   sync.Mutex
	entropy     *ulid.MonotonicEntropy
)

func newEntropy() *ulid.MonotonicEntropy {
	entropyOnce.Do(func() {
		source := rand.NewSource(time.Now().UnixNano())
		entropy = ulid.Monotonic(rand.New(source), 0)
	})
	return entropy
}

func newID(prefix string) string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	id := ulid.MustNew(ulid.Timestamp(time.Now()), newEntropy())
	return prefix + strings.ToLower(id.String())
}

// NewConversationID returns a conv_* ULID string.
func NewConversationID() string {
	return newID(ConversationPrefix)
}

// NewMessageID returns a msg_* ULID string.
func NewMessageID() string {
	return newID(MessagePrefix)
}

// IsConversationID reports whether the string is a conv_* ULID.
func IsConversationID(value string) bool {
	return isValid(value, ConversationPrefix)
}

// IsMessageID reports whether the string is a msg_* ULID.
func IsMessageID(value string) bool {
	return isValid(value, MessagePrefix)
}

func isValid(value, prefix string) bool {
	if !strings.HasPrefix(value, prefix) {
		return false
	}
	_, err := parse(value, prefix)
	return err == nil
}

func parse(value, prefix string) (ulid.ULID, error) {
	value = strings.TrimSpace(value)
	value = strings.TrimPrefix(value, prefix)
	return ulid.Parse(value)
}
