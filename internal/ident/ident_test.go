package ident

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConversationID(t *testing.T) {
	id := NewConversationID()
	assert.True(t, IsConversationID(id), "id %q", id)
	assert.False(t, IsMessageID(id))
}

func TestNewMessageID(t *testing.T) {
	id := NewMessageID()
	assert.True(t, IsMessageID(id), "id %q", id)
	assert.False(t, IsConversationID(id))
}

// Read pointers and unread counts compare ids lexicographically, so
// generation order must match string order.
func TestMessageIDsSortByCreation(t *testing.T) {
	ids := make([]string, 0, 200)
	for i := 0; i < 200; i++ {
		ids = append(ids, NewMessageID())
	}

	require.True(t, sort.StringsAreSorted(ids), "ids must be generated in ascending order")

	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		_, dup := seen[id]
		require.False(t, dup, "duplicate id %q", id)
		seen[id] = struct{}{}
	}
}

func TestIsValidRejectsGarbage(t *testing.T) {
	for _, value := range []string{
		"",
		"conv_",
		"msg_",
		"conv_!!!!",
		"01hv8z3tq0f9v6y1k2m3n4p5q6",
		"user_01hv8z3tq0f9v6y1k2m3n4p5q6",
	} {
		assert.False(t, IsConversationID(value), "value %q", value)
		assert.False(t, IsMessageID(value), "value %q", value)
	}
}
