package db

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func createTableStatement(t *testing.T, table string) string {
	t.Helper()
	for _, m := range schemaMigrations {
		if strings.Contains(m, "CREATE TABLE IF NOT EXISTS "+table+" (") {
			return m
		}
	}
	t.Fatalf("no CREATE TABLE statement for %s", table)
	return ""
}

// Read pointers and paging compare message ids with <, > and GREATEST, so
// every id column must be pinned to byte-order collation.
func TestIDColumnsUseByteOrderCollation(t *testing.T) {
	conversations := createTableStatement(t, "conversations")
	assert.Contains(t, conversations, `id TEXT COLLATE "C" PRIMARY KEY`)

	messages := createTableStatement(t, "messages")
	assert.Contains(t, messages, `id TEXT COLLATE "C" PRIMARY KEY`)
	assert.Contains(t, messages, `conversation_id TEXT COLLATE "C" NOT NULL`)

	participants := createTableStatement(t, "conversation_participants")
	assert.Contains(t, participants, `conversation_id TEXT COLLATE "C" NOT NULL`)
	assert.Contains(t, participants, `last_read_message_id TEXT COLLATE "C"`)
}

func TestConversationsEnforceUniqueTriple(t *testing.T) {
	conversations := createTableStatement(t, "conversations")
	assert.Contains(t, conversations, "UNIQUE (listing_id, buyer_id, seller_id)")
}
