package db

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// Connect initializes the database connection and runs migrations.
func Connect(dsn string) (*sqlx.DB, error) {
	database, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}

	if err := runMigrations(database); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return database, nil
}

// The unique triple constraint is the source of truth for get-or-create:
// concurrent identical creations race on it and the loser re-fetches.
// Id columns carry COLLATE "C" because read pointers, unread counts and
// message paging compare ids lexicographically; "C" pins that to byte
// order no matter which default collation the database was created with.
var schemaMigrations = []string{
	`CREATE TABLE IF NOT EXISTS conversations (
        id TEXT COLLATE "C" PRIMARY KEY,
        listing_id BIGINT NOT NULL,
        buyer_id BIGINT NOT NULL,
        seller_id BIGINT NOT NULL,
        listing_title TEXT,
        created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
        updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
        UNIQUE (listing_id, buyer_id, seller_id)
    );`,
	`CREATE INDEX IF NOT EXISTS idx_conversations_buyer ON conversations (buyer_id, updated_at DESC);`,
	`CREATE INDEX IF NOT EXISTS idx_conversations_seller ON conversations (seller_id, updated_at DESC);`,
	`CREATE TABLE IF NOT EXISTS messages (
        id TEXT COLLATE "C" PRIMARY KEY,
        conversation_id TEXT COLLATE "C" NOT NULL REFERENCES conversations(id) ON DELETE CASCADE,
        sender_id BIGINT NOT NULL,
        content TEXT NOT NULL,
        created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
    );`,
	`CREATE INDEX IF NOT EXISTS idx_messages_conversation_order ON messages (conversation_id, id);`,
	`CREATE TABLE IF NOT EXISTS conversation_participants (
        conversation_id TEXT COLLATE "C" NOT NULL REFERENCES conversations(id) ON DELETE CASCADE,
        user_id BIGINT NOT NULL,
        last_read_message_id TEXT COLLATE "C",
        created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
        updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
        PRIMARY KEY (conversation_id, user_id)
    );`,
}

func runMigrations(database *sqlx.DB) error {
	for _, m := range schemaMigrations {
		if _, err := database.Exec(m); err != nil {
			return err
		}
	}
	return nil
}
