package repositories

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The upsert must keep the later of the stored and incoming pointers; the
// statement shape with GREATEST over the coalesced stored id is what makes
// stale mark-read calls unable to rewind the pointer.
func TestAdvanceReadPointerUpsertsWithoutRewind(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewParticipantRepo(db)

	mock.ExpectExec(regexp.QuoteMeta(
		`GREATEST(COALESCE(conversation_participants.last_read_message_id, ''), EXCLUDED.last_read_message_id)`)).
		WithArgs("conv_a", int64(1), "msg_02").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.AdvanceReadPointer(context.Background(), "conv_a", 1, "msg_02")

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdvanceReadPointerInsertsMissingRow(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewParticipantRepo(db)

	mock.ExpectExec(regexp.QuoteMeta(
		`INSERT INTO conversation_participants (conversation_id, user_id, last_read_message_id)`)).
		WithArgs("conv_a", int64(2), "msg_01").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.AdvanceReadPointer(context.Background(), "conv_a", 2, "msg_01")

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// A user with no participant row or a NULL pointer has read nothing: the
// count query coalesces the pointer to '', which sorts below every id.
func TestUnreadCountCoalescesMissingPointer(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewParticipantRepo(db)

	mock.ExpectQuery(regexp.QuoteMeta(`AND m.id > COALESCE((`)).
		WithArgs("conv_a", int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	count, err := repo.UnreadCount(context.Background(), "conv_a", 1)

	require.NoError(t, err)
	assert.Equal(t, 3, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUnreadCountExcludesOwnMessages(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewParticipantRepo(db)

	mock.ExpectQuery(regexp.QuoteMeta(`AND m.sender_id <> $2`)).
		WithArgs("conv_a", int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	count, err := repo.UnreadCount(context.Background(), "conv_a", 2)

	require.NoError(t, err)
	assert.Equal(t, 0, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}
