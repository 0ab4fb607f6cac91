package repositories

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	selectByTripleSQL     = regexp.QuoteMeta(`FROM conversations WHERE listing_id=$1 AND buyer_id=$2 AND seller_id=$3`)
	insertConversationSQL = regexp.QuoteMeta(`INSERT INTO conversations (id, listing_id, buyer_id, seller_id, listing_title)`)
	insertParticipantSQL  = regexp.QuoteMeta(`INSERT INTO conversation_participants (conversation_id, user_id) VALUES ($1, $2)`)
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })
	return sqlx.NewDb(mockDB, "postgres"), mock
}

func conversationRows(id string) *sqlmock.Rows {
	now := time.Now().UTC()
	return sqlmock.NewRows([]string{"id", "listing_id", "buyer_id", "seller_id", "listing_title", "created_at", "updated_at"}).
		AddRow(id, int64(100), int64(1), int64(2), "Bike", now, now)
}

func TestCreateOrGetReturnsExistingConversation(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewConversationRepo(db)

	mock.ExpectQuery(selectByTripleSQL).
		WithArgs(int64(100), int64(1), int64(2)).
		WillReturnRows(conversationRows("conv_existing"))

	conv, created, err := repo.CreateOrGet(context.Background(), 100, 1, 2, nil)

	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "conv_existing", conv.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateOrGetInsertsConversationWithBothParticipants(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewConversationRepo(db)
	title := "Bike"

	mock.ExpectQuery(selectByTripleSQL).
		WithArgs(int64(100), int64(1), int64(2)).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectBegin()
	mock.ExpectQuery(insertConversationSQL).
		WithArgs(sqlmock.AnyArg(), int64(100), int64(1), int64(2), "Bike").
		WillReturnRows(conversationRows("conv_new"))
	mock.ExpectExec(insertParticipantSQL).
		WithArgs("conv_new", int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(insertParticipantSQL).
		WithArgs("conv_new", int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	conv, created, err := repo.CreateOrGet(context.Background(), 100, 1, 2, &title)

	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "conv_new", conv.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// The loser of a concurrent create hits the unique triple constraint and
// must come back with the winner's row instead of an error.
func TestCreateOrGetRecoversFromUniqueViolation(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewConversationRepo(db)

	mock.ExpectQuery(selectByTripleSQL).
		WithArgs(int64(100), int64(1), int64(2)).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectBegin()
	mock.ExpectQuery(insertConversationSQL).
		WillReturnError(&pq.Error{Code: pqUniqueViolation})
	mock.ExpectRollback()
	mock.ExpectQuery(selectByTripleSQL).
		WithArgs(int64(100), int64(1), int64(2)).
		WillReturnRows(conversationRows("conv_winner"))

	conv, created, err := repo.CreateOrGet(context.Background(), 100, 1, 2, nil)

	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "conv_winner", conv.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateOrGetPropagatesOtherInsertErrors(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewConversationRepo(db)

	mock.ExpectQuery(selectByTripleSQL).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectBegin()
	mock.ExpectQuery(insertConversationSQL).
		WillReturnError(&pq.Error{Code: "53300"})
	mock.ExpectRollback()

	_, _, err := repo.CreateOrGet(context.Background(), 100, 1, 2, nil)

	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetConversationMapsMissingRow(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewConversationRepo(db)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM conversations WHERE id=$1`)).
		WithArgs("conv_missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetConversation(context.Background(), "conv_missing")

	assert.ErrorIs(t, err, ErrConversationNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
