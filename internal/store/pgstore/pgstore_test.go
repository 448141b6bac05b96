package pgstore

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/postings-codec/internal/store"
	"github.com/Adithya-Monish-Kumar-K/postings-codec/pkg/codec"
	apperrors "github.com/Adithya-Monish-Kumar-K/postings-codec/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/postings-codec/pkg/postgres"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return New(postgres.Wrap(db)), mock
}

func record(t *testing.T, term string, postings ...uint64) store.Record {
	t.Helper()
	rec, err := store.NewRecord(term, codec.VByte{}, postings)
	require.NoError(t, err)
	return rec
}

func TestMigrate(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectExec(regexp.QuoteMeta(schema)).WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, s.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPutStoresBufferVerbatim(t *testing.T) {
	s, mock := newMockStore(t)
	rec := record(t, "search", 34, 67, 89, 454, 2345738)
	mock.ExpectExec(regexp.QuoteMeta(upsertSQL)).
		WithArgs("search", int16(codec.TypeVByte), 5, rec.Data).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, s.Put(context.Background(), rec))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPutBatchCommits(t *testing.T) {
	s, mock := newMockStore(t)
	a := record(t, "alpha", 1, 2)
	b := record(t, "beta", 7)

	mock.ExpectBegin()
	prep := mock.ExpectPrepare(regexp.QuoteMeta(upsertSQL))
	prep.ExpectExec().WithArgs("alpha", int16(codec.TypeVByte), 2, a.Data).WillReturnResult(sqlmock.NewResult(0, 1))
	prep.ExpectExec().WithArgs("beta", int16(codec.TypeVByte), 1, b.Data).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, s.PutBatch(context.Background(), []store.Record{a, b}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPutBatchRollsBack(t *testing.T) {
	s, mock := newMockStore(t)
	a := record(t, "alpha", 1, 2)
	b := record(t, "beta", 7)

	mock.ExpectBegin()
	prep := mock.ExpectPrepare(regexp.QuoteMeta(upsertSQL))
	prep.ExpectExec().WithArgs("alpha", int16(codec.TypeVByte), 2, a.Data).WillReturnResult(sqlmock.NewResult(0, 1))
	prep.ExpectExec().WithArgs("beta", int16(codec.TypeVByte), 1, b.Data).WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	err := s.PutBatch(context.Background(), []store.Record{a, b})
	assert.ErrorContains(t, err, `"beta"`)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGet(t *testing.T) {
	s, mock := newMockStore(t)
	rec := record(t, "search", 34, 67, 89)
	mock.ExpectQuery(regexp.QuoteMeta(selectSQL)).
		WithArgs("search").
		WillReturnRows(sqlmock.NewRows([]string{"codec", "doc_count", "data"}).
			AddRow(int16(codec.TypeVByte), 3, rec.Data))

	got, err := s.Get(context.Background(), "search")
	require.NoError(t, err)
	assert.Equal(t, rec, got)
	postings, err := got.Decode()
	require.NoError(t, err)
	assert.Equal(t, []uint64{34, 67, 89}, postings)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetMissingTerm(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery(regexp.QuoteMeta(selectSQL)).
		WithArgs("nothing").
		WillReturnRows(sqlmock.NewRows([]string{"codec", "doc_count", "data"}))

	_, err := s.Get(context.Background(), "nothing")
	assert.ErrorIs(t, err, apperrors.ErrTermNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
