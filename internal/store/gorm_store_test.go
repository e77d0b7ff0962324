package store_test

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"go-portal/internal/store"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupGormStore(t *testing.T) (*store.GormStore, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 db,
		PreferSimpleProtocol: true,
	}), &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)

	return store.NewGormStore(gormDB), mock
}

func TestGormStore_Get(t *testing.T) {
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		s, mock := setupGormStore(t)
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "documents" WHERE collection = $1 AND doc_key = $2`)).
			WithArgs("users", "a@b.com").
			WillReturnRows(sqlmock.NewRows([]string{"collection", "doc_key", "data"}).
				AddRow("users", "a@b.com", []byte(`{"email":"a@b.com","name":"A"}`)))

		doc, err := s.Get(ctx, "users", "a@b.com")

		require.NoError(t, err)
		assert.Equal(t, "a@b.com", doc.Key)
		assert.Equal(t, "A", doc.Data["name"])
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		s, mock := setupGormStore(t)
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "documents"`)).
			WithArgs("users", "ghost@b.com").
			WillReturnRows(sqlmock.NewRows([]string{"collection", "doc_key", "data"}))

		_, err := s.Get(ctx, "users", "ghost@b.com")

		assert.ErrorIs(t, err, store.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormStore_GetAll(t *testing.T) {
	s, mock := setupGormStore(t)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "documents" WHERE collection = $1 ORDER BY doc_key`)).
		WithArgs("companies").
		WillReturnRows(sqlmock.NewRows([]string{"collection", "doc_key", "data"}).
			AddRow("companies", "acme", []byte(`{"name":"Acme"}`)).
			AddRow("companies", "globex", []byte(`{"name":"Globex"}`)))

	docs, err := s.GetAll(context.Background(), "companies")

	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "acme", docs[0].Key)
	assert.Equal(t, "Globex", docs[1].Data["name"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStore_Set(t *testing.T) {
	s, mock := setupGormStore(t)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "documents" ("collection","doc_key","data","created_at","updated_at")`) +
		".*" + regexp.QuoteMeta(`ON CONFLICT ("collection","doc_key") DO UPDATE SET "data"="excluded"."data","updated_at"="excluded"."updated_at"`)).
		WithArgs("companies", "acme", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := s.Set(context.Background(), "companies", "acme", map[string]any{"name": "Acme"})

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStore_CreateIfAbsent(t *testing.T) {
	ctx := context.Background()
	insert := regexp.QuoteMeta(`INSERT INTO "documents" ("collection","doc_key","data","created_at","updated_at")`)

	t.Run("created", func(t *testing.T) {
		s, mock := setupGormStore(t)
		mock.ExpectBegin()
		mock.ExpectExec(insert).
			WithArgs("users", "a@b.com", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		assert.NoError(t, s.CreateIfAbsent(ctx, "users", "a@b.com", map[string]any{"email": "a@b.com"}))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unique violation", func(t *testing.T) {
		s, mock := setupGormStore(t)
		mock.ExpectBegin()
		mock.ExpectExec(insert).
			WithArgs("users", "a@b.com", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "documents_pkey"})
		mock.ExpectRollback()

		err := s.CreateIfAbsent(ctx, "users", "a@b.com", map[string]any{"email": "a@b.com"})

		assert.ErrorIs(t, err, store.ErrAlreadyExists)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("other errors pass through", func(t *testing.T) {
		s, mock := setupGormStore(t)
		boom := errors.New("connection reset")
		mock.ExpectBegin()
		mock.ExpectExec(insert).
			WillReturnError(boom)
		mock.ExpectRollback()

		err := s.CreateIfAbsent(ctx, "users", "a@b.com", map[string]any{"email": "a@b.com"})

		assert.ErrorIs(t, err, boom)
	})
}

func TestGormStore_QueryByField(t *testing.T) {
	ctx := context.Background()

	t.Run("matches", func(t *testing.T) {
		s, mock := setupGormStore(t)
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "documents" WHERE collection = $1 AND data ->> $2 = $3 ORDER BY doc_key`)).
			WithArgs("users", "email", "a@b.com").
			WillReturnRows(sqlmock.NewRows([]string{"collection", "doc_key", "data"}).
				AddRow("users", "a@b.com", []byte(`{"email":"a@b.com"}`)))

		docs, err := s.QueryByField(ctx, "users", "email", "a@b.com")

		require.NoError(t, err)
		assert.Len(t, docs, 1)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rejects unsafe field names without querying", func(t *testing.T) {
		s, mock := setupGormStore(t)

		_, err := s.QueryByField(ctx, "users", "email'--", "x")

		assert.ErrorIs(t, err, store.ErrInvalidField)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormStore_Delete(t *testing.T) {
	s, mock := setupGormStore(t)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "documents" WHERE collection = $1 AND doc_key = $2`)).
		WithArgs("users", "a@b.com").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	assert.NoError(t, s.Delete(context.Background(), "users", "a@b.com"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEscapeDocumentID(t *testing.T) {
	id := store.EscapeDocumentID("team/a@b.com")

	assert.NotContains(t, id, "/")
	assert.Equal(t, "team/a@b.com", store.UnescapeDocumentID(id))
	assert.Equal(t, "plain", store.UnescapeDocumentID("plain"))
}
