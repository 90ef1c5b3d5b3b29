package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return db, mock
}

const (
	insertUserQ     = `(?s)^INSERT\s+INTO\s+users\s*\(username,\s*email,\s*password_hash\)\s*VALUES\s*\(\?,\s*\?,\s*\?\)$`
	selectByEmailQ  = `(?s)^SELECT\s+id,\s*username,\s*email,\s*password_hash\s+FROM\s+users\s+WHERE\s+email\s*=\s*\?$`
	selectByIDQ     = `(?s)^SELECT\s+id,\s*username,\s*email,\s*password_hash\s+FROM\s+users\s+WHERE\s+id\s*=\s*\?$`
	updatePasswordQ = `(?s)^UPDATE\s+users\s+SET\s+password_hash\s*=\s*\?\s+WHERE\s+id\s*=\s*\?$`
)

func TestUserRepository_Create(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepository(db)

	mock.ExpectExec(insertUserQ).
		WithArgs("alice", "a@x.com", "hash").
		WillReturnResult(sqlmock.NewResult(42, 1))

	id, err := repo.Create(context.Background(), "alice", "a@x.com", "hash")
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
}

func TestUserRepository_Create_Duplicate(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepository(db)

	mock.ExpectExec(insertUserQ).
		WithArgs("alice", "a@x.com", "hash").
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'a@x.com' for key 'users.email'"})

	_, err := repo.Create(context.Background(), "alice", "a@x.com", "hash")
	require.ErrorIs(t, err, ErrDuplicateIdentity)
}

func TestUserRepository_Create_DBError(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepository(db)

	mock.ExpectExec(insertUserQ).
		WithArgs("alice", "a@x.com", "hash").
		WillReturnError(errors.New("db down"))

	_, err := repo.Create(context.Background(), "alice", "a@x.com", "hash")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrDuplicateIdentity)
	assert.Regexp(t, regexp.MustCompile(`failed to create user: .*db down`), err.Error())
}

func TestUserRepository_GetByEmail(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepository(db)

	rows := sqlmock.NewRows([]string{"id", "username", "email", "password_hash"}).
		AddRow(int64(1), "alice", "a@x.com", "hash")
	mock.ExpectQuery(selectByEmailQ).WithArgs("a@x.com").WillReturnRows(rows)

	u, err := repo.GetByEmail(context.Background(), "a@x.com")
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, int64(1), u.ID)
	assert.Equal(t, "alice", u.Username)
	assert.Equal(t, "hash", u.PasswordHash)
}

func TestUserRepository_GetByEmail_NotFound(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery(selectByEmailQ).WithArgs("ghost@x.com").WillReturnError(sql.ErrNoRows)

	u, err := repo.GetByEmail(context.Background(), "ghost@x.com")
	require.NoError(t, err)
	assert.Nil(t, u)
}

func TestUserRepository_GetByID_DBError(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery(selectByIDQ).WithArgs(int64(9)).WillReturnError(errors.New("boom"))

	u, err := repo.GetByID(context.Background(), 9)
	require.Error(t, err)
	assert.Nil(t, u)
}

func TestUserRepository_UpdatePassword(t *testing.T) {
	t.Run("updated", func(t *testing.T) {
		db, mock := newMock(t)
		repo := NewUserRepository(db)

		mock.ExpectExec(updatePasswordQ).
			WithArgs("new-hash", int64(1)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.UpdatePassword(context.Background(), 1, "new-hash"))
	})

	t.Run("missing user", func(t *testing.T) {
		db, mock := newMock(t)
		repo := NewUserRepository(db)

		mock.ExpectExec(updatePasswordQ).
			WithArgs("new-hash", int64(404)).
			WillReturnResult(sqlmock.NewResult(0, 0))

		require.ErrorIs(t, repo.UpdatePassword(context.Background(), 404, "new-hash"), ErrNotFound)
	})
}
