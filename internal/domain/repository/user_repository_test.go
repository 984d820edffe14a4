package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"taskboard/internal/common"
	"taskboard/internal/domain/model"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var userCols = []string{"id", "name", "email", "hashed_password", "role", "created_at", "updated_at"}

func TestPgUserRepository_Create(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPgUserRepository(db)
	user := &model.User{ID: "u-1", Name: "Test User", Email: "test@example.com", HashedPassword: "hash", Role: model.RoleUser}

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
		WithArgs("u-1", "Test User", "test@example.com", "hash", model.RoleUser, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Create(context.Background(), user))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPgUserRepository_Create_DuplicateEmail(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPgUserRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"})

	err := repo.Create(context.Background(), &model.User{ID: "u-2", Email: "test@example.com", Role: model.RoleUser})
	assert.ErrorIs(t, err, common.ErrConflict)
}

func TestPgUserRepository_FindByEmail(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPgUserRepository(db)
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE email = $1")).
		WithArgs("test@example.com").
		WillReturnRows(sqlmock.NewRows(userCols).AddRow("u-1", "Test User", "test@example.com", "hash", "admin", now, now))
	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE email = $1")).
		WithArgs("nobody@example.com").
		WillReturnError(sql.ErrNoRows)

	user, err := repo.FindByEmail(context.Background(), "test@example.com")
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, user.Role)
	assert.Equal(t, "hash", user.HashedPassword)

	_, err = repo.FindByEmail(context.Background(), "nobody@example.com")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestPgUserRepository_FindByID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPgUserRepository(db)
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE id = $1")).
		WithArgs("u-1").
		WillReturnRows(sqlmock.NewRows(userCols).AddRow("u-1", "Test User", "test@example.com", "hash", "user", now, now))
	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE id = $1")).
		WithArgs("u-2").
		WillReturnError(sql.ErrNoRows)

	user, err := repo.FindByID(context.Background(), "u-1")
	require.NoError(t, err)
	assert.Equal(t, "Test User", user.Name)

	_, err = repo.FindByID(context.Background(), "u-2")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestPgUserRepository_UpdateRole(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPgUserRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET role = $1")).
		WithArgs(model.RoleAdmin, "u-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET role = $1")).
		WithArgs(model.RoleAdmin, "u-404").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.UpdateRole(context.Background(), "u-1", model.RoleAdmin))
	assert.ErrorIs(t, repo.UpdateRole(context.Background(), "u-404", model.RoleAdmin), common.ErrNotFound)
}
