package postgres

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Inalterable-api/internal/domain"
	"github.com/jhoicas/Inalterable-api/internal/domain/entity"
)

func TestUserRepo_Create_EmailRepetido(t *testing.T) {
	mock := newMock(t)
	now := time.Now().UTC()
	u := &entity.User{
		ID: "u-1", CompanyID: companyA, Email: "ana@acme.co", PasswordHash: "$2a$04$x",
		Name: "Ana", Role: "contador", Status: entity.UserStatusActive, CreatedAt: now, UpdatedAt: now,
	}
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
		WithArgs(u.ID, u.CompanyID, u.Email, u.PasswordHash, u.Name, u.Role, u.Status, u.CreatedAt, u.UpdatedAt).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	err := NewUserRepository(mock).Create(context.Background(), u)
	assert.ErrorIs(t, err, domain.ErrDuplicate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepo_GetByEmail(t *testing.T) {
	mock := newMock(t)
	now := time.Now().UTC()
	cols := []string{"id", "company_id", "email", "password_hash", "name", "role", "status", "created_at", "updated_at"}
	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE email = $1")).
		WithArgs("ana@acme.co").
		WillReturnRows(pgxmock.NewRows(cols).
			AddRow("u-1", companyA, "ana@acme.co", "$2a$04$x", "Ana", "contador", "active", now, now))
	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE email = $1")).
		WithArgs("nadie@acme.co").
		WillReturnRows(pgxmock.NewRows(cols))

	repo := NewUserRepository(mock)
	u, err := repo.GetByEmail(context.Background(), "ana@acme.co")
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, "contador", u.Role)
	assert.True(t, u.IsActive())

	u, err = repo.GetByEmail(context.Background(), "nadie@acme.co")
	require.NoError(t, err)
	assert.Nil(t, u)
	assert.NoError(t, mock.ExpectationsWereMet())
}
