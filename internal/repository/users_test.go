package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestTranslateUniqueViolation(t *testing.T) {
	username := &pgconn.PgError{Code: "23505", ConstraintName: "users_username_key"}
	assert.ErrorIs(t, translateUniqueViolation(fmt.Errorf("insert: %w", username)), ErrDuplicateUsername)

	email := &pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"}
	assert.ErrorIs(t, translateUniqueViolation(email), ErrDuplicateEmail)

	other := &pgconn.PgError{Code: "23503", ConstraintName: "users_role_check"}
	assert.Equal(t, other, translateUniqueViolation(other))

	assert.ErrorIs(t, translateUniqueViolation(sql.ErrNoRows), sql.ErrNoRows)

	plain := errors.New("连接断开")
	assert.Equal(t, plain, translateUniqueViolation(plain))
}
