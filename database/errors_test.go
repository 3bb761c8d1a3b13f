package database

import (
	"errors"
	"fmt"
	"testing"

	"kaleidorium/internal/domain/users"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestIsUniqueViolation(t *testing.T) {
	assert.False(t, IsUniqueViolation(nil))
	assert.False(t, IsUniqueViolation(errors.New("boom")))
	assert.True(t, IsUniqueViolation(gorm.ErrDuplicatedKey))
	assert.True(t, IsUniqueViolation(fmt.Errorf("wrap: %w", &pgconn.PgError{Code: "23505"})))
	assert.False(t, IsUniqueViolation(&pgconn.PgError{Code: "23503"}))
}

func TestIsUniqueViolation_Sqlite(t *testing.T) {
	db := SetupTestDB(t)

	require.NoError(t, db.Create(&users.User{Email: "a@example.com", Role: users.RoleCollector}).Error)
	err := db.Create(&users.User{Email: "a@example.com", Role: users.RoleCollector}).Error
	require.Error(t, err)
	assert.True(t, IsUniqueViolation(err))
}

func TestIsNotFound(t *testing.T) {
	db := SetupTestDB(t)

	var u users.User
	err := db.First(&u, 42).Error
	assert.True(t, IsNotFound(err))
}
