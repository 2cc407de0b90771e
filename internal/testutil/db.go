// Package testutil provides throwaway databases and fixtures for tests.
package testutil

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/taskswap/taskswap/db"
	"github.com/taskswap/taskswap/internal/auth"
	"github.com/taskswap/taskswap/internal/models"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB opens a private in-memory SQLite database with the full schema.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=1", uuid.NewString())

	database, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err, "open test database")

	sqlDB, err := database.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.MigrateDatabase(database), "migrate test database")

	t.Cleanup(func() { _ = sqlDB.Close() })

	return database
}

// CreateUser inserts a user whose password is "password123".
func CreateUser(t *testing.T, database *gorm.DB, name string) models.User {
	t.Helper()

	hash, err := auth.HashPassword("password123", bcrypt.MinCost)
	require.NoError(t, err)

	user := models.User{
		Name:         name,
		Email:        fmt.Sprintf("%s-%s@example.com", name, uuid.NewString()[:8]),
		PasswordHash: hash,
		Skills:       datatypes.JSONSlice[string]{},
	}
	require.NoError(t, database.Create(&user).Error, "create user")

	return user
}
