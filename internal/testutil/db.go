package testutil

import (
	"strings"
	"testing"

	"cadence/internal/database"
	"cadence/internal/models"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// NewTestDB opens a private in-memory SQLite database with the full schema.
func NewTestDB(t testing.TB) *gorm.DB {
	t.Helper()
	db, err := database.OpenSQLite("file::memory:")
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// CreateUser inserts a user with the given name and role and a "password" hash.
func CreateUser(t testing.TB, db *gorm.DB, first, last string, role models.Role) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.MinCost)
	require.NoError(t, err)
	u := &models.User{
		FirstName: first,
		LastName:  last,
		Email:     strings.ToLower(first + "." + last + "@example.com"),
		Password:  string(hash),
		Role:      role,
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

// CreatePlan inserts a learning plan authored by creatorID.
func CreatePlan(t testing.TB, db *gorm.DB, title string, creatorID uint) *models.LearningPlan {
	t.Helper()
	p := &models.LearningPlan{Title: title, Description: title + " description", CreatedBy: creatorID}
	require.NoError(t, db.Omit("Creator", "Enrollments").Create(p).Error)
	return p
}
