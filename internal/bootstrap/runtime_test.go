package bootstrap

import (
	"testing"

	"cadence/internal/config"
	"cadence/internal/models"
	"cadence/internal/storage"
	"cadence/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestEnsureDevRootAdmin(t *testing.T) {
	db := testutil.NewTestDB(t)
	cfg := &config.Config{Env: "development", DevRootEmail: " Root@Cadence.Local ", DevRootPassword: "R00t!Password"}

	require.NoError(t, ensureDevRootAdmin(cfg, db))
	require.NoError(t, ensureDevRootAdmin(cfg, db))

	var users []models.User
	require.NoError(t, db.Find(&users).Error)
	require.Len(t, users, 1)
	assert.Equal(t, "root@cadence.local", users[0].Email)
	assert.Equal(t, models.RoleAdmin, users[0].Role)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(users[0].Password), []byte("R00t!Password")))
}

func TestEnsureDevRootAdmin_PromotesExisting(t *testing.T) {
	db := testutil.NewTestDB(t)
	u := testutil.CreateUser(t, db, "Root", "Admin", models.RoleUser)
	cfg := &config.Config{Env: "development", DevRootEmail: u.Email, DevRootPassword: "R00t!Password"}

	require.NoError(t, ensureDevRootAdmin(cfg, db))

	var got models.User
	require.NoError(t, db.First(&got, u.ID).Error)
	assert.Equal(t, models.RoleAdmin, got.Role)
}

func TestEnsureDevRootAdmin_Skipped(t *testing.T) {
	db := testutil.NewTestDB(t)

	require.NoError(t, ensureDevRootAdmin(&config.Config{Env: "development"}, db))
	require.NoError(t, ensureDevRootAdmin(&config.Config{Env: "production", DevRootEmail: "a@b.c", DevRootPassword: "x"}, db))
	assert.Error(t, ensureDevRootAdmin(&config.Config{Env: "development", DevRootEmail: "a@b.c"}, db))

	var n int64
	require.NoError(t, db.Model(&models.User{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestNewBlobStore_Local(t *testing.T) {
	dir := t.TempDir()
	store, err := NewBlobStore(&config.Config{StorageDriver: "local", UploadDir: dir, PublicBaseURL: "http://localhost:8375"})
	require.NoError(t, err)
	local, ok := store.(*storage.LocalStore)
	require.True(t, ok)
	assert.Equal(t, dir, local.Root())
}
