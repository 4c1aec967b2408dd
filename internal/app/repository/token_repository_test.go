package repository

import (
	"testing"
	"time"

	"github.com/mpatel/shopline-backend/internal/app/model"
	"github.com/mpatel/shopline-backend/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupTokenTest(t *testing.T) (*gorm.DB, TokenRepository, *model.User) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.CleanupTestDB(testDB)
	})

	user := &model.User{
		Email:        "test@example.com",
		PasswordHash: "not-a-real-hash",
		Name:         "Test User",
		Role:         model.RoleUser,
	}
	require.NoError(t, testDB.Create(user).Error)

	repo := NewTokenRepository(testDB)
	return testDB, repo, user
}

func TestTokenRepository_CreateAndFind(t *testing.T) {
	_, repo, user := setupTokenTest(t)

	token := &model.Token{
		Value:    "opaque-token-value",
		UserID:   user.ID,
		ExpiryAt: time.Now().Add(time.Hour),
	}
	require.NoError(t, repo.Create(token))
	assert.NotZero(t, token.ID)

	found, err := repo.FindByValue("opaque-token-value")
	require.NoError(t, err)
	assert.Equal(t, token.ID, found.ID)

	_, err = repo.FindByValue("no-such-token")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestTokenRepository_FindUsableByValue(t *testing.T) {
	_, repo, user := setupTokenTest(t)

	token := &model.Token{
		Value:    "usable-token",
		UserID:   user.ID,
		ExpiryAt: time.Now().Add(time.Hour),
	}
	require.NoError(t, repo.Create(token))

	found, err := repo.FindUsableByValue("usable-token", time.Now())
	require.NoError(t, err)
	assert.Equal(t, token.ID, found.ID)
	// The owning user is preloaded for the validation path
	assert.Equal(t, user.Email, found.User.Email)
}

func TestTokenRepository_FindUsableByValue_Expired(t *testing.T) {
	_, repo, user := setupTokenTest(t)

	token := &model.Token{
		Value:    "expired-token",
		UserID:   user.ID,
		ExpiryAt: time.Now().Add(-time.Minute),
	}
	require.NoError(t, repo.Create(token))

	_, err := repo.FindUsableByValue("expired-token", time.Now())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestTokenRepository_Revoke(t *testing.T) {
	_, repo, user := setupTokenTest(t)

	token := &model.Token{
		Value:    "revocable-token",
		UserID:   user.ID,
		ExpiryAt: time.Now().Add(time.Hour),
	}
	require.NoError(t, repo.Create(token))

	require.NoError(t, repo.Revoke(token))

	// Still findable by value, but no longer usable
	_, err := repo.FindByValue("revocable-token")
	assert.NoError(t, err)

	_, err = repo.FindUsableByValue("revocable-token", time.Now())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestTokenRepository_DeleteExpired(t *testing.T) {
	testDB, repo, user := setupTokenTest(t)

	live := &model.Token{Value: "live", UserID: user.ID, ExpiryAt: time.Now().Add(time.Hour)}
	expired := &model.Token{Value: "expired", UserID: user.ID, ExpiryAt: time.Now().Add(-time.Minute)}
	revoked := &model.Token{Value: "revoked", UserID: user.ID, ExpiryAt: time.Now().Add(time.Hour)}
	for _, token := range []*model.Token{live, expired, revoked} {
		require.NoError(t, repo.Create(token))
	}
	require.NoError(t, repo.Revoke(revoked))

	count, err := repo.DeleteExpired(time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	var remaining int64
	require.NoError(t, testDB.Model(&model.Token{}).Count(&remaining).Error)
	assert.Equal(t, int64(1), remaining)

	_, err = repo.FindByValue("live")
	assert.NoError(t, err)
}
