package service

import (
	"testing"
	"time"

	"github.com/mpatel/shopline-backend/internal/app/model"
	"github.com/mpatel/shopline-backend/internal/app/repository"
	"github.com/mpatel/shopline-backend/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupAuthServiceTest(t *testing.T) (AuthService, *gorm.DB) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.CleanupTestDB(testDB)
	})

	service := NewAuthService(
		repository.NewUserRepository(testDB),
		repository.NewTokenRepository(testDB),
		time.Hour,
	)
	return service, testDB
}

func TestAuthService_Signup(t *testing.T) {
	service, _ := setupAuthServiceTest(t)

	user, err := service.Signup("new@example.com", "secret-password", "New User")
	require.NoError(t, err)
	assert.NotZero(t, user.ID)
	assert.Equal(t, "new@example.com", user.Email)
	assert.Equal(t, model.RoleUser, user.Role)
	// The plaintext password is never stored
	assert.NotEqual(t, "secret-password", user.PasswordHash)
	assert.NotEmpty(t, user.PasswordHash)
}

func TestAuthService_Signup_DuplicateEmail(t *testing.T) {
	service, _ := setupAuthServiceTest(t)

	_, err := service.Signup("dup@example.com", "secret-password", "First")
	require.NoError(t, err)

	_, err = service.Signup("dup@example.com", "other-password", "Second")
	assert.ErrorIs(t, err, ErrEmailAlreadyExists)
}

func TestAuthService_Login(t *testing.T) {
	service, _ := setupAuthServiceTest(t)

	signedUp, err := service.Signup("login@example.com", "secret-password", "Login User")
	require.NoError(t, err)

	user, token, err := service.Login("login@example.com", "secret-password")
	require.NoError(t, err)
	assert.Equal(t, signedUp.ID, user.ID)
	assert.NotEmpty(t, token.Value)
	assert.Equal(t, user.ID, token.UserID)
	assert.True(t, token.ExpiryAt.After(time.Now()))
}

func TestAuthService_Login_WrongPassword(t *testing.T) {
	service, _ := setupAuthServiceTest(t)

	_, err := service.Signup("login@example.com", "secret-password", "Login User")
	require.NoError(t, err)

	_, _, err = service.Login("login@example.com", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthService_Login_UnknownEmail(t *testing.T) {
	service, _ := setupAuthServiceTest(t)

	_, _, err := service.Login("nobody@example.com", "secret-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthService_Login_IssuesDistinctTokens(t *testing.T) {
	service, _ := setupAuthServiceTest(t)

	_, err := service.Signup("login@example.com", "secret-password", "Login User")
	require.NoError(t, err)

	_, first, err := service.Login("login@example.com", "secret-password")
	require.NoError(t, err)
	_, second, err := service.Login("login@example.com", "secret-password")
	require.NoError(t, err)

	assert.NotEqual(t, first.Value, second.Value)

	// Both tokens stay usable
	_, err = service.ValidateToken(first.Value)
	assert.NoError(t, err)
	_, err = service.ValidateToken(second.Value)
	assert.NoError(t, err)
}

func TestAuthService_ValidateToken(t *testing.T) {
	service, _ := setupAuthServiceTest(t)

	signedUp, err := service.Signup("valid@example.com", "secret-password", "Valid User")
	require.NoError(t, err)
	_, token, err := service.Login("valid@example.com", "secret-password")
	require.NoError(t, err)

	user, err := service.ValidateToken(token.Value)
	require.NoError(t, err)
	assert.Equal(t, signedUp.ID, user.ID)
	assert.Equal(t, "valid@example.com", user.Email)
}

func TestAuthService_ValidateToken_Unknown(t *testing.T) {
	service, _ := setupAuthServiceTest(t)

	_, err := service.ValidateToken("no-such-token")
	assert.ErrorIs(t, err, ErrTokenNotFound)
}

func TestAuthService_ValidateToken_Revoked(t *testing.T) {
	service, _ := setupAuthServiceTest(t)

	_, err := service.Signup("revoked@example.com", "secret-password", "Revoked User")
	require.NoError(t, err)
	_, token, err := service.Login("revoked@example.com", "secret-password")
	require.NoError(t, err)

	require.NoError(t, service.Logout(token.Value))

	_, err = service.ValidateToken(token.Value)
	assert.ErrorIs(t, err, ErrTokenNotFound)
}

func TestAuthService_ValidateToken_Expired(t *testing.T) {
	service, testDB := setupAuthServiceTest(t)

	_, err := service.Signup("expired@example.com", "secret-password", "Expired User")
	require.NoError(t, err)
	_, token, err := service.Login("expired@example.com", "secret-password")
	require.NoError(t, err)

	require.NoError(t, testDB.Model(&model.Token{}).Where("id = ?", token.ID).
		Update("expiry_at", time.Now().Add(-time.Minute)).Error)

	_, err = service.ValidateToken(token.Value)
	assert.ErrorIs(t, err, ErrTokenNotFound)
}

func TestAuthService_Logout_UnknownToken(t *testing.T) {
	service, _ := setupAuthServiceTest(t)

	err := service.Logout("no-such-token")
	assert.ErrorIs(t, err, ErrTokenNotFound)
}

func TestAuthService_PurgeExpiredTokens(t *testing.T) {
	service, testDB := setupAuthServiceTest(t)

	_, err := service.Signup("purge@example.com", "secret-password", "Purge User")
	require.NoError(t, err)

	_, live, err := service.Login("purge@example.com", "secret-password")
	require.NoError(t, err)
	_, stale, err := service.Login("purge@example.com", "secret-password")
	require.NoError(t, err)
	_, revoked, err := service.Login("purge@example.com", "secret-password")
	require.NoError(t, err)

	require.NoError(t, testDB.Model(&model.Token{}).Where("id = ?", stale.ID).
		Update("expiry_at", time.Now().Add(-time.Minute)).Error)
	require.NoError(t, service.Logout(revoked.Value))

	count, err := service.PurgeExpiredTokens()
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	// The live token is untouched
	_, err = service.ValidateToken(live.Value)
	assert.NoError(t, err)

	var remaining int64
	require.NoError(t, testDB.Model(&model.Token{}).Count(&remaining).Error)
	assert.Equal(t, int64(1), remaining)
}
