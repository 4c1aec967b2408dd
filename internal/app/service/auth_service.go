package service

import (
	"errors"
	"time"

	"github.com/mpatel/shopline-backend/internal/app/model"
	"github.com/mpatel/shopline-backend/internal/app/repository"
	"github.com/mpatel/shopline-backend/pkg/logger"
	"github.com/mpatel/shopline-backend/pkg/util"
	"gorm.io/gorm"
)

var (
	ErrEmailAlreadyExists = errors.New("email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserNotFound       = errors.New("user not found")
	ErrTokenNotFound      = errors.New("token not found")
)

const tokenEntropyBytes = 32

type AuthService interface {
	Signup(email, password, name string) (*model.User, error)
	Login(email, password string) (*model.User, *model.Token, error)
	Logout(tokenValue string) error
	ValidateToken(tokenValue string) (*model.User, error)
	PurgeExpiredTokens() (int64, error)
}

type authService struct {
	userRepo    repository.UserRepository
	tokenRepo   repository.TokenRepository
	tokenExpiry time.Duration
}

func NewAuthService(
	userRepo repository.UserRepository,
	tokenRepo repository.TokenRepository,
	tokenExpiry time.Duration,
) AuthService {
	return &authService{
		userRepo:    userRepo,
		tokenRepo:   tokenRepo,
		tokenExpiry: tokenExpiry,
	}
}

func (s *authService) Signup(email, password, name string) (*model.User, error) {
	logger.Info("Signing up user", map[string]interface{}{
		"email": email,
	})

	_, err := s.userRepo.FindByEmail(email)
	if err == nil {
		logger.Warn("Signup rejected: email already registered", map[string]interface{}{
			"email": email,
		})
		return nil, ErrEmailAlreadyExists
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hash, err := util.HashPassword(password)
	if err != nil {
		logger.Error("Failed to hash password", err, nil)
		return nil, err
	}

	user := &model.User{
		Email:        email,
		PasswordHash: hash,
		Name:         name,
		Role:         model.RoleUser,
	}
	if err := s.userRepo.Create(user); err != nil {
		return nil, err
	}

	logger.Info("User signed up successfully", map[string]interface{}{
		"user_id": user.ID,
		"email":   user.Email,
	})
	return user, nil
}

// Login verifies the credentials and issues a fresh opaque token.
// Earlier tokens stay usable until they expire or are revoked.
func (s *authService) Login(email, password string) (*model.User, *model.Token, error) {
	logger.Info("Logging in user", map[string]interface{}{
		"email": email,
	})

	user, err := s.userRepo.FindByEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Login failed: unknown email", map[string]interface{}{
				"email": email,
			})
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, err
	}

	if !util.VerifyPassword(user.PasswordHash, password) {
		logger.Warn("Login failed: wrong password", map[string]interface{}{
			"user_id": user.ID,
		})
		return nil, nil, ErrInvalidCredentials
	}

	value, err := util.GenerateToken(tokenEntropyBytes)
	if err != nil {
		logger.Error("Failed to generate token", err, nil)
		return nil, nil, err
	}

	token := &model.Token{
		Value:    value,
		UserID:   user.ID,
		ExpiryAt: time.Now().Add(s.tokenExpiry),
	}
	if err := s.tokenRepo.Create(token); err != nil {
		return nil, nil, err
	}

	logger.Info("User logged in successfully", map[string]interface{}{
		"user_id":  user.ID,
		"token_id": token.ID,
	})
	return user, token, nil
}

// Logout revokes the token. Revoking an unknown token is an error so
// callers can distinguish a stale client from a successful logout.
func (s *authService) Logout(tokenValue string) error {
	logger.Info("Logging out user", nil)

	token, err := s.tokenRepo.FindByValue(tokenValue)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTokenNotFound
		}
		return err
	}

	if err := s.tokenRepo.Revoke(token); err != nil {
		return err
	}

	logger.Info("User logged out successfully", map[string]interface{}{
		"user_id": token.UserID,
	})
	return nil
}

// ValidateToken resolves a token to its user. Revoked, expired and
// unknown tokens all come back as ErrTokenNotFound.
func (s *authService) ValidateToken(tokenValue string) (*model.User, error) {
	token, err := s.tokenRepo.FindUsableByValue(tokenValue, time.Now())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTokenNotFound
		}
		return nil, err
	}
	return &token.User, nil
}

// PurgeExpiredTokens removes revoked and expired token rows. It is
// run on a schedule, not on the request path.
func (s *authService) PurgeExpiredTokens() (int64, error) {
	count, err := s.tokenRepo.DeleteExpired(time.Now())
	if err != nil {
		logger.Error("Failed to purge expired tokens", err, nil)
		return 0, err
	}

	logger.Info("Expired tokens purged", map[string]interface{}{
		"count": count,
	})
	return count, nil
}
