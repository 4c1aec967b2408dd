package repository

import (
	"time"

	"github.com/mpatel/shopline-backend/internal/app/model"
	"github.com/mpatel/shopline-backend/pkg/logger"
	"gorm.io/gorm"
)

type TokenRepository interface {
	Create(token *model.Token) error
	FindByValue(value string) (*model.Token, error)
	FindUsableByValue(value string, now time.Time) (*model.Token, error)
	Revoke(token *model.Token) error
	DeleteExpired(now time.Time) (int64, error)
}

type tokenRepository struct {
	db *gorm.DB
}

func NewTokenRepository(db *gorm.DB) TokenRepository {
	return &tokenRepository{db: db}
}

func (r *tokenRepository) Create(token *model.Token) error {
	logger.Debug("Creating token in database", map[string]interface{}{
		"user_id":   token.UserID,
		"expiry_at": token.ExpiryAt,
	})

	if err := r.db.Create(token).Error; err != nil {
		logger.Error("Failed to create token in database", err, map[string]interface{}{
			"user_id": token.UserID,
		})
		return err
	}

	logger.Debug("Token created in database", map[string]interface{}{
		"token_id": token.ID,
		"user_id":  token.UserID,
	})
	return nil
}

func (r *tokenRepository) FindByValue(value string) (*model.Token, error) {
	var token model.Token
	err := r.db.Where("value = ?", value).First(&token).Error
	if err != nil {
		return nil, err
	}
	return &token, nil
}

// FindUsableByValue looks up a token that is not revoked and not yet
// expired at the given time.
func (r *tokenRepository) FindUsableByValue(value string, now time.Time) (*model.Token, error) {
	var token model.Token
	err := r.db.Where("value = ? AND deleted = ? AND expiry_at > ?", value, false, now).
		Preload("User").
		First(&token).Error
	if err != nil {
		return nil, err
	}
	return &token, nil
}

// Revoke marks the token unusable. The row is kept until the cleanup
// job removes it.
func (r *tokenRepository) Revoke(token *model.Token) error {
	logger.Debug("Revoking token in database", map[string]interface{}{
		"token_id": token.ID,
		"user_id":  token.UserID,
	})

	if err := r.db.Model(token).Update("deleted", true).Error; err != nil {
		logger.Error("Failed to revoke token in database", err, map[string]interface{}{
			"token_id": token.ID,
		})
		return err
	}

	logger.Debug("Token revoked in database", map[string]interface{}{
		"token_id": token.ID,
	})
	return nil
}

// DeleteExpired removes tokens that are revoked or past expiry.
func (r *tokenRepository) DeleteExpired(now time.Time) (int64, error) {
	result := r.db.Where("deleted = ? OR expiry_at <= ?", true, now).
		Delete(&model.Token{})
	if result.Error != nil {
		logger.Error("Failed to delete expired tokens from database", result.Error, nil)
		return 0, result.Error
	}

	logger.Debug("Expired tokens deleted from database", map[string]interface{}{
		"count": result.RowsAffected,
	})
	return result.RowsAffected, nil
}
