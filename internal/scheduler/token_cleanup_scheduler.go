package scheduler

import (
	"github.com/mpatel/shopline-backend/internal/app/service"
	"github.com/mpatel/shopline-backend/pkg/logger"
	"github.com/robfig/cron/v3"
)

// TokenCleanupScheduler periodically removes revoked and expired
// tokens from the database.
type TokenCleanupScheduler struct {
	cron        *cron.Cron
	authService service.AuthService
	spec        string
}

func NewTokenCleanupScheduler(authService service.AuthService, spec string) *TokenCleanupScheduler {
	return &TokenCleanupScheduler{
		cron:        cron.New(),
		authService: authService,
		spec:        spec,
	}
}

func (s *TokenCleanupScheduler) Start() error {
	_, err := s.cron.AddFunc(s.spec, func() {
		logger.Info("Starting scheduled token cleanup", nil)

		count, err := s.authService.PurgeExpiredTokens()
		if err != nil {
			logger.Error("Failed to purge expired tokens from scheduler", err)
			return
		}

		logger.Info("Scheduled token cleanup finished", map[string]interface{}{
			"purged": count,
		})
	})

	if err != nil {
		logger.Error("Failed to add cron job for token cleanup", err)
		return err
	}

	s.cron.Start()
	logger.Info("Token cleanup scheduler started", map[string]interface{}{
		"schedule": s.spec,
	})

	return nil
}

func (s *TokenCleanupScheduler) Stop() {
	logger.Info("Stopping token cleanup scheduler...", nil)
	s.cron.Stop()
	logger.Info("Token cleanup scheduler stopped", nil)
}
