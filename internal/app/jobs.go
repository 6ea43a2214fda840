package app

import (
	"github.com/angelmondragon/lottodesk-backend/internal/cron"
	"github.com/angelmondragon/lottodesk-backend/pkg/config"
	"github.com/angelmondragon/lottodesk-backend/pkg/logger"
)

// CronJobs returns the scheduled maintenance jobs backed by these services.
func (s *Services) CronJobs(cfg *config.Config, logg *logger.Logger) ([]cron.Job, error) {
	cleanup, err := cron.NewNotificationCleanupJob(cron.NotificationCleanupJobParams{
		Logger:    logg,
		Purger:    s.Notifications,
		Retention: cfg.Notifications.Retention(),
	})
	if err != nil {
		return nil, err
	}
	expiry, err := cron.NewWinnerExpiryJob(cron.WinnerExpiryJobParams{
		Logger:  logg,
		Winners: s.Winners,
	})
	if err != nil {
		return nil, err
	}
	return []cron.Job{cleanup, expiry}, nil
}
