package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/lottodesk-backend/pkg/logger"
)

func TestNotificationCleanupJobPurgesReadNotifications(t *testing.T) {
	now := time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC)
	purger := &fakePurger{deletedRows: 42}
	job := newNotificationCleanupJob(t, purger, 0)
	job.now = func() time.Time { return now }

	require.NoError(t, job.Run(context.Background()))

	assert.Equal(t, now.Add(-defaultNotificationRetention), purger.lastCutoff)
	assert.Equal(t, 1, purger.called)
}

func TestNotificationCleanupJobHonoursRetention(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	purger := &fakePurger{}
	job := newNotificationCleanupJob(t, purger, 7*24*time.Hour)
	job.now = func() time.Time { return now }

	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, time.Date(2026, 2, 22, 12, 0, 0, 0, time.UTC), purger.lastCutoff)
}

func TestNotificationCleanupJobPropagatesErrors(t *testing.T) {
	job := newNotificationCleanupJob(t, &fakePurger{err: errors.New("boom")}, 0)
	assert.Error(t, job.Run(context.Background()))
}

func TestNotificationCleanupJobRequiresPurger(t *testing.T) {
	_, err := NewNotificationCleanupJob(NotificationCleanupJobParams{Logger: logger.Nop()})
	assert.Error(t, err)
}

func newNotificationCleanupJob(t *testing.T, purger *fakePurger, retention time.Duration) *notificationCleanupJob {
	t.Helper()
	jobIface, err := NewNotificationCleanupJob(NotificationCleanupJobParams{
		Logger:    logger.Nop(),
		Purger:    purger,
		Retention: retention,
	})
	require.NoError(t, err)
	job, ok := jobIface.(*notificationCleanupJob)
	require.True(t, ok, "expected notificationCleanupJob, got %T", jobIface)
	return job
}

type fakePurger struct {
	lastCutoff  time.Time
	deletedRows int64
	err         error
	called      int
}

func (f *fakePurger) PurgeRead(_ context.Context, cutoff time.Time) (int64, error) {
	f.called++
	f.lastCutoff = cutoff
	if f.err != nil {
		return 0, f.err
	}
	return f.deletedRows, nil
}
