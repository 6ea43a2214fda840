package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/lottodesk-backend/pkg/logger"
)

// overdueWinnerExpirer moves unclaimed winners past their claim deadline to
// EXPIRED and returns how many changed.
type overdueWinnerExpirer interface {
	ExpireOverdue(ctx context.Context, now time.Time) (int64, error)
}

type WinnerExpiryJobParams struct {
	Logger  *logger.Logger
	Winners overdueWinnerExpirer
}

func NewWinnerExpiryJob(params WinnerExpiryJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Winners == nil {
		return nil, fmt.Errorf("winners service required")
	}
	return &winnerExpiryJob{logg: params.Logger, winners: params.Winners, now: time.Now}, nil
}

type winnerExpiryJob struct {
	logg    *logger.Logger
	winners overdueWinnerExpirer
	now     func() time.Time
}

func (j *winnerExpiryJob) Name() string { return "winner-expiry" }

func (j *winnerExpiryJob) Run(ctx context.Context) error {
	now := j.now().UTC()
	expired, err := j.winners.ExpireOverdue(ctx, now)
	if err != nil {
		return fmt.Errorf("winner expiry: %w", err)
	}
	j.logg.Info(j.logg.WithField(ctx, "expired", expired), "winner expiry complete")
	return nil
}
