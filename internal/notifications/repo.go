package notifications

import (
	"context"
	"errors"
	"time"

	"github.com/angelmondragon/lottodesk-backend/pkg/db/models"
	"github.com/angelmondragon/lottodesk-backend/pkg/docstore"
)

// Repository exposes persistence helpers for notifications.
type Repository interface {
	ListForUser(ctx context.Context, userID string) ([]models.Notification, error)
	Create(ctx context.Context, notification *models.Notification) (string, error)
	MarkRead(ctx context.Context, userID, notificationID string, now time.Time) (markResult, error)
	MarkAllRead(ctx context.Context, userID string, now time.Time) (int64, error)
	Delete(ctx context.Context, userID, notificationID string) (bool, error)
	DeleteReadBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type repositoryImpl struct {
	docs docstore.Collection[models.Notification]
}

// NewRepository returns a notifications repository bound to the provided store.
func NewRepository(backend *docstore.Backend) Repository {
	return &repositoryImpl{docs: docstore.For[models.Notification](backend)}
}

type markResult struct {
	Updated bool
	Found   bool
}

func (r *repositoryImpl) ListForUser(ctx context.Context, userID string) ([]models.Notification, error) {
	return r.docs.List(ctx, docstore.Where("user_id", userID))
}

func (r *repositoryImpl) Create(ctx context.Context, notification *models.Notification) (string, error) {
	return r.docs.Create(ctx, notification)
}

// owned loads a notification and hides other users' rows behind not found.
func (r *repositoryImpl) owned(ctx context.Context, userID, notificationID string) (*models.Notification, error) {
	n, err := r.docs.Get(ctx, notificationID)
	if err != nil {
		return nil, err
	}
	if n.UserID != userID {
		return nil, docstore.ErrNotFound
	}
	return n, nil
}

func (r *repositoryImpl) MarkRead(ctx context.Context, userID, notificationID string, now time.Time) (markResult, error) {
	n, err := r.owned(ctx, userID, notificationID)
	if errors.Is(err, docstore.ErrNotFound) {
		return markResult{}, nil
	}
	if err != nil {
		return markResult{}, err
	}
	if n.Read {
		return markResult{Found: true}, nil
	}
	if err := r.docs.Update(ctx, notificationID, map[string]any{"read": true, "read_at": now}); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return markResult{}, nil
		}
		return markResult{}, err
	}
	return markResult{Found: true, Updated: true}, nil
}

func (r *repositoryImpl) MarkAllRead(ctx context.Context, userID string, now time.Time) (int64, error) {
	return r.docs.UpdateWhere(ctx,
		docstore.Where("user_id", userID).And("read", false),
		map[string]any{"read": true, "read_at": now},
	)
}

func (r *repositoryImpl) Delete(ctx context.Context, userID, notificationID string) (bool, error) {
	if _, err := r.owned(ctx, userID, notificationID); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	if err := r.docs.Delete(ctx, notificationID); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// DeleteReadBefore removes read notifications created before cutoff.
func (r *repositoryImpl) DeleteReadBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	return r.docs.DeleteWhere(ctx, docstore.Where("read", true).Before("created_at", cutoff))
}
