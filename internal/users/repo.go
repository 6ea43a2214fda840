package users

import (
	"context"
	"strings"
	"time"

	"github.com/angelmondragon/lottodesk-backend/pkg/db/models"
	"github.com/angelmondragon/lottodesk-backend/pkg/docstore"
)

// Repository exposes the user lookups auth and the service share.
type Repository struct {
	users docstore.Collection[models.User]
}

// NewRepository constructs a users repo bound to the document store.
func NewRepository(backend *docstore.Backend) *Repository {
	return &Repository{users: docstore.For[models.User](backend)}
}

// Collection exposes the underlying collection to the service.
func (r *Repository) Collection() docstore.Collection[models.User] {
	return r.users
}

// FindByEmail retrieves the user matching the provided email.
func (r *Repository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	found, err := r.users.List(ctx, docstore.Where("email", NormalizeEmail(email)))
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, docstore.ErrNotFound
	}
	return &found[0], nil
}

// FindByID loads a user by id.
func (r *Repository) FindByID(ctx context.Context, id string) (*models.User, error) {
	return r.users.Get(ctx, id)
}

// UpdateLastLogin refreshes the user's last_login_at timestamp.
func (r *Repository) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	return r.users.Update(ctx, id, map[string]any{"last_login_at": at})
}

// UpdatePasswordHash replaces the stored hash, used when parameters change.
func (r *Repository) UpdatePasswordHash(ctx context.Context, id, hash string) error {
	return r.users.Update(ctx, id, map[string]any{"password_hash": hash})
}

// CountByRole reports how many users hold a role.
func (r *Repository) CountByRole(ctx context.Context, roleID string) (int64, error) {
	return r.users.Count(ctx, docstore.Where("role_id", roleID))
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
