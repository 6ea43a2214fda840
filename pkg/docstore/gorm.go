package docstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/angelmondragon/lottodesk-backend/pkg/db"
	"gorm.io/gorm"
)

type gormCollection[T any] struct {
	db  *gorm.DB
	now func() time.Time
}

func (c *gormCollection[T]) scoped(ctx context.Context, filter Filter) (*gorm.DB, error) {
	if err := filter.validate(); err != nil {
		return nil, err
	}
	q := c.db.WithContext(ctx).Model(new(T))
	if len(filter.Eq) > 0 {
		q = q.Where(filter.Eq)
	}
	for _, field := range sortedKeys(filter.Lt) {
		q = q.Where(fmt.Sprintf("%s < ?", field), filter.Lt[field])
	}
	return q, nil
}

func (c *gormCollection[T]) List(ctx context.Context, filter Filter) ([]T, error) {
	q, err := c.scoped(ctx, filter)
	if err != nil {
		return nil, err
	}
	var out []T
	if err := q.Order("created_at DESC").Order("id DESC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (c *gormCollection[T]) Get(ctx context.Context, id string) (*T, error) {
	var doc T
	err := c.db.WithContext(ctx).Where("id = ?", id).First(&doc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (c *gormCollection[T]) Create(ctx context.Context, doc *T) (string, error) {
	id, err := prepare(doc, c.now())
	if err != nil {
		return "", err
	}
	if err := c.db.WithContext(ctx).Create(doc).Error; err != nil {
		if db.IsUniqueViolation(err, "") {
			return "", fmt.Errorf("%w: %v", ErrDuplicate, err)
		}
		return "", err
	}
	return id, nil
}

func (c *gormCollection[T]) Update(ctx context.Context, id string, partial map[string]any) error {
	if err := validatePartial(partial); err != nil {
		return err
	}
	res := c.db.WithContext(ctx).Model(new(T)).Where("id = ?", id).Updates(withUpdatedAt(partial, c.now()))
	if res.Error != nil {
		if db.IsUniqueViolation(res.Error, "") {
			return fmt.Errorf("%w: %v", ErrDuplicate, res.Error)
		}
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (c *gormCollection[T]) Delete(ctx context.Context, id string) error {
	res := c.db.WithContext(ctx).Where("id = ?", id).Delete(new(T))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (c *gormCollection[T]) Count(ctx context.Context, filter Filter) (int64, error) {
	q, err := c.scoped(ctx, filter)
	if err != nil {
		return 0, err
	}
	var n int64
	if err := q.Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

func (c *gormCollection[T]) UpdateWhere(ctx context.Context, filter Filter, partial map[string]any) (int64, error) {
	if err := validatePartial(partial); err != nil {
		return 0, err
	}
	q, err := c.scoped(ctx, filter)
	if err != nil {
		return 0, err
	}
	if len(filter.Eq) == 0 && len(filter.Lt) == 0 {
		q = q.Where("1 = 1")
	}
	res := q.Updates(withUpdatedAt(partial, c.now()))
	return res.RowsAffected, res.Error
}

func (c *gormCollection[T]) DeleteWhere(ctx context.Context, filter Filter) (int64, error) {
	q, err := c.scoped(ctx, filter)
	if err != nil {
		return 0, err
	}
	if len(filter.Eq) == 0 && len(filter.Lt) == 0 {
		return 0, errors.New("docstore: refusing unfiltered delete")
	}
	res := q.Delete(new(T))
	return res.RowsAffected, res.Error
}
