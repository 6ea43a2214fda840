package docstore

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"gorm.io/gorm"
)

// Backend is an opened document store: gorm (postgres / sqlite) or MongoDB.
type Backend struct {
	sql   *gorm.DB
	mongo *mongo.Database
	now   func() time.Time
}

func NewGormBackend(db *gorm.DB) *Backend {
	return &Backend{sql: db, now: time.Now}
}

func NewMongoBackend(db *mongo.Database) *Backend {
	return &Backend{mongo: db, now: time.Now}
}

// WithClock overrides the timestamp source; tests use it to pin created_at.
func (b *Backend) WithClock(now func() time.Time) *Backend {
	if now != nil {
		b.now = now
	}
	return b
}

// Kind reports "sql" or "mongo".
func (b *Backend) Kind() string {
	if b.mongo != nil {
		return "mongo"
	}
	return "sql"
}

// For returns the collection for T on b.
func For[T any](b *Backend) Collection[T] {
	if b.mongo != nil {
		return &mongoCollection[T]{coll: b.mongo.Collection(tableName[T]()), now: b.now}
	}
	return &gormCollection[T]{db: b.sql, now: b.now}
}

// Ping checks the backend connection.
func (b *Backend) Ping(ctx context.Context) error {
	if b.mongo != nil {
		return b.mongo.Client().Ping(ctx, nil)
	}
	if b.sql == nil {
		return errors.New("docstore: backend not initialised")
	}
	sqlDB, err := b.sql.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
