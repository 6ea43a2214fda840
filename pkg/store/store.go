// Package store opens the configured document backend for a process.
package store

import (
	"context"
	"fmt"

	"github.com/angelmondragon/lottodesk-backend/pkg/config"
	"github.com/angelmondragon/lottodesk-backend/pkg/db"
	"github.com/angelmondragon/lottodesk-backend/pkg/docstore"
	"github.com/angelmondragon/lottodesk-backend/pkg/logger"
	"github.com/angelmondragon/lottodesk-backend/pkg/migrate"
	"github.com/angelmondragon/lottodesk-backend/pkg/mongodb"
)

// Store is an opened backend plus the connection that owns it.
type Store struct {
	Backend *docstore.Backend
	SQL     *db.Client
	Mongo   *mongodb.Client
}

// Open connects to cfg.Store.Driver and prepares its schema: dev migrations
// for SQL, indexes for Mongo.
func Open(ctx context.Context, cfg *config.Config, logg *logger.Logger) (*Store, error) {
	if cfg.Store.Driver == config.StoreDriverMongo {
		client, err := mongodb.New(ctx, cfg.Mongo, logg)
		if err != nil {
			return nil, fmt.Errorf("bootstrap mongo: %w", err)
		}
		if err := client.EnsureIndexes(ctx, migrate.MongoIndexes()); err != nil {
			_ = client.Close(ctx)
			return nil, fmt.Errorf("ensure mongo indexes: %w", err)
		}
		return &Store{Backend: docstore.NewMongoBackend(client.Database()), Mongo: client}, nil
	}

	client, err := db.New(ctx, cfg.Store.Driver, cfg.DB, logg)
	if err != nil {
		return nil, fmt.Errorf("bootstrap database: %w", err)
	}
	if err := migrate.MaybeRunDev(ctx, cfg, logg, client); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("dev migrations: %w", err)
	}
	return &Store{Backend: docstore.NewGormBackend(client.DB()), SQL: client}, nil
}

// Ping checks whichever connection is open.
func (s *Store) Ping(ctx context.Context) error {
	return s.Backend.Ping(ctx)
}

func (s *Store) Close(ctx context.Context) error {
	if s == nil {
		return nil
	}
	if s.Mongo != nil {
		return s.Mongo.Close(ctx)
	}
	if s.SQL != nil {
		return s.SQL.Close()
	}
	return nil
}
