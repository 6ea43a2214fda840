package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/angelmondragon/lottodesk-backend/pkg/config"
	"github.com/angelmondragon/lottodesk-backend/pkg/db"
	"github.com/angelmondragon/lottodesk-backend/pkg/logger"
	"github.com/angelmondragon/lottodesk-backend/pkg/migrate"
	"github.com/angelmondragon/lottodesk-backend/pkg/mongodb"
	"github.com/joho/godotenv"
)

func main() {
	ctx := context.Background()
	// bootstrap logger early (then re-init after config load)
	logg := logger.New(logger.Options{ServiceName: "migrate"})

	_ = godotenv.Load()

	cmd := flag.String("cmd", "up", "migration command: up|down|status|version|create|validate")
	dir := flag.String("dir", migrate.DefaultDir, "source migrations directory (create|validate)")

	name := flag.String("name", "", "migration name (for create)")
	version := flag.String("version", "", "target version (YYYYMMDDHHMMSS) for -cmd=version")

	flag.Parse()

	// create and validate work on the source tree and need no config
	switch *cmd {
	case "create":
		if *name == "" {
			fmt.Fprintln(os.Stderr, "missing -name for create")
			os.Exit(1)
		}
		path, err := migrate.CreateSQLMigration(*dir, *name)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to create migration: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("created migration:", path)
		return

	case "validate":
		if err := migrate.ValidateDir(*dir); err != nil {
			fmt.Fprintf(os.Stderr, "migration validation failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("migration validation passed")
		return
	}

	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)

	logg = logger.New(logger.Options{
		ServiceName: "migrate",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx = logg.WithFields(context.Background(), map[string]any{
		"env":   cfg.App.Env,
		"cmd":   *cmd,
		"store": cfg.Store.Driver,
	})

	switch cfg.Store.Driver {
	case config.StoreDriverMongo:
		if *cmd != "up" {
			fmt.Fprintln(os.Stderr, "mongo stores only support -cmd=up")
			os.Exit(1)
		}
		client, err := mongodb.New(ctx, cfg.Mongo, logg)
		requireResource(ctx, logg, "mongo", err)
		defer func() { _ = client.Close(context.Background()) }()
		requireResource(ctx, logg, "mongo indexes", client.EnsureIndexes(ctx, migrate.MongoIndexes()))
		fmt.Println("mongo indexes ensured")
		return

	case config.StoreDriverSQLite:
		if *cmd != "up" {
			fmt.Fprintln(os.Stderr, "sqlite stores only support -cmd=up")
			os.Exit(1)
		}
		dbClient, err := db.New(ctx, cfg.Store.Driver, cfg.DB, logg)
		requireResource(ctx, logg, "database", err)
		defer dbClient.Close()
		requireResource(ctx, logg, "auto migrate", migrate.AutoMigrate(ctx, dbClient.DB()))
		fmt.Println("sqlite schema migrated")
		return
	}

	dbClient, err := db.New(ctx, cfg.Store.Driver, cfg.DB, logg)
	requireResource(ctx, logg, "database", err)
	defer dbClient.Close()

	sqlDB, err := dbClient.DB().DB()
	requireResource(ctx, logg, "sql database", err)

	logg.Info(ctx, "migrate ready")

	switch *cmd {
	case "up", "down", "status":
		if err := migrate.Run(ctx, sqlDB, *cmd); err != nil {
			fmt.Fprintf(os.Stderr, "goose %s failed: %v\n", *cmd, err)
			os.Exit(1)
		}

	case "version":
		if *version == "" {
			fmt.Fprintln(os.Stderr, "missing -version for version command")
			os.Exit(1)
		}
		if err := migrate.MigrateToVersion(ctx, sqlDB, *version); err != nil {
			fmt.Fprintf(os.Stderr, "goose version migrate failed: %v\n", err)
			os.Exit(1)
		}

	default:
		fmt.Fprintln(os.Stderr, "unknown -cmd value:", *cmd)
		os.Exit(1)
	}
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
