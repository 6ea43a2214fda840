// Command adminctl runs one-off operator tasks against the configured store.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/angelmondragon/lottodesk-backend/internal/cron"
	"github.com/angelmondragon/lottodesk-backend/pkg/config"
	"github.com/angelmondragon/lottodesk-backend/pkg/logger"
	"github.com/angelmondragon/lottodesk-backend/pkg/redis"
	"github.com/angelmondragon/lottodesk-backend/pkg/store"
)

const programName = "adminctl"

// runtime is what every subcommand works against.
type runtime struct {
	cfg   *config.Config
	logg  *logger.Logger
	store *store.Store
	// lock is only opened by commands that need it
	lock func(ctx context.Context) (cron.Lock, func(), error)
}

func (r *runtime) Close() {
	if err := r.store.Close(context.Background()); err != nil {
		r.logg.Error(context.Background(), "error closing store", err)
	}
}

type opener func(ctx context.Context) (*runtime, error)

func openFromEnv(ctx context.Context) (*runtime, error) {
	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	cfg.Service.Kind = programName

	logg := logger.New(logger.Options{
		ServiceName: programName,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})
	st, err := store.Open(ctx, cfg, logg)
	if err != nil {
		return nil, err
	}
	return &runtime{
		cfg:   cfg,
		logg:  logg,
		store: st,
		lock: func(ctx context.Context) (cron.Lock, func(), error) {
			client, err := redis.New(ctx, cfg.Redis, logg)
			if err != nil {
				return nil, nil, fmt.Errorf("bootstrap redis: %w", err)
			}
			lock, err := cron.NewRedisLock(client, client.LockKey("cron-worker:"+lockEnv(cfg.App.Env)), cfg.Cron.LockTTL)
			if err != nil {
				_ = client.Close()
				return nil, nil, err
			}
			return lock, func() { _ = client.Close() }, nil
		},
	}, nil
}

func lockEnv(env string) string {
	if env == "" {
		return "local"
	}
	return env
}

func newRootCommand(open opener) *cobra.Command {
	root := &cobra.Command{
		Use:           programName,
		Short:         "LottoDesk operator tasks",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		seedRolesCommand(open),
		bootstrapAdminCommand(open),
		seedCategoriesCommand(open),
		runCronCommand(open),
	)
	return root
}

func main() {
	if err := newRootCommand(openFromEnv).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", programName, err)
		os.Exit(1)
	}
}
