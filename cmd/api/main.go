package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/lottodesk-backend/api/controllers"
	"github.com/angelmondragon/lottodesk-backend/api/routes"
	"github.com/angelmondragon/lottodesk-backend/internal/app"
	"github.com/angelmondragon/lottodesk-backend/internal/auth"
	"github.com/angelmondragon/lottodesk-backend/internal/events"
	"github.com/angelmondragon/lottodesk-backend/internal/users"
	"github.com/angelmondragon/lottodesk-backend/pkg/auth/session"
	"github.com/angelmondragon/lottodesk-backend/pkg/config"
	"github.com/angelmondragon/lottodesk-backend/pkg/instance"
	"github.com/angelmondragon/lottodesk-backend/pkg/logger"
	"github.com/angelmondragon/lottodesk-backend/pkg/pubsub"
	"github.com/angelmondragon/lottodesk-backend/pkg/redis"
	"github.com/angelmondragon/lottodesk-backend/pkg/store"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}
	cfg.Service.Kind = "api"

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(ctx, cfg, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap store", err)
		os.Exit(1)
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			logg.Error(context.Background(), "error closing store", err)
		}
	}()

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(ctx, "failed to create session manager", err)
		os.Exit(1)
	}

	pingers := map[string]controllers.Pinger{
		"store": st,
		"redis": redisClient,
	}

	var publisher events.Publisher = events.NewLogPublisher(logg)
	if cfg.FeatureFlags.PublishEvents {
		psClient, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, logg)
		if err != nil {
			logg.Error(ctx, "failed to bootstrap pubsub", err)
			os.Exit(1)
		}
		defer func() {
			if err := psClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing pubsub", err)
			}
		}()
		pub, err := events.NewPubSubPublisher(psClient.DomainPublisher(), logg)
		if err != nil {
			logg.Error(ctx, "failed to create domain publisher", err)
			os.Exit(1)
		}
		publisher = pub
		pingers["pubsub"] = psClient
	}

	services, err := app.NewServices(app.Deps{
		Config:     cfg,
		Logger:     logg,
		Backend:    st.Backend,
		Bus:        redisClient,
		Publisher:  publisher,
		Registerer: prometheus.DefaultRegisterer,
	})
	if err != nil {
		logg.Error(ctx, "failed to build services", err)
		os.Exit(1)
	}
	defer services.Close()

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       users.NewRepository(st.Backend),
		Roles:          services.Roles,
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
		Logger:         logg,
	})
	if err != nil {
		logg.Error(ctx, "failed to create auth service", err)
		os.Exit(1)
	}

	pingers["realtime"] = services.Relay
	go func() {
		if err := services.Run(ctx, cfg.Cache.SweepInterval); err != nil {
			logg.Error(ctx, "background services stopped", err)
		}
	}()

	handler := routes.NewRouter(routes.Dependencies{
		Config:        cfg,
		Logger:        logg,
		Sessions:      sessionManager,
		RateLimiter:   redisClient,
		Idempotency:   redisClient,
		Pingers:       pingers,
		Metrics:       prometheus.DefaultGatherer,
		Auth:          authService,
		Users:         services.Users,
		Roles:         services.Roles,
		Vendors:       services.Vendors,
		Categories:    services.Categories,
		Games:         services.Games,
		Winners:       services.Winners,
		Reports:       services.Reports,
		Settings:      services.Settings,
		Notifications: services.Notifications,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	logCtx := logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": instance.GetID(),
		"store":    cfg.Store.Driver,
	})
	logg.Info(logCtx, "starting api server")

	// no WriteTimeout: notification streams stay open
	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       2 * time.Minute,
		BaseContext:       func(_ net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(logCtx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(logCtx, "api server shutdown", err)
		}
		logg.Info(logCtx, "api server stopped")
	}
}
