// Package app wires the domain services for the api, workers and adminctl.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/lottodesk-backend/internal/categories"
	"github.com/angelmondragon/lottodesk-backend/internal/events"
	"github.com/angelmondragon/lottodesk-backend/internal/games"
	"github.com/angelmondragon/lottodesk-backend/internal/notifications"
	"github.com/angelmondragon/lottodesk-backend/internal/reports"
	"github.com/angelmondragon/lottodesk-backend/internal/roles"
	"github.com/angelmondragon/lottodesk-backend/internal/settings"
	"github.com/angelmondragon/lottodesk-backend/internal/users"
	"github.com/angelmondragon/lottodesk-backend/internal/vendors"
	"github.com/angelmondragon/lottodesk-backend/internal/winners"
	"github.com/angelmondragon/lottodesk-backend/pkg/config"
	"github.com/angelmondragon/lottodesk-backend/pkg/docstore"
	"github.com/angelmondragon/lottodesk-backend/pkg/logger"
	"github.com/angelmondragon/lottodesk-backend/pkg/metrics"
	"github.com/angelmondragon/lottodesk-backend/pkg/querycache"
)

// Deps are the opened resources services are built on. Bus and Publisher are
// optional.
type Deps struct {
	Config     *config.Config
	Logger     *logger.Logger
	Backend    *docstore.Backend
	Bus        notifications.Broadcaster
	Publisher  events.Publisher
	Registerer prometheus.Registerer
	Now        func() time.Time
}

// Services is one process's set of domain services sharing a single query
// cache and notification hub.
type Services struct {
	Cache *querycache.Cache
	Hub   *notifications.Hub
	// Relay keeps Hub subscribed to the bus and doubles as a readiness check.
	Relay *notifications.Relay

	Users         users.Service
	Roles         roles.Service
	Vendors       vendors.Service
	Categories    categories.Service
	Games         games.Service
	Winners       winners.Service
	Reports       reports.Service
	Settings      settings.Service
	Notifications notifications.Service
}

func NewServices(d Deps) (*Services, error) {
	if d.Config == nil {
		return nil, fmt.Errorf("config required")
	}
	if d.Backend == nil {
		return nil, fmt.Errorf("store backend required")
	}
	logg := d.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	cfg := d.Config
	pub := d.Publisher
	if pub == nil {
		pub = events.NewLogPublisher(logg)
	}

	var cacheMetrics *metrics.CacheMetrics
	if d.Registerer != nil {
		cacheMetrics = metrics.NewCacheMetrics(d.Registerer)
	}
	cache := querycache.New(querycache.Options{
		Policy:  querycache.Policy{FreshFor: cfg.Cache.FreshFor, KeepFor: cfg.Cache.KeepFor},
		Now:     d.Now,
		Logger:  logg,
		Metrics: cacheMetrics,
	})

	hub, err := notifications.NewHub(notifications.HubOptions{
		Loader:  notifications.RepositoryLoader(notifications.NewRepository(d.Backend)),
		Bus:     d.Bus,
		Channel: cfg.Realtime.Channel,
		Logger:  logg,
	})
	if err != nil {
		return nil, fmt.Errorf("notification hub: %w", err)
	}

	s := &Services{
		Cache: cache,
		Hub:   hub,
		Relay: notifications.NewRelay(hub, notifications.RelayOptions{
			MinDelay: cfg.Realtime.RelayMinRetry,
			MaxDelay: cfg.Realtime.RelayMaxRetry,
			Logger:   logg,
		}),
	}

	if s.Users, err = users.NewService(users.ServiceParams{Backend: d.Backend, Cache: cache, Password: cfg.Password, Logger: logg}); err != nil {
		return nil, fmt.Errorf("users service: %w", err)
	}
	if s.Roles, err = roles.NewService(d.Backend, cache, logg); err != nil {
		return nil, fmt.Errorf("roles service: %w", err)
	}
	if s.Vendors, err = vendors.NewService(vendors.ServiceParams{Backend: d.Backend, Cache: cache, Publisher: pub, Logger: logg, Now: d.Now}); err != nil {
		return nil, fmt.Errorf("vendors service: %w", err)
	}
	if s.Categories, err = categories.NewService(d.Backend, cache, logg); err != nil {
		return nil, fmt.Errorf("categories service: %w", err)
	}
	if s.Games, err = games.NewService(games.ServiceParams{Backend: d.Backend, Cache: cache, Publisher: pub, Logger: logg}); err != nil {
		return nil, fmt.Errorf("games service: %w", err)
	}
	if s.Winners, err = winners.NewService(winners.ServiceParams{
		Backend:     d.Backend,
		Cache:       cache,
		Publisher:   pub,
		Logger:      logg,
		ClaimWindow: cfg.Winners.ClaimWindow,
		Now:         d.Now,
	}); err != nil {
		return nil, fmt.Errorf("winners service: %w", err)
	}
	if s.Reports, err = reports.NewService(reports.ServiceParams{
		Backend:         d.Backend,
		Cache:           cache,
		Publisher:       pub,
		Logger:          logg,
		DashboardPolicy: querycache.Policy{FreshFor: cfg.Cache.DashboardFreshFor, KeepFor: cfg.Cache.DashboardKeepFor},
		Now:             d.Now,
	}); err != nil {
		return nil, fmt.Errorf("reports service: %w", err)
	}
	if s.Settings, err = settings.NewService(d.Backend, cache, logg); err != nil {
		return nil, fmt.Errorf("settings service: %w", err)
	}
	if s.Notifications, err = notifications.NewService(notifications.ServiceParams{Backend: d.Backend, Hub: hub, Logger: logg, Now: d.Now}); err != nil {
		return nil, fmt.Errorf("notifications service: %w", err)
	}
	return s, nil
}

// Run keeps the cache sweeper and the hub's bus relay alive until ctx ends.
// Bus drops are retried, not returned.
func (s *Services) Run(ctx context.Context, sweepInterval time.Duration) error {
	go s.Cache.Run(ctx, sweepInterval)
	return s.Relay.Run(ctx)
}

// Close releases hub subscribers.
func (s *Services) Close() {
	s.Hub.Close()
}
