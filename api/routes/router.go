package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/lottodesk-backend/api/controllers"
	"github.com/angelmondragon/lottodesk-backend/api/middleware"
	"github.com/angelmondragon/lottodesk-backend/internal/auth"
	"github.com/angelmondragon/lottodesk-backend/internal/categories"
	"github.com/angelmondragon/lottodesk-backend/internal/games"
	"github.com/angelmondragon/lottodesk-backend/internal/notifications"
	"github.com/angelmondragon/lottodesk-backend/internal/reports"
	"github.com/angelmondragon/lottodesk-backend/internal/roles"
	"github.com/angelmondragon/lottodesk-backend/internal/settings"
	"github.com/angelmondragon/lottodesk-backend/internal/users"
	"github.com/angelmondragon/lottodesk-backend/internal/vendors"
	"github.com/angelmondragon/lottodesk-backend/internal/winners"
	"github.com/angelmondragon/lottodesk-backend/pkg/auth/session"
	"github.com/angelmondragon/lottodesk-backend/pkg/config"
	"github.com/angelmondragon/lottodesk-backend/pkg/enums"
	"github.com/angelmondragon/lottodesk-backend/pkg/logger"
	pkgredis "github.com/angelmondragon/lottodesk-backend/pkg/redis"
)

// Dependencies carries everything the API surface needs. Nil stores disable
// the middleware that uses them; nil services answer 500.
type Dependencies struct {
	Config   *config.Config
	Logger   *logger.Logger
	Sessions session.AccessSessionChecker

	RateLimiter middleware.RateLimiterStore
	Idempotency pkgredis.IdempotencyStore
	Pingers     map[string]controllers.Pinger
	Metrics     prometheus.Gatherer

	Auth          auth.Service
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

func NewRouter(deps Dependencies) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.AllowedOrigins()),
	)

	idem := middleware.Idempotency(deps.Idempotency, logg)
	perm := func(p enums.Permission) func(http.Handler) http.Handler {
		return middleware.RequirePermission(p, logg)
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, deps.Pingers, logg))
	})

	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Metrics, promhttp.HandlerOpts{}))
	}

	authn := middleware.Auth(cfg.JWT, deps.Sessions, logg)

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(middleware.LoginRateLimitPolicy(cfg.AuthRateLimit), deps.RateLimiter, logg)).
			Post("/login", controllers.AuthLogin(deps.Auth, logg))
		r.Post("/refresh", controllers.AuthRefresh(deps.Auth, logg))
		r.With(authn).Post("/logout", controllers.AuthLogout(deps.Auth, logg))
		r.With(authn).Get("/me", controllers.AuthMe(deps.Auth, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(authn)

		r.Route("/users", func(r chi.Router) {
			// any signed-in admin may change their own preferences
			r.Put("/me/preferences", controllers.UpdatePreferences(deps.Users, logg))

			r.With(perm(enums.PermissionUsersRead)).Get("/", controllers.ListUsers(deps.Users, logg))
			r.With(perm(enums.PermissionUsersRead)).Get("/{userID}", controllers.GetUser(deps.Users, logg))
			r.Group(func(r chi.Router) {
				r.Use(perm(enums.PermissionUsersWrite))
				r.With(idem).Post("/", controllers.CreateUser(deps.Users, logg))
				r.Patch("/{userID}", controllers.UpdateUser(deps.Users, logg))
				r.Post("/{userID}/status", controllers.SetUserStatus(deps.Users, logg))
				r.Delete("/{userID}", controllers.DeleteUser(deps.Users, logg))
			})
		})

		r.Route("/roles", func(r chi.Router) {
			r.Get("/permissions", controllers.ListPermissions())
			r.With(perm(enums.PermissionRolesRead)).Get("/", controllers.ListRoles(deps.Roles, logg))
			r.With(perm(enums.PermissionRolesRead)).Get("/{roleID}", controllers.GetRole(deps.Roles, logg))
			r.Group(func(r chi.Router) {
				r.Use(perm(enums.PermissionRolesWrite))
				r.With(idem).Post("/", controllers.CreateRole(deps.Roles, logg))
				r.Patch("/{roleID}", controllers.UpdateRole(deps.Roles, logg))
				r.Delete("/{roleID}", controllers.DeleteRole(deps.Roles, logg))
			})
		})

		r.Route("/vendors", func(r chi.Router) {
			r.With(perm(enums.PermissionVendorsRead)).Get("/", controllers.ListVendors(deps.Vendors, logg))
			r.With(perm(enums.PermissionVendorsRead)).Get("/{vendorID}", controllers.GetVendor(deps.Vendors, logg))
			r.Group(func(r chi.Router) {
				r.Use(perm(enums.PermissionVendorsWrite))
				r.With(idem).Post("/", controllers.CreateVendor(deps.Vendors, logg))
				r.Patch("/{vendorID}", controllers.UpdateVendor(deps.Vendors, logg))
				r.Post("/{vendorID}/status", controllers.SetVendorStatus(deps.Vendors, logg))
				r.Delete("/{vendorID}", controllers.DeleteVendor(deps.Vendors, logg))
			})
		})

		r.Route("/categories", func(r chi.Router) {
			r.With(perm(enums.PermissionGamesRead)).Get("/", controllers.ListCategories(deps.Categories, logg))
			r.With(perm(enums.PermissionGamesRead)).Get("/{categoryID}", controllers.GetCategory(deps.Categories, logg))
			r.Group(func(r chi.Router) {
				r.Use(perm(enums.PermissionGamesWrite))
				r.Post("/", controllers.CreateCategory(deps.Categories, logg))
				r.Patch("/{categoryID}", controllers.UpdateCategory(deps.Categories, logg))
				r.Delete("/{categoryID}", controllers.DeleteCategory(deps.Categories, logg))
			})
		})

		r.Route("/games", func(r chi.Router) {
			r.With(perm(enums.PermissionGamesRead)).Get("/", controllers.ListGames(deps.Games, logg))
			r.With(perm(enums.PermissionGamesRead)).Get("/{gameID}", controllers.GetGame(deps.Games, logg))
			r.Group(func(r chi.Router) {
				r.Use(perm(enums.PermissionGamesWrite))
				r.With(idem).Post("/", controllers.CreateGame(deps.Games, logg))
				r.Patch("/{gameID}", controllers.UpdateGame(deps.Games, logg))
				r.Post("/{gameID}/status", controllers.SetGameStatus(deps.Games, logg))
				r.Delete("/{gameID}", controllers.DeleteGame(deps.Games, logg))
			})
		})

		r.Route("/winners", func(r chi.Router) {
			r.With(perm(enums.PermissionWinnersRead)).Get("/", controllers.ListWinners(deps.Winners, logg))
			r.With(perm(enums.PermissionWinnersRead)).Get("/{winnerID}", controllers.GetWinner(deps.Winners, logg))
			r.Group(func(r chi.Router) {
				r.Use(perm(enums.PermissionWinnersWrite), idem)
				r.Post("/", controllers.DeclareWinner(deps.Winners, logg))
				r.Post("/{winnerID}/status", controllers.SetWinnerStatus(deps.Winners, logg))
			})
		})

		r.Route("/reports", func(r chi.Router) {
			r.Use(perm(enums.PermissionReportsRead))
			r.Get("/dashboard", controllers.Dashboard(deps.Reports, logg))
			r.Get("/", controllers.ListReports(deps.Reports, logg))
			r.Get("/{reportID}", controllers.GetReport(deps.Reports, logg))
			r.Group(func(r chi.Router) {
				r.Use(perm(enums.PermissionReportsWrite))
				r.With(idem).Post("/", controllers.CreateReport(deps.Reports, logg))
				r.Delete("/{reportID}", controllers.DeleteReport(deps.Reports, logg))
			})
		})

		r.Route("/settings", func(r chi.Router) {
			r.Get("/", controllers.GetSettings(deps.Settings, logg))
			r.With(perm(enums.PermissionSettingsWrite)).Put("/", controllers.UpdateSettings(deps.Settings, logg))
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(deps.Notifications, logg))
			r.Get("/stream", controllers.StreamNotifications(deps.Notifications, cfg.Realtime.Heartbeat, logg))
			r.Post("/read", controllers.MarkNotificationsRead(deps.Notifications, logg))
			r.Post("/read-all", controllers.MarkAllNotificationsRead(deps.Notifications, logg))
			r.Post("/{notificationID}/read", controllers.MarkNotificationRead(deps.Notifications, logg))
			r.Delete("/{notificationID}", controllers.DeleteNotification(deps.Notifications, logg))
			r.With(perm(enums.PermissionNotificationsSend), idem).Post("/send", controllers.SendNotification(deps.Notifications, logg))
		})
	})

	return r
}
