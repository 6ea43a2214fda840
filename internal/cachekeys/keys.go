// Package cachekeys names every query cache entry the admin services share.
// Services invalidate each other's entries through these keys only.
package cachekeys

import (
	"github.com/angelmondragon/lottodesk-backend/pkg/enums"
	"github.com/angelmondragon/lottodesk-backend/pkg/querycache"
)

const (
	Users      = "admin-users"
	Roles      = "admin-roles"
	Vendors    = "vendors"
	Categories = "categories"
	Games      = "games"
	Winners    = "winners"
	Reports    = "reports"
	Dashboard  = "dashboard-stats"
	Settings   = "settings"
)

var (
	UsersList      = querycache.NewKey(Users)
	RolesList      = querycache.NewKey(Roles)
	VendorsList    = querycache.NewKey(Vendors)
	CategoriesList = querycache.NewKey(Categories)
	GamesList      = querycache.NewKey(Games)
	WinnersList    = querycache.NewKey(Winners)
	ReportsList    = querycache.NewKey(Reports)
	SettingsDoc    = querycache.NewKey(Settings)

	// AllDashboards matches the dashboard entry of every range.
	AllDashboards = querycache.NewKey(Dashboard)
)

func DashboardStats(r enums.ReportRange) querycache.Key {
	return querycache.NewKey(Dashboard, string(r))
}
