package reports

import (
	"sort"
	"time"

	"github.com/angelmondragon/lottodesk-backend/pkg/db/models"
	dbtypes "github.com/angelmondragon/lottodesk-backend/pkg/db/types"
	"github.com/angelmondragon/lottodesk-backend/pkg/enums"
)

// Stats are the dashboard figures for one range. Money is in cents.
type Stats struct {
	Range          enums.ReportRange
	Since          time.Time
	GeneratedAt    time.Time
	Revenue        dbtypes.Cents
	Payouts        dbtypes.Cents
	Outstanding    dbtypes.Cents
	TicketsSold    int64
	WinnerCount    int64
	TotalUsers     int64
	ActiveVendors  int64
	PendingVendors int64
	ActiveGames    int64
	GamesByStatus  map[enums.GameStatus]int64
	RecentWinners  []models.Winner
}

// Dataset is everything the aggregation reads.
type Dataset struct {
	Users   []models.User
	Vendors []models.Vendor
	Games   []models.Game
	Winners []models.Winner
}

const recentWinnerLimit = 5

func inRange(at, since time.Time) bool {
	return since.IsZero() || !at.Before(since)
}

// Compute aggregates data for r as of now. Sales are attributed to a game's
// draw time and payouts to their paid time.
func Compute(data Dataset, r enums.ReportRange, now time.Time) Stats {
	since := r.Since(now)
	stats := Stats{
		Range:         r,
		Since:         since,
		GeneratedAt:   now,
		TotalUsers:    int64(len(data.Users)),
		GamesByStatus: make(map[enums.GameStatus]int64, len(enums.GameStatuses())),
	}
	for _, status := range enums.GameStatuses() {
		stats.GamesByStatus[status] = 0
	}

	for _, v := range data.Vendors {
		switch v.Status {
		case enums.VendorStatusApproved:
			stats.ActiveVendors++
		case enums.VendorStatusPending:
			stats.PendingVendors++
		}
	}

	for _, g := range data.Games {
		stats.GamesByStatus[g.Status]++
		if g.Status == enums.GameStatusActive {
			stats.ActiveGames++
		}
		if inRange(g.DrawAt, since) {
			stats.TicketsSold += g.TicketsSold
			stats.Revenue += g.TicketPrice * dbtypes.Cents(g.TicketsSold)
		}
	}

	recent := make([]models.Winner, 0, len(data.Winners))
	for _, w := range data.Winners {
		switch w.Status {
		case enums.WinnerStatusPaid:
			if w.PaidAt != nil && inRange(*w.PaidAt, since) {
				stats.Payouts += w.Prize
			}
		case enums.WinnerStatusPendingClaim, enums.WinnerStatusClaimed:
			stats.Outstanding += w.Prize
		}
		if inRange(w.CreatedAt, since) {
			stats.WinnerCount++
			recent = append(recent, w)
		}
	}
	sort.SliceStable(recent, func(i, j int) bool {
		return recent[i].CreatedAt.After(recent[j].CreatedAt)
	})
	if len(recent) > recentWinnerLimit {
		recent = recent[:recentWinnerLimit]
	}
	stats.RecentWinners = recent
	return stats
}
