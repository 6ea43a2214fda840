package reports

import (
	"time"

	"github.com/angelmondragon/lottodesk-backend/internal/winners"
	"github.com/angelmondragon/lottodesk-backend/pkg/db/models"
	"github.com/angelmondragon/lottodesk-backend/pkg/enums"
	"github.com/angelmondragon/lottodesk-backend/pkg/querycache"
	"github.com/shopspring/decimal"
)

type DashboardDTO struct {
	Range          enums.ReportRange          `json:"range"`
	Since          *time.Time                 `json:"since,omitempty"`
	GeneratedAt    time.Time                  `json:"generated_at"`
	Revenue        decimal.Decimal            `json:"revenue"`
	Payouts        decimal.Decimal            `json:"payouts"`
	Outstanding    decimal.Decimal            `json:"outstanding_prizes"`
	TicketsSold    int64                      `json:"tickets_sold"`
	WinnerCount    int64                      `json:"winner_count"`
	TotalUsers     int64                      `json:"total_users"`
	ActiveVendors  int64                      `json:"active_vendors"`
	PendingVendors int64                      `json:"pending_vendors"`
	ActiveGames    int64                      `json:"active_games"`
	GamesByStatus  map[enums.GameStatus]int64 `json:"games_by_status"`
	RecentWinners  []winners.WinnerDTO        `json:"recent_winners"`
}

type DashboardResult struct {
	Stats     DashboardDTO
	Freshness querycache.Freshness
}

func DashboardFromStats(s Stats) DashboardDTO {
	dto := DashboardDTO{
		Range:          s.Range,
		GeneratedAt:    s.GeneratedAt,
		Revenue:        s.Revenue.Decimal(),
		Payouts:        s.Payouts.Decimal(),
		Outstanding:    s.Outstanding.Decimal(),
		TicketsSold:    s.TicketsSold,
		WinnerCount:    s.WinnerCount,
		TotalUsers:     s.TotalUsers,
		ActiveVendors:  s.ActiveVendors,
		PendingVendors: s.PendingVendors,
		ActiveGames:    s.ActiveGames,
		GamesByStatus:  s.GamesByStatus,
		RecentWinners:  make([]winners.WinnerDTO, 0, len(s.RecentWinners)),
	}
	if !s.Since.IsZero() {
		since := s.Since
		dto.Since = &since
	}
	for _, w := range s.RecentWinners {
		dto.RecentWinners = append(dto.RecentWinners, winners.FromModel(w))
	}
	return dto
}

type ReportDTO struct {
	ID            string            `json:"id"`
	Name          string            `json:"name"`
	Range         enums.ReportRange `json:"range"`
	CreatedBy     string            `json:"created_by"`
	Revenue       decimal.Decimal   `json:"revenue"`
	Payouts       decimal.Decimal   `json:"payouts"`
	TicketsSold   int64             `json:"tickets_sold"`
	WinnerCount   int64             `json:"winner_count"`
	ActiveVendors int64             `json:"active_vendors"`
	ActiveGames   int64             `json:"active_games"`
	CreatedAt     time.Time         `json:"created_at"`
}

type CreateReportInput struct {
	Name  string `json:"name" validate:"required,max=120"`
	Range string `json:"range" validate:"omitempty,oneof=7d 30d 90d all"`
}

type ListParams struct {
	Limit  int
	Cursor string
}

type ListResult struct {
	Items     []ReportDTO          `json:"items"`
	Cursor    string               `json:"cursor"`
	Total     int                  `json:"total"`
	Freshness querycache.Freshness `json:"-"`
}

func FromModel(r models.Report) ReportDTO {
	return ReportDTO{
		ID:            r.ID,
		Name:          r.Name,
		Range:         r.Range,
		CreatedBy:     r.CreatedBy,
		Revenue:       r.Revenue.Decimal(),
		Payouts:       r.Payouts.Decimal(),
		TicketsSold:   r.TicketsSold,
		WinnerCount:   r.WinnerCount,
		ActiveVendors: r.ActiveVendors,
		ActiveGames:   r.ActiveGames,
		CreatedAt:     r.CreatedAt,
	}
}
