package winners

import (
	"time"

	"github.com/angelmondragon/lottodesk-backend/pkg/db/models"
	"github.com/angelmondragon/lottodesk-backend/pkg/enums"
	"github.com/angelmondragon/lottodesk-backend/pkg/querycache"
	"github.com/shopspring/decimal"
)

type WinnerDTO struct {
	ID            string             `json:"id"`
	GameID        string             `json:"game_id"`
	VendorID      string             `json:"vendor_id,omitempty"`
	Name          string             `json:"name"`
	TicketNumber  string             `json:"ticket_number"`
	Prize         decimal.Decimal    `json:"prize"`
	Status        enums.WinnerStatus `json:"status"`
	StatusBadge   enums.Badge        `json:"status_badge"`
	ClaimDeadline time.Time          `json:"claim_deadline"`
	ClaimedAt     *time.Time         `json:"claimed_at,omitempty"`
	PaidAt        *time.Time         `json:"paid_at,omitempty"`
	CreatedAt     time.Time          `json:"created_at"`
}

type DeclareInput struct {
	GameID       string          `json:"game_id" validate:"required"`
	Name         string          `json:"name" validate:"required,max=120"`
	TicketNumber string          `json:"ticket_number" validate:"required,max=64"`
	Prize        decimal.Decimal `json:"prize"`
}

type ListParams struct {
	Status string
	GameID string
	Search string
	Limit  int
	Cursor string
}

type ListResult struct {
	Items     []WinnerDTO          `json:"items"`
	Cursor    string               `json:"cursor"`
	Total     int                  `json:"total"`
	Freshness querycache.Freshness `json:"-"`
}

func FromModel(w models.Winner) WinnerDTO {
	return WinnerDTO{
		ID:            w.ID,
		GameID:        w.GameID,
		VendorID:      w.VendorID,
		Name:          w.Name,
		TicketNumber:  w.TicketNumber,
		Prize:         w.Prize.Decimal(),
		Status:        w.Status,
		StatusBadge:   w.Status.Badge(),
		ClaimDeadline: w.ClaimDeadline,
		ClaimedAt:     w.ClaimedAt,
		PaidAt:        w.PaidAt,
		CreatedAt:     w.CreatedAt,
	}
}
