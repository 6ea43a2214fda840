package games

import (
	"time"

	"github.com/angelmondragon/lottodesk-backend/pkg/db/models"
	"github.com/angelmondragon/lottodesk-backend/pkg/enums"
	"github.com/angelmondragon/lottodesk-backend/pkg/querycache"
	"github.com/shopspring/decimal"
)

type GameDTO struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Description string           `json:"description,omitempty"`
	CategoryID  string           `json:"category_id"`
	VendorID    string           `json:"vendor_id,omitempty"`
	TicketPrice decimal.Decimal  `json:"ticket_price"`
	Jackpot     decimal.Decimal  `json:"jackpot"`
	TicketsSold int64            `json:"tickets_sold"`
	DrawAt      time.Time        `json:"draw_at"`
	Status      enums.GameStatus `json:"status"`
	StatusBadge enums.Badge      `json:"status_badge"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// Amounts are major units; decimal accepts JSON strings and numbers.
type CreateGameInput struct {
	Name        string          `json:"name" validate:"required,max=120"`
	Description string          `json:"description" validate:"max=1000"`
	CategoryID  string          `json:"category_id" validate:"required"`
	VendorID    string          `json:"vendor_id"`
	TicketPrice decimal.Decimal `json:"ticket_price"`
	Jackpot     decimal.Decimal `json:"jackpot"`
	DrawAt      time.Time       `json:"draw_at" validate:"required"`
}

type UpdateGameInput struct {
	Name        *string          `json:"name" validate:"omitempty,max=120"`
	Description *string          `json:"description" validate:"omitempty,max=1000"`
	CategoryID  *string          `json:"category_id"`
	TicketPrice *decimal.Decimal `json:"ticket_price"`
	Jackpot     *decimal.Decimal `json:"jackpot"`
	DrawAt      *time.Time       `json:"draw_at"`
}

type ListParams struct {
	Search     string
	Status     string
	CategoryID string
	VendorID   string
	Limit      int
	Cursor     string
}

type ListResult struct {
	Items     []GameDTO            `json:"items"`
	Cursor    string               `json:"cursor"`
	Total     int                  `json:"total"`
	Freshness querycache.Freshness `json:"-"`
}

func FromModel(g models.Game) GameDTO {
	return GameDTO{
		ID:          g.ID,
		Name:        g.Name,
		Description: g.Description,
		CategoryID:  g.CategoryID,
		VendorID:    g.VendorID,
		TicketPrice: g.TicketPrice.Decimal(),
		Jackpot:     g.Jackpot.Decimal(),
		TicketsSold: g.TicketsSold,
		DrawAt:      g.DrawAt,
		Status:      g.Status,
		StatusBadge: g.Status.Badge(),
		CreatedAt:   g.CreatedAt,
		UpdatedAt:   g.UpdatedAt,
	}
}
