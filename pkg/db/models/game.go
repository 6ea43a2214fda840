package models

import (
	"time"

	dbtypes "github.com/angelmondragon/lottodesk-backend/pkg/db/types"
	"github.com/angelmondragon/lottodesk-backend/pkg/enums"
)

// Game is a lottery draw tickets are sold for.
type Game struct {
	Record `gorm:"embedded" bson:",inline"`
	Name        string           `gorm:"column:name;not null" bson:"name"`
	Description string           `gorm:"column:description" bson:"description"`
	CategoryID  string           `gorm:"column:category_id;not null;index" bson:"category_id"`
	VendorID    string           `gorm:"column:vendor_id;index" bson:"vendor_id"`
	TicketPrice dbtypes.Cents    `gorm:"column:ticket_price_cents;not null" bson:"ticket_price_cents"`
	Jackpot     dbtypes.Cents    `gorm:"column:jackpot_cents;not null;default:0" bson:"jackpot_cents"`
	TicketsSold int64            `gorm:"column:tickets_sold;not null;default:0" bson:"tickets_sold"`
	DrawAt      time.Time        `gorm:"column:draw_at;not null" bson:"draw_at"`
	Status      enums.GameStatus `gorm:"column:status;not null;index" bson:"status"`
}

func (Game) TableName() string { return "games" }
