package models

import (
	dbtypes "github.com/angelmondragon/lottodesk-backend/pkg/db/types"
	"github.com/angelmondragon/lottodesk-backend/pkg/enums"
)

// Report is a saved snapshot of dashboard figures for a range.
type Report struct {
	Record `gorm:"embedded" bson:",inline"`
	Name          string            `gorm:"column:name;not null" bson:"name"`
	Range         enums.ReportRange `gorm:"column:range_key;not null" bson:"range_key"`
	CreatedBy     string            `gorm:"column:created_by;not null" bson:"created_by"`
	Revenue       dbtypes.Cents     `gorm:"column:revenue_cents;not null" bson:"revenue_cents"`
	Payouts       dbtypes.Cents     `gorm:"column:payouts_cents;not null" bson:"payouts_cents"`
	TicketsSold   int64             `gorm:"column:tickets_sold;not null" bson:"tickets_sold"`
	WinnerCount   int64             `gorm:"column:winner_count;not null" bson:"winner_count"`
	ActiveVendors int64             `gorm:"column:active_vendors;not null" bson:"active_vendors"`
	ActiveGames   int64             `gorm:"column:active_games;not null" bson:"active_games"`
}

func (Report) TableName() string { return "reports" }
