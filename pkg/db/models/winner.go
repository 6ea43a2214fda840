package models

import (
	"time"

	dbtypes "github.com/angelmondragon/lottodesk-backend/pkg/db/types"
	"github.com/angelmondragon/lottodesk-backend/pkg/enums"
)

// Winner records a winning ticket and its payout lifecycle.
type Winner struct {
	Record `gorm:"embedded" bson:",inline"`
	GameID        string             `gorm:"column:game_id;not null;index" bson:"game_id"`
	VendorID      string             `gorm:"column:vendor_id" bson:"vendor_id"`
	Name          string             `gorm:"column:name;not null" bson:"name"`
	TicketNumber  string             `gorm:"column:ticket_number;not null" bson:"ticket_number"`
	Prize         dbtypes.Cents      `gorm:"column:prize_cents;not null" bson:"prize_cents"`
	Status        enums.WinnerStatus `gorm:"column:status;not null;index" bson:"status"`
	ClaimDeadline time.Time          `gorm:"column:claim_deadline;not null" bson:"claim_deadline"`
	ClaimedAt     *time.Time         `gorm:"column:claimed_at" bson:"claimed_at,omitempty"`
	PaidAt        *time.Time         `gorm:"column:paid_at" bson:"paid_at,omitempty"`
}

func (Winner) TableName() string { return "winners" }
