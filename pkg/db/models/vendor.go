package models

import (
	"time"

	"github.com/angelmondragon/lottodesk-backend/pkg/enums"
)

// Vendor is a retailer selling tickets on the marketplace.
type Vendor struct {
	Record `gorm:"embedded" bson:",inline"`
	Name          string             `gorm:"column:name;not null" bson:"name"`
	Email         string             `gorm:"column:email;not null;uniqueIndex" bson:"email"`
	Phone         string             `gorm:"column:phone" bson:"phone"`
	Address       string             `gorm:"column:address" bson:"address"`
	LicenseNumber string             `gorm:"column:license_number" bson:"license_number"`
	CommissionBps int                `gorm:"column:commission_bps;not null;default:0" bson:"commission_bps"`
	Status        enums.VendorStatus `gorm:"column:status;not null;index" bson:"status"`
	StatusReason  string             `gorm:"column:status_reason" bson:"status_reason"`
	ReviewedAt    *time.Time         `gorm:"column:reviewed_at" bson:"reviewed_at,omitempty"`
}

func (Vendor) TableName() string { return "vendors" }
