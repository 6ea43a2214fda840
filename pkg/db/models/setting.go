package models

// SettingsID is the id of the single settings document.
const SettingsID = "global"

type Setting struct {
	Record `gorm:"embedded" bson:",inline"`
	SiteName          string `gorm:"column:site_name;not null" bson:"site_name"`
	SupportEmail      string `gorm:"column:support_email" bson:"support_email"`
	Currency          string `gorm:"column:currency;not null" bson:"currency"`
	MaintenanceMode   bool   `gorm:"column:maintenance_mode;not null;default:false" bson:"maintenance_mode"`
	ClaimWindowDays   int    `gorm:"column:claim_window_days;not null" bson:"claim_window_days"`
	DefaultCommission int    `gorm:"column:default_commission_bps;not null;default:0" bson:"default_commission_bps"`
}

func (Setting) TableName() string { return "settings" }
