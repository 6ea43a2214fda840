package models

import dbtypes "github.com/angelmondragon/lottodesk-backend/pkg/db/types"

// Role groups permissions; users reference exactly one role.
type Role struct {
	Record `gorm:"embedded" bson:",inline"`
	Name        string             `gorm:"column:name;not null;uniqueIndex" bson:"name"`
	Description string             `gorm:"column:description" bson:"description"`
	Permissions dbtypes.StringList `gorm:"column:permissions;not null" bson:"permissions"`
	IsSystem    bool               `gorm:"column:is_system;not null;default:false" bson:"is_system"`
}

func (Role) TableName() string { return "roles" }
