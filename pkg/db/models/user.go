package models

import (
	"time"

	"github.com/angelmondragon/lottodesk-backend/pkg/enums"
)

// User is an admin console account.
type User struct {
	Record `gorm:"embedded" bson:",inline"`
	Email        string           `gorm:"column:email;not null;uniqueIndex" bson:"email"`
	PasswordHash string           `gorm:"column:password_hash;not null" bson:"password_hash"`
	FirstName    string           `gorm:"column:first_name;not null" bson:"first_name"`
	LastName     string           `gorm:"column:last_name;not null" bson:"last_name"`
	RoleID       string           `gorm:"column:role_id;not null;index" bson:"role_id"`
	Status       enums.UserStatus `gorm:"column:status;not null" bson:"status"`
	DarkMode     bool             `gorm:"column:dark_mode;not null;default:false" bson:"dark_mode"`
	LastLoginAt  *time.Time       `gorm:"column:last_login_at" bson:"last_login_at,omitempty"`
}

func (User) TableName() string { return "users" }
