package models

import (
	"time"

	"github.com/angelmondragon/lottodesk-backend/pkg/enums"
)

// Notification is an in-app message for one admin user. Only the read flag
// changes after creation.
type Notification struct {
	Record `gorm:"embedded" bson:",inline"`
	UserID   string                     `gorm:"column:user_id;not null;index" bson:"user_id"`
	Type     enums.NotificationType     `gorm:"column:type;not null" bson:"type"`
	Title    string                     `gorm:"column:title;not null" bson:"title"`
	Message  string                     `gorm:"column:message;not null" bson:"message"`
	Priority enums.NotificationPriority `gorm:"column:priority;not null" bson:"priority"`
	Read     bool                       `gorm:"column:read;not null;default:false" bson:"read"`
	ReadAt   *time.Time                 `gorm:"column:read_at" bson:"read_at,omitempty"`
	Link     *string                    `gorm:"column:link" bson:"link,omitempty"`
}

func (Notification) TableName() string { return "notifications" }
