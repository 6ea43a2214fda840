package enums

import "fmt"

// NotificationType classifies an admin notification.
type NotificationType string

const (
	NotificationTypeSystemAnnouncement NotificationType = "system_announcement"
	NotificationTypeVendorApplication  NotificationType = "vendor_application"
	NotificationTypeVendorStatus       NotificationType = "vendor_status"
	NotificationTypeGameUpdate         NotificationType = "game_update"
	NotificationTypeWinnerDeclared     NotificationType = "winner_declared"
	NotificationTypeSecurityAlert      NotificationType = "security_alert"
	NotificationTypeReportReady        NotificationType = "report_ready"
)

var validNotificationTypes = []NotificationType{
	NotificationTypeSystemAnnouncement,
	NotificationTypeVendorApplication,
	NotificationTypeVendorStatus,
	NotificationTypeGameUpdate,
	NotificationTypeWinnerDeclared,
	NotificationTypeSecurityAlert,
	NotificationTypeReportReady,
}

func NotificationTypes() []NotificationType {
	return append([]NotificationType(nil), validNotificationTypes...)
}

// IsValid checks whether the given type matches the canonical enum.
func (n NotificationType) IsValid() bool {
	for _, candidate := range validNotificationTypes {
		if candidate == n {
			return true
		}
	}
	return false
}

// ParseNotificationType converts raw strings into NotificationType.
func ParseNotificationType(value string) (NotificationType, error) {
	for _, candidate := range validNotificationTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification type %q", value)
}

func (n NotificationType) Icon() Icon {
	switch n {
	case NotificationTypeSystemAnnouncement:
		return IconMegaphone
	case NotificationTypeVendorApplication, NotificationTypeVendorStatus:
		return IconStore
	case NotificationTypeGameUpdate:
		return IconTicket
	case NotificationTypeWinnerDeclared:
		return IconTrophy
	case NotificationTypeSecurityAlert:
		return IconShield
	case NotificationTypeReportReady:
		return IconFileChart
	}
	return IconBell
}

// NotificationPriority orders notifications by urgency.
type NotificationPriority string

const (
	NotificationPriorityLow    NotificationPriority = "low"
	NotificationPriorityNormal NotificationPriority = "normal"
	NotificationPriorityHigh   NotificationPriority = "high"
	NotificationPriorityUrgent NotificationPriority = "urgent"
)

var validNotificationPriorities = []NotificationPriority{
	NotificationPriorityLow,
	NotificationPriorityNormal,
	NotificationPriorityHigh,
	NotificationPriorityUrgent,
}

func NotificationPriorities() []NotificationPriority {
	return append([]NotificationPriority(nil), validNotificationPriorities...)
}

func (p NotificationPriority) IsValid() bool {
	for _, candidate := range validNotificationPriorities {
		if candidate == p {
			return true
		}
	}
	return false
}

func ParseNotificationPriority(value string) (NotificationPriority, error) {
	for _, candidate := range validNotificationPriorities {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification priority %q", value)
}

func (p NotificationPriority) BadgeColor() BadgeColor {
	switch p {
	case NotificationPriorityLow:
		return BadgeGray
	case NotificationPriorityNormal:
		return BadgeBlue
	case NotificationPriorityHigh:
		return BadgeAmber
	case NotificationPriorityUrgent:
		return BadgeRed
	}
	return BadgeGray
}
