package enums

import "fmt"

// UserStatus is the account state of an admin console user.
type UserStatus string

const (
	UserStatusActive    UserStatus = "ACTIVE"
	UserStatusSuspended UserStatus = "SUSPENDED"
	UserStatusBanned    UserStatus = "BANNED"
)

var validUserStatuses = []UserStatus{
	UserStatusActive,
	UserStatusSuspended,
	UserStatusBanned,
}

// UserStatuses returns every known status.
func UserStatuses() []UserStatus {
	return append([]UserStatus(nil), validUserStatuses...)
}

func (s UserStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known UserStatus.
func (s UserStatus) IsValid() bool {
	for _, candidate := range validUserStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseUserStatus converts raw input into a UserStatus.
func ParseUserStatus(value string) (UserStatus, error) {
	for _, candidate := range validUserStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid user status %q", value)
}

func (s UserStatus) BadgeColor() BadgeColor {
	switch s {
	case UserStatusActive:
		return BadgeGreen
	case UserStatusSuspended:
		return BadgeAmber
	case UserStatusBanned:
		return BadgeRed
	}
	return BadgeGray
}

func (s UserStatus) Icon() Icon {
	switch s {
	case UserStatusActive:
		return IconCheckCircle
	case UserStatusSuspended:
		return IconPauseCircle
	case UserStatusBanned:
		return IconBan
	}
	return IconQuestion
}

func (s UserStatus) Badge() Badge {
	return Badge{Label: string(s), Color: s.BadgeColor(), Icon: s.Icon()}
}

// CanSignIn reports whether the status allows console access.
func (s UserStatus) CanSignIn() bool {
	return s == UserStatusActive
}
