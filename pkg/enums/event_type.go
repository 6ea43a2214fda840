package enums

import "fmt"

// EventType names a domain event published on the domain topic.
type EventType string

const (
	EventVendorApplied         EventType = "vendor_applied"
	EventVendorStatusChanged   EventType = "vendor_status_changed"
	EventGameStatusChanged     EventType = "game_status_changed"
	EventWinnerDeclared        EventType = "winner_declared"
	EventWinnerStatusChanged   EventType = "winner_status_changed"
	EventReportCreated         EventType = "report_created"
	EventAnnouncementRequested EventType = "announcement_requested"
)

var validEventTypes = []EventType{
	EventVendorApplied,
	EventVendorStatusChanged,
	EventGameStatusChanged,
	EventWinnerDeclared,
	EventWinnerStatusChanged,
	EventReportCreated,
	EventAnnouncementRequested,
}

func (e EventType) IsValid() bool {
	for _, candidate := range validEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

func ParseEventType(value string) (EventType, error) {
	for _, candidate := range validEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event type %q", value)
}
