package events

import "github.com/angelmondragon/lottodesk-backend/pkg/enums"

type VendorApplied struct {
	VendorID string `json:"vendorId"`
	Name     string `json:"name"`
}

type VendorStatusChanged struct {
	VendorID string             `json:"vendorId"`
	Name     string             `json:"name"`
	From     enums.VendorStatus `json:"from"`
	To       enums.VendorStatus `json:"to"`
	Reason   string             `json:"reason,omitempty"`
}

type GameStatusChanged struct {
	GameID string           `json:"gameId"`
	Name   string           `json:"name"`
	From   enums.GameStatus `json:"from"`
	To     enums.GameStatus `json:"to"`
}

type WinnerDeclared struct {
	WinnerID string `json:"winnerId"`
	GameID   string `json:"gameId"`
	GameName string `json:"gameName"`
	Name     string `json:"name"`
	// Prize is a decimal string in major units.
	Prize string `json:"prize"`
}

type WinnerStatusChanged struct {
	WinnerID string             `json:"winnerId"`
	Name     string             `json:"name"`
	From     enums.WinnerStatus `json:"from"`
	To       enums.WinnerStatus `json:"to"`
}

type ReportCreated struct {
	ReportID  string            `json:"reportId"`
	Name      string            `json:"name"`
	Range     enums.ReportRange `json:"range"`
	CreatedBy string            `json:"createdBy"`
}

// AnnouncementRequested fans a message out to every active admin, or to
// UserIDs when set.
type AnnouncementRequested struct {
	Title    string                     `json:"title"`
	Message  string                     `json:"message"`
	Priority enums.NotificationPriority `json:"priority"`
	Link     string                     `json:"link,omitempty"`
	UserIDs  []string                   `json:"userIds,omitempty"`
}
