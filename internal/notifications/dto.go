package notifications

import (
	"errors"
	"fmt"
	"time"

	"github.com/angelmondragon/lottodesk-backend/pkg/db/models"
	"github.com/angelmondragon/lottodesk-backend/pkg/enums"
	"go.uber.org/multierr"
)

// Notification is the view of a stored notification served to the console
// and pushed over the realtime channel.
type Notification struct {
	ID        string                     `json:"id"`
	UserID    string                     `json:"user_id"`
	Type      enums.NotificationType     `json:"type"`
	Title     string                     `json:"title"`
	Message   string                     `json:"message"`
	Priority  enums.NotificationPriority `json:"priority"`
	Icon      enums.Icon                 `json:"icon"`
	Badge     enums.BadgeColor           `json:"badge"`
	Read      bool                       `json:"read"`
	ReadAt    *time.Time                 `json:"read_at,omitempty"`
	Link      *string                    `json:"link,omitempty"`
	CreatedAt time.Time                  `json:"created_at"`
}

func FromModel(n models.Notification) Notification {
	return Notification{
		ID:        n.ID,
		UserID:    n.UserID,
		Type:      n.Type,
		Title:     n.Title,
		Message:   n.Message,
		Priority:  n.Priority,
		Icon:      n.Type.Icon(),
		Badge:     n.Priority.BadgeColor(),
		Read:      n.Read,
		ReadAt:    n.ReadAt,
		Link:      n.Link,
		CreatedAt: n.CreatedAt,
	}
}

func fromModels(rows []models.Notification) []Notification {
	out := make([]Notification, 0, len(rows))
	for _, n := range rows {
		out = append(out, FromModel(n))
	}
	return out
}

// ListParams configures pagination for the caller's notifications.
type ListParams struct {
	Limit      int
	Cursor     string
	UnreadOnly bool
}

// ListResult wraps returned notifications and the cursor for the next page.
type ListResult struct {
	Items       []Notification `json:"items"`
	Cursor      string         `json:"cursor"`
	Total       int            `json:"total"`
	UnreadCount int            `json:"unread_count"`
}

// SendInput is an operator announcement. An empty UserID addresses every
// active admin.
type SendInput struct {
	UserID   string `json:"user_id"`
	Title    string `json:"title" validate:"required,max=120"`
	Message  string `json:"message" validate:"required,max=2000"`
	Priority string `json:"priority"`
	Link     string `json:"link"`
}

// Draft is the content of a notification before it is addressed.
type Draft struct {
	Type     enums.NotificationType
	Title    string
	Message  string
	Priority enums.NotificationPriority
	Link     string
}

// Audience selects recipients. Explicit UserIDs win; otherwise every active
// user whose role grants Permission, or every active user when Permission is
// empty.
type Audience struct {
	UserIDs    []string
	Permission enums.Permission
}

// BatchFailure reports one id that could not be marked read.
type BatchFailure struct {
	ID    string `json:"id"`
	Error string `json:"error"`

	err error
}

// BatchResult is produced once every id of a batch has settled.
type BatchResult struct {
	Succeeded []string       `json:"succeeded"`
	Failed    []BatchFailure `json:"failed"`
}

func (r *BatchResult) fail(id string, err error) {
	r.Failed = append(r.Failed, BatchFailure{ID: id, Error: err.Error(), err: err})
}

// Err combines every failure, nil when the whole batch succeeded.
func (r BatchResult) Err() error {
	var combined error
	for _, f := range r.Failed {
		cause := f.err
		if cause == nil {
			cause = errors.New(f.Error)
		}
		combined = multierr.Append(combined, fmt.Errorf("notification %s: %w", f.ID, cause))
	}
	return combined
}
