package types

import "time"

type SuccessEnvelope struct {
	Data any   `json:"data"`
	Meta *Meta `json:"meta,omitempty"`
}

// Meta describes how current the payload is and where the page ends.
type Meta struct {
	FetchedAt     *time.Time `json:"fetched_at,omitempty"`
	Stale         bool       `json:"stale"`
	Loading       bool       `json:"loading"`
	RefreshFailed bool       `json:"refresh_failed,omitempty"`
	Cursor        string     `json:"cursor,omitempty"`
	Total         *int       `json:"total,omitempty"`
	UnreadCount   *int       `json:"unread_count,omitempty"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}
