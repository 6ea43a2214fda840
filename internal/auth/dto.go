package auth

import (
	"time"

	"github.com/angelmondragon/lottodesk-backend/internal/users"
	"github.com/angelmondragon/lottodesk-backend/pkg/enums"
)

// LoginRequest captures the user credentials sent to the login endpoint.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RefreshRequest pairs the (possibly expired) access token with its refresh token.
type RefreshRequest struct {
	AccessToken  string `json:"-"`
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// RoleSummary is the role embedded in session responses.
type RoleSummary struct {
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	Permissions []enums.Permission `json:"permissions"`
}

// SessionResponse contains the tokens and the signed-in admin.
type SessionResponse struct {
	AccessToken  string        `json:"access_token"`
	RefreshToken string        `json:"refresh_token"`
	ExpiresAt    time.Time     `json:"expires_at"`
	User         users.UserDTO `json:"user"`
	Role         RoleSummary   `json:"role"`
}

// BootstrapRequest creates the first super admin.
type BootstrapRequest struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
}
