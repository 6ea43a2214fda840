package users

import (
	"time"

	"github.com/angelmondragon/lottodesk-backend/pkg/db/models"
	"github.com/angelmondragon/lottodesk-backend/pkg/enums"
	"github.com/angelmondragon/lottodesk-backend/pkg/querycache"
)

// UserDTO is the transport shape that omits sensitive credentials.
type UserDTO struct {
	ID          string           `json:"id"`
	Email       string           `json:"email"`
	FirstName   string           `json:"first_name"`
	LastName    string           `json:"last_name"`
	RoleID      string           `json:"role_id"`
	Status      enums.UserStatus `json:"status"`
	StatusBadge enums.Badge      `json:"status_badge"`
	DarkMode    bool             `json:"dark_mode"`
	LastLoginAt *time.Time       `json:"last_login_at,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

type CreateUserInput struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required"`
	FirstName string `json:"first_name" validate:"required,max=80"`
	LastName  string `json:"last_name" validate:"required,max=80"`
	RoleID    string `json:"role_id" validate:"required"`
}

type UpdateUserInput struct {
	FirstName *string `json:"first_name" validate:"omitempty,max=80"`
	LastName  *string `json:"last_name" validate:"omitempty,max=80"`
	RoleID    *string `json:"role_id"`
	Password  *string `json:"password"`
}

type ListParams struct {
	Search string
	Status string
	RoleID string
	Limit  int
	Cursor string
}

type ListResult struct {
	Items     []UserDTO            `json:"items"`
	Cursor    string               `json:"cursor"`
	Total     int                  `json:"total"`
	Freshness querycache.Freshness `json:"-"`
}

func FromModel(u models.User) UserDTO {
	return UserDTO{
		ID:          u.ID,
		Email:       u.Email,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		RoleID:      u.RoleID,
		Status:      u.Status,
		StatusBadge: u.Status.Badge(),
		DarkMode:    u.DarkMode,
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

// FullName joins the name parts for notifications and tokens.
func FullName(u models.User) string {
	switch {
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}
