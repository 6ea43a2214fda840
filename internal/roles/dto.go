package roles

import (
	"time"

	"github.com/angelmondragon/lottodesk-backend/pkg/db/models"
	"github.com/angelmondragon/lottodesk-backend/pkg/enums"
	"github.com/angelmondragon/lottodesk-backend/pkg/querycache"
)

// RoleDTO is the transport shape of a role.
type RoleDTO struct {
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Permissions []enums.Permission `json:"permissions"`
	IsSystem    bool               `json:"is_system"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

type CreateRoleInput struct {
	Name        string   `json:"name" validate:"required,min=2,max=64"`
	Description string   `json:"description" validate:"max=280"`
	Permissions []string `json:"permissions" validate:"dive,required"`
}

type UpdateRoleInput struct {
	Name        *string  `json:"name" validate:"omitempty,min=2,max=64"`
	Description *string  `json:"description" validate:"omitempty,max=280"`
	Permissions []string `json:"permissions" validate:"omitempty,dive,required"`
}

type ListParams struct {
	Search string
	Limit  int
	Cursor string
}

type ListResult struct {
	Items     []RoleDTO            `json:"items"`
	Cursor    string               `json:"cursor"`
	Total     int                  `json:"total"`
	Freshness querycache.Freshness `json:"-"`
}

func FromModel(r models.Role) RoleDTO {
	perms := make([]enums.Permission, 0, len(r.Permissions))
	for _, p := range r.Permissions {
		perms = append(perms, enums.Permission(p))
	}
	return RoleDTO{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		Permissions: perms,
		IsSystem:    r.IsSystem,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}
