package categories

import (
	"time"

	"github.com/angelmondragon/lottodesk-backend/pkg/db/models"
	"github.com/angelmondragon/lottodesk-backend/pkg/querycache"
)

type CategoryDTO struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description,omitempty"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type CreateCategoryInput struct {
	Name        string `json:"name" validate:"required,max=80"`
	Slug        string `json:"slug" validate:"omitempty,max=80"`
	Description string `json:"description" validate:"max=280"`
}

type UpdateCategoryInput struct {
	Name        *string `json:"name" validate:"omitempty,max=80"`
	Description *string `json:"description" validate:"omitempty,max=280"`
	Active      *bool   `json:"active"`
}

type ListParams struct {
	Search     string
	ActiveOnly bool
	Limit      int
	Cursor     string
}

type ListResult struct {
	Items     []CategoryDTO        `json:"items"`
	Cursor    string               `json:"cursor"`
	Total     int                  `json:"total"`
	Freshness querycache.Freshness `json:"-"`
}

func FromModel(c models.Category) CategoryDTO {
	return CategoryDTO{
		ID:          c.ID,
		Name:        c.Name,
		Slug:        c.Slug,
		Description: c.Description,
		Active:      c.Active,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}
