package vendors

import (
	"time"

	"github.com/angelmondragon/lottodesk-backend/pkg/db/models"
	"github.com/angelmondragon/lottodesk-backend/pkg/enums"
	"github.com/angelmondragon/lottodesk-backend/pkg/querycache"
)

type VendorDTO struct {
	ID            string             `json:"id"`
	Name          string             `json:"name"`
	Email         string             `json:"email"`
	Phone         string             `json:"phone,omitempty"`
	Address       string             `json:"address,omitempty"`
	LicenseNumber string             `json:"license_number,omitempty"`
	CommissionBps int                `json:"commission_bps"`
	Status        enums.VendorStatus `json:"status"`
	StatusBadge   enums.Badge        `json:"status_badge"`
	StatusReason  string             `json:"status_reason,omitempty"`
	ReviewedAt    *time.Time         `json:"reviewed_at,omitempty"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
}

// CreateVendorInput is a vendor application. New vendors start PENDING.
type CreateVendorInput struct {
	Name          string `json:"name" validate:"required,max=120"`
	Email         string `json:"email" validate:"required,email"`
	Phone         string `json:"phone" validate:"max=32"`
	Address       string `json:"address" validate:"max=280"`
	LicenseNumber string `json:"license_number" validate:"max=64"`
	CommissionBps *int   `json:"commission_bps" validate:"omitempty,min=0,max=10000"`
}

type UpdateVendorInput struct {
	Name          *string `json:"name" validate:"omitempty,max=120"`
	Phone         *string `json:"phone" validate:"omitempty,max=32"`
	Address       *string `json:"address" validate:"omitempty,max=280"`
	LicenseNumber *string `json:"license_number" validate:"omitempty,max=64"`
	CommissionBps *int    `json:"commission_bps" validate:"omitempty,min=0,max=10000"`
}

type StatusInput struct {
	Status enums.VendorStatus `json:"status" validate:"required"`
	Reason string             `json:"reason" validate:"max=280"`
}

type ListParams struct {
	Search string
	Status string
	Limit  int
	Cursor string
}

type ListResult struct {
	Items     []VendorDTO          `json:"items"`
	Cursor    string               `json:"cursor"`
	Total     int                  `json:"total"`
	Freshness querycache.Freshness `json:"-"`
}

func FromModel(v models.Vendor) VendorDTO {
	return VendorDTO{
		ID:            v.ID,
		Name:          v.Name,
		Email:         v.Email,
		Phone:         v.Phone,
		Address:       v.Address,
		LicenseNumber: v.LicenseNumber,
		CommissionBps: v.CommissionBps,
		Status:        v.Status,
		StatusBadge:   v.Status.Badge(),
		StatusReason:  v.StatusReason,
		ReviewedAt:    v.ReviewedAt,
		CreatedAt:     v.CreatedAt,
		UpdatedAt:     v.UpdatedAt,
	}
}
