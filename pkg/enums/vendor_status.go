package enums

import "fmt"

// VendorStatus tracks a vendor application through review.
type VendorStatus string

const (
	VendorStatusPending   VendorStatus = "PENDING"
	VendorStatusApproved  VendorStatus = "APPROVED"
	VendorStatusRejected  VendorStatus = "REJECTED"
	VendorStatusSuspended VendorStatus = "SUSPENDED"
)

var validVendorStatuses = []VendorStatus{
	VendorStatusPending,
	VendorStatusApproved,
	VendorStatusRejected,
	VendorStatusSuspended,
}

var vendorTransitions = map[VendorStatus][]VendorStatus{
	VendorStatusPending:   {VendorStatusApproved, VendorStatusRejected},
	VendorStatusApproved:  {VendorStatusSuspended},
	VendorStatusSuspended: {VendorStatusApproved},
}

func VendorStatuses() []VendorStatus {
	return append([]VendorStatus(nil), validVendorStatuses...)
}

func (s VendorStatus) String() string {
	return string(s)
}

func (s VendorStatus) IsValid() bool {
	for _, candidate := range validVendorStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

func ParseVendorStatus(value string) (VendorStatus, error) {
	for _, candidate := range validVendorStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid vendor status %q", value)
}

// CanTransition reports whether a vendor in s may move to next.
func (s VendorStatus) CanTransition(next VendorStatus) bool {
	for _, allowed := range vendorTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s VendorStatus) BadgeColor() BadgeColor {
	switch s {
	case VendorStatusPending:
		return BadgeAmber
	case VendorStatusApproved:
		return BadgeGreen
	case VendorStatusRejected:
		return BadgeRed
	case VendorStatusSuspended:
		return BadgeGray
	}
	return BadgeGray
}

func (s VendorStatus) Icon() Icon {
	switch s {
	case VendorStatusPending:
		return IconClock
	case VendorStatusApproved:
		return IconCheckCircle
	case VendorStatusRejected:
		return IconXCircle
	case VendorStatusSuspended:
		return IconPauseCircle
	}
	return IconQuestion
}

func (s VendorStatus) Badge() Badge {
	return Badge{Label: string(s), Color: s.BadgeColor(), Icon: s.Icon()}
}
