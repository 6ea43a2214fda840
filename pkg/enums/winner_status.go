package enums

import "fmt"

// WinnerStatus tracks a prize from draw to payout.
type WinnerStatus string

const (
	WinnerStatusPendingClaim WinnerStatus = "PENDING_CLAIM"
	WinnerStatusClaimed      WinnerStatus = "CLAIMED"
	WinnerStatusPaid         WinnerStatus = "PAID"
	WinnerStatusExpired      WinnerStatus = "EXPIRED"
)

var validWinnerStatuses = []WinnerStatus{
	WinnerStatusPendingClaim,
	WinnerStatusClaimed,
	WinnerStatusPaid,
	WinnerStatusExpired,
}

var winnerTransitions = map[WinnerStatus][]WinnerStatus{
	WinnerStatusPendingClaim: {WinnerStatusClaimed, WinnerStatusExpired},
	WinnerStatusClaimed:      {WinnerStatusPaid},
}

func WinnerStatuses() []WinnerStatus {
	return append([]WinnerStatus(nil), validWinnerStatuses...)
}

func (s WinnerStatus) String() string {
	return string(s)
}

func (s WinnerStatus) IsValid() bool {
	for _, candidate := range validWinnerStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

func ParseWinnerStatus(value string) (WinnerStatus, error) {
	for _, candidate := range validWinnerStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid winner status %q", value)
}

func (s WinnerStatus) CanTransition(next WinnerStatus) bool {
	for _, allowed := range winnerTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s WinnerStatus) BadgeColor() BadgeColor {
	switch s {
	case WinnerStatusPendingClaim:
		return BadgeAmber
	case WinnerStatusClaimed:
		return BadgeBlue
	case WinnerStatusPaid:
		return BadgeGreen
	case WinnerStatusExpired:
		return BadgeGray
	}
	return BadgeGray
}

func (s WinnerStatus) Icon() Icon {
	switch s {
	case WinnerStatusPendingClaim:
		return IconHourglass
	case WinnerStatusClaimed:
		return IconTrophy
	case WinnerStatusPaid:
		return IconBanknote
	case WinnerStatusExpired:
		return IconXCircle
	}
	return IconQuestion
}

func (s WinnerStatus) Badge() Badge {
	return Badge{Label: string(s), Color: s.BadgeColor(), Icon: s.Icon()}
}
