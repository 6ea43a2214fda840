package enums

import "fmt"

// GameStatus is the sales state of a lottery game.
type GameStatus string

const (
	GameStatusDraft  GameStatus = "DRAFT"
	GameStatusActive GameStatus = "ACTIVE"
	GameStatusPaused GameStatus = "PAUSED"
	GameStatusClosed GameStatus = "CLOSED"
)

var validGameStatuses = []GameStatus{
	GameStatusDraft,
	GameStatusActive,
	GameStatusPaused,
	GameStatusClosed,
}

var gameTransitions = map[GameStatus][]GameStatus{
	GameStatusDraft:  {GameStatusActive, GameStatusClosed},
	GameStatusActive: {GameStatusPaused, GameStatusClosed},
	GameStatusPaused: {GameStatusActive, GameStatusClosed},
}

func GameStatuses() []GameStatus {
	return append([]GameStatus(nil), validGameStatuses...)
}

func (s GameStatus) String() string {
	return string(s)
}

func (s GameStatus) IsValid() bool {
	for _, candidate := range validGameStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

func ParseGameStatus(value string) (GameStatus, error) {
	for _, candidate := range validGameStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid game status %q", value)
}

// CanTransition reports whether a game in s may move to next. CLOSED is final.
func (s GameStatus) CanTransition(next GameStatus) bool {
	for _, allowed := range gameTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s GameStatus) BadgeColor() BadgeColor {
	switch s {
	case GameStatusDraft:
		return BadgeGray
	case GameStatusActive:
		return BadgeGreen
	case GameStatusPaused:
		return BadgeAmber
	case GameStatusClosed:
		return BadgeRed
	}
	return BadgeGray
}

func (s GameStatus) Icon() Icon {
	switch s {
	case GameStatusDraft:
		return IconPencil
	case GameStatusActive:
		return IconPlayCircle
	case GameStatusPaused:
		return IconPauseCircle
	case GameStatusClosed:
		return IconLock
	}
	return IconQuestion
}

func (s GameStatus) Badge() Badge {
	return Badge{Label: string(s), Color: s.BadgeColor(), Icon: s.Icon()}
}
