package enums

// BadgeColor is the palette token the admin UI renders a status badge with.
type BadgeColor string

const (
	BadgeGreen  BadgeColor = "green"
	BadgeAmber  BadgeColor = "amber"
	BadgeRed    BadgeColor = "red"
	BadgeBlue   BadgeColor = "blue"
	BadgePurple BadgeColor = "purple"
	BadgeGray   BadgeColor = "gray"
)

// Icon names an icon from the admin UI icon set.
type Icon string

const (
	IconCheckCircle Icon = "check-circle"
	IconPauseCircle Icon = "pause-circle"
	IconBan         Icon = "ban"
	IconClock       Icon = "clock"
	IconXCircle     Icon = "x-circle"
	IconPencil      Icon = "pencil"
	IconPlayCircle  Icon = "play-circle"
	IconLock        Icon = "lock"
	IconTrophy      Icon = "trophy"
	IconBanknote    Icon = "banknote"
	IconHourglass   Icon = "hourglass"
	IconMegaphone   Icon = "megaphone"
	IconStore       Icon = "store"
	IconTicket      Icon = "ticket"
	IconShield      Icon = "shield-alert"
	IconFileChart   Icon = "file-chart"
	IconBell        Icon = "bell"
	IconQuestion    Icon = "help-circle"
)

// Badge bundles the presentation of a closed status value.
type Badge struct {
	Label string     `json:"label"`
	Color BadgeColor `json:"color"`
	Icon  Icon       `json:"icon"`
}
