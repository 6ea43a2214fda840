package enums

import (
	"testing"
	"time"
)

func TestStatusBadgesAreExhaustive(t *testing.T) {
	for _, s := range UserStatuses() {
		if s.Icon() == IconQuestion {
			t.Fatalf("user status %s has no icon", s)
		}
	}
	for _, s := range VendorStatuses() {
		if s.Icon() == IconQuestion {
			t.Fatalf("vendor status %s has no icon", s)
		}
	}
	for _, s := range GameStatuses() {
		if s.Icon() == IconQuestion {
			t.Fatalf("game status %s has no icon", s)
		}
	}
	for _, s := range WinnerStatuses() {
		if s.Icon() == IconQuestion {
			t.Fatalf("winner status %s has no icon", s)
		}
	}
	for _, n := range NotificationTypes() {
		if n.Icon() == IconBell {
			t.Fatalf("notification type %s falls back to the generic icon", n)
		}
	}
	if UserStatus("GONE").BadgeColor() != BadgeGray || UserStatus("GONE").Icon() != IconQuestion {
		t.Fatal("unknown status should map to the neutral badge")
	}
}

func TestUserStatusBadge(t *testing.T) {
	cases := map[UserStatus]BadgeColor{
		UserStatusActive:    BadgeGreen,
		UserStatusSuspended: BadgeAmber,
		UserStatusBanned:    BadgeRed,
	}
	for status, color := range cases {
		if got := status.Badge(); got.Color != color || got.Label != string(status) {
			t.Fatalf("status %s: unexpected badge %+v", status, got)
		}
	}
	if !UserStatusActive.CanSignIn() || UserStatusSuspended.CanSignIn() {
		t.Fatal("only active users may sign in")
	}
}

func TestVendorTransitions(t *testing.T) {
	allowed := [][2]VendorStatus{
		{VendorStatusPending, VendorStatusApproved},
		{VendorStatusPending, VendorStatusRejected},
		{VendorStatusApproved, VendorStatusSuspended},
		{VendorStatusSuspended, VendorStatusApproved},
	}
	for _, tr := range allowed {
		if !tr[0].CanTransition(tr[1]) {
			t.Fatalf("expected %s -> %s to be allowed", tr[0], tr[1])
		}
	}
	if VendorStatusRejected.CanTransition(VendorStatusApproved) {
		t.Fatal("rejected is final")
	}
	if VendorStatusApproved.CanTransition(VendorStatusPending) {
		t.Fatal("approved vendors cannot return to pending")
	}
}

func TestGameAndWinnerTransitions(t *testing.T) {
	if GameStatusClosed.CanTransition(GameStatusActive) {
		t.Fatal("closed games are final")
	}
	if !GameStatusPaused.CanTransition(GameStatusActive) {
		t.Fatal("paused games can resume")
	}
	if WinnerStatusPaid.CanTransition(WinnerStatusClaimed) {
		t.Fatal("paid is final")
	}
	if !WinnerStatusPendingClaim.CanTransition(WinnerStatusExpired) {
		t.Fatal("pending claims can expire")
	}
}

func TestParsers(t *testing.T) {
	if _, err := ParseUserStatus("ACTIVE"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := ParseUserStatus("active"); err == nil {
		t.Fatal("statuses are case sensitive")
	}
	if _, err := ParseVendorStatus("NOPE"); err == nil {
		t.Fatal("expected error")
	}
	if _, err := ParseNotificationPriority("urgent"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := ParsePermission("vendors:write"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r, err := ParseReportRange(""); err != nil || r != ReportRange30d {
		t.Fatalf("expected default 30d, got %q %v", r, err)
	}
}

func TestReportRangeSince(t *testing.T) {
	now := time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)
	if got := ReportRange7d.Since(now); !got.Equal(time.Date(2026, 3, 24, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected 7d start %v", got)
	}
	if !ReportRangeAll.Since(now).IsZero() {
		t.Fatal("all has no lower bound")
	}
}
