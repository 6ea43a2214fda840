package dbtypes

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestCentsFromDecimal(t *testing.T) {
	got, err := CentsFromDecimal(decimal.RequireFromString("12.50"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 1250 {
		t.Fatalf("expected 1250 got %d", got)
	}
	if got.String() != "12.50" {
		t.Fatalf("unexpected string %q", got.String())
	}
}

func TestCentsFromDecimalRejectsBadInput(t *testing.T) {
	if _, err := CentsFromDecimal(decimal.RequireFromString("-1")); err == nil {
		t.Fatal("expected error for negative amount")
	}
	if _, err := CentsFromDecimal(decimal.RequireFromString("0.001")); err == nil {
		t.Fatal("expected error for sub-cent amount")
	}
}

func TestSumCents(t *testing.T) {
	if total := SumCents(100, 250, 5); total != 355 {
		t.Fatalf("expected 355 got %d", total)
	}
	if !Cents(355).Decimal().Equal(decimal.RequireFromString("3.55")) {
		t.Fatal("decimal conversion mismatch")
	}
}
