package numeric

import (
	"testing"

	"github.com/shopspring/decimal"

	"launchpad-indexer/internal/domain"
)

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("bad decimal literal %q: %v", s, err)
	}
	return d
}

func TestParseAmount_LargerThanFloat64(t *testing.T) {
	// 2^128, far beyond exact float64 range
	s := "340282366920938463463374607431768211456"

	d, err := ParseAmount(s)
	if err != nil {
		t.Fatalf("ParseAmount failed: %v", err)
	}

	if d.String() != s {
		t.Errorf("precision lost: got %s, want %s", d.String(), s)
	}
}

func TestParseAmount_Empty(t *testing.T) {
	d, err := ParseAmount("")
	if err != nil {
		t.Fatalf("ParseAmount failed: %v", err)
	}
	if !d.IsZero() {
		t.Errorf("expected zero, got %s", d)
	}
}

func TestParseAmount_Malformed(t *testing.T) {
	if _, err := ParseAmount("12x4"); err == nil {
		t.Error("expected error for malformed amount")
	}
}

func TestParseOptionalAmount_EmptyIsNil(t *testing.T) {
	d, err := ParseOptionalAmount("")
	if err != nil {
		t.Fatalf("ParseOptionalAmount failed: %v", err)
	}
	if d != nil {
		t.Errorf("expected nil, got %s", d)
	}
}

func TestDerivePrice_ExplicitPriceWins(t *testing.T) {
	price := dec(t, "1.5")
	last := dec(t, "9.9")

	tx := &domain.TokenTransaction{
		Price:       &price,
		LastPrice:   &last,
		Amount:      dec(t, "10"),
		QuoteAmount: dec(t, "100"),
	}

	got, ok := DerivePrice(tx)
	if !ok {
		t.Fatal("expected a derived price")
	}
	if !got.Equal(price) {
		t.Errorf("got %s, want %s", got, price)
	}
}

func TestDerivePrice_NegativeExplicitFallsThrough(t *testing.T) {
	price := dec(t, "-1")
	last := dec(t, "2.5")

	tx := &domain.TokenTransaction{
		Price:     &price,
		LastPrice: &last,
	}

	got, ok := DerivePrice(tx)
	if !ok {
		t.Fatal("expected a derived price")
	}
	if !got.Equal(last) {
		t.Errorf("got %s, want %s", got, last)
	}
}

// Quote/amount fallback: price=null, last_price=null, quote=100, amount=50
// must derive 2.
func TestDerivePrice_QuoteOverAmount(t *testing.T) {
	tx := &domain.TokenTransaction{
		Amount:      dec(t, "50"),
		QuoteAmount: dec(t, "100"),
	}

	got, ok := DerivePrice(tx)
	if !ok {
		t.Fatal("expected a derived price")
	}
	if !got.Equal(dec(t, "2")) {
		t.Errorf("got %s, want 2", got)
	}
}

// A transaction with zero amount and no price fields derives nothing.
func TestDerivePrice_ZeroAmountSkipped(t *testing.T) {
	tx := &domain.TokenTransaction{
		Amount:      decimal.Zero,
		QuoteAmount: decimal.Zero,
	}

	if _, ok := DerivePrice(tx); ok {
		t.Error("expected no derived price")
	}
}
