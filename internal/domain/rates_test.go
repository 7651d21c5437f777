package domain_test

import (
	"testing"

	"github.com/vladislavdragonenkov/checkout/internal/domain"
)

var dest = domain.Destination{Country: "US", State: "CA", City: "Los Angeles", Zip: "90001"}

func TestRuleScopeMatches(t *testing.T) {
	cases := []struct {
		name  string
		scope domain.RuleScope
		want  bool
	}{
		{"global", domain.RuleScope{IsGlobal: true}, true},
		{"country match", domain.RuleScope{Country: "US"}, true},
		{"country case-insensitive", domain.RuleScope{Country: "us"}, true},
		{"country mismatch", domain.RuleScope{Country: "DE"}, false},
		{"state match", domain.RuleScope{Country: "US", State: "CA"}, true},
		{"zip mismatch", domain.RuleScope{Country: "US", Zip: "10001"}, false},
		{"empty non-global matches nothing", domain.RuleScope{}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.scope.Matches(dest); got != tc.want {
				t.Fatalf("Matches = %v, want %v", got, tc.want)
			}
		})
	}
}

// Специфичность: zip > city > state > country > global.
func TestMostSpecificTax(t *testing.T) {
	rules := []domain.TaxRule{
		{ID: "global", RatePercent: 1, Scope: domain.RuleScope{IsGlobal: true}},
		{ID: "country", RatePercent: 2, Scope: domain.RuleScope{Country: "US"}},
		{ID: "state", RatePercent: 3, Scope: domain.RuleScope{Country: "US", State: "CA"}},
		{ID: "city", RatePercent: 4, Scope: domain.RuleScope{Country: "US", City: "Los Angeles"}},
		{ID: "zip", RatePercent: 5, Scope: domain.RuleScope{Country: "US", Zip: "90001"}},
	}

	best := domain.MostSpecificTax(rules, dest)
	if best == nil || best.ID != "zip" {
		t.Fatalf("expected zip rule, got %+v", best)
	}

	// Без zip-правила побеждает city.
	best = domain.MostSpecificTax(rules[:4], dest)
	if best == nil || best.ID != "city" {
		t.Fatalf("expected city rule, got %+v", best)
	}

	// Для чужого адреса остаётся только global.
	other := domain.Destination{Country: "DE"}
	best = domain.MostSpecificTax(rules, other)
	if best == nil || best.ID != "global" {
		t.Fatalf("expected global rule, got %+v", best)
	}
}

func TestMostSpecificTax_PriorityTiebreak(t *testing.T) {
	rules := []domain.TaxRule{
		{ID: "low", RatePercent: 5, Priority: 1, Scope: domain.RuleScope{Country: "US"}},
		{ID: "high", RatePercent: 7, Priority: 10, Scope: domain.RuleScope{Country: "US"}},
	}

	best := domain.MostSpecificTax(rules, dest)
	if best == nil || best.ID != "high" {
		t.Fatalf("expected higher priority rule, got %+v", best)
	}
}

func TestMostSpecificTax_NoMatch(t *testing.T) {
	rules := []domain.TaxRule{
		{ID: "country", Scope: domain.RuleScope{Country: "DE"}},
	}
	if best := domain.MostSpecificTax(rules, dest); best != nil {
		t.Fatalf("expected nil, got %+v", best)
	}
}

func TestTaxFor_Rounding(t *testing.T) {
	rule := domain.TaxRule{RatePercent: 8}
	if got := rule.TaxFor(10000); got != 800 {
		t.Fatalf("tax = %d, want 800", got)
	}

	// 8.25% от 999 = 82.4175 -> 82.
	rule.RatePercent = 8.25
	if got := rule.TaxFor(999); got != 82 {
		t.Fatalf("tax = %d, want 82", got)
	}
}

func TestShippingFeeFor(t *testing.T) {
	fixed := domain.ShippingRule{Kind: domain.ShippingKindFixed, AmountMinor: 599}
	if got := fixed.FeeFor(10000); got != 599 {
		t.Fatalf("fixed fee = %d, want 599", got)
	}

	pct := domain.ShippingRule{Kind: domain.ShippingKindPercentage, Percent: 5}
	if got := pct.FeeFor(10000); got != 500 {
		t.Fatalf("percentage fee = %d, want 500", got)
	}

	free := domain.ShippingRule{Kind: domain.ShippingKindFree, AmountMinor: 599}
	if got := free.FeeFor(10000); got != 0 {
		t.Fatalf("free fee = %d, want 0", got)
	}
}

func TestMostSpecificShipping(t *testing.T) {
	rules := []domain.ShippingRule{
		{ID: "global", Kind: domain.ShippingKindFixed, AmountMinor: 999, Scope: domain.RuleScope{IsGlobal: true}},
		{ID: "state", Kind: domain.ShippingKindFixed, AmountMinor: 599, Scope: domain.RuleScope{Country: "US", State: "CA"}},
	}

	best := domain.MostSpecificShipping(rules, dest)
	if best == nil || best.ID != "state" {
		t.Fatalf("expected state rule, got %+v", best)
	}
}
