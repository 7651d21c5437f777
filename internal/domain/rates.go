package domain

import (
	"math"
	"strings"
	"time"
)

// Destination — адрес назначения для подбора налоговых и доставочных правил.
type Destination struct {
	Country string
	State   string
	City    string
	Zip     string
}

// RuleScope — географическая область действия правила. Пустое поле
// означает "любое значение"; IsGlobal — правило без географии.
type RuleScope struct {
	Country  string
	State    string
	City     string
	Zip      string
	IsGlobal bool
}

// Специфичность области: zip > city > state > country > global.
const (
	scopeRankGlobal  = 0
	scopeRankCountry = 1
	scopeRankState   = 2
	scopeRankCity    = 3
	scopeRankZip     = 4
)

// Matches проверяет, покрывает ли область адрес назначения.
func (s RuleScope) Matches(dest Destination) bool {
	if s.IsGlobal {
		return true
	}
	if s.Country != "" && !strings.EqualFold(s.Country, dest.Country) {
		return false
	}
	if s.State != "" && !strings.EqualFold(s.State, dest.State) {
		return false
	}
	if s.City != "" && !strings.EqualFold(s.City, dest.City) {
		return false
	}
	if s.Zip != "" && !strings.EqualFold(s.Zip, dest.Zip) {
		return false
	}
	// Область без единого заполненного поля и без is_global ничего не покрывает.
	return s.Country != "" || s.State != "" || s.City != "" || s.Zip != ""
}

// Rank возвращает специфичность области для выбора наиболее точного правила.
func (s RuleScope) Rank() int {
	switch {
	case s.IsGlobal:
		return scopeRankGlobal
	case s.Zip != "":
		return scopeRankZip
	case s.City != "":
		return scopeRankCity
	case s.State != "":
		return scopeRankState
	case s.Country != "":
		return scopeRankCountry
	default:
		return scopeRankGlobal
	}
}

// TaxRule — ставка налога с опциональной географической областью.
type TaxRule struct {
	ID          string
	Name        string
	RatePercent float64
	Scope       RuleScope
	// Priority разрешает конфликт правил одинаковой специфичности: больше — важнее.
	Priority  int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TaxFor вычисляет налог в минимальных единицах от субтотала до скидки.
func (t *TaxRule) TaxFor(subtotalMinor int64) int64 {
	return int64(math.Round(float64(subtotalMinor) * t.RatePercent / 100))
}

// ShippingKind определяет способ вычисления стоимости доставки.
type ShippingKind string

const (
	ShippingKindFixed      ShippingKind = "fixed"
	ShippingKindPercentage ShippingKind = "percentage"
	ShippingKindFree       ShippingKind = "free"
)

// ShippingRule — правило стоимости доставки с географической областью.
type ShippingRule struct {
	ID   string
	Name string
	Kind ShippingKind
	// AmountMinor используется для fixed, Percent — для percentage.
	AmountMinor int64
	Percent     float64
	Scope       RuleScope
	Priority    int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// FeeFor вычисляет стоимость доставки в минимальных единицах.
func (s *ShippingRule) FeeFor(subtotalMinor int64) int64 {
	switch s.Kind {
	case ShippingKindPercentage:
		return int64(math.Round(float64(subtotalMinor) * s.Percent / 100))
	case ShippingKindFree:
		return 0
	default:
		return s.AmountMinor
	}
}

// MostSpecificTax выбирает наиболее специфичное налоговое правило для адреса.
// Возвращает nil, если ни одно правило не подходит.
func MostSpecificTax(rules []TaxRule, dest Destination) *TaxRule {
	var best *TaxRule
	for i := range rules {
		r := &rules[i]
		if !r.Scope.Matches(dest) {
			continue
		}
		if best == nil || ruleBeats(r.Scope.Rank(), r.Priority, best.Scope.Rank(), best.Priority) {
			best = r
		}
	}
	return best
}

// MostSpecificShipping выбирает наиболее специфичное правило доставки для адреса.
func MostSpecificShipping(rules []ShippingRule, dest Destination) *ShippingRule {
	var best *ShippingRule
	for i := range rules {
		r := &rules[i]
		if !r.Scope.Matches(dest) {
			continue
		}
		if best == nil || ruleBeats(r.Scope.Rank(), r.Priority, best.Scope.Rank(), best.Priority) {
			best = r
		}
	}
	return best
}

func ruleBeats(rank, priority, bestRank, bestPriority int) bool {
	if rank != bestRank {
		return rank > bestRank
	}
	return priority > bestPriority
}
