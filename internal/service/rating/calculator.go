package rating

import (
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/checkout/internal/domain"
)

// Breakdown — развёрнутый результат расчёта налога и доставки.
type Breakdown struct {
	SalesTaxMinor    int64
	DeliveryFeeMinor int64
	// TaxRuleID и ShippingRuleID — применённые правила; пустая строка,
	// если подходящего правила не нашлось (нулевая ставка).
	TaxRuleID      string
	ShippingRuleID string
}

// Calculator выбирает наиболее специфичное правило налога и доставки
// для адреса назначения и считает суммы. Налог считается от субтотала
// до применения скидки.
type Calculator struct {
	rates  domain.RateRepository
	logger *log.Entry
}

// NewCalculator создаёт калькулятор налогов и доставки.
func NewCalculator(rates domain.RateRepository, logger *log.Entry) *Calculator {
	if logger == nil {
		logger = log.New().WithField("component", "rating-calculator")
	}
	return &Calculator{rates: rates, logger: logger}
}

// Compute считает налог и стоимость доставки для субтотала корзины.
// Отсутствие правила не ошибка: соответствующая составляющая равна нулю.
func (c *Calculator) Compute(dest domain.Destination, cartSubtotalMinor int64) (Breakdown, error) {
	taxRules, err := c.rates.ListTaxRules()
	if err != nil {
		return Breakdown{}, err
	}
	shippingRules, err := c.rates.ListShippingRules()
	if err != nil {
		return Breakdown{}, err
	}

	var out Breakdown

	if rule := domain.MostSpecificTax(taxRules, dest); rule != nil {
		out.SalesTaxMinor = rule.TaxFor(cartSubtotalMinor)
		out.TaxRuleID = rule.ID
	}
	if rule := domain.MostSpecificShipping(shippingRules, dest); rule != nil {
		out.DeliveryFeeMinor = rule.FeeFor(cartSubtotalMinor)
		out.ShippingRuleID = rule.ID
	}

	c.logger.WithFields(log.Fields{
		"country":  dest.Country,
		"tax":      out.SalesTaxMinor,
		"delivery": out.DeliveryFeeMinor,
	}).Debug("rates computed")

	return out, nil
}
