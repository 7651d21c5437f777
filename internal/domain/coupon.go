package domain

import "time"

// CouponType определяет способ вычисления скидки.
type CouponType string

const (
	// CouponTypeFixed — фиксированная скидка в минимальных единицах валюты.
	CouponTypeFixed CouponType = "fixed"
	// CouponTypePercentage — процент от суммы корзины до налогов.
	CouponTypePercentage CouponType = "percentage"
	// CouponTypeFreeShipping — обнуляет стоимость доставки, скидки на позиции не даёт.
	CouponTypeFreeShipping CouponType = "free_shipping"
	// CouponTypeDefault ведёт себя как fixed.
	CouponTypeDefault CouponType = "default"
)

// Coupon описывает промокод с окном действия и флагами одобрения.
type Coupon struct {
	ID   string
	Code string
	Type CouponType
	// Amount — сумма в минимальных единицах для fixed/default
	// и целый процент для percentage.
	Amount int64
	// MinimumCartAmountMinor — минимальная сумма корзины для применения.
	MinimumCartAmountMinor int64
	ActiveFrom             time.Time
	ExpireAt               time.Time
	IsValid                bool
	IsApprove              bool
	Language               string
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

// UsableAt проверяет применимость купона к корзине в момент now.
// Возвращает конкретную ошибку из таксономии купонов.
func (c *Coupon) UsableAt(now time.Time, cartSubtotalMinor int64) error {
	if now.Before(c.ActiveFrom) || now.After(c.ExpireAt) {
		return ErrCouponExpired
	}
	if !c.IsValid || !c.IsApprove {
		return ErrCouponNotApproved
	}
	if cartSubtotalMinor < c.MinimumCartAmountMinor {
		return ErrCouponMinimumNotMet
	}
	return nil
}

// DiscountFor вычисляет скидку для суммы корзины до налогов.
// Скидка никогда не превышает субтотал и не бывает отрицательной.
func (c *Coupon) DiscountFor(cartSubtotalMinor int64) (discountMinor int64, freeShipping bool) {
	switch c.Type {
	case CouponTypePercentage:
		discountMinor = cartSubtotalMinor * c.Amount / 100
	case CouponTypeFreeShipping:
		return 0, true
	default:
		// fixed и default вычитают фиксированную сумму.
		discountMinor = c.Amount
	}

	if discountMinor < 0 {
		discountMinor = 0
	}
	if discountMinor > cartSubtotalMinor {
		discountMinor = cartSubtotalMinor
	}
	return discountMinor, false
}
