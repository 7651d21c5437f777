package coupon

import (
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/checkout/internal/domain"
)

// DiscountResult — результат применения купона к корзине.
type DiscountResult struct {
	CouponID string
	// DiscountMinor — скидка на позиции в минимальных единицах.
	DiscountMinor int64
	// FreeShipping — купон обнуляет стоимость доставки.
	FreeShipping bool
}

// Validator проверяет купон против окна действия и флагов одобрения
// и вычисляет скидку. Побочных эффектов нет: чистая функция поверх
// чтения репозитория.
type Validator struct {
	coupons domain.CouponRepository
	logger  *log.Entry
}

// NewValidator создаёт валидатор купонов.
func NewValidator(coupons domain.CouponRepository, logger *log.Entry) *Validator {
	if logger == nil {
		logger = log.New().WithField("component", "coupon-validator")
	}
	return &Validator{coupons: coupons, logger: logger}
}

// Validate проверяет купон по коду и вычисляет скидку для субтотала корзины.
// Каждая причина отказа — отдельная ошибка таксономии купонов.
func (v *Validator) Validate(code string, cartSubtotalMinor int64, now time.Time) (DiscountResult, error) {
	coupon, err := v.coupons.GetByCode(code)
	if err != nil {
		return DiscountResult{}, err
	}

	if err := coupon.UsableAt(now, cartSubtotalMinor); err != nil {
		v.logger.WithFields(log.Fields{
			"code":   coupon.Code,
			"reason": err,
		}).Debug("coupon rejected")
		return DiscountResult{}, err
	}

	discount, freeShipping := coupon.DiscountFor(cartSubtotalMinor)
	return DiscountResult{
		CouponID:      coupon.ID,
		DiscountMinor: discount,
		FreeShipping:  freeShipping,
	}, nil
}

// ValidateByID проверяет купон по идентификатору (путь createOrder).
func (v *Validator) ValidateByID(id string, cartSubtotalMinor int64, now time.Time) (DiscountResult, error) {
	coupon, err := v.coupons.Get(id)
	if err != nil {
		return DiscountResult{}, err
	}
	return v.Validate(coupon.Code, cartSubtotalMinor, now)
}
