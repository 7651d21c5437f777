package memory

import (
	"strings"
	"sync"

	"github.com/vladislavdragonenkov/checkout/internal/domain"
)

// couponRepositoryInMemory — in-memory реализация CouponRepository.
type couponRepositoryInMemory struct {
	mu     sync.RWMutex
	byID   map[string]domain.Coupon
	byCode map[string]string
}

// NewCouponRepository возвращает in-memory репозиторий купонов.
func NewCouponRepository() domain.CouponRepository {
	return &couponRepositoryInMemory{
		byID:   make(map[string]domain.Coupon),
		byCode: make(map[string]string),
	}
}

// Create сохраняет купон; код нормализуется к верхнему регистру.
func (r *couponRepositoryInMemory) Create(coupon domain.Coupon) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	code := strings.ToUpper(coupon.Code)
	r.byID[coupon.ID] = coupon
	r.byCode[code] = coupon.ID
	return nil
}

// GetByCode возвращает купон по коду (регистронезависимо).
func (r *couponRepositoryInMemory) GetByCode(code string) (domain.Coupon, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byCode[strings.ToUpper(code)]
	if !ok {
		return domain.Coupon{}, domain.ErrCouponNotFound
	}
	return r.byID[id], nil
}

// Get возвращает купон по идентификатору.
func (r *couponRepositoryInMemory) Get(id string) (domain.Coupon, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	coupon, ok := r.byID[id]
	if !ok {
		return domain.Coupon{}, domain.ErrCouponNotFound
	}
	return coupon, nil
}

var _ domain.CouponRepository = (*couponRepositoryInMemory)(nil)
