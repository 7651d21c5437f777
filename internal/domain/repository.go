package domain

// OrderRepository описывает требования к хранилищу заказов.
type OrderRepository interface {
	// Create сохраняет новый заказ. Возвращает ошибку, если запись с таким ID
	// или tracking number уже существует.
	Create(order Order) error
	// Get возвращает заказ по идентификатору или ErrOrderNotFound, если его нет.
	Get(id string) (Order, error)
	// GetByTracking возвращает заказ по публичному tracking number.
	GetByTracking(trackingNumber string) (Order, error)
	// List возвращает заказы по фильтру, новые первыми.
	List(filter OrderFilter) ([]Order, error)
	// Save применяет обновления к заказу с учётом optimistic locking.
	Save(order Order) error
}

// CouponRepository описывает хранилище купонов.
type CouponRepository interface {
	Create(coupon Coupon) error
	// GetByCode возвращает купон по коду или ErrCouponNotFound.
	GetByCode(code string) (Coupon, error)
	// Get возвращает купон по идентификатору или ErrCouponNotFound.
	Get(id string) (Coupon, error)
}

// RateRepository описывает хранилище налоговых и доставочных правил.
// Подбор наиболее специфичного правила — логика домена, не хранилища.
type RateRepository interface {
	ListTaxRules() ([]TaxRule, error)
	ListShippingRules() ([]ShippingRule, error)
}

// IntentRepository описывает хранилище локальных записей платёжных интентов.
type IntentRepository interface {
	// Create сохраняет новую запись; при нарушении уникальности
	// (tracking_number, gateway) возвращает ErrIntentConflict.
	Create(intent PaymentIntent) error
	// GetByTracking возвращает запись по (tracking_number, gateway)
	// или ErrIntentNotFound.
	GetByTracking(trackingNumber, gateway string) (PaymentIntent, error)
	// Update перезаписывает существующую запись (recall-путь).
	Update(intent PaymentIntent) error
}

// StatusRepository описывает справочник декоративных статусов заказа.
type StatusRepository interface {
	Create(ref StatusRef) error
	List() ([]StatusRef, error)
	Update(ref StatusRef) error
}
