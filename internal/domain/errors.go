package domain

import (
	"errors"
	"fmt"
)

var (
	// Ошибка отсутствующего идентификатора клиента.
	ErrCustomerRequired = errors.New("customer_id is required")
	// Ошибка отсутствующего tracking number.
	ErrTrackingNumberRequired = errors.New("tracking_number is required")
	// Ошибка отсутствующего кода валюты.
	ErrCurrencyRequired = errors.New("currency is required")
	// Ошибка отсутствующего идентификатора шлюза.
	ErrGatewayRequired = errors.New("payment gateway is required")
	// Ошибка отсутствия хотя бы одного товара в заказе.
	ErrItemsRequired = errors.New("order must contain at least one item")
	// Ошибка отрицательной суммы.
	ErrAmountNegative = errors.New("amount_minor must be non-negative")
	// Ошибка при некорректном количестве товара (<= 0).
	ErrItemQtyInvalid = errors.New("item qty must be greater than zero")
	// Ошибка, если цена позиции отрицательная.
	ErrItemPriceInvalid = errors.New("item price must be non-negative")
	// Ошибка несоответствия субтотала позиции qty*price.
	ErrItemSubtotalMismatch = errors.New("item subtotal does not match qty * unit price")
	// Ошибка несоответствия суммы заказа и сумм позиций.
	ErrAmountMismatch = errors.New("order amount does not match items sum")
	// Ошибка нарушенного инварианта total = amount + tax + delivery - discount.
	ErrTotalMismatch = errors.New("order total does not satisfy totals invariant")
	// Ошибка paid_total > total.
	ErrPaidExceedsTotal = errors.New("paid_total exceeds order total")

	// ErrOrderNotFound возвращается, если заказ не найден в репозитории.
	ErrOrderNotFound = errors.New("order not found")
	// ErrOrderVersionConflict сигнализирует о конфликте версий при сохранении.
	ErrOrderVersionConflict = errors.New("order version conflict")
	// ErrOrderExists — заказ с таким идентификатором или tracking number уже создан.
	ErrOrderExists = errors.New("order already exists")
	// ErrOrderFrozen — позиции и суммы завершённого/отменённого заказа неизменяемы.
	ErrOrderFrozen = errors.New("order is frozen")
	// ErrInvalidTransition — недопустимый переход статуса.
	ErrInvalidTransition = errors.New("invalid status transition")

	// Таксономия ошибок купона: каждая причина отказа различима.
	ErrCouponNotFound      = errors.New("coupon not found")
	ErrCouponExpired       = errors.New("coupon is outside its validity window")
	ErrCouponNotApproved   = errors.New("coupon is not valid or not approved")
	ErrCouponMinimumNotMet = errors.New("cart subtotal below coupon minimum")

	// ErrProductNotFound — товар отсутствует в каталоге.
	ErrProductNotFound = errors.New("product not found")
	// ErrProductUnavailable — товар недоступен к покупке (нет стока или снят с продажи).
	ErrProductUnavailable = errors.New("product unavailable")
	// ErrCustomerNotFound — клиент отсутствует в справочнике.
	ErrCustomerNotFound = errors.New("customer not found")

	// ErrIntentNotFound — локальная запись интента отсутствует.
	ErrIntentNotFound = errors.New("payment intent not found")
	// ErrIntentConflict — гонка на (tracking_number, gateway); проигравший перечитывает.
	ErrIntentConflict = errors.New("payment intent already exists")

	// ErrStaleQuote — итоги createOrder не совпадают с актуальной котировкой verify().
	ErrStaleQuote = errors.New("checkout quote is stale")
	// ErrQuoteNotFound — котировка не найдена или истекла.
	ErrQuoteNotFound = errors.New("checkout quote not found")

	// ErrStatusSlugConflict — slug справочного статуса уже занят.
	ErrStatusSlugConflict = errors.New("order status slug already exists")
	// ErrStatusNotFound — справочный статус не найден.
	ErrStatusNotFound = errors.New("order status not found")
	// Ошибки обязательных полей справочного статуса.
	ErrStatusNameRequired = errors.New("status name is required")
	ErrStatusSlugRequired = errors.New("status slug is required")

	// ErrWebhookSignature — подпись уведомления не прошла проверку.
	ErrWebhookSignature = errors.New("webhook signature verification failed")
	// ErrWebhookMalformed — уведомление не удалось разобрать.
	ErrWebhookMalformed = errors.New("webhook payload malformed")

	// ErrOutboxPublish — ошибка при публикации сообщения из outbox.
	ErrOutboxPublish = errors.New("outbox publish failed")
)

// Коды GatewayError, общие для всех адаптеров.
const (
	GatewayErrAuth       = "auth"
	GatewayErrNetwork    = "network"
	GatewayErrTimeout    = "timeout"
	GatewayErrValidation = "validation"
	GatewayErrProvider   = "provider"
)

// GatewayError — единственная форма ошибки, пересекающая границу адаптера.
// Исключения SDK и детали транспорта наружу не выходят.
type GatewayError struct {
	Gateway string
	Code    string
	Message string
	Err     error
}

func (e *GatewayError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("gateway %s: %s", e.Gateway, e.Code)
	}
	return fmt.Sprintf("gateway %s: %s: %s", e.Gateway, e.Code, e.Message)
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}

// NewGatewayError оборачивает низкоуровневую ошибку шлюза в типизированную.
func NewGatewayError(gateway, code, message string, err error) *GatewayError {
	return &GatewayError{Gateway: gateway, Code: code, Message: message, Err: err}
}

// IsGatewayError извлекает GatewayError из цепочки ошибок.
func IsGatewayError(err error) (*GatewayError, bool) {
	var ge *GatewayError
	if errors.As(err, &ge) {
		return ge, true
	}
	return nil, false
}

// IsCouponError проверяет принадлежность ошибки к таксономии купонов.
func IsCouponError(err error) bool {
	return errors.Is(err, ErrCouponNotFound) ||
		errors.Is(err, ErrCouponExpired) ||
		errors.Is(err, ErrCouponNotApproved) ||
		errors.Is(err, ErrCouponMinimumNotMet)
}

// IsVersionConflict проверяет, является ли ошибка конфликтом версий.
func IsVersionConflict(err error) bool {
	return errors.Is(err, ErrOrderVersionConflict)
}
