package domain

import "time"

// OrderStatus описывает жизненный цикл заказа.
type OrderStatus string

const (
	// OrderStatusPending — заказ создан, оплата ещё не подтверждена.
	OrderStatusPending OrderStatus = "pending"
	// OrderStatusProcessing — оплата подтверждена, заказ в обработке.
	OrderStatusProcessing OrderStatus = "processing"
	// OrderStatusCompleted — заказ исполнен; позиции и суммы заморожены.
	OrderStatusCompleted OrderStatus = "completed"
	// OrderStatusCancelled — заказ отменён; терминальный статус вместо удаления строки.
	OrderStatusCancelled OrderStatus = "cancelled"
)

// PaymentStatus описывает состояние оплаты заказа.
type PaymentStatus string

const (
	// PaymentStatusPending — платёж инициирован, но не подтверждён шлюзом.
	PaymentStatusPending PaymentStatus = "pending"
	// PaymentStatusSuccess — шлюз подтвердил оплату.
	PaymentStatusSuccess PaymentStatus = "success"
	// PaymentStatusFailed — шлюз отклонил оплату.
	PaymentStatusFailed PaymentStatus = "failed"
	// PaymentStatusRefunded — средства возвращены клиенту отдельным потоком.
	PaymentStatusRefunded PaymentStatus = "refunded"
)

// Address — снапшот адреса на момент оформления заказа.
type Address struct {
	Country       string
	State         string
	City          string
	Zip           string
	StreetAddress string
}

// OrderItem представляет одну позицию заказа. Цена и сумма фиксируются
// в момент создания и позже не пересчитываются.
type OrderItem struct {
	ID string
	// ProductID — внешний идентификатор товара в каталоге.
	ProductID string
	Qty       int32
	// UnitPriceMinor — цена за единицу в минимальных денежных единицах.
	UnitPriceMinor int64
	// SubtotalMinor — qty * unit_price, снапшот на момент заказа.
	SubtotalMinor int64
	CreatedAt     time.Time
}

// Order агрегирует состояние заказа, его позиции и платёжные поля.
type Order struct {
	ID string
	// TrackingNumber — публичный уникальный идентификатор заказа,
	// никогда не переназначается.
	TrackingNumber string
	CustomerID     string
	Status         OrderStatus
	PaymentStatus  PaymentStatus
	PaymentGateway string
	// CouponID пуст, если купон не применялся.
	CouponID string
	Language string
	Currency string

	// Денежные поля в минимальных единицах валюты.
	AmountMinor      int64 // сумма позиций до налогов и скидок
	SalesTaxMinor    int64
	DiscountMinor    int64
	DeliveryFeeMinor int64
	TotalMinor       int64
	PaidTotalMinor   int64

	// LastPaymentEventAt — watermark монотонного guard'а реконсиляции:
	// события с более ранним временем игнорируются.
	LastPaymentEventAt time.Time

	BillingAddress  Address
	ShippingAddress Address
	Items           []OrderItem

	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ValidateInvariants проверяет базовые инварианты заказа и возвращает список замечаний.
func (o *Order) ValidateInvariants() []error {
	var errs []error

	if o.CustomerID == "" {
		errs = append(errs, ErrCustomerRequired)
	}
	if o.TrackingNumber == "" {
		errs = append(errs, ErrTrackingNumberRequired)
	}
	if o.Currency == "" {
		errs = append(errs, ErrCurrencyRequired)
	}
	if len(o.Items) == 0 {
		errs = append(errs, ErrItemsRequired)
	}

	// Сверяем сумму заказа с суммой позиций: qty * unit_price.
	var calc int64
	for _, item := range o.Items {
		if item.Qty <= 0 {
			errs = append(errs, ErrItemQtyInvalid)
		}
		if item.UnitPriceMinor < 0 {
			errs = append(errs, ErrItemPriceInvalid)
		}
		if item.SubtotalMinor != int64(item.Qty)*item.UnitPriceMinor {
			errs = append(errs, ErrItemSubtotalMismatch)
		}
		calc += item.SubtotalMinor
	}
	if calc != o.AmountMinor {
		errs = append(errs, ErrAmountMismatch)
	}

	if o.TotalMinor != o.AmountMinor+o.SalesTaxMinor+o.DeliveryFeeMinor-o.DiscountMinor {
		errs = append(errs, ErrTotalMismatch)
	}
	if o.PaidTotalMinor > o.TotalMinor {
		errs = append(errs, ErrPaidExceedsTotal)
	}

	return errs
}

// CanTransition проверяет допустимость перехода статуса заказа.
// Pending → Processing → Completed; Pending/Processing → Cancelled.
func (o *Order) CanTransition(next OrderStatus) bool {
	switch o.Status {
	case OrderStatusPending:
		return next == OrderStatusProcessing || next == OrderStatusCancelled
	case OrderStatusProcessing:
		return next == OrderStatusCompleted || next == OrderStatusCancelled
	default:
		return false
	}
}

// Frozen сообщает, что позиции и суммы заказа больше не могут меняться.
// Платёжный статус при этом ещё может перейти в refunded.
func (o *Order) Frozen() bool {
	return o.Status == OrderStatusCompleted || o.Status == OrderStatusCancelled
}

// CanTransitionPayment проверяет допустимость перехода платёжного статуса.
// Pending → Success | Failed; Success → Refunded.
func CanTransitionPayment(current, next PaymentStatus) bool {
	switch current {
	case PaymentStatusPending:
		return next == PaymentStatusSuccess || next == PaymentStatusFailed
	case PaymentStatusSuccess:
		return next == PaymentStatusRefunded
	default:
		return false
	}
}

// OrderFilter задаёт параметры выборки заказов.
type OrderFilter struct {
	CustomerID string
	Status     OrderStatus
	Limit      int
}
