package http

import (
	"time"

	"github.com/vladislavdragonenkov/checkout/internal/domain"
	"github.com/vladislavdragonenkov/checkout/internal/service/checkout"
)

type addressDTO struct {
	Country       string `json:"country"`
	State         string `json:"state,omitempty"`
	City          string `json:"city,omitempty"`
	Zip           string `json:"zip,omitempty"`
	StreetAddress string `json:"street_address,omitempty"`
}

func (a addressDTO) toDomain() domain.Address {
	return domain.Address{
		Country:       a.Country,
		State:         a.State,
		City:          a.City,
		Zip:           a.Zip,
		StreetAddress: a.StreetAddress,
	}
}

func addressFromDomain(a domain.Address) addressDTO {
	return addressDTO{
		Country:       a.Country,
		State:         a.State,
		City:          a.City,
		Zip:           a.Zip,
		StreetAddress: a.StreetAddress,
	}
}

type cartItemDTO struct {
	ProductID string `json:"product_id"`
	Qty       int    `json:"qty"`
}

type orderItemDTO struct {
	ProductID      string `json:"product_id"`
	Qty            int32  `json:"qty"`
	UnitPriceMinor int64  `json:"unit_price_minor"`
	SubtotalMinor  int64  `json:"subtotal_minor"`
}

type orderDTO struct {
	ID                 string         `json:"id"`
	TrackingNumber     string         `json:"tracking_number"`
	CustomerID         string         `json:"customer_id"`
	Status             string         `json:"status"`
	PaymentStatus      string         `json:"payment_status"`
	PaymentGateway     string         `json:"payment_gateway"`
	CouponID           string         `json:"coupon_id,omitempty"`
	Language           string         `json:"language,omitempty"`
	Currency           string         `json:"currency"`
	AmountMinor        int64          `json:"amount_minor"`
	SalesTaxMinor      int64          `json:"sales_tax_minor"`
	DiscountMinor      int64          `json:"discount_minor"`
	DeliveryFeeMinor   int64          `json:"delivery_fee_minor"`
	TotalMinor         int64          `json:"total_minor"`
	PaidTotalMinor     int64          `json:"paid_total_minor"`
	BillingAddress     addressDTO     `json:"billing_address"`
	ShippingAddress    addressDTO     `json:"shipping_address"`
	Items              []orderItemDTO `json:"items"`
	Version            int64          `json:"version"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
	LastPaymentEventAt *time.Time     `json:"last_payment_event_at,omitempty"`
}

func orderFromDomain(o domain.Order) orderDTO {
	dto := orderDTO{
		ID:               o.ID,
		TrackingNumber:   o.TrackingNumber,
		CustomerID:       o.CustomerID,
		Status:           string(o.Status),
		PaymentStatus:    string(o.PaymentStatus),
		PaymentGateway:   o.PaymentGateway,
		CouponID:         o.CouponID,
		Language:         o.Language,
		Currency:         o.Currency,
		AmountMinor:      o.AmountMinor,
		SalesTaxMinor:    o.SalesTaxMinor,
		DiscountMinor:    o.DiscountMinor,
		DeliveryFeeMinor: o.DeliveryFeeMinor,
		TotalMinor:       o.TotalMinor,
		PaidTotalMinor:   o.PaidTotalMinor,
		BillingAddress:   addressFromDomain(o.BillingAddress),
		ShippingAddress:  addressFromDomain(o.ShippingAddress),
		Version:          o.Version,
		CreatedAt:        o.CreatedAt,
		UpdatedAt:        o.UpdatedAt,
	}
	if !o.LastPaymentEventAt.IsZero() {
		t := o.LastPaymentEventAt
		dto.LastPaymentEventAt = &t
	}
	for _, item := range o.Items {
		dto.Items = append(dto.Items, orderItemDTO{
			ProductID:      item.ProductID,
			Qty:            item.Qty,
			UnitPriceMinor: item.UnitPriceMinor,
			SubtotalMinor:  item.SubtotalMinor,
		})
	}
	return dto
}

type intentDTO struct {
	ID               string `json:"id"`
	Status           string `json:"status"`
	AmountMinor      int64  `json:"amount_minor"`
	Currency         string `json:"currency"`
	RedirectOrSecret string `json:"redirect_or_secret,omitempty"`
}

func intentFromDomain(n domain.NormalizedIntent) intentDTO {
	return intentDTO{
		ID:               n.ID,
		Status:           n.Status,
		AmountMinor:      n.AmountMinor,
		Currency:         n.Currency,
		RedirectOrSecret: n.RedirectOrSecret,
	}
}

type quoteLineDTO struct {
	ProductID      string `json:"product_id"`
	Name           string `json:"name"`
	Qty            int    `json:"qty"`
	UnitPriceMinor int64  `json:"unit_price_minor"`
	SubtotalMinor  int64  `json:"subtotal_minor"`
}

type quoteDTO struct {
	Lines               []quoteLineDTO `json:"lines"`
	SubtotalMinor       int64          `json:"subtotal_minor"`
	SalesTaxMinor       int64          `json:"sales_tax_minor"`
	DeliveryFeeMinor    int64          `json:"delivery_fee_minor"`
	DiscountMinor       int64          `json:"discount_minor"`
	TotalMinor          int64          `json:"total_minor"`
	CouponID            string         `json:"coupon_id,omitempty"`
	UnavailableProducts []string       `json:"unavailable_products,omitempty"`
	Signature           string         `json:"signature"`
	ExpiresAt           time.Time      `json:"expires_at"`
}

func quoteFromDomain(q checkout.Quote) quoteDTO {
	dto := quoteDTO{
		SubtotalMinor:       q.SubtotalMinor,
		SalesTaxMinor:       q.SalesTaxMinor,
		DeliveryFeeMinor:    q.DeliveryFeeMinor,
		DiscountMinor:       q.DiscountMinor,
		TotalMinor:          q.TotalMinor,
		CouponID:            q.CouponID,
		UnavailableProducts: q.UnavailableProducts,
		Signature:           q.Signature,
		ExpiresAt:           q.ExpiresAt,
	}
	for _, line := range q.Lines {
		dto.Lines = append(dto.Lines, quoteLineDTO{
			ProductID:      line.ProductID,
			Name:           line.Name,
			Qty:            line.Qty,
			UnitPriceMinor: line.UnitPriceMinor,
			SubtotalMinor:  line.SubtotalMinor,
		})
	}
	return dto
}

type statusRefDTO struct {
	ID       string `json:"id,omitempty"`
	Name     string `json:"name"`
	Color    string `json:"color,omitempty"`
	Serial   int    `json:"serial,omitempty"`
	Slug     string `json:"slug"`
	Language string `json:"language,omitempty"`
}

func (s statusRefDTO) toDomain() domain.StatusRef {
	return domain.StatusRef{
		ID:       s.ID,
		Name:     s.Name,
		Color:    s.Color,
		Serial:   s.Serial,
		Slug:     s.Slug,
		Language: s.Language,
	}
}

func statusRefFromDomain(s domain.StatusRef) statusRefDTO {
	return statusRefDTO{
		ID:       s.ID,
		Name:     s.Name,
		Color:    s.Color,
		Serial:   s.Serial,
		Slug:     s.Slug,
		Language: s.Language,
	}
}

type timelineEventDTO struct {
	Type       string    `json:"type"`
	Reason     string    `json:"reason,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}
