package domain

import "time"

// Идентификаторы поддерживаемых платёжных шлюзов.
const (
	GatewayCard   = "card"
	GatewayWallet = "wallet"
)

// KnownGateway проверяет, что идентификатор шлюза поддерживается.
func KnownGateway(gateway string) bool {
	return gateway == GatewayCard || gateway == GatewayWallet
}

// NormalizedIntent — шлюзонезависимое представление платёжного интента.
// Ни один тип конкретного шлюза не пересекает границу адаптера.
type NormalizedIntent struct {
	// ID — идентификатор интента на стороне шлюза.
	ID     string
	Status string
	// AmountMinor — сумма в минимальных единицах валюты шлюза.
	AmountMinor int64
	Currency    string
	// RedirectOrSecret — client secret (карточный шлюз) либо redirect URL (кошелёк).
	RedirectOrSecret string
	// Raw — непрозрачные метаданные ответа шлюза для диагностики.
	Raw []byte
}

// PaymentIntent — локальная запись об интенте, зеркалирующая состояние шлюза.
// Не более одной активной записи на пару (tracking_number, gateway).
type PaymentIntent struct {
	ID             string
	TrackingNumber string
	Gateway        string
	ExternalID     string
	// ClientSecret хранит client secret или redirect URL в зависимости от шлюза.
	ClientSecret string
	AmountMinor  int64
	Currency     string
	Status       string
	Raw          []byte
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Normalized приводит локальную запись к шлюзонезависимой форме.
func (p *PaymentIntent) Normalized() NormalizedIntent {
	return NormalizedIntent{
		ID:               p.ExternalID,
		Status:           p.Status,
		AmountMinor:      p.AmountMinor,
		Currency:         p.Currency,
		RedirectOrSecret: p.ClientSecret,
		Raw:              p.Raw,
	}
}

// Validate проверяет корректность полей локальной записи интента.
func (p *PaymentIntent) Validate() []error {
	var errs []error

	if p.TrackingNumber == "" {
		errs = append(errs, ErrTrackingNumberRequired)
	}
	if p.Gateway == "" {
		errs = append(errs, ErrGatewayRequired)
	}
	if p.AmountMinor < 0 {
		errs = append(errs, ErrAmountNegative)
	}

	return errs
}

// WebhookEvent — нормализованное уведомление шлюза после проверки подписи.
type WebhookEvent struct {
	Gateway string
	// EventID — идентификатор события на стороне шлюза (для дедупликации).
	EventID        string
	Type           string
	TrackingNumber string
	Status         PaymentStatus
	EventTime      time.Time
	Raw            []byte
}
