package domain

import "time"

// TimelineEvent — запись в ленте событий заказа. Лента служит audit
// trail'ом: заказы не удаляются физически, каждая смена статуса и каждое
// применённое платёжное событие оставляют след.
type TimelineEvent struct {
	OrderID string
	// Type — тип события (order.created, payment.succeeded и т.д.).
	Type string
	// Reason — причина: текст оператора либо исходный тип события шлюза.
	Reason     string
	OccurredAt time.Time
}
