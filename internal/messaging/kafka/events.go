package kafka

// Topics для Kafka
const (
	// TopicOrderEvents — события жизненного цикла заказа
	// (order.created, order.status_changed).
	TopicOrderEvents = "checkout.order.events"
	// TopicPaymentEvents — события реконсиляции оплаты
	// (payment.succeeded, payment.failed, payment.refunded).
	TopicPaymentEvents = "checkout.payment.events"
	// TopicDeadLetterQueue — Dead Letter Queue для failed messages.
	TopicDeadLetterQueue = "checkout.dlq"
)

// Kafka headers для retry логики
const (
	HeaderRetryCount    = "x-retry-count"
	HeaderOriginalTopic = "x-original-topic"
	HeaderErrorMessage  = "x-error-message"
	HeaderFailedAt      = "x-failed-at"
)

// TopicFor выбирает топик по типу события outbox.
func TopicFor(eventType string) string {
	switch eventType {
	case "payment.succeeded", "payment.failed", "payment.refunded":
		return TopicPaymentEvents
	default:
		return TopicOrderEvents
	}
}
