package gateway

// IdempotencyKey строит детерминированный ключ идемпотентности создания
// интента от tracking number. Повтор create после клиентского таймаута
// схлопывается шлюзом в один ресурс.
func IdempotencyKey(trackingNumber string) string {
	return "intent-" + trackingNumber
}
