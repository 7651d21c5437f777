package checkout

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/checkout/internal/domain"
	"github.com/vladislavdragonenkov/checkout/internal/metrics"
	"github.com/vladislavdragonenkov/checkout/internal/service/coupon"
	"github.com/vladislavdragonenkov/checkout/internal/service/rating"
)

// QuoteTTL — срок жизни котировки. После истечения создание заказа по
// её подписи завершается ErrStaleQuote.
const QuoteTTL = 15 * time.Minute

// CartItem — позиция корзины на входе проверки.
type CartItem struct {
	ProductID string
	Qty       int
}

// QuoteLine — позиция котировки с ценой на момент проверки.
type QuoteLine struct {
	ProductID      string
	Name           string
	Qty            int
	UnitPriceMinor int64
	SubtotalMinor  int64
}

// Quote — кешируемый итог предоплатной проверки корзины. Signature
// связывает состав и суммы: заказ принимается только по живой подписи.
// Недоступные позиции не прерывают проверку, а попадают в
// UnavailableProducts; итоги считаются по доступным позициям.
type Quote struct {
	CustomerID          string
	Lines               []QuoteLine
	SubtotalMinor       int64
	SalesTaxMinor       int64
	DeliveryFeeMinor    int64
	DiscountMinor       int64
	TotalMinor          int64
	CouponID            string
	UnavailableProducts []string
	Destination         domain.Destination
	Signature           string
	ExpiresAt           time.Time
}

// Verifier выполняет предоплатную проверку корзины: существование и
// доступность товаров, пересчёт цен по каталогу, налог, доставка,
// купон. Результат подписывается и кладётся в QuoteStore.
type Verifier struct {
	catalog   domain.CatalogService
	directory domain.CustomerDirectory
	coupons   *coupon.Validator
	rating    *rating.Calculator
	quotes    domain.QuoteStore
	metrics   *metrics.CheckoutMetrics
	logger    *log.Entry
	now       func() time.Time
}

// NewVerifier создаёт проверяющий сервис оформления заказа.
func NewVerifier(
	catalog domain.CatalogService,
	directory domain.CustomerDirectory,
	coupons *coupon.Validator,
	rating *rating.Calculator,
	quotes domain.QuoteStore,
	logger *log.Entry,
) *Verifier {
	if logger == nil {
		logger = log.New().WithField("component", "checkout-verifier")
	}
	return &Verifier{
		catalog:   catalog,
		directory: directory,
		coupons:   coupons,
		rating:    rating,
		quotes:    quotes,
		logger:    logger,
		now:       time.Now,
	}
}

// SetNow подменяет источник времени в тестах.
func (v *Verifier) SetNow(now func() time.Time) { v.now = now }

// SetMetrics подключает метрики котировок.
func (v *Verifier) SetMetrics(m *metrics.CheckoutMetrics) { v.metrics = m }

// Verify проверяет корзину и возвращает подписанную котировку,
// регистрируя подпись в хранилище на время QuoteTTL.
func (v *Verifier) Verify(ctx context.Context, customerID string, items []CartItem, dest domain.Destination, couponCode string) (Quote, error) {
	quote, err := v.Price(ctx, customerID, items, dest, couponCode)
	if err != nil {
		if v.metrics != nil && domain.IsCouponError(err) {
			v.metrics.RecordCouponRejected(err.Error())
		}
		return Quote{}, err
	}

	if err := v.quotes.Put(ctx, quote.Signature, QuoteTTL); err != nil {
		return Quote{}, fmt.Errorf("store quote signature: %w", err)
	}

	if v.metrics != nil {
		v.metrics.RecordQuoteIssued()
	}
	v.logger.WithFields(log.Fields{
		"customer": customerID,
		"total":    quote.TotalMinor,
	}).Info("quote issued")

	return quote, nil
}

// Price пересчитывает корзину без побочных эффектов. Цены берутся из
// каталога, а не из запроса. Пустой couponCode означает оформление
// без купона.
func (v *Verifier) Price(ctx context.Context, customerID string, items []CartItem, dest domain.Destination, couponCode string) (Quote, error) {
	if len(items) == 0 {
		return Quote{}, domain.ErrItemsRequired
	}
	if _, err := v.directory.Customer(ctx, customerID); err != nil {
		return Quote{}, err
	}

	now := v.now()

	lines := make([]QuoteLine, 0, len(items))
	var unavailable []string
	var subtotal int64
	for _, item := range items {
		if item.Qty <= 0 {
			return Quote{}, fmt.Errorf("product %s: %w", item.ProductID, domain.ErrItemQtyInvalid)
		}
		product, err := v.catalog.Product(ctx, item.ProductID)
		if errors.Is(err, domain.ErrProductNotFound) {
			unavailable = append(unavailable, item.ProductID)
			continue
		}
		if err != nil {
			return Quote{}, err
		}
		if !product.Purchasable || product.Stock < int32(item.Qty) {
			unavailable = append(unavailable, item.ProductID)
			continue
		}
		lineSubtotal := product.PriceMinor * int64(item.Qty)
		lines = append(lines, QuoteLine{
			ProductID:      product.ID,
			Name:           product.Name,
			Qty:            item.Qty,
			UnitPriceMinor: product.PriceMinor,
			SubtotalMinor:  lineSubtotal,
		})
		subtotal += lineSubtotal
	}

	quote := Quote{
		CustomerID:          customerID,
		Lines:               lines,
		SubtotalMinor:       subtotal,
		UnavailableProducts: unavailable,
		Destination:         dest,
		ExpiresAt:           now.Add(QuoteTTL),
	}

	breakdown, err := v.rating.Compute(dest, subtotal)
	if err != nil {
		return Quote{}, err
	}
	quote.SalesTaxMinor = breakdown.SalesTaxMinor
	quote.DeliveryFeeMinor = breakdown.DeliveryFeeMinor

	if couponCode != "" {
		result, err := v.coupons.Validate(couponCode, subtotal, now)
		if err != nil {
			return Quote{}, err
		}
		quote.CouponID = result.CouponID
		quote.DiscountMinor = result.DiscountMinor
		if result.FreeShipping {
			quote.DeliveryFeeMinor = 0
		}
	}

	quote.TotalMinor = quote.SubtotalMinor + quote.SalesTaxMinor + quote.DeliveryFeeMinor - quote.DiscountMinor
	quote.Signature = v.Sign(quote)

	return quote, nil
}

// CheckSignature проверяет, что подпись котировки ещё жива в хранилище.
func (v *Verifier) CheckSignature(ctx context.Context, signature string) error {
	if signature == "" {
		return domain.ErrQuoteNotFound
	}
	ok, err := v.quotes.Exists(ctx, signature)
	if err != nil {
		return fmt.Errorf("check quote signature: %w", err)
	}
	if !ok {
		return domain.ErrStaleQuote
	}
	return nil
}

// Sign детерминированно подписывает котировку: покупатель, позиции в
// порядке product_id, адрес назначения и все суммы. Любое изменение
// состава или расценок даёт другую подпись.
func (v *Verifier) Sign(q Quote) string {
	lines := make([]QuoteLine, len(q.Lines))
	copy(lines, q.Lines)
	sort.Slice(lines, func(i, j int) bool { return lines[i].ProductID < lines[j].ProductID })

	var b strings.Builder
	fmt.Fprintf(&b, "customer=%s;", q.CustomerID)
	for _, ln := range lines {
		fmt.Fprintf(&b, "item=%s:%d:%d;", ln.ProductID, ln.Qty, ln.UnitPriceMinor)
	}
	fmt.Fprintf(&b, "dest=%s|%s|%s|%s;", q.Destination.Country, q.Destination.State, q.Destination.City, q.Destination.Zip)
	fmt.Fprintf(&b, "coupon=%s;", q.CouponID)
	fmt.Fprintf(&b, "amounts=%d:%d:%d:%d:%d",
		q.SubtotalMinor, q.SalesTaxMinor, q.DeliveryFeeMinor, q.DiscountMinor, q.TotalMinor)

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}
