package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/vladislavdragonenkov/checkout/internal/domain"
)

const couponColumns = `
	id, code, type, amount, minimum_cart_amount_minor,
	active_from, expire_at, is_valid, is_approve, language, created_at, updated_at`

type couponRepository struct {
	db *sql.DB
}

// NewCouponRepository создаёт PostgreSQL-реализацию CouponRepository.
func NewCouponRepository(store *Store) domain.CouponRepository {
	return &couponRepository{db: store.DB()}
}

func (r *couponRepository) Create(coupon domain.Coupon) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO coupons (`+couponColumns+`
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
	`,
		coupon.ID, strings.ToUpper(coupon.Code), string(coupon.Type),
		coupon.Amount, coupon.MinimumCartAmountMinor,
		coupon.ActiveFrom, coupon.ExpireAt, coupon.IsValid, coupon.IsApprove,
		coupon.Language, coupon.CreatedAt, coupon.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert coupon: %w", err)
	}
	return nil
}

func (r *couponRepository) GetByCode(code string) (domain.Coupon, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	return r.scanOne(r.db.QueryRowContext(ctx,
		`SELECT `+couponColumns+` FROM coupons WHERE code = $1`, strings.ToUpper(code)))
}

func (r *couponRepository) Get(id string) (domain.Coupon, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	return r.scanOne(r.db.QueryRowContext(ctx,
		`SELECT `+couponColumns+` FROM coupons WHERE id = $1`, id))
}

func (r *couponRepository) scanOne(row *sql.Row) (domain.Coupon, error) {
	var (
		coupon     domain.Coupon
		couponType string
	)
	err := row.Scan(
		&coupon.ID, &coupon.Code, &couponType,
		&coupon.Amount, &coupon.MinimumCartAmountMinor,
		&coupon.ActiveFrom, &coupon.ExpireAt, &coupon.IsValid, &coupon.IsApprove,
		&coupon.Language, &coupon.CreatedAt, &coupon.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Coupon{}, domain.ErrCouponNotFound
		}
		return domain.Coupon{}, fmt.Errorf("select coupon: %w", err)
	}
	coupon.Type = domain.CouponType(couponType)
	return coupon, nil
}

var _ domain.CouponRepository = (*couponRepository)(nil)
