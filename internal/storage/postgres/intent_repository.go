package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/vladislavdragonenkov/checkout/internal/domain"
)

type intentRepository struct {
	db *sql.DB
}

// NewIntentRepository создаёт PostgreSQL-реализацию IntentRepository.
// Уникальный индекс (tracking_number, gateway) — страховка от гонки
// двух конкурентных getOrCreate.
func NewIntentRepository(store *Store) domain.IntentRepository {
	return &intentRepository{db: store.DB()}
}

func (r *intentRepository) Create(intent domain.PaymentIntent) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO payment_intents (
			id, tracking_number, gateway, external_id, client_secret,
			amount_minor, currency, status, raw, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
	`,
		intent.ID, intent.TrackingNumber, intent.Gateway, intent.ExternalID,
		intent.ClientSecret, intent.AmountMinor, intent.Currency, intent.Status,
		nullableBytes(intent.Raw), intent.CreatedAt, intent.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrIntentConflict
		}
		return fmt.Errorf("insert payment intent: %w", err)
	}
	return nil
}

func (r *intentRepository) GetByTracking(trackingNumber, gateway string) (domain.PaymentIntent, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	var (
		intent domain.PaymentIntent
		raw    []byte
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, tracking_number, gateway, external_id, client_secret,
		       amount_minor, currency, status, raw, created_at, updated_at
		FROM payment_intents
		WHERE tracking_number = $1 AND gateway = $2
	`, trackingNumber, gateway).Scan(
		&intent.ID, &intent.TrackingNumber, &intent.Gateway, &intent.ExternalID,
		&intent.ClientSecret, &intent.AmountMinor, &intent.Currency, &intent.Status,
		&raw, &intent.CreatedAt, &intent.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.PaymentIntent{}, domain.ErrIntentNotFound
		}
		return domain.PaymentIntent{}, fmt.Errorf("select payment intent: %w", err)
	}
	intent.Raw = raw
	return intent, nil
}

func (r *intentRepository) Update(intent domain.PaymentIntent) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `
		UPDATE payment_intents
		SET external_id = $1,
		    client_secret = $2,
		    amount_minor = $3,
		    currency = $4,
		    status = $5,
		    raw = $6,
		    updated_at = $7
		WHERE tracking_number = $8 AND gateway = $9
	`,
		intent.ExternalID, intent.ClientSecret, intent.AmountMinor,
		intent.Currency, intent.Status, nullableBytes(intent.Raw), intent.UpdatedAt,
		intent.TrackingNumber, intent.Gateway,
	)
	if err != nil {
		return fmt.Errorf("update payment intent: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrIntentNotFound
	}
	return nil
}

func nullableBytes(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return b
}

var _ domain.IntentRepository = (*intentRepository)(nil)
