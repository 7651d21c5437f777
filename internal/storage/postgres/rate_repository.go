package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/vladislavdragonenkov/checkout/internal/domain"
)

type rateRepository struct {
	db *sql.DB
}

// NewRateRepository создаёт PostgreSQL-реализацию RateRepository.
func NewRateRepository(store *Store) domain.RateRepository {
	return &rateRepository{db: store.DB()}
}

func (r *rateRepository) ListTaxRules() ([]domain.TaxRule, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, rate_percent, country, state, city, zip, is_global,
		       priority, created_at, updated_at
		FROM tax_rules
		ORDER BY priority DESC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list tax rules: %w", err)
	}
	defer rows.Close()

	rules := make([]domain.TaxRule, 0)
	for rows.Next() {
		var rule domain.TaxRule
		if err := rows.Scan(
			&rule.ID, &rule.Name, &rule.RatePercent,
			&rule.Scope.Country, &rule.Scope.State, &rule.Scope.City, &rule.Scope.Zip,
			&rule.Scope.IsGlobal, &rule.Priority, &rule.CreatedAt, &rule.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan tax rule: %w", err)
		}
		rules = append(rules, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tax rules: %w", err)
	}

	return rules, nil
}

func (r *rateRepository) ListShippingRules() ([]domain.ShippingRule, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, kind, amount_minor, percent, country, state, city, zip,
		       is_global, priority, created_at, updated_at
		FROM shipping_rules
		ORDER BY priority DESC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list shipping rules: %w", err)
	}
	defer rows.Close()

	rules := make([]domain.ShippingRule, 0)
	for rows.Next() {
		var (
			rule domain.ShippingRule
			kind string
		)
		if err := rows.Scan(
			&rule.ID, &rule.Name, &kind, &rule.AmountMinor, &rule.Percent,
			&rule.Scope.Country, &rule.Scope.State, &rule.Scope.City, &rule.Scope.Zip,
			&rule.Scope.IsGlobal, &rule.Priority, &rule.CreatedAt, &rule.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan shipping rule: %w", err)
		}
		rule.Kind = domain.ShippingKind(kind)
		rules = append(rules, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate shipping rules: %w", err)
	}

	return rules, nil
}

var _ domain.RateRepository = (*rateRepository)(nil)
