package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/vladislavdragonenkov/checkout/internal/domain"
)

type statusRepository struct {
	db *sql.DB
}

// NewStatusRepository создаёт PostgreSQL-реализацию StatusRepository.
func NewStatusRepository(store *Store) domain.StatusRepository {
	return &statusRepository{db: store.DB()}
}

func (r *statusRepository) Create(ref domain.StatusRef) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO order_status_refs (
			id, name, color, serial, slug, language, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`,
		ref.ID, ref.Name, ref.Color, ref.Serial, ref.Slug, ref.Language,
		ref.CreatedAt, ref.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrStatusSlugConflict
		}
		return fmt.Errorf("insert status ref: %w", err)
	}
	return nil
}

func (r *statusRepository) List() ([]domain.StatusRef, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, color, serial, slug, language, created_at, updated_at
		FROM order_status_refs
		ORDER BY serial ASC, slug ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list status refs: %w", err)
	}
	defer rows.Close()

	refs := make([]domain.StatusRef, 0)
	for rows.Next() {
		var ref domain.StatusRef
		if err := rows.Scan(
			&ref.ID, &ref.Name, &ref.Color, &ref.Serial, &ref.Slug, &ref.Language,
			&ref.CreatedAt, &ref.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan status ref: %w", err)
		}
		refs = append(refs, ref)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate status refs: %w", err)
	}

	return refs, nil
}

func (r *statusRepository) Update(ref domain.StatusRef) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `
		UPDATE order_status_refs
		SET name = $1, color = $2, serial = $3, slug = $4, language = $5, updated_at = $6
		WHERE id = $7
	`,
		ref.Name, ref.Color, ref.Serial, ref.Slug, ref.Language, ref.UpdatedAt, ref.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrStatusSlugConflict
		}
		return fmt.Errorf("update status ref: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrStatusNotFound
	}
	return nil
}

var _ domain.StatusRepository = (*statusRepository)(nil)
