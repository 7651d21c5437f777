package memory

import (
	"sort"
	"sync"
	"time"

	"github.com/vladislavdragonenkov/checkout/internal/domain"
)

// statusRepositoryInMemory — in-memory справочник статусов заказа.
type statusRepositoryInMemory struct {
	mu     sync.RWMutex
	byID   map[string]domain.StatusRef
	bySlug map[string]string
}

// NewStatusRepository возвращает in-memory реализацию StatusRepository.
func NewStatusRepository() domain.StatusRepository {
	return &statusRepositoryInMemory{
		byID:   make(map[string]domain.StatusRef),
		bySlug: make(map[string]string),
	}
}

// Create сохраняет справочную строку, проверяя уникальность slug.
func (r *statusRepositoryInMemory) Create(ref domain.StatusRef) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.bySlug[ref.Slug]; exists {
		return domain.ErrStatusSlugConflict
	}
	r.byID[ref.ID] = ref
	r.bySlug[ref.Slug] = ref.ID
	return nil
}

// List возвращает строки в порядке поля serial.
func (r *statusRepositoryInMemory) List() ([]domain.StatusRef, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]domain.StatusRef, 0, len(r.byID))
	for _, ref := range r.byID {
		result = append(result, ref)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Serial != result[j].Serial {
			return result[i].Serial < result[j].Serial
		}
		return result[i].Slug < result[j].Slug
	})
	return result, nil
}

// Update перезаписывает строку; смена slug проверяется на уникальность.
func (r *statusRepositoryInMemory) Update(ref domain.StatusRef) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.byID[ref.ID]
	if !ok {
		return domain.ErrStatusNotFound
	}
	if ref.Slug != current.Slug {
		if _, taken := r.bySlug[ref.Slug]; taken {
			return domain.ErrStatusSlugConflict
		}
		delete(r.bySlug, current.Slug)
		r.bySlug[ref.Slug] = ref.ID
	}
	ref.UpdatedAt = time.Now().UTC()
	r.byID[ref.ID] = ref
	return nil
}

var _ domain.StatusRepository = (*statusRepositoryInMemory)(nil)
