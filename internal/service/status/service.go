package status

import (
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/checkout/internal/domain"
)

// Service управляет справочником декоративных статусов заказа.
// Справочник не влияет на машину переходов заказа.
type Service struct {
	statuses domain.StatusRepository
	logger   *log.Entry
	now      func() time.Time
}

// NewService создаёт сервис справочника статусов.
func NewService(statuses domain.StatusRepository, logger *log.Entry) *Service {
	if logger == nil {
		logger = log.New().WithField("component", "status-service")
	}
	return &Service{statuses: statuses, logger: logger, now: time.Now}
}

// Create добавляет справочный статус. Slug уникален.
func (s *Service) Create(ref domain.StatusRef) (domain.StatusRef, error) {
	if errs := ref.Validate(); len(errs) > 0 {
		return domain.StatusRef{}, errs[0]
	}
	if ref.ID == "" {
		ref.ID = uuid.NewString()
	}
	ref.CreatedAt = s.now()
	if err := s.statuses.Create(ref); err != nil {
		return domain.StatusRef{}, err
	}
	s.logger.WithField("slug", ref.Slug).Info("status ref created")
	return ref, nil
}

// List возвращает все справочные статусы в порядке serial.
func (s *Service) List() ([]domain.StatusRef, error) {
	return s.statuses.List()
}

// Update обновляет справочный статус по идентификатору.
func (s *Service) Update(ref domain.StatusRef) (domain.StatusRef, error) {
	if errs := ref.Validate(); len(errs) > 0 {
		return domain.StatusRef{}, errs[0]
	}
	if err := s.statuses.Update(ref); err != nil {
		return domain.StatusRef{}, err
	}
	return ref, nil
}
