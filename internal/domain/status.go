package domain

import "time"

// StatusRef — справочная строка статуса заказа для витрины (цвет, порядок
// отображения). Декоративна: не управляет переходами OrderStatus.
type StatusRef struct {
	ID       string
	Name     string
	Color    string
	Serial   int
	Slug     string
	Language string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Validate проверяет обязательные поля справочной строки.
func (s *StatusRef) Validate() []error {
	var errs []error

	if s.Name == "" {
		errs = append(errs, ErrStatusNameRequired)
	}
	if s.Slug == "" {
		errs = append(errs, ErrStatusSlugRequired)
	}

	return errs
}
