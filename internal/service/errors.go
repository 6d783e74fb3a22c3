package service

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/Leganyst/clinic-booking/internal/repository"
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
)

// ValidationError — некорректный ввод, поле и причина отдаются клиенту как есть.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// IsValidation сообщает, что err (или обёрнутая в нём ошибка) — ValidationError.
func IsValidation(err error) bool {
	var verr *ValidationError
	return errors.As(err, &verr)
}

func notFound(entity string, id uuid.UUID) error {
	return fmt.Errorf("%s %s: %w", entity, id, ErrNotFound)
}

func conflict(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrConflict)
}

// lookupErr переводит ошибку чтения сущности: отсутствие записи — ErrNotFound,
// остальное оборачивается как есть.
func lookupErr(entity string, id uuid.UUID, err error) error {
	if repository.IsNotFound(err) {
		return notFound(entity, id)
	}
	return fmt.Errorf("get %s %s: %w", entity, id, err)
}
