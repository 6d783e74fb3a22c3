// Package cache кэширует выдачу свободных слотов врача.
// Кэш никогда не решает, можно ли забронировать слот: бронь всегда идёт в БД.
package cache

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/Leganyst/clinic-booking/internal/model"
)

type SlotCache interface {
	// GetAvailable возвращает закэшированный список и поколение врача на
	// момент чтения; ok=false — промах. На промахе gen читается до запроса
	// к БД и передаётся в PutAvailable.
	GetAvailable(ctx context.Context, doctorID uuid.UUID, from, to time.Time) (slots []model.Slot, gen int64, ok bool, err error)
	// PutAvailable пишет выборку под поколением gen. Если врача успели
	// инвалидировать, запись ляжет под мёртвый ключ и читаться не будет.
	PutAvailable(ctx context.Context, doctorID uuid.UUID, gen int64, from, to time.Time, slots []model.Slot) error
	// InvalidateDoctor делает все закэшированные выборки врача недействительными.
	InvalidateDoctor(ctx context.Context, doctorID uuid.UUID) error
}

// Noop — кэш по умолчанию, когда Redis не настроен.
type Noop struct{}

func (Noop) GetAvailable(context.Context, uuid.UUID, time.Time, time.Time) ([]model.Slot, int64, bool, error) {
	return nil, 0, false, nil
}

func (Noop) PutAvailable(context.Context, uuid.UUID, int64, time.Time, time.Time, []model.Slot) error {
	return nil
}

func (Noop) InvalidateDoctor(context.Context, uuid.UUID) error {
	return nil
}
