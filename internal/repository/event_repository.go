package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Leganyst/clinic-booking/internal/model"
)

// EventRepository — журнал аудита.
type EventRepository interface {
	Create(ctx context.Context, event *model.Event) error
	ListByBooking(ctx context.Context, bookingID uuid.UUID) ([]model.Event, error)
	ListBySlot(ctx context.Context, slotID uuid.UUID) ([]model.Event, error)
	WithTx(tx *gorm.DB) EventRepository
}

type GormEventRepository struct {
	db *gorm.DB
}

func NewGormEventRepository(db *gorm.DB) *GormEventRepository {
	return &GormEventRepository{db: db}
}

func (r *GormEventRepository) WithTx(tx *gorm.DB) EventRepository {
	return &GormEventRepository{db: tx}
}

func (r *GormEventRepository) Create(ctx context.Context, event *model.Event) error {
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *GormEventRepository) ListByBooking(ctx context.Context, bookingID uuid.UUID) ([]model.Event, error) {
	return r.list(ctx, "booking_id = ?", bookingID)
}

func (r *GormEventRepository) ListBySlot(ctx context.Context, slotID uuid.UUID) ([]model.Event, error) {
	return r.list(ctx, "slot_id = ?", slotID)
}

func (r *GormEventRepository) list(ctx context.Context, cond string, id uuid.UUID) ([]model.Event, error) {
	var events []model.Event
	err := r.db.WithContext(ctx).
		Where(cond, id).
		Order("created_at ASC").
		Find(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}
