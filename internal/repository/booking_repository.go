package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Leganyst/clinic-booking/internal/model"
)

type BookingRepository interface {
	// Создать новое бронирование.
	Create(ctx context.Context, booking *model.Booking) error
	// Получить бронирование по ID.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Booking, error)
	// Бронирование слота, если оно есть.
	GetBySlotID(ctx context.Context, slotID uuid.UUID) (*model.Booking, error)
	// Delete удаляет бронирование; gorm.ErrRecordNotFound, если удалять нечего.
	Delete(ctx context.Context, id uuid.UUID) error
	// Брони пациента, у которых слот начинается в [from, to), с пагинацией.
	ListByPatientAndRange(
		ctx context.Context,
		patientID uuid.UUID,
		from, to time.Time,
		limit, offset int,
	) ([]model.Booking, int64, error)
	WithTx(tx *gorm.DB) BookingRepository
}

// Реализация на GORM.
type GormBookingRepository struct {
	db *gorm.DB
}

func NewGormBookingRepository(db *gorm.DB) *GormBookingRepository {
	return &GormBookingRepository{db: db}
}

func (r *GormBookingRepository) WithTx(tx *gorm.DB) BookingRepository {
	return &GormBookingRepository{db: tx}
}

func (r *GormBookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	return r.db.WithContext(ctx).Omit("Slot").Create(booking).Error
}

func (r *GormBookingRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Booking, error) {
	var b model.Booking
	if err := r.db.WithContext(ctx).First(&b, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *GormBookingRepository) GetBySlotID(ctx context.Context, slotID uuid.UUID) (*model.Booking, error) {
	var b model.Booking
	if err := r.db.WithContext(ctx).First(&b, "slot_id = ?", slotID).Error; err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *GormBookingRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&model.Booking{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *GormBookingRepository) ListByPatientAndRange(
	ctx context.Context,
	patientID uuid.UUID,
	from, to time.Time,
	limit, offset int,
) ([]model.Booking, int64, error) {
	var (
		bookings []model.Booking
		total    int64
	)

	q := r.db.WithContext(ctx).
		Model(&model.Booking{}).
		Joins("JOIN slots ON slots.id = bookings.slot_id").
		Where("bookings.patient_id = ?", patientID).
		Where("slots.starts_at >= ? AND slots.starts_at < ?", from.UTC(), to.UTC())

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if limit > 0 {
		q = q.Limit(limit).Offset(offset)
	}

	err := q.Select("bookings.*").
		Preload("Slot").
		Order("slots.starts_at ASC").
		Find(&bookings).Error
	if err != nil {
		return nil, 0, err
	}

	return bookings, total, nil
}
