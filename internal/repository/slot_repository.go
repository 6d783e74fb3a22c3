package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Leganyst/clinic-booking/internal/model"
)

const insertBatchSize = 200

type SlotRepository interface {
	// InsertMissing вставляет слоты, которых ещё нет по (window_id, starts_at, ends_at).
	// Существующие строки не трогаются. Возвращает число реально вставленных.
	InsertMissing(ctx context.Context, slots []model.Slot) (int64, error)
	// Все слоты окна по возрастанию начала.
	ListByWindow(ctx context.Context, windowID uuid.UUID) ([]model.Slot, error)
	// Свободные слоты врача с from <= starts_at < to по возрастанию начала.
	ListAvailableByDoctor(ctx context.Context, doctorID uuid.UUID, from, to time.Time) ([]model.Slot, error)
	// Найти слот по ID.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Slot, error)
	// MarkUnavailable атомарно переводит available true → false.
	// false без ошибки — слот уже занят или его нет.
	MarkUnavailable(ctx context.Context, id uuid.UUID) (bool, error)
	// MarkAvailable — обратный переход false → true.
	MarkAvailable(ctx context.Context, id uuid.UUID) (bool, error)
	// Врач, которому принадлежит слот.
	DoctorIDForSlot(ctx context.Context, id uuid.UUID) (uuid.UUID, error)
	WithTx(tx *gorm.DB) SlotRepository
}

type GormSlotRepository struct {
	db *gorm.DB
}

func NewGormSlotRepository(db *gorm.DB) *GormSlotRepository {
	return &GormSlotRepository{db: db}
}

func (r *GormSlotRepository) WithTx(tx *gorm.DB) SlotRepository {
	return &GormSlotRepository{db: tx}
}

func (r *GormSlotRepository) InsertMissing(ctx context.Context, slots []model.Slot) (int64, error) {
	if len(slots) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "window_id"},
				{Name: "starts_at"},
				{Name: "ends_at"},
			},
			DoNothing: true,
		}).
		CreateInBatches(&slots, insertBatchSize)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r *GormSlotRepository) ListByWindow(ctx context.Context, windowID uuid.UUID) ([]model.Slot, error) {
	var slots []model.Slot
	err := r.db.WithContext(ctx).
		Where("window_id = ?", windowID).
		Order("starts_at ASC").
		Find(&slots).Error
	if err != nil {
		return nil, err
	}
	return slots, nil
}

func (r *GormSlotRepository) ListAvailableByDoctor(
	ctx context.Context,
	doctorID uuid.UUID,
	from, to time.Time,
) ([]model.Slot, error) {
	var slots []model.Slot
	err := r.db.WithContext(ctx).
		Joins("JOIN windows ON windows.id = slots.window_id").
		Joins("JOIN availability_definitions ON availability_definitions.id = windows.availability_id").
		Where("availability_definitions.doctor_id = ?", doctorID).
		Where("slots.starts_at >= ? AND slots.starts_at < ?", from.UTC(), to.UTC()).
		Where("slots.available = ?", true).
		Select("slots.*").
		Order("slots.starts_at ASC, slots.id ASC").
		Find(&slots).Error
	if err != nil {
		return nil, err
	}
	return slots, nil
}

func (r *GormSlotRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Slot, error) {
	var slot model.Slot
	if err := r.db.WithContext(ctx).First(&slot, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &slot, nil
}

func (r *GormSlotRepository) MarkUnavailable(ctx context.Context, id uuid.UUID) (bool, error) {
	return r.flip(ctx, id, true)
}

func (r *GormSlotRepository) MarkAvailable(ctx context.Context, id uuid.UUID) (bool, error) {
	return r.flip(ctx, id, false)
}

// flip — условный UPDATE: строка меняется только из состояния from.
// В postgres второй конкурент ждёт блокировку строки и получает 0 строк.
func (r *GormSlotRepository) flip(ctx context.Context, id uuid.UUID, from bool) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&model.Slot{}).
		Where("id = ? AND available = ?", id, from).
		Update("available", !from)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *GormSlotRepository) DoctorIDForSlot(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	var row struct {
		DoctorID uuid.UUID
	}
	res := r.db.WithContext(ctx).
		Table("slots").
		Select("availability_definitions.doctor_id AS doctor_id").
		Joins("JOIN windows ON windows.id = slots.window_id").
		Joins("JOIN availability_definitions ON availability_definitions.id = windows.availability_id").
		Where("slots.id = ?", id).
		Limit(1).
		Scan(&row)
	if res.Error != nil {
		return uuid.Nil, res.Error
	}
	if res.RowsAffected == 0 {
		return uuid.Nil, gorm.ErrRecordNotFound
	}
	return row.DoctorID, nil
}
