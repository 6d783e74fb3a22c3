package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/Leganyst/clinic-booking/internal/model"
)

type AvailabilityRepository interface {
	Create(ctx context.Context, def *model.AvailabilityDefinition) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.AvailabilityDefinition, error)
	// ListByDoctor возвращает определения врача, свежие первыми.
	ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]model.AvailabilityDefinition, error)
	// ListActive — определения, у которых date_end не раньше asOf.
	ListActive(ctx context.Context, asOf time.Time) ([]model.AvailabilityDefinition, error)
	// UpdateDateEnd меняет последнюю дату определения.
	UpdateDateEnd(ctx context.Context, id uuid.UUID, dateEnd datatypes.Date) error
	// Delete удаляет определение вместе с окнами, слотами и бронями.
	Delete(ctx context.Context, id uuid.UUID) error
	WithTx(tx *gorm.DB) AvailabilityRepository
}

type GormAvailabilityRepository struct {
	db *gorm.DB
}

func NewGormAvailabilityRepository(db *gorm.DB) *GormAvailabilityRepository {
	return &GormAvailabilityRepository{db: db}
}

func (r *GormAvailabilityRepository) WithTx(tx *gorm.DB) AvailabilityRepository {
	return &GormAvailabilityRepository{db: tx}
}

func (r *GormAvailabilityRepository) Create(ctx context.Context, def *model.AvailabilityDefinition) error {
	return r.db.WithContext(ctx).Create(def).Error
}

func (r *GormAvailabilityRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.AvailabilityDefinition, error) {
	var def model.AvailabilityDefinition
	if err := r.db.WithContext(ctx).First(&def, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &def, nil
}

func (r *GormAvailabilityRepository) ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]model.AvailabilityDefinition, error) {
	var defs []model.AvailabilityDefinition
	err := r.db.WithContext(ctx).
		Where("doctor_id = ?", doctorID).
		Order("created_at DESC").
		Find(&defs).Error
	if err != nil {
		return nil, err
	}
	return defs, nil
}

func (r *GormAvailabilityRepository) ListActive(ctx context.Context, asOf time.Time) ([]model.AvailabilityDefinition, error) {
	y, m, d := asOf.Date()
	day := datatypes.Date(time.Date(y, m, d, 0, 0, 0, 0, time.UTC))

	var defs []model.AvailabilityDefinition
	err := r.db.WithContext(ctx).
		Where("date_end >= ?", day).
		Order("date_start ASC").
		Find(&defs).Error
	if err != nil {
		return nil, err
	}
	return defs, nil
}

func (r *GormAvailabilityRepository) UpdateDateEnd(ctx context.Context, id uuid.UUID, dateEnd datatypes.Date) error {
	res := r.db.WithContext(ctx).
		Model(&model.AvailabilityDefinition{}).
		Where("id = ?", id).
		Update("date_end", dateEnd)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *GormAvailabilityRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		windows := tx.Model(&model.Window{}).Select("id").Where("availability_id = ?", id)
		slots := tx.Model(&model.Slot{}).Select("id").Where("window_id IN (?)", windows)

		if err := tx.Where("slot_id IN (?)", slots).Delete(&model.Booking{}).Error; err != nil {
			return err
		}
		if err := tx.Where("window_id IN (?)", windows).Delete(&model.Slot{}).Error; err != nil {
			return err
		}
		if err := tx.Where("availability_id = ?", id).Delete(&model.Window{}).Error; err != nil {
			return err
		}

		res := tx.Delete(&model.AvailabilityDefinition{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
