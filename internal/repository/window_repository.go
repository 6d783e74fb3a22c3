package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Leganyst/clinic-booking/internal/model"
)

type WindowRepository interface {
	Create(ctx context.Context, window *model.Window) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Window, error)
	ListByAvailability(ctx context.Context, availabilityID uuid.UUID) ([]model.Window, error)
	// Delete удаляет окно вместе со слотами и их бронями.
	Delete(ctx context.Context, id uuid.UUID) error
	WithTx(tx *gorm.DB) WindowRepository
}

type GormWindowRepository struct {
	db *gorm.DB
}

func NewGormWindowRepository(db *gorm.DB) *GormWindowRepository {
	return &GormWindowRepository{db: db}
}

func (r *GormWindowRepository) WithTx(tx *gorm.DB) WindowRepository {
	return &GormWindowRepository{db: tx}
}

func (r *GormWindowRepository) Create(ctx context.Context, window *model.Window) error {
	return r.db.WithContext(ctx).Create(window).Error
}

func (r *GormWindowRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Window, error) {
	var w model.Window
	if err := r.db.WithContext(ctx).First(&w, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &w, nil
}

func (r *GormWindowRepository) ListByAvailability(ctx context.Context, availabilityID uuid.UUID) ([]model.Window, error) {
	var windows []model.Window
	err := r.db.WithContext(ctx).
		Where("availability_id = ?", availabilityID).
		Order("daily_start ASC").
		Find(&windows).Error
	if err != nil {
		return nil, err
	}
	return windows, nil
}

func (r *GormWindowRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		slots := tx.Model(&model.Slot{}).Select("id").Where("window_id = ?", id)

		if err := tx.Where("slot_id IN (?)", slots).Delete(&model.Booking{}).Error; err != nil {
			return err
		}
		if err := tx.Where("window_id = ?", id).Delete(&model.Slot{}).Error; err != nil {
			return err
		}

		res := tx.Delete(&model.Window{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
