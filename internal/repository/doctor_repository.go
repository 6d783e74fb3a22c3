package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Leganyst/clinic-booking/internal/model"
)

type DoctorRepository interface {
	Create(ctx context.Context, doctor *model.Doctor) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Doctor, error)
	WithTx(tx *gorm.DB) DoctorRepository
}

type GormDoctorRepository struct {
	db *gorm.DB
}

func NewGormDoctorRepository(db *gorm.DB) *GormDoctorRepository {
	return &GormDoctorRepository{db: db}
}

func (r *GormDoctorRepository) WithTx(tx *gorm.DB) DoctorRepository {
	return &GormDoctorRepository{db: tx}
}

func (r *GormDoctorRepository) Create(ctx context.Context, doctor *model.Doctor) error {
	return r.db.WithContext(ctx).Create(doctor).Error
}

func (r *GormDoctorRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Doctor, error) {
	var d model.Doctor
	if err := r.db.WithContext(ctx).First(&d, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &d, nil
}
