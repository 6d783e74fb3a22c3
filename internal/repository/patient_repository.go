package repository

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Leganyst/clinic-booking/internal/model"
)

type PatientRepository interface {
	Create(ctx context.Context, patient *model.Patient) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Patient, error)
	FindByPhone(ctx context.Context, phone string) (*model.Patient, error)
	WithTx(tx *gorm.DB) PatientRepository
}

type GormPatientRepository struct {
	db *gorm.DB
}

func NewGormPatientRepository(db *gorm.DB) *GormPatientRepository {
	return &GormPatientRepository{db: db}
}

func (r *GormPatientRepository) WithTx(tx *gorm.DB) PatientRepository {
	return &GormPatientRepository{db: tx}
}

// NormalizePhone оставляет в номере только цифры.
func NormalizePhone(phone string) string {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return ""
	}
	b := make([]byte, 0, len(phone))
	for i := 0; i < len(phone); i++ {
		c := phone[i]
		if c >= '0' && c <= '9' {
			b = append(b, c)
		}
	}
	return string(b)
}

func (r *GormPatientRepository) Create(ctx context.Context, patient *model.Patient) error {
	patient.ContactPhone = NormalizePhone(patient.ContactPhone)
	return r.db.WithContext(ctx).Create(patient).Error
}

func (r *GormPatientRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Patient, error) {
	var p model.Patient
	if err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *GormPatientRepository) FindByPhone(ctx context.Context, phone string) (*model.Patient, error) {
	n := NormalizePhone(phone)
	if n == "" {
		return nil, gorm.ErrRecordNotFound
	}

	var p model.Patient
	if err := r.db.WithContext(ctx).Where("contact_phone = ?", n).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}
