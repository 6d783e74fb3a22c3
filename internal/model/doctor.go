package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Doctor — врач, владелец определений доступности.
// Учётные записи и роли живут во внешней системе, здесь только ссылка.
type Doctor struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"`

	// Имя/отображаемое название в интерфейсе.
	DisplayName string `gorm:"type:varchar(255);not null"`

	// Краткое описание, специализация и т.п.
	Description string `gorm:"type:text"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`

	Availabilities []AvailabilityDefinition `gorm:"foreignKey:DoctorID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (d *Doctor) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}
