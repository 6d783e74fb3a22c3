package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// bookings
// Уникальный индекс по slot_id: не больше одной брони на слот.
type Booking struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey"`
	PatientID uuid.UUID  `gorm:"type:uuid;not null;index"`
	SlotID    *uuid.UUID `gorm:"type:uuid;uniqueIndex"`
	Comment   string     `gorm:"type:text"`
	CreatedAt time.Time  `gorm:"not null;index"`
	UpdatedAt time.Time  `gorm:"not null"`

	Slot *Slot `gorm:"foreignKey:SlotID;constraint:-"`
}

func (b *Booking) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}
