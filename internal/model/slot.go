package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// slots — конкретный интервал приёма, порождённый окном.
// Тройка (window_id, starts_at, ends_at) уникальна: на ней держится
// идемпотентная генерация.
type Slot struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"`

	WindowID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_slot_window_span,priority:1"`

	StartsAt time.Time `gorm:"not null;uniqueIndex:idx_slot_window_span,priority:2;index"`
	EndsAt   time.Time `gorm:"not null;uniqueIndex:idx_slot_window_span,priority:3"`

	// Меняется только сервисом бронирования.
	Available bool `gorm:"not null;default:true;index"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`

	Booking *Booking `gorm:"foreignKey:SlotID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (s *Slot) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// Duration возвращает длину слота.
func (s *Slot) Duration() time.Duration {
	return s.EndsAt.Sub(s.StartsAt)
}
