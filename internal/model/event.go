package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Тип события аудита.
type EventType string

const (
	EventTypeSlotsGenerated   EventType = "slots_generated"
	EventTypeBookingCreated   EventType = "booking_created"
	EventTypeBookingCancelled EventType = "booking_cancelled"
	EventTypeSlotWithdrawn    EventType = "slot_withdrawn"
	EventTypeSlotReinstated   EventType = "slot_reinstated"
)

// events — события аудита. Ссылки без внешних ключей: запись должна
// пережить удаление брони или слота, на которые указывает.
type Event struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"`

	EventType EventType `gorm:"type:varchar(64);not null;index"`

	CreatedAt time.Time `gorm:"not null;index"`

	DoctorID  *uuid.UUID `gorm:"type:uuid;index"`
	PatientID *uuid.UUID `gorm:"type:uuid;index"`
	BookingID *uuid.UUID `gorm:"type:uuid;index"`
	SlotID    *uuid.UUID `gorm:"type:uuid;index"`
	WindowID  *uuid.UUID `gorm:"type:uuid;index"`

	Details string `gorm:"type:text"`
}

func (e *Event) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
