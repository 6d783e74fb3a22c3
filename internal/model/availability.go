package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Значения по умолчанию для новых определений и окон.
const (
	DefaultSlotDurationMin = 30
	DefaultDailyStartHour  = 8
	DefaultDailyEndHour    = 22
)

// availability_definitions — период, в который врач принимает, и длительность приёма.
type AvailabilityDefinition struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"`

	DoctorID uuid.UUID `gorm:"type:uuid;not null;index"`

	// Чистые даты без времени — datatypes.Date, обе границы включительно.
	DateStart datatypes.Date `gorm:"type:date;not null"`
	DateEnd   datatypes.Date `gorm:"type:date;not null;index"`

	SlotDurationMin int `gorm:"not null"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`

	Windows []Window `gorm:"foreignKey:AvailabilityID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (a *AvailabilityDefinition) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

func (a *AvailabilityDefinition) SlotDuration() time.Duration {
	return time.Duration(a.SlotDurationMin) * time.Minute
}

// windows — дневной интервал приёма внутри определения доступности.
type Window struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"`

	AvailabilityID uuid.UUID `gorm:"type:uuid;not null;index"`

	// Время суток без даты.
	DailyStart datatypes.Time `gorm:"type:time;not null"`
	DailyEnd   datatypes.Time `gorm:"type:time;not null"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`

	Slots []Slot `gorm:"foreignKey:WindowID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (w *Window) BeforeCreate(tx *gorm.DB) error {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	return nil
}
