package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// patients
type Patient struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"`

	DisplayName  string `gorm:"type:varchar(255);not null"`
	ContactPhone string `gorm:"type:varchar(32)"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`

	// RESTRICT: бронь снимается только через отмену, которая освобождает слот.
	Bookings []Booking `gorm:"foreignKey:PatientID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
}

func (p *Patient) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
