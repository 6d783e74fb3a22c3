package repository

import "gorm.io/gorm"

// Repositories — набор репозиториев поверх одного *gorm.DB.
// WithTx переносит весь набор в транзакцию.
type Repositories struct {
	Doctors      DoctorRepository
	Patients     PatientRepository
	Availability AvailabilityRepository
	Windows      WindowRepository
	Slots        SlotRepository
	Bookings     BookingRepository
	Events       EventRepository
}

func NewGormRepositories(db *gorm.DB) Repositories {
	return Repositories{
		Doctors:      NewGormDoctorRepository(db),
		Patients:     NewGormPatientRepository(db),
		Availability: NewGormAvailabilityRepository(db),
		Windows:      NewGormWindowRepository(db),
		Slots:        NewGormSlotRepository(db),
		Bookings:     NewGormBookingRepository(db),
		Events:       NewGormEventRepository(db),
	}
}

func (r Repositories) WithTx(tx *gorm.DB) Repositories {
	return Repositories{
		Doctors:      r.Doctors.WithTx(tx),
		Patients:     r.Patients.WithTx(tx),
		Availability: r.Availability.WithTx(tx),
		Windows:      r.Windows.WithTx(tx),
		Slots:        r.Slots.WithTx(tx),
		Bookings:     r.Bookings.WithTx(tx),
		Events:       r.Events.WithTx(tx),
	}
}
