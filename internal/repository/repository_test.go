package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/Leganyst/clinic-booking/internal/dbtest"
	"github.com/Leganyst/clinic-booking/internal/model"
)

type fixture struct {
	db      *gorm.DB
	doctor  model.Doctor
	patient model.Patient
	def     model.AvailabilityDefinition
	window  model.Window
}

func date(y int, m time.Month, d int) datatypes.Date {
	return datatypes.Date(time.Date(y, m, d, 0, 0, 0, 0, time.UTC))
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	f := &fixture{db: dbtest.New(t)}

	f.doctor = model.Doctor{DisplayName: "Dr. House"}
	require.NoError(t, NewGormDoctorRepository(f.db).Create(ctx, &f.doctor))

	f.patient = model.Patient{DisplayName: "John Doe", ContactPhone: "+7 (900) 123-45-67"}
	require.NoError(t, NewGormPatientRepository(f.db).Create(ctx, &f.patient))

	f.def = f.addDefinition(t, f.doctor.ID)
	f.window = f.addWindow(t, f.def.ID, 8, 9)
	return f
}

func (f *fixture) addDefinition(t *testing.T, doctorID uuid.UUID) model.AvailabilityDefinition {
	t.Helper()
	def := model.AvailabilityDefinition{
		DoctorID:        doctorID,
		DateStart:       date(2025, 3, 10),
		DateEnd:         date(2025, 3, 11),
		SlotDurationMin: 30,
	}
	require.NoError(t, NewGormAvailabilityRepository(f.db).Create(context.Background(), &def))
	return def
}

func (f *fixture) addWindow(t *testing.T, defID uuid.UUID, fromHour, toHour int) model.Window {
	t.Helper()
	w := model.Window{
		AvailabilityID: defID,
		DailyStart:     datatypes.NewTime(fromHour, 0, 0, 0),
		DailyEnd:       datatypes.NewTime(toHour, 0, 0, 0),
	}
	require.NoError(t, NewGormWindowRepository(f.db).Create(context.Background(), &w))
	return w
}

func slotsFor(windowID uuid.UUID, starts ...time.Time) []model.Slot {
	out := make([]model.Slot, 0, len(starts))
	for _, s := range starts {
		out = append(out, model.Slot{
			WindowID:  windowID,
			StartsAt:  s,
			EndsAt:    s.Add(30 * time.Minute),
			Available: true,
		})
	}
	return out
}

func at(day, hour, min int) time.Time {
	return time.Date(2025, 3, day, hour, min, 0, 0, time.UTC)
}

func TestSlotRepository_InsertMissingIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	repo := NewGormSlotRepository(f.db)

	inserted, err := repo.InsertMissing(ctx, slotsFor(f.window.ID, at(10, 8, 0), at(10, 8, 30)))
	require.NoError(t, err)
	assert.EqualValues(t, 2, inserted)

	first, err := repo.ListByWindow(ctx, f.window.ID)
	require.NoError(t, err)
	require.Len(t, first, 2)

	inserted, err = repo.InsertMissing(ctx, slotsFor(f.window.ID, at(10, 8, 0), at(10, 8, 30), at(11, 8, 0)))
	require.NoError(t, err)
	assert.EqualValues(t, 1, inserted)

	second, err := repo.ListByWindow(ctx, f.window.ID)
	require.NoError(t, err)
	require.Len(t, second, 3)
	assert.Equal(t, first[0].ID, second[0].ID)
	assert.Equal(t, first[1].ID, second[1].ID)
	assert.True(t, second[0].StartsAt.Equal(at(10, 8, 0)))
}

func TestSlotRepository_InsertMissingKeepsAvailableFlag(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	repo := NewGormSlotRepository(f.db)

	_, err := repo.InsertMissing(ctx, slotsFor(f.window.ID, at(10, 8, 0)))
	require.NoError(t, err)
	slots, err := repo.ListByWindow(ctx, f.window.ID)
	require.NoError(t, err)

	ok, err := repo.MarkUnavailable(ctx, slots[0].ID)
	require.NoError(t, err)
	require.True(t, ok)

	_, err = repo.InsertMissing(ctx, slotsFor(f.window.ID, at(10, 8, 0)))
	require.NoError(t, err)

	got, err := repo.GetByID(ctx, slots[0].ID)
	require.NoError(t, err)
	assert.False(t, got.Available)
}

func TestSlotRepository_ConditionalFlip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	repo := NewGormSlotRepository(f.db)

	_, err := repo.InsertMissing(ctx, slotsFor(f.window.ID, at(10, 8, 0)))
	require.NoError(t, err)
	slots, err := repo.ListByWindow(ctx, f.window.ID)
	require.NoError(t, err)
	id := slots[0].ID

	ok, err := repo.MarkUnavailable(ctx, id)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.MarkUnavailable(ctx, id)
	require.NoError(t, err)
	assert.False(t, ok, "second flip must not match")

	ok, err = repo.MarkAvailable(ctx, id)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.MarkUnavailable(ctx, uuid.New())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSlotRepository_ListAvailableByDoctor(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	repo := NewGormSlotRepository(f.db)

	other := model.Doctor{DisplayName: "Dr. Watson"}
	require.NoError(t, NewGormDoctorRepository(f.db).Create(ctx, &other))
	otherWindow := f.addWindow(t, f.addDefinition(t, other.ID).ID, 8, 9)

	_, err := repo.InsertMissing(ctx, slotsFor(f.window.ID, at(10, 8, 30), at(10, 8, 0), at(11, 8, 0), at(11, 8, 30)))
	require.NoError(t, err)
	_, err = repo.InsertMissing(ctx, slotsFor(otherWindow.ID, at(10, 8, 0)))
	require.NoError(t, err)

	all, err := repo.ListByWindow(ctx, f.window.ID)
	require.NoError(t, err)
	_, err = repo.MarkUnavailable(ctx, all[1].ID)
	require.NoError(t, err)

	slots, err := repo.ListAvailableByDoctor(ctx, f.doctor.ID, at(10, 0, 0), at(12, 0, 0))
	require.NoError(t, err)
	require.Len(t, slots, 3)
	assert.True(t, slots[0].StartsAt.Equal(at(10, 8, 0)))
	assert.True(t, slots[1].StartsAt.Equal(at(11, 8, 0)))
	assert.True(t, slots[2].StartsAt.Equal(at(11, 8, 30)))

	// Правая граница исключается.
	slots, err = repo.ListAvailableByDoctor(ctx, f.doctor.ID, at(10, 0, 0), at(11, 8, 30))
	require.NoError(t, err)
	assert.Len(t, slots, 2)
}

func TestSlotRepository_DoctorIDForSlot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	repo := NewGormSlotRepository(f.db)

	_, err := repo.InsertMissing(ctx, slotsFor(f.window.ID, at(10, 8, 0)))
	require.NoError(t, err)
	slots, err := repo.ListByWindow(ctx, f.window.ID)
	require.NoError(t, err)

	doctorID, err := repo.DoctorIDForSlot(ctx, slots[0].ID)
	require.NoError(t, err)
	assert.Equal(t, f.doctor.ID, doctorID)

	_, err = repo.DoctorIDForSlot(ctx, uuid.New())
	assert.True(t, IsNotFound(err))
}

func TestBookingRepository_UniqueSlot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	slotRepo := NewGormSlotRepository(f.db)
	repo := NewGormBookingRepository(f.db)

	_, err := slotRepo.InsertMissing(ctx, slotsFor(f.window.ID, at(10, 8, 0)))
	require.NoError(t, err)
	slots, err := slotRepo.ListByWindow(ctx, f.window.ID)
	require.NoError(t, err)
	slotID := slots[0].ID

	require.NoError(t, repo.Create(ctx, &model.Booking{PatientID: f.patient.ID, SlotID: &slotID}))

	err = repo.Create(ctx, &model.Booking{PatientID: f.patient.ID, SlotID: &slotID})
	require.Error(t, err)
	assert.True(t, IsUniqueViolation(err), "expected unique violation, got %v", err)
}

func TestBookingRepository_DeleteTwice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	slotRepo := NewGormSlotRepository(f.db)
	repo := NewGormBookingRepository(f.db)

	_, err := slotRepo.InsertMissing(ctx, slotsFor(f.window.ID, at(10, 8, 0)))
	require.NoError(t, err)
	slots, err := slotRepo.ListByWindow(ctx, f.window.ID)
	require.NoError(t, err)

	b := model.Booking{PatientID: f.patient.ID, SlotID: &slots[0].ID, Comment: "first visit"}
	require.NoError(t, repo.Create(ctx, &b))

	got, err := repo.GetBySlotID(ctx, slots[0].ID)
	require.NoError(t, err)
	assert.Equal(t, b.ID, got.ID)

	require.NoError(t, repo.Delete(ctx, b.ID))
	assert.True(t, IsNotFound(repo.Delete(ctx, b.ID)))

	_, err = slotRepo.GetByID(ctx, slots[0].ID)
	assert.NoError(t, err, "deleting a booking must keep the slot")
}

func TestBookingRepository_ListByPatientAndRange(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	slotRepo := NewGormSlotRepository(f.db)
	repo := NewGormBookingRepository(f.db)

	_, err := slotRepo.InsertMissing(ctx, slotsFor(f.window.ID, at(10, 8, 0), at(10, 8, 30), at(11, 8, 0)))
	require.NoError(t, err)
	slots, err := slotRepo.ListByWindow(ctx, f.window.ID)
	require.NoError(t, err)

	for i := len(slots) - 1; i >= 0; i-- {
		require.NoError(t, repo.Create(ctx, &model.Booking{PatientID: f.patient.ID, SlotID: &slots[i].ID}))
	}

	bookings, total, err := repo.ListByPatientAndRange(ctx, f.patient.ID, at(10, 0, 0), at(11, 0, 0), 0, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, bookings, 2)
	require.NotNil(t, bookings[0].Slot)
	assert.True(t, bookings[0].Slot.StartsAt.Equal(at(10, 8, 0)))

	bookings, total, err = repo.ListByPatientAndRange(ctx, f.patient.ID, at(10, 0, 0), at(12, 0, 0), 1, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	require.Len(t, bookings, 1)
	assert.Equal(t, slots[2].ID, *bookings[0].SlotID)
}

func TestAvailabilityRepository_DeleteCascades(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	slotRepo := NewGormSlotRepository(f.db)
	repo := NewGormAvailabilityRepository(f.db)

	_, err := slotRepo.InsertMissing(ctx, slotsFor(f.window.ID, at(10, 8, 0)))
	require.NoError(t, err)
	slots, err := slotRepo.ListByWindow(ctx, f.window.ID)
	require.NoError(t, err)
	b := model.Booking{PatientID: f.patient.ID, SlotID: &slots[0].ID}
	require.NoError(t, NewGormBookingRepository(f.db).Create(ctx, &b))

	require.NoError(t, repo.Delete(ctx, f.def.ID))

	var count int64
	require.NoError(t, f.db.Model(&model.Window{}).Count(&count).Error)
	assert.Zero(t, count)
	require.NoError(t, f.db.Model(&model.Slot{}).Count(&count).Error)
	assert.Zero(t, count)
	require.NoError(t, f.db.Model(&model.Booking{}).Count(&count).Error)
	assert.Zero(t, count)

	assert.True(t, IsNotFound(repo.Delete(ctx, f.def.ID)))
}

func TestWindowRepository_DeleteCascades(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	slotRepo := NewGormSlotRepository(f.db)
	repo := NewGormWindowRepository(f.db)

	evening := f.addWindow(t, f.def.ID, 18, 19)
	_, err := slotRepo.InsertMissing(ctx, slotsFor(f.window.ID, at(10, 8, 0)))
	require.NoError(t, err)
	_, err = slotRepo.InsertMissing(ctx, slotsFor(evening.ID, at(10, 18, 0)))
	require.NoError(t, err)

	windows, err := repo.ListByAvailability(ctx, f.def.ID)
	require.NoError(t, err)
	require.Len(t, windows, 2)
	assert.Equal(t, f.window.ID, windows[0].ID)

	require.NoError(t, repo.Delete(ctx, f.window.ID))

	left, err := slotRepo.ListByWindow(ctx, f.window.ID)
	require.NoError(t, err)
	assert.Empty(t, left)
	kept, err := slotRepo.ListByWindow(ctx, evening.ID)
	require.NoError(t, err)
	assert.Len(t, kept, 1)
}

func TestAvailabilityRepository_ListActive(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	repo := NewGormAvailabilityRepository(f.db)

	active, err := repo.ListActive(ctx, time.Date(2025, 3, 11, 15, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, f.def.ID, active[0].ID)
	assert.Equal(t, 30, active[0].SlotDurationMin)

	active, err = repo.ListActive(ctx, time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Empty(t, active)

	defs, err := repo.ListByDoctor(ctx, f.doctor.ID)
	require.NoError(t, err)
	assert.Len(t, defs, 1)
}

func TestPatientRepository_Phone(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	repo := NewGormPatientRepository(f.db)

	assert.Equal(t, "79001234567", f.patient.ContactPhone)

	p, err := repo.FindByPhone(ctx, "7-900-123-45-67")
	require.NoError(t, err)
	assert.Equal(t, f.patient.ID, p.ID)

	_, err = repo.FindByPhone(ctx, "  ")
	assert.True(t, IsNotFound(err))
}

func TestEventRepository(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	repo := NewGormEventRepository(f.db)

	bookingID := uuid.New()
	require.NoError(t, repo.Create(ctx, &model.Event{EventType: model.EventTypeBookingCreated, BookingID: &bookingID}))
	require.NoError(t, repo.Create(ctx, &model.Event{EventType: model.EventTypeBookingCancelled, BookingID: &bookingID}))

	events, err := repo.ListByBooking(ctx, bookingID)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, model.EventTypeBookingCreated, events[0].EventType)
}

func TestIsUniqueViolation(t *testing.T) {
	assert.False(t, IsUniqueViolation(nil))
	assert.False(t, IsUniqueViolation(gorm.ErrRecordNotFound))
	assert.True(t, IsUniqueViolation(gorm.ErrDuplicatedKey))
}

func TestPatientDelete_RestrictedWhileBooked(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	slotRepo := NewGormSlotRepository(f.db)
	repo := NewGormBookingRepository(f.db)

	_, err := slotRepo.InsertMissing(ctx, slotsFor(f.window.ID, at(10, 8, 0)))
	require.NoError(t, err)
	slots, err := slotRepo.ListByWindow(ctx, f.window.ID)
	require.NoError(t, err)

	ok, err := slotRepo.MarkUnavailable(ctx, slots[0].ID)
	require.NoError(t, err)
	require.True(t, ok)
	b := model.Booking{PatientID: f.patient.ID, SlotID: &slots[0].ID}
	require.NoError(t, repo.Create(ctx, &b))

	err = f.db.WithContext(ctx).Delete(&model.Patient{ID: f.patient.ID}).Error
	require.Error(t, err, "a patient with bookings must not be deleted underneath them")

	got, err := repo.GetBySlotID(ctx, slots[0].ID)
	require.NoError(t, err)
	assert.Equal(t, b.ID, got.ID)
}
