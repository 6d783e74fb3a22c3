package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Leganyst/clinic-booking/internal/model"
)

func requireValidation(t *testing.T, err error, field string) {
	t.Helper()
	var verr *ValidationError
	require.True(t, errors.As(err, &verr), "expected ValidationError, got %v", err)
	assert.Equal(t, field, verr.Field)
}

func TestCreateAvailabilityDefinition_Validation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	doctor, err := env.availability.CreateDoctor(ctx, "Dr. Who", "")
	require.NoError(t, err)

	_, err = env.availability.CreateAvailabilityDefinition(ctx, doctor.ID, day(2025, 3, 10), day(2025, 3, 11), 0)
	requireValidation(t, err, "slot_duration_min")

	_, err = env.availability.CreateAvailabilityDefinition(ctx, doctor.ID, day(2025, 3, 10), day(2025, 3, 11), -15)
	requireValidation(t, err, "slot_duration_min")

	_, err = env.availability.CreateAvailabilityDefinition(ctx, doctor.ID, day(2025, 3, 12), day(2025, 3, 11), 30)
	requireValidation(t, err, "date_end")

	_, err = env.availability.CreateAvailabilityDefinition(ctx, uuid.New(), day(2025, 3, 10), day(2025, 3, 11), 30)
	assert.ErrorIs(t, err, ErrNotFound)

	def, err := env.availability.CreateAvailabilityDefinition(ctx, doctor.ID, day(2025, 3, 10), day(2025, 3, 10), 30)
	require.NoError(t, err, "single-day definition is valid")
	assert.Equal(t, 30*time.Minute, def.SlotDuration())
}

func TestCreateAvailabilityDefinition_TruncatesToDates(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	doctor, err := env.availability.CreateDoctor(ctx, "Dr. Who", "")
	require.NoError(t, err)

	def, err := env.availability.CreateAvailabilityDefinition(ctx, doctor.ID,
		time.Date(2025, 3, 10, 17, 45, 0, 0, time.UTC),
		time.Date(2025, 3, 11, 1, 0, 0, 0, time.UTC),
		30)
	require.NoError(t, err)

	stored, err := env.repos.Availability.GetByID(ctx, def.ID)
	require.NoError(t, err)
	y, m, d := time.Time(stored.DateStart).Date()
	assert.Equal(t, "2025-03-10", time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Format(time.DateOnly))
}

func TestCreateDoctorAndPatient_RequireName(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.availability.CreateDoctor(ctx, "   ", "")
	requireValidation(t, err, "display_name")

	_, err = env.availability.CreatePatient(ctx, "", "+1 555 0100")
	requireValidation(t, err, "display_name")

	p, err := env.availability.CreatePatient(ctx, "Jane Roe", "+1 (555) 0100")
	require.NoError(t, err)
	assert.Equal(t, "15550100", p.ContactPhone)
}

func TestFindPatientByPhone(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	p, err := env.availability.CreatePatient(ctx, "Jane Roe", "+1 (555) 0100")
	require.NoError(t, err)

	found, err := env.availability.FindPatientByPhone(ctx, "1-555-0100")
	require.NoError(t, err)
	assert.Equal(t, p.ID, found.ID)

	_, err = env.availability.FindPatientByPhone(ctx, "+1 555 0199")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = env.availability.FindPatientByPhone(ctx, " - ")
	requireValidation(t, err, "contact_phone")
}

func TestCreateWindow_Validation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	sc := env.schedule(t, day(2025, 3, 10), day(2025, 3, 11), 30, hm(8, 0), hm(12, 0))

	_, err := env.availability.CreateWindow(ctx, sc.def.ID, hm(22, 0), hm(6, 0))
	requireValidation(t, err, "daily_end")

	_, err = env.availability.CreateWindow(ctx, sc.def.ID, hm(14, 0), hm(14, 0))
	requireValidation(t, err, "daily_end")

	_, err = env.availability.CreateWindow(ctx, sc.def.ID, -time.Minute, hm(6, 0))
	requireValidation(t, err, "daily_start")

	_, err = env.availability.CreateWindow(ctx, sc.def.ID, hm(11, 0), hm(13, 0))
	requireValidation(t, err, "daily_start")

	_, err = env.availability.CreateWindow(ctx, uuid.New(), hm(14, 0), hm(15, 0))
	assert.ErrorIs(t, err, ErrNotFound)

	// Касание концами — не пересечение.
	w, err := env.availability.CreateWindow(ctx, sc.def.ID, hm(12, 0), hm(13, 0))
	require.NoError(t, err)
	assert.Equal(t, hm(12, 0), time.Duration(w.DailyStart))

	windows, err := env.repos.Windows.ListByAvailability(ctx, sc.def.ID)
	require.NoError(t, err)
	assert.Len(t, windows, 2)
}

func TestExtendAvailabilityDefinition(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	sc := env.schedule(t, day(2025, 3, 10), day(2025, 3, 11), 30, hm(8, 0), hm(9, 0))

	_, err := env.availability.ExtendAvailabilityDefinition(ctx, sc.def.ID, day(2025, 3, 10))
	requireValidation(t, err, "date_end")

	_, err = env.availability.ExtendAvailabilityDefinition(ctx, uuid.New(), day(2025, 3, 20))
	assert.ErrorIs(t, err, ErrNotFound)

	def, err := env.availability.ExtendAvailabilityDefinition(ctx, sc.def.ID, day(2025, 3, 12))
	require.NoError(t, err)
	y, m, d := time.Time(def.DateEnd).Date()
	assert.Equal(t, day(2025, 3, 12), time.Date(y, m, d, 0, 0, 0, 0, time.UTC))
}

func TestDeleteAvailabilityDefinition_Cascades(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	sc, slots := env.generated(t)
	patient := env.patient(t, "John Doe")

	booking, err := env.bookings.Book(ctx, slots[0].ID, patient.ID, "")
	require.NoError(t, err)

	before := env.cache.invalidations(sc.doctor.ID)
	require.NoError(t, env.availability.DeleteAvailabilityDefinition(ctx, sc.def.ID))
	assert.Greater(t, env.cache.invalidations(sc.doctor.ID), before)

	_, err = env.repos.Bookings.GetByID(ctx, booking.ID)
	assert.Error(t, err)

	available, err := env.bookings.ListAvailableSlots(ctx, sc.doctor.ID, wholeMarch())
	require.NoError(t, err)
	assert.Empty(t, available)

	assert.ErrorIs(t, env.availability.DeleteAvailabilityDefinition(ctx, sc.def.ID), ErrNotFound)
}

func TestDeleteWindow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	sc, _ := env.generated(t)

	require.NoError(t, env.availability.DeleteWindow(ctx, sc.window.ID))

	var count int64
	require.NoError(t, env.db.Model(&model.Slot{}).Where("window_id = ?", sc.window.ID).Count(&count).Error)
	assert.Zero(t, count)

	assert.ErrorIs(t, env.availability.DeleteWindow(ctx, sc.window.ID), ErrNotFound)
}

func TestListAvailability(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	sc := env.schedule(t, day(2025, 3, 10), day(2025, 3, 11), 30, hm(8, 0), hm(9, 0))
	_, err := env.availability.CreateWindow(ctx, sc.def.ID, hm(14, 0), hm(16, 0))
	require.NoError(t, err)

	defs, err := env.availability.ListAvailability(ctx, sc.doctor.ID)
	require.NoError(t, err)
	require.Len(t, defs, 1)
	assert.Len(t, defs[0].Windows, 2)

	_, err = env.availability.ListAvailability(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}
