package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Leganyst/clinic-booking/internal/cache"
	"github.com/Leganyst/clinic-booking/internal/calendar"
	"github.com/Leganyst/clinic-booking/internal/dbtest"
	"github.com/Leganyst/clinic-booking/internal/model"
	"github.com/Leganyst/clinic-booking/internal/repository"
)

// recordingCache — кэш в памяти с поколениями, как у Redis, который
// запоминает инвалидации.
type recordingCache struct {
	mu      sync.Mutex
	entries map[string][]model.Slot
	gens    map[uuid.UUID]int64
}

var _ cache.SlotCache = (*recordingCache)(nil)

func newRecordingCache() *recordingCache {
	return &recordingCache{
		entries: map[string][]model.Slot{},
		gens:    map[uuid.UUID]int64{},
	}
}

func cacheKey(doctorID uuid.UUID, gen int64, from, to time.Time) string {
	return fmt.Sprintf("%s:%d:%d:%d", doctorID, gen, from.Unix(), to.Unix())
}

func (c *recordingCache) GetAvailable(_ context.Context, doctorID uuid.UUID, from, to time.Time) ([]model.Slot, int64, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	gen := c.gens[doctorID]
	slots, ok := c.entries[cacheKey(doctorID, gen, from, to)]
	return slots, gen, ok, nil
}

func (c *recordingCache) PutAvailable(_ context.Context, doctorID uuid.UUID, gen int64, from, to time.Time, slots []model.Slot) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[cacheKey(doctorID, gen, from, to)] = slots
	return nil
}

func (c *recordingCache) InvalidateDoctor(_ context.Context, doctorID uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gens[doctorID]++
	return nil
}

func (c *recordingCache) invalidations(doctorID uuid.UUID) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return int(c.gens[doctorID])
}

type testEnv struct {
	db           *gorm.DB
	repos        repository.Repositories
	cache        *recordingCache
	availability *AvailabilityService
	generator    *SlotGenerator
	bookings     *BookingService
}

func newTestEnv(t *testing.T) *testEnv {
	return newTestEnvIn(t, time.UTC)
}

func newTestEnvIn(t *testing.T, loc *time.Location) *testEnv {
	t.Helper()
	db := dbtest.New(t)
	repos := repository.NewGormRepositories(db)
	c := newRecordingCache()
	logger := zerolog.Nop()

	return &testEnv{
		db:           db,
		repos:        repos,
		cache:        c,
		availability: NewAvailabilityService(db, repos, c, logger),
		generator:    NewSlotGenerator(repos, loc, c, logger),
		bookings:     NewBookingService(db, repos, c, logger),
	}
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func hm(h, m int) time.Duration {
	return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute
}

// schedule — врач с одним определением и одним окном.
type schedule struct {
	doctor *model.Doctor
	def    *model.AvailabilityDefinition
	window *model.Window
}

func (e *testEnv) schedule(t *testing.T, from, to time.Time, durationMin int, start, end time.Duration) schedule {
	t.Helper()
	ctx := context.Background()

	doctor, err := e.availability.CreateDoctor(ctx, "Dr. Strange", "surgeon")
	require.NoError(t, err)
	def, err := e.availability.CreateAvailabilityDefinition(ctx, doctor.ID, from, to, durationMin)
	require.NoError(t, err)
	w, err := e.availability.CreateWindow(ctx, def.ID, start, end)
	require.NoError(t, err)

	return schedule{doctor: doctor, def: def, window: w}
}

func (e *testEnv) patient(t *testing.T, name string) *model.Patient {
	t.Helper()
	p, err := e.availability.CreatePatient(context.Background(), name, "")
	require.NoError(t, err)
	return p
}

// generated — расписание 08:00–09:00 по 30 минут на 10–11 марта со сгенерированными слотами.
func (e *testEnv) generated(t *testing.T) (schedule, []model.Slot) {
	t.Helper()
	sc := e.schedule(t, day(2025, 3, 10), day(2025, 3, 11), 30, hm(8, 0), hm(9, 0))
	slots, err := e.generator.GenerateSlots(context.Background(), sc.window.ID)
	require.NoError(t, err)
	require.Len(t, slots, 4)
	return sc, slots
}

func wholeMarch() calendar.TimeRange {
	return calendar.TimeRange{Start: day(2025, 3, 1), End: day(2025, 4, 1)}
}
