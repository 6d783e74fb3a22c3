package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Leganyst/clinic-booking/internal/cache"
	"github.com/Leganyst/clinic-booking/internal/calendar"
	"github.com/Leganyst/clinic-booking/internal/model"
	"github.com/Leganyst/clinic-booking/internal/repository"
)

// SlotGenerator превращает окна в конкретные слоты.
//
// Генерация идемпотентна: вставляются только недостающие тройки
// (window_id, starts_at, ends_at), существующие строки и их флаг available
// не трогаются. Прерванный запуск дозавершается повторным вызовом.
type SlotGenerator struct {
	repos  repository.Repositories
	loc    *time.Location
	cache  cache.SlotCache
	logger zerolog.Logger
}

func NewSlotGenerator(
	repos repository.Repositories,
	loc *time.Location,
	slotCache cache.SlotCache,
	logger zerolog.Logger,
) *SlotGenerator {
	if loc == nil {
		loc = time.UTC
	}
	if slotCache == nil {
		slotCache = cache.Noop{}
	}
	return &SlotGenerator{
		repos:  repos,
		loc:    loc,
		cache:  slotCache,
		logger: logger.With().Str("component", "slot_generator").Logger(),
	}
}

// Location — зона, в которой трактуются даты и время окон.
func (g *SlotGenerator) Location() *time.Location {
	return g.loc
}

// GenerateSlots дополняет слоты окна и возвращает все его слоты по возрастанию начала.
func (g *SlotGenerator) GenerateSlots(ctx context.Context, windowID uuid.UUID) ([]model.Slot, error) {
	w, err := g.repos.Windows.GetByID(ctx, windowID)
	if err != nil {
		return nil, lookupErr("window", windowID, err)
	}
	def, err := g.repos.Availability.GetByID(ctx, w.AvailabilityID)
	if err != nil {
		return nil, lookupErr("availability definition", w.AvailabilityID, err)
	}

	if _, err := g.generate(ctx, def, w); err != nil {
		return nil, err
	}

	slots, err := g.repos.Slots.ListByWindow(ctx, windowID)
	if err != nil {
		return nil, fmt.Errorf("list slots: %w", err)
	}
	return slots, nil
}

// GenerateForAvailability генерирует слоты для всех окон определения.
// Возвращает число новых слотов.
func (g *SlotGenerator) GenerateForAvailability(ctx context.Context, availabilityID uuid.UUID) (int64, error) {
	def, err := g.repos.Availability.GetByID(ctx, availabilityID)
	if err != nil {
		return 0, lookupErr("availability definition", availabilityID, err)
	}
	return g.generateDefinition(ctx, def)
}

// GenerateActive проходит по всем определениям, которые ещё не закончились
// к asOf. Ошибка одного определения не останавливает остальные.
func (g *SlotGenerator) GenerateActive(ctx context.Context, asOf time.Time) (int64, error) {
	defs, err := g.repos.Availability.ListActive(ctx, asOf.In(g.loc))
	if err != nil {
		return 0, fmt.Errorf("list active availability: %w", err)
	}

	var (
		total int64
		errs  []error
	)
	for i := range defs {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		n, err := g.generateDefinition(ctx, &defs[i])
		total += n
		if err != nil {
			errs = append(errs, fmt.Errorf("availability %s: %w", defs[i].ID, err))
		}
	}

	g.logger.Info().
		Int("definitions", len(defs)).
		Int64("created", total).
		Int("failed", len(errs)).
		Msg("active availability sweep finished")
	return total, errors.Join(errs...)
}

func (g *SlotGenerator) generateDefinition(ctx context.Context, def *model.AvailabilityDefinition) (int64, error) {
	windows, err := g.repos.Windows.ListByAvailability(ctx, def.ID)
	if err != nil {
		return 0, fmt.Errorf("list windows: %w", err)
	}

	var total int64
	for i := range windows {
		n, err := g.generate(ctx, def, &windows[i])
		total += n
		if err != nil {
			return total, fmt.Errorf("window %s: %w", windows[i].ID, err)
		}
	}
	return total, nil
}

// generate — вставка недостающих слотов одного окна. Возвращает число вставленных.
func (g *SlotGenerator) generate(ctx context.Context, def *model.AvailabilityDefinition, w *model.Window) (int64, error) {
	ranges, err := expandWindow(def, w, g.loc)
	if err != nil {
		return 0, err
	}

	slots := make([]model.Slot, 0, len(ranges))
	for _, tr := range ranges {
		slots = append(slots, model.Slot{
			WindowID:  w.ID,
			StartsAt:  tr.Start.UTC(),
			EndsAt:    tr.End.UTC(),
			Available: true,
		})
	}

	inserted, err := g.repos.Slots.InsertMissing(ctx, slots)
	if err != nil {
		return 0, fmt.Errorf("insert slots: %w", err)
	}

	if inserted > 0 {
		doctorID := def.DoctorID
		windowID := w.ID
		event := &model.Event{
			EventType: model.EventTypeSlotsGenerated,
			DoctorID:  &doctorID,
			WindowID:  &windowID,
			Details:   fmt.Sprintf("created=%d expected=%d", inserted, len(slots)),
		}
		if err := g.repos.Events.Create(ctx, event); err != nil {
			g.logger.Warn().Err(err).Str("window_id", w.ID.String()).Msg("audit event write failed")
		}
		if err := g.cache.InvalidateDoctor(ctx, def.DoctorID); err != nil {
			g.logger.Warn().Err(err).Str("doctor_id", def.DoctorID.String()).Msg("slot cache invalidation failed")
		}
	}

	g.logger.Debug().
		Str("window_id", w.ID.String()).
		Str("doctor_id", def.DoctorID.String()).
		Int("expected", len(slots)).
		Int64("created", inserted).
		Msg("slots generated")
	return inserted, nil
}

// expandWindow — чистая часть генерации: список интервалов окна по всем датам определения.
func expandWindow(def *model.AvailabilityDefinition, w *model.Window, loc *time.Location) ([]calendar.TimeRange, error) {
	if def.SlotDurationMin <= 0 {
		return nil, invalid("slot_duration_min", "must be positive")
	}

	cr := calendar.ClockRange{Start: time.Duration(w.DailyStart), End: time.Duration(w.DailyEnd)}
	ranges, err := calendar.ExpandDaily(time.Time(def.DateStart), time.Time(def.DateEnd), cr, def.SlotDuration(), loc)
	switch {
	case errors.Is(err, calendar.ErrOvernightWindow):
		return nil, invalid("daily_end", "must be after daily_start on the same day")
	case errors.Is(err, calendar.ErrInvalidDateRange):
		return nil, invalid("date_end", "must not be before date_start")
	case err != nil:
		return nil, invalid("window", err.Error())
	}
	return ranges, nil
}
