package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/Leganyst/clinic-booking/internal/cache"
	"github.com/Leganyst/clinic-booking/internal/calendar"
	"github.com/Leganyst/clinic-booking/internal/model"
	"github.com/Leganyst/clinic-booking/internal/repository"
)

// AvailabilityService ведёт врачей, пациентов и описание приёма:
// определения доступности и их дневные окна.
type AvailabilityService struct {
	db     *gorm.DB
	repos  repository.Repositories
	cache  cache.SlotCache
	logger zerolog.Logger
}

func NewAvailabilityService(
	db *gorm.DB,
	repos repository.Repositories,
	slotCache cache.SlotCache,
	logger zerolog.Logger,
) *AvailabilityService {
	if slotCache == nil {
		slotCache = cache.Noop{}
	}
	return &AvailabilityService{
		db:     db,
		repos:  repos,
		cache:  slotCache,
		logger: logger.With().Str("component", "availability").Logger(),
	}
}

func (s *AvailabilityService) CreateDoctor(ctx context.Context, displayName, description string) (*model.Doctor, error) {
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		return nil, invalid("display_name", "is required")
	}

	d := &model.Doctor{DisplayName: displayName, Description: strings.TrimSpace(description)}
	if err := s.repos.Doctors.Create(ctx, d); err != nil {
		return nil, fmt.Errorf("create doctor: %w", err)
	}
	return d, nil
}

func (s *AvailabilityService) CreatePatient(ctx context.Context, displayName, contactPhone string) (*model.Patient, error) {
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		return nil, invalid("display_name", "is required")
	}

	p := &model.Patient{DisplayName: displayName, ContactPhone: contactPhone}
	if err := s.repos.Patients.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("create patient: %w", err)
	}
	return p, nil
}

// FindPatientByPhone ищет пациента по телефону в любом написании.
func (s *AvailabilityService) FindPatientByPhone(ctx context.Context, phone string) (*model.Patient, error) {
	if repository.NormalizePhone(phone) == "" {
		return nil, invalid("contact_phone", "is required")
	}
	p, err := s.repos.Patients.FindByPhone(ctx, phone)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, fmt.Errorf("patient with phone %q: %w", phone, ErrNotFound)
		}
		return nil, fmt.Errorf("find patient: %w", err)
	}
	return p, nil
}

// CreateAvailabilityDefinition заводит период приёма врача.
// Даты берутся календарные, время и зона отбрасываются; обе границы включительно.
func (s *AvailabilityService) CreateAvailabilityDefinition(
	ctx context.Context,
	doctorID uuid.UUID,
	dateStart, dateEnd time.Time,
	durationMin int,
) (*model.AvailabilityDefinition, error) {
	if durationMin <= 0 {
		return nil, invalid("slot_duration_min", "must be positive")
	}
	if dateStart.IsZero() || dateEnd.IsZero() {
		return nil, invalid("date_start", "both dates are required")
	}
	start, end := calendar.CivilDate(dateStart), calendar.CivilDate(dateEnd)
	if start.After(end) {
		return nil, invalid("date_end", "must not be before date_start")
	}

	if _, err := s.repos.Doctors.GetByID(ctx, doctorID); err != nil {
		return nil, lookupErr("doctor", doctorID, err)
	}

	def := &model.AvailabilityDefinition{
		DoctorID:        doctorID,
		DateStart:       datatypes.Date(start),
		DateEnd:         datatypes.Date(end),
		SlotDurationMin: durationMin,
	}
	if err := s.repos.Availability.Create(ctx, def); err != nil {
		return nil, fmt.Errorf("create availability: %w", err)
	}

	s.logger.Info().
		Str("availability_id", def.ID.String()).
		Str("doctor_id", doctorID.String()).
		Str("date_start", start.Format(time.DateOnly)).
		Str("date_end", end.Format(time.DateOnly)).
		Int("slot_duration_min", durationMin).
		Msg("availability definition created")
	return def, nil
}

// CreateWindow добавляет дневное окно [dailyStart, dailyEnd) к определению.
// Окна через полночь и пересекающиеся окна одного определения отклоняются.
func (s *AvailabilityService) CreateWindow(
	ctx context.Context,
	availabilityID uuid.UUID,
	dailyStart, dailyEnd time.Duration,
) (*model.Window, error) {
	cr, err := calendar.NewClockRange(dailyStart, dailyEnd)
	switch {
	case errors.Is(err, calendar.ErrOvernightWindow):
		return nil, invalid("daily_end", "must be after daily_start on the same day")
	case err != nil:
		return nil, invalid("daily_start", err.Error())
	}

	var w *model.Window
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repos := s.repos.WithTx(tx)

		def, err := repos.Availability.GetByID(ctx, availabilityID)
		if err != nil {
			return lookupErr("availability definition", availabilityID, err)
		}

		existing, err := repos.Windows.ListByAvailability(ctx, availabilityID)
		if err != nil {
			return fmt.Errorf("list windows: %w", err)
		}
		ranges := make([]calendar.ClockRange, 0, len(existing))
		for _, e := range existing {
			ranges = append(ranges, calendar.ClockRange{
				Start: time.Duration(e.DailyStart),
				End:   time.Duration(e.DailyEnd),
			})
		}
		if calendar.ClockRangesOverlap(cr, ranges) {
			return invalid("daily_start", "window overlaps another window of the same availability")
		}

		w = &model.Window{
			AvailabilityID: availabilityID,
			DailyStart:     datatypes.Time(cr.Start),
			DailyEnd:       datatypes.Time(cr.End),
		}
		if err := repos.Windows.Create(ctx, w); err != nil {
			return fmt.Errorf("create window: %w", err)
		}

		if cr.Duration() < def.SlotDuration() {
			s.logger.Warn().
				Str("availability_id", availabilityID.String()).
				Dur("window", cr.Duration()).
				Int("slot_duration_min", def.SlotDurationMin).
				Msg("window is shorter than one slot, it will produce no slots")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("window_id", w.ID.String()).
		Str("availability_id", availabilityID.String()).
		Str("daily_start", calendar.FormatClock(cr.Start)).
		Str("daily_end", calendar.FormatClock(cr.End)).
		Msg("window created")
	return w, nil
}

// ExtendAvailabilityDefinition сдвигает date_end вперёд. Сокращать период нельзя:
// уже выданные слоты за хвостом остались бы без определения.
// Новые дни получают слоты при следующей генерации.
func (s *AvailabilityService) ExtendAvailabilityDefinition(
	ctx context.Context,
	id uuid.UUID,
	dateEnd time.Time,
) (*model.AvailabilityDefinition, error) {
	if dateEnd.IsZero() {
		return nil, invalid("date_end", "is required")
	}
	end := calendar.CivilDate(dateEnd)

	var def *model.AvailabilityDefinition
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repos := s.repos.WithTx(tx)

		var err error
		def, err = repos.Availability.GetByID(ctx, id)
		if err != nil {
			return lookupErr("availability definition", id, err)
		}
		if end.Before(calendar.CivilDate(time.Time(def.DateEnd))) {
			return invalid("date_end", "can only be moved forward")
		}

		if err := repos.Availability.UpdateDateEnd(ctx, id, datatypes.Date(end)); err != nil {
			return fmt.Errorf("update availability: %w", err)
		}
		def.DateEnd = datatypes.Date(end)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("availability_id", id.String()).
		Str("date_end", end.Format(time.DateOnly)).
		Msg("availability definition extended")
	return def, nil
}

// ListAvailability — определения врача вместе с окнами.
func (s *AvailabilityService) ListAvailability(ctx context.Context, doctorID uuid.UUID) ([]model.AvailabilityDefinition, error) {
	if _, err := s.repos.Doctors.GetByID(ctx, doctorID); err != nil {
		return nil, lookupErr("doctor", doctorID, err)
	}

	defs, err := s.repos.Availability.ListByDoctor(ctx, doctorID)
	if err != nil {
		return nil, fmt.Errorf("list availability: %w", err)
	}
	for i := range defs {
		windows, err := s.repos.Windows.ListByAvailability(ctx, defs[i].ID)
		if err != nil {
			return nil, fmt.Errorf("list windows: %w", err)
		}
		defs[i].Windows = windows
	}
	return defs, nil
}

// DeleteAvailabilityDefinition удаляет определение каскадом: окна, слоты и их брони.
func (s *AvailabilityService) DeleteAvailabilityDefinition(ctx context.Context, id uuid.UUID) error {
	def, err := s.repos.Availability.GetByID(ctx, id)
	if err != nil {
		return lookupErr("availability definition", id, err)
	}
	if err := s.repos.Availability.Delete(ctx, id); err != nil {
		if repository.IsNotFound(err) {
			return notFound("availability definition", id)
		}
		return fmt.Errorf("delete availability: %w", err)
	}

	s.invalidate(ctx, def.DoctorID)
	s.logger.Info().
		Str("availability_id", id.String()).
		Str("doctor_id", def.DoctorID.String()).
		Msg("availability definition deleted")
	return nil
}

// DeleteWindow удаляет окно каскадом вместе со слотами и бронями.
func (s *AvailabilityService) DeleteWindow(ctx context.Context, id uuid.UUID) error {
	w, err := s.repos.Windows.GetByID(ctx, id)
	if err != nil {
		return lookupErr("window", id, err)
	}
	def, err := s.repos.Availability.GetByID(ctx, w.AvailabilityID)
	if err != nil {
		return lookupErr("availability definition", w.AvailabilityID, err)
	}

	if err := s.repos.Windows.Delete(ctx, id); err != nil {
		if repository.IsNotFound(err) {
			return notFound("window", id)
		}
		return fmt.Errorf("delete window: %w", err)
	}

	s.invalidate(ctx, def.DoctorID)
	s.logger.Info().Str("window_id", id.String()).Msg("window deleted")
	return nil
}

func (s *AvailabilityService) invalidate(ctx context.Context, doctorID uuid.UUID) {
	if err := s.cache.InvalidateDoctor(ctx, doctorID); err != nil {
		s.logger.Warn().Err(err).Str("doctor_id", doctorID.String()).Msg("slot cache invalidation failed")
	}
}
