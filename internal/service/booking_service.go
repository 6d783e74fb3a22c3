package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/Leganyst/clinic-booking/internal/cache"
	"github.com/Leganyst/clinic-booking/internal/calendar"
	"github.com/Leganyst/clinic-booking/internal/model"
	"github.com/Leganyst/clinic-booking/internal/repository"
)

// BookingService резервирует и освобождает слоты.
//
// Слот занимает ровно одна бронь: Book переводит available true → false
// условным UPDATE, уникальный индекс bookings.slot_id страхует на уровне БД.
// Каждая операция — одна транзакция, неудачная попытка не оставляет следов.
type BookingService struct {
	db     *gorm.DB
	repos  repository.Repositories
	cache  cache.SlotCache
	logger zerolog.Logger
}

func NewBookingService(
	db *gorm.DB,
	repos repository.Repositories,
	slotCache cache.SlotCache,
	logger zerolog.Logger,
) *BookingService {
	if slotCache == nil {
		slotCache = cache.Noop{}
	}
	return &BookingService{
		db:     db,
		repos:  repos,
		cache:  slotCache,
		logger: logger.With().Str("component", "booking").Logger(),
	}
}

func validateRange(rng calendar.TimeRange) error {
	if _, err := calendar.NewTimeRange(rng.Start, rng.End); err != nil {
		return invalid("range", "from and to are required, to must be after from")
	}
	return nil
}

// ListAvailableSlots — свободные слоты врача с from <= starts_at < to по возрастанию начала.
func (s *BookingService) ListAvailableSlots(ctx context.Context, doctorID uuid.UUID, rng calendar.TimeRange) ([]model.Slot, error) {
	if err := validateRange(rng); err != nil {
		return nil, err
	}
	if _, err := s.repos.Doctors.GetByID(ctx, doctorID); err != nil {
		return nil, lookupErr("doctor", doctorID, err)
	}

	cached, gen, ok, cacheErr := s.cache.GetAvailable(ctx, doctorID, rng.Start, rng.End)
	if cacheErr != nil {
		s.logger.Warn().Err(cacheErr).Str("doctor_id", doctorID.String()).Msg("slot cache read failed")
	}
	if ok {
		return cached, nil
	}

	slots, err := s.repos.Slots.ListAvailableByDoctor(ctx, doctorID, rng.Start, rng.End)
	if err != nil {
		return nil, fmt.Errorf("list available slots: %w", err)
	}
	if slots == nil {
		slots = []model.Slot{}
	}

	// Без поколения, прочитанного до запроса, выборку не кэшируем.
	if cacheErr == nil {
		if err := s.cache.PutAvailable(ctx, doctorID, gen, rng.Start, rng.End, slots); err != nil {
			s.logger.Warn().Err(err).Str("doctor_id", doctorID.String()).Msg("slot cache write failed")
		}
	}
	return slots, nil
}

// ListAvailableSlotsPage — страница из ListAvailableSlots.
func (s *BookingService) ListAvailableSlotsPage(
	ctx context.Context,
	doctorID uuid.UUID,
	rng calendar.TimeRange,
	page, size int,
) (calendar.Page[model.Slot], error) {
	slots, err := s.ListAvailableSlots(ctx, doctorID, rng)
	if err != nil {
		return calendar.Page[model.Slot]{}, err
	}
	return calendar.Paginate(slots, page, size), nil
}

// Book бронирует слот за пациентом.
// ErrNotFound — нет слота или пациента, ErrConflict — слот уже занят или снят.
func (s *BookingService) Book(ctx context.Context, slotID, patientID uuid.UUID, comment string) (*model.Booking, error) {
	if _, err := s.repos.Patients.GetByID(ctx, patientID); err != nil {
		return nil, lookupErr("patient", patientID, err)
	}

	var (
		booking  *model.Booking
		doctorID uuid.UUID
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repos := s.repos.WithTx(tx)

		ok, err := repos.Slots.MarkUnavailable(ctx, slotID)
		if err != nil {
			return fmt.Errorf("reserve slot: %w", err)
		}
		if !ok {
			slot, err := repos.Slots.GetByID(ctx, slotID)
			if err != nil {
				return lookupErr("slot", slotID, err)
			}
			if valid, reason := validateSlotForBooking(slot); !valid {
				return conflict("slot %s: %s", slotID, reason)
			}
			return conflict("slot %s changed concurrently", slotID)
		}

		booking = &model.Booking{
			PatientID: patientID,
			SlotID:    &slotID,
			Comment:   comment,
		}
		if err := repos.Bookings.Create(ctx, booking); err != nil {
			if repository.IsUniqueViolation(err) {
				return conflict("slot %s is already booked", slotID)
			}
			return fmt.Errorf("create booking: %w", err)
		}

		doctorID, err = repos.Slots.DoctorIDForSlot(ctx, slotID)
		if err != nil {
			return fmt.Errorf("resolve slot owner: %w", err)
		}

		return repos.Events.Create(ctx, &model.Event{
			EventType: model.EventTypeBookingCreated,
			DoctorID:  &doctorID,
			PatientID: &patientID,
			BookingID: &booking.ID,
			SlotID:    &slotID,
		})
	})
	if err != nil {
		if errors.Is(err, ErrConflict) {
			s.logger.Info().
				Str("slot_id", slotID.String()).
				Str("patient_id", patientID.String()).
				Err(err).
				Msg("booking rejected")
		}
		return nil, err
	}

	s.invalidate(ctx, doctorID)
	s.logger.Info().
		Str("booking_id", booking.ID.String()).
		Str("slot_id", slotID.String()).
		Str("patient_id", patientID.String()).
		Msg("slot booked")
	return booking, nil
}

// Cancel удаляет бронь и возвращает слот в свободные.
// Повторная отмена — ErrNotFound, слот при этом остаётся свободным.
func (s *BookingService) Cancel(ctx context.Context, bookingID uuid.UUID) error {
	var doctorID uuid.UUID
	var slotID *uuid.UUID

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repos := s.repos.WithTx(tx)

		b, err := repos.Bookings.GetByID(ctx, bookingID)
		if err != nil {
			return lookupErr("booking", bookingID, err)
		}
		slotID = b.SlotID

		// Параллельная отмена могла успеть раньше.
		if err := repos.Bookings.Delete(ctx, bookingID); err != nil {
			return lookupErr("booking", bookingID, err)
		}

		event := &model.Event{
			EventType: model.EventTypeBookingCancelled,
			PatientID: &b.PatientID,
			BookingID: &bookingID,
			SlotID:    slotID,
		}

		if slotID != nil {
			released, err := repos.Slots.MarkAvailable(ctx, *slotID)
			if err != nil {
				return fmt.Errorf("release slot: %w", err)
			}
			if !released {
				s.logger.Warn().
					Str("booking_id", bookingID.String()).
					Str("slot_id", slotID.String()).
					Msg("booked slot was already marked available")
			}

			doctorID, err = repos.Slots.DoctorIDForSlot(ctx, *slotID)
			if err != nil {
				return fmt.Errorf("resolve slot owner: %w", err)
			}
			event.DoctorID = &doctorID
		}

		return repos.Events.Create(ctx, event)
	})
	if err != nil {
		return err
	}

	if slotID != nil {
		s.invalidate(ctx, doctorID)
	}
	s.logger.Info().Str("booking_id", bookingID.String()).Msg("booking cancelled")
	return nil
}

// Withdraw административно снимает свободный слот с записи.
// Занятый слот снять нельзя: сначала отмените бронь.
func (s *BookingService) Withdraw(ctx context.Context, slotID uuid.UUID) error {
	var doctorID uuid.UUID
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repos := s.repos.WithTx(tx)

		ok, err := repos.Slots.MarkUnavailable(ctx, slotID)
		if err != nil {
			return fmt.Errorf("withdraw slot: %w", err)
		}
		if !ok {
			if _, err := repos.Slots.GetByID(ctx, slotID); err != nil {
				return lookupErr("slot", slotID, err)
			}
			return conflict("slot %s is not available", slotID)
		}

		doctorID, err = repos.Slots.DoctorIDForSlot(ctx, slotID)
		if err != nil {
			return fmt.Errorf("resolve slot owner: %w", err)
		}
		return repos.Events.Create(ctx, &model.Event{
			EventType: model.EventTypeSlotWithdrawn,
			DoctorID:  &doctorID,
			SlotID:    &slotID,
		})
	})
	if err != nil {
		return err
	}

	s.invalidate(ctx, doctorID)
	s.logger.Info().Str("slot_id", slotID.String()).Msg("slot withdrawn")
	return nil
}

// Reinstate возвращает снятый слот в свободные. Забронированный слот не трогается.
func (s *BookingService) Reinstate(ctx context.Context, slotID uuid.UUID) error {
	var doctorID uuid.UUID
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repos := s.repos.WithTx(tx)

		ok, err := repos.Slots.MarkAvailable(ctx, slotID)
		if err != nil {
			return fmt.Errorf("reinstate slot: %w", err)
		}
		if !ok {
			if _, err := repos.Slots.GetByID(ctx, slotID); err != nil {
				return lookupErr("slot", slotID, err)
			}
			return conflict("slot %s is already available", slotID)
		}

		// Проверка после UPDATE: строка слота уже заблокирована этой транзакцией.
		if _, err := repos.Bookings.GetBySlotID(ctx, slotID); err == nil {
			return conflict("slot %s is booked", slotID)
		} else if !repository.IsNotFound(err) {
			return fmt.Errorf("check booking: %w", err)
		}

		doctorID, err = repos.Slots.DoctorIDForSlot(ctx, slotID)
		if err != nil {
			return fmt.Errorf("resolve slot owner: %w", err)
		}
		return repos.Events.Create(ctx, &model.Event{
			EventType: model.EventTypeSlotReinstated,
			DoctorID:  &doctorID,
			SlotID:    &slotID,
		})
	})
	if err != nil {
		return err
	}

	s.invalidate(ctx, doctorID)
	s.logger.Info().Str("slot_id", slotID.String()).Msg("slot reinstated")
	return nil
}

// ListPatientBookings — брони пациента, чьи слоты начинаются в rng.
func (s *BookingService) ListPatientBookings(
	ctx context.Context,
	patientID uuid.UUID,
	rng calendar.TimeRange,
	page, size int,
) (calendar.Page[model.Booking], error) {
	if err := validateRange(rng); err != nil {
		return calendar.Page[model.Booking]{}, err
	}
	if _, err := s.repos.Patients.GetByID(ctx, patientID); err != nil {
		return calendar.Page[model.Booking]{}, lookupErr("patient", patientID, err)
	}

	page, size, offset := calendar.PageBounds(page, size)
	bookings, total, err := s.repos.Bookings.ListByPatientAndRange(ctx, patientID, rng.Start, rng.End, size, offset)
	if err != nil {
		return calendar.Page[model.Booking]{}, fmt.Errorf("list bookings: %w", err)
	}
	return calendar.NewPage(bookings, page, size, total), nil
}

// BookingHistory — события аудита по брони, в том числе после её отмены.
func (s *BookingService) BookingHistory(ctx context.Context, bookingID uuid.UUID) ([]model.Event, error) {
	events, err := s.repos.Events.ListByBooking(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	if len(events) == 0 {
		return nil, notFound("booking", bookingID)
	}
	return events, nil
}

// SlotHistory — события аудита по слоту: брони, отмены, снятия и возвраты.
func (s *BookingService) SlotHistory(ctx context.Context, slotID uuid.UUID) ([]model.Event, error) {
	if _, err := s.repos.Slots.GetByID(ctx, slotID); err != nil {
		return nil, lookupErr("slot", slotID, err)
	}
	events, err := s.repos.Events.ListBySlot(ctx, slotID)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return events, nil
}

func (s *BookingService) invalidate(ctx context.Context, doctorID uuid.UUID) {
	if doctorID == uuid.Nil {
		return
	}
	if err := s.cache.InvalidateDoctor(ctx, doctorID); err != nil {
		s.logger.Warn().Err(err).Str("doctor_id", doctorID.String()).Msg("slot cache invalidation failed")
	}
}
