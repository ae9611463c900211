package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"trimline/internal/availability"
	"trimline/internal/model"
)

// Store is the slice of the backing store the booking flow needs. The pgx
// repository implements it; tests use an in-memory fake.
type Store interface {
	ListAvailabilityRules(ctx context.Context, barberID string) ([]model.AvailabilityRule, error)
	ListBookedSlots(ctx context.Context, barberID, fromDate, toDate string) ([]model.BookedSlot, error)
	// CreateAppointment persists the appointment and returns ErrSlotTaken
	// when the unique (barber, date, time) constraint rejects it.
	CreateAppointment(ctx context.Context, appt *model.Appointment) error
}

// Service computes open slots and commits guest bookings for the single
// barber this deployment serves.
type Service struct {
	store    Store
	barberID string
	loc      *time.Location
	logger   *slog.Logger
	now      func() time.Time
}

func NewService(store Store, barberID string, loc *time.Location, logger *slog.Logger) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		store:    store,
		barberID: barberID,
		loc:      loc,
		logger:   logger,
		now:      time.Now,
	}
}

// DaySlots returns every slot for the date with its availability flag. The
// public page filters to the open ones; the dashboard shows all of them.
func (s *Service) DaySlots(ctx context.Context, date string) ([]availability.Slot, error) {
	if s.barberID == "" {
		return nil, ErrNotConfigured
	}
	day, err := time.ParseInLocation("2006-01-02", date, s.loc)
	if err != nil {
		return nil, &ValidationError{Field: "date", Msg: "invalid date"}
	}

	rules, err := s.store.ListAvailabilityRules(ctx, s.barberID)
	if err != nil {
		return nil, fmt.Errorf("load availability rules: %w", err)
	}
	booked, err := s.store.ListBookedSlots(ctx, s.barberID, date, date)
	if err != nil {
		return nil, fmt.Errorf("load booked slots: %w", err)
	}

	return availability.Slots(day, rules, booked, s.now().In(s.loc)), nil
}

// BookedRange returns the booked projection for [from, to]. Callers replace
// their whole cache with the result; merging would leave stale partial state.
func (s *Service) BookedRange(ctx context.Context, fromDate, toDate string) ([]model.BookedSlot, error) {
	if s.barberID == "" {
		return nil, ErrNotConfigured
	}
	if _, err := time.Parse("2006-01-02", fromDate); err != nil {
		return nil, &ValidationError{Field: "from", Msg: "invalid date"}
	}
	if _, err := time.Parse("2006-01-02", toDate); err != nil {
		return nil, &ValidationError{Field: "to", Msg: "invalid date"}
	}
	if fromDate > toDate {
		return nil, &ValidationError{Field: "from", Msg: "from must not be after to"}
	}
	return s.store.ListBookedSlots(ctx, s.barberID, fromDate, toDate)
}

// Book validates locally, then attempts a single optimistic insert. The
// store's unique constraint is the linearization point: of two concurrent
// submissions for the same slot exactly one succeeds and the other sees
// ErrSlotTaken. On conflict the caller should re-fetch booked slots before
// offering a new selection.
func (s *Service) Book(ctx context.Context, req Request) (model.Appointment, error) {
	if s.barberID == "" {
		return model.Appointment{}, ErrNotConfigured
	}
	if err := validate(&req); err != nil {
		return model.Appointment{}, err
	}

	appt := model.Appointment{
		ID:         uuid.NewString(),
		BarberID:   s.barberID,
		Date:       req.Date,
		Time:       req.Time,
		GuestName:  req.Name,
		GuestEmail: req.Email,
		GuestPhone: req.Phone,
		Notes:      req.Notes,
		Status:     model.StatusPending,
	}

	if err := s.store.CreateAppointment(ctx, &appt); err != nil {
		if errors.Is(err, ErrSlotTaken) {
			s.logger.Info("booking conflict", "date", req.Date, "time", req.Time)
			return model.Appointment{}, ErrSlotTaken
		}
		return model.Appointment{}, fmt.Errorf("create appointment: %w", err)
	}

	s.logger.Info("appointment booked", "appointment_id", appt.ID, "date", appt.Date, "time", appt.Time)
	return appt, nil
}

// WithClock overrides the wall clock; tests only.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}
