package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/Leganyst/booking-calendar/internal/calendar"
	"github.com/Leganyst/booking-calendar/internal/config"
	"github.com/Leganyst/booking-calendar/internal/repository"
)

// store реализует calendar.Store поверх репозиториев, привязанных к одной транзакции.
type store struct {
	users     repository.UserRepository
	calendars repository.CalendarRepository
	slots     repository.SlotRepository
	bookings  repository.BookingRepository
}

func newStore(tx *gorm.DB) *store {
	return &store{
		users:     repository.NewGormUserRepository(tx),
		calendars: repository.NewGormCalendarRepository(tx),
		slots:     repository.NewGormSlotRepository(tx),
		bookings:  repository.NewGormBookingRepository(tx),
	}
}

func notFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

func (s *store) FindHostByUsername(ctx context.Context, username string) (*calendar.Host, error) {
	u, err := s.users.FindByUsername(ctx, username)
	if notFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	host := &calendar.Host{ID: u.ID, Username: u.Username, IsHost: u.IsHost && u.IsActive()}
	cal, err := s.calendars.GetByHostID(ctx, u.ID)
	switch {
	case err == nil:
		host.CalendarID = &cal.ID
	case !notFound(err):
		return nil, err
	}
	return host, nil
}

func (s *store) FindHostByCalendar(ctx context.Context, calendarID uuid.UUID) (*calendar.Host, error) {
	cal, err := s.calendars.GetByID(ctx, calendarID)
	if notFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	u, err := s.users.GetByID(ctx, cal.HostID)
	if notFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &calendar.Host{
		ID:         u.ID,
		Username:   u.Username,
		IsHost:     u.IsHost && u.IsActive(),
		CalendarID: &cal.ID,
	}, nil
}

func (s *store) ListTimeSlots(ctx context.Context, calendarID uuid.UUID) ([]calendar.TimeSlot, error) {
	ms, err := s.slots.ListByCalendar(ctx, calendarID)
	if err != nil {
		return nil, err
	}
	return slotsFromModels(ms)
}

func (s *store) FindTimeSlot(ctx context.Context, id, calendarID uuid.UUID) (*calendar.TimeSlot, error) {
	m, err := s.slots.GetInCalendar(ctx, id, calendarID)
	if notFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	slot, err := slotFromModel(m)
	if err != nil {
		return nil, err
	}
	return &slot, nil
}

func (s *store) FindBooking(ctx context.Context, id uuid.UUID) (*calendar.Booking, error) {
	m, err := s.bookings.GetByID(ctx, id)
	if notFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	b := bookingFromModel(m)
	return &b, nil
}

func (s *store) CountBookings(ctx context.Context, guestID uuid.UUID, when time.Time, timeSlotID uuid.UUID) (int64, error) {
	return s.bookings.Count(ctx, guestID, when, timeSlotID)
}

func (s *store) PersistBooking(ctx context.Context, b *calendar.Booking) (*calendar.Booking, error) {
	m := bookingToModel(b)
	var err error
	if m.ID == uuid.Nil {
		err = s.bookings.Create(ctx, m)
	} else {
		err = s.bookings.Update(ctx, m)
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// Уникальный индекс (guest_id, when_date, time_slot_id) закрывает гонку
		// между проверкой и вставкой.
		return nil, calendar.ErrBookingAlreadyExists
	}
	if err != nil {
		return nil, err
	}
	saved := *b
	saved.ID = m.ID
	return &saved, nil
}

// queryOverlapChecker проверяет пересечение слотов запросом к БД.
type queryOverlapChecker struct {
	slots repository.SlotRepository
}

func (c queryOverlapChecker) Overlaps(ctx context.Context, calendarID uuid.UUID, r calendar.TimeRange, days calendar.WeekdaySet) (bool, error) {
	return c.slots.HasOverlap(ctx, calendarID, datatypes.Time(r.Start), datatypes.Time(r.End), days.Ints())
}

func overlapChecker(mode string, tx *gorm.DB) calendar.OverlapChecker {
	if mode == config.OverlapModeMemory {
		return calendar.MemoryOverlapChecker{Slots: newStore(tx)}
	}
	return queryOverlapChecker{slots: repository.NewGormSlotRepository(tx)}
}
