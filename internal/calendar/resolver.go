package calendar

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Store: хранилище, с которым работает ядро. Методы поиска возвращают
// nil без ошибки, если запись не найдена.
type Store interface {
	FindHostByUsername(ctx context.Context, username string) (*Host, error)
	FindHostByCalendar(ctx context.Context, calendarID uuid.UUID) (*Host, error)
	ListTimeSlots(ctx context.Context, calendarID uuid.UUID) ([]TimeSlot, error)
	FindTimeSlot(ctx context.Context, id, calendarID uuid.UUID) (*TimeSlot, error)
	FindBooking(ctx context.Context, id uuid.UUID) (*Booking, error)
	CountBookings(ctx context.Context, guestID uuid.UUID, when time.Time, timeSlotID uuid.UUID) (int64, error)
	PersistBooking(ctx context.Context, booking *Booking) (*Booking, error)
}

// CreateRequest: запрос гостя на бронирование.
type CreateRequest struct {
	RequesterID  uuid.UUID
	HostUsername string
	When         time.Time
	TimeSlotID   uuid.UUID
	Topic        string
	Description  string
}

// Resolver проверяет бронирования против слотов хоста и существующих бронирований.
// Проверки идут в фиксированном порядке, первая неудачная завершает операцию.
type Resolver struct {
	Store    Store
	Sync     SyncScheduler
	Now      func() time.Time
	Location *time.Location
}

// Today: текущая дата в опорном часовом поясе.
func (r *Resolver) Today() time.Time {
	now := time.Now
	if r.Now != nil {
		now = r.Now
	}
	loc := r.Location
	if loc == nil {
		loc = time.UTC
	}
	return DateOf(now().In(loc))
}

// CreateBooking проверяет и сохраняет новое бронирование.
func (r *Resolver) CreateBooking(ctx context.Context, req CreateRequest) (*Booking, error) {
	host, err := r.Store.FindHostByUsername(ctx, req.HostUsername)
	if err != nil {
		return nil, err
	}
	if !host.Bookable() {
		return nil, ErrHostNotFound
	}
	if req.RequesterID == host.ID {
		return nil, ErrSelfBooking
	}

	when := DateOf(req.When)
	if when.Before(r.Today()) {
		return nil, ErrPastBooking
	}

	slot, err := r.resolveSlot(ctx, req.TimeSlotID, *host.CalendarID, when)
	if err != nil {
		return nil, err
	}

	n, err := r.Store.CountBookings(ctx, req.RequesterID, when, slot.ID)
	if err != nil {
		return nil, err
	}
	if n > 0 {
		return nil, ErrBookingAlreadyExists
	}

	saved, err := r.Store.PersistBooking(ctx, &Booking{
		GuestID:     req.RequesterID,
		CalendarID:  slot.CalendarID,
		TimeSlotID:  slot.ID,
		When:        when,
		Topic:       req.Topic,
		Description: req.Description,
		Status:      StatusScheduled,
	})
	if err != nil {
		return nil, err
	}
	r.schedule(ctx, nil, saved)
	return saved, nil
}

// UpdateBooking применяет изменение гостя или хоста к существующему бронированию.
func (r *Resolver) UpdateBooking(ctx context.Context, role Role, requesterID, bookingID uuid.UUID, m Mutation) (*Booking, error) {
	current, err := r.Store.FindBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if current == nil || (role == RoleGuest && current.GuestID != requesterID) {
		return nil, ErrBookingNotFound
	}

	host, err := r.Store.FindHostByCalendar(ctx, current.CalendarID)
	if err != nil {
		return nil, err
	}
	if !host.Bookable() {
		return nil, ErrHostNotFound
	}
	if role == RoleHost && host.ID != requesterID {
		return nil, ErrBookingNotFound
	}
	if role == RoleGuest && host.ID == requesterID {
		return nil, ErrSelfBooking
	}

	// Гость не может менять бронирование в день визита, а хост может.
	today := r.Today()
	if role == RoleGuest && !current.When.After(today) {
		return nil, ErrPastBooking
	}
	if role == RoleHost && current.When.Before(today) {
		return nil, ErrPastBooking
	}

	next := *current
	if m.When != nil {
		next.When = DateOf(*m.When)
		if next.When.Before(today) {
			return nil, ErrPastBooking
		}
	}
	if m.TimeSlotID != nil {
		next.TimeSlotID = *m.TimeSlotID
	}
	if m.When != nil || m.TimeSlotID != nil {
		if _, err := r.resolveSlot(ctx, next.TimeSlotID, *host.CalendarID, next.When); err != nil {
			return nil, err
		}
	}

	if err := CheckMutation(role, m); err != nil {
		return nil, err
	}

	if m.Topic != nil {
		next.Topic = *m.Topic
	}
	if m.Description != nil {
		next.Description = *m.Description
	}
	if m.Status != nil {
		next.Status = *m.Status
	}

	saved, err := r.Store.PersistBooking(ctx, &next)
	if err != nil {
		return nil, err
	}
	r.schedule(ctx, current, saved)
	return saved, nil
}

// resolveSlot ищет слот в календаре хоста и проверяет день недели даты.
// Несовпадение дня недели даёт ту же ошибку, что и отсутствие слота.
func (r *Resolver) resolveSlot(ctx context.Context, slotID, calendarID uuid.UUID, when time.Time) (*TimeSlot, error) {
	slot, err := r.Store.FindTimeSlot(ctx, slotID, calendarID)
	if err != nil {
		return nil, err
	}
	if slot == nil || !slot.Offers(WeekdayOf(when)) {
		return nil, ErrTimeSlotNotFound
	}
	return slot, nil
}

func (r *Resolver) schedule(ctx context.Context, before, after *Booking) {
	if r.Sync == nil {
		return
	}
	if op, ok := DeriveSyncOp(before, after); ok {
		r.Sync.ScheduleSync(ctx, op, after)
	}
}
