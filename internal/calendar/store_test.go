package calendar

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// fakeStore: хранилище в памяти для тестов ядра.
type fakeStore struct {
	hosts    []Host
	slots    []TimeSlot
	bookings []Booking
	persists int
}

func (s *fakeStore) FindHostByUsername(_ context.Context, username string) (*Host, error) {
	for i := range s.hosts {
		if s.hosts[i].Username == username {
			h := s.hosts[i]
			return &h, nil
		}
	}
	return nil, nil
}

func (s *fakeStore) FindHostByCalendar(_ context.Context, calendarID uuid.UUID) (*Host, error) {
	for i := range s.hosts {
		if s.hosts[i].CalendarID != nil && *s.hosts[i].CalendarID == calendarID {
			h := s.hosts[i]
			return &h, nil
		}
	}
	return nil, nil
}

func (s *fakeStore) ListTimeSlots(_ context.Context, calendarID uuid.UUID) ([]TimeSlot, error) {
	var out []TimeSlot
	for _, sl := range s.slots {
		if sl.CalendarID == calendarID {
			out = append(out, sl)
		}
	}
	return out, nil
}

func (s *fakeStore) FindTimeSlot(_ context.Context, id, calendarID uuid.UUID) (*TimeSlot, error) {
	for _, sl := range s.slots {
		if sl.ID == id && sl.CalendarID == calendarID {
			found := sl
			return &found, nil
		}
	}
	return nil, nil
}

func (s *fakeStore) FindBooking(_ context.Context, id uuid.UUID) (*Booking, error) {
	for _, b := range s.bookings {
		if b.ID == id {
			found := b
			return &found, nil
		}
	}
	return nil, nil
}

func (s *fakeStore) CountBookings(_ context.Context, guestID uuid.UUID, when time.Time, timeSlotID uuid.UUID) (int64, error) {
	var n int64
	for _, b := range s.bookings {
		if b.GuestID == guestID && b.When.Equal(when) && b.TimeSlotID == timeSlotID {
			n++
		}
	}
	return n, nil
}

func (s *fakeStore) PersistBooking(_ context.Context, booking *Booking) (*Booking, error) {
	s.persists++
	saved := *booking
	if saved.ID == uuid.Nil {
		saved.ID = uuid.New()
		s.bookings = append(s.bookings, saved)
		return &saved, nil
	}
	for i := range s.bookings {
		if s.bookings[i].ID == saved.ID {
			s.bookings[i] = saved
		}
	}
	return &saved, nil
}

type recordedSync struct {
	op      SyncOp
	booking Booking
}

type fakeSync struct {
	ops []recordedSync
}

func (f *fakeSync) ScheduleSync(_ context.Context, op SyncOp, b *Booking) {
	f.ops = append(f.ops, recordedSync{op: op, booking: *b})
}
