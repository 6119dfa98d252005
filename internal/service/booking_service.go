package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Leganyst/booking-calendar/internal/calendar"
	"github.com/Leganyst/booking-calendar/internal/calsync"
	"github.com/Leganyst/booking-calendar/internal/logging"
	"github.com/Leganyst/booking-calendar/internal/model"
	"github.com/Leganyst/booking-calendar/internal/repository"
)

// BookingView: бронирование вместе со слотом, на который оно сделано.
type BookingView struct {
	calendar.Booking
	Slot calendar.TimeSlot
}

// BookedDate: занятая дата в помесячном календаре хоста.
type BookedDate struct {
	When time.Time
	Slot calendar.TimeSlot
}

type BookingService struct {
	db   *gorm.DB
	opts Options
}

func NewBookingService(db *gorm.DB, opts Options) *BookingService {
	return &BookingService{db: db, opts: opts}
}

func (s *BookingService) CreateBooking(ctx context.Context, req calendar.CreateRequest) (*calendar.Booking, error) {
	b, err := s.resolve(ctx, req.RequesterID, nil, true, func(r *calendar.Resolver) (*calendar.Booking, error) {
		return r.CreateBooking(ctx, req)
	})
	if err != nil {
		return nil, err
	}
	logging.FromContext(ctx).Info("booking created",
		"booking_id", b.ID, "guest_id", b.GuestID, "when", b.When.Format(time.DateOnly), "time_slot_id", b.TimeSlotID)
	return b, nil
}

func (s *BookingService) UpdateBookingAsGuest(ctx context.Context, guestID, bookingID uuid.UUID, m calendar.Mutation) (*calendar.Booking, error) {
	return s.update(ctx, calendar.RoleGuest, guestID, bookingID, m)
}

func (s *BookingService) UpdateBookingAsHost(ctx context.Context, hostID, bookingID uuid.UUID, m calendar.Mutation) (*calendar.Booking, error) {
	return s.update(ctx, calendar.RoleHost, hostID, bookingID, m)
}

// SetAttendanceStatus: хост отмечает итог визита.
func (s *BookingService) SetAttendanceStatus(
	ctx context.Context,
	hostID, bookingID uuid.UUID,
	status calendar.AttendanceStatus,
) (*calendar.Booking, error) {
	return s.update(ctx, calendar.RoleHost, hostID, bookingID, calendar.Mutation{Status: &status})
}

// CancelBooking: отмена бронирования гостем.
func (s *BookingService) CancelBooking(ctx context.Context, guestID, bookingID uuid.UUID) (*calendar.Booking, error) {
	status := calendar.StatusCancelled
	return s.update(ctx, calendar.RoleGuest, guestID, bookingID, calendar.Mutation{Status: &status})
}

func (s *BookingService) update(
	ctx context.Context,
	role calendar.Role,
	requesterID, bookingID uuid.UUID,
	m calendar.Mutation,
) (*calendar.Booking, error) {
	b, err := s.resolve(ctx, requesterID, m.Fields(), false, func(r *calendar.Resolver) (*calendar.Booking, error) {
		return r.UpdateBooking(ctx, role, requesterID, bookingID, m)
	})
	if err != nil {
		return nil, err
	}
	logging.FromContext(ctx).Info("booking updated",
		"booking_id", b.ID, "role", role.String(), "requester_id", requesterID, "fields", m.Fields())
	return b, nil
}

// resolve выполняет решение ядра в транзакции вместе с записью в журнал.
// Задачи синхронизации ставятся в очередь после коммита, затем будится воркер.
func (s *BookingService) resolve(
	ctx context.Context,
	requesterID uuid.UUID,
	fields []calendar.Field,
	created bool,
	fn func(r *calendar.Resolver) (*calendar.Booking, error),
) (*calendar.Booking, error) {
	var (
		ob  outbox
		out *calendar.Booking
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		r := &calendar.Resolver{
			Store:    newStore(tx),
			Sync:     &ob,
			Now:      s.opts.now,
			Location: s.opts.location(),
		}
		b, err := fn(r)
		if err != nil {
			return err
		}
		out = b
		return recordEvent(ctx, tx, requesterID, b, fields, created)
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, calendar.ErrBookingAlreadyExists
	}
	if err != nil {
		return nil, err
	}
	if ob.flush(ctx, s.db, s.opts.now()) > 0 && s.opts.Notifier != nil {
		s.opts.Notifier.Notify()
	}
	return out, nil
}

// GetBooking возвращает бронирование его гостю или хосту календаря.
func (s *BookingService) GetBooking(ctx context.Context, requesterID, bookingID uuid.UUID) (*BookingView, error) {
	m, err := repository.NewGormBookingRepository(s.db).GetByID(ctx, bookingID)
	if notFound(err) {
		return nil, calendar.ErrBookingNotFound
	}
	if err != nil {
		return nil, err
	}
	if m.GuestID != requesterID {
		host, err := newStore(s.db).FindHostByCalendar(ctx, m.TimeSlot.CalendarID)
		if err != nil {
			return nil, err
		}
		if host == nil || host.ID != requesterID {
			return nil, calendar.ErrBookingNotFound
		}
	}
	return bookingView(m)
}

// ListHostBookings: бронирования календаря хоста, новые даты первыми.
func (s *BookingService) ListHostBookings(ctx context.Context, hostID uuid.UUID, page, pageSize int) (calendar.Page[BookingView], error) {
	page, pageSize, offset := calendar.NormalizePage(page, pageSize)
	ms, total, err := repository.NewGormBookingRepository(s.db).ListByHost(ctx, hostID, pageSize, offset)
	if err != nil {
		return calendar.Page[BookingView]{}, err
	}
	return bookingPage(ms, page, pageSize, total)
}

// ListGuestBookings: бронирования гостя, новые даты первыми.
func (s *BookingService) ListGuestBookings(ctx context.Context, guestID uuid.UUID, page, pageSize int) (calendar.Page[BookingView], error) {
	page, pageSize, offset := calendar.NormalizePage(page, pageSize)
	ms, total, err := repository.NewGormBookingRepository(s.db).ListByGuest(ctx, guestID, pageSize, offset)
	if err != nil {
		return calendar.Page[BookingView]{}, err
	}
	return bookingPage(ms, page, pageSize, total)
}

// ListCalendarBookings: занятые даты календаря хоста за месяц.
// Отменённые бронирования дату не занимают.
func (s *BookingService) ListCalendarBookings(ctx context.Context, hostUsername string, year, month int) ([]BookedDate, error) {
	from, to, err := calendar.MonthRange(year, month)
	if err != nil {
		return nil, err
	}
	host, err := findCalendarHost(ctx, newStore(s.db), hostUsername)
	if err != nil {
		return nil, err
	}

	ms, err := repository.NewGormBookingRepository(s.db).ListByCalendarRange(ctx, *host.CalendarID, from, to)
	if err != nil {
		return nil, err
	}
	out := make([]BookedDate, 0, len(ms))
	for i := range ms {
		if ms[i].AttendanceStatus == model.AttendanceCancelled {
			continue
		}
		v, err := bookingView(&ms[i])
		if err != nil {
			return nil, err
		}
		out = append(out, BookedDate{When: v.When, Slot: v.Slot})
	}
	return out, nil
}

// ListCalendarEvents: занятое время хоста за месяц из его внешнего календаря.
// События переводятся в опорный часовой пояс; в ответ попадают только даты месяца.
func (s *BookingService) ListCalendarEvents(ctx context.Context, hostUsername string, year, month int) ([]calsync.BusyTime, error) {
	first, last, err := calendar.MonthRange(year, month)
	if err != nil {
		return nil, err
	}
	host, err := findCalendarHost(ctx, newStore(s.db), hostUsername)
	if err != nil {
		return nil, err
	}
	if s.opts.External == nil {
		return []calsync.BusyTime{}, nil
	}
	cal, err := repository.NewGormCalendarRepository(s.db).GetByID(ctx, *host.CalendarID)
	if notFound(err) {
		return nil, calendar.ErrCalendarNotFound
	}
	if err != nil {
		return nil, err
	}
	calendarID := cal.ExternalCalendarID
	if calendarID == "" {
		calendarID = s.opts.ExternalCalendarID
	}
	if calendarID == "" {
		return []calsync.BusyTime{}, nil
	}

	loc := s.opts.location()
	from := calendar.TimeOfDay(0).On(first, loc)
	to := calendar.TimeOfDay(0).On(last.AddDate(0, 0, 1), loc)
	events, err := s.opts.External.ListEvents(ctx, calendarID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list external events: %w", err)
	}
	out := make([]calsync.BusyTime, 0, len(events))
	for _, ev := range events {
		busy, ok := ev.Busy(loc)
		if !ok || busy.When.Before(first) || busy.When.After(last) {
			continue
		}
		out = append(out, busy)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].When.Equal(out[j].When) {
			return out[i].When.Before(out[j].When)
		}
		return out[i].Range.Start < out[j].Range.Start
	})
	return out, nil
}

// findCalendarHost ищет хоста с календарём по имени пользователя.
func findCalendarHost(ctx context.Context, st *store, username string) (*calendar.Host, error) {
	host, err := st.FindHostByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if host == nil || !host.IsHost {
		return nil, calendar.ErrHostNotFound
	}
	if host.CalendarID == nil {
		return nil, calendar.ErrCalendarNotFound
	}
	return host, nil
}

func bookingView(m *model.Booking) (*BookingView, error) {
	v := &BookingView{Booking: bookingFromModel(m)}
	if m.TimeSlot != nil {
		slot, err := slotFromModel(m.TimeSlot)
		if err != nil {
			return nil, err
		}
		v.Slot = slot
	}
	return v, nil
}

func bookingPage(ms []model.Booking, page, pageSize int, total int64) (calendar.Page[BookingView], error) {
	items := make([]BookingView, 0, len(ms))
	for i := range ms {
		v, err := bookingView(&ms[i])
		if err != nil {
			return calendar.Page[BookingView]{}, err
		}
		items = append(items, *v)
	}
	return calendar.PageOf(items, page, pageSize, total), nil
}
