package grpcapi

import (
	"context"
	"time"

	"github.com/google/uuid"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/Leganyst/booking-calendar/internal/calendar"
	"github.com/Leganyst/booking-calendar/internal/service"
)

func (s *Server) createCalendar(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	uid, err := requesterID(ctx)
	if err != nil {
		return nil, err
	}
	p := paramsOf(in)
	topics, err := p.strList("topics")
	if err != nil {
		return nil, err
	}
	view, err := s.calendars.CreateCalendar(ctx, uid, service.CalendarInput{
		Topics:             topics,
		Description:        p.str("description"),
		ExternalCalendarID: p.str("external_calendar_id"),
	})
	if err != nil {
		return nil, toStatus(ctx, err)
	}
	return newStruct(calendarValue(view))
}

// getHostCalendar доступен без идентификатора: тогда отдаётся публичный вид.
func (s *Server) getHostCalendar(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	viewer, _, err := optionalRequesterID(ctx)
	if err != nil {
		return nil, err
	}
	username, err := paramsOf(in).requiredStr("host_username")
	if err != nil {
		return nil, err
	}
	view, err := s.calendars.GetHostCalendar(ctx, username, viewer)
	if err != nil {
		return nil, toStatus(ctx, err)
	}
	return newStruct(calendarValue(view))
}

func (s *Server) updateCalendar(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	uid, err := requesterID(ctx)
	if err != nil {
		return nil, err
	}
	p := paramsOf(in)
	topics, err := p.strList("topics")
	if err != nil {
		return nil, err
	}
	view, err := s.calendars.UpdateCalendar(ctx, uid, service.CalendarPatch{
		Topics:             topics,
		Description:        p.optStr("description"),
		ExternalCalendarID: p.optStr("external_calendar_id"),
	})
	if err != nil {
		return nil, toStatus(ctx, err)
	}
	return newStruct(calendarValue(view))
}

func (s *Server) createTimeSlot(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	uid, err := requesterID(ctx)
	if err != nil {
		return nil, err
	}
	p := paramsOf(in)
	start, err := p.timeOfDay("start_time")
	if err != nil {
		return nil, err
	}
	end, err := p.timeOfDay("end_time")
	if err != nil {
		return nil, err
	}
	weekdays, err := p.intList("weekdays")
	if err != nil {
		return nil, err
	}
	slot, err := s.calendars.CreateTimeSlot(ctx, uid, start, end, weekdays)
	if err != nil {
		return nil, toStatus(ctx, err)
	}
	return newStruct(slotValue(*slot))
}

func (s *Server) listTimeSlots(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	username, err := paramsOf(in).requiredStr("host_username")
	if err != nil {
		return nil, err
	}
	slots, err := s.calendars.ListTimeSlots(ctx, username)
	if err != nil {
		return nil, toStatus(ctx, err)
	}
	items := make([]any, 0, len(slots))
	for _, slot := range slots {
		items = append(items, slotValue(slot))
	}
	return newStruct(map[string]any{"time_slots": items})
}

func (s *Server) createBooking(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	uid, err := requesterID(ctx)
	if err != nil {
		return nil, err
	}
	p := paramsOf(in)
	username, err := p.requiredStr("host_username")
	if err != nil {
		return nil, err
	}
	when, err := p.date("when")
	if err != nil {
		return nil, err
	}
	slotID, err := p.id("time_slot_id")
	if err != nil {
		return nil, err
	}
	b, err := s.bookings.CreateBooking(ctx, calendar.CreateRequest{
		RequesterID:  uid,
		HostUsername: username,
		When:         when,
		TimeSlotID:   slotID,
		Topic:        p.str("topic"),
		Description:  p.str("description"),
	})
	if err != nil {
		return nil, toStatus(ctx, err)
	}
	return newStruct(bookingValue(*b))
}

func (s *Server) updateBookingAsGuest(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return s.updateBooking(ctx, in, s.bookings.UpdateBookingAsGuest)
}

func (s *Server) updateBookingAsHost(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return s.updateBooking(ctx, in, s.bookings.UpdateBookingAsHost)
}

type updateFunc func(ctx context.Context, requesterID, bookingID uuid.UUID, m calendar.Mutation) (*calendar.Booking, error)

func (s *Server) updateBooking(ctx context.Context, in *structpb.Struct, update updateFunc) (*structpb.Struct, error) {
	uid, err := requesterID(ctx)
	if err != nil {
		return nil, err
	}
	p := paramsOf(in)
	bookingID, err := p.id("booking_id")
	if err != nil {
		return nil, err
	}
	m, err := p.mutation()
	if err != nil {
		return nil, err
	}
	if len(m.Fields()) == 0 {
		return nil, invalid("nothing to update")
	}
	b, err := update(ctx, uid, bookingID, m)
	if err != nil {
		return nil, toStatus(ctx, err)
	}
	return newStruct(bookingValue(*b))
}

func (s *Server) setAttendanceStatus(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	uid, err := requesterID(ctx)
	if err != nil {
		return nil, err
	}
	p := paramsOf(in)
	bookingID, err := p.id("booking_id")
	if err != nil {
		return nil, err
	}
	st, err := p.attendance("attendance_status")
	if err != nil {
		return nil, err
	}
	b, err := s.bookings.SetAttendanceStatus(ctx, uid, bookingID, st)
	if err != nil {
		return nil, toStatus(ctx, err)
	}
	return newStruct(bookingValue(*b))
}

func (s *Server) cancelBooking(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	uid, err := requesterID(ctx)
	if err != nil {
		return nil, err
	}
	bookingID, err := paramsOf(in).id("booking_id")
	if err != nil {
		return nil, err
	}
	b, err := s.bookings.CancelBooking(ctx, uid, bookingID)
	if err != nil {
		return nil, toStatus(ctx, err)
	}
	return newStruct(bookingValue(*b))
}

func (s *Server) getBooking(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	uid, err := requesterID(ctx)
	if err != nil {
		return nil, err
	}
	bookingID, err := paramsOf(in).id("booking_id")
	if err != nil {
		return nil, err
	}
	view, err := s.bookings.GetBooking(ctx, uid, bookingID)
	if err != nil {
		return nil, toStatus(ctx, err)
	}
	return newStruct(bookingViewValue(*view))
}

func (s *Server) listHostBookings(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return s.listBookings(ctx, in, s.bookings.ListHostBookings)
}

func (s *Server) listGuestBookings(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return s.listBookings(ctx, in, s.bookings.ListGuestBookings)
}

type listFunc func(ctx context.Context, userID uuid.UUID, page, pageSize int) (calendar.Page[service.BookingView], error)

func (s *Server) listBookings(ctx context.Context, in *structpb.Struct, list listFunc) (*structpb.Struct, error) {
	uid, err := requesterID(ctx)
	if err != nil {
		return nil, err
	}
	p := paramsOf(in)
	page, err := p.integer("page")
	if err != nil {
		return nil, err
	}
	size, err := p.integer("page_size")
	if err != nil {
		return nil, err
	}
	result, err := list(ctx, uid, page, size)
	if err != nil {
		return nil, toStatus(ctx, err)
	}
	return newStruct(pageValue(result))
}

func (s *Server) listCalendarBookings(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	p := paramsOf(in)
	username, err := p.requiredStr("host_username")
	if err != nil {
		return nil, err
	}
	year, month, err := yearMonth(p)
	if err != nil {
		return nil, err
	}
	booked, err := s.bookings.ListCalendarBookings(ctx, username, year, month)
	if err != nil {
		return nil, toStatus(ctx, err)
	}
	busy, err := s.bookings.ListCalendarEvents(ctx, username, year, month)
	if err != nil {
		return nil, toStatus(ctx, err)
	}
	items := make([]any, 0, len(booked))
	for _, b := range booked {
		items = append(items, map[string]any{
			"when":      b.When.Format(time.DateOnly),
			"time_slot": slotValue(b.Slot),
		})
	}
	events := make([]any, 0, len(busy))
	for _, b := range busy {
		events = append(events, busyValue(b))
	}
	return newStruct(map[string]any{"bookings": items, "events": events})
}

func (s *Server) bookableDates(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	p := paramsOf(in)
	username, err := p.requiredStr("host_username")
	if err != nil {
		return nil, err
	}
	year, month, err := yearMonth(p)
	if err != nil {
		return nil, err
	}
	dates, err := s.calendars.BookableDates(ctx, username, year, month)
	if err != nil {
		return nil, toStatus(ctx, err)
	}
	items := make([]any, 0, len(dates))
	for _, d := range dates {
		items = append(items, map[string]any{
			"date":         d.Date.Format(time.DateOnly),
			"time_slot_id": d.SlotID.String(),
			"start_time":   d.Range.Start.String(),
			"end_time":     d.Range.End.String(),
		})
	}
	return newStruct(map[string]any{"dates": items})
}

func (s *Server) monthGrid(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	year, month, err := yearMonth(paramsOf(in))
	if err != nil {
		return nil, err
	}
	grid, err := calendar.MonthGrid(year, month)
	if err != nil {
		return nil, toStatus(ctx, err)
	}
	days := make([]any, 0, len(grid))
	for _, d := range grid {
		days = append(days, d)
	}
	return newStruct(map[string]any{"days": days})
}
