package grpcapi

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/Leganyst/booking-calendar/internal/calendar"
	"github.com/Leganyst/booking-calendar/internal/calsync"
	"github.com/Leganyst/booking-calendar/internal/service"
)

// UserIDHeader: метаданные с ID пользователя, которые проставляет шлюз.
const UserIDHeader = "x-user-id"

func invalid(format string, args ...any) error {
	return status.Errorf(codes.InvalidArgument, format, args...)
}

// requesterID достаёт ID вызывающего из метаданных.
func requesterID(ctx context.Context) (uuid.UUID, error) {
	id, ok, err := optionalRequesterID(ctx)
	if err != nil {
		return uuid.Nil, err
	}
	if !ok {
		return uuid.Nil, status.Error(codes.Unauthenticated, UserIDHeader+" metadata is required")
	}
	return id, nil
}

func optionalRequesterID(ctx context.Context) (uuid.UUID, bool, error) {
	md, _ := metadata.FromIncomingContext(ctx)
	vals := md.Get(UserIDHeader)
	if len(vals) == 0 || vals[0] == "" {
		return uuid.Nil, false, nil
	}
	id, err := uuid.Parse(vals[0])
	if err != nil {
		return uuid.Nil, false, status.Errorf(codes.Unauthenticated, "invalid %s: %v", UserIDHeader, err)
	}
	return id, true, nil
}

// params: чтение полей запроса.
type params struct {
	fields map[string]*structpb.Value
}

func paramsOf(in *structpb.Struct) params {
	return params{fields: in.GetFields()}
}

func (p params) has(key string) bool {
	v, ok := p.fields[key]
	if !ok {
		return false
	}
	_, isNull := v.GetKind().(*structpb.Value_NullValue)
	return !isNull
}

func (p params) str(key string) string {
	return p.fields[key].GetStringValue()
}

func (p params) optStr(key string) *string {
	if !p.has(key) {
		return nil
	}
	s := p.str(key)
	return &s
}

func (p params) requiredStr(key string) (string, error) {
	s := p.str(key)
	if s == "" {
		return "", invalid("%s is required", key)
	}
	return s, nil
}

func (p params) integer(key string) (int, error) {
	if !p.has(key) {
		return 0, nil
	}
	n := p.fields[key].GetNumberValue()
	if n != math.Trunc(n) || math.Abs(n) > math.MaxInt32 {
		return 0, invalid("%s must be an integer", key)
	}
	return int(n), nil
}

func (p params) id(key string) (uuid.UUID, error) {
	s, err := p.requiredStr(key)
	if err != nil {
		return uuid.Nil, err
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, invalid("%s: %v", key, err)
	}
	return id, nil
}

func (p params) date(key string) (time.Time, error) {
	s, err := p.requiredStr(key)
	if err != nil {
		return time.Time{}, err
	}
	d, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, invalid("%s must be YYYY-MM-DD: %v", key, err)
	}
	return d, nil
}

func (p params) timeOfDay(key string) (calendar.TimeOfDay, error) {
	s, err := p.requiredStr(key)
	if err != nil {
		return 0, err
	}
	t, err := calendar.ParseTimeOfDay(s)
	if err != nil {
		return 0, invalid("%s: %v", key, err)
	}
	return t, nil
}

func (p params) strList(key string) ([]string, error) {
	if !p.has(key) {
		return nil, nil
	}
	vals, err := p.list(key)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(vals))
	for i, v := range vals {
		sv, ok := v.GetKind().(*structpb.Value_StringValue)
		if !ok {
			return nil, invalid("%s[%d] must be a string", key, i)
		}
		out = append(out, sv.StringValue)
	}
	return out, nil
}

func (p params) intList(key string) ([]int, error) {
	vals, err := p.list(key)
	if err != nil {
		return nil, err
	}
	out := make([]int, 0, len(vals))
	for i, v := range vals {
		nv, ok := v.GetKind().(*structpb.Value_NumberValue)
		if !ok || nv.NumberValue != math.Trunc(nv.NumberValue) {
			return nil, invalid("%s[%d] must be an integer", key, i)
		}
		out = append(out, int(nv.NumberValue))
	}
	return out, nil
}

// list: отсутствующее поле даёт пустой список, значение другого типа: ошибку.
func (p params) list(key string) ([]*structpb.Value, error) {
	if !p.has(key) {
		return nil, nil
	}
	lv, ok := p.fields[key].GetKind().(*structpb.Value_ListValue)
	if !ok {
		return nil, invalid("%s must be a list", key)
	}
	return lv.ListValue.GetValues(), nil
}

func (p params) attendance(key string) (calendar.AttendanceStatus, error) {
	s, err := p.requiredStr(key)
	if err != nil {
		return "", err
	}
	st, ok := calendar.ParseAttendanceStatus(s)
	if !ok {
		return "", invalid("unknown %s %q", key, s)
	}
	return st, nil
}

// mutation собирает частичное изменение бронирования из запроса.
func (p params) mutation() (calendar.Mutation, error) {
	m := calendar.Mutation{
		Topic:       p.optStr("topic"),
		Description: p.optStr("description"),
	}
	if p.has("when") {
		d, err := p.date("when")
		if err != nil {
			return m, err
		}
		m.When = &d
	}
	if p.has("time_slot_id") {
		id, err := p.id("time_slot_id")
		if err != nil {
			return m, err
		}
		m.TimeSlotID = &id
	}
	if p.has("attendance_status") {
		st, err := p.attendance("attendance_status")
		if err != nil {
			return m, err
		}
		m.Status = &st
	}
	return m, nil
}

func newStruct(m map[string]any) (*structpb.Struct, error) {
	s, err := structpb.NewStruct(m)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	return s, nil
}

func slotValue(s calendar.TimeSlot) map[string]any {
	days := make([]any, 0, len(s.Weekdays))
	for _, d := range s.Weekdays.Ints() {
		days = append(days, d)
	}
	return map[string]any{
		"id":          s.ID.String(),
		"calendar_id": s.CalendarID.String(),
		"start_time":  s.Range.Start.String(),
		"end_time":    s.Range.End.String(),
		"weekdays":    days,
	}
}

// busyValue: событие внешнего календаря в том же виде, что и занятая бронированием дата.
func busyValue(b calsync.BusyTime) map[string]any {
	days := make([]any, 0, len(b.Weekdays))
	for _, d := range b.Weekdays.Ints() {
		days = append(days, d)
	}
	return map[string]any{
		"id":   b.EventID,
		"when": b.When.Format(time.DateOnly),
		"time_slot": map[string]any{
			"start_time": b.Range.Start.String(),
			"end_time":   b.Range.End.String(),
			"weekdays":   days,
		},
	}
}

func bookingValue(b calendar.Booking) map[string]any {
	return map[string]any{
		"id":                b.ID.String(),
		"guest_id":          b.GuestID.String(),
		"calendar_id":       b.CalendarID.String(),
		"time_slot_id":      b.TimeSlotID.String(),
		"when":              b.When.Format(time.DateOnly),
		"topic":             b.Topic,
		"description":       b.Description,
		"attendance_status": string(b.Status),
		"external_event_id": b.ExternalEventID,
	}
}

func bookingViewValue(v service.BookingView) map[string]any {
	m := bookingValue(v.Booking)
	m["time_slot"] = slotValue(v.Slot)
	return m
}

func calendarValue(c *service.CalendarView) map[string]any {
	topics := make([]any, 0, len(c.Topics))
	for _, t := range c.Topics {
		topics = append(topics, t)
	}
	m := map[string]any{
		"id":            c.ID.String(),
		"host_id":       c.HostID.String(),
		"host_username": c.HostUsername,
		"topics":        topics,
		"description":   c.Description,
	}
	if c.Owner {
		m["external_calendar_id"] = c.ExternalCalendarID
		m["created_at"] = c.CreatedAt.UTC().Format(time.RFC3339)
		m["updated_at"] = c.UpdatedAt.UTC().Format(time.RFC3339)
	}
	return m
}

func pageValue(p calendar.Page[service.BookingView]) map[string]any {
	items := make([]any, 0, len(p.Items))
	for _, v := range p.Items {
		items = append(items, bookingViewValue(v))
	}
	return map[string]any{
		"items":     items,
		"page":      p.Page,
		"page_size": p.PageSize,
		"total":     p.Total,
		"has_next":  p.HasNext,
		"has_prev":  p.HasPrev,
	}
}

func yearMonth(p params) (int, int, error) {
	year, err := p.integer("year")
	if err != nil {
		return 0, 0, err
	}
	month, err := p.integer("month")
	if err != nil {
		return 0, 0, err
	}
	if err := calendar.ValidateYearMonth(year, month); err != nil {
		return 0, 0, invalid("%v: %d-%d", err, year, month)
	}
	return year, month, nil
}
