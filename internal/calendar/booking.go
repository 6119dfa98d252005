package calendar

import (
	"time"

	"github.com/google/uuid"
)

// AttendanceStatus: статус посещения бронирования.
type AttendanceStatus string

const (
	StatusScheduled     AttendanceStatus = "scheduled"
	StatusAttended      AttendanceStatus = "attended"
	StatusNoShow        AttendanceStatus = "no_show"
	StatusCancelled     AttendanceStatus = "cancelled"
	StatusSameDayCancel AttendanceStatus = "same_day_cancel"
	StatusLate          AttendanceStatus = "late"
)

var attendanceStatuses = []AttendanceStatus{
	StatusScheduled,
	StatusAttended,
	StatusNoShow,
	StatusCancelled,
	StatusSameDayCancel,
	StatusLate,
}

// ParseAttendanceStatus возвращает статус по его строковому коду.
func ParseAttendanceStatus(s string) (AttendanceStatus, bool) {
	for _, st := range attendanceStatuses {
		if string(st) == s {
			return st, true
		}
	}
	return "", false
}

// Host: пользователь, которому бронируют время.
type Host struct {
	ID         uuid.UUID
	Username   string
	IsHost     bool
	CalendarID *uuid.UUID
}

// Bookable: хост существует, отмечен как хост и имеет календарь.
func (h *Host) Bookable() bool {
	return h != nil && h.IsHost && h.CalendarID != nil
}

// Booking: конкретное бронирование на дату по слоту.
type Booking struct {
	ID              uuid.UUID
	GuestID         uuid.UUID
	CalendarID      uuid.UUID
	TimeSlotID      uuid.UUID
	When            time.Time // дата без времени, полночь UTC
	Topic           string
	Description     string
	Status          AttendanceStatus
	ExternalEventID string
}

// DateOf отбрасывает время суток и часовой пояс, оставляя календарную дату.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
