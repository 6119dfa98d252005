package calendar

import "errors"

// Ошибки ядра бронирования. Каждая отклонённая операция возвращает ровно одну из них.
// ErrHostPermission: зеркало ErrGuestPermission для хоста, который меняет поля гостя.
var (
	ErrInvalidWeekday       = errors.New("weekday must be in range 0..6")
	ErrEmptyWeekdays        = errors.New("at least one weekday is required")
	ErrInvalidTimeRange     = errors.New("start time must be before end time")
	ErrHostNotFound         = errors.New("host not found")
	ErrCalendarNotFound     = errors.New("calendar not found")
	ErrCalendarExists       = errors.New("calendar already exists")
	ErrSelfBooking          = errors.New("cannot book own calendar")
	ErrPastBooking          = errors.New("cannot book a past date")
	ErrTimeSlotNotFound     = errors.New("time slot not found")
	ErrTimeSlotOverlap      = errors.New("time slot overlaps an existing one")
	ErrBookingNotFound      = errors.New("booking not found")
	ErrBookingAlreadyExists = errors.New("booking already exists")
	ErrGuestPermission      = errors.New("guest is not allowed to perform this action")
	ErrHostPermission       = errors.New("host is not allowed to change this field")
	ErrInvalidYearMonth     = errors.New("invalid year or month")
	ErrInvalidCalendar      = errors.New("invalid calendar data")
)
